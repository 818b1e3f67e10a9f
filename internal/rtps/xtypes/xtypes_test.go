package xtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleFinal() *TypeObject {
	return &TypeObject{
		Tier:          TierComplete,
		Name:          "Temperature",
		Extensibility: ExtensibilityFinal,
		Members: []Member{
			{ID: 0, Name: "value", Type: NewPrimitiveIdentifier(TKFloat32)},
			{ID: 1, Name: "timestamp", Type: NewPrimitiveIdentifier(TKUint64)},
		},
	}
}

func TestEquivalenceHashStableAcrossNames(t *testing.T) {
	a := sampleFinal()
	b := sampleFinal()
	b.Name = "DifferentName" // names must not affect the Minimal-tier hash
	assert.Equal(t, a.EquivalenceHash(), b.EquivalenceHash())
}

func TestEquivalenceHashDiffersOnShape(t *testing.T) {
	a := sampleFinal()
	b := sampleFinal()
	b.Members = append(b.Members, Member{ID: 2, Type: NewPrimitiveIdentifier(TKBoolean)})
	assert.NotEqual(t, a.EquivalenceHash(), b.EquivalenceHash())
}

func TestFinalAssignability(t *testing.T) {
	a := sampleFinal()
	b := sampleFinal()
	assert.True(t, IsAssignable(a, b))

	c := sampleFinal()
	c.Members[0].Type = NewPrimitiveIdentifier(TKFloat64)
	assert.False(t, IsAssignable(a, c))
}

func TestAppendableAssignability(t *testing.T) {
	writer := sampleFinal()
	writer.Extensibility = ExtensibilityAppendable
	reader := sampleFinal()
	reader.Extensibility = ExtensibilityAppendable
	reader.Members = reader.Members[:1] // reader only knows about "value"

	assert.True(t, IsAssignable(writer, reader))
}

func TestMutableAssignability(t *testing.T) {
	writer := sampleFinal()
	writer.Extensibility = ExtensibilityMutable
	reader := &TypeObject{
		Extensibility: ExtensibilityMutable,
		Members: []Member{
			{ID: 1, Type: NewPrimitiveIdentifier(TKUint64)},
			{ID: 5, Type: NewPrimitiveIdentifier(TKBoolean), Optional: true},
		},
	}
	assert.True(t, IsAssignable(writer, reader))

	reader.Members[1].Optional = false
	assert.False(t, IsAssignable(writer, reader))
}

func TestMixedExtensibilityIncompatible(t *testing.T) {
	writer := sampleFinal()
	reader := sampleFinal()
	reader.Extensibility = ExtensibilityAppendable
	assert.False(t, IsAssignable(writer, reader))
}

func TestCompressRoundTrip(t *testing.T) {
	raw := sampleFinal().SerializeCDR2()
	payload, compressed := ChooseEncoding(raw)
	if compressed {
		out, err := DecompressTypeObject(payload)
		assert.NoError(t, err)
		assert.Equal(t, raw, out)
	} else {
		assert.Equal(t, raw, payload)
	}
}

func TestTypeMatchFallsBackToName(t *testing.T) {
	w := TypeDescriptor{Name: "Temperature"}
	r := TypeDescriptor{Name: "Temperature"}
	assert.True(t, Compatible(w, r))

	r.Name = "Other"
	assert.False(t, Compatible(w, r))
}
