package guid

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGUIDRoundTrip(t *testing.T) {
	raw := [16]byte{1, 15, 172, 16, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 0xC1}
	g := FromBytes(raw[:])
	assert.Equal(t, raw, g.Bytes())
	assert.False(t, g.IsZero())
	assert.Equal(t, KindParticipant, g.EntityID.Kind())
}

func TestParseGUIDRoundTrip(t *testing.T) {
	raw := [16]byte{1, 15, 172, 16, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1, 0xC1}
	g := FromBytes(raw[:])

	parsed, err := ParseGUID(g.String())
	assert.NoError(t, err)
	assert.Equal(t, g, parsed)
}

func TestParseGUIDRejectsMalformedInput(t *testing.T) {
	_, err := ParseGUID("not-a-guid")
	assert.Error(t, err)

	_, err = ParseGUID("aabb:ccdd")
	assert.Error(t, err)
}

func TestZeroGUID(t *testing.T) {
	var g GUID
	assert.True(t, g.IsZero())
}

func TestParticipantGUID(t *testing.T) {
	g := New(GUIDPrefix{1, 2, 3}, EntityIDSPDPWriter)
	p := g.ParticipantGUID()
	assert.Equal(t, EntityIDParticipant, p.EntityID)
	assert.Equal(t, g.Prefix, p.Prefix)
}

func TestSequenceNumberParts(t *testing.T) {
	s := SequenceNumber(1)
	high, low := s.Parts()
	assert.Equal(t, int32(0), high)
	assert.Equal(t, uint32(1), low)
	assert.Equal(t, s, SequenceNumberFromParts(high, low))
	assert.True(t, s.IsValid())
}

func TestSequenceNumberBoundary(t *testing.T) {
	// exercise the high:i32/low:u32 split around the u32 boundary
	s := SequenceNumberFromParts(1, 0xFFFFFFFF)
	high, low := s.Parts()
	assert.Equal(t, int32(1), high)
	assert.Equal(t, uint32(0xFFFFFFFF), low)
	assert.Equal(t, s, SequenceNumberFromParts(high, low))
}

func TestUnknownSequenceNumber(t *testing.T) {
	assert.False(t, Unknown.IsValid())
}

func TestLocatorUDPv4(t *testing.T) {
	l := NewUDPv4Locator(net.ParseIP("239.255.0.1"), 7400)
	assert.Equal(t, LocatorKindUDPv4, l.Kind)
	assert.True(t, l.IsMulticast())
	assert.Equal(t, "239.255.0.1", l.IP().String())
}

func TestLocatorEqual(t *testing.T) {
	a := NewUDPv4Locator(net.ParseIP("10.0.0.1"), 7410)
	b := NewUDPv4Locator(net.ParseIP("10.0.0.1"), 7410)
	c := NewUDPv4Locator(net.ParseIP("10.0.0.2"), 7410)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
