package cdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTripLE(t *testing.T) {
	w := NewWriter(SchemeCDR_LE, 64)
	w.WriteUint32(42)
	w.WriteString("sensor/temp")
	w.WriteFloat64(23.5)
	w.WriteBool(true)
	payload := w.FinishWithBody()

	scheme, _, body, err := ReadHeader(payload)
	require.NoError(t, err)
	assert.Equal(t, SchemeCDR_LE, scheme)

	r := NewReader(scheme, body)
	u, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), u)

	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "sensor/temp", s)

	f, err := r.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, 23.5, f)

	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)
}

func TestStringCDR2DropsNulLength(t *testing.T) {
	w := NewWriter(SchemeCDR2_LE, 32)
	w.WriteString("abc")
	body := w.Bytes()
	// CDR2 length excludes the NUL terminator: 3, not 4
	assert.Equal(t, uint32(3), le32(body[0:4]))
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestAlignment(t *testing.T) {
	w := NewWriter(SchemeCDR_LE, 32)
	w.WriteByte(1) // offset 1
	w.WriteUint32(7)
	// uint32 should have been aligned to offset 4
	assert.Equal(t, 8, w.Len())
}

func TestParameterListRoundTrip(t *testing.T) {
	w := NewWriter(SchemePL_CDR_LE, 64)
	plw := NewParameterListWriter(w)
	plw.WriteParam(PIDTopicName, []byte("sensor/temp\x00"))
	plw.WriteParam(PIDReliability, []byte{0, 0, 0, 2})
	plw.WriteSentinel()

	r := NewReader(SchemePL_CDR_LE, w.Bytes())
	plr := NewParameterListReader(r)
	params, err := plr.ReadAll()
	require.NoError(t, err)
	require.Len(t, params, 2)

	val, ok := Lookup(params, PIDTopicName)
	require.True(t, ok)
	assert.Equal(t, "sensor/temp\x00", string(val))
}

func TestParameterListUnknownPIDSkipped(t *testing.T) {
	w := NewWriter(SchemePL_CDR_LE, 64)
	plw := NewParameterListWriter(w)
	plw.WriteParam(PID(0x9999), []byte{1, 2, 3, 4})
	plw.WriteParam(PIDTopicName, []byte("x\x00\x00\x00"))
	plw.WriteSentinel()

	r := NewReader(SchemePL_CDR_LE, w.Bytes())
	params, err := NewParameterListReader(r).ReadAll()
	require.NoError(t, err)
	require.Len(t, params, 2) // decoder sees both; caller ignores the unknown one
	_, ok := Lookup(params, PIDTopicName)
	assert.True(t, ok)
}

func TestMutableStructFraming(t *testing.T) {
	w := NewWriter(SchemeCDR2_LE, 64)
	mw := BeginMutable(w)
	mw.WriteMember(1, []byte{0, 0, 0, 42})
	mw.WriteMember(2, []byte("hello\x00\x00\x00"))
	mw.Finish()

	r := NewReader(SchemeCDR2_LE, w.Bytes())
	members, err := ReadMutable(r)
	require.NoError(t, err)
	require.Len(t, members, 2)

	v, ok := LookupMember(members, 1)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 0, 0, 42}, v)
}

func TestHeaderRejectsUnknownScheme(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0x00, 0x00}
	_, _, _, err := ReadHeader(buf)
	assert.Error(t, err)
}

func TestHeaderRejectsShortBuffer(t *testing.T) {
	_, _, _, err := ReadHeader([]byte{0x00, 0x01})
	assert.Error(t, err)
}
