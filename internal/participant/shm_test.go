package participant

import (
	"testing"

	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
)

func TestSHMFrameRoundTrip(t *testing.T) {
	frame := encodeSHMFrame(guid.SequenceNumber(42), []byte("sample payload"))
	sn, payload, ok := decodeSHMFrame(frame)

	assert.True(t, ok)
	assert.Equal(t, guid.SequenceNumber(42), sn)
	assert.Equal(t, []byte("sample payload"), payload)
}

func TestSHMFrameRoundTripEmptyPayload(t *testing.T) {
	frame := encodeSHMFrame(guid.SequenceNumber(1), nil)
	sn, payload, ok := decodeSHMFrame(frame)

	assert.True(t, ok)
	assert.Equal(t, guid.SequenceNumber(1), sn)
	assert.Empty(t, payload)
}

func TestDecodeSHMFrameRejectsShortFrame(t *testing.T) {
	_, _, ok := decodeSHMFrame([]byte{1, 2, 3})
	assert.False(t, ok)
}
