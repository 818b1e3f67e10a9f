package reliability

import (
	"testing"
	"time"

	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentRoundTrip(t *testing.T) {
	payload := make([]byte, 3000)
	for i := range payload {
		payload[i] = byte(i % 256)
	}

	frags := Fragment(guid.EntityIDUnknown, guid.EntityIDUnknown, 1, payload, 1024)
	require.Len(t, frags, 3)

	r := NewFragmentReassembler(time.Second)
	writer := guid.GUID{}
	var assembled []byte
	for i, f := range frags {
		out, ok := r.Accept(writer, f)
		if i < len(frags)-1 {
			assert.False(t, ok)
		} else {
			assert.True(t, ok)
			assembled = out
		}
	}
	assert.Equal(t, payload, assembled)
	assert.Equal(t, 0, r.Pending())
}

func TestFragmentReassemblerOutOfOrder(t *testing.T) {
	payload := []byte("0123456789abcdef")
	frags := Fragment(guid.EntityIDUnknown, guid.EntityIDUnknown, 1, payload, 4)
	require.Len(t, frags, 4)

	r := NewFragmentReassembler(time.Second)
	writer := guid.GUID{}
	// Feed fragments in reverse order.
	for i := len(frags) - 1; i >= 0; i-- {
		out, ok := r.Accept(writer, frags[i])
		if i == 0 {
			require.True(t, ok)
			assert.Equal(t, payload, out)
		} else {
			assert.False(t, ok)
		}
	}
}

func TestFragmentReassemblerSweepEvictsStale(t *testing.T) {
	r := NewFragmentReassembler(10 * time.Millisecond)
	writer := guid.GUID{}
	r.Accept(writer, DataFrag{WriterSN: 1, SampleSize: 100, FragmentSize: 10, FragmentStartingNum: 1, SerializedPayload: make([]byte, 10)})
	assert.Equal(t, 1, r.Pending())

	time.Sleep(20 * time.Millisecond)
	evicted := r.Sweep(time.Now())
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 0, r.Pending())
}

func TestFragmentSingleFragmentQuirkNormalizes(t *testing.T) {
	df := DataFrag{FragmentsInSubmessage: 0}
	assert.Equal(t, uint16(1), df.EffectiveFragmentCount())

	df2 := DataFrag{FragmentsInSubmessage: 3}
	assert.Equal(t, uint16(3), df2.EffectiveFragmentCount())
}
