package dialect

import (
	"testing"
	"time"

	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
)

func TestHotswapDefaultsToHybridUntilFirstConsider(t *testing.T) {
	h := NewHotswap()
	id := guid.New(samplePrefix(), guid.EntityIDParticipant)
	assert.Equal(t, VariantHybrid, h.Active(id))
}

func TestHotswapConsiderSwapsAndTriggersReannounce(t *testing.T) {
	h := NewHotswap()
	id := guid.New(samplePrefix(), guid.EntityIDParticipant)

	var reannounced []Variant
	h.Reannounce = func(gotID guid.GUID, v Variant) {
		assert.Equal(t, id, gotID)
		reannounced = append(reannounced, v)
	}

	now := time.Now()
	h.Consider(id, VariantRTI, now)
	assert.Equal(t, VariantRTI, h.Active(id))
	requireLen(t, reannounced, 1)

	// committing the same variant again is a no-op, not a second swap
	h.Consider(id, VariantRTI, now.Add(time.Second))
	requireLen(t, reannounced, 1)

	h.Consider(id, VariantOpenDDS, now.Add(2*time.Second))
	assert.Equal(t, VariantOpenDDS, h.Active(id))
	requireLen(t, reannounced, 2)
}

func TestHotswapObserveDuringOverlapClassifiesCounters(t *testing.T) {
	h := NewHotswap()
	id := guid.New(samplePrefix(), guid.EntityIDParticipant)

	start := time.Now()
	h.Consider(id, VariantRTI, start)

	h.ObserveDuringOverlap(id, VariantRTI, start.Add(time.Millisecond))
	h.ObserveDuringOverlap(id, VariantHybrid, start.Add(2*time.Millisecond))
	h.ObserveDuringOverlap(id, VariantFastDDS, start.Add(3*time.Millisecond))

	counters := h.Counters(id)
	assert.EqualValues(t, 1, counters.RxNew)
	assert.EqualValues(t, 1, counters.Loss)
	assert.EqualValues(t, 1, counters.RxOld)
}

func TestHotswapOverlapWindowExpires(t *testing.T) {
	h := NewHotswap()
	id := guid.New(samplePrefix(), guid.EntityIDParticipant)

	start := time.Now()
	h.Consider(id, VariantRTI, start)
	h.ObserveDuringOverlap(id, VariantRTI, start.Add(overlapWindowDuration+time.Second))

	counters := h.Counters(id)
	assert.EqualValues(t, 0, counters.RxNew)
}

func requireLen(t *testing.T, s []Variant, n int) {
	t.Helper()
	assert.Len(t, s, n)
}
