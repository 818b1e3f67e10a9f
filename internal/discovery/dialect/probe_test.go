package dialect

import (
	"testing"
	"time"

	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
)

func TestProbeCommitsOnWindowCount(t *testing.T) {
	p := NewProbe(3, time.Minute)
	now := time.Now()
	assert.False(t, p.Ready(now))
	p.Observe([2]byte(VendorIDRTI), now)
	p.Observe([2]byte(VendorIDRTI), now)
	assert.False(t, p.Ready(now))
	p.Observe([2]byte(VendorIDRTI), now)
	assert.True(t, p.Ready(now))
	assert.Equal(t, VariantRTI, p.Commit())
}

func TestProbeCommitsOnTimeout(t *testing.T) {
	p := NewProbe(10, 2*time.Second)
	start := time.Now()
	p.Observe([2]byte(VendorIDCycloneDDS), start)
	assert.False(t, p.Ready(start))
	assert.True(t, p.Ready(start.Add(3*time.Second)))
	assert.Equal(t, VariantCycloneDDS, p.Commit())
}

func TestProbeCommitTakesPlurality(t *testing.T) {
	p := NewProbe(5, time.Minute)
	now := time.Now()
	p.Observe([2]byte(VendorIDRTI), now)
	p.Observe([2]byte(VendorIDRTI), now)
	p.Observe([2]byte(VendorIDRTI), now)
	p.Observe([2]byte(VendorIDFastDDS), now)
	p.Observe([2]byte(VendorIDFastDDS), now)
	assert.Equal(t, VariantRTI, p.Commit())
}

func TestProbeTableCommitsAndCaches(t *testing.T) {
	table := NewProbeTable(2, time.Minute)
	id := guid.New(samplePrefix(), guid.EntityIDParticipant)
	now := time.Now()

	assert.Equal(t, VariantHybrid, table.Variant(id))
	table.Observe(id, [2]byte(VendorIDOpenDDS), now)
	table.Observe(id, [2]byte(VendorIDOpenDDS), now)
	assert.Equal(t, VariantOpenDDS, table.Variant(id))

	// further observations are ignored once committed
	table.Observe(id, [2]byte(VendorIDRTI), now)
	assert.Equal(t, VariantOpenDDS, table.Variant(id))
}

func TestProbeTableForgetClearsState(t *testing.T) {
	table := NewProbeTable(1, time.Minute)
	id := guid.New(samplePrefix(), guid.EntityIDParticipant)
	table.Observe(id, [2]byte(VendorIDRTI), time.Now())
	assert.Equal(t, VariantRTI, table.Variant(id))

	table.Forget(id)
	assert.Equal(t, VariantHybrid, table.Variant(id))
}
