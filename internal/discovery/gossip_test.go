package discovery

import (
	"testing"
	"time"

	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
)

func TestGossipTableAdmitsFirstAndRejectsReplay(t *testing.T) {
	g := NewGossipTable()
	origin := guid.New(testPrefix(0x20), guid.EntityIDParticipant)
	now := time.Now()

	assert.True(t, g.Admit(origin, 1, now))
	assert.False(t, g.Admit(origin, 1, now.Add(time.Second)))
	assert.Equal(t, 1, g.Len())
}

func TestGossipTableDistinctSequenceNumbersBothAdmitted(t *testing.T) {
	g := NewGossipTable()
	origin := guid.New(testPrefix(0x21), guid.EntityIDParticipant)
	now := time.Now()

	assert.True(t, g.Admit(origin, 1, now))
	assert.True(t, g.Admit(origin, 2, now))
	assert.Equal(t, 2, g.Len())
}

func TestGossipTableReadmitsAfterTTLExpires(t *testing.T) {
	g := NewGossipTable()
	origin := guid.New(testPrefix(0x22), guid.EntityIDParticipant)
	now := time.Now()

	assert.True(t, g.Admit(origin, 1, now))
	later := now.Add(gossipTTL + time.Second)
	assert.True(t, g.Admit(origin, 1, later))
}

func TestGossipTableSweepPurgesExpiredEntries(t *testing.T) {
	g := NewGossipTable()
	origin := guid.New(testPrefix(0x23), guid.EntityIDParticipant)
	now := time.Now()

	g.Admit(origin, 1, now)
	g.Admit(origin, 2, now)

	purged := g.Sweep(now.Add(gossipTTL + time.Second))
	assert.Equal(t, 2, purged)
	assert.Equal(t, 0, g.Len())
}
