package discovery

import (
	"sync"
	"time"

	"github.com/naskel/hdds/internal/rtps/guid"
)

const gossipTTL = 5 * time.Minute

type gossipKey struct {
	origin guid.GUID
	seq    guid.SequenceNumber
}

// GossipTable is the anti-loop guard used when a discovery-server relay
// forwards SPDP/SEDP announcements between participants that cannot reach
// each other directly: a bounded (origin, announce_seq) -> timestamp map
// rejecting announcements already relayed once, with a 5-minute TTL.
type GossipTable struct {
	mu      sync.Mutex
	seen    map[gossipKey]time.Time
}

// NewGossipTable creates an empty table.
func NewGossipTable() *GossipTable {
	return &GossipTable{seen: make(map[gossipKey]time.Time)}
}

// Admit reports whether (origin, seq) has not been seen within the TTL
// window, recording it as seen if so. Relays call this before
// re-forwarding an announcement; a false return means drop it silently.
func (g *GossipTable) Admit(origin guid.GUID, seq guid.SequenceNumber, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := gossipKey{origin: origin, seq: seq}
	if seen, ok := g.seen[key]; ok && now.Sub(seen) < gossipTTL {
		return false
	}
	g.seen[key] = now
	return true
}

// Sweep evicts entries older than the TTL, returning the count removed.
// Meant to be called periodically from the same control thread driving
// the participant lease sweeper.
func (g *GossipTable) Sweep(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	purged := 0
	for k, seen := range g.seen {
		if now.Sub(seen) >= gossipTTL {
			delete(g.seen, k)
			purged++
		}
	}
	return purged
}

// Len returns the number of currently-tracked (origin, seq) pairs.
func (g *GossipTable) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}
