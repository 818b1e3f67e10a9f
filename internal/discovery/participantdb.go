package discovery

import (
	"sync"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/pkg/metrics"

	"github.com/naskel/hdds/internal/rtps/guid"
)

// remoteParticipant tracks one discovered peer's proxy and lease state.
type remoteParticipant struct {
	proxy      ParticipantProxy
	lastSeen   time.Time
	dialect    string
}

// ParticipantDB is the authoritative table of remote participants this
// process has discovered via SPDP, with lease expiry tracked by a
// background sweeper (§4.1, §5 "one lease-sweeper thread per
// participant").
type ParticipantDB struct {
	mu      sync.RWMutex
	entries map[guid.GUID]*remoteParticipant
	metrics metrics.DiscoveryMetrics

	stop chan struct{}
}

// NewParticipantDB creates an empty database. m may be nil to disable
// metrics collection.
func NewParticipantDB(m metrics.DiscoveryMetrics) *ParticipantDB {
	return &ParticipantDB{
		entries: make(map[guid.GUID]*remoteParticipant),
		metrics: m,
		stop:    make(chan struct{}),
	}
}

// Upsert records or refreshes a participant's proxy and lease, returning
// true if this is the first time the participant has been seen.
func (db *ParticipantDB) Upsert(p ParticipantProxy) (isNew bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	e, ok := db.entries[p.GUID]
	if !ok {
		e = &remoteParticipant{}
		db.entries[p.GUID] = e
		isNew = true
	}
	e.proxy = p
	e.lastSeen = time.Now()

	if db.metrics != nil {
		db.metrics.SetDiscoveredParticipants(len(db.entries))
	}
	if isNew {
		logger.Info("participant discovered",
			logger.Participant(p.GUID.Prefix[:]),
			logger.LeaseMs(p.LeaseDuration.Milliseconds()),
		)
	}
	return isNew
}

// SetDialect records the detected vendor dialect for a participant,
// populated by the dialect probe once it commits (§4.4).
func (db *ParticipantDB) SetDialect(id guid.GUID, dialect string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if e, ok := db.entries[id]; ok {
		e.dialect = dialect
	}
}

// Dialect returns the committed dialect for a participant, or "" if
// unknown/not yet probed.
func (db *ParticipantDB) Dialect(id guid.GUID) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if e, ok := db.entries[id]; ok {
		return e.dialect
	}
	return ""
}

// Get returns the current proxy for a known participant.
func (db *ParticipantDB) Get(id guid.GUID) (ParticipantProxy, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	e, ok := db.entries[id]
	if !ok {
		return ParticipantProxy{}, false
	}
	return e.proxy, true
}

// All returns every currently-tracked participant proxy.
func (db *ParticipantDB) All() []ParticipantProxy {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]ParticipantProxy, 0, len(db.entries))
	for _, e := range db.entries {
		out = append(out, e.proxy)
	}
	return out
}

// Remove evicts a participant, used both by the lease sweeper and when an
// explicit SPDP dispose is received.
func (db *ParticipantDB) Remove(id guid.GUID) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.entries[id]; !ok {
		return false
	}
	delete(db.entries, id)
	if db.metrics != nil {
		db.metrics.SetDiscoveredParticipants(len(db.entries))
	}
	return true
}

// sweepInterval returns how often the lease sweeper checks for expired
// participants: a quarter of the shortest observed lease, floored at 1s
// (mirroring internal/reliability's cleanup-timer interval-flooring
// pattern, scaled for SPDP's much longer lease durations).
func (db *ParticipantDB) sweepInterval() time.Duration {
	db.mu.RLock()
	defer db.mu.RUnlock()
	shortest := 100 * time.Second
	for _, e := range db.entries {
		if e.proxy.LeaseDuration > 0 && e.proxy.LeaseDuration < shortest {
			shortest = e.proxy.LeaseDuration
		}
	}
	interval := shortest / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// RunLeaseSweeper loops until stopped, evicting participants whose lease
// has expired without a renewed SPDP announcement (§4.1).
func (db *ParticipantDB) RunLeaseSweeper(done <-chan struct{}) {
	for {
		interval := db.sweepInterval()
		timer := time.NewTimer(interval)
		select {
		case <-done:
			timer.Stop()
			return
		case <-db.stop:
			timer.Stop()
			return
		case now := <-timer.C:
			db.sweepOnce(now)
		}
	}
}

func (db *ParticipantDB) sweepOnce(now time.Time) {
	db.mu.Lock()
	var expired []guid.GUID
	for id, e := range db.entries {
		if e.proxy.LeaseDuration <= 0 {
			continue
		}
		if now.Sub(e.lastSeen) > e.proxy.LeaseDuration {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(db.entries, id)
	}
	if db.metrics != nil && len(expired) > 0 {
		db.metrics.SetDiscoveredParticipants(len(db.entries))
	}
	db.mu.Unlock()

	for _, id := range expired {
		if db.metrics != nil {
			db.metrics.RecordLeaseExpired()
		}
		logger.Info("participant lease expired", logger.Participant(id.Prefix[:]))
	}
}

// Stop halts the lease sweeper loop.
func (db *ParticipantDB) Stop() {
	select {
	case <-db.stop:
	default:
		close(db.stop)
	}
}

// Count returns the number of currently-tracked participants.
func (db *ParticipantDB) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.entries)
}
