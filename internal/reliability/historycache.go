package reliability

import (
	"sync"
	"time"

	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// CacheChange is one entry in a HistoryCache: a sample (or a
// dispose/unregister marker) at a given sequence number.
type CacheChange struct {
	SequenceNumber guid.SequenceNumber
	SourceTimestamp time.Time
	Payload        []byte
	Disposed       bool
	Unregistered   bool

	// WriterGUID identifies the change's source on a reader-side cache
	// (zero on a writer-side cache, where it is implicitly the writer
	// itself). Used by OWNERSHIP_EXCLUSIVE arbitration at the endpoint
	// layer (§8 scenario S6), which needs to know which matched writer
	// produced a given sample.
	WriterGUID guid.GUID
}

// HistoryCache stores the samples a writer has produced (or a reader has
// accepted), bounded by the HISTORY QoS policy (§5 memory discipline).
// Single-producer/single-consumer in the steady state: the owning
// writer/listener thread appends, user threads read.
type HistoryCache struct {
	mu sync.Mutex

	history      qos.HistoryKind
	depth        int
	maxBytes     int64

	changes []CacheChange
	bytes   int64

	keepAllWaitTimeout time.Duration
	notify             chan struct{}
}

// HistoryCacheConfig configures overflow behavior.
type HistoryCacheConfig struct {
	History            qos.HistoryKind
	Depth              int  // meaningful only for KEEP_LAST
	MaxBytes           int64 // 0 means unbounded
	KeepAllWaitTimeout time.Duration
}

// NewHistoryCache creates an empty cache under cfg.
func NewHistoryCache(cfg HistoryCacheConfig) *HistoryCache {
	if cfg.Depth <= 0 {
		cfg.Depth = 1
	}
	if cfg.KeepAllWaitTimeout <= 0 {
		cfg.KeepAllWaitTimeout = 5 * time.Second
	}
	return &HistoryCache{
		history:            cfg.History,
		depth:              cfg.Depth,
		maxBytes:           cfg.MaxBytes,
		keepAllWaitTimeout: cfg.KeepAllWaitTimeout,
		notify:             make(chan struct{}, 1),
	}
}

// Add inserts change, applying the configured overflow policy. KEEP_LAST
// displaces the oldest change silently; KEEP_ALL blocks (bounded wait) and
// returns OutOfResources if the wait expires without room opening up
// (§5).
func (h *HistoryCache) Add(change CacheChange) error {
	h.mu.Lock()
	if h.history == qos.KeepLast && len(h.changes) >= h.depth {
		oldest := h.changes[0]
		h.changes = h.changes[1:]
		h.bytes -= int64(len(oldest.Payload))
	}
	if h.history == qos.KeepAll && h.maxBytes > 0 && h.bytes+int64(len(change.Payload)) > h.maxBytes {
		h.mu.Unlock()
		if !h.waitForRoom(int64(len(change.Payload))) {
			return herrors.New(herrors.CodeOutOfResources, "reliability.HistoryCache.Add", "KEEP_ALL cache full, wait expired")
		}
		h.mu.Lock()
	}
	h.changes = append(h.changes, change)
	h.bytes += int64(len(change.Payload))
	h.mu.Unlock()
	h.signal()
	return nil
}

func (h *HistoryCache) waitForRoom(need int64) bool {
	deadline := time.After(h.keepAllWaitTimeout)
	for {
		select {
		case <-h.notify:
			h.mu.Lock()
			ok := h.maxBytes <= 0 || h.bytes+need <= h.maxBytes
			h.mu.Unlock()
			if ok {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func (h *HistoryCache) signal() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Remove drops a change by sequence number (consumed by every reader, or
// purged under a GAP). Returns true if a change was removed.
func (h *HistoryCache) Remove(sn guid.SequenceNumber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, c := range h.changes {
		if c.SequenceNumber == sn {
			h.bytes -= int64(len(c.Payload))
			h.changes = append(h.changes[:i], h.changes[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the change at sn, if retained.
func (h *HistoryCache) Get(sn guid.SequenceNumber) (CacheChange, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.changes {
		if c.SequenceNumber == sn {
			return c, true
		}
	}
	return CacheChange{}, false
}

// Range returns every retained change in [low, high], in insertion order
// (a retransmitted change sits after changes received before it).
func (h *HistoryCache) Range(low, high guid.SequenceNumber) []CacheChange {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []CacheChange
	for _, c := range h.changes {
		if c.SequenceNumber >= low && c.SequenceNumber <= high {
			out = append(out, c)
		}
	}
	return out
}

// All returns every retained change, in insertion order (used for
// TRANSIENT_LOCAL replay to a late-joining reader, §4.5).
func (h *HistoryCache) All() []CacheChange {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]CacheChange, len(h.changes))
	copy(out, h.changes)
	return out
}

// FirstAvailable returns the lowest retained sequence number, or
// guid.Unknown if the cache is empty (the writer's `first_available_seq`,
// §4.5).
func (h *HistoryCache) FirstAvailable() guid.SequenceNumber {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.changes) == 0 {
		return guid.Unknown
	}
	return h.changes[0].SequenceNumber
}

// LastAvailable returns the highest retained sequence number, or
// guid.Unknown if the cache is empty (the writer's `last_written_seq`,
// §4.5).
func (h *HistoryCache) LastAvailable() guid.SequenceNumber {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.changes) == 0 {
		return guid.Unknown
	}
	return h.changes[len(h.changes)-1].SequenceNumber
}

// Len returns the number of retained changes.
func (h *HistoryCache) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.changes)
}

// Bytes returns the total retained payload size.
func (h *HistoryCache) Bytes() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bytes
}
