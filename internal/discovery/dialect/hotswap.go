package dialect

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// OverlapCounters tracks the brief window around a dialect hot-swap where
// messages encoded under both the old and new encoder may be in flight
// simultaneously (§9 vendor-quirk inventory, §14.5 hotswap.go).
type OverlapCounters struct {
	RxOld int64 // messages whose fingerprint is a vendor variant other than the newly committed one
	RxNew int64 // messages received matching the newly committed encoder
	Loss  int64 // messages whose fingerprint matched no known vendor (Hybrid) during the window
}

// Hotswap tracks, per participant, the currently active encoder and lets
// a higher-confidence probe result replace it mid-session. A swap
// triggers a re-announcement of this participant's SEDP endpoints under
// the new encoder so the peer's view stays consistent with what HDDS is
// now sending it.
type Hotswap struct {
	mu       sync.Mutex
	active   map[guid.GUID]Variant
	overlap  map[guid.GUID]*overlapWindow

	// Reannounce is invoked after a swap commits, with the peer id and
	// the new variant; the participant runtime wires this to re-emit
	// SEDP publications/subscriptions for that peer.
	Reannounce func(id guid.GUID, v Variant)
}

type overlapWindow struct {
	deadline time.Time
	counters OverlapCounters
}

const overlapWindowDuration = 2 * time.Second

// NewHotswap creates an empty tracker.
func NewHotswap() *Hotswap {
	return &Hotswap{active: make(map[guid.GUID]Variant), overlap: make(map[guid.GUID]*overlapWindow)}
}

// Active returns the currently active variant for a peer, defaulting to
// Hybrid if no swap has happened yet.
func (h *Hotswap) Active(id guid.GUID) Variant {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.active[id]; ok {
		return v
	}
	return VariantHybrid
}

// Consider evaluates a newly committed probe result for peer id against
// the currently active variant, swapping and opening an overlap counting
// window if it differs. now is the evaluation time, not wall-clock, so
// tests can drive it deterministically.
func (h *Hotswap) Consider(id guid.GUID, committed Variant, now time.Time) {
	h.mu.Lock()
	old, hadOld := h.active[id]
	if hadOld && old == committed {
		h.mu.Unlock()
		return
	}
	h.active[id] = committed
	h.overlap[id] = &overlapWindow{deadline: now.Add(overlapWindowDuration)}
	h.mu.Unlock()

	logger.Info("dialect hot-swap", logger.Participant(id.Prefix[:]), logger.Dialect(string(committed)))
	if h.Reannounce != nil {
		h.Reannounce(id, committed)
	}
}

// ObserveDuringOverlap classifies one inbound message's fingerprint
// variant against the active overlap window for id, if one is open and
// unexpired; a no-op once the window has closed.
func (h *Hotswap) ObserveDuringOverlap(id guid.GUID, observed Variant, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, ok := h.overlap[id]
	if !ok {
		return
	}
	if now.After(w.deadline) {
		delete(h.overlap, id)
		return
	}
	active := h.active[id]
	switch {
	case observed == active:
		atomic.AddInt64(&w.counters.RxNew, 1)
	case observed == VariantHybrid:
		atomic.AddInt64(&w.counters.Loss, 1)
	default:
		atomic.AddInt64(&w.counters.RxOld, 1)
	}
}

// Counters returns a snapshot of the overlap counters for id, or a zero
// value if no overlap window is open; a window that ObserveDuringOverlap
// found expired has been dropped and also reads as zero.
func (h *Hotswap) Counters(id guid.GUID) OverlapCounters {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.overlap[id]
	if !ok {
		return OverlapCounters{}
	}
	return w.counters
}
