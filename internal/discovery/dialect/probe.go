package dialect

import (
	"sync"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// Probe accumulates fingerprint evidence for one remote participant over
// a bounded window (sample count or elapsed time, whichever triggers
// first) before committing to a Variant, rather than trusting a single
// observed message (§14.5: "scores a fixed PROBE window... against
// fingerprint rules").
type Probe struct {
	window  int
	timeout time.Duration

	started time.Time
	votes   map[Variant]int
	total   int
}

// NewProbe starts a probe with the given sample-count window and
// timeout; either bound triggers Commit's readiness.
func NewProbe(window int, timeout time.Duration) *Probe {
	if window <= 0 {
		window = 3
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Probe{window: window, timeout: timeout, started: time.Time{}, votes: make(map[Variant]int)}
}

// Observe records one fingerprint vote from a received message: vendorID
// maps directly to a Variant (the authoritative signal). VENDOR_ID is the
// only signal consulted: no PID-ordering or encapsulation-scheme
// heuristics are applied, so a peer is classified by whatever vendor ID
// it reports. HDDS trusts VENDOR_ID as the
// primary signal since it costs a peer nothing to report accurately and
// every known stack does.
func (p *Probe) Observe(vendorID [2]byte, now time.Time) {
	if p.started.IsZero() {
		p.started = now
	}
	v := FromVendorID(vendorID)
	p.votes[v]++
	p.total++
}

// Ready reports whether the probe window has closed (enough samples, or
// enough elapsed time).
func (p *Probe) Ready(now time.Time) bool {
	if p.total >= p.window {
		return true
	}
	return !p.started.IsZero() && now.Sub(p.started) >= p.timeout
}

// Commit returns the plurality-voted Variant once Ready, or VariantHybrid
// if no votes were ever recorded.
func (p *Probe) Commit() Variant {
	best := VariantHybrid
	bestCount := 0
	for v, c := range p.votes {
		if c > bestCount {
			best, bestCount = v, c
		}
	}
	return best
}

// ProbeTable runs one Probe per remote participant, feeding committed
// results to EncoderFor (§14.5 "selects per-peer").
type ProbeTable struct {
	mu       sync.Mutex
	window   int
	timeout  time.Duration
	probes   map[guid.GUID]*Probe
	active   map[guid.GUID]Variant
}

// NewProbeTable creates an empty table using window/timeout for every
// new peer's probe.
func NewProbeTable(window int, timeout time.Duration) *ProbeTable {
	return &ProbeTable{
		window:  window,
		timeout: timeout,
		probes:  make(map[guid.GUID]*Probe),
		active:  make(map[guid.GUID]Variant),
	}
}

// Observe feeds one fingerprint sample for participant id, committing and
// caching the variant once that peer's probe window closes.
func (t *ProbeTable) Observe(id guid.GUID, vendorID [2]byte, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, done := t.active[id]; done {
		return
	}
	p, ok := t.probes[id]
	if !ok {
		p = NewProbe(t.window, t.timeout)
		t.probes[id] = p
	}
	p.Observe(vendorID, now)
	if p.Ready(now) {
		v := p.Commit()
		t.active[id] = v
		delete(t.probes, id)
		logger.Info("dialect probe committed", logger.Participant(id.Prefix[:]), logger.Dialect(string(v)))
	}
}

// Variant returns the committed variant for a participant, or
// VariantHybrid if its probe hasn't closed yet.
func (t *ProbeTable) Variant(id guid.GUID) Variant {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.active[id]; ok {
		return v
	}
	return VariantHybrid
}

// Forget drops probe/commit state for a participant whose lease expired.
func (t *ProbeTable) Forget(id guid.GUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.probes, id)
	delete(t.active, id)
}

// EncoderFor returns the DialectEncoder for the committed variant.
func EncoderFor(v Variant) DialectEncoder {
	switch v {
	case VariantRTI:
		return NewRTIEncoder()
	case VariantFastDDS:
		return NewFastDDSEncoder()
	case VariantCycloneDDS:
		return NewCycloneDDSEncoder()
	case VariantOpenDDS:
		return NewOpenDDSEncoder()
	case VariantCoreDX:
		return NewCoreDXEncoder()
	default:
		return NewHybridEncoder()
	}
}
