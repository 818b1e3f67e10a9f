package reliability

import (
	"sync"

	"github.com/naskel/hdds/internal/rtps/guid"
)

// ReaderProxy is a StatefulWriter's view of one matched remote reader:
// the last sequence number known acknowledged, and the set of sequences
// the reader has explicitly requested via ACKNACK (§4.5).
type ReaderProxy struct {
	mu sync.Mutex

	ReaderGUID guid.GUID
	Locators   []guid.Locator

	lastAckSeq      guid.SequenceNumber
	requested       map[guid.SequenceNumber]struct{}
	lastAckNackCount int32
	heartbeatCount   int32
}

// NewReaderProxy creates a proxy for a newly matched remote reader.
func NewReaderProxy(r guid.GUID, locators []guid.Locator) *ReaderProxy {
	return &ReaderProxy{
		ReaderGUID: r,
		Locators:   locators,
		lastAckSeq: 0,
		requested:  make(map[guid.SequenceNumber]struct{}),
	}
}

// OnAckNack updates the proxy from a reader's ACKNACK: everything below
// the set's base is now known acknowledged, and every sequence marked in
// the bitmap is explicitly requested for resend. Stale (out-of-order,
// already-seen) counts are ignored.
func (p *ReaderProxy) OnAckNack(an AckNack) (isNew bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if an.Count <= p.lastAckNackCount && p.lastAckNackCount != 0 {
		return false
	}
	p.lastAckNackCount = an.Count

	if an.ReaderSNState.Base-1 > p.lastAckSeq {
		p.lastAckSeq = an.ReaderSNState.Base - 1
	}
	p.requested = make(map[guid.SequenceNumber]struct{})
	for _, sn := range an.ReaderSNState.Sequences() {
		p.requested[sn] = struct{}{}
	}
	return true
}

// Requested returns the sequences this reader has asked to have resent.
func (p *ReaderProxy) Requested() []guid.SequenceNumber {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]guid.SequenceNumber, 0, len(p.requested))
	for sn := range p.requested {
		out = append(out, sn)
	}
	sortSeqs(out)
	return out
}

// ClearRequested drops sn from the outstanding-request set once resent.
func (p *ReaderProxy) ClearRequested(sn guid.SequenceNumber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.requested, sn)
}

// LastAcked returns the highest sequence number this reader is known to
// have fully acknowledged.
func (p *ReaderProxy) LastAcked() guid.SequenceNumber {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAckSeq
}

// IsUpToDate reports whether lastAckSeq has reached at least upTo, used
// by wait_for_acknowledgments (§4.6).
func (p *ReaderProxy) IsUpToDate(upTo guid.SequenceNumber) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAckSeq >= upTo
}

// NextHeartbeatCount returns the next HEARTBEAT count to use and
// increments the internal counter.
func (p *ReaderProxy) NextHeartbeatCount() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heartbeatCount++
	return p.heartbeatCount
}
