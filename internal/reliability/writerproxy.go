package reliability

import (
	"sync"

	"github.com/naskel/hdds/internal/rtps/guid"
)

// WriterProxy is a StatefulReader's view of one matched remote writer:
// the highest sequence number received, the set of sequences known to be
// missing, and enough HEARTBEAT/ACKNACK bookkeeping to avoid redundant
// traffic (§4.5).
type WriterProxy struct {
	mu sync.Mutex

	WriterGUID guid.GUID
	Locators   []guid.Locator

	highestReceived   guid.SequenceNumber
	missing           map[guid.SequenceNumber]struct{}
	lastHeartbeatCount int32
	acknackCountSent   int32
	seenHeartbeat      bool
}

// NewWriterProxy creates a proxy for a newly matched remote writer.
func NewWriterProxy(w guid.GUID, locators []guid.Locator) *WriterProxy {
	return &WriterProxy{
		WriterGUID:      w,
		Locators:        locators,
		highestReceived: guid.Unknown,
		missing:         make(map[guid.SequenceNumber]struct{}),
	}
}

// OnData records receipt of sn, marking any gap between the previous
// highest-received and sn as missing, and clearing sn itself from the
// missing set if it was outstanding. Returns true if sn is new (i.e. not
// a duplicate, per the `(writer_guid, sequence_number)` dedup rule).
func (p *WriterProxy) OnData(sn guid.SequenceNumber) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, pending := p.missing[sn]; pending {
		delete(p.missing, sn)
		if sn > p.highestReceived {
			p.highestReceived = sn
		}
		return true
	}
	if sn <= p.highestReceived && p.highestReceived != guid.Unknown {
		return false // duplicate, already delivered
	}
	if p.highestReceived != guid.Unknown {
		for gap := p.highestReceived + 1; gap < sn; gap++ {
			p.missing[gap] = struct{}{}
		}
	}
	p.highestReceived = sn
	return true
}

// OnHeartbeat updates the proxy from a writer's HEARTBEAT, marking any
// sequence in [firstSN, lastSN] not yet received as missing, and
// reporting whether this heartbeat is new (by count) and whether an
// ACKNACK response is warranted. It never advances highestReceived —
// that field only moves on actual DATA receipt (OnData); a HEARTBEAT
// just tells the reader which sequences above its current knowledge to
// start expecting (and NACKing for).
func (p *WriterProxy) OnHeartbeat(hb Heartbeat) (isNew bool, shouldRespond bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seenHeartbeat && hb.Count <= p.lastHeartbeatCount {
		return false, false
	}
	p.seenHeartbeat = true
	p.lastHeartbeatCount = hb.Count

	if hb.FirstSN > hb.LastSN {
		// Empty range: writer has nothing (yet, or ever). Nothing to mark
		// missing, but the reader must still ack to let the writer retire
		// its heartbeat-wait state.
		return true, true
	}

	start := hb.FirstSN
	if p.highestReceived != guid.Unknown && p.highestReceived+1 > start {
		start = p.highestReceived + 1
	}
	for sn := start; sn <= hb.LastSN; sn++ {
		p.missing[sn] = struct{}{}
	}
	return true, true
}

// OnGap removes every sequence in [gapStart, highest-marked-in-gapList]
// from the missing set: the writer has told us these will never arrive
// (§4.5).
func (p *WriterProxy) OnGap(g Gap) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for sn := g.GapStart; sn < g.GapList.Base; sn++ {
		delete(p.missing, sn)
		if p.highestReceived == guid.Unknown || sn > p.highestReceived {
			p.highestReceived = sn
		}
	}
	for _, sn := range g.GapList.Sequences() {
		delete(p.missing, sn)
		if sn > p.highestReceived {
			p.highestReceived = sn
		}
	}
}

// BuildAckNack constructs the ACKNACK reflecting the current missing set.
// Final is set when there is nothing outstanding, signaling the writer it
// need not expect a follow-up NACK soon.
//
// base must be the lowest sequence the reader has not yet seen, not
// highestReceived+1: highestReceived tracks the max sequence received,
// which OnData advances past gaps, recording the skipped
// sequences in missing rather than holding it back. Using
// highestReceived+1 as base when a gap sits below it would make
// NewSNSet's sn-base offset for that gap negative, discarding it from the
// bitmap and leaving the writer with nothing to retransmit.
func (p *WriterProxy) BuildAckNack(readerID, writerID guid.EntityID) AckNack {
	p.mu.Lock()
	defer p.mu.Unlock()

	var missing []guid.SequenceNumber
	for sn := range p.missing {
		missing = append(missing, sn)
	}
	sortSeqs(missing)

	base := p.highestReceived + 1
	if p.highestReceived == guid.Unknown {
		base = 1
	}
	if len(missing) > 0 {
		base = missing[0]
	}

	p.acknackCountSent++
	return AckNack{
		ReaderID:      readerID,
		WriterID:      writerID,
		ReaderSNState: NewSNSet(base, missing),
		Count:         p.acknackCountSent,
		Final:         len(missing) == 0,
	}
}

// MissingCount reports how many sequences are currently outstanding.
func (p *WriterProxy) MissingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.missing)
}

// HighestReceived returns the highest sequence number received so far,
// which is the max sequence seen, not the highest *contiguous* one: a
// later sequence can arrive before a gap below it is repaired. Use
// HighestContiguous for the reader-delivery cursor.
func (p *WriterProxy) HighestReceived() guid.SequenceNumber {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highestReceived
}

// HighestContiguous returns the highest sequence number N such that every
// sequence from 1 to N has been received with no outstanding gap, i.e.
// the point up to which samples can be delivered to the reader in strict
// order (§5).
func (p *WriterProxy) HighestContiguous() guid.SequenceNumber {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.missing) == 0 {
		return p.highestReceived
	}
	min := guid.SequenceNumber(0)
	first := true
	for sn := range p.missing {
		if first || sn < min {
			min = sn
			first = false
		}
	}
	return min - 1
}

func sortSeqs(s []guid.SequenceNumber) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
