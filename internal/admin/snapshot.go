// Package admin exposes a read-only HTTP snapshot of one running
// participant's discovery and reliability state: discovered peers, locally
// owned endpoints, their matched remote proxies, and aggregate occupancy
// counters (§14.6). It never accepts a write — every route is a GET over
// state the participant already tracks for its own operation.
package admin

import (
	"github.com/naskel/hdds/internal/discovery"
	"github.com/naskel/hdds/internal/participant"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// ParticipantSummary is the JSON view of one discovered remote participant.
type ParticipantSummary struct {
	GUID            string   `json:"guid"`
	Name            string   `json:"name,omitempty"`
	Dialect         string   `json:"dialect"`
	VendorID        string   `json:"vendor_id"`
	LeaseDurationMS int64    `json:"lease_duration_ms"`
	Locators        []string `json:"locators"`
}

// Self is included alongside remote peers in the /participants listing,
// with Dialect fixed at "self".
const selfDialect = "self"

// EndpointSummary is the JSON view of one locally owned DataWriter or
// DataReader.
type EndpointSummary struct {
	GUID     string `json:"guid"`
	Kind     string `json:"kind"` // "writer" or "reader"
	Topic    string `json:"topic"`
	TypeName string `json:"type_name"`
}

// ProxySummary is the JSON view of one matched remote peer proxy, from
// either a StatefulWriter's ReaderProxy set or a StatefulReader's
// WriterProxy set.
type ProxySummary struct {
	GUID          string   `json:"guid"`
	Locators      []string `json:"locators"`
	MissingCount  int      `json:"missing_count,omitempty"`
	HighestSeqNum int64    `json:"highest_seq_num,omitempty"`
}

// StatsSummary aggregates occupancy and dialect-hotswap counters across
// every locally owned endpoint and every discovered peer.
type StatsSummary struct {
	ParticipantCount int                   `json:"participant_count"`
	WriterCount      int                   `json:"writer_count"`
	ReaderCount      int                   `json:"reader_count"`
	HistoryCache     []HistoryOccupancy    `json:"history_cache"`
	DialectOverlap   []DialectOverlapStats `json:"dialect_overlap,omitempty"`
}

// HistoryOccupancy reports one local endpoint's retained-sample footprint.
type HistoryOccupancy struct {
	GUID      string `json:"guid"`
	Kind      string `json:"kind"`
	Topic     string `json:"topic"`
	SampleCount int  `json:"sample_count"`
	Bytes     int64  `json:"bytes"`
}

// DialectOverlapStats reports the hotswap overlap counters for one peer
// that has undergone a dialect hot-swap (§9, §14.5).
type DialectOverlapStats struct {
	Peer  string `json:"peer"`
	RxOld int64  `json:"rx_old"`
	RxNew int64  `json:"rx_new"`
	Loss  int64  `json:"loss"`
}

func locatorStrings(locs []guid.Locator) []string {
	out := make([]string, 0, len(locs))
	for _, l := range locs {
		out = append(out, l.String())
	}
	return out
}

func participantSummary(proxy discovery.ParticipantProxy, dialect string) ParticipantSummary {
	locs := append([]guid.Locator{}, proxy.DefaultUnicastLocators...)
	locs = append(locs, proxy.MetatrafficUnicastLocators...)
	return ParticipantSummary{
		GUID:            proxy.GUID.String(),
		Name:            proxy.ParticipantName,
		Dialect:         dialect,
		VendorID:        vendorIDString(proxy.VendorID),
		LeaseDurationMS: proxy.LeaseDuration.Milliseconds(),
		Locators:        locatorStrings(locs),
	}
}

func vendorIDString(v [2]byte) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{
		hexDigits[v[0]>>4], hexDigits[v[0]&0xf],
		hexDigits[v[1]>>4], hexDigits[v[1]&0xf],
	})
}

func endpointSummary(e discovery.EndpointProxy, kind string) EndpointSummary {
	return EndpointSummary{
		GUID:     e.GUID.String(),
		Kind:     kind,
		Topic:    e.TopicName,
		TypeName: e.TypeName,
	}
}

func readerProxySummary(p *reliability.ReaderProxy) ProxySummary {
	return ProxySummary{
		GUID:     p.ReaderGUID.String(),
		Locators: locatorStrings(p.Locators),
	}
}

func writerProxySummary(p *reliability.WriterProxy) ProxySummary {
	return ProxySummary{
		GUID:          p.WriterGUID.String(),
		Locators:      locatorStrings(p.Locators),
		MissingCount:  p.MissingCount(),
		HighestSeqNum: int64(p.HighestReceived()),
	}
}

// buildStats walks the participant's own discovery database and local
// endpoint registry, which is always a consistent, already-live source:
// SEDP never persists a directory of discovered remote endpoints, so
// per-endpoint proxy state is read directly off the StatefulWriter/
// StatefulReader that matched it, not a separate cache.
func buildStats(p *participant.Participant) StatsSummary {
	writerEntries := p.Registry().WriterEntries()
	readerEntries := p.Registry().ReaderEntries()

	stats := StatsSummary{
		ParticipantCount: p.Discovery().Count(),
		WriterCount:      len(writerEntries),
		ReaderCount:      len(readerEntries),
	}

	for _, we := range writerEntries {
		h := we.Writer.History()
		stats.HistoryCache = append(stats.HistoryCache, HistoryOccupancy{
			GUID: we.Proxy.GUID.String(), Kind: "writer", Topic: we.Proxy.TopicName,
			SampleCount: h.Len(), Bytes: h.Bytes(),
		})
	}
	for _, re := range readerEntries {
		h := re.Reader.History()
		stats.HistoryCache = append(stats.HistoryCache, HistoryOccupancy{
			GUID: re.Proxy.GUID.String(), Kind: "reader", Topic: re.Proxy.TopicName,
			SampleCount: h.Len(), Bytes: h.Bytes(),
		})
	}

	for _, peer := range p.Discovery().All() {
		c := p.HotswapCounters(peer.GUID)
		if c.RxOld == 0 && c.RxNew == 0 && c.Loss == 0 {
			continue
		}
		stats.DialectOverlap = append(stats.DialectOverlap, DialectOverlapStats{
			Peer: peer.GUID.String(), RxOld: c.RxOld, RxNew: c.RxNew, Loss: c.Loss,
		})
	}

	return stats
}
