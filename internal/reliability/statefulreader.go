package reliability

import (
	"context"
	"sync"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/naskel/hdds/internal/transport"
	"github.com/naskel/hdds/pkg/metrics"
)

// StatefulReaderConfig configures a reliable reader.
type StatefulReaderConfig struct {
	ReaderGUID       guid.GUID
	History          HistoryCacheConfig
	FragmentTimeout  time.Duration
	AckNackRateLimit *transport.AckRateLimiter // nil disables rate limiting
	Metrics          metrics.ReliabilityMetrics
}

// StatefulReader drives the reader side of the RTPS reliability protocol:
// it retains delivered samples in a HistoryCache, tracks one WriterProxy
// per matched writer, reassembles DATA_FRAG, and rate-limits its outgoing
// ACKNACK traffic via transport.AckRateLimiter (§4.5).
type StatefulReader struct {
	cfg     StatefulReaderConfig
	history *HistoryCache
	frags   *FragmentReassembler

	mu       sync.Mutex
	writers  map[guid.GUID]*WriterProxy
	ackCount int32

	vendorID   [2]byte
	guidPrefix guid.GUIDPrefix
}

// NewStatefulReader creates a reader over cfg.
func NewStatefulReader(cfg StatefulReaderConfig, prefix guid.GUIDPrefix, vendorID [2]byte) *StatefulReader {
	return &StatefulReader{
		cfg:        cfg,
		history:    NewHistoryCache(cfg.History),
		frags:      NewFragmentReassembler(cfg.FragmentTimeout),
		writers:    make(map[guid.GUID]*WriterProxy),
		guidPrefix: prefix,
		vendorID:   vendorID,
	}
}

// MatchWriter registers a newly discovered remote writer.
func (r *StatefulReader) MatchWriter(writer guid.GUID, locators []guid.Locator) *WriterProxy {
	r.mu.Lock()
	defer r.mu.Unlock()
	proxy := NewWriterProxy(writer, locators)
	r.writers[writer] = proxy
	return proxy
}

// UnmatchWriter removes a writer proxy, e.g. on SEDP disposition or lease
// expiry.
func (r *StatefulReader) UnmatchWriter(writer guid.GUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.writers[writer]; ok {
		if r.cfg.AckNackRateLimit != nil {
			r.cfg.AckNackRateLimit.Forget(writer.String())
		}
		_ = p
		delete(r.writers, writer)
	}
}

func (r *StatefulReader) header() MessageHeader {
	return MessageHeader{VersionMajor: 2, VersionMinor: 5, VendorID: r.vendorID, GuidPrefix: r.guidPrefix}
}

// OnData handles a received DATA submessage from writer, storing the
// sample in history if it is new.
func (r *StatefulReader) OnData(writer guid.GUID, d Data) {
	r.mu.Lock()
	proxy, ok := r.writers[writer]
	r.mu.Unlock()
	if !ok {
		return
	}
	if !proxy.OnData(d.WriterSN) {
		return
	}
	r.store(writer, d.WriterSN, d.SerializedPayload)
}

// OnDataFrag handles a received DATA_FRAG submessage, storing the sample
// once every fragment has arrived.
func (r *StatefulReader) OnDataFrag(writer guid.GUID, df DataFrag) {
	r.mu.Lock()
	proxy, ok := r.writers[writer]
	r.mu.Unlock()
	if !ok {
		return
	}
	payload, complete := r.frags.Accept(writer, df)
	if !complete {
		return
	}
	if !proxy.OnData(df.WriterSN) {
		return
	}
	if r.cfg.Metrics != nil {
		r.cfg.Metrics.RecordFragmentReassembled(int(df.EffectiveFragmentCount()))
	}
	r.store(writer, df.WriterSN, payload)
}

func (r *StatefulReader) store(writer guid.GUID, sn guid.SequenceNumber, payload []byte) {
	if err := r.history.Add(CacheChange{SequenceNumber: sn, SourceTimestamp: time.Now(), Payload: payload, WriterGUID: writer}); err != nil {
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.RecordSampleDropped("history_full")
		}
	}
}

// OnHeartbeat handles a received HEARTBEAT from writer, sending an
// ACKNACK in response when the writer is new or has missing samples
// (subject to rate limiting).
func (r *StatefulReader) OnHeartbeat(ctx context.Context, sender Sender, writer guid.GUID, hb Heartbeat) {
	r.mu.Lock()
	proxy, ok := r.writers[writer]
	r.mu.Unlock()
	if !ok {
		return
	}
	_, shouldRespond := proxy.OnHeartbeat(hb)
	if !shouldRespond {
		return
	}
	r.sendAckNack(ctx, sender, writer, proxy)
}

// OnGap handles a received GAP from writer.
func (r *StatefulReader) OnGap(writer guid.GUID, g Gap) {
	r.mu.Lock()
	proxy, ok := r.writers[writer]
	r.mu.Unlock()
	if !ok {
		return
	}
	proxy.OnGap(g)
}

func (r *StatefulReader) sendAckNack(ctx context.Context, sender Sender, writer guid.GUID, proxy *WriterProxy) {
	if r.cfg.AckNackRateLimit != nil && !r.cfg.AckNackRateLimit.Allow(writer.String()) {
		return
	}
	r.mu.Lock()
	r.ackCount++
	count := r.ackCount
	r.mu.Unlock()

	an := proxy.BuildAckNack(guid.EntityIDUnknown, r.cfg.ReaderGUID.EntityID)
	an.Count = count
	msg := BuildMessage(r.header(), EncodedSubmessage{ID: SubmsgAckNack, Flags: AckNackFlags(an), Body: EncodeAckNack(an)})
	for _, loc := range proxy.Locators {
		if err := sender.Send(ctx, loc, msg); err != nil {
			logger.WarnCtx(ctx, "reliability reader acknack send failed", logger.Locator(loc.String()), logger.Err(err))
		}
	}
	if r.cfg.Metrics != nil {
		r.cfg.Metrics.RecordAckNack(writer.String(), len(an.ReaderSNState.Sequences()), proxy.MissingCount())
	}
}

// SweepFragments evicts stalled fragment reassembly buffers, returning the
// number evicted. Intended to be called periodically alongside a
// participant's other housekeeping (§5).
func (r *StatefulReader) SweepFragments(now time.Time) int {
	return r.frags.Sweep(now)
}

// History exposes the reader's HistoryCache, e.g. for the endpoint
// runtime's take/read operations.
func (r *StatefulReader) History() *HistoryCache { return r.history }

// MatchedWriterCount reports how many writers are currently matched.
func (r *StatefulReader) MatchedWriterCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writers)
}

// WriterProxies returns every currently matched writer's proxy, for the
// admin snapshot API.
func (r *StatefulReader) WriterProxies() []*WriterProxy {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*WriterProxy, 0, len(r.writers))
	for _, w := range r.writers {
		out = append(out, w)
	}
	return out
}

// WriterProxy returns the proxy matched to writer, if any, for callers
// that need one writer's delivery state (e.g. the endpoint layer's
// per-writer contiguity gating).
func (r *StatefulReader) WriterProxy(writer guid.GUID) (*WriterProxy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.writers[writer]
	return p, ok
}
