package reliability

import (
	"context"
	"sync"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/naskel/hdds/pkg/metrics"
)

// Sender abstracts the outbound path a StatefulWriter uses to reach a
// matched reader's locators; satisfied by transport.Transport.
type Sender interface {
	Send(ctx context.Context, dst guid.Locator, data []byte) error
}

// StatefulWriterConfig configures a reliable writer.
type StatefulWriterConfig struct {
	WriterGUID      guid.GUID
	Policies        qos.Policies
	HeartbeatPeriod time.Duration // default 100ms per §5
	FragmentSize    uint16        // 0 disables fragmentation
	History         HistoryCacheConfig
	Metrics         metrics.ReliabilityMetrics
}

// StatefulWriter drives the writer side of the RTPS reliability protocol:
// it retains samples in a HistoryCache, tracks one ReaderProxy per
// matched reader, and periodically emits HEARTBEAT, resending or GAPing
// in response to ACKNACK (§4.5).
type StatefulWriter struct {
	cfg     StatefulWriterConfig
	history *HistoryCache

	mu       sync.Mutex
	readers  map[guid.GUID]*ReaderProxy
	lastSeq  guid.SequenceNumber
	hbCount  int32

	vendorID   [2]byte
	guidPrefix guid.GUIDPrefix
}

// NewStatefulWriter creates a writer over cfg. vendorID/prefix populate
// the RTPS message header on every send.
func NewStatefulWriter(cfg StatefulWriterConfig, prefix guid.GUIDPrefix, vendorID [2]byte) *StatefulWriter {
	if cfg.HeartbeatPeriod <= 0 {
		cfg.HeartbeatPeriod = 100 * time.Millisecond
	}
	return &StatefulWriter{
		cfg:        cfg,
		history:    NewHistoryCache(cfg.History),
		readers:    make(map[guid.GUID]*ReaderProxy),
		guidPrefix: prefix,
		vendorID:   vendorID,
	}
}

// MatchReader registers a newly matched remote reader. If the writer uses
// TRANSIENT_LOCAL or PERSISTENT durability, the caller is responsible for
// replaying history to it (ReplayToLateJoiner) after this call returns.
func (w *StatefulWriter) MatchReader(reader guid.GUID, locators []guid.Locator) *ReaderProxy {
	w.mu.Lock()
	defer w.mu.Unlock()
	proxy := NewReaderProxy(reader, locators)
	w.readers[reader] = proxy
	return proxy
}

// UnmatchReader removes a reader proxy, e.g. on SEDP disposition or lease
// expiry.
func (w *StatefulWriter) UnmatchReader(reader guid.GUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.readers, reader)
}

// Write appends payload as a new change and sends it to every matched
// reader, fragmenting if FragmentSize is set and the payload exceeds it.
func (w *StatefulWriter) Write(ctx context.Context, sender Sender, payload []byte) (guid.SequenceNumber, error) {
	return w.writeChange(ctx, sender, payload, false, false)
}

// WriteDisposition behaves like Write but marks the resulting HistoryCache
// change as disposed and/or unregistered, so a CleanupTimer configured for
// TRANSIENT_LOCAL/PERSISTENT durability purges it after
// SERVICE_CLEANUP_DELAY instead of retaining it as a live sample (§4.6
// DataWriter dispose/unregister).
func (w *StatefulWriter) WriteDisposition(ctx context.Context, sender Sender, payload []byte, disposed, unregistered bool) (guid.SequenceNumber, error) {
	return w.writeChange(ctx, sender, payload, disposed, unregistered)
}

func (w *StatefulWriter) writeChange(ctx context.Context, sender Sender, payload []byte, disposed, unregistered bool) (guid.SequenceNumber, error) {
	w.mu.Lock()
	w.lastSeq++
	sn := w.lastSeq
	readers := make([]*ReaderProxy, 0, len(w.readers))
	for _, r := range w.readers {
		readers = append(readers, r)
	}
	w.mu.Unlock()

	change := CacheChange{SequenceNumber: sn, SourceTimestamp: time.Now(), Payload: payload, Disposed: disposed, Unregistered: unregistered}
	if err := w.history.Add(change); err != nil {
		if w.cfg.Metrics != nil {
			w.cfg.Metrics.RecordSampleDropped("history_full")
		}
		return sn, err
	}

	for _, proxy := range readers {
		w.sendSampleTo(ctx, sender, proxy, sn, payload)
	}
	return sn, nil
}

func (w *StatefulWriter) sendSampleTo(ctx context.Context, sender Sender, proxy *ReaderProxy, sn guid.SequenceNumber, payload []byte) {
	if w.cfg.FragmentSize > 0 && len(payload) > int(w.cfg.FragmentSize) {
		for _, frag := range Fragment(guid.EntityIDUnknown, w.cfg.WriterGUID.EntityID, sn, payload, w.cfg.FragmentSize) {
			body := EncodeDataFrag(frag)
			msg := BuildMessage(w.header(), EncodedSubmessage{ID: SubmsgDataFrag, Flags: 0x1, Body: body})
			w.sendToLocators(ctx, sender, proxy.Locators, msg)
		}
		return
	}
	d := Data{ReaderID: guid.EntityIDUnknown, WriterID: w.cfg.WriterGUID.EntityID, WriterSN: sn, SerializedPayload: payload}
	msg := BuildMessage(w.header(), EncodedSubmessage{ID: SubmsgData, Flags: DataFlags(d), Body: EncodeData(d)})
	w.sendToLocators(ctx, sender, proxy.Locators, msg)
}

func (w *StatefulWriter) sendToLocators(ctx context.Context, sender Sender, locators []guid.Locator, msg []byte) {
	for _, loc := range locators {
		if err := sender.Send(ctx, loc, msg); err != nil {
			logger.WarnCtx(ctx, "reliability writer send failed", logger.Locator(loc.String()), logger.Err(err))
		}
	}
}

func (w *StatefulWriter) header() MessageHeader {
	return MessageHeader{VersionMajor: 2, VersionMinor: 5, VendorID: w.vendorID, GuidPrefix: w.guidPrefix}
}

// RunHeartbeats periodically emits a HEARTBEAT to every matched reader
// until ctx is cancelled (§4.5's ~100ms cadence, §5's SEDP reliability
// control thread).
func (w *StatefulWriter) RunHeartbeats(ctx context.Context, sender Sender) {
	ticker := time.NewTicker(w.cfg.HeartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sendHeartbeats(ctx, sender)
		}
	}
}

func (w *StatefulWriter) sendHeartbeats(ctx context.Context, sender Sender) {
	w.mu.Lock()
	w.hbCount++
	count := w.hbCount
	first := w.history.FirstAvailable()
	last := w.history.LastAvailable()
	if first == guid.Unknown || last == guid.Unknown {
		// Nothing retained: report an empty range relative to the writer's
		// own sequence counter rather than the HistoryCache sentinel, so
		// Final is computed correctly (first > last).
		first = w.lastSeq + 1
		last = w.lastSeq
	}
	readers := make([]*ReaderProxy, 0, len(w.readers))
	for _, r := range w.readers {
		readers = append(readers, r)
	}
	w.mu.Unlock()

	hb := Heartbeat{ReaderID: guid.EntityIDUnknown, WriterID: w.cfg.WriterGUID.EntityID, FirstSN: first, LastSN: last, Count: count, Final: first > last}
	msg := BuildMessage(w.header(), EncodedSubmessage{ID: SubmsgHeartbeat, Flags: HeartbeatFlags(hb), Body: EncodeHeartbeat(hb)})
	for _, proxy := range readers {
		w.sendToLocators(ctx, sender, proxy.Locators, msg)
	}
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.RecordHeartbeat(w.cfg.WriterGUID.String())
	}
}

// OnAckNack processes a received ACKNACK from the given reader, resending
// requested samples still in history or emitting GAP for ones already
// purged (§4.5).
func (w *StatefulWriter) OnAckNack(ctx context.Context, sender Sender, reader guid.GUID, an AckNack) {
	w.mu.Lock()
	proxy, ok := w.readers[reader]
	w.mu.Unlock()
	if !ok {
		return
	}
	if !proxy.OnAckNack(an) {
		return
	}
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.RecordAckNack(w.cfg.WriterGUID.String(), 0, len(an.ReaderSNState.Sequences()))
	}

	var gapList []guid.SequenceNumber
	for _, sn := range proxy.Requested() {
		change, found := w.history.Get(sn)
		if !found {
			gapList = append(gapList, sn)
			continue
		}
		w.sendSampleTo(ctx, sender, proxy, change.SequenceNumber, change.Payload)
		proxy.ClearRequested(sn)
	}
	if len(gapList) > 0 {
		w.emitGap(ctx, sender, proxy, gapList)
	}
}

func (w *StatefulWriter) emitGap(ctx context.Context, sender Sender, proxy *ReaderProxy, missing []guid.SequenceNumber) {
	sortSeqs(missing)
	g := Gap{
		ReaderID: guid.EntityIDUnknown,
		WriterID: w.cfg.WriterGUID.EntityID,
		GapStart: missing[0],
		GapList:  NewSNSet(missing[0], missing),
	}
	for _, sn := range missing {
		proxy.ClearRequested(sn)
	}
	msg := BuildMessage(w.header(), EncodedSubmessage{ID: SubmsgGap, Flags: 0x1, Body: EncodeGap(g)})
	w.sendToLocators(ctx, sender, proxy.Locators, msg)
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.RecordGap(w.cfg.WriterGUID.String(), len(missing))
	}
}

// WaitForAcknowledgments blocks until every matched reader has
// acknowledged up through upTo, or ctx is cancelled (§4.6
// wait_for_acknowledgments; this is one of the few suspension points
// allowed by §5).
func (w *StatefulWriter) WaitForAcknowledgments(ctx context.Context, upTo guid.SequenceNumber) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if w.allAcked(upTo) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *StatefulWriter) allAcked(upTo guid.SequenceNumber) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.readers {
		if !r.IsUpToDate(upTo) {
			return false
		}
	}
	return true
}

// History exposes the writer's HistoryCache, e.g. for TRANSIENT_LOCAL
// replay to a newly matched reader.
func (w *StatefulWriter) History() *HistoryCache { return w.history }

// MatchedReaderCount reports how many readers are currently matched.
func (w *StatefulWriter) MatchedReaderCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.readers)
}

// ReaderProxies returns every currently matched reader's proxy, for the
// admin snapshot API.
func (w *StatefulWriter) ReaderProxies() []*ReaderProxy {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*ReaderProxy, 0, len(w.readers))
	for _, r := range w.readers {
		out = append(out, r)
	}
	return out
}

