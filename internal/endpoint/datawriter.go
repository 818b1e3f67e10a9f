package endpoint

import (
	"context"
	"sync"
	"time"

	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// deadlineCheckFloor bounds how often RunDeadlineWatchdog polls when the
// configured DEADLINE period would otherwise imply a tighter loop,
// matching the participant's general ~100ms responsiveness floor (§5).
const deadlineCheckFloor = 100 * time.Millisecond

// DataWriter is the typed publication side of an endpoint: it encodes
// samples of T via cdr.Codec, submits them to the underlying
// reliability.StatefulWriter, and enforces the writer-side QoS watchdogs
// (DEADLINE, LIVELINESS) described in §4.6. PT is *T constrained to also
// implement Sample, following the teacher's call-by-pointer-receiver
// convention for types with custom (de)serialization.
type DataWriter[T any, PT interface {
	*T
	Sample
}] struct {
	Topic    string
	TypeName string

	policies qos.Policies
	scheme   cdr.Scheme
	rw       *reliability.StatefulWriter
	sender   reliability.Sender

	statusCondition *OfferedStatusCondition

	mu               sync.Mutex
	enabled          bool
	deadlines        map[string]time.Time
	lastAssert       time.Time
	deadlineMissed   map[string]int
	livelinessActive bool
}

// OfferedStatusCondition bundles the StatusCondition a DataWriter exposes
// to a WaitSet with the last-observed status payloads a caller can read
// after being woken (mirrors how the teacher threads a single
// notification channel through to several typed accessors).
type OfferedStatusCondition struct {
	*StatusCondition

	mu                     sync.Mutex
	deadlineMissed         OfferedDeadlineMissedStatus
	livelinessLost         LivelinessLostStatus
	offeredIncompatibleQos IncompatibleQosStatus
}

func newOfferedStatusCondition() *OfferedStatusCondition {
	return &OfferedStatusCondition{StatusCondition: NewStatusCondition()}
}

// DeadlineMissed returns the most recently recorded OFFERED_DEADLINE_MISSED
// status.
func (s *OfferedStatusCondition) DeadlineMissed() OfferedDeadlineMissedStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadlineMissed
}

// LivelinessLost returns the most recently recorded LIVELINESS_LOST status.
func (s *OfferedStatusCondition) LivelinessLost() LivelinessLostStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.livelinessLost
}

func (s *OfferedStatusCondition) recordDeadlineMissed(key string) {
	s.mu.Lock()
	s.deadlineMissed.TotalCount++
	s.deadlineMissed.InstanceKey = key
	s.mu.Unlock()
	s.Trigger()
}

func (s *OfferedStatusCondition) recordLivelinessLost() {
	s.mu.Lock()
	s.livelinessLost.TotalCount++
	s.mu.Unlock()
	s.Trigger()
}

// NewDataWriter creates a DataWriter bound to an already-constructed
// reliability.StatefulWriter and its send path.
func NewDataWriter[T any, PT interface {
	*T
	Sample
}](topic, typeName string, policies qos.Policies, scheme cdr.Scheme, rw *reliability.StatefulWriter, sender reliability.Sender) *DataWriter[T, PT] {
	return &DataWriter[T, PT]{
		Topic:           topic,
		TypeName:        typeName,
		policies:        policies,
		scheme:          scheme,
		rw:              rw,
		sender:          sender,
		statusCondition: newOfferedStatusCondition(),
		enabled:         true,
		deadlines:       make(map[string]time.Time),
		deadlineMissed:  make(map[string]int),
	}
}

// StatusCondition exposes the writer's StatusCondition for attachment to a
// WaitSet.
func (w *DataWriter[T, PT]) StatusCondition() *OfferedStatusCondition { return w.statusCondition }

// Write encodes sample, inserts it into the writer's HistoryCache at the
// next sequence number, and sends it to every matched reader (§4.6).
// Writing on a disposed writer returns PreconditionNotMet.
func (w *DataWriter[T, PT]) Write(ctx context.Context, sample *T) (guid.SequenceNumber, error) {
	w.mu.Lock()
	if !w.enabled {
		w.mu.Unlock()
		return 0, herrors.New(herrors.CodePreconditionNotMet, "endpoint.DataWriter.Write", "writer is disposed")
	}
	w.mu.Unlock()

	pt := PT(sample)
	payload, err := cdr.Encode(w.scheme, pt)
	if err != nil {
		return 0, herrors.Wrap(herrors.CodeSerialization, "endpoint.DataWriter.Write", err)
	}

	key := pt.InstanceKey()
	w.mu.Lock()
	if w.policies.Deadline > 0 {
		w.deadlines[key] = time.Now().Add(w.policies.Deadline)
	}
	if w.policies.Liveliness == qos.Automatic {
		w.lastAssert = time.Now()
	}
	w.mu.Unlock()

	sn, err := w.rw.Write(ctx, w.sender, payload)
	if err != nil {
		code := herrors.CodeOutOfResources
		if herrors.CodeOf(err) != 0 {
			code = herrors.CodeOf(err)
		}
		return sn, herrors.Wrap(code, "endpoint.DataWriter.Write", err)
	}
	return sn, nil
}

// Dispose marks the key instance sample belongs to as disposed: the
// sample is still delivered, but the writer's HistoryCache will purge it
// under the configured cleanup delay rather than retaining it for
// TRANSIENT_LOCAL/PERSISTENT replay (§4.6).
func (w *DataWriter[T, PT]) Dispose(ctx context.Context, sample *T) error {
	return w.writeDisposition(ctx, sample, true, false)
}

// Unregister marks the key instance sample belongs to as unregistered,
// telling matched readers this writer no longer owns it.
func (w *DataWriter[T, PT]) Unregister(ctx context.Context, sample *T) error {
	return w.writeDisposition(ctx, sample, false, true)
}

func (w *DataWriter[T, PT]) writeDisposition(ctx context.Context, sample *T, disposed, unregistered bool) error {
	w.mu.Lock()
	if !w.enabled {
		w.mu.Unlock()
		return herrors.New(herrors.CodePreconditionNotMet, "endpoint.DataWriter", "writer is disposed")
	}
	w.mu.Unlock()

	pt := PT(sample)
	payload, err := cdr.Encode(w.scheme, pt)
	if err != nil {
		return herrors.Wrap(herrors.CodeSerialization, "endpoint.DataWriter", err)
	}

	key := pt.InstanceKey()
	w.mu.Lock()
	delete(w.deadlines, key)
	w.mu.Unlock()

	if _, err := w.rw.WriteDisposition(ctx, w.sender, payload, disposed, unregistered); err != nil {
		return herrors.Wrap(herrors.CodeTransport, "endpoint.DataWriter", err)
	}
	return nil
}

// WaitForAcknowledgments blocks until every matched reliable reader has
// acknowledged up through upTo, or ctx is cancelled.
func (w *DataWriter[T, PT]) WaitForAcknowledgments(ctx context.Context, upTo guid.SequenceNumber) error {
	return w.rw.WaitForAcknowledgments(ctx, upTo)
}

// AssertLiveliness manually refreshes liveliness for MANUAL_BY_PARTICIPANT
// or MANUAL_BY_TOPIC writers; Automatic writers refresh on every Write and
// ignore this call.
func (w *DataWriter[T, PT]) AssertLiveliness() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.policies.Liveliness == qos.Automatic {
		return
	}
	w.lastAssert = time.Now()
}

// DisposeWriter marks the writer itself disposed; subsequent Write calls return
// PreconditionNotMet.
func (w *DataWriter[T, PT]) DisposeWriter() {
	w.mu.Lock()
	w.enabled = false
	w.mu.Unlock()
}

// RunLivelinessWatchdog monitors MANUAL_BY_PARTICIPANT/MANUAL_BY_TOPIC
// writers, publishing LIVELINESS_LOST when the lease elapses without an
// assert_liveliness()/Write call, until ctx is cancelled. Automatic
// writers need no watchdog since every Write already refreshes liveliness.
func (w *DataWriter[T, PT]) RunLivelinessWatchdog(ctx context.Context) {
	if w.policies.Liveliness == qos.Automatic || w.policies.LivelinessLease <= 0 {
		return
	}
	interval := w.policies.LivelinessLease / 4
	if interval < deadlineCheckFloor {
		interval = deadlineCheckFloor
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			expired := !w.lastAssert.IsZero() && time.Since(w.lastAssert) > w.policies.LivelinessLease
			w.mu.Unlock()
			if expired {
				w.statusCondition.recordLivelinessLost()
				logger.Warn("writer liveliness lost", logger.Topic(w.Topic), logger.TypeName(w.TypeName))
			}
		}
	}
}

// RunDeadlineWatchdog checks every tracked key instance against its
// DEADLINE period, publishing OFFERED_DEADLINE_MISSED for any instance not
// re-written in time, until ctx is cancelled (§4.6).
func (w *DataWriter[T, PT]) RunDeadlineWatchdog(ctx context.Context) {
	if w.policies.Deadline <= 0 {
		return
	}
	interval := w.policies.Deadline / 4
	if interval < deadlineCheckFloor {
		interval = deadlineCheckFloor
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkDeadlines()
		}
	}
}

func (w *DataWriter[T, PT]) checkDeadlines() {
	now := time.Now()
	var missed []string
	w.mu.Lock()
	for key, due := range w.deadlines {
		if now.After(due) {
			missed = append(missed, key)
			w.deadlines[key] = now.Add(w.policies.Deadline)
		}
	}
	w.mu.Unlock()

	for _, key := range missed {
		w.statusCondition.recordDeadlineMissed(key)
		logger.Warn("writer offered deadline missed", logger.Topic(w.Topic), logger.Key(key))
	}
}
