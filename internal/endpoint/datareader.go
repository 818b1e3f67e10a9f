package endpoint

import (
	"context"
	"sync"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// instanceOwner tracks the current OWNERSHIP_EXCLUSIVE arbiter for one key
// instance: the matched writer currently allowed to publish it, and the
// strength it won with (§8 scenario S6).
type instanceOwner struct {
	writer   guid.GUID
	strength int32
}

// RequestedStatusCondition mirrors OfferedStatusCondition for the
// subscription side.
type RequestedStatusCondition struct {
	*StatusCondition

	mu                       sync.Mutex
	deadlineMissed           RequestedDeadlineMissedStatus
	livelinessChanged        LivelinessChangedStatus
	sampleRejected           SampleRejectedStatus
	requestedIncompatibleQos IncompatibleQosStatus
}

func newRequestedStatusCondition() *RequestedStatusCondition {
	return &RequestedStatusCondition{StatusCondition: NewStatusCondition()}
}

// DeadlineMissed returns the most recently recorded
// REQUESTED_DEADLINE_MISSED status.
func (s *RequestedStatusCondition) DeadlineMissed() RequestedDeadlineMissedStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadlineMissed
}

func (s *RequestedStatusCondition) recordDeadlineMissed(key string) {
	s.mu.Lock()
	s.deadlineMissed.TotalCount++
	s.deadlineMissed.InstanceKey = key
	s.mu.Unlock()
	s.Trigger()
}

func (s *RequestedStatusCondition) recordSampleRejected(reason string) {
	s.mu.Lock()
	s.sampleRejected.TotalCount++
	s.sampleRejected.Reason = reason
	s.mu.Unlock()
	s.Trigger()
}

// DataReader is the typed subscription side of an endpoint. It consumes
// CacheChanges appended to a reliability.StatefulReader's HistoryCache (the
// "index ring" of §4.6 — here, the SPSC cache already owned by the
// reliability layer, walked by a single high-water-mark cursor rather than
// a second buffer), decodes them lazily, and applies OWNERSHIP_EXCLUSIVE
// and DEADLINE QoS on top.
type DataReader[T any, PT interface {
	*T
	Sample
}] struct {
	Topic    string
	TypeName string

	policies qos.Policies
	scheme   cdr.Scheme
	sr       *reliability.StatefulReader

	statusCondition *RequestedStatusCondition

	mu             sync.Mutex
	highWater      guid.SequenceNumber
	owners         map[string]instanceOwner
	lastSeenPerKey map[string]time.Time
	writerStrength map[guid.GUID]int32
}

// NewDataReader creates a DataReader over an already-constructed
// reliability.StatefulReader.
func NewDataReader[T any, PT interface {
	*T
	Sample
}](topic, typeName string, policies qos.Policies, scheme cdr.Scheme, sr *reliability.StatefulReader) *DataReader[T, PT] {
	return &DataReader[T, PT]{
		Topic:           topic,
		TypeName:        typeName,
		policies:        policies,
		scheme:          scheme,
		sr:              sr,
		statusCondition: newRequestedStatusCondition(),
		highWater:       guid.Unknown,
		owners:          make(map[string]instanceOwner),
		lastSeenPerKey:  make(map[string]time.Time),
		writerStrength:  make(map[guid.GUID]int32),
	}
}

// StatusCondition exposes the reader's StatusCondition for attachment to a
// WaitSet.
func (r *DataReader[T, PT]) StatusCondition() *RequestedStatusCondition { return r.statusCondition }

// SetWriterStrength records the OWNERSHIP strength of a matched writer,
// populated by the matcher from the writer's offered QoS at match time.
func (r *DataReader[T, PT]) SetWriterStrength(writer guid.GUID, strength int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writerStrength[writer] = strength
}

// Take returns every new sample in sequence order and advances the
// reader's cursor past them, applying dedup, OWNERSHIP_EXCLUSIVE
// suppression, and DESTINATION_ORDER, then decoding each surviving change
// (§4.6).
func (r *DataReader[T, PT]) Take() ([]T, error) {
	return r.takeBatch(0)
}

// Read behaves like Take but does not advance the cursor, so a subsequent
// Take or Read observes the same samples again.
func (r *DataReader[T, PT]) Read() ([]T, error) {
	r.mu.Lock()
	saved := r.highWater
	r.mu.Unlock()
	out, err := r.takeBatch(0)
	r.mu.Lock()
	r.highWater = saved
	r.mu.Unlock()
	return out, err
}

// TakeBatch behaves like Take but returns at most n samples.
func (r *DataReader[T, PT]) TakeBatch(n int) ([]T, error) {
	return r.takeBatch(n)
}

func (r *DataReader[T, PT]) takeBatch(limit int) ([]T, error) {
	r.mu.Lock()
	from := r.highWater + 1
	if r.highWater == guid.Unknown {
		from = 1
	}
	r.mu.Unlock()

	changes := r.sr.History().Range(from, guid.SequenceNumber(1<<62))
	sortChangesBySequence(changes)
	if r.policies.DestinationOrder == qos.BySourceTimestamp {
		sortChangesByTimestamp(changes)
	}

	out := make([]T, 0, len(changes))
	var newHighWater guid.SequenceNumber
	hasHighWater := false
	bounds := make(map[guid.GUID]guid.SequenceNumber)

	for _, change := range changes {
		if limit > 0 && len(out) >= limit {
			break
		}

		bound, ok := bounds[change.WriterGUID]
		if !ok {
			bound = guid.Unknown
			if proxy, matched := r.sr.WriterProxy(change.WriterGUID); matched {
				bound = proxy.HighestContiguous()
			}
			bounds[change.WriterGUID] = bound
		}
		if change.SequenceNumber > bound {
			// sn is still outstanding below (or at) a gap for its writer;
			// holding the cursor here is what keeps a reader from
			// observing sn+1 before a retransmitted sn (§5).
			continue
		}

		if change.SequenceNumber > newHighWater || !hasHighWater {
			newHighWater = change.SequenceNumber
			hasHighWater = true
		}
		if change.Disposed || change.Unregistered {
			continue
		}

		var value T
		pt := PT(&value)
		if err := cdr.Decode(change.Payload, pt); err != nil {
			r.statusCondition.recordSampleRejected("decode_error")
			logger.Warn("reader sample decode failed", logger.Topic(r.Topic), logger.Err(err))
			continue
		}

		key := pt.InstanceKey()
		if r.policies.Ownership == qos.Exclusive && !r.acceptsFromOwner(key, change.WriterGUID) {
			continue
		}

		r.mu.Lock()
		if r.policies.Deadline > 0 {
			r.lastSeenPerKey[key] = time.Now()
		}
		r.mu.Unlock()

		out = append(out, value)
	}

	if hasHighWater {
		r.mu.Lock()
		if newHighWater > r.highWater {
			r.highWater = newHighWater
		}
		r.mu.Unlock()
	}
	return out, nil
}

// acceptsFromOwner applies OWNERSHIP_EXCLUSIVE arbitration for key: a
// sample is suppressed while any other writer with a recorded strength is
// stronger than its own writer; among equally strong writers the first to
// publish the instance becomes (and remains) its owner. A writer with no
// recorded strength counts as 0. Ownership passes to a weaker writer only
// once ForgetWriter drops the stronger one; a stronger writer that merely
// stops publishing keeps it (§8 scenario S6).
func (r *DataReader[T, PT]) acceptsFromOwner(key string, writer guid.GUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	strength := r.writerStrength[writer]
	for other, s := range r.writerStrength {
		if other != writer && s > strength {
			return false
		}
	}
	owner, ok := r.owners[key]
	if !ok || strength > owner.strength {
		r.owners[key] = instanceOwner{writer: writer, strength: strength}
		return true
	}
	return owner.writer == writer
}

// ForgetWriter drops a writer's recorded strength and relinquishes
// ownership of any instance it held, so the next sample from a surviving
// lower-strength writer is accepted (§8 scenario S6's failover step).
func (r *DataReader[T, PT]) ForgetWriter(writer guid.GUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.writerStrength, writer)
	for key, owner := range r.owners {
		if owner.writer == writer {
			delete(r.owners, key)
		}
	}
}

// RunDeadlineWatchdog checks every key instance this reader has ever seen
// against the requested DEADLINE period, publishing
// REQUESTED_DEADLINE_MISSED for any that has gone silent, until ctx is
// cancelled.
func (r *DataReader[T, PT]) RunDeadlineWatchdog(ctx context.Context) {
	if r.policies.Deadline <= 0 {
		return
	}
	interval := r.policies.Deadline / 4
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
			r.checkDeadlines()
		}
	}
}

func (r *DataReader[T, PT]) checkDeadlines() {
	now := time.Now()
	var missed []string
	r.mu.Lock()
	for key, seen := range r.lastSeenPerKey {
		if now.Sub(seen) > r.policies.Deadline {
			missed = append(missed, key)
			r.lastSeenPerKey[key] = now
		}
	}
	r.mu.Unlock()
	for _, key := range missed {
		r.statusCondition.recordDeadlineMissed(key)
	}
}

// sortChangesBySequence restores ascending sequence order before
// contiguity gating: a retransmitted change lands at the end of the
// HistoryCache's insertion-ordered slice, behind changes received after
// the gap it fills.
func sortChangesBySequence(changes []reliability.CacheChange) {
	for i := 1; i < len(changes); i++ {
		for j := i; j > 0 && changes[j-1].SequenceNumber > changes[j].SequenceNumber; j-- {
			changes[j-1], changes[j] = changes[j], changes[j-1]
		}
	}
}

func sortChangesByTimestamp(changes []reliability.CacheChange) {
	for i := 1; i < len(changes); i++ {
		for j := i; j > 0 && changes[j-1].SourceTimestamp.After(changes[j].SourceTimestamp); j-- {
			changes[j-1], changes[j] = changes[j], changes[j-1]
		}
	}
}
