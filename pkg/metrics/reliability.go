package metrics

import "time"

// ReliabilityMetrics provides observability for the RELIABLE delivery
// engine: HEARTBEAT/ACKNACK/GAP traffic, unacked backlog, and fragment
// reassembly. Optional - pass nil to disable collection with zero overhead.
type ReliabilityMetrics interface {
	// RecordHeartbeat records a HEARTBEAT sent by a writer proxy.
	RecordHeartbeat(writer string)

	// RecordAckNack records an ACKNACK received from a reader, with the
	// number of sequence numbers acknowledged and requested for resend.
	RecordAckNack(writer string, acked, requested int)

	// RecordGap records a GAP submessage sent for irrelevant sequence
	// numbers.
	RecordGap(writer string, count int)

	// SetUnackedSamples updates the current count of samples in a writer's
	// history cache awaiting acknowledgment from at least one reader.
	SetUnackedSamples(writer string, count int)

	// RecordSampleDropped records a sample dropped before delivery (e.g.
	// history-depth eviction, resource limit). reason is a short label.
	RecordSampleDropped(reason string)

	// RecordFragmentReassembled records a DATA_FRAG sample successfully
	// reassembled from its fragments.
	RecordFragmentReassembled(fragmentCount int)

	// RecordDeliveryLatency records the time from a writer's local write
	// to a matched reader's local availability of the sample.
	RecordDeliveryLatency(d time.Duration)
}

// NewReliabilityMetrics creates a new Prometheus-backed ReliabilityMetrics
// instance. Returns nil if metrics are not enabled (InitRegistry not
// called).
func NewReliabilityMetrics() ReliabilityMetrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusReliabilityMetrics()
}

// newPrometheusReliabilityMetrics is implemented in
// pkg/metrics/prometheus/reliability.go.
var newPrometheusReliabilityMetrics func() ReliabilityMetrics

// RegisterReliabilityMetricsConstructor registers the Prometheus
// reliability metrics constructor. Called by pkg/metrics/prometheus's
// init().
func RegisterReliabilityMetricsConstructor(constructor func() ReliabilityMetrics) {
	newPrometheusReliabilityMetrics = constructor
}
