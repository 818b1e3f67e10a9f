package prometheus

import (
	"time"

	"github.com/naskel/hdds/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterReliabilityMetricsConstructor(NewReliabilityMetrics)
}

// reliabilityMetrics is the Prometheus implementation of metrics.ReliabilityMetrics.
type reliabilityMetrics struct {
	heartbeats           *prometheus.CounterVec
	acknacksAcked        *prometheus.CounterVec
	acknacksRequested    *prometheus.CounterVec
	gaps                 *prometheus.CounterVec
	unackedSamples       *prometheus.GaugeVec
	samplesDropped       *prometheus.CounterVec
	fragmentsReassembled prometheus.Counter
	deliveryLatency      prometheus.Histogram
}

// NewReliabilityMetrics creates a new Prometheus-backed ReliabilityMetrics
// instance.
//
// Returns nil if metrics are not enabled (metrics.InitRegistry not
// called).
func NewReliabilityMetrics() metrics.ReliabilityMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &reliabilityMetrics{
		heartbeats: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_reliability_heartbeats_total",
				Help: "Total number of HEARTBEAT submessages sent by writer",
			},
			[]string{"writer"},
		),
		acknacksAcked: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_reliability_acknack_acked_total",
				Help: "Total number of sequence numbers acknowledged via ACKNACK by writer",
			},
			[]string{"writer"},
		),
		acknacksRequested: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_reliability_acknack_requested_total",
				Help: "Total number of sequence numbers requested for resend via ACKNACK by writer",
			},
			[]string{"writer"},
		),
		gaps: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_reliability_gaps_total",
				Help: "Total number of sequence numbers marked irrelevant via GAP by writer",
			},
			[]string{"writer"},
		),
		unackedSamples: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hdds_reliability_unacked_samples",
				Help: "Current number of samples in a writer's history cache awaiting acknowledgment",
			},
			[]string{"writer"},
		),
		samplesDropped: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_reliability_samples_dropped_total",
				Help: "Total number of samples dropped before delivery by reason",
			},
			[]string{"reason"},
		),
		fragmentsReassembled: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hdds_reliability_fragments_reassembled_total",
				Help: "Total number of DATA_FRAG samples successfully reassembled",
			},
		),
		deliveryLatency: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "hdds_reliability_delivery_latency_milliseconds",
				Help: "Latency between a writer's local write and a reader's local availability of the sample",
				Buckets: []float64{
					0.1,  // 100us - local loopback
					0.5,  // 500us
					1,    // 1ms
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms
					100,  // 100ms
					500,  // 500ms
					1000, // 1s
				},
			},
		),
	}
}

func (m *reliabilityMetrics) RecordHeartbeat(writer string) {
	if m == nil {
		return
	}
	m.heartbeats.WithLabelValues(writer).Inc()
}

func (m *reliabilityMetrics) RecordAckNack(writer string, acked, requested int) {
	if m == nil {
		return
	}
	m.acknacksAcked.WithLabelValues(writer).Add(float64(acked))
	m.acknacksRequested.WithLabelValues(writer).Add(float64(requested))
}

func (m *reliabilityMetrics) RecordGap(writer string, count int) {
	if m == nil {
		return
	}
	m.gaps.WithLabelValues(writer).Add(float64(count))
}

func (m *reliabilityMetrics) SetUnackedSamples(writer string, count int) {
	if m == nil {
		return
	}
	m.unackedSamples.WithLabelValues(writer).Set(float64(count))
}

func (m *reliabilityMetrics) RecordSampleDropped(reason string) {
	if m == nil {
		return
	}
	m.samplesDropped.WithLabelValues(reason).Inc()
}

func (m *reliabilityMetrics) RecordFragmentReassembled(fragmentCount int) {
	if m == nil {
		return
	}
	m.fragmentsReassembled.Inc()
}

func (m *reliabilityMetrics) RecordDeliveryLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.deliveryLatency.Observe(float64(d.Microseconds()) / 1000.0)
}
