package prometheus

import (
	"github.com/naskel/hdds/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterTransportMetricsConstructor(NewTransportMetrics)
}

// transportMetrics is the Prometheus implementation of metrics.TransportMetrics.
type transportMetrics struct {
	bytesSent      *prometheus.CounterVec
	bytesReceived  *prometheus.CounterVec
	packetsDropped *prometheus.CounterVec
	shmRingUtil    *prometheus.GaugeVec
	ackRateLimited *prometheus.CounterVec
}

// NewTransportMetrics creates a new Prometheus-backed TransportMetrics
// instance.
//
// Returns nil if metrics are not enabled (metrics.InitRegistry not
// called).
func NewTransportMetrics() metrics.TransportMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &transportMetrics{
		bytesSent: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_transport_bytes_sent_total",
				Help: "Total number of bytes sent by transport kind",
			},
			[]string{"kind"}, // "udp", "tcp", "quic", "shm"
		),
		bytesReceived: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_transport_bytes_received_total",
				Help: "Total number of bytes received by transport kind",
			},
			[]string{"kind"},
		),
		packetsDropped: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_transport_packets_dropped_total",
				Help: "Total number of packets dropped before delivery by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		shmRingUtil: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hdds_transport_shm_ring_utilization",
				Help: "Fraction of a shared memory ring's slots currently holding unread samples",
			},
			[]string{"ring"},
		),
		ackRateLimited: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_transport_acknack_rate_limited_total",
				Help: "Total number of ACKNACK submessages suppressed by the per-peer rate limiter",
			},
			[]string{"peer"},
		),
	}
}

func (m *transportMetrics) RecordBytesSent(kind string, bytes int64) {
	if m == nil {
		return
	}
	m.bytesSent.WithLabelValues(kind).Add(float64(bytes))
}

func (m *transportMetrics) RecordBytesReceived(kind string, bytes int64) {
	if m == nil {
		return
	}
	m.bytesReceived.WithLabelValues(kind).Add(float64(bytes))
}

func (m *transportMetrics) RecordPacketDropped(kind string, reason string) {
	if m == nil {
		return
	}
	m.packetsDropped.WithLabelValues(kind, reason).Inc()
}

func (m *transportMetrics) SetSHMRingUtilization(ring string, fraction float64) {
	if m == nil {
		return
	}
	m.shmRingUtil.WithLabelValues(ring).Set(fraction)
}

func (m *transportMetrics) RecordAckRateLimited(peer string) {
	if m == nil {
		return
	}
	m.ackRateLimited.WithLabelValues(peer).Inc()
}
