package prometheus

import (
	"github.com/naskel/hdds/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterDiscoveryMetricsConstructor(NewDiscoveryMetrics)
}

// discoveryMetrics is the Prometheus implementation of metrics.DiscoveryMetrics.
type discoveryMetrics struct {
	spdpAnnounces          prometheus.Counter
	spdpReceives           prometheus.Counter
	sedpAnnounces          *prometheus.CounterVec
	sedpReceives           *prometheus.CounterVec
	discoveredParticipants prometheus.Gauge
	matchedEndpoints       *prometheus.GaugeVec
	dialectsDetected       *prometheus.CounterVec
	leasesExpired          prometheus.Counter
}

// NewDiscoveryMetrics creates a new Prometheus-backed DiscoveryMetrics
// instance.
//
// Returns nil if metrics are not enabled (metrics.InitRegistry not
// called).
func NewDiscoveryMetrics() metrics.DiscoveryMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &discoveryMetrics{
		spdpAnnounces: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hdds_discovery_spdp_announces_total",
				Help: "Total number of outbound SPDP participant announcements sent",
			},
		),
		spdpReceives: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hdds_discovery_spdp_receives_total",
				Help: "Total number of inbound SPDP announcements received",
			},
		),
		sedpAnnounces: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_discovery_sedp_announces_total",
				Help: "Total number of outbound SEDP endpoint announcements sent by kind",
			},
			[]string{"kind"}, // "writer", "reader"
		),
		sedpReceives: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_discovery_sedp_receives_total",
				Help: "Total number of inbound SEDP endpoint announcements received by kind",
			},
			[]string{"kind"},
		),
		discoveredParticipants: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "hdds_discovery_participants",
				Help: "Current number of discovered remote participants",
			},
		),
		matchedEndpoints: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hdds_discovery_matched_endpoints",
				Help: "Current number of matched remote endpoints by kind",
			},
			[]string{"kind"},
		),
		dialectsDetected: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdds_discovery_dialects_detected_total",
				Help: "Total number of remote participants by detected vendor dialect",
			},
			[]string{"dialect"},
		),
		leasesExpired: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "hdds_discovery_leases_expired_total",
				Help: "Total number of remote participant leases that expired without renewal",
			},
		),
	}
}

func (m *discoveryMetrics) RecordSPDPAnnounce() {
	if m == nil {
		return
	}
	m.spdpAnnounces.Inc()
}

func (m *discoveryMetrics) RecordSPDPReceive() {
	if m == nil {
		return
	}
	m.spdpReceives.Inc()
}

func (m *discoveryMetrics) RecordSEDPAnnounce(kind string) {
	if m == nil {
		return
	}
	m.sedpAnnounces.WithLabelValues(kind).Inc()
}

func (m *discoveryMetrics) RecordSEDPReceive(kind string) {
	if m == nil {
		return
	}
	m.sedpReceives.WithLabelValues(kind).Inc()
}

func (m *discoveryMetrics) SetDiscoveredParticipants(count int) {
	if m == nil {
		return
	}
	m.discoveredParticipants.Set(float64(count))
}

func (m *discoveryMetrics) SetMatchedEndpoints(kind string, count int) {
	if m == nil {
		return
	}
	m.matchedEndpoints.WithLabelValues(kind).Set(float64(count))
}

func (m *discoveryMetrics) RecordDialectDetected(dialect string) {
	if m == nil {
		return
	}
	m.dialectsDetected.WithLabelValues(dialect).Inc()
}

func (m *discoveryMetrics) RecordLeaseExpired() {
	if m == nil {
		return
	}
	m.leasesExpired.Inc()
}
