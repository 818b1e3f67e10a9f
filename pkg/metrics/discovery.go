package metrics

// DiscoveryMetrics provides observability for SPDP/SEDP discovery traffic.
//
// Implementations collect counts of discovery announcements, matched
// participants/endpoints, and detected vendor dialects. Optional - pass nil
// to disable collection with zero overhead.
type DiscoveryMetrics interface {
	// RecordSPDPAnnounce records an outbound SPDP participant announcement.
	RecordSPDPAnnounce()

	// RecordSPDPReceive records an inbound SPDP announcement from a peer.
	RecordSPDPReceive()

	// RecordSEDPAnnounce records an outbound SEDP publication/subscription
	// announcement. kind is "writer" or "reader".
	RecordSEDPAnnounce(kind string)

	// RecordSEDPReceive records an inbound SEDP announcement. kind is
	// "writer" or "reader".
	RecordSEDPReceive(kind string)

	// SetDiscoveredParticipants updates the current count of known remote
	// participants.
	SetDiscoveredParticipants(count int)

	// SetMatchedEndpoints updates the current count of matched
	// writer/reader pairs. kind is "writer" or "reader".
	SetMatchedEndpoints(kind string, count int)

	// RecordDialectDetected records the vendor dialect detected for a
	// remote participant (e.g. "hdds", "fastdds", "cyclonedds", "rti").
	RecordDialectDetected(dialect string)

	// RecordLeaseExpired records a remote participant's lease expiring
	// without renewal.
	RecordLeaseExpired()
}

// NewDiscoveryMetrics creates a new Prometheus-backed DiscoveryMetrics
// instance. Returns nil if metrics are not enabled (InitRegistry not
// called), in which case callers should pass nil through to discovery
// components, which results in zero overhead.
func NewDiscoveryMetrics() DiscoveryMetrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusDiscoveryMetrics()
}

// newPrometheusDiscoveryMetrics is implemented in pkg/metrics/prometheus/discovery.go.
// This indirection avoids an import cycle while keeping the constructor API
// in this package.
var newPrometheusDiscoveryMetrics func() DiscoveryMetrics

// RegisterDiscoveryMetricsConstructor registers the Prometheus discovery
// metrics constructor. Called by pkg/metrics/prometheus's init().
func RegisterDiscoveryMetricsConstructor(constructor func() DiscoveryMetrics) {
	newPrometheusDiscoveryMetrics = constructor
}
