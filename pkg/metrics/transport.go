package metrics

// TransportMetrics provides observability for the wire transports (UDP,
// TCP, QUIC, SHM). Optional - pass nil to disable collection with zero
// overhead.
type TransportMetrics interface {
	// RecordBytesSent records bytes sent over a transport. kind is one of
	// "udp", "tcp", "quic", "shm".
	RecordBytesSent(kind string, bytes int64)

	// RecordBytesReceived records bytes received over a transport.
	RecordBytesReceived(kind string, bytes int64)

	// RecordPacketDropped records a packet dropped before delivery, e.g.
	// by an interface/source filter or a malformed-header parse failure.
	RecordPacketDropped(kind string, reason string)

	// SetSHMRingUtilization updates the fraction (0.0-1.0) of a shared
	// memory ring's slots currently holding unread samples.
	SetSHMRingUtilization(ring string, fraction float64)

	// RecordAckRateLimited records an ACKNACK suppressed by the
	// per-peer token bucket rate limiter.
	RecordAckRateLimited(peer string)
}

// NewTransportMetrics creates a new Prometheus-backed TransportMetrics
// instance. Returns nil if metrics are not enabled (InitRegistry not
// called).
func NewTransportMetrics() TransportMetrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusTransportMetrics()
}

// newPrometheusTransportMetrics is implemented in
// pkg/metrics/prometheus/transport.go.
var newPrometheusTransportMetrics func() TransportMetrics

// RegisterTransportMetricsConstructor registers the Prometheus transport
// metrics constructor. Called by pkg/metrics/prometheus's init().
func RegisterTransportMetricsConstructor(constructor func() TransportMetrics) {
	newPrometheusTransportMetrics = constructor
}
