// Package metrics defines the participant's Prometheus metrics surface:
// nil-safe interfaces for discovery, reliability, and transport counters,
// with the concrete Prometheus implementation living in pkg/metrics/prometheus.
// This package itself uses client_golang only for the registry and the
// /metrics handler.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registryMu sync.Mutex
	registry   *prometheus.Registry
)

// InitRegistry creates the process-wide Prometheus registry. Must be called
// before any NewXMetrics constructor if metrics are to be collected;
// otherwise every constructor returns nil and collection is a no-op.
func InitRegistry() *prometheus.Registry {
	registryMu.Lock()
	defer registryMu.Unlock()

	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry != nil
}

// GetRegistry returns the process-wide registry, or nil if InitRegistry
// hasn't been called.
func GetRegistry() *prometheus.Registry {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry
}
