package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledByDefault(t *testing.T) {
	registryMu.Lock()
	registry = nil
	registryMu.Unlock()

	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())
}

func TestInitRegistryEnables(t *testing.T) {
	registryMu.Lock()
	registry = nil
	registryMu.Unlock()

	reg := InitRegistry()
	assert.NotNil(t, reg)
	assert.True(t, IsEnabled())
	assert.Same(t, reg, GetRegistry())

	registryMu.Lock()
	registry = nil
	registryMu.Unlock()
}

func TestNilMetricsConstructorsAreSafeWhenDisabled(t *testing.T) {
	registryMu.Lock()
	registry = nil
	registryMu.Unlock()

	assert.Nil(t, NewDiscoveryMetrics())
	assert.Nil(t, NewReliabilityMetrics())
	assert.Nil(t, NewTransportMetrics())
}
