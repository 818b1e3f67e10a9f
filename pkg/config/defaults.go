package config

import (
	"strings"
	"time"
)

// GetDefaultConfig returns a Config with every field set to its default,
// suitable for a local single-participant deployment.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in any unspecified fields with sensible defaults.
// Explicit values already set by file/env/flag are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyParticipantDefaults(&cfg.Participant)
	applyTransportDefaults(&cfg.Transport)
	applyDiscoveryDefaults(&cfg.Discovery)
	applyQoSDefaults(&cfg.QoSDefaults)
	applyCloudDiscoveryDefaults(&cfg.CloudDiscovery)
	applyMetricsDefaults(&cfg.Metrics)
	applyAdminDefaults(&cfg.Admin)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines",
		}
	}
}

func applyParticipantDefaults(cfg *ParticipantConfig) {
	if cfg.LeaseDuration == 0 {
		cfg.LeaseDuration = 30 * time.Second
	}
	if cfg.AnnouncePeriod == 0 {
		cfg.AnnouncePeriod = cfg.LeaseDuration / 3
	}
}

func applyTransportDefaults(cfg *TransportConfig) {
	if cfg.Kind == "" {
		cfg.Kind = "udp"
	}
	if cfg.MetatrafficMulticastAddr == "" {
		cfg.MetatrafficMulticastAddr = "239.255.0.1"
	}
	if cfg.MulticastTTL == 0 {
		cfg.MulticastTTL = 1
	}
}

func applyDiscoveryDefaults(cfg *DiscoveryConfig) {
	if cfg.DialectProbeWindow == 0 {
		cfg.DialectProbeWindow = 3
	}
	if cfg.DialectProbeTimeout == 0 {
		cfg.DialectProbeTimeout = 5 * time.Second
	}
}

func applyQoSDefaults(cfg *QoSDefaultsConfig) {
	if cfg.Reliability == "" {
		cfg.Reliability = "best_effort"
	}
	if cfg.Durability == "" {
		cfg.Durability = "volatile"
	}
	if cfg.HistoryDepth == 0 {
		cfg.HistoryDepth = 1
	}
}

func applyCloudDiscoveryDefaults(cfg *CloudDiscoveryConfig) {
	if cfg.Prefix == "" {
		cfg.Prefix = "hdds-discovery"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Second
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8088
	}
}
