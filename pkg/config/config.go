package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the static configuration for an HDDS participant process.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (HDDS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Load applies environment variables only when a configuration file is
// found; with no file it returns the defaults unchanged.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Domain is the DDS domain ID this participant joins.
	Domain uint32 `mapstructure:"domain" validate:"lte=232" yaml:"domain"`

	Participant ParticipantConfig `mapstructure:"participant" yaml:"participant"`
	Transport   TransportConfig   `mapstructure:"transport" yaml:"transport"`
	Discovery   DiscoveryConfig   `mapstructure:"discovery" yaml:"discovery"`
	QoSDefaults QoSDefaultsConfig `mapstructure:"qos_defaults" yaml:"qos_defaults"`

	// CloudDiscovery configures the optional S3-backed SPDP rendezvous
	// channel, used in addition to (never instead of) multicast discovery.
	CloudDiscovery CloudDiscoveryConfig `mapstructure:"cloud_discovery" yaml:"cloud_discovery"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Admin contains the read-only snapshot HTTP API server configuration.
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
}

// ParticipantConfig controls participant identity and lease behavior.
type ParticipantConfig struct {
	// Name is an informal participant identifier carried in SPDP
	// USER_DATA for operator-facing diagnostics; it has no protocol role.
	Name string `mapstructure:"name" yaml:"name"`

	// LeaseDuration is how long peers should consider this participant
	// alive without a fresh SPDP announcement.
	LeaseDuration time.Duration `mapstructure:"lease_duration" yaml:"lease_duration"`

	// AnnouncePeriod is the SPDP announcement interval. It defaults to
	// LeaseDuration/3; Validate rejects any value not below LeaseDuration.
	AnnouncePeriod time.Duration `mapstructure:"announce_period" yaml:"announce_period"`
}

// TransportConfig selects and configures the RTPS transport(s) to bind.
type TransportConfig struct {
	// Kind selects the primary transport: "udp" (default), "tcp", "quic".
	Kind string `mapstructure:"kind" validate:"omitempty,oneof=udp tcp quic" yaml:"kind"`

	MetatrafficMulticastAddr string `mapstructure:"metatraffic_multicast_addr" yaml:"metatraffic_multicast_addr"`

	// EnableSHM opts into the Linux shared-memory ring transport for
	// same-host writer/reader pairs, in addition to the primary transport.
	EnableSHM bool `mapstructure:"enable_shm" yaml:"enable_shm"`

	MulticastTTL int `mapstructure:"multicast_ttl" validate:"omitempty,min=1,max=255" yaml:"multicast_ttl"`

	Interfaces InterfaceSelectionConfig `mapstructure:"interfaces" yaml:"interfaces"`
}

// InterfaceSelectionConfig restricts which NICs the transport binds to and
// joins multicast groups on.
type InterfaceSelectionConfig struct {
	Allow []string `mapstructure:"allow" yaml:"allow,omitempty"`
	Deny  []string `mapstructure:"deny" yaml:"deny,omitempty"`
}

// DiscoveryConfig tunes SPDP/SEDP discovery and dialect detection.
type DiscoveryConfig struct {
	// DiscoveryServers is an optional list of unicast discovery-server
	// locators ("host:port"), announced to in addition to multicast, for
	// environments where multicast is blocked.
	DiscoveryServers []string `mapstructure:"discovery_servers" yaml:"discovery_servers,omitempty"`

	// DialectProbeWindow bounds how many SPDP samples from a new peer are
	// inspected before a dialect is committed.
	DialectProbeWindow int `mapstructure:"dialect_probe_window" validate:"omitempty,min=1" yaml:"dialect_probe_window"`

	DialectProbeTimeout time.Duration `mapstructure:"dialect_probe_timeout" yaml:"dialect_probe_timeout"`
}

// QoSDefaultsConfig holds default QoS policy settings. They are defaulted
// and validated with the rest of the configuration, but no writer or
// reader construction path reads them.
type QoSDefaultsConfig struct {
	Reliability string        `mapstructure:"reliability" validate:"omitempty,oneof=best_effort reliable" yaml:"reliability"`
	Durability  string        `mapstructure:"durability" validate:"omitempty,oneof=volatile transient_local transient persistent" yaml:"durability"`
	HistoryDepth int          `mapstructure:"history_depth" validate:"omitempty,min=1" yaml:"history_depth"`
	Deadline     time.Duration `mapstructure:"deadline" yaml:"deadline,omitempty"`
}

// CloudDiscoveryConfig configures the opt-in S3 rendezvous channel
// (§12 supplemented feature).
type CloudDiscoveryConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Bucket   string `mapstructure:"bucket" validate:"required_if=Enabled true" yaml:"bucket,omitempty"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Region   string `mapstructure:"region" yaml:"region,omitempty"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval,omitempty"`

	// AccessKeyID/SecretAccessKey are optional static credentials for
	// environments without an ambient AWS credential chain (e.g. an
	// S3-compatible appliance). Left blank, the default provider chain
	// (env vars, shared config, instance role) is used instead.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing and
// Pyroscope continuous profiling.
type TelemetryConfig struct {
	Enabled    bool           `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string         `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool           `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64        `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// AdminConfig configures the read-only snapshot HTTP API (§14.6).
type AdminConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
	JWTAuth  bool   `mapstructure:"jwt_auth" yaml:"jwt_auth"`
	JWTSecretEnv string `mapstructure:"jwt_secret_env" yaml:"jwt_secret_env,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the
// default config file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  hdds init\n\n"+
				"Or specify a custom config file:\n"+
				"  hdds <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  hdds init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("HDDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns the mapstructure decode hook chain.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts strings/numbers to time.Duration, enabling
// human-readable durations like "30s", "5m", "1h" in config files.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hdds")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "hdds")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
