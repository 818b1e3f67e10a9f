package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.NoError(t, Validate(cfg))
	assert.Equal(t, "udp", cfg.Transport.Kind)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{Transport: TransportConfig{Kind: "tcp"}}
	ApplyDefaults(cfg)
	assert.Equal(t, "tcp", cfg.Transport.Kind)
}

func TestValidateRejectsAnnouncePeriodNotLessThanLease(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Participant.AnnouncePeriod = cfg.Participant.LeaseDuration
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsJWTAuthWithoutSecretEnv(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Admin.JWTAuth = true
	cfg.Admin.JWTSecretEnv = ""
	assert.Error(t, Validate(cfg))
}

func TestSaveConfigThenLoadRoundTrips(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Domain = 5
	cfg.Participant.Name = "test-participant"

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), loaded.Domain)
	assert.Equal(t, "test-participant", loaded.Participant.Name)
}

func TestDefaultConfigPathUnderConfigDir(t *testing.T) {
	assert.Contains(t, GetDefaultConfigPath(), GetConfigDir())
}
