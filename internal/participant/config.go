package participant

import (
	"time"

	"github.com/naskel/hdds/internal/transport"
)

// Config is the fully-resolved set of inputs Build needs to stand up a
// participant. cmd/hdds constructs this from pkg/config.Config plus CLI
// flag overrides.
type Config struct {
	Domain uint32
	Name   string

	TransportKind transport.Kind
	MulticastAddr string // defaults to DefaultMulticastGroup
	MulticastTTL  int
	EnableSHM     bool
	Interfaces    transport.InterfaceFilter

	LeaseDuration  time.Duration
	AnnouncePeriod time.Duration

	DiscoveryServers    []string
	DialectProbeWindow  int
	DialectProbeTimeout time.Duration
}

// applyDefaults fills zero-valued fields with HDDS's operational
// defaults, mirroring pkg/config.ApplyDefaults for the subset of
// settings this package needs directly.
func (c *Config) applyDefaults() {
	if c.TransportKind == "" {
		c.TransportKind = transport.KindUDP
	}
	if c.MulticastAddr == "" {
		c.MulticastAddr = DefaultMulticastGroup
	}
	if c.MulticastTTL <= 0 {
		c.MulticastTTL = 1
	}
	if c.LeaseDuration <= 0 {
		c.LeaseDuration = 30 * time.Second
	}
	if c.AnnouncePeriod <= 0 {
		c.AnnouncePeriod = c.LeaseDuration / 3
	}
	if c.DialectProbeWindow <= 0 {
		c.DialectProbeWindow = 3
	}
	if c.DialectProbeTimeout <= 0 {
		c.DialectProbeTimeout = 5 * time.Second
	}
}
