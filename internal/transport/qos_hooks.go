package transport

import (
	"net"

	"golang.org/x/net/ipv4"

	"github.com/naskel/hdds/internal/logger"
)

// DSCPExpeditedForwarding is the DSCP codepoint (shifted into the IPv4 TOS
// byte) recommended for reliability-critical control traffic (HEARTBEAT,
// ACKNACK) when the network path honors it. Applying it is best-effort:
// failures are logged, never fatal (§4.3 Design Notes).
const DSCPExpeditedForwarding = 0x2E << 2

// ApplyDSCP sets the IPv4 TOS byte on a UDP socket. Returns nil on
// unsupported platforms/sockets rather than erroring the caller out of
// running without prioritized traffic.
func ApplyDSCP(conn *net.UDPConn, dscp int) error {
	pc := ipv4.NewConn(conn)
	if err := pc.SetTOS(dscp); err != nil {
		logger.Debug("DSCP set failed, continuing without prioritization", logger.Err(err))
		return nil
	}
	return nil
}

// ApplyTTL sets the unicast IP TTL on a UDP socket, used to bound
// discovery-server relay hops in multi-hop deployments.
func ApplyTTL(conn *net.UDPConn, ttl int) error {
	pc := ipv4.NewConn(conn)
	if err := pc.SetTTL(ttl); err != nil {
		logger.Debug("TTL set failed, continuing with platform default", logger.Err(err))
		return nil
	}
	return nil
}

// ProbeTSNCapable reports whether iface supports IEEE 802.1Qbv
// time-sensitive networking. There is no portable Go API for TSN queue
// discipline introspection, so it inspects nothing and always reports
// false on every platform; it exists as the seam SPEC_FULL.md's TSN probing
// component hangs off of (§14 Design Notes).
func ProbeTSNCapable(iface *net.Interface) bool {
	return false
}
