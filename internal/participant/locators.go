package participant

import (
	"net"
	"strconv"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// multicastIP resolves addr (e.g. DefaultMulticastGroup) to a net.IP,
// falling back to the unspecified address if it doesn't parse so a
// malformed config value degrades to a harmless no-op locator rather
// than a nil pointer dereference deeper in guid.NewUDPv4Locator.
func multicastIP(addr string) net.IP {
	ip := net.ParseIP(addr)
	if ip == nil {
		return net.IPv4zero
	}
	return ip
}

// parseDiscoveryServerLocator turns a "host:port" discovery-server
// address from config into a unicast locator SPDP announcements are also
// sent to, for environments where multicast is blocked (§6 CLI/config
// surface).
func parseDiscoveryServerLocator(hostport string) (guid.Locator, bool) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		logger.Warn("invalid discovery server address, skipping", logger.Err(err))
		return guid.Locator{}, false
	}
	port, err := strconv.ParseUint(portStr, 10, 32)
	if err != nil {
		logger.Warn("invalid discovery server port, skipping", logger.Err(err))
		return guid.Locator{}, false
	}
	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		logger.Warn("could not resolve discovery server host, skipping", logger.Err(err))
		return guid.Locator{}, false
	}
	return guid.NewUDPv4Locator(ips[0], uint32(port)), true
}
