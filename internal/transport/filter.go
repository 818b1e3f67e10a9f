package transport

import "github.com/naskel/hdds/internal/rtps/guid"

// InterfaceFilter restricts which network interfaces a transport binds to
// and joins multicast groups on. A zero-value filter allows every
// interface (§4.3).
type InterfaceFilter struct {
	Allow []string // interface names; empty means "all"
	Deny  []string // interface names excluded even if also in Allow
}

// Allows reports whether iface may be used.
func (f InterfaceFilter) Allows(iface string) bool {
	for _, d := range f.Deny {
		if d == iface {
			return false
		}
	}
	if len(f.Allow) == 0 {
		return true
	}
	for _, a := range f.Allow {
		if a == iface {
			return true
		}
	}
	return false
}

// SourceFilter restricts which peers, identified by GUID prefix, a received
// packet is accepted from, used to reject stray traffic on a shared
// multicast group.
type SourceFilter struct {
	AllowedPrefixes []guid.GUIDPrefix // empty means "accept any"
}

// Accepts reports whether a packet whose SPDP-advertised prefix is src
// should be processed.
func (f SourceFilter) Accepts(src guid.GUIDPrefix) bool {
	if len(f.AllowedPrefixes) == 0 {
		return true
	}
	for _, p := range f.AllowedPrefixes {
		if p == src {
			return true
		}
	}
	return false
}
