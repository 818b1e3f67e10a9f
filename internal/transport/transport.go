// Package transport implements the RTPS transport abstraction: UDP
// multicast/unicast (primary), TCP (length-prefixed), optional QUIC, and
// optional Linux shared-memory rings, plus interface/source filtering and
// best-effort QoS hooks (§4.3).
package transport

import (
	"context"

	"github.com/naskel/hdds/internal/rtps/guid"
)

// Packet is one received datagram/message plus the locator it arrived
// from.
type Packet struct {
	Data   []byte
	Source guid.Locator
}

// Transport is the capability-set interface every concrete transport
// implements (Design Notes §9).
type Transport interface {
	// Send writes data to dst. Implementations never block indefinitely;
	// callers pass a context for cancellation where the underlying I/O
	// supports it.
	Send(ctx context.Context, dst guid.Locator, data []byte) error

	// Recv blocks until a packet arrives or ctx is cancelled.
	Recv(ctx context.Context) (Packet, error)

	// LocalLocators returns the locators this transport is bound to
	// and that should be advertised to peers via SPDP/SEDP.
	LocalLocators() []guid.Locator

	// SupportsMulticast reports whether this transport can join
	// multicast groups.
	SupportsMulticast() bool

	// Close releases all transport resources. Safe to call more than
	// once.
	Close() error
}

// Kind names a transport variant, used in configuration and logging.
type Kind string

const (
	KindUDP Kind = "udp"
	KindTCP Kind = "tcp"
	KindQUIC Kind = "quic"
	KindSHM  Kind = "shm"
)
