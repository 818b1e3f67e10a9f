// Package guid implements the RTPS wire primitives shared by every
// protocol layer above the transport: GUID, EntityID, Locator, and
// SequenceNumber.
package guid

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"
)

// Well-known entity ID suffixes (RTPS 2.x §8.2.4).
var (
	EntityIDParticipant  = EntityID{0x00, 0x00, 0x01, 0xC1}
	EntityIDUnknown      = EntityID{0x00, 0x00, 0x00, 0x00}
	EntityIDSPDPWriter   = EntityID{0x00, 0x01, 0x00, 0xC2}
	EntityIDSPDPReader   = EntityID{0x00, 0x01, 0x00, 0xC7}
	EntityIDSEDPPubW     = EntityID{0x00, 0x00, 0x03, 0xC2}
	EntityIDSEDPPubR     = EntityID{0x00, 0x00, 0x03, 0xC7}
	EntityIDSEDPSubW     = EntityID{0x00, 0x00, 0x04, 0xC2}
	EntityIDSEDPSubR     = EntityID{0x00, 0x00, 0x04, 0xC7}
)

// EntityKind classifies the low byte of an EntityID.
type EntityKind byte

const (
	KindUnknown     EntityKind = 0x00
	KindUserWriter  EntityKind = 0xC2
	KindUserReader  EntityKind = 0xC7
	KindParticipant EntityKind = 0xC1
)

// EntityID is the 4-byte suffix of a GUID identifying an entity within a
// participant.
type EntityID [4]byte

// Kind returns the entity kind encoded in the low byte.
func (e EntityID) Kind() EntityKind { return EntityKind(e[3]) }

func (e EntityID) String() string { return hex.EncodeToString(e[:]) }

// GUIDPrefix is the 12-byte participant-scoped prefix of a GUID.
type GUIDPrefix [12]byte

func (p GUIDPrefix) String() string { return hex.EncodeToString(p[:]) }

// IsZero reports whether the prefix is all zeros.
func (p GUIDPrefix) IsZero() bool { return p == GUIDPrefix{} }

// GUID uniquely identifies a participant or endpoint across the network:
// prefix[12] ++ entity_id[4].
type GUID struct {
	Prefix   GUIDPrefix
	EntityID EntityID
}

// FromBytes builds a GUID from a 16-byte slice. Panics if len(b) != 16;
// callers must validate length before calling (wire decoders check this).
func FromBytes(b []byte) GUID {
	if len(b) != 16 {
		panic(fmt.Sprintf("guid: FromBytes requires 16 bytes, got %d", len(b)))
	}
	var g GUID
	copy(g.Prefix[:], b[0:12])
	copy(g.EntityID[:], b[12:16])
	return g
}

// New builds a GUID from a prefix and entity id.
func New(prefix GUIDPrefix, entity EntityID) GUID {
	return GUID{Prefix: prefix, EntityID: entity}
}

// Bytes returns the 16-byte wire representation.
func (g GUID) Bytes() [16]byte {
	var out [16]byte
	copy(out[0:12], g.Prefix[:])
	copy(out[12:16], g.EntityID[:])
	return out
}

// IsZero reports whether the GUID is the all-zero placeholder.
func (g GUID) IsZero() bool {
	return g.Prefix.IsZero() && g.EntityID == EntityID{}
}

func (g GUID) String() string {
	return fmt.Sprintf("%s:%s", g.Prefix, g.EntityID)
}

// ParseGUID parses the "prefix:entityid" hex form produced by String, e.g.
// for decoding a GUID path parameter in the admin snapshot API.
func ParseGUID(s string) (GUID, error) {
	prefixHex, entityHex, ok := strings.Cut(s, ":")
	if !ok {
		return GUID{}, fmt.Errorf("guid: malformed %q, want prefix:entityid", s)
	}
	prefixBytes, err := hex.DecodeString(prefixHex)
	if err != nil || len(prefixBytes) != 12 {
		return GUID{}, fmt.Errorf("guid: invalid prefix in %q", s)
	}
	entityBytes, err := hex.DecodeString(entityHex)
	if err != nil || len(entityBytes) != 4 {
		return GUID{}, fmt.Errorf("guid: invalid entity id in %q", s)
	}
	var g GUID
	copy(g.Prefix[:], prefixBytes)
	copy(g.EntityID[:], entityBytes)
	return g, nil
}

// ParticipantGUID returns the GUID of the owning participant (entity id
// replaced with the reserved participant suffix).
func (g GUID) ParticipantGUID() GUID {
	return GUID{Prefix: g.Prefix, EntityID: EntityIDParticipant}
}

// SequenceNumber is a monotonic per-writer counter, represented on the
// wire as a signed 64-bit split into high:i32 + low:u32. Starts at 1;
// zero and negative values are reserved (unset / SEQUENCENUMBER_UNKNOWN).
type SequenceNumber int64

// Unknown is the RTPS SEQUENCENUMBER_UNKNOWN sentinel (high=-1, low=0).
const Unknown SequenceNumber = -1 << 32

// SequenceNumberFromParts reconstructs a SequenceNumber from its wire halves.
func SequenceNumberFromParts(high int32, low uint32) SequenceNumber {
	return SequenceNumber(int64(high)<<32 | int64(low))
}

// Parts splits the sequence number into its wire representation.
func (s SequenceNumber) Parts() (high int32, low uint32) {
	v := int64(s)
	return int32(v >> 32), uint32(v & 0xFFFFFFFF)
}

// IsValid reports whether s is a usable (non-unknown, positive) sequence.
func (s SequenceNumber) IsValid() bool { return s >= 1 }

// LocatorKind identifies the transport family encoded in a Locator.
type LocatorKind int32

const (
	LocatorKindInvalid LocatorKind = -1
	LocatorKindUDPv4    LocatorKind = 1
	LocatorKindUDPv6    LocatorKind = 2
	LocatorKindTCPv4    LocatorKind = 4
	LocatorKindTCPv6    LocatorKind = 8
	LocatorKindSHM      LocatorKind = 0x10000
)

func (k LocatorKind) String() string {
	switch k {
	case LocatorKindUDPv4:
		return "udpv4"
	case LocatorKindUDPv6:
		return "udpv6"
	case LocatorKindTCPv4:
		return "tcpv4"
	case LocatorKindTCPv6:
		return "tcpv6"
	case LocatorKindSHM:
		return "shm"
	default:
		return "invalid"
	}
}

// Locator identifies a transport endpoint: kind, port, and a 16-byte
// address field (IPv4 addresses are stored in the last 4 bytes, per
// RTPS convention). Port endianness is tolerated both ways on decode
// because vendors disagree; Locator itself stores the value
// already-corrected to host order.
type Locator struct {
	Kind    LocatorKind
	Port    uint32
	Address [16]byte
}

// NewUDPv4Locator builds a UDPv4 locator from a net.IP and port.
func NewUDPv4Locator(ip net.IP, port uint32) Locator {
	var addr [16]byte
	v4 := ip.To4()
	if v4 != nil {
		copy(addr[12:16], v4)
	} else {
		copy(addr[:], ip.To16())
	}
	return Locator{Kind: LocatorKindUDPv4, Port: port, Address: addr}
}

// IP returns the net.IP encoded in the locator (IPv4-mapped for UDPv4/TCPv4).
func (l Locator) IP() net.IP {
	switch l.Kind {
	case LocatorKindUDPv4, LocatorKindTCPv4:
		return net.IPv4(l.Address[12], l.Address[13], l.Address[14], l.Address[15])
	default:
		return net.IP(l.Address[:])
	}
}

// IsMulticast reports whether the locator's address is a multicast address.
func (l Locator) IsMulticast() bool {
	return l.IP().IsMulticast()
}

func (l Locator) String() string {
	return fmt.Sprintf("%s:%s:%d", l.Kind, l.IP(), l.Port)
}

// Equal reports whether two locators refer to the same transport endpoint.
func (l Locator) Equal(o Locator) bool {
	return l.Kind == o.Kind && l.Port == o.Port && l.Address == o.Address
}
