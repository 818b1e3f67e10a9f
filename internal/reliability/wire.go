// Package reliability implements the RTPS reliability engine: the
// HistoryCache, the WriterProxy/ReaderProxy state machines, HEARTBEAT /
// ACKNACK / GAP submessage exchange, DATA_FRAG fragmentation and
// reassembly, deduplication, and durability replay (§4.5).
package reliability

import (
	"encoding/binary"

	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// SubmsgKind is the wire octet identifying a submessage's type (§6,
// bit-exact).
type SubmsgKind byte

const (
	SubmsgPad           SubmsgKind = 0x01
	SubmsgAckNack       SubmsgKind = 0x06
	SubmsgHeartbeat     SubmsgKind = 0x07
	SubmsgGap           SubmsgKind = 0x08
	SubmsgInfoTS        SubmsgKind = 0x09
	SubmsgInfoSrc       SubmsgKind = 0x0C
	SubmsgInfoDst       SubmsgKind = 0x0E
	SubmsgNackFrag      SubmsgKind = 0x12
	SubmsgHeartbeatFrag SubmsgKind = 0x13
	SubmsgData          SubmsgKind = 0x15
	SubmsgDataFrag      SubmsgKind = 0x16
)

// ProtocolMagic is the 4-byte magic opening every RTPS message.
var ProtocolMagic = [4]byte{'R', 'T', 'P', 'S'}

// MessageHeaderLen is the fixed size of the RTPS message header.
const MessageHeaderLen = 20

// MessageHeader is the 20-byte header opening every RTPS message: magic,
// protocol version, vendor id, and the sending participant's GUID prefix
// (§6).
type MessageHeader struct {
	VersionMajor byte
	VersionMinor byte
	VendorID     [2]byte
	GuidPrefix   guid.GUIDPrefix
}

// Encode appends the 20-byte header to dst.
func (h MessageHeader) Encode(dst []byte) []byte {
	dst = append(dst, ProtocolMagic[:]...)
	dst = append(dst, h.VersionMajor, h.VersionMinor)
	dst = append(dst, h.VendorID[:]...)
	dst = append(dst, h.GuidPrefix[:]...)
	return dst
}

// DecodeMessageHeader parses the header from the front of buf, returning
// the remainder.
func DecodeMessageHeader(buf []byte) (MessageHeader, []byte, error) {
	if len(buf) < MessageHeaderLen {
		return MessageHeader{}, nil, herrors.New(herrors.CodeProtocolError, "reliability.DecodeMessageHeader", "buffer shorter than RTPS message header")
	}
	if buf[0] != 'R' || buf[1] != 'T' || buf[2] != 'P' || buf[3] != 'S' {
		return MessageHeader{}, nil, herrors.New(herrors.CodeProtocolError, "reliability.DecodeMessageHeader", "invalid RTPS magic")
	}
	var h MessageHeader
	h.VersionMajor = buf[4]
	h.VersionMinor = buf[5]
	copy(h.VendorID[:], buf[6:8])
	copy(h.GuidPrefix[:], buf[8:20])
	return h, buf[MessageHeaderLen:], nil
}

// SubmessageHeaderLen is the fixed size of a submessage header.
const SubmessageHeaderLen = 4

// SubmessageHeader precedes every submessage body. OctetsToNextHeader is
// always little-endian on the wire regardless of the submessage's own
// endianness flag (§6).
type SubmessageHeader struct {
	ID                 SubmsgKind
	Flags              byte
	OctetsToNextHeader uint16
}

// LittleEndian reports whether bit 0 of Flags (the endianness flag) is set.
func (h SubmessageHeader) LittleEndian() bool { return h.Flags&0x1 != 0 }

func (h SubmessageHeader) order() binary.ByteOrder {
	if h.LittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Encode appends the 4-byte submessage header to dst.
func (h SubmessageHeader) Encode(dst []byte) []byte {
	dst = append(dst, byte(h.ID), h.Flags)
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], h.OctetsToNextHeader)
	return append(dst, b[:]...)
}

// DecodeSubmessageHeader parses a submessage header from the front of buf.
func DecodeSubmessageHeader(buf []byte) (SubmessageHeader, []byte, error) {
	if len(buf) < SubmessageHeaderLen {
		return SubmessageHeader{}, nil, herrors.New(herrors.CodeProtocolError, "reliability.DecodeSubmessageHeader", "buffer shorter than submessage header")
	}
	h := SubmessageHeader{
		ID:                 SubmsgKind(buf[0]),
		Flags:              buf[1],
		OctetsToNextHeader: binary.LittleEndian.Uint16(buf[2:4]),
	}
	return h, buf[SubmessageHeaderLen:], nil
}

// SNSetBits is the fixed bitmap width used for ACKNACK/GAP sequence
// number sets (§4.5: "256-bit ACKNACK bitmap").
const SNSetBits = 256

// SNSet is an RTPS SequenceNumberSet: a base sequence number plus a
// bitmap of up to SNSetBits following sequence numbers, bit i set meaning
// "base+i is requested/missing".
type SNSet struct {
	Base   guid.SequenceNumber
	NumBits uint32
	Bitmap  [SNSetBits / 32]uint32
}

// NewSNSet builds an SNSet with base from the sorted set of missing
// sequence numbers, all of which must be >= base.
func NewSNSet(base guid.SequenceNumber, missing []guid.SequenceNumber) SNSet {
	s := SNSet{Base: base}
	maxOffset := uint32(0)
	for _, sn := range missing {
		off := uint32(sn - base)
		if off >= SNSetBits {
			continue
		}
		s.Bitmap[off/32] |= 1 << (31 - (off % 32))
		if off+1 > maxOffset {
			maxOffset = off + 1
		}
	}
	s.NumBits = maxOffset
	return s
}

// Contains reports whether sn is marked in the set.
func (s SNSet) Contains(sn guid.SequenceNumber) bool {
	if sn < s.Base {
		return false
	}
	off := uint32(sn - s.Base)
	if off >= s.NumBits || off >= SNSetBits {
		return false
	}
	return s.Bitmap[off/32]&(1<<(31-(off%32))) != 0
}

// Sequences returns every sequence number marked in the set, in ascending
// order.
func (s SNSet) Sequences() []guid.SequenceNumber {
	var out []guid.SequenceNumber
	for off := uint32(0); off < s.NumBits && off < SNSetBits; off++ {
		if s.Bitmap[off/32]&(1<<(31-(off%32))) != 0 {
			out = append(out, s.Base+guid.SequenceNumber(off))
		}
	}
	return out
}

// Empty reports whether the set carries no marked bits (an "all received,
// nothing missing" ACKNACK final-flag case, §4.5).
func (s SNSet) Empty() bool { return len(s.Sequences()) == 0 }
