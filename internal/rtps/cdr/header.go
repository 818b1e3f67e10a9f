package cdr

import (
	"encoding/binary"

	"github.com/naskel/hdds/internal/herrors"
)

// Scheme identifies the encapsulation kind carried in the first two bytes
// of a CDR-encoded payload (RTPS 2.x encapsulation header, §4.1). The
// header itself is always written big-endian; Scheme governs the
// endianness and alignment rules used for the body that follows it.
type Scheme uint16

const (
	SchemeCDR_BE     Scheme = 0x0000
	SchemeCDR_LE     Scheme = 0x0001
	SchemePL_CDR_BE  Scheme = 0x0002
	SchemePL_CDR_LE  Scheme = 0x0003
	SchemeCDR2_BE    Scheme = 0x0006
	SchemeCDR2_LE    Scheme = 0x0007
	SchemePL_CDR2_BE Scheme = 0x0008
	SchemePL_CDR2_LE Scheme = 0x0009
	SchemeXCDR2_D_BE Scheme = 0x000A
	SchemeXCDR2_D_LE Scheme = 0x000B
)

// IsLittleEndian reports whether the body following the header is encoded
// little-endian.
func (s Scheme) IsLittleEndian() bool {
	switch s {
	case SchemeCDR_LE, SchemePL_CDR_LE, SchemeCDR2_LE, SchemePL_CDR2_LE, SchemeXCDR2_D_LE:
		return true
	default:
		return false
	}
}

// IsPL reports whether the scheme uses the parameter-list (PID) encoding.
func (s Scheme) IsPL() bool {
	switch s {
	case SchemePL_CDR_BE, SchemePL_CDR_LE, SchemePL_CDR2_BE, SchemePL_CDR2_LE:
		return true
	default:
		return false
	}
}

// IsCDR2 reports whether the scheme belongs to the CDR2 family (string
// lengths exclude the NUL terminator, mutable members use DHEADER/EMHEADER
// framing).
func (s Scheme) IsCDR2() bool {
	return s >= SchemeCDR2_BE
}

func (s Scheme) known() bool {
	switch s {
	case SchemeCDR_BE, SchemeCDR_LE, SchemePL_CDR_BE, SchemePL_CDR_LE,
		SchemeCDR2_BE, SchemeCDR2_LE, SchemePL_CDR2_BE, SchemePL_CDR2_LE,
		SchemeXCDR2_D_BE, SchemeXCDR2_D_LE:
		return true
	default:
		return false
	}
}

// HeaderLen is the fixed size of the encapsulation header.
const HeaderLen = 4

// WriteHeader appends the 4-byte encapsulation header (scheme + options,
// both big-endian, per §4.1: "first two bytes are always big-endian
// regardless of payload endianness").
func WriteHeader(dst []byte, scheme Scheme, options uint16) []byte {
	var hdr [HeaderLen]byte
	binary.BigEndian.PutUint16(hdr[0:2], uint16(scheme))
	binary.BigEndian.PutUint16(hdr[2:4], options)
	return append(dst, hdr[:]...)
}

// ReadHeader parses the 4-byte encapsulation header from the front of buf.
func ReadHeader(buf []byte) (scheme Scheme, options uint16, rest []byte, err error) {
	if len(buf) < HeaderLen {
		return 0, 0, nil, herrors.New(herrors.CodeSerialization, "cdr.ReadHeader", "buffer shorter than encapsulation header")
	}
	scheme = Scheme(binary.BigEndian.Uint16(buf[0:2]))
	options = binary.BigEndian.Uint16(buf[2:4])
	if !scheme.known() {
		return 0, 0, nil, herrors.New(herrors.CodeSerialization, "cdr.ReadHeader", "invalid magic/unsupported encapsulation scheme")
	}
	return scheme, options, buf[HeaderLen:], nil
}
