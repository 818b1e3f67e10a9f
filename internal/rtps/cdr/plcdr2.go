package cdr

import "github.com/naskel/hdds/internal/herrors"

// MutableWriter frames a CDR2 mutable struct: a DHEADER:u32 payload byte
// length followed by repeated EMHEADER-prefixed members (§4.1). Missing
// members are simply never written — mutable extensibility means absence
// is a valid decode outcome, not an error.
type MutableWriter struct {
	w      *Writer
	dStart int
}

// BeginMutable reserves space for the DHEADER and returns a MutableWriter
// that patches it in on Finish.
func BeginMutable(w *Writer) *MutableWriter {
	start := w.Len()
	w.WriteUint32(0) // placeholder, patched by Finish
	return &MutableWriter{w: w, dStart: start}
}

// lengthCode picks the EMHEADER length-code bits for a fixed member size.
// 0=1 byte,1=2 bytes,2=4 bytes,3=8 bytes,4=NEXTINT(explicit length follows).
func lengthCode(size int) uint32 {
	switch size {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	case 8:
		return 3
	default:
		return 4
	}
}

// WriteMember writes one EMHEADER (length_code<<28 | member_id) followed
// by value, with a NEXTINT length prefix when value's size doesn't fit
// one of the four fixed length codes.
func (m *MutableWriter) WriteMember(memberID uint32, value []byte) {
	lc := lengthCode(len(value))
	em := (lc << 28) | (memberID & 0x0FFFFFFF)
	m.w.WriteUint32(em)
	if lc == 4 {
		m.w.WriteUint32(uint32(len(value)))
	}
	m.w.WriteBytes(value)
}

// Finish patches the DHEADER with the payload length written since
// BeginMutable and returns the writer for chaining.
func (m *MutableWriter) Finish() *Writer {
	payloadLen := uint32(m.w.Len() - m.dStart - 4)
	buf := m.w.buf
	m.w.order().PutUint32(buf[m.dStart:m.dStart+4], payloadLen)
	return m.w
}

// MutableMember is one decoded EMHEADER-framed member.
type MutableMember struct {
	MemberID uint32
	Value    []byte
}

// ReadMutable decodes a DHEADER-framed member sequence until the declared
// payload length is consumed.
func ReadMutable(r *Reader) ([]MutableMember, error) {
	payloadLen, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	end := r.pos + int(payloadLen)
	if end > len(r.buf) {
		return nil, herrors.New(herrors.CodeSerialization, "cdr.ReadMutable", "DHEADER payload length exceeds buffer")
	}
	var members []MutableMember
	for r.pos < end {
		em, err := r.ReadUint32()
		if err != nil {
			return members, err
		}
		lc := em >> 28
		memberID := em & 0x0FFFFFFF
		var size int
		switch lc {
		case 0:
			size = 1
		case 1:
			size = 2
		case 2:
			size = 4
		case 3:
			size = 8
		default:
			n, err := r.ReadUint32()
			if err != nil {
				return members, err
			}
			size = int(n)
		}
		val, err := r.ReadBytes(size)
		if err != nil {
			return members, err
		}
		members = append(members, MutableMember{MemberID: memberID, Value: val})
	}
	return members, nil
}

// LookupMember returns the value for memberID, if present.
func LookupMember(members []MutableMember, id uint32) ([]byte, bool) {
	for _, m := range members {
		if m.MemberID == id {
			return m.Value, true
		}
	}
	return nil, false
}
