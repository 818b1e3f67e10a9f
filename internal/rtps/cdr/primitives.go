package cdr

import (
	"encoding/binary"
	"math"

	"github.com/naskel/hdds/internal/herrors"
)

// Writer accumulates a CDR-encoded body after the 4-byte encapsulation
// header. Alignment is computed relative to the start of the body (the
// header itself is not counted), per §4.1.
type Writer struct {
	scheme Scheme
	buf    []byte
}

// NewWriter creates a Writer for the given scheme, reserving capacity hint
// bytes for the body.
func NewWriter(scheme Scheme, hint int) *Writer {
	return &Writer{scheme: scheme, buf: make([]byte, 0, hint)}
}

// Scheme returns the encapsulation scheme this writer encodes for.
func (w *Writer) Scheme() Scheme { return w.scheme }

// Len returns the number of body bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the accumulated body (without the encapsulation header).
func (w *Writer) Bytes() []byte { return w.buf }

// Finish returns the full encoded payload: header followed by body.
func (w *Writer) Finish() []byte {
	return WriteHeader(make([]byte, 0, HeaderLen+len(w.buf)), w.scheme, 0)
}

// FinishWithBody is Finish plus the accumulated body, in one call.
func (w *Writer) FinishWithBody() []byte {
	out := w.Finish()
	return append(out, w.buf...)
}

func (w *Writer) align(n int) {
	pad := (n - len(w.buf)%n) % n
	for i := 0; i < pad; i++ {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) order() binary.ByteOrder {
	if w.scheme.IsLittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// WriteByte appends a single unaligned byte.
func (w *Writer) WriteByte(v byte) { w.buf = append(w.buf, v) }

// WriteBool encodes a boolean as a single byte (0/1).
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

// WriteUint16 writes a 2-byte aligned unsigned integer.
func (w *Writer) WriteUint16(v uint16) {
	w.align(2)
	var b [2]byte
	w.order().PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteInt16 writes a 2-byte aligned signed integer.
func (w *Writer) WriteInt16(v int16) { w.WriteUint16(uint16(v)) }

// WriteUint32 writes a 4-byte aligned unsigned integer.
func (w *Writer) WriteUint32(v uint32) {
	w.align(4)
	var b [4]byte
	w.order().PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteInt32 writes a 4-byte aligned signed integer.
func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

// WriteUint64 writes an 8-byte aligned unsigned integer.
func (w *Writer) WriteUint64(v uint64) {
	w.align(8)
	var b [8]byte
	w.order().PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteInt64 writes an 8-byte aligned signed integer.
func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

// WriteFloat32 writes a 4-byte aligned IEEE-754 single-precision float.
func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }

// WriteFloat64 writes an 8-byte aligned IEEE-754 double-precision float.
func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }

// WriteBytes appends raw bytes with no length prefix and no alignment
// (fixed-size array element encoding).
func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteString encodes a string as length:u32 + bytes (+ implicit NUL for
// CDR1; CDR2 drops the NUL from the length per §4.1).
func (w *Writer) WriteString(s string) {
	if w.scheme.IsCDR2() {
		w.WriteUint32(uint32(len(s)))
		w.WriteBytes([]byte(s))
		return
	}
	w.WriteUint32(uint32(len(s) + 1))
	w.WriteBytes([]byte(s))
	w.WriteByte(0)
}

// WriteSequenceLen writes the count:u32 prefix for a sequence.
func (w *Writer) WriteSequenceLen(n int) { w.WriteUint32(uint32(n)) }

// Reader consumes a CDR-encoded body, mirroring Writer's alignment rules.
type Reader struct {
	scheme Scheme
	buf    []byte
	pos    int
}

// NewReader creates a Reader over body (the bytes following the
// encapsulation header, as returned by ReadHeader).
func NewReader(scheme Scheme, body []byte) *Reader {
	return &Reader{scheme: scheme, buf: body}
}

// Scheme returns the encapsulation scheme this reader decodes.
func (r *Reader) Scheme() Scheme { return r.scheme }

// Remaining returns the number of unconsumed body bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Pos returns the current read offset within the body.
func (r *Reader) Pos() int { return r.pos }

func (r *Reader) order() binary.ByteOrder {
	if r.scheme.IsLittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (r *Reader) align(n int) {
	pad := (n - r.pos%n) % n
	r.pos += pad
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return herrors.New(herrors.CodeSerialization, "cdr.Reader", "unexpected end of buffer")
	}
	return nil
}

// ReadByte consumes a single unaligned byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadBool consumes a boolean byte.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

// ReadUint16 consumes a 2-byte aligned unsigned integer.
func (r *Reader) ReadUint16() (uint16, error) {
	r.align(2)
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := r.order().Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadInt16 consumes a 2-byte aligned signed integer.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 consumes a 4-byte aligned unsigned integer.
func (r *Reader) ReadUint32() (uint32, error) {
	r.align(4)
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.order().Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadInt32 consumes a 4-byte aligned signed integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 consumes an 8-byte aligned unsigned integer.
func (r *Reader) ReadUint64() (uint64, error) {
	r.align(8)
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := r.order().Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadInt64 consumes an 8-byte aligned signed integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat32 consumes a 4-byte aligned IEEE-754 single-precision float.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 consumes an 8-byte aligned IEEE-754 double-precision float.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadBytes consumes n raw unaligned bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadString consumes a length-prefixed string, stripping the NUL
// terminator for CDR1 streams.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if !r.scheme.IsCDR2() && len(b) > 0 {
		b = b[:len(b)-1] // drop NUL terminator
	}
	return string(b), nil
}

// ReadSequenceLen consumes the count:u32 prefix for a sequence.
func (r *Reader) ReadSequenceLen() (int, error) {
	n, err := r.ReadUint32()
	return int(n), err
}
