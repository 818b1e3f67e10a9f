package reliability

import (
	"encoding/binary"
	"time"

	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// Heartbeat announces a writer's currently-available sequence range to a
// reader; FirstSN > LastSN (an empty range) sets the Final flag (§4.5).
type Heartbeat struct {
	ReaderID guid.EntityID
	WriterID guid.EntityID
	FirstSN  guid.SequenceNumber
	LastSN   guid.SequenceNumber
	Count    int32
	Final    bool
	Liveliness bool
}

// EncodeHeartbeat serializes a HEARTBEAT submessage body (little-endian,
// bit 0 of the flags octet set to match).
func EncodeHeartbeat(hb Heartbeat) []byte {
	buf := make([]byte, 0, 4+4+4+4+4+4+4)
	buf = append(buf, hb.ReaderID[:]...)
	buf = append(buf, hb.WriterID[:]...)
	fHi, fLo := hb.FirstSN.Parts()
	buf = appendI32(buf, fHi)
	buf = appendU32(buf, fLo)
	lHi, lLo := hb.LastSN.Parts()
	buf = appendI32(buf, lHi)
	buf = appendU32(buf, lLo)
	buf = appendI32(buf, hb.Count)
	return buf
}

// HeartbeatFlags returns the submessage flags octet for hb (bit0 =
// endianness LE, bit1 = Final, bit2 = Liveliness).
func HeartbeatFlags(hb Heartbeat) byte {
	f := byte(0x1)
	if hb.Final {
		f |= 0x2
	}
	if hb.Liveliness {
		f |= 0x4
	}
	return f
}

// DecodeHeartbeat parses a HEARTBEAT submessage body.
func DecodeHeartbeat(flags byte, body []byte) (Heartbeat, error) {
	if len(body) < 28 {
		return Heartbeat{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeHeartbeat", "truncated HEARTBEAT body")
	}
	var hb Heartbeat
	copy(hb.ReaderID[:], body[0:4])
	copy(hb.WriterID[:], body[4:8])
	hb.FirstSN = guid.SequenceNumberFromParts(readI32(body[8:12]), readU32(body[12:16]))
	hb.LastSN = guid.SequenceNumberFromParts(readI32(body[16:20]), readU32(body[20:24]))
	hb.Count = readI32(body[24:28])
	hb.Final = flags&0x2 != 0
	hb.Liveliness = flags&0x4 != 0
	return hb, nil
}

// AckNack carries a reader's acknowledgment/request state for a writer:
// ReaderSNState.Base is the next expected sequence, its bitmap marks
// missing sequences beyond that (§4.5).
type AckNack struct {
	ReaderID      guid.EntityID
	WriterID      guid.EntityID
	ReaderSNState SNSet
	Count         int32
	Final         bool
}

// EncodeAckNack serializes an ACKNACK submessage body.
func EncodeAckNack(an AckNack) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, an.ReaderID[:]...)
	buf = append(buf, an.WriterID[:]...)
	buf = encodeSNSet(buf, an.ReaderSNState)
	buf = appendI32(buf, an.Count)
	return buf
}

// AckNackFlags returns the flags octet (bit0 = LE, bit1 = Final).
func AckNackFlags(an AckNack) byte {
	f := byte(0x1)
	if an.Final {
		f |= 0x2
	}
	return f
}

// DecodeAckNack parses an ACKNACK submessage body.
func DecodeAckNack(flags byte, body []byte) (AckNack, error) {
	if len(body) < 12 {
		return AckNack{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeAckNack", "truncated ACKNACK body")
	}
	var an AckNack
	copy(an.ReaderID[:], body[0:4])
	copy(an.WriterID[:], body[4:8])
	set, rest, err := decodeSNSet(body[8:])
	if err != nil {
		return AckNack{}, err
	}
	an.ReaderSNState = set
	if len(rest) < 4 {
		return AckNack{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeAckNack", "truncated ACKNACK count")
	}
	an.Count = readI32(rest[0:4])
	an.Final = flags&0x2 != 0
	return an, nil
}

// Gap tells a reader that a range of sequence numbers will never be sent
// (purged from history, or never written), so it must not wait for them
// (§4.5).
type Gap struct {
	ReaderID guid.EntityID
	WriterID guid.EntityID
	GapStart guid.SequenceNumber
	GapList  SNSet
}

// EncodeGap serializes a GAP submessage body.
func EncodeGap(g Gap) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, g.ReaderID[:]...)
	buf = append(buf, g.WriterID[:]...)
	hi, lo := g.GapStart.Parts()
	buf = appendI32(buf, hi)
	buf = appendU32(buf, lo)
	buf = encodeSNSet(buf, g.GapList)
	return buf
}

// DecodeGap parses a GAP submessage body.
func DecodeGap(body []byte) (Gap, error) {
	if len(body) < 16 {
		return Gap{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeGap", "truncated GAP body")
	}
	var g Gap
	copy(g.ReaderID[:], body[0:4])
	copy(g.WriterID[:], body[4:8])
	g.GapStart = guid.SequenceNumberFromParts(readI32(body[8:12]), readU32(body[12:16]))
	set, _, err := decodeSNSet(body[16:])
	if err != nil {
		return Gap{}, err
	}
	g.GapList = set
	return g, nil
}

// Data carries a sample: WriterSN identifies it for dedup/ordering,
// SerializedPayload is the already-CDR-encoded sample body (§4.5/§4.6).
type Data struct {
	ReaderID          guid.EntityID
	WriterID          guid.EntityID
	WriterSN          guid.SequenceNumber
	InlineQoS         []byte // optional, nil if absent
	SerializedPayload []byte
}

// EncodeData serializes a DATA submessage body. extraFlags/octetsToInline
// follow the RTPS layout; InlineQoS presence is reflected in the returned
// flags via DataFlags.
func EncodeData(d Data) []byte {
	buf := make([]byte, 0, 16+len(d.InlineQoS)+len(d.SerializedPayload))
	buf = appendU16(buf, 0) // extraFlags
	octetsToInline := uint16(4)
	buf = appendU16(buf, octetsToInline)
	buf = append(buf, d.ReaderID[:]...)
	buf = append(buf, d.WriterID[:]...)
	hi, lo := d.WriterSN.Parts()
	buf = appendI32(buf, hi)
	buf = appendU32(buf, lo)
	if len(d.InlineQoS) > 0 {
		buf = append(buf, d.InlineQoS...)
	}
	buf = append(buf, d.SerializedPayload...)
	return buf
}

// DataFlags returns the flags octet (bit0 = LE, bit1 = InlineQoS present,
// bit2 = Data present).
func DataFlags(d Data) byte {
	f := byte(0x1 | 0x4)
	if len(d.InlineQoS) > 0 {
		f |= 0x2
	}
	return f
}

// DecodeData parses a DATA submessage body. hasInlineQoS/hasPayload come
// from the submessage's flags octet (bits 1 and 2).
func DecodeData(hasInlineQoS, hasPayload bool, body []byte) (Data, error) {
	if len(body) < 20 {
		return Data{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeData", "truncated DATA body")
	}
	octetsToInline := readU16(body[2:4])
	pos := 4 + int(octetsToInline)
	if pos+8 > len(body) {
		return Data{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeData", "octets_to_inline_qos out of range")
	}
	var d Data
	copy(d.ReaderID[:], body[pos:pos+4])
	copy(d.WriterID[:], body[pos+4:pos+8])
	pos += 8
	if pos+8 > len(body) {
		return Data{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeData", "truncated DATA sequence number")
	}
	d.WriterSN = guid.SequenceNumberFromParts(readI32(body[pos:pos+4]), readU32(body[pos+4:pos+8]))
	pos += 8
	rest := body[pos:]
	if hasInlineQoS {
		// Inline QoS is itself a parameter list; callers that care about its
		// content re-parse it with cdr.ParameterListReader. The body is not
		// split here: InlineQoS holds the inline QoS parameter list followed
		// by the serialized payload, and SerializedPayload stays empty.
		d.InlineQoS = rest
		return d, nil
	}
	if hasPayload {
		d.SerializedPayload = rest
	}
	return d, nil
}

// DataFrag carries one fragment of a large sample that exceeds a single
// DATA submessage's practical size (§4.5). FragmentsInSubmessage == 0 is
// the RTI single-fragment quirk: the whole sample fits in one DataFrag
// and the field is left unset rather than set to 1.
type DataFrag struct {
	ReaderID              guid.EntityID
	WriterID              guid.EntityID
	WriterSN              guid.SequenceNumber
	FragmentStartingNum   uint32
	FragmentsInSubmessage uint16
	FragmentSize          uint16
	SampleSize            uint32
	SerializedPayload     []byte
}

// EncodeDataFrag serializes a DATA_FRAG submessage body.
func EncodeDataFrag(df DataFrag) []byte {
	buf := make([]byte, 0, 32+len(df.SerializedPayload))
	buf = appendU16(buf, 0) // extraFlags
	buf = appendU16(buf, 4) // octetsToInlineQos
	buf = append(buf, df.ReaderID[:]...)
	buf = append(buf, df.WriterID[:]...)
	hi, lo := df.WriterSN.Parts()
	buf = appendI32(buf, hi)
	buf = appendU32(buf, lo)
	buf = appendU32(buf, df.FragmentStartingNum)
	buf = appendU16(buf, df.FragmentsInSubmessage)
	buf = appendU16(buf, df.FragmentSize)
	buf = appendU32(buf, df.SampleSize)
	buf = append(buf, df.SerializedPayload...)
	return buf
}

// DecodeDataFrag parses a DATA_FRAG submessage body.
func DecodeDataFrag(body []byte) (DataFrag, error) {
	if len(body) < 32 {
		return DataFrag{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeDataFrag", "truncated DATA_FRAG body")
	}
	octetsToInline := readU16(body[2:4])
	pos := 4 + int(octetsToInline)
	if pos+28 > len(body) {
		return DataFrag{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeDataFrag", "truncated DATA_FRAG fixed fields")
	}
	var df DataFrag
	copy(df.ReaderID[:], body[pos:pos+4])
	copy(df.WriterID[:], body[pos+4:pos+8])
	df.WriterSN = guid.SequenceNumberFromParts(readI32(body[pos+8:pos+12]), readU32(body[pos+12:pos+16]))
	df.FragmentStartingNum = readU32(body[pos+16 : pos+20])
	df.FragmentsInSubmessage = readU16(body[pos+20 : pos+22])
	df.FragmentSize = readU16(body[pos+22 : pos+24])
	df.SampleSize = readU32(body[pos+24 : pos+28])
	df.SerializedPayload = body[pos+28:]
	return df, nil
}

// EffectiveFragmentCount returns FragmentsInSubmessage, normalizing the
// RTI single-fragment quirk (0 meaning "one fragment, the whole sample")
// to 1.
func (df DataFrag) EffectiveFragmentCount() uint16 {
	if df.FragmentsInSubmessage == 0 {
		return 1
	}
	return df.FragmentsInSubmessage
}

// InfoTS carries the source timestamp applied to subsequent DATA/DATA_FRAG
// submessages in the same message, used for BY_SOURCE_TIMESTAMP ordering
// (§5).
type InfoTS struct {
	Timestamp time.Time
}

// EncodeInfoTS serializes an INFO_TS submessage body (RTPS Time_t:
// seconds:i32 + fraction:u32, fraction in 2^-32 units).
func EncodeInfoTS(ts InfoTS) []byte {
	sec := ts.Timestamp.Unix()
	frac := uint32((uint64(ts.Timestamp.Nanosecond()) << 32) / 1e9)
	buf := make([]byte, 0, 8)
	buf = appendI32(buf, int32(sec))
	buf = appendU32(buf, frac)
	return buf
}

// DecodeInfoTS parses an INFO_TS submessage body.
func DecodeInfoTS(body []byte) (InfoTS, error) {
	if len(body) < 8 {
		return InfoTS{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeInfoTS", "truncated INFO_TS body")
	}
	sec := readI32(body[0:4])
	frac := readU32(body[4:8])
	ns := (int64(frac) * 1e9) >> 32
	return InfoTS{Timestamp: time.Unix(int64(sec), ns).UTC()}, nil
}

// InfoDST overrides the destination GUID prefix for subsequent
// submessages in the same message, used when a message addresses multiple
// participants behind one locator.
type InfoDST struct {
	GuidPrefix guid.GUIDPrefix
}

// EncodeInfoDST serializes an INFO_DST submessage body.
func EncodeInfoDST(d InfoDST) []byte {
	return append([]byte{}, d.GuidPrefix[:]...)
}

// DecodeInfoDST parses an INFO_DST submessage body.
func DecodeInfoDST(body []byte) (InfoDST, error) {
	if len(body) < 12 {
		return InfoDST{}, herrors.New(herrors.CodeProtocolError, "reliability.DecodeInfoDST", "truncated INFO_DST body")
	}
	var d InfoDST
	copy(d.GuidPrefix[:], body[0:12])
	return d, nil
}

// --- little helpers -------------------------------------------------------

func encodeSNSet(buf []byte, s SNSet) []byte {
	hi, lo := s.Base.Parts()
	buf = appendI32(buf, hi)
	buf = appendU32(buf, lo)
	buf = appendU32(buf, s.NumBits)
	words := (int(s.NumBits) + 31) / 32
	for i := 0; i < words; i++ {
		buf = appendU32(buf, s.Bitmap[i])
	}
	return buf
}

func decodeSNSet(body []byte) (SNSet, []byte, error) {
	if len(body) < 12 {
		return SNSet{}, nil, herrors.New(herrors.CodeProtocolError, "reliability.decodeSNSet", "truncated sequence number set")
	}
	var s SNSet
	s.Base = guid.SequenceNumberFromParts(readI32(body[0:4]), readU32(body[4:8]))
	s.NumBits = readU32(body[8:12])
	pos := 12
	words := (int(s.NumBits) + 31) / 32
	for i := 0; i < words; i++ {
		if pos+4 > len(body) {
			return SNSet{}, nil, herrors.New(herrors.CodeProtocolError, "reliability.decodeSNSet", "truncated sequence number set bitmap")
		}
		if i < len(s.Bitmap) {
			s.Bitmap[i] = readU32(body[pos : pos+4])
		}
		pos += 4
	}
	return s, body[pos:], nil
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendI32(buf []byte, v int32) []byte { return appendU32(buf, uint32(v)) }

func readU16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func readU32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func readI32(b []byte) int32  { return int32(readU32(b)) }
