package cdr

import "github.com/naskel/hdds/internal/herrors"

// PID identifies a parameter in a PL_CDR parameter list (discovery
// payloads, §4.1).
type PID uint16

// PIDSentinel terminates a parameter list.
const PIDSentinel PID = 0x0001

// Well-known PIDs used by SPDP/SEDP (RTPS 2.x §9.6.3).
const (
	PIDProtocolVersion       PID = 0x0015
	PIDVendorID              PID = 0x0016
	PIDParticipantGUID       PID = 0x0050
	PIDEndpointGUID          PID = 0x005A
	PIDGroupGUID             PID = 0x005B
	PIDTopicName             PID = 0x0005
	PIDTypeName              PID = 0x0007
	PIDMetatrafficMulticast  PID = 0x000B
	PIDMetatrafficUnicast    PID = 0x000C
	PIDDefaultMulticast      PID = 0x0048
	PIDDefaultUnicast        PID = 0x0031
	PIDUnicastLocator        PID = 0x002F
	PIDMulticastLocator      PID = 0x0030
	PIDParticipantLease      PID = 0x0002
	PIDBuiltinEndpointSet    PID = 0x0058
	PIDPropertyList          PID = 0x0059
	PIDEntityName            PID = 0x0062
	PIDTypeObjectLB          PID = 0x0072 // RTI-style deflated TypeObject
	PIDDataRepresentation    PID = 0x0073
	PIDTypeInformation       PID = 0x0075
	PIDReliability           PID = 0x001A
	PIDDurability            PID = 0x001D
	PIDHistory               PID = 0x0040
	PIDDeadline              PID = 0x0023
	PIDLiveliness            PID = 0x001B
	PIDOwnership             PID = 0x001F
	PIDOwnershipStrength     PID = 0x0006
	PIDPartition             PID = 0x0029
	PIDSentinelAlt           PID = 0x003F
)

// Parameter is one decoded (PID, value) record from a parameter list.
type Parameter struct {
	ID    PID
	Value []byte
}

// ParameterListWriter builds a PL_CDR parameter list body. Each record is
// (PID:u16, length:u16, value[length]) 4-byte aligned; WriteSentinel
// terminates the list.
type ParameterListWriter struct {
	w *Writer
}

// NewParameterListWriter wraps w for parameter-list encoding. w's scheme
// must be one of the PL_CDR/PL_CDR2 variants.
func NewParameterListWriter(w *Writer) *ParameterListWriter {
	return &ParameterListWriter{w: w}
}

// WriteParam appends a single (PID, length, value) record, 4-byte aligned.
func (p *ParameterListWriter) WriteParam(id PID, value []byte) {
	p.w.WriteUint16(uint16(id))
	p.w.WriteUint16(uint16(len(value)))
	p.w.WriteBytes(value)
	// pad value to 4-byte boundary (header itself is always 4 bytes, so
	// only the value needs trailing padding)
	pad := (4 - len(value)%4) % 4
	for i := 0; i < pad; i++ {
		p.w.WriteByte(0)
	}
}

// WriteSentinel terminates the parameter list.
func (p *ParameterListWriter) WriteSentinel() {
	p.w.WriteUint16(uint16(PIDSentinel))
	p.w.WriteUint16(0)
}

// ParameterListReader decodes a PL_CDR parameter list record by record,
// handing unknown PIDs to the caller to ignore — the sole
// forward-compatibility mechanism in SPDP/SEDP (§4.1).
type ParameterListReader struct {
	r *Reader
}

// NewParameterListReader wraps r for parameter-list decoding.
func NewParameterListReader(r *Reader) *ParameterListReader {
	return &ParameterListReader{r: r}
}

// Next returns the next parameter, or ok=false once the sentinel is
// reached. Unknown PIDs are returned to the caller (who is expected to
// ignore what it doesn't recognize) rather than silently skipped here,
// so callers building a full parameter map still see every record.
func (p *ParameterListReader) Next() (param Parameter, ok bool, err error) {
	if p.r.Remaining() < 4 {
		return Parameter{}, false, herrors.New(herrors.CodeSerialization, "cdr.ParameterListReader", "truncated parameter list, missing sentinel")
	}
	idRaw, err := p.r.ReadUint16()
	if err != nil {
		return Parameter{}, false, err
	}
	id := PID(idRaw)
	length, err := p.r.ReadUint16()
	if err != nil {
		return Parameter{}, false, err
	}
	if id == PIDSentinel {
		return Parameter{}, false, nil
	}
	value, err := p.r.ReadBytes(int(length))
	if err != nil {
		return Parameter{}, false, err
	}
	pad := (4 - int(length)%4) % 4
	if pad > 0 {
		if _, err := p.r.ReadBytes(pad); err != nil {
			return Parameter{}, false, err
		}
	}
	return Parameter{ID: id, Value: value}, true, nil
}

// ReadAll decodes every parameter up to and including the sentinel.
func (p *ParameterListReader) ReadAll() ([]Parameter, error) {
	var out []Parameter
	for {
		param, ok, err := p.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, param)
	}
}

// Lookup returns the first parameter matching id, scanning params in order.
func Lookup(params []Parameter, id PID) ([]byte, bool) {
	for _, p := range params {
		if p.ID == id {
			return p.Value, true
		}
	}
	return nil, false
}
