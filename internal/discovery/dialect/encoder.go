package dialect

import (
	"time"

	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// ParticipantFields is the subset of a ParticipantProxy an encoder needs
// to build an SPDP payload; kept separate from discovery's own proxy
// type so this package has no dependency on internal/discovery (which
// depends on this package for per-peer encoder selection).
type ParticipantFields struct {
	GUID                         guid.GUID
	MetatrafficUnicastLocators   []guid.Locator
	MetatrafficMulticastLocators []guid.Locator
	DefaultUnicastLocators       []guid.Locator
	DefaultMulticastLocators     []guid.Locator
	LeaseDuration                time.Duration
	ParticipantName              string
	BuiltinEndpoints             uint32
}

// EndpointFields is the subset of an EndpointProxy an encoder needs to
// build an SEDP payload.
type EndpointFields struct {
	GUID              guid.GUID
	TopicName         string
	TypeName          string
	Policies          qos.Policies
	UnicastLocators   []guid.Locator
	MulticastLocators []guid.Locator
	TypeObjectRaw     []byte
}

// DialectEncoder produces wire bytes tuned to what a specific vendor's
// receiver tolerates: encapsulation scheme choice, PID ordering quirks,
// and which vendor-specific PIDs must be present unconditionally (§9
// Design Notes vendor-quirk inventory; §14.5).
type DialectEncoder interface {
	Variant() Variant

	EncodeSPDP(p ParticipantFields, vendorID [2]byte) []byte
	EncodeSEDP(e EndpointFields, vendorID [2]byte) []byte
	EncodeHeartbeat(hb reliability.Heartbeat) []byte
	EncodeAckNack(an reliability.AckNack) []byte
	EncodeGap(g reliability.Gap) []byte
	EncodeData(d reliability.Data) []byte
	EncodeDataFrag(df reliability.DataFrag) []byte
	EncodeInfoTS(ts reliability.InfoTS) []byte
	EncodeInfoDST(d reliability.InfoDST) []byte
	EncodeLocator(w *cdr.Writer, l guid.Locator)
}

// baseEncoder implements the spec-compliant encoding every variant starts
// from; vendor-specific encoders embed it and override only what their
// quirk profile requires.
type baseEncoder struct{}

func (baseEncoder) EncodeHeartbeat(hb reliability.Heartbeat) []byte { return reliability.EncodeHeartbeat(hb) }
func (baseEncoder) EncodeAckNack(an reliability.AckNack) []byte     { return reliability.EncodeAckNack(an) }
func (baseEncoder) EncodeGap(g reliability.Gap) []byte              { return reliability.EncodeGap(g) }
func (baseEncoder) EncodeData(d reliability.Data) []byte            { return reliability.EncodeData(d) }
func (baseEncoder) EncodeDataFrag(df reliability.DataFrag) []byte   { return reliability.EncodeDataFrag(df) }
func (baseEncoder) EncodeInfoTS(ts reliability.InfoTS) []byte       { return reliability.EncodeInfoTS(ts) }
func (baseEncoder) EncodeInfoDST(d reliability.InfoDST) []byte      { return reliability.EncodeInfoDST(d) }

func (baseEncoder) EncodeLocator(w *cdr.Writer, l guid.Locator) {
	w.WriteInt32(int32(l.Kind))
	w.WriteUint32(l.Port)
	w.WriteBytes(l.Address[:])
}

func (baseEncoder) encodeSPDPParams(pw *cdr.ParameterListWriter, p ParticipantFields, vendorID [2]byte) {
	pw.WriteParam(cdr.PIDProtocolVersion, []byte{2, 5})
	pw.WriteParam(cdr.PIDVendorID, vendorID[:])
	b := p.GUID.Bytes()
	pw.WriteParam(cdr.PIDParticipantGUID, b[:])
	if p.ParticipantName != "" {
		sw := cdr.NewWriter(cdr.SchemeCDR_LE, len(p.ParticipantName)+8)
		sw.WriteString(p.ParticipantName)
		pw.WriteParam(cdr.PIDEntityName, sw.Bytes())
	}
}

// appendSentinelBefore inserts extra (already-aligned PID records) into a
// finished PL_CDR buffer immediately before its sentinel, letting a
// vendor-specific encoder layer unconditional trailer PIDs onto a
// payload built by the common path without re-deriving it (§14.5
// opendds.go).
func appendSentinelBefore(payload []byte, extra []byte) []byte {
	if len(payload) < 4 || len(extra) == 0 {
		return payload
	}
	out := make([]byte, 0, len(payload)+len(extra))
	out = append(out, payload[:len(payload)-4]...)
	out = append(out, extra...)
	out = append(out, payload[len(payload)-4:]...)
	return out
}
