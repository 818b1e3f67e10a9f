package dialect

import (
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// hybridEncoder is the conservative, spec-literal encoder used until a
// peer's dialect is confidently probed, and for any peer that never
// fingerprints as one of the named vendors (§9: "Hybrid fallback").
type hybridEncoder struct {
	baseEncoder
}

// NewHybridEncoder returns the default encoder.
func NewHybridEncoder() DialectEncoder { return hybridEncoder{} }

func (hybridEncoder) Variant() Variant { return VariantHybrid }

func (e hybridEncoder) EncodeSPDP(p ParticipantFields, vendorID [2]byte) []byte {
	w := cdr.NewWriter(cdr.SchemePL_CDR_LE, 256)
	pw := cdr.NewParameterListWriter(w)
	e.encodeSPDPParams(pw, p, vendorID)

	for _, l := range p.MetatrafficUnicastLocators {
		e.writeLocatorParam(pw, cdr.PIDMetatrafficUnicast, l)
	}
	for _, l := range p.MetatrafficMulticastLocators {
		e.writeLocatorParam(pw, cdr.PIDMetatrafficMulticast, l)
	}
	for _, l := range p.DefaultUnicastLocators {
		e.writeLocatorParam(pw, cdr.PIDDefaultUnicast, l)
	}
	for _, l := range p.DefaultMulticastLocators {
		e.writeLocatorParam(pw, cdr.PIDDefaultMulticast, l)
	}

	dw := cdr.NewWriter(cdr.SchemeCDR_LE, 8)
	secs := int32(p.LeaseDuration.Seconds())
	dw.WriteInt32(secs)
	dw.WriteUint32(0)
	pw.WriteParam(cdr.PIDParticipantLease, dw.Bytes())

	bw := cdr.NewWriter(cdr.SchemeCDR_LE, 4)
	bw.WriteUint32(p.BuiltinEndpoints)
	pw.WriteParam(cdr.PIDBuiltinEndpointSet, bw.Bytes())

	pw.WriteSentinel()
	return w.FinishWithBody()
}

func (e hybridEncoder) EncodeSEDP(ep EndpointFields, vendorID [2]byte) []byte {
	w := cdr.NewWriter(cdr.SchemePL_CDR_LE, 256)
	pw := cdr.NewParameterListWriter(w)

	b := ep.GUID.Bytes()
	pw.WriteParam(cdr.PIDEndpointGUID, b[:])

	tw := cdr.NewWriter(cdr.SchemeCDR_LE, len(ep.TopicName)+8)
	tw.WriteString(ep.TopicName)
	pw.WriteParam(cdr.PIDTopicName, tw.Bytes())

	yw := cdr.NewWriter(cdr.SchemeCDR_LE, len(ep.TypeName)+8)
	yw.WriteString(ep.TypeName)
	pw.WriteParam(cdr.PIDTypeName, yw.Bytes())

	for _, l := range ep.UnicastLocators {
		e.writeLocatorParam(pw, cdr.PIDUnicastLocator, l)
	}
	for _, l := range ep.MulticastLocators {
		e.writeLocatorParam(pw, cdr.PIDMulticastLocator, l)
	}

	pw.WriteSentinel()
	return w.FinishWithBody()
}

func (e hybridEncoder) writeLocatorParam(pw *cdr.ParameterListWriter, id cdr.PID, l guid.Locator) {
	w := cdr.NewWriter(cdr.SchemeCDR_LE, 24)
	e.EncodeLocator(w, l)
	pw.WriteParam(id, w.Bytes())
}
