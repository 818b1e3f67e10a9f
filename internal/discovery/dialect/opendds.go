package dialect

import "github.com/naskel/hdds/internal/rtps/cdr"

// openDDSEncoder layers OpenDDS's one documented interop requirement onto
// the hybrid encoder: PID_DATA_REPRESENTATION and PID_TYPE_INFORMATION
// must be present on every SEDP announcement even when empty, or OpenDDS
// silently refuses to match the endpoint (§9 vendor-quirk inventory,
// §14.5 "their absence blocks OpenDDS interop").
type openDDSEncoder struct {
	hybridEncoder
}

// NewOpenDDSEncoder returns the OpenDDS-tuned encoder.
func NewOpenDDSEncoder() DialectEncoder { return openDDSEncoder{} }

func (openDDSEncoder) Variant() Variant { return VariantOpenDDS }

func (e openDDSEncoder) EncodeSEDP(ep EndpointFields, vendorID [2]byte) []byte {
	payload := e.hybridEncoder.EncodeSEDP(ep, vendorID)

	extra := cdr.NewWriter(payloadScheme(payload), 16)
	pw := cdr.NewParameterListWriter(extra)
	// XCDR1 (value 0) unless the endpoint's DataRepresentation QoS asked
	// for XCDR2; written unconditionally regardless, per the quirk note.
	drw := cdr.NewWriter(cdr.SchemeCDR_LE, 4)
	drw.WriteUint32(uint32(ep.Policies.DataRepresentation))
	pw.WriteParam(cdr.PIDDataRepresentation, drw.Bytes())

	if len(ep.TypeObjectRaw) > 0 {
		pw.WriteParam(cdr.PIDTypeInformation, ep.TypeObjectRaw)
	} else {
		pw.WriteParam(cdr.PIDTypeInformation, []byte{})
	}

	return appendSentinelBefore(payload, extra.Bytes())
}

// payloadScheme recovers the encapsulation scheme from an
// already-encoded payload's 4-byte header, so the extra-params writer
// encodes its PID/length fields with the same endianness as the buffer
// it is about to be spliced into.
func payloadScheme(payload []byte) cdr.Scheme {
	scheme, _, _, err := cdr.ReadHeader(payload)
	if err != nil {
		return cdr.SchemePL_CDR_LE
	}
	return scheme
}
