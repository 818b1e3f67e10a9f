package dialect

// rtiEncoder is RTI Connext's profile: structurally spec-compliant, but
// RTI prefers the compressed PID_TYPE_OBJECT_LB form over
// PID_TYPE_INFORMATION wherever possible (handled upstream by
// xtypes.ChooseEncoding, which already picks the smaller encoding), so no
// field-level override is needed beyond identifying the variant for
// probe scoring and telemetry.
type rtiEncoder struct {
	hybridEncoder
}

// NewRTIEncoder returns the RTI-tuned encoder.
func NewRTIEncoder() DialectEncoder { return rtiEncoder{} }

func (rtiEncoder) Variant() Variant { return VariantRTI }
