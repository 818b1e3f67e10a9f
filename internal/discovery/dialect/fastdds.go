package dialect

// fastDDSEncoder is eProsima Fast DDS's profile: spec-compliant encoding,
// distinguished from hybrid only for probe scoring/telemetry purposes —
// Fast DDS has no documented mandatory-PID quirk in the §9 inventory.
type fastDDSEncoder struct {
	hybridEncoder
}

// NewFastDDSEncoder returns the Fast DDS-tuned encoder.
func NewFastDDSEncoder() DialectEncoder { return fastDDSEncoder{} }

func (fastDDSEncoder) Variant() Variant { return VariantFastDDS }
