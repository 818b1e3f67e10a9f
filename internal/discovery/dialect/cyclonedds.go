package dialect

// cycloneDDSEncoder is Eclipse Cyclone DDS's profile: spec-compliant
// encoding, distinguished from hybrid only for probe scoring/telemetry.
type cycloneDDSEncoder struct {
	hybridEncoder
}

// NewCycloneDDSEncoder returns the Cyclone DDS-tuned encoder.
func NewCycloneDDSEncoder() DialectEncoder { return cycloneDDSEncoder{} }

func (cycloneDDSEncoder) Variant() Variant { return VariantCycloneDDS }
