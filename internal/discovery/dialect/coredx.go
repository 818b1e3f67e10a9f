package dialect

// coreDXEncoder is TwinOaks CoreDX's profile: spec-compliant encoding,
// distinguished from hybrid only for probe scoring/telemetry.
type coreDXEncoder struct {
	hybridEncoder
}

// NewCoreDXEncoder returns the CoreDX-tuned encoder.
func NewCoreDXEncoder() DialectEncoder { return coreDXEncoder{} }

func (coreDXEncoder) Variant() Variant { return VariantCoreDX }
