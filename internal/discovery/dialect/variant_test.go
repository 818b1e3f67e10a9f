package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromVendorIDKnownVendors(t *testing.T) {
	assert.Equal(t, VariantRTI, FromVendorID([2]byte(VendorIDRTI)))
	assert.Equal(t, VariantFastDDS, FromVendorID([2]byte(VendorIDFastDDS)))
	assert.Equal(t, VariantCycloneDDS, FromVendorID([2]byte(VendorIDCycloneDDS)))
	assert.Equal(t, VariantOpenDDS, FromVendorID([2]byte(VendorIDOpenDDS)))
	assert.Equal(t, VariantCoreDX, FromVendorID([2]byte(VendorIDCoreDX)))
}

func TestFromVendorIDUnknownDefaultsToHybrid(t *testing.T) {
	assert.Equal(t, VariantHybrid, FromVendorID([2]byte{0x99, 0x99}))
}

func TestEncoderForReturnsMatchingVariant(t *testing.T) {
	cases := map[Variant]Variant{
		VariantRTI:        VariantRTI,
		VariantFastDDS:     VariantFastDDS,
		VariantCycloneDDS:  VariantCycloneDDS,
		VariantOpenDDS:      VariantOpenDDS,
		VariantCoreDX:       VariantCoreDX,
		VariantHybrid:       VariantHybrid,
	}
	for in, want := range cases {
		enc := EncoderFor(in)
		assert.Equal(t, want, enc.Variant())
	}
}
