package participant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePortMappingDomainZeroIndexZero(t *testing.T) {
	m := ComputePortMapping(0, 0)
	assert.Equal(t, uint32(7400), m.MetatrafficMulticast)
	assert.Equal(t, uint32(7410), m.MetatrafficUnicast)
	assert.Equal(t, uint32(7401), m.UserDataMulticast)
	assert.Equal(t, uint32(7411), m.UserDataUnicast)
}

func TestComputePortMappingAdvancesWithDomainAndIndex(t *testing.T) {
	m := ComputePortMapping(1, 2)
	assert.Equal(t, uint32(7650), m.MetatrafficMulticast)
	assert.Equal(t, uint32(7664), m.MetatrafficUnicast)
	assert.Equal(t, uint32(7651), m.UserDataMulticast)
	assert.Equal(t, uint32(7665), m.UserDataUnicast)
}

func TestComputePortMappingDistinctIndicesDontCollide(t *testing.T) {
	a := ComputePortMapping(0, 0)
	b := ComputePortMapping(0, 1)
	assert.NotEqual(t, a.MetatrafficUnicast, b.MetatrafficUnicast)
	assert.NotEqual(t, a.UserDataUnicast, b.UserDataUnicast)
	assert.Equal(t, a.MetatrafficMulticast, b.MetatrafficMulticast)
}
