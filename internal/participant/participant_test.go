package participant

import (
	"testing"

	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
)

func TestNewGUIDPrefixProducesDistinctValues(t *testing.T) {
	a, err := newGUIDPrefix()
	assert.NoError(t, err)
	b, err := newGUIDPrefix()
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNextEntityIDIsMonotonicAndCarriesKind(t *testing.T) {
	p := &Participant{}
	first := p.nextEntityID(guid.KindUserWriter)
	second := p.nextEntityID(guid.KindUserWriter)

	assert.NotEqual(t, first, second)
	assert.Equal(t, guid.KindUserWriter, first.Kind())
	assert.Equal(t, guid.KindUserWriter, second.Kind())
}

func TestSchemeForPicksXCDR2(t *testing.T) {
	assert.Equal(t, cdr.SchemeCDR2_LE, schemeFor(qos.XCDR2))
	assert.Equal(t, cdr.SchemeCDR_LE, schemeFor(qos.XCDR1))
}

func TestFromRelayMatchesConfiguredLocator(t *testing.T) {
	loc := guid.NewUDPv4Locator([]byte{10, 0, 0, 1}, 7400)
	p := &Participant{relayLocators: []guid.Locator{loc}}

	assert.True(t, p.fromRelay(loc))
	assert.False(t, p.fromRelay(guid.NewUDPv4Locator([]byte{10, 0, 0, 2}, 7400)))
}

func TestAnnounceLocatorsIncludesMulticastAndRelays(t *testing.T) {
	relay := guid.NewUDPv4Locator([]byte{10, 0, 0, 1}, 7400)
	p := &Participant{
		cfg:           Config{MulticastAddr: DefaultMulticastGroup},
		ports:         PortMapping{MetatrafficMulticast: 7400},
		relayLocators: []guid.Locator{relay},
	}

	locators := p.announceLocators()
	assert.Len(t, locators, 2)
	assert.Contains(t, locators, relay)
}
