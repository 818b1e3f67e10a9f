package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/naskel/hdds/internal/rtps/guid"
)

func TestInterfaceFilterEmptyAllowsAll(t *testing.T) {
	var f InterfaceFilter
	assert.True(t, f.Allows("eth0"))
	assert.True(t, f.Allows("lo"))
}

func TestInterfaceFilterAllowList(t *testing.T) {
	f := InterfaceFilter{Allow: []string{"eth0"}}
	assert.True(t, f.Allows("eth0"))
	assert.False(t, f.Allows("eth1"))
}

func TestInterfaceFilterDenyOverridesAllow(t *testing.T) {
	f := InterfaceFilter{Allow: []string{"eth0"}, Deny: []string{"eth0"}}
	assert.False(t, f.Allows("eth0"))
}

func TestSourceFilterEmptyAcceptsAny(t *testing.T) {
	var f SourceFilter
	assert.True(t, f.Accepts(guid.GUIDPrefix{1, 2, 3}))
}

func TestSourceFilterRestrictsToAllowed(t *testing.T) {
	allowed := guid.GUIDPrefix{1, 2, 3}
	f := SourceFilter{AllowedPrefixes: []guid.GUIDPrefix{allowed}}
	assert.True(t, f.Accepts(allowed))
	assert.False(t, f.Accepts(guid.GUIDPrefix{9, 9, 9}))
}
