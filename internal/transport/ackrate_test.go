package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAckRateLimiterAllowsBurstThenThrottles(t *testing.T) {
	l := NewAckRateLimiter(1, 2)
	assert.True(t, l.Allow("peerA"))
	assert.True(t, l.Allow("peerA"))
	assert.False(t, l.Allow("peerA"))
}

func TestAckRateLimiterPerPeerIndependent(t *testing.T) {
	l := NewAckRateLimiter(1, 1)
	assert.True(t, l.Allow("peerA"))
	assert.True(t, l.Allow("peerB"))
}

func TestAckRateLimiterForget(t *testing.T) {
	l := NewAckRateLimiter(1, 1)
	assert.True(t, l.Allow("peerA"))
	assert.False(t, l.Allow("peerA"))
	l.Forget("peerA")
	assert.True(t, l.Allow("peerA"))
}
