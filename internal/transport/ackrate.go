package transport

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// AckRateLimiter throttles how often a reader proxy may emit ACKNACK (or a
// writer may emit HEARTBEAT) toward a given remote GUID, keyed by its
// string form, so a flood of NACKs from a misbehaving peer cannot starve
// the send path (§5 reliability engine).
type AckRateLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewAckRateLimiter builds a limiter allowing up to rps ACKNACK/HEARTBEAT
// sends per second per peer, with burst allowance.
func NewAckRateLimiter(rps float64, burst int) *AckRateLimiter {
	return &AckRateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether a send toward peerKey may proceed now, consuming a
// token if so.
func (a *AckRateLimiter) Allow(peerKey string) bool {
	return a.limiterFor(peerKey).Allow()
}

// Wait blocks until a token is available for peerKey or ctx is cancelled.
func (a *AckRateLimiter) Wait(ctx context.Context, peerKey string) error {
	return a.limiterFor(peerKey).Wait(ctx)
}

func (a *AckRateLimiter) limiterFor(peerKey string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.limiters[peerKey]
	if !ok {
		l = rate.NewLimiter(a.rps, a.burst)
		a.limiters[peerKey] = l
	}
	return l
}

// Forget drops the limiter state for a peer that has been removed, e.g. on
// proxy disposal.
func (a *AckRateLimiter) Forget(peerKey string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.limiters, peerKey)
}
