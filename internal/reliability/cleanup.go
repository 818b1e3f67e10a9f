package reliability

import (
	"context"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/qos"
)

// CleanupTimer periodically purges disposed/unregistered changes from a
// writer's HistoryCache once their SERVICE_CLEANUP_DELAY has elapsed, for
// writers using TRANSIENT_LOCAL, TRANSIENT or PERSISTENT durability (§5: "one
// cleanup timer thread per writer that uses service cleanup").
type CleanupTimer struct {
	cache        *HistoryCache
	durability   qos.DurabilityKind
	cleanupDelay time.Duration
	interval     time.Duration
	stop         chan struct{}
}

// NewCleanupTimer creates a timer for cache under the given durability
// and cleanup delay. Its polling interval is a quarter of the cleanup
// delay, floored at 100ms to match the participant's general poll cadence
// (§5).
func NewCleanupTimer(cache *HistoryCache, durability qos.DurabilityKind, cleanupDelay time.Duration) *CleanupTimer {
	interval := cleanupDelay / 4
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	return &CleanupTimer{
		cache:        cache,
		durability:   durability,
		cleanupDelay: cleanupDelay,
		interval:     interval,
		stop:         make(chan struct{}),
	}
}

// Run loops until ctx is cancelled or Stop is called, evicting disposed
// or unregistered changes whose cleanup delay has elapsed. Only
// TRANSIENT_LOCAL, TRANSIENT and PERSISTENT durability retain history past
// ordinary delivery, so other kinds return immediately without spawning
// work.
func (c *CleanupTimer) Run(ctx context.Context) {
	if c.durability != qos.TransientLocal && c.durability != qos.Persistent && c.durability != qos.Transient {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

func (c *CleanupTimer) sweep(now time.Time) {
	purged := 0
	for _, change := range c.cache.All() {
		if !change.Disposed && !change.Unregistered {
			continue
		}
		if now.Sub(change.SourceTimestamp) < c.cleanupDelay {
			continue
		}
		if c.cache.Remove(change.SequenceNumber) {
			purged++
		}
	}
	if purged > 0 {
		logger.Debug("cleanup timer purged disposed changes", logger.Count(purged))
	}
}

// Stop halts the timer loop.
func (c *CleanupTimer) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}
