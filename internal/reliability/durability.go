package reliability

import (
	"context"

	"github.com/naskel/hdds/internal/rtps/guid"
)

// Sample is the external, transport-agnostic view of one stored change,
// handed to a PersistenceStore collaborator (§6 external interfaces).
type Sample struct {
	Topic       string
	TypeName    string
	Payload     []byte
	TimestampNs int64
	Sequence    int64
	SourceGUID  [16]byte
}

// PersistenceStore is implemented by an external collaborator backing
// PERSISTENT durability; the core never assumes a specific storage
// engine (§6).
type PersistenceStore interface {
	Store(ctx context.Context, s Sample) error
	Load(ctx context.Context, topic string) ([]Sample, error)
	QueryRange(ctx context.Context, topic string, low, high int64) ([]Sample, error)
	Count(ctx context.Context, topic string) (int, error)
	Clear(ctx context.Context, topic string) error
}

// ReplayToLateJoiner returns the samples a TRANSIENT_LOCAL writer's
// HistoryCache should deliver to a newly matched reader, in ascending
// sequence order (§4.5).
func ReplayToLateJoiner(cache *HistoryCache) []CacheChange {
	return cache.All()
}

// ReplayFromStore loads PERSISTENT history for topic from store, for a
// writer whose in-memory HistoryCache alone cannot satisfy a late
// joiner's durability requirement because the writer itself restarted.
func ReplayFromStore(ctx context.Context, store PersistenceStore, topic string) ([]Sample, error) {
	return store.Load(ctx, topic)
}

// guidBytes is a small helper converting a GUID to the external Sample
// wire shape.
func guidBytes(g guid.GUID) [16]byte {
	return g.Bytes()
}
