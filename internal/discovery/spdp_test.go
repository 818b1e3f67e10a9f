package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/naskel/hdds/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopbackTransport records a copy of every Send in memory, letting
// tests exercise Announcer -> Receiver without real sockets.
type loopbackTransport struct {
	mu   sync.Mutex
	sent [][]byte
}

func (l *loopbackTransport) Send(ctx context.Context, dst guid.Locator, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, append([]byte(nil), data...))
	return nil
}
func (l *loopbackTransport) Recv(ctx context.Context) (transport.Packet, error) {
	return transport.Packet{}, nil
}
func (l *loopbackTransport) LocalLocators() []guid.Locator { return nil }
func (l *loopbackTransport) SupportsMulticast() bool       { return false }
func (l *loopbackTransport) Close() error                  { return nil }

func (l *loopbackTransport) last() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sent) == 0 {
		return nil
	}
	return l.sent[len(l.sent)-1]
}

func TestAnnouncerSendsSPDPAndReceiverUpserts(t *testing.T) {
	remotePrefix := testPrefix(0x40)
	tp := &loopbackTransport{}
	locator := guid.Locator{Kind: guid.LocatorKindUDPv4, Port: 7400, Address: [16]byte{15: 1}}

	snapshot := func() ParticipantProxy {
		return ParticipantProxy{
			GUID:          guid.New(remotePrefix, guid.EntityIDParticipant),
			LeaseDuration: 30 * time.Second,
		}
	}

	announcer := NewAnnouncer(tp, remotePrefix, [2]byte{1, 2}, []guid.Locator{locator}, time.Hour, snapshot, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	announcer.announceOnce(ctx)

	wire := tp.last()
	require.NotEmpty(t, wire)

	db := NewParticipantDB(nil)
	var discoveredNew bool
	receiver := NewReceiver(db, testPrefix(0x41), nil, func(p ParticipantProxy, isNew bool) {
		discoveredNew = isNew
	})

	require.NoError(t, receiver.HandleMessage(wire))
	assert.True(t, discoveredNew)

	got, ok := db.Get(guid.New(remotePrefix, guid.EntityIDParticipant))
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, got.LeaseDuration)
}

func TestReceiverSkipsLoopback(t *testing.T) {
	localPrefix := testPrefix(0x42)
	tp := &loopbackTransport{}
	locator := guid.Locator{Kind: guid.LocatorKindUDPv4, Port: 7400}

	snapshot := func() ParticipantProxy {
		return ParticipantProxy{GUID: guid.New(localPrefix, guid.EntityIDParticipant), LeaseDuration: time.Minute}
	}
	announcer := NewAnnouncer(tp, localPrefix, [2]byte{1, 2}, []guid.Locator{locator}, time.Hour, snapshot, nil)
	announcer.announceOnce(context.Background())

	db := NewParticipantDB(nil)
	receiver := NewReceiver(db, localPrefix, nil, nil)
	require.NoError(t, receiver.HandleMessage(tp.last()))

	assert.Equal(t, 0, db.Count())
}
