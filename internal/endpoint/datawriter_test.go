package endpoint

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopSender discards every send; writer-side tests exercise history and
// status bookkeeping, not wire delivery.
type noopSender struct {
	mu   sync.Mutex
	sent int
}

func (s *noopSender) Send(ctx context.Context, dst guid.Locator, data []byte) error {
	s.mu.Lock()
	s.sent++
	s.mu.Unlock()
	return nil
}

func testWriterGUID() guid.GUID {
	var prefix guid.GUIDPrefix
	for i := range prefix {
		prefix[i] = byte(i + 1)
	}
	return guid.New(prefix, guid.EntityID{0, 0, 1, 0xC2})
}

func newTestStatefulWriter() *reliability.StatefulWriter {
	cfg := reliability.StatefulWriterConfig{
		WriterGUID:      testWriterGUID(),
		HeartbeatPeriod: time.Hour,
		History:         reliability.HistoryCacheConfig{History: qos.KeepLast, Depth: 10},
	}
	return reliability.NewStatefulWriter(cfg, testWriterGUID().Prefix, [2]byte{1, 2})
}

func TestDataWriterWriteEncodesAndSubmits(t *testing.T) {
	rw := newTestStatefulWriter()
	sender := &noopSender{}
	dw := NewDataWriter[testSample]("topic", "TestSample", qos.Default(), cdr.SchemeCDR_LE, rw, sender)

	sn, err := dw.Write(context.Background(), &testSample{Key: "a", Value: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 1, sn)
	assert.Equal(t, 1, rw.History().Len())
}

func TestDataWriterWriteOnDisposedWriterFails(t *testing.T) {
	rw := newTestStatefulWriter()
	dw := NewDataWriter[testSample]("topic", "TestSample", qos.Default(), cdr.SchemeCDR_LE, rw, &noopSender{})
	dw.DisposeWriter()

	_, err := dw.Write(context.Background(), &testSample{Key: "a"})
	assert.Error(t, err)
}

func TestDataWriterDisposeMarksHistoryChange(t *testing.T) {
	rw := newTestStatefulWriter()
	dw := NewDataWriter[testSample]("topic", "TestSample", qos.Default(), cdr.SchemeCDR_LE, rw, &noopSender{})

	require.NoError(t, dw.Dispose(context.Background(), &testSample{Key: "a"}))
	changes := rw.History().All()
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Disposed)
}

func TestDataWriterDeadlineWatchdogPublishesMissedStatus(t *testing.T) {
	policies := qos.Default()
	policies.Deadline = 30 * time.Millisecond
	rw := newTestStatefulWriter()
	dw := NewDataWriter[testSample]("topic", "TestSample", policies, cdr.SchemeCDR_LE, rw, &noopSender{})

	_, err := dw.Write(context.Background(), &testSample{Key: "a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	go dw.RunDeadlineWatchdog(ctx)

	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) {
		if dw.StatusCondition().DeadlineMissed().TotalCount > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Greater(t, dw.StatusCondition().DeadlineMissed().TotalCount, 0)
	assert.Equal(t, "a", dw.StatusCondition().DeadlineMissed().InstanceKey)
}

func TestDataWriterAssertLivelinessIgnoredForAutomatic(t *testing.T) {
	rw := newTestStatefulWriter()
	dw := NewDataWriter[testSample]("topic", "TestSample", qos.Default(), cdr.SchemeCDR_LE, rw, &noopSender{})
	dw.AssertLiveliness() // must not panic on an Automatic writer
}
