package endpoint

import (
	"context"
	"testing"
	"time"

	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReaderPrefix(b byte) guid.GUIDPrefix {
	var p guid.GUIDPrefix
	for i := range p {
		p[i] = b
	}
	return p
}

func newTestStatefulReader() *reliability.StatefulReader {
	cfg := reliability.StatefulReaderConfig{
		ReaderGUID: guid.New(testReaderPrefix(0x10), guid.EntityID{0, 0, 1, 0xC7}),
		History:    reliability.HistoryCacheConfig{History: qos.KeepAll},
	}
	return reliability.NewStatefulReader(cfg, testReaderPrefix(0x10), [2]byte{1, 2})
}

func encodeTestSample(t *testing.T, key string, value int32) []byte {
	t.Helper()
	buf, err := cdr.Encode(cdr.SchemeCDR_LE, &testSample{Key: key, Value: value})
	require.NoError(t, err)
	return buf
}

func TestDataReaderTakeDecodesAndAdvancesCursor(t *testing.T) {
	sr := newTestStatefulReader()
	writer := guid.New(testReaderPrefix(0x20), guid.EntityID{0, 0, 1, 0xC2})
	sr.MatchWriter(writer, nil)

	sr.OnData(writer, reliability.Data{WriterSN: 1, SerializedPayload: encodeTestSample(t, "a", 1)})
	sr.OnData(writer, reliability.Data{WriterSN: 2, SerializedPayload: encodeTestSample(t, "b", 2)})

	dr := NewDataReader[testSample]("topic", "TestSample", qos.Default(), cdr.SchemeCDR_LE, sr)
	samples, err := dr.Take()
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "a", samples[0].Key)
	assert.Equal(t, "b", samples[1].Key)

	again, err := dr.Take()
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestDataReaderReadDoesNotAdvanceCursor(t *testing.T) {
	sr := newTestStatefulReader()
	writer := guid.New(testReaderPrefix(0x21), guid.EntityID{0, 0, 1, 0xC2})
	sr.MatchWriter(writer, nil)
	sr.OnData(writer, reliability.Data{WriterSN: 1, SerializedPayload: encodeTestSample(t, "a", 1)})

	dr := NewDataReader[testSample]("topic", "TestSample", qos.Default(), cdr.SchemeCDR_LE, sr)
	first, err := dr.Read()
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := dr.Read()
	require.NoError(t, err)
	require.Len(t, second, 1)
}

func TestDataReaderTakeBatchLimitsCount(t *testing.T) {
	sr := newTestStatefulReader()
	writer := guid.New(testReaderPrefix(0x22), guid.EntityID{0, 0, 1, 0xC2})
	sr.MatchWriter(writer, nil)
	for i := 1; i <= 5; i++ {
		sr.OnData(writer, reliability.Data{WriterSN: guid.SequenceNumber(i), SerializedPayload: encodeTestSample(t, "k", int32(i))})
	}

	dr := NewDataReader[testSample]("topic", "TestSample", qos.Default(), cdr.SchemeCDR_LE, sr)
	batch, err := dr.TakeBatch(2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestDataReaderOwnershipExclusiveSuppressesLowerStrength(t *testing.T) {
	sr := newTestStatefulReader()
	strong := guid.New(testReaderPrefix(0x30), guid.EntityID{0, 0, 1, 0xC2})
	weak := guid.New(testReaderPrefix(0x31), guid.EntityID{0, 0, 1, 0xC2})
	sr.MatchWriter(strong, nil)
	sr.MatchWriter(weak, nil)

	policies := qos.Default()
	policies.Ownership = qos.Exclusive
	dr := NewDataReader[testSample]("topic", "TestSample", policies, cdr.SchemeCDR_LE, sr)
	dr.SetWriterStrength(strong, 100)
	dr.SetWriterStrength(weak, 50)

	sr.OnData(weak, reliability.Data{WriterSN: 1, SerializedPayload: encodeTestSample(t, "state", 1)})
	sr.OnData(strong, reliability.Data{WriterSN: 2, SerializedPayload: encodeTestSample(t, "state", 2)})

	samples, err := dr.Take()
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.EqualValues(t, 2, samples[0].Value)

	// strong writer goes away; weak writer's next sample is accepted.
	dr.ForgetWriter(strong)
	sr.OnData(weak, reliability.Data{WriterSN: 2, SerializedPayload: encodeTestSample(t, "state", 3)})
	samples, err = dr.Take()
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.EqualValues(t, 3, samples[0].Value)
}

// TestDataReaderTakeHoldsCursorAtGapUntilRetransmitArrives pins down
// scenario S2 at the user API: the writer sends 1,2,4,5,6,8,9,10 (3 and 7
// dropped), Take must deliver only 1,2 until 3 is retransmitted, then only
// up through 6 until 7 is retransmitted, never exposing 4,5,6 (or 8,9,10)
// ahead of the gap they follow (§5 strict ascending delivery).
func TestDataReaderTakeHoldsCursorAtGapUntilRetransmitArrives(t *testing.T) {
	sr := newTestStatefulReader()
	writer := guid.New(testReaderPrefix(0x23), guid.EntityID{0, 0, 1, 0xC2})
	sr.MatchWriter(writer, nil)
	dr := NewDataReader[testSample]("topic", "TestSample", qos.Default(), cdr.SchemeCDR_LE, sr)

	for _, sn := range []guid.SequenceNumber{1, 2, 4, 5, 6, 8, 9, 10} {
		sr.OnData(writer, reliability.Data{WriterSN: sn, SerializedPayload: encodeTestSample(t, "k", int32(sn))})
	}

	samples, err := dr.Take()
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.EqualValues(t, 1, samples[0].Value)
	assert.EqualValues(t, 2, samples[1].Value)

	// Nothing new is deliverable while 3 is still outstanding.
	samples, err = dr.Take()
	require.NoError(t, err)
	assert.Empty(t, samples)

	sr.OnData(writer, reliability.Data{WriterSN: 3, SerializedPayload: encodeTestSample(t, "k", 3)})
	samples, err = dr.Take()
	require.NoError(t, err)
	require.Len(t, samples, 4)
	for i, want := range []int32{3, 4, 5, 6} {
		assert.EqualValues(t, want, samples[i].Value)
	}

	// 8,9,10 remain withheld behind the still-outstanding 7.
	samples, err = dr.Take()
	require.NoError(t, err)
	assert.Empty(t, samples)

	sr.OnData(writer, reliability.Data{WriterSN: 7, SerializedPayload: encodeTestSample(t, "k", 7)})
	samples, err = dr.Take()
	require.NoError(t, err)
	require.Len(t, samples, 4)
	for i, want := range []int32{7, 8, 9, 10} {
		assert.EqualValues(t, want, samples[i].Value)
	}
}

func TestDataReaderDeadlineWatchdogPublishesMissedStatus(t *testing.T) {
	sr := newTestStatefulReader()
	writer := guid.New(testReaderPrefix(0x40), guid.EntityID{0, 0, 1, 0xC2})
	sr.MatchWriter(writer, nil)

	policies := qos.Default()
	policies.Deadline = 30 * time.Millisecond
	dr := NewDataReader[testSample]("topic", "TestSample", policies, cdr.SchemeCDR_LE, sr)

	sr.OnData(writer, reliability.Data{WriterSN: 1, SerializedPayload: encodeTestSample(t, "a", 1)})
	_, err := dr.Take()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	go dr.RunDeadlineWatchdog(ctx)

	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) {
		if dr.StatusCondition().DeadlineMissed().TotalCount > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Greater(t, dr.StatusCondition().DeadlineMissed().TotalCount, 0)
}
