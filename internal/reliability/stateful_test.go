package reliability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender is a Sender that decodes and dispatches every sent
// message straight into a StatefulReader, modeling a lossless loopback
// link for unit tests.
type recordingSender struct {
	mu       sync.Mutex
	messages [][]byte
	reader   *StatefulReader
	writer   guid.GUID
}

func (s *recordingSender) Send(ctx context.Context, dst guid.Locator, data []byte) error {
	s.mu.Lock()
	s.messages = append(s.messages, data)
	s.mu.Unlock()

	if s.reader == nil {
		return nil
	}
	_, subs, err := DecodeMessage(data)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		switch sub.Header.ID {
		case SubmsgData:
			d, err := DecodeData(sub.Header.Flags&0x2 != 0, sub.Header.Flags&0x4 != 0, sub.Body)
			if err == nil {
				s.reader.OnData(s.writer, d)
			}
		case SubmsgDataFrag:
			df, err := DecodeDataFrag(sub.Body)
			if err == nil {
				s.reader.OnDataFrag(s.writer, df)
			}
		}
	}
	return nil
}

func (s *recordingSender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func TestStatefulWriterWriteDeliversToMatchedReader(t *testing.T) {
	writerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC2}}
	readerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC7}}

	w := NewStatefulWriter(StatefulWriterConfig{WriterGUID: writerGUID}, guid.GUIDPrefix{}, [2]byte{1, 1})
	r := NewStatefulReader(StatefulReaderConfig{ReaderGUID: readerGUID}, guid.GUIDPrefix{}, [2]byte{1, 1})

	r.MatchWriter(writerGUID, nil)
	sender := &recordingSender{reader: r, writer: writerGUID}
	w.MatchReader(readerGUID, []guid.Locator{{Kind: guid.LocatorKindUDPv4, Port: 7400}})

	sn, err := w.Write(context.Background(), sender, []byte("payload one"))
	require.NoError(t, err)
	assert.Equal(t, guid.SequenceNumber(1), sn)

	change, ok := r.History().Get(1)
	require.True(t, ok)
	assert.Equal(t, []byte("payload one"), change.Payload)
}

// writerAckNackSender dispatches a received ACKNACK straight into a
// StatefulWriter, modeling the reader-to-writer leg of a lossless
// loopback link.
type writerAckNackSender struct {
	recordingSender
	target *StatefulWriter
	reader guid.GUID
}

func (s *writerAckNackSender) Send(ctx context.Context, dst guid.Locator, data []byte) error {
	if err := s.recordingSender.Send(ctx, dst, data); err != nil {
		return err
	}
	_, subs, err := DecodeMessage(data)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if sub.Header.ID == SubmsgAckNack {
			an, err := DecodeAckNack(sub.Header.Flags, sub.Body)
			if err == nil {
				s.target.OnAckNack(ctx, s, s.reader, an)
			}
		}
	}
	return nil
}

func TestStatefulWriterHeartbeatAcknackCloseTheLoop(t *testing.T) {
	writerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC2}}
	readerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC7}}

	w := NewStatefulWriter(StatefulWriterConfig{WriterGUID: writerGUID, HeartbeatPeriod: time.Millisecond}, guid.GUIDPrefix{}, [2]byte{})
	r := NewStatefulReader(StatefulReaderConfig{ReaderGUID: readerGUID}, guid.GUIDPrefix{}, [2]byte{})
	r.MatchWriter(writerGUID, []guid.Locator{{}})

	r2w := &writerAckNackSender{
		recordingSender: recordingSender{reader: r, writer: writerGUID},
		target:          w,
		reader:          readerGUID,
	}
	w2r := &recordingSender{reader: r, writer: writerGUID}
	w.MatchReader(readerGUID, []guid.Locator{{}})

	// Writer has a sample the reader never saw; the reader learns about it
	// only via HEARTBEAT and must ACKNACK to request a resend.
	require.NoError(t, w.history.Add(CacheChange{SequenceNumber: 1, Payload: []byte("x")}))
	w.lastSeq = 1

	w.sendHeartbeats(context.Background(), w2r)
	assert.Equal(t, 1, w2r.Count(), "writer should have sent exactly one HEARTBEAT")

	// The reader's response path is exercised through OnHeartbeat directly
	// so the test controls which sender the ACKNACK travels over. r2w's
	// Send also forwards the decoded ACKNACK straight into the writer, so
	// the writer's resulting DATA resend (also sent over r2w) lands here
	// too: two sends total, ACKNACK then resent DATA.
	r.OnHeartbeat(context.Background(), r2w, writerGUID, Heartbeat{FirstSN: 1, LastSN: 1, Count: 1})
	assert.Equal(t, 2, r2w.Count(), "expected one ACKNACK and one resent DATA")

	change, ok := r.History().Get(1)
	require.True(t, ok, "writer should have resent the sample once NACKed")
	assert.Equal(t, []byte("x"), change.Payload)
}

func TestStatefulWriterWaitForAcknowledgments(t *testing.T) {
	writerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC2}}
	readerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC7}}

	w := NewStatefulWriter(StatefulWriterConfig{WriterGUID: writerGUID}, guid.GUIDPrefix{}, [2]byte{})
	proxy := w.MatchReader(readerGUID, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.WaitForAcknowledgments(ctx, 1) }()

	time.Sleep(5 * time.Millisecond)
	proxy.OnAckNack(AckNack{ReaderSNState: NewSNSet(2, nil), Count: 1})

	err := <-done
	assert.NoError(t, err)
}

func TestStatefulWriterWaitForAcknowledgmentsTimesOut(t *testing.T) {
	writerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC2}}
	readerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC7}}

	w := NewStatefulWriter(StatefulWriterConfig{WriterGUID: writerGUID}, guid.GUIDPrefix{}, [2]byte{})
	w.MatchReader(readerGUID, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := w.WaitForAcknowledgments(ctx, 1)
	assert.Error(t, err)
}

func TestStatefulReaderFragmentedDelivery(t *testing.T) {
	writerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC2}}
	readerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC7}}

	w := NewStatefulWriter(StatefulWriterConfig{WriterGUID: writerGUID, FragmentSize: 8}, guid.GUIDPrefix{}, [2]byte{})
	r := NewStatefulReader(StatefulReaderConfig{ReaderGUID: readerGUID}, guid.GUIDPrefix{}, [2]byte{})
	r.MatchWriter(writerGUID, nil)

	sender := &recordingSender{reader: r, writer: writerGUID}
	w.MatchReader(readerGUID, []guid.Locator{{}})

	payload := []byte("this payload is longer than one fragment")
	_, err := w.Write(context.Background(), sender, payload)
	require.NoError(t, err)

	change, ok := r.History().Get(1)
	require.True(t, ok)
	assert.Equal(t, payload, change.Payload)
}

func TestStatefulWriterWriteDispositionMarksChangeAndStampsWriterGUID(t *testing.T) {
	writerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC2}}
	readerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC7}}

	w := NewStatefulWriter(StatefulWriterConfig{WriterGUID: writerGUID}, guid.GUIDPrefix{}, [2]byte{1, 1})
	r := NewStatefulReader(StatefulReaderConfig{ReaderGUID: readerGUID}, guid.GUIDPrefix{}, [2]byte{1, 1})
	r.MatchWriter(writerGUID, nil)

	sender := &recordingSender{reader: r, writer: writerGUID}
	w.MatchReader(readerGUID, []guid.Locator{{}})

	sn, err := w.WriteDisposition(context.Background(), sender, []byte("key only"), true, false)
	require.NoError(t, err)
	assert.Equal(t, guid.SequenceNumber(1), sn)

	change, ok := w.History().Get(1)
	require.True(t, ok)
	assert.True(t, change.Disposed)
	assert.False(t, change.Unregistered)

	rchange, ok := r.History().Get(1)
	require.True(t, ok, "reader should have received the DATA carrying the disposed change")
	assert.Equal(t, writerGUID, rchange.WriterGUID)
}

func TestStatefulWriterUnmatchReaderStopsDelivery(t *testing.T) {
	writerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC2}}
	readerGUID := guid.GUID{EntityID: guid.EntityID{0, 0, 0, 0xC7}}

	w := NewStatefulWriter(StatefulWriterConfig{WriterGUID: writerGUID}, guid.GUIDPrefix{}, [2]byte{})
	w.MatchReader(readerGUID, nil)
	assert.Equal(t, 1, w.MatchedReaderCount())

	w.UnmatchReader(readerGUID)
	assert.Equal(t, 0, w.MatchedReaderCount())
}
