package reliability

import (
	"testing"

	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
)

func TestReaderProxyOnAckNackTracksAckedAndRequested(t *testing.T) {
	p := NewReaderProxy(guid.GUID{}, []guid.Locator{{}})
	assert.Len(t, p.Locators, 1, "locators must be retained by NewReaderProxy")

	set := NewSNSet(3, []guid.SequenceNumber{3, 5})
	ok := p.OnAckNack(AckNack{ReaderSNState: set, Count: 1})
	assert.True(t, ok)
	assert.Equal(t, guid.SequenceNumber(2), p.LastAcked())
	assert.ElementsMatch(t, []guid.SequenceNumber{3, 5}, p.Requested())
}

func TestReaderProxyOnAckNackIgnoresStaleCount(t *testing.T) {
	p := NewReaderProxy(guid.GUID{}, nil)
	p.OnAckNack(AckNack{ReaderSNState: NewSNSet(5, nil), Count: 2})
	ok := p.OnAckNack(AckNack{ReaderSNState: NewSNSet(1, nil), Count: 2})
	assert.False(t, ok)
	assert.Equal(t, guid.SequenceNumber(4), p.LastAcked(), "stale acknack must not roll back lastAckSeq")
}

func TestReaderProxyClearRequested(t *testing.T) {
	p := NewReaderProxy(guid.GUID{}, nil)
	p.OnAckNack(AckNack{ReaderSNState: NewSNSet(1, []guid.SequenceNumber{1, 2}), Count: 1})
	p.ClearRequested(1)
	assert.ElementsMatch(t, []guid.SequenceNumber{2}, p.Requested())
}

func TestReaderProxyIsUpToDate(t *testing.T) {
	p := NewReaderProxy(guid.GUID{}, nil)
	p.OnAckNack(AckNack{ReaderSNState: NewSNSet(5, nil), Count: 1})
	assert.True(t, p.IsUpToDate(4))
	assert.False(t, p.IsUpToDate(5))
}

func TestReaderProxyNextHeartbeatCountIncrements(t *testing.T) {
	p := NewReaderProxy(guid.GUID{}, nil)
	assert.Equal(t, int32(1), p.NextHeartbeatCount())
	assert.Equal(t, int32(2), p.NextHeartbeatCount())
}
