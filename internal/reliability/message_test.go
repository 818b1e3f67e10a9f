package reliability

import (
	"testing"

	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() MessageHeader {
	return MessageHeader{
		VersionMajor: 2,
		VersionMinor: 5,
		VendorID:     [2]byte{0x01, 0x0F},
		GuidPrefix:   guid.GUIDPrefix{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	}
}

func TestMessageHeaderRoundTrip(t *testing.T) {
	h := testHeader()
	buf := h.Encode(nil)
	require.Len(t, buf, MessageHeaderLen)

	decoded, rest, err := DecodeMessageHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
	assert.Empty(t, rest)
}

func TestDecodeMessageHeaderRejectsBadMagic(t *testing.T) {
	buf := testHeader().Encode(nil)
	buf[0] = 'X'
	_, _, err := DecodeMessageHeader(buf)
	assert.Error(t, err)
}

func TestBuildAndDecodeMessageRoundTrip(t *testing.T) {
	hb := Heartbeat{WriterID: guid.EntityIDUnknown, FirstSN: 1, LastSN: 10, Count: 1}
	an := AckNack{ReaderSNState: NewSNSet(5, []guid.SequenceNumber{5, 6}), Count: 2}

	msg := BuildMessage(testHeader(),
		EncodedSubmessage{ID: SubmsgHeartbeat, Flags: HeartbeatFlags(hb), Body: EncodeHeartbeat(hb)},
		EncodedSubmessage{ID: SubmsgAckNack, Flags: AckNackFlags(an), Body: EncodeAckNack(an)},
	)

	header, subs, err := DecodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, testHeader(), header)
	require.Len(t, subs, 2)

	assert.Equal(t, SubmsgHeartbeat, subs[0].Header.ID)
	gotHB, err := DecodeHeartbeat(subs[0].Header.Flags, subs[0].Body)
	require.NoError(t, err)
	assert.Equal(t, hb.FirstSN, gotHB.FirstSN)
	assert.Equal(t, hb.LastSN, gotHB.LastSN)

	assert.Equal(t, SubmsgAckNack, subs[1].Header.ID)
	gotAN, err := DecodeAckNack(subs[1].Header.Flags, subs[1].Body)
	require.NoError(t, err)
	assert.ElementsMatch(t, an.ReaderSNState.Sequences(), gotAN.ReaderSNState.Sequences())
}

func TestDecodeMessageRejectsOversizedSubmessageLength(t *testing.T) {
	header := testHeader()
	buf := header.Encode(nil)
	sh := SubmessageHeader{ID: SubmsgGap, Flags: 0x1, OctetsToNextHeader: 9000}
	buf = sh.Encode(buf)
	buf = append(buf, []byte("short")...)

	_, _, err := DecodeMessage(buf)
	assert.Error(t, err)
}

func TestSNSetRoundTripSequences(t *testing.T) {
	missing := []guid.SequenceNumber{5, 6, 9, 40}
	set := NewSNSet(5, missing)
	assert.ElementsMatch(t, missing, set.Sequences())
	assert.True(t, set.Contains(9))
	assert.False(t, set.Contains(7))
	assert.False(t, set.Empty())

	empty := NewSNSet(1, nil)
	assert.True(t, empty.Empty())
}

func TestDataSubmessageRoundTrip(t *testing.T) {
	d := Data{WriterID: guid.EntityIDUnknown, WriterSN: 42, SerializedPayload: []byte("hello")}
	flags := DataFlags(d)
	body := EncodeData(d)
	got, err := DecodeData(flags&0x2 != 0, flags&0x4 != 0, body)
	require.NoError(t, err)
	assert.Equal(t, d.WriterSN, got.WriterSN)
	assert.Equal(t, d.SerializedPayload, got.SerializedPayload)
}

func TestGapSubmessageRoundTrip(t *testing.T) {
	g := Gap{WriterID: guid.EntityIDUnknown, GapStart: 3, GapList: NewSNSet(5, []guid.SequenceNumber{5, 7})}
	body := EncodeGap(g)
	got, err := DecodeGap(body)
	require.NoError(t, err)
	assert.Equal(t, g.GapStart, got.GapStart)
	assert.ElementsMatch(t, g.GapList.Sequences(), got.GapList.Sequences())
}
