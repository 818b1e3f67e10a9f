package discovery

import (
	"testing"
	"time"

	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrefix(b byte) guid.GUIDPrefix {
	var p guid.GUIDPrefix
	for i := range p {
		p[i] = b
	}
	return p
}

func TestEncodeDecodeSPDPRoundTrip(t *testing.T) {
	p := ParticipantProxy{
		GUID:                 guid.New(testPrefix(0x01), guid.EntityIDParticipant),
		ProtocolVersionMajor: 2,
		ProtocolVersionMinor: 3,
		VendorID:             [2]byte{0x01, 0x02},
		ParticipantName:      "tester",
		MetatrafficUnicastLocators: []guid.Locator{
			{Kind: guid.LocatorKindUDPv4, Port: 7410, Address: [16]byte{15: 1}},
		},
		DefaultUnicastLocators: []guid.Locator{
			{Kind: guid.LocatorKindUDPv4, Port: 7411, Address: [16]byte{15: 2}},
		},
		LeaseDuration:    30 * time.Second,
		BuiltinEndpoints: 0xFF,
	}

	wire := EncodeSPDP(p)
	got, err := DecodeSPDP(wire)
	require.NoError(t, err)

	assert.Equal(t, p.GUID, got.GUID)
	assert.Equal(t, p.ProtocolVersionMajor, got.ProtocolVersionMajor)
	assert.Equal(t, p.ProtocolVersionMinor, got.ProtocolVersionMinor)
	assert.Equal(t, p.VendorID, got.VendorID)
	assert.Equal(t, p.ParticipantName, got.ParticipantName)
	assert.Equal(t, p.BuiltinEndpoints, got.BuiltinEndpoints)
	assert.WithinDuration(t, time.Time{}.Add(p.LeaseDuration), time.Time{}.Add(got.LeaseDuration), time.Millisecond)
	require.Len(t, got.MetatrafficUnicastLocators, 1)
	assert.Equal(t, p.MetatrafficUnicastLocators[0], got.MetatrafficUnicastLocators[0])
	require.Len(t, got.DefaultUnicastLocators, 1)
	assert.Equal(t, p.DefaultUnicastLocators[0], got.DefaultUnicastLocators[0])
}

func TestDecodeSPDPMissingGUIDFails(t *testing.T) {
	p := ParticipantProxy{VendorID: [2]byte{1, 2}}
	wire := EncodeSPDP(p)
	_, err := DecodeSPDP(wire)
	assert.Error(t, err)
}

func TestDecodeSPDPDefaultsLeaseWhenOmitted(t *testing.T) {
	// A hand-built payload with only the required GUID param, no lease.
	w := cdr.NewWriter(cdr.SchemePL_CDR_LE, 64)
	pw := cdr.NewParameterListWriter(w)
	pw.WriteParam(cdr.PIDParticipantGUID, guidBytes(guid.New(testPrefix(0x02), guid.EntityIDParticipant)))
	pw.WriteSentinel()
	wire := w.FinishWithBody()
	got, err := DecodeSPDP(wire)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Second, got.LeaseDuration)
}

func TestEncodeDecodeSEDPRoundTrip(t *testing.T) {
	e := EndpointProxy{
		GUID:      guid.New(testPrefix(0x03), guid.EntityIDSEDPPubW),
		TopicName: "topic/sensor",
		TypeName:  "SensorReading",
		Policies:  qos.Default(),
	}
	e.Policies.Reliability = qos.Reliable
	e.Policies.Durability = qos.TransientLocal
	e.Policies.Partitions = []string{"zoneA", "zoneB"}

	wire := EncodeSEDP(e)
	got, err := DecodeSEDP(wire)
	require.NoError(t, err)

	assert.Equal(t, e.GUID, got.GUID)
	assert.Equal(t, e.TopicName, got.TopicName)
	assert.Equal(t, e.TypeName, got.TypeName)
	assert.Equal(t, qos.Reliable, got.Policies.Reliability)
	assert.Equal(t, qos.TransientLocal, got.Policies.Durability)
	assert.ElementsMatch(t, e.Policies.Partitions, got.Policies.Partitions)
}

func TestDecodeSEDPMissingGUIDFails(t *testing.T) {
	e := EndpointProxy{TopicName: "x"}
	wire := EncodeSEDP(e)
	_, err := DecodeSEDP(wire)
	assert.Error(t, err)
}
