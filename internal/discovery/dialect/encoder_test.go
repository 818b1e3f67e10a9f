package dialect

import (
	"testing"

	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/rtps/cdr"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeParams(t *testing.T, payload []byte) map[cdr.PID]cdr.Parameter {
	t.Helper()
	scheme, _, body, err := cdr.ReadHeader(payload)
	require.NoError(t, err)
	r := cdr.NewReader(scheme, body)
	pr := cdr.NewParameterListReader(r)
	params, err := pr.ReadAll()
	require.NoError(t, err)
	out := make(map[cdr.PID]cdr.Parameter, len(params))
	for _, p := range params {
		out[p.ID] = p
	}
	return out
}

func samplePrefix() guid.GUIDPrefix {
	var p guid.GUIDPrefix
	for i := range p {
		p[i] = byte(i + 1)
	}
	return p
}

func TestHybridEncodeSPDPContainsCoreParams(t *testing.T) {
	enc := NewHybridEncoder()
	p := ParticipantFields{
		GUID:             guid.New(samplePrefix(), guid.EntityIDParticipant),
		ParticipantName:  "hybrid-test",
		BuiltinEndpoints: 0xFF,
	}
	wire := enc.EncodeSPDP(p, [2]byte(VendorIDHDDS))
	params := decodeParams(t, wire)

	assert.Contains(t, params, cdr.PIDParticipantGUID)
	assert.Contains(t, params, cdr.PIDVendorID)
	assert.Contains(t, params, cdr.PIDEntityName)
	assert.Contains(t, params, cdr.PIDParticipantLease)
	assert.Contains(t, params, cdr.PIDBuiltinEndpointSet)
}

func TestHybridEncodeSEDPOmitsOptionalTypeInfo(t *testing.T) {
	enc := NewHybridEncoder()
	ep := EndpointFields{
		GUID:      guid.New(samplePrefix(), guid.EntityIDSEDPPubW),
		TopicName: "t",
		TypeName:  "T",
		Policies:  qos.Default(),
	}
	wire := enc.EncodeSEDP(ep, [2]byte(VendorIDHDDS))
	params := decodeParams(t, wire)

	assert.Contains(t, params, cdr.PIDTopicName)
	assert.Contains(t, params, cdr.PIDTypeName)
	assert.NotContains(t, params, cdr.PIDTypeInformation)
	assert.NotContains(t, params, cdr.PIDDataRepresentation)
}

func TestOpenDDSEncodeSEDPAddsMandatoryPIDs(t *testing.T) {
	enc := NewOpenDDSEncoder()
	ep := EndpointFields{
		GUID:      guid.New(samplePrefix(), guid.EntityIDSEDPPubW),
		TopicName: "t",
		TypeName:  "T",
		Policies:  qos.Default(),
	}
	wire := enc.EncodeSEDP(ep, [2]byte(VendorIDOpenDDS))
	params := decodeParams(t, wire)

	assert.Contains(t, params, cdr.PIDDataRepresentation, "OpenDDS requires PID_DATA_REPRESENTATION unconditionally")
	assert.Contains(t, params, cdr.PIDTypeInformation, "OpenDDS requires PID_TYPE_INFORMATION unconditionally")
	// still carries the fields hybrid would have produced
	assert.Contains(t, params, cdr.PIDTopicName)
	assert.Contains(t, params, cdr.PIDEndpointGUID)
}

func TestOpenDDSEncodeSEDPRemainsParseable(t *testing.T) {
	enc := NewOpenDDSEncoder()
	ep := EndpointFields{
		GUID:      guid.New(samplePrefix(), guid.EntityIDSEDPPubW),
		TopicName: "spliced-topic",
		TypeName:  "T",
		Policies:  qos.Default(),
	}
	wire := enc.EncodeSEDP(ep, [2]byte(VendorIDOpenDDS))
	params := decodeParams(t, wire)

	topicParam := params[cdr.PIDTopicName]
	sr := cdr.NewReader(cdr.SchemeCDR_LE, topicParam.Value)
	name, err := sr.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "spliced-topic", name)
}
