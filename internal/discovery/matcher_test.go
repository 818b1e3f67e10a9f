package discovery

import (
	"testing"

	"github.com/naskel/hdds/internal/qos"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeCompatibleHashMatch(t *testing.T) {
	ok, reason := TypeCompatible("Writer", []byte("same-bytes"), "Reader", []byte("same-bytes"))
	assert.True(t, ok)
	assert.Equal(t, "type_object_hash_match", reason)
}

func TestTypeCompatibleHashMismatch(t *testing.T) {
	ok, reason := TypeCompatible("Writer", []byte("one"), "Reader", []byte("other"))
	assert.False(t, ok)
	assert.Equal(t, "type_object_hash_mismatch", reason)
}

func TestTypeCompatibleFallsBackToNameMatch(t *testing.T) {
	ok, reason := TypeCompatible("SensorReading", nil, "SensorReading", nil)
	assert.True(t, ok)
	assert.Equal(t, "name_match", reason)
}

func TestTypeCompatibleNameMismatch(t *testing.T) {
	ok, reason := TypeCompatible("SensorReading", nil, "OtherType", nil)
	assert.False(t, ok)
	assert.Equal(t, "name_mismatch", reason)
}

func TestMatchTopicMismatch(t *testing.T) {
	w := EndpointProxy{TopicName: "a", TypeName: "T", Policies: qos.Default()}
	r := EndpointProxy{TopicName: "b", TypeName: "T", Policies: qos.Default()}
	res := Match(w, r)
	assert.False(t, res.Compatible)
	assert.Equal(t, "topic_mismatch", res.TypeReason)
}

func TestMatchQoSMismatch(t *testing.T) {
	w := EndpointProxy{TopicName: "t", TypeName: "T", Policies: qos.Default()}
	r := EndpointProxy{TopicName: "t", TypeName: "T", Policies: qos.Default()}
	r.Policies.Reliability = qos.Reliable // writer stays BestEffort: incompatible
	res := Match(w, r)
	assert.False(t, res.Compatible)
	require.NotEmpty(t, res.Mismatches)
}

func TestMatchFullyCompatible(t *testing.T) {
	w := EndpointProxy{
		GUID: guid.New(testPrefix(0x10), guid.EntityIDSEDPPubW),
		TopicName: "t", TypeName: "T", Policies: qos.Default(),
	}
	r := EndpointProxy{
		GUID: guid.New(testPrefix(0x11), guid.EntityIDSEDPSubW),
		TopicName: "t", TypeName: "T", Policies: qos.Default(),
	}
	res := Match(w, r)
	assert.True(t, res.Compatible)
	assert.Empty(t, res.Mismatches)
}
