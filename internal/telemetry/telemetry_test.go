package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "hdds", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	err = shutdown(ctx)
	assert.NoError(t, err)

	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	tracer = nil
	enabled = false

	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		SetAttributes(ctx, DomainID(0))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "", TraceID(ctx))
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "", SpanID(ctx))
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("DomainID", func(t *testing.T) {
		attr := DomainID(42)
		assert.Equal(t, AttrDomainID, string(attr.Key))
		assert.Equal(t, int64(42), attr.Value.AsInt64())
	})

	t.Run("ParticipantGUID", func(t *testing.T) {
		attr := ParticipantGUID("01.02.03.04.05.06.07.08.09.0a.0b.0c|00.00.01.c1")
		assert.Equal(t, AttrParticipantGUID, string(attr.Key))
	})

	t.Run("Locator", func(t *testing.T) {
		attr := Locator("udpv4://239.255.0.1:7401")
		assert.Equal(t, AttrLocator, string(attr.Key))
	})

	t.Run("TransportKind", func(t *testing.T) {
		attr := TransportKind("udp")
		assert.Equal(t, AttrTransportKind, string(attr.Key))
		assert.Equal(t, "udp", attr.Value.AsString())
	})

	t.Run("EntityGUID", func(t *testing.T) {
		attr := EntityGUID("guid-1")
		assert.Equal(t, AttrEntityGUID, string(attr.Key))
	})

	t.Run("TopicName", func(t *testing.T) {
		attr := TopicName("Square")
		assert.Equal(t, AttrTopicName, string(attr.Key))
		assert.Equal(t, "Square", attr.Value.AsString())
	})

	t.Run("TypeName", func(t *testing.T) {
		attr := TypeName("ShapeType")
		assert.Equal(t, AttrTypeName, string(attr.Key))
	})

	t.Run("SequenceNumber", func(t *testing.T) {
		attr := SequenceNumber(123)
		assert.Equal(t, AttrSequenceNumber, string(attr.Key))
		assert.Equal(t, int64(123), attr.Value.AsInt64())
	})

	t.Run("FragmentNumber", func(t *testing.T) {
		attr := FragmentNumber(3)
		assert.Equal(t, AttrFragmentNumber, string(attr.Key))
	})

	t.Run("SampleSize", func(t *testing.T) {
		attr := SampleSize(1024)
		assert.Equal(t, AttrSampleSize, string(attr.Key))
	})

	t.Run("DiscoveryPhase", func(t *testing.T) {
		attr := DiscoveryPhase("spdp")
		assert.Equal(t, AttrDiscoveryPhase, string(attr.Key))
		assert.Equal(t, "spdp", attr.Value.AsString())
	})

	t.Run("Dialect", func(t *testing.T) {
		attr := Dialect("fastdds")
		assert.Equal(t, AttrDialect, string(attr.Key))
	})

	t.Run("AckCount", func(t *testing.T) {
		attr := AckCount(7)
		assert.Equal(t, AttrAckCount, string(attr.Key))
	})

	t.Run("NackCount", func(t *testing.T) {
		attr := NackCount(2)
		assert.Equal(t, AttrNackCount, string(attr.Key))
	})

	t.Run("ReliabilityKind", func(t *testing.T) {
		attr := ReliabilityKind("reliable")
		assert.Equal(t, AttrReliabilityKind, string(attr.Key))
	})

	t.Run("DurabilityKind", func(t *testing.T) {
		attr := DurabilityKind("transient_local")
		assert.Equal(t, AttrDurabilityKind, string(attr.Key))
	})

	t.Run("Bucket", func(t *testing.T) {
		attr := Bucket("my-bucket")
		assert.Equal(t, AttrBucket, string(attr.Key))
	})

	t.Run("StorageKey", func(t *testing.T) {
		attr := StorageKey("hdds-discovery/domain-0/participants.json")
		assert.Equal(t, AttrKey, string(attr.Key))
	})
}

func TestStartDiscoverySpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartDiscoverySpan(ctx, SpanSPDPAnnounce, "participant-1")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartReliabilitySpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartReliabilitySpan(ctx, SpanWriterHeartbeat, "writer-1", 5)
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartEndpointSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartEndpointSpan(ctx, SpanDataWriterWrite, "writer-1", "Square")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartTransportSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartTransportSpan(ctx, SpanTransportSend, "udp", "239.255.0.1:7401")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}
