package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for RTPS protocol operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Participant / transport attributes
	// ========================================================================
	AttrDomainID        = "rtps.domain_id"
	AttrParticipantGUID = "rtps.participant_guid"
	AttrLocator         = "rtps.locator"
	AttrTransportKind   = "rtps.transport_kind"
	AttrVendorID        = "rtps.vendor_id"

	// ========================================================================
	// Entity attributes (writer/reader)
	// ========================================================================
	AttrEntityGUID  = "rtps.entity_guid"
	AttrEntityKind  = "rtps.entity_kind"
	AttrTopicName   = "rtps.topic_name"
	AttrTypeName    = "rtps.type_name"
	AttrWriterGUID  = "rtps.writer_guid"
	AttrReaderGUID  = "rtps.reader_guid"

	// ========================================================================
	// Sample / sequence attributes
	// ========================================================================
	AttrSequenceNumber = "rtps.sequence_number"
	AttrFragmentNumber = "rtps.fragment_number"
	AttrSampleSize     = "rtps.sample_size"
	AttrInstanceHandle = "rtps.instance_handle"

	// ========================================================================
	// Discovery attributes
	// ========================================================================
	AttrDiscoveryPhase = "discovery.phase" // spdp, sedp
	AttrLeaseDuration  = "discovery.lease_duration"
	AttrDialect        = "discovery.dialect"

	// ========================================================================
	// Reliability attributes
	// ========================================================================
	AttrAckCount     = "reliability.ack_count"
	AttrNackCount    = "reliability.nack_count"
	AttrGapCount     = "reliability.gap_count"
	AttrUnackedCount = "reliability.unacked_count"

	// ========================================================================
	// QoS attributes
	// ========================================================================
	AttrReliabilityKind = "qos.reliability"
	AttrDurabilityKind  = "qos.durability"
	AttrHistoryDepth    = "qos.history_depth"

	// ========================================================================
	// Cloud discovery / storage attributes
	// ========================================================================
	AttrBucket = "storage.bucket"
	AttrKey    = "storage.key"
	AttrRegion = "storage.region"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// ========================================================================
	// Discovery spans
	// ========================================================================
	SpanSPDPAnnounce = "discovery.spdp.announce"
	SpanSPDPReceive  = "discovery.spdp.receive"
	SpanSEDPAnnounce = "discovery.sedp.announce"
	SpanSEDPReceive  = "discovery.sedp.receive"
	SpanDialectProbe = "discovery.dialect.probe"
	SpanMatch        = "discovery.match"

	// ========================================================================
	// Reliability spans
	// ========================================================================
	SpanWriterSend      = "reliability.writer.send"
	SpanWriterHeartbeat = "reliability.writer.heartbeat"
	SpanReaderAckNack   = "reliability.reader.acknack"
	SpanReaderReceive   = "reliability.reader.receive"
	SpanGapProcess      = "reliability.gap.process"
	SpanFragReassemble  = "reliability.fragment.reassemble"

	// ========================================================================
	// Endpoint spans
	// ========================================================================
	SpanDataWriterWrite  = "endpoint.datawriter.write"
	SpanDataReaderTake   = "endpoint.datareader.take"
	SpanDataReaderRead   = "endpoint.datareader.read"
	SpanWaitSetWait      = "endpoint.waitset.wait"
	SpanDeadlineMissed   = "endpoint.deadline.missed"
	SpanLivelinessAssert = "endpoint.liveliness.assert"

	// ========================================================================
	// Transport / serialization spans
	// ========================================================================
	SpanTransportSend = "transport.send"
	SpanTransportRecv = "transport.recv"
	SpanCDREncode     = "cdr.encode"
	SpanCDRDecode     = "cdr.decode"
)

// DomainID returns an attribute for the RTPS domain ID.
func DomainID(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrDomainID, int64(id))
}

// ParticipantGUID returns an attribute for a participant's GUID.
func ParticipantGUID(guid string) attribute.KeyValue {
	return attribute.String(AttrParticipantGUID, guid)
}

// Locator returns an attribute for an RTPS locator.
func Locator(locator string) attribute.KeyValue {
	return attribute.String(AttrLocator, locator)
}

// TransportKind returns an attribute for the transport kind (udp, tcp, quic, shm).
func TransportKind(kind string) attribute.KeyValue {
	return attribute.String(AttrTransportKind, kind)
}

// EntityGUID returns an attribute for a writer or reader entity GUID.
func EntityGUID(guid string) attribute.KeyValue {
	return attribute.String(AttrEntityGUID, guid)
}

// TopicName returns an attribute for a topic name.
func TopicName(name string) attribute.KeyValue {
	return attribute.String(AttrTopicName, name)
}

// TypeName returns an attribute for an XTypes type name.
func TypeName(name string) attribute.KeyValue {
	return attribute.String(AttrTypeName, name)
}

// WriterGUID returns an attribute for a writer's GUID.
func WriterGUID(guid string) attribute.KeyValue {
	return attribute.String(AttrWriterGUID, guid)
}

// ReaderGUID returns an attribute for a reader's GUID.
func ReaderGUID(guid string) attribute.KeyValue {
	return attribute.String(AttrReaderGUID, guid)
}

// SequenceNumber returns an attribute for an RTPS sequence number.
func SequenceNumber(sn int64) attribute.KeyValue {
	return attribute.Int64(AttrSequenceNumber, sn)
}

// FragmentNumber returns an attribute for a DATA_FRAG fragment number.
func FragmentNumber(n uint32) attribute.KeyValue {
	return attribute.Int64(AttrFragmentNumber, int64(n))
}

// SampleSize returns an attribute for a serialized sample's byte size.
func SampleSize(size int) attribute.KeyValue {
	return attribute.Int(AttrSampleSize, size)
}

// DiscoveryPhase returns an attribute for the discovery phase (spdp/sedp).
func DiscoveryPhase(phase string) attribute.KeyValue {
	return attribute.String(AttrDiscoveryPhase, phase)
}

// Dialect returns an attribute for the detected vendor dialect.
func Dialect(dialect string) attribute.KeyValue {
	return attribute.String(AttrDialect, dialect)
}

// AckCount returns an attribute for the number of acknowledged sequence numbers.
func AckCount(n int) attribute.KeyValue {
	return attribute.Int(AttrAckCount, n)
}

// NackCount returns an attribute for the number of negatively-acknowledged sequence numbers.
func NackCount(n int) attribute.KeyValue {
	return attribute.Int(AttrNackCount, n)
}

// ReliabilityKind returns an attribute for a QoS reliability kind.
func ReliabilityKind(kind string) attribute.KeyValue {
	return attribute.String(AttrReliabilityKind, kind)
}

// DurabilityKind returns an attribute for a QoS durability kind.
func DurabilityKind(kind string) attribute.KeyValue {
	return attribute.String(AttrDurabilityKind, kind)
}

// Bucket returns an attribute for an S3 bucket name (cloud discovery rendezvous).
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for an S3 object key.
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// StartDiscoverySpan starts a span for a discovery operation (SPDP/SEDP).
func StartDiscoverySpan(ctx context.Context, name string, participant string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{ParticipantGUID(participant)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartReliabilitySpan starts a span for a reliability-engine operation (HEARTBEAT/ACKNACK/GAP).
func StartReliabilitySpan(ctx context.Context, name string, entity string, sn int64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{EntityGUID(entity), SequenceNumber(sn)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartEndpointSpan starts a span for a DataWriter/DataReader operation.
func StartEndpointSpan(ctx context.Context, name string, entity string, topic string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{EntityGUID(entity), TopicName(topic)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}

// StartTransportSpan starts a span for a transport send/recv operation.
func StartTransportSpan(ctx context.Context, name string, kind string, locator string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{TransportKind(kind), Locator(locator)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
