package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Domain & Participant
	// ========================================================================
	KeyDomainID     = "domain_id"    // DDS domain id
	KeyParticipant  = "participant"  // participant GUID prefix, hex
	KeyGUID         = "guid"         // full entity GUID, hex
	KeyWriterGUID   = "writer_guid"  // writer entity GUID, hex
	KeyReaderGUID   = "reader_guid"  // reader entity GUID, hex
	KeyOperation    = "operation"    // logical operation name
	KeyVendorID     = "vendor_id"    // RTPS vendor ID, hex

	// ========================================================================
	// Topic & Type
	// ========================================================================
	KeyTopic     = "topic"     // topic name
	KeyTypeName  = "type_name" // registered type name
	KeyTypeHash  = "type_hash" // XTypes equivalence hash, hex

	// ========================================================================
	// Discovery
	// ========================================================================
	KeyDialect     = "dialect"     // detected vendor dialect
	KeyLeaseMs     = "lease_ms"    // participant lease duration
	KeyProbeScore  = "probe_score" // dialect probe confidence score

	// ========================================================================
	// Transport
	// ========================================================================
	KeyLocator   = "locator"   // RTPS locator (kind:address:port)
	KeyTransport = "transport" // transport kind: udp, tcp, shm, quic
	KeyIface     = "iface"     // network interface name
	KeyBytes     = "bytes"     // payload size in bytes

	// ========================================================================
	// Reliability
	// ========================================================================
	KeySeq        = "seq"         // sequence number
	KeySeqFirst   = "seq_first"   // range start sequence number
	KeySeqLast    = "seq_last"    // range end sequence number
	KeyCount      = "count"       // generic item count
	KeyFragNum    = "frag_num"    // fragment number
	KeyFragCount  = "frag_count"  // total fragment count

	// ========================================================================
	// QoS
	// ========================================================================
	KeyQoSPolicy = "qos_policy" // QoS policy name involved in a mismatch

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyErrorCode  = "error_code"  // taxonomy error code
	KeyAttempt    = "attempt"     // retry attempt number
	KeyMaxRetries = "max_retries" // maximum retry attempts

	// ========================================================================
	// Cloud rendezvous discovery
	// ========================================================================
	KeyBucket = "bucket" // S3 bucket name
	KeyKey    = "key"    // S3 object key
	KeyRegion = "region" // cloud region
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Domain & Participant
// ----------------------------------------------------------------------------

// DomainID returns a slog.Attr for the DDS domain id
func DomainID(id uint32) slog.Attr {
	return slog.Any(KeyDomainID, id)
}

// Participant returns a slog.Attr for a participant GUID prefix (hex)
func Participant(prefix []byte) slog.Attr {
	return slog.String(KeyParticipant, fmt.Sprintf("%x", prefix))
}

// GUID returns a slog.Attr for an entity GUID (hex)
func GUID(g []byte) slog.Attr {
	return slog.String(KeyGUID, fmt.Sprintf("%x", g))
}

// WriterGUID returns a slog.Attr for a writer GUID (hex)
func WriterGUID(g []byte) slog.Attr {
	return slog.String(KeyWriterGUID, fmt.Sprintf("%x", g))
}

// ReaderGUID returns a slog.Attr for a reader GUID (hex)
func ReaderGUID(g []byte) slog.Attr {
	return slog.String(KeyReaderGUID, fmt.Sprintf("%x", g))
}

// Operation returns a slog.Attr for the logical operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// VendorID returns a slog.Attr for an RTPS vendor id
func VendorID(v [2]byte) slog.Attr {
	return slog.String(KeyVendorID, fmt.Sprintf("%x", v))
}

// ----------------------------------------------------------------------------
// Topic & Type
// ----------------------------------------------------------------------------

// Topic returns a slog.Attr for topic name
func Topic(name string) slog.Attr {
	return slog.String(KeyTopic, name)
}

// TypeName returns a slog.Attr for a registered type name
func TypeName(name string) slog.Attr {
	return slog.String(KeyTypeName, name)
}

// TypeHash returns a slog.Attr for an XTypes equivalence hash
func TypeHash(h []byte) slog.Attr {
	return slog.String(KeyTypeHash, fmt.Sprintf("%x", h))
}

// ----------------------------------------------------------------------------
// Discovery
// ----------------------------------------------------------------------------

// Dialect returns a slog.Attr for the detected vendor dialect
func Dialect(d string) slog.Attr {
	return slog.String(KeyDialect, d)
}

// LeaseMs returns a slog.Attr for a lease duration in milliseconds
func LeaseMs(ms int64) slog.Attr {
	return slog.Int64(KeyLeaseMs, ms)
}

// ProbeScore returns a slog.Attr for a dialect probe confidence score
func ProbeScore(score float64) slog.Attr {
	return slog.Float64(KeyProbeScore, score)
}

// ----------------------------------------------------------------------------
// Transport
// ----------------------------------------------------------------------------

// Locator returns a slog.Attr for an RTPS locator string
func Locator(l string) slog.Attr {
	return slog.String(KeyLocator, l)
}

// Transport returns a slog.Attr for the transport kind
func Transport(kind string) slog.Attr {
	return slog.String(KeyTransport, kind)
}

// Iface returns a slog.Attr for a network interface name
func Iface(name string) slog.Attr {
	return slog.String(KeyIface, name)
}

// Bytes returns a slog.Attr for a payload size
func Bytes(n int) slog.Attr {
	return slog.Int(KeyBytes, n)
}

// ----------------------------------------------------------------------------
// Reliability
// ----------------------------------------------------------------------------

// Seq returns a slog.Attr for a sequence number
func Seq(n int64) slog.Attr {
	return slog.Int64(KeySeq, n)
}

// SeqRange returns slog.Attrs for a sequence number range
func SeqRange(first, last int64) []slog.Attr {
	return []slog.Attr{slog.Int64(KeySeqFirst, first), slog.Int64(KeySeqLast, last)}
}

// Count returns a slog.Attr for a generic item count
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// FragNum returns a slog.Attr for a fragment number
func FragNum(n uint32) slog.Attr {
	return slog.Any(KeyFragNum, n)
}

// FragCount returns a slog.Attr for a total fragment count
func FragCount(n uint32) slog.Attr {
	return slog.Any(KeyFragCount, n)
}

// ----------------------------------------------------------------------------
// QoS
// ----------------------------------------------------------------------------

// QoSPolicy returns a slog.Attr for a QoS policy name
func QoSPolicy(name string) slog.Attr {
	return slog.String(KeyQoSPolicy, name)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a taxonomy error code
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// ----------------------------------------------------------------------------
// Cloud rendezvous discovery
// ----------------------------------------------------------------------------

// Bucket returns a slog.Attr for an S3 bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for an S3 object key
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Region returns a slog.Attr for a cloud region
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}
