package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a participant
// operation (discovery callback, reliability tick, endpoint call).
type LogContext struct {
	TraceID     string    // OpenTelemetry trace ID
	SpanID      string    // OpenTelemetry span ID
	Operation   string    // logical operation name (spdp_receive, acknack_send, write, ...)
	Topic       string    // topic name, if applicable
	Participant string    // participant GUID prefix, hex
	DomainID    uint32    // DDS domain id
	StartTime   time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for the given domain id.
func NewLogContext(domainID uint32) *LogContext {
	return &LogContext{
		DomainID:  domainID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:     lc.TraceID,
		SpanID:      lc.SpanID,
		Operation:   lc.Operation,
		Topic:       lc.Topic,
		Participant: lc.Participant,
		DomainID:    lc.DomainID,
		StartTime:   lc.StartTime,
	}
}

// WithOperation returns a copy with the operation set
func (lc *LogContext) WithOperation(op string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = op
	}
	return clone
}

// WithTopic returns a copy with the topic set
func (lc *LogContext) WithTopic(topic string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Topic = topic
	}
	return clone
}

// WithParticipant returns a copy with the participant GUID prefix set
func (lc *LogContext) WithParticipant(guid string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Participant = guid
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
