// Package herrors provides the error taxonomy shared across the HDDS
// runtime. It is a leaf package with no internal dependencies so it can be
// imported by every protocol, transport, and endpoint package without
// causing import cycles.
package herrors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies the failure so callers can react programmatically
// instead of matching on error strings.
type ErrorCode int

const (
	// CodeProtocolError indicates a malformed or unexpected wire message.
	// Protocol errors never propagate to the application; the discovery or
	// reliability layer logs and drops the offending packet.
	CodeProtocolError ErrorCode = iota + 1

	// CodeOutOfResources indicates a bounded resource (history cache slot,
	// slab pool buffer, fragment reassembly slot) is exhausted.
	CodeOutOfResources

	// CodeSerialization indicates a CDR/PL_CDR/XTypes encode or decode
	// failure.
	CodeSerialization

	// CodeTransport indicates a send/receive failure at the transport
	// layer (socket error, SHM ring full, QUIC stream reset).
	CodeTransport

	// CodePreconditionNotMet indicates an API precondition was violated
	// (e.g. writing on a disposed DataWriter).
	CodePreconditionNotMet

	// CodeWouldBlock indicates a non-blocking call could not complete
	// immediately.
	CodeWouldBlock

	// CodeInterrupted indicates a blocking call was interrupted by
	// context cancellation or participant shutdown.
	CodeInterrupted

	// CodeConfiguration indicates invalid configuration discovered at
	// construction time.
	CodeConfiguration

	// CodeFatal indicates an unrecoverable internal invariant violation.
	CodeFatal
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case CodeProtocolError:
		return "ProtocolError"
	case CodeOutOfResources:
		return "OutOfResources"
	case CodeSerialization:
		return "Serialization"
	case CodeTransport:
		return "Transport"
	case CodePreconditionNotMet:
		return "PreconditionNotMet"
	case CodeWouldBlock:
		return "WouldBlock"
	case CodeInterrupted:
		return "Interrupted"
	case CodeConfiguration:
		return "Configuration"
	case CodeFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// Error is the concrete error type returned from every exported HDDS API.
type Error struct {
	Code ErrorCode
	Op   string // operation name, e.g. "cdr.Decode", "endpoint.Write"
	Err  error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error without a wrapped cause.
func New(code ErrorCode, op, msg string) *Error {
	return &Error{Code: code, Op: op, Err: errors.New(msg)}
}

// Wrap builds an *Error around an existing cause, preserving its chain.
func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf extracts the ErrorCode from err, or 0 if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
