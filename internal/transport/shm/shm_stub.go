//go:build !linux

// Package shm implements the Linux shared-memory transport variant. On
// non-Linux platforms it is entirely unsupported; callers degrade to UDP
// (§4.3 Design Notes "best-effort degradation").
package shm

import (
	"context"
	"errors"

	"github.com/naskel/hdds/internal/rtps/guid"
)

// ErrNotSupported is returned by every operation on non-Linux platforms.
var ErrNotSupported = errors.New("shm: shared-memory transport is Linux-only")

// Ring is an opaque stand-in so callers can reference the type on every
// platform; no instance is ever constructed outside Linux.
type Ring struct{}

func CreateRing(domainID uint32, writer guid.GUID, topic string) (*Ring, error) {
	return nil, ErrNotSupported
}

func OpenRing(domainID uint32, writer guid.GUID, topic string) (*Ring, error) {
	return nil, ErrNotSupported
}

func (r *Ring) Write(data []byte) error { return ErrNotSupported }

func (r *Ring) WaitNext(ctx context.Context, seq uint64) ([]byte, error) {
	return nil, ErrNotSupported
}

func (r *Ring) Close(unlink bool) error { return ErrNotSupported }
