//go:build linux

package shm

import (
	"context"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/naskel/hdds/internal/herrors"
)

// futexPollInterval bounds how long a single FUTEX_WAIT call blocks before
// re-checking ctx, since a shared-segment waiter has no portable way to be
// woken purely by context cancellation.
const futexPollInterval = 200 * time.Millisecond

// futexWait blocks on the notification word for bucket until it changes
// or futexPollInterval elapses, then reports ctx cancellation if ctx is
// done; cancellation alone does not end the wait early. Uses
// the plain FUTEX_WAIT operation, not FUTEX_WAIT_PRIVATE, because the word
// lives in a segment shared across unrelated processes (Design Notes).
func (r *Ring) futexWait(bucket int, ctx context.Context) error {
	word := &r.hdr.notify[bucket]
	expected := *word
	ts := unix.Timespec{Sec: int64(futexPollInterval / time.Second), Nsec: int64(futexPollInterval % time.Second)}

	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(word)),
		uintptr(unix.FUTEX_WAIT),
		uintptr(expected),
		uintptr(unsafe.Pointer(&ts)),
		0, 0,
	)
	if errno != 0 && errno != unix.EAGAIN && errno != unix.ETIMEDOUT && errno != unix.EINTR {
		return herrors.Wrap(herrors.CodeTransport, "shm.futexWait", errno)
	}
	select {
	case <-ctx.Done():
		return herrors.Wrap(herrors.CodeInterrupted, "shm.futexWait", ctx.Err())
	default:
	}
	return nil
}

// futexWake wakes every waiter on bucket's notification word.
func (r *Ring) futexWake(bucket int) error {
	word := &r.hdr.notify[bucket]
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(word)),
		uintptr(unix.FUTEX_WAKE),
		uintptr(^uint32(0)>>1), // wake all waiters
		0, 0, 0,
	)
	if errno != 0 {
		return herrors.Wrap(herrors.CodeTransport, "shm.futexWake", errno)
	}
	return nil
}
