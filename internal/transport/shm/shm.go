//go:build linux

// Package shm implements the Linux shared-memory transport variant (§4.3
// Design Notes): a POSIX shm segment per writer/topic pair, a ring of
// fixed-size slots each holding one sample inline, and futex-based
// blocking notification —
// avoiding a socket round-trip through the kernel network stack for
// same-host writer/reader pairs.
package shm

import (
	"context"
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/naskel/hdds/internal/herrors"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// notificationBuckets is the fixed futex wait-word count per ring,
// matching the Design Notes' bucket count.
const notificationBuckets = 256

// bucketSize is the Design Notes' 64-byte notification cell size. The
// ring header does not use it: its futex words are packed as plain uint32s.
const bucketSize = 64

// ringEntries is the number of sample slots in a ring. Write reuses slot
// seq%ringEntries without checking whether readers have consumed it, so a
// reader more than ringEntries samples behind finds newer samples there.
const ringEntries = 1024

// ringHeader is the fixed-size control block at the start of the shm
// segment. Fields are accessed with atomic operations since both writer
// and readers map the same pages.
type ringHeader struct {
	writeSeq uint64 // next slot to be written, monotonically increasing
	notify   [notificationBuckets]uint32 // futex words, one per bucket
}

// Ring is one writer's shared-memory sample ring, created by the writer
// and opened read-only by local readers on the same host.
type Ring struct {
	name string
	fd   int
	data []byte
	hdr  *ringHeader
	body []byte // ringEntries inline-payload slots after the header
}

// segmentName builds the POSIX shm object name
// /hdds_d{domain}_w{writer}_{topic} from the Design Notes.
func segmentName(domainID uint32, writer guid.GUID, topic string) string {
	return fmt.Sprintf("/hdds_d%d_w%s_%s", domainID, writer.EntityID, topic)
}

// CreateRing creates (or truncates) the shm segment for a local writer and
// maps it read-write.
func CreateRing(domainID uint32, writer guid.GUID, topic string) (*Ring, error) {
	name := segmentName(domainID, writer, topic)
	fd, err := unix.ShmOpen(name, unix.O_CREAT|unix.O_RDWR, 0600)
	if err != nil {
		return nil, herrors.Wrap(herrors.CodeTransport, "shm.CreateRing", err)
	}
	size := int(unsafe.Sizeof(ringHeader{})) + ringEntries*slotSize
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, herrors.Wrap(herrors.CodeTransport, "shm.CreateRing", err)
	}
	return mapRing(name, fd, size, true)
}

// OpenRing opens an existing writer's ring read-only, for a local reader.
func OpenRing(domainID uint32, writer guid.GUID, topic string) (*Ring, error) {
	name := segmentName(domainID, writer, topic)
	fd, err := unix.ShmOpen(name, unix.O_RDONLY, 0)
	if err != nil {
		return nil, herrors.Wrap(herrors.CodeTransport, "shm.OpenRing", err)
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, herrors.Wrap(herrors.CodeTransport, "shm.OpenRing", err)
	}
	return mapRing(name, fd, int(st.Size), false)
}

// slotSize is the per-sample slot size: a 4-byte length prefix plus a
// fixed inline payload budget; Write rejects larger samples.
const slotSize = 4 + 8192

func mapRing(name string, fd int, size int, writable bool) (*Ring, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(fd, 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, herrors.Wrap(herrors.CodeTransport, "shm.mapRing", err)
	}
	r := &Ring{
		name: name,
		fd:   fd,
		data: data,
		hdr:  (*ringHeader)(unsafe.Pointer(&data[0])),
		body: data[unsafe.Sizeof(ringHeader{}):],
	}
	return r, nil
}

// Write appends a sample to the ring and wakes every waiting reader via
// FUTEX_WAKE on the shared notification word.
func (r *Ring) Write(data []byte) error {
	if len(data) > slotSize-4 {
		return herrors.New(herrors.CodeOutOfResources, "shm.Ring.Write", "sample exceeds inline shm slot size")
	}
	seq := atomic.AddUint64(&r.hdr.writeSeq, 1) - 1
	slot := r.body[(int(seq)%ringEntries)*slotSize:]
	putUint32(slot, uint32(len(data)))
	copy(slot[4:], data)

	bucket := int(seq) % notificationBuckets
	atomic.AddUint32(&r.hdr.notify[bucket], 1)
	return r.futexWake(bucket)
}

// WaitNext blocks until sequence number seq is available (or ctx is
// cancelled), returning its payload.
func (r *Ring) WaitNext(ctx context.Context, seq uint64) ([]byte, error) {
	for {
		if atomic.LoadUint64(&r.hdr.writeSeq) > seq {
			slot := r.body[(int(seq)%ringEntries)*slotSize:]
			n := getUint32(slot)
			out := make([]byte, n)
			copy(out, slot[4:4+n])
			return out, nil
		}
		bucket := int(seq) % notificationBuckets
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
			case <-done:
			}
		}()
		if err := r.futexWait(bucket, ctx); err != nil {
			close(done)
			return nil, err
		}
		close(done)
		select {
		case <-ctx.Done():
			return nil, herrors.Wrap(herrors.CodeInterrupted, "shm.Ring.WaitNext", ctx.Err())
		default:
		}
	}
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Close unmaps and closes the segment. The creating writer additionally
// unlinks the name so the segment is reclaimed once every mapping drops.
func (r *Ring) Close(unlink bool) error {
	err := unix.Munmap(r.data)
	_ = unix.Close(r.fd)
	if unlink {
		_ = unix.ShmUnlink(r.name)
	}
	if err != nil {
		return herrors.Wrap(herrors.CodeTransport, "shm.Ring.Close", err)
	}
	return nil
}
