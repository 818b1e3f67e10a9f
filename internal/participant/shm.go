package participant

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/naskel/hdds/internal/transport/shm"
)

// shmMirrorInterval is how often attachSHMWriter polls a local writer's
// HistoryCache for new entries to mirror into its ring. The network path
// remains authoritative; this is a best-effort low-latency shortcut for
// readers on the same host.
const shmMirrorInterval = 2 * time.Millisecond

// attachSHMWriter creates the ring for a freshly built local writer, when
// EnableSHM is set, and starts the goroutine that mirrors every newly
// appended CacheChange into it. A failure to create the ring (platform
// unsupported, or a prior segment with stale permissions) is logged and
// otherwise ignored: readers simply never find the segment and stay on
// the reliable network path.
func (p *Participant) attachSHMWriter(ctx context.Context, lw *localWriter) {
	if !p.cfg.EnableSHM {
		return
	}
	ring, err := shm.CreateRing(p.cfg.Domain, lw.proxy.GUID, lw.topic)
	if err != nil {
		logger.Debug("shm ring unavailable for writer, falling back to network-only delivery",
			logger.Err(err))
		return
	}
	lw.shmRing = ring
	go p.mirrorToSHM(ctx, lw)
}

func (p *Participant) mirrorToSHM(ctx context.Context, lw *localWriter) {
	ticker := time.NewTicker(shmMirrorInterval)
	defer ticker.Stop()
	last := guid.SequenceNumber(0)
	for {
		select {
		case <-ctx.Done():
			_ = lw.shmRing.Close(true)
			return
		case <-ticker.C:
			newest := lw.rw.History().LastAvailable()
			if newest <= last {
				continue
			}
			for _, change := range lw.rw.History().Range(last+1, newest) {
				if change.Disposed || change.Unregistered {
					continue // disposal markers stay on the reliable path only
				}
				_ = lw.shmRing.Write(encodeSHMFrame(change.SequenceNumber, change.Payload))
			}
			last = newest
		}
	}
}

// attachSHMReader opens the ring for a newly matched remote writer, when
// EnableSHM is set, and starts the goroutine that feeds decoded samples
// straight into the StatefulReader's OnData path. Sequence-number dedup
// there means a sample delivered over both SHM and the network is applied
// exactly once.
func (p *Participant) attachSHMReader(ctx context.Context, lr *localReader, writer guid.GUID) {
	if !p.cfg.EnableSHM {
		return
	}
	ring, err := shm.OpenRing(p.cfg.Domain, writer, lr.topic)
	if err != nil {
		return // no co-located writer on this host; network path covers it
	}
	go p.ingestSHM(ctx, lr, writer, ring)
}

func (p *Participant) ingestSHM(ctx context.Context, lr *localReader, writer guid.GUID, ring *shm.Ring) {
	defer ring.Close(false)
	var seq uint64
	for {
		frame, err := ring.WaitNext(ctx, seq)
		if err != nil {
			return
		}
		seq++
		sn, payload, ok := decodeSHMFrame(frame)
		if !ok {
			continue
		}
		lr.rr.OnData(writer, reliability.Data{WriterSN: sn, SerializedPayload: payload})
	}
}

func encodeSHMFrame(sn guid.SequenceNumber, payload []byte) []byte {
	frame := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(frame, uint64(sn))
	copy(frame[8:], payload)
	return frame
}

func decodeSHMFrame(frame []byte) (guid.SequenceNumber, []byte, bool) {
	if len(frame) < 8 {
		return 0, nil, false
	}
	return guid.SequenceNumber(binary.BigEndian.Uint64(frame)), frame[8:], true
}
