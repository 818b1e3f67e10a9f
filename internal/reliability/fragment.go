package reliability

import (
	"sync"
	"time"

	"github.com/naskel/hdds/internal/rtps/guid"
)

// fragmentKey identifies one in-flight reassembly by writer and sequence
// number.
type fragmentKey struct {
	writer guid.GUID
	sn     guid.SequenceNumber
}

// reassembly buffers the fragments received so far for one sample.
type reassembly struct {
	sampleSize   uint32
	fragmentSize uint16
	received     map[uint32][]byte // fragment number -> bytes
	lastTouched  time.Time
}

func (r *reassembly) complete() bool {
	if r.sampleSize == 0 || r.fragmentSize == 0 {
		return false
	}
	total := uint32(0)
	for _, frag := range r.received {
		total += uint32(len(frag))
	}
	return total >= r.sampleSize
}

func (r *reassembly) assemble() []byte {
	n := uint32(len(r.received))
	out := make([]byte, 0, r.sampleSize)
	for i := uint32(1); i <= n; i++ {
		frag, ok := r.received[i]
		if !ok {
			return nil // hole; shouldn't happen once complete() is true
		}
		out = append(out, frag...)
	}
	if uint32(len(out)) > r.sampleSize {
		out = out[:r.sampleSize]
	}
	return out
}

// FragmentReassembler buffers DATA_FRAG submessages per (writer, sequence
// number) until every fragment has arrived, then yields the reassembled
// sample. Entries older than Timeout are evicted to bound memory under a
// stalled or malicious sender (§4.5).
type FragmentReassembler struct {
	mu      sync.Mutex
	active  map[fragmentKey]*reassembly
	Timeout time.Duration
}

// NewFragmentReassembler creates a reassembler with the given eviction
// timeout. A zero timeout defaults to 30 seconds.
func NewFragmentReassembler(timeout time.Duration) *FragmentReassembler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FragmentReassembler{
		active:  make(map[fragmentKey]*reassembly),
		Timeout: timeout,
	}
}

// Accept ingests one DATA_FRAG and returns the reassembled payload once
// every fragment for its (writer, sequence) has arrived; ok is false
// while reassembly is still in progress.
func (f *FragmentReassembler) Accept(writer guid.GUID, df DataFrag) (payload []byte, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := fragmentKey{writer: writer, sn: df.WriterSN}
	r, exists := f.active[key]
	if !exists {
		r = &reassembly{
			sampleSize:   df.SampleSize,
			fragmentSize: df.FragmentSize,
			received:     make(map[uint32][]byte),
		}
		f.active[key] = r
	}
	r.lastTouched = time.Now()

	count := df.EffectiveFragmentCount()
	data := df.SerializedPayload
	for i := uint16(0); i < count; i++ {
		start := int(i) * int(df.FragmentSize)
		end := start + int(df.FragmentSize)
		if end > len(data) {
			end = len(data)
		}
		if start >= len(data) {
			break
		}
		fragNum := df.FragmentStartingNum + uint32(i)
		if _, have := r.received[fragNum]; !have {
			r.received[fragNum] = append([]byte{}, data[start:end]...)
		}
	}

	if r.complete() {
		out := r.assemble()
		delete(f.active, key)
		return out, out != nil
	}
	return nil, false
}

// Sweep evicts reassembly buffers idle longer than Timeout, returning the
// number evicted.
func (f *FragmentReassembler) Sweep(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for key, r := range f.active {
		if now.Sub(r.lastTouched) > f.Timeout {
			delete(f.active, key)
			n++
		}
	}
	return n
}

// Pending returns the number of reassemblies currently in flight.
func (f *FragmentReassembler) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

// Fragment splits payload into DataFrag submessages of at most
// fragmentSize bytes each, for a writer that needs to send a sample
// larger than its configured single-DATA budget.
func Fragment(readerID, writerID guid.EntityID, sn guid.SequenceNumber, payload []byte, fragmentSize uint16) []DataFrag {
	if fragmentSize == 0 {
		fragmentSize = 1300
	}
	sampleSize := uint32(len(payload))
	total := (sampleSize + uint32(fragmentSize) - 1) / uint32(fragmentSize)
	if total == 0 {
		total = 1
	}
	frags := make([]DataFrag, 0, total)
	for i := uint32(0); i < total; i++ {
		start := i * uint32(fragmentSize)
		end := start + uint32(fragmentSize)
		if end > sampleSize {
			end = sampleSize
		}
		frags = append(frags, DataFrag{
			ReaderID:              readerID,
			WriterID:              writerID,
			WriterSN:              sn,
			FragmentStartingNum:   i + 1,
			FragmentsInSubmessage: 1,
			FragmentSize:          fragmentSize,
			SampleSize:            sampleSize,
			SerializedPayload:     payload[start:end],
		})
	}
	return frags
}
