// Package participant assembles the discovery, reliability, transport and
// endpoint-runtime packages into one running DDS participant: it computes
// the domain's port mapping, binds the metatraffic and user-data sockets,
// spawns the listener and control threads, and exposes the public
// CreateDataWriter/CreateDataReader surface (§4.7).
package participant

import (
	"sync"

	"github.com/naskel/hdds/internal/discovery"
	"github.com/naskel/hdds/internal/reliability"
	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/naskel/hdds/internal/transport/shm"
)

// localWriter pairs a StatefulWriter with the topic metadata SEDP needs to
// announce it. shmRing is non-nil only when the participant was built with
// EnableSHM and the ring was created successfully; it is the accelerated
// same-host delivery path mirrored alongside the reliable network path.
type localWriter struct {
	rw       *reliability.StatefulWriter
	topic    string
	typeName string
	proxy    discovery.EndpointProxy
	shmRing  *shm.Ring
}

// localReader pairs a StatefulReader with the topic metadata SEDP needs to
// announce it.
type localReader struct {
	rr       *reliability.StatefulReader
	topic    string
	typeName string
	proxy    discovery.EndpointProxy
}

// LocalEndpointRegistry indexes every writer/reader this participant owns
// by its entity ID, so the listener thread can route an inbound
// submessage's ReaderID/WriterID to the right local endpoint without a
// linear scan (§4.7 step 5: "subsequent reader/writer creation triggers
// immediate SEDP announcements").
type LocalEndpointRegistry struct {
	mu      sync.RWMutex
	writers map[guid.EntityID]*localWriter
	readers map[guid.EntityID]*localReader
}

// NewLocalEndpointRegistry creates an empty registry.
func NewLocalEndpointRegistry() *LocalEndpointRegistry {
	return &LocalEndpointRegistry{
		writers: make(map[guid.EntityID]*localWriter),
		readers: make(map[guid.EntityID]*localReader),
	}
}

func (reg *LocalEndpointRegistry) addWriter(id guid.EntityID, lw *localWriter) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.writers[id] = lw
}

func (reg *LocalEndpointRegistry) addReader(id guid.EntityID, lr *localReader) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.readers[id] = lr
}

func (reg *LocalEndpointRegistry) writer(id guid.EntityID) (*localWriter, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	lw, ok := reg.writers[id]
	return lw, ok
}

func (reg *LocalEndpointRegistry) reader(id guid.EntityID) (*localReader, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	lr, ok := reg.readers[id]
	return lr, ok
}

// readersSnapshot returns every locally registered reader's private
// bookkeeping entry, used by the participant's own SEDP match callbacks.
func (reg *LocalEndpointRegistry) readersSnapshot() []*localReader {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*localReader, 0, len(reg.readers))
	for _, lr := range reg.readers {
		out = append(out, lr)
	}
	return out
}

// writersSnapshot returns every locally registered writer's private
// bookkeeping entry.
func (reg *LocalEndpointRegistry) writersSnapshot() []*localWriter {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*localWriter, 0, len(reg.writers))
	for _, lw := range reg.writers {
		out = append(out, lw)
	}
	return out
}

// Writers returns every locally registered writer's StatefulWriter, for
// diagnostics (the admin snapshot API) and for the participant's own
// heartbeat/matching fan-out.
func (reg *LocalEndpointRegistry) Writers() []*reliability.StatefulWriter {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*reliability.StatefulWriter, 0, len(reg.writers))
	for _, lw := range reg.writers {
		out = append(out, lw.rw)
	}
	return out
}

// Readers returns every locally registered reader's StatefulReader.
func (reg *LocalEndpointRegistry) Readers() []*reliability.StatefulReader {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*reliability.StatefulReader, 0, len(reg.readers))
	for _, lr := range reg.readers {
		out = append(out, lr.rr)
	}
	return out
}

// WriterProxies returns the SEDP publication proxy for every locally
// registered writer, used both to seed a newly matched peer and to expose
// a stable snapshot to the admin API.
func (reg *LocalEndpointRegistry) WriterProxies() []discovery.EndpointProxy {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]discovery.EndpointProxy, 0, len(reg.writers))
	for _, lw := range reg.writers {
		out = append(out, lw.proxy)
	}
	return out
}

// ReaderProxies returns the SEDP subscription proxy for every locally
// registered reader.
func (reg *LocalEndpointRegistry) ReaderProxies() []discovery.EndpointProxy {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]discovery.EndpointProxy, 0, len(reg.readers))
	for _, lr := range reg.readers {
		out = append(out, lr.proxy)
	}
	return out
}

// WriterEntry pairs a locally registered writer with its own SEDP
// publication proxy, so a caller can report per-writer detail (topic,
// type, GUID) without a second, independently-ordered lookup.
type WriterEntry struct {
	Writer *reliability.StatefulWriter
	Proxy  discovery.EndpointProxy
}

// ReaderEntry is WriterEntry's reader-side counterpart.
type ReaderEntry struct {
	Reader *reliability.StatefulReader
	Proxy  discovery.EndpointProxy
}

// WriterEntries returns every locally registered writer paired with its
// proxy, for the admin snapshot API.
func (reg *LocalEndpointRegistry) WriterEntries() []WriterEntry {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]WriterEntry, 0, len(reg.writers))
	for _, lw := range reg.writers {
		out = append(out, WriterEntry{Writer: lw.rw, Proxy: lw.proxy})
	}
	return out
}

// ReaderEntries returns every locally registered reader paired with its
// proxy, for the admin snapshot API.
func (reg *LocalEndpointRegistry) ReaderEntries() []ReaderEntry {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]ReaderEntry, 0, len(reg.readers))
	for _, lr := range reg.readers {
		out = append(out, ReaderEntry{Reader: lr.rr, Proxy: lr.proxy})
	}
	return out
}

// WriterByGUID finds a locally registered writer by its own GUID, for the
// admin snapshot API's per-endpoint routes.
func (reg *LocalEndpointRegistry) WriterByGUID(g guid.GUID) (*reliability.StatefulWriter, discovery.EndpointProxy, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, lw := range reg.writers {
		if lw.proxy.GUID == g {
			return lw.rw, lw.proxy, true
		}
	}
	return nil, discovery.EndpointProxy{}, false
}

// ReaderByGUID finds a locally registered reader by its own GUID.
func (reg *LocalEndpointRegistry) ReaderByGUID(g guid.GUID) (*reliability.StatefulReader, discovery.EndpointProxy, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, lr := range reg.readers {
		if lr.proxy.GUID == g {
			return lr.rr, lr.proxy, true
		}
	}
	return nil, discovery.EndpointProxy{}, false
}
