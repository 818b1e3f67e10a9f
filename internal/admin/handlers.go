package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/naskel/hdds/internal/participant"
	"github.com/naskel/hdds/internal/rtps/guid"
)

// handler serves the read-only snapshot routes over one running
// participant. It holds no state of its own beyond the participant
// reference: every response is built fresh from the participant's live
// discovery database and local endpoint registry.
type handler struct {
	p *participant.Participant
}

func newHandler(p *participant.Participant) *handler {
	return &handler{p: p}
}

// listParticipants handles GET /participants: this participant itself
// plus every peer its SPDP database currently tracks.
func (h *handler) listParticipants(w http.ResponseWriter, r *http.Request) {
	out := []ParticipantSummary{{
		GUID:    h.p.GUID().String(),
		Dialect: selfDialect,
	}}
	for _, peer := range h.p.Discovery().All() {
		out = append(out, participantSummary(peer, h.p.Discovery().Dialect(peer.GUID)))
	}
	ok(w, out)
}

// participantEndpoints handles GET /participants/{guid}/endpoints. Only
// this process's own GUID resolves to anything: SEDP never persists a
// directory of a remote participant's endpoints, so endpoint detail is
// only available for locally owned writers/readers.
func (h *handler) participantEndpoints(w http.ResponseWriter, r *http.Request) {
	target, err := guid.ParseGUID(chi.URLParam(r, "guid"))
	if err != nil {
		notFound(w, "participant")
		return
	}
	if target != h.p.GUID() {
		notFound(w, "participant")
		return
	}

	var out []EndpointSummary
	for _, e := range h.p.Registry().WriterProxies() {
		out = append(out, endpointSummary(e, "writer"))
	}
	for _, e := range h.p.Registry().ReaderProxies() {
		out = append(out, endpointSummary(e, "reader"))
	}
	ok(w, out)
}

// endpointWriterProxies handles GET /endpoints/{guid}/writerproxies: the
// remote writers matched to the local reader identified by guid.
func (h *handler) endpointWriterProxies(w http.ResponseWriter, r *http.Request) {
	target, err := guid.ParseGUID(chi.URLParam(r, "guid"))
	if err != nil {
		notFound(w, "endpoint")
		return
	}
	rr, _, found := h.p.Registry().ReaderByGUID(target)
	if !found {
		notFound(w, "endpoint")
		return
	}
	var out []ProxySummary
	for _, wp := range rr.WriterProxies() {
		out = append(out, writerProxySummary(wp))
	}
	ok(w, out)
}

// endpointReaderProxies handles GET /endpoints/{guid}/readerproxies: the
// remote readers matched to the local writer identified by guid.
func (h *handler) endpointReaderProxies(w http.ResponseWriter, r *http.Request) {
	target, err := guid.ParseGUID(chi.URLParam(r, "guid"))
	if err != nil {
		notFound(w, "endpoint")
		return
	}
	rw, _, found := h.p.Registry().WriterByGUID(target)
	if !found {
		notFound(w, "endpoint")
		return
	}
	var out []ProxySummary
	for _, rp := range rw.ReaderProxies() {
		out = append(out, readerProxySummary(rp))
	}
	ok(w, out)
}

// stats handles GET /stats.
func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	ok(w, buildStats(h.p))
}
