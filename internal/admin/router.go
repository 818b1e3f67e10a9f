package admin

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/participant"
)

// Config configures the admin snapshot router. JWTAuth gates every route
// behind a Bearer token signed with the secret read from the
// JWTSecretEnv environment variable.
type Config struct {
	JWTAuth      bool
	JWTSecretEnv string
}

// NewRouter builds the chi router for the read-only admin snapshot API
// over p (§14.6): GET /participants, /participants/{guid}/endpoints,
// /endpoints/{guid}/writerproxies, /endpoints/{guid}/readerproxies, and
// /stats. Every route is unauthenticated unless cfg.JWTAuth is set.
func NewRouter(p *participant.Participant, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	if cfg.JWTAuth {
		secret := os.Getenv(cfg.JWTSecretEnv)
		if secret != "" {
			r.Use(jwtAuth(secret))
		} else {
			logger.Warn("admin API JWT auth enabled but secret env var is empty; all routes remain unauthenticated",
				"env", cfg.JWTSecretEnv)
		}
	}

	h := newHandler(p)
	r.Get("/participants", h.listParticipants)
	r.Get("/participants/{guid}/endpoints", h.participantEndpoints)
	r.Get("/endpoints/{guid}/writerproxies", h.endpointWriterProxies)
	r.Get("/endpoints/{guid}/readerproxies", h.endpointReaderProxies)
	r.Get("/stats", h.stats)

	return r
}

// requestLogger logs every admin API request at debug level; this surface
// is a diagnostics tool, not user-facing traffic, so it never warrants
// info-level noise.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("admin API request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
