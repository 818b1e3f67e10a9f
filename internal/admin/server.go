package admin

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/naskel/hdds/internal/logger"
	"github.com/naskel/hdds/internal/participant"
)

// Server serves the admin snapshot API over one participant. It is
// created in a stopped state; call Start to begin serving.
type Server struct {
	server       *http.Server
	port         int
	shutdownOnce sync.Once
}

// NewServer builds a Server listening on port, routing every request to
// p's current state.
func NewServer(p *participant.Participant, port int, cfg Config) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      NewRouter(p, cfg),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		port: port,
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin API listening", "port", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("admin API failed: %w", err)
	}
}

// Stop gracefully shuts the server down. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if e := s.server.Shutdown(ctx); e != nil {
			err = fmt.Errorf("admin API shutdown error: %w", e)
		} else {
			logger.Info("admin API stopped gracefully")
		}
	})
	return err
}
