package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MaxainNN/gpt/pkg/config"
	"github.com/MaxainNN/gpt/pkg/observability/logging"
	"github.com/MaxainNN/gpt/pkg/ratelimit"
)

// ServerOptions carries everything the HTTP server needs.
type ServerOptions struct {
	Config    *config.GatewayConfig
	Chat      ChatService
	Rag       RagService
	Documents DocumentService
	Limiter   *ratelimit.TokenBucketLimiter

	// Sweepers are invoked periodically to drop idle per-client state.
	// Each returns the number of entries removed.
	Sweepers []func(maxIdle time.Duration) int
}

// Server is the gateway HTTP server plus its background janitor.
type Server struct {
	httpServer *http.Server
	cfg        *config.GatewayConfig
	sweepers   []func(maxIdle time.Duration) int
}

// NewServer wires the API routes and middleware.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config
	apiServer := &GatewayAPIServer{
		chat:      options.Chat,
		rag:       options.Rag,
		documents: options.Documents,
		limiter:   options.Limiter,
	}
	if cfg.Security.Enabled {
		apiServer.apiKey = cfg.Security.APIKey
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      apiServer.setupRoutes(),
			ReadTimeout:  cfg.Server.ReadTimeout(),
			WriteTimeout: cfg.Server.WriteTimeout(),
			IdleTimeout:  60 * time.Second,
		},
		cfg:      cfg,
		sweepers: options.Sweepers,
	}
}

// setupRoutes configures all API routes.
func (s *GatewayAPIServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health and metrics endpoints skip auth and rate limiting so probes
	// and scrapers never consume a client's allowance.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/chat", s.guarded("/api/chat", s.handleChat))
	mux.HandleFunc("POST /api/rag/query", s.guarded("/api/rag/query", s.handleRagQuery))
	mux.HandleFunc("POST /api/rag/load", s.guarded("/api/rag/load", s.handleRagLoad))
	mux.HandleFunc("GET /api/rag/documents", s.guarded("/api/rag/documents", s.handleListDocuments))

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully. The idle
// state janitor runs alongside the listener.
func (s *Server) Run(ctx context.Context) error {
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.runJanitor(janitorCtx)

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("Gateway API server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Infof("Shutting down gateway API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout())
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// runJanitor periodically sweeps idle rate limit buckets and conversation
// windows so abandoned clients do not accumulate forever.
func (s *Server) runJanitor(ctx context.Context) {
	if len(s.sweepers) == 0 || !s.cfg.Janitor.Enabled() {
		return
	}
	ticker := time.NewTicker(s.cfg.Janitor.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			for _, sweep := range s.sweepers {
				removed += sweep(s.cfg.Janitor.MaxIdle())
			}
			if removed > 0 {
				logging.Debugf("Janitor removed %d idle entries", removed)
			}
		}
	}
}
