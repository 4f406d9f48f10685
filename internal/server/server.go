// Package server exposes a session over a local HTTP API and feeds the
// dashboard.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/config"
	"github.com/raaihank/meeting-sentinel/internal/logger"
	"github.com/raaihank/meeting-sentinel/internal/session"
	"github.com/raaihank/meeting-sentinel/internal/web"
	"github.com/raaihank/meeting-sentinel/internal/websocket"
)

// Summarizer turns an anonymized prompt into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Deps are the optional collaborators of a Server.
type Deps struct {
	Hub        *websocket.Hub
	Summarizer Summarizer
	Provider   string
	Version    string
}

// Server represents the HTTP API server
type Server struct {
	config  *config.Config
	logger  *logger.Logger
	session *session.Session
	hub     *websocket.Hub
	limiter *RateLimiter
	router  *mux.Router
	server  *http.Server

	provider string
	version  string
	started  time.Time
	requests int64

	sumMu sync.RWMutex
	sum   Summarizer
}

// New creates a new server instance
func New(cfg *config.Config, log *logger.Logger, sess *session.Session, deps Deps) *Server {
	s := &Server{
		config:   cfg,
		logger:   log.WithComponent("server"),
		session:  sess,
		hub:      deps.Hub,
		sum:      deps.Summarizer,
		router:   mux.NewRouter(),
		provider: deps.Provider,
		version:  deps.Version,
		started:  time.Now(),
	}
	if s.version == "" {
		s.version = "dev"
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		s.limiter = NewRateLimiter(rl.RequestsPerSecond, rl.Burst)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)

	s.router.HandleFunc("/", web.ServeDashboard).Methods(http.MethodGet)
	s.router.HandleFunc("/dashboard", web.ServeDashboard).Methods(http.MethodGet)

	if s.hub != nil && s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.hub.HandleWebSocket).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.Use(s.bodyLimitMiddleware)

	api.HandleFunc("/anonymize", s.handleAnonymize).Methods(http.MethodPost)
	api.HandleFunc("/deanonymize", s.handleDeanonymize).Methods(http.MethodPost)
	api.HandleFunc("/suggest", s.handleSuggest).Methods(http.MethodPost)
	api.HandleFunc("/summarize", s.handleSummarize).Methods(http.MethodPost)
	api.HandleFunc("/names", s.handleGetNames).Methods(http.MethodGet)
	api.HandleFunc("/names", s.handlePutNames).Methods(http.MethodPut)
	api.HandleFunc("/names/import", s.handleImportNames).Methods(http.MethodPost)
	api.HandleFunc("/names/export", s.handleExportNames).Methods(http.MethodGet)
	api.HandleFunc("/names/accept", s.handleAcceptNames).Methods(http.MethodPost)
	api.HandleFunc("/defaults", s.handleGetDefaults).Methods(http.MethodGet)
	api.HandleFunc("/defaults", s.handlePutDefaults).Methods(http.MethodPut)
	api.HandleFunc("/draft", s.handleDraft).Methods(http.MethodPost)
}

// SetSummarizer swaps the summarizer, for example after a config reload.
// nil disables /api/summarize.
func (s *Server) SetSummarizer(sum Summarizer) {
	s.sumMu.Lock()
	defer s.sumMu.Unlock()
	s.sum = sum
}

func (s *Server) summarizer() Summarizer {
	s.sumMu.RLock()
	defer s.sumMu.RUnlock()
	return s.sum
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the hub and background jobs, then serves until Stop.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting meeting-sentinel server",
		zap.String("addr", s.server.Addr),
		zap.String("storage", string(s.config.Storage.Backend)),
		zap.String("ner_provider", s.provider),
		zap.Bool("websocket", s.hub != nil && s.config.WebSocket.Enabled),
		zap.Bool("rate_limit", s.limiter != nil),
	)

	if s.hub != nil {
		go s.hub.Run(ctx)
		go s.statusLoop(ctx, 30*time.Second)
	}
	if s.limiter != nil {
		go s.cleanupLoop(ctx, s.config.Server.RateLimit.CleanupInterval)
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping meeting-sentinel server")
	return s.server.Shutdown(ctx)
}

func (s *Server) statusLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.hub.BroadcastEvent(websocket.Event{
				Type:      websocket.EventTypeSystemStatus,
				Timestamp: time.Now(),
				Data:      s.status(),
			})
		}
	}
}

func (s *Server) cleanupLoop(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Cleanup(every); n > 0 {
				s.logger.Debug("Dropped idle rate limit buckets", zap.Int("clients", n))
			}
		}
	}
}

func (s *Server) status() websocket.SystemStatusEvent {
	list := s.session.Names()
	st := websocket.SystemStatusEvent{
		Status:        "healthy",
		Uptime:        time.Since(s.started).Round(time.Second).String(),
		TotalRequests: atomic.LoadInt64(&s.requests),
		People:        len(list.People),
		Companies:     len(list.Companies),
		Provider:      s.provider,
		Storage:       string(s.config.Storage.Backend),
	}
	if s.hub != nil {
		st.ConnectedClients = int(s.hub.GetStats().ActiveConnections)
	}
	return st
}
