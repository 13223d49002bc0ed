// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JDLewis4313/genius-edtech/internal/mentari"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr matches the Django dev server so the client's default
	// base URL works unchanged.
	DefaultAddr = "127.0.0.1:8000"

	// MaxRequestBodySize bounds chat posts.
	MaxRequestBodySize = 1 << 20

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 5 * time.Second
)

// ============================================================================
// OPTIONS
// ============================================================================

// Options configures a stub server.
type Options struct {
	Addr string

	// EnforceCSRF requires X-CSRFToken to match the csrftoken cookie on
	// chat posts.
	EnforceCSRF bool

	// RateLimit is requests per second per client IP; 0 disables.
	RateLimit float64
	RateBurst int

	// IdleTimeout drops rate-limit buckets idle this long.
	IdleTimeout time.Duration

	// SessionTTL drops chat sessions idle this long.
	SessionTTL time.Duration

	// QuizLength caps questions per quiz.
	QuizLength int

	// Seed fixes question order and appearances; 0 is random.
	Seed uint64

	// Bank overrides the embedded quiz bank.
	Bank *QuizBank

	Logger *zap.Logger
}

// ============================================================================
// SERVER
// ============================================================================

// Server is a local stand-in for the chat service: it serves the chat page,
// the chat API and the random appearance endpoint.
type Server struct {
	opts     Options
	logger   *zap.Logger
	brain    *Brain
	sessions *SessionStore
	limiter  *RateLimiter
	metrics  *Metrics
	router   chi.Router
	started  time.Time
}

// New creates a server. It does not listen until ListenAndServe or Serve.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Bank == nil {
		opts.Bank = DefaultQuizBank()
	}

	s := &Server{
		opts:     opts,
		logger:   opts.Logger.Named("stub"),
		brain:    NewBrain(opts.Bank, opts.QuizLength, opts.Seed),
		sessions: NewSessionStore(opts.SessionTTL),
		limiter:  NewRateLimiter(opts.RateLimit, opts.RateBurst, opts.IdleTimeout),
		metrics:  NewMetrics(),
		started:  time.Now(),
	}
	s.sessions.onChange = func(n int) { s.metrics.sessions.Set(float64(n)) }
	s.router = s.routes()
	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Sessions returns the session store.
func (s *Server) Sessions() *SessionStore { return s.sessions }

// Brain returns the message handler.
func (s *Server) Brain() *Brain { return s.brain }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.opts.Addr }

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(LoggingMiddleware(s.logger, s.metrics))
	r.Use(RecoveryMiddleware(s.logger))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(s.limiter, s.metrics, s.logger))

		r.Get(mentari.ChatPagePath, s.handleChatPage)
		r.HandleFunc(mentari.ChatAPIPath, s.handleChatAPI)
		r.Get(mentari.RandomAppearPath, s.handleRandomAppearance)
		r.Get("/quiz/{slug}/", s.handleQuizPage)
	})

	return r
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.logger.Info("stub server listening",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("enforce_csrf", s.opts.EnforceCSRF),
		zap.Float64("rate_limit", s.opts.RateLimit),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("stub server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}
