// Package server is the HTTP front end of the workspace browser.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"syntaxia/internal/browse"
	"syntaxia/internal/logging"
)

const (
	DefaultWorkers     = 16
	DefaultCacheMaxAge = 86400

	shutdownTimeout = 5 * time.Second
	// Requests beyond the worker limit wait in a backlog of this many per
	// worker before being rejected with 429.
	backlogPerWorker = 64
	backlogTimeout   = 30 * time.Second
)

// Options configures a Server.
type Options struct {
	// Workers bounds concurrently served requests.
	Workers int
	// CacheMaxAge is the max-age, in seconds, of successful page responses.
	CacheMaxAge int
	// FaviconPath is read once by New. A missing icon is served as 404.
	FaviconPath     string
	SecurityHeaders bool
	HSTS            bool
	Version         string
}

// Server renders browse views over HTTP.
type Server struct {
	svc       *browse.Service
	opts      Options
	logger    *slog.Logger
	templates *templates
	favicon   []byte
	handler   http.Handler
}

// New loads the embedded theme and the favicon and builds the router.
func New(svc *browse.Service, opts Options, logger *slog.Logger) (*Server, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.CacheMaxAge < 0 {
		opts.CacheMaxAge = 0
	}

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:       svc,
		opts:      opts,
		logger:    logging.Component(logger, "server"),
		templates: tmpl,
	}

	if opts.FaviconPath != "" {
		icon, err := os.ReadFile(opts.FaviconPath)
		switch {
		case err == nil:
			s.favicon = icon
		case errors.Is(err, os.ErrNotExist):
			s.logger.Debug("no favicon", "path", opts.FaviconPath)
		default:
			s.logger.Warn("failed to read favicon", "path", opts.FaviconPath, "error", err)
		}
	}

	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.withAccessLog)
	r.Use(s.withRecovery)
	r.Use(middleware.ThrottleBacklog(s.opts.Workers, s.opts.Workers*backlogPerWorker, backlogTimeout))
	r.Use(s.withSecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusMethodNotAllowed)
	})

	r.Get("/", s.handleIndex)
	r.Get("/ping", s.handlePing)
	r.Get("/robots.txt", s.handleRobots)
	r.Get("/favicon.ico", s.handleFavicon)
	r.Get("/download/*", s.handleDownload)
	r.Get("/*", s.handleView)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:        addr,
		Handler:     s.handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
