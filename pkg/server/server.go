// Package server exposes the layout pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz           liveness probe and build information
//	GET  /v1/algorithms     registered layout algorithms
//	POST /v1/layout         {"graph": {...}, "options": {...}} -> laid-out graph
//	GET  /v1/layout/stream  websocket: same request, progress events, then the result
//	POST /v1/render         graph document -> SVG (or ?format=dot|png|pdf)
//
// Errors are answered as {"code": "...", "message": "..."} with the status
// derived from the error code.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/graphlayout/pkg/config"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 4 << 20

// Server handles API requests with a shared runner.
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	defaults config.Layout
}

// New creates a server. defaults fill options the client leaves unset.
func New(runner *pipeline.Runner, logger *log.Logger, defaults config.Layout) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger, defaults: defaults}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(s.recoverPanics)
	r.Use(middleware.RequestSize(MaxBodyBytes))

	r.Get("/healthz", s.handle(s.healthz))
	r.Route("/v1", func(r chi.Router) {
		r.Get("/algorithms", s.handle(s.algorithms))
		r.Post("/layout", s.handle(s.layout))
		r.Get("/layout/stream", s.layoutStream)
		r.Post("/render", s.handle(s.render))
	})
	return r
}

// NewHTTPServer builds an http.Server for h with the configured timeouts.
func NewHTTPServer(cfg config.Server, h http.Handler) *http.Server {
	return &http.Server{
		Addr:           cfg.Addr,
		Handler:        h,
		ReadTimeout:    cfg.ReadTimeout.Duration,
		WriteTimeout:   cfg.WriteTimeout.Duration,
		IdleTimeout:    time.Minute,
		MaxHeaderBytes: 1 << 18,
	}
}

// Serve runs srv on l until ctx is cancelled, then shuts down gracefully,
// giving in-flight requests up to shutdownTimeout to finish.
func Serve(ctx context.Context, srv *http.Server, l net.Listener, shutdownTimeout time.Duration) error {
	srv.BaseContext = func(net.Listener) context.Context { return ctx }

	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
