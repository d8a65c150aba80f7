//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package mcpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pgEdge/pgedge-shopmcp/internal/db"
	"github.com/pgEdge/pgedge-shopmcp/pkg/version"
)

const shutdownTimeout = 10 * time.Second

// ServeStdio speaks MCP over in and out until ctx is cancelled or in is
// closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(s.log, "", 0))

	s.log.Info().Str("transport", "stdio").Msg("MCP server ready")
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Router mounts the stateless streamable HTTP transport on /mcp next to
// /metrics and /healthz.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle("/mcp", server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true)))
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/healthz", s.healthz)
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]any{"status": "ok", "version": version.Short()}
	status := http.StatusOK
	if _, err := db.Ping(ctx, s.db); err != nil {
		body["status"] = "unavailable"
		body["error"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ServeHTTP listens on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return listen(ctx, addr, s.Router(), func() {
		s.log.Info().Str("transport", "http").Str("addr", addr).Msg("MCP server ready")
	})
}

// ServeMetrics serves only /metrics on addr until ctx is cancelled.
func (s *Server) ServeMetrics(ctx context.Context, addr string) error {
	r := chi.NewRouter()
	r.Handle("/metrics", s.metrics.Handler())
	return listen(ctx, addr, r, func() {
		s.log.Info().Str("addr", addr).Msg("Metrics listener ready")
	})
}

func listen(ctx context.Context, addr string, h http.Handler, ready func()) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		ready()
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
