//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
	"github.com/pgEdge/pgedge-shopmcp/internal/mcpserver"
	"github.com/pgEdge/pgedge-shopmcp/internal/metrics"
)

var (
	serveTransport   string
	serveAddr        string
	serveMetricsAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server over stdio (default) or streamable HTTP.

Over stdio, stdout carries protocol frames and logs go to stderr.
Over HTTP, the MCP endpoint is /mcp, with /metrics and /healthz beside it.

Example:
  pgedge-shopmcp serve --connection "postgres://..."
  pgedge-shopmcp serve --transport http --addr :8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "",
		"transport: stdio or http")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address for the http transport (default: :8080)")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "",
		"optional separate listen address for /metrics")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if serveTransport != "" {
		cfg.Serve.Transport = serveTransport
	}
	if serveAddr != "" {
		cfg.Serve.Addr = serveAddr
	}
	if serveMetricsAddr != "" {
		cfg.Serve.MetricsAddr = serveMetricsAddr
	}

	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	m := metrics.New()
	pool, registry, err := connect(ctx, m)
	if err != nil {
		return err
	}
	defer pool.Close()

	srv := mcpserver.NewServer(mcpserver.Deps{
		DB:          pool,
		Registry:    registry,
		AllowWrites: cfg.AllowWrites,
		SQL:         cfg.SQL,
		Seed:        cfg.Seed,
		Metrics:     m,
	})

	logging.Info().
		Str("transport", cfg.Serve.Transport).
		Str("schema", cfg.Schema).
		Bool("allow_writes", cfg.AllowWrites).
		Msg("Starting MCP server")

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Serve.MetricsAddr != "" {
		g.Go(func() error { return srv.ServeMetrics(ctx, cfg.Serve.MetricsAddr) })
	}
	g.Go(func() error {
		// Stop the other listeners when the transport ends.
		defer cancel()
		switch cfg.Serve.Transport {
		case "http":
			return srv.ServeHTTP(ctx, cfg.Serve.Addr)
		default:
			return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	logging.Info().Msg("MCP server stopped")
	return nil
}
