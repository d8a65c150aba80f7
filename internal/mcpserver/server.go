//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package mcpserver exposes the analytics, report, SQL and seed
// components as MCP tools and prompts over stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-shopmcp/internal/analytics"
	"github.com/pgEdge/pgedge-shopmcp/internal/config"
	"github.com/pgEdge/pgedge-shopmcp/internal/db"
	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
	"github.com/pgEdge/pgedge-shopmcp/internal/metrics"
	"github.com/pgEdge/pgedge-shopmcp/internal/reports"
	"github.com/pgEdge/pgedge-shopmcp/internal/schema"
	"github.com/pgEdge/pgedge-shopmcp/internal/seed"
	"github.com/pgEdge/pgedge-shopmcp/internal/sqlgate"
	"github.com/pgEdge/pgedge-shopmcp/pkg/version"
)

// Instructions is sent to clients during initialization.
const Instructions = "Postgres tools for an e-commerce database plus analytics. " +
	"Prefer the report and analytics tools over raw SQL. Use sql_readonly only when needed."

// Deps is what the server needs from the rest of the program.
type Deps struct {
	DB          db.DB
	Registry    *schema.Registry
	AllowWrites bool
	SQL         config.SQLConfig
	Seed        config.SeedConfig

	// Metrics may be nil; a private instance is created then.
	Metrics *metrics.Metrics
}

// Server wraps the mcp-go MCPServer with the shop tools registered.
type Server struct {
	mcp *server.MCPServer

	db        db.DB
	registry  *schema.Registry
	analytics *analytics.Service
	reports   *reports.Composer
	gate      *sqlgate.Gate
	seeder    *seed.Engine

	sqlDefaults  config.SQLConfig
	seedDefaults config.SeedConfig

	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewServer builds the services over deps and registers every tool and
// prompt.
func NewServer(deps Deps) *Server {
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	svc := analytics.NewService(deps.DB, deps.Registry)

	s := &Server{
		mcp: server.NewMCPServer(
			version.Name,
			version.Short(),
			server.WithToolCapabilities(true),
			server.WithPromptCapabilities(true),
			server.WithInstructions(Instructions),
			server.WithRecovery(),
		),
		db:           deps.DB,
		registry:     deps.Registry,
		analytics:    svc,
		reports:      reports.NewComposer(svc),
		gate:         sqlgate.New(deps.DB),
		seeder:       seed.NewEngine(deps.DB, deps.Registry, deps.AllowWrites),
		sqlDefaults:  deps.SQL,
		seedDefaults: deps.Seed,
		metrics:      m,
		log:          logging.Component("mcp"),
	}

	s.registerHealthTools()
	s.registerSchemaTools()
	s.registerSQLTools()
	s.registerAnalyticsTools()
	s.registerReportTools()
	s.registerSeedTools()
	s.registerPrompts()

	return s
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Metrics returns the instrumentation the server records into.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// toolFunc produces a tool payload: a string is sent as-is (Markdown),
// anything else is encoded as JSON.
type toolFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// addTool registers fn behind the shared result encoding, error mapping,
// logging and metrics.
func (s *Server) addTool(tool mcp.Tool, fn toolFunc) {
	name := tool.Name
	s.mcp.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		out, err := fn(ctx, req)
		elapsed := time.Since(start)

		if err != nil {
			if res := toolError(err); res != nil {
				s.metrics.ObserveTool(name, metrics.OutcomeToolError, elapsed)
				s.log.Info().Str("tool", name).Dur("duration", elapsed).Err(err).Msg("Tool call rejected")
				return res, nil
			}
			s.metrics.ObserveTool(name, metrics.OutcomeFailure, elapsed)
			s.log.Error().Str("tool", name).Dur("duration", elapsed).Err(err).Msg("Tool call failed")
			return nil, err
		}

		res, err := encodeResult(out)
		if err != nil {
			s.metrics.ObserveTool(name, metrics.OutcomeFailure, elapsed)
			return nil, err
		}
		s.metrics.ObserveTool(name, metrics.OutcomeOK, elapsed)
		s.log.Debug().Str("tool", name).Dur("duration", elapsed).Msg("Tool call completed")
		return res, nil
	})
}
