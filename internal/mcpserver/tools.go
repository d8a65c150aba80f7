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

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pgEdge/pgedge-shopmcp/internal/datagen"
	"github.com/pgEdge/pgedge-shopmcp/internal/db"
	"github.com/pgEdge/pgedge-shopmcp/internal/seed"
)

// readOnlyTool declares a tool that never changes data.
func readOnlyTool(name, title, description string, opts ...mcp.ToolOption) mcp.Tool {
	base := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithTitleAnnotation(title),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	}
	return mcp.NewTool(name, append(base, opts...)...)
}

func daysParam(def int) mcp.ToolOption {
	return mcp.WithNumber("days",
		mcp.Description("Window length in days, ending now (UTC)."),
		mcp.DefaultNumber(float64(def)),
		mcp.Min(1),
	)
}

func limitParam(name string, def int) mcp.ToolOption {
	return mcp.WithNumber(name,
		mcp.Description("Maximum number of rows to return."),
		mcp.DefaultNumber(float64(def)),
		mcp.Min(1),
	)
}

type pingResult struct {
	db.PingInfo
	LastSeed map[string]string `json:"last_seed,omitempty"`
}

func (s *Server) registerHealthTools() {
	s.addTool(readOnlyTool("db_ping", "DB ping",
		"Connectivity check: current database, user, schema and server time, "+
			"plus details of the last demo-data seed run when there was one."),
		func(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
			info, err := db.Ping(ctx, s.db)
			if err != nil {
				return nil, err
			}
			lastSeed, err := db.GetAllMetadata(ctx, s.db, s.registry.Reflector().Schema())
			if err != nil {
				return nil, err
			}
			return pingResult{PingInfo: info, LastSeed: lastSeed}, nil
		})
}

func (s *Server) registerSchemaTools() {
	s.addTool(readOnlyTool("refresh_schema_cache", "Refresh schema cache",
		"Clear cached schema metadata. Use after running migrations."),
		func(_ context.Context, _ mcp.CallToolRequest) (any, error) {
			s.registry.Invalidate()
			return map[string]any{"ok": true, "note": "Schema cache cleared."}, nil
		})

	s.addTool(readOnlyTool("schema_overview", "Schema overview",
		"List tables and columns in the configured schema, with a Markdown rendering."),
		func(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
			return s.registry.Reflector().Overview(ctx)
		})

	s.addTool(readOnlyTool("list_tables", "List tables",
		"List all base tables in the configured schema."),
		func(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
			tables, err := s.registry.Reflector().ListTables(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"tables": tables}, nil
		})

	s.addTool(readOnlyTool("describe_table", "Describe table",
		"Describe a table or view: columns, types, nullability, defaults and generated flags.",
		mcp.WithString("table_name", mcp.Required(), mcp.Description("Table name in the configured schema."))),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			var args describeArgs
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			cols, err := s.registry.Reflector().DescribeTable(ctx, args.TableName)
			if err != nil {
				return nil, err
			}
			return map[string]any{"table": args.TableName, "columns": cols}, nil
		})

	s.addTool(readOnlyTool("table_counts", "Table counts",
		"Row counts for common e-commerce tables, only those that exist."),
		func(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
			return s.analytics.CountTables(ctx)
		})
}

func (s *Server) registerSQLTools() {
	s.addTool(readOnlyTool("sql_readonly", "SQL (read-only)",
		"Run one read-only SQL statement (SELECT/WITH/SHOW/EXPLAIN) and return rows as JSON. "+
			"A trailing semicolon is allowed.",
		mcp.WithString("query", mcp.Required(),
			mcp.Description("Single SQL statement starting with SELECT, WITH, SHOW or EXPLAIN.")),
		mcp.WithNumber("max_rows", mcp.Description("Maximum rows to return."),
			mcp.DefaultNumber(float64(s.sqlDefaults.DefaultMaxRows)), mcp.Min(1), mcp.Max(2000)),
		mcp.WithNumber("timeout_ms", mcp.Description("Statement timeout in milliseconds."),
			mcp.DefaultNumber(float64(s.sqlDefaults.DefaultTimeoutMs)), mcp.Min(100), mcp.Max(60000)),
	), func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
		args := sqlArgs{MaxRows: s.sqlDefaults.DefaultMaxRows, TimeoutMs: s.sqlDefaults.DefaultTimeoutMs}
		if err := bind(req, &args); err != nil {
			return nil, err
		}
		return s.gate.Run(ctx, args.Query, args.MaxRows, args.TimeoutMs)
	})
}

func (s *Server) registerSeedTools() {
	tool := mcp.NewTool("seed_demo_data",
		mcp.WithDescription("Insert realistic demo e-commerce data, optionally truncating first. "+
			"Requires writes to be enabled (ALLOW_WRITES=1)."),
		mcp.WithTitleAnnotation("Seed demo data"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
		mcp.WithString("size", mcp.Description("Dataset size."),
			mcp.DefaultString(s.seedDefaults.Size), mcp.Enum("small", "medium", "large")),
		mcp.WithBoolean("reset_first", mcp.Description("Truncate the shop tables first."),
			mcp.DefaultBool(s.seedDefaults.ResetFirst)),
		mcp.WithNumber("seed", mcp.Description("Random seed for repeatable data."),
			mcp.DefaultNumber(float64(s.seedDefaults.Seed))),
		mcp.WithString("traffic", mcp.Description("Hour-of-week shape for order timestamps."),
			mcp.DefaultString(s.seedDefaults.Traffic), mcp.Enum(datagen.TrafficShapes()...)),
	)
	s.addTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
		args := seedArgs{
			Size:       s.seedDefaults.Size,
			ResetFirst: s.seedDefaults.ResetFirst,
			Seed:       s.seedDefaults.Seed,
			Traffic:    s.seedDefaults.Traffic,
		}
		if err := bind(req, &args); err != nil {
			return nil, err
		}
		return s.seeder.Seed(ctx, seed.Options{
			Size:       args.Size,
			ResetFirst: args.ResetFirst,
			Seed:       args.Seed,
			Traffic:    args.Traffic,
		})
	})
}
