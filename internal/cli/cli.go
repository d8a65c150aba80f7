//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-shopmcp.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-shopmcp/internal/config"
	"github.com/pgEdge/pgedge-shopmcp/internal/db"
	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
	"github.com/pgEdge/pgedge-shopmcp/internal/metrics"
	"github.com/pgEdge/pgedge-shopmcp/internal/schema"
	"github.com/pgEdge/pgedge-shopmcp/pkg/version"
)

var (
	// Global flags
	cfgFile     string
	connection  string
	schemaName  string
	logLevel    string
	allowWrites bool

	// Global config
	cfg *config.Config

	rootCmd = newRootCmd()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.Name,
		Short: "MCP server for e-commerce analytics on PostgreSQL",
		Long: `pgedge-shopmcp is an MCP server that lets an AI assistant analyze an
e-commerce PostgreSQL database. It adapts to the schema it finds: column
names are resolved at runtime and optional features degrade gracefully.

Tools cover schema inspection, revenue and customer analytics, ops and
sales reports, a guarded read-only SQL runner and demo-data seeding.
The same operations are available from the command line.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-shopmcp.yaml)")
	cmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string (env: POSTGRES_DSN)")
	cmd.PersistentFlags().StringVar(&schemaName, "schema", "",
		"schema to reflect and query (default: public)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&allowWrites, "allow-writes", false,
		"enable mutating operations such as seeding (env: ALLOW_WRITES)")

	cmd.AddCommand(versionCmd)
	cmd.AddCommand(serveCmd)
	cmd.AddCommand(seedCmd)
	cmd.AddCommand(migrateCmd)
	cmd.AddCommand(reportCmd)
	cmd.AddCommand(sqlCmd)
	cmd.AddCommand(tablesCmd)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = config.NormalizeDSN(connection)
	}
	if schemaName != "" {
		cfg.Schema = schemaName
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("allow-writes") {
		cfg.AllowWrites = allowWrites
	}

	// Reinitialize logger with config. serve logs JSON lines by default.
	pretty := cfg.LogFormat != "json"
	if cfg.LogFormat == "" && cmd.Name() == "serve" {
		pretty = false
	}
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: pretty,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// connect opens the pool and a registry over the configured schema. A
// non-nil m records reflector cache misses.
func connect(ctx context.Context, m *metrics.Metrics) (*pgxpool.Pool, *schema.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	pool, err := db.Connect(ctx, cfg.Connection, db.PoolOptions{
		MaxConns: cfg.Pool.MaxConns,
		MinConns: cfg.Pool.MinConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var opts []schema.Option
	if m != nil {
		opts = append(opts, schema.WithMissHook(m.CacheMiss))
	}
	reflector := schema.NewReflector(schema.NewPostgresCatalog(pool, cfg.Schema), opts...)
	return pool, schema.NewRegistry(reflector), nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
