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
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-shopmcp/internal/sqlgate"
)

var (
	sqlMaxRows   int
	sqlTimeoutMs int
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run one read-only statement and print rows as JSON",
	Long: `Run a single SELECT, WITH, SHOW or EXPLAIN statement inside a
transaction that is always rolled back, with a statement timeout and a
row cap.

Example:
  pgedge-shopmcp sql "SELECT status, count(*) FROM orders GROUP BY 1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func init() {
	sqlCmd.Flags().IntVar(&sqlMaxRows, "max-rows", 0,
		"maximum rows to return (default: sql.default_max_rows)")
	sqlCmd.Flags().IntVar(&sqlTimeoutMs, "timeout-ms", 0,
		"statement timeout in milliseconds (default: sql.default_timeout_ms)")
}

func runSQL(cmd *cobra.Command, args []string) error {
	maxRows, timeoutMs := cfg.SQL.DefaultMaxRows, cfg.SQL.DefaultTimeoutMs
	if cmd.Flags().Changed("max-rows") {
		maxRows = sqlMaxRows
	}
	if cmd.Flags().Changed("timeout-ms") {
		timeoutMs = sqlTimeoutMs
	}

	query := strings.Join(args, " ")
	if _, err := sqlgate.Check(query, maxRows, timeoutMs); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, _, err := connect(ctx, nil)
	if err != nil {
		return err
	}
	defer pool.Close()

	res, err := sqlgate.New(pool).Run(ctx, query, maxRows, timeoutMs)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
