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
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-shopmcp/internal/db"
	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the bundled reference e-commerce schema",
	Long: `Apply the embedded migrations that create the reference e-commerce
schema: categories, customers, products, orders, order_items,
stock_movements and the v_inventory_on_hand view. Already-applied
migrations are skipped.

Example:
  pgedge-shopmcp migrate --connection "postgres://..."`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	pool, _, err := connect(ctx, nil)
	if err != nil {
		return err
	}
	defer pool.Close()

	v, err := db.Migrate(pool)
	if err != nil {
		return err
	}

	logging.Info().Uint("version", v).Msg("Reference schema is up to date")
	cmd.Printf("Reference schema at version %d.\n", v)
	return nil
}
