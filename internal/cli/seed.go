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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-shopmcp/internal/datagen"
	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
	"github.com/pgEdge/pgedge-shopmcp/internal/seed"
)

var (
	seedSize       string
	seedResetFirst bool
	seedValue      int64
	seedTraffic    string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load deterministic demo data",
	Long: `Load realistic, repeatable demo e-commerce data into an existing schema.
Sizes are small (50 customers, 150 products, 600 orders), medium
(300, 900, 7000) and large (1500, 4000, 40000). The whole run is one
transaction: it commits completely or not at all.

Writes must be enabled with --allow-writes or ALLOW_WRITES=1.

Example:
  pgedge-shopmcp seed --allow-writes --size medium --seed 7`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedSize, "size", "",
		"dataset size: small, medium, large")
	seedCmd.Flags().BoolVar(&seedResetFirst, "reset-first", true,
		"truncate the shop tables before loading")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0,
		"random seed for repeatable data (default: 42)")
	seedCmd.Flags().StringVar(&seedTraffic, "traffic", "",
		"order timestamp shape: "+strings.Join(datagen.TrafficShapes(), ", ")+" (default: store-regional)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedSize != "" {
		cfg.Seed.Size = seedSize
	}
	if cmd.Flags().Changed("reset-first") {
		cfg.Seed.ResetFirst = seedResetFirst
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed.Seed = seedValue
	}
	if seedTraffic != "" {
		cfg.Seed.Traffic = seedTraffic
	}

	if err := cfg.ValidateSeed(); err != nil {
		return err
	}
	if _, err := seed.ParseSize(cfg.Seed.Size); err != nil {
		return err
	}
	if cfg.Seed.Traffic != "" {
		if _, err := datagen.TrafficShape(cfg.Seed.Traffic, nil); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, registry, err := connect(ctx, nil)
	if err != nil {
		return err
	}
	defer pool.Close()

	logging.Info().
		Str("size", cfg.Seed.Size).
		Bool("reset_first", cfg.Seed.ResetFirst).
		Int64("seed", cfg.Seed.Seed).
		Str("traffic", cfg.Seed.Traffic).
		Msg("Seeding demo data")

	start := time.Now()
	res, err := seed.NewEngine(pool, registry, cfg.AllowWrites).Seed(ctx, seed.Options{
		Size:       cfg.Seed.Size,
		ResetFirst: cfg.Seed.ResetFirst,
		Seed:       cfg.Seed.Seed,
		Traffic:    cfg.Seed.Traffic,
	})
	if err != nil {
		return err
	}

	logging.Info().
		Str("run_id", res.RunID).
		Dur("duration", time.Since(start)).
		Msg("Seeding complete")

	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}
	return nil
}
