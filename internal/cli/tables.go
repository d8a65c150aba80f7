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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-shopmcp/internal/analytics"
	"github.com/pgEdge/pgedge-shopmcp/internal/db"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables with row counts for the known shop tables",
	RunE:  runTables,
}

func runTables(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	pool, registry, err := connect(ctx, nil)
	if err != nil {
		return err
	}
	defer pool.Close()

	tables, err := registry.Reflector().ListTables(ctx)
	if err != nil {
		return err
	}
	counts, err := analytics.NewService(pool, registry).CountTables(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS")
	for _, t := range tables {
		n, ok := counts.Tables[t]
		if ok {
			fmt.Fprintf(w, "%s\t%d\n", t, n)
		} else {
			fmt.Fprintf(w, "%s\t-\n", t)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if counts.Note != "" {
		cmd.Println(counts.Note)
	}

	meta, err := db.GetAllMetadata(ctx, pool, registry.Reflector().Schema())
	if err != nil {
		return err
	}
	if runID, ok := meta["seed_run_id"]; ok {
		cmd.Printf("Last seed: run %s, size %s, seed %s, at %s\n",
			runID, meta["seed_size"], meta["seed_value"], meta["seeded_at"])
	}
	return nil
}
