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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-shopmcp/internal/analytics"
	"github.com/pgEdge/pgedge-shopmcp/internal/reports"
)

var (
	salesDays    int
	salesTopN    int
	opsDays      int
	opsThreshold int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a Markdown report",
}

var reportSalesCmd = &cobra.Command{
	Use:   "sales",
	Short: "KPIs, daily trend and top products",
	Long: `Print the one-page Markdown sales report.

Example:
  pgedge-shopmcp report sales --days 30 --top-n 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(ctx context.Context, c *reports.Composer) (*reports.Report, error) {
			return c.SalesReport(ctx, salesDays, salesTopN)
		})
	},
}

var reportOpsCmd = &cobra.Command{
	Use:   "ops",
	Short: "Order status mix, backlog and low stock",
	Long: `Print the Markdown operational health report.

Example:
  pgedge-shopmcp report ops --days 14 --low-stock-threshold 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd, func(ctx context.Context, c *reports.Composer) (*reports.Report, error) {
			return c.OpsHealth(ctx, opsDays, opsThreshold)
		})
	},
}

func init() {
	reportSalesCmd.Flags().IntVar(&salesDays, "days", 30, "window length in days")
	reportSalesCmd.Flags().IntVar(&salesTopN, "top-n", 10, "number of top products")
	reportOpsCmd.Flags().IntVar(&opsDays, "days", 14, "window length in days")
	reportOpsCmd.Flags().IntVar(&opsThreshold, "low-stock-threshold", 10, "stock level that counts as low")

	reportCmd.AddCommand(reportSalesCmd)
	reportCmd.AddCommand(reportOpsCmd)
}

type reportFunc func(context.Context, *reports.Composer) (*reports.Report, error)

func runReport(cmd *cobra.Command, build reportFunc) error {
	ctx, cancel := signalContext()
	defer cancel()

	pool, registry, err := connect(ctx, nil)
	if err != nil {
		return err
	}
	defer pool.Close()

	r, err := build(ctx, reports.NewComposer(analytics.NewService(pool, registry)))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), r.Markdown())
	return err
}
