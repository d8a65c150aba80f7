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
)

func (s *Server) registerAnalyticsTools() {
	s.addTool(readOnlyTool("revenue_by_day", "Revenue by day",
		"Orders and revenue per UTC day for the last N days. Cancelled orders are excluded when orders has a status column.",
		daysParam(30)),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args := daysArgs{Days: 30}
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			rows, err := s.analytics.RevenueByDay(ctx, args.Days)
			if err != nil {
				return nil, err
			}
			return map[string]any{"days": args.Days, "rows": rows}, nil
		})

	s.addTool(readOnlyTool("top_products_last_days", "Top products",
		"Top products by revenue for the last N days. Cancelled orders are excluded when orders has a status column.",
		daysParam(30), limitParam("limit", 10)),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args := rankArgs{Days: 30, Limit: 10}
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			rows, err := s.analytics.TopProducts(ctx, args.Days, args.Limit)
			if err != nil {
				return nil, err
			}
			return map[string]any{"days": args.Days, "limit": args.Limit, "rows": rows}, nil
		})

	s.addTool(readOnlyTool("top_customers_last_days", "Top customers",
		"Top customers by revenue for the last N days. Cancelled orders are excluded when orders has a status column.",
		daysParam(90), limitParam("limit", 10)),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args := rankArgs{Days: 90, Limit: 10}
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			rows, err := s.analytics.TopCustomers(ctx, args.Days, args.Limit)
			if err != nil {
				return nil, err
			}
			return map[string]any{"days": args.Days, "limit": args.Limit, "rows": rows}, nil
		})

	s.addTool(readOnlyTool("repeat_purchase_rate", "Repeat purchase rate",
		"Share of customers with two or more orders over the last N days.",
		daysParam(180)),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args := daysArgs{Days: 180}
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			return s.analytics.RepeatPurchaseRate(ctx, args.Days)
		})

	s.addTool(readOnlyTool("gross_margin_last_days", "Gross margin",
		"Gross margin for the last N days. Uses order_items.unit_cost when present, else products.cost.",
		daysParam(30)),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args := daysArgs{Days: 30}
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			return s.analytics.GrossMargin(ctx, args.Days)
		})

	s.addTool(readOnlyTool("sales_kpis", "Sales KPIs",
		"Order count, revenue and average order value for the last N days.",
		daysParam(30)),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args := daysArgs{Days: 30}
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			return s.analytics.SalesKPIs(ctx, args.Days)
		})

	s.addTool(readOnlyTool("low_stock", "Low stock",
		"List items at or under a stock threshold. Needs the v_inventory_on_hand view or an inventory table.",
		mcp.WithNumber("threshold", mcp.Description("Report items with on-hand at or below this."),
			mcp.DefaultNumber(10)),
		limitParam("limit", 50)),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args := lowStockArgs{Threshold: 10, Limit: 50}
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			rows, err := s.analytics.LowStock(ctx, args.Threshold, args.Limit)
			if err != nil {
				return nil, err
			}
			return map[string]any{"threshold": args.Threshold, "limit": args.Limit, "rows": rows}, nil
		})
}

func (s *Server) registerReportTools() {
	s.addTool(readOnlyTool("ops_health_report", "Ops health report",
		"Operational snapshot in Markdown: order status mix, pending backlog and a low-stock summary.",
		daysParam(14),
		mcp.WithNumber("low_stock_threshold", mcp.Description("Stock level that counts as low."),
			mcp.DefaultNumber(10))),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args := opsArgs{Days: 14, LowStockThreshold: 10}
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			r, err := s.reports.OpsHealth(ctx, args.Days, args.LowStockThreshold)
			if err != nil {
				return nil, err
			}
			return r.Markdown(), nil
		})

	s.addTool(readOnlyTool("sales_report", "Sales report",
		"One-page Markdown sales report: KPIs, daily trend and top products.",
		daysParam(30), limitParam("top_n", 10)),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args := reportArgs{Days: 30, TopN: 10}
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			r, err := s.reports.SalesReport(ctx, args.Days, args.TopN)
			if err != nil {
				return nil, err
			}
			return r.Markdown(), nil
		})

	s.addTool(readOnlyTool("sales_dashboard", "Sales dashboard",
		"One-page dashboard bundle: revenue trend, top products, KPI snapshot and margin, plus a Markdown summary.",
		daysParam(30), limitParam("top_n", 10)),
		func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
			args := reportArgs{Days: 30, TopN: 10}
			if err := bind(req, &args); err != nil {
				return nil, err
			}
			return s.reports.Dashboard(ctx, args.Days, args.TopN)
		})
}
