//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package reports assembles analytics results into Markdown reports and
// dashboard bundles.
package reports

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pgEdge/pgedge-shopmcp/internal/analytics"
	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
)

const (
	opsLowStockLimit = 15
	trendRows        = 30
)

// Composer builds reports from an analytics service.
type Composer struct {
	svc *analytics.Service
}

// NewComposer creates a composer.
func NewComposer(svc *analytics.Service) *Composer {
	return &Composer{svc: svc}
}

// OpsHealth reports the order status mix, the 24h backlog and low stock.
// An inventory lookup that fails for schema reasons is rendered inline
// rather than failing the report.
func (c *Composer) OpsHealth(ctx context.Context, days, lowStockThreshold int) (*Report, error) {
	if err := c.svc.RequireTables(ctx, "orders"); err != nil {
		return nil, err
	}

	mix, err := c.svc.StatusMix(ctx, days)
	if err != nil {
		return nil, err
	}
	backlog, err := c.svc.Backlog(ctx, days)
	if err != nil {
		return nil, err
	}

	r := &Report{Title: "Ops health report", Lines: []string{window(days)}}

	s := r.Add("Order status mix")
	switch {
	case !mix.Available:
		s.Lines = append(s.Lines, "_No `status` column on orders._")
	case len(mix.Rows) == 0:
		s.Lines = append(s.Lines, "_No orders in window._")
	default:
		for _, row := range mix.Rows {
			s.Lines = append(s.Lines, fmt.Sprintf("- **%s**: %d", row.Status, row.Orders))
		}
	}

	s = r.Add("Backlog")
	if backlog.Available {
		s.Lines = append(s.Lines, fmt.Sprintf("- Orders older than 24h still pending/processing: **%d**", backlog.Orders))
	} else {
		s.Lines = append(s.Lines, "_Backlog unavailable without a `status` column on orders._")
	}

	lines, err := c.lowStockLines(ctx, lowStockThreshold)
	if err != nil {
		return nil, err
	}
	r.Add("Inventory (low stock)").Lines = lines

	return r, nil
}

// lowStockLines renders the low stock section. A missing inventory
// source, table or column degrades to a single explanatory line.
func (c *Composer) lowStockLines(ctx context.Context, threshold int) ([]string, error) {
	rows, err := c.svc.LowStock(ctx, threshold, opsLowStockLimit)
	switch {
	case errors.Is(err, apperrors.ErrConfiguration),
		errors.Is(err, apperrors.ErrMissingSchema),
		errors.Is(err, apperrors.ErrColumnNotFound):
		return []string{fmt.Sprintf("_Inventory check unavailable: %s_", err)}, nil
	case err != nil:
		return nil, err
	case len(rows) == 0:
		return []string{fmt.Sprintf("- None at/under %d.", threshold)}, nil
	}
	lines := []string{fmt.Sprintf("- Threshold: %d", threshold)}
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("  - `%s` %s: on_hand=%d", row.SKU, row.Name, row.OnHand))
	}
	return lines, nil
}

// SalesReport renders KPIs, the daily trend and the top products.
func (c *Composer) SalesReport(ctx context.Context, days, topN int) (*Report, error) {
	if err := c.svc.RequireTables(ctx, "orders", "order_items"); err != nil {
		return nil, err
	}

	kpis, err := c.svc.SalesKPIs(ctx, days)
	if err != nil {
		return nil, err
	}
	trend, err := c.svc.RevenueByDay(ctx, days)
	if err != nil {
		return nil, err
	}
	top, err := c.svc.TopProducts(ctx, days, topN)
	if err != nil {
		return nil, err
	}

	r := &Report{Title: "Sales report", Lines: []string{window(days)}}

	r.Add("KPIs").Table = &Table{
		Columns: []string{"orders", "revenue", "AOV"},
		Right:   []bool{true, true, true},
		Rows:    [][]string{{strconv.FormatInt(kpis.Orders, 10), money(kpis.Revenue), money(kpis.AOV)}},
	}

	s := r.Add("Trend (daily)")
	if len(trend) == 0 {
		s.Lines = []string{"_No rows._"}
	} else {
		t := &Table{Columns: []string{"day", "orders", "revenue"}, Right: []bool{false, true, true}}
		for _, d := range trend[max(len(trend)-trendRows, 0):] {
			t.Rows = append(t.Rows, []string{d.Day, strconv.FormatInt(d.Orders, 10), money(d.Revenue)})
		}
		s.Table = t
	}

	s = r.Add("Top products (by revenue)")
	if len(top) == 0 {
		s.Lines = []string{"_No rows._"}
	} else {
		t := &Table{Columns: []string{"sku", "name", "units", "revenue"}, Right: []bool{false, false, true, true}}
		for _, p := range top {
			t.Rows = append(t.Rows, []string{p.SKU, p.Name, strconv.FormatInt(p.Units, 10), money(p.Revenue)})
		}
		s.Table = t
	}

	return r, nil
}

// Dashboard is the data behind a one-page sales dashboard.
type Dashboard struct {
	Days        int                        `json:"days"`
	KPIs        analytics.KPIs             `json:"kpis"`
	Margin      analytics.Margin           `json:"margin"`
	Trend       []analytics.DayRevenue     `json:"trend"`
	TopProducts []analytics.ProductRevenue `json:"top_products"`
	Markdown    string                     `json:"markdown"`
}

// Dashboard gathers trend, top products, KPIs and margin for one window.
func (c *Composer) Dashboard(ctx context.Context, days, topN int) (*Dashboard, error) {
	if err := c.svc.RequireTables(ctx, "orders", "order_items"); err != nil {
		return nil, err
	}

	d := &Dashboard{Days: days}
	var err error
	if d.Trend, err = c.svc.RevenueByDay(ctx, days); err != nil {
		return nil, err
	}
	if d.TopProducts, err = c.svc.TopProducts(ctx, days, topN); err != nil {
		return nil, err
	}
	if d.KPIs, err = c.svc.SalesKPIs(ctx, days); err != nil {
		return nil, err
	}
	if d.Margin, err = c.svc.GrossMargin(ctx, days); err != nil {
		return nil, err
	}

	r := &Report{Title: "Sales dashboard", Lines: []string{window(days)}}
	r.Add("KPI snapshot").Table = &Table{
		Columns: []string{"revenue", "orders", "AOV", "margin rate"},
		Right:   []bool{true, true, true, true},
		Rows: [][]string{{
			money(d.KPIs.Revenue), strconv.FormatInt(d.KPIs.Orders, 10), money(d.KPIs.AOV), ratio(d.Margin.MarginRate),
		}},
	}
	s := r.Add("Panels")
	s.Lines = []string{
		fmt.Sprintf("- Revenue trend: %d days with orders", len(d.Trend)),
		fmt.Sprintf("- Top products: %d rows", len(d.TopProducts)),
	}
	d.Markdown = r.Markdown()
	return d, nil
}
