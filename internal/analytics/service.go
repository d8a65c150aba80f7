//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package analytics computes e-commerce metrics over whatever shop schema
// the connected database has. Each metric resolves the physical column
// names it needs through the schema registry, builds parameterized SQL,
// and returns plain structs with money rounded to two decimals.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-shopmcp/internal/db"
	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
	"github.com/pgEdge/pgedge-shopmcp/internal/schema"
)

// BacklogAge is how old a pending or processing order must be to count
// as backlog.
const BacklogAge = 24 * time.Hour

// Service runs the analytics queries.
type Service struct {
	db   db.DB
	plan planner
	now  func() time.Time
	log  zerolog.Logger
}

// NewService creates a service that queries q and resolves columns
// through reg.
func NewService(q db.DB, reg *schema.Registry) *Service {
	return &Service{
		db:   q,
		plan: planner{reg: reg},
		now:  time.Now,
		log:  logging.Component("analytics"),
	}
}

// WithClock overrides the time source used to compute windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) window(days int) Window {
	return LastDays(s.now(), days)
}

func collect[T any](ctx context.Context, q db.DB, log zerolog.Logger, op, sql string, args ...any) ([]T, error) {
	log.Debug().Str("op", op).Str("sql", sql).Msg("Running query")
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func collectOne[T any](ctx context.Context, q db.DB, log zerolog.Logger, op, sql string, args ...any) (T, error) {
	log.Debug().Str("op", op).Str("sql", sql).Msg("Running query")
	var zero T
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	out, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// RevenueByDay returns one row per UTC day with at least one
// non-cancelled order in the last days, ascending by day.
func (s *Service) RevenueByDay(ctx context.Context, days int) ([]DayRevenue, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	sql, err := s.plan.revenueByDay(ctx)
	if err != nil {
		return nil, err
	}
	w := s.window(days)
	return collect[DayRevenue](ctx, s.db, s.log, "revenue by day", sql, w.Start, w.End)
}

// TopProducts ranks products by revenue over the last days.
func (s *Service) TopProducts(ctx context.Context, days, limit int) ([]ProductRevenue, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	sql, err := s.plan.topProducts(ctx)
	if err != nil {
		return nil, err
	}
	w := s.window(days)
	return collect[ProductRevenue](ctx, s.db, s.log, "top products", sql, w.Start, w.End, limit)
}

// TopCustomers ranks customers by order revenue over the last days.
func (s *Service) TopCustomers(ctx context.Context, days, limit int) ([]CustomerRevenue, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	sql, err := s.plan.topCustomers(ctx)
	if err != nil {
		return nil, err
	}
	w := s.window(days)
	return collect[CustomerRevenue](ctx, s.db, s.log, "top customers", sql, w.Start, w.End, limit)
}

// RepeatPurchaseRate reports the share of active customers with two or
// more non-cancelled orders in the window.
func (s *Service) RepeatPurchaseRate(ctx context.Context, days int) (RepeatRate, error) {
	if err := validateDays(days); err != nil {
		return RepeatRate{}, err
	}
	sql, err := s.plan.repeatPurchaseRate(ctx)
	if err != nil {
		return RepeatRate{}, err
	}
	w := s.window(days)
	out, err := collectOne[RepeatRate](ctx, s.db, s.log, "repeat purchase rate", sql, w.Start, w.End)
	out.Days = days
	return out, err
}

// GrossMargin reports revenue, cost and margin over the window.
func (s *Service) GrossMargin(ctx context.Context, days int) (Margin, error) {
	if err := validateDays(days); err != nil {
		return Margin{}, err
	}
	sql, err := s.plan.grossMargin(ctx)
	if err != nil {
		return Margin{}, err
	}
	w := s.window(days)
	out, err := collectOne[Margin](ctx, s.db, s.log, "gross margin", sql, w.Start, w.End)
	out.Days = days
	return out, err
}

// SalesKPIs reports order count, revenue and average order value.
func (s *Service) SalesKPIs(ctx context.Context, days int) (KPIs, error) {
	if err := validateDays(days); err != nil {
		return KPIs{}, err
	}
	sql, err := s.plan.salesKPIs(ctx)
	if err != nil {
		return KPIs{}, err
	}
	w := s.window(days)
	out, err := collectOne[KPIs](ctx, s.db, s.log, "sales kpis", sql, w.Start, w.End)
	out.Days = days
	return out, err
}

// LowStock lists products with on-hand at or below threshold, lowest
// first.
func (s *Service) LowStock(ctx context.Context, threshold, limit int) ([]StockLevel, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	sql, err := s.plan.lowStock(ctx)
	if err != nil {
		return nil, err
	}
	return collect[StockLevel](ctx, s.db, s.log, "low stock", sql, threshold, limit)
}

// CountTables returns row counts for the well-known shop tables that
// exist in the schema.
func (s *Service) CountTables(ctx context.Context) (TableCounts, error) {
	sql, err := s.plan.tableCounts(ctx)
	if err != nil {
		return TableCounts{}, err
	}
	out := TableCounts{Tables: map[string]int64{}}
	if sql == "" {
		out.Note = "No known tables found."
		return out, nil
	}

	type count struct {
		Table string `db:"table_name"`
		N     int64  `db:"n"`
	}
	rows, err := collect[count](ctx, s.db, s.log, "table counts", sql)
	if err != nil {
		return TableCounts{}, err
	}
	for _, r := range rows {
		out.Tables[r.Table] = r.N
	}
	return out, nil
}

// StatusMix returns the order count per status over the window,
// cancelled orders included.
func (s *Service) StatusMix(ctx context.Context, days int) (StatusMix, error) {
	if err := validateDays(days); err != nil {
		return StatusMix{}, err
	}
	sql, err := s.plan.statusMix(ctx)
	if err != nil {
		return StatusMix{}, err
	}
	if sql == "" {
		return StatusMix{Rows: []StatusCount{}}, nil
	}
	w := s.window(days)
	rows, err := collect[StatusCount](ctx, s.db, s.log, "status mix", sql, w.Start, w.End)
	if err != nil {
		return StatusMix{}, err
	}
	return StatusMix{Available: true, Rows: rows}, nil
}

// Backlog counts orders placed within the window but more than
// BacklogAge ago that are still pending or processing.
func (s *Service) Backlog(ctx context.Context, days int) (Backlog, error) {
	if err := validateDays(days); err != nil {
		return Backlog{}, err
	}
	w := s.window(days)
	out := Backlog{OlderThan: w.End.Add(-BacklogAge)}

	sql, err := s.plan.backlog(ctx)
	if err != nil {
		return out, err
	}
	if sql == "" {
		return out, nil
	}
	s.log.Debug().Str("op", "backlog").Str("sql", sql).Msg("Running query")
	if err := s.db.QueryRow(ctx, sql, w.Start, out.OlderThan).Scan(&out.Orders); err != nil {
		return out, fmt.Errorf("backlog: %w", err)
	}
	out.Available = true
	return out, nil
}

// RequireTables fails with a MissingSchemaError naming every absent
// table.
func (s *Service) RequireTables(ctx context.Context, names ...string) error {
	return s.plan.require(ctx, names...)
}
