//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package sqlgate runs a single caller-supplied statement that looks
// read-only, with a row cap and a server-side statement timeout.
//
// The gate only inspects the leading keyword. A SELECT that calls a
// function with side effects passes it; the enclosing transaction is
// rolled back, but effects outside transactional state are not undone.
package sqlgate

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
	"github.com/pgEdge/pgedge-shopmcp/internal/db"
	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
)

// Bounds on caller-supplied limits.
const (
	MinRows      = 1
	MaxRows      = 2000
	MinTimeoutMs = 100
	MaxTimeoutMs = 60000
)

var readOnlyKeywords = map[string]bool{
	"select":  true,
	"with":    true,
	"show":    true,
	"explain": true,
}

// Result is what Run returns.
type Result struct {
	Rows     []map[string]any `json:"rows"`
	Returned int              `json:"returned"`
	MaxRows  int              `json:"max_rows"`
	Columns  []string         `json:"columns"`
}

// Normalize trims the query and strips trailing semicolons. Any
// semicolon left after that means more than one statement.
func Normalize(query string) (string, error) {
	q := strings.TrimSpace(query)
	for strings.HasSuffix(q, ";") {
		q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	}
	if q == "" {
		return "", apperrors.Validation("query", "must not be empty")
	}
	if strings.Contains(q, ";") {
		return "", apperrors.Validation("query", "only a single statement is allowed")
	}
	return q, nil
}

// IsReadOnly reports whether the first keyword is one of select, with,
// show or explain.
func IsReadOnly(normalized string) bool {
	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return false
	}
	return readOnlyKeywords[strings.ToLower(fields[0])]
}

// Check normalizes the query and validates the keyword and bounds
// without touching the database.
func Check(query string, maxRows, timeoutMs int) (string, error) {
	if maxRows < MinRows || maxRows > MaxRows {
		return "", apperrors.Validation("max_rows", "must be between %d and %d, got %d", MinRows, MaxRows, maxRows)
	}
	if timeoutMs < MinTimeoutMs || timeoutMs > MaxTimeoutMs {
		return "", apperrors.Validation("timeout_ms", "must be between %d and %d, got %d", MinTimeoutMs, MaxTimeoutMs, timeoutMs)
	}
	q, err := Normalize(query)
	if err != nil {
		return "", err
	}
	if !IsReadOnly(q) {
		return "", apperrors.Validation("query", "only SELECT, WITH, SHOW and EXPLAIN statements are allowed")
	}
	return q, nil
}

// Gate executes checked statements.
type Gate struct {
	db  db.DB
	log zerolog.Logger
}

// New creates a gate over q.
func New(q db.DB) *Gate {
	return &Gate{db: q, log: logging.Component("sqlgate")}
}

// Run checks the query, then executes it once inside a transaction that
// carries only the statement timeout and is always rolled back.
func (g *Gate) Run(ctx context.Context, query string, maxRows, timeoutMs int) (*Result, error) {
	q, err := Check(query, maxRows, timeoutMs)
	if err != nil {
		return nil, err
	}

	tx, err := g.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			g.log.Warn().Err(rbErr).Msg("Rollback failed")
		}
	}()

	if _, err := tx.Exec(ctx, "SELECT set_config('statement_timeout', $1, true)", strconv.Itoa(timeoutMs)); err != nil {
		return nil, fmt.Errorf("failed to set statement timeout: %w", err)
	}

	g.log.Debug().Str("query", q).Int("max_rows", maxRows).Int("timeout_ms", timeoutMs).Msg("Running read-only query")

	rows, err := tx.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	out := &Result{Rows: []map[string]any{}, MaxRows: maxRows, Columns: columns}
	for len(out.Rows) < maxRows && rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(values))
		for i, v := range values {
			row[columns[i]] = jsonValue(v)
		}
		out.Rows = append(out.Rows, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.Returned = len(out.Rows)
	return out, nil
}

// jsonValue converts driver values without a natural JSON form.
func jsonValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case netip.Prefix:
		return x.String()
	case netip.Addr:
		return x.String()
	case pgtype.Interval:
		if !x.Valid {
			return nil
		}
		return fmt.Sprintf("%d months %d days %d microseconds", x.Months, x.Days, x.Microseconds)
	default:
		return v
	}
}
