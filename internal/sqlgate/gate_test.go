//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package sqlgate

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "SELECT 1", "SELECT 1", false},
		{"surrounding whitespace", "  \n SELECT 1 \t", "SELECT 1", false},
		{"one terminator", "SELECT 1;", "SELECT 1", false},
		{"repeated terminators", "SELECT 1 ; ;;", "SELECT 1", false},
		{"embedded terminator", "SELECT 1; DROP TABLE orders", "", true},
		{"terminator in literal", "SELECT ';'", "", true},
		{"empty", "   ", "", true},
		{"only terminators", ";;", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsReadOnly(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT 1", true},
		{"select * from orders", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"Show search_path", true},
		{"EXPLAIN SELECT 1", true},
		{"INSERT INTO orders DEFAULT VALUES", false},
		{"update orders set status = 'x'", false},
		{"DELETE FROM orders", false},
		{"TRUNCATE orders", false},
		{"CREATE TABLE x (id int)", false},
		{"selectx 1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReadOnly(tt.query))
		})
	}
}

func TestCheckBounds(t *testing.T) {
	tests := []struct {
		name      string
		maxRows   int
		timeoutMs int
		field     string
	}{
		{"zero rows", 0, 5000, "max_rows"},
		{"too many rows", 2001, 5000, "max_rows"},
		{"short timeout", 200, 99, "timeout_ms"},
		{"long timeout", 200, 60001, "timeout_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Check("SELECT 1", tt.maxRows, tt.timeoutMs)
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	q, err := Check("SELECT 1;", MinRows, MinTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", q)

	_, err = Check("SELECT 1", MaxRows, MaxTimeoutMs)
	require.NoError(t, err)
}

func TestCheckRejectsWrites(t *testing.T) {
	_, err := Check("DELETE FROM orders", 200, 5000)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = Check("SELECT 1; DELETE FROM orders", 200, 5000)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// The gate looks only at the leading keyword. A SELECT wrapping a
// function with side effects is accepted; this is a known gap.
func TestCheckAcceptsSideEffectsInsideSelect(t *testing.T) {
	for _, q := range []string{
		"SELECT nextval('orders_order_id_seq')",
		"SELECT pg_advisory_lock(42)",
		"WITH d AS (DELETE FROM orders RETURNING 1) SELECT count(*) FROM d",
	} {
		_, err := Check(q, 200, 5000)
		assert.NoError(t, err, q)
	}
}

func TestRunValidatesBeforeTouchingDatabase(t *testing.T) {
	g := New(nil)
	_, err := g.Run(context.Background(), "UPDATE orders SET status = 'x'", 200, 5000)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = g.Run(context.Background(), "SELECT 1", 0, 5000)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestJSONValue(t *testing.T) {
	id := uuid.MustParse("6f1c1f0e-8d3a-4b7e-9a51-2f0c8f6a1b2c")
	assert.Equal(t, id.String(), jsonValue([16]byte(id)))

	var n pgtype.Numeric
	require.NoError(t, n.Scan("12.50"))
	assert.Equal(t, 12.5, jsonValue(n))
	assert.Nil(t, jsonValue(pgtype.Numeric{}))

	assert.Equal(t, "abc", jsonValue("abc"))
	assert.Equal(t, int64(3), jsonValue(int64(3)))
}
