//go:build integration

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
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-shopmcp/internal/testutil"
)

func TestIntegrationRunCapsRows(t *testing.T) {
	pool := testutil.NewDatabase(t, "sqlgate")
	g := New(pool)

	res, err := g.Run(context.Background(), "SELECT n, n * 2 AS double FROM generate_series(1, 10) AS n;", 3, 5000)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Returned)
	assert.Equal(t, 3, res.MaxRows)
	assert.Equal(t, []string{"n", "double"}, res.Columns)
	assert.Equal(t, int32(1), res.Rows[0]["n"])

	res, err = g.Run(context.Background(), "select 1 as one", 200, 5000)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Returned)
}

func TestIntegrationRunConvertsValues(t *testing.T) {
	pool := testutil.NewDatabase(t, "sqlgate_values")

	res, err := New(pool).Run(context.Background(),
		"SELECT '6f1c1f0e-8d3a-4b7e-9a51-2f0c8f6a1b2c'::uuid AS id, 12.50::numeric AS amount", 1, 5000)
	require.NoError(t, err)
	assert.Equal(t, "6f1c1f0e-8d3a-4b7e-9a51-2f0c8f6a1b2c", res.Rows[0]["id"])
	assert.Equal(t, 12.5, res.Rows[0]["amount"])
}

func TestIntegrationRunTimesOut(t *testing.T) {
	pool := testutil.NewDatabase(t, "sqlgate_timeout")

	_, err := New(pool).Run(context.Background(), "SELECT pg_sleep(2)", 1, 100)
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr), "got %v", err)
	assert.Equal(t, "57014", pgErr.Code)

	// The timeout is scoped to the gate's transaction.
	var timeout string
	require.NoError(t, pool.QueryRow(context.Background(), "SHOW statement_timeout").Scan(&timeout))
	assert.Equal(t, "0", timeout)
}

// A data-modifying CTE passes the keyword check. The transaction is
// rolled back, so the delete does not persist.
func TestIntegrationRunRollsBackHiddenWrites(t *testing.T) {
	pool := testutil.NewDatabase(t, "sqlgate_cte")
	testutil.Exec(t, pool, "CREATE TABLE notes (id INT); INSERT INTO notes VALUES (1), (2)")

	res, err := New(pool).Run(context.Background(),
		"WITH d AS (DELETE FROM notes RETURNING id) SELECT count(*) AS deleted FROM d", 10, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Rows[0]["deleted"])

	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT count(*) FROM notes").Scan(&n))
	assert.Equal(t, 2, n)
}
