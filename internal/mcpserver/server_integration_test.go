//go:build integration

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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-shopmcp/internal/config"
	"github.com/pgEdge/pgedge-shopmcp/internal/metrics"
	"github.com/pgEdge/pgedge-shopmcp/internal/schema"
	"github.com/pgEdge/pgedge-shopmcp/internal/testutil"
)

func TestIntegrationSeedThenReport(t *testing.T) {
	pool := testutil.NewShopDatabase(t, "mcp")
	cfg := config.DefaultConfig()
	s := NewServer(Deps{
		DB:          pool,
		Registry:    schema.NewRegistry(schema.NewReflector(schema.NewPostgresCatalog(pool, "public"))),
		AllowWrites: true,
		SQL:         cfg.SQL,
		Seed:        cfg.Seed,
		Metrics:     metrics.New(),
	})

	res := callTool(t, s, "db_ping", nil)
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Contains(t, res.Content[0].Text, `"schema":"public"`)

	res = callTool(t, s, "seed_demo_data", map[string]any{"size": "small", "seed": 3})
	require.False(t, res.IsError, res.Content[0].Text)
	var seeded struct {
		OK       bool `json:"ok"`
		Inserted struct {
			Orders int64 `json:"orders"`
		} `json:"inserted"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &seeded))
	assert.True(t, seeded.OK)
	assert.Equal(t, int64(600), seeded.Inserted.Orders)

	res = callTool(t, s, "db_ping", nil)
	require.False(t, res.IsError, res.Content[0].Text)
	var ping struct {
		Schema   string            `json:"schema"`
		LastSeed map[string]string `json:"last_seed"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &ping))
	assert.Equal(t, "public", ping.Schema)
	assert.Equal(t, "small", ping.LastSeed["seed_size"])
	assert.Equal(t, "3", ping.LastSeed["seed_value"])

	res = callTool(t, s, "list_tables", nil)
	assert.NotContains(t, res.Content[0].Text, "shopmcp_metadata")

	res = callTool(t, s, "sales_report", map[string]any{"days": 180})
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Contains(t, res.Content[0].Text, "# Sales report")
	assert.Contains(t, res.Content[0].Text, "## Top products (by revenue)")

	res = callTool(t, s, "ops_health_report", nil)
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Contains(t, res.Content[0].Text, "## Backlog")

	res = callTool(t, s, "sql_readonly", map[string]any{"query": "SELECT count(*) AS n FROM orders;", "max_rows": 1})
	require.False(t, res.IsError, res.Content[0].Text)
	assert.JSONEq(t, `{"rows":[{"n":600}],"returned":1,"max_rows":1,"columns":["n"]}`, res.Content[0].Text)

	body := errorBody(t, callTool(t, s, "sql_readonly", map[string]any{"query": "SELECT * FROM no_such_table"}))
	assert.Equal(t, "undefined_table", body.Code)
	assert.Equal(t, "42P01", body.SQLState)
}
