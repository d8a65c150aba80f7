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
)

func TestPromptsList(t *testing.T) {
	s, _ := newTestServer(t, shopTables())
	resp := rpc(t, s, "prompts/list", nil)
	require.Nil(t, resp.Error)

	var list struct {
		Prompts []struct {
			Name      string `json:"name"`
			Arguments []struct {
				Name string `json:"name"`
			} `json:"arguments"`
		} `json:"prompts"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &list))

	args := map[string][]string{}
	for _, p := range list.Prompts {
		var names []string
		for _, a := range p.Arguments {
			names = append(names, a.Name)
		}
		args[p.Name] = names
	}
	assert.Equal(t, map[string][]string{
		"weekly_exec_brief":        {"days"},
		"sales_deep_dive":          {"days", "top_n"},
		"investigate_revenue_drop": {"days", "compare_days"},
		"ops_triage":               {"days"},
		"inventory_reorder_plan":   {"days", "low_stock_threshold"},
		"data_quality_smoke_test":  nil,
	}, args)
}

func getPrompt(t *testing.T, s *Server, name string, args map[string]string) (string, rpcResponse) {
	t.Helper()
	resp := rpc(t, s, "prompts/get", map[string]any{"name": name, "arguments": args})
	if resp.Error != nil {
		return "", resp
	}
	var res struct {
		Messages []struct {
			Role    string `json:"role"`
			Content struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &res))
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "user", res.Messages[0].Role)
	return res.Messages[0].Content.Text, resp
}

func TestPromptRendering(t *testing.T) {
	s, _ := newTestServer(t, shopTables())

	text, _ := getPrompt(t, s, "weekly_exec_brief", nil)
	assert.Contains(t, text, "last 7 days")
	assert.Contains(t, text, "repeat_purchase_rate(days=30)")
	assert.Contains(t, text, "margin %,")

	text, _ = getPrompt(t, s, "weekly_exec_brief", map[string]string{"days": "45"})
	assert.Contains(t, text, "sales_report(days=45)")
	assert.Contains(t, text, "repeat_purchase_rate(days=45)")

	text, _ = getPrompt(t, s, "sales_deep_dive", map[string]string{"days": "7", "top_n": "5"})
	assert.Contains(t, text, "top_products_last_days(days=7, limit=5)")
	assert.Contains(t, text, "top_customers_last_days(days=90, limit=5)")

	text, _ = getPrompt(t, s, "investigate_revenue_drop", map[string]string{"days": "10", "compare_days": "20"})
	assert.Contains(t, text, "revenue_by_day(days=30)")
	assert.Contains(t, text, "prior 20 days")

	text, _ = getPrompt(t, s, "inventory_reorder_plan", map[string]string{"low_stock_threshold": "0"})
	assert.Contains(t, text, "low_stock(threshold=0, limit=50)")

	text, _ = getPrompt(t, s, "data_quality_smoke_test", nil)
	assert.Contains(t, text, "db_ping()")
}

func TestPromptRejectsBadArguments(t *testing.T) {
	s, _ := newTestServer(t, shopTables())

	for _, v := range []string{"abc", "0", "-3"} {
		_, resp := getPrompt(t, s, "ops_triage", map[string]string{"days": v})
		require.NotNil(t, resp.Error, "days=%s", v)
		assert.Contains(t, resp.Error.Message, "days")
	}
}
