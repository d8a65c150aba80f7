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
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
)

type promptArg struct {
	name        string
	description string
	def         int
}

// promptDef is a canned analysis playbook. render receives every
// declared argument, parsed or defaulted.
type promptDef struct {
	name        string
	title       string
	description string
	args        []promptArg
	render      func(a map[string]int) string
}

var prompts = []promptDef{
	{
		name:        "weekly_exec_brief",
		title:       "Weekly exec brief",
		description: "One-page executive brief: KPIs, what changed, risks and next actions.",
		args:        []promptArg{{"days", "Window length in days.", 7}},
		render: func(a map[string]int) string {
			d := a["days"]
			return fmt.Sprintf(`Create a one-page executive brief for the last %[1]d days.

Use tools:
- sales_report(days=%[1]d)
- ops_health_report(days=%[1]d, low_stock_threshold=10)
- repeat_purchase_rate(days=%[2]d)
- gross_margin_last_days(days=%[1]d)

Output (Markdown):
- Summary (max 5 bullets)
- KPI snapshot (include revenue, orders, AOV, margin %%, repeat rate)
- What changed (refer to daily trend)
- Risks (ops and inventory)
- Next actions (3 to 7 bullets)

Rules: evidence first, no invented numbers.`, d, max(30, d))
		},
	},
	{
		name:        "sales_deep_dive",
		title:       "Sales deep dive",
		description: "Detailed sales analysis for a period: trend, product and customer drivers, recommendations.",
		args: []promptArg{
			{"days", "Window length in days.", 30},
			{"top_n", "Rows per ranking.", 15},
		},
		render: func(a map[string]int) string {
			d, n := a["days"], a["top_n"]
			return fmt.Sprintf(`Analyze sales performance for the last %[1]d days.

Use tools:
- revenue_by_day(days=%[1]d)
- top_products_last_days(days=%[1]d, limit=%[2]d)
- top_customers_last_days(days=%[3]d, limit=%[2]d)
- gross_margin_last_days(days=%[1]d)

Deliver (Markdown):
1) Trend narrative (spikes and dips)
2) Top products table with interpretation
3) Top customers table with interpretation
4) Profitability notes (margin implications)
5) Recommendations (5 to 10 bullets)

Prefer tools over raw SQL.`, d, n, max(d, 90))
		},
	},
	{
		name:        "investigate_revenue_drop",
		title:       "Investigate revenue drop",
		description: "Compare two periods, isolate drivers and propose fixes.",
		args: []promptArg{
			{"days", "Recent window in days.", 14},
			{"compare_days", "Prior window in days.", 14},
		},
		render: func(a map[string]int) string {
			d, c := a["days"], a["compare_days"]
			return fmt.Sprintf(`We suspect revenue dropped. Compare the last %[1]d days with the prior %[2]d days.

Use tools:
- revenue_by_day(days=%[3]d)
- top_products_last_days(days=%[1]d, limit=20)
- top_customers_last_days(days=%[4]d, limit=20)
- ops_health_report(days=%[1]d, low_stock_threshold=10)

If needed, use sql_readonly for a clean KPI comparison across the two windows.

Output (Markdown):
- Evidence (tables and key differences)
- Likely causes (ranked)
- Remediations (ranked by impact and effort)
- Monitoring plan (what to watch next)`, d, c, d+c, max(d, 90))
		},
	},
	{
		name:        "ops_triage",
		title:       "Ops triage",
		description: "Operations triage: backlog, status issues, inventory risks and immediate actions.",
		args:        []promptArg{{"days", "Window length in days.", 14}},
		render: func(a map[string]int) string {
			return fmt.Sprintf(`Run an ops triage for the last %[1]d days.

Use tools:
- ops_health_report(days=%[1]d, low_stock_threshold=10)
- table_counts()

Output (Markdown):
- What is urgent (today)
- What is risky (this week)
- Recommended actions (specific)`, a["days"])
		},
	},
	{
		name:        "inventory_reorder_plan",
		title:       "Inventory reorder plan",
		description: "Reorder plan: low-stock list with sales velocity context.",
		args: []promptArg{
			{"days", "Sales window in days.", 30},
			{"low_stock_threshold", "Stock level that counts as low.", 10},
		},
		render: func(a map[string]int) string {
			return fmt.Sprintf(`Create an inventory reorder plan.

Use tools:
- low_stock(threshold=%d, limit=50)
- top_products_last_days(days=%d, limit=20)

Output (Markdown):
- Reorder now (low stock and high sales)
- Watchlist (low stock and low sales)
- Notes and assumptions`, a["low_stock_threshold"], a["days"])
		},
	},
	{
		name:        "data_quality_smoke_test",
		title:       "Data quality smoke test",
		description: "Fast sanity checks after seeding or schema changes.",
		render: func(map[string]int) string {
			return `Run a data-quality smoke test.

Use tools:
- db_ping()
- schema_overview()
- table_counts()
- sales_report(days=30)

If anomalies appear, use sql_readonly for targeted checks.
Output: pass/fail summary with fixes.`
		},
	},
}

func (s *Server) registerPrompts() {
	for _, p := range prompts {
		opts := []mcp.PromptOption{mcp.WithPromptDescription(p.description)}
		for _, a := range p.args {
			opts = append(opts, mcp.WithArgument(a.name,
				mcp.ArgumentDescription(fmt.Sprintf("%s Default %d.", a.description, a.def))))
		}
		s.mcp.AddPrompt(mcp.NewPrompt(p.name, opts...), p.handler)
	}
}

func (p promptDef) handler(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	values, err := p.parse(req.Params.Arguments)
	if err != nil {
		return nil, err
	}
	return mcp.NewGetPromptResult(p.title, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(p.render(values))),
	}), nil
}

// parse reads the declared integer arguments. Missing or blank values
// take the default. Thresholds may be zero, everything else must be
// positive.
func (p promptDef) parse(raw map[string]string) (map[string]int, error) {
	out := make(map[string]int, len(p.args))
	for _, a := range p.args {
		out[a.name] = a.def
		v := strings.TrimSpace(raw[a.name])
		if v == "" {
			continue
		}
		lo := 1
		if strings.HasSuffix(a.name, "threshold") {
			lo = 0
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < lo {
			return nil, apperrors.Validation(a.name, "must be an integer >= %d, got %q", lo, v)
		}
		out[a.name] = n
	}
	return out, nil
}
