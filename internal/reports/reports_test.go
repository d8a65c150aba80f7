//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-shopmcp/internal/analytics"
	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
	"github.com/pgEdge/pgedge-shopmcp/internal/schema"
)

func TestReportMarkdown(t *testing.T) {
	r := &Report{Title: "Sales report", Lines: []string{window(7)}}
	r.Add("KPIs").Table = &Table{
		Columns: []string{"orders", "revenue"},
		Right:   []bool{false, true},
		Rows:    [][]string{{"3", money(35)}},
	}
	s := r.Add("Notes")
	s.Lines = []string{"- a|b"}
	s.Table = &Table{Columns: []string{"name"}, Rows: [][]string{{"a|b"}}}

	want := "# Sales report\n" +
		"- Window: last **7 days**\n" +
		"\n## KPIs\n" +
		"| orders | revenue |\n" +
		"|---|---:|\n" +
		"| 3 | 35.00 |\n" +
		"\n## Notes\n" +
		"- a|b\n" +
		"| name |\n" +
		"|---|\n" +
		"| a\\|b |"
	assert.Equal(t, want, r.Markdown())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "11.67", money(11.666))
	assert.Equal(t, "0.00", money(0))
	assert.Equal(t, "0.6000", ratio(0.6))
	assert.Equal(t, "- Window: last **30 days**", window(30))
}

func composerFor(tables map[string]schema.StaticTable) *Composer {
	reg := schema.NewRegistry(schema.NewReflector(schema.NewStaticCatalog(tables)))
	return NewComposer(analytics.NewService(nil, reg))
}

// The required tables are checked before any query runs, so a nil
// database is never touched.
func TestReportsRequireTables(t *testing.T) {
	ctx := context.Background()
	orders := map[string]schema.StaticTable{
		"orders": {Columns: []string{"order_id", "placed_at", "total_amount"}},
	}

	_, err := composerFor(orders).SalesReport(ctx, 30, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingSchema))
	assert.Contains(t, err.Error(), "order_items")

	_, err = composerFor(orders).Dashboard(ctx, 30, 10)
	assert.True(t, errors.Is(err, apperrors.ErrMissingSchema))

	_, err = composerFor(map[string]schema.StaticTable{}).OpsHealth(ctx, 14, 10)
	require.Error(t, err)
	var missing *apperrors.MissingSchemaError
	require.True(t, errors.As(err, &missing))
}

// Schema gaps in the inventory lookup are resolved before any query
// runs and degrade to a single line instead of failing the report.
func TestLowStockLinesDegrade(t *testing.T) {
	ctx := context.Background()
	products := schema.StaticTable{Columns: []string{"product_id", "sku", "name"}}

	tests := []struct {
		name   string
		tables map[string]schema.StaticTable
		want   string
	}{
		{
			name:   "no inventory source",
			tables: map[string]schema.StaticTable{"products": products},
			want:   "no inventory source found",
		},
		{
			name: "inventory without on_hand",
			tables: map[string]schema.StaticTable{
				"inventory": {Columns: []string{"product_id", "reserved"}},
				"products":  products,
			},
			want: "no on_hand or quantity_on_hand column",
		},
		{
			name: "inventory without product_id",
			tables: map[string]schema.StaticTable{
				"inventory": {Columns: []string{"item", "on_hand"}},
				"products":  products,
			},
			want: "could not find any of [product_id] in table 'inventory'",
		},
		{
			name: "products without sku",
			tables: map[string]schema.StaticTable{
				"inventory": {Columns: []string{"product_id", "on_hand"}},
				"products":  {Columns: []string{"product_id", "name"}},
			},
			want: "could not find any of [sku] in table 'products'",
		},
		{
			name: "missing products table",
			tables: map[string]schema.StaticTable{
				"inventory": {Columns: []string{"product_id", "on_hand"}},
			},
			want: "products",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := composerFor(tt.tables).lowStockLines(ctx, 5)
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.Contains(t, lines[0], "_Inventory check unavailable: ")
			assert.Contains(t, lines[0], tt.want)
		})
	}
}
