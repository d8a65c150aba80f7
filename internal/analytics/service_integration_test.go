//go:build integration

//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package analytics

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-shopmcp/internal/schema"
	"github.com/pgEdge/pgedge-shopmcp/internal/testutil"
)

// fixtureSQL loads five orders: three counted in a 30 day window, one
// cancelled and one outside the window.
const fixtureSQL = `
INSERT INTO categories (name, slug) VALUES ('Home', 'home');
INSERT INTO customers (email, full_name) VALUES
    ('ann@example.com', 'Ann'), ('bob@example.com', 'Bob'), ('cy@example.com', 'Cy');
INSERT INTO products (sku, name, category_id, price, cost) VALUES
    ('SKU-1', 'Lamp', 1, 10.00, 4.00),
    ('SKU-2', 'Mug', 1, 5.00, 2.00),
    ('SKU-3', 'Chair', 1, 50.00, 30.00);
INSERT INTO orders (customer_id, status, subtotal_amount, placed_at) VALUES
    (1, 'paid',      20.00, now() - interval '1 day'),
    (1, 'delivered',  5.00, now() - interval '2 days'),
    (2, 'cancelled', 50.00, now() - interval '1 day'),
    (3, 'pending',   10.00, now() - interval '3 days'),
    (2, 'paid',      50.00, now() - interval '100 days');
INSERT INTO order_items (order_id, product_id, quantity, unit_price, unit_cost, sku_snapshot, name_snapshot) VALUES
    (1, 1, 2, 10.00,  4.00, 'SKU-1', 'Lamp'),
    (2, 2, 1,  5.00,  2.00, 'SKU-2', 'Mug'),
    (3, 3, 1, 50.00, 30.00, 'SKU-3', 'Chair'),
    (4, 1, 1, 10.00,  4.00, 'SKU-1', 'Lamp'),
    (5, 3, 1, 50.00, 30.00, 'SKU-3', 'Chair');
INSERT INTO stock_movements (product_id, quantity_delta, movement_type) VALUES
    (1, 3, 'purchase'), (2, 0, 'purchase'), (3, 20, 'purchase');
`

func newFixtureService(t *testing.T) (*Service, *pgxpool.Pool, *schema.Registry) {
	t.Helper()
	pool := testutil.NewShopDatabase(t, "analytics")
	testutil.Exec(t, pool, fixtureSQL)

	reg := schema.NewRegistry(schema.NewReflector(schema.NewPostgresCatalog(pool, "public")))
	return NewService(pool, reg), pool, reg
}

func TestIntegrationMetrics(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFixtureService(t)

	kpis, err := svc.SalesKPIs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, KPIs{Days: 30, Orders: 3, Revenue: 35.00, AOV: 11.67}, kpis)

	days, err := svc.RevenueByDay(ctx, 30)
	require.NoError(t, err)
	require.Len(t, days, 3)
	var sum float64
	for i, d := range days {
		sum += d.Revenue
		if i > 0 {
			assert.Less(t, days[i-1].Day, d.Day, "days ascend")
		}
	}
	assert.InDelta(t, kpis.Revenue, sum, 0.001)

	products, err := svc.TopProducts(ctx, 30, 10)
	require.NoError(t, err)
	assert.Equal(t, []ProductRevenue{
		{SKU: "SKU-1", Name: "Lamp", Units: 3, Revenue: 30.00},
		{SKU: "SKU-2", Name: "Mug", Units: 1, Revenue: 5.00},
	}, products)

	customers, err := svc.TopCustomers(ctx, 30, 1)
	require.NoError(t, err)
	assert.Equal(t, []CustomerRevenue{
		{CustomerID: "1", Email: "ann@example.com", FullName: "Ann", Orders: 2, Revenue: 25.00},
	}, customers)

	repeat, err := svc.RepeatPurchaseRate(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, RepeatRate{Days: 30, ActiveCustomers: 2, RepeatCustomers: 1, RepeatRate: 0.5}, repeat)

	margin, err := svc.GrossMargin(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, Margin{Days: 30, Revenue: 35.00, Cost: 14.00, GrossMargin: 21.00, MarginRate: 0.6}, margin)
	assert.InDelta(t, margin.Revenue-margin.Cost, margin.GrossMargin, 0.001)
}

func TestIntegrationEmptyWindow(t *testing.T) {
	ctx := context.Background()
	pool := testutil.NewShopDatabase(t, "analytics_empty")
	svc := NewService(pool, schema.NewRegistry(schema.NewReflector(schema.NewPostgresCatalog(pool, "public"))))

	kpis, err := svc.SalesKPIs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, KPIs{Days: 30}, kpis)

	repeat, err := svc.RepeatPurchaseRate(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, RepeatRate{Days: 30}, repeat)

	margin, err := svc.GrossMargin(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, Margin{Days: 30}, margin)

	days, err := svc.RevenueByDay(ctx, 30)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestIntegrationLowStock(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFixtureService(t)

	none, err := svc.LowStock(ctx, 0, 50)
	require.NoError(t, err)
	for _, s := range none {
		assert.LessOrEqual(t, s.OnHand, int64(0))
	}
	assert.Equal(t, []StockLevel{{SKU: "SKU-2", Name: "Mug", OnHand: 0}}, none)

	some, err := svc.LowStock(ctx, 5, 50)
	require.NoError(t, err)
	assert.Equal(t, []StockLevel{
		{SKU: "SKU-2", Name: "Mug", OnHand: 0},
		{SKU: "SKU-1", Name: "Lamp", OnHand: 3},
	}, some)
}

func TestIntegrationOpsSignals(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFixtureService(t)

	mix, err := svc.StatusMix(ctx, 30)
	require.NoError(t, err)
	assert.True(t, mix.Available)
	assert.Equal(t, []StatusCount{
		{Status: "cancelled", Orders: 1},
		{Status: "delivered", Orders: 1},
		{Status: "paid", Orders: 1},
		{Status: "pending", Orders: 1},
	}, mix.Rows)

	backlog, err := svc.Backlog(ctx, 14)
	require.NoError(t, err)
	assert.True(t, backlog.Available)
	assert.Equal(t, int64(1), backlog.Orders)

	counts, err := svc.CountTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Tables["customers"])
	assert.Equal(t, int64(5), counts.Tables["orders"])
	assert.Equal(t, int64(5), counts.Tables["order_items"])
	assert.NotContains(t, counts.Tables, "promo_codes")
}

func TestIntegrationWithoutStatusColumn(t *testing.T) {
	ctx := context.Background()
	svc, pool, reg := newFixtureService(t)

	before, err := svc.SalesKPIs(ctx, 30)
	require.NoError(t, err)

	testutil.Exec(t, pool, "ALTER TABLE orders DROP COLUMN status")
	reg.Invalidate()

	after, err := svc.SalesKPIs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, before.Orders+1, after.Orders, "the cancelled order now counts")
	assert.InDelta(t, before.Revenue+50.00, after.Revenue, 0.001)

	mix, err := svc.StatusMix(ctx, 30)
	require.NoError(t, err)
	assert.False(t, mix.Available)
}

func TestIntegrationInventoryTableFallback(t *testing.T) {
	ctx := context.Background()
	svc, pool, reg := newFixtureService(t)

	testutil.Exec(t, pool, `
DROP VIEW v_inventory_on_hand;
CREATE TABLE inventory (product_id BIGINT REFERENCES products (product_id), quantity_on_hand INTEGER NOT NULL);
INSERT INTO inventory VALUES (1, 7), (2, 1), (3, 2);
`)
	reg.Invalidate()

	rows, err := svc.LowStock(ctx, 2, 50)
	require.NoError(t, err)
	assert.Equal(t, []StockLevel{
		{SKU: "SKU-2", Name: "Mug", OnHand: 1},
		{SKU: "SKU-3", Name: "Chair", OnHand: 2},
	}, rows)

	testutil.Exec(t, pool, "DROP TABLE inventory")
	reg.Invalidate()
	_, err = svc.LowStock(ctx, 2, 50)
	require.Error(t, err)
}
