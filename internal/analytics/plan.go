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
	"fmt"
	"strings"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
	"github.com/pgEdge/pgedge-shopmcp/internal/schema"
)

// Physical column candidates per logical concept. Earlier names win.
var (
	OrderTimestampColumns = []string{"placed_at", "ordered_at", "created_at", "order_date"}
	OrderTotalColumns     = []string{"total_amount", "grand_total", "total"}
	OrderKeyColumns       = []string{"order_id", "id"}
	ProductKeyColumns     = []string{"product_id", "id"}
	CustomerKeyColumns    = []string{"customer_id", "id"}
	CategoryKeyColumns    = []string{"category_id", "id"}
	ItemQuantityColumns   = []string{"quantity", "qty"}
	ItemPriceColumns      = []string{"unit_price", "price"}
	CustomerNameColumns   = []string{"full_name", "name"}
	OnHandColumns         = []string{"on_hand", "quantity_on_hand"}
)

// Single-name concepts.
const (
	StatusColumn       = "status"
	LineTotalColumn    = "line_total"
	UnitCostColumn     = "unit_cost"
	SKUSnapshotColumn  = "sku_snapshot"
	NameSnapshotColumn = "name_snapshot"
	ProductCostColumn  = "cost"
	InventoryView      = "v_inventory_on_hand"
	InventoryTable     = "inventory"
)

// CountedTables are the tables CountTables reports on, when present.
var CountedTables = []string{
	"customers", "categories", "products", "orders", "order_items",
	"promo_codes", "order_promotions", "stock_movements", "inventory",
}

// BacklogStatuses are the statuses an order should leave within a day.
var BacklogStatuses = []string{"pending", "processing"}

func col(alias, name string) string { return alias + "." + schema.Quote(name) }

// ordersShape holds resolved, alias-qualified column references on
// orders (alias o). status and total are "" when not resolved.
type ordersShape struct {
	table    string
	key      string
	ts       string
	status   string
	customer string
	total    string
}

// conditions returns the window filter on $1/$2, plus the cancelled
// exclusion when a status column exists and revenue is being measured.
func (o ordersShape) conditions(excludeCancelled bool) []string {
	conds := []string{o.ts + " >= $1", o.ts + " < $2"}
	if excludeCancelled && o.status != "" {
		conds = append(conds, o.status+" IS DISTINCT FROM 'cancelled'")
	}
	return conds
}

func where(conds []string) string {
	return "WHERE " + strings.Join(conds, "\n  AND ")
}

type itemsShape struct {
	table     string
	orderFK   string
	productFK string
	qty       string
	lineTotal string
	price     string
	unitCost  string
	sku       string
	name      string
}

func (i itemsShape) hasSnapshots() bool { return i.sku != "" && i.name != "" }

// revenueExpr picks the per-line revenue source: line_total, else
// quantity * unit price.
func (i itemsShape) revenueExpr() (string, error) {
	switch {
	case i.lineTotal != "":
		return i.lineTotal, nil
	case i.price != "":
		return i.qty + " * " + i.price, nil
	default:
		return "", apperrors.Configuration(
			"order_items needs a line_total column or a quantity plus unit_price/price column to compute revenue")
	}
}

type productsShape struct {
	table string
	key   string
	sku   string
	name  string
	cost  string
}

type customersShape struct {
	table string
	key   string
	email string
	name  string
}

type inventoryShape struct {
	table     string
	productFK string
	onHand    string
}

// planner resolves schema shapes and builds SQL text. It never touches
// data, only cached metadata, so it runs against a static catalog too.
type planner struct {
	reg *schema.Registry
}

func (p planner) require(ctx context.Context, tables ...string) error {
	return p.reg.Reflector().RequireTables(ctx, tables...)
}

func (p planner) orders(ctx context.Context, needTotal, needCustomer bool) (ordersShape, error) {
	t, err := p.reg.Get(ctx, "orders")
	if err != nil {
		return ordersShape{}, err
	}
	o := ordersShape{table: t.Ident()}

	key, err := t.Pick(OrderKeyColumns...)
	if err != nil {
		return o, err
	}
	ts, err := t.Pick(OrderTimestampColumns...)
	if err != nil {
		return o, err
	}
	o.key, o.ts = col("o", key), col("o", ts)

	if status := t.PickOptional(StatusColumn); status != "" {
		o.status = col("o", status)
	}
	if needTotal {
		total, err := t.Pick(OrderTotalColumns...)
		if err != nil {
			return o, err
		}
		o.total = col("o", total)
	}
	if needCustomer {
		fk, err := t.Pick("customer_id")
		if err != nil {
			return o, err
		}
		o.customer = col("o", fk)
	}
	return o, nil
}

func (p planner) items(ctx context.Context) (itemsShape, error) {
	t, err := p.reg.Get(ctx, "order_items")
	if err != nil {
		return itemsShape{}, err
	}
	i := itemsShape{table: t.Ident()}

	orderFK, err := t.Pick("order_id")
	if err != nil {
		return i, err
	}
	qty, err := t.Pick(ItemQuantityColumns...)
	if err != nil {
		return i, err
	}
	i.orderFK, i.qty = col("oi", orderFK), col("oi", qty)

	optional := func(candidates ...string) string {
		if name := t.PickOptional(candidates...); name != "" {
			return col("oi", name)
		}
		return ""
	}
	i.productFK = optional("product_id")
	i.lineTotal = optional(LineTotalColumn)
	i.price = optional(ItemPriceColumns...)
	i.unitCost = optional(UnitCostColumn)
	i.sku = optional(SKUSnapshotColumn)
	i.name = optional(NameSnapshotColumn)
	return i, nil
}

func (p planner) products(ctx context.Context) (productsShape, error) {
	t, err := p.reg.Get(ctx, "products")
	if err != nil {
		return productsShape{}, err
	}
	s := productsShape{table: t.Ident()}
	key, err := t.Pick(ProductKeyColumns...)
	if err != nil {
		return s, err
	}
	sku, err := t.Pick("sku")
	if err != nil {
		return s, err
	}
	name, err := t.Pick("name")
	if err != nil {
		return s, err
	}
	s.key, s.sku, s.name = col("p", key), col("p", sku), col("p", name)
	if cost := t.PickOptional(ProductCostColumn); cost != "" {
		s.cost = col("p", cost)
	}
	return s, nil
}

func (p planner) customers(ctx context.Context) (customersShape, error) {
	t, err := p.reg.Get(ctx, "customers")
	if err != nil {
		return customersShape{}, err
	}
	s := customersShape{table: t.Ident()}
	key, err := t.Pick(CustomerKeyColumns...)
	if err != nil {
		return s, err
	}
	email, err := t.Pick("email")
	if err != nil {
		return s, err
	}
	s.key, s.email = col("c", key), col("c", email)

	switch {
	case t.PickOptional(CustomerNameColumns...) != "":
		s.name = fmt.Sprintf("COALESCE(%s::text, '')", col("c", t.PickOptional(CustomerNameColumns...)))
	case t.Has("first_name") && t.Has("last_name"):
		s.name = fmt.Sprintf("TRIM(COALESCE(%s::text, '') || ' ' || COALESCE(%s::text, ''))",
			col("c", "first_name"), col("c", "last_name"))
	default:
		s.name = "''"
	}
	return s, nil
}

// inventory resolves the on-hand source: the v_inventory_on_hand view
// first, then an inventory table with on_hand or quantity_on_hand.
func (p planner) inventory(ctx context.Context) (inventoryShape, error) {
	r := p.reg.Reflector()

	viewExists, err := r.RelationExists(ctx, InventoryView)
	if err != nil {
		return inventoryShape{}, err
	}
	if viewExists {
		t, err := p.reg.Get(ctx, InventoryView)
		if err != nil {
			return inventoryShape{}, err
		}
		fk, err := t.Pick("product_id")
		if err != nil {
			return inventoryShape{}, err
		}
		onHand, err := t.Pick("on_hand")
		if err != nil {
			return inventoryShape{}, err
		}
		return inventoryShape{table: t.Ident(), productFK: col("inv", fk), onHand: col("inv", onHand)}, nil
	}

	tableExists, err := r.TableExists(ctx, InventoryTable)
	if err != nil {
		return inventoryShape{}, err
	}
	if !tableExists {
		return inventoryShape{}, apperrors.Configuration(
			"no inventory source found: expected a %s view or an %s table", InventoryView, InventoryTable)
	}
	t, err := p.reg.Get(ctx, InventoryTable)
	if err != nil {
		return inventoryShape{}, err
	}
	onHand := t.PickOptional(OnHandColumns...)
	if onHand == "" {
		return inventoryShape{}, apperrors.Configuration(
			"found an %s table but no on_hand or quantity_on_hand column", InventoryTable)
	}
	fk, err := t.Pick("product_id")
	if err != nil {
		return inventoryShape{}, err
	}
	return inventoryShape{table: t.Ident(), productFK: col("inv", fk), onHand: col("inv", onHand)}, nil
}

// revenueByDay: args $1 start, $2 end.
func (p planner) revenueByDay(ctx context.Context) (string, error) {
	if err := p.require(ctx, "orders"); err != nil {
		return "", err
	}
	o, err := p.orders(ctx, true, false)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`SELECT to_char(%[1]s::date, 'YYYY-MM-DD') AS day,
       COUNT(*) AS orders,
       ROUND(COALESCE(SUM(%[2]s), 0)::numeric, 2) AS revenue
FROM %[3]s o
%[4]s
GROUP BY 1
ORDER BY 1`, o.ts, o.total, o.table, where(o.conditions(true))), nil
}

// topProducts: args $1 start, $2 end, $3 limit.
func (p planner) topProducts(ctx context.Context) (string, error) {
	if err := p.require(ctx, "orders", "order_items"); err != nil {
		return "", err
	}
	o, err := p.orders(ctx, false, false)
	if err != nil {
		return "", err
	}
	i, err := p.items(ctx)
	if err != nil {
		return "", err
	}
	revenue, err := i.revenueExpr()
	if err != nil {
		return "", err
	}

	from := fmt.Sprintf("%s oi\nJOIN %s o ON %s = %s", i.table, o.table, o.key, i.orderFK)
	sku, name := i.sku, i.name
	if !i.hasSnapshots() {
		if err := p.require(ctx, "products"); err != nil {
			return "", err
		}
		pr, err := p.products(ctx)
		if err != nil {
			return "", err
		}
		if i.productFK == "" {
			return "", &apperrors.ColumnNotFoundError{Table: "order_items", Candidates: []string{"product_id"}}
		}
		from += fmt.Sprintf("\nJOIN %s p ON %s = %s", pr.table, pr.key, i.productFK)
		sku, name = pr.sku, pr.name
	}

	return fmt.Sprintf(`SELECT %[1]s::text AS sku,
       COALESCE(%[2]s::text, '') AS name,
       COALESCE(SUM(%[3]s), 0)::bigint AS units,
       ROUND(COALESCE(SUM(%[4]s), 0)::numeric, 2) AS revenue
FROM %[5]s
%[6]s
GROUP BY 1, 2
ORDER BY revenue DESC, sku ASC
LIMIT $3`, sku, name, i.qty, revenue, from, where(o.conditions(true))), nil
}

// topCustomers: args $1 start, $2 end, $3 limit.
func (p planner) topCustomers(ctx context.Context) (string, error) {
	if err := p.require(ctx, "orders", "customers"); err != nil {
		return "", err
	}
	o, err := p.orders(ctx, true, true)
	if err != nil {
		return "", err
	}
	c, err := p.customers(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`SELECT %[1]s::text AS customer_id,
       COALESCE(%[2]s::text, '') AS email,
       %[3]s AS full_name,
       COUNT(*) AS orders,
       ROUND(COALESCE(SUM(%[4]s), 0)::numeric, 2) AS revenue
FROM %[5]s o
JOIN %[6]s c ON %[1]s = %[7]s
%[8]s
GROUP BY %[1]s, 2, 3
ORDER BY revenue DESC, %[1]s ASC
LIMIT $3`, c.key, c.email, c.name, o.total, o.table, c.table, o.customer, where(o.conditions(true))), nil
}

// repeatPurchaseRate: args $1 start, $2 end.
func (p planner) repeatPurchaseRate(ctx context.Context) (string, error) {
	if err := p.require(ctx, "orders"); err != nil {
		return "", err
	}
	o, err := p.orders(ctx, false, true)
	if err != nil {
		return "", err
	}
	conds := append(o.conditions(true), o.customer+" IS NOT NULL")

	return fmt.Sprintf(`WITH cust_orders AS (
    SELECT %[1]s AS customer_id, COUNT(*) AS n
    FROM %[2]s o
    %[3]s
    GROUP BY %[1]s
)
SELECT COUNT(*) AS active_customers,
       COALESCE(SUM(CASE WHEN n >= 2 THEN 1 ELSE 0 END), 0)::bigint AS repeat_customers,
       CASE WHEN COUNT(*) = 0 THEN 0
            ELSE ROUND(SUM(CASE WHEN n >= 2 THEN 1 ELSE 0 END)::numeric / COUNT(*), 4)
       END AS repeat_rate
FROM cust_orders`, o.customer, o.table, where(conds)), nil
}

// grossMargin: args $1 start, $2 end. Revenue and cost are rounded
// before the margin is derived so gross_margin = revenue - cost holds
// exactly on the reported figures.
func (p planner) grossMargin(ctx context.Context) (string, error) {
	if err := p.require(ctx, "orders", "order_items"); err != nil {
		return "", err
	}
	o, err := p.orders(ctx, false, false)
	if err != nil {
		return "", err
	}
	i, err := p.items(ctx)
	if err != nil {
		return "", err
	}
	revenue, err := i.revenueExpr()
	if err != nil {
		return "", err
	}

	from := fmt.Sprintf("%s oi\n    JOIN %s o ON %s = %s", i.table, o.table, o.key, i.orderFK)
	var cost string
	if i.unitCost != "" {
		cost = i.qty + " * " + i.unitCost
	} else {
		pr, err := p.productCostSource(ctx, i)
		if err != nil {
			return "", err
		}
		from += fmt.Sprintf("\n    JOIN %s p ON %s = %s", pr.table, pr.key, i.productFK)
		cost = i.qty + " * " + pr.cost
	}

	return fmt.Sprintf(`WITH totals AS (
    SELECT ROUND(COALESCE(SUM(%[1]s), 0)::numeric, 2) AS revenue,
           ROUND(COALESCE(SUM(%[2]s), 0)::numeric, 2) AS cost
    FROM %[3]s
    %[4]s
)
SELECT revenue,
       cost,
       revenue - cost AS gross_margin,
       CASE WHEN revenue = 0 THEN 0
            ELSE ROUND((revenue - cost) / revenue, 4)
       END AS margin_rate
FROM totals`, revenue, cost, from, where(o.conditions(true))), nil
}

func (p planner) productCostSource(ctx context.Context, i itemsShape) (productsShape, error) {
	noCost := apperrors.Configuration(
		"no cost source: order_items has no unit_cost column and products has no cost column")

	ok, err := p.reg.Reflector().TableExists(ctx, "products")
	if err != nil {
		return productsShape{}, err
	}
	if !ok || i.productFK == "" {
		return productsShape{}, noCost
	}
	pr, err := p.products(ctx)
	if err != nil {
		return productsShape{}, err
	}
	if pr.cost == "" {
		return productsShape{}, noCost
	}
	return pr, nil
}

// salesKPIs: args $1 start, $2 end.
func (p planner) salesKPIs(ctx context.Context) (string, error) {
	if err := p.require(ctx, "orders"); err != nil {
		return "", err
	}
	o, err := p.orders(ctx, true, false)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`SELECT COUNT(*) AS orders,
       ROUND(COALESCE(SUM(%[1]s), 0)::numeric, 2) AS revenue,
       CASE WHEN COUNT(*) = 0 THEN 0
            ELSE ROUND(AVG(%[1]s)::numeric, 2)
       END AS aov
FROM %[2]s o
%[3]s`, o.total, o.table, where(o.conditions(true))), nil
}

// lowStock: args $1 threshold, $2 limit.
func (p planner) lowStock(ctx context.Context) (string, error) {
	inv, err := p.inventory(ctx)
	if err != nil {
		return "", err
	}
	if err := p.require(ctx, "products"); err != nil {
		return "", err
	}
	pr, err := p.products(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`SELECT %[1]s::text AS sku,
       COALESCE(%[2]s::text, '') AS name,
       %[3]s::bigint AS on_hand
FROM %[4]s inv
JOIN %[5]s p ON %[6]s = %[7]s
WHERE %[3]s <= $1
ORDER BY on_hand ASC, sku ASC
LIMIT $2`, pr.sku, pr.name, inv.onHand, inv.table, pr.table, pr.key, inv.productFK), nil
}

// tableCounts returns a UNION ALL count over the candidate tables that
// exist, or "" when none do.
func (p planner) tableCounts(ctx context.Context) (string, error) {
	var parts []string
	for _, name := range CountedTables {
		ok, err := p.reg.Reflector().TableExists(ctx, name)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		t, err := p.reg.Get(ctx, name)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("SELECT '%s'::text AS table_name, COUNT(*) AS n FROM %s", name, t.Ident()))
	}
	return strings.Join(parts, "\nUNION ALL\n"), nil
}

// statusMix: args $1 start, $2 end. Returns "" without a status column.
func (p planner) statusMix(ctx context.Context) (string, error) {
	if err := p.require(ctx, "orders"); err != nil {
		return "", err
	}
	o, err := p.orders(ctx, false, false)
	if err != nil {
		return "", err
	}
	if o.status == "" {
		return "", nil
	}
	return fmt.Sprintf(`SELECT COALESCE(%[1]s::text, '(none)') AS status,
       COUNT(*) AS orders
FROM %[2]s o
%[3]s
GROUP BY 1
ORDER BY orders DESC, status ASC`, o.status, o.table, where(o.conditions(false))), nil
}

// backlog: args $1 start, $2 older-than cutoff. Returns "" without a
// status column.
func (p planner) backlog(ctx context.Context) (string, error) {
	if err := p.require(ctx, "orders"); err != nil {
		return "", err
	}
	o, err := p.orders(ctx, false, false)
	if err != nil {
		return "", err
	}
	if o.status == "" {
		return "", nil
	}
	quoted := make([]string, len(BacklogStatuses))
	for k, s := range BacklogStatuses {
		quoted[k] = "'" + s + "'"
	}
	return fmt.Sprintf(`SELECT COUNT(*)
FROM %[1]s o
WHERE %[2]s >= $1
  AND %[2]s < $2
  AND %[3]s IN (%[4]s)`, o.table, o.ts, o.status, strings.Join(quoted, ", ")), nil
}
