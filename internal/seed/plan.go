//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-shopmcp/internal/analytics"
	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
	"github.com/pgEdge/pgedge-shopmcp/internal/schema"
)

// RequiredTables must exist before seeding.
var RequiredTables = []string{"customers", "categories", "products", "orders", "order_items"}

// TruncateOrder lists every table a reset may clear, children first.
var TruncateOrder = []string{
	"order_status_events", "shipments", "refunds", "payments",
	"order_promotions", "promo_codes", "stock_movements", "order_items",
	"orders", "product_images", "products", "categories",
	"customer_addresses", "addresses", "customers",
}

// orderAmountColumns are the itemised order amounts, in update order.
var orderAmountColumns = []string{"subtotal_amount", "discount_amount", "tax_amount", "shipping_amount"}

type categoryPlan struct {
	ident string
	key   string
	slug  bool
}

type customerPlan struct {
	ident    string
	key      string
	fullName bool
}

type productPlan struct {
	ident      string
	key        string
	category   bool
	cost       bool
	currency   bool
	attributes bool
	isActive   bool
}

type orderPlan struct {
	ident       string
	key         string
	customerFK  string
	ts          string
	orderNumber bool
	status      bool
	currency    bool
	amounts     []string // writable subset of orderAmountColumns
	total       string   // writable total column, or ""
}

type itemPlan struct {
	table        pgx.Identifier
	qty          string
	unitCost     bool
	itemDiscount bool
	itemTax      bool
	lineSubtotal bool
	lineTotal    bool
}

type stockPlan struct {
	present        bool
	table          pgx.Identifier
	movementType   bool
	referenceOrder bool
	note           bool
}

// plan records which tables and columns a seed run writes, resolved once
// from the reflected schema.
type plan struct {
	categories categoryPlan
	customers  customerPlan
	products   productPlan
	orders     orderPlan
	items      itemPlan
	stock      stockPlan
	truncate   []string
}

func newPlan(ctx context.Context, reg *schema.Registry) (*plan, error) {
	r := reg.Reflector()
	if err := r.RequireTables(ctx, RequiredTables...); err != nil {
		return nil, err
	}

	get := func(name string) (*schema.Table, error) { return reg.Get(ctx, name) }
	p := &plan{}

	items, err := get("order_items")
	if err != nil {
		return nil, err
	}
	if !items.Writable("unit_price") || !items.Writable("sku_snapshot") || !items.Writable("name_snapshot") {
		return nil, apperrors.Configuration(
			"order_items must have writable unit_price, sku_snapshot and name_snapshot columns to seed demo data")
	}
	for _, fk := range []string{"order_id", "product_id"} {
		if !items.Writable(fk) {
			return nil, &apperrors.ColumnNotFoundError{Table: "order_items", Candidates: []string{fk}}
		}
	}
	qty, err := items.Pick(analytics.ItemQuantityColumns...)
	if err != nil {
		return nil, err
	}
	p.items = itemPlan{
		table:        items.Identifier(),
		qty:          qty,
		unitCost:     items.Writable("unit_cost"),
		itemDiscount: items.Writable("item_discount"),
		itemTax:      items.Writable("item_tax"),
		lineSubtotal: items.Writable("line_subtotal"),
		lineTotal:    items.Writable("line_total"),
	}

	categories, err := get("categories")
	if err != nil {
		return nil, err
	}
	if !categories.Writable("name") {
		return nil, &apperrors.ColumnNotFoundError{Table: "categories", Candidates: []string{"name"}}
	}
	if p.categories.key, err = categories.Pick(analytics.CategoryKeyColumns...); err != nil {
		return nil, err
	}
	p.categories.ident = categories.Ident()
	p.categories.slug = categories.Writable("slug")

	customers, err := get("customers")
	if err != nil {
		return nil, err
	}
	if !customers.Writable("email") {
		return nil, &apperrors.ColumnNotFoundError{Table: "customers", Candidates: []string{"email"}}
	}
	if p.customers.key, err = customers.Pick(analytics.CustomerKeyColumns...); err != nil {
		return nil, err
	}
	p.customers.ident = customers.Ident()
	p.customers.fullName = customers.Writable("full_name")

	products, err := get("products")
	if err != nil {
		return nil, err
	}
	for _, c := range []string{"sku", "name", "price"} {
		if !products.Writable(c) {
			return nil, &apperrors.ColumnNotFoundError{Table: "products", Candidates: []string{c}}
		}
	}
	if p.products.key, err = products.Pick(analytics.ProductKeyColumns...); err != nil {
		return nil, err
	}
	p.products.ident = products.Ident()
	p.products.category = products.Writable("category_id")
	p.products.cost = products.Writable("cost")
	p.products.currency = products.Writable("currency_code")
	p.products.attributes = products.Writable("attributes")
	p.products.isActive = products.Writable("is_active")

	orders, err := get("orders")
	if err != nil {
		return nil, err
	}
	o := orderPlan{ident: orders.Ident()}
	if o.key, err = orders.Pick(analytics.OrderKeyColumns...); err != nil {
		return nil, err
	}
	if o.customerFK, err = orders.Pick("customer_id"); err != nil {
		return nil, err
	}
	if o.ts, err = orders.Pick(analytics.OrderTimestampColumns...); err != nil {
		return nil, err
	}
	total, err := orders.Pick(analytics.OrderTotalColumns...)
	if err != nil {
		return nil, err
	}
	if orders.Writable(total) {
		o.total = total
	}
	o.orderNumber = orders.Writable("order_number")
	o.status = orders.Writable(analytics.StatusColumn)
	o.currency = orders.Writable("currency_code")
	for _, c := range orderAmountColumns {
		if orders.Writable(c) {
			o.amounts = append(o.amounts, c)
		}
	}
	p.orders = o

	hasStock, err := r.TableExists(ctx, "stock_movements")
	if err != nil {
		return nil, err
	}
	if hasStock {
		stock, err := get("stock_movements")
		if err != nil {
			return nil, err
		}
		if stock.Writable("product_id") && stock.Writable("quantity_delta") {
			p.stock = stockPlan{
				present:        true,
				table:          stock.Identifier(),
				movementType:   stock.Writable("movement_type"),
				referenceOrder: stock.Writable("reference_order_id"),
				note:           stock.Writable("note"),
			}
		}
	}

	for _, name := range TruncateOrder {
		ok, err := r.TableExists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		t, err := get(name)
		if err != nil {
			return nil, err
		}
		p.truncate = append(p.truncate, t.Ident())
	}

	return p, nil
}

func (p *plan) truncateSQL() string {
	if len(p.truncate) == 0 {
		return ""
	}
	return fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", strings.Join(p.truncate, ", "))
}

func (p *plan) categoryColumns() []string {
	cols := []string{"name"}
	if p.categories.slug {
		cols = append(cols, "slug")
	}
	return cols
}

func (p *plan) customerColumns() []string {
	cols := []string{"email"}
	if p.customers.fullName {
		cols = append(cols, "full_name")
	}
	return cols
}

func (p *plan) productColumns() []string {
	cols := []string{"sku", "name", "price"}
	pp := p.products
	for _, c := range []struct {
		on   bool
		name string
	}{
		{pp.category, "category_id"},
		{pp.cost, "cost"},
		{pp.currency, "currency_code"},
		{pp.attributes, "attributes"},
		{pp.isActive, "is_active"},
	} {
		if c.on {
			cols = append(cols, c.name)
		}
	}
	return cols
}

// orderColumns are set at insert time. Amounts start at zero and are
// filled in once the items are known. The total is only written at
// insert when no itemised amount exists to derive it from.
func (p *plan) orderColumns() []string {
	o := p.orders
	cols := []string{o.customerFK, o.ts}
	if o.orderNumber {
		cols = append(cols, "order_number")
	}
	if o.status {
		cols = append(cols, analytics.StatusColumn)
	}
	if o.currency {
		cols = append(cols, "currency_code")
	}
	cols = append(cols, o.amounts...)
	if len(o.amounts) == 0 && o.total != "" {
		cols = append(cols, o.total)
	}
	return cols
}

func (p *plan) insertOrderSQL() string {
	cols := p.orderColumns()
	quoted := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = schema.Quote(c)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		p.orders.ident, strings.Join(quoted, ", "), strings.Join(params, ", "), schema.Quote(p.orders.key))
}

// updateColumns are the order amounts written after the items: the
// itemised amounts plus the total when writable, or only the total.
func (p *plan) updateColumns() []string {
	o := p.orders
	cols := append([]string{}, o.amounts...)
	if o.total != "" {
		cols = append(cols, o.total)
	}
	return cols
}

func (p *plan) updateOrderSQL() string {
	cols := p.updateColumns()
	if len(cols) == 0 {
		return ""
	}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", schema.Quote(c), i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		p.orders.ident, strings.Join(sets, ", "), schema.Quote(p.orders.key), len(cols)+1)
}

func (p *plan) itemColumns() []string {
	i := p.items
	cols := []string{"order_id", "product_id", i.qty, "unit_price", "sku_snapshot", "name_snapshot"}
	for _, c := range []struct {
		on   bool
		name string
	}{
		{i.unitCost, "unit_cost"},
		{i.itemDiscount, "item_discount"},
		{i.itemTax, "item_tax"},
		{i.lineSubtotal, "line_subtotal"},
		{i.lineTotal, "line_total"},
	} {
		if c.on {
			cols = append(cols, c.name)
		}
	}
	return cols
}

func (p *plan) stockColumns() []string {
	s := p.stock
	cols := []string{"product_id", "quantity_delta"}
	if s.movementType {
		cols = append(cols, "movement_type")
	}
	if s.referenceOrder {
		cols = append(cols, "reference_order_id")
	}
	if s.note {
		cols = append(cols, "note")
	}
	return cols
}

// multiRowInsert builds a parameterized INSERT for rows×len(cols) values
// that skips conflicting rows.
func multiRowInsert(ident string, cols []string, rows int) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = schema.Quote(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", ident, strings.Join(quoted, ", "))
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range cols {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteByte(')')
	}
	b.WriteString(" ON CONFLICT DO NOTHING")
	return b.String()
}
