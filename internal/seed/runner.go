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
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-shopmcp/internal/datagen"
	"github.com/pgEdge/pgedge-shopmcp/internal/schema"
)

// Category names seeded into categories.
var Categories = []string{"Electronics", "Books", "Home", "Clothing", "Beauty", "Sports", "Toys"}

// Order statuses and their relative weights.
var (
	Statuses       = []string{"paid", "shipped", "delivered", "pending", "cancelled", "refunded"}
	StatusWeights  = []int{35, 20, 25, 10, 7, 3}
	basePrices     = []string{"6.99", "9.99", "14.99", "19.99", "29.99", "49.99", "79.99", "129.99", "199.99"}
	shippingFees   = []string{"0", "2.9", "4.9", "5.9", "7.9"}
	taxRates       = []int{0, 10, 24}
	brands         = []string{"Acme", "Nova", "ZenCo", "Peak", "Solaria"}
	colors         = []string{"black", "white", "red", "blue", "green"}
	hundred        = decimal.NewFromInt(100)
	minPrice       = decimal.NewFromInt(1)
	minCost        = decimal.RequireFromString("0.2")
	fallbackMargin = decimal.RequireFromString("0.6")
)

// orderHistoryDays bounds how far back order timestamps go.
const orderHistoryDays = 179

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins alphanumeric runs with dashes.
func Slugify(s string) string {
	slug := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-"), "-")
	if slug == "" {
		return "category"
	}
	return slug
}

type product struct {
	key     any
	sku     string
	name    string
	price   decimal.Decimal
	cost    decimal.Decimal
	hasCost bool
}

type lineDraft struct {
	product *product
	qty     int
}

type orderDraft struct {
	number   string
	customer any
	status   string
	placedAt time.Time
	lines    []lineDraft
	shipping decimal.Decimal
	taxRate  int
	key      any
}

// amounts derives the order money fields from its lines.
func (d *orderDraft) amounts() (subtotal, discount, tax, shipping, total decimal.Decimal) {
	for _, l := range d.lines {
		subtotal = subtotal.Add(l.product.price.Mul(decimal.NewFromInt(int64(l.qty))))
	}
	subtotal = subtotal.Round(2)
	tax = subtotal.Mul(decimal.NewFromInt(int64(d.taxRate))).Div(hundred).Round(2)
	shipping = d.shipping
	total = subtotal.Sub(discount).Add(tax).Add(shipping).Round(2)
	return
}

// runner holds the state of one seed run.
type runner struct {
	plan     *plan
	size     Size
	batch    datagen.BatchInsertConfig
	faker    *datagen.Faker
	traffic  datagen.Traffic
	now      time.Time
	runID    string
	log      zerolog.Logger
	seq      int
	inserted Inserted

	items   [][]any
	stock   [][]any
	updates *pgx.Batch
	pending int
}

func (r *runner) truncate(ctx context.Context, tx pgx.Tx) error {
	sql := r.plan.truncateSQL()
	if sql == "" {
		return nil
	}
	r.log.Info().Strs("tables", r.plan.truncate).Msg("Truncating existing data")
	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to truncate: %w", err)
	}
	return nil
}

func (r *runner) load(ctx context.Context, tx pgx.Tx) error {
	categoryKeys, err := r.seedCategories(ctx, tx)
	if err != nil {
		return err
	}
	customerKeys, err := r.seedCustomers(ctx, tx)
	if err != nil {
		return err
	}
	products, err := r.seedProducts(ctx, tx, categoryKeys)
	if err != nil {
		return err
	}
	if len(customerKeys) == 0 || len(products) == 0 {
		return fmt.Errorf("no customers or products available to build orders from")
	}
	if err := r.seedInitialStock(ctx, tx, products); err != nil {
		return err
	}
	return r.seedOrders(ctx, tx, customerKeys, products)
}

// insertChunked writes rows with multi-row INSERT ... ON CONFLICT DO
// NOTHING and returns how many were actually inserted.
func (r *runner) insertChunked(ctx context.Context, tx pgx.Tx, ident string, cols []string, rows [][]any) (int64, error) {
	chunk := max(r.batch.BatchSize, 1)
	var total int64
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		args := make([]any, 0, (end-start)*len(cols))
		for _, row := range rows[start:end] {
			args = append(args, row...)
		}
		tag, err := tx.Exec(ctx, multiRowInsert(ident, cols, end-start), args...)
		if err != nil {
			return total, fmt.Errorf("failed to insert into %s: %w", ident, err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func selectKeys(ctx context.Context, tx pgx.Tx, ident, key string) ([]any, error) {
	rows, err := tx.Query(ctx, fmt.Sprintf("SELECT %[1]s FROM %[2]s ORDER BY %[1]s", schema.Quote(key), ident))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[any])
}

func (r *runner) seedCategories(ctx context.Context, tx pgx.Tx) ([]any, error) {
	rows := make([][]any, len(Categories))
	for i, name := range Categories {
		rows[i] = []any{name}
		if r.plan.categories.slug {
			rows[i] = append(rows[i], Slugify(name))
		}
	}
	if _, err := r.insertChunked(ctx, tx, r.plan.categories.ident, r.plan.categoryColumns(), rows); err != nil {
		return nil, err
	}
	return selectKeys(ctx, tx, r.plan.categories.ident, r.plan.categories.key)
}

func (r *runner) seedCustomers(ctx context.Context, tx pgx.Tx) ([]any, error) {
	rows := make([][]any, r.size.Customers)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("customer%05d@example.com", i+1)}
		if r.plan.customers.fullName {
			rows[i] = append(rows[i], r.faker.Name())
		}
	}
	n, err := r.insertChunked(ctx, tx, r.plan.customers.ident, r.plan.customerColumns(), rows)
	if err != nil {
		return nil, err
	}
	r.inserted.Customers = n
	r.log.Debug().Int64("rows", n).Msg("Seeded customers")
	return selectKeys(ctx, tx, r.plan.customers.ident, r.plan.customers.key)
}

func (r *runner) randomPrice() decimal.Decimal {
	base := decimal.RequireFromString(datagen.Choose(r.faker, basePrices))
	jitter := r.faker.Money(-0.5, 0.5)
	return decimal.Max(minPrice, base.Add(jitter)).Round(2)
}

func (r *runner) randomCost(price decimal.Decimal) decimal.Decimal {
	ratio := decimal.NewFromFloat(r.faker.Float64(0.35, 0.75))
	return decimal.Max(minCost, price.Mul(ratio)).Round(2)
}

func (r *runner) productRow(i int, categoryKeys []any) []any {
	pp := r.plan.products
	price := r.randomPrice()
	cost := r.randomCost(price)
	row := []any{fmt.Sprintf("SKU-%06d", i), r.faker.ProductName(), price.InexactFloat64()}
	if pp.category {
		row = append(row, datagen.Choose(r.faker, categoryKeys))
	}
	if pp.cost {
		row = append(row, cost.InexactFloat64())
	}
	if pp.currency {
		row = append(row, "EUR")
	}
	if pp.attributes {
		rating := decimal.NewFromFloat(r.faker.Float64(3.2, 4.9)).Round(1)
		row = append(row, map[string]any{
			"brand":  datagen.Choose(r.faker, brands),
			"color":  datagen.Choose(r.faker, colors),
			"rating": rating.InexactFloat64(),
		})
	}
	if pp.isActive {
		row = append(row, true)
	}
	return row
}

func (r *runner) seedProducts(ctx context.Context, tx pgx.Tx, categoryKeys []any) ([]*product, error) {
	rows := make([][]any, r.size.Products)
	for i := range rows {
		rows[i] = r.productRow(i+1, categoryKeys)
	}
	pp := r.plan.products
	n, err := r.insertChunked(ctx, tx, pp.ident, r.plan.productColumns(), rows)
	if err != nil {
		return nil, err
	}
	r.inserted.Products = n
	r.log.Debug().Int64("rows", n).Msg("Seeded products")

	costExpr := "NULL::float8"
	if pp.cost {
		costExpr = `"cost"::float8`
	}
	q := fmt.Sprintf(`SELECT %[1]s, "sku"::text, "name"::text, "price"::float8, %[2]s FROM %[3]s ORDER BY %[1]s`,
		schema.Quote(pp.key), costExpr, pp.ident)
	dbRows, err := tx.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(dbRows, func(row pgx.CollectableRow) (*product, error) {
		var (
			p     product
			price float64
			cost  *float64
		)
		if err := row.Scan(&p.key, &p.sku, &p.name, &price, &cost); err != nil {
			return nil, err
		}
		p.price = decimal.NewFromFloat(price).Round(2)
		if cost != nil {
			p.cost, p.hasCost = decimal.NewFromFloat(*cost).Round(2), true
		}
		return &p, nil
	})
}

func (r *runner) stockRow(productKey any, delta int, movementType string, orderKey any, note string) []any {
	s := r.plan.stock
	row := []any{productKey, delta}
	if s.movementType {
		row = append(row, movementType)
	}
	if s.referenceOrder {
		row = append(row, orderKey)
	}
	if s.note {
		row = append(row, note)
	}
	return row
}

func (r *runner) seedInitialStock(ctx context.Context, tx pgx.Tx, products []*product) error {
	if !r.plan.stock.present {
		return nil
	}
	for _, p := range products {
		r.stock = append(r.stock, r.stockRow(p.key, r.faker.Int(50, 400), "purchase", nil, "Seed initial stock"))
	}
	return r.flushStock(ctx, tx)
}

// draftOrder draws every random choice for one order. It consumes the
// faker in a fixed sequence, so the same seed yields the same drafts no
// matter how orders are chunked for insertion.
func (r *runner) draftOrder(customerKeys []any, products []*product) orderDraft {
	r.seq++
	d := orderDraft{
		number:   fmt.Sprintf("ORD-%s-%06d", r.runID, r.seq),
		customer: datagen.Choose(r.faker, customerKeys),
		status:   datagen.ChooseWeighted(r.faker, Statuses, StatusWeights),
		placedAt: r.faker.PastShaped(r.now, orderHistoryDays, r.traffic),
	}
	for _, p := range datagen.SampleDistinct(r.faker, products, r.faker.Int(1, 5)) {
		d.lines = append(d.lines, lineDraft{product: p, qty: r.faker.Int(1, 3)})
	}
	if r.plan.hasAmount("shipping_amount") {
		d.shipping = decimal.RequireFromString(datagen.Choose(r.faker, shippingFees))
	}
	if r.plan.hasAmount("tax_amount") {
		d.taxRate = datagen.Choose(r.faker, taxRates)
	}
	return d
}

func (p *plan) hasAmount(col string) bool {
	for _, c := range p.orders.amounts {
		if c == col {
			return true
		}
	}
	return false
}

func (r *runner) orderArgs(d *orderDraft) []any {
	o := r.plan.orders
	args := []any{d.customer, d.placedAt}
	if o.orderNumber {
		args = append(args, d.number)
	}
	if o.status {
		args = append(args, d.status)
	}
	if o.currency {
		args = append(args, "EUR")
	}
	for range o.amounts {
		args = append(args, 0.0)
	}
	if len(o.amounts) == 0 && o.total != "" {
		args = append(args, 0.0)
	}
	return args
}

func (r *runner) updateArgs(d *orderDraft) []any {
	subtotal, discount, tax, shipping, total := d.amounts()
	if len(r.plan.orders.amounts) == 0 {
		// Only the total is writable; it carries the plain subtotal.
		total = subtotal
	}
	byName := map[string]decimal.Decimal{
		"subtotal_amount": subtotal,
		"discount_amount": discount,
		"tax_amount":      tax,
		"shipping_amount": shipping,
	}
	var args []any
	for _, c := range r.plan.orders.amounts {
		args = append(args, byName[c].InexactFloat64())
	}
	if r.plan.orders.total != "" {
		args = append(args, total.InexactFloat64())
	}
	return append(args, d.key)
}

func (r *runner) itemRow(orderKey any, l lineDraft) []any {
	i := r.plan.items
	p := l.product
	qty := decimal.NewFromInt(int64(l.qty))
	lineSubtotal := p.price.Mul(qty).Round(2)

	row := []any{orderKey, p.key, l.qty, p.price.InexactFloat64(), p.sku, p.name}
	if i.unitCost {
		cost := p.cost
		if !p.hasCost {
			cost = p.price.Mul(fallbackMargin).Round(2)
		}
		row = append(row, cost.InexactFloat64())
	}
	if i.itemDiscount {
		row = append(row, 0.0)
	}
	if i.itemTax {
		row = append(row, 0.0)
	}
	if i.lineSubtotal {
		row = append(row, lineSubtotal.InexactFloat64())
	}
	if i.lineTotal {
		row = append(row, lineSubtotal.InexactFloat64())
	}
	return row
}

func (r *runner) seedOrders(ctx context.Context, tx pgx.Tx, customerKeys []any, products []*product) error {
	insertSQL := r.plan.insertOrderSQL()
	updateSQL := r.plan.updateOrderSQL()
	chunk := max(r.batch.BatchSize, 1)
	progress := datagen.NewProgressReporter(r.log, "orders", int64(r.size.Orders), r.batch.ProgressInterval)
	r.updates = &pgx.Batch{}

	for start := 0; start < r.size.Orders; start += chunk {
		end := min(start+chunk, r.size.Orders)
		drafts := make([]orderDraft, end-start)
		for i := range drafts {
			drafts[i] = r.draftOrder(customerKeys, products)
		}

		batch := &pgx.Batch{}
		for i := range drafts {
			batch.Queue(insertSQL, r.orderArgs(&drafts[i])...)
		}
		results := tx.SendBatch(ctx, batch)
		for i := range drafts {
			if err := results.QueryRow().Scan(&drafts[i].key); err != nil {
				results.Close()
				return fmt.Errorf("failed to insert order: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to insert orders: %w", err)
		}
		r.inserted.Orders += int64(len(drafts))
		progress.Update(int64(len(drafts)))

		for i := range drafts {
			d := &drafts[i]
			for _, l := range d.lines {
				r.items = append(r.items, r.itemRow(d.key, l))
				if r.plan.stock.present {
					r.stock = append(r.stock, r.stockRow(l.product.key, -l.qty, "sale", d.key, "Seed sale"))
				}
			}
			if updateSQL != "" {
				r.updates.Queue(updateSQL, r.updateArgs(d)...)
				r.pending++
			}
		}
		if err := r.flush(ctx, tx, false); err != nil {
			return err
		}
	}

	if err := r.flush(ctx, tx, true); err != nil {
		return err
	}
	progress.Done()
	return nil
}

// flush writes buffered items, stock movements and total updates once
// they reach the flush threshold, or unconditionally when final is set.
func (r *runner) flush(ctx context.Context, tx pgx.Tx, final bool) error {
	limit := max(r.batch.FlushRows, 1)
	if final || len(r.items) >= limit {
		if err := r.flushItems(ctx, tx); err != nil {
			return err
		}
	}
	if final || len(r.stock) >= limit {
		if err := r.flushStock(ctx, tx); err != nil {
			return err
		}
	}
	if final || r.pending >= limit {
		if err := r.flushUpdates(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) flushItems(ctx context.Context, tx pgx.Tx) error {
	if len(r.items) == 0 {
		return nil
	}
	n, err := tx.CopyFrom(ctx, r.plan.items.table, r.plan.itemColumns(), pgx.CopyFromRows(r.items))
	if err != nil {
		return fmt.Errorf("failed to copy order items: %w", err)
	}
	r.inserted.OrderItems += n
	r.items = r.items[:0]
	return nil
}

func (r *runner) flushStock(ctx context.Context, tx pgx.Tx) error {
	if len(r.stock) == 0 {
		return nil
	}
	n, err := tx.CopyFrom(ctx, r.plan.stock.table, r.plan.stockColumns(), pgx.CopyFromRows(r.stock))
	if err != nil {
		return fmt.Errorf("failed to copy stock movements: %w", err)
	}
	r.inserted.StockMovements += n
	r.stock = r.stock[:0]
	return nil
}

func (r *runner) flushUpdates(ctx context.Context, tx pgx.Tx) error {
	if r.pending == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, r.updates).Close(); err != nil {
		return fmt.Errorf("failed to update order totals: %w", err)
	}
	r.updates = &pgx.Batch{}
	r.pending = 0
	return nil
}
