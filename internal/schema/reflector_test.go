//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package schema

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
)

func shopCatalog() *StaticCatalog {
	return NewStaticCatalog(map[string]StaticTable{
		"orders": {
			Columns:   []string{"order_id", "customer_id", "placed_at", "status", "subtotal_amount", "total_amount"},
			Generated: []string{"total_amount"},
		},
		"order_items": {
			Columns: []string{"order_item_id", "order_id", "product_id", "quantity", "unit_price", "line_total"},
		},
		"v_inventory_on_hand": {
			Columns: []string{"product_id", "on_hand"},
			View:    true,
		},
	})
}

func TestReflectorTableAndRelationExists(t *testing.T) {
	ctx := context.Background()
	r := NewReflector(shopCatalog())

	ok, err := r.TableExists(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.TableExists(ctx, "v_inventory_on_hand")
	require.NoError(t, err)
	assert.False(t, ok, "a view is not a table")

	ok, err = r.RelationExists(ctx, "v_inventory_on_hand")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.RelationExists(ctx, "inventory")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReflectorCachesUntilCleared(t *testing.T) {
	ctx := context.Background()
	cat := shopCatalog()
	r := NewReflector(cat)

	cols, err := r.Columns(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, cols.Has("placed_at"))
	_, err = r.TableExists(ctx, "customers")
	require.NoError(t, err)
	before := cat.Lookups()

	// Out-of-band change is invisible until the cache is cleared.
	cat.Set("orders", StaticTable{Columns: []string{"id", "created_at", "total"}})
	cat.Set("customers", StaticTable{Columns: []string{"customer_id", "email"}})

	cols, err = r.Columns(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, cols.Has("placed_at"))
	ok, err := r.TableExists(ctx, "customers")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, cat.Lookups(), "cached lookups must not hit the catalog")

	r.ClearCache()

	cols, err = r.Columns(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, cols.Has("placed_at"))
	assert.True(t, cols.Has("created_at"))
	ok, err = r.TableExists(ctx, "customers")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReflectorGeneratedColumns(t *testing.T) {
	ctx := context.Background()
	r := NewReflector(shopCatalog())

	gen, err := r.GeneratedColumns(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"total_amount"}, gen.Sorted())

	gen, err = r.GeneratedColumns(ctx, "order_items")
	require.NoError(t, err)
	assert.Empty(t, gen)
}

func TestReflectorColumnsMissingTable(t *testing.T) {
	_, err := NewReflector(shopCatalog()).Columns(context.Background(), "customers")
	require.Error(t, err)

	var missing *apperrors.MissingSchemaError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"customers"}, missing.Missing)
}

func TestReflectorColumnsOfEmptyTable(t *testing.T) {
	cat := shopCatalog()
	cat.Set("audit", StaticTable{})

	cols, err := NewReflector(cat).Columns(context.Background(), "audit")
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestRequireTablesListsEveryMissingTable(t *testing.T) {
	ctx := context.Background()
	r := NewReflector(shopCatalog())

	require.NoError(t, r.RequireTables(ctx, "orders", "order_items"))

	err := r.RequireTables(ctx, "customers", "orders", "products")
	var missing *apperrors.MissingSchemaError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"customers", "products"}, missing.Missing)

	cat := shopCatalog()
	cat.Drop("order_items")
	err = NewReflector(cat).RequireTables(ctx, "orders", "order_items")
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"order_items"}, missing.Missing)
}

func TestReflectorPickColumn(t *testing.T) {
	ctx := context.Background()
	cat := shopCatalog()
	cat.Set("orders", StaticTable{Columns: []string{"id", "created_at", "ordered_at", "grand_total"}})
	r := NewReflector(cat)

	col, err := r.PickColumn(ctx, "orders", "placed_at", "ordered_at", "created_at", "order_date")
	require.NoError(t, err)
	assert.Equal(t, "ordered_at", col)

	col, err = r.PickOptionalColumn(ctx, "orders", "status")
	require.NoError(t, err)
	assert.Equal(t, "", col)

	_, err = r.PickColumn(ctx, "orders", "total_amount", "total")
	assert.ErrorIs(t, err, apperrors.ErrColumnNotFound)
}

func TestReflectorMissHook(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	misses := map[string]int{}
	r := NewReflector(shopCatalog(), WithMissHook(func(kind string) {
		mu.Lock()
		defer mu.Unlock()
		misses[kind]++
	}))

	for range 3 {
		_, err := r.Columns(ctx, "orders")
		require.NoError(t, err)
		_, err = r.TableExists(ctx, "orders")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, misses["columns"])
	assert.Equal(t, 1, misses["table"])
}

func TestReflectorConcurrentLookups(t *testing.T) {
	ctx := context.Background()
	r := NewReflector(shopCatalog())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%8 == 0 {
				r.ClearCache()
			}
			cols, err := r.Columns(ctx, "order_items")
			assert.NoError(t, err)
			assert.True(t, cols.Has("line_total"))
		}(i)
	}
	wg.Wait()
}

func TestReflectorOverview(t *testing.T) {
	ov, err := NewReflector(shopCatalog()).Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"order_items", "orders"}, ov.Tables)
	assert.Len(t, ov.Columns["orders"], 6)
	assert.Contains(t, ov.Markdown, "## orders")
	assert.Contains(t, ov.Markdown, "- `total_amount` (text) nullable=true generated")
	assert.NotContains(t, ov.Markdown, "v_inventory_on_hand")
}

func TestReflectorOverviewEmpty(t *testing.T) {
	ov, err := NewReflector(NewStaticCatalog(nil)).Overview(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ov.Tables)
	assert.Contains(t, ov.Markdown, "_No tables found in schema public._")
}

// gatedCatalog holds every TableExists and Columns call until release is
// closed or the call's context ends. Columns reads its answer before
// waiting, so a held call returns what the catalog looked like when it
// started.
type gatedCatalog struct {
	*StaticCatalog
	entered chan struct{}
	release chan struct{}
}

func newGatedCatalog() *gatedCatalog {
	return &gatedCatalog{
		StaticCatalog: shopCatalog(),
		entered:       make(chan struct{}, 16),
		release:       make(chan struct{}),
	}
}

func (c *gatedCatalog) wait(ctx context.Context) error {
	select {
	case c.entered <- struct{}{}:
	default:
	}
	select {
	case <-c.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *gatedCatalog) TableExists(ctx context.Context, name string) (bool, error) {
	if err := c.wait(ctx); err != nil {
		return false, err
	}
	return c.StaticCatalog.TableExists(ctx, name)
}

func (c *gatedCatalog) Columns(ctx context.Context, table string) ([]Column, error) {
	cols, err := c.StaticCatalog.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return cols, nil
}

func TestReflectorSharedLookupSurvivesCallerCancel(t *testing.T) {
	cat := newGatedCatalog()
	r := NewReflector(cat)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := r.TableExists(ctxA, "orders")
		errA <- err
	}()
	<-cat.entered

	type answer struct {
		exists bool
		err    error
	}
	resB := make(chan answer, 1)
	go func() {
		ok, err := r.TableExists(context.Background(), "orders")
		resB <- answer{ok, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(cat.release)
	b := <-resB
	require.NoError(t, b.err)
	assert.True(t, b.exists)

	ok, err := r.TableExists(context.Background(), "orders")
	require.NoError(t, err)
	assert.True(t, ok)
}
