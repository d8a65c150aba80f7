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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
)

func TestPickIsOrderSensitive(t *testing.T) {
	cols := NewColumnSet("created_at", "ordered_at", "placed_at")

	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"earliest candidate wins", []string{"placed_at", "ordered_at", "created_at"}, "placed_at"},
		{"skips absent names", []string{"order_date", "ordered_at", "created_at"}, "ordered_at"},
		{"reversed list", []string{"created_at", "placed_at"}, "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pick(cols, "orders", tt.candidates...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPickNoMatch(t *testing.T) {
	_, err := Pick(NewColumnSet("id"), "order_items", "quantity", "qty")

	var notFound *apperrors.ColumnNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "order_items", notFound.Table)
	assert.Equal(t, []string{"quantity", "qty"}, notFound.Candidates)

	assert.Equal(t, "", PickOptional(NewColumnSet("id"), "status"))
}

func TestRegistryReusesHandles(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewReflector(shopCatalog()))

	a, err := reg.Get(ctx, "orders")
	require.NoError(t, err)
	b, err := reg.Get(ctx, "orders")
	require.NoError(t, err)
	assert.Same(t, a, b)

	reg.Invalidate()

	c, err := reg.Get(ctx, "orders")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestRegistryInvalidate(t *testing.T) {
	ctx := context.Background()
	cat := shopCatalog()
	reg := NewRegistry(NewReflector(cat))

	orders, err := reg.Get(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, orders.Has("placed_at"))

	cat.Set("orders", StaticTable{Columns: []string{"id", "order_date"}})
	reg.Invalidate()

	orders, err = reg.Get(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, orders.Has("placed_at"))
	assert.True(t, orders.Has("order_date"))
}

func TestTableHandle(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewReflector(shopCatalog()))

	orders, err := reg.Get(ctx, "orders")
	require.NoError(t, err)

	assert.Equal(t, "orders", orders.Name())
	assert.Equal(t, `"public"."orders"`, orders.Ident())
	assert.True(t, orders.Writable("subtotal_amount"))
	assert.False(t, orders.Writable("total_amount"), "generated columns are read-only")
	assert.False(t, orders.Writable("grand_total"))

	col, err := orders.Pick("total_amount", "grand_total", "total")
	require.NoError(t, err)
	assert.Equal(t, "total_amount", col)
	assert.Equal(t, "status", orders.PickOptional("status"))

	view, err := reg.Get(ctx, "v_inventory_on_hand")
	require.NoError(t, err)
	assert.True(t, view.Has("on_hand"))

	_, err = reg.Get(ctx, "inventory")
	assert.ErrorIs(t, err, apperrors.ErrMissingSchema)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"placed_at"`, Quote("placed_at"))
	assert.Equal(t, `"we""ird"`, Quote(`we"ird`))
}

func TestRegistryGetOverlappingInvalidate(t *testing.T) {
	ctx := context.Background()
	cat := newGatedCatalog()
	reg := NewRegistry(NewReflector(cat))

	type answer struct {
		table *Table
		err   error
	}
	done := make(chan answer, 1)
	go func() {
		tbl, err := reg.Get(ctx, "orders")
		done <- answer{tbl, err}
	}()
	<-cat.entered

	cat.Set("orders", StaticTable{Columns: []string{"id", "order_date"}})
	reg.Invalidate()
	close(cat.release)

	got := <-done
	require.NoError(t, got.err)
	assert.True(t, got.table.Has("order_date"))
	assert.False(t, got.table.Has("placed_at"))

	again, err := reg.Get(ctx, "orders")
	require.NoError(t, err)
	assert.Same(t, got.table, again)
	assert.True(t, again.Has("order_date"))
}

func TestRegistryFollowsReflectorClear(t *testing.T) {
	ctx := context.Background()
	cat := shopCatalog()
	reg := NewRegistry(NewReflector(cat))

	before, err := reg.Get(ctx, "orders")
	require.NoError(t, err)

	cat.Set("orders", StaticTable{Columns: []string{"id", "order_date"}})
	reg.Reflector().ClearCache()

	after, err := reg.Get(ctx, "orders")
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.True(t, after.Has("order_date"))
}
