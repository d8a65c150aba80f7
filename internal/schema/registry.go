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
	"sync"

	"github.com/jackc/pgx/v5"
)

// Table is a queryable handle for one relation: its quoted identifier
// plus the reflected column sets.
type Table struct {
	schema string
	snap   *TableSnapshot
}

// Name returns the unqualified relation name.
func (t *Table) Name() string { return t.snap.Name }

// Identifier returns the schema-qualified identifier, for CopyFrom.
func (t *Table) Identifier() pgx.Identifier { return pgx.Identifier{t.schema, t.snap.Name} }

// Ident returns the quoted, schema-qualified name for SQL text.
func (t *Table) Ident() string { return t.Identifier().Sanitize() }

// Columns returns the reflected column set.
func (t *Table) Columns() ColumnSet { return t.snap.Columns }

// Has reports whether the column exists.
func (t *Table) Has(col string) bool { return t.snap.Columns.Has(col) }

// Writable reports whether the column exists and is not generated.
func (t *Table) Writable(col string) bool {
	return t.snap.Columns.Has(col) && !t.snap.Generated.Has(col)
}

// Pick resolves the first present candidate.
func (t *Table) Pick(candidates ...string) (string, error) {
	return Pick(t.snap.Columns, t.snap.Name, candidates...)
}

// PickOptional resolves the first present candidate, or "".
func (t *Table) PickOptional(candidates ...string) string {
	return PickOptional(t.snap.Columns, candidates...)
}

// Quote returns a column name as a quoted identifier.
func Quote(col string) string { return pgx.Identifier{col}.Sanitize() }

// Registry lazily creates one Table handle per relation name and reuses
// it until the reflector's cache is cleared.
type Registry struct {
	reflector *Reflector

	mu      sync.RWMutex
	epoch   uint64
	handles map[string]*Table
}

// NewRegistry creates a registry backed by a reflector.
func NewRegistry(r *Reflector) *Registry {
	return &Registry{
		reflector: r,
		handles:   make(map[string]*Table),
	}
}

// Reflector returns the backing reflector.
func (g *Registry) Reflector() *Reflector { return g.reflector }

// Get returns the handle for a table or view, creating it on first use.
// Handles belong to the reflector epoch they were built in; a clear that
// lands while a handle is being built causes a rebuild, never a stale
// cached handle.
func (g *Registry) Get(ctx context.Context, name string) (*Table, error) {
	for {
		epoch := g.reflector.currentEpoch()

		g.mu.RLock()
		t, ok := g.handles[name]
		current := g.epoch == epoch
		g.mu.RUnlock()
		if ok && current {
			return t, nil
		}

		snap, err := g.reflector.Snapshot(ctx, name)
		if err != nil {
			return nil, err
		}

		g.mu.Lock()
		if g.reflector.currentEpoch() != epoch {
			g.mu.Unlock()
			continue
		}
		if g.epoch != epoch {
			g.epoch = epoch
			g.handles = make(map[string]*Table)
		}
		if existing, ok := g.handles[name]; ok {
			g.mu.Unlock()
			return existing, nil
		}
		t = &Table{schema: g.reflector.Schema(), snap: snap}
		g.handles[name] = t
		g.mu.Unlock()
		return t, nil
	}
}

// Invalidate clears the reflector cache, which retires every handle.
// Use it after migrations or anything else that changes the schema out
// of band.
func (g *Registry) Invalidate() {
	g.reflector.ClearCache()
}
