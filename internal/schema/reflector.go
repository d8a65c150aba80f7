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
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
)

// lookupTimeout bounds a shared catalog fetch, which runs detached from
// any single caller's context.
const lookupTimeout = 30 * time.Second

// TableSnapshot is the cached shape of one relation.
type TableSnapshot struct {
	Name      string
	Columns   ColumnSet
	Generated ColumnSet
	Described []Column
}

// Reflector caches catalog answers per name until ClearCache is called.
// Cached values never go stale on their own.
type Reflector struct {
	catalog Catalog
	onMiss  func(kind string)

	mu        sync.RWMutex
	epoch     uint64
	tables    map[string]bool
	relations map[string]bool
	snapshots map[string]*TableSnapshot

	group singleflight.Group
}

// Option configures a Reflector.
type Option func(*Reflector)

// WithMissHook registers a callback invoked on every cache miss, keyed
// by lookup kind ("table", "relation", "columns").
func WithMissHook(fn func(kind string)) Option {
	return func(r *Reflector) { r.onMiss = fn }
}

// NewReflector creates a reflector over a catalog.
func NewReflector(catalog Catalog, opts ...Option) *Reflector {
	r := &Reflector{catalog: catalog}
	for _, opt := range opts {
		opt(r)
	}
	r.reset()
	return r
}

func (r *Reflector) reset() {
	r.tables = make(map[string]bool)
	r.relations = make(map[string]bool)
	r.snapshots = make(map[string]*TableSnapshot)
}

// Schema returns the namespace being reflected.
func (r *Reflector) Schema() string { return r.catalog.SchemaName() }

// ClearCache drops every cached existence, column and generated-column
// answer. Loads already in flight are not stored.
func (r *Reflector) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	r.reset()
	logging.Debug().Uint64("epoch", r.epoch).Msg("Schema cache cleared")
}

// currentEpoch returns the number of ClearCache calls so far.
func (r *Reflector) currentEpoch() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.epoch
}

// TableExists reports whether a base table exists. Cached.
func (r *Reflector) TableExists(ctx context.Context, name string) (bool, error) {
	return load(ctx, r, "table", name,
		func(r *Reflector) map[string]bool { return r.tables },
		func(ctx context.Context) (bool, error) { return r.catalog.TableExists(ctx, name) })
}

// RelationExists reports whether a table or view exists. Cached.
func (r *Reflector) RelationExists(ctx context.Context, name string) (bool, error) {
	return load(ctx, r, "relation", name,
		func(r *Reflector) map[string]bool { return r.relations },
		func(ctx context.Context) (bool, error) { return r.catalog.RelationExists(ctx, name) })
}

// Snapshot returns the cached shape of a relation, failing with a
// MissingSchemaError when it does not exist.
func (r *Reflector) Snapshot(ctx context.Context, name string) (*TableSnapshot, error) {
	return load(ctx, r, "columns", name,
		func(r *Reflector) map[string]*TableSnapshot { return r.snapshots },
		func(ctx context.Context) (*TableSnapshot, error) {
			cols, err := r.catalog.Columns(ctx, name)
			if err != nil {
				return nil, err
			}
			if len(cols) == 0 {
				exists, err := r.RelationExists(ctx, name)
				if err != nil {
					return nil, err
				}
				if !exists {
					return nil, &apperrors.MissingSchemaError{Schema: r.Schema(), Missing: []string{name}}
				}
			}
			snap := &TableSnapshot{
				Name:      name,
				Columns:   make(ColumnSet, len(cols)),
				Generated: make(ColumnSet),
				Described: cols,
			}
			for _, c := range cols {
				snap.Columns[c.Name] = struct{}{}
				if c.Generated {
					snap.Generated[c.Name] = struct{}{}
				}
			}
			return snap, nil
		})
}

// Columns returns the column-name set of a relation. Cached.
func (r *Reflector) Columns(ctx context.Context, table string) (ColumnSet, error) {
	snap, err := r.Snapshot(ctx, table)
	if err != nil {
		return nil, err
	}
	return snap.Columns, nil
}

// GeneratedColumns returns the database-computed columns of a relation,
// which must never be written directly. Cached.
func (r *Reflector) GeneratedColumns(ctx context.Context, table string) (ColumnSet, error) {
	snap, err := r.Snapshot(ctx, table)
	if err != nil {
		return nil, err
	}
	return snap.Generated, nil
}

// RequireTables fails with a MissingSchemaError naming every absent
// table, in argument order.
func (r *Reflector) RequireTables(ctx context.Context, names ...string) error {
	var missing []string
	for _, name := range names {
		ok, err := r.TableExists(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &apperrors.MissingSchemaError{Schema: r.Schema(), Missing: missing}
	}
	return nil
}

// PickColumn resolves the first candidate present on the table.
func (r *Reflector) PickColumn(ctx context.Context, table string, candidates ...string) (string, error) {
	cols, err := r.Columns(ctx, table)
	if err != nil {
		return "", err
	}
	return Pick(cols, table, candidates...)
}

// PickOptionalColumn is PickColumn returning "" instead of failing.
func (r *Reflector) PickOptionalColumn(ctx context.Context, table string, candidates ...string) (string, error) {
	cols, err := r.Columns(ctx, table)
	if err != nil {
		return "", err
	}
	return PickOptional(cols, candidates...), nil
}

// ListTables returns base tables in the schema. Not cached.
func (r *Reflector) ListTables(ctx context.Context) ([]string, error) {
	tables, err := r.catalog.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if tables == nil {
		tables = []string{}
	}
	return tables, nil
}

// DescribeTable returns column details for a table or view.
func (r *Reflector) DescribeTable(ctx context.Context, table string) ([]Column, error) {
	snap, err := r.Snapshot(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]Column, len(snap.Described))
	copy(out, snap.Described)
	return out, nil
}

// Overview lists every table with its columns, plus a Markdown rendering.
type Overview struct {
	Schema   string              `json:"schema"`
	Tables   []string            `json:"tables"`
	Columns  map[string][]Column `json:"columns"`
	Markdown string              `json:"markdown"`
}

// Overview describes every base table in the schema.
func (r *Reflector) Overview(ctx context.Context) (*Overview, error) {
	tables, err := r.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		Schema:  r.Schema(),
		Tables:  tables,
		Columns: make(map[string][]Column, len(tables)),
	}

	var md strings.Builder
	fmt.Fprintf(&md, "# Schema %s\n\n", ov.Schema)
	if len(tables) == 0 {
		fmt.Fprintf(&md, "_No tables found in schema %s._\n", ov.Schema)
	}
	for _, t := range tables {
		cols, err := r.DescribeTable(ctx, t)
		if err != nil {
			return nil, err
		}
		ov.Columns[t] = cols

		fmt.Fprintf(&md, "## %s\n", t)
		for _, c := range cols {
			fmt.Fprintf(&md, "- `%s` (%s) nullable=%t", c.Name, c.Type, c.Nullable)
			if c.Default != nil && *c.Default != "" {
				fmt.Fprintf(&md, " default=%s", *c.Default)
			}
			if c.Generated {
				md.WriteString(" generated")
			}
			md.WriteString("\n")
		}
		md.WriteString("\n")
	}
	ov.Markdown = strings.TrimSpace(md.String())
	return ov, nil
}

// load serves name from the cache selected by pick, populating it with
// fetch on a miss. Concurrent misses for the same key share one fetch,
// which does not inherit any caller's cancellation; each caller stops
// waiting when its own ctx is done. Errors are never cached.
func load[T any](
	ctx context.Context,
	r *Reflector,
	kind, name string,
	pick func(*Reflector) map[string]T,
	fetch func(context.Context) (T, error),
) (T, error) {
	r.mu.RLock()
	v, ok := pick(r)[name]
	epoch := r.epoch
	r.mu.RUnlock()
	if ok {
		return v, nil
	}

	key := fmt.Sprintf("%s/%d/%s", kind, epoch, name)
	ch := r.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		if r.onMiss != nil {
			r.onMiss(kind)
		}
		v, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if r.epoch == epoch {
			pick(r)[name] = v
		}
		r.mu.Unlock()
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
