//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package schema discovers and caches the shape of the target database:
// which tables and views exist, their columns, and which columns are
// database-generated. Resolution of logical concepts to physical column
// names runs over these cached snapshots.
package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pgEdge/pgedge-shopmcp/internal/db"
)

// Column describes one column of a table or view.
type Column struct {
	Name      string  `json:"column"`
	Type      string  `json:"type"`
	Nullable  bool    `json:"nullable"`
	Default   *string `json:"default,omitempty"`
	Generated bool    `json:"generated"`
}

// Catalog answers metadata questions about one schema namespace.
// Columns returns an empty slice for a relation that does not exist.
type Catalog interface {
	SchemaName() string
	TableExists(ctx context.Context, name string) (bool, error)
	RelationExists(ctx context.Context, name string) (bool, error)
	Columns(ctx context.Context, table string) ([]Column, error)
	ListTables(ctx context.Context) ([]string, error)
}

// PostgresCatalog reads metadata from pg_catalog and information_schema.
type PostgresCatalog struct {
	db     db.DB
	schema string
}

// NewPostgresCatalog creates a catalog for the given schema namespace.
func NewPostgresCatalog(q db.DB, schemaName string) *PostgresCatalog {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresCatalog{db: q, schema: schemaName}
}

// SchemaName returns the namespace this catalog reads.
func (c *PostgresCatalog) SchemaName() string { return c.schema }

// TableExists reports whether an ordinary or partitioned table exists.
func (c *PostgresCatalog) TableExists(ctx context.Context, name string) (bool, error) {
	return c.relkindExists(ctx, name, []string{"r", "p"})
}

// RelationExists reports whether a table, view or materialized view exists.
func (c *PostgresCatalog) RelationExists(ctx context.Context, name string) (bool, error) {
	return c.relkindExists(ctx, name, []string{"r", "p", "v", "m", "f"})
}

func (c *PostgresCatalog) relkindExists(ctx context.Context, name string, kinds []string) (bool, error) {
	var exists bool
	err := c.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1
            FROM pg_catalog.pg_class cls
            JOIN pg_catalog.pg_namespace ns ON ns.oid = cls.relnamespace
            WHERE ns.nspname = $1
              AND cls.relname = $2
              AND cls.relkind::text = ANY($3)
        )
    `, c.schema, name, kinds).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check relation %s.%s: %w", c.schema, name, err)
	}
	return exists, nil
}

// Columns lists a relation's columns in ordinal order. A column counts as
// generated when is_generated is ALWAYS or it carries a generation
// expression.
func (c *PostgresCatalog) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := c.db.Query(ctx, `
        SELECT column_name,
               data_type,
               is_nullable = 'YES',
               column_default,
               COALESCE(is_generated, 'NEVER') = 'ALWAYS'
                   OR COALESCE(generation_expression, '') <> ''
        FROM information_schema.columns
        WHERE table_schema = $1 AND table_name = $2
        ORDER BY ordinal_position
    `, c.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s.%s: %w", c.schema, table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Default, &col.Generated); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s.%s: %w", c.schema, table, err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// ListTables returns base table names in the schema, sorted, leaving out
// the seed metadata table.
func (c *PostgresCatalog) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.db.Query(ctx, `
        SELECT table_name
        FROM information_schema.tables
        WHERE table_schema = $1 AND table_type = 'BASE TABLE'
          AND table_name <> $2
        ORDER BY table_name
    `, c.schema, db.MetadataTable)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", c.schema, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// StaticTable is an in-memory table or view definition.
type StaticTable struct {
	Columns   []string
	Generated []string
	View      bool
}

// StaticCatalog serves a fixed schema snapshot. It lets resolution and
// query building run without a database.
type StaticCatalog struct {
	Schema string

	mu      sync.Mutex
	tables  map[string]StaticTable
	lookups int
}

// NewStaticCatalog creates a catalog over the given tables.
func NewStaticCatalog(tables map[string]StaticTable) *StaticCatalog {
	c := &StaticCatalog{Schema: "public", tables: make(map[string]StaticTable, len(tables))}
	for k, v := range tables {
		c.tables[k] = v
	}
	return c
}

// Set adds or replaces a table, simulating an out-of-band migration.
func (c *StaticCatalog) Set(name string, t StaticTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[name] = t
}

// Drop removes a table.
func (c *StaticCatalog) Drop(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, name)
}

// Lookups returns how many metadata calls have been served.
func (c *StaticCatalog) Lookups() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookups
}

func (c *StaticCatalog) SchemaName() string {
	if c.Schema == "" {
		return "public"
	}
	return c.Schema
}

func (c *StaticCatalog) TableExists(_ context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	t, ok := c.tables[name]
	return ok && !t.View, nil
}

func (c *StaticCatalog) RelationExists(_ context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	_, ok := c.tables[name]
	return ok, nil
}

func (c *StaticCatalog) Columns(_ context.Context, table string) ([]Column, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	t, ok := c.tables[table]
	if !ok {
		return nil, nil
	}
	generated := NewColumnSet(t.Generated...)
	cols := make([]Column, 0, len(t.Columns))
	for _, name := range t.Columns {
		cols = append(cols, Column{
			Name:      name,
			Type:      "text",
			Nullable:  true,
			Generated: generated.Has(name),
		})
	}
	return cols, nil
}

func (c *StaticCatalog) ListTables(_ context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	var names []string
	for name, t := range c.tables {
		if !t.View {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ColumnSet is a set of column names.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from names.
func NewColumnSet(names ...string) ColumnSet {
	s := make(ColumnSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s ColumnSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s ColumnSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s ColumnSet) String() string {
	return "{" + strings.Join(s.Sorted(), ", ") + "}"
}
