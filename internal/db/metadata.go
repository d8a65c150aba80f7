//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
	"github.com/pgEdge/pgedge-shopmcp/pkg/version"
)

// MetadataTable records the most recent demo-data seed run. It lives in
// the configured schema and is left out of table listings.
const MetadataTable = "shopmcp_metadata"

func metadataIdent(schema string) string {
	return pgx.Identifier{schema, MetadataTable}.Sanitize()
}

// SeedRun is what gets recorded about a seed invocation.
type SeedRun struct {
	RunID      string
	Size       string
	Seed       int64
	ResetFirst bool
	Traffic    string
}

// SaveSeedMetadata upserts the seed run details. Call it with the seed
// transaction so the record commits or rolls back with the data.
func SaveSeedMetadata(ctx context.Context, q DB, schema string, run SeedRun) error {
	ident := metadataIdent(schema)
	create := `CREATE TABLE IF NOT EXISTS ` + ident + ` (
        key   TEXT PRIMARY KEY,
        value TEXT NOT NULL
    )`
	if _, err := q.Exec(ctx, create); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"seed_run_id":      run.RunID,
		"seed_size":        run.Size,
		"seed_value":       fmt.Sprintf("%d", run.Seed),
		"seed_reset_first": fmt.Sprintf("%t", run.ResetFirst),
		"seed_traffic":     run.Traffic,
		"seeded_at":        time.Now().UTC().Format(time.RFC3339),
		"version":          version.Short(),
	}

	upsert := `INSERT INTO ` + ident + ` (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	batch := &pgx.Batch{}
	for key, value := range metadata {
		batch.Queue(upsert, key, value)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Debug().
		Str("run_id", run.RunID).
		Str("size", run.Size).
		Msg("Saved seed metadata")

	return nil
}

// GetAllMetadata retrieves all metadata as a map. A missing table
// yields an empty map.
func GetAllMetadata(ctx context.Context, q DB, schema string) (map[string]string, error) {
	exists, err := MetadataExists(ctx, q, schema)
	if err != nil {
		return nil, err
	}
	metadata := make(map[string]string)
	if !exists {
		return metadata, nil
	}

	rows, err := q.Query(ctx, `SELECT key, value FROM `+metadataIdent(schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// MetadataExists checks if the metadata table exists in schema.
func MetadataExists(ctx context.Context, q DB, schema string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, metadataIdent(schema)).Scan(&exists)
	return exists, err
}
