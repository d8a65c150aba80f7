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
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the bundled reference e-commerce schema. It is
// idempotent; only pending migrations run.
func Migrate(pool *pgxpool.Pool) (uint, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{
		MigrationsTable: "shopmcp_schema_migrations",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logging.Warn().Err(srcErr).Msg("Failed to close migration source")
		}
		if dbErr != nil {
			logging.Warn().Err(dbErr).Msg("Failed to close migration database")
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		v, _, _ := m.Version()
		logging.Info().Uint("version", v).Msg("No migrations to apply (database up-to-date)")
		return v, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	v, _, _ := m.Version()
	logging.Info().Uint("version", v).Msg("Applied migrations successfully")
	return v, nil
}
