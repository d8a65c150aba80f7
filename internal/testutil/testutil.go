//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil provides utilities for integration testing.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/pgEdge/pgedge-shopmcp/internal/db"
)

const (
	// TestConnEnv names the variable that points tests at an existing
	// server instead of a container.
	TestConnEnv = "SHOPMCP_TEST_CONN"

	// TestDBPrefix is the prefix for test databases.
	TestDBPrefix = "shopmcp_test_"

	// PostgresImage is the container image used when no server is given.
	PostgresImage = "postgres:16-alpine"
)

var (
	serverOnce sync.Once
	serverConn string
	serverErr  error
)

// runPostgresContainer starts a container, recovering from panics when
// Docker is unavailable.
func runPostgresContainer(ctx context.Context) (container *postgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("postgres"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
}

// baseServer returns a connection string to a server tests may create
// databases on. The container, when one is needed, is started once per
// test binary and reaped by the testcontainers ryuk sidecar.
func baseServer() (string, error) {
	serverOnce.Do(func() {
		if connStr := os.Getenv(TestConnEnv); connStr != "" {
			serverConn = connStr
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		container, err := runPostgresContainer(ctx)
		if err != nil {
			serverErr = fmt.Errorf("docker not available: %w", err)
			return
		}
		serverConn, serverErr = container.ConnectionString(ctx, "sslmode=disable")
	})
	return serverConn, serverErr
}

// SkipIfNoPostgres skips the test if PostgreSQL is not available.
func SkipIfNoPostgres(t *testing.T) string {
	t.Helper()
	connStr, err := baseServer()
	if err != nil {
		t.Skipf("PostgreSQL not available, skipping integration test: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		t.Skipf("PostgreSQL not reachable, skipping integration test: %v", err)
	}
	_ = conn.Close(ctx)
	return connStr
}

// CreateTestDB creates a uniquely named database and returns its
// connection string and name.
func CreateTestDB(t *testing.T, baseConnStr, label string) (string, string) {
	t.Helper()

	randomBytes := make([]byte, 6)
	if _, err := rand.Read(randomBytes); err != nil {
		t.Fatalf("Failed to generate random database name: %v", err)
	}
	dbName := TestDBPrefix + label + "_" + hex.EncodeToString(randomBytes)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, baseConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	config, err := pgx.ParseConfig(baseConnStr)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}

	// ConnString() does not reflect changes to Database, so rebuild it.
	testConnStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		config.User, config.Password, config.Host, config.Port, dbName)
	if config.Password == "" {
		testConnStr = fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=disable",
			config.User, config.Host, config.Port, dbName)
	}
	return testConnStr, dbName
}

// DropTestDB drops the test database.
func DropTestDB(t *testing.T, baseConnStr, dbName string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, baseConnStr)
	if err != nil {
		t.Logf("Warning: Failed to connect to drop test database: %v", err)
		return
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize()+" WITH (FORCE)")
	if err != nil {
		t.Logf("Warning: Failed to drop test database: %v", err)
	}
}

// NewDatabase creates a fresh database, connects a pool to it and
// registers cleanup. The database is kept when the test fails.
func NewDatabase(t *testing.T, label string) *pgxpool.Pool {
	t.Helper()
	base := SkipIfNoPostgres(t)
	connStr, dbName := CreateTestDB(t, base, label)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Connect(ctx, connStr, db.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if t.Failed() {
			t.Logf("Test failed - keeping database %s for diagnostics", dbName)
			return
		}
		DropTestDB(t, base, dbName)
	})
	return pool
}

// NewShopDatabase is NewDatabase with the reference shop schema applied.
func NewShopDatabase(t *testing.T, label string) *pgxpool.Pool {
	t.Helper()
	pool := NewDatabase(t, label)
	if _, err := db.Migrate(pool); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return pool
}

// Exec runs statements against the pool and fails the test on error.
func Exec(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := pool.Exec(ctx, sql, args...); err != nil {
		t.Fatalf("Exec failed: %v\n%s", err, sql)
	}
}
