//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package seed fills a shop schema with reproducible demo data. It
// writes only the columns the reflected schema has, skips generated
// ones, and runs the whole load in a single transaction.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-shopmcp/internal/apperrors"
	"github.com/pgEdge/pgedge-shopmcp/internal/datagen"
	"github.com/pgEdge/pgedge-shopmcp/internal/db"
	"github.com/pgEdge/pgedge-shopmcp/internal/logging"
	"github.com/pgEdge/pgedge-shopmcp/internal/schema"
)

// Note is returned with every successful run.
const Note = "Seed complete. Try sales_report(days=30) or the sales_deep_dive prompt."

// Options selects what to seed.
type Options struct {
	Size       string
	ResetFirst bool
	Seed       int64
	// Traffic is a datagen traffic shape name; empty spreads orders
	// uniformly over the history window.
	Traffic string
}

// Inserted counts the rows written per table.
type Inserted struct {
	Customers      int64 `json:"customers"`
	Products       int64 `json:"products"`
	Orders         int64 `json:"orders"`
	OrderItems     int64 `json:"order_items"`
	StockMovements int64 `json:"stock_movements"`
}

// Result describes a completed run.
type Result struct {
	OK         bool     `json:"ok"`
	Size       string   `json:"size"`
	ResetFirst bool     `json:"reset_first"`
	Seed       int64    `json:"seed"`
	RunID      string   `json:"run_id"`
	Inserted   Inserted `json:"inserted"`
	Note       string   `json:"note"`
}

// Engine runs seed jobs.
type Engine struct {
	db          db.DB
	registry    *schema.Registry
	allowWrites bool
	batch       datagen.BatchInsertConfig
	now         func() time.Time
	log         zerolog.Logger
}

// NewEngine creates a seed engine. With allowWrites false every Seed
// call fails with a PermissionError.
func NewEngine(q db.DB, reg *schema.Registry, allowWrites bool) *Engine {
	return &Engine{
		db:          q,
		registry:    reg,
		allowWrites: allowWrites,
		batch:       datagen.DefaultBatchConfig(),
		now:         time.Now,
		log:         logging.Component("seed"),
	}
}

// WithBatchConfig overrides chunk and flush sizes.
func (e *Engine) WithBatchConfig(cfg datagen.BatchInsertConfig) *Engine {
	e.batch = cfg
	return e
}

// NewRunID returns a run identifier: a UTC timestamp plus a short random
// suffix so two runs in the same second do not collide.
func NewRunID(now time.Time) string {
	return now.UTC().Format("20060102150405") + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Seed validates the request, resolves the schema plan and loads data in
// one transaction. Nothing is committed unless every step succeeds.
func (e *Engine) Seed(ctx context.Context, opts Options) (*Result, error) {
	if !e.allowWrites {
		return nil, &apperrors.PermissionError{Action: "seed demo data"}
	}
	size, err := ParseSize(opts.Size)
	if err != nil {
		return nil, err
	}
	var traffic datagen.Traffic
	if opts.Traffic != "" {
		if traffic, err = datagen.TrafficShape(opts.Traffic, time.UTC); err != nil {
			return nil, apperrors.Validation("traffic", "must be one of %s",
				strings.Join(datagen.TrafficShapes(), ", "))
		}
	}

	p, err := newPlan(ctx, e.registry)
	if err != nil {
		return nil, err
	}

	run := &runner{
		plan:    p,
		size:    size,
		batch:   e.batch,
		faker:   datagen.NewFakerWithSeed(uint64(opts.Seed)),
		traffic: traffic,
		now:     e.now().UTC(),
		runID:   NewRunID(e.now()),
		log:     e.log,
	}

	e.log.Info().
		Str("size", size.Name).
		Bool("reset_first", opts.ResetFirst).
		Int64("seed", opts.Seed).
		Str("traffic", opts.Traffic).
		Str("run_id", run.runID).
		Msg("Seeding demo data")

	start := time.Now()
	err = pgx.BeginFunc(ctx, e.db, func(tx pgx.Tx) error {
		if opts.ResetFirst {
			if err := run.truncate(ctx, tx); err != nil {
				return err
			}
			e.registry.Invalidate()
		}
		if err := run.load(ctx, tx); err != nil {
			return err
		}
		return db.SaveSeedMetadata(ctx, tx, e.registry.Reflector().Schema(), db.SeedRun{
			RunID:      run.runID,
			Size:       size.Name,
			Seed:       opts.Seed,
			ResetFirst: opts.ResetFirst,
			Traffic:    opts.Traffic,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("seed failed, nothing was committed: %w", err)
	}

	e.log.Info().
		Str("run_id", run.runID).
		Int64("orders", run.inserted.Orders).
		Int64("order_items", run.inserted.OrderItems).
		Dur("elapsed", time.Since(start)).
		Msg("Seed complete")

	return &Result{
		OK:         true,
		Size:       size.Name,
		ResetFirst: opts.ResetFirst,
		Seed:       opts.Seed,
		RunID:      run.runID,
		Inserted:   run.inserted,
		Note:       Note,
	}, nil
}
