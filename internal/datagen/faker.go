//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen provides seeded, reproducible fake data for the demo
// seeder.
package datagen

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// Faker wraps a seeded gofakeit source. Every value it returns comes
// from that source, so two fakers with the same seed produce the same
// sequence.
type Faker struct {
	faker *gofakeit.Faker
}

// NewFakerWithSeed creates a new Faker with a specific seed for reproducibility.
func NewFakerWithSeed(seed uint64) *Faker {
	return &Faker{
		faker: gofakeit.New(seed),
	}
}

// Name generates a random full name.
func (f *Faker) Name() string {
	return f.faker.Name()
}

// ProductName generates a random product name.
func (f *Faker) ProductName() string {
	return f.faker.ProductName()
}

// Int generates a random integer between min and max (inclusive).
func (f *Faker) Int(min, max int) int {
	return f.faker.IntRange(min, max)
}

// Float64 generates a random float64 between min and max.
func (f *Faker) Float64(min, max float64) float64 {
	return f.faker.Float64Range(min, max)
}

// Money returns an amount between min and max rounded to cents.
func (f *Faker) Money(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(f.faker.Float64Range(min, max)).Round(2)
}

// Past returns a time up to maxDays before now, with random hour and
// minute offsets.
func (f *Faker) Past(now time.Time, maxDays int) time.Time {
	return now.
		AddDate(0, 0, -f.Int(0, maxDays)).
		Add(-time.Duration(f.Int(0, 23)) * time.Hour).
		Add(-time.Duration(f.Int(0, 59)) * time.Minute)
}

// Choose returns a random element from the given slice.
func Choose[T any](f *Faker, items []T) T {
	if len(items) == 0 {
		var zero T
		return zero
	}
	return items[f.Int(0, len(items)-1)]
}

// ChooseWeighted returns a random element based on weights.
func ChooseWeighted[T any](f *Faker, items []T, weights []int) T {
	if len(items) == 0 || len(weights) == 0 {
		var zero T
		return zero
	}

	totalWeight := 0
	for _, w := range weights {
		totalWeight += w
	}

	r := f.Int(1, totalWeight)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return items[i]
		}
	}

	return items[len(items)-1]
}

// SampleDistinct returns n distinct elements of items in random order.
// n is capped at len(items).
func SampleDistinct[T any](f *Faker, items []T, n int) []T {
	n = min(max(n, 0), len(items))
	if n*4 <= len(items) {
		seen := make(map[int]struct{}, n)
		out := make([]T, 0, n)
		for len(out) < n {
			i := f.Int(0, len(items)-1)
			if _, dup := seen[i]; dup {
				continue
			}
			seen[i] = struct{}{}
			out = append(out, items[i])
		}
		return out
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	// Partial Fisher-Yates over the first n slots.
	out := make([]T, n)
	for i := 0; i < n; i++ {
		j := f.Int(i, len(idx)-1)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = items[idx[i]]
	}
	return out
}
