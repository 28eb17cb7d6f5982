//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen generates synthetic IMDb-shaped source data.
package datagen

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/pgEdge/pgedge-filmwh/internal/transform"
)

// Faker provides fake data generation using gofakeit.
type Faker struct {
	faker *gofakeit.Faker
}

// NewFaker creates a new Faker with a random seed.
func NewFaker() *Faker {
	return &Faker{
		faker: gofakeit.New(uint64(time.Now().UnixNano())),
	}
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

// FirstName generates a random first name.
func (f *Faker) FirstName() string {
	return f.faker.FirstName()
}

// MovieName generates a random film title.
func (f *Faker) MovieName() string {
	return f.faker.MovieName()
}

// EpisodeName generates a random episode title.
func (f *Faker) EpisodeName() string {
	return strings.TrimSuffix(f.faker.Sentence(f.Int(2, 5)), ".")
}

// Language generates a random two-letter language code.
func (f *Faker) Language() string {
	return f.faker.LanguageAbbreviation()
}

// Int generates a random integer between min and max (inclusive).
func (f *Faker) Int(min, max int) int {
	return f.faker.IntRange(min, max)
}

// Float64 generates a random float64 between min and max.
func (f *Faker) Float64(min, max float64) float64 {
	return f.faker.Float64Range(min, max)
}

// Chance returns true with probability p.
func (f *Faker) Chance(p float64) bool {
	return f.Float64(0, 1) < p
}

// Nullable returns s, or the source null sentinel with probability p.
func (f *Faker) Nullable(s string, p float64) string {
	if f.Chance(p) {
		return transform.NullSentinel
	}
	return s
}

// Pick returns between lo and hi distinct elements of items, joined with
// commas in list order.
func Pick(f *Faker, items []string, lo, hi int) string {
	n := min(f.Int(lo, hi), len(items))
	chosen := make(map[int]bool, n)
	for len(chosen) < n {
		chosen[f.Int(0, len(items)-1)] = true
	}
	out := make([]string, 0, n)
	for i, item := range items {
		if chosen[i] {
			out = append(out, item)
		}
	}
	return strings.Join(out, ",")
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
