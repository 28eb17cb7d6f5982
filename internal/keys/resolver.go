//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package keys maps source natural keys to warehouse surrogate keys.
//
// Lookups are loaded from committed dimension tables, so a fact builder only
// sees keys that the warehouse actually assigned.
package keys

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pgEdge/pgedge-filmwh/internal/db"
	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

// Lookup maps a natural key to a surrogate key.
type Lookup[K comparable] map[K]int32

// Resolve returns the surrogate key for k.
func (l Lookup[K]) Resolve(k K) (int32, bool) {
	v, ok := l[k]
	return v, ok
}

// Titles loads tconstid -> title_key.
func Titles(ctx context.Context, q db.Querier) (Lookup[string], error) {
	return loadLookup[string](ctx, q, warehouse.DimTitle,
		`SELECT tconstid, title_key FROM dim_title`)
}

// Persons loads nconstid -> person_key.
func Persons(ctx context.Context, q db.Querier) (Lookup[string], error) {
	return loadLookup[string](ctx, q, warehouse.DimPerson,
		`SELECT nconstid, person_key FROM dim_person`)
}

// Dates loads year -> date_key.
func Dates(ctx context.Context, q db.Querier) (Lookup[int32], error) {
	return loadLookup[int32](ctx, q, warehouse.DimDate,
		`SELECT year, date_key FROM dim_date`)
}

// Roles loads (category, job, character_name) -> role_key. Null components
// are part of the key, so a credit with no job matches the role row with a
// NULL job and nothing else.
func Roles(ctx context.Context, q db.Querier) (Lookup[warehouse.RoleRow], error) {
	rows, err := q.Query(ctx, `SELECT category, job, character_name, role_key FROM dim_role`)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s keys: %w", warehouse.DimRole, err)
	}
	defer rows.Close()

	out := make(Lookup[warehouse.RoleRow])
	var (
		role warehouse.RoleRow
		key  int32
	)
	_, err = pgx.ForEachRow(rows, []any{&role.Category, &role.Job, &role.CharacterName, &key}, func() error {
		out[role] = key
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s keys: %w", warehouse.DimRole, err)
	}
	return out, nil
}

func loadLookup[K comparable](ctx context.Context, q db.Querier, table, sql string) (Lookup[K], error) {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s keys: %w", table, err)
	}
	defer rows.Close()

	out := make(Lookup[K])
	var (
		natural K
		key     int32
	)
	_, err = pgx.ForEachRow(rows, []any{&natural, &key}, func() error {
		out[natural] = key
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s keys: %w", table, err)
	}
	return out, nil
}

// RoleKey builds the composite role lookup key for a credit. Its inputs
// must already be sentinel-normalized.
func RoleKey(category, job, character pgtype.Text) warehouse.RoleRow {
	return warehouse.RoleRow{Category: category, Job: job, CharacterName: character}
}
