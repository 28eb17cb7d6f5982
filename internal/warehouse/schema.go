//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse defines the star schema that the ETL loads: four
// dimensions (date, title, person, role) and two facts (ratings, principals).
package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-filmwh/internal/db"
)

// Table names, in load order.
const (
	DimDate             = "dim_date"
	DimPerson           = "dim_person"
	DimRole             = "dim_role"
	DimTitle            = "dim_title"
	FactTitleRatings    = "fact_title_ratings"
	FactTitlePrincipals = "fact_title_principals"
)

// Tables lists every warehouse table in the order the ETL loads them.
var Tables = []string{
	DimDate,
	DimPerson,
	DimRole,
	DimTitle,
	FactTitleRatings,
	FactTitlePrincipals,
}

// Drop schema SQL
const dropSchemaSQL = `
DROP TABLE IF EXISTS fact_title_principals, fact_title_ratings,
    dim_date, dim_title, dim_person, dim_role CASCADE;
`

// Schema SQL for the star schema. dim_date keys are the literal year; every
// other dimension gets a warehouse-generated surrogate key.
const createSchemaSQL = `
CREATE TABLE dim_date (
    date_key INTEGER PRIMARY KEY,
    year     INTEGER NOT NULL,
    decade   INTEGER NOT NULL,
    century  INTEGER NOT NULL
);

CREATE TABLE dim_title (
    title_key      SERIAL PRIMARY KEY,
    tconstid       VARCHAR(15) UNIQUE NOT NULL,
    title_type     VARCHAR(50),
    parent_tconst  VARCHAR(15),
    primary_title  TEXT,
    original_title TEXT,
    title_language VARCHAR(50),
    is_adult       BOOLEAN,
    start_year     INTEGER,
    end_year       INTEGER,
    episode_number INTEGER,
    season_number  INTEGER,
    genre_1        VARCHAR(50),
    genre_2        VARCHAR(50),
    genre_3        VARCHAR(50)
);

CREATE TABLE dim_person (
    person_key   SERIAL PRIMARY KEY,
    nconstid     VARCHAR(15) UNIQUE NOT NULL,
    primary_name VARCHAR(255),
    birth_year   INTEGER,
    death_year   INTEGER,
    profession_1 VARCHAR(100),
    profession_2 VARCHAR(100),
    profession_3 VARCHAR(100)
);

-- NULLS NOT DISTINCT so (actor, NULL, NULL) collides with itself on re-insert.
CREATE TABLE dim_role (
    role_key       SERIAL PRIMARY KEY,
    category       VARCHAR(100),
    job            VARCHAR(255),
    character_name VARCHAR(512),
    CONSTRAINT dim_role_triple_key UNIQUE NULLS NOT DISTINCT (category, job, character_name)
);

CREATE TABLE fact_title_ratings (
    title_key      INTEGER NOT NULL REFERENCES dim_title(title_key),
    date_key       INTEGER NOT NULL REFERENCES dim_date(date_key),
    average_rating NUMERIC(3,1),
    num_votes      INTEGER
);

CREATE TABLE fact_title_principals (
    title_key          INTEGER NOT NULL REFERENCES dim_title(title_key),
    person_key         INTEGER NOT NULL REFERENCES dim_person(person_key),
    role_key           INTEGER NOT NULL REFERENCES dim_role(role_key),
    principal_ordering INTEGER
);

CREATE INDEX idx_dim_title_parent ON dim_title(parent_tconst);
CREATE INDEX idx_dim_title_type_year ON dim_title(title_type, start_year);
CREATE INDEX idx_ratings_title ON fact_title_ratings(title_key);
CREATE INDEX idx_principals_title ON fact_title_principals(title_key);
CREATE INDEX idx_principals_person ON fact_title_principals(person_key);
`

// CreateSchema drops and recreates every warehouse table in one
// transaction. Prior warehouse contents are discarded. A failing statement
// rolls back the whole schema change.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, dropSchemaSQL); err != nil {
			return fmt.Errorf("failed to drop warehouse tables: %w", err)
		}
		if _, err := tx.Exec(ctx, createSchemaSQL); err != nil {
			return fmt.Errorf("failed to create warehouse tables: %w", err)
		}
		return nil
	})
}

// DropSchema drops every warehouse table.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}

// CountRows returns the row count of every warehouse table, in load order.
// Missing tables are reported with a count of -1.
func CountRows(ctx context.Context, q db.Querier) (map[string]int64, error) {
	counts := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			counts[table] = -1
			continue
		}
		var n int64
		if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{table}.Sanitize()).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
