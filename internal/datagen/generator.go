package datagen

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-filmwh/internal/db"
	"github.com/pgEdge/pgedge-filmwh/internal/loader"
	"github.com/pgEdge/pgedge-filmwh/internal/logging"
	"github.com/pgEdge/pgedge-filmwh/internal/source"
)

// Every source column is TEXT, as in a raw TSV import, so the null
// sentinel can appear anywhere.
const dropSourceSQL = `
DROP TABLE IF EXISTS title_basics, name_basics_import, principals, ratings,
    episode, akas_import, crew_import CASCADE;
`

const createSourceSQL = `
CREATE TABLE title_basics (
    tconst         TEXT PRIMARY KEY,
    titletype      TEXT,
    primarytitle   TEXT,
    originaltitle  TEXT,
    isadult        TEXT,
    startyear      TEXT,
    endyear        TEXT,
    runtimeminutes TEXT,
    genres         TEXT
);

CREATE TABLE name_basics_import (
    nconst            TEXT,
    primaryname       TEXT,
    birthyear         TEXT,
    deathyear         TEXT,
    primaryprofession TEXT,
    knownfortitles    TEXT
);

CREATE TABLE principals (
    tconst     TEXT,
    ordering   TEXT,
    nconst     TEXT,
    category   TEXT,
    job        TEXT,
    characters TEXT
);

CREATE TABLE ratings (
    tconst        TEXT,
    averagerating TEXT,
    numvotes      TEXT
);

CREATE TABLE episode (
    tconst        TEXT,
    parenttconst  TEXT,
    seasonnumber  TEXT,
    episodenumber TEXT
);

CREATE TABLE akas_import (
    titleid         TEXT,
    ordering        TEXT,
    title           TEXT,
    region          TEXT,
    language        TEXT,
    types           TEXT,
    attributes      TEXT,
    isoriginaltitle TEXT
);

CREATE TABLE crew_import (
    tconst    TEXT,
    directors TEXT,
    writers   TEXT
);
`

// Table is a generated source table.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Dataset is a complete generated source schema, in load order.
type Dataset []Table

// Rows returns the row count of the named table.
func (d Dataset) Rows(name string) int {
	for _, t := range d {
		if t.Name == name {
			return len(t.Rows)
		}
	}
	return 0
}

// Table returns the named table.
func (d Dataset) Table(name string) (Table, bool) {
	for _, t := range d {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// CreateSourceSchema drops and recreates the source tables.
func CreateSourceSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, dropSourceSQL); err != nil {
			return fmt.Errorf("failed to drop source tables: %w", err)
		}
		if _, err := tx.Exec(ctx, createSourceSQL); err != nil {
			return fmt.Errorf("failed to create source tables: %w", err)
		}
		return nil
	})
}

// DropSourceSchema drops the source tables.
func DropSourceSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSourceSQL)
	return err
}

// Load copies a dataset into the source tables in one transaction.
func Load(ctx context.Context, pool *pgxpool.Pool, data Dataset, cfg loader.BatchConfig) error {
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, t := range data {
			progress := loader.NewProgressReporter(t.Name, int64(len(t.Rows)), cfg.ProgressInterval)

			n, err := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, t.Columns, pgx.CopyFromRows(t.Rows))
			if err != nil {
				return &loader.LoadError{Table: t.Name, Op: loader.OpCopy, Err: err}
			}
			progress.Update(n)
			progress.Done()
		}
		return nil
	})
}

// Seed recreates the source schema and fills it with generated data.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg SeedConfig, batch loader.BatchConfig) (Dataset, error) {
	data := NewGenerator(cfg).Generate()

	logging.Info().
		Int(source.TitleBasics, data.Rows(source.TitleBasics)).
		Int(source.NameBasics, data.Rows(source.NameBasics)).
		Int(source.Principals, data.Rows(source.Principals)).
		Int(source.Ratings, data.Rows(source.Ratings)).
		Uint64("seed", cfg.Seed).
		Msg("Generated source data")

	if err := CreateSourceSchema(ctx, pool); err != nil {
		return nil, err
	}
	if err := Load(ctx, pool, data, batch); err != nil {
		return nil, err
	}
	return data, nil
}
