//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package source reads the transactional IMDb-style schema the warehouse is
// built from. Every column is selected as text; coercion and sentinel
// handling belong to the transform package.
package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pgEdge/pgedge-filmwh/internal/db"
	"github.com/pgEdge/pgedge-filmwh/internal/logging"
)

// Source tables.
const (
	TitleBasics = "title_basics"
	NameBasics  = "name_basics_import"
	Principals  = "principals"
	Ratings     = "ratings"
	Episode     = "episode"
	Akas        = "akas_import"
	Crew        = "crew_import"
)

// PersonRecord is one name_basics_import row.
type PersonRecord struct {
	Nconst            pgtype.Text
	PrimaryName       pgtype.Text
	BirthYear         pgtype.Text
	DeathYear         pgtype.Text
	PrimaryProfession pgtype.Text
}

// RoleRecord is one distinct (category, job, characters) triple.
type RoleRecord struct {
	Category   pgtype.Text
	Job        pgtype.Text
	Characters pgtype.Text
}

// TitleRecord is one title_basics row joined with its episode and
// original-title aka rows.
type TitleRecord struct {
	Tconst        pgtype.Text
	TitleType     pgtype.Text
	ParentTconst  pgtype.Text
	PrimaryTitle  pgtype.Text
	OriginalTitle pgtype.Text
	IsAdult       pgtype.Text
	StartYear     pgtype.Text
	EndYear       pgtype.Text
	Genres        pgtype.Text
	Language      pgtype.Text
	EpisodeNumber pgtype.Text
	SeasonNumber  pgtype.Text
}

// RatingRecord is one ratings row with its title's start year.
type RatingRecord struct {
	Tconst        pgtype.Text
	AverageRating pgtype.Text
	NumVotes      pgtype.Text
	StartYear     pgtype.Text
}

// PrincipalRecord is one principals row.
type PrincipalRecord struct {
	Tconst     pgtype.Text
	Nconst     pgtype.Text
	Ordering   pgtype.Text
	Category   pgtype.Text
	Job        pgtype.Text
	Characters pgtype.Text
}

const startYearsSQL = `
SELECT DISTINCT startyear::text
FROM title_basics
WHERE startyear IS NOT NULL`

const personsSQL = `
SELECT nconst::text, primaryname::text, birthyear::text, deathyear::text,
       primaryprofession::text
FROM name_basics_import`

const rolesSQL = `
SELECT DISTINCT category::text, job::text, characters::text
FROM principals`

// At most one original-title aka per title, so tconstid stays unique.
const titlesSQL = `
SELECT
    b.tconst::text,
    b.titletype::text,
    e.parenttconst::text,
    b.primarytitle::text,
    b.originaltitle::text,
    b.isadult::text,
    b.startyear::text,
    b.endyear::text,
    b.genres::text,
    a.language::text,
    e.episodenumber::text,
    e.seasonnumber::text
FROM title_basics b
LEFT JOIN episode e ON b.tconst = e.tconst
LEFT JOIN (
    SELECT DISTINCT ON (titleid) titleid, language
    FROM akas_import
    WHERE isoriginaltitle::text = '1'
    ORDER BY titleid, language NULLS LAST
) a ON b.tconst = a.titleid`

const ratingsSQL = `
SELECT r.tconst::text, r.averagerating::text, r.numvotes::text, b.startyear::text
FROM ratings r
JOIN title_basics b ON r.tconst = b.tconst`

const principalsSQL = `
SELECT tconst::text, nconst::text, ordering::text, category::text, job::text,
       characters::text
FROM principals`

// Reader issues read-only queries against the source schema.
type Reader struct {
	q db.Querier
}

// NewReader creates a reader over a source connection or pool.
func NewReader(q db.Querier) *Reader {
	return &Reader{q: q}
}

// StartYears returns the distinct non-null start years as raw text.
func (r *Reader) StartYears(ctx context.Context) ([]pgtype.Text, error) {
	rows, err := r.q.Query(ctx, startYearsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s start years: %w", TitleBasics, err)
	}
	years, err := pgx.CollectRows(rows, pgx.RowTo[pgtype.Text])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s start years: %w", TitleBasics, err)
	}
	return years, nil
}

// Persons returns every name_basics_import row.
func (r *Reader) Persons(ctx context.Context) ([]PersonRecord, error) {
	return collect[PersonRecord](ctx, r.q, NameBasics, personsSQL)
}

// Roles returns the distinct role triples found in principals.
func (r *Reader) Roles(ctx context.Context) ([]RoleRecord, error) {
	return collect[RoleRecord](ctx, r.q, Principals, rolesSQL)
}

// Titles returns every title with its episode and original-language details.
func (r *Reader) Titles(ctx context.Context) ([]TitleRecord, error) {
	return collect[TitleRecord](ctx, r.q, TitleBasics, titlesSQL)
}

// Ratings returns every rating joined with its title's start year. Ratings
// for titles missing from title_basics are not returned.
func (r *Reader) Ratings(ctx context.Context) ([]RatingRecord, error) {
	return collect[RatingRecord](ctx, r.q, Ratings, ratingsSQL)
}

// Principals returns every credit row.
func (r *Reader) Principals(ctx context.Context) ([]PrincipalRecord, error) {
	return collect[PrincipalRecord](ctx, r.q, Principals, principalsSQL)
}

func collect[T any](ctx context.Context, q db.Querier, table, sql string) ([]T, error) {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	logging.Debug().
		Str("table", table).
		Int("rows", len(out)).
		Msg("Read source rows")
	return out, nil
}
