package etl

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-filmwh/internal/db"
	"github.com/pgEdge/pgedge-filmwh/internal/keys"
	"github.com/pgEdge/pgedge-filmwh/internal/loader"
	"github.com/pgEdge/pgedge-filmwh/internal/logging"
	"github.com/pgEdge/pgedge-filmwh/internal/transform"
	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

// buildDates loads dim_date with every year between the earliest and latest
// title start year.
func (p *Pipeline) buildDates(ctx context.Context, st *StepStats) error {
	years, err := p.reader.StartYears(ctx)
	if err != nil {
		return err
	}
	st.Read = int64(len(years))

	rows := transform.DateRange(years)
	if len(rows) == 0 {
		logging.Warn().
			Str("table", warehouse.DimDate).
			Msg("No valid start years in source; date dimension is empty")
		return nil
	}

	return db.WithTx(ctx, p.warehouse, func(tx pgx.Tx) error {
		n, err := loader.Copy(ctx, tx.Conn().PgConn(), p.batch, warehouse.DimDate,
			warehouse.DateColumns, loader.AsRows(rows))
		st.Loaded = n
		return err
	})
}

// buildPersons loads dim_person from name_basics_import.
func (p *Pipeline) buildPersons(ctx context.Context, st *StepStats) error {
	recs, err := p.reader.Persons(ctx)
	if err != nil {
		return err
	}
	st.Read = int64(len(recs))

	rows := make([]warehouse.PersonRow, 0, len(recs))
	for _, rec := range recs {
		row, ok := transform.Person(rec)
		if !ok {
			st.Drops[keys.NoNaturalKey]++
			continue
		}
		rows = append(rows, row)
	}

	return db.WithTx(ctx, p.warehouse, func(tx pgx.Tx) error {
		n, err := loader.BatchInsert(ctx, tx, p.batch, warehouse.DimPerson,
			warehouse.PersonColumns, loader.AsRows(rows), nil)
		st.Loaded = n
		return err
	})
}

// buildRoles loads the distinct role triples into dim_role. Triples already
// present are skipped, so the step can be re-run against a loaded warehouse.
func (p *Pipeline) buildRoles(ctx context.Context, st *StepStats) error {
	recs, err := p.reader.Roles(ctx)
	if err != nil {
		return err
	}
	st.Read = int64(len(recs))

	rows := transform.UniqueRoles(recs)

	return db.WithTx(ctx, p.warehouse, func(tx pgx.Tx) error {
		n, err := loader.BatchInsert(ctx, tx, p.batch, warehouse.DimRole,
			warehouse.RoleColumns, loader.AsRows(rows), warehouse.RoleConflictKey)
		st.Loaded = n
		return err
	})
}

// buildTitles loads dim_title from title_basics joined with episode and
// original-title akas.
func (p *Pipeline) buildTitles(ctx context.Context, st *StepStats) error {
	recs, err := p.reader.Titles(ctx)
	if err != nil {
		return err
	}
	st.Read = int64(len(recs))

	rows := make([]warehouse.TitleRow, 0, len(recs))
	for _, rec := range recs {
		row, ok := transform.Title(rec)
		if !ok {
			st.Drops[keys.NoNaturalKey]++
			continue
		}
		rows = append(rows, row)
	}

	return db.WithTx(ctx, p.warehouse, func(tx pgx.Tx) error {
		n, err := loader.BatchInsert(ctx, tx, p.batch, warehouse.DimTitle,
			warehouse.TitleColumns, loader.AsRows(rows), nil)
		st.Loaded = n
		return err
	})
}

// buildRatings loads fact_title_ratings, re-keyed against dim_title and
// dim_date.
func (p *Pipeline) buildRatings(ctx context.Context, st *StepStats) error {
	recs, err := p.reader.Ratings(ctx)
	if err != nil {
		return err
	}
	st.Read = int64(len(recs))

	return db.WithTx(ctx, p.warehouse, func(tx pgx.Tx) error {
		titles, err := keys.Titles(ctx, tx)
		if err != nil {
			return err
		}
		dates, err := keys.Dates(ctx, tx)
		if err != nil {
			return err
		}

		facts, drops := keys.RatingFacts(recs, titles, dates)
		st.addDrops(drops)

		n, err := loader.Copy(ctx, tx.Conn().PgConn(), p.batch, warehouse.FactTitleRatings,
			warehouse.RatingColumns, loader.AsRows(facts))
		st.Loaded = n
		return err
	})
}

// buildPrincipals loads fact_title_principals, re-keyed against dim_title,
// dim_person and dim_role.
func (p *Pipeline) buildPrincipals(ctx context.Context, st *StepStats) error {
	recs, err := p.reader.Principals(ctx)
	if err != nil {
		return err
	}
	st.Read = int64(len(recs))

	return db.WithTx(ctx, p.warehouse, func(tx pgx.Tx) error {
		titles, err := keys.Titles(ctx, tx)
		if err != nil {
			return err
		}
		persons, err := keys.Persons(ctx, tx)
		if err != nil {
			return err
		}
		roles, err := keys.Roles(ctx, tx)
		if err != nil {
			return err
		}

		facts, drops := keys.PrincipalFacts(recs, titles, persons, roles)
		st.addDrops(drops)

		n, err := loader.Copy(ctx, tx.Conn().PgConn(), p.batch, warehouse.FactTitlePrincipals,
			warehouse.PrincipalColumns, loader.AsRows(facts))
		st.Loaded = n
		return err
	})
}
