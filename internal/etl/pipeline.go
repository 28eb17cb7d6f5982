//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package etl runs the full-reload pipeline that builds the star schema
// from the source schema.
package etl

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-filmwh/internal/db"
	"github.com/pgEdge/pgedge-filmwh/internal/keys"
	"github.com/pgEdge/pgedge-filmwh/internal/loader"
	"github.com/pgEdge/pgedge-filmwh/internal/logging"
	"github.com/pgEdge/pgedge-filmwh/internal/source"
	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

// StepSchema is the name of the schema rebuild step. The other steps are
// named after the table they load.
const StepSchema = "schema"

// Steps lists every pipeline step in execution order.
var Steps = append([]string{StepSchema}, warehouse.Tables...)

// Options configures a pipeline run.
type Options struct {
	Batch loader.BatchConfig

	// SkipSchema keeps the existing warehouse tables instead of dropping
	// and recreating them.
	SkipSchema bool

	// Steps restricts the run to the named steps. Empty means all steps.
	Steps []string
}

// ParseSteps splits a comma-separated step list and checks every name.
func ParseSteps(list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var out []string
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if !slices.Contains(Steps, s) {
			return nil, fmt.Errorf("unknown step %q (valid: %s)", s, strings.Join(Steps, ", "))
		}
		out = append(out, s)
	}
	return out, nil
}

type step struct {
	name string
	run  func(ctx context.Context, st *StepStats) error
}

// Pipeline builds the warehouse from the source schema. Steps run strictly
// in order, each in its own warehouse transaction, so a later step only
// sees keys committed by earlier ones.
type Pipeline struct {
	reader    *source.Reader
	warehouse *pgxpool.Pool
	batch     loader.BatchConfig
	opts      Options
}

// NewPipeline creates a pipeline reading from src and loading into dw.
func NewPipeline(src db.Querier, dw *pgxpool.Pool, opts Options) *Pipeline {
	return &Pipeline{
		reader:    source.NewReader(src),
		warehouse: dw,
		batch:     opts.Batch,
		opts:      opts,
	}
}

func (p *Pipeline) steps() []step {
	all := []step{
		{StepSchema, p.buildSchema},
		{warehouse.DimDate, p.buildDates},
		{warehouse.DimPerson, p.buildPersons},
		{warehouse.DimRole, p.buildRoles},
		{warehouse.DimTitle, p.buildTitles},
		{warehouse.FactTitleRatings, p.buildRatings},
		{warehouse.FactTitlePrincipals, p.buildPrincipals},
	}

	out := all[:0:0]
	for _, s := range all {
		if s.name == StepSchema && p.opts.SkipSchema {
			continue
		}
		if len(p.opts.Steps) > 0 && !slices.Contains(p.opts.Steps, s.name) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (p *Pipeline) buildSchema(ctx context.Context, _ *StepStats) error {
	return warehouse.CreateSchema(ctx, p.warehouse)
}

// Run executes the pipeline. The returned summary covers every step that
// started, including a failed one. On success the run is recorded in the
// warehouse metadata table.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logging.WithRun(sum.RunID)

	logging.Info().
		Bool("skip_schema", p.opts.SkipSchema).
		Strs("steps", p.opts.Steps).
		Msg("Starting ETL run")

	for _, s := range p.steps() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		st := StepStats{Step: s.name, Drops: keys.Drops{}}
		logging.Info().Str("step", s.name).Msg("Starting step")

		start := time.Now()
		err := s.run(ctx, &st)
		st.Duration = time.Since(start)
		sum.Steps = append(sum.Steps, st)

		if err != nil {
			logging.Error().
				Err(err).
				Str("step", s.name).
				Int64("rows_read", st.Read).
				Msg("Step failed")
			return sum, fmt.Errorf("step %s failed: %w", s.name, err)
		}
		st.log()
	}

	sum.FinishedAt = time.Now()

	counts, err := warehouse.CountRows(ctx, p.warehouse)
	if err != nil {
		return sum, err
	}
	sum.RowCounts = counts

	if err := db.SaveMetadata(ctx, p.warehouse, db.RunInfo{
		RunID:      sum.RunID,
		StartedAt:  sum.StartedAt,
		FinishedAt: sum.FinishedAt,
		RowCounts:  counts,
	}); err != nil {
		return sum, err
	}

	sum.Log()
	return sum, nil
}
