package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-filmwh/internal/db"
	"github.com/pgEdge/pgedge-filmwh/internal/etl"
	"github.com/pgEdge/pgedge-filmwh/internal/loader"
	"github.com/pgEdge/pgedge-filmwh/internal/logging"
)

var (
	etlBatchSize        int
	etlProgressInterval int64
	etlSkipSchema       bool
	etlSteps            string
	etlNoSummary        bool
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Rebuild the warehouse from the source schema",
	Long: `Run the full-reload ETL. The warehouse tables are dropped and recreated,
then every dimension and fact table is loaded from the source schema in a
fixed order. Each table is loaded in its own transaction.

Use --steps to run a subset of the pipeline against an already loaded
warehouse, together with --skip-schema.

Example:
  pgedge-filmwh etl
  pgedge-filmwh etl --batch-size 5000
  pgedge-filmwh etl --skip-schema --steps dim_role`,
	RunE: runETL,
}

func init() {
	etlCmd.Flags().IntVar(&etlBatchSize, "batch-size", 0,
		"rows per multi-row INSERT (default: 1000)")
	etlCmd.Flags().Int64Var(&etlProgressInterval, "progress-interval", 0,
		"log load progress every N rows (default: 100000)")
	etlCmd.Flags().BoolVar(&etlSkipSchema, "skip-schema", false,
		"keep the existing warehouse tables instead of recreating them")
	etlCmd.Flags().StringVar(&etlSteps, "steps", "",
		"comma-separated steps to run (schema, dim_date, dim_person, dim_role, dim_title, fact_title_ratings, fact_title_principals)")
	etlCmd.Flags().BoolVar(&etlNoSummary, "no-summary", false,
		"do not print the run summary table")
}

func runETL(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if etlBatchSize > 0 {
		cfg.ETL.BatchSize = etlBatchSize
	}
	if etlProgressInterval > 0 {
		cfg.ETL.ProgressInterval = etlProgressInterval
	}
	if etlSkipSchema {
		cfg.ETL.SkipSchema = true
	}

	// Validate configuration
	if err := cfg.ValidateETL(); err != nil {
		return err
	}
	steps, err := etl.ParseSteps(etlSteps)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	source, warehouse, err := db.ConnectBoth(ctx, cfg)
	if err != nil {
		return err
	}
	defer source.Close()
	defer warehouse.Close()

	pipeline := etl.NewPipeline(source, warehouse, etl.Options{
		Batch: loader.BatchConfig{
			BatchSize:        cfg.ETL.BatchSize,
			ProgressInterval: cfg.ETL.ProgressInterval,
		},
		SkipSchema: cfg.ETL.SkipSchema,
		Steps:      steps,
	})

	summary, err := pipeline.Run(ctx)
	if summary != nil && !etlNoSummary {
		summary.Render(cmd.OutOrStdout())
	}
	if err != nil {
		var loadErr *loader.LoadError
		if errors.As(err, &loadErr) {
			logging.Error().
				Str("table", loadErr.Table).
				Str("op", loadErr.Op).
				Int("rows", loadErr.Rows).
				Msg("Warehouse load rolled back")
		}
		if ctx.Err() != nil {
			return fmt.Errorf("ETL run interrupted: %w", err)
		}
		return err
	}

	logging.Info().Msg("ETL run completed")
	return nil
}
