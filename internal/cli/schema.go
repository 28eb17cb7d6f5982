package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-filmwh/internal/datagen"
	"github.com/pgEdge/pgedge-filmwh/internal/db"
	"github.com/pgEdge/pgedge-filmwh/internal/logging"
	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

var (
	schemaDropSource bool
	schemaKeepMeta   bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create or drop the warehouse tables",
}

var schemaCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Drop and recreate the empty warehouse tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateWarehouse(); err != nil {
			return err
		}
		ctx := context.Background()
		pool, err := db.Connect(ctx, "warehouse", cfg.Warehouse)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := warehouse.CreateSchema(ctx, pool); err != nil {
			return err
		}
		logging.Info().Msg("Warehouse schema created")
		return nil
	},
}

var schemaDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the warehouse tables and run metadata",
	Long: `Drop every warehouse table and the etl_metadata table. With --source the
generated source tables are dropped as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateWarehouse(); err != nil {
			return err
		}
		ctx := context.Background()
		pool, err := db.Connect(ctx, "warehouse", cfg.Warehouse)
		if err != nil {
			return err
		}
		defer pool.Close()

		logging.Info().Msg("Dropping warehouse schema")
		if err := warehouse.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop warehouse schema: %w", err)
		}
		if !schemaKeepMeta {
			if err := db.DropMetadata(ctx, pool); err != nil {
				logging.Debug().Err(err).Msg("No metadata table to drop")
			}
		}

		if !schemaDropSource {
			return nil
		}
		if err := cfg.ValidateSeed(); err != nil {
			return err
		}
		src, err := db.Connect(ctx, "source", cfg.Source)
		if err != nil {
			return err
		}
		defer src.Close()

		logging.Info().Msg("Dropping source schema")
		if err := datagen.DropSourceSchema(ctx, src); err != nil {
			return fmt.Errorf("failed to drop source schema: %w", err)
		}
		return nil
	},
}

func init() {
	schemaDropCmd.Flags().BoolVar(&schemaDropSource, "source", false,
		"also drop the source tables")
	schemaDropCmd.Flags().BoolVar(&schemaKeepMeta, "keep-metadata", false,
		"keep the etl_metadata table")

	schemaCmd.AddCommand(schemaCreateCmd)
	schemaCmd.AddCommand(schemaDropCmd)
}
