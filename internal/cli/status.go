package cli

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-filmwh/internal/db"
	"github.com/pgEdge/pgedge-filmwh/internal/etl"
	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show warehouse row counts and the last ETL run",
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

		counts, err := warehouse.CountRows(ctx, pool)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		etl.RenderCounts(out, counts)

		exists, err := db.MetadataExists(ctx, pool)
		if err != nil {
			return err
		}
		if !exists {
			cmd.Println("No ETL run recorded.")
			return nil
		}
		entries, err := db.GetAllMetadata(ctx, pool)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.SetTitle("Last ETL run")
		t.AppendHeader(table.Row{"Key", "Value"})
		for _, e := range entries {
			t.AppendRow(table.Row{e.Key, e.Value})
		}
		t.Render()
		return nil
	},
}
