//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-filmwh.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-filmwh/internal/config"
	"github.com/pgEdge/pgedge-filmwh/internal/logging"
	"github.com/pgEdge/pgedge-filmwh/pkg/version"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	sourceDB  string
	dwDB      string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-filmwh",
		Short: "Film and TV star-schema warehouse ETL and reporting",
		Long: `pgedge-filmwh builds a star-schema data warehouse from an IMDb-style
PostgreSQL source schema and runs analytical reports against it.

The ETL is a full reload: the warehouse tables are dropped and recreated,
then the date, person, role and title dimensions are loaded, followed by
the ratings and principals fact tables.

Connection settings come from pgedge-filmwh.yaml, a .env file or the
SOURCE_* and DW_* environment variables.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-filmwh.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&sourceDB, "source-db", "",
		"source database name")
	rootCmd.PersistentFlags().StringVar(&dwDB, "dw-db", "",
		"warehouse database name")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(etlCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(ttestCmd)
	rootCmd.AddCommand(pvalueCmd)
	rootCmd.AddCommand(statusCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	applyGlobalFlags(cfg)

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	return nil
}

func applyGlobalFlags(c *config.Config) {
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}
	if sourceDB != "" {
		c.Source.Database = sourceDB
	}
	if dwDB != "" {
		c.Warehouse.Database = dwDB
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
