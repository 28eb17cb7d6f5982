// Package db provides database connection management for pgedge-filmwh.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-filmwh/internal/config"
	"github.com/pgEdge/pgedge-filmwh/internal/logging"
	"github.com/pgEdge/pgedge-filmwh/pkg/version"
)

// Querier is satisfied by *pgxpool.Pool, *pgxpool.Conn, *pgx.Conn and pgx.Tx.
// Readers and key lookups accept it so they can run inside or outside a
// transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DefaultPoolConfig returns default connection pool configuration.
// The ETL is sequential, so the pool stays small.
func DefaultPoolConfig() *pgxpool.Config {
	config, _ := pgxpool.ParseConfig("")

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	return config
}

// PoolConfig builds a pgxpool configuration for one store. The store's schema
// becomes the session search_path on every connection.
func PoolConfig(store config.DBConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(store.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	defaults := DefaultPoolConfig()
	poolCfg.MaxConns = defaults.MaxConns
	if store.MaxConns > 0 {
		poolCfg.MaxConns = store.MaxConns
	}
	poolCfg.MinConns = min(defaults.MinConns, poolCfg.MaxConns)
	poolCfg.MaxConnLifetime = defaults.MaxConnLifetime
	poolCfg.MaxConnIdleTime = defaults.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = defaults.HealthCheckPeriod

	params := poolCfg.ConnConfig.RuntimeParams
	params["application_name"] = version.ApplicationName()
	if store.Schema != "" {
		params["search_path"] = store.Schema
	}

	return poolCfg, nil
}

// Connect establishes a connection pool to the given store. name is used only
// for log and error messages ("source", "warehouse").
func Connect(ctx context.Context, name string, store config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := PoolConfig(store)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	logging.Debug().
		Str("store", name).
		Str("host", poolCfg.ConnConfig.Host).
		Uint16("port", poolCfg.ConnConfig.Port).
		Str("database", poolCfg.ConnConfig.Database).
		Str("schema", store.Schema).
		Int32("max_conns", poolCfg.MaxConns).
		Msg("Connecting to database")

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s connection pool: %w", name, err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", name, err)
	}

	logging.Info().
		Str("store", name).
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Msg("Connected to database")

	return pool, nil
}

// ConnectBoth opens the source and warehouse pools. On failure any pool
// already opened is closed before returning.
func ConnectBoth(ctx context.Context, cfg *config.Config) (source, warehouse *pgxpool.Pool, err error) {
	source, err = Connect(ctx, "source", cfg.Source)
	if err != nil {
		return nil, nil, err
	}
	warehouse, err = Connect(ctx, "warehouse", cfg.Warehouse)
	if err != nil {
		source.Close()
		return nil, nil, err
	}
	return source, warehouse, nil
}

// WithTx runs fn inside a transaction on a dedicated pooled connection.
// The transaction is committed when fn returns nil and rolled back otherwise;
// the connection is released on every path.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
