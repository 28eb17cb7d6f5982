//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-filmwh/internal/logging"
	"github.com/pgEdge/pgedge-filmwh/pkg/version"
)

const metadataTable = "etl_metadata"

// createMetadataTableSQL creates the metadata table if it doesn't exist.
// It is not part of the star schema and survives warehouse rebuilds.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS etl_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// RunInfo describes a completed ETL run.
type RunInfo struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// RowCounts holds rows loaded per warehouse table.
	RowCounts map[string]int64
}

// SaveMetadata records a completed run in the warehouse. Keys from a
// previous run are overwritten.
func SaveMetadata(ctx context.Context, q Querier, run RunInfo) error {
	if _, err := q.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"run_id":      run.RunID,
		"version":     version.Short(),
		"started_at":  run.StartedAt.UTC().Format(time.RFC3339),
		"finished_at": run.FinishedAt.UTC().Format(time.RFC3339),
	}
	for table, rows := range run.RowCounts {
		metadata["rows."+table] = strconv.FormatInt(rows, 10)
	}

	batch := &pgx.Batch{}
	for key, value := range metadata {
		batch.Queue(`
            INSERT INTO etl_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
	}
	if err := sendBatch(ctx, q, batch); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Debug().
		Str("run_id", run.RunID).
		Int("keys", len(metadata)).
		Msg("Saved metadata")

	return nil
}

// batchSender is implemented by pools, connections and transactions.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func sendBatch(ctx context.Context, q Querier, batch *pgx.Batch) error {
	if bs, ok := q.(batchSender); ok {
		return bs.SendBatch(ctx, batch).Close()
	}
	for _, qq := range batch.QueuedQueries {
		if _, err := q.Exec(ctx, qq.SQL, qq.Arguments...); err != nil {
			return err
		}
	}
	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, q Querier, key string) (string, error) {
	var value string
	err := q.QueryRow(ctx, `
        SELECT value FROM etl_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// MetadataEntry is a single key/value pair.
type MetadataEntry struct {
	Key   string
	Value string
}

// GetAllMetadata retrieves all metadata sorted by key.
func GetAllMetadata(ctx context.Context, q Querier) ([]MetadataEntry, error) {
	rows, err := q.Query(ctx, `SELECT key, value FROM etl_metadata`)
	if err != nil {
		return nil, err
	}
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[MetadataEntry])
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}

// MetadataExists checks if the metadata table exists in the session's
// search_path.
func MetadataExists(ctx context.Context, q Querier) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, metadataTable).Scan(&exists)
	return exists, err
}
