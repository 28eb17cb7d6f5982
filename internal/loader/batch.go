// Package loader writes transformed rows into warehouse tables.
package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pgEdge/pgedge-filmwh/internal/logging"
	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

// maxParams is the PostgreSQL limit on bind parameters per statement.
const maxParams = 65535

// Execer is satisfied by pgx.Tx, *pgx.Conn and *pgxpool.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// BatchConfig configures batch load behavior.
type BatchConfig struct {
	// BatchSize is the number of rows per INSERT statement.
	BatchSize int

	// ProgressInterval is how often to log progress (in rows).
	ProgressInterval int64
}

// DefaultBatchConfig returns default batch configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		BatchSize:        1000,
		ProgressInterval: 100000,
	}
}

// rowsPerStatement caps the batch size so a statement never exceeds
// maxParams bind parameters.
func (c BatchConfig) rowsPerStatement(columns int) int {
	n := c.BatchSize
	if n <= 0 {
		n = DefaultBatchConfig().BatchSize
	}
	if columns > 0 && n*columns > maxParams {
		n = maxParams / columns
	}
	return n
}

// AsRows converts a slice of concrete row values to warehouse.Row.
func AsRows[T warehouse.Row](in []T) []warehouse.Row {
	out := make([]warehouse.Row, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}

// insertSQL builds a parameterized multi-row INSERT for n rows. A non-empty
// conflict key adds ON CONFLICT (...) DO NOTHING.
func insertSQL(table string, columns []string, n int, conflict []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	p := 1
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", p)
			p++
		}
		sb.WriteByte(')')
	}

	if len(conflict) > 0 {
		fmt.Fprintf(&sb, " ON CONFLICT (%s) DO NOTHING", strings.Join(conflict, ", "))
	}
	return sb.String()
}

// BatchInsert inserts rows into table using multi-row INSERT statements
// and returns the number of rows the server reported as inserted. Rows
// skipped by ON CONFLICT are not counted.
func BatchInsert(
	ctx context.Context,
	ex Execer,
	cfg BatchConfig,
	table string,
	columns []string,
	rows []warehouse.Row,
	conflict []string,
) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	size := cfg.rowsPerStatement(len(columns))
	progress := NewProgressReporter(table, int64(len(rows)), cfg.ProgressInterval)

	var inserted int64
	for start := 0; start < len(rows); start += size {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		end := min(start+size, len(rows))
		chunk := rows[start:end]

		args := make([]any, 0, len(chunk)*len(columns))
		for _, r := range chunk {
			vals := r.Values()
			if len(vals) != len(columns) {
				return inserted, &LoadError{
					Table: table,
					Op:    OpInsert,
					Rows:  start,
					Err:   fmt.Errorf("row has %d values, want %d", len(vals), len(columns)),
				}
			}
			args = append(args, vals...)
		}

		tag, err := ex.Exec(ctx, insertSQL(table, columns, len(chunk), conflict), args...)
		if err != nil {
			return inserted, &LoadError{Table: table, Op: OpInsert, Rows: start, Err: err}
		}
		inserted += tag.RowsAffected()
		progress.Update(int64(len(chunk)))
	}

	progress.Done()
	return inserted, nil
}

// ProgressReporter tracks and reports load progress.
type ProgressReporter struct {
	tableName        string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(tableName string, totalRows int64, interval int64) *ProgressReporter {
	if interval <= 0 {
		interval = DefaultBatchConfig().ProgressInterval
	}
	return &ProgressReporter{
		tableName:        tableName,
		totalRows:        totalRows,
		progressInterval: interval,
	}
}

// Update records rows written and logs when a progress interval is crossed.
func (p *ProgressReporter) Update(rows int64) {
	oldRow := p.currentRow
	p.currentRow += rows

	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := 100.0
		if p.totalRows > 0 {
			pct = float64(p.currentRow) / float64(p.totalRows) * 100
		}
		logging.Info().
			Str("table", p.tableName).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Loading data")
	}
}

// Rows returns the number of rows recorded so far.
func (p *ProgressReporter) Rows() int64 {
	return p.currentRow
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Debug().
		Str("table", p.tableName).
		Int64("rows", p.currentRow).
		Msg("Table load complete")
}
