package olap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-filmwh/internal/config"
	"github.com/pgEdge/pgedge-filmwh/internal/db"
	"github.com/pgEdge/pgedge-filmwh/internal/logging"
)

// Open returns a database/sql handle on the warehouse, configured the same
// way as the ETL pools (application_name and search_path).
func Open(ctx context.Context, store config.DBConfig) (*sql.DB, error) {
	poolCfg, err := db.PoolConfig(store)
	if err != nil {
		return nil, err
	}

	handle := stdlib.OpenDB(*poolCfg.ConnConfig)
	handle.SetMaxOpenConns(int(poolCfg.MaxConns))

	if err := handle.PingContext(ctx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to connect to warehouse database: %w", err)
	}
	return handle, nil
}

// Result is a fully read query result.
type Result struct {
	Columns []string
	Rows    [][]any
}

// TTestResult is the output of a t-test query.
type TTestResult struct {
	T  float64
	N1 int64
	N2 int64
}

// ErrEmptySample is returned when a t-test sample has no rows.
var ErrEmptySample = errors.New("one of the samples is empty")

// Runner executes catalogue queries.
type Runner struct {
	db *sql.DB
}

// NewRunner creates a runner over a warehouse handle.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// Run executes q with the given parameter overrides.
func (r *Runner) Run(ctx context.Context, q Query, params map[string]string) (*Result, error) {
	args, err := q.Args(params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, q.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", q.Name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query %s: failed to scan row: %w", q.Name, err)
		}
		for i, v := range values {
			values[i] = columnValue(types[i].DatabaseTypeName(), v)
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s failed: %w", q.Name, err)
	}

	logging.Debug().
		Str("query", q.Name).
		Int("rows", len(res.Rows)).
		Dur("duration", time.Since(start)).
		Msg("Query complete")

	return res, nil
}

// columnValue normalizes a scanned value. NUMERIC arrives as text and is
// parsed into a decimal.Decimal.
func columnValue(dbType string, v any) any {
	var s string
	switch x := v.(type) {
	case []byte:
		s = string(x)
	case string:
		s = x
	default:
		return v
	}
	if dbType == "NUMERIC" {
		if d, err := decimal.NewFromString(s); err == nil {
			return d
		}
	}
	return s
}

// TTest computes the statistic for tt. A sample with no rows yields
// ErrEmptySample; a sample too small for a variance yields an error too.
func (r *Runner) TTest(ctx context.Context, tt TTest) (TTestResult, error) {
	var (
		t      sql.NullFloat64
		n1, n2 int64
	)
	err := r.db.QueryRowContext(ctx, tt.SQL).Scan(&t, &n1, &n2)
	if errors.Is(err, sql.ErrNoRows) {
		return TTestResult{}, fmt.Errorf("t-test %s: %w", tt.Name, ErrEmptySample)
	}
	if err != nil {
		return TTestResult{}, fmt.Errorf("t-test %s failed: %w", tt.Name, err)
	}
	if !t.Valid {
		return TTestResult{}, fmt.Errorf("t-test %s: statistic is undefined (n1=%d, n2=%d)", tt.Name, n1, n2)
	}
	return TTestResult{T: t.Float64, N1: n1, N2: n2}, nil
}
