package loader

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Load operations.
const (
	OpInsert = "insert"
	OpCopy   = "copy"
)

// LoadError reports a failed write to a warehouse table. Rows is the number
// of rows handed to the server before the failing statement.
type LoadError struct {
	Table string
	Op    string
	Rows  int
	Err   error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("failed to %s into %s after %d rows: %v", e.Op, e.Table, e.Rows, e.Err)

	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		if pgErr.Detail != "" {
			msg += " (detail: " + pgErr.Detail + ")"
		}
		if pgErr.ConstraintName != "" {
			msg += " (constraint: " + pgErr.ConstraintName + ")"
		}
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
