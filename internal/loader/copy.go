package loader

import (
	"bufio"
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

// CopyConn is satisfied by *pgconn.PgConn. Use tx.Conn().PgConn() to copy
// inside a transaction.
type CopyConn interface {
	CopyFrom(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error)
}

// copySQL returns the COPY statement for the tab-delimited text format,
// with \N as the null marker.
func copySQL(table string, columns []string) string {
	return fmt.Sprintf("COPY %s (%s) FROM STDIN", table, strings.Join(columns, ", "))
}

// Copy streams rows into table with COPY ... FROM STDIN in text format and
// returns the number of rows copied. Text format lets pgtype.Numeric and
// nullable pgtype values encode without the column OIDs a binary
// pgx.CopyFrom needs.
func Copy(
	ctx context.Context,
	conn CopyConn,
	cfg BatchConfig,
	table string,
	columns []string,
	rows []warehouse.Row,
) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	progress := NewProgressReporter(table, int64(len(rows)), cfg.ProgressInterval)
	pr, pw := io.Pipe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		pw.CloseWithError(encodeRows(pw, columns, rows, progress))
	}()

	tag, err := conn.CopyFrom(ctx, pr, copySQL(table, columns))
	// Unblock the encoder if the server stopped reading early.
	pr.Close()
	<-done

	if err != nil {
		return 0, &LoadError{Table: table, Op: OpCopy, Rows: int(progress.Rows()), Err: err}
	}
	progress.Done()
	return tag.RowsAffected(), nil
}

func encodeRows(w io.Writer, columns []string, rows []warehouse.Row, progress *ProgressReporter) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	var buf []byte
	for _, r := range rows {
		vals := r.Values()
		if len(vals) != len(columns) {
			return fmt.Errorf("row has %d values, want %d", len(vals), len(columns))
		}

		var err error
		buf, err = appendCopyRow(buf[:0], vals)
		if err != nil {
			return err
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
		progress.Update(1)
	}
	return bw.Flush()
}

// appendCopyRow appends one text-format COPY line to buf.
func appendCopyRow(buf []byte, vals []any) ([]byte, error) {
	for i, v := range vals {
		if i > 0 {
			buf = append(buf, '\t')
		}
		var err error
		buf, err = appendCopyValue(buf, v)
		if err != nil {
			return buf, fmt.Errorf("column %d: %w", i+1, err)
		}
	}
	return append(buf, '\n'), nil
}

func appendCopyValue(buf []byte, v any) ([]byte, error) {
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return buf, err
		}
		v = dv
	}

	switch x := v.(type) {
	case nil:
		return append(buf, `\N`...), nil
	case string:
		return appendEscaped(buf, x), nil
	case []byte:
		return appendEscaped(buf, string(x)), nil
	case bool:
		if x {
			return append(buf, 't'), nil
		}
		return append(buf, 'f'), nil
	case int32:
		return strconv.AppendInt(buf, int64(x), 10), nil
	case int64:
		return strconv.AppendInt(buf, x, 10), nil
	case int:
		return strconv.AppendInt(buf, int64(x), 10), nil
	case float64:
		return strconv.AppendFloat(buf, x, 'f', -1, 64), nil
	default:
		return buf, fmt.Errorf("unsupported COPY value type %T", v)
	}
}

// appendEscaped applies the text-format escapes for backslash and the
// delimiter and line characters.
func appendEscaped(buf []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		default:
			buf = append(buf, c)
		}
	}
	return buf
}
