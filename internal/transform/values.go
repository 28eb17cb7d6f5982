//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package transform turns raw source text into typed warehouse values.
//
// The source marks missing values with the literal `\N`. Every helper here
// maps both SQL NULL and `\N` to an invalid pgtype value, so nothing past
// this package ever compares against the sentinel string.
package transform

import (
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// NullSentinel is the source's in-band marker for a missing value.
const NullSentinel = `\N`

// MaxSlots is the number of genre/profession columns in the warehouse.
// Values beyond the third are dropped.
const MaxSlots = 3

// Text returns s with the sentinel normalized to NULL.
func Text(s pgtype.Text) pgtype.Text {
	if !s.Valid || s.String == NullSentinel {
		return pgtype.Text{}
	}
	return s
}

// Int parses s as an integer. NULL, the sentinel and anything non-numeric
// become NULL. Integral decimals such as "2019.0" are accepted.
func Int(s pgtype.Text) pgtype.Int4 {
	s = Text(s)
	if !s.Valid {
		return pgtype.Int4{}
	}
	v := strings.TrimSpace(s.String)
	if n, err := strconv.ParseInt(v, 10, 32); err == nil {
		return pgtype.Int4{Int32: int32(n), Valid: true}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(f), Valid: true}
}

// Bool coerces the source's string flag: "1" is true, anything else,
// including NULL and the sentinel, is false.
func Bool(s pgtype.Text) bool {
	return s.Valid && s.String == "1"
}

// Split splits a comma-separated multi-value field into MaxSlots ordered
// slots. Missing slots are NULL; values beyond MaxSlots are dropped.
func Split(s pgtype.Text) [MaxSlots]pgtype.Text {
	var slots [MaxSlots]pgtype.Text
	s = Text(s)
	if !s.Valid {
		return slots
	}
	for i, part := range strings.SplitN(s.String, ",", MaxSlots+1) {
		if i == MaxSlots {
			break
		}
		part = strings.TrimSpace(part)
		slots[i] = Text(pgtype.Text{String: part, Valid: part != ""})
	}
	return slots
}

// Rating parses an average rating into a NUMERIC(3,1) value.
func Rating(s pgtype.Text) (pgtype.Numeric, bool) {
	s = Text(s)
	if !s.Valid {
		return pgtype.Numeric{}, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s.String))
	if err != nil {
		return pgtype.Numeric{}, false
	}
	d = d.Round(1)
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return pgtype.Numeric{}, false
	}
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}, true
}
