package transform

import (
	"slices"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pgEdge/pgedge-filmwh/internal/source"
	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

// Decade returns floor(year/10)*10.
func Decade(year int) int {
	return floorDiv(year, 10) * 10
}

// Century returns floor(year/100)*100.
func Century(year int) int {
	return floorDiv(year, 100) * 100
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// DateRange materializes one dim_date row for every year between the
// smallest and largest valid start year, inclusive, including years no
// title started in. Invalid values are ignored; no valid values yields nil.
func DateRange(startYears []pgtype.Text) []warehouse.DateRow {
	years := make([]int, 0, len(startYears))
	for _, s := range startYears {
		if y := Int(s); y.Valid {
			years = append(years, int(y.Int32))
		}
	}
	if len(years) == 0 {
		return nil
	}

	lo, hi := slices.Min(years), slices.Max(years)
	rows := make([]warehouse.DateRow, 0, hi-lo+1)
	for y := lo; y <= hi; y++ {
		rows = append(rows, warehouse.DateRow{
			DateKey: int32(y),
			Year:    int32(y),
			Decade:  int32(Decade(y)),
			Century: int32(Century(y)),
		})
	}
	return rows
}

// Person maps a name_basics_import row to dim_person. ok is false when the
// row has no natural key.
func Person(rec source.PersonRecord) (row warehouse.PersonRow, ok bool) {
	id := Text(rec.Nconst)
	if !id.Valid {
		return row, false
	}
	return warehouse.PersonRow{
		NconstID:    id.String,
		PrimaryName: Text(rec.PrimaryName),
		BirthYear:   Int(rec.BirthYear),
		DeathYear:   Int(rec.DeathYear),
		Professions: Split(rec.PrimaryProfession),
	}, true
}

// Role maps a principals triple to dim_role.
func Role(rec source.RoleRecord) warehouse.RoleRow {
	return warehouse.RoleRow{
		Category:      Text(rec.Category),
		Job:           Text(rec.Job),
		CharacterName: Text(rec.Characters),
	}
}

// Title maps a joined title row to dim_title. ok is false when the row has
// no natural key.
func Title(rec source.TitleRecord) (row warehouse.TitleRow, ok bool) {
	id := Text(rec.Tconst)
	if !id.Valid {
		return row, false
	}
	return warehouse.TitleRow{
		TconstID:      id.String,
		TitleType:     Text(rec.TitleType),
		ParentTconst:  Text(rec.ParentTconst),
		PrimaryTitle:  Text(rec.PrimaryTitle),
		OriginalTitle: Text(rec.OriginalTitle),
		Language:      Text(rec.Language),
		IsAdult:       Bool(rec.IsAdult),
		StartYear:     Int(rec.StartYear),
		EndYear:       Int(rec.EndYear),
		EpisodeNumber: Int(rec.EpisodeNumber),
		SeasonNumber:  Int(rec.SeasonNumber),
		Genres:        Split(rec.Genres),
	}, true
}

// UniqueRoles normalizes role triples and removes the duplicates that
// normalization creates (e.g. `\N` and NULL collapsing to the same value).
// Order of first appearance is kept.
func UniqueRoles(recs []source.RoleRecord) []warehouse.RoleRow {
	seen := make(map[warehouse.RoleRow]struct{}, len(recs))
	out := make([]warehouse.RoleRow, 0, len(recs))
	for _, rec := range recs {
		r := Role(rec)
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
