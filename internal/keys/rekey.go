package keys

import (
	"sort"

	"github.com/pgEdge/pgedge-filmwh/internal/source"
	"github.com/pgEdge/pgedge-filmwh/internal/transform"
	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

// Drop reasons reported by the re-keying functions.
const (
	MissTitle    = "title"
	MissDate     = "date"
	MissPerson   = "person"
	MissRole     = "role"
	BadRating    = "rating"
	BadVotes     = "votes"
	BadOrdering  = "ordering"
	NoNaturalKey = "natural_key"
)

// Drops counts source rows that were not loaded, by reason. A row is
// counted once, under the first check it failed.
type Drops map[string]int

// Total returns the number of dropped rows.
func (d Drops) Total() int {
	n := 0
	for _, c := range d {
		n += c
	}
	return n
}

// Reasons returns the reasons with at least one drop, sorted.
func (d Drops) Reasons() []string {
	out := make([]string, 0, len(d))
	for r, c := range d {
		if c > 0 {
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// RatingFacts re-keys rating rows against the title and date dimensions.
// Rows whose title or start year has no surrogate key are dropped, as are
// rows with an unparseable rating or vote count; no fact row ever carries a
// partial key.
func RatingFacts(recs []source.RatingRecord, titles Lookup[string], dates Lookup[int32]) ([]warehouse.RatingRow, Drops) {
	drops := Drops{}
	out := make([]warehouse.RatingRow, 0, len(recs))

	for _, rec := range recs {
		id := transform.Text(rec.Tconst)
		titleKey, ok := titles.Resolve(id.String)
		if !id.Valid || !ok {
			drops[MissTitle]++
			continue
		}

		year := transform.Int(rec.StartYear)
		dateKey, ok := dates.Resolve(year.Int32)
		if !year.Valid || !ok {
			drops[MissDate]++
			continue
		}

		rating, ok := transform.Rating(rec.AverageRating)
		if !ok {
			drops[BadRating]++
			continue
		}

		votes := transform.Int(rec.NumVotes)
		if !votes.Valid {
			drops[BadVotes]++
			continue
		}

		out = append(out, warehouse.RatingRow{
			TitleKey:      titleKey,
			DateKey:       dateKey,
			AverageRating: rating,
			NumVotes:      votes.Int32,
		})
	}
	return out, drops
}

// PrincipalFacts re-keys credit rows against the title, person and role
// dimensions. Rows failing any lookup, or with a non-numeric ordering, are
// dropped.
func PrincipalFacts(
	recs []source.PrincipalRecord,
	titles Lookup[string],
	persons Lookup[string],
	roles Lookup[warehouse.RoleRow],
) ([]warehouse.PrincipalRow, Drops) {
	drops := Drops{}
	out := make([]warehouse.PrincipalRow, 0, len(recs))

	for _, rec := range recs {
		tid := transform.Text(rec.Tconst)
		titleKey, ok := titles.Resolve(tid.String)
		if !tid.Valid || !ok {
			drops[MissTitle]++
			continue
		}

		pid := transform.Text(rec.Nconst)
		personKey, ok := persons.Resolve(pid.String)
		if !pid.Valid || !ok {
			drops[MissPerson]++
			continue
		}

		roleKey, ok := roles.Resolve(RoleKey(
			transform.Text(rec.Category),
			transform.Text(rec.Job),
			transform.Text(rec.Characters),
		))
		if !ok {
			drops[MissRole]++
			continue
		}

		ordering := transform.Int(rec.Ordering)
		if !ordering.Valid {
			drops[BadOrdering]++
			continue
		}

		out = append(out, warehouse.PrincipalRow{
			TitleKey:  titleKey,
			PersonKey: personKey,
			RoleKey:   roleKey,
			Ordering:  ordering.Int32,
		})
	}
	return out, drops
}
