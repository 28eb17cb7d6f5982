package warehouse

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Column lists per table, in the order Values() emits them. Surrogate keys
// generated by the warehouse are omitted from dimension inserts.
var (
	DateColumns      = []string{"date_key", "year", "decade", "century"}
	PersonColumns    = []string{"nconstid", "primary_name", "birth_year", "death_year", "profession_1", "profession_2", "profession_3"}
	RoleColumns      = []string{"category", "job", "character_name"}
	TitleColumns     = []string{"tconstid", "title_type", "parent_tconst", "primary_title", "original_title", "title_language", "is_adult", "start_year", "end_year", "episode_number", "season_number", "genre_1", "genre_2", "genre_3"}
	RatingColumns    = []string{"title_key", "date_key", "average_rating", "num_votes"}
	PrincipalColumns = []string{"title_key", "person_key", "role_key", "principal_ordering"}
	RoleConflictKey  = []string{"category", "job", "character_name"}
)

// Row is implemented by every warehouse row type.
type Row interface {
	Values() []any
}

// DateRow is a dim_date row.
type DateRow struct {
	DateKey int32
	Year    int32
	Decade  int32
	Century int32
}

// Values returns the row in DateColumns order.
func (r DateRow) Values() []any {
	return []any{r.DateKey, r.Year, r.Decade, r.Century}
}

// PersonRow is a dim_person row without its surrogate key.
type PersonRow struct {
	NconstID    string
	PrimaryName pgtype.Text
	BirthYear   pgtype.Int4
	DeathYear   pgtype.Int4
	Professions [3]pgtype.Text
}

// Values returns the row in PersonColumns order.
func (r PersonRow) Values() []any {
	return []any{
		r.NconstID, r.PrimaryName, r.BirthYear, r.DeathYear,
		r.Professions[0], r.Professions[1], r.Professions[2],
	}
}

// RoleRow is a dim_role row without its surrogate key. It is comparable and
// doubles as the composite lookup key for principals.
type RoleRow struct {
	Category      pgtype.Text
	Job           pgtype.Text
	CharacterName pgtype.Text
}

// Values returns the row in RoleColumns order.
func (r RoleRow) Values() []any {
	return []any{r.Category, r.Job, r.CharacterName}
}

// TitleRow is a dim_title row without its surrogate key.
type TitleRow struct {
	TconstID string

	TitleType pgtype.Text

	// ParentTconst is the parent series' natural key. It is not resolved at
	// load time; queries join it back to dim_title.tconstid.
	ParentTconst pgtype.Text

	PrimaryTitle  pgtype.Text
	OriginalTitle pgtype.Text
	Language      pgtype.Text
	IsAdult       bool
	StartYear     pgtype.Int4
	EndYear       pgtype.Int4
	EpisodeNumber pgtype.Int4
	SeasonNumber  pgtype.Int4
	Genres        [3]pgtype.Text
}

// Values returns the row in TitleColumns order.
func (r TitleRow) Values() []any {
	return []any{
		r.TconstID, r.TitleType, r.ParentTconst, r.PrimaryTitle, r.OriginalTitle,
		r.Language, r.IsAdult, r.StartYear, r.EndYear, r.EpisodeNumber,
		r.SeasonNumber, r.Genres[0], r.Genres[1], r.Genres[2],
	}
}

// RatingRow is a fact_title_ratings row.
type RatingRow struct {
	TitleKey      int32
	DateKey       int32
	AverageRating pgtype.Numeric
	NumVotes      int32
}

// Values returns the row in RatingColumns order.
func (r RatingRow) Values() []any {
	return []any{r.TitleKey, r.DateKey, r.AverageRating, r.NumVotes}
}

// PrincipalRow is a fact_title_principals row.
type PrincipalRow struct {
	TitleKey  int32
	PersonKey int32
	RoleKey   int32
	Ordering  int32
}

// Values returns the row in PrincipalColumns order.
func (r PrincipalRow) Values() []any {
	return []any{r.TitleKey, r.PersonKey, r.RoleKey, r.Ordering}
}
