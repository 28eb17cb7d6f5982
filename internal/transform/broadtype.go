package transform

import (
	"fmt"
	"sort"
	"strings"
)

// Broad title categories used for roll-ups over title_type.
const (
	BroadTelevision = "Television"
	BroadFilm       = "Film"
	BroadOther      = "Other"
)

var broadTypes = map[string]string{
	"tvEpisode":    BroadTelevision,
	"tvMiniSeries": BroadTelevision,
	"tvMovie":      BroadTelevision,
	"tvPilot":      BroadTelevision,
	"tvSeries":     BroadTelevision,
	"tvShort":      BroadTelevision,
	"tvSpecial":    BroadTelevision,
	"movie":        BroadFilm,
	"short":        BroadFilm,
	"video":        BroadFilm,
}

// BroadType generalizes a title_type into Television, Film or Other.
func BroadType(titleType string) string {
	if b, ok := broadTypes[titleType]; ok {
		return b
	}
	return BroadOther
}

// BroadTypeSQL renders BroadType as a SQL CASE expression over column, so
// queries and Go code share one mapping.
func BroadTypeSQL(column string) string {
	groups := map[string][]string{}
	for t, b := range broadTypes {
		groups[b] = append(groups[b], "'"+t+"'")
	}

	var sb strings.Builder
	sb.WriteString("CASE")
	for _, b := range []string{BroadTelevision, BroadFilm} {
		types := groups[b]
		sort.Strings(types)
		fmt.Fprintf(&sb, " WHEN %s IN (%s) THEN '%s'", column, strings.Join(types, ", "), b)
	}
	fmt.Fprintf(&sb, " ELSE '%s' END", BroadOther)
	return sb.String()
}
