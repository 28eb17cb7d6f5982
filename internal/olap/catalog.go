package olap

import (
	"fmt"

	"github.com/pgEdge/pgedge-filmwh/internal/transform"
)

var (
	minVotes  = Param{Name: "min_votes", Kind: Int, Default: "5000", Description: "only titles with more votes than this"}
	minTitles = Param{Name: "min_titles", Kind: Int, Default: "5", Description: "minimum distinct titles per person"}
	role      = Param{Name: "role", Kind: String, Default: "director", Description: "credit category, e.g. director or actor"}
)

// broadTypeCTE tags every title with its broad type.
var broadTypeCTE = fmt.Sprintf(`
WITH rollup_hierarchy AS (
    SELECT title_key, title_type, %s AS broad_type
    FROM dim_title
)`, transform.BroadTypeSQL("title_type"))

func init() {
	Register(Query{
		Name:        "top_rated",
		Description: "Highest rated titles of one type that started in a given year",
		Params: []Param{
			minVotes,
			{Name: "year", Kind: Int, Default: "2019", Description: "start year"},
			{Name: "title_type", Kind: String, Default: "movie", Description: "title type, e.g. movie or tvSeries"},
		},
		SQL: `
SELECT dt.primary_title, ftr.average_rating, ftr.num_votes
FROM fact_title_ratings AS ftr
JOIN dim_title AS dt ON ftr.title_key = dt.title_key
JOIN dim_date AS dd ON ftr.date_key = dd.date_key
WHERE ftr.num_votes > $1
  AND dt.start_year = $2
  AND dt.title_type = $3
ORDER BY ftr.average_rating DESC`,
	})

	Register(Query{
		Name:        "type_rollup",
		Description: "Title counts rolled up from title type to broad type",
		SQL: broadTypeCTE + `
SELECT broad_type, title_type, COUNT(*) AS number_of_titles
FROM rollup_hierarchy
GROUP BY ROLLUP (broad_type, title_type)
ORDER BY broad_type, title_type`,
	})

	Register(Query{
		Name:        "broad_type_ratings",
		Description: "Average rating of television versus film",
		Params:      []Param{minVotes},
		SQL: broadTypeCTE + `
SELECT ruh.broad_type,
       COUNT(*) AS number_of_titles,
       ROUND(AVG(ftr.average_rating), 2) AS overall_average_rating
FROM fact_title_ratings AS ftr
JOIN rollup_hierarchy AS ruh ON ruh.title_key = ftr.title_key
WHERE ruh.broad_type IN ('Television', 'Film')
  AND ftr.num_votes > $1
GROUP BY ruh.broad_type
ORDER BY overall_average_rating DESC`,
	})

	Register(Query{
		Name:        "prolific_people",
		Description: "People credited on the most rated titles",
		Params:      []Param{minVotes, minTitles},
		SQL: `
SELECT dp.primary_name,
       COUNT(DISTINCT dt.title_key) AS number_of_titles,
       ROUND(AVG(ftr.average_rating), 2) AS average_ratings_of_titles
FROM fact_title_principals AS ftp
JOIN dim_person AS dp ON ftp.person_key = dp.person_key
JOIN dim_title AS dt ON ftp.title_key = dt.title_key
JOIN fact_title_ratings AS ftr ON ftp.title_key = ftr.title_key
WHERE ftr.num_votes > $1
GROUP BY dp.primary_name
HAVING COUNT(DISTINCT dt.title_key) >= $2
ORDER BY number_of_titles DESC, average_ratings_of_titles DESC`,
	})

	Register(Query{
		Name:        "prolific_by_role",
		Description: "People credited on the most rated titles in one role",
		Params:      []Param{minVotes, role, minTitles},
		SQL: `
SELECT dp.primary_name,
       COUNT(DISTINCT dt.title_key) AS number_of_titles,
       ROUND(AVG(ftr.average_rating), 2) AS average_ratings_of_titles
FROM fact_title_principals AS ftp
JOIN dim_person AS dp ON ftp.person_key = dp.person_key
JOIN dim_title AS dt ON ftp.title_key = dt.title_key
JOIN fact_title_ratings AS ftr ON ftp.title_key = ftr.title_key
JOIN dim_role AS dr ON ftp.role_key = dr.role_key
WHERE ftr.num_votes > $1
  AND dr.category = $2
GROUP BY dp.primary_name
HAVING COUNT(DISTINCT dt.title_key) >= $3
ORDER BY number_of_titles DESC, average_ratings_of_titles DESC`,
	})

	Register(Query{
		Name:        "person_filmography",
		Description: "Rated titles of one person in one role",
		Params: []Param{
			role,
			{Name: "name", Kind: String, Default: "Hayao Miyazaki", Description: "person's primary name"},
		},
		SQL: `
SELECT dt.primary_title, ftr.average_rating, ftr.num_votes
FROM fact_title_principals AS ftp
JOIN dim_person AS dp ON ftp.person_key = dp.person_key
JOIN dim_title AS dt ON ftp.title_key = dt.title_key
JOIN fact_title_ratings AS ftr ON ftp.title_key = ftr.title_key
JOIN dim_role AS dr ON ftp.role_key = dr.role_key
WHERE dr.category = $1
  AND dp.primary_name = $2
ORDER BY ftr.average_rating DESC`,
	})

	Register(Query{
		Name:        "films_by_decade",
		Description: "Movies per decade with a rating inside a band",
		Params: []Param{
			minVotes,
			{Name: "min_rating", Kind: Float, Default: "6.0", Description: "exclusive lower rating bound"},
			{Name: "max_rating", Kind: Float, Default: "10.0", Description: "exclusive upper rating bound"},
		},
		SQL: `
SELECT dd.decade, COUNT(ftr.title_key) AS number_of_films
FROM fact_title_ratings AS ftr
JOIN dim_title AS dt ON ftr.title_key = dt.title_key
JOIN dim_date AS dd ON ftr.date_key = dd.date_key
WHERE dt.title_type = 'movie'
  AND ftr.num_votes > $1
  AND ftr.average_rating > $2
  AND ftr.average_rating < $3
GROUP BY dd.decade
ORDER BY dd.decade`,
	})

	// Episodes reference their series by natural key, so the series is
	// found by joining dim_title to itself on parent_tconst.
	Register(Query{
		Name:        "series_seasons",
		Description: "Episode count and average rating per season of a series",
		Params: []Param{
			{Name: "series", Kind: String, Default: "Steins;Gate", Description: "series primary title"},
		},
		SQL: `
SELECT ep.season_number,
       COUNT(*) AS number_of_episodes,
       ROUND(AVG(ftr.average_rating), 2) AS season_rating
FROM fact_title_ratings AS ftr
JOIN dim_title AS ep ON ftr.title_key = ep.title_key
JOIN dim_title AS sea ON ep.parent_tconst = sea.tconstid
WHERE sea.primary_title = $1
  AND ep.season_number IS NOT NULL
GROUP BY ep.season_number
ORDER BY ep.season_number`,
	})

	Register(Query{
		Name:        "genre_ratings",
		Description: "Rating and votes of every movie by primary genre",
		Params:      []Param{minVotes},
		SQL: `
SELECT dt.genre_1 AS genre, ftr.average_rating AS rating, ftr.num_votes AS votes
FROM fact_title_ratings AS ftr
JOIN dim_title AS dt ON ftr.title_key = dt.title_key
WHERE dt.title_type = 'movie'
  AND ftr.num_votes > $1
  AND dt.genre_1 IS NOT NULL
ORDER BY dt.genre_1`,
	})

	registerTTests()
}

// welchSQL builds a t-test query from a group_stats CTE body that yields
// (grp, n, mean, variance) rows. The statistic is
// (mean1 - mean2) / sqrt(var1/n1 + var2/n2), NULL when both variances are
// zero.
func welchSQL(groupStats, group1, group2 string) string {
	return fmt.Sprintf(`
WITH group_stats AS (%s
),
s1 AS (SELECT n, mean, variance FROM group_stats WHERE grp = %s),
s2 AS (SELECT n, mean, variance FROM group_stats WHERE grp = %s)
SELECT ((s1.mean - s2.mean) / NULLIF(SQRT(s1.variance / s1.n + s2.variance / s2.n), 0))::float8 AS t_statistic,
       s1.n AS n1,
       s2.n AS n2
FROM s1, s2`, groupStats, group1, group2)
}

func registerTTests() {
	RegisterTTest(TTest{
		Name:        "adult_vs_non_adult",
		Description: "Movie ratings of non-adult versus adult titles",
		Sample1:     "Non-Adult",
		Sample2:     "Adult",
		SQL: welchSQL(`
    SELECT t.is_adult AS grp,
           COUNT(r.average_rating) AS n,
           AVG(r.average_rating) AS mean,
           VAR_SAMP(r.average_rating) AS variance
    FROM fact_title_ratings AS r
    JOIN dim_title AS t ON r.title_key = t.title_key
    WHERE t.title_type = 'movie'
    GROUP BY t.is_adult`, "FALSE", "TRUE"),
	})

	RegisterTTest(TTest{
		Name:        "century_19_vs_20",
		Description: "Movie ratings of the 19th versus the 20th century",
		Sample1:     "19th Century",
		Sample2:     "20th Century",
		SQL: welchSQL(`
    SELECT d.century AS grp,
           COUNT(r.average_rating) AS n,
           AVG(r.average_rating) AS mean,
           VAR_SAMP(r.average_rating) AS variance
    FROM fact_title_ratings AS r
    JOIN dim_title AS t ON r.title_key = t.title_key
    JOIN dim_date AS d ON t.start_year = d.year
    WHERE t.title_type = 'movie' AND d.century IN (1800, 1900)
    GROUP BY d.century`, "1800", "1900"),
	})

	RegisterTTest(TTest{
		Name:        "action_vs_comedy_votes",
		Description: "Vote counts of action versus comedy movies",
		Sample1:     "Action",
		Sample2:     "Comedy",
		SQL: welchSQL(`
    SELECT t.genre_1 AS grp,
           COUNT(r.num_votes) AS n,
           AVG(r.num_votes) AS mean,
           VAR_SAMP(r.num_votes) AS variance
    FROM fact_title_ratings AS r
    JOIN dim_title AS t ON r.title_key = t.title_key
    WHERE t.genre_1 IN ('Action', 'Comedy') AND t.title_type = 'movie'
    GROUP BY t.genre_1`, "'Action'", "'Comedy'"),
	})

	RegisterTTest(TTest{
		Name:        "tv_lifespan_1990s_vs_2010s",
		Description: "Run length in years of TV series started in the 1990s versus the 2010s",
		Sample1:     "1990s",
		Sample2:     "2010s",
		SQL: welchSQL(`
    SELECT d.decade AS grp,
           COUNT(t.end_year - t.start_year) AS n,
           AVG(t.end_year - t.start_year) AS mean,
           VAR_SAMP(t.end_year - t.start_year) AS variance
    FROM dim_title AS t
    JOIN dim_date AS d ON t.start_year = d.year
    WHERE t.title_type = 'tvSeries'
      AND t.end_year IS NOT NULL
      AND t.start_year IS NOT NULL
      AND t.end_year >= t.start_year
      AND d.decade IN (1990, 2010)
    GROUP BY d.decade`, "1990", "2010"),
	})

	RegisterTTest(TTest{
		Name:        "franchise_vs_standalone_votes",
		Description: "Vote counts of titles with a parent versus standalone titles",
		Sample1:     "Franchise",
		Sample2:     "Standalone",
		SQL: welchSQL(`
    SELECT CASE WHEN t.parent_tconst IS NOT NULL THEN 'Franchise' ELSE 'Standalone' END AS grp,
           COUNT(r.num_votes) AS n,
           AVG(r.num_votes) AS mean,
           VAR_SAMP(r.num_votes) AS variance
    FROM fact_title_ratings AS r
    JOIN dim_title AS t ON r.title_key = t.title_key
    GROUP BY 1`, "'Franchise'", "'Standalone'"),
	})
}
