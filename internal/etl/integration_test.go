//go:build integration

//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-filmwh/internal/datagen"
	"github.com/pgEdge/pgedge-filmwh/internal/db"
	"github.com/pgEdge/pgedge-filmwh/internal/loader"
	"github.com/pgEdge/pgedge-filmwh/internal/testutil"
	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

const smallSourceSQL = `
INSERT INTO title_basics VALUES
    ('tt01', 'movie',    'Early',    'Early',    '0',  '2018', '\N', '100', 'Action,Comedy,Drama,Horror'),
    ('tt02', 'movie',    'Late',     'Late',     '1',  '2020', '\N', '90',  'Drama'),
    ('tt03', 'tvSeries', 'Show',     'Show',     '0',  '2020', '\N', '45',  '\N'),
    ('tt04', 'short',    'Middle',   'Middle',   'no', '2019', '\N', '12',  'Animation'),
    ('tt05', 'video',    'Undated',  'Undated',  '0',  '\N',   '\N', '\N',  '\N'),
    ('tt06', 'tvEpisode','Pilot',    'Pilot',    '0',  '2020', '\N', '44',  '\N');

INSERT INTO episode VALUES ('tt06', 'tt03', '1', '1');

INSERT INTO akas_import VALUES
    ('tt01', '1', 'Early', '\N', 'en', 'original', '\N', '1'),
    ('tt01', '2', 'Tot',   'DE', 'de', 'imdbDisplay', '\N', '0');

INSERT INTO name_basics_import VALUES
    ('nm01', 'Ann Director', '1970', '\N', 'director,writer,producer,actor', '\N'),
    ('nm02', 'Bob Actor',    '\N',   '\N', 'actor', '\N'),
    (NULL,   'Nobody',       '\N',   '\N', '\N', '\N');

INSERT INTO principals VALUES
    ('tt01', '1', 'nm01', 'director', '\N', '\N'),
    ('tt02', '1', 'nm01', 'director', NULL, NULL),
    ('tt01', '2', 'nm02', 'actor', '\N', '["Hero"]'),
    ('tt04', '1', 'nm99', 'actor', '\N', '["Ghost"]'),
    ('tt99', '1', 'nm02', 'actor', '\N', '["Hero"]'),
    ('tt03', 'x', 'nm02', 'self', '\N', '\N');

INSERT INTO ratings VALUES
    ('tt01', '7.3', '1200'),
    ('tt02', '6.1', '40'),
    ('tt04', '8.0', '15'),
    ('tt05', '5.5', '10'),
    ('tt03', 'n/a', '10');

INSERT INTO crew_import VALUES ('tt01', 'nm01', 'nm01');
`

func setup(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	connStr := testutil.SkipIfNoPostgres(t)
	dbName := testutil.CreateTestDB(t, connStr, "etl")
	cleanup := testutil.NewTestCleanup(t, connStr, dbName)

	store := testutil.StoreConfig(t, connStr, dbName)
	t.Logf("Using %s", testutil.Describe(store))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, "warehouse", store)
	require.NoError(t, err)
	cleanup.AddPool(pool)
	testutil.SkipIfOldServer(t, pool)

	return pool, cleanup.Cleanup
}

func seedSmallSource(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, datagen.CreateSourceSchema(ctx, pool))
	_, err := pool.Exec(ctx, smallSourceSQL)
	require.NoError(t, err)
}

func run(t *testing.T, pool *pgxpool.Pool, opts Options) *Summary {
	t.Helper()
	if opts.Batch.BatchSize == 0 {
		opts.Batch = loader.BatchConfig{BatchSize: 2, ProgressInterval: 1000}
	}
	sum, err := NewPipeline(pool, pool, opts).Run(context.Background())
	require.NoError(t, err)
	return sum
}

func TestEndToEnd(t *testing.T) {
	pool, cleanup := setup(t)
	defer cleanup()
	seedSmallSource(t, pool)

	ctx := context.Background()
	sum := run(t, pool, Options{})

	assert.Equal(t, map[string]int64{
		warehouse.DimDate:             3,
		warehouse.DimPerson:           2,
		warehouse.DimRole:             4,
		warehouse.DimTitle:            6,
		warehouse.FactTitleRatings:    3,
		warehouse.FactTitlePrincipals: 3,
	}, sum.RowCounts)

	t.Run("date range", func(t *testing.T) {
		rows, err := pool.Query(ctx, `SELECT date_key, year, decade, century FROM dim_date ORDER BY date_key`)
		require.NoError(t, err)
		defer rows.Close()

		var got [][4]int32
		for rows.Next() {
			var r [4]int32
			require.NoError(t, rows.Scan(&r[0], &r[1], &r[2], &r[3]))
			got = append(got, r)
		}
		require.NoError(t, rows.Err())
		assert.Equal(t, [][4]int32{
			{2018, 2018, 2010, 2000},
			{2019, 2019, 2010, 2000},
			{2020, 2020, 2020, 2000},
		}, got)
	})

	t.Run("rating maps to start year", func(t *testing.T) {
		var dateKey int32
		err := pool.QueryRow(ctx, `
            SELECT r.date_key FROM fact_title_ratings r
            JOIN dim_title t USING (title_key)
            WHERE t.tconstid = 'tt04'`).Scan(&dateKey)
		require.NoError(t, err)
		assert.Equal(t, int32(2019), dateKey)
	})

	t.Run("undated rating excluded", func(t *testing.T) {
		var n int
		err := pool.QueryRow(ctx, `
            SELECT COUNT(*) FROM fact_title_ratings r
            JOIN dim_title t USING (title_key)
            WHERE t.tconstid IN ('tt05', 'tt03')`).Scan(&n)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("referential completeness", func(t *testing.T) {
		var orphans int
		err := pool.QueryRow(ctx, `
            SELECT COUNT(*) FROM fact_title_ratings r
            LEFT JOIN dim_title t ON r.title_key = t.title_key
            LEFT JOIN dim_date d ON r.date_key = d.date_key
            WHERE t.title_key IS NULL OR d.date_key IS NULL`).Scan(&orphans)
		require.NoError(t, err)
		assert.Zero(t, orphans)
	})

	t.Run("title coercion", func(t *testing.T) {
		var g1, g2, g3, lang, parent *string
		var adult bool
		err := pool.QueryRow(ctx, `
            SELECT genre_1, genre_2, genre_3, title_language, parent_tconst, is_adult
            FROM dim_title WHERE tconstid = 'tt01'`).Scan(&g1, &g2, &g3, &lang, &parent, &adult)
		require.NoError(t, err)
		assert.Equal(t, "Action", *g1)
		assert.Equal(t, "Comedy", *g2)
		assert.Equal(t, "Drama", *g3)
		assert.Equal(t, "en", *lang)
		assert.Nil(t, parent)
		assert.False(t, adult)

		err = pool.QueryRow(ctx, `SELECT is_adult FROM dim_title WHERE tconstid = 'tt02'`).Scan(&adult)
		require.NoError(t, err)
		assert.True(t, adult)

		err = pool.QueryRow(ctx, `SELECT is_adult FROM dim_title WHERE tconstid = 'tt04'`).Scan(&adult)
		require.NoError(t, err)
		assert.False(t, adult)

		var season, episode int32
		err = pool.QueryRow(ctx, `
            SELECT parent_tconst, season_number, episode_number
            FROM dim_title WHERE tconstid = 'tt06'`).Scan(&parent, &season, &episode)
		require.NoError(t, err)
		assert.Equal(t, "tt03", *parent)
		assert.Equal(t, int32(1), season)
		assert.Equal(t, int32(1), episode)
	})

	t.Run("drops are counted", func(t *testing.T) {
		byStep := map[string]StepStats{}
		for _, st := range sum.Steps {
			byStep[st.Step] = st
		}
		assert.Equal(t, 1, byStep[warehouse.DimPerson].Dropped())
		assert.Equal(t, 2, byStep[warehouse.FactTitleRatings].Dropped())
		assert.Equal(t, 3, byStep[warehouse.FactTitlePrincipals].Dropped())
	})

	t.Run("metadata recorded", func(t *testing.T) {
		runID, err := db.GetMetadataValue(ctx, pool, "run_id")
		require.NoError(t, err)
		assert.Equal(t, sum.RunID, runID)

		rows, err := db.GetMetadataValue(ctx, pool, "rows."+warehouse.DimDate)
		require.NoError(t, err)
		assert.Equal(t, "3", rows)
	})
}

func TestRerunIsIdempotent(t *testing.T) {
	pool, cleanup := setup(t)
	defer cleanup()
	seedSmallSource(t, pool)

	first := run(t, pool, Options{})
	second := run(t, pool, Options{})
	assert.Equal(t, first.RowCounts, second.RowCounts)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRoleRerunHasNoDuplicates(t *testing.T) {
	pool, cleanup := setup(t)
	defer cleanup()
	seedSmallSource(t, pool)

	first := run(t, pool, Options{})
	again := run(t, pool, Options{SkipSchema: true, Steps: []string{warehouse.DimRole}})
	require.Len(t, again.Steps, 1)
	assert.Zero(t, again.Steps[0].Loaded)
	assert.Equal(t, first.RowCounts[warehouse.DimRole], again.RowCounts[warehouse.DimRole])

	var dupes int
	err := pool.QueryRow(context.Background(), `
        SELECT COUNT(*) FROM (
            SELECT category, job, character_name FROM dim_role
            GROUP BY 1, 2, 3 HAVING COUNT(*) > 1
        ) d`).Scan(&dupes)
	require.NoError(t, err)
	assert.Zero(t, dupes)
}

func TestRerunWithoutSchemaFails(t *testing.T) {
	pool, cleanup := setup(t)
	defer cleanup()
	seedSmallSource(t, pool)

	run(t, pool, Options{})
	_, err := NewPipeline(pool, pool, Options{
		Batch:      loader.DefaultBatchConfig(),
		SkipSchema: true,
		Steps:      []string{warehouse.DimPerson},
	}).Run(context.Background())

	var loadErr *loader.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, warehouse.DimPerson, loadErr.Table)
}

func TestSeededRun(t *testing.T) {
	pool, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	data, err := datagen.Seed(ctx, pool, datagen.SeedConfig{Titles: 300, Persons: 150, Seed: 99},
		loader.DefaultBatchConfig())
	require.NoError(t, err)

	sum := run(t, pool, Options{Batch: loader.DefaultBatchConfig()})
	assert.EqualValues(t, data.Rows("title_basics"), sum.RowCounts[warehouse.DimTitle])
	assert.Positive(t, sum.RowCounts[warehouse.FactTitleRatings])
	assert.Positive(t, sum.RowCounts[warehouse.FactTitlePrincipals])

	var orphans int
	err = pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM fact_title_principals f
        LEFT JOIN dim_title t ON f.title_key = t.title_key
        LEFT JOIN dim_person p ON f.person_key = p.person_key
        LEFT JOIN dim_role r ON f.role_key = r.role_key
        WHERE t.title_key IS NULL OR p.person_key IS NULL OR r.role_key IS NULL`).Scan(&orphans)
	require.NoError(t, err)
	assert.Zero(t, orphans)
}
