package datagen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pgEdge/pgedge-filmwh/internal/source"
	"github.com/pgEdge/pgedge-filmwh/internal/transform"
)

// SeedConfig sizes a generated dataset.
type SeedConfig struct {
	// Titles is the number of non-episode titles. Series add episodes on
	// top of this.
	Titles int

	// Persons is the number of people.
	Persons int

	// Seed makes generation reproducible. Zero picks a random seed.
	Seed uint64
}

// DefaultSeedConfig returns a small dataset configuration.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Titles:  1000,
		Persons: 500,
	}
}

// Reference data
var titleTypes = []string{"movie", "short", "tvSeries", "tvMiniSeries", "tvMovie", "tvSpecial", "video", "videoGame"}
var titleTypeWeights = []int{45, 10, 12, 4, 8, 3, 12, 6}
var genres = []string{"Action", "Adventure", "Animation", "Biography", "Comedy", "Crime", "Documentary",
	"Drama", "Family", "Fantasy", "History", "Horror", "Music", "Mystery", "Romance", "Sci-Fi",
	"Sport", "Thriller", "War", "Western"}
var professions = []string{"actor", "actress", "director", "writer", "producer", "composer",
	"cinematographer", "editor", "animation_department", "soundtrack"}
var categories = []string{"actor", "actress", "director", "writer", "producer", "composer", "self"}
var categoryWeights = []int{35, 25, 12, 12, 8, 5, 3}
var writerJobs = []string{"screenplay", "novel", "story", "written by", "characters"}

// Generator produces IMDb-shaped source rows, sentinels included.
type Generator struct {
	faker *Faker
	cfg   SeedConfig
}

// NewGenerator creates a generator. A zero seed draws a random one.
func NewGenerator(cfg SeedConfig) *Generator {
	f := NewFaker()
	if cfg.Seed != 0 {
		f = NewFakerWithSeed(cfg.Seed)
	}
	if cfg.Titles <= 0 {
		cfg.Titles = DefaultSeedConfig().Titles
	}
	if cfg.Persons <= 0 {
		cfg.Persons = DefaultSeedConfig().Persons
	}
	return &Generator{faker: f, cfg: cfg}
}

type title struct {
	id        string
	titleType string
}

// Generate builds the full dataset.
func (g *Generator) Generate() Dataset {
	persons := g.persons()
	titles, basics, episodes := g.titles()

	return Dataset{
		basics,
		persons,
		g.principals(titles),
		g.ratings(titles),
		episodes,
		g.akas(titles),
		g.crew(titles),
	}
}

func personID(i int) string {
	return fmt.Sprintf("nm%07d", i)
}

func titleID(i int) string {
	return fmt.Sprintf("tt%07d", i)
}

func (g *Generator) persons() Table {
	f := g.faker
	t := Table{
		Name:    source.NameBasics,
		Columns: []string{"nconst", "primaryname", "birthyear", "deathyear", "primaryprofession", "knownfortitles"},
	}
	for i := 1; i <= g.cfg.Persons; i++ {
		birth := f.Int(1880, 2005)
		death := transform.NullSentinel
		if birth < 1940 && f.Chance(0.6) {
			death = strconv.Itoa(f.Int(birth+20, min(birth+100, 2024)))
		}
		t.Rows = append(t.Rows, []any{
			personID(i),
			f.Nullable(f.Name(), 0.01),
			f.Nullable(strconv.Itoa(birth), 0.25),
			death,
			f.Nullable(Pick(f, professions, 1, 4), 0.05),
			transform.NullSentinel,
		})
	}
	return t
}

// titles generates title_basics and, for every series, its episodes.
func (g *Generator) titles() ([]title, Table, Table) {
	f := g.faker
	basics := Table{
		Name: source.TitleBasics,
		Columns: []string{"tconst", "titletype", "primarytitle", "originaltitle", "isadult",
			"startyear", "endyear", "runtimeminutes", "genres"},
	}
	episodes := Table{
		Name:    source.Episode,
		Columns: []string{"tconst", "parenttconst", "seasonnumber", "episodenumber"},
	}

	var titles []title
	next := 1
	add := func(id, titleType, name string, start, end string, runtime int) {
		basics.Rows = append(basics.Rows, []any{
			id,
			titleType,
			name,
			f.Nullable(name, 0.02),
			ChooseWeighted(f, []string{"0", "1", transform.NullSentinel}, []int{96, 3, 1}),
			start,
			end,
			f.Nullable(strconv.Itoa(runtime), 0.2),
			f.Nullable(Pick(f, genres, 1, 4), 0.05),
		})
		titles = append(titles, title{id: id, titleType: titleType})
	}

	for i := 0; i < g.cfg.Titles; i++ {
		id := titleID(next)
		next++

		titleType := ChooseWeighted(f, titleTypes, titleTypeWeights)
		year := f.Int(1890, 2024)
		start := f.Nullable(strconv.Itoa(year), 0.02)

		if titleType != "tvSeries" && titleType != "tvMiniSeries" {
			add(id, titleType, f.MovieName(), start, transform.NullSentinel, f.Int(3, 200))
			continue
		}

		end := transform.NullSentinel
		if f.Chance(0.7) {
			end = strconv.Itoa(min(year+f.Int(0, 12), 2024))
		}
		add(id, titleType, f.MovieName(), start, end, f.Int(20, 60))

		seasons := f.Int(1, 4)
		for s := 1; s <= seasons; s++ {
			count := f.Int(2, 8)
			for e := 1; e <= count; e++ {
				epID := titleID(next)
				next++
				epYear := start
				if start != transform.NullSentinel {
					epYear = strconv.Itoa(year + s - 1)
				}
				add(epID, "tvEpisode", f.EpisodeName(), epYear, transform.NullSentinel, f.Int(20, 60))

				season, episode := strconv.Itoa(s), strconv.Itoa(e)
				if f.Chance(0.03) {
					season, episode = transform.NullSentinel, transform.NullSentinel
				}
				episodes.Rows = append(episodes.Rows, []any{epID, id, season, episode})
			}
		}
	}
	return titles, basics, episodes
}

func (g *Generator) principals(titles []title) Table {
	f := g.faker
	t := Table{
		Name:    source.Principals,
		Columns: []string{"tconst", "ordering", "nconst", "category", "job", "characters"},
	}
	for _, ti := range titles {
		credits := f.Int(1, 5)
		for o := 1; o <= credits; o++ {
			// A few credits point at people missing from name_basics.
			nconst := personID(f.Int(1, g.cfg.Persons))
			if f.Chance(0.01) {
				nconst = personID(g.cfg.Persons + f.Int(1, 1000))
			}

			category := ChooseWeighted(f, categories, categoryWeights)
			job, characters := transform.NullSentinel, transform.NullSentinel
			switch category {
			case "actor", "actress", "self":
				characters = fmt.Sprintf(`["%s"]`, f.FirstName())
			case "writer":
				job = f.Nullable(Choose(f, writerJobs), 0.3)
			case "producer":
				job = f.Nullable("producer", 0.5)
			case "director":
				// Some director credits use SQL NULL instead of the sentinel.
				// Both normalize to the same role.
				if f.Chance(0.2) {
					t.Rows = append(t.Rows, []any{ti.id, strconv.Itoa(o), nconst, category, nil, nil})
					continue
				}
			}
			t.Rows = append(t.Rows, []any{ti.id, strconv.Itoa(o), nconst, category, job, characters})
		}
	}
	return t
}

func (g *Generator) ratings(titles []title) Table {
	f := g.faker
	t := Table{
		Name:    source.Ratings,
		Columns: []string{"tconst", "averagerating", "numvotes"},
	}
	for _, ti := range titles {
		if !f.Chance(0.8) {
			continue
		}
		votes := f.Int(5, 2000)
		if f.Chance(0.2) {
			votes = f.Int(5000, 2000000)
		}
		t.Rows = append(t.Rows, []any{
			ti.id,
			fmt.Sprintf("%.1f", f.Float64(1, 10)),
			strconv.Itoa(votes),
		})
	}
	return t
}

func (g *Generator) akas(titles []title) Table {
	f := g.faker
	t := Table{
		Name:    source.Akas,
		Columns: []string{"titleid", "ordering", "title", "region", "language", "types", "attributes", "isoriginaltitle"},
	}
	for _, ti := range titles {
		if ti.titleType == "tvEpisode" || !f.Chance(0.6) {
			continue
		}
		originals := 1
		if f.Chance(0.05) {
			originals = 2
		}
		for o := 1; o <= originals; o++ {
			t.Rows = append(t.Rows, []any{
				ti.id, strconv.Itoa(o), f.MovieName(), transform.NullSentinel,
				f.Nullable(f.Language(), 0.3), "original", transform.NullSentinel, "1",
			})
		}
		t.Rows = append(t.Rows, []any{
			ti.id, strconv.Itoa(originals + 1), f.MovieName(), strings.ToUpper(f.Language()),
			f.Language(), "imdbDisplay", transform.NullSentinel, "0",
		})
	}
	return t
}

func (g *Generator) crew(titles []title) Table {
	f := g.faker
	t := Table{
		Name:    source.Crew,
		Columns: []string{"tconst", "directors", "writers"},
	}
	for _, ti := range titles {
		t.Rows = append(t.Rows, []any{
			ti.id,
			f.Nullable(personID(f.Int(1, g.cfg.Persons)), 0.2),
			f.Nullable(personID(f.Int(1, g.cfg.Persons)), 0.4),
		})
	}
	return t
}
