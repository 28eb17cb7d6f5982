//-------------------------------------------------------------------------
//
// pgEdge Film Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-filmwh/internal/source"
	"github.com/pgEdge/pgedge-filmwh/internal/transform"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerStrings(t *testing.T) {
	f := NewFaker()
	for name, fn := range map[string]func() string{
		"Name":        f.Name,
		"FirstName":   f.FirstName,
		"MovieName":   f.MovieName,
		"EpisodeName": f.EpisodeName,
		"Language":    f.Language,
	} {
		if fn() == "" {
			t.Errorf("%s returned empty string", name)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(5, 10)
		if v < 5 || v > 10 {
			t.Errorf("Int %d not in range [5, 10]", v)
		}
	}
}

func TestFakerNullable(t *testing.T) {
	f := NewFaker()
	if got := f.Nullable("x", 0); got != "x" {
		t.Errorf("Nullable with p=0 returned %q", got)
	}
	if got := f.Nullable("x", 1); got != transform.NullSentinel {
		t.Errorf("Nullable with p=1 returned %q", got)
	}
}

func TestPick(t *testing.T) {
	f := NewFakerWithSeed(7)
	for i := 0; i < 50; i++ {
		got := strings.Split(Pick(f, genres, 1, 4), ",")
		if len(got) < 1 || len(got) > 4 {
			t.Fatalf("Pick returned %d items", len(got))
		}
		seen := map[string]bool{}
		for _, g := range got {
			if seen[g] {
				t.Fatalf("Pick returned duplicate %q", g)
			}
			seen[g] = true
		}
	}

	if got := Pick(f, []string{"a", "b"}, 5, 5); got != "a,b" {
		t.Errorf("Pick beyond list length = %q, want a,b", got)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		if v := ChooseWeighted(f, []string{"a", "b"}, []int{1, 0}); v != "a" {
			t.Fatalf("ChooseWeighted returned zero-weight item %q", v)
		}
	}

	var zero string
	if v := ChooseWeighted[string](f, nil, nil); v != zero {
		t.Errorf("ChooseWeighted on empty input = %q", v)
	}
	if v := Choose(f, []int{}); v != 0 {
		t.Errorf("Choose on empty input = %d", v)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := SeedConfig{Titles: 50, Persons: 30, Seed: 42}
	a := NewGenerator(cfg).Generate()
	b := NewGenerator(cfg).Generate()

	if len(a) != len(b) {
		t.Fatalf("table count differs: %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Name != b[i].Name || len(a[i].Rows) != len(b[i].Rows) {
			t.Fatalf("table %s differs between runs", a[i].Name)
		}
		for r := range a[i].Rows {
			for c := range a[i].Rows[r] {
				if a[i].Rows[r][c] != b[i].Rows[r][c] {
					t.Fatalf("%s row %d col %d differs", a[i].Name, r, c)
				}
			}
		}
	}
}

func TestGenerateShape(t *testing.T) {
	data := NewGenerator(SeedConfig{Titles: 200, Persons: 100, Seed: 3}).Generate()

	for _, name := range []string{
		source.TitleBasics, source.NameBasics, source.Principals, source.Ratings,
		source.Episode, source.Akas, source.Crew,
	} {
		tbl, ok := data.Table(name)
		if !ok {
			t.Fatalf("missing table %s", name)
		}
		for _, row := range tbl.Rows {
			if len(row) != len(tbl.Columns) {
				t.Fatalf("%s row has %d values, want %d", name, len(row), len(tbl.Columns))
			}
		}
	}

	if got := data.Rows(source.NameBasics); got != 100 {
		t.Errorf("name_basics_import rows = %d, want 100", got)
	}
	if got := data.Rows(source.TitleBasics); got < 200 {
		t.Errorf("title_basics rows = %d, want at least 200", got)
	}
	if data.Rows("nope") != 0 {
		t.Error("Rows of unknown table should be 0")
	}

	// Every episode's parent is a generated title.
	basics, _ := data.Table(source.TitleBasics)
	ids := map[any]bool{}
	for _, row := range basics.Rows {
		ids[row[0]] = true
	}
	episodes, _ := data.Table(source.Episode)
	for _, row := range episodes.Rows {
		if !ids[row[1]] {
			t.Errorf("episode %v has unknown parent %v", row[0], row[1])
		}
	}
}

func TestGenerateUsesWeightedLists(t *testing.T) {
	data := NewGenerator(SeedConfig{Titles: 150, Persons: 60, Seed: 11}).Generate()

	known := map[string]bool{"tvEpisode": true}
	for _, tt := range titleTypes {
		known[tt] = true
	}
	basics, _ := data.Table(source.TitleBasics)
	for _, row := range basics.Rows {
		if !known[row[1].(string)] {
			t.Errorf("%v has unexpected titletype %v", row[0], row[1])
		}
		switch row[4] {
		case "0", "1", transform.NullSentinel:
		default:
			t.Errorf("%v has unexpected isadult %v", row[0], row[4])
		}
	}

	cats := map[string]bool{}
	for _, c := range categories {
		cats[c] = true
	}
	principals, _ := data.Table(source.Principals)
	for _, row := range principals.Rows {
		if !cats[row[3].(string)] {
			t.Errorf("%v has unexpected category %v", row[0], row[3])
		}
	}
}
