package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-filmwh/internal/config"
	"github.com/pgEdge/pgedge-filmwh/internal/olap"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestPValueCommand(t *testing.T) {
	out, err := execute(t, "pvalue", "--t", "3", "--n1", "11", "--n2", "20",
		"--label1", "Drama", "--label2", "Comedy", "--tail", "two-tailed", "--alpha", "0.05")
	require.NoError(t, err)

	assert.Contains(t, out, "Input T-statistic: 3\n")
	assert.Contains(t, out, "Sample Size (Drama): 11\n")
	assert.Contains(t, out, "Sample Size (Comedy): 20\n")
	assert.Contains(t, out, "Calculated P-value: 0.0133")
	assert.Contains(t, out, "There is a significant difference")
}

func TestPValueCommandNotSignificant(t *testing.T) {
	out, err := execute(t, "pvalue", "--t", "1", "--n1", "11", "--n2", "11",
		"--label1", "A", "--label2", "B", "--tail", "two-tailed", "--alpha", "0.05")
	require.NoError(t, err)
	assert.Contains(t, out, "Calculated P-value: 0.3408")
	assert.Contains(t, out, "There is NO significant difference")
}

func TestPValueCommandErrors(t *testing.T) {
	_, err := execute(t, "pvalue", "--t", "1", "--n1", "11", "--n2", "11", "--tail", "sideways")
	assert.Error(t, err)

	_, err = execute(t, "pvalue", "--t", "1", "--n1", "1", "--n2", "11", "--tail", "two-tailed")
	assert.Error(t, err)

	_, err = execute(t, "pvalue", "--t", "1", "--n1", "11", "--n2", "11", "--tail", "two-tailed", "--alpha", "1.5")
	assert.Error(t, err)
}

func TestQueryListing(t *testing.T) {
	out, err := execute(t, "query")
	require.NoError(t, err)
	for _, name := range []string{"top_rated", "type_rollup", "person_filmography", "genre_ratings"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "min_votes=5000")
}

func TestTTestListing(t *testing.T) {
	out, err := execute(t, "ttest")
	require.NoError(t, err)
	assert.Contains(t, out, "adult_vs_non_adult")
	assert.Contains(t, out, "franchise_vs_standalone_votes")
}

func TestQueryRejectsBadInput(t *testing.T) {
	t.Setenv("DW_DB", "filmwh")
	t.Setenv("DW_USER", "postgres")

	_, err := execute(t, "query", "no_such_query", "--format", "table")
	assert.ErrorContains(t, err, "unknown query")

	_, err = execute(t, "query", "top_rated", "-p", "bogus=1", "--format", "table")
	assert.ErrorContains(t, err, "has no parameter bogus")

	_, err = execute(t, "query", "top_rated", "--format", "xml")
	assert.Error(t, err)
}

func TestETLRejectsUnknownStep(t *testing.T) {
	t.Setenv("SOURCE_DB", "imdb")
	t.Setenv("SOURCE_USER", "postgres")
	t.Setenv("DW_DB", "filmwh")
	t.Setenv("DW_USER", "postgres")

	_, err := execute(t, "etl", "--steps", "dim_nothing")
	assert.ErrorContains(t, err, "unknown step")
}

func TestTTestErrorNamesTestOnce(t *testing.T) {
	empty := fmt.Errorf("t-test adult_vs_non_adult: %w", olap.ErrEmptySample)
	err := ttestError(empty)
	assert.ErrorIs(t, err, olap.ErrEmptySample)
	assert.Equal(t, 1, strings.Count(err.Error(), "t-test adult_vs_non_adult:"))
	assert.Contains(t, err.Error(), "(is the warehouse loaded?)")

	other := errors.New("t-test x: statistic is undefined (n1=1, n2=1)")
	assert.Same(t, other, ttestError(other))
}

func TestApplyGlobalFlags(t *testing.T) {
	defer func() { logLevel, logFormat, sourceDB, dwDB = "", "", "", "" }()

	c := config.DefaultConfig()
	logLevel, logFormat, sourceDB, dwDB = "debug", "json", "imdb", "filmwh"
	applyGlobalFlags(c)

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, "imdb", c.Source.Database)
	assert.Equal(t, "filmwh", c.Warehouse.Database)
}
