package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-filmwh/internal/olap"
	"github.com/pgEdge/pgedge-filmwh/internal/stats"
)

var (
	queryParams []string
	queryFormat string
	ttestAlpha  float64
	ttestTail   string
)

var queryCmd = &cobra.Command{
	Use:   "query [name]",
	Short: "Run a named report against the warehouse",
	Long: `Run one of the built-in analytical reports against the warehouse.
Without a name, the available reports and their parameters are listed.

Example:
  pgedge-filmwh query
  pgedge-filmwh query top_rated -p year=2015 -p title_type=tvSeries
  pgedge-filmwh query person_filmography -p name="Akira Kurosawa" --format csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

var ttestCmd = &cobra.Command{
	Use:   "ttest [name]",
	Short: "Compute a two-sample t-test over the warehouse",
	Long: `Compute one of the built-in two-sample t statistics in the warehouse and
report its p-value. Without a name, the available tests are listed.

Example:
  pgedge-filmwh ttest action_vs_comedy_votes
  pgedge-filmwh ttest adult_vs_non_adult --alpha 0.01 --tail right`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTTest,
}

func init() {
	queryCmd.Flags().StringArrayVarP(&queryParams, "param", "p", nil,
		"query parameter as name=value (repeatable)")
	queryCmd.Flags().StringVar(&queryFormat, "format", "",
		"output format: table, json, csv (default: table)")

	ttestCmd.Flags().Float64Var(&ttestAlpha, "alpha", 0,
		"significance level (default: 0.05)")
	ttestCmd.Flags().StringVar(&ttestTail, "tail", stats.TwoTailed,
		"test tail: two-tailed, left, right")
}

func runQuery(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		listQueries(out)
		return nil
	}

	if queryFormat != "" {
		cfg.Query.Format = queryFormat
	}
	if err := cfg.ValidateQuery(); err != nil {
		return err
	}

	q, err := olap.Get(args[0])
	if err != nil {
		return err
	}
	params, err := olap.ParseParams(queryParams)
	if err != nil {
		return err
	}
	// Reject bad parameters before connecting.
	if _, err := q.Args(params); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	handle, err := olap.Open(ctx, cfg.Warehouse)
	if err != nil {
		return err
	}
	defer handle.Close()

	res, err := olap.NewRunner(handle).Run(ctx, q, params)
	if err != nil {
		return err
	}
	return olap.Render(out, res, cfg.Query.Format)
}

func listQueries(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Query", "Parameters", "Description"})
	for _, name := range olap.List() {
		q, _ := olap.Get(name)
		params := make([]string, len(q.Params))
		for i, p := range q.Params {
			params[i] = fmt.Sprintf("%s=%s", p.Name, p.Default)
		}
		t.AppendRow(table.Row{q.Name, strings.Join(params, " "), q.Description})
	}
	t.Render()
}

func listTTests(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Test", "Samples", "Description"})
	for _, name := range olap.ListTTests() {
		tt, _ := olap.GetTTest(name)
		t.AppendRow(table.Row{tt.Name, tt.Sample1 + " vs " + tt.Sample2, tt.Description})
	}
	t.Render()
}

func runTTest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		listTTests(out)
		return nil
	}

	if ttestAlpha != 0 {
		cfg.Query.Alpha = ttestAlpha
	}
	if err := cfg.ValidateQuery(); err != nil {
		return err
	}

	tt, err := olap.GetTTest(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	handle, err := olap.Open(ctx, cfg.Warehouse)
	if err != nil {
		return err
	}
	defer handle.Close()

	res, err := olap.NewRunner(handle).TTest(ctx, tt)
	if err != nil {
		return ttestError(err)
	}

	return report(out, stats.Test{
		T:      res.T,
		N1:     res.N1,
		N2:     res.N2,
		Label1: tt.Sample1,
		Label2: tt.Sample2,
	}, cfg.Query.Alpha, ttestTail)
}

// ttestError adds a hint to an empty-sample error. The runner already names
// the test.
func ttestError(err error) error {
	if errors.Is(err, olap.ErrEmptySample) {
		return fmt.Errorf("%w (is the warehouse loaded?)", err)
	}
	return err
}

func report(w io.Writer, test stats.Test, alpha float64, tail string) error {
	result, err := stats.Evaluate(test, alpha, tail)
	if err != nil {
		return err
	}
	stats.Report(w, result)
	return nil
}
