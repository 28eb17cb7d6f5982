package etl

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pgEdge/pgedge-filmwh/internal/keys"
	"github.com/pgEdge/pgedge-filmwh/internal/logging"
	"github.com/pgEdge/pgedge-filmwh/internal/warehouse"
)

// StepStats describes one completed or failed pipeline step.
type StepStats struct {
	Step string

	// Read is the number of source rows the step read.
	Read int64

	// Loaded is the number of rows the warehouse accepted. Role rows
	// skipped by conflict handling are not counted.
	Loaded int64

	// Drops counts source rows that were not loaded, by reason.
	Drops keys.Drops

	Duration time.Duration
}

// Dropped returns the total number of dropped rows.
func (s StepStats) Dropped() int {
	return s.Drops.Total()
}

func (s *StepStats) addDrops(d keys.Drops) {
	if s.Drops == nil {
		s.Drops = keys.Drops{}
	}
	for reason, n := range d {
		s.Drops[reason] += n
	}
}

func (s StepStats) log() {
	ev := logging.Info().
		Str("step", s.Step).
		Int64("rows_read", s.Read).
		Int64("rows_loaded", s.Loaded).
		Int("dropped", s.Dropped()).
		Dur("duration", s.Duration)
	for _, reason := range s.Drops.Reasons() {
		ev = ev.Int("dropped_"+reason, s.Drops[reason])
	}
	ev.Msg("Step complete")
}

// Summary reports a pipeline run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepStats

	// RowCounts holds the final row count per warehouse table.
	RowCounts map[string]int64
}

// Duration returns the wall time of the run, or zero if it did not finish.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Log writes the final summary to the logger.
func (s *Summary) Log() {
	var loaded int64
	var dropped int
	for _, st := range s.Steps {
		loaded += st.Loaded
		dropped += st.Dropped()
	}

	logging.Info().
		Str("run_id", s.RunID).
		Dur("duration", s.Duration()).
		Int("steps", len(s.Steps)).
		Int64("rows_loaded", loaded).
		Int("dropped", dropped).
		Msg("Final summary")
}

// Render writes the per-step statistics as a table.
func (s *Summary) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("ETL run %s", s.RunID)
	t.AppendHeader(table.Row{"Step", "Read", "Loaded", "Dropped", "Drop reasons", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	var read, loaded int64
	var dropped int
	for _, st := range s.Steps {
		t.AppendRow(table.Row{
			st.Step,
			st.Read,
			st.Loaded,
			st.Dropped(),
			formatDrops(st.Drops),
			st.Duration.Round(time.Millisecond),
		})
		read += st.Read
		loaded += st.Loaded
		dropped += st.Dropped()
	}
	t.AppendFooter(table.Row{"Total", read, loaded, dropped, "", s.Duration().Round(time.Millisecond)})
	t.Render()

	if len(s.RowCounts) > 0 {
		RenderCounts(w, s.RowCounts)
	}
}

// RenderCounts writes warehouse row counts as a table, in load order.
// Tables with a negative count are shown as missing.
func RenderCounts(w io.Writer, counts map[string]int64) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Rows"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	for _, name := range warehouse.Tables {
		n, ok := counts[name]
		switch {
		case !ok:
			continue
		case n < 0:
			t.AppendRow(table.Row{name, "missing"})
		default:
			t.AppendRow(table.Row{name, n})
		}
	}
	t.Render()
}

func formatDrops(d keys.Drops) string {
	reasons := d.Reasons()
	if len(reasons) == 0 {
		return ""
	}
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = fmt.Sprintf("%s=%d", r, d[r])
	}
	return strings.Join(parts, " ")
}
