// Package stats turns a two-sample t statistic into a p-value report.
package stats

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Tails.
const (
	TwoTailed = "two-tailed"
	Left      = "left"
	Right     = "right"
)

// DefaultAlpha is the significance level used when none is given.
const DefaultAlpha = 0.05

// Test is a t statistic and the sizes of the two samples it compares.
type Test struct {
	T  float64
	N1 int64
	N2 int64

	// Labels name the two samples in the report.
	Label1 string
	Label2 string
}

// DegreesOfFreedom returns min(n1, n2) - 1.
func (t Test) DegreesOfFreedom() int64 {
	return min(t.N1, t.N2) - 1
}

// PValue returns the p-value of t under a Student's t distribution with
// min(n1, n2) - 1 degrees of freedom.
func PValue(t float64, n1, n2 int64, tail string) (float64, error) {
	df := min(n1, n2) - 1
	if df < 1 {
		return 0, fmt.Errorf("need at least 2 observations per sample, got n1=%d n2=%d", n1, n2)
	}
	if math.IsNaN(t) {
		return 0, fmt.Errorf("t statistic is NaN")
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}

	switch tail {
	case TwoTailed:
		return 2 * dist.Survival(math.Abs(t)), nil
	case Left:
		return dist.CDF(t), nil
	case Right:
		return dist.Survival(t), nil
	default:
		return 0, fmt.Errorf("tail must be %q, %q or %q, got %q", TwoTailed, Left, Right, tail)
	}
}

// Result is a computed p-value and its verdict.
type Result struct {
	Test
	Tail        string
	Alpha       float64
	PValue      float64
	Significant bool
}

// Evaluate computes the p-value of test and compares it against alpha.
func Evaluate(test Test, alpha float64, tail string) (Result, error) {
	if alpha <= 0 || alpha >= 1 {
		return Result{}, fmt.Errorf("alpha must be between 0 and 1, got %g", alpha)
	}
	p, err := PValue(test.T, test.N1, test.N2, tail)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Test:        test,
		Tail:        tail,
		Alpha:       alpha,
		PValue:      p,
		Significant: p < alpha,
	}, nil
}

// Report writes the p-value report for r.
func Report(w io.Writer, r Result) {
	_, _ = fmt.Fprintln(w, "---T-test Statistical Analysis ---")
	_, _ = fmt.Fprintf(w, "Input T-statistic: %v\n", r.T)
	_, _ = fmt.Fprintf(w, "Sample Size (%s): %d\n", r.Label1, r.N1)
	_, _ = fmt.Fprintf(w, "Sample Size (%s): %d\n", r.Label2, r.N2)
	_, _ = fmt.Fprintln(w, "-----------------------------------")
	_, _ = fmt.Fprintf(w, "Calculated P-value: %.6f\n", r.PValue)

	if r.Significant {
		_, _ = fmt.Fprintln(w, "\nConclusion: The result is statistically significant "+
			"(There is a significant difference between the two samples).")
	} else {
		_, _ = fmt.Fprintln(w, "\nConclusion: The result is not statistically significant "+
			"(There is NO significant difference between the two samples).")
	}
}
