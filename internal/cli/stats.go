package cli

import (
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-filmwh/internal/stats"
)

var (
	pvalueT      float64
	pvalueN1     int64
	pvalueN2     int64
	pvalueLabel1 string
	pvalueLabel2 string
	pvalueAlpha  float64
	pvalueTail   string
)

var pvalueCmd = &cobra.Command{
	Use:   "pvalue",
	Short: "Compute the p-value of a t statistic",
	Long: `Compute the p-value of a two-sample t statistic using a Student's t
distribution with min(n1, n2) - 1 degrees of freedom, and report whether the
difference is significant at the given alpha. No database is needed.

Example:
  pgedge-filmwh pvalue --t 2.31 --n1 120 --n2 95
  pgedge-filmwh pvalue --t -1.7 --n1 40 --n2 40 --tail left --alpha 0.01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		alpha := cfg.Query.Alpha
		if pvalueAlpha != 0 {
			alpha = pvalueAlpha
		}
		return report(cmd.OutOrStdout(), stats.Test{
			T:      pvalueT,
			N1:     pvalueN1,
			N2:     pvalueN2,
			Label1: pvalueLabel1,
			Label2: pvalueLabel2,
		}, alpha, pvalueTail)
	},
}

func init() {
	pvalueCmd.Flags().Float64Var(&pvalueT, "t", 0, "t statistic")
	pvalueCmd.Flags().Int64Var(&pvalueN1, "n1", 0, "size of the first sample")
	pvalueCmd.Flags().Int64Var(&pvalueN2, "n2", 0, "size of the second sample")
	pvalueCmd.Flags().StringVar(&pvalueLabel1, "label1", "Sample 1",
		"label of the first sample")
	pvalueCmd.Flags().StringVar(&pvalueLabel2, "label2", "Sample 2",
		"label of the second sample")
	pvalueCmd.Flags().Float64Var(&pvalueAlpha, "alpha", 0,
		"significance level (default: 0.05)")
	pvalueCmd.Flags().StringVar(&pvalueTail, "tail", stats.TwoTailed,
		"test tail: two-tailed, left, right")

	_ = pvalueCmd.MarkFlagRequired("t")
	_ = pvalueCmd.MarkFlagRequired("n1")
	_ = pvalueCmd.MarkFlagRequired("n2")
}
