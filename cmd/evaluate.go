package cmd

import (
	"github.com/huangsam/tierscope/core"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/spf13/cobra"
)

// evaluateCmd runs the evaluation harness.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [roster]",
	Short: "Measure classifier accuracy with holdout splits and cross-validation",
	Long: `Evaluate the kNN refinement against reference labels.

The harness reports:
- Holdout accuracy, precision, recall and F1 for 20%, 30% and 40% test splits
- Accuracy of each normalization method on the same split
- Stratified k-fold cross-validation accuracy with its spread
- A sweep over the number of neighbors

Settings that cannot be evaluated, for example a split with a single class, are reported
as skipped with the reason.

Examples:
  # Evaluate a roster file
  tierscope evaluate students.csv

  # Evaluate against the blended reference labels
  tierscope evaluate --reference blended

  # Write the report as CSV
  tierscope evaluate students.json --output csv --output-file evaluation.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteEvaluate(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run evaluation", err)
		}
	},
}
