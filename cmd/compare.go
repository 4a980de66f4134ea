package cmd

import (
	"github.com/huangsam/tierscope/core"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/spf13/cobra"
)

// compareCmd compares the classification methods side by side.
var compareCmd = &cobra.Command{
	Use:   "compare [roster]",
	Short: "Compare k-means, kNN, combined and pipeline tiers against reference labels",
	Long: `Run four classification methods on the same roster and compare their tier distributions.

Methods:
- kmeans-only - cluster tiers ranked by the cluster composite
- knn-only    - kNN trained on the reference labels
- combined    - kNN trained on the cluster tiers with the compact preset
- pipeline    - the tiers reported by classify

For each method the comparison shows the count per tier, the agreement with the reference
labels, and the holdout accuracy where a model is trained.

Reference labels:
- total-score - quartiles of the aggregate total score
- blended     - quartiles of a blend of scores, attendance and behavior

Examples:
  # Compare methods on a roster file
  tierscope compare students.csv

  # Use the blended reference labels
  tierscope compare --reference blended

  # Save the comparison as JSON
  tierscope compare students.json --output json --output-file compare.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCompare(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run comparison", err)
		}
	},
}
