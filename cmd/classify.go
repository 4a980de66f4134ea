package cmd

import (
	"github.com/huangsam/tierscope/core"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/spf13/cobra"
)

// classifyCmd runs the full classification pipeline.
var classifyCmd = &cobra.Command{
	Use:   "classify [roster]",
	Short: "Classify students into Excellent, Good, Average and Weak tiers",
	Long: `Fit the classification pipeline on a roster and print one row per student.

The pipeline:
- Normalizes twelve features per student (scores, attendance, behavior, consistency)
- Clusters students with k-means and ranks clusters by a weighted composite
- Refines the cluster labels with a k-nearest-neighbor vote
- Scores every student with the primary composite and its penalty ladders
- Flags anomalous score patterns and demotes the most severe Excellent cases

Students with fewer than three courses are reported as insufficient data.

The roster is read from the file argument (.json, .yaml or .csv) or, when omitted,
from the roster store. Each run is recorded in the run history store.

Examples:
  # Classify a CSV roster
  tierscope classify students.csv

  # Classify the stored roster with per-student details
  tierscope classify --detail --explain

  # Try the z-score normalization with six clusters
  tierscope classify students.json -k 6 --normalization zscore

  # Export the results for a spreadsheet
  tierscope classify students.yaml --output csv --output-file tiers.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteClassify(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run classification", err)
		}
	},
}
