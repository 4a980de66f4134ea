package cmd

import (
	"github.com/huangsam/tierscope/core"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/spf13/cobra"
)

// flaggedCmd lists the students that deserve a closer look.
var flaggedCmd = &cobra.Command{
	Use:   "flagged [roster]",
	Short: "List Excellent students and students with anomalies",
	Long: `Classify a roster and show only the students that stand out.

Two lists are printed:
- Excellent students, in composite order
- Students with a detected anomaly, most severe first, with the reason

Anomalies include high scores earned in very little study time, high scores next to
poor attendance, and frequent late submissions.

Examples:
  # Review the stored roster
  tierscope flagged

  # Show the ten most severe anomalies of a file
  tierscope flagged students.csv --limit 10

  # Export both lists
  tierscope flagged students.csv --output csv --output-file flagged.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFlagged(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list flagged students", err)
		}
	},
}
