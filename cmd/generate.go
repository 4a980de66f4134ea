package cmd

import (
	"os"

	"github.com/huangsam/tierscope/core"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/spf13/cobra"
)

// generateCmd draws a synthetic roster.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic student roster",
	Long: `Draw a reproducible synthetic roster for demos and testing.

Students are drawn from four profiles (excellent, good, average, weak) with matching
scores, attendance and behavior. The same --seed always yields the same roster.

Output:
- stdout as JSON by default
- --output-file writes JSON, YAML or CSV based on the file extension
- --save upserts the students into the roster store

Examples:
  # Print 20 students as JSON
  tierscope generate --count 20

  # Write a CSV roster
  tierscope generate --count 200 --output-file students.csv

  # Seed the roster store for classify
  tierscope generate --save && tierscope classify`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteGenerate(rootCtx, cfg, storeManager, os.Stdout); err != nil {
			contract.LogFatal("Cannot generate roster", err)
		}
	},
}
