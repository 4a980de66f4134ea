package cmd

import (
	"github.com/huangsam/tierscope/core"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/spf13/cobra"
)

// metricsCmd displays the formal definitions of the composites and rules.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display composite formulas, penalties, tier cut-offs and anomaly rules",
	Long: `Show the formal definitions behind every tier and flag.

Provides complete transparency into how students are ranked, including:
- Cluster composite presets and their feature weights
- The primary composite with its penalty ladders
- Tier cut-offs on the primary composite
- The anomaly decision table with severities
- The demotion applied to anomalous Excellent students

No roster is read - this is purely informational.

Examples:
  # Show the formulas
  tierscope metrics

  # Mark the compact preset as active
  tierscope metrics --preset compact

  # Export the definitions as JSON
  tierscope metrics --output json`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMetrics(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
