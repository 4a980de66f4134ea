package cmd

import (
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the tierscope MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents classify rosters via standard tools.

Tools:
- classify_students    - classify a roster file, the stored roster, or an inline JSON roster
- get_flagged_students - Excellent students and anomalies
- compare_methods      - compare the classification methods against reference labels
- get_tier_metrics     - composite formulas, penalties and anomaly rules`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := sharedSetup(rootCtx, cmd, args); err != nil {
			return err
		}
		// Keep routine logs quiet while an agent drives the server.
		if level, err := zapcore.ParseLevel(cfg.Log.Level); err == nil && level < zapcore.WarnLevel {
			cfg.Log.Level = zapcore.WarnLevel.String()
		}
		return contract.InitLogger(cfg.Log)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
