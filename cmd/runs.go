package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/iocache"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsCmd focused on classification run history.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage classification run history and exports",
	Long: `Manage the history of classification runs used for reporting.

When enabled, every classify run stores:
- Run metadata (timestamps, configuration, student counts)
- The tier, composite and anomaly of every student

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run history statistics
  export  - Export history to Parquet for analytics
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  # Check run history
  tierscope runs status

  # Export for analysis in pandas/DuckDB
  tierscope runs export --output-file runs-data`,
}

// runsStatusCmd shows run history status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show detailed information about the run history store.

Displays:
- Backend type and connection status
- Total number of runs and the latest run id
- Last and oldest run timestamps
- Table sizes

Examples:
  # Check run history status
  tierscope runs status`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := storeManager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get run status", eris.New("run store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all classification run history",
	Long: `Delete all stored classification runs and per-student results.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  tierscope runs export --output-file backup
  tierscope runs clear`,
	Args:    cobra.NoArgs,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := sqliteFilePath(cfg.RunsDBConnect, contract.GetRunsDBFilePath())
		if err := iocache.ClearRuns(cfg.RunsBackend, dbFile, cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// runsExportCmd exports run history to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored run history to Parquet format for use with analytics tools.

Exports two datasets:
- <output-file>.runs.parquet - metadata about each classification run
- <output-file>.student_results.parquet - tiers, composites and anomalies per student

Requires: --output-file parameter

Examples:
  # Export all data
  tierscope runs export --output-file tierscope-data

  # Use with DuckDB for analysis
  duckdb -c "SELECT final_tier, count(*) FROM read_parquet('tierscope-data.student_results.parquet') GROUP BY 1"`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteRunsExport(os.Stdout, storeManager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  tierscope runs migrate

  # Migrate to specific version
  tierscope runs migrate --target-version 1

  # Rollback to initial state
  tierscope runs migrate --target-version 0`,
	Args:    cobra.NoArgs,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		summary, err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, viper.GetInt("target-version"))
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println(summary)
	},
}
