// Package cmd defines the command-line interface for tierscope.
package cmd

import (
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(flaggedCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the roster subcommands to the parent roster command
	rosterCmd.AddCommand(rosterStatusCmd)
	rosterCmd.AddCommand(rosterClearCmd)
	rosterCmd.AddCommand(rosterImportCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().IntP("clusters", "k", contract.DefaultClusters, "Number of k-means clusters (2-10)")
	rootCmd.PersistentFlags().String("normalization", string(schema.MinMaxNorm), "Feature normalization: minmax or zscore or robust")
	rootCmd.PersistentFlags().String("preset", string(schema.StandardPreset), "Cluster composite preset: standard or compact")
	rootCmd.PersistentFlags().String("reference", string(schema.TotalScoreReference), "Reference labels for compare and evaluate: total-score or blended")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent k-means restarts")
	rootCmd.PersistentFlags().Int64("seed", contract.DefaultSeed, "Random seed for clustering, splits and generated rosters")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display (0 = all)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Bool("detail", false, "Print per-student metrics (scores, attendance, behavior)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("roster-backend", string(schema.SQLiteBackend), "Roster store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("roster-db-connect", "", "Connection string for the roster store (SQLite file path, or mysql/postgresql DSN)")
	rootCmd.PersistentFlags().String("runs-backend", string(schema.SQLiteBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Connection string for run history (must differ from roster-db-connect)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.LogFormatConsole, "Log format: console or json")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of classifyCmd to Viper
	classifyCmd.Flags().Bool("explain", false, "Print the top composite contributions per student")
	if err := viper.BindPFlags(classifyCmd.Flags()); err != nil {
		contract.LogFatal("Error binding classify flags", err)
	}

	// Bind all flags of generateCmd to Viper
	generateCmd.Flags().Int("count", contract.DefaultGenerateCount, "Number of students to generate")
	generateCmd.Flags().Bool("save", false, "Save generated students to the roster store instead of printing them")
	if err := viper.BindPFlags(generateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding generate flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
