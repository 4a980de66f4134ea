package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/iocache"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profilePrefix is the file prefix for CPU and memory profiles. Empty disables profiling.
var profilePrefix string

// storeManager is the global persistence manager instance.
var storeManager contract.StoreManager = iocache.Manager

// startProfiling starts CPU profiling if enabled.
func startProfiling() error {
	if profilePrefix == "" {
		return nil
	}

	cpuFile, err := os.Create(profilePrefix + ".cpu.prof")
	if err != nil {
		return eris.Wrap(err, "could not create CPU profile")
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return eris.Wrap(err, "could not start CPU profiling")
	}

	// Memory profiling will be captured at the end
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profilePrefix, profilePrefix)
	return err
}

// stopProfiling stops profiling and writes memory profile.
func stopProfiling() error {
	if profilePrefix == "" {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profilePrefix + ".mem.prof")
	if err != nil {
		return eris.Wrap(err, "could not create memory profile")
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return eris.Wrap(err, "could not write memory profile")
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profilePrefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "tierscope",
	Short: "Classify students into performance tiers and flag anomalies.",
	Long: `Tierscope clusters a roster of students into Excellent, Good, Average and Weak tiers.

It blends k-means clustering with a k-nearest-neighbor refinement, ranks students by a
weighted composite score, and flags anomalous score patterns for review.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if err := stopProfiling(); err != nil {
			contract.LogWarn("Failed to stop profiling", err)
		}
		iocache.CloseStores()
		contract.SyncLogger()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix
	viper.SetEnvPrefix("TIERSCOPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("clusters", contract.DefaultClusters)
	viper.SetDefault("normalization", string(schema.MinMaxNorm))
	viper.SetDefault("preset", string(schema.StandardPreset))
	viper.SetDefault("reference", string(schema.TotalScoreReference))
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("seed", contract.DefaultSeed)
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", string(schema.TextOut))
	viper.SetDefault("roster-backend", string(schema.SQLiteBackend))
	viper.SetDefault("roster-db-connect", "")
	viper.SetDefault("runs-backend", string(schema.SQLiteBackend))
	viper.SetDefault("runs-db-connect", "")
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("log-format", contract.LogFormatConsole)
	viper.SetDefault("color", "yes")
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".tierscope") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return eris.Wrap(err, "error reading config file")
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// configSetup resolves and validates the configuration without touching the stores.
// Clear and migrate commands use it directly so they can run on a missing or broken database.
func configSetup(_ context.Context, _ *cobra.Command, args []string) error {
	profilePrefix = viper.GetString("profile")
	if err := startProfiling(); err != nil {
		return eris.Wrap(err, "failed to start profiling")
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return eris.Wrap(err, "unable to unmarshal config")
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.RosterPathStr = ""
	if len(args) == 1 {
		input.RosterPathStr = args[0]
	}

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	return contract.InitLogger(cfg.Log)
}

// sharedSetup validates the configuration and opens the roster and run stores.
func sharedSetup(ctx context.Context, cmd *cobra.Command, args []string) error {
	if err := configSetup(ctx, cmd, args); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.RosterBackend, cfg.RosterDBConnect, cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return eris.Wrap(err, "failed to initialize persistence")
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// configSetupWrapper wraps configSetup to provide context for Cobra's PreRunE.
func configSetupWrapper(cmd *cobra.Command, args []string) error {
	return configSetup(rootCtx, cmd, args)
}

// sqliteFilePath returns the SQLite file a store uses: the connection string when set,
// otherwise the default file in the home directory.
func sqliteFilePath(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
