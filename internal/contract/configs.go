package contract

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
)

// Default values for configuration.
const (
	DefaultClusters      = 4
	MinClusters          = 2
	MaxClusters          = 10
	DefaultSeed          = 42
	DefaultResultLimit   = 0 // all students
	MaxResultLimit       = 100000
	DefaultPrecision     = 2
	DefaultGenerateCount = 50
	MaxGenerateCount     = 100000
	DefaultLogLevel      = "info"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	RosterPath string // empty means load from the roster store

	Clusters      int
	Normalization schema.NormalizationMethod
	Preset        schema.CompositePreset
	Reference     schema.ReferencePreset
	Workers       int
	Seed          uint64

	ResultLimit int
	Detail      bool
	Explain     bool
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool

	GenerateCount int
	GenerateSave  bool // save generated students to the roster store

	RosterBackend   schema.DatabaseBackend
	RosterDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	Log LogConfig
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RosterPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Clusters        int    `mapstructure:"clusters"`
	Normalization   string `mapstructure:"normalization"`
	Preset          string `mapstructure:"preset"`
	Reference       string `mapstructure:"reference"`
	Workers         int    `mapstructure:"workers"`
	Seed            int64  `mapstructure:"seed"`
	OutputFile      string `mapstructure:"output-file"`
	Limit           int    `mapstructure:"limit"`
	Precision       int    `mapstructure:"precision"`
	Output          string `mapstructure:"output"`
	Detail          bool   `mapstructure:"detail"`
	Width           int    `mapstructure:"width"`
	Color           string `mapstructure:"color"`
	RosterBackend   string `mapstructure:"roster-backend"`
	RosterDBConnect string `mapstructure:"roster-db-connect"`
	RunsBackend     string `mapstructure:"runs-backend"`
	RunsDBConnect   string `mapstructure:"runs-db-connect"`
	LogLevel        string `mapstructure:"log-level"`
	LogFormat       string `mapstructure:"log-format"`

	// --- Fields from classifyCmd.Flags() ---
	Explain bool `mapstructure:"explain"`

	// --- Fields from generateCmd.Flags() ---
	Count int  `mapstructure:"count"`
	Save  bool `mapstructure:"save"`
}

// ConfigParams returns the run parameters recorded alongside a classification run.
func (c *Config) ConfigParams() map[string]any {
	return map[string]any{
		"clusters":      c.Clusters,
		"normalization": string(c.Normalization),
		"preset":        string(c.Preset),
		"seed":          c.Seed,
		"workers":       c.Workers,
		"roster":        c.RosterPath,
	}
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// RevalidateModel re-checks the pipeline knobs after they were overridden outside of
// ProcessAndValidate, for example by MCP tool arguments.
func RevalidateModel(cfg *Config) error {
	if cfg.Clusters < MinClusters || cfg.Clusters > MaxClusters {
		return eris.Errorf("clusters must be between %d and %d (received %d)", MinClusters, MaxClusters, cfg.Clusters)
	}
	if _, ok := schema.ValidNormalizationMethods[cfg.Normalization]; !ok {
		return eris.Errorf("invalid normalization '%s'. must be minmax, zscore, robust", cfg.Normalization)
	}
	if _, ok := schema.ValidReferencePresets[cfg.Reference]; !ok {
		return eris.Errorf("invalid reference '%s'. must be total-score, blended", cfg.Reference)
	}
	return nil
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateModelInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveRosterPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return eris.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return eris.New("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return eris.New("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return eris.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return eris.New("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return eris.New("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ValidateBackend parses a backend name and validates its connection string.
func ValidateBackend(name, connStr, flag string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(name))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", eris.Errorf("invalid %s '%s'. must be sqlite, mysql, postgresql, none", flag, name)
	}
	if err := ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", eris.Wrapf(err, "invalid %s connection", flag)
	}
	return backend, nil
}

// validateBackendConfigs validates roster and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	var err error
	if cfg.RosterBackend, err = ValidateBackend(input.RosterBackend, input.RosterDBConnect, "roster-backend"); err != nil {
		return err
	}
	cfg.RosterDBConnect = input.RosterDBConnect

	if cfg.RunsBackend, err = ValidateBackend(input.RunsBackend, input.RunsDBConnect, "runs-backend"); err != nil {
		return err
	}
	cfg.RunsDBConnect = input.RunsDBConnect

	// Roster and runs must use different SQLite files
	if cfg.RosterBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		rosterPath := cfg.RosterDBConnect
		if rosterPath == "" {
			rosterPath = GetRosterDBFilePath()
		}
		runsPath := cfg.RunsDBConnect
		if runsPath == "" {
			runsPath = GetRunsDBFilePath()
		}
		if rosterPath == runsPath {
			return eris.Errorf("roster and runs storage must use different SQLite database files. Both resolve to %q", rosterPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates output and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Explain = input.Explain
	cfg.Width = input.Width

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return eris.Wrap(err, "invalid --color value")
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return eris.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return eris.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 4 {
		return eris.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return eris.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return eris.New("parquet output requires --output-file")
	}

	// --- 4. Generate count ---
	if input.Count < 0 || input.Count > MaxGenerateCount {
		return eris.Errorf("count must be between 0 and %d (received %d)", MaxGenerateCount, input.Count)
	}
	cfg.GenerateCount = input.Count
	cfg.GenerateSave = input.Save
	if cfg.GenerateCount == 0 {
		cfg.GenerateCount = DefaultGenerateCount
	}

	// --- 5. Logging ---
	cfg.Log = LogConfig{Level: input.LogLevel, Format: strings.ToLower(input.LogFormat)}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = LogFormatConsole
	}
	if cfg.Log.Format != LogFormatConsole && cfg.Log.Format != LogFormatJSON {
		return eris.Errorf("invalid log format '%s'. must be console, json", input.LogFormat)
	}

	return nil
}

// validateModelInputs validates the pipeline knobs.
func validateModelInputs(cfg *Config, input *ConfigRawInput) error {
	if input.Clusters < MinClusters || input.Clusters > MaxClusters {
		return eris.Errorf("clusters must be between %d and %d (received %d)", MinClusters, MaxClusters, input.Clusters)
	}
	cfg.Clusters = input.Clusters

	cfg.Normalization = schema.NormalizationMethod(strings.ToLower(input.Normalization))
	if _, ok := schema.ValidNormalizationMethods[cfg.Normalization]; !ok {
		return eris.Errorf("invalid normalization '%s'. must be minmax, zscore, robust", input.Normalization)
	}

	cfg.Preset = schema.CompositePreset(strings.ToLower(input.Preset))
	if _, ok := schema.ValidCompositePresets[cfg.Preset]; !ok {
		return eris.Errorf("invalid preset '%s'. must be standard, compact", input.Preset)
	}

	cfg.Reference = schema.ReferencePreset(strings.ToLower(input.Reference))
	if _, ok := schema.ValidReferencePresets[cfg.Reference]; !ok {
		return eris.Errorf("invalid reference '%s'. must be total-score, blended", input.Reference)
	}

	if input.Seed < 0 {
		return eris.Errorf("seed must not be negative (received %d)", input.Seed)
	}
	cfg.Seed = uint64(input.Seed)

	return nil
}

// resolveRosterPath makes a provided roster path absolute.
func resolveRosterPath(cfg *Config, input *ConfigRawInput) error {
	cfg.RosterPath = ""
	if strings.TrimSpace(input.RosterPathStr) == "" {
		return nil
	}
	abs, err := filepath.Abs(input.RosterPathStr)
	if err != nil {
		return eris.Wrapf(err, "invalid roster path %q", input.RosterPathStr)
	}
	cfg.RosterPath = filepath.Clean(abs)
	return nil
}
