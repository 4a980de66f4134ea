package schema

// Custom string types for type safety.
type (
	// Tier is one of the four performance tiers or the insufficient-data sentinel.
	Tier string

	// BreakdownKey represents keys used in composite breakdowns.
	BreakdownKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// NormalizationMethod represents the feature rescaling strategy.
	NormalizationMethod string

	// CompositePreset names a cluster composite weight table.
	CompositePreset string

	// ReferencePreset names a formula used to derive reference labels for evaluation.
	ReferencePreset string

	// DatabaseBackend represents the database backend for roster and run storage.
	DatabaseBackend string

	// RunState represents the lifecycle state of a classification session.
	RunState string
)

// All tiers, best first.
const (
	ExcellentTier    Tier = "Excellent"
	GoodTier         Tier = "Good"
	AverageTier      Tier = "Average"
	WeakTier         Tier = "Weak"
	InsufficientTier Tier = "insufficient data" // sentinel
)

// TierOrder lists the real tiers from best to worst. Index is the tier rank.
var TierOrder = []Tier{ExcellentTier, GoodTier, AverageTier, WeakTier}

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All normalization methods supported.
const (
	MinMaxNorm NormalizationMethod = "minmax" // default
	ZScoreNorm NormalizationMethod = "zscore"
	RobustNorm NormalizationMethod = "robust"
)

// All cluster composite presets supported.
const (
	StandardPreset CompositePreset = "standard" // default
	CompactPreset  CompositePreset = "compact"
)

// All reference label presets supported.
const (
	TotalScoreReference ReferencePreset = "total-score" // default
	BlendedReference    ReferencePreset = "blended"
)

// All storage backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Session states.
const (
	UnfitState      RunState = "unfit"
	FittingState    RunState = "fitting"
	FitState        RunState = "fit"
	PredictingState RunState = "predicting"
)

// AllNormalizationMethods returns a list of all supported normalization methods.
var AllNormalizationMethods = []NormalizationMethod{MinMaxNorm, ZScoreNorm, RobustNorm}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidNormalizationMethods lists all valid normalization methods.
var ValidNormalizationMethods = map[NormalizationMethod]struct{}{
	MinMaxNorm: {},
	ZScoreNorm: {},
	RobustNorm: {},
}

// ValidCompositePresets lists all valid cluster composite presets.
var ValidCompositePresets = map[CompositePreset]struct{}{
	StandardPreset: {},
	CompactPreset:  {},
}

// ValidReferencePresets lists all valid reference label presets.
var ValidReferencePresets = map[ReferencePreset]struct{}{
	TotalScoreReference: {},
	BlendedReference:    {},
}

// ValidDatabaseBackends lists all valid storage backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// GetDefaultWeights returns the cluster composite weights for a preset, keyed by feature.
func GetDefaultWeights(preset CompositePreset) map[BreakdownKey]float64 {
	switch preset {
	case CompactPreset:
		return map[BreakdownKey]float64{
			FeatureAvgScore:    0.40,
			FeatureBehavior:    0.20,
			FeatureAttendance:  0.20,
			FeaturePunctuality: 0.20,
		}
	default: // StandardPreset
		return map[BreakdownKey]float64{
			FeatureAvgScore:     0.15,
			FeatureMidterm:      0.10,
			FeatureFinal:        0.15,
			FeatureHomework:     0.10,
			FeatureBehavior:     0.10,
			FeatureAttendance:   0.10,
			FeaturePunctuality:  0.10,
			FeatureAssignment:   0.05,
			FeatureAnomalyFree:  0.10,
			FeatureStability:    0.05,
			FeatureAvgTime:      0,
			FeatureLateFraction: 0,
		}
	}
}
