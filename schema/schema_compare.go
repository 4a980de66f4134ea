package schema

// MethodReport summarizes one classification method against reference labels.
type MethodReport struct {
	Method          string       `json:"method"`
	Distribution    map[Tier]int `json:"distribution"`
	Agreement       float64      `json:"agreement"` // fraction of students matching the reference label
	HoldoutAccuracy *float64     `json:"holdout_accuracy,omitempty"`
	Note            string       `json:"note,omitempty"`
}

// ComparisonResult holds method reports for one roster.
type ComparisonResult struct {
	Reference          ReferencePreset `json:"reference"`
	TotalStudents      int             `json:"total_students"`
	ClassifiedStudents int             `json:"classified_students"`
	Methods            []MethodReport  `json:"methods"`
}

// ClassMetrics are weighted classification metrics over a holdout set.
type ClassMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// SplitReport is one train/test split evaluation.
type SplitReport struct {
	TestFraction float64       `json:"test_fraction"`
	TrainSize    int           `json:"train_size"`
	TestSize     int           `json:"test_size"`
	Metrics      *ClassMetrics `json:"metrics,omitempty"`
	Skipped      string        `json:"skipped,omitempty"`
}

// NormalizationReport is one normalizer evaluation at the default split.
type NormalizationReport struct {
	Method  NormalizationMethod `json:"method"`
	Metrics *ClassMetrics       `json:"metrics,omitempty"`
	Skipped string              `json:"skipped,omitempty"`
}

// CrossValidationReport summarizes stratified k-fold accuracy.
type CrossValidationReport struct {
	Folds   int       `json:"folds"`
	Scores  []float64 `json:"scores,omitempty"`
	Mean    float64   `json:"mean"`
	Std     float64   `json:"std"`
	Skipped string    `json:"skipped,omitempty"`
}

// NeighborSweepReport is one k evaluation at the default split.
type NeighborSweepReport struct {
	K       int           `json:"k"`
	Metrics *ClassMetrics `json:"metrics,omitempty"`
	Skipped string        `json:"skipped,omitempty"`
}

// EvaluationReport is the output of the evaluation harness.
type EvaluationReport struct {
	Reference       ReferencePreset       `json:"reference"`
	Students        int                   `json:"students"`
	Splits          []SplitReport         `json:"splits"`
	Normalizations  []NormalizationReport `json:"normalizations"`
	CrossValidation CrossValidationReport `json:"cross_validation"`
	NeighborSweep   []NeighborSweepReport `json:"neighbor_sweep"`
}

// FlaggedResult is the special-students view: top performers and anomalies.
type FlaggedResult struct {
	Excellent []ClassificationResult `json:"excellent"`
	Anomalies []ClassificationResult `json:"anomalies"`
}
