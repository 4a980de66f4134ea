package schema

// WeightedTerm is one factor of a composite formula.
type WeightedTerm struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
}

// PresetWithData describes a cluster composite preset with its resolved formula.
type PresetWithData struct {
	Name    string         `json:"name"`
	Purpose string         `json:"purpose"`
	Terms   []WeightedTerm `json:"terms"`
	Formula string         `json:"formula"`
	Active  bool           `json:"active"`
}

// ThresholdStep is one rung of a threshold ladder (penalty or tier cut-off).
type ThresholdStep struct {
	Condition string  `json:"condition"`
	Value     float64 `json:"value"`
}

// PenaltyLadder groups the steps of one penalty.
type PenaltyLadder struct {
	Name  string          `json:"name"`
	Steps []ThresholdStep `json:"steps"`
}

// AnomalyRuleInfo describes one row of the anomaly decision table.
type AnomalyRuleInfo struct {
	Group     string `json:"group"`
	Condition string `json:"condition"`
	Severity  int    `json:"severity"`
	Reason    string `json:"reason"`
}

// MetricsRenderModel contains all processed data needed for displaying formula definitions.
type MetricsRenderModel struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	ClusterPresets []PresetWithData  `json:"cluster_presets"`
	PrimaryFormula string            `json:"primary_formula"`
	Penalties      []PenaltyLadder   `json:"penalties"`
	TierCutoffs    []ThresholdStep   `json:"tier_cutoffs"`
	AnomalyRules   []AnomalyRuleInfo `json:"anomaly_rules"`
	Demotion       map[int]string    `json:"demotion"`
}
