package schema

// InsufficientReason is the only anomaly reason attached to an insufficient student.
const InsufficientReason = "no score or time data yet"

// ReasonSeparator joins anomaly reasons into a single display string.
const ReasonSeparator = " | "

// DetailedScores carries raw values so a reporting layer can render a result without
// recomputing anything.
type DetailedScores struct {
	TotalScore      float64 `json:"total_score"`
	MidtermScore    float64 `json:"midterm_score"`
	FinalScore      float64 `json:"final_score"`
	AttendanceRate  float64 `json:"attendance_rate"` // percent
	BehaviorScore   float64 `json:"behavior_score"`
	LateSubmissions int     `json:"late_submissions"`
	AvgTimeMinutes  float64 `json:"avg_time_minutes"`
}

// ClassificationResult is the output entity, one per input student in input order.
type ClassificationResult struct {
	StudentID       int64                    `json:"student_id"`
	Name            string                   `json:"name"`
	ClassCode       string                   `json:"class"`
	Sufficient      bool                     `json:"sufficient"`
	KMeansTier      Tier                     `json:"kmeans_prediction"`
	KNNTier         Tier                     `json:"knn_prediction"`
	PrimaryTier     Tier                     `json:"primary_tier"`
	FinalTier       Tier                     `json:"final_tier"`
	CompositeScore  float64                  `json:"composite_score"`
	Breakdown       map[BreakdownKey]float64 `json:"breakdown,omitempty"`
	AnomalyDetected bool                     `json:"anomaly_detected"`
	AnomalyReasons  []string                 `json:"anomaly_reasons"`
	AnomalyReason   string                   `json:"anomaly_reason"`
	AnomalySeverity int                      `json:"anomaly_severity"`
	Details         *DetailedScores          `json:"detailed_scores,omitempty"`
}

// NewInsufficientResult stamps the sentinel output for a student without enough data.
func NewInsufficientResult(r *StudentRecord) ClassificationResult {
	return ClassificationResult{
		StudentID:      r.ID,
		Name:           r.Name,
		ClassCode:      r.ClassCode,
		KMeansTier:     InsufficientTier,
		KNNTier:        InsufficientTier,
		PrimaryTier:    InsufficientTier,
		FinalTier:      InsufficientTier,
		AnomalyReasons: []string{InsufficientReason},
		AnomalyReason:  InsufficientReason,
	}
}

// TierCounts tallies final tiers, including the sentinel.
func TierCounts(results []ClassificationResult) map[Tier]int {
	counts := make(map[Tier]int, len(TierOrder)+1)
	for _, r := range results {
		counts[r.FinalTier]++
	}
	return counts
}
