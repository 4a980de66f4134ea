package schema

// Feature keys, in feature vector column order.
const (
	FeatureAvgScore     BreakdownKey = "avg_score"     // avg / 10
	FeatureMidterm      BreakdownKey = "midterm"       // midterm / 10
	FeatureFinal        BreakdownKey = "final"         // final / 10
	FeatureHomework     BreakdownKey = "homework"      // homework / 10
	FeatureBehavior     BreakdownKey = "behavior"      // behavior / 100
	FeatureAttendance   BreakdownKey = "attendance"    // attendance rate
	FeaturePunctuality  BreakdownKey = "punctuality"   // 1 - late / 10
	FeatureAssignment   BreakdownKey = "assignment"    // assignment completion
	FeatureAvgTime      BreakdownKey = "avg_time"      // avg minutes / 600
	FeatureAnomalyFree  BreakdownKey = "anomaly_free"  // 1 - coarse anomaly flag
	FeatureLateFraction BreakdownKey = "late_fraction" // late / 10
	FeatureStability    BreakdownKey = "stability"     // 1 - pstdev / 5
)

// FeatureKeys lists feature keys by column index.
var FeatureKeys = []BreakdownKey{
	FeatureAvgScore,
	FeatureMidterm,
	FeatureFinal,
	FeatureHomework,
	FeatureBehavior,
	FeatureAttendance,
	FeaturePunctuality,
	FeatureAssignment,
	FeatureAvgTime,
	FeatureAnomalyFree,
	FeatureLateFraction,
	FeatureStability,
}

// NumFeatures is the width of a feature vector.
const NumFeatures = 12

// Primary composite breakdown keys.
const (
	BreakdownScorePart         BreakdownKey = "score_part"
	BreakdownBehaviorPart      BreakdownKey = "behavior_part"
	BreakdownLatePenalty       BreakdownKey = "late_penalty"
	BreakdownAttendancePenalty BreakdownKey = "attendance_penalty"
	BreakdownTimePenalty       BreakdownKey = "time_penalty"
)

// FeatureIndex returns the column of a feature key, or -1 when unknown.
func FeatureIndex(key BreakdownKey) int {
	for i, k := range FeatureKeys {
		if k == key {
			return i
		}
	}
	return -1
}
