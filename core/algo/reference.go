package algo

import "github.com/huangsam/tierscope/schema"

// ReferenceScore is the 0-10 score a reference preset assigns to a record. The total-score
// preset prefers the aggregate total and falls back to the course average. The blended
// preset mixes that score with behavior and attendance, counting absent values as zero.
func ReferenceScore(r *schema.StudentRecord, preset schema.ReferencePreset) float64 {
	score := schema.ValueOr(r.Aggregates.TotalScore, Summarize(r).AvgScore)
	if preset != schema.BlendedReference {
		return score
	}
	b := r.Behavioral
	behavior := schema.ValueOr(b.BehaviorScore, 0) / behaviorScale
	attendance := schema.ValueOr(b.AttendanceRate, 0)
	return 0.5*score + 0.3*10*behavior + 0.2*10*attendance
}

// ReferenceLabels maps every record onto a tier with the reference preset.
func ReferenceLabels(records []schema.StudentRecord, preset schema.ReferencePreset) []schema.Tier {
	labels := make([]schema.Tier, len(records))
	for i := range records {
		labels[i] = schema.TierFromScore(ReferenceScore(&records[i], preset))
	}
	return labels
}
