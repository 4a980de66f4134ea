package core

import (
	"github.com/huangsam/tierscope/core/algo"
	"github.com/huangsam/tierscope/schema"
)

// ResultBuilder builds the classification result of one sufficient student.
type ResultBuilder struct {
	record *schema.StudentRecord
	engine *algo.AnomalyEngine
	stats  algo.CourseStats
	result *schema.ClassificationResult
}

// NewResultBuilder is the starting point for building a result. The record must
// already be clamped and sufficient.
func NewResultBuilder(r *schema.StudentRecord, engine *algo.AnomalyEngine) *ResultBuilder {
	if engine == nil {
		engine = algo.NewAnomalyEngine()
	}
	return &ResultBuilder{
		record: r,
		engine: engine,
		stats:  algo.Summarize(r),
		result: &schema.ClassificationResult{
			StudentID:      r.ID,
			Name:           r.Name,
			ClassCode:      r.ClassCode,
			Sufficient:     true,
			AnomalyReasons: []string{},
		},
	}
}

// WithModelTiers records the cluster and neighbor tiers. They are kept for auditing only.
func (b *ResultBuilder) WithModelTiers(kmeans, knn schema.Tier) *ResultBuilder {
	b.result.KMeansTier = kmeans
	b.result.KNNTier = knn
	return b
}

// CalculateComposite scores the raw signals and sets the primary tier.
func (b *ResultBuilder) CalculateComposite() *ResultBuilder {
	composite := algo.PrimaryComposite(algo.CompositeInputFromRecord(b.record))
	b.result.CompositeScore = composite.Score
	b.result.Breakdown = composite.Breakdown
	b.result.PrimaryTier = composite.Tier
	return b
}

// EvaluateAnomalies runs the rule engine over the raw signals.
func (b *ResultBuilder) EvaluateAnomalies() *ResultBuilder {
	report := b.engine.Evaluate(algo.SignalsFromRecord(b.record))
	b.result.AnomalyDetected = report.Detected
	b.result.AnomalyReasons = report.Reasons
	b.result.AnomalyReason = report.Reason()
	b.result.AnomalySeverity = report.Severity
	return b
}

// ApplyDemotion derives the final tier from the primary tier and severity.
func (b *ResultBuilder) ApplyDemotion() *ResultBuilder {
	b.result.FinalTier = algo.Demote(b.result.PrimaryTier, b.result.AnomalySeverity)
	return b
}

// CollectDetails copies the raw values a report needs.
func (b *ResultBuilder) CollectDetails() *ResultBuilder {
	bh := b.record.Behavioral
	agg := b.record.Aggregates
	b.result.Details = &schema.DetailedScores{
		TotalScore:      schema.ValueOr(agg.TotalScore, 0),
		MidtermScore:    schema.ValueOr(agg.MidtermScore, 0),
		FinalScore:      schema.ValueOr(agg.FinalScore, 0),
		AttendanceRate:  schema.ValueOr(bh.AttendanceRate, 0) * 100,
		BehaviorScore:   schema.ValueOr(bh.BehaviorScore, 0),
		LateSubmissions: schema.ValueOr(bh.LateSubmissions, 0),
		AvgTimeMinutes:  b.stats.AvgMinutes,
	}
	return b
}

// Build returns the finished result.
func (b *ResultBuilder) Build() schema.ClassificationResult {
	return *b.result
}
