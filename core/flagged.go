package core

import (
	"context"
	"slices"
	"time"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/outwriter"
	"github.com/huangsam/tierscope/schema"
)

// ExecuteFlagged classifies the roster and prints the top performers and the anomalies.
func ExecuteFlagged(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	results, err := runClassification(ctx, cfg, mgr, nil)
	if err != nil {
		return err
	}
	flagged := FlagStudents(results)
	flagged.Excellent = LimitResults(flagged.Excellent, cfg.ResultLimit)
	flagged.Anomalies = LimitResults(flagged.Anomalies, cfg.ResultLimit)
	return outwriter.PrintFlaggedResults(flagged, cfg, time.Since(start))
}

// FlagStudents picks the Excellent students, best composite first, and the anomalous
// students, most severe first. The input is not modified.
func FlagStudents(results []schema.ClassificationResult) schema.FlaggedResult {
	out := schema.FlaggedResult{
		Excellent: []schema.ClassificationResult{},
		Anomalies: []schema.ClassificationResult{},
	}
	for _, r := range results {
		if r.FinalTier == schema.ExcellentTier {
			out.Excellent = append(out.Excellent, r)
		}
		if r.AnomalyDetected {
			r.AnomalyReasons = slices.Clone(r.AnomalyReasons)
			out.Anomalies = append(out.Anomalies, r)
		}
	}
	RankByComposite(out.Excellent)
	RankBySeverity(out.Anomalies)
	return out
}
