package algo

import (
	"slices"

	"github.com/huangsam/tierscope/schema"
)

// Accuracy is the share of predictions equal to the truth, 0 for empty input.
func Accuracy(truth, pred []schema.Tier) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return 0
	}
	hits := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

// Evaluate computes accuracy with support-weighted precision, recall and F1. A class with
// no predictions or no support scores zero on the undefined measure.
func Evaluate(truth, pred []schema.Tier) schema.ClassMetrics {
	out := schema.ClassMetrics{Accuracy: Accuracy(truth, pred)}
	if len(truth) == 0 || len(truth) != len(pred) {
		return out
	}

	support := make(map[schema.Tier]int)
	predicted := make(map[schema.Tier]int)
	hits := make(map[schema.Tier]int)
	for i := range truth {
		support[truth[i]]++
		predicted[pred[i]]++
		if truth[i] == pred[i] {
			hits[truth[i]]++
		}
	}

	classes := make([]schema.Tier, 0, len(support))
	for c := range support {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	total := float64(len(truth))
	for _, c := range classes {
		var precision, recall, f1 float64
		if predicted[c] > 0 {
			precision = float64(hits[c]) / float64(predicted[c])
		}
		recall = float64(hits[c]) / float64(support[c])
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		w := float64(support[c]) / total
		out.Precision += w * precision
		out.Recall += w * recall
		out.F1 += w * f1
	}
	return out
}
