package core

import (
	"cmp"
	"slices"

	"github.com/huangsam/tierscope/schema"
)

// LimitResults returns the first limit items. A limit of 0 or more than the number
// of items returns everything.
func LimitResults[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// RankByComposite sorts results by composite score in descending order, then by id.
// Insufficient students go last.
func RankByComposite(results []schema.ClassificationResult) {
	slices.SortStableFunc(results, func(a, b schema.ClassificationResult) int {
		return cmp.Or(
			compareBool(b.Sufficient, a.Sufficient),
			cmp.Compare(b.CompositeScore, a.CompositeScore),
			cmp.Compare(a.StudentID, b.StudentID),
		)
	})
}

// TopResults returns a ranked copy of results cut to limit. The input keeps its order.
func TopResults(results []schema.ClassificationResult, limit int) []schema.ClassificationResult {
	ranked := slices.Clone(results)
	RankByComposite(ranked)
	return LimitResults(ranked, limit)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

// RankBySeverity sorts results by anomaly severity in descending order, then by id.
func RankBySeverity(results []schema.ClassificationResult) {
	slices.SortStableFunc(results, func(a, b schema.ClassificationResult) int {
		return cmp.Or(cmp.Compare(b.AnomalySeverity, a.AnomalySeverity), cmp.Compare(a.StudentID, b.StudentID))
	})
}
