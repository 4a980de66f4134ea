package core

import (
	"testing"

	"github.com/huangsam/tierscope/schema"
	"github.com/stretchr/testify/assert"
)

// TestLimitResults tests result limiting.
func TestLimitResults(t *testing.T) {
	items := []int{1, 2, 3, 4}
	tests := []struct {
		name  string
		limit int
		want  []int
	}{
		{"zero means all", 0, []int{1, 2, 3, 4}},
		{"limit below length", 2, []int{1, 2}},
		{"limit equals length", 4, []int{1, 2, 3, 4}},
		{"limit exceeds length", 10, []int{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LimitResults(items, tt.limit))
		})
	}
}

// TestRankByComposite tests composite ranking with id tie-breaks.
func TestRankByComposite(t *testing.T) {
	results := []schema.ClassificationResult{
		{StudentID: 4, CompositeScore: 6.0},
		{StudentID: 2, CompositeScore: 9.1},
		{StudentID: 3, CompositeScore: 6.0},
		{StudentID: 1, CompositeScore: 7.5},
	}
	RankByComposite(results)
	var ids []int64
	for _, r := range results {
		ids = append(ids, r.StudentID)
	}
	assert.Equal(t, []int64{2, 1, 3, 4}, ids)
}

// TestRankByCompositeInsufficientLast tests that insufficient students sort after all others.
func TestRankByCompositeInsufficientLast(t *testing.T) {
	results := []schema.ClassificationResult{
		{StudentID: 1, CompositeScore: 0, Sufficient: false},
		{StudentID: 2, CompositeScore: 1.2, Sufficient: true},
		{StudentID: 3, CompositeScore: 8.4, Sufficient: true},
	}
	RankByComposite(results)
	assert.Equal(t, []int64{3, 2, 1}, resultIDs(results))
}

// TestTopResults tests rank-then-limit without touching the input order.
func TestTopResults(t *testing.T) {
	results := []schema.ClassificationResult{
		{StudentID: 1, CompositeScore: 3.52, Sufficient: true},
		{StudentID: 2, CompositeScore: 6.10, Sufficient: true},
		{StudentID: 3, CompositeScore: 8.02, Sufficient: true},
		{StudentID: 4, CompositeScore: 7.00, Sufficient: true},
	}
	tests := []struct {
		name  string
		limit int
		want  []int64
	}{
		{"all", 0, []int64{3, 4, 2, 1}},
		{"top two", 2, []int64{3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resultIDs(TopResults(results, tt.limit)))
		})
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, resultIDs(results), "input order is kept")
}

func resultIDs(results []schema.ClassificationResult) []int64 {
	ids := make([]int64, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.StudentID)
	}
	return ids
}

// TestRankBySeverity tests severity ranking with id tie-breaks.
func TestRankBySeverity(t *testing.T) {
	results := []schema.ClassificationResult{
		{StudentID: 9, AnomalySeverity: 1},
		{StudentID: 5, AnomalySeverity: 3},
		{StudentID: 7, AnomalySeverity: 2},
		{StudentID: 6, AnomalySeverity: 3},
	}
	RankBySeverity(results)
	var ids []int64
	for _, r := range results {
		ids = append(ids, r.StudentID)
	}
	assert.Equal(t, []int64{5, 6, 7, 9}, ids)
}
