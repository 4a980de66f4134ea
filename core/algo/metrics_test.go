package algo

import (
	"testing"

	"github.com/huangsam/tierscope/schema"
	"github.com/stretchr/testify/assert"
)

// TestEvaluate tests accuracy and weighted precision, recall and F1.
func TestEvaluate(t *testing.T) {
	truth := []schema.Tier{schema.GoodTier, schema.GoodTier, schema.WeakTier, schema.WeakTier}
	pred := []schema.Tier{schema.GoodTier, schema.WeakTier, schema.WeakTier, schema.WeakTier}

	m := Evaluate(truth, pred)
	assert.InDelta(t, 0.75, m.Accuracy, 1e-9)
	assert.InDelta(t, 5.0/6, m.Precision, 1e-9)
	assert.InDelta(t, 0.75, m.Recall, 1e-9)
	assert.InDelta(t, (2.0/3+0.8)/2, m.F1, 1e-9)
}

// TestEvaluateZeroDivision tests classes that are never predicted.
func TestEvaluateZeroDivision(t *testing.T) {
	truth := []schema.Tier{schema.GoodTier, schema.WeakTier}
	pred := []schema.Tier{schema.WeakTier, schema.WeakTier}

	m := Evaluate(truth, pred)
	assert.InDelta(t, 0.5, m.Accuracy, 1e-9)
	assert.InDelta(t, 0.25, m.Precision, 1e-9)
	assert.InDelta(t, 0.5, m.Recall, 1e-9)

	assert.Equal(t, schema.ClassMetrics{}, Evaluate(nil, nil))
	assert.Zero(t, Accuracy(truth, pred[:1]))
}
