package algo

import (
	"testing"

	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func column(values ...float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

// TestNeighborsFor tests the neighbor count rule.
func TestNeighborsFor(t *testing.T) {
	tests := []struct {
		train    int
		expected int
	}{
		{0, 1}, {9, 1}, {20, 2}, {35, 3}, {70, 5}, {500, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NeighborsFor(tt.train), "train=%d", tt.train)
	}
}

// TestKNNPredict tests distance-weighted voting.
func TestKNNPredict(t *testing.T) {
	knn := NewKNN(3)
	require.NoError(t, knn.Fit(column(0, 1, 10, 11), []schema.Tier{
		schema.GoodTier, schema.GoodTier, schema.WeakTier, schema.WeakTier,
	}))

	pred, err := knn.Predict(column(0.5, 10.4))
	require.NoError(t, err)
	assert.Equal(t, []schema.Tier{schema.GoodTier, schema.WeakTier}, pred)

	acc, err := knn.Score(column(0.5, 10.4), []schema.Tier{schema.GoodTier, schema.GoodTier})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, acc, 1e-9)
}

// TestKNNExactMatch tests that zero-distance neighbors take all the weight.
func TestKNNExactMatch(t *testing.T) {
	knn := NewKNN(3)
	require.NoError(t, knn.Fit(column(0, 0.1, 0.2), []schema.Tier{
		schema.GoodTier, schema.WeakTier, schema.WeakTier,
	}))

	pred, err := knn.Predict(column(0))
	require.NoError(t, err)
	assert.Equal(t, []schema.Tier{schema.GoodTier}, pred)
}

// TestKNNTieBreak tests that equal votes go to the smallest label.
func TestKNNTieBreak(t *testing.T) {
	for _, labels := range [][]schema.Tier{
		{schema.WeakTier, schema.GoodTier},
		{schema.GoodTier, schema.WeakTier},
	} {
		knn := NewKNN(2)
		require.NoError(t, knn.Fit(column(-1, 1), labels))

		pred, err := knn.Predict(column(0))
		require.NoError(t, err)
		assert.Equal(t, []schema.Tier{schema.GoodTier}, pred)
	}
}

// TestKNNErrors tests misuse and clamping.
func TestKNNErrors(t *testing.T) {
	knn := NewKNN(10)
	_, err := knn.Predict(column(1))
	assert.True(t, eris.Is(err, ErrNotFitted))

	assert.Error(t, knn.Fit(column(1, 2), []schema.Tier{schema.GoodTier}))
	assert.Error(t, NewKNN(0).Fit(column(1), []schema.Tier{schema.GoodTier}))

	require.NoError(t, knn.Fit(column(1, 2, 3, 4), []schema.Tier{
		schema.GoodTier, schema.GoodTier, schema.WeakTier, schema.WeakTier,
	}))
	assert.Equal(t, 4, knn.Neighbors())
	_, err = knn.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	assert.Error(t, err)
}
