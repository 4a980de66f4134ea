package algo

import (
	"cmp"
	"slices"

	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FallbackNeighbors is the neighbor count used when no stratified split is possible.
const FallbackNeighbors = 3

// NeighborsFor returns max(1, min(5, trainSize/10)).
func NeighborsFor(trainSize int) int {
	return max(1, min(5, trainSize/10))
}

// KNN is a distance-weighted k-nearest-neighbor classifier over tiers.
type KNN struct {
	K       int
	x       *mat.Dense
	y       []schema.Tier
	classes []schema.Tier
}

// NewKNN creates an unfitted classifier with k neighbors.
func NewKNN(k int) *KNN {
	return &KNN{K: k}
}

// Fit memorizes the training rows and their labels.
func (kn *KNN) Fit(x *mat.Dense, labels []schema.Tier) error {
	if x == nil || x.IsEmpty() {
		return eris.Wrap(ErrDataInsufficient, "algo: knn fit on empty matrix")
	}
	rows, _ := x.Dims()
	if rows != len(labels) {
		return eris.Errorf("algo: knn got %d rows and %d labels", rows, len(labels))
	}
	if kn.K < 1 {
		return eris.Errorf("algo: neighbor count must be positive, got %d", kn.K)
	}
	kn.x = mat.DenseCopyOf(x)
	kn.y = slices.Clone(labels)
	kn.classes = slices.Compact(slices.Sorted(slices.Values(labels)))
	return nil
}

// Fitted reports whether Fit succeeded.
func (kn *KNN) Fitted() bool {
	return kn.x != nil
}

// Neighbors returns the effective neighbor count, never more than the training size.
func (kn *KNN) Neighbors() int {
	if !kn.Fitted() {
		return kn.K
	}
	return min(kn.K, len(kn.y))
}

// Predict labels every row of x. Exact matches take all the weight and vote ties go to the
// lexicographically smallest tier.
func (kn *KNN) Predict(x *mat.Dense) ([]schema.Tier, error) {
	if !kn.Fitted() {
		return nil, eris.Wrap(ErrNotFitted, "algo: knn predict before fit")
	}
	if x == nil || x.IsEmpty() {
		return nil, nil
	}
	rows, cols := x.Dims()
	if _, trainCols := kn.x.Dims(); cols != trainCols {
		return nil, eris.Errorf("algo: knn fitted on %d columns, got %d", trainCols, cols)
	}

	train := len(kn.y)
	k := kn.Neighbors()
	dist := make([]float64, train)
	idx := make([]int, train)
	votes := make(map[schema.Tier]float64, len(kn.classes))
	out := make([]schema.Tier, rows)
	for i := range rows {
		row := x.RawRowView(i)
		for j := range train {
			dist[j] = floats.Distance(row, kn.x.RawRowView(j), 2)
			idx[j] = j
		}
		slices.SortFunc(idx, func(a, b int) int {
			return cmp.Or(cmp.Compare(dist[a], dist[b]), cmp.Compare(a, b))
		})
		nearest := idx[:k]

		clear(votes)
		exact := dist[nearest[0]] == 0
		for _, j := range nearest {
			switch {
			case exact && dist[j] == 0:
				votes[kn.y[j]]++
			case !exact:
				votes[kn.y[j]] += 1 / dist[j]
			}
		}

		best, bestVote := kn.classes[0], -1.0
		for _, c := range kn.classes {
			if votes[c] > bestVote {
				best, bestVote = c, votes[c]
			}
		}
		out[i] = best
	}
	return out, nil
}

// Score returns the accuracy of Predict(x) against labels.
func (kn *KNN) Score(x *mat.Dense, labels []schema.Tier) (float64, error) {
	pred, err := kn.Predict(x)
	if err != nil {
		return 0, err
	}
	return Accuracy(labels, pred), nil
}
