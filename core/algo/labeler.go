package algo

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

// ClusterComposite is the weighted sum of one normalized feature row.
func ClusterComposite(row []float64, weights map[schema.BreakdownKey]float64) float64 {
	total := 0.0
	for _, key := range schema.FeatureKeys {
		if w := weights[key]; w != 0 {
			total += w * row[schema.FeatureIndex(key)]
		}
	}
	return total
}

// LabelClusters ranks clusters by mean composite, best first with ties kept in cluster id
// order, and maps each cluster to TierOrder[min(rank, 3)]. Empty clusters rank last.
func LabelClusters(m *mat.Dense, assignments []int, k int, weights map[schema.BreakdownKey]float64) ([]schema.Tier, []float64) {
	sums := make([]float64, k)
	counts := make([]int, k)
	for i, c := range assignments {
		sums[c] += ClusterComposite(m.RawRowView(i), weights)
		counts[c]++
	}

	means := make([]float64, k)
	for c := range k {
		if counts[c] == 0 {
			means[c] = math.Inf(-1)
			continue
		}
		means[c] = sums[c] / float64(counts[c])
	}

	order := make([]int, k)
	for c := range order {
		order[c] = c
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(means[b], means[a])
	})

	tiers := make([]schema.Tier, k)
	for rank, c := range order {
		tiers[c] = schema.TierAt(rank)
	}
	return tiers, means
}

// ClusterLabeler fits k-means and turns clusters into tiers.
type ClusterLabeler struct {
	KMeans  KMeans
	K       int
	Weights map[schema.BreakdownKey]float64
}

// ClusterModel is a fitted clustering with a tier per cluster.
type ClusterModel struct {
	K             int
	Fit           *ClusterFit
	TierByCluster []schema.Tier
	MeanComposite []float64
	Sizes         []int
}

// Fit clusters the normalized matrix. It refuses fewer than 2k rows.
func (cl ClusterLabeler) Fit(ctx context.Context, normalized *mat.Dense) (*ClusterModel, error) {
	rows := 0
	if normalized != nil && !normalized.IsEmpty() {
		rows, _ = normalized.Dims()
	}
	if cl.K < 1 {
		return nil, eris.Errorf("algo: cluster count must be positive, got %d", cl.K)
	}
	if rows < 2*cl.K {
		return nil, eris.Wrapf(ErrDataInsufficient, "algo: %d students for %d clusters, need %d", rows, cl.K, 2*cl.K)
	}

	fit, err := cl.KMeans.Fit(ctx, normalized, cl.K)
	if err != nil {
		return nil, err
	}
	weights := cl.Weights
	if weights == nil {
		weights = schema.GetDefaultWeights(schema.StandardPreset)
	}
	tiers, means := LabelClusters(normalized, fit.Assignments, cl.K, weights)

	sizes := make([]int, cl.K)
	for _, c := range fit.Assignments {
		sizes[c]++
	}
	return &ClusterModel{
		K:             cl.K,
		Fit:           fit,
		TierByCluster: tiers,
		MeanComposite: means,
		Sizes:         sizes,
	}, nil
}

// Labels returns the tier of every training row.
func (cm *ClusterModel) Labels() []schema.Tier {
	return cm.tiersOf(cm.Fit.Assignments)
}

// Predict returns the tier of the nearest centroid for each row of m.
func (cm *ClusterModel) Predict(m *mat.Dense) []schema.Tier {
	return cm.tiersOf(cm.Fit.Predict(m))
}

func (cm *ClusterModel) tiersOf(assignments []int) []schema.Tier {
	out := make([]schema.Tier, len(assignments))
	for i, c := range assignments {
		out[i] = cm.TierByCluster[c]
	}
	return out
}
