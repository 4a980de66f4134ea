package core

import (
	"context"
	"time"

	"github.com/huangsam/tierscope/core/algo"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/outwriter"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

// Method names reported by CompareMethods.
const (
	MethodKMeans   = "kmeans-only"
	MethodKNN      = "knn-only"
	MethodCombined = "combined"
	MethodPipeline = "pipeline"
)

// referenceNeighbors is the neighbor count of the kNN-only method.
const referenceNeighbors = 5

// ExecuteCompare compares the classification methods on the roster against reference labels.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	records, err := LoadRoster(cfg, mgr)
	if err != nil {
		return err
	}
	result, err := CompareMethods(ctx, records, OptionsFromConfig(cfg), cfg.Reference)
	if err != nil {
		return err
	}
	return outwriter.PrintComparisonResults(result, cfg, time.Since(start))
}

// CompareMethods runs four methods over the sufficient students and measures how often
// each agrees with the reference labels:
//   - kmeans-only: the cluster tier of the session
//   - knn-only: kNN trained on the reference labels themselves
//   - combined: kNN trained on clusters ranked by the compact preset
//   - pipeline: the reported final tier
func CompareMethods(ctx context.Context, records []schema.StudentRecord, opts Options, reference schema.ReferencePreset) (schema.ComparisonResult, error) {
	if reference == "" {
		reference = schema.TotalScoreReference
	}
	session := NewSession(opts)
	results, err := session.Reclassify(ctx, records)
	if err != nil {
		return schema.ComparisonResult{}, err
	}

	valid, _ := partition(normalizeRecords(records))
	truth := algo.ReferenceLabels(valid, reference)
	var kmeansTiers, pipelineTiers []schema.Tier
	for _, r := range results {
		if r.Sufficient {
			kmeansTiers = append(kmeansTiers, r.KMeansTier)
			pipelineTiers = append(pipelineTiers, r.FinalTier)
		}
	}

	normalizer, err := algo.NewNormalizer(session.opts.Normalization)
	if err != nil {
		return schema.ComparisonResult{}, err
	}
	x, err := normalizer.FitTransform(algo.ExtractFeatures(valid))
	if err != nil {
		return schema.ComparisonResult{}, err
	}

	knnOnly, err := neighborMethod(MethodKNN, x, truth, truth, referenceNeighbors, opts.Seed)
	if err != nil {
		return schema.ComparisonResult{}, err
	}

	compact := algo.ClusterLabeler{
		KMeans:  session.opts.kmeans(),
		K:       session.opts.Clusters,
		Weights: schema.GetDefaultWeights(schema.CompactPreset),
	}
	compactModel, err := compact.Fit(ctx, x)
	if err != nil {
		return schema.ComparisonResult{}, err
	}
	combined, err := neighborMethod(MethodCombined, x, compactModel.Labels(), truth, 0, opts.Seed)
	if err != nil {
		return schema.ComparisonResult{}, err
	}

	return schema.ComparisonResult{
		Reference:          reference,
		TotalStudents:      len(results),
		ClassifiedStudents: len(valid),
		Methods: []schema.MethodReport{
			methodReport(MethodKMeans, kmeansTiers, truth),
			knnOnly,
			combined,
			methodReport(MethodPipeline, pipelineTiers, truth),
		},
	}, nil
}

func methodReport(name string, predicted, truth []schema.Tier) schema.MethodReport {
	return schema.MethodReport{
		Method:       name,
		Distribution: tierDistribution(predicted),
		Agreement:    algo.Accuracy(truth, predicted),
	}
}

// neighborMethod trains kNN on labels at the default split and predicts every row.
// A k of 0 picks the neighbor count from the training size. When the split is
// impossible the model is fitted on all rows and the holdout accuracy is left out.
func neighborMethod(name string, x *mat.Dense, labels, truth []schema.Tier, k int, seed uint64) (schema.MethodReport, error) {
	var knn *algo.KNN
	var holdout *float64
	note := ""

	train, test, err := algo.StratifiedSplit(labels, algo.DefaultTestFraction, seed)
	switch {
	case err == nil:
		if k == 0 {
			k = algo.NeighborsFor(len(train))
		}
		knn = algo.NewKNN(k)
		if err := knn.Fit(algo.SelectRows(x, train), algo.SelectLabels(labels, train)); err != nil {
			return schema.MethodReport{}, err
		}
		acc, err := knn.Score(algo.SelectRows(x, test), algo.SelectLabels(labels, test))
		if err != nil {
			return schema.MethodReport{}, err
		}
		holdout = &acc
	case eris.Is(err, algo.ErrSplitImpossible):
		note = skipReason(err)
		knn = algo.NewKNN(algo.FallbackNeighbors)
		if err := knn.Fit(x, labels); err != nil {
			return schema.MethodReport{}, err
		}
	default:
		return schema.MethodReport{}, err
	}

	predicted, err := knn.Predict(x)
	if err != nil {
		return schema.MethodReport{}, err
	}
	report := methodReport(name, predicted, truth)
	report.HoldoutAccuracy = holdout
	report.Note = note
	return report, nil
}
