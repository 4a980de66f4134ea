package core

import (
	"fmt"

	"github.com/huangsam/tierscope/core/algo"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Evaluation grid.
var (
	evalTestFractions = []float64{0.2, 0.3, 0.4}
	evalNeighborSweep = []int{1, 3, 5, 7, 9, 11}
)

// evalFolds is the number of cross-validation folds.
const evalFolds = 5

// EvaluationBuilder measures how well neighbor classification reproduces reference labels.
// Cases that cannot be split are reported as skipped.
type EvaluationBuilder struct {
	opts   Options
	raw    *mat.Dense
	labels []schema.Tier
	report *schema.EvaluationReport
}

// NewEvaluationBuilder creates a builder over the sufficient part of records.
func NewEvaluationBuilder(records []schema.StudentRecord, opts Options, reference schema.ReferencePreset) (*EvaluationBuilder, error) {
	valid, _ := partition(normalizeRecords(records))
	if len(valid) == 0 {
		return nil, eris.Wrapf(algo.ErrDataInsufficient, "core: none of %d students have enough data", len(records))
	}
	if reference == "" {
		reference = schema.TotalScoreReference
	}
	return &EvaluationBuilder{
		opts:   opts.withDefaults(),
		raw:    algo.ExtractFeatures(valid),
		labels: algo.ReferenceLabels(valid, reference),
		report: &schema.EvaluationReport{Reference: reference, Students: len(valid)},
	}, nil
}

// EvaluateSplits scores the default neighbor count at several test fractions.
func (b *EvaluationBuilder) EvaluateSplits() *EvaluationBuilder {
	for _, frac := range evalTestFractions {
		split := schema.SplitReport{TestFraction: frac}
		train, test, err := algo.StratifiedSplit(b.labels, frac, b.opts.Seed)
		if err != nil {
			split.Skipped = skipReason(err)
			b.report.Splits = append(b.report.Splits, split)
			continue
		}
		split.TrainSize, split.TestSize = len(train), len(test)
		metrics, err := b.holdout(train, test, b.opts.Normalization, algo.NeighborsFor(len(train)))
		if err != nil {
			split.Skipped = skipReason(err)
		}
		split.Metrics = metrics
		b.report.Splits = append(b.report.Splits, split)
	}
	return b
}

// CompareNormalizations scores every normalization method at the default split.
func (b *EvaluationBuilder) CompareNormalizations() *EvaluationBuilder {
	train, test, splitErr := algo.StratifiedSplit(b.labels, algo.DefaultTestFraction, b.opts.Seed)
	for _, method := range schema.AllNormalizationMethods {
		report := schema.NormalizationReport{Method: method}
		if splitErr != nil {
			report.Skipped = skipReason(splitErr)
		} else if metrics, err := b.holdout(train, test, method, algo.NeighborsFor(len(train))); err != nil {
			report.Skipped = skipReason(err)
		} else {
			report.Metrics = metrics
		}
		b.report.Normalizations = append(b.report.Normalizations, report)
	}
	return b
}

// CrossValidate reports stratified k-fold accuracy.
func (b *EvaluationBuilder) CrossValidate() *EvaluationBuilder {
	cv := schema.CrossValidationReport{Folds: evalFolds}
	folds, err := algo.StratifiedKFold(b.labels, evalFolds, b.opts.Seed)
	if err != nil {
		cv.Skipped = skipReason(err)
		b.report.CrossValidation = cv
		return b
	}
	for _, test := range folds {
		train := algo.Complement(len(b.labels), test)
		metrics, err := b.holdout(train, test, b.opts.Normalization, algo.NeighborsFor(len(train)))
		if err != nil {
			cv.Scores, cv.Skipped = nil, skipReason(err)
			b.report.CrossValidation = cv
			return b
		}
		cv.Scores = append(cv.Scores, metrics.Accuracy)
	}
	cv.Mean, cv.Std = stat.PopMeanStdDev(cv.Scores, nil)
	b.report.CrossValidation = cv
	return b
}

// SweepNeighbors scores several neighbor counts at the default split.
func (b *EvaluationBuilder) SweepNeighbors() *EvaluationBuilder {
	train, test, splitErr := algo.StratifiedSplit(b.labels, algo.DefaultTestFraction, b.opts.Seed)
	for _, k := range evalNeighborSweep {
		report := schema.NeighborSweepReport{K: k}
		switch {
		case splitErr != nil:
			report.Skipped = skipReason(splitErr)
		case k > len(train):
			report.Skipped = fmt.Sprintf("k=%d exceeds %d training students", k, len(train))
		default:
			metrics, err := b.holdout(train, test, b.opts.Normalization, k)
			if err != nil {
				report.Skipped = skipReason(err)
			}
			report.Metrics = metrics
		}
		b.report.NeighborSweep = append(b.report.NeighborSweep, report)
	}
	return b
}

// Build returns the finished report.
func (b *EvaluationBuilder) Build() schema.EvaluationReport {
	return *b.report
}

// holdout fits a normalizer and kNN on the train rows and scores the test rows.
func (b *EvaluationBuilder) holdout(train, test []int, method schema.NormalizationMethod, k int) (*schema.ClassMetrics, error) {
	normalizer, err := algo.NewNormalizer(method)
	if err != nil {
		return nil, err
	}
	xTrain, err := normalizer.FitTransform(algo.SelectRows(b.raw, train))
	if err != nil {
		return nil, err
	}
	xTest, err := normalizer.Transform(algo.SelectRows(b.raw, test))
	if err != nil {
		return nil, err
	}

	knn := algo.NewKNN(k)
	if err := knn.Fit(xTrain, algo.SelectLabels(b.labels, train)); err != nil {
		return nil, err
	}
	pred, err := knn.Predict(xTest)
	if err != nil {
		return nil, err
	}
	metrics := algo.Evaluate(algo.SelectLabels(b.labels, test), pred)
	return &metrics, nil
}

// skipReason turns an error into a short message without the stack.
func skipReason(err error) string {
	return eris.ToString(err, false)
}

// tierDistribution counts tiers, including any the labels do not contain.
func tierDistribution(labels []schema.Tier) map[schema.Tier]int {
	counts := make(map[schema.Tier]int, len(schema.TierOrder))
	for _, t := range schema.TierOrder {
		counts[t] = 0
	}
	for _, l := range labels {
		counts[l]++
	}
	return counts
}
