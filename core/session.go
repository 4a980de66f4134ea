package core

import (
	"context"
	"slices"
	"sync"

	"github.com/huangsam/tierscope/core/algo"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Fit requirements.
const (
	minFitStudents      = 4 // smallest roster a model can be fitted on
	minNeighborStudents = 5 // below this the neighbor tier mirrors the cluster tier
)

// Options are the tunable knobs of a session.
type Options struct {
	Clusters      int
	Normalization schema.NormalizationMethod
	Preset        schema.CompositePreset
	Seed          uint64
	Workers       int
}

// DefaultOptions returns the options that reproduce the reference pipeline.
func DefaultOptions() Options {
	return Options{
		Clusters:      contract.DefaultClusters,
		Normalization: schema.MinMaxNorm,
		Preset:        schema.StandardPreset,
		Seed:          algo.DefaultSeed,
		Workers:       1,
	}
}

// OptionsFromConfig extracts session options from a validated config.
func OptionsFromConfig(cfg *contract.Config) Options {
	return Options{
		Clusters:      cfg.Clusters,
		Normalization: cfg.Normalization,
		Preset:        cfg.Preset,
		Seed:          cfg.Seed,
		Workers:       cfg.Workers,
	}
}

// withDefaults fills unset fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Clusters < 1 {
		o.Clusters = def.Clusters
	}
	if o.Normalization == "" {
		o.Normalization = def.Normalization
	}
	if o.Preset == "" {
		o.Preset = def.Preset
	}
	return o
}

func (o Options) kmeans() algo.KMeans {
	km := algo.NewKMeans()
	km.Seed = o.Seed
	km.Workers = max(o.Workers, 1)
	return km
}

// Diagnostics describe the last fit. None of it affects the reported tiers.
type Diagnostics struct {
	Students           int
	Sufficient         int
	ClusterTiers       []schema.Tier
	ClusterSizes       []int
	Neighbors          int // 0 when neighbor training was skipped
	TrainSize          int
	TestSize           int
	ValidationAccuracy *float64 // nil when no holdout was scored
	Fallback           bool     // split was impossible, neighbors fitted on everything
}

// Session owns the roster and fitted models of one classification run.
// It is safe for concurrent use, but calls are serialized.
type Session struct {
	mu     sync.Mutex
	opts   Options
	state  schema.RunState
	roster []schema.StudentRecord
	engine *algo.AnomalyEngine

	normalizer *algo.Normalizer
	clusters   *algo.ClusterModel
	neighbors  *algo.KNN // nil when training was skipped
	diag       Diagnostics
	results    []schema.ClassificationResult
}

// NewSession creates an unfit session.
func NewSession(opts Options) *Session {
	return &Session{
		opts:   opts.withDefaults(),
		state:  schema.UnfitState,
		engine: algo.NewAnomalyEngine(),
	}
}

// Init replaces the roster with a clamped copy of records.
func (s *Session) Init(records []schema.StudentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = normalizeRecords(records)
}

// State returns the current lifecycle state.
func (s *Session) State() schema.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Diagnostics returns a copy of the last fit diagnostics.
func (s *Session) Diagnostics() Diagnostics {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.diag
	d.ClusterTiers = slices.Clone(d.ClusterTiers)
	d.ClusterSizes = slices.Clone(d.ClusterSizes)
	return d
}

// Results returns the output of the last Predict.
func (s *Session) Results() []schema.ClassificationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.results)
}

// Fit trains the normalizer, cluster labeler and neighbor classifier from scratch on the
// sufficient part of the roster. A failed fit leaves the session unfit.
func (s *Session) Fit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != schema.UnfitState && s.state != schema.FitState {
		return eris.Errorf("core: cannot fit while %s", s.state)
	}
	s.state = schema.FittingState
	if err := s.fit(ctx); err != nil {
		s.reset()
		return err
	}
	s.state = schema.FitState
	return nil
}

func (s *Session) fit(ctx context.Context) error {
	valid, _ := partition(s.roster)
	need := max(minFitStudents, 2*s.opts.Clusters)
	if len(valid) < need {
		return eris.Wrapf(algo.ErrDataInsufficient,
			"core: %d of %d students have enough data, need %d", len(valid), len(s.roster), need)
	}

	normalizer, err := algo.NewNormalizer(s.opts.Normalization)
	if err != nil {
		return err
	}
	x, err := normalizer.FitTransform(algo.ExtractFeatures(valid))
	if err != nil {
		return err
	}

	labeler := algo.ClusterLabeler{
		KMeans:  s.opts.kmeans(),
		K:       s.opts.Clusters,
		Weights: schema.GetDefaultWeights(s.opts.Preset),
	}
	clusters, err := labeler.Fit(ctx, x)
	if err != nil {
		return err
	}

	diag := Diagnostics{
		Students:     len(s.roster),
		Sufficient:   len(valid),
		ClusterTiers: slices.Clone(clusters.TierByCluster),
		ClusterSizes: slices.Clone(clusters.Sizes),
	}
	neighbors, err := trainNeighbors(x, clusters.Labels(), s.opts.Seed, &diag)
	if err != nil {
		return err
	}

	s.normalizer, s.clusters, s.neighbors, s.diag = normalizer, clusters, neighbors, diag
	zap.L().Debug("core: session fitted",
		zap.Int("students", diag.Students),
		zap.Int("sufficient", diag.Sufficient),
		zap.Ints("cluster_sizes", diag.ClusterSizes),
		zap.Int("neighbors", diag.Neighbors),
		zap.Bool("fallback", diag.Fallback))
	return nil
}

// trainNeighbors fits kNN on cluster labels. The holdout accuracy is only reported.
func trainNeighbors(x *mat.Dense, labels []schema.Tier, seed uint64, diag *Diagnostics) (*algo.KNN, error) {
	if len(labels) < minNeighborStudents {
		return nil, nil
	}

	train, test, err := algo.StratifiedSplit(labels, algo.DefaultTestFraction, seed)
	if err != nil {
		if !eris.Is(err, algo.ErrSplitImpossible) {
			return nil, err
		}
		zap.L().Debug("core: split impossible, fitting neighbors on all students", zap.Error(err))
		knn := algo.NewKNN(algo.FallbackNeighbors)
		if err := knn.Fit(x, labels); err != nil {
			return nil, err
		}
		diag.Neighbors, diag.TrainSize, diag.Fallback = knn.Neighbors(), len(labels), true
		return knn, nil
	}

	knn := algo.NewKNN(algo.NeighborsFor(len(train)))
	if err := knn.Fit(algo.SelectRows(x, train), algo.SelectLabels(labels, train)); err != nil {
		return nil, err
	}
	acc, err := knn.Score(algo.SelectRows(x, test), algo.SelectLabels(labels, test))
	if err != nil {
		return nil, err
	}
	diag.Neighbors, diag.TrainSize, diag.TestSize = knn.Neighbors(), len(train), len(test)
	diag.ValidationAccuracy = &acc
	return knn, nil
}

// Predict classifies records with the fitted models. Results keep input order and
// insufficient students get the sentinel result.
func (s *Session) Predict(ctx context.Context, records []schema.StudentRecord) ([]schema.ClassificationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.predict(ctx, records)
}

func (s *Session) predict(ctx context.Context, records []schema.StudentRecord) ([]schema.ClassificationResult, error) {
	if s.state != schema.FitState {
		return nil, eris.Wrapf(algo.ErrNotFitted, "core: predict while %s", s.state)
	}
	s.state = schema.PredictingState
	defer func() { s.state = schema.FitState }()

	records = normalizeRecords(records)
	valid, validIdx := partition(records)

	var kmeansTiers, knnTiers []schema.Tier
	if len(valid) > 0 {
		x, err := s.normalizer.Transform(algo.ExtractFeatures(valid))
		if err != nil {
			return nil, err
		}
		kmeansTiers = s.clusters.Predict(x)
		knnTiers = kmeansTiers
		if s.neighbors != nil {
			if knnTiers, err = s.neighbors.Predict(x); err != nil {
				return nil, err
			}
		}
	}

	results := make([]schema.ClassificationResult, len(records))
	next := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "core: predict")
		}
		if next < len(validIdx) && validIdx[next] == i {
			results[i] = NewResultBuilder(&records[i], s.engine).
				WithModelTiers(kmeansTiers[next], knnTiers[next]).
				CalculateComposite().
				EvaluateAnomalies().
				ApplyDemotion().
				CollectDetails().
				Build()
			next++
			continue
		}
		results[i] = schema.NewInsufficientResult(&records[i])
	}
	s.results = results
	return slices.Clone(results), nil
}

// Reclassify replaces the roster, refits and predicts it.
func (s *Session) Reclassify(ctx context.Context, records []schema.StudentRecord) ([]schema.ClassificationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != schema.UnfitState && s.state != schema.FitState {
		return nil, eris.Errorf("core: cannot reclassify while %s", s.state)
	}
	s.roster = normalizeRecords(records)
	s.state = schema.FittingState
	if err := s.fit(ctx); err != nil {
		s.reset()
		return nil, err
	}
	s.state = schema.FitState
	return s.predict(ctx, s.roster)
}

// Teardown drops the models and results. The roster is kept.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.normalizer, s.clusters, s.neighbors = nil, nil, nil
	s.diag = Diagnostics{}
	s.results = nil
	s.state = schema.UnfitState
}

// Classify runs one fit and predict over the whole roster.
func Classify(ctx context.Context, records []schema.StudentRecord, opts Options) ([]schema.ClassificationResult, error) {
	return NewSession(opts).Reclassify(ctx, records)
}

func normalizeRecords(records []schema.StudentRecord) []schema.StudentRecord {
	out := make([]schema.StudentRecord, len(records))
	for i, r := range records {
		out[i] = r.Normalized()
	}
	return out
}

// partition returns the sufficient records and their positions in records.
func partition(records []schema.StudentRecord) ([]schema.StudentRecord, []int) {
	valid := make([]schema.StudentRecord, 0, len(records))
	idx := make([]int, 0, len(records))
	for i := range records {
		if records[i].Sufficient() {
			valid = append(valid, records[i])
			idx = append(idx, i)
		}
	}
	return valid, idx
}
