package core

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/huangsam/tierscope/core/algo"
	"github.com/huangsam/tierscope/internal/roster"
	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniformStudent builds a student with the same score and time in four courses.
func uniformStudent(id int64, score, minutes, attendance float64, late int, behavior float64) schema.StudentRecord {
	courses := make(map[string]schema.CourseScores, 4)
	for i := range 4 {
		courses[fmt.Sprintf("course-%d", i)] = schema.CourseScores{Score: score, TimeMinutes: minutes}
	}
	return schema.StudentRecord{
		ID:      id,
		Name:    fmt.Sprintf("Student %d", id),
		Courses: courses,
		Behavioral: schema.Behavioral{
			AttendanceRate:  schema.Ptr(attendance),
			LateSubmissions: schema.Ptr(late),
			BehaviorScore:   schema.Ptr(behavior),
		},
	}
}

// cohort is a generated roster plus the scenario students and one insufficient student.
func cohort() []schema.StudentRecord {
	records := roster.Generate(50, 42)
	records = append(records,
		uniformStudent(1, 9.7, 4.5, 0.95, 0, 90), // 0.3 hours in total
		uniformStudent(2, 6.0, 240, 0.95, 0, 80),
		schema.StudentRecord{ID: 3, Name: "New", Courses: map[string]schema.CourseScores{"course-0": {Score: 7}}},
	)
	return records
}

func resultByID(t *testing.T, results []schema.ClassificationResult, id int64) schema.ClassificationResult {
	t.Helper()
	for _, r := range results {
		if r.StudentID == id {
			return r
		}
	}
	require.Failf(t, "missing result", "student %d", id)
	return schema.ClassificationResult{}
}

func TestClassifyScenarios(t *testing.T) {
	results, err := Classify(context.Background(), cohort(), DefaultOptions())
	require.NoError(t, err)

	t.Run("fast perfect scores are forced to weak", func(t *testing.T) {
		r := resultByID(t, results, 1)
		assert.True(t, r.AnomalyDetected)
		assert.Equal(t, algo.SeverityHigh, r.AnomalySeverity)
		assert.Equal(t, schema.WeakTier, r.FinalTier)
		assert.NotEmpty(t, r.AnomalyReason)
	})

	t.Run("clean average student keeps composite tier", func(t *testing.T) {
		r := resultByID(t, results, 2)
		assert.False(t, r.AnomalyDetected)
		assert.Equal(t, 0, r.AnomalySeverity)
		assert.Equal(t, schema.AverageTier, r.PrimaryTier)
		assert.Equal(t, schema.AverageTier, r.FinalTier)
		assert.InDelta(t, 5.525, r.CompositeScore, 1e-9)
		require.NotNil(t, r.Details)
		assert.InDelta(t, 95, r.Details.AttendanceRate, 1e-9)
		assert.InDelta(t, 240, r.Details.AvgTimeMinutes, 1e-9)
	})

	t.Run("insufficient student gets the sentinel", func(t *testing.T) {
		r := resultByID(t, results, 3)
		assert.False(t, r.Sufficient)
		assert.Equal(t, schema.InsufficientTier, r.FinalTier)
		assert.Equal(t, schema.InsufficientTier, r.KMeansTier)
		assert.Equal(t, []string{schema.InsufficientReason}, r.AnomalyReasons)
		assert.Nil(t, r.Details)
	})
}

func TestClassifyPreservesInputOrder(t *testing.T) {
	records := cohort()
	results, err := Classify(context.Background(), records, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, len(records))
	for i := range records {
		assert.Equal(t, records[i].ID, results[i].StudentID)
	}
}

func TestClassifyLaws(t *testing.T) {
	results, err := Classify(context.Background(), cohort(), DefaultOptions())
	require.NoError(t, err)

	for _, r := range results {
		if !r.Sufficient {
			assert.Equal(t, schema.InsufficientTier, r.FinalTier, "partition: student %d", r.StudentID)
			assert.False(t, r.AnomalyDetected, "partition: student %d", r.StudentID)
			assert.Equal(t, 0, r.AnomalySeverity)
			continue
		}
		assert.True(t, r.FinalTier.Valid(), "student %d", r.StudentID)
		assert.GreaterOrEqual(t, r.FinalTier.Rank(), r.PrimaryTier.Rank(), "demotion never improves: student %d", r.StudentID)
		assert.True(t, r.KMeansTier.Valid())
		assert.True(t, r.KNNTier.Valid())
		switch r.AnomalySeverity {
		case algo.SeverityHigh:
			assert.Equal(t, schema.WeakTier, r.FinalTier, "student %d", r.StudentID)
		case algo.SeverityNone:
			assert.Equal(t, r.PrimaryTier, r.FinalTier, "student %d", r.StudentID)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	records := roster.Generate(50, 42)
	first, err := Classify(context.Background(), records, DefaultOptions())
	require.NoError(t, err)
	second, err := Classify(context.Background(), records, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	parallel := DefaultOptions()
	parallel.Workers = 8
	third, err := Classify(context.Background(), records, parallel)
	require.NoError(t, err)
	assert.Equal(t, first, third, "worker count must not change results")
}

func TestClassifyNonFiniteValue(t *testing.T) {
	records := roster.Generate(20, 7)
	bad := &records[3]
	name := bad.CourseNames()[0]
	course := bad.Courses[name]
	course.Score = math.NaN()
	bad.Courses[name] = course
	bad.Behavioral.AttendanceRate = schema.Ptr(math.Inf(1))

	var results []schema.ClassificationResult
	require.NotPanics(t, func() {
		var err error
		results, err = Classify(context.Background(), records, DefaultOptions())
		require.NoError(t, err)
	})
	require.Len(t, results, len(records))
	for _, r := range results {
		assert.False(t, math.IsNaN(r.CompositeScore), "student %d", r.StudentID)
		if r.Sufficient {
			assert.True(t, r.FinalTier.Valid(), "student %d", r.StudentID)
		}
	}
}

func TestFitInsufficientData(t *testing.T) {
	tests := []struct {
		name     string
		students int
		clusters int
	}{
		{"three students", 3, 2},
		{"fewer than two per cluster", 6, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Clusters = tt.clusters
			s := NewSession(opts)
			s.Init(roster.Generate(tt.students, 1))
			err := s.Fit(context.Background())
			require.Error(t, err)
			assert.True(t, eris.Is(err, algo.ErrDataInsufficient))
			assert.Equal(t, schema.UnfitState, s.State())
		})
	}
}

func TestFitIgnoresInsufficientStudents(t *testing.T) {
	records := roster.Generate(3, 1)
	for i := range 10 {
		records = append(records, schema.StudentRecord{ID: int64(100 + i)})
	}
	s := NewSession(Options{Clusters: 2})
	s.Init(records)
	err := s.Fit(context.Background())
	assert.True(t, eris.Is(err, algo.ErrDataInsufficient))
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	records := roster.Generate(30, 3)
	s := NewSession(DefaultOptions())
	assert.Equal(t, schema.UnfitState, s.State())

	_, err := s.Predict(ctx, records)
	assert.True(t, eris.Is(err, algo.ErrNotFitted))

	s.Init(records)
	require.NoError(t, s.Fit(ctx))
	assert.Equal(t, schema.FitState, s.State())

	results, err := s.Predict(ctx, records[:5])
	require.NoError(t, err)
	assert.Len(t, results, 5)
	assert.Equal(t, schema.FitState, s.State())
	assert.Equal(t, results, s.Results())

	// Refitting from the fit state is allowed and retrains from scratch.
	require.NoError(t, s.Fit(ctx))
	again, err := s.Predict(ctx, records[:5])
	require.NoError(t, err)
	assert.Equal(t, results, again)

	s.Teardown()
	assert.Equal(t, schema.UnfitState, s.State())
	assert.Empty(t, s.Results())
	assert.Equal(t, Diagnostics{}, s.Diagnostics())
	_, err = s.Predict(ctx, records)
	assert.True(t, eris.Is(err, algo.ErrNotFitted))
}

func TestSessionReclassify(t *testing.T) {
	ctx := context.Background()
	s := NewSession(DefaultOptions())
	first, err := s.Reclassify(ctx, roster.Generate(20, 5))
	require.NoError(t, err)
	assert.Len(t, first, 20)

	second, err := s.Reclassify(ctx, roster.Generate(40, 6))
	require.NoError(t, err)
	assert.Len(t, second, 40)
	assert.Equal(t, 40, s.Diagnostics().Students)

	_, err = s.Reclassify(ctx, roster.Generate(2, 6))
	assert.True(t, eris.Is(err, algo.ErrDataInsufficient))
	assert.Equal(t, schema.UnfitState, s.State())
}

func TestSessionDiagnostics(t *testing.T) {
	s := NewSession(DefaultOptions())
	s.Init(roster.Generate(60, 42))
	require.NoError(t, s.Fit(context.Background()))

	d := s.Diagnostics()
	assert.Equal(t, 60, d.Students)
	assert.Equal(t, 60, d.Sufficient)
	assert.Len(t, d.ClusterTiers, 4)
	assert.ElementsMatch(t, schema.TierOrder, d.ClusterTiers)
	total := 0
	for _, n := range d.ClusterSizes {
		total += n
	}
	assert.Equal(t, 60, total)
	if d.Fallback {
		assert.Nil(t, d.ValidationAccuracy)
		assert.Equal(t, algo.FallbackNeighbors, d.Neighbors)
	} else {
		require.NotNil(t, d.ValidationAccuracy)
		assert.Equal(t, algo.NeighborsFor(d.TrainSize), d.Neighbors)
		assert.Equal(t, 60, d.TrainSize+d.TestSize)
	}
}

func TestSmallCohortSkipsNeighbors(t *testing.T) {
	records := []schema.StudentRecord{
		uniformStudent(1, 9, 300, 1, 0, 95),
		uniformStudent(2, 8.8, 280, 0.95, 0, 90),
		uniformStudent(3, 4, 100, 0.6, 8, 50),
		uniformStudent(4, 3.5, 90, 0.55, 9, 45),
	}
	s := NewSession(Options{Clusters: 2})
	results, err := s.Reclassify(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Diagnostics().Neighbors)
	for _, r := range results {
		assert.Equal(t, r.KMeansTier, r.KNNTier)
	}
	assert.Equal(t, schema.ExcellentTier, results[0].KMeansTier)
	assert.Equal(t, schema.GoodTier, results[3].KMeansTier)
}

func TestSplitFallback(t *testing.T) {
	var records []schema.StudentRecord
	for i := range 9 {
		records = append(records, uniformStudent(int64(i+1), 6+0.05*float64(i), 200, 0.8, 2, 70))
	}
	records = append(records, uniformStudent(10, 1, 30, 0.1, 25, 5))

	s := NewSession(Options{Clusters: 2})
	_, err := s.Reclassify(context.Background(), records)
	require.NoError(t, err)
	d := s.Diagnostics()
	assert.True(t, d.Fallback)
	assert.Nil(t, d.ValidationAccuracy)
	assert.Equal(t, algo.FallbackNeighbors, d.Neighbors)
	assert.ElementsMatch(t, []int{9, 1}, d.ClusterSizes)
}

func TestFitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSession(DefaultOptions())
	s.Init(roster.Generate(30, 1))
	assert.Error(t, s.Fit(ctx))
	assert.Equal(t, schema.UnfitState, s.State())
}

func TestPredictConcurrent(t *testing.T) {
	ctx := context.Background()
	records := roster.Generate(40, 9)
	s := NewSession(DefaultOptions())
	s.Init(records)
	require.NoError(t, s.Fit(ctx))
	want, err := s.Predict(ctx, records)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			got, err := s.Predict(ctx, records)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
	wg.Wait()
}

func TestPredictDoesNotMutateInput(t *testing.T) {
	records := []schema.StudentRecord{uniformStudent(1, 12, -5, 1.5, -2, 150)}
	records = append(records, roster.Generate(20, 2)...)
	results, err := Classify(context.Background(), records, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 12, records[0].Courses["course-0"].Score, 1e-9)
	assert.False(t, results[0].Sufficient, "negative time clamps to zero")
}

func BenchmarkClassify(b *testing.B) {
	records := roster.Generate(200, 42)
	ctx := context.Background()
	for b.Loop() {
		if _, err := Classify(ctx, records, DefaultOptions()); err != nil {
			b.Fatal(err)
		}
	}
}
