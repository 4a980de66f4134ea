package core

import (
	"context"
	"testing"

	"github.com/huangsam/tierscope/core/algo"
	"github.com/huangsam/tierscope/internal/iocache"
	"github.com/huangsam/tierscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareMethods(t *testing.T) {
	result, err := CompareMethods(context.Background(), cohort(), DefaultOptions(), "")
	require.NoError(t, err)

	assert.Equal(t, schema.TotalScoreReference, result.Reference)
	assert.Equal(t, 53, result.TotalStudents)
	assert.Equal(t, 52, result.ClassifiedStudents)

	require.Len(t, result.Methods, 4)
	names := []string{MethodKMeans, MethodKNN, MethodCombined, MethodPipeline}
	for i, m := range result.Methods {
		t.Run(m.Method, func(t *testing.T) {
			assert.Equal(t, names[i], m.Method)
			assert.GreaterOrEqual(t, m.Agreement, 0.0)
			assert.LessOrEqual(t, m.Agreement, 1.0)

			total := 0
			for _, tier := range schema.TierOrder {
				count, ok := m.Distribution[tier]
				assert.True(t, ok, "tier %s missing from distribution", tier)
				total += count
			}
			assert.Equal(t, result.ClassifiedStudents, total)
		})
	}

	// Only the neighbor methods have a holdout.
	assert.Nil(t, result.Methods[0].HoldoutAccuracy)
	assert.Nil(t, result.Methods[3].HoldoutAccuracy)
	for _, m := range result.Methods[1:3] {
		if m.Note == "" {
			require.NotNil(t, m.HoldoutAccuracy)
		} else {
			assert.Nil(t, m.HoldoutAccuracy)
		}
	}
}

func TestCompareMethodsDeterministic(t *testing.T) {
	a, err := CompareMethods(context.Background(), cohort(), DefaultOptions(), schema.BlendedReference)
	require.NoError(t, err)
	b, err := CompareMethods(context.Background(), cohort(), DefaultOptions(), schema.BlendedReference)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, schema.BlendedReference, a.Reference)
}

func TestCompareMethodsInsufficient(t *testing.T) {
	records := []schema.StudentRecord{uniformStudent(1, 8, 60, 0.9, 0, 90)}
	_, err := CompareMethods(context.Background(), records, DefaultOptions(), "")
	assert.ErrorIs(t, err, algo.ErrDataInsufficient)
}

func TestNeighborMethodFallback(t *testing.T) {
	records := make([]schema.StudentRecord, 0, 6)
	for i := range 6 {
		records = append(records, uniformStudent(int64(i+1), 5+float64(i)*0.1, 60, 0.8, 0, 70))
	}
	x := algo.ExtractFeatures(records)
	// A single Excellent label cannot be stratified.
	labels := []schema.Tier{schema.ExcellentTier, schema.WeakTier, schema.WeakTier, schema.WeakTier, schema.WeakTier, schema.WeakTier}

	report, err := neighborMethod("test", x, labels, labels, 0, algo.DefaultSeed)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Note)
	assert.Nil(t, report.HoldoutAccuracy)
	assert.Equal(t, "test", report.Method)
}

func TestExecuteCompare(t *testing.T) {
	cfg := classifyConfig(t, writeRoster(t, "students.json", cohort()))
	mgr := &iocache.MockStoreManager{}

	require.NoError(t, ExecuteCompare(context.Background(), cfg, mgr))

	var got schema.ComparisonResult
	readJSONOutput(t, cfg.OutputFile, &got)
	assert.Len(t, got.Methods, 4)
	mgr.AssertNotCalled(t, "GetRunStore")
}
