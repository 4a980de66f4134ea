package iocache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/tierscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []schema.ClassificationResult {
	return []schema.ClassificationResult{
		{
			StudentID: 125001001, Name: "Nguyen Van An", ClassCode: "22CT111", Sufficient: true,
			KMeansTier: schema.ExcellentTier, KNNTier: schema.ExcellentTier, PrimaryTier: schema.ExcellentTier,
			FinalTier: schema.WeakTier, CompositeScore: 8.6, AnomalyDetected: true, AnomalySeverity: 3,
			AnomalyReasons: []string{"a", "b"}, AnomalyReason: "a | b",
		},
		{
			StudentID: 125001002, Name: "Tran Thi Binh", ClassCode: "22CT112", Sufficient: true,
			KMeansTier: schema.AverageTier, KNNTier: schema.AverageTier, PrimaryTier: schema.AverageTier,
			FinalTier: schema.AverageTier, CompositeScore: 5.525, AnomalyReasons: []string{},
		},
		schema.NewInsufficientResult(&schema.StudentRecord{ID: 125001003, Name: "Le Van Cuong", ClassCode: "22CT113"}),
	}
}

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(time.Now(), map[string]any{"clusters": 4})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)
	assert.NoError(t, store.RecordResults(1, sampleResults()))
	assert.NoError(t, store.EndRun(1, time.Now(), 3, 2))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestRunStore_SQLite(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun(start, map[string]any{"clusters": 4, "normalization": "minmax"})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	require.NoError(t, store.RecordResults(runID, sampleResults()))
	require.NoError(t, store.EndRun(runID, start.Add(2500*time.Millisecond), 3, 2))

	t.Run("runs", func(t *testing.T) {
		runs, err := store.GetAllRuns()
		require.NoError(t, err)
		require.Len(t, runs, 1)
		run := runs[0]
		assert.Equal(t, runID, run.RunID)
		_, err = uuid.Parse(run.RunUUID)
		assert.NoError(t, err)
		assert.True(t, run.StartTime.Equal(start))
		require.NotNil(t, run.EndTime)
		assert.True(t, run.EndTime.Equal(start.Add(2500*time.Millisecond)))
		require.NotNil(t, run.RunDurationMs)
		assert.Equal(t, int32(2500), *run.RunDurationMs)
		assert.Equal(t, int32(3), run.TotalStudents)
		assert.Equal(t, int32(2), run.ClassifiedStudents)

		require.NotNil(t, run.ConfigParams)
		var params map[string]any
		require.NoError(t, json.Unmarshal([]byte(*run.ConfigParams), &params))
		assert.Equal(t, "minmax", params["normalization"])
	})

	t.Run("student results", func(t *testing.T) {
		results, err := store.GetAllStudentResults()
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, int64(125001001), results[0].StudentID)
		assert.Equal(t, "Weak", results[0].FinalTier)
		assert.True(t, results[0].AnomalyDetected)
		assert.Equal(t, int32(3), results[0].AnomalySeverity)
		require.NotNil(t, results[0].AnomalyReason)
		assert.Equal(t, "a | b", *results[0].AnomalyReason)

		assert.False(t, results[1].AnomalyDetected)
		assert.Nil(t, results[1].AnomalyReason)
		assert.InDelta(t, 5.525, results[1].CompositeScore, 1e-9)

		assert.Equal(t, string(schema.InsufficientTier), results[2].FinalTier)
		require.NotNil(t, results[2].AnomalyReason)
		assert.Equal(t, schema.InsufficientReason, *results[2].AnomalyReason)
	})

	t.Run("status", func(t *testing.T) {
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.Equal(t, 1, status.TotalRuns)
		assert.Equal(t, runID, status.LastRunID)
		assert.NotEmpty(t, status.LastRunUUID)
		assert.True(t, status.LastRunTime.Equal(start))
		assert.True(t, status.OldestRunTime.Equal(start))
		assert.Equal(t, 3, status.TotalStudentsSeen)
		assert.Equal(t, int64(1), status.TableSizes[runsTable])
		assert.Equal(t, int64(3), status.TableSizes[studentResultsTable])
	})
}

func TestRunStore_MultipleRuns(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	var ids []int64
	for i := range 3 {
		id, err := store.BeginRun(base.Add(time.Duration(i)*time.Hour), nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Nil(t, runs[2].EndTime)
	assert.Nil(t, runs[2].RunDurationMs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, ids[2], status.LastRunID)
	assert.True(t, status.OldestRunTime.Equal(base))
	assert.True(t, status.LastRunTime.Equal(base.Add(2*time.Hour)))
}

func TestRunStore_EndUnknownRun(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Error(t, store.EndRun(42, time.Now(), 1, 1))
}

func TestRunStore_DuplicateStudentInRun(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runID, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)

	dup := sampleResults()[:1]
	dup = append(dup, dup[0])
	assert.Error(t, store.RecordResults(runID, dup))

	// the failed transaction leaves nothing behind
	results, err := store.GetAllStudentResults()
	require.NoError(t, err)
	assert.Empty(t, results)
}
