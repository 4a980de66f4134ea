package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/tierscope/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRuns() []Run {
	start := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	return []Run{
		{
			RunID:              1,
			RunUUID:            "5f0c6a1e-6f41-4a4e-9d0e-2b1b8a0f9c11",
			StartTime:          start,
			EndTime:            &end,
			RunDurationMs:      schema.Ptr(int32(1500)),
			TotalStudents:      50,
			ClassifiedStudents: 48,
			ConfigParams:       schema.Ptr(`{"clusters":4}`),
		},
		{
			RunID:         2,
			RunUUID:       "0b7cbb4e-4f0d-4b52-8f3e-e0a3e8c7d2a4",
			StartTime:     start.Add(time.Hour),
			TotalStudents: 10,
		},
	}
}

func readAll[T any](t *testing.T, r io.ReaderAt) []T {
	t.Helper()
	reader := parquet.NewGenericReader[T](r)
	defer func() { _ = reader.Close() }()
	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"run", new(Run), []string{"run_id", "run_uuid", "start_time", "end_time", "run_duration_ms", "total_students", "classified_students", "config_params"}},
		{"student result", new(StudentResult), []string{"run_id", "student_id", "name", "class_code", "kmeans_tier", "knn_tier", "primary_tier", "final_tier", "composite_score", "anomaly_detected", "anomaly_severity", "anomaly_reason"}},
		{"classification", new(Classification), []string{"rank", "student_id", "final_tier", "composite_score", "anomaly_reason"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestWriteRunsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.parquet")
	data := sampleRuns()
	require.NoError(t, WriteRunsParquet(data, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got := readAll[Run](t, f)
	require.Len(t, got, len(data))
	for i := range data {
		assert.Equal(t, data[i].RunID, got[i].RunID)
		assert.Equal(t, data[i].RunUUID, got[i].RunUUID)
		assert.Equal(t, data[i].TotalStudents, got[i].TotalStudents)
		if data[i].EndTime == nil {
			assert.Nil(t, got[i].EndTime)
			assert.Nil(t, got[i].RunDurationMs)
			assert.Nil(t, got[i].ConfigParams)
			continue
		}
		require.NotNil(t, got[i].EndTime)
		assert.WithinDuration(t, *data[i].EndTime, *got[i].EndTime, time.Microsecond)
		assert.Equal(t, *data[i].RunDurationMs, *got[i].RunDurationMs)
		assert.Equal(t, *data[i].ConfigParams, *got[i].ConfigParams)
	}
}

func TestWriteStudentResultsParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.parquet")
	records := []schema.StudentResultRecord{
		{RunID: 1, StudentID: 125001001, Name: "An", ClassCode: "22CT111", KMeansTier: "Good", KNNTier: "Good", PrimaryTier: "Good", FinalTier: "Weak", CompositeScore: 7.4, AnomalyDetected: true, AnomalySeverity: 3, AnomalyReason: schema.Ptr("too fast")},
		{RunID: 1, StudentID: 125001002, Name: "Binh", ClassCode: "22CT112", KMeansTier: "Average", KNNTier: "Average", PrimaryTier: "Average", FinalTier: "Average", CompositeScore: 5.5},
	}
	require.NoError(t, WriteStudentResultsParquet(ConvertStudentResultRecords(records), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got := readAll[StudentResult](t, f)
	require.Len(t, got, 2)
	assert.Equal(t, int64(125001001), got[0].StudentID)
	assert.True(t, got[0].AnomalyDetected)
	require.NotNil(t, got[0].AnomalyReason)
	assert.Equal(t, "too fast", *got[0].AnomalyReason)
	assert.Nil(t, got[1].AnomalyReason)
	assert.InDelta(t, 5.5, got[1].CompositeScore, 1e-9)
}

func TestWriteClassifications(t *testing.T) {
	results := []schema.ClassificationResult{
		{StudentID: 7, Name: "Chi", FinalTier: schema.ExcellentTier, KMeansTier: schema.ExcellentTier, KNNTier: schema.ExcellentTier, PrimaryTier: schema.ExcellentTier, CompositeScore: 8.9},
		schema.NewInsufficientResult(&schema.StudentRecord{ID: 8, Name: "Dung"}),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteClassifications(&buf, ConvertClassificationResults(results)))

	got := readAll[Classification](t, bytes.NewReader(buf.Bytes()))
	require.Len(t, got, 2)
	assert.Equal(t, int32(1), got[0].Rank)
	assert.Equal(t, "Excellent", got[0].FinalTier)
	assert.Equal(t, int32(2), got[1].Rank)
	assert.Equal(t, string(schema.InsufficientTier), got[1].FinalTier)
	assert.Equal(t, schema.InsufficientReason, got[1].AnomalyReason)
}

func TestWriteRunsParquet_EmptyData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRunsParquet([]Run{}, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteRunsParquet_BadPath(t *testing.T) {
	err := WriteRunsParquet(sampleRuns(), filepath.Join(t.TempDir(), "missing", "runs.parquet"))
	assert.Error(t, err)
}
