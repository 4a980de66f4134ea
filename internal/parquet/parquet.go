// Package parquet exports tierscope runs and classification results to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"io"
	"os"
	"time"

	"github.com/huangsam/tierscope/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"
)

// Run is one classification run. It maps to the tierscope_runs table.
type Run struct {
	RunID   int64  `parquet:"run_id,snappy"`
	RunUUID string `parquet:"run_uuid,snappy"`

	StartTime time.Time  `parquet:"start_time,snappy"`
	EndTime   *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is null while the run has not ended
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalStudents      int32 `parquet:"total_students,snappy"`
	ClassifiedStudents int32 `parquet:"classified_students,snappy"`

	// ConfigParams holds the JSON-encoded run configuration
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// StudentResult is one stored student outcome. It maps to the tierscope_student_results table.
type StudentResult struct {
	RunID           int64   `parquet:"run_id,snappy"`
	StudentID       int64   `parquet:"student_id,snappy"`
	Name            string  `parquet:"name,snappy"`
	ClassCode       string  `parquet:"class_code,snappy"`
	KMeansTier      string  `parquet:"kmeans_tier,snappy"`
	KNNTier         string  `parquet:"knn_tier,snappy"`
	PrimaryTier     string  `parquet:"primary_tier,snappy"`
	FinalTier       string  `parquet:"final_tier,snappy"`
	CompositeScore  float64 `parquet:"composite_score,snappy"`
	AnomalyDetected bool    `parquet:"anomaly_detected,snappy"`
	AnomalySeverity int32   `parquet:"anomaly_severity,snappy"`
	AnomalyReason   *string `parquet:"anomaly_reason,optional,snappy"`
}

// Classification is one row of a classify run written with --output parquet.
type Classification struct {
	Rank            int32   `parquet:"rank,snappy"`
	StudentID       int64   `parquet:"student_id,snappy"`
	Name            string  `parquet:"name,snappy"`
	ClassCode       string  `parquet:"class_code,snappy"`
	FinalTier       string  `parquet:"final_tier,snappy"`
	KMeansTier      string  `parquet:"kmeans_tier,snappy"`
	KNNTier         string  `parquet:"knn_tier,snappy"`
	PrimaryTier     string  `parquet:"primary_tier,snappy"`
	CompositeScore  float64 `parquet:"composite_score,snappy"`
	AnomalySeverity int32   `parquet:"anomaly_severity,snappy"`
	AnomalyReason   string  `parquet:"anomaly_reason,snappy"`
}

// WriteRunsParquet writes runs to a Parquet file at outputPath.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteStudentResultsParquet writes stored student results to a Parquet file at outputPath.
func WriteStudentResultsParquet(data []StudentResult, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteClassifications writes classification rows to w.
func WriteClassifications(w io.Writer, data []Classification) error {
	return writeRows(w, data)
}

func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrapf(err, "parquet: create %s", outputPath)
	}
	defer func() { _ = file.Close() }()
	return writeRows(file, data)
}

// writeRows infers the schema from the struct tags of T.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return eris.Wrap(err, "parquet: write rows")
	}
	if err := writer.Close(); err != nil {
		return eris.Wrap(err, "parquet: close writer")
	}
	return nil
}

// ConvertRunRecords maps store rows to Parquet rows.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:              record.RunID,
			RunUUID:            record.RunUUID,
			StartTime:          record.StartTime,
			EndTime:            record.EndTime,
			RunDurationMs:      record.RunDurationMs,
			TotalStudents:      record.TotalStudents,
			ClassifiedStudents: record.ClassifiedStudents,
			ConfigParams:       record.ConfigParams,
		}
	}
	return result
}

// ConvertStudentResultRecords maps store rows to Parquet rows.
func ConvertStudentResultRecords(records []schema.StudentResultRecord) []StudentResult {
	result := make([]StudentResult, len(records))
	for i, record := range records {
		result[i] = StudentResult{
			RunID:           record.RunID,
			StudentID:       record.StudentID,
			Name:            record.Name,
			ClassCode:       record.ClassCode,
			KMeansTier:      record.KMeansTier,
			KNNTier:         record.KNNTier,
			PrimaryTier:     record.PrimaryTier,
			FinalTier:       record.FinalTier,
			CompositeScore:  record.CompositeScore,
			AnomalyDetected: record.AnomalyDetected,
			AnomalySeverity: record.AnomalySeverity,
			AnomalyReason:   record.AnomalyReason,
		}
	}
	return result
}

// ConvertClassificationResults maps results to Parquet rows, ranked from 1 in the given order.
func ConvertClassificationResults(results []schema.ClassificationResult) []Classification {
	rows := make([]Classification, len(results))
	for i, r := range results {
		rows[i] = Classification{
			Rank:            int32(i + 1),
			StudentID:       r.StudentID,
			Name:            r.Name,
			ClassCode:       r.ClassCode,
			FinalTier:       string(r.FinalTier),
			KMeansTier:      string(r.KMeansTier),
			KNNTier:         string(r.KNNTier),
			PrimaryTier:     string(r.PrimaryTier),
			CompositeScore:  r.CompositeScore,
			AnomalySeverity: int32(r.AnomalySeverity),
			AnomalyReason:   r.AnomalyReason,
		}
	}
	return rows
}
