package schema

import "time"

// RunRecord represents a row from the tierscope_runs table.
type RunRecord struct {
	RunID              int64
	RunUUID            string
	StartTime          time.Time
	EndTime            *time.Time
	RunDurationMs      *int32
	TotalStudents      int32
	ClassifiedStudents int32
	ConfigParams       *string
}

// StudentResultRecord represents a row from the tierscope_student_results table.
type StudentResultRecord struct {
	RunID           int64
	StudentID       int64
	Name            string
	ClassCode       string
	KMeansTier      string
	KNNTier         string
	PrimaryTier     string
	FinalTier       string
	CompositeScore  float64
	AnomalyDetected bool
	AnomalySeverity int32
	AnomalyReason   *string
}

// NewStudentResultRecord flattens a classification result into a storable row.
func NewStudentResultRecord(runID int64, r ClassificationResult) StudentResultRecord {
	rec := StudentResultRecord{
		RunID:           runID,
		StudentID:       r.StudentID,
		Name:            r.Name,
		ClassCode:       r.ClassCode,
		KMeansTier:      string(r.KMeansTier),
		KNNTier:         string(r.KNNTier),
		PrimaryTier:     string(r.PrimaryTier),
		FinalTier:       string(r.FinalTier),
		CompositeScore:  r.CompositeScore,
		AnomalyDetected: r.AnomalyDetected,
		AnomalySeverity: int32(r.AnomalySeverity),
	}
	if r.AnomalyReason != "" {
		rec.AnomalyReason = Ptr(r.AnomalyReason)
	}
	return rec
}
