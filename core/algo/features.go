package algo

import (
	"github.com/huangsam/tierscope/schema"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Feature scaling constants.
const (
	scoreScale     = 10.0  // scores are on a 0-10 scale
	behaviorScale  = 100.0 // behavior is on a 0-100 scale
	lateScale      = 10.0  // ten late submissions zero out punctuality
	avgTimeCeiling = 600.0 // minutes per course that saturate the time feature
	stabilityScale = 5.0   // score spread that zeroes out stability
)

// FeatureVector is the fixed-width numeric representation of one student.
type FeatureVector [schema.NumFeatures]float64

// CourseStats are per-record aggregates over all courses, zeros included.
type CourseStats struct {
	NumCourses   int
	Scores       []float64
	AvgScore     float64 // course mean, or the aggregate total score without courses
	AvgMidterm   float64 // course mean, 0 without courses
	AvgFinal     float64 // course mean, 0 without courses
	AvgHomework  float64 // course mean, 0 without courses
	TotalMinutes float64
	AvgMinutes   float64 // TotalMinutes / NumCourses, 0 without courses
	ScoreStdDev  float64 // population standard deviation of course scores
}

// TotalHours is the total time spent across all courses, in hours.
func (cs CourseStats) TotalHours() float64 {
	return cs.TotalMinutes / 60
}

// Stability is 1 - pstdev/5, or 1 with fewer than two courses.
func (cs CourseStats) Stability() float64 {
	if cs.NumCourses < 2 {
		return 1
	}
	return 1 - cs.ScoreStdDev/stabilityScale
}

// Summarize computes course aggregates for a record.
func Summarize(r *schema.StudentRecord) CourseStats {
	courses := r.OrderedCourses()
	cs := CourseStats{NumCourses: len(courses)}
	if len(courses) == 0 {
		cs.AvgScore = schema.ValueOr(r.Aggregates.TotalScore, 0)
		return cs
	}

	cs.Scores = make([]float64, len(courses))
	midterms := make([]float64, len(courses))
	finals := make([]float64, len(courses))
	homeworks := make([]float64, len(courses))
	for i, c := range courses {
		cs.Scores[i] = c.Score
		midterms[i] = c.Midterm
		finals[i] = c.Final
		homeworks[i] = c.Homework
		cs.TotalMinutes += c.TimeMinutes
	}

	cs.AvgScore, cs.ScoreStdDev = stat.PopMeanStdDev(cs.Scores, nil)
	cs.AvgMidterm = stat.Mean(midterms, nil)
	cs.AvgFinal = stat.Mean(finals, nil)
	cs.AvgHomework = stat.Mean(homeworks, nil)
	cs.AvgMinutes = cs.TotalMinutes / float64(len(courses))
	return cs
}

// CoarseAnomalyFlag is the preliminary score-versus-time signal folded into the features.
// It uses average minutes per course, unlike the rule engine which uses total hours.
func CoarseAnomalyFlag(avgScore, avgMinutes float64) float64 {
	switch {
	case avgScore >= 9.5 && avgMinutes < 30:
		return 1.0
	case avgScore >= 9.0 && avgMinutes < 60:
		return 0.6
	case avgScore >= 8.5 && avgMinutes < 90:
		return 0.3
	default:
		return 0
	}
}

// ExtractVector converts one record into its feature vector. Missing fields count as zero and
// averages fall back to record-level aggregates when the record has no courses.
func ExtractVector(r *schema.StudentRecord) FeatureVector {
	cs := Summarize(r)
	midterm, final := cs.AvgMidterm, cs.AvgFinal
	if cs.NumCourses == 0 {
		midterm = schema.ValueOr(r.Aggregates.MidtermScore, 0)
		final = schema.ValueOr(r.Aggregates.FinalScore, 0)
	}

	b := r.Behavioral
	late := float64(schema.ValueOr(b.LateSubmissions, 0))

	var v FeatureVector
	v[0] = cs.AvgScore / scoreScale
	v[1] = midterm / scoreScale
	v[2] = final / scoreScale
	v[3] = cs.AvgHomework / scoreScale
	v[4] = schema.ValueOr(b.BehaviorScore, 0) / behaviorScale
	v[5] = schema.ValueOr(b.AttendanceRate, 0)
	v[6] = max(0, 1-late/lateScale)
	v[7] = schema.ValueOr(b.AssignmentCompletion, 0)
	v[8] = min(cs.AvgMinutes/avgTimeCeiling, 1)
	v[9] = 1 - CoarseAnomalyFlag(cs.AvgScore, cs.AvgMinutes)
	v[10] = min(late/lateScale, 1)
	v[11] = cs.Stability()
	return v
}

// ExtractFeatures builds the n x 12 feature matrix for records, one row per record.
// An empty input yields an empty matrix.
func ExtractFeatures(records []schema.StudentRecord) *mat.Dense {
	if len(records) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(len(records), schema.NumFeatures, nil)
	for i := range records {
		v := ExtractVector(&records[i])
		m.SetRow(i, v[:])
	}
	return m
}
