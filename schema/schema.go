// Package schema has models, constants and presets for all parts of tierscope.
package schema

import (
	"maps"
	"math"
	"slices"
)

// CourseScores holds the per-course signals of a student. Scores are on a 0-10 scale.
type CourseScores struct {
	Score       float64 `json:"score" yaml:"score"`
	Midterm     float64 `json:"midterm_score" yaml:"midterm_score"`
	Final       float64 `json:"final_score" yaml:"final_score"`
	Homework    float64 `json:"homework_score" yaml:"homework_score"`
	TimeMinutes float64 `json:"time_minutes" yaml:"time_minutes"`
}

// Behavioral holds the behavioral signals of a student. Every field is optional
// because different consumers apply different defaults when a value is absent.
type Behavioral struct {
	AttendanceRate       *float64 `json:"attendance_rate,omitempty" yaml:"attendance_rate,omitempty"`             // 0-1
	BehaviorScore        *float64 `json:"behavior_score_100,omitempty" yaml:"behavior_score_100,omitempty"`       // 0-100
	LateSubmissions      *int     `json:"late_submissions,omitempty" yaml:"late_submissions,omitempty"`           // count
	AssignmentCompletion *float64 `json:"assignment_completion,omitempty" yaml:"assignment_completion,omitempty"` // 0-1
	StudyHoursPerWeek    *float64 `json:"study_hours_per_week,omitempty" yaml:"study_hours_per_week,omitempty"`
}

// Aggregates holds record-level totals used when no course data exists.
type Aggregates struct {
	TotalScore   *float64 `json:"total_score,omitempty" yaml:"total_score,omitempty"`
	MidtermScore *float64 `json:"midterm_score,omitempty" yaml:"midterm_score,omitempty"`
	FinalScore   *float64 `json:"final_score,omitempty" yaml:"final_score,omitempty"`
}

// StudentRecord is the input entity for a classification run.
type StudentRecord struct {
	ID         int64                   `json:"student_id" yaml:"student_id"`
	Name       string                  `json:"name" yaml:"name"`
	ClassCode  string                  `json:"class" yaml:"class"`
	Courses    map[string]CourseScores `json:"courses" yaml:"courses"`
	Behavioral Behavioral              `json:"behavioral" yaml:"behavioral"`
	Aggregates Aggregates              `json:"aggregates" yaml:"aggregates"`
}

// ValueOr dereferences p, or returns def when p is nil.
func ValueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// CourseNames returns course names in sorted order so that sums over courses are deterministic.
func (r *StudentRecord) CourseNames() []string {
	return slices.Sorted(maps.Keys(r.Courses))
}

// OrderedCourses returns course scores in CourseNames order.
func (r *StudentRecord) OrderedCourses() []CourseScores {
	names := r.CourseNames()
	out := make([]CourseScores, 0, len(names))
	for _, name := range names {
		out = append(out, r.Courses[name])
	}
	return out
}

// TotalTimeMinutes sums time spent across all courses.
func (r *StudentRecord) TotalTimeMinutes() float64 {
	var total float64
	for _, c := range r.OrderedCourses() {
		total += c.TimeMinutes
	}
	return total
}

// Sufficient reports whether the record has enough score and time data to be classified:
// some score (course or aggregate) above zero and some course time above zero.
func (r *StudentRecord) Sufficient() bool {
	hasScore := ValueOr(r.Aggregates.TotalScore, 0) > 0
	hasTime := false
	for _, c := range r.Courses {
		if c.Score > 0 {
			hasScore = true
		}
		if c.TimeMinutes > 0 {
			hasTime = true
		}
	}
	return hasScore && hasTime
}

// Normalized returns a deep copy with scores clipped to [0,10], ratios clipped to [0,1],
// and negative counts or durations raised to zero. NaN values become the lower bound.
func (r StudentRecord) Normalized() StudentRecord {
	out := r
	if r.Courses != nil {
		out.Courses = make(map[string]CourseScores, len(r.Courses))
		for name, c := range r.Courses {
			out.Courses[name] = CourseScores{
				Score:       clamp(c.Score, 0, 10),
				Midterm:     clamp(c.Midterm, 0, 10),
				Final:       clamp(c.Final, 0, 10),
				Homework:    clamp(c.Homework, 0, 10),
				TimeMinutes: nonNegative(c.TimeMinutes),
			}
		}
	}
	b := r.Behavioral
	out.Behavioral = Behavioral{
		AttendanceRate:       clampPtr(b.AttendanceRate, 0, 1),
		BehaviorScore:        clampPtr(b.BehaviorScore, 0, 100),
		AssignmentCompletion: clampPtr(b.AssignmentCompletion, 0, 1),
		StudyHoursPerWeek:    clampPtr(b.StudyHoursPerWeek, 0, 168),
	}
	if b.LateSubmissions != nil {
		out.Behavioral.LateSubmissions = Ptr(max(*b.LateSubmissions, 0))
	}
	a := r.Aggregates
	out.Aggregates = Aggregates{
		TotalScore:   clampPtr(a.TotalScore, 0, 10),
		MidtermScore: clampPtr(a.MidtermScore, 0, 10),
		FinalScore:   clampPtr(a.FinalScore, 0, 10),
	}
	return out
}

// clamp maps NaN to lo so one malformed value cannot poison the feature matrix.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return min(max(v, lo), hi)
}

// nonNegative maps negative and non-finite values to zero.
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func clampPtr(p *float64, lo, hi float64) *float64 {
	if p == nil {
		return nil
	}
	return Ptr(clamp(*p, lo, hi))
}
