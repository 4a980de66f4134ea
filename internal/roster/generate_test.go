package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(20, 42)
	b := Generate(20, 42)
	c := Generate(20, 43)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerateShape(t *testing.T) {
	records := Generate(50, 42)
	require.Len(t, records, 50)

	for i, r := range records {
		assert.Equal(t, FirstStudentID+int64(i), r.ID)
		assert.Contains(t, []string{"22CT111", "22CT112", "22CT113"}, r.ClassCode)
		assert.Len(t, r.Courses, len(Courses))
		assert.True(t, r.Sufficient(), "student %d", r.ID)

		for name, c := range r.Courses {
			for _, v := range []float64{c.Score, c.Midterm, c.Final, c.Homework} {
				assert.GreaterOrEqual(t, v, 0.0, name)
				assert.LessOrEqual(t, v, 10.0, name)
			}
			assert.GreaterOrEqual(t, c.TimeMinutes, 30.0)
			assert.LessOrEqual(t, c.TimeMinutes, 180.0)
		}

		b := r.Behavioral
		assert.GreaterOrEqual(t, *b.AttendanceRate, 0.3)
		assert.LessOrEqual(t, *b.AttendanceRate, 1.0)
		assert.GreaterOrEqual(t, *b.BehaviorScore, 30.0)
		assert.LessOrEqual(t, *b.BehaviorScore, 100.0)
		assert.GreaterOrEqual(t, *b.LateSubmissions, 0)
		assert.LessOrEqual(t, *b.LateSubmissions, 15)
		assert.GreaterOrEqual(t, *b.AssignmentCompletion, 0.5)
		assert.GreaterOrEqual(t, *b.StudyHoursPerWeek, 5.0)
		assert.GreaterOrEqual(t, *r.Aggregates.TotalScore, 2.0)
		assert.LessOrEqual(t, *r.Aggregates.TotalScore, 10.0)
	}
	assert.Equal(t, "22CT111", records[0].ClassCode)
	assert.Equal(t, "22CT112", records[1].ClassCode)
	assert.Equal(t, "Student 1", records[0].Name)
}

func TestGenerateEmpty(t *testing.T) {
	assert.Empty(t, Generate(0, 1))
	assert.Empty(t, Generate(-3, 1))
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 1.23, round(1.234, 2), 1e-12)
	assert.InDelta(t, 1.24, round(1.235001, 2), 1e-12)
	assert.InDelta(t, 42.5, round(42.46, 1), 1e-12)
}

func BenchmarkGenerate(b *testing.B) {
	for b.Loop() {
		Generate(500, 42)
	}
}
