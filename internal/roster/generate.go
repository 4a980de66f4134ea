package roster

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/huangsam/tierscope/schema"
)

// Synthetic roster constants.
const (
	FirstStudentID int64 = 125001001
	firstClassNum        = 111
	classCount           = 3
)

// Courses are the fixed courses of a synthetic roster.
var Courses = []string{
	"Intro to Programming",
	"Programming Techniques",
	"Data Structures and Algorithms",
	"Object-Oriented Programming",
}

// span is a closed interval to draw uniformly from.
type span struct{ lo, hi float64 }

// profile drives the base signals of a synthetic student.
type profile struct {
	name       string
	score      span
	behavior   span
	attendance span
}

// Profiles are drawn with equal probability.
var profiles = []profile{
	{"excellent", span{8.0, 10.0}, span{85, 100}, span{0.9, 1.0}},
	{"good", span{7.0, 8.5}, span{70, 90}, span{0.8, 0.95}},
	{"average", span{5.0, 7.0}, span{50, 75}, span{0.6, 0.85}},
	{"weak", span{2.0, 5.5}, span{30, 60}, span{0.3, 0.7}},
}

// Generator draws synthetic rosters from a seeded source. The same seed and count
// always yield the same roster.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator for a seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, 0))}
}

// Generate returns n synthetic students.
func Generate(n int, seed uint64) []schema.StudentRecord {
	return NewGenerator(seed).Students(n)
}

// Students draws n students with consecutive ids.
func (g *Generator) Students(n int) []schema.StudentRecord {
	out := make([]schema.StudentRecord, 0, max(n, 0))
	for i := range n {
		out = append(out, g.student(i))
	}
	return out
}

func (g *Generator) student(i int) schema.StudentRecord {
	p := profiles[g.rng.IntN(len(profiles))]
	base := g.uniform(p.score)
	behavior := g.uniform(p.behavior)
	attendance := g.uniform(p.attendance)

	courses := make(map[string]schema.CourseScores, len(Courses))
	for _, name := range Courses {
		score := clip(base + g.around(1))
		courses[name] = schema.CourseScores{
			Score:       round(score, 2),
			Midterm:     round(clip(score+g.around(1.5)), 2),
			Final:       round(clip(score+g.around(1)), 2),
			Homework:    round(clip(score+g.around(0.5)), 2),
			TimeMinutes: round(g.uniform(span{30, 180}), 1),
		}
	}

	return schema.StudentRecord{
		ID:        FirstStudentID + int64(i),
		Name:      fmt.Sprintf("Student %d", i+1),
		ClassCode: fmt.Sprintf("22CT%d", firstClassNum+i%classCount),
		Courses:   courses,
		Behavioral: schema.Behavioral{
			AttendanceRate:       schema.Ptr(round(attendance, 2)),
			BehaviorScore:        schema.Ptr(round(behavior, 1)),
			LateSubmissions:      schema.Ptr(g.rng.IntN(16)),
			AssignmentCompletion: schema.Ptr(round(g.uniform(span{0.5, 1.0}), 2)),
			StudyHoursPerWeek:    schema.Ptr(round(g.uniform(span{5, 30}), 1)),
		},
		Aggregates: schema.Aggregates{
			TotalScore:   schema.Ptr(round(base, 2)),
			MidtermScore: schema.Ptr(round(base+g.around(1), 2)),
			FinalScore:   schema.Ptr(round(base+g.around(0.5), 2)),
		},
	}
}

func (g *Generator) uniform(s span) float64 {
	return s.lo + g.rng.Float64()*(s.hi-s.lo)
}

func (g *Generator) around(d float64) float64 {
	return g.uniform(span{-d, d})
}

func clip(v float64) float64 {
	return min(max(v, 0), 10)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
