package algo

import "github.com/huangsam/tierscope/schema"

// Defaults applied by the primary composite when a behavioral value is absent.
const (
	DefaultCompositeBehavior   = 50.0
	DefaultCompositeAttendance = 0.8
)

// CompositeInput holds raw signals of the primary composite.
type CompositeInput struct {
	AvgScore   float64
	Midterm    float64
	Final      float64
	Homework   float64
	Behavior   float64 // 0-100
	Attendance float64 // 0-1
	Late       int
	Stability  float64
	TotalHours float64
}

// CompositeResult is a penalized composite score with its parts and tier.
type CompositeResult struct {
	Raw       float64
	Score     float64
	Breakdown map[schema.BreakdownKey]float64
	Tier      schema.Tier
}

// thresholdStep pays value when a signal crosses at.
type thresholdStep struct {
	at    float64
	value float64
	label string
}

// Penalty ladders, first match wins.
var (
	latePenalties = []thresholdStep{
		{20, 2.0, "late >= 20"},
		{15, 1.5, "late >= 15"},
		{10, 1.0, "late >= 10"},
		{5, 0.5, "late >= 5"},
	}
	attendancePenalties = []thresholdStep{
		{0.4, 2.0, "attendance < 0.4"},
		{0.5, 1.5, "attendance < 0.5"},
		{0.6, 1.0, "attendance < 0.6"},
		{0.7, 0.5, "attendance < 0.7"},
	}
	timePenalties = []thresholdStep{
		{5, 1.5, "avg >= 8 and hours < 5"},
		{8, 0.5, "avg >= 8 and hours < 8"},
	}
)

// timePenaltyFloor is the average score from which short study time is penalized.
const timePenaltyFloor = 8.0

// CompositeInputFromRecord derives composite inputs from a record. Course averages are zero
// without courses except the score, which falls back to the aggregate total.
func CompositeInputFromRecord(r *schema.StudentRecord) CompositeInput {
	cs := Summarize(r)
	b := r.Behavioral
	return CompositeInput{
		AvgScore:   cs.AvgScore,
		Midterm:    cs.AvgMidterm,
		Final:      cs.AvgFinal,
		Homework:   cs.AvgHomework,
		Behavior:   schema.ValueOr(b.BehaviorScore, DefaultCompositeBehavior),
		Attendance: schema.ValueOr(b.AttendanceRate, DefaultCompositeAttendance),
		Late:       schema.ValueOr(b.LateSubmissions, 0),
		Stability:  cs.Stability(),
		TotalHours: cs.TotalHours(),
	}
}

// PrimaryComposite scores a student on a 0-10 scale, subtracts penalties and maps the
// result onto a tier.
func PrimaryComposite(in CompositeInput) CompositeResult {
	scorePart := 0.15*in.AvgScore + 0.10*in.Midterm + 0.15*in.Final + 0.10*in.Homework
	punctuality := max(0, 1-float64(in.Late)/lateScale)
	behaviorPart := 0.15*10*(in.Behavior/behaviorScale) +
		0.15*10*in.Attendance +
		0.10*10*punctuality +
		0.10*10*in.Stability

	latePenalty := ladderAtLeast(latePenalties, float64(in.Late))
	attendancePenalty := ladderBelow(attendancePenalties, in.Attendance)
	timePenalty := 0.0
	if in.AvgScore >= timePenaltyFloor {
		timePenalty = ladderBelow(timePenalties, in.TotalHours)
	}

	raw := scorePart + behaviorPart
	score := max(0, raw-latePenalty-attendancePenalty-timePenalty)
	return CompositeResult{
		Raw:   raw,
		Score: score,
		Breakdown: map[schema.BreakdownKey]float64{
			schema.BreakdownScorePart:         scorePart,
			schema.BreakdownBehaviorPart:      behaviorPart,
			schema.BreakdownLatePenalty:       latePenalty,
			schema.BreakdownAttendancePenalty: attendancePenalty,
			schema.BreakdownTimePenalty:       timePenalty,
		},
		Tier: schema.TierFromScore(score),
	}
}

func ladderAtLeast(steps []thresholdStep, v float64) float64 {
	for _, s := range steps {
		if v >= s.at {
			return s.value
		}
	}
	return 0
}

func ladderBelow(steps []thresholdStep, v float64) float64 {
	for _, s := range steps {
		if v < s.at {
			return s.value
		}
	}
	return 0
}

// PenaltyLadders describes the primary composite penalties for display.
func PenaltyLadders() []schema.PenaltyLadder {
	describe := func(name string, steps []thresholdStep) schema.PenaltyLadder {
		out := schema.PenaltyLadder{Name: name}
		for _, s := range steps {
			out.Steps = append(out.Steps, schema.ThresholdStep{Condition: s.label, Value: s.value})
		}
		return out
	}
	return []schema.PenaltyLadder{
		describe(string(schema.BreakdownLatePenalty), latePenalties),
		describe(string(schema.BreakdownAttendancePenalty), attendancePenalties),
		describe(string(schema.BreakdownTimePenalty), timePenalties),
	}
}

// PrimaryFormula is a readable form of the unpenalized primary composite.
const PrimaryFormula = "0.15*avg + 0.10*midterm + 0.15*final + 0.10*homework" +
	" + 1.5*behavior/100 + 1.5*attendance + 1.0*punctuality + 1.0*stability"

// TierCutoffs lists composite thresholds, best tier first.
func TierCutoffs() []schema.ThresholdStep {
	return []schema.ThresholdStep{
		{Condition: "Excellent: score >= 8", Value: 8},
		{Condition: "Good: score >= 7", Value: 7},
		{Condition: "Average: score >= 5", Value: 5},
		{Condition: "Weak: otherwise", Value: 0},
	}
}
