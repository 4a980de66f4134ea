package algo

import (
	"fmt"
	"strings"

	"github.com/huangsam/tierscope/schema"
)

// Severity levels of the anomaly engine.
const (
	SeverityNone   = 0
	SeverityLow    = 1
	SeverityMedium = 2
	SeverityHigh   = 3
)

// noTimeEfficiency is the score per hour reported when no time was spent at all.
const noTimeEfficiency = 999.0

// Markers the dedupe rules look for in earlier reasons.
const (
	cheatingMarker = "suspected cheating"
	absenceMarker  = "absent"
)

// Signals are the raw inputs of the anomaly engine.
type Signals struct {
	AvgScore   float64
	TotalHours float64
	Attendance float64 // 0-1
	Late       int
	Behavior   float64 // 0-100
}

// SignalsFromRecord derives anomaly signals from a record. Absent behavioral values count
// as zero here, unlike the primary composite.
func SignalsFromRecord(r *schema.StudentRecord) Signals {
	cs := Summarize(r)
	b := r.Behavioral
	return Signals{
		AvgScore:   cs.AvgScore,
		TotalHours: cs.TotalHours(),
		Attendance: schema.ValueOr(b.AttendanceRate, 0),
		Late:       schema.ValueOr(b.LateSubmissions, 0),
		Behavior:   schema.ValueOr(b.BehaviorScore, 0),
	}
}

// Efficiency is score points per hour of study.
func (s Signals) Efficiency() float64 {
	if s.TotalHours > 0 {
		return s.AvgScore / s.TotalHours
	}
	return noTimeEfficiency
}

// AnomalyReport is the outcome of evaluating all rules.
type AnomalyReport struct {
	Detected bool
	Reasons  []string
	Severity int
}

// Reason joins all reasons for display.
func (r AnomalyReport) Reason() string {
	return strings.Join(r.Reasons, schema.ReasonSeparator)
}

// AnomalyRule is one row of the decision table. Reason may return "" to stay silent when an
// earlier reason already covers the finding.
type AnomalyRule struct {
	Condition string
	Severity  int
	Detects   bool
	When      func(s Signals) bool
	Reason    func(s Signals, prior []string) string
}

// AnomalyGroup is an ordered set of rules where only the first match fires.
type AnomalyGroup struct {
	Name  string
	Rules []AnomalyRule
}

// DefaultAnomalyGroups returns the rule groups in evaluation order.
func DefaultAnomalyGroups() []AnomalyGroup {
	return []AnomalyGroup{
		{Name: "time", Rules: []AnomalyRule{
			{
				Condition: "avg >= 8.5 and hours < 5",
				Severity:  SeverityHigh,
				Detects:   true,
				When:      func(s Signals) bool { return s.AvgScore >= 8.5 && s.TotalHours < 5 },
				Reason: func(s Signals, _ []string) string {
					return fmt.Sprintf("Score %.1f/10 but only %.1fh spent (%s)", s.AvgScore, s.TotalHours, cheatingMarker)
				},
			},
			{
				Condition: "avg >= 8 and hours < 4",
				Severity:  SeverityHigh,
				Detects:   true,
				When:      func(s Signals) bool { return s.AvgScore >= 8 && s.TotalHours < 4 },
				Reason: func(s Signals, _ []string) string {
					return fmt.Sprintf("Score %.1f/10 but only %.1fh spent (suspicious)", s.AvgScore, s.TotalHours)
				},
			},
			{
				Condition: "avg >= 8 and avg/hours > 1.5",
				Severity:  SeverityMedium,
				Detects:   true,
				When:      func(s Signals) bool { return s.AvgScore >= 8 && s.Efficiency() > 1.5 },
				Reason: func(s Signals, _ []string) string {
					return fmt.Sprintf("Abnormally high score/time ratio (%.1f points/h), needs review", s.Efficiency())
				},
			},
		}},
		{Name: "attendance", Rules: []AnomalyRule{
			{
				Condition: "avg >= 8 and attendance < 0.5",
				Severity:  SeverityHigh,
				Detects:   true,
				When:      func(s Signals) bool { return s.AvgScore >= 8 && s.Attendance < 0.5 },
				Reason: func(s Signals, _ []string) string {
					return fmt.Sprintf("High score (%.1f/10) but %s %.0f%% (%s)",
						s.AvgScore, absenceMarker, (1-s.Attendance)*100, cheatingMarker)
				},
			},
			{
				Condition: "avg >= 8 and attendance < 0.7",
				Severity:  SeverityMedium,
				Detects:   true,
				When:      func(s Signals) bool { return s.AvgScore >= 8 && s.Attendance < 0.7 },
				Reason: func(s Signals, _ []string) string {
					return fmt.Sprintf("High score (%.1f/10) but %s %.0f%%", s.AvgScore, absenceMarker, (1-s.Attendance)*100)
				},
			},
		}},
		{Name: "combined", Rules: []AnomalyRule{
			{
				Condition: "avg >= 8 and hours < 6 and attendance < 0.7",
				Severity:  SeverityHigh,
				When: func(s Signals) bool {
					return s.AvgScore >= 8 && s.TotalHours < 6 && s.Attendance < 0.7
				},
				Reason: func(_ Signals, prior []string) string {
					if anyContains(prior, cheatingMarker, false) {
						return ""
					}
					return "Combined: high score + short time + frequent absence (highly suspicious)"
				},
			},
		}},
		{Name: "late", Rules: []AnomalyRule{
			lateRule(20, SeverityHigh, "Excessive late submissions (%d times)"),
			lateRule(15, SeverityHigh, "Very many late submissions (%d)"),
			lateRule(10, SeverityMedium, "Many late submissions (%d)"),
			lateRule(5, SeverityLow, "%d late submissions"),
		}},
		{Name: "low attendance", Rules: []AnomalyRule{
			{
				Condition: "attendance < 0.5",
				Severity:  SeverityMedium,
				Detects:   true,
				When:      func(s Signals) bool { return s.Attendance < 0.5 },
				Reason: func(s Signals, prior []string) string {
					if anyContains(prior, absenceMarker, true) {
						return ""
					}
					return fmt.Sprintf("Attendance only %.0f%%", s.Attendance*100)
				},
			},
		}},
		{Name: "needs support", Rules: []AnomalyRule{
			{
				Condition: "avg < 5 and behavior >= 85 and attendance >= 0.95",
				Severity:  SeverityLow,
				Detects:   true,
				When: func(s Signals) bool {
					return s.AvgScore < 5 && s.Behavior >= 85 && s.Attendance >= 0.95
				},
				Reason: func(s Signals, _ []string) string {
					return fmt.Sprintf("Low score (%.1f) but very diligent, needs support", s.AvgScore)
				},
			},
		}},
	}
}

func lateRule(atLeast, severity int, format string) AnomalyRule {
	return AnomalyRule{
		Condition: fmt.Sprintf("late >= %d", atLeast),
		Severity:  severity,
		Detects:   true,
		When:      func(s Signals) bool { return s.Late >= atLeast },
		Reason:    func(s Signals, _ []string) string { return fmt.Sprintf(format, s.Late) },
	}
}

func anyContains(reasons []string, marker string, foldCase bool) bool {
	for _, r := range reasons {
		if foldCase {
			r = strings.ToLower(r)
		}
		if strings.Contains(r, marker) {
			return true
		}
	}
	return false
}

// AnomalyEngine evaluates rule groups in order.
type AnomalyEngine struct {
	Groups []AnomalyGroup
}

// NewAnomalyEngine returns an engine over the default rule groups.
func NewAnomalyEngine() *AnomalyEngine {
	return &AnomalyEngine{Groups: DefaultAnomalyGroups()}
}

// Evaluate runs every group. Severity is the max over fired rules and reasons keep rule order.
func (e *AnomalyEngine) Evaluate(s Signals) AnomalyReport {
	report := AnomalyReport{Reasons: []string{}}
	for _, g := range e.Groups {
		for _, rule := range g.Rules {
			if !rule.When(s) {
				continue
			}
			report.Detected = report.Detected || rule.Detects
			report.Severity = max(report.Severity, rule.Severity)
			if reason := rule.Reason(s, report.Reasons); reason != "" {
				report.Reasons = append(report.Reasons, reason)
			}
			break
		}
	}
	return report
}

// Rules flattens the decision table for display.
func (e *AnomalyEngine) Rules() []schema.AnomalyRuleInfo {
	sample := Signals{AvgScore: 9, TotalHours: 2, Attendance: 0.3, Late: 12, Behavior: 90}
	var out []schema.AnomalyRuleInfo
	for _, g := range e.Groups {
		for _, rule := range g.Rules {
			out = append(out, schema.AnomalyRuleInfo{
				Group:     g.Name,
				Condition: rule.Condition,
				Severity:  rule.Severity,
				Reason:    rule.Reason(sample, nil),
			})
		}
	}
	return out
}

// Demote lowers a tier by severity: 3 forces Weak, 2 and 1 move down that many steps.
// The sentinel and unknown tiers pass through.
func Demote(tier schema.Tier, severity int) schema.Tier {
	rank := tier.Rank()
	if rank < 0 || severity <= SeverityNone {
		return tier
	}
	if severity >= SeverityHigh {
		return schema.WeakTier
	}
	return schema.TierAt(rank + severity)
}

// DemotionTable describes Demote for display.
func DemotionTable() map[int]string {
	return map[int]string{
		SeverityNone:   "unchanged",
		SeverityLow:    "down 1 tier",
		SeverityMedium: "down 2 tiers",
		SeverityHigh:   "forced to Weak",
	}
}
