package analytics

import (
	"fmt"
	"math"
)

// ProjectedMetrics are the estimated values at the end of a horizon.
type ProjectedMetrics struct {
	Accuracy        float64 `json:"accuracy"`
	HintsPercentage float64 `json:"hintsPercentage"`
	Efficiency      float64 `json:"efficiency"`
	Tests           float64 `json:"tests"`
}

// Milestone is an accuracy target solved against the current linear trend.
type Milestone struct {
	Metric         string  `json:"metric"`
	Target         float64 `json:"target"`
	Achieved       bool    `json:"achieved"`
	Reachable      bool    `json:"reachable"`
	EstimatedTests float64 `json:"estimatedTests"`
	EstimatedDays  float64 `json:"estimatedDays"`
	Probability    float64 `json:"probability"`
}

// Projection is the expected performance after a fixed number of days.
type Projection struct {
	Timeframe   string           `json:"timeframe"`
	Days        int              `json:"days"`
	Expected    ProjectedMetrics `json:"expectedMetrics"`
	Optimistic  ProjectedMetrics `json:"optimisticMetrics"`
	Pessimistic ProjectedMetrics `json:"pessimisticMetrics"`
	Confidence  float64          `json:"confidence"`
	Milestones  []Milestone      `json:"milestones"`
}

// Baseline is the current state projections start from.
type Baseline struct {
	Accuracy        float64
	HintsPercentage float64
}

// HorizonConfidence decays the trend confidence with the horizon length.
func HorizonConfidence(base float64, days float64, th Thresholds) float64 {
	if days < 7 {
		days = 7
	}
	conf := base * (1 - th.HorizonDecay*math.Log2(days/7))
	return round1(math.Max(th.MinProjectionConfidence, conf))
}

// Project extrapolates the trend to every configured horizon.
func Project(trend TrendSnapshot, base Baseline, th Thresholds) ([]Projection, []Milestone) {
	milestones := SolveMilestones(trend, base.Accuracy, th.MilestoneTargets, th)
	out := make([]Projection, 0, len(th.Horizons))
	for _, days := range th.Horizons {
		out = append(out, projectHorizon(trend, base, days, milestones, th))
	}
	return out, milestones
}

func projectHorizon(trend TrendSnapshot, base Baseline, days int, milestones []Milestone, th Thresholds) Projection {
	cadence := trend.CadenceDays
	if cadence <= 0 {
		cadence = 1
	}
	tests := float64(days) / cadence
	conf := HorizonConfidence(trend.Confidence, float64(days), th)

	expectedAcc := clampPct(base.Accuracy + trend.VelocityPerTest*tests)
	// The band stays symmetric around the expected value inside 0..100.
	spread := (100 - conf) * (2 - trend.StabilityFactor) / 4
	spread = math.Min(spread, math.Min(expectedAcc, 100-expectedAcc))

	p := Projection{
		Timeframe:   fmt.Sprintf("%dd", days),
		Days:        days,
		Expected:    projected(expectedAcc, base.HintsPercentage, tests),
		Optimistic:  projected(expectedAcc+spread, base.HintsPercentage, tests),
		Pessimistic: projected(expectedAcc-spread, base.HintsPercentage, tests),
		Confidence:  conf,
		Milestones:  []Milestone{},
	}
	for _, m := range milestones {
		if m.Reachable && !m.Achieved && m.EstimatedDays <= float64(days) {
			p.Milestones = append(p.Milestones, m)
		}
	}
	return p
}

func projected(accuracy, hints, tests float64) ProjectedMetrics {
	return ProjectedMetrics{
		Accuracy:        round1(accuracy),
		HintsPercentage: round1(hints),
		Efficiency:      round1(math.Max(0, accuracy-hints)),
		Tests:           round1(tests),
	}
}

// SolveMilestones solves current + velocity*t = target for each target, with
// velocity in accuracy points per test.
func SolveMilestones(trend TrendSnapshot, current float64, targets []float64, th Thresholds) []Milestone {
	out := make([]Milestone, 0, len(targets))
	for _, target := range targets {
		out = append(out, solveMilestone(trend, current, target, th))
	}
	return out
}

func solveMilestone(trend TrendSnapshot, current, target float64, th Thresholds) Milestone {
	m := Milestone{Metric: MetricAccuracy, Target: target}
	if current >= target {
		m.Achieved = true
		m.Reachable = true
		m.Probability = 100
		return m
	}
	if trend.VelocityPerTest <= 0 {
		return m
	}
	cadence := trend.CadenceDays
	if cadence <= 0 {
		cadence = 1
	}
	tests := (target - current) / trend.VelocityPerTest
	days := tests * cadence
	m.Reachable = true
	m.EstimatedTests = round1(tests)
	m.EstimatedDays = round1(days)
	m.Probability = HorizonConfidence(trend.Confidence, days, th)
	return m
}
