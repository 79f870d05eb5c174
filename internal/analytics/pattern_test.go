package analytics

import (
	"testing"
	"time"

	"github.com/verte-zerg/vocabstats/internal/model"
)

func findCorrelation(t *testing.T, cs []Correlation, a, b string) Correlation {
	t.Helper()
	for _, c := range cs {
		if c.MetricA == a && c.MetricB == b {
			return c
		}
	}
	t.Fatalf("correlation %s/%s not found", a, b)
	return Correlation{}
}

func TestDetectPatternsCorrelations(t *testing.T) {
	sessions := accuracySessions(50, 55, 60, 70, 80, 90)
	for i, h := range []int{60, 50, 40, 30, 20, 10} {
		sessions[i].HintsUsed = h
	}
	th := DefaultThresholds()
	patterns := DetectPatterns(nil, sessions, AnalyzeTrend(sessions, th), th)

	if len(patterns.Correlations) != 6 {
		t.Fatalf("expected 6 metric pairs, got %d", len(patterns.Correlations))
	}
	ah := findCorrelation(t, patterns.Correlations, MetricAccuracy, MetricHints)
	if ah.Coefficient > -0.9 || ah.Significance != SignificanceHigh || ah.Relationship != "negative" {
		t.Fatalf("expected strong negative accuracy/hints correlation: %+v", ah)
	}
	if ah.SampleSize != 6 {
		t.Fatalf("expected 6 samples, got %d", ah.SampleSize)
	}
	speed := findCorrelation(t, patterns.Correlations, MetricAccuracy, MetricSpeed)
	if speed.SampleSize != 0 || speed.Coefficient != 0 || speed.Significance != SignificanceLow {
		t.Fatalf("expected empty speed correlation without durations: %+v", speed)
	}
	for _, c := range patterns.Correlations {
		if c.Coefficient < -1 || c.Coefficient > 1 {
			t.Fatalf("coefficient out of range: %+v", c)
		}
	}
}

func TestDetectPatternsTemporal(t *testing.T) {
	at := func(day, hour int) string {
		return ts(time.Date(2024, 3, 4+day, hour, 0, 0, 0, time.UTC))
	}
	sessions := []model.TestSessionRecord{
		{ID: 1, Timestamp: at(0, 9), CorrectWords: 9, IncorrectWords: 1},
		{ID: 2, Timestamp: at(0, 21), CorrectWords: 4, IncorrectWords: 6},
		{ID: 3, Timestamp: at(1, 9), CorrectWords: 9, IncorrectWords: 1},
		{ID: 4, Timestamp: at(1, 21), CorrectWords: 4, IncorrectWords: 6},
	}
	th := DefaultThresholds()
	patterns := DetectPatterns(nil, sessions, AnalyzeTrend(sessions, th), th)

	hour := patterns.TemporalPatterns[0]
	if hour.Kind != "hour" || len(hour.Buckets) != 2 {
		t.Fatalf("unexpected hour pattern: %+v", hour)
	}
	if !approx(hour.Strength, 0.25) {
		t.Fatalf("expected strength 0.25, got %v", hour.Strength)
	}
	if hour.Best == nil || hour.Best.Label != "09:00" || hour.Worst == nil || hour.Worst.Label != "21:00" {
		t.Fatalf("unexpected best/worst: %+v / %+v", hour.Best, hour.Worst)
	}
	if patterns.Metrics.BestTime != "09:00" {
		t.Fatalf("expected best time 09:00, got %q", patterns.Metrics.BestTime)
	}
	found := false
	for _, in := range patterns.Insights {
		if in.ID == "time-of-day" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected time-of-day insight: %+v", patterns.Insights)
	}
}

func TestEvaluateInsightsRanking(t *testing.T) {
	m := AggregateMetrics{
		Accuracy:        50,
		HintsPercentage: 45,
		TestedWords:     10,
		SessionCount:    3,
		Stability:       1,
	}
	insights := evaluateInsights(m, DefaultThresholds())
	ids := make([]string, len(insights))
	for i, in := range insights {
		ids[i] = in.ID
	}
	want := []string{"low-accuracy", "hint-dependency", "limited-data"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
	hint := insights[1]
	if hint.Type != InsightWeakness || hint.SuggestedActions[0] != "reduce hint reliance" {
		t.Fatalf("unexpected hint insight: %+v", hint)
	}
	if len(hint.Evidence) != 1 || hint.Evidence[0].Value != 45 {
		t.Fatalf("unexpected evidence: %+v", hint.Evidence)
	}
}

func TestEvaluateInsightsNoData(t *testing.T) {
	insights := evaluateInsights(AggregateMetrics{}, DefaultThresholds())
	if len(insights) != 1 || insights[0].ID != "limited-data" {
		t.Fatalf("expected only limited-data insight, got %+v", insights)
	}
}

func TestPatternWeaknesses(t *testing.T) {
	p := PatternAnalysis{Insights: []Insight{
		{ID: "low-accuracy", Type: InsightRisk},
		{ID: "improving", Type: InsightStrength},
		{ID: "hint-dependency", Type: InsightWeakness},
	}}
	weak := p.Weaknesses()
	if len(weak) != 2 || weak[0].ID != "low-accuracy" || weak[1].ID != "hint-dependency" {
		t.Fatalf("unexpected weaknesses: %+v", weak)
	}
}

func TestPearsonDegenerate(t *testing.T) {
	if r := pearson([]float64{1, 2}, []float64{2, 4}); r != 0 {
		t.Fatalf("expected 0 for two samples, got %v", r)
	}
	if r := pearson([]float64{5, 5, 5}, []float64{1, 2, 3}); r != 0 {
		t.Fatalf("expected 0 for zero variance, got %v", r)
	}
	if r := pearson([]float64{1, 2, 3}, []float64{2, 4, 6}); !approx(r, 1) {
		t.Fatalf("expected 1, got %v", r)
	}
}
