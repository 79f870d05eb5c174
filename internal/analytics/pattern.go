package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/verte-zerg/vocabstats/internal/model"
)

// Metric names used by correlations.
const (
	MetricAccuracy          = "accuracy"
	MetricHints             = "hints"
	MetricSpeed             = "speed"
	MetricChapterCompletion = "chapter-completion"
)

// Significance buckets a correlation strength.
type Significance string

// Correlation significance levels.
const (
	SignificanceHigh   Significance = "high"
	SignificanceMedium Significance = "medium"
	SignificanceLow    Significance = "low"
)

// InsightType classifies an insight.
type InsightType string

// Insight types.
const (
	InsightWeakness    InsightType = "weakness"
	InsightRisk        InsightType = "risk"
	InsightStrength    InsightType = "strength"
	InsightOpportunity InsightType = "opportunity"
	InsightInfo        InsightType = "info"
)

// TemporalBucket is the mean accuracy of the sessions sharing an hour or weekday.
type TemporalBucket struct {
	Key          int     `json:"key"`
	Label        string  `json:"label"`
	Sessions     int     `json:"sessions"`
	MeanAccuracy float64 `json:"meanAccuracy"`
}

// TemporalPattern describes how strongly accuracy depends on study time.
type TemporalPattern struct {
	Kind     string           `json:"kind"`
	Buckets  []TemporalBucket `json:"buckets"`
	Strength float64          `json:"strength"`
	Best     *TemporalBucket  `json:"best,omitempty"`
	Worst    *TemporalBucket  `json:"worst,omitempty"`
}

// PerformanceBucket is one group of a performance pattern.
type PerformanceBucket struct {
	Label        string  `json:"label"`
	Sessions     int     `json:"sessions"`
	MeanAccuracy float64 `json:"meanAccuracy"`
}

// PerformancePattern compares accuracy across session characteristics.
type PerformancePattern struct {
	Kind    string              `json:"kind"`
	Buckets []PerformanceBucket `json:"buckets"`
	Spread  float64             `json:"spread"`
}

// Correlation is the Pearson coefficient between two per-session metrics.
type Correlation struct {
	MetricA      string       `json:"metricA"`
	MetricB      string       `json:"metricB"`
	Coefficient  float64      `json:"coefficient"`
	Significance Significance `json:"significance"`
	SampleSize   int          `json:"sampleSize"`
	Relationship string       `json:"relationship"`
}

// Evidence is a measured value that triggered an insight.
type Evidence struct {
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Insight is an advisory finding derived from aggregated metrics.
type Insight struct {
	ID               string      `json:"id"`
	Type             InsightType `json:"type"`
	Importance       int         `json:"importance"`
	Title            string      `json:"title"`
	Evidence         []Evidence  `json:"evidence"`
	SuggestedActions []string    `json:"suggestedActions"`
}

// AggregateMetrics are the global measures the insight rules are evaluated against.
type AggregateMetrics struct {
	Accuracy         float64   `json:"accuracy"`
	HintsPercentage  float64   `json:"hintsPercentage"`
	DifficultyRate   float64   `json:"difficultyRate"`
	CriticalRate     float64   `json:"criticalRate"`
	Velocity         float64   `json:"velocity"`
	Direction        Direction `json:"direction"`
	Stability        float64   `json:"stability"`
	SessionCount     int       `json:"sessionCount"`
	TestedWords      int       `json:"testedWords"`
	TemporalStrength float64   `json:"temporalStrength"`
	BestTime         string    `json:"bestTime,omitempty"`
	BestTimeSessions int       `json:"bestTimeSessions,omitempty"`
}

// HasData reports whether any attempt or usable session backs the metrics.
func (m AggregateMetrics) HasData() bool {
	return m.TestedWords > 0 || m.SessionCount > 0
}

// PatternAnalysis bundles everything the pattern detector found.
type PatternAnalysis struct {
	TemporalPatterns    []TemporalPattern    `json:"temporalPatterns"`
	PerformancePatterns []PerformancePattern `json:"performancePatterns"`
	Correlations        []Correlation        `json:"correlations"`
	Insights            []Insight            `json:"insights"`
	Metrics             AggregateMetrics     `json:"metrics"`
}

// Weaknesses returns the insights describing weaknesses or risks, in rank order.
func (p PatternAnalysis) Weaknesses() []Insight {
	out := []Insight{}
	for _, in := range p.Insights {
		if in.Type == InsightWeakness || in.Type == InsightRisk {
			out = append(out, in)
		}
	}
	return out
}

// StrongestTemporal returns the temporal pattern with the highest strength.
func (p PatternAnalysis) StrongestTemporal() (TemporalPattern, bool) {
	best := -1
	for i, tp := range p.TemporalPatterns {
		if tp.Best == nil {
			continue
		}
		if best < 0 || tp.Strength > p.TemporalPatterns[best].Strength {
			best = i
		}
	}
	if best < 0 {
		return TemporalPattern{}, false
	}
	return p.TemporalPatterns[best], true
}

// DetectPatterns mines temporal, performance and cross-metric patterns and
// emits ranked insights.
func DetectPatterns(words []WordAnalysis, sessions []model.TestSessionRecord, trend TrendSnapshot, th Thresholds) PatternAnalysis {
	points, _ := prepareSessions(sessions)
	return detectPatterns(words, points, trend, th)
}

func detectPatterns(words []WordAnalysis, points []sessionPoint, trend TrendSnapshot, th Thresholds) PatternAnalysis {
	timed := timedSessions(points)
	analysis := PatternAnalysis{
		TemporalPatterns: []TemporalPattern{
			temporalPattern("hour", timed, func(t time.Time) (int, string) {
				return t.Hour(), fmt.Sprintf("%02d:00", t.Hour())
			}, th),
			temporalPattern("weekday", timed, func(t time.Time) (int, string) {
				return int(t.Weekday()), t.Weekday().String()
			}, th),
		},
		PerformancePatterns: []PerformancePattern{
			sessionSizePattern(points),
			studyGapPattern(timed),
		},
		Correlations: correlate(sessionMetricSeries(words, timed)),
	}
	analysis.Metrics = aggregateMetrics(words, points, trend, analysis)
	analysis.Insights = evaluateInsights(analysis.Metrics, th)
	return analysis
}

func temporalPattern(kind string, timed []sessionPoint, key func(time.Time) (int, string), th Thresholds) TemporalPattern {
	type acc struct {
		label string
		sum   float64
		n     int
	}
	byKey := map[int]*acc{}
	for _, p := range timed {
		k, label := key(p.at)
		a, ok := byKey[k]
		if !ok {
			a = &acc{label: label}
			byKey[k] = a
		}
		a.sum += p.accuracy
		a.n++
	}
	keys := make([]int, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	pattern := TemporalPattern{Kind: kind, Buckets: make([]TemporalBucket, 0, len(keys))}
	means := make([]float64, 0, len(keys))
	for _, k := range keys {
		a := byKey[k]
		m := a.sum / float64(a.n)
		means = append(means, m)
		pattern.Buckets = append(pattern.Buckets, TemporalBucket{
			Key:          k,
			Label:        a.label,
			Sessions:     a.n,
			MeanAccuracy: round1(m),
		})
	}
	if len(means) >= 2 {
		pattern.Strength = round3(clamp01(variance(means) / 2500))
	}
	pattern.Best = pickBucket(pattern.Buckets, th.MinBucketSessions, func(a, b TemporalBucket) bool {
		return a.MeanAccuracy > b.MeanAccuracy
	})
	pattern.Worst = pickBucket(pattern.Buckets, th.MinBucketSessions, func(a, b TemporalBucket) bool {
		return a.MeanAccuracy < b.MeanAccuracy
	})
	return pattern
}

// pickBucket returns the best bucket by better, preferring buckets with at least minSessions.
func pickBucket(buckets []TemporalBucket, minSessions int, better func(a, b TemporalBucket) bool) *TemporalBucket {
	pick := func(qualified bool) *TemporalBucket {
		var best *TemporalBucket
		for i := range buckets {
			b := buckets[i]
			if qualified && b.Sessions < minSessions {
				continue
			}
			if best == nil || better(b, *best) {
				c := b
				best = &c
			}
		}
		return best
	}
	if b := pick(true); b != nil {
		return b
	}
	return pick(false)
}

type labeledGroup struct {
	label string
	sum   float64
	n     int
}

func performancePattern(kind string, groups []labeledGroup) PerformancePattern {
	pattern := PerformancePattern{Kind: kind, Buckets: []PerformanceBucket{}}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, g := range groups {
		if g.n == 0 {
			continue
		}
		m := round1(g.sum / float64(g.n))
		pattern.Buckets = append(pattern.Buckets, PerformanceBucket{Label: g.label, Sessions: g.n, MeanAccuracy: m})
		lo = math.Min(lo, m)
		hi = math.Max(hi, m)
	}
	if len(pattern.Buckets) >= 2 {
		pattern.Spread = round1(hi - lo)
	}
	return pattern
}

func sessionSizePattern(points []sessionPoint) PerformancePattern {
	groups := []labeledGroup{{label: "short"}, {label: "medium"}, {label: "long"}}
	for _, p := range points {
		idx := 2
		switch {
		case p.answered <= 10:
			idx = 0
		case p.answered <= 25:
			idx = 1
		}
		groups[idx].sum += p.accuracy
		groups[idx].n++
	}
	return performancePattern("session-size", groups)
}

func studyGapPattern(timed []sessionPoint) PerformancePattern {
	groups := []labeledGroup{{label: "same-day"}, {label: "1-3 days"}, {label: "over 3 days"}}
	for i := 1; i < len(timed); i++ {
		gap := timed[i].at.Sub(timed[i-1].at).Hours() / 24
		idx := 2
		switch {
		case gap < 1:
			idx = 0
		case gap <= 3:
			idx = 1
		}
		groups[idx].sum += timed[i].accuracy
		groups[idx].n++
	}
	return performancePattern("study-gap", groups)
}

// metricSeries maps a metric name to per-session values; NaN marks a missing value.
type metricSeries map[string][]float64

var correlationMetrics = []string{MetricAccuracy, MetricHints, MetricSpeed, MetricChapterCompletion}

func sessionMetricSeries(words []WordAnalysis, timed []sessionPoint) metricSeries {
	catalogue := map[string]struct{}{}
	for _, w := range words {
		catalogue[w.Chapter] = struct{}{}
	}
	if len(catalogue) == 0 {
		for _, p := range timed {
			for ch := range p.chapters {
				catalogue[ch] = struct{}{}
			}
		}
	}

	series := metricSeries{}
	for _, m := range correlationMetrics {
		series[m] = make([]float64, len(timed))
	}
	seen := map[string]struct{}{}
	for i, p := range timed {
		series[MetricAccuracy][i] = p.accuracy
		series[MetricHints][i] = percent(p.hints, p.answered)
		if p.durationMs > 0 {
			series[MetricSpeed][i] = float64(p.answered) / (float64(p.durationMs) / 60000)
		} else {
			series[MetricSpeed][i] = math.NaN()
		}
		for ch := range p.chapters {
			if p.chapterAnswers(ch).Answered() > 0 {
				seen[ch] = struct{}{}
			}
		}
		if len(catalogue) > 0 {
			series[MetricChapterCompletion][i] = math.Min(100, percent(len(seen), len(catalogue)))
		} else {
			series[MetricChapterCompletion][i] = math.NaN()
		}
	}
	return series
}

func correlate(series metricSeries) []Correlation {
	out := make([]Correlation, 0, 6)
	for i := 0; i < len(correlationMetrics); i++ {
		for j := i + 1; j < len(correlationMetrics); j++ {
			a, b := correlationMetrics[i], correlationMetrics[j]
			xs, ys := pairedValues(series[a], series[b])
			r := round3(pearson(xs, ys))
			if len(xs) < 3 {
				r = 0
			}
			out = append(out, Correlation{
				MetricA:      a,
				MetricB:      b,
				Coefficient:  r,
				Significance: significance(r),
				SampleSize:   len(xs),
				Relationship: relationship(r),
			})
		}
	}
	return out
}

func pairedValues(a, b []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(a))
	for i := range a {
		if i >= len(b) || math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	return xs, ys
}

func significance(r float64) Significance {
	abs := math.Abs(r)
	switch {
	case abs >= 0.5:
		return SignificanceHigh
	case abs >= 0.3:
		return SignificanceMedium
	default:
		return SignificanceLow
	}
}

func relationship(r float64) string {
	switch {
	case r >= 0.3:
		return "positive"
	case r <= -0.3:
		return "negative"
	default:
		return "none"
	}
}

func aggregateMetrics(words []WordAnalysis, points []sessionPoint, trend TrendSnapshot, analysis PatternAnalysis) AggregateMetrics {
	m := AggregateMetrics{
		Velocity:     trend.CurrentVelocity,
		Direction:    trend.Direction,
		Stability:    trend.StabilityFactor,
		SessionCount: len(points),
	}
	accuracySum, difficult, critical := 0, 0, 0
	for _, w := range words {
		if w.Difficult {
			difficult++
		}
		if w.TotalAttempts == 0 {
			continue
		}
		m.TestedWords++
		accuracySum += w.Accuracy
		if w.Status == StatusCritical {
			critical++
		}
	}
	m.DifficultyRate = round1(percent(difficult, len(words)))
	m.CriticalRate = round1(percent(critical, m.TestedWords))
	if m.TestedWords > 0 {
		m.Accuracy = round1(float64(accuracySum) / float64(m.TestedWords))
	} else if len(points) > 0 {
		m.Accuracy = round1(mean(sessionAccuracies(points)))
	}

	hints, answered := 0, 0
	for _, p := range points {
		hints += p.hints
		answered += p.answered
	}
	if answered > 0 {
		m.HintsPercentage = round1(percent(hints, answered))
	} else if m.TestedWords > 0 {
		var sum float64
		for _, w := range words {
			if w.TotalAttempts > 0 {
				sum += float64(w.HintsPercentage)
			}
		}
		m.HintsPercentage = round1(sum / float64(m.TestedWords))
	}

	if tp, ok := analysis.StrongestTemporal(); ok {
		m.TemporalStrength = tp.Strength
		m.BestTime = tp.Best.Label
		m.BestTimeSessions = tp.Best.Sessions
	}
	return m
}

type insightRule struct {
	id         string
	typ        InsightType
	importance int
	title      string
	actions    []string
	match      func(m AggregateMetrics, th Thresholds) []Evidence
}

// insightRules is evaluated in order; each rule fires independently.
var insightRules = []insightRule{
	{
		id: "hint-dependency", typ: InsightWeakness, importance: 4,
		title:   "Heavy reliance on hints",
		actions: []string{"reduce hint reliance", "attempt recall before revealing a hint"},
		match: func(m AggregateMetrics, th Thresholds) []Evidence {
			if m.HasData() && m.HintsPercentage > th.HintsInsight {
				return []Evidence{{Metric: "hintsPercentage", Value: m.HintsPercentage, Threshold: th.HintsInsight}}
			}
			return nil
		},
	},
	{
		id: "difficult-words", typ: InsightWeakness, importance: 4,
		title:   "Most of the vocabulary is marked difficult",
		actions: []string{"split difficult words into smaller review sets", "add example sentences to difficult words"},
		match: func(m AggregateMetrics, th Thresholds) []Evidence {
			if m.DifficultyRate > th.DifficultyInsight {
				return []Evidence{{Metric: "difficultyRate", Value: m.DifficultyRate, Threshold: th.DifficultyInsight}}
			}
			return nil
		},
	},
	{
		id: "low-accuracy", typ: InsightRisk, importance: 5,
		title:   "Overall accuracy is low",
		actions: []string{"slow down and review before testing", "focus on fewer chapters at a time"},
		match: func(m AggregateMetrics, th Thresholds) []Evidence {
			if m.HasData() && m.Accuracy < th.RiskAccuracy {
				return []Evidence{{Metric: "accuracy", Value: m.Accuracy, Threshold: th.RiskAccuracy}}
			}
			return nil
		},
	},
	{
		id: "declining-performance", typ: InsightRisk, importance: 4,
		title:   "Performance is declining",
		actions: []string{"revisit recently failed words", "shorten sessions to avoid fatigue"},
		match: func(m AggregateMetrics, th Thresholds) []Evidence {
			if m.SessionCount >= 2 && m.Velocity < -th.VelocityInsight {
				return []Evidence{{Metric: "velocity", Value: m.Velocity, Threshold: -th.VelocityInsight}}
			}
			return nil
		},
	},
	{
		id: "critical-words", typ: InsightWeakness, importance: 4,
		title:   "Many words are in critical state",
		actions: []string{"drill critical words daily", "pair critical words with mnemonics"},
		match: func(m AggregateMetrics, th Thresholds) []Evidence {
			if m.TestedWords > 0 && m.CriticalRate > th.CriticalRateInsight {
				return []Evidence{{Metric: "criticalRate", Value: m.CriticalRate, Threshold: th.CriticalRateInsight}}
			}
			return nil
		},
	},
	{
		id: "inconsistent-results", typ: InsightWeakness, importance: 3,
		title:   "Results vary a lot between sessions",
		actions: []string{"keep a regular study schedule", "keep session length constant"},
		match: func(m AggregateMetrics, th Thresholds) []Evidence {
			if m.SessionCount >= 2 && m.Stability < th.StabilityInsight {
				return []Evidence{{Metric: "stability", Value: m.Stability, Threshold: th.StabilityInsight}}
			}
			return nil
		},
	},
	{
		id: "time-of-day", typ: InsightOpportunity, importance: 3,
		title:   "Accuracy depends on when you study",
		actions: []string{"schedule sessions at your best time"},
		match: func(m AggregateMetrics, th Thresholds) []Evidence {
			if m.BestTime != "" && m.BestTimeSessions >= th.MinBucketSessions && m.TemporalStrength >= th.TemporalStrengthInsight {
				return []Evidence{{Metric: "temporalStrength", Value: m.TemporalStrength, Threshold: th.TemporalStrengthInsight}}
			}
			return nil
		},
	},
	{
		id: "improving", typ: InsightStrength, importance: 2,
		title:   "Accuracy is improving",
		actions: []string{"introduce new chapters while momentum lasts"},
		match: func(m AggregateMetrics, th Thresholds) []Evidence {
			if m.SessionCount >= 2 && m.Velocity > th.VelocityInsight {
				return []Evidence{{Metric: "velocity", Value: m.Velocity, Threshold: th.VelocityInsight}}
			}
			return nil
		},
	},
	{
		id: "high-accuracy", typ: InsightStrength, importance: 2,
		title:   "Accuracy is high",
		actions: []string{"test without hints", "raise the difficulty of review sets"},
		match: func(m AggregateMetrics, th Thresholds) []Evidence {
			if m.HasData() && m.Accuracy >= th.HighAccuracy {
				return []Evidence{{Metric: "accuracy", Value: m.Accuracy, Threshold: th.HighAccuracy}}
			}
			return nil
		},
	},
	{
		id: "limited-data", typ: InsightInfo, importance: 1,
		title:   "Not enough test sessions for reliable trends",
		actions: []string{"complete a few more tests"},
		match: func(m AggregateMetrics, th Thresholds) []Evidence {
			if m.SessionCount < th.LimitedDataSessions {
				return []Evidence{{Metric: "sessionCount", Value: float64(m.SessionCount), Threshold: float64(th.LimitedDataSessions)}}
			}
			return nil
		},
	},
}

func evaluateInsights(m AggregateMetrics, th Thresholds) []Insight {
	out := []Insight{}
	for _, rule := range insightRules {
		evidence := rule.match(m, th)
		if evidence == nil {
			continue
		}
		actions := make([]string, len(rule.actions))
		copy(actions, rule.actions)
		out = append(out, Insight{
			ID:               rule.id,
			Type:             rule.typ,
			Importance:       rule.importance,
			Title:            rule.title,
			Evidence:         evidence,
			SuggestedActions: actions,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	return out
}
