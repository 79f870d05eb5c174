// Package analytics turns word attempt histories and test sessions into
// classifications, chapter rollups, trends, patterns, projections and
// recommendations. Every function is a deterministic transform of its inputs.
package analytics

import (
	"fmt"
	"time"

	"github.com/verte-zerg/vocabstats/internal/model"
)

// AnalysisMetadata describes the inputs behind a trends report and its limits.
type AnalysisMetadata struct {
	Fingerprint  string      `json:"fingerprint"`
	WordCount    int         `json:"wordCount"`
	SessionCount int         `json:"sessionCount"`
	FirstSession *time.Time  `json:"firstSession,omitempty"`
	LastSession  *time.Time  `json:"lastSession,omitempty"`
	Confidence   float64     `json:"confidence"`
	DataQuality  DataQuality `json:"dataQuality"`
	Limitations  []string    `json:"limitations"`
}

// TrendsAnalysisResult is the full trends report.
type TrendsAnalysisResult struct {
	LearningVelocity     TrendSnapshot        `json:"learningVelocity"`
	FutureProjections    []Projection         `json:"futureProjections"`
	Milestones           []Milestone          `json:"milestones"`
	PatternAnalysis      PatternAnalysis      `json:"patternAnalysis"`
	RecommendationSystem RecommendationSystem `json:"recommendationSystem"`
	AnalysisMetadata     AnalysisMetadata     `json:"analysisMetadata"`
}

// Analysis is every report computed from one input snapshot.
type Analysis struct {
	Fingerprint string                `json:"fingerprint"`
	Words       []WordAnalysis        `json:"words"`
	Chapters    ChapterAnalysisResult `json:"chapters"`
	Trends      TrendsAnalysisResult  `json:"trends"`
}

// Word looks up a classified word by id.
func (a *Analysis) Word(id string) (WordAnalysis, bool) {
	for _, w := range a.Words {
		if w.WordID == id {
			return w, true
		}
	}
	return WordAnalysis{}, false
}

// Engine runs the analytics pipeline with a fixed threshold table.
type Engine struct {
	th Thresholds
}

// NewEngine returns an engine using th.
func NewEngine(th Thresholds) *Engine {
	return &Engine{th: th}
}

// Thresholds returns the engine's threshold table.
func (e *Engine) Thresholds() Thresholds {
	return e.th
}

// Words classifies every word of the dataset.
func (e *Engine) Words(ds model.Dataset) []WordAnalysis {
	return AnalyzeWords(ds.Words, e.th)
}

// Word classifies the word with the given id.
func (e *Engine) Word(ds model.Dataset, id string) (WordAnalysis, bool) {
	for _, w := range ds.Words {
		if w.WordID == id {
			return ClassifyWord(w, e.th), true
		}
	}
	return WordAnalysis{}, false
}

// Chapters builds the chapter report.
func (e *Engine) Chapters(ds model.Dataset) ChapterAnalysisResult {
	return AnalyzeChapters(ds.Words, ds.TestHistory, e.th)
}

// Trends builds the trends report.
func (e *Engine) Trends(ds model.Dataset, goals []model.Goal) TrendsAnalysisResult {
	words := AnalyzeWords(ds.Words, e.th)
	points, quality := prepareSessions(ds.TestHistory)
	return e.trends(ds, goals, words, points, quality)
}

// Analyze computes every report for the dataset in one pass.
func (e *Engine) Analyze(ds model.Dataset, goals []model.Goal) *Analysis {
	words := AnalyzeWords(ds.Words, e.th)
	points, quality := prepareSessions(ds.TestHistory)
	chapters := aggregateChapters(words, points, e.th)
	return &Analysis{
		Fingerprint: Fingerprint(ds),
		Words:       words,
		Chapters:    buildChapterResult(chapters, quality, e.th),
		Trends:      e.trends(ds, goals, words, points, quality),
	}
}

func (e *Engine) trends(ds model.Dataset, goals []model.Goal, words []WordAnalysis, points []sessionPoint, quality DataQuality) TrendsAnalysisResult {
	timed := timedSessions(points)
	trend := analyzeTimedTrend(timed, e.th)
	patterns := detectPatterns(words, points, trend, e.th)

	base := Baseline{
		Accuracy:        patterns.Metrics.Accuracy,
		HintsPercentage: patterns.Metrics.HintsPercentage,
	}
	if trend.SessionCount > 0 {
		base.Accuracy = trend.RecentMean
	}
	projections, milestones := Project(trend, base, e.th)

	meta := AnalysisMetadata{
		Fingerprint:  Fingerprint(ds),
		WordCount:    len(ds.Words),
		SessionCount: len(points),
		Confidence:   trend.Confidence,
		DataQuality:  quality,
		Limitations:  limitations(trend, quality, timed, e.th),
	}
	if len(timed) > 0 {
		first, last := timed[0].at, timed[len(timed)-1].at
		meta.FirstSession = &first
		meta.LastSession = &last
	}

	return TrendsAnalysisResult{
		LearningVelocity:     trend,
		FutureProjections:    projections,
		Milestones:           milestones,
		PatternAnalysis:      patterns,
		RecommendationSystem: Recommend(patterns, trend, words, goals, base.Accuracy, e.th),
		AnalysisMetadata:     meta,
	}
}

func limitations(trend TrendSnapshot, quality DataQuality, timed []sessionPoint, th Thresholds) []string {
	out := []string{}
	if trend.SessionCount < 2 {
		out = append(out, "fewer than 2 dated sessions: velocity is undefined")
	} else if trend.SessionCount < th.LimitedDataSessions {
		out = append(out, fmt.Sprintf("only %d dated sessions: trend confidence is reduced", trend.SessionCount))
	}
	if quality.ExcludedSessions > 0 {
		out = append(out, fmt.Sprintf("%d sessions excluded for missing timestamp or score", quality.ExcludedSessions))
	}
	if quality.UnparsableTimestamps > 0 {
		out = append(out, fmt.Sprintf("%d sessions with unparsable timestamps left out of temporal analysis", quality.UnparsableTimestamps))
	}
	if quality.InconsistentSessions > 0 {
		out = append(out, fmt.Sprintf("%d sessions with inconsistent counts", quality.InconsistentSessions))
	}
	hasDuration := false
	for _, p := range timed {
		if p.durationMs > 0 {
			hasDuration = true
			break
		}
	}
	if len(timed) > 0 && !hasDuration {
		out = append(out, "no session durations recorded: speed correlations unavailable")
	}
	return out
}
