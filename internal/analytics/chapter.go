package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/verte-zerg/vocabstats/internal/model"
)

// TrendPoint is one session's contribution to a chapter history.
type TrendPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	SessionID      int64     `json:"sessionId"`
	Correct        int       `json:"correct"`
	Incorrect      int       `json:"incorrect"`
	Accuracy       float64   `json:"accuracy"`
	EstimatedHints float64   `json:"estimatedHints"`
}

// ChapterMetrics is the derived rollup of one chapter.
type ChapterMetrics struct {
	Chapter         string         `json:"chapter"`
	Label           string         `json:"label"`
	TotalWords      int            `json:"totalWords"`
	TestedWords     int            `json:"testedWords"`
	LearnedWords    int            `json:"learnedWords"`
	DifficultWords  int            `json:"difficultWords"`
	Accuracy        float64        `json:"accuracy"`
	HintsPercentage float64        `json:"hintsPercentage"`
	EstimatedHints  float64        `json:"estimatedHints"`
	AnswersRecorded int            `json:"answersRecorded"`
	Efficiency      float64        `json:"efficiency"`
	CompletionRate  float64        `json:"completionRate"`
	TestCount       int            `json:"testCount"`
	FirstTestDate   *time.Time     `json:"firstTestDate,omitempty"`
	StatusCounts    map[Status]int `json:"statusCounts"`
	History         []TrendPoint   `json:"history"`
}

// Tested reports whether any test session touched the chapter.
func (c ChapterMetrics) Tested() bool {
	return c.TestCount > 0
}

// ChapterSummary is the short form used for top and struggling lists.
type ChapterSummary struct {
	Chapter        string  `json:"chapter"`
	Label          string  `json:"label"`
	Accuracy       float64 `json:"accuracy"`
	Efficiency     float64 `json:"efficiency"`
	CompletionRate float64 `json:"completionRate"`
}

// OverviewStats summarizes the chapter set.
type OverviewStats struct {
	TotalChapters     int     `json:"totalChapters"`
	TestedChapters    int     `json:"testedChapters"`
	BestEfficiency    float64 `json:"bestEfficiency"`
	AverageCompletion float64 `json:"averageCompletion"`
	AverageAccuracy   float64 `json:"averageAccuracy"`
	TotalWords        int     `json:"totalWords"`
	TestedWords       int     `json:"testedWords"`
}

// ChapterAnalysis wraps the ordered chapter rollups.
type ChapterAnalysis struct {
	ProcessedData []ChapterMetrics `json:"processedData"`
}

// ChapterAnalysisResult is the full chapter report.
type ChapterAnalysisResult struct {
	Analysis           ChapterAnalysis  `json:"analysis"`
	OverviewStats      OverviewStats    `json:"overviewStats"`
	TopChapters        []ChapterSummary `json:"topChapters"`
	StrugglingChapters []ChapterSummary `json:"strugglingChapters"`
	DataQuality        DataQuality      `json:"dataQuality"`
}

type chapterAcc struct {
	metrics     ChapterMetrics
	accuracySum int
	hints       float64
	history     []TrendPoint
}

// ChapterLabel returns the display label for a chapter key.
func ChapterLabel(chapter string) string {
	if chapter == model.NoChapter {
		return model.NoChapterLabel
	}
	return chapter
}

// AggregateChapters groups classified words by chapter and attributes session
// answers and hints to each chapter.
func AggregateChapters(words []model.WordPerformanceRecord, sessions []model.TestSessionRecord, th Thresholds) ([]ChapterMetrics, DataQuality) {
	points, quality := prepareSessions(sessions)
	return aggregateChapters(AnalyzeWords(words, th), points, th), quality
}

func aggregateChapters(analyzed []WordAnalysis, points []sessionPoint, th Thresholds) []ChapterMetrics {
	buckets := map[string]*chapterAcc{}
	bucket := func(chapter string) *chapterAcc {
		acc, ok := buckets[chapter]
		if !ok {
			acc = &chapterAcc{metrics: ChapterMetrics{
				Chapter:      chapter,
				Label:        ChapterLabel(chapter),
				StatusCounts: StatusCounts(nil),
			}}
			buckets[chapter] = acc
		}
		return acc
	}

	for _, w := range analyzed {
		acc := bucket(w.Chapter)
		m := &acc.metrics
		m.TotalWords++
		m.StatusCounts[w.Status]++
		if w.Learned {
			m.LearnedWords++
		}
		if w.Difficult {
			m.DifficultWords++
		}
		if w.TotalAttempts > 0 {
			m.TestedWords++
			acc.accuracySum += w.Accuracy
		}
	}

	for _, p := range points {
		sessionAnswered := p.breakdownAnswered()
		if sessionAnswered == 0 {
			continue
		}
		for chapter := range p.chapters {
			b := p.chapterAnswers(chapter)
			answered := b.Answered()
			if answered == 0 {
				continue
			}
			acc := bucket(chapter)
			share := float64(p.hints) * float64(answered) / float64(sessionAnswered)
			acc.hints += share
			acc.metrics.AnswersRecorded += answered
			acc.metrics.TestCount++
			if !p.timed {
				continue
			}
			if acc.metrics.FirstTestDate == nil || p.at.Before(*acc.metrics.FirstTestDate) {
				at := p.at
				acc.metrics.FirstTestDate = &at
			}
			acc.history = append(acc.history, TrendPoint{
				Timestamp:      p.at,
				SessionID:      p.id,
				Correct:        b.Correct,
				Incorrect:      b.Incorrect,
				Accuracy:       round1(percent(b.Correct, answered)),
				EstimatedHints: round2(share),
			})
		}
	}

	out := make([]ChapterMetrics, 0, len(buckets))
	for _, acc := range buckets {
		m := acc.metrics
		if m.TestedWords > 0 {
			m.Accuracy = round1(float64(acc.accuracySum) / float64(m.TestedWords))
		}
		m.EstimatedHints = round2(acc.hints)
		if m.AnswersRecorded > 0 {
			m.HintsPercentage = round1(acc.hints / float64(m.AnswersRecorded) * 100)
		}
		m.Efficiency = math.Max(0, m.Accuracy-m.HintsPercentage)
		m.CompletionRate = round1(percent(m.LearnedWords, m.TotalWords))
		m.History = truncateHistory(acc.history, th.HistoryLimit)
		out = append(out, m)
	}
	sortChapters(out)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// truncateHistory sorts ascending and keeps the most recent limit points.
func truncateHistory(history []TrendPoint, limit int) []TrendPoint {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	if history == nil {
		return []TrendPoint{}
	}
	return history
}

// chapterRank groups chapters: dated tests first, then tests without a usable
// date, then untested chapters, and the no-chapter bucket last.
func chapterRank(c ChapterMetrics) int {
	switch {
	case c.Chapter == model.NoChapter:
		return 3
	case c.FirstTestDate != nil:
		return 0
	case c.Tested():
		return 1
	default:
		return 2
	}
}

func sortChapters(chapters []ChapterMetrics) {
	sort.SliceStable(chapters, func(i, j int) bool {
		a, b := chapters[i], chapters[j]
		ra, rb := chapterRank(a), chapterRank(b)
		if ra != rb {
			return ra < rb
		}
		if ra == 0 && !a.FirstTestDate.Equal(*b.FirstTestDate) {
			return a.FirstTestDate.Before(*b.FirstTestDate)
		}
		return naturalLess(a.Chapter, b.Chapter)
	})
}

// AnalyzeChapters builds the full chapter report.
func AnalyzeChapters(words []model.WordPerformanceRecord, sessions []model.TestSessionRecord, th Thresholds) ChapterAnalysisResult {
	chapters, quality := AggregateChapters(words, sessions, th)
	return buildChapterResult(chapters, quality, th)
}

func buildChapterResult(chapters []ChapterMetrics, quality DataQuality, th Thresholds) ChapterAnalysisResult {
	result := ChapterAnalysisResult{
		Analysis:           ChapterAnalysis{ProcessedData: chapters},
		TopChapters:        []ChapterSummary{},
		StrugglingChapters: []ChapterSummary{},
		DataQuality:        quality,
	}
	stats := OverviewStats{TotalChapters: len(chapters)}
	var completionSum, accuracySum float64
	accuracyCount := 0
	tested := make([]ChapterMetrics, 0, len(chapters))
	for _, c := range chapters {
		stats.TotalWords += c.TotalWords
		stats.TestedWords += c.TestedWords
		completionSum += c.CompletionRate
		if c.TestedWords > 0 {
			accuracySum += c.Accuracy
			accuracyCount++
		}
		if !c.Tested() {
			continue
		}
		stats.TestedChapters++
		if c.Efficiency > stats.BestEfficiency {
			stats.BestEfficiency = c.Efficiency
		}
		tested = append(tested, c)
	}
	if len(chapters) > 0 {
		stats.AverageCompletion = round1(completionSum / float64(len(chapters)))
	}
	if accuracyCount > 0 {
		stats.AverageAccuracy = round1(accuracySum / float64(accuracyCount))
	}
	result.OverviewStats = stats

	top := make([]ChapterMetrics, len(tested))
	copy(top, tested)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Efficiency > top[j].Efficiency
	})
	if th.TopChapters >= 0 && len(top) > th.TopChapters {
		top = top[:th.TopChapters]
	}
	for _, c := range top {
		result.TopChapters = append(result.TopChapters, summarizeChapter(c))
	}

	struggling := make([]ChapterMetrics, 0, len(tested))
	for _, c := range tested {
		if c.TestedWords > 0 && c.Accuracy < th.StrugglingAccuracy {
			struggling = append(struggling, c)
		}
	}
	sort.SliceStable(struggling, func(i, j int) bool {
		return struggling[i].Accuracy < struggling[j].Accuracy
	})
	for _, c := range struggling {
		result.StrugglingChapters = append(result.StrugglingChapters, summarizeChapter(c))
	}
	return result
}

func summarizeChapter(c ChapterMetrics) ChapterSummary {
	return ChapterSummary{
		Chapter:        c.Chapter,
		Label:          c.Label,
		Accuracy:       c.Accuracy,
		Efficiency:     c.Efficiency,
		CompletionRate: c.CompletionRate,
	}
}
