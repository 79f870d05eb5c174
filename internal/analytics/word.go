package analytics

import (
	"time"

	"github.com/verte-zerg/vocabstats/internal/model"
)

// Status is the discrete learning state of a word.
type Status string

// Word statuses in classification precedence order.
const (
	StatusNew          Status = "new"
	StatusPromising    Status = "promising"
	StatusStruggling   Status = "struggling"
	StatusConsolidated Status = "consolidated"
	StatusCritical     Status = "critical"
	StatusImproving    Status = "improving"
	StatusInconsistent Status = "inconsistent"
)

// AllStatuses lists every status in precedence order.
var AllStatuses = []Status{
	StatusNew,
	StatusPromising,
	StatusStruggling,
	StatusConsolidated,
	StatusCritical,
	StatusImproving,
	StatusInconsistent,
}

// Trend compares recent accuracy against the full history.
type Trend string

// Word trends.
const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// WordAnalysis is the classified performance of one word.
type WordAnalysis struct {
	WordID          string    `json:"wordId"`
	English         string    `json:"english"`
	Italian         string    `json:"italian"`
	Chapter         string    `json:"chapter,omitempty"`
	TotalAttempts   int       `json:"totalAttempts"`
	CorrectAttempts int       `json:"correctAttempts"`
	Accuracy        int       `json:"accuracy"`
	RecentAccuracy  int       `json:"recentAccuracy"`
	HintsPercentage int       `json:"hintsPercentage"`
	CurrentStreak   int       `json:"currentStreak"`
	BestStreak      int       `json:"bestStreak"`
	AverageTimeMs   int64     `json:"averageTimeMs"`
	LastAttempt     time.Time `json:"lastAttempt"`
	Status          Status    `json:"status"`
	Trend           Trend     `json:"trend"`
	Learned         bool      `json:"learned"`
	Difficult       bool      `json:"difficult"`
}

// ClassifyWord converts one word's attempt history into its performance summary.
func ClassifyWord(rec model.WordPerformanceRecord, th Thresholds) WordAnalysis {
	out := WordAnalysis{
		WordID:        rec.WordID,
		English:       rec.English,
		Italian:       rec.Italian,
		Chapter:       rec.Chapter,
		TotalAttempts: len(rec.Attempts),
		Learned:       rec.Learned,
		Difficult:     rec.Difficult,
	}

	var hinted int
	var timeSum int64
	run := 0
	for _, a := range rec.Attempts {
		if a.Correct {
			out.CorrectAttempts++
			run++
			if run > out.BestStreak {
				out.BestStreak = run
			}
		} else {
			run = 0
		}
		if a.UsedHint || a.HintsCount > 0 {
			hinted++
		}
		if a.TimeSpentMs > 0 {
			timeSum += a.TimeSpentMs
		}
		if a.Timestamp.After(out.LastAttempt) {
			out.LastAttempt = a.Timestamp
		}
	}
	out.CurrentStreak = run

	total := out.TotalAttempts
	out.Accuracy = roundPct(out.CorrectAttempts, total)
	out.HintsPercentage = roundPct(hinted, total)
	if total > 0 {
		out.AverageTimeMs = timeSum / int64(total)
	}

	recent := rec.Attempts
	if n := th.RecentAttempts; n > 0 && len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	recentCorrect := 0
	for _, a := range recent {
		if a.Correct {
			recentCorrect++
		}
	}
	out.RecentAccuracy = roundPct(recentCorrect, len(recent))

	out.Status = classifyStatus(total, out.CurrentStreak, out.Accuracy, th)
	out.Trend = classifyTrend(total, out.RecentAccuracy, out.Accuracy, th)
	return out
}

func classifyStatus(attempts, streak, accuracy int, th Thresholds) Status {
	switch {
	case attempts == 0:
		return StatusNew
	case attempts < th.MinAttemptsForStatus && streak > 0:
		return StatusPromising
	case attempts < th.MinAttemptsForStatus:
		return StatusStruggling
	case streak >= th.ConsolidatedStreak:
		return StatusConsolidated
	case accuracy <= th.CriticalAccuracy:
		return StatusCritical
	case accuracy >= th.ImprovingAccuracy:
		return StatusImproving
	default:
		return StatusInconsistent
	}
}

func classifyTrend(attempts, recent, overall int, th Thresholds) Trend {
	if attempts == 0 {
		return TrendStable
	}
	diff := recent - overall
	switch {
	case diff > th.TrendBand:
		return TrendImproving
	case diff < -th.TrendBand:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// AnalyzeWords classifies every word of the catalogue, preserving input order.
func AnalyzeWords(words []model.WordPerformanceRecord, th Thresholds) []WordAnalysis {
	out := make([]WordAnalysis, len(words))
	for i, w := range words {
		out[i] = ClassifyWord(w, th)
	}
	return out
}

// StatusCounts tallies words per status; every status is present in the map.
func StatusCounts(words []WordAnalysis) map[Status]int {
	counts := make(map[Status]int, len(AllStatuses))
	for _, s := range AllStatuses {
		counts[s] = 0
	}
	for _, w := range words {
		counts[w.Status]++
	}
	return counts
}
