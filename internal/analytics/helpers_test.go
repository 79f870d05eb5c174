package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/vocabstats/internal/model"
)

var baseTime = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func attempts(pattern string) []model.Attempt {
	out := make([]model.Attempt, 0, len(pattern))
	for i, r := range pattern {
		out = append(out, model.Attempt{
			Timestamp:   baseTime.Add(time.Duration(i) * time.Hour),
			Correct:     r == 'T',
			TimeSpentMs: 1500,
		})
	}
	return out
}

func word(id, chapter, pattern string) model.WordPerformanceRecord {
	return model.WordPerformanceRecord{
		WordID:   id,
		English:  "en-" + id,
		Italian:  "it-" + id,
		Chapter:  chapter,
		Attempts: attempts(pattern),
	}
}

func ts(t time.Time) string {
	return t.Format(time.RFC3339)
}

// accuracySession builds a 100-answer session scoring acc percent, one day apart per index.
func accuracySession(idx, acc int) model.TestSessionRecord {
	return model.TestSessionRecord{
		ID:             int64(idx + 1),
		Timestamp:      ts(baseTime.AddDate(0, 0, idx)),
		TotalWords:     100,
		CorrectWords:   acc,
		IncorrectWords: 100 - acc,
	}
}

func accuracySessions(accs ...int) []model.TestSessionRecord {
	out := make([]model.TestSessionRecord, len(accs))
	for i, a := range accs {
		out[i] = accuracySession(i, a)
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func wordsInChapter(chapter string, n int, pattern string) []model.WordPerformanceRecord {
	out := make([]model.WordPerformanceRecord, n)
	for i := range out {
		out[i] = word(fmt.Sprintf("%s-%d", chapter, i), chapter, pattern)
	}
	return out
}
