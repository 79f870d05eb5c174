package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/vocabstats/internal/model"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// DataQuality reports how much of the test history could be used.
type DataQuality struct {
	TotalSessions        int `json:"totalSessions"`
	UsableSessions       int `json:"usableSessions"`
	ExcludedSessions     int `json:"excludedSessions"`
	UnparsableTimestamps int `json:"unparsableTimestamps"`
	InconsistentSessions int `json:"inconsistentSessions"`
}

// Degraded reports whether any session was dropped or flagged.
func (q DataQuality) Degraded() bool {
	return q.ExcludedSessions > 0 || q.UnparsableTimestamps > 0 || q.InconsistentSessions > 0
}

// sessionPoint is a normalized, usable test session.
type sessionPoint struct {
	index      int
	id         int64
	at         time.Time
	timed      bool
	correct    int
	incorrect  int
	answered   int
	hints      int
	accuracy   float64
	durationMs int64
	chapters   map[string]model.ChapterBreakdown
}

// ParseTimestamp parses the ISO-8601 variants accepted from the test-history store.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// prepareSessions drops unusable sessions and normalizes the rest, keeping input order.
func prepareSessions(sessions []model.TestSessionRecord) ([]sessionPoint, DataQuality) {
	quality := DataQuality{TotalSessions: len(sessions)}
	points := make([]sessionPoint, 0, len(sessions))
	for i, s := range sessions {
		if strings.TrimSpace(s.Timestamp) == "" {
			quality.ExcludedSessions++
			continue
		}
		correct := nonNegative(s.CorrectWords)
		incorrect := nonNegative(s.IncorrectWords)
		total := nonNegative(s.TotalWords)

		p := sessionPoint{
			index:      i,
			id:         s.ID,
			correct:    correct,
			incorrect:  incorrect,
			hints:      nonNegative(s.HintsUsed),
			durationMs: s.DurationMs,
			chapters:   s.PerChapter,
		}
		switch {
		case correct+incorrect > 0:
			p.answered = correct + incorrect
			p.accuracy = percent(correct, p.answered)
		case s.Accuracy != nil:
			p.answered = total
			p.accuracy = clampPct(*s.Accuracy)
		default:
			quality.ExcludedSessions++
			continue
		}
		if p.durationMs < 0 {
			p.durationMs = 0
		}

		inconsistent := total > 0 && correct+incorrect > 0 && correct+incorrect != total
		chapterSum := 0
		for _, b := range s.PerChapter {
			chapterSum += nonNegative(b.Correct) + nonNegative(b.Incorrect)
		}
		if p.answered > 0 && chapterSum > p.answered {
			inconsistent = true
		}
		if inconsistent {
			quality.InconsistentSessions++
		}

		if at, ok := ParseTimestamp(s.Timestamp); ok {
			p.at = at
			p.timed = true
		} else {
			quality.UnparsableTimestamps++
		}
		points = append(points, p)
	}
	quality.UsableSessions = len(points)
	return points, quality
}

// timedSessions returns the sessions with parseable timestamps in chronological order.
func timedSessions(points []sessionPoint) []sessionPoint {
	out := make([]sessionPoint, 0, len(points))
	for _, p := range points {
		if p.timed {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].at.Before(out[j].at)
	})
	return out
}

// chapterAnswers returns the non-negative breakdown for a chapter in a session.
func (p sessionPoint) chapterAnswers(chapter string) model.ChapterBreakdown {
	b, ok := p.chapters[chapter]
	if !ok {
		return model.ChapterBreakdown{}
	}
	return model.ChapterBreakdown{Correct: nonNegative(b.Correct), Incorrect: nonNegative(b.Incorrect)}
}

// breakdownAnswered sums the answers recorded across all chapters of a session.
func (p sessionPoint) breakdownAnswered() int {
	total := 0
	for _, b := range p.chapters {
		total += nonNegative(b.Correct) + nonNegative(b.Incorrect)
	}
	return total
}

func sessionAccuracies(points []sessionPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.accuracy
	}
	return out
}

// SessionHistory returns the dated usable sessions in chronological order.
// EstimatedHints carries the hints recorded for the whole session.
func SessionHistory(sessions []model.TestSessionRecord) []TrendPoint {
	points, _ := prepareSessions(sessions)
	timed := timedSessions(points)
	out := make([]TrendPoint, len(timed))
	for i, p := range timed {
		out[i] = TrendPoint{
			Timestamp:      p.at,
			SessionID:      p.id,
			Correct:        p.correct,
			Incorrect:      p.incorrect,
			Accuracy:       round1(p.accuracy),
			EstimatedHints: float64(p.hints),
		}
	}
	return out
}
