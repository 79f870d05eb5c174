package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/vocabstats/internal/model"
)

type document struct {
	Words       []wordDTO    `json:"words"`
	TestHistory []sessionDTO `json:"testHistory"`
}

type wordDTO struct {
	WordID    flexString   `json:"wordId"`
	ID        flexString   `json:"id"`
	English   *string      `json:"english"`
	Italian   *string      `json:"italian"`
	Chapter   flexString   `json:"chapter"`
	Attempts  []attemptDTO `json:"attempts"`
	Learned   *bool        `json:"learned"`
	Difficult *bool        `json:"difficult"`
}

type attemptDTO struct {
	Timestamp   flexString `json:"timestamp"`
	Correct     *bool      `json:"correct"`
	UsedHint    *bool      `json:"usedHint"`
	HintsCount  *int       `json:"hintsCount"`
	TimeSpentMs *float64   `json:"timeSpentMs"`
}

type sessionDTO struct {
	ID             *int64                  `json:"id"`
	Timestamp      flexString              `json:"timestamp"`
	TotalWords     *int                    `json:"totalWords"`
	CorrectWords   *int                    `json:"correctWords"`
	IncorrectWords *int                    `json:"incorrectWords"`
	HintsUsed      *int                    `json:"hintsUsed"`
	Accuracy       *float64                `json:"accuracy"`
	DurationMs     *float64                `json:"durationMs"`
	PerChapter     map[string]breakdownDTO `json:"perChapterBreakdown"`
}

type breakdownDTO struct {
	Correct   *int `json:"correct"`
	Incorrect *int `json:"incorrect"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// LoadJSONFile reads a JSON document from path.
func LoadJSONFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open json: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	return LoadJSON(f)
}

// LoadJSON decodes a `{ "words": [...], "testHistory": [...] }` document.
// Missing fields fall back to their zero values.
func LoadJSON(r io.Reader) (Result, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Result{}, fmt.Errorf("failed to decode json: %w", err)
	}
	res := Result{Dataset: model.Dataset{
		Words:       make([]model.WordPerformanceRecord, 0, len(doc.Words)),
		TestHistory: make([]model.TestSessionRecord, 0, len(doc.TestHistory)),
	}}

	index := newWordIndex()
	for i, w := range doc.Words {
		where := fmt.Sprintf("words[%d]", i)
		id := string(w.WordID)
		if id == "" {
			id = string(w.ID)
		}
		rec := model.WordPerformanceRecord{
			WordID:    id,
			English:   deref(w.English),
			Italian:   deref(w.Italian),
			Chapter:   string(w.Chapter),
			Learned:   derefBool(w.Learned),
			Difficult: derefBool(w.Difficult),
			Attempts:  make([]model.Attempt, 0, len(w.Attempts)),
		}
		for j, a := range w.Attempts {
			attempt := model.Attempt{
				Timestamp: parseAttemptTime(&res, string(a.Timestamp), fmt.Sprintf("%s.attempts[%d]", where, j)),
				Correct:   derefBool(a.Correct),
				UsedHint:  derefBool(a.UsedHint),
			}
			if a.Correct == nil {
				res.warnf("%s.attempts[%d]: missing correct flag, counted as incorrect", where, j)
			}
			if a.HintsCount != nil && *a.HintsCount > 0 {
				attempt.HintsCount = *a.HintsCount
			}
			if a.TimeSpentMs != nil && *a.TimeSpentMs > 0 {
				attempt.TimeSpentMs = int64(*a.TimeSpentMs)
			}
			rec.Attempts = append(rec.Attempts, attempt)
		}
		index.add(&res, rec, where)
	}

	for i, s := range doc.TestHistory {
		sess := model.TestSessionRecord{
			Timestamp:      strings.TrimSpace(string(s.Timestamp)),
			TotalWords:     derefInt(s.TotalWords),
			CorrectWords:   derefInt(s.CorrectWords),
			IncorrectWords: derefInt(s.IncorrectWords),
			HintsUsed:      derefInt(s.HintsUsed),
			Accuracy:       s.Accuracy,
		}
		if ms, err := strconv.ParseInt(sess.Timestamp, 10, 64); err == nil {
			sess.Timestamp = msTimestamp(ms)
		}
		if s.ID != nil {
			sess.ID = *s.ID
		}
		if s.DurationMs != nil && *s.DurationMs > 0 {
			sess.DurationMs = int64(*s.DurationMs)
		}
		if len(s.PerChapter) > 0 {
			sess.PerChapter = make(map[string]model.ChapterBreakdown, len(s.PerChapter))
			for ch, b := range s.PerChapter {
				key := strings.TrimSpace(ch)
				if key == model.NoChapterLabel {
					key = model.NoChapter
				}
				sess.PerChapter[key] = model.ChapterBreakdown{Correct: derefInt(b.Correct), Incorrect: derefInt(b.Incorrect)}
			}
		}
		if sess.Timestamp == "" {
			res.warnf("testHistory[%d]: missing timestamp", i)
		}
		res.Dataset.TestHistory = append(res.Dataset.TestHistory, sess)
	}
	return res, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
