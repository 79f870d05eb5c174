// Package model defines shared data structures.
package model

import "time"

// NoChapter is the chapter key for words that were never assigned a chapter.
const NoChapter = ""

// NoChapterLabel is the display label of the NoChapter bucket.
const NoChapterLabel = "no-chapter"

// Attempt is a single recorded answer for a word.
type Attempt struct {
	Timestamp   time.Time
	Correct     bool
	UsedHint    bool
	HintsCount  int
	TimeSpentMs int64
}

// WordPerformanceRecord is a vocabulary entry with its attempt history.
type WordPerformanceRecord struct {
	WordID    string
	English   string
	Italian   string
	Chapter   string
	Attempts  []Attempt
	Learned   bool
	Difficult bool
}

// ChapterBreakdown holds per-chapter answer counts inside a test session.
type ChapterBreakdown struct {
	Correct   int
	Incorrect int
}

// Answered returns the number of answers recorded for the chapter.
func (b ChapterBreakdown) Answered() int {
	return b.Correct + b.Incorrect
}

// TestSessionRecord is a completed test session.
//
// Timestamp is kept as the ISO-8601 text supplied by the test-history store so
// that unparsable values can be reported instead of silently lost.
type TestSessionRecord struct {
	ID             int64
	Timestamp      string
	TotalWords     int
	CorrectWords   int
	IncorrectWords int
	HintsUsed      int
	Accuracy       *float64
	DurationMs     int64
	PerChapter     map[string]ChapterBreakdown
}

// Dataset bundles the two source collections consumed by the analytics engine.
type Dataset struct {
	Words       []WordPerformanceRecord
	TestHistory []TestSessionRecord
}

// ReportConfig defines filters and options for report commands.
type ReportConfig struct {
	Since   *time.Time
	Last    int
	Chapter string
}

// Goal is a user-declared learning target.
type Goal struct {
	Metric       string
	Target       float64
	DeadlineDays int
}
