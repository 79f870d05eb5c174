// Package importer loads vocabulary and test history from JSON documents,
// Excel workbooks and CSV word lists.
package importer

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/vocabstats/internal/analytics"
	"github.com/verte-zerg/vocabstats/internal/model"
)

// Result is an imported dataset plus the repairs applied while reading it.
type Result struct {
	Dataset      model.Dataset
	GeneratedIDs int
	Warnings     []string
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Load picks the loader from the file extension.
func Load(path string) (Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSONFile(path)
	case ".xlsx", ".xlsm":
		return LoadWorkbook(path)
	case ".csv":
		return LoadCSVFile(path)
	default:
		return Result{}, fmt.Errorf("unsupported import format %q", filepath.Ext(path))
	}
}

// wordNamespace scopes the name-based ids of words imported without one.
var wordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("vocabstats:word"))

// contentID derives a stable id from a word's text and chapter, so importing
// the same file again yields the same ids.
func contentID(w model.WordPerformanceRecord) string {
	key := strings.Join([]string{strings.TrimSpace(w.English), strings.TrimSpace(w.Italian), w.Chapter}, "\x00")
	return uuid.NewSHA1(wordNamespace, []byte(key)).String()
}

// wordIndex assigns ids to words that lack one and drops duplicates.
type wordIndex struct {
	seen map[string]struct{}
}

func newWordIndex() *wordIndex {
	return &wordIndex{seen: map[string]struct{}{}}
}

func (ix *wordIndex) add(res *Result, w model.WordPerformanceRecord, where string) bool {
	w.WordID = strings.TrimSpace(w.WordID)
	w.Chapter = strings.TrimSpace(w.Chapter)
	if w.Chapter == model.NoChapterLabel {
		w.Chapter = model.NoChapter
	}
	generated := w.WordID == ""
	if generated {
		w.WordID = contentID(w)
	}
	if _, dup := ix.seen[w.WordID]; dup {
		res.warnf("%s: duplicate word id %q skipped", where, w.WordID)
		return false
	}
	ix.seen[w.WordID] = struct{}{}
	if generated {
		res.GeneratedIDs++
	}
	res.Dataset.Words = append(res.Dataset.Words, w)
	return true
}

func parseAttemptTime(res *Result, raw, where string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, ok := analytics.ParseTimestamp(raw); ok {
		return t
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	res.warnf("%s: unparsable attempt timestamp %q", where, raw)
	return time.Time{}
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "x", "si", "sì":
		return true
	default:
		return false
	}
}

func parseInt(raw string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(v)
}

func msTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}
