package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/vocabstats/internal/model"
)

// Sheet names read from a workbook.
const (
	SheetWords           = "words"
	SheetAttempts        = "attempts"
	SheetSessions        = "sessions"
	SheetSessionChapters = "session_chapters"
)

// header maps lower-cased column names of a header row to their index.
type header map[string]int

func newHeader(row []string) header {
	h := header{}
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := h[key]; !ok {
			h[key] = i
		}
	}
	return h
}

func (h header) get(row []string, names ...string) string {
	for _, name := range names {
		if i, ok := h[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

func (h header) has(name string) bool {
	_, ok := h[name]
	return ok
}

// LoadWorkbook reads an Excel workbook with a `words` sheet and the optional
// `attempts`, `sessions` and `session_chapters` sheets.
func LoadWorkbook(path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	sheets := map[string]string{}
	for _, name := range f.GetSheetList() {
		sheets[strings.ToLower(strings.TrimSpace(name))] = name
	}
	wordsSheet, ok := sheets[SheetWords]
	if !ok {
		return Result{}, fmt.Errorf("workbook has no %q sheet", SheetWords)
	}

	rows := func(key string) ([][]string, error) {
		name, ok := sheets[key]
		if !ok {
			return nil, nil
		}
		out, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		return out, nil
	}

	res := Result{Dataset: model.Dataset{
		Words:       []model.WordPerformanceRecord{},
		TestHistory: []model.TestSessionRecord{},
	}}
	wordRows, err := f.GetRows(wordsSheet)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read sheet %s: %w", wordsSheet, err)
	}
	if err := readWordRows(&res, wordsSheet, wordRows); err != nil {
		return Result{}, err
	}

	attemptRows, err := rows(SheetAttempts)
	if err != nil {
		return Result{}, err
	}
	readAttemptRows(&res, attemptRows)

	sessionRows, err := rows(SheetSessions)
	if err != nil {
		return Result{}, err
	}
	chapterRows, err := rows(SheetSessionChapters)
	if err != nil {
		return Result{}, err
	}
	readSessionRows(&res, sessionRows, chapterRows)
	return res, nil
}

// LoadCSVFile reads a CSV word list with the same columns as the words sheet.
func LoadCSVFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	return LoadCSV(f)
}

// LoadCSV reads a CSV word list from r.
func LoadCSV(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read csv: %w", err)
	}
	res := Result{Dataset: model.Dataset{
		Words:       []model.WordPerformanceRecord{},
		TestHistory: []model.TestSessionRecord{},
	}}
	if err := readWordRows(&res, "csv", rows); err != nil {
		return Result{}, err
	}
	return res, nil
}

func readWordRows(res *Result, source string, rows [][]string) error {
	if len(rows) == 0 {
		return fmt.Errorf("%s: missing header row", source)
	}
	h := newHeader(rows[0])
	if !h.has("english") || !h.has("italian") {
		return fmt.Errorf("%s: header must contain english and italian columns", source)
	}
	index := newWordIndex()
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		where := fmt.Sprintf("%s row %d", source, i+2)
		w := model.WordPerformanceRecord{
			WordID:    h.get(row, "id", "word_id", "wordid"),
			English:   h.get(row, "english"),
			Italian:   h.get(row, "italian"),
			Chapter:   h.get(row, "chapter"),
			Learned:   parseBool(h.get(row, "learned")),
			Difficult: parseBool(h.get(row, "difficult")),
		}
		if w.English == "" && w.Italian == "" {
			res.warnf("%s: empty word skipped", where)
			continue
		}
		index.add(res, w, where)
	}
	return nil
}

func readAttemptRows(res *Result, rows [][]string) {
	if len(rows) < 2 {
		return
	}
	byID := make(map[string]int, len(res.Dataset.Words))
	for i, w := range res.Dataset.Words {
		byID[w.WordID] = i
	}
	h := newHeader(rows[0])
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		where := fmt.Sprintf("%s row %d", SheetAttempts, i+2)
		id := h.get(row, "word_id", "wordid", "id")
		idx, ok := byID[id]
		if !ok {
			res.warnf("%s: unknown word id %q", where, id)
			continue
		}
		a := model.Attempt{
			Timestamp:  parseAttemptTime(res, h.get(row, "timestamp"), where),
			Correct:    parseBool(h.get(row, "correct")),
			UsedHint:   parseBool(h.get(row, "used_hint", "usedhint")),
			HintsCount: parseInt(h.get(row, "hints_count", "hintscount")),
		}
		if ms := parseInt(h.get(row, "time_spent_ms", "timespentms")); ms > 0 {
			a.TimeSpentMs = int64(ms)
		}
		res.Dataset.Words[idx].Attempts = append(res.Dataset.Words[idx].Attempts, a)
	}
}

func readSessionRows(res *Result, rows, chapterRows [][]string) {
	if len(rows) < 2 {
		return
	}
	h := newHeader(rows[0])
	byID := map[int64]int{}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		sess := model.TestSessionRecord{
			Timestamp:      h.get(row, "timestamp"),
			TotalWords:     parseInt(h.get(row, "total_words", "totalwords")),
			CorrectWords:   parseInt(h.get(row, "correct_words", "correctwords")),
			IncorrectWords: parseInt(h.get(row, "incorrect_words", "incorrectwords")),
			HintsUsed:      parseInt(h.get(row, "hints_used", "hintsused")),
			DurationMs:     int64(parseInt(h.get(row, "duration_ms", "durationms"))),
		}
		if id, err := strconv.ParseInt(h.get(row, "id"), 10, 64); err == nil && id > 0 {
			sess.ID = id
			byID[id] = len(res.Dataset.TestHistory)
		}
		if raw := h.get(row, "accuracy"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				sess.Accuracy = &v
			} else {
				res.warnf("%s row %d: unparsable accuracy %q", SheetSessions, i+2, raw)
			}
		}
		res.Dataset.TestHistory = append(res.Dataset.TestHistory, sess)
	}

	if len(chapterRows) < 2 {
		return
	}
	ch := newHeader(chapterRows[0])
	for i, row := range chapterRows[1:] {
		if blank(row) {
			continue
		}
		id, err := strconv.ParseInt(ch.get(row, "session_id", "sessionid"), 10, 64)
		idx, ok := byID[id]
		if err != nil || !ok {
			res.warnf("%s row %d: unknown session id", SheetSessionChapters, i+2)
			continue
		}
		chapter := ch.get(row, "chapter")
		if chapter == model.NoChapterLabel {
			chapter = model.NoChapter
		}
		sess := &res.Dataset.TestHistory[idx]
		if sess.PerChapter == nil {
			sess.PerChapter = map[string]model.ChapterBreakdown{}
		}
		sess.PerChapter[chapter] = model.ChapterBreakdown{
			Correct:   parseInt(ch.get(row, "correct")),
			Incorrect: parseInt(ch.get(row, "incorrect")),
		}
	}
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
