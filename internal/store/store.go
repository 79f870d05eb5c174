// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/vocabstats/internal/analytics"
	"github.com/verte-zerg/vocabstats/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for vocabulary and test history data.
type Store struct {
	db *sql.DB
}

// ImportSummary counts the rows written by an import.
type ImportSummary struct {
	Words    int
	Attempts int
	Sessions int
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS words (
			id TEXT PRIMARY KEY,
			english TEXT NOT NULL,
			italian TEXT NOT NULL,
			chapter TEXT NOT NULL,
			learned INTEGER NOT NULL,
			difficult INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			word_id TEXT NOT NULL,
			at TEXT NOT NULL,
			correct INTEGER NOT NULL,
			used_hint INTEGER NOT NULL,
			hints_count INTEGER NOT NULL,
			time_spent_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			at TEXT NOT NULL,
			at_unix INTEGER,
			total_words INTEGER NOT NULL,
			correct_words INTEGER NOT NULL,
			incorrect_words INTEGER NOT NULL,
			hints_used INTEGER NOT NULL,
			accuracy REAL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_chapters (
			session_id INTEGER NOT NULL,
			chapter TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			PRIMARY KEY (session_id, chapter)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_word_id ON attempts(word_id);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_at_unix ON sessions(at_unix);`,
		`CREATE INDEX IF NOT EXISTS idx_words_chapter ON words(chapter);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ImportDataset writes a dataset in one transaction. Words are upserted by id
// and their attempt history is replaced; sessions with an id replace the stored
// session of the same id.
func (s *Store) ImportDataset(ctx context.Context, ds model.Dataset) (summary ImportSummary, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for _, w := range ds.Words {
		if err = upsertWord(ctx, tx, w); err != nil {
			return ImportSummary{}, err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM attempts WHERE word_id = ?`, w.WordID); err != nil {
			return ImportSummary{}, fmt.Errorf("failed to clear attempts for %s: %w", w.WordID, err)
		}
		for _, a := range w.Attempts {
			if err = insertAttempt(ctx, tx, w.WordID, a); err != nil {
				return ImportSummary{}, err
			}
			summary.Attempts++
		}
		summary.Words++
	}
	for _, sess := range ds.TestHistory {
		if _, err = insertSession(ctx, tx, sess); err != nil {
			return ImportSummary{}, err
		}
		summary.Sessions++
	}

	if err = tx.Commit(); err != nil {
		return ImportSummary{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return summary, nil
}

// UpsertWord stores a word without touching its attempts.
func (s *Store) UpsertWord(ctx context.Context, w model.WordPerformanceRecord) error {
	return upsertWord(ctx, s.db, w)
}

// AppendAttempt records one more attempt for a stored word.
func (s *Store) AppendAttempt(ctx context.Context, wordID string, a model.Attempt) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM words WHERE id = ?`, wordID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up word: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("unknown word %q", wordID)
	}
	return insertAttempt(ctx, s.db, wordID, a)
}

// InsertSession stores a completed test session and its chapter breakdown.
func (s *Store) InsertSession(ctx context.Context, sess model.TestSessionRecord) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin session insert: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	id, err = insertSession(ctx, tx, sess)
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit session: %w", err)
	}
	return id, nil
}

func upsertWord(ctx context.Context, db execer, w model.WordPerformanceRecord) error {
	if strings.TrimSpace(w.WordID) == "" {
		return fmt.Errorf("word id is empty")
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO words (id, english, italian, chapter, learned, difficult)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET english = excluded.english, italian = excluded.italian,
		 chapter = excluded.chapter, learned = excluded.learned, difficult = excluded.difficult`,
		w.WordID, w.English, w.Italian, w.Chapter, boolInt(w.Learned), boolInt(w.Difficult))
	if err != nil {
		return fmt.Errorf("failed to upsert word %s: %w", w.WordID, err)
	}
	return nil
}

func insertAttempt(ctx context.Context, db execer, wordID string, a model.Attempt) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO attempts (word_id, at, correct, used_hint, hints_count, time_spent_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		wordID, formatTime(a.Timestamp), boolInt(a.Correct), boolInt(a.UsedHint), a.HintsCount, a.TimeSpentMs)
	if err != nil {
		return fmt.Errorf("failed to insert attempt for %s: %w", wordID, err)
	}
	return nil
}

func insertSession(ctx context.Context, db execer, sess model.TestSessionRecord) (int64, error) {
	var atUnix any
	if at, ok := analytics.ParseTimestamp(sess.Timestamp); ok {
		atUnix = at.UnixNano()
	}
	var accuracy any
	if sess.Accuracy != nil {
		accuracy = *sess.Accuracy
	}
	var id any
	if sess.ID > 0 {
		id = sess.ID
		if _, err := db.ExecContext(ctx, `DELETE FROM session_chapters WHERE session_id = ?`, sess.ID); err != nil {
			return 0, fmt.Errorf("failed to clear session chapters: %w", err)
		}
	}
	res, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, at, at_unix, total_words, correct_words, incorrect_words, hints_used, accuracy, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sess.Timestamp, atUnix, sess.TotalWords, sess.CorrectWords, sess.IncorrectWords, sess.HintsUsed, accuracy, sess.DurationMs)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}
	for chapter, b := range sess.PerChapter {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO session_chapters (session_id, chapter, correct, incorrect) VALUES (?, ?, ?, ?)`,
			sessionID, chapter, b.Correct, b.Incorrect); err != nil {
			return 0, fmt.Errorf("failed to insert session chapter %s: %w", chapter, err)
		}
	}
	return sessionID, nil
}

// ListWords returns the stored words in insertion order, optionally limited
// to one chapter, with attempts in chronological order.
func (s *Store) ListWords(ctx context.Context, chapter *string) ([]model.WordPerformanceRecord, error) {
	query := `SELECT id, english, italian, chapter, learned, difficult FROM words`
	args := []any{}
	if chapter != nil {
		query += ` WHERE chapter = ?`
		args = append(args, *chapter)
	}
	query += ` ORDER BY rowid ASC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	words := []model.WordPerformanceRecord{}
	index := map[string]int{}
	for rows.Next() {
		var w model.WordPerformanceRecord
		var learned, difficult int
		if err := rows.Scan(&w.WordID, &w.English, &w.Italian, &w.Chapter, &learned, &difficult); err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		w.Learned = learned != 0
		w.Difficult = difficult != 0
		index[w.WordID] = len(words)
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read words: %w", err)
	}
	if len(words) == 0 {
		return words, nil
	}

	attempts, err := s.listAttempts(ctx)
	if err != nil {
		return nil, err
	}
	for id, list := range attempts {
		if i, ok := index[id]; ok {
			words[i].Attempts = list
		}
	}
	return words, nil
}

func (s *Store) listAttempts(ctx context.Context) (map[string][]model.Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word_id, at, correct, used_hint, hints_count, time_spent_ms FROM attempts ORDER BY word_id, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[string][]model.Attempt{}
	for rows.Next() {
		var wordID, at string
		var correct, usedHint int
		var a model.Attempt
		if err := rows.Scan(&wordID, &at, &correct, &usedHint, &a.HintsCount, &a.TimeSpentMs); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		if at != "" {
			parsed, err := time.Parse(time.RFC3339Nano, at)
			if err != nil {
				return nil, fmt.Errorf("failed to parse attempt time: %w", err)
			}
			a.Timestamp = parsed
		}
		a.Correct = correct != 0
		a.UsedHint = usedHint != 0
		result[wordID] = append(result[wordID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attempts: %w", err)
	}
	return result, nil
}

// ListSessions returns sessions filtered by report config in chronological
// order. Sessions with unparsable timestamps follow the dated ones and are
// dropped when a Since filter applies.
func (s *Store) ListSessions(ctx context.Context, cfg model.ReportConfig) ([]model.TestSessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "at_unix >= ?")
		args = append(args, cfg.Since.UnixNano())
	}
	inner := fmt.Sprintf(`SELECT id, at, at_unix, total_words, correct_words, incorrect_words, hints_used, accuracy, duration_ms
		FROM sessions
		WHERE %s`, strings.Join(clauses, " AND "))
	query := inner + ` ORDER BY at_unix IS NULL, at_unix ASC, id ASC`
	if cfg.Last > 0 {
		query = fmt.Sprintf(`SELECT * FROM (%s ORDER BY at_unix IS NULL, at_unix DESC, id DESC LIMIT ?)
			ORDER BY at_unix IS NULL, at_unix ASC, id ASC`, inner)
		args = append(args, cfg.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	sessions := []model.TestSessionRecord{}
	for rows.Next() {
		var sess model.TestSessionRecord
		var atUnix sql.NullInt64
		var accuracy sql.NullFloat64
		if err := rows.Scan(&sess.ID, &sess.Timestamp, &atUnix, &sess.TotalWords, &sess.CorrectWords,
			&sess.IncorrectWords, &sess.HintsUsed, &accuracy, &sess.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if accuracy.Valid {
			v := accuracy.Float64
			sess.Accuracy = &v
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	if err := s.attachChapters(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Store) attachChapters(ctx context.Context, sessions []model.TestSessionRecord) error {
	if len(sessions) == 0 {
		return nil
	}
	placeholders := make([]string, len(sessions))
	args := make([]any, len(sessions))
	index := make(map[int64]int, len(sessions))
	for i, sess := range sessions {
		placeholders[i] = "?"
		args[i] = sess.ID
		index[sess.ID] = i
	}
	query := fmt.Sprintf(`SELECT session_id, chapter, correct, incorrect
		FROM session_chapters
		WHERE session_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query session chapters: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var sessionID int64
		var chapter string
		var b model.ChapterBreakdown
		if err := rows.Scan(&sessionID, &chapter, &b.Correct, &b.Incorrect); err != nil {
			return fmt.Errorf("failed to scan session chapter: %w", err)
		}
		i := index[sessionID]
		if sessions[i].PerChapter == nil {
			sessions[i].PerChapter = map[string]model.ChapterBreakdown{}
		}
		sessions[i].PerChapter[chapter] = b
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read session chapters: %w", err)
	}
	return nil
}

// LoadDataset returns the snapshot the analytics engine runs on. A chapter
// filter keeps the chapter's words and the sessions that touched it, each
// narrowed to that chapter's answers.
func (s *Store) LoadDataset(ctx context.Context, cfg model.ReportConfig) (model.Dataset, error) {
	var chapter *string
	if cfg.Chapter != "" {
		key := cfg.Chapter
		if key == model.NoChapterLabel {
			key = model.NoChapter
		}
		chapter = &key
	}
	words, err := s.ListWords(ctx, chapter)
	if err != nil {
		return model.Dataset{}, err
	}
	sessions, err := s.ListSessions(ctx, cfg)
	if err != nil {
		return model.Dataset{}, err
	}
	if chapter != nil {
		kept := sessions[:0]
		for _, sess := range sessions {
			if b, ok := sess.PerChapter[*chapter]; ok {
				kept = append(kept, narrowSession(sess, *chapter, b))
			}
		}
		sessions = kept
	}
	return model.Dataset{Words: words, TestHistory: sessions}, nil
}

// narrowSession restricts a session to one chapter's breakdown. Hints and
// duration are scaled by the chapter's share of the answers.
func narrowSession(sess model.TestSessionRecord, chapter string, b model.ChapterBreakdown) model.TestSessionRecord {
	answered := sess.CorrectWords + sess.IncorrectWords
	share := 0.0
	if answered > 0 {
		share = math.Min(1, float64(b.Answered())/float64(answered))
	}
	sess.TotalWords = b.Answered()
	sess.CorrectWords = b.Correct
	sess.IncorrectWords = b.Incorrect
	sess.HintsUsed = int(math.Round(float64(sess.HintsUsed) * share))
	sess.DurationMs = int64(math.Round(float64(sess.DurationMs) * share))
	sess.Accuracy = nil
	sess.PerChapter = map[string]model.ChapterBreakdown{chapter: b}
	return sess
}

// ListChapters returns the distinct chapter keys of the stored words.
func (s *Store) ListChapters(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT chapter FROM words ORDER BY chapter`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var chapters []string
	for rows.Next() {
		var ch string
		if err := rows.Scan(&ch); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chapters: %w", err)
	}
	return chapters, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
