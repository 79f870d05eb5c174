package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/vocabstats/internal/analytics"
	"github.com/verte-zerg/vocabstats/internal/model"
	"github.com/verte-zerg/vocabstats/internal/stats"
)

type fakeBuilder struct {
	ds    model.Dataset
	err   error
	calls []model.ReportConfig
}

func (f *fakeBuilder) Build(_ context.Context, cfg model.ReportConfig, goals []model.Goal) (stats.Report, error) {
	f.calls = append(f.calls, cfg)
	if f.err != nil {
		return stats.Report{}, f.err
	}
	engine := analytics.NewEngine(analytics.DefaultThresholds())
	return stats.Report{
		Dataset:  f.ds,
		Analysis: engine.Analyze(f.ds, goals),
		History:  analytics.SessionHistory(f.ds.TestHistory),
		Source:   stats.SourceComputed,
	}, nil
}

type fakeChapters []string

func (f fakeChapters) ListChapters(context.Context) ([]string, error) {
	return f, nil
}

func sampleDataset() model.Dataset {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	attempts := func(pattern string) []model.Attempt {
		out := make([]model.Attempt, len(pattern))
		for i, c := range pattern {
			out[i] = model.Attempt{Timestamp: base.Add(time.Duration(i) * time.Hour), Correct: c == 'T'}
		}
		return out
	}
	ds := model.Dataset{Words: []model.WordPerformanceRecord{
		{WordID: "w1", English: "cat", Italian: "gatto", Chapter: "1", Attempts: attempts("TTTT")},
		{WordID: "w2", English: "why", Italian: "perché", Chapter: "2", Attempts: attempts("FFTF")},
		{WordID: "w3", English: "dog", Italian: "cane", Chapter: "2", Attempts: attempts("TFTTTT")},
	}}
	for i := 0; i < 4; i++ {
		ds.TestHistory = append(ds.TestHistory, model.TestSessionRecord{
			ID:             int64(i + 1),
			Timestamp:      base.AddDate(0, 0, i).Format(time.RFC3339),
			TotalWords:     10,
			CorrectWords:   5 + i,
			IncorrectWords: 5 - i,
			PerChapter:     map[string]model.ChapterBreakdown{"1": {Correct: 5 + i, Incorrect: 5 - i}},
		})
	}
	return ds
}

func newTestModel(t *testing.T) (*Model, *fakeBuilder) {
	t.Helper()
	b := &fakeBuilder{ds: sampleDataset()}
	m := NewModel(b, fakeChapters{"1", "2", ""}, model.ReportConfig{}, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, b
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewRendersOverview(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()
	for _, want := range []string{"Overview", "Chapters", "Words", "Trends", "Filters: chapter=all", "Learning Curves"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view", want)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines != 40 {
		t.Fatalf("expected view to fill 40 lines, got %d", lines)
	}
}

func TestTabNavigationWraps(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabTrends {
		t.Fatalf("expected wrap to trends tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "Learning Velocity") {
		t.Fatalf("expected trends report in view")
	}
	m.Update(key("l"))
	m.Update(key("l"))
	if m.activeTab != tabChapters {
		t.Fatalf("expected chapters tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "Completion") {
		t.Fatalf("expected chapter table in view")
	}
}

func TestCycleChapter(t *testing.T) {
	m, b := newTestModel(t)
	want := []string{"1", "2", "no-chapter", ""}
	for _, ch := range want {
		m.Update(key("c"))
		if m.cfg.Chapter != ch {
			t.Fatalf("expected chapter %q, got %q", ch, m.cfg.Chapter)
		}
	}
	if got := b.calls[len(b.calls)-2].Chapter; got != "no-chapter" {
		t.Fatalf("expected builder to receive chapter filter, got %q", got)
	}
}

func TestFilterForm(t *testing.T) {
	m, b := newTestModel(t)
	m.Update(key("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[filterSince].SetValue("yesterday")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || !strings.Contains(m.filterError, "invalid since date") {
		t.Fatalf("expected validation error, got %q", m.filterError)
	}

	m.filterInputs[filterChapter].SetValue("2")
	m.filterInputs[filterSince].SetValue("2024-03-05")
	m.filterInputs[filterLast].SetValue("3")
	m.filterInputs[filterWindow].SetValue("2")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter mode to close")
	}
	cfg := b.calls[len(b.calls)-1]
	if cfg.Chapter != "2" || cfg.Last != 3 || cfg.Since == nil || cfg.Since.Day() != 5 || m.window != 2 {
		t.Fatalf("unexpected applied filters: %+v window=%d", cfg, m.window)
	}
}

func TestWordDetailsAndSort(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(key("l"))
	m.Update(key("l"))
	if m.activeTab != tabWords {
		t.Fatalf("expected words tab, got %d", m.activeTab)
	}
	if len(m.wordRows) != 3 || m.wordRows[0].WordID != "w2" {
		t.Fatalf("expected weakest word first, got %+v", m.wordRows)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.detailMode || !strings.Contains(m.View(), "why / perché (w2)") {
		t.Fatalf("expected word details modal")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.detailMode {
		t.Fatalf("expected modal to close")
	}

	m.Update(key("s"))
	if !m.sortPracticed || m.wordRows[0].WordID != "w3" {
		t.Fatalf("expected most practiced word first, got %+v", m.wordRows)
	}
}

func TestBuildErrorShown(t *testing.T) {
	b := &fakeBuilder{err: errors.New("database is locked")}
	m := NewModel(b, nil, model.ReportConfig{}, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	out := m.View()
	if !strings.Contains(out, "database is locked") || !strings.Contains(out, "Failed to load stats.") {
		t.Fatalf("expected error in view:\n%s", out)
	}
	m.Update(key("c"))
	if m.cfg.Chapter != "" {
		t.Fatalf("chapter cycling needs a lister")
	}
}

func TestWindowSteps(t *testing.T) {
	cases := []struct{ in, next, prev int }{
		{1, 5, 1},
		{3, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{10, 15, 5},
	}
	for _, tc := range cases {
		if got := nextWindow(tc.in); got != tc.next {
			t.Fatalf("nextWindow(%d) = %d, want %d", tc.in, got, tc.next)
		}
		if got := prevWindow(tc.in); got != tc.prev {
			t.Fatalf("prevWindow(%d) = %d, want %d", tc.in, got, tc.prev)
		}
	}
}
