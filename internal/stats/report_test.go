package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/vocabstats/internal/analytics"
	"github.com/verte-zerg/vocabstats/internal/cache"
	"github.com/verte-zerg/vocabstats/internal/model"
	"github.com/verte-zerg/vocabstats/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "vocabstats.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestBuilderSources(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	if _, err := st.ImportDataset(ctx, reportDataset()); err != nil {
		t.Fatalf("import: %v", err)
	}

	engine := analytics.NewEngine(analytics.DefaultThresholds())
	results := cache.NewMemory(8, time.Hour)
	core, logs := observer.New(zap.DebugLevel)
	b := NewBuilder(st, engine, results, zap.New(core))

	first, err := b.Build(ctx, model.ReportConfig{}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if first.Source != SourceComputed || len(first.Dataset.Words) != 4 || len(first.History) != 6 {
		t.Fatalf("unexpected first report: source=%s words=%d history=%d", first.Source, len(first.Dataset.Words), len(first.History))
	}
	if results.Len() != 1 {
		t.Fatalf("expected analysis to be written to the result cache")
	}

	second, err := b.Build(ctx, model.ReportConfig{}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if second.Source != SourceMemo || second.Analysis != first.Analysis {
		t.Fatalf("expected memo hit, got %s", second.Source)
	}

	fresh := NewBuilder(st, engine, results, nil)
	third, err := fresh.Build(ctx, model.ReportConfig{}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if third.Source != SourceCache {
		t.Fatalf("expected result cache hit, got %s", third.Source)
	}
	if third.Analysis.Fingerprint != first.Analysis.Fingerprint ||
		len(third.Analysis.Chapters.Analysis.ProcessedData) != len(first.Analysis.Chapters.Analysis.ProcessedData) ||
		third.Analysis.Trends.LearningVelocity != first.Analysis.Trends.LearningVelocity {
		t.Fatalf("cached analysis differs from the computed one")
	}

	withGoal, err := fresh.Build(ctx, model.ReportConfig{}, []model.Goal{{Target: 90}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if withGoal.Source != SourceComputed || len(withGoal.Analysis.Trends.RecommendationSystem.GoalBased) != 1 {
		t.Fatalf("expected goals to bypass cached entries, got %s", withGoal.Source)
	}

	if _, err := st.InsertSession(ctx, model.TestSessionRecord{
		Timestamp:      "2024-03-20T09:00:00Z",
		TotalWords:     10,
		CorrectWords:   9,
		IncorrectWords: 1,
	}); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	updated, err := b.Build(ctx, model.ReportConfig{}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if updated.Source != SourceComputed || updated.Analysis.Fingerprint == first.Analysis.Fingerprint {
		t.Fatalf("expected recompute after a new session, got %s", updated.Source)
	}
	if logs.FilterMessage("analysis served from result cache").Len() != 0 {
		t.Fatalf("the first builder should never read its own cache entry")
	}
}

func TestBuilderChapterFilter(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	if _, err := st.ImportDataset(ctx, reportDataset()); err != nil {
		t.Fatalf("import: %v", err)
	}
	b := NewBuilder(st, analytics.NewEngine(analytics.DefaultThresholds()), nil, nil)
	report, err := b.Build(ctx, model.ReportConfig{Chapter: "2"}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(report.Dataset.Words) != 1 || report.Dataset.Words[0].WordID != "w3" {
		t.Fatalf("unexpected filtered words: %+v", report.Dataset.Words)
	}
	if _, ok := report.Analysis.Word("w3"); !ok {
		t.Fatalf("expected w3 in analysis")
	}
}
