package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/vocabstats/internal/analytics"
	"github.com/verte-zerg/vocabstats/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	in := []float64{1, 2}
	same := MovingAverage(in, 1)
	same[0] = 9
	if in[0] != 1 {
		t.Fatalf("expected a copy for window 1")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 50, 100}); got != " +@" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{7, 7, 7}); got != "+++" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}

func TestRenderCurves(t *testing.T) {
	history := []analytics.TrendPoint{
		{Correct: 6, Incorrect: 4, Accuracy: 60, EstimatedHints: 2},
		{Correct: 8, Incorrect: 2, Accuracy: 80, EstimatedHints: 0},
	}
	var buf bytes.Buffer
	if err := RenderCurves(&buf, history, 2, PlotOptions{Width: 10, Height: 3}); err != nil {
		t.Fatalf("render curves: %v", err)
	}
	if !strings.Contains(buf.String(), "Accuracy (solid)") || !strings.Contains(buf.String(), "Hints (dashed)") {
		t.Fatalf("unexpected curves output:\n%s", buf.String())
	}
	buf.Reset()
	if err := RenderCurves(&buf, nil, 2, PlotOptions{}); err != nil || buf.Len() != 0 {
		t.Fatalf("expected no output without history")
	}
}

func reportDataset() model.Dataset {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	attempts := func(pattern string) []model.Attempt {
		out := make([]model.Attempt, len(pattern))
		for i, c := range pattern {
			out[i] = model.Attempt{Timestamp: base.Add(time.Duration(i) * time.Hour), Correct: c == 'T', TimeSpentMs: 1200}
		}
		return out
	}
	ds := model.Dataset{
		Words: []model.WordPerformanceRecord{
			{WordID: "w1", English: "cat", Italian: "gatto", Chapter: "1", Attempts: attempts("TTTT"), Learned: true},
			{WordID: "w2", English: "why", Italian: "perché", Chapter: "1", Attempts: attempts("FFTF")},
			{WordID: "w3", English: "city", Italian: "città", Chapter: "2", Attempts: attempts("TFTT")},
			{WordID: "w4", English: "dog", Italian: "cane"},
		},
	}
	for i, acc := range []int{50, 55, 60, 70, 75, 80} {
		ds.TestHistory = append(ds.TestHistory, model.TestSessionRecord{
			ID:             int64(i + 1),
			Timestamp:      base.AddDate(0, 0, i).Format(time.RFC3339),
			TotalWords:     20,
			CorrectWords:   acc / 5,
			IncorrectWords: 20 - acc/5,
			HintsUsed:      2,
			DurationMs:     60000,
			PerChapter: map[string]model.ChapterBreakdown{
				"1": {Correct: acc / 10, Incorrect: 10 - acc/10},
				"2": {Correct: acc/5 - acc/10, Incorrect: 10 - (acc/5 - acc/10)},
			},
		})
	}
	return ds
}

func TestRenderChapters(t *testing.T) {
	engine := analytics.NewEngine(analytics.DefaultThresholds())
	res := engine.Chapters(reportDataset())
	var buf bytes.Buffer
	if err := RenderChapters(&buf, res); err != nil {
		t.Fatalf("render chapters: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Chapters: 3 (tested 2)", "Words: 4 (tested 3)", "Completion", "no-chapter", "Top Chapters"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderChapters(&buf, engine.Chapters(model.Dataset{})); err != nil {
		t.Fatalf("render empty chapters: %v", err)
	}
	if buf.String() != "No chapters found.\n" {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}
}

func TestRenderTrends(t *testing.T) {
	engine := analytics.NewEngine(analytics.DefaultThresholds())
	res := engine.Trends(reportDataset(), []model.Goal{{Metric: analytics.MetricAccuracy, Target: 90, DeadlineDays: 30}})
	var buf bytes.Buffer
	if err := RenderTrends(&buf, res); err != nil {
		t.Fatalf("render trends: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Learning Velocity", "Sessions: 6 (window 5)", "/test)", "Projections", "7d", "Milestones", "Goal accuracy 90%", "Data: 4 words, 6 sessions, 2024-03-04 .. 2024-03-09"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderTrends(&buf, engine.Trends(model.Dataset{}, nil)); err != nil {
		t.Fatalf("render empty trends: %v", err)
	}
	if !strings.Contains(buf.String(), "No dated sessions found.") || !strings.Contains(buf.String(), "Limitations:") {
		t.Fatalf("unexpected empty trends output:\n%s", buf.String())
	}
}

func TestRenderWord(t *testing.T) {
	engine := analytics.NewEngine(analytics.DefaultThresholds())
	w, ok := engine.Word(reportDataset(), "w2")
	if !ok {
		t.Fatalf("expected word w2")
	}
	var buf bytes.Buffer
	if err := RenderWord(&buf, w); err != nil {
		t.Fatalf("render word: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"why / perché (w2)", "Chapter: 1", "Attempts: 4 (correct 1)", "Accuracy: 25%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderWordTable(&buf, "Weakest Words", WeakestWords(engine.Words(reportDataset()), 2)); err != nil {
		t.Fatalf("render word table: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[2], "why") {
		t.Fatalf("unexpected word table:\n%s", buf.String())
	}

	buf.Reset()
	if err := RenderStatusCounts(&buf, engine.Words(reportDataset())); err != nil {
		t.Fatalf("render status counts: %v", err)
	}
	if !strings.Contains(buf.String(), "consolidated") {
		t.Fatalf("unexpected status output:\n%s", buf.String())
	}
}
