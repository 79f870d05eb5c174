package analytics

import (
	"encoding/json"
	"reflect"
	"sync"
	"testing"

	"github.com/verte-zerg/vocabstats/internal/model"
)

func sampleDataset() model.Dataset {
	words := append(wordsInChapter("1", 4, "TTFTT"), wordsInChapter("2", 3, "FFTF")...)
	words = append(words, word("x", "", ""))
	words[1].Learned = true
	words[5].Difficult = true
	sessions := accuracySessions(50, 55, 60, 70, 80, 90)
	for i := range sessions {
		sessions[i].HintsUsed = 10
		sessions[i].DurationMs = int64(60000 * (i + 2))
		sessions[i].PerChapter = map[string]model.ChapterBreakdown{
			"1": {Correct: sessions[i].CorrectWords / 2, Incorrect: sessions[i].IncorrectWords / 2},
			"2": {Correct: sessions[i].CorrectWords / 2, Incorrect: sessions[i].IncorrectWords / 2},
		}
	}
	return model.Dataset{Words: words, TestHistory: sessions}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	goals := []model.Goal{{Metric: MetricAccuracy, Target: 95, DeadlineDays: 30}}
	ds := sampleDataset()
	first := engine.Analyze(ds, goals)
	second := engine.Analyze(ds, goals)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("analysis is not deterministic")
	}
	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("failed to marshal analysis: %v", err)
	}
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("serialized analysis differs between runs")
	}
}

func TestAnalyzeMatchesPartialReports(t *testing.T) {
	engine := NewEngine(DefaultThresholds())
	ds := sampleDataset()
	full := engine.Analyze(ds, nil)
	if !reflect.DeepEqual(full.Chapters, engine.Chapters(ds)) {
		t.Fatalf("chapter report differs from the combined analysis")
	}
	if !reflect.DeepEqual(full.Trends, engine.Trends(ds, nil)) {
		t.Fatalf("trends report differs from the combined analysis")
	}
	w, ok := full.Word("1-0")
	if !ok || w.Status != StatusImproving {
		t.Fatalf("unexpected word lookup: %+v %v", w, ok)
	}
	if direct, _ := engine.Word(ds, "1-0"); !reflect.DeepEqual(direct, w) {
		t.Fatalf("direct word classification differs")
	}
	if _, ok := engine.Word(ds, "missing"); ok {
		t.Fatalf("expected missing word lookup to fail")
	}
}

func TestAnalyzeTrendsReport(t *testing.T) {
	result := NewEngine(DefaultThresholds()).Trends(sampleDataset(), nil)
	if result.LearningVelocity.Direction != DirectionAccelerating {
		t.Fatalf("expected accelerating trend, got %s", result.LearningVelocity.Direction)
	}
	if len(result.FutureProjections) != 4 || len(result.Milestones) != 4 {
		t.Fatalf("unexpected projections: %d / %d", len(result.FutureProjections), len(result.Milestones))
	}
	meta := result.AnalysisMetadata
	if meta.SessionCount != 6 || meta.WordCount != 8 || meta.FirstSession == nil || meta.LastSession == nil {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if meta.Confidence != result.LearningVelocity.Confidence {
		t.Fatalf("metadata confidence should mirror the trend: %+v", meta)
	}
	speed := findCorrelation(t, result.PatternAnalysis.Correlations, MetricAccuracy, MetricSpeed)
	if speed.SampleSize != 6 {
		t.Fatalf("expected speed samples with durations, got %d", speed.SampleSize)
	}
}

func TestAnalyzeEmptyDataset(t *testing.T) {
	result := NewEngine(DefaultThresholds()).Analyze(model.Dataset{}, nil)
	if len(result.Words) != 0 || len(result.Chapters.Analysis.ProcessedData) != 0 {
		t.Fatalf("expected empty word and chapter reports: %+v", result)
	}
	trends := result.Trends
	if trends.LearningVelocity.Confidence != 0 || trends.LearningVelocity.CurrentVelocity != 0 {
		t.Fatalf("expected zero trend: %+v", trends.LearningVelocity)
	}
	if len(trends.FutureProjections) != 4 {
		t.Fatalf("expected projections even without data, got %d", len(trends.FutureProjections))
	}
	if len(trends.PatternAnalysis.Insights) != 1 || trends.PatternAnalysis.Insights[0].ID != "limited-data" {
		t.Fatalf("expected limited-data insight: %+v", trends.PatternAnalysis.Insights)
	}
	if len(trends.AnalysisMetadata.Limitations) == 0 {
		t.Fatalf("expected limitations to be reported")
	}
	if trends.AnalysisMetadata.FirstSession != nil {
		t.Fatalf("expected no first session")
	}
}

func TestFingerprintChanges(t *testing.T) {
	ds := sampleDataset()
	base := Fingerprint(ds)
	if base != Fingerprint(sampleDataset()) {
		t.Fatalf("fingerprint is not stable")
	}

	withAttempt := sampleDataset()
	withAttempt.Words[0].Attempts = append(withAttempt.Words[0].Attempts, model.Attempt{Correct: true})
	if Fingerprint(withAttempt) == base {
		t.Fatalf("expected fingerprint to change after an attempt")
	}

	withSession := sampleDataset()
	withSession.TestHistory = append(withSession.TestHistory, accuracySession(6, 95))
	if Fingerprint(withSession) == base {
		t.Fatalf("expected fingerprint to change after a session")
	}

	learned := sampleDataset()
	learned.Words[2].Learned = true
	if Fingerprint(learned) == base {
		t.Fatalf("expected fingerprint to change after marking a word learned")
	}
}

func TestMemoReusesLatestAnalysis(t *testing.T) {
	memo := NewMemo(NewEngine(DefaultThresholds()))
	ds := sampleDataset()

	if _, ok := memo.Peek(ds, nil); ok {
		t.Fatalf("expected empty memo")
	}
	first, cached := memo.Get(ds, nil)
	if cached {
		t.Fatalf("expected first call to compute")
	}
	if peeked, ok := memo.Peek(ds, nil); !ok || peeked != first {
		t.Fatalf("expected peek to return the cached analysis")
	}
	second, cached := memo.Get(ds, nil)
	if !cached || second != first {
		t.Fatalf("expected cached analysis on second call")
	}

	ds.TestHistory = append(ds.TestHistory, accuracySession(6, 95))
	third, cached := memo.Get(ds, nil)
	if cached || third == first {
		t.Fatalf("expected recompute after new session")
	}
	if memo.Key() == "" || third.Fingerprint == first.Fingerprint {
		t.Fatalf("expected a new fingerprint")
	}

	withGoal, cached := memo.Get(ds, []model.Goal{{Target: 99}})
	if cached || len(withGoal.Trends.RecommendationSystem.GoalBased) != 1 {
		t.Fatalf("expected goals to be part of the cache key")
	}

	memo.Invalidate()
	if memo.Key() != "" {
		t.Fatalf("expected empty memo after invalidate")
	}
	if _, cached := memo.Get(ds, nil); cached {
		t.Fatalf("expected recompute after invalidate")
	}
}

func TestMemoConcurrentGet(t *testing.T) {
	memo := NewMemo(NewEngine(DefaultThresholds()))
	ds := sampleDataset()
	want := Fingerprint(ds)

	var wg sync.WaitGroup
	results := make([]*Analysis, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = memo.Get(ds, nil)
		}(i)
	}
	wg.Wait()
	for i, r := range results {
		if r == nil || r.Fingerprint != want {
			t.Fatalf("result %d has unexpected fingerprint", i)
		}
	}
	if _, cached := memo.Get(ds, nil); !cached {
		t.Fatalf("expected cached result after concurrent calls")
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("default thresholds should be valid: %v", err)
	}
	bad := DefaultThresholds()
	bad.CriticalAccuracy = 80
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error when critical accuracy exceeds improving accuracy")
	}
	bad = DefaultThresholds()
	bad.Horizons = []int{3}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for short horizon")
	}
	bad = DefaultThresholds()
	bad.MilestoneTargets = []float64{120}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for milestone outside 0-100")
	}
}
