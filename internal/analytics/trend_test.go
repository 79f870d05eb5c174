package analytics

import (
	"testing"

	"github.com/verte-zerg/vocabstats/internal/model"
)

func trendOf(sessions []model.TestSessionRecord) TrendSnapshot {
	return AnalyzeTrend(sessions, DefaultThresholds())
}

func TestAnalyzeTrendAccelerating(t *testing.T) {
	snap := trendOf(accuracySessions(50, 55, 60, 70, 80, 90))
	if snap.WindowSize != 5 {
		t.Fatalf("expected window 5, got %d", snap.WindowSize)
	}
	if snap.CurrentVelocity <= 0 {
		t.Fatalf("expected positive velocity, got %v", snap.CurrentVelocity)
	}
	if !approx(snap.CurrentVelocity, 21) || !approx(snap.VelocityPerTest, 4.2) || !approx(snap.Acceleration, 21) {
		t.Fatalf("expected velocity 21 (4.2/test), acceleration 21: %+v", snap)
	}
	if snap.Direction != DirectionAccelerating {
		t.Fatalf("expected accelerating, got %s", snap.Direction)
	}
	if !approx(snap.StabilityFactor, 0.744) {
		t.Fatalf("expected stability 0.744, got %v", snap.StabilityFactor)
	}
	if !approx(snap.Confidence, 84.6) {
		t.Fatalf("expected confidence 84.6, got %v", snap.Confidence)
	}
	if !approx(snap.RecentMean, 71) || !approx(snap.EarlyMean, 63) || !approx(snap.TotalImprovement, 8) {
		t.Fatalf("unexpected means: %+v", snap)
	}
	if !approx(snap.CadenceDays, 1) {
		t.Fatalf("expected cadence 1 day, got %v", snap.CadenceDays)
	}
}

func TestAnalyzeTrendWindowDifference(t *testing.T) {
	accs := []int{60, 60, 60, 60, 60, 60, 60, 60, 60, 60, 63, 63, 63, 63, 63}
	snap := trendOf(accuracySessions(accs...))
	if snap.WindowSize != 5 {
		t.Fatalf("expected window 5, got %d", snap.WindowSize)
	}
	if !approx(snap.CurrentVelocity, 3) || !approx(snap.Acceleration, 3) {
		t.Fatalf("expected velocity 3 and acceleration 3: %+v", snap)
	}
	if !approx(snap.VelocityPerTest, 0.6) {
		t.Fatalf("expected 0.6 per test, got %v", snap.VelocityPerTest)
	}
	if snap.Direction != DirectionAccelerating {
		t.Fatalf("expected accelerating, got %s", snap.Direction)
	}
	if !approx(snap.PreviousMean, 60) || !approx(snap.RecentMean, 63) {
		t.Fatalf("unexpected window means: %+v", snap)
	}
}

func TestAnalyzeTrendDecelerating(t *testing.T) {
	snap := trendOf(accuracySessions(90, 90, 90, 90, 90, 90, 80, 70, 60, 50))
	if !approx(snap.CurrentVelocity, -20) || !approx(snap.VelocityPerTest, -4) {
		t.Fatalf("expected velocity -20 (-4/test), got %+v", snap)
	}
	if snap.Direction != DirectionDecelerating {
		t.Fatalf("expected decelerating, got %s", snap.Direction)
	}
}

func TestAnalyzeTrendSteady(t *testing.T) {
	accs := make([]int, 10)
	for i := range accs {
		accs[i] = 70
	}
	snap := trendOf(accuracySessions(accs...))
	if snap.CurrentVelocity != 0 || snap.Acceleration != 0 {
		t.Fatalf("expected zero velocity and acceleration: %+v", snap)
	}
	if snap.Direction != DirectionSteady || snap.StabilityFactor != 1 {
		t.Fatalf("unexpected steady snapshot: %+v", snap)
	}
	if snap.Confidence != 100 {
		t.Fatalf("expected confidence 100, got %v", snap.Confidence)
	}
}

func TestAnalyzeTrendShortHistory(t *testing.T) {
	for _, sessions := range [][]model.TestSessionRecord{nil, accuracySessions(80)} {
		snap := trendOf(sessions)
		if snap.CurrentVelocity != 0 || snap.Confidence != 0 {
			t.Fatalf("expected zero velocity and confidence for %d sessions: %+v", len(sessions), snap)
		}
		if snap.Direction != DirectionSteady {
			t.Fatalf("expected steady direction, got %s", snap.Direction)
		}
	}
}

func TestAnalyzeTrendOrdersByTimestamp(t *testing.T) {
	sessions := accuracySessions(50, 55, 60, 70, 80, 90)
	shuffled := []model.TestSessionRecord{sessions[3], sessions[0], sessions[5], sessions[1], sessions[4], sessions[2]}
	if got, want := trendOf(shuffled), trendOf(sessions); got != want {
		t.Fatalf("trend depends on input order: %+v vs %+v", got, want)
	}
}

func TestAnalyzeTrendUnstable(t *testing.T) {
	snap := trendOf(accuracySessions(0, 100, 0, 100, 0, 100, 0, 100, 0, 100))
	if snap.StabilityFactor >= 0.1 {
		t.Fatalf("expected low stability, got %v", snap.StabilityFactor)
	}
	if snap.Confidence >= 50 {
		t.Fatalf("expected reduced confidence, got %v", snap.Confidence)
	}
}

func TestSplitWindows(t *testing.T) {
	acc := make([]float64, 15)
	for i := range acc {
		acc[i] = float64(i)
	}
	w := splitWindows(acc, 5)
	if w.size != 5 {
		t.Fatalf("expected window 5, got %d", w.size)
	}
	if w.recent[0] != 10 || w.previous[0] != 5 || w.prior[0] != 0 {
		t.Fatalf("unexpected windows: %+v", w)
	}

	six := splitWindows(acc[:6], 5)
	if six.size != 5 || six.recent[0] != 1 || len(six.previous) != 1 || six.previous[0] != 0 {
		t.Fatalf("unexpected six-session windows: %+v", six)
	}
	if &six.prior[0] != &six.previous[0] {
		t.Fatalf("expected prior to repeat previous")
	}

	short := splitWindows(acc[:4], 5)
	if short.size != 4 || len(short.recent) != 4 || len(short.previous) != 3 || len(short.prior) != 2 {
		t.Fatalf("unexpected short windows: %+v", short)
	}

	single := splitWindows(acc[:1], 5)
	if single.size != 1 || &single.previous[0] != &single.recent[0] {
		t.Fatalf("expected one session to fill every window: %+v", single)
	}
}

func TestCadenceDays(t *testing.T) {
	sessions := []model.TestSessionRecord{accuracySession(0, 50), accuracySession(2, 60), accuracySession(4, 70)}
	if snap := trendOf(sessions); !approx(snap.CadenceDays, 2) {
		t.Fatalf("expected cadence 2, got %v", snap.CadenceDays)
	}
	same := []model.TestSessionRecord{accuracySession(0, 50), accuracySession(0, 60)}
	if snap := trendOf(same); snap.CadenceDays != 1 {
		t.Fatalf("expected fallback cadence 1, got %v", snap.CadenceDays)
	}
}

func TestSessionHistoryOrdersDatedSessions(t *testing.T) {
	sessions := accuracySessions(60, 70, 80)
	sessions[0], sessions[2] = sessions[2], sessions[0]
	sessions = append(sessions,
		model.TestSessionRecord{ID: 9, Timestamp: "yesterday", CorrectWords: 5, IncorrectWords: 5},
		model.TestSessionRecord{ID: 10},
	)
	sessions[1].HintsUsed = 4

	got := SessionHistory(sessions)
	if len(got) != 3 {
		t.Fatalf("expected 3 dated sessions, got %d", len(got))
	}
	want := []float64{60, 70, 80}
	for i, p := range got {
		if p.Accuracy != want[i] {
			t.Fatalf("session %d: expected accuracy %.0f, got %.1f", i, want[i], p.Accuracy)
		}
	}
	if got[1].EstimatedHints != 4 || got[0].SessionID != 1 {
		t.Fatalf("unexpected history: %+v", got)
	}
}
