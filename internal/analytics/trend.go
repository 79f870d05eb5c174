package analytics

import (
	"math"

	"github.com/verte-zerg/vocabstats/internal/model"
)

// Direction classifies the acceleration of learning.
type Direction string

// Trend directions.
const (
	DirectionAccelerating Direction = "accelerating"
	DirectionDecelerating Direction = "decelerating"
	DirectionSteady       Direction = "steady"
)

// TrendSnapshot captures learning velocity over sliding session windows.
//
// CurrentVelocity is the change in mean accuracy between the previous and the
// recent window, and Acceleration is the change of that value between adjacent
// windows. VelocityPerTest spreads CurrentVelocity over the window size and is
// the rate projections extrapolate with.
type TrendSnapshot struct {
	CurrentVelocity  float64   `json:"currentVelocity"`
	VelocityPerTest  float64   `json:"velocityPerTest"`
	Acceleration     float64   `json:"acceleration"`
	Direction        Direction `json:"direction"`
	Confidence       float64   `json:"confidence"`
	StabilityFactor  float64   `json:"stabilityFactor"`
	SessionCount     int       `json:"sessionCount"`
	WindowSize       int       `json:"windowSize"`
	EarlyMean        float64   `json:"earlyMean"`
	PreviousMean     float64   `json:"previousMean"`
	RecentMean       float64   `json:"recentMean"`
	TotalImprovement float64   `json:"totalImprovement"`
	CadenceDays      float64   `json:"cadenceDays"`
}

// sessionWindows holds the four accuracy windows derived from a history.
type sessionWindows struct {
	size     int
	early    []float64
	prior    []float64
	previous []float64
	recent   []float64
}

// splitWindows cuts the chronological accuracies into early, prior, previous
// and recent windows of up to window sessions each. Recent is the tail. Each
// older window ends where the next one starts; when the history is too short
// for that it ends one session earlier instead, so windows may overlap. A
// window with nothing left before it repeats the one after it.
func splitWindows(acc []float64, window int) sessionWindows {
	n := len(acc)
	k := max(min(window, n), 1)
	if n == 0 {
		return sessionWindows{size: k}
	}
	w := sessionWindows{
		size:   k,
		early:  acc[:k],
		recent: acc[n-k:],
	}
	w.previous, w.prior = w.recent, w.recent
	prevEnd := stepBack(n, k)
	if prevEnd < 1 {
		return w
	}
	w.previous = acc[max(prevEnd-k, 0):prevEnd]
	w.prior = w.previous
	if priorEnd := stepBack(prevEnd, k); priorEnd >= 1 {
		w.prior = acc[max(priorEnd-k, 0):priorEnd]
	}
	return w
}

// stepBack returns where the window before one ending at end stops.
func stepBack(end, k int) int {
	if end-k >= 1 {
		return end - k
	}
	return end - 1
}

// AnalyzeTrend computes velocity, acceleration and stability over the dated
// sessions, in timestamp order.
func AnalyzeTrend(sessions []model.TestSessionRecord, th Thresholds) TrendSnapshot {
	points, _ := prepareSessions(sessions)
	return analyzeTimedTrend(timedSessions(points), th)
}

func analyzeTimedTrend(timed []sessionPoint, th Thresholds) TrendSnapshot {
	n := len(timed)
	snap := TrendSnapshot{
		Direction:    DirectionSteady,
		SessionCount: n,
		CadenceDays:  cadenceDays(timed),
	}
	acc := sessionAccuracies(timed)
	w := splitWindows(acc, th.VelocityWindow)
	snap.WindowSize = w.size
	if n == 0 {
		return snap
	}

	snap.EarlyMean = round1(mean(w.early))
	snap.RecentMean = round1(mean(w.recent))
	snap.PreviousMean = round1(mean(w.previous))
	snap.StabilityFactor = round3(clamp01(1 - stddev(w.recent)/th.StabilityScale))
	if n < 2 {
		return snap
	}

	velocity := mean(w.recent) - mean(w.previous)
	prevVelocity := mean(w.previous) - mean(w.prior)
	snap.CurrentVelocity = round3(velocity)
	snap.VelocityPerTest = round3(velocity / float64(w.size))
	snap.Acceleration = round3(velocity - prevVelocity)
	snap.TotalImprovement = round1(mean(w.recent) - mean(w.early))

	switch {
	case snap.Acceleration > th.DirectionBand:
		snap.Direction = DirectionAccelerating
	case snap.Acceleration < -th.DirectionBand:
		snap.Direction = DirectionDecelerating
	}

	sessions := n
	if th.ConfidenceSessionCap > 0 && sessions > th.ConfidenceSessionCap {
		sessions = th.ConfidenceSessionCap
	}
	conf := th.BaseConfidence + th.ConfidencePerSession*float64(sessions)*snap.StabilityFactor
	snap.Confidence = round1(math.Min(100, conf))
	return snap
}

// cadenceDays is the mean gap between consecutive sessions, or 1 when undefined.
func cadenceDays(timed []sessionPoint) float64 {
	if len(timed) < 2 {
		return 1
	}
	span := timed[len(timed)-1].at.Sub(timed[0].at).Hours() / 24
	gap := round3(span / float64(len(timed)-1))
	if gap <= 0 {
		return 1
	}
	return gap
}
