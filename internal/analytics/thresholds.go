package analytics

import "fmt"

// Thresholds collects every tunable constant used by the classification,
// aggregation, trend, projection and insight rules.
type Thresholds struct {
	// Word classification.
	MinAttemptsForStatus int
	ConsolidatedStreak   int
	CriticalAccuracy     int
	ImprovingAccuracy    int
	RecentAttempts       int
	TrendBand            int

	// Chapter rollups.
	HistoryLimit       int
	StrugglingAccuracy float64
	TopChapters        int

	// Trend and confidence.
	VelocityWindow       int
	DirectionBand        float64
	StabilityScale       float64
	BaseConfidence       float64
	ConfidencePerSession float64
	ConfidenceSessionCap int

	// Projections.
	Horizons                []int
	HorizonDecay            float64
	MinProjectionConfidence float64
	MilestoneTargets        []float64

	// Insight rules.
	HintsInsight            float64
	DifficultyInsight       float64
	RiskAccuracy            float64
	CriticalRateInsight     float64
	StabilityInsight        float64
	VelocityInsight         float64
	HighAccuracy            float64
	LimitedDataSessions     int
	TemporalStrengthInsight float64
	MinBucketSessions       int
}

// DefaultThresholds returns the stock threshold table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAttemptsForStatus: 3,
		ConsolidatedStreak:   3,
		CriticalAccuracy:     30,
		ImprovingAccuracy:    70,
		RecentAttempts:       5,
		TrendBand:            5,

		HistoryLimit:       15,
		StrugglingAccuracy: 60,
		TopChapters:        3,

		VelocityWindow:       5,
		DirectionBand:        1,
		StabilityScale:       50,
		BaseConfidence:       40,
		ConfidencePerSession: 10,
		ConfidenceSessionCap: 6,

		Horizons:                []int{7, 30, 60, 90},
		HorizonDecay:            0.15,
		MinProjectionConfidence: 10,
		MilestoneTargets:        []float64{70, 80, 90, 95},

		HintsInsight:            30,
		DifficultyInsight:       50,
		RiskAccuracy:            60,
		CriticalRateInsight:     20,
		StabilityInsight:        0.5,
		VelocityInsight:         1,
		HighAccuracy:            85,
		LimitedDataSessions:     5,
		TemporalStrengthInsight: 0.05,
		MinBucketSessions:       2,
	}
}

// Validate reports threshold tables that would make the rules contradict each other.
func (t Thresholds) Validate() error {
	if t.MinAttemptsForStatus < 1 {
		return fmt.Errorf("min attempts for status must be >= 1")
	}
	if t.ConsolidatedStreak < 1 {
		return fmt.Errorf("consolidated streak must be >= 1")
	}
	if t.CriticalAccuracy < 0 || t.ImprovingAccuracy > 100 || t.CriticalAccuracy >= t.ImprovingAccuracy {
		return fmt.Errorf("critical accuracy (%d) must be below improving accuracy (%d) within 0-100", t.CriticalAccuracy, t.ImprovingAccuracy)
	}
	if t.RecentAttempts < 1 {
		return fmt.Errorf("recent attempts must be >= 1")
	}
	if t.TrendBand < 0 {
		return fmt.Errorf("trend band must be >= 0")
	}
	if t.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be >= 1")
	}
	if t.VelocityWindow < 1 {
		return fmt.Errorf("velocity window must be >= 1")
	}
	if t.StabilityScale <= 0 {
		return fmt.Errorf("stability scale must be > 0")
	}
	if len(t.Horizons) == 0 {
		return fmt.Errorf("at least one projection horizon is required")
	}
	for _, h := range t.Horizons {
		if h < 7 {
			return fmt.Errorf("projection horizon %d must be >= 7 days", h)
		}
	}
	if t.HorizonDecay < 0 {
		return fmt.Errorf("horizon decay must be >= 0")
	}
	for _, target := range t.MilestoneTargets {
		if target <= 0 || target > 100 {
			return fmt.Errorf("milestone target %.1f must be within (0, 100]", target)
		}
	}
	return nil
}
