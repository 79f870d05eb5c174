// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/vocabstats/internal/analytics"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Thresholds ThresholdsConfig `toml:"thresholds"`
	Projection ProjectionConfig `toml:"projection"`
	Goal       GoalConfig       `toml:"goal"`
	Cache      CacheConfig      `toml:"cache"`
	Log        LogConfig        `toml:"log"`
}

// ThresholdsConfig overrides the classification and insight thresholds.
type ThresholdsConfig struct {
	MinAttempts        *int     `toml:"min-attempts"`
	ConsolidatedStreak *int     `toml:"consolidated-streak"`
	CriticalAccuracy   *int     `toml:"critical-accuracy"`
	ImprovingAccuracy  *int     `toml:"improving-accuracy"`
	RecentAttempts     *int     `toml:"recent-attempts"`
	TrendBand          *int     `toml:"trend-band"`
	HistoryLimit       *int     `toml:"history-limit"`
	StrugglingAccuracy *float64 `toml:"struggling-accuracy"`
	TopChapters        *int     `toml:"top-chapters"`
	VelocityWindow     *int     `toml:"velocity-window"`
	HintsInsight       *float64 `toml:"hints-insight"`
	DifficultyInsight  *float64 `toml:"difficulty-insight"`
	RiskAccuracy       *float64 `toml:"risk-accuracy"`
	HighAccuracy       *float64 `toml:"high-accuracy"`
	LimitedData        *int     `toml:"limited-data"`
}

// ProjectionConfig maps projection settings.
type ProjectionConfig struct {
	Horizons      []int     `toml:"horizons"`
	Decay         *float64  `toml:"decay"`
	MinConfidence *float64  `toml:"min-confidence"`
	Milestones    []float64 `toml:"milestones"`
}

// GoalConfig is the default accuracy goal used by the trends report.
type GoalConfig struct {
	Target *float64 `toml:"target"`
	Days   *int     `toml:"days"`
}

// CacheConfig maps result cache settings.
type CacheConfig struct {
	Backend *string `toml:"backend"`
	Addr    *string `toml:"addr"`
	Size    *int    `toml:"size"`
	TTL     *string `toml:"ttl"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// CacheSettings is the resolved cache configuration.
type CacheSettings struct {
	Backend string
	Addr    string
	Size    int
	TTL     time.Duration
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ApplyThresholds overlays the configured thresholds and projection settings on base
// and validates the result.
func (c FileConfig) ApplyThresholds(base analytics.Thresholds) (analytics.Thresholds, error) {
	th := base
	t := c.Thresholds
	setInt(&th.MinAttemptsForStatus, t.MinAttempts)
	setInt(&th.ConsolidatedStreak, t.ConsolidatedStreak)
	setInt(&th.CriticalAccuracy, t.CriticalAccuracy)
	setInt(&th.ImprovingAccuracy, t.ImprovingAccuracy)
	setInt(&th.RecentAttempts, t.RecentAttempts)
	setInt(&th.TrendBand, t.TrendBand)
	setInt(&th.HistoryLimit, t.HistoryLimit)
	setFloat(&th.StrugglingAccuracy, t.StrugglingAccuracy)
	setInt(&th.TopChapters, t.TopChapters)
	setInt(&th.VelocityWindow, t.VelocityWindow)
	setFloat(&th.HintsInsight, t.HintsInsight)
	setFloat(&th.DifficultyInsight, t.DifficultyInsight)
	setFloat(&th.RiskAccuracy, t.RiskAccuracy)
	setFloat(&th.HighAccuracy, t.HighAccuracy)
	setInt(&th.LimitedDataSessions, t.LimitedData)

	p := c.Projection
	if len(p.Horizons) > 0 {
		th.Horizons = append([]int(nil), p.Horizons...)
	}
	if len(p.Milestones) > 0 {
		th.MilestoneTargets = append([]float64(nil), p.Milestones...)
	}
	setFloat(&th.HorizonDecay, p.Decay)
	setFloat(&th.MinProjectionConfidence, p.MinConfidence)

	if err := th.Validate(); err != nil {
		return analytics.Thresholds{}, fmt.Errorf("invalid thresholds: %w", err)
	}
	return th, nil
}

// ResolveCache applies defaults to the cache section.
func (c FileConfig) ResolveCache() (CacheSettings, error) {
	out := CacheSettings{
		Backend: CacheMemory,
		Addr:    "localhost:6379",
		Size:    16,
		TTL:     24 * time.Hour,
	}
	cc := c.Cache
	if cc.Backend != nil {
		out.Backend = *cc.Backend
	}
	switch out.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return CacheSettings{}, fmt.Errorf("unknown cache backend %q", out.Backend)
	}
	if cc.Addr != nil && *cc.Addr != "" {
		out.Addr = *cc.Addr
	}
	if cc.Size != nil {
		if *cc.Size < 1 {
			return CacheSettings{}, fmt.Errorf("cache size must be >= 1")
		}
		out.Size = *cc.Size
	}
	if cc.TTL != nil {
		ttl, err := time.ParseDuration(*cc.TTL)
		if err != nil {
			return CacheSettings{}, fmt.Errorf("failed to parse cache ttl: %w", err)
		}
		out.TTL = ttl
	}
	return out, nil
}

// LogLevel returns the configured log level or "info".
func (c FileConfig) LogLevel() string {
	if c.Log.Level != nil && *c.Log.Level != "" {
		return *c.Log.Level
	}
	return "info"
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
