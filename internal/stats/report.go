package stats

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/verte-zerg/vocabstats/internal/analytics"
	"github.com/verte-zerg/vocabstats/internal/cache"
	"github.com/verte-zerg/vocabstats/internal/logging"
	"github.com/verte-zerg/vocabstats/internal/model"
	"github.com/verte-zerg/vocabstats/internal/store"
)

// Where a report's analysis came from.
const (
	SourceComputed = "computed"
	SourceMemo     = "memo"
	SourceCache    = "cache"
)

// Report contains the loaded dataset and its analysis.
type Report struct {
	Dataset  model.Dataset
	Analysis *analytics.Analysis
	History  []analytics.TrendPoint
	Source   string
}

// Builder loads datasets from the store and analyzes them, consulting the
// in-process memo first and the result cache second.
type Builder struct {
	Store  *store.Store
	Memo   *analytics.Memo
	Engine *analytics.Engine
	Cache  cache.Cache
	Logger *zap.Logger
}

// NewBuilder wires a builder around one engine.
func NewBuilder(st *store.Store, engine *analytics.Engine, c cache.Cache, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &Builder{
		Store:  st,
		Memo:   analytics.NewMemo(engine),
		Engine: engine,
		Cache:  c,
		Logger: logger,
	}
}

// Build loads and prepares data for report rendering.
func (b *Builder) Build(ctx context.Context, cfg model.ReportConfig, goals []model.Goal) (Report, error) {
	ds, err := b.Store.LoadDataset(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		Dataset: ds,
		History: analytics.SessionHistory(ds.TestHistory),
	}
	fingerprint := analytics.Fingerprint(ds)
	log := b.Logger.With(zap.String("fingerprint", fingerprint))

	if a, hit := b.Memo.Peek(ds, goals); hit {
		log.Debug("analysis served from memo")
		report.Analysis, report.Source = a, SourceMemo
		return report, nil
	}

	key := cache.Key("analysis", fingerprint, b.variant(goals))
	var cached analytics.Analysis
	hit, err := cache.GetJSON(ctx, b.Cache, key, &cached)
	switch {
	case err != nil:
		log.Warn("result cache read failed", zap.Error(err))
	case hit:
		log.Debug("analysis served from result cache", zap.String("key", key))
		report.Analysis, report.Source = &cached, SourceCache
		logging.DataQuality(log, cached.Chapters.DataQuality)
		return report, nil
	}

	a, _ := b.Memo.Get(ds, goals)
	report.Analysis, report.Source = a, SourceComputed
	logging.DataQuality(log, a.Chapters.DataQuality)
	if err := cache.SetJSON(ctx, b.Cache, key, a); err != nil {
		log.Warn("result cache write failed", zap.Error(err))
	}
	return report, nil
}

// variant hashes everything besides the dataset that shapes the result.
func (b *Builder) variant(goals []model.Goal) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%+v|%+v", b.Engine.Thresholds(), goals)))
}
