// Package main provides the CLI entrypoint for vocabstats.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/vocabstats/internal/analytics"
	"github.com/verte-zerg/vocabstats/internal/cache"
	"github.com/verte-zerg/vocabstats/internal/config"
	"github.com/verte-zerg/vocabstats/internal/importer"
	"github.com/verte-zerg/vocabstats/internal/logging"
	"github.com/verte-zerg/vocabstats/internal/model"
	"github.com/verte-zerg/vocabstats/internal/stats"
	"github.com/verte-zerg/vocabstats/internal/statsui"
	"github.com/verte-zerg/vocabstats/internal/store"
)

const (
	defaultCurveWindow = 5
	defaultWeakTop     = 10
)

type options struct {
	configPath string
	dbPath     string
	logLevel   string
	jsonOut    bool
	since      string
	last       int
	chapter    string

	goal        float64
	goalDays    int
	curves      bool
	scaled      bool
	curveWindow int
	weakTop     int
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "vocabstats",
		Short:         "Vocabulary learning analytics",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/vocabstats/config.toml)")
	pf.StringVar(&opts.dbPath, "db", "", "database file (default: $XDG_DATA_HOME/vocabstats/vocabstats.db)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&opts.jsonOut, "json", false, "print reports as JSON")
	pf.StringVar(&opts.since, "since", "", "only sessions on or after this date (YYYY-MM-DD)")
	pf.IntVar(&opts.last, "last", 0, "limit to last N sessions")
	pf.StringVar(&opts.chapter, "chapter", "", "chapter filter (use no-chapter for unassigned words)")

	rootCmd.AddCommand(newImportCmd(opts))
	rootCmd.AddCommand(newChaptersCmd(opts))
	rootCmd.AddCommand(newTrendsCmd(opts))
	rootCmd.AddCommand(newWordCmd(opts))
	rootCmd.AddCommand(newUICmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// app holds everything a report command needs.
type app struct {
	opts    *options
	fileCfg config.FileConfig
	logger  *zap.Logger
	store   *store.Store
	cache   cache.Cache
	builder *stats.Builder
	report  model.ReportConfig
}

func (o *options) resolvedConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.DefaultConfigPath()
}

func (o *options) resolvedDBPath() string {
	if o.dbPath != "" {
		return o.dbPath
	}
	return config.DefaultDBPath()
}

func loadFileConfig(cmd *cobra.Command, opts *options) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(opts.resolvedConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	level := fileCfg.LogLevel()
	applyStringConfig(cmd, "log-level", &opts.logLevel, &level)
	return fileCfg, nil
}

func openApp(ctx context.Context, cmd *cobra.Command, opts *options) (*app, error) {
	fileCfg, err := loadFileConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	reportCfg, err := opts.reportConfig()
	if err != nil {
		return nil, err
	}
	th, err := fileCfg.ApplyThresholds(analytics.DefaultThresholds())
	if err != nil {
		return nil, err
	}
	cacheCfg, err := fileCfg.ResolveCache()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(opts.logLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(opts.resolvedDBPath())
	if err != nil {
		_ = logging.Sync(logger)
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	c, err := cache.New(ctx, cacheCfg)
	if err != nil {
		logger.Warn("result cache unavailable, continuing without it",
			zap.String("backend", cacheCfg.Backend), zap.Error(err))
		c = cache.Noop{}
	}

	return &app{
		opts:    opts,
		fileCfg: fileCfg,
		logger:  logger,
		store:   st,
		cache:   c,
		builder: stats.NewBuilder(st, analytics.NewEngine(th), c, logger),
		report:  reportCfg,
	}, nil
}

func (a *app) Close() {
	if cerr := a.cache.Close(); cerr != nil {
		a.logger.Warn("failed to close cache", zap.Error(cerr))
	}
	if cerr := a.store.Close(); cerr != nil {
		a.logger.Warn("failed to close db", zap.Error(cerr))
	}
	if err := logging.Sync(a.logger); err != nil {
		logErrf("failed to flush log: %v\n", err)
	}
}

func (o *options) reportConfig() (model.ReportConfig, error) {
	cfg := model.ReportConfig{
		Last:    o.last,
		Chapter: strings.TrimSpace(o.chapter),
	}
	if o.last < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	if o.since != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, o.since, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	return cfg, nil
}

// goals resolves the accuracy goal from flags, falling back to the config file.
func (a *app) goals(cmd *cobra.Command) ([]model.Goal, error) {
	applyFloatConfig(cmd, "goal", &a.opts.goal, a.fileCfg.Goal.Target)
	applyIntConfig(cmd, "goal-days", &a.opts.goalDays, a.fileCfg.Goal.Days)
	if a.opts.goal <= 0 {
		return nil, nil
	}
	if a.opts.goal > 100 {
		return nil, fmt.Errorf("--goal must be between 0 and 100")
	}
	if a.opts.goalDays < 0 {
		return nil, fmt.Errorf("--goal-days must be >= 0")
	}
	return []model.Goal{{
		Metric:       analytics.MetricAccuracy,
		Target:       a.opts.goal,
		DeadlineDays: a.opts.goalDays,
	}}, nil
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import words and test history from JSON, XLSX or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportCmd(cmd, opts, args[0])
		},
	}
}

func runImportCmd(cmd *cobra.Command, opts *options, path string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := importer.Load(path)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}
	for _, w := range res.Warnings {
		a.logger.Warn("import repair", zap.String("detail", w))
	}
	if res.GeneratedIDs > 0 {
		a.logger.Info("generated ids for words without one", zap.Int("count", res.GeneratedIDs))
	}

	summary, err := a.store.ImportDataset(ctx, res.Dataset)
	if err != nil {
		return err
	}
	a.logger.Info("import finished",
		zap.String("file", filepath.Base(path)),
		zap.Int("words", summary.Words),
		zap.Int("attempts", summary.Attempts),
		zap.Int("sessions", summary.Sessions),
	)
	if opts.jsonOut {
		return writeJSON(cmd.OutOrStdout(), summary)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d words, %d attempts, %d sessions\n",
		summary.Words, summary.Attempts, summary.Sessions)
	return err
}

func newChaptersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters",
		Short: "Show chapter analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChaptersCmd(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.weakTop, "weak-top", defaultWeakTop, "number of weakest words to list")
	return cmd
}

func runChaptersCmd(cmd *cobra.Command, opts *options) error {
	a, err := openApp(cmd.Context(), cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.builder.Build(cmd.Context(), a.report, nil)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.jsonOut {
		return writeJSON(out, report.Analysis.Chapters)
	}
	if err := stats.RenderChapters(out, report.Analysis.Chapters); err != nil {
		return err
	}
	if opts.weakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if opts.weakTop == 0 {
		return nil
	}
	return stats.RenderWordTable(out, "Weakest Words", stats.WeakestWords(report.Analysis.Words, opts.weakTop))
}

func newTrendsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show learning velocity, projections and recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrendsCmd(cmd, opts)
		},
	}
	cmd.Flags().Float64Var(&opts.goal, "goal", 0, "target accuracy percentage")
	cmd.Flags().IntVar(&opts.goalDays, "goal-days", 0, "deadline for the goal in days")
	cmd.Flags().BoolVar(&opts.curves, "curves", false, "plot accuracy and hint curves")
	cmd.Flags().IntVar(&opts.curveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&opts.scaled, "scaled", false, "scale each curve to its own min/max")
	return cmd
}

func runTrendsCmd(cmd *cobra.Command, opts *options) error {
	a, err := openApp(cmd.Context(), cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	goals, err := a.goals(cmd)
	if err != nil {
		return err
	}
	if opts.curveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	report, err := a.builder.Build(cmd.Context(), a.report, goals)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.jsonOut {
		return writeJSON(out, report.Analysis.Trends)
	}
	if err := stats.RenderTrends(out, report.Analysis.Trends); err != nil {
		return err
	}
	if !opts.curves {
		return nil
	}
	plot := stats.PlotOptions{
		Width:  stats.PlotWidthFor(stats.TerminalWidth()),
		Scaled: opts.scaled,
	}
	return stats.RenderCurves(out, report.History, opts.curveWindow, plot)
}

func newWordCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "word <id>",
		Short: "Show the analysis of one word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWordCmd(cmd, opts, args[0])
		},
	}
}

func runWordCmd(cmd *cobra.Command, opts *options, id string) error {
	a, err := openApp(cmd.Context(), cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.builder.Build(cmd.Context(), a.report, nil)
	if err != nil {
		return err
	}
	word, ok := report.Analysis.Word(id)
	if !ok {
		return fmt.Errorf("word %q not found", id)
	}
	if opts.jsonOut {
		return writeJSON(cmd.OutOrStdout(), word)
	}
	return stats.RenderWord(cmd.OutOrStdout(), word)
}

func newUICmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Browse stats in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUICmd(cmd, opts)
		},
	}
	cmd.Flags().Float64Var(&opts.goal, "goal", 0, "target accuracy percentage")
	cmd.Flags().IntVar(&opts.goalDays, "goal-days", 0, "deadline for the goal in days")
	return cmd
}

func runUICmd(cmd *cobra.Command, opts *options) error {
	a, err := openApp(cmd.Context(), cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	goals, err := a.goals(cmd)
	if err != nil {
		return err
	}
	m := statsui.NewModel(a.builder, a.store, a.report, goals)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigCmd(cmd, opts)
		},
	}
}

// effectiveConfig is what the config command prints.
type effectiveConfig struct {
	ConfigPath string               `json:"configPath"`
	DBPath     string               `json:"dbPath"`
	LogLevel   string               `json:"logLevel"`
	Cache      effectiveCache       `json:"cache"`
	Thresholds analytics.Thresholds `json:"thresholds"`
}

type effectiveCache struct {
	Backend string `json:"backend"`
	Addr    string `json:"addr,omitempty"`
	Size    int    `json:"size"`
	TTL     string `json:"ttl"`
}

func runConfigCmd(cmd *cobra.Command, opts *options) error {
	fileCfg, err := loadFileConfig(cmd, opts)
	if err != nil {
		return err
	}
	eff, err := buildEffectiveConfig(opts, fileCfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.jsonOut {
		return writeJSON(out, eff)
	}
	th := eff.Thresholds
	lines := []string{
		"Config: " + eff.ConfigPath,
		"Database: " + eff.DBPath,
		"Log Level: " + eff.LogLevel,
		fmt.Sprintf("Cache: %s size=%d ttl=%s", eff.Cache.Backend, eff.Cache.Size, eff.Cache.TTL),
		fmt.Sprintf("Min Attempts: %d  Consolidated Streak: %d", th.MinAttemptsForStatus, th.ConsolidatedStreak),
		fmt.Sprintf("Critical Accuracy: %d  Improving Accuracy: %d", th.CriticalAccuracy, th.ImprovingAccuracy),
		fmt.Sprintf("Horizons: %v  Milestones: %v", th.Horizons, th.MilestoneTargets),
	}
	if eff.Cache.Backend == config.CacheRedis {
		lines[3] += " addr=" + eff.Cache.Addr
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func buildEffectiveConfig(opts *options, fileCfg config.FileConfig) (effectiveConfig, error) {
	th, err := fileCfg.ApplyThresholds(analytics.DefaultThresholds())
	if err != nil {
		return effectiveConfig{}, err
	}
	cc, err := fileCfg.ResolveCache()
	if err != nil {
		return effectiveConfig{}, err
	}
	eff := effectiveConfig{
		ConfigPath: opts.resolvedConfigPath(),
		DBPath:     opts.resolvedDBPath(),
		LogLevel:   opts.logLevel,
		Cache: effectiveCache{
			Backend: cc.Backend,
			Size:    cc.Size,
			TTL:     cc.TTL.String(),
		},
		Thresholds: th,
	}
	if cc.Backend == config.CacheRedis {
		eff.Cache.Addr = cc.Addr
	}
	return eff, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
