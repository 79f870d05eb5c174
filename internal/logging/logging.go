// Package logging builds the zap logger used by the CLI.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/verte-zerg/vocabstats/internal/analytics"
)

// New creates a console logger writing to w at the given level.
func New(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	var lvl zapcore.Level
	name := strings.TrimSpace(strings.ToLower(level))
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q", level)
	}
	return lvl, nil
}

// Sync flushes the logger, ignoring the errors stderr returns on Linux terminals.
func Sync(logger *zap.Logger) error {
	err := logger.Sync()
	var errno syscall.Errno
	if errors.As(err, &errno) && (errno == syscall.EINVAL || errno == syscall.ENOTTY) {
		return nil
	}
	return err
}

// DataQuality logs the sessions the analysis had to drop or flag.
func DataQuality(logger *zap.Logger, q analytics.DataQuality) {
	if !q.Degraded() {
		logger.Debug("test history ok", zap.Int("sessions", q.TotalSessions))
		return
	}
	logger.Warn("test history degraded",
		zap.Int("sessions", q.TotalSessions),
		zap.Int("usable", q.UsableSessions),
		zap.Int("excluded", q.ExcludedSessions),
		zap.Int("unparsable_timestamps", q.UnparsableTimestamps),
		zap.Int("inconsistent", q.InconsistentSessions),
	)
}
