package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/vocabstats/internal/analytics"
)

func TestNewWritesConsoleLines(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible", zap.String("chapter", "3"))
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "visible") || !strings.Contains(out, `"chapter": "3"`) {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{" ERROR ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("%q: expected %v, got %v (%v)", tt.in, tt.want, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := New("loud", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected New to reject unknown level")
	}
}

func TestDataQuality(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	DataQuality(logger, analytics.DataQuality{TotalSessions: 4, UsableSessions: 4})
	if got := logs.FilterLevelExact(zapcore.WarnLevel).Len(); got != 0 {
		t.Fatalf("expected no warnings for clean history, got %d", got)
	}

	DataQuality(logger, analytics.DataQuality{TotalSessions: 4, UsableSessions: 3, ExcludedSessions: 1})
	warns := logs.FilterMessage("test history degraded").All()
	if len(warns) != 1 {
		t.Fatalf("expected one warning, got %d", len(warns))
	}
	fields := warns[0].ContextMap()
	if fields["excluded"] != int64(1) || fields["usable"] != int64(3) {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
