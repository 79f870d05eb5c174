package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/vocabstats/internal/analytics"
)

const sampleDocument = `{
  "words": [
    {"id": "w1", "english": "cat", "italian": "gatto", "chapter": 1, "attempts": [
      {"timestamp": "2024-03-04T09:00:00Z", "correct": true},
      {"timestamp": "2024-03-04T10:00:00Z", "correct": true},
      {"timestamp": "2024-03-05T09:00:00Z", "correct": false}
    ]},
    {"id": "w2", "english": "why", "italian": "perché", "chapter": "2"}
  ],
  "testHistory": [
    {"id": 1, "timestamp": "2024-03-04T09:00:00Z", "totalWords": 3, "correctWords": 2, "incorrectWords": 1,
     "perChapterBreakdown": {"1": {"correct": 2, "incorrect": 1}}}
  ]
}`

type cliEnv struct {
	configPath string
	dbPath     string
}

func newCLIEnv(t *testing.T, configBody string) cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := cliEnv{
		configPath: filepath.Join(dir, "config.toml"),
		dbPath:     filepath.Join(dir, "data", "vocabstats.db"),
	}
	if err := os.WriteFile(env.configPath, []byte(configBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", e.configPath, "--db", e.dbPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e cliEnv) importSample(t *testing.T) {
	t.Helper()
	path := filepath.Join(filepath.Dir(e.configPath), "export.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("write export: %v", err)
	}
	out, err := e.run(t, "import", path)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "Imported 2 words, 3 attempts, 1 sessions") {
		t.Fatalf("unexpected import output: %q", out)
	}
}

const quietConfig = `
[log]
level = "error"

[cache]
backend = "none"
`

func TestImportThenChapters(t *testing.T) {
	env := newCLIEnv(t, quietConfig)
	env.importSample(t)

	out, err := env.run(t, "chapters")
	if err != nil {
		t.Fatalf("chapters failed: %v", err)
	}
	for _, want := range []string{"Chapters: 2", "Weakest Words", "gatto"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	out, err = env.run(t, "chapters", "--json")
	if err != nil {
		t.Fatalf("chapters --json failed: %v", err)
	}
	var res analytics.ChapterAnalysisResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode chapters json: %v", err)
	}
	if res.OverviewStats.TotalChapters != 2 || res.OverviewStats.TotalWords != 2 {
		t.Fatalf("unexpected overview: %+v", res.OverviewStats)
	}
}

func TestWordCommand(t *testing.T) {
	env := newCLIEnv(t, quietConfig)
	env.importSample(t)

	out, err := env.run(t, "word", "w1")
	if err != nil {
		t.Fatalf("word failed: %v", err)
	}
	if !strings.Contains(out, "cat / gatto (w1)") || !strings.Contains(out, "Attempts: 3 (correct 2)") {
		t.Fatalf("unexpected word output:\n%s", out)
	}

	if _, err := env.run(t, "word", "nope"); err == nil || !strings.Contains(err.Error(), `word "nope" not found`) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestTrendsGoalFromConfig(t *testing.T) {
	env := newCLIEnv(t, quietConfig+"\n[goal]\ntarget = 90.0\ndays = 30\n")
	env.importSample(t)

	out, err := env.run(t, "trends", "--json")
	if err != nil {
		t.Fatalf("trends failed: %v", err)
	}
	var res analytics.TrendsAnalysisResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode trends json: %v", err)
	}
	goals := res.RecommendationSystem.GoalBased
	if len(goals) != 1 || goals[0].Target != 90 || goals[0].DeadlineDays != 30 {
		t.Fatalf("expected goal from config, got %+v", goals)
	}

	out, err = env.run(t, "trends", "--json", "--goal", "75")
	if err != nil {
		t.Fatalf("trends --goal failed: %v", err)
	}
	res = analytics.TrendsAnalysisResult{}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode trends json: %v", err)
	}
	if goals := res.RecommendationSystem.GoalBased; len(goals) != 1 || goals[0].Target != 75 {
		t.Fatalf("expected flag to override goal, got %+v", goals)
	}
}

func TestTrendsTextWithCurves(t *testing.T) {
	env := newCLIEnv(t, quietConfig)
	env.importSample(t)

	out, err := env.run(t, "trends", "--curves", "--scaled", "--curve-window", "2")
	if err != nil {
		t.Fatalf("trends failed: %v", err)
	}
	for _, want := range []string{"Learning Velocity", "Learning Curves", "Scaled per series", "Legend:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestConfigCommandAppliesOverrides(t *testing.T) {
	env := newCLIEnv(t, quietConfig+"\n[thresholds]\ncritical-accuracy = 20\n")

	out, err := env.run(t, "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	for _, want := range []string{"Log Level: error", "Cache: none", "Critical Accuracy: 20", "Database: " + env.dbPath} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	out, err = env.run(t, "config", "--log-level", "warn")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(out, "Log Level: warn") {
		t.Fatalf("expected flag to override log level:\n%s", out)
	}
}

func TestInvalidFlags(t *testing.T) {
	env := newCLIEnv(t, quietConfig)
	cases := [][]string{
		{"chapters", "--since", "03/04/2024"},
		{"chapters", "--last", "-1"},
		{"trends", "--goal", "120"},
		{"trends", "--curve-window", "0"},
	}
	for _, args := range cases {
		if _, err := env.run(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	env := newCLIEnv(t, "[cache]\nbackend = \"disk\"\n")
	if _, err := env.run(t, "chapters"); err == nil || !strings.Contains(err.Error(), "unknown cache backend") {
		t.Fatalf("expected cache backend error, got %v", err)
	}
}
