package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"twocarrier/internal/model"
	"twocarrier/internal/stats"
	"twocarrier/internal/storage"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	orig := stdout
	stdout = buf
	t.Cleanup(func() {
		stdout = orig
	})
	return buf
}

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := run(context.Background(), []string{"train"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestInitCommand(t *testing.T) {
	out := captureStdout(t)
	if err := run(context.Background(), []string{"init", "--config-dir", t.TempDir(), "--log-level", "error"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), "initialized store=memory") || !strings.Contains(out.String(), "two-carrier") {
		t.Fatalf("unexpected init output: %q", out.String())
	}
}

func TestInitRejectsUnknownStore(t *testing.T) {
	captureStdout(t)
	if err := run(context.Background(), []string{"init", "--config-dir", t.TempDir(), "--store", "bolt"}); err == nil {
		t.Fatal("expected unsupported store error")
	}
}

func TestDemoCommandPrintsEachStep(t *testing.T) {
	out := captureStdout(t)
	args := []string{"demo", "--config-dir", t.TempDir(), "--log-level", "error", "--seed", "3", "--steps", "5", "--policy", "centering"}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("demo: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected five step lines and a summary, got %d: %q", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "[") || !strings.Contains(lines[0], " 0 false") {
		t.Fatalf("unexpected step line: %q", lines[0])
	}
	if !strings.Contains(lines[5], "seed=3") || !strings.Contains(lines[5], "steps=5") || !strings.Contains(lines[5], "done=false") {
		t.Fatalf("unexpected summary: %q", lines[5])
	}
}

func TestDemoCommandUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	raw := `{"logLevel": "error", "env": {"seed": 9}, "demo": {"steps": 3}}`
	if err := os.WriteFile(filepath.Join(dir, "twocarrier.cfg.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out := captureStdout(t)
	if err := run(context.Background(), []string{"demo", "--config-dir", dir, "--quiet"}); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if got := strings.TrimSpace(out.String()); !strings.Contains(got, "seed=9") || !strings.Contains(got, "steps=3") || strings.Count(got, "\n") != 0 {
		t.Fatalf("unexpected quiet demo output: %q", got)
	}
}

func TestDemoCommandRendersFrames(t *testing.T) {
	captureStdout(t)
	frames := filepath.Join(t.TempDir(), "frames")
	args := []string{"demo", "--config-dir", t.TempDir(), "--log-level", "error", "--seed", "4", "--steps", "2", "--policy", "centering", "--render-dir", frames, "--quiet"}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("demo: %v", err)
	}
	entries, err := os.ReadDir(frames)
	if err != nil {
		t.Fatalf("read frames: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected three frames, got %d", len(entries))
	}
}

func TestRenderCommand(t *testing.T) {
	out := captureStdout(t)
	path := filepath.Join(t.TempDir(), "pose.png")
	args := []string{"render", "--config-dir", t.TempDir(), "--out", path, "--x", "-2", "--y", "5.25"}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("expected PNG output")
	}
	if !strings.Contains(out.String(), "collision=true wall=north-west") {
		t.Fatalf("unexpected render output: %q", out.String())
	}
}

func TestEvaluateCommand(t *testing.T) {
	out := captureStdout(t)
	args := []string{"evaluate", "--config-dir", t.TempDir(), "--log-level", "error", "--mode", "validation"}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !strings.Contains(out.String(), "policy=centering mode=validation fitness=1.000000") {
		t.Fatalf("unexpected evaluate output: %q", out.String())
	}

	if err := run(context.Background(), []string{"evaluate", "--config-dir", t.TempDir(), "--policy", "greedy"}); err == nil {
		t.Fatal("expected unsupported policy error")
	}
}

func TestEpisodesCommandEmptyMemoryStore(t *testing.T) {
	out := captureStdout(t)
	if err := run(context.Background(), []string{"episodes", "--config-dir", t.TempDir(), "--log-level", "error"}); err != nil {
		t.Fatalf("episodes: %v", err)
	}
	if strings.TrimSpace(out.String()) != "no episodes found" {
		t.Fatalf("unexpected episodes output: %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), []string{"episodes", "--config-dir", t.TempDir(), "--json"}); err != nil {
		t.Fatalf("episodes json: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(out.Bytes(), &items); err != nil {
		t.Fatalf("decode episodes json: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no episodes, got %+v", items)
	}

	if err := run(context.Background(), []string{"episodes", "--config-dir", t.TempDir(), "--limit", "0"}); err == nil {
		t.Fatal("expected limit validation error")
	}
}

func TestReplayRequiresID(t *testing.T) {
	captureStdout(t)
	if err := run(context.Background(), []string{"replay", "--config-dir", t.TempDir()}); err == nil {
		t.Fatal("expected missing id error")
	}
	if err := run(context.Background(), []string{"replay", "--config-dir", t.TempDir(), "--id", "missing", "--log-level", "error"}); err == nil {
		t.Fatal("expected episode not found error")
	}
}

func TestEvaluateControllerCommand(t *testing.T) {
	out := captureStdout(t)
	for _, profile := range []string{"default", "planar"} {
		out.Reset()
		args := []string{"evaluate", "--config-dir", t.TempDir(), "--log-level", "error", "--policy", "controller", "--profile", profile, "--mode", "test"}
		if err := run(context.Background(), args); err != nil {
			t.Fatalf("evaluate %s: %v", profile, err)
		}
		if !strings.Contains(out.String(), "policy=controller mode=test fitness=1.000000") {
			t.Fatalf("unexpected evaluate output for %s: %q", profile, out.String())
		}
	}
}

func TestStatsCommandEmptyStore(t *testing.T) {
	out := captureStdout(t)
	if err := run(context.Background(), []string{"stats", "--config-dir", t.TempDir(), "--log-level", "error"}); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.HasPrefix(out.String(), "episodes=0 crashes=0") {
		t.Fatalf("unexpected stats output: %q", out.String())
	}
}

func TestExportRequiresTarget(t *testing.T) {
	captureStdout(t)
	if err := run(context.Background(), []string{"export", "--config-dir", t.TempDir()}); err == nil {
		t.Fatal("expected missing target error")
	}
	if err := run(context.Background(), []string{"export", "--config-dir", t.TempDir(), "--latest", "--log-level", "error"}); err == nil {
		t.Fatal("expected no episodes error")
	}
}

func TestDemoCommandAppliesMaxEpisodeSteps(t *testing.T) {
	dir := t.TempDir()
	raw := `{"logLevel": "error", "env": {"seed": 9, "maxEpisodeSteps": 7}, "demo": {"steps": 10}}`
	if err := os.WriteFile(filepath.Join(dir, "twocarrier.cfg.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out := captureStdout(t)
	if err := run(context.Background(), []string{"demo", "--config-dir", dir, "--policy", "centering", "--quiet"}); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if got := out.String(); !strings.Contains(got, "max_episode_steps=7") || !strings.Contains(got, " steps=10 ") {
		t.Fatalf("expected configured max episode steps without a cut-off run, got %q", got)
	}

	t.Setenv("TWOCARRIER_ENV_MAXEPISODESTEPS", "5")
	out.Reset()
	if err := run(context.Background(), []string{"demo", "--config-dir", t.TempDir(), "--log-level", "error", "--seed", "2", "--steps", "1", "--quiet"}); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if !strings.Contains(out.String(), "max_episode_steps=5") {
		t.Fatalf("expected env override in summary, got %q", out.String())
	}
}

func TestImportCommand(t *testing.T) {
	exportDir := t.TempDir()
	record := model.EpisodeRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              "ep-import",
		Policy:          "scripted",
		Seed:            3,
		Steps:           2,
		Trajectory: []model.StepRecord{
			{Step: 1, Action0: 2, Action1: 3},
			{Step: 2, Action0: 2, Action1: 3},
		},
		CreatedAt: time.Unix(100, 0).UTC(),
	}
	if _, err := stats.WriteEpisodeArtifacts(exportDir, record); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	out := captureStdout(t)
	args := []string{"import", "--config-dir", t.TempDir(), "--log-level", "error", "--dir", exportDir, "--id", "ep-import"}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "imported episode_id=ep-import steps=2 done=false") {
		t.Fatalf("unexpected import output: %q", out.String())
	}

	if err := run(context.Background(), []string{"import", "--config-dir", t.TempDir()}); err == nil {
		t.Fatal("expected missing id error")
	}
	if err := run(context.Background(), []string{"import", "--config-dir", t.TempDir(), "--log-level", "error", "--dir", exportDir, "--id", "missing"}); err == nil {
		t.Fatal("expected missing artifact error")
	}
}

func TestDeleteCommandErrors(t *testing.T) {
	captureStdout(t)
	if err := run(context.Background(), []string{"delete", "--config-dir", t.TempDir()}); err == nil {
		t.Fatal("expected missing id error")
	}
	if err := run(context.Background(), []string{"delete", "--config-dir", t.TempDir(), "--log-level", "error", "--id", "missing"}); err == nil {
		t.Fatal("expected episode not found error")
	}
}

func TestUsageMentionsSQLiteBuild(t *testing.T) {
	err := run(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "-tags sqlite") {
		t.Fatalf("expected usage to explain the sqlite build, got %v", err)
	}
}
