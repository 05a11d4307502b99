//go:build sqlite

package main

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestSQLiteDemoEpisodesReplay(t *testing.T) {
	out := captureStdout(t)
	configDir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "twocarrier.db")
	common := []string{"--config-dir", configDir, "--log-level", "error", "--store", "sqlite", "--db-path", dbPath}

	if err := run(context.Background(), append([]string{"demo", "--seed", "12", "--steps", "40", "--quiet"}, common...)); err != nil {
		t.Fatalf("demo: %v", err)
	}
	match := regexp.MustCompile(`episode_id=(\S+)`).FindStringSubmatch(out.String())
	if len(match) != 2 {
		t.Fatalf("missing episode id in %q", out.String())
	}
	id := match[1]

	out.Reset()
	if err := run(context.Background(), append([]string{"episodes"}, common...)); err != nil {
		t.Fatalf("episodes: %v", err)
	}
	if !strings.Contains(out.String(), "episode_id="+id) {
		t.Fatalf("expected stored episode %s in %q", id, out.String())
	}

	out.Reset()
	if err := run(context.Background(), append([]string{"replay", "--id", id}, common...)); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !strings.Contains(out.String(), "replay ok") {
		t.Fatalf("unexpected replay output: %q", out.String())
	}
}

func TestSQLiteExportAndStats(t *testing.T) {
	out := captureStdout(t)
	dbPath := filepath.Join(t.TempDir(), "twocarrier.db")
	exportDir := filepath.Join(t.TempDir(), "exports")
	common := []string{"--config-dir", t.TempDir(), "--log-level", "error", "--store", "sqlite", "--db-path", dbPath}

	for _, seed := range []string{"1", "2"} {
		if err := run(context.Background(), append([]string{"demo", "--seed", seed, "--steps", "10", "--policy", "centering", "--quiet"}, common...)); err != nil {
			t.Fatalf("demo seed %s: %v", seed, err)
		}
	}

	out.Reset()
	if err := run(context.Background(), append([]string{"stats"}, common...)); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.HasPrefix(out.String(), "episodes=2 crashes=0") {
		t.Fatalf("unexpected stats output: %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), append([]string{"export", "--latest", "--out", exportDir}, common...)); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out.String(), "exported episode_id=") {
		t.Fatalf("unexpected export output: %q", out.String())
	}

	exported := regexp.MustCompile(`exported episode_id=(\S+)`).FindStringSubmatch(out.String())
	if len(exported) != 2 {
		t.Fatalf("missing exported id in %q", out.String())
	}
	id := exported[1]

	out.Reset()
	if err := run(context.Background(), append([]string{"delete", "--id", id}, common...)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := run(context.Background(), append([]string{"replay", "--id", id}, common...)); err == nil {
		t.Fatal("expected deleted episode to be gone")
	}

	out.Reset()
	if err := run(context.Background(), append([]string{"import", "--dir", exportDir, "--id", id}, common...)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := run(context.Background(), append([]string{"replay", "--id", id}, common...)); err != nil {
		t.Fatalf("replay imported episode: %v", err)
	}
	if !strings.Contains(out.String(), "replay ok episode_id="+id) {
		t.Fatalf("unexpected replay output: %q", out.String())
	}
}
