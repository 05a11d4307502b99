//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreEpisodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "twocarrier.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	first := testEpisode("ep-1", time.Unix(100, 0))
	second := testEpisode("ep-2", time.Unix(200, 0))
	second.Done = false
	second.Info = ""
	if err := store.SaveEpisode(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.SaveEpisode(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	loaded, ok, err := store.GetEpisode(ctx, "ep-1")
	if err != nil {
		t.Fatalf("get episode: %v", err)
	}
	if !ok || len(loaded.Trajectory) != 2 || loaded.Info != "crash wall" {
		t.Fatalf("unexpected loaded episode: ok=%t %+v", ok, loaded)
	}

	summaries, err := store.ListEpisodes(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != "ep-2" || summaries[0].Done {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	if err := store.DeleteEpisode(ctx, "ep-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := store.GetEpisode(ctx, "ep-2"); err != nil || ok {
		t.Fatalf("expected deleted episode, ok=%t err=%v", ok, err)
	}
}

func TestSQLiteStoreNoPath(t *testing.T) {
	store := NewSQLiteStore("")
	if err := store.Init(context.Background()); err == nil {
		t.Fatal("expected missing path error")
	}
}
