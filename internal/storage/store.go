package storage

import (
	"context"

	"twocarrier/internal/model"
)

// Store persists recorded episodes.
type Store interface {
	Init(ctx context.Context) error
	SaveEpisode(ctx context.Context, episode model.EpisodeRecord) error
	GetEpisode(ctx context.Context, id string) (model.EpisodeRecord, bool, error)
	// ListEpisodes returns summaries newest first. limit <= 0 means no limit.
	ListEpisodes(ctx context.Context, limit int) ([]model.EpisodeSummary, error)
	DeleteEpisode(ctx context.Context, id string) error
}
