package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"twocarrier/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	episodes    map[string]model.EpisodeRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.episodes = make(map[string]model.EpisodeRecord)
	return nil
}

func (s *MemoryStore) SaveEpisode(_ context.Context, episode model.EpisodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	if err := checkVersion(episode.VersionedRecord); err != nil {
		return err
	}
	episode.Trajectory = append([]model.StepRecord(nil), episode.Trajectory...)
	s.episodes[episode.ID] = episode
	return nil
}

func (s *MemoryStore) GetEpisode(_ context.Context, id string) (model.EpisodeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.EpisodeRecord{}, false, errNotInitialized
	}
	episode, ok := s.episodes[id]
	if ok {
		episode.Trajectory = append([]model.StepRecord(nil), episode.Trajectory...)
	}
	return episode, ok, nil
}

func (s *MemoryStore) ListEpisodes(_ context.Context, limit int) ([]model.EpisodeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := make([]model.EpisodeSummary, 0, len(s.episodes))
	for _, episode := range s.episodes {
		out = append(out, episode.Summary())
	}
	sortSummaries(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteEpisode(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	delete(s.episodes, id)
	return nil
}

func sortSummaries(summaries []model.EpisodeSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
}
