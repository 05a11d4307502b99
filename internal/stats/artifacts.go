package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"twocarrier/internal/model"
)

const (
	episodeIndexFile = "episode_index.json"
	episodeFile      = "episode.json"
	trajectoryFile   = "trajectory.csv"
)

var trajectoryHeader = []string{"step", "action_0", "action_1", "x", "y", "theta", "reward", "done", "info"}

// WriteEpisodeArtifacts writes the record and a flat trajectory table under
// baseDir/<id>, then appends the episode to the index.
func WriteEpisodeArtifacts(baseDir string, record model.EpisodeRecord) (string, error) {
	if record.ID == "" {
		return "", fmt.Errorf("episode id is required")
	}
	dir := filepath.Join(baseDir, record.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, episodeFile), record); err != nil {
		return "", err
	}
	if err := writeTrajectoryCSV(filepath.Join(dir, trajectoryFile), record.Trajectory); err != nil {
		return "", err
	}
	if err := appendEpisodeIndex(baseDir, record.Summary()); err != nil {
		return "", err
	}
	return dir, nil
}

func ReadEpisodeArtifacts(baseDir, id string) (model.EpisodeRecord, bool, error) {
	if id == "" {
		return model.EpisodeRecord{}, false, fmt.Errorf("episode id is required")
	}
	data, err := os.ReadFile(filepath.Join(baseDir, id, episodeFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.EpisodeRecord{}, false, nil
		}
		return model.EpisodeRecord{}, false, err
	}
	var record model.EpisodeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.EpisodeRecord{}, false, err
	}
	return record, true, nil
}

// ListEpisodeIndex returns indexed episodes newest first.
func ListEpisodeIndex(baseDir string) ([]model.EpisodeSummary, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, episodeIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []model.EpisodeSummary{}, nil
		}
		return nil, err
	}
	var entries []model.EpisodeSummary
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func appendEpisodeIndex(baseDir string, entry model.EpisodeSummary) error {
	entries, err := ListEpisodeIndex(baseDir)
	if err != nil {
		return err
	}
	replaced := false
	for i := range entries {
		if entries[i].ID == entry.ID {
			entries[i] = entry
			replaced = true
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	return writeJSON(filepath.Join(baseDir, episodeIndexFile), entries)
}

func writeTrajectoryCSV(path string, steps []model.StepRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(trajectoryHeader); err != nil {
		return err
	}
	for _, s := range steps {
		row := []string{
			strconv.Itoa(s.Step),
			strconv.Itoa(s.Action0),
			strconv.Itoa(s.Action1),
			strconv.FormatFloat(s.Pose.X, 'g', -1, 64),
			strconv.FormatFloat(s.Pose.Y, 'g', -1, 64),
			strconv.FormatFloat(s.Pose.Theta, 'g', -1, 64),
			strconv.FormatFloat(s.Reward, 'g', -1, 64),
			strconv.FormatBool(s.Done),
			s.Info,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
