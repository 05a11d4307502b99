package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

type StepRecord struct {
	Step    int     `json:"step"`
	Action0 int     `json:"action_0"`
	Action1 int     `json:"action_1"`
	Pose    Pose    `json:"pose"`
	Reward  float64 `json:"reward"`
	Done    bool    `json:"done"`
	Info    string  `json:"info,omitempty"`
}

// EpisodeRecord is one reset-to-stop run of the environment.
type EpisodeRecord struct {
	VersionedRecord
	ID         string       `json:"id"`
	Scape      string       `json:"scape"`
	Policy     string       `json:"policy"`
	Seed       int64        `json:"seed"`
	Steps      int          `json:"steps"`
	Done       bool         `json:"done"`
	Info       string       `json:"info,omitempty"`
	Start      Pose         `json:"start"`
	Final      Pose         `json:"final"`
	Trajectory []StepRecord `json:"trajectory,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`

	// MaxEpisodeSteps is the env's advertised episode length, not the run cap.
	MaxEpisodeSteps int `json:"max_episode_steps,omitempty"`
}

// EpisodeSummary is the listing view of an EpisodeRecord.
type EpisodeSummary struct {
	ID        string    `json:"id"`
	Policy    string    `json:"policy"`
	Seed      int64     `json:"seed"`
	Steps     int       `json:"steps"`
	Done      bool      `json:"done"`
	Info      string    `json:"info,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r EpisodeRecord) Summary() EpisodeSummary {
	return EpisodeSummary{
		ID:        r.ID,
		Policy:    r.Policy,
		Seed:      r.Seed,
		Steps:     r.Steps,
		Done:      r.Done,
		Info:      r.Info,
		CreatedAt: r.CreatedAt,
	}
}
