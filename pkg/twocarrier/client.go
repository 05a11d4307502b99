package twocarrier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"twocarrier/internal/logging"
	"twocarrier/internal/model"
	"twocarrier/internal/platform"
	"twocarrier/internal/scape"
	"twocarrier/internal/stats"
	"twocarrier/internal/storage"
)

const defaultDBPath = "twocarrier.db"

type Options struct {
	StoreKind string
	DBPath    string
	Logger    *zap.Logger
	// MaxEpisodeSteps is recorded on every episode; 0 keeps the env default.
	MaxEpisodeSteps int
}

// Client runs and records episodes against a configured store.
type Client struct {
	store           storage.Store
	logger          *zap.Logger
	maxEpisodeSteps int
	polis           *platform.Polis
}

type EpisodeRequest struct {
	Seed int64
	// MaxSteps caps the run; 0 means platform.DefaultEpisodeSteps.
	MaxSteps int
	// Policy is one of "random", "centering" or "scripted".
	Policy string
	// Script feeds the scripted policy.
	Script     [][2]int
	LoopScript bool
	RenderDir  string
	RenderDPI  int
}

type EpisodeSummary struct {
	ID              string
	Policy          string
	Seed            int64
	Steps           int
	MaxEpisodeSteps int
	Done            bool
	Info            string
	Start           Pose
	Final           Pose
}

type EvaluateRequest struct {
	// Policy is "random" or "centering".
	Policy string
	Seed   int64
	Mode   string
}

type EvaluateSummary struct {
	Fitness       float64
	Mode          string
	StepsSurvived int
	Crashes       int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{store: store, logger: logger, maxEpisodeSteps: opts.MaxEpisodeSteps}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

func (c *Client) RunEpisode(ctx context.Context, req EpisodeRequest) (EpisodeSummary, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return EpisodeSummary{}, err
	}
	policy, err := policyFromRequest(req)
	if err != nil {
		return EpisodeSummary{}, err
	}
	record, err := p.RunEpisode(ctx, platform.EpisodeRequest{
		Seed:      req.Seed,
		MaxSteps:  req.MaxSteps,
		Policy:    policy,
		RenderDir: req.RenderDir,
		RenderDPI: req.RenderDPI,
	})
	if err != nil {
		return EpisodeSummary{}, err
	}
	return summaryFromRecord(record), nil
}

func (c *Client) Episodes(ctx context.Context, limit int) ([]model.EpisodeSummary, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return nil, err
	}
	return p.ListEpisodes(ctx, limit)
}

func (c *Client) Episode(ctx context.Context, id string) (model.EpisodeRecord, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return model.EpisodeRecord{}, err
	}
	record, ok, err := p.GetEpisode(ctx, id)
	if err != nil {
		return model.EpisodeRecord{}, err
	}
	if !ok {
		return model.EpisodeRecord{}, fmt.Errorf("episode not found: %s", id)
	}
	return record, nil
}

func (c *Client) Replay(ctx context.Context, id string) error {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return err
	}
	return p.ReplayEpisode(ctx, id)
}

// Export writes the episode's JSON record and trajectory CSV under outDir.
func (c *Client) Export(ctx context.Context, id, outDir string) (string, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return "", err
	}
	return p.ExportEpisode(ctx, id, outDir)
}

// Import loads an episode written by Export from outDir into the store.
func (c *Client) Import(ctx context.Context, outDir, id string) (EpisodeSummary, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return EpisodeSummary{}, err
	}
	record, err := p.ImportEpisode(ctx, outDir, id)
	if err != nil {
		return EpisodeSummary{}, err
	}
	return summaryFromRecord(record), nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return err
	}
	return p.DeleteEpisode(ctx, id)
}

func (c *Client) Stats(ctx context.Context, limit int) (stats.EpisodeStats, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return stats.EpisodeStats{}, err
	}
	return p.EpisodeStats(ctx, limit)
}

func (c *Client) Evaluate(ctx context.Context, req EvaluateRequest) (EvaluateSummary, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return EvaluateSummary{}, err
	}
	if req.Policy == "scripted" {
		return EvaluateSummary{}, errors.New("scripted policy cannot be evaluated")
	}
	policy, err := policyFromRequest(EpisodeRequest{Policy: req.Policy, Seed: req.Seed})
	if err != nil {
		return EvaluateSummary{}, err
	}
	fitness, trace, err := p.Evaluate(ctx, scape.TwoCarrierScapeName, platform.PolicyAgent{Policy: policy}, req.Mode)
	if err != nil {
		return EvaluateSummary{}, err
	}
	summary := EvaluateSummary{Fitness: float64(fitness)}
	summary.Mode, _ = trace["mode"].(string)
	summary.StepsSurvived, _ = trace["steps_survived"].(int)
	summary.Crashes, _ = trace["crashes"].(int)
	return summary, nil
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}
	p := platform.NewPolis(platform.Config{
		Store:           c.store,
		Logger:          c.logger,
		MaxEpisodeSteps: c.maxEpisodeSteps,
	})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return p, nil
}

func policyFromRequest(req EpisodeRequest) (platform.Policy, error) {
	switch req.Policy {
	case "", "random":
		seed := req.Seed
		if seed == 0 {
			seed = 1
		}
		return platform.NewRandomPolicy(seed), nil
	case "centering":
		return platform.DefaultCenteringPolicy(), nil
	case "scripted":
		if len(req.Script) == 0 {
			return nil, errors.New("scripted policy requires a script")
		}
		actions := make([]scape.ActionPair, len(req.Script))
		for i, pair := range req.Script {
			actions[i] = scape.ActionPair(pair)
		}
		return &platform.ScriptedPolicy{Actions: actions, Loop: req.LoopScript}, nil
	default:
		return nil, fmt.Errorf("unsupported policy: %s", req.Policy)
	}
}

func summaryFromRecord(r model.EpisodeRecord) EpisodeSummary {
	return EpisodeSummary{
		ID:              r.ID,
		Policy:          r.Policy,
		Seed:            r.Seed,
		Steps:           r.Steps,
		MaxEpisodeSteps: r.MaxEpisodeSteps,
		Done:            r.Done,
		Info:            r.Info,
		Start:           Pose{X: r.Start.X, Y: r.Start.Y, Theta: r.Start.Theta},
		Final:           Pose{X: r.Final.X, Y: r.Final.Y, Theta: r.Final.Theta},
	}
}
