package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"twocarrier/internal/logging"
	"twocarrier/internal/model"
	"twocarrier/internal/render"
	"twocarrier/internal/scape"
	"twocarrier/internal/scapeid"
	"twocarrier/internal/stats"
	"twocarrier/internal/storage"
)

// DefaultEpisodeSteps bounds an episode when the request gives no cap.
const DefaultEpisodeSteps = 1000

type Config struct {
	Store  storage.Store
	Logger *zap.Logger
	Scapes []scape.Scape
	// MaxEpisodeSteps is advertised by every env the polis builds; 0 keeps
	// the env default. It never stops an episode.
	MaxEpisodeSteps int
	// Now is used for record timestamps and clock seeds. Defaults to time.Now.
	Now func() time.Time
}

type Polis struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	scapes  map[string]scape.Scape
	started bool

	config Config
}

func NewPolis(cfg Config) *Polis {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Polis{
		store:  cfg.Store,
		logger: logger,
		now:    now,
		scapes: make(map[string]scape.Scape),
		config: cfg,
	}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}

	scapes := p.config.Scapes
	if len(scapes) == 0 {
		scapes = []scape.Scape{scape.TwoCarrierScape{}}
	}
	registered := make(map[string]scape.Scape, len(scapes))
	for i, sc := range scapes {
		if sc == nil {
			return fmt.Errorf("scape is nil at index %d", i)
		}
		name := scapeid.Normalize(sc.Name())
		if name == "" {
			return fmt.Errorf("scape name is required at index %d", i)
		}
		if _, exists := registered[name]; exists {
			return fmt.Errorf("duplicate scape: %s", name)
		}
		registered[name] = sc
	}
	p.scapes = registered
	p.started = true
	p.logger.Debug("polis started", zap.Int("scapes", len(registered)))
	return nil
}

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

func (p *Polis) RegisteredScapes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.scapes))
	for name := range p.scapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate scores agent on a registered scape. mode is ignored by scapes
// that are not mode aware.
func (p *Polis) Evaluate(ctx context.Context, scapeName string, agent scape.Agent, mode string) (scape.Fitness, scape.Trace, error) {
	p.mu.RLock()
	started := p.started
	sc, ok := p.scapes[scapeid.Normalize(scapeName)]
	p.mu.RUnlock()
	if !started {
		return 0, nil, errors.New("polis is not started")
	}
	if !ok {
		return 0, nil, fmt.Errorf("scape not registered: %s", scapeName)
	}

	var (
		fitness scape.Fitness
		trace   scape.Trace
		err     error
	)
	if aware, ok := sc.(scape.ModeAwareScape); ok && mode != "" {
		fitness, trace, err = aware.EvaluateMode(ctx, agent, mode)
	} else {
		fitness, trace, err = sc.Evaluate(ctx, agent)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("evaluate %s on %s: %w", agent.ID(), sc.Name(), err)
	}
	p.logger.Info("scape evaluated",
		zap.String("scape", sc.Name()),
		zap.String("agent", agent.ID()),
		zap.String("mode", mode),
		zap.Float64("fitness", float64(fitness)),
	)
	return fitness, trace, nil
}

type EpisodeRequest struct {
	// Seed 0 picks a clock-derived seed; the seed used is recorded.
	Seed int64
	// MaxSteps caps the run. It is an outer harness limit; the env itself
	// never terminates on step count.
	MaxSteps int
	Policy   Policy
	// RenderDir, when set, receives one PNG per step.
	RenderDir string
	// RenderDPI is passed to the renderer; 0 uses its default.
	RenderDPI int
	// SkipTrajectory drops per-step records from the stored episode.
	SkipTrajectory bool
	// OnStep is called after every step, before rendering.
	OnStep func(model.StepRecord)
}

func (p *Polis) RunEpisode(ctx context.Context, req EpisodeRequest) (model.EpisodeRecord, error) {
	if !p.Started() {
		return model.EpisodeRecord{}, errors.New("polis is not started")
	}
	if req.Policy == nil {
		return model.EpisodeRecord{}, errors.New("policy is required")
	}
	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultEpisodeSteps
	}
	seed := req.Seed
	if seed == 0 {
		seed = p.now().UnixNano()
	}

	env := scape.NewTwoCarrierEnv(scape.WithSeed(seed), scape.WithMaxEpisodeSteps(p.config.MaxEpisodeSteps))
	start := env.Reset()

	record := model.EpisodeRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              uuid.NewString(),
		Scape:           scape.TwoCarrierScapeName,
		Policy:          req.Policy.Name(),
		Seed:            seed,
		MaxEpisodeSteps: env.MaxEpisodeSteps,
		Start:           toModelPose(start),
		Final:           toModelPose(start),
		CreatedAt:       p.now().UTC(),
	}
	logger := p.logger.With(zap.String("episode", record.ID), zap.Int64("seed", seed))
	logger.Info("episode started", zap.String("policy", record.Policy), zap.Int("max_steps", maxSteps))

	var trail []scape.Point
	if req.RenderDir != "" {
		trail = append(trail, scape.Point{X: start.X, Y: start.Y})
		if err := p.renderFrame(env, trail, req, 0); err != nil {
			return model.EpisodeRecord{}, err
		}
	}

	pose := start
	for step := 1; step <= maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return model.EpisodeRecord{}, err
		}

		action, err := req.Policy.Act(ctx, pose)
		if errors.Is(err, ErrPolicyExhausted) {
			logger.Debug("policy exhausted", zap.Int("step", record.Steps))
			break
		}
		if err != nil {
			return model.EpisodeRecord{}, fmt.Errorf("policy %s step %d: %w", record.Policy, step, err)
		}
		result, err := env.Step(action)
		if err != nil {
			return model.EpisodeRecord{}, fmt.Errorf("step %d: %w", step, err)
		}
		pose = result.Pose

		stepRecord := model.StepRecord{
			Step:    step,
			Action0: action[0],
			Action1: action[1],
			Pose:    toModelPose(result.Pose),
			Reward:  result.Reward,
			Done:    result.Done,
			Info:    result.Info,
		}
		record.Steps = step
		record.Final = stepRecord.Pose
		record.Done = result.Done
		record.Info = result.Info
		if !req.SkipTrajectory {
			record.Trajectory = append(record.Trajectory, stepRecord)
		}
		if req.OnStep != nil {
			req.OnStep(stepRecord)
		}
		if req.RenderDir != "" {
			trail = append(trail, scape.Point{X: pose.X, Y: pose.Y})
			if err := p.renderFrame(env, trail, req, step); err != nil {
				return model.EpisodeRecord{}, err
			}
		}
		if result.Done {
			break
		}
	}

	if err := p.store.SaveEpisode(ctx, record); err != nil {
		return model.EpisodeRecord{}, fmt.Errorf("save episode %s: %w", record.ID, err)
	}
	logger.Info("episode finished",
		zap.Int("steps", record.Steps),
		zap.Bool("done", record.Done),
		zap.String("info", record.Info),
	)
	return record, nil
}

func (p *Polis) GetEpisode(ctx context.Context, id string) (model.EpisodeRecord, bool, error) {
	return p.store.GetEpisode(ctx, id)
}

func (p *Polis) ListEpisodes(ctx context.Context, limit int) ([]model.EpisodeSummary, error) {
	return p.store.ListEpisodes(ctx, limit)
}

// ExportEpisode writes a stored episode's artifacts under outDir and returns
// the episode directory.
func (p *Polis) ExportEpisode(ctx context.Context, id, outDir string) (string, error) {
	record, ok, err := p.store.GetEpisode(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("episode not found: %s", id)
	}
	dir, err := stats.WriteEpisodeArtifacts(outDir, record)
	if err != nil {
		return "", fmt.Errorf("export episode %s: %w", id, err)
	}
	p.logger.Info("episode exported", zap.String("episode", id), zap.String("dir", dir))
	return dir, nil
}

// ImportEpisode loads an episode exported under baseDir into the store.
func (p *Polis) ImportEpisode(ctx context.Context, baseDir, id string) (model.EpisodeRecord, error) {
	record, ok, err := stats.ReadEpisodeArtifacts(baseDir, id)
	if err != nil {
		return model.EpisodeRecord{}, fmt.Errorf("import episode %s: %w", id, err)
	}
	if !ok {
		return model.EpisodeRecord{}, fmt.Errorf("episode not found in %s: %s", baseDir, id)
	}
	if err := p.store.SaveEpisode(ctx, record); err != nil {
		return model.EpisodeRecord{}, fmt.Errorf("save episode %s: %w", id, err)
	}
	p.logger.Info("episode imported", zap.String("episode", id), zap.String("dir", baseDir))
	return record, nil
}

// DeleteEpisode removes a stored episode. Deleting an unknown id is an error.
func (p *Polis) DeleteEpisode(ctx context.Context, id string) error {
	_, ok, err := p.store.GetEpisode(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("episode not found: %s", id)
	}
	if err := p.store.DeleteEpisode(ctx, id); err != nil {
		return fmt.Errorf("delete episode %s: %w", id, err)
	}
	p.logger.Info("episode deleted", zap.String("episode", id))
	return nil
}

// EpisodeStats summarizes the newest limit stored episodes.
func (p *Polis) EpisodeStats(ctx context.Context, limit int) (stats.EpisodeStats, error) {
	items, err := p.store.ListEpisodes(ctx, limit)
	if err != nil {
		return stats.EpisodeStats{}, err
	}
	return stats.SummarizeEpisodes(items), nil
}

// ReplayEpisode re-runs a stored trajectory from its seed and reports the
// first step whose pose or outcome diverges.
func (p *Polis) ReplayEpisode(ctx context.Context, id string) error {
	record, ok, err := p.store.GetEpisode(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("episode not found: %s", id)
	}
	if len(record.Trajectory) != record.Steps {
		return fmt.Errorf("episode %s has no full trajectory to replay", id)
	}

	env := scape.NewTwoCarrierEnv(scape.WithSeed(record.Seed), scape.WithMaxEpisodeSteps(record.MaxEpisodeSteps))
	if start := toModelPose(env.Reset()); start != record.Start {
		return fmt.Errorf("episode %s start diverged: got %+v want %+v", id, start, record.Start)
	}
	for _, want := range record.Trajectory {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := env.Step(scape.ActionPair{want.Action0, want.Action1})
		if err != nil {
			return err
		}
		got := toModelPose(result.Pose)
		if got != want.Pose || result.Done != want.Done || result.Info != want.Info {
			return fmt.Errorf("episode %s diverged at step %d", id, want.Step)
		}
	}
	return nil
}

func (p *Polis) renderFrame(env *scape.TwoCarrierEnv, trail []scape.Point, req EpisodeRequest, step int) error {
	frame := render.FrameFrom(env)
	frame.Trail = trail
	frame.Title = fmt.Sprintf("step %d", step)
	path := render.FramePath(req.RenderDir, step)
	if err := render.SavePNG(frame, path, render.Options{DPI: req.RenderDPI}); err != nil {
		return fmt.Errorf("render step %d: %w", step, err)
	}
	return nil
}

func toModelPose(p scape.RodPose) model.Pose {
	return model.Pose{X: p.X, Y: p.Y, Theta: p.Theta}
}
