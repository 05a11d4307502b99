package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"twocarrier/internal/agent"
	"twocarrier/internal/config"
	"twocarrier/internal/logging"
	"twocarrier/internal/model"
	"twocarrier/internal/platform"
	"twocarrier/internal/render"
	"twocarrier/internal/scape"
	"twocarrier/internal/storage"
)

var stdout io.Writer = os.Stdout

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "demo":
		return runDemo(ctx, args[1:])
	case "render":
		return runRender(ctx, args[1:])
	case "episodes":
		return runEpisodes(ctx, args[1:])
	case "replay":
		return runReplay(ctx, args[1:])
	case "evaluate":
		return runEvaluate(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	case "import":
		return runImport(ctx, args[1:])
	case "delete":
		return runDelete(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// commonFlags are shared by every subcommand. Flags set on the command line
// override values loaded from the config file and environment.
type commonFlags struct {
	configDir *string
	logLevel  *string
	storeKind *string
	dbPath    *string
}

func bindCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configDir: fs.String("config-dir", ".", "directory holding "+config.FileName),
		logLevel:  fs.String("log-level", "", "log level: debug|info|warn|error"),
		storeKind: fs.String("store", "", "store backend: memory|sqlite"),
		dbPath:    fs.String("db-path", "", "sqlite database path"),
	}
}

func loadConfig(fs *flag.FlagSet, common commonFlags) (config.Config, error) {
	cfg, err := config.Load(*common.configDir)
	if err != nil {
		return config.Config{}, err
	}
	setFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	if setFlags["log-level"] {
		cfg.LogLevel = *common.logLevel
	}
	if setFlags["store"] {
		cfg.Store.Kind = *common.storeKind
	}
	if setFlags["db-path"] {
		cfg.Store.SQLitePath = *common.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if cfg.Store.Kind == "sqlite" && !storage.SQLiteAvailable {
		return config.Config{}, errors.New("store.kind=sqlite needs a binary built with -tags sqlite")
	}
	return cfg, nil
}

type session struct {
	cfg    config.Config
	logger *zap.Logger
	store  storage.Store
	polis  *platform.Polis
}

func openSession(ctx context.Context, cfg config.Config) (*session, error) {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStore(cfg.Store.Kind, cfg.Store.SQLitePath)
	if err != nil {
		return nil, err
	}
	polis := platform.NewPolis(platform.Config{
		Store:           store,
		Logger:          logger,
		MaxEpisodeSteps: cfg.Env.MaxEpisodeSteps,
	})
	if err := polis.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, store: store, polis: polis}, nil
}

func (s *session) Close() {
	_ = storage.CloseIfSupported(s.store)
	_ = s.logger.Sync()
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(fs, common)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(stdout, "initialized store=%s scapes=%v\n", cfg.Store.Kind, s.polis.RegisteredScapes())
	return nil
}

func runDemo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	seed := fs.Int64("seed", 0, "env seed; 0 uses the configured or clock seed")
	steps := fs.Int("steps", 0, "max steps; 0 uses demo.steps")
	policyName := fs.String("policy", "random", "policy: random|centering")
	renderDir := fs.String("render-dir", "", "write one PNG per step to this directory")
	quiet := fs.Bool("quiet", false, "suppress per-step output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(fs, common)
	if err != nil {
		return err
	}
	if *seed == 0 {
		*seed = cfg.Env.Seed
	}
	if *steps <= 0 {
		*steps = cfg.Demo.Steps
	}
	if *renderDir == "" {
		*renderDir = cfg.Render.Dir
	}
	policy, err := policyFromName(*policyName, *seed)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	req := platform.EpisodeRequest{
		Seed:      *seed,
		MaxSteps:  *steps,
		Policy:    policy,
		RenderDir: *renderDir,
		RenderDPI: cfg.Render.DPI,
	}
	if !*quiet {
		req.OnStep = func(step model.StepRecord) {
			fmt.Fprintf(stdout, "[%.6f %.6f %.6f] %g %t %s\n",
				step.Pose.X, step.Pose.Y, step.Pose.Theta, step.Reward, step.Done, step.Info)
		}
	}
	record, err := s.polis.RunEpisode(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "episode_id=%s seed=%d policy=%s steps=%s max_episode_steps=%d done=%t info=%q\n",
		record.ID, record.Seed, record.Policy, humanize.Comma(int64(record.Steps)), record.MaxEpisodeSteps, record.Done, record.Info)
	return nil
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	seed := fs.Int64("seed", 0, "env seed; 0 uses the configured or clock seed")
	out := fs.String("out", "two_carrier.png", "output PNG path")
	x := fs.Float64("x", 0, "place the rod center at x instead of a reset pose")
	y := fs.Float64("y", 0, "place the rod center at y")
	theta := fs.Float64("theta", 0, "rod heading in radians")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(fs, common)
	if err != nil {
		return err
	}
	if *seed == 0 {
		*seed = cfg.Env.Seed
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	env := scape.NewTwoCarrierEnv(scape.WithSeed(*seed))
	pose := env.Reset()
	placed := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "x", "y", "theta":
			placed = true
		}
	})
	if placed {
		pose = scape.RodPose{X: *x, Y: *y, Theta: *theta}
		env.SetPose(pose)
	}

	frame := render.FrameFrom(env)
	frame.Title = fmt.Sprintf("x=%.3f y=%.3f theta=%.3f", pose.X, pose.Y, pose.Theta)
	if err := render.SavePNG(frame, *out, render.Options{DPI: cfg.Render.DPI}); err != nil {
		return err
	}
	front, back := env.Carriers()
	wall, hit := scape.DetectCollision(front, back, env.Walls())
	fmt.Fprintf(stdout, "rendered=%s seed=%d collision=%t wall=%s\n", *out, *seed, hit, wall)
	return nil
}

func runEpisodes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("episodes", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	limit := fs.Int("limit", 20, "max episodes to list")
	jsonOut := fs.Bool("json", false, "emit episodes as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}
	cfg, err := loadConfig(fs, common)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	items, err := s.polis.ListEpisodes(ctx, *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	if len(items) == 0 {
		fmt.Fprintln(stdout, "no episodes found")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(stdout, "episode_id=%s created=%s policy=%s seed=%d steps=%s done=%t info=%q\n",
			item.ID,
			humanize.Time(item.CreatedAt),
			item.Policy,
			item.Seed,
			humanize.Comma(int64(item.Steps)),
			item.Done,
			item.Info,
		)
	}
	return nil
}

func runReplay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	id := fs.String("id", "", "episode id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("replay requires --id")
	}
	cfg, err := loadConfig(fs, common)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.polis.ReplayEpisode(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "replay ok episode_id=%s\n", *id)
	return nil
}

func runEvaluate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	policyName := fs.String("policy", "centering", "agent: random|centering|controller")
	profile := fs.String("profile", "default", "controller morphology profile: default|planar")
	mode := fs.String("mode", "gt", "evaluation mode: gt|validation|test|benchmark")
	seed := fs.Int64("seed", 1, "random policy seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(fs, common)
	if err != nil {
		return err
	}
	evalAgent, err := evaluationAgent(*policyName, *profile, *seed)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	fitness, trace, err := s.polis.Evaluate(ctx, scape.TwoCarrierScapeName, evalAgent, *mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "scape=%s policy=%s mode=%v fitness=%.6f steps_survived=%v crashes=%v\n",
		scape.TwoCarrierScapeName, evalAgent.ID(), trace["mode"], float64(fitness), trace["steps_survived"], trace["crashes"])
	return nil
}

func evaluationAgent(name, profile string, seed int64) (scape.Agent, error) {
	if name == "controller" {
		return agent.NewController(agent.ControllerConfig{
			ID:      "controller",
			Scape:   scape.TwoCarrierScapeName,
			Profile: profile,
			Bias:    agent.HoldBias(),
		})
	}
	policy, err := policyFromName(name, seed)
	if err != nil {
		return nil, err
	}
	return platform.PolicyAgent{Policy: policy}, nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	id := fs.String("id", "", "episode id")
	latest := fs.Bool("latest", false, "export the newest stored episode")
	outDir := fs.String("out", "exports", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" && !*latest {
		return errors.New("export requires --id or --latest")
	}
	cfg, err := loadConfig(fs, common)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if *id == "" {
		items, err := s.polis.ListEpisodes(ctx, 1)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return errors.New("no episodes found")
		}
		*id = items[0].ID
	}
	dir, err := s.polis.ExportEpisode(ctx, *id, *outDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported episode_id=%s dir=%s\n", *id, dir)
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	limit := fs.Int("limit", 100, "newest episodes to summarize")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}
	cfg, err := loadConfig(fs, common)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.polis.EpisodeStats(ctx, *limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "episodes=%s crashes=%s crash_rate=%.3f mean_steps=%.2f std_steps=%.2f min_steps=%d max_steps=%d\n",
		humanize.Comma(int64(summary.Episodes)),
		humanize.Comma(int64(summary.Crashes)),
		summary.CrashRate,
		summary.MeanSteps,
		summary.StdSteps,
		summary.MinSteps,
		summary.MaxSteps,
	)
	return nil
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	dir := fs.String("dir", "exports", "directory an episode was exported to")
	id := fs.String("id", "", "episode id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("import requires --id")
	}
	cfg, err := loadConfig(fs, common)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	record, err := s.polis.ImportEpisode(ctx, *dir, *id)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported episode_id=%s steps=%s done=%t\n", record.ID, humanize.Comma(int64(record.Steps)), record.Done)
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	common := bindCommonFlags(fs)
	id := fs.String("id", "", "episode id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("delete requires --id")
	}
	cfg, err := loadConfig(fs, common)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.polis.DeleteEpisode(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted episode_id=%s\n", *id)
	return nil
}

func policyFromName(name string, seed int64) (platform.Policy, error) {
	switch name {
	case "random":
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return platform.NewRandomPolicy(seed), nil
	case "centering":
		return platform.DefaultCenteringPolicy(), nil
	default:
		return nil, fmt.Errorf("unsupported policy: %s", name)
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: twocarrierctl <init|demo|render|episodes|replay|evaluate|export|import|delete|stats> [flags]\n"+
		"the default memory store lives for one command; episodes, replay, export, import, delete and stats\n"+
		"need --store sqlite from a binary built with -tags sqlite", msg)
}
