package scape

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

const (
	ActionUp = iota
	ActionDown
	ActionLeft
	ActionRight
)

const (
	TwoCarrierStepSize        = 0.02
	TwoCarrierHalfRod         = 0.5
	TwoCarrierMaxEpisodeSteps = 200
	TwoCarrierCrashInfo       = "crash wall"

	twoCarrierResetMinX = -3.9
	twoCarrierResetMaxX = 3.9
	twoCarrierResetY    = 0.2
)

var (
	ErrNotReset      = errors.New("environment must be reset before step")
	ErrInvalidAction = errors.New("action code out of range")
)

// ActionCodebook maps a discrete action code to its planar displacement.
var ActionCodebook = [4]Point{
	{X: 0, Y: TwoCarrierStepSize},
	{X: 0, Y: -TwoCarrierStepSize},
	{X: -TwoCarrierStepSize, Y: 0},
	{X: TwoCarrierStepSize, Y: 0},
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// RodPose is the center position and heading of the rod.
type RodPose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// ActionPair holds one code per carrier channel.
type ActionPair [2]int

func (a ActionPair) Validate() error {
	for i, code := range a {
		if code < 0 || code >= len(ActionCodebook) {
			return fmt.Errorf("%w: channel %d code %d", ErrInvalidAction, i, code)
		}
	}
	return nil
}

// Integrate applies one action pair to the pose in place. Only the first
// channel's displacement feeds the rotation terms.
func (p *RodPose) Integrate(a ActionPair) {
	d0 := ActionCodebook[a[0]]
	d1 := ActionCodebook[a[1]]
	disp := d0.Add(d1)

	rot := 0.0
	if disp.X == 0 {
		rot += -math.Atan2(d0.X*math.Sin(p.Theta), TwoCarrierHalfRod)
	}
	if disp.Y == 0 {
		rot += math.Atan2(d0.Y*math.Cos(p.Theta), TwoCarrierHalfRod)
	}

	p.X += disp.X
	p.Y += disp.Y
	p.Theta += rot
}

// Carriers returns the front and back carrier positions for the pose.
func (p RodPose) Carriers() (front, back Point) {
	dx := TwoCarrierHalfRod * math.Cos(p.Theta)
	dy := TwoCarrierHalfRod * math.Sin(p.Theta)
	front = Point{X: p.X + dx, Y: p.Y + dy}
	back = Point{X: p.X - dx, Y: p.Y - dy}
	return front, back
}

func (p RodPose) Vector() []float64 {
	return []float64{p.X, p.Y, p.Theta}
}

type EpisodeState int

const (
	EpisodeUninitialized EpisodeState = iota
	EpisodeReady
	EpisodeRunning
	EpisodeTerminated
)

func (s EpisodeState) String() string {
	switch s {
	case EpisodeUninitialized:
		return "uninitialized"
	case EpisodeReady:
		return "ready"
	case EpisodeRunning:
		return "running"
	case EpisodeTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("episode-state(%d)", int(s))
	}
}

type StepResult struct {
	Pose   RodPose `json:"pose"`
	Reward float64 `json:"reward"`
	Done   bool    `json:"done"`
	Info   string  `json:"info"`
}

type TwoCarrierOption func(*TwoCarrierEnv)

func WithSeed(seed int64) TwoCarrierOption {
	return func(e *TwoCarrierEnv) {
		e.Seed(seed)
	}
}

// WithRand injects the reset sampler. Its seed is not known, so SeedValue
// reports false until Seed is called.
func WithRand(rng *rand.Rand) TwoCarrierOption {
	return func(e *TwoCarrierEnv) {
		if rng != nil {
			e.rng = rng
			e.seed = 0
			e.seeded = false
		}
	}
}

// WithMaxEpisodeSteps sets the advertised episode length. n <= 0 keeps the default.
func WithMaxEpisodeSteps(n int) TwoCarrierOption {
	return func(e *TwoCarrierEnv) {
		if n > 0 {
			e.MaxEpisodeSteps = n
		}
	}
}

func WithWalls(walls []WallRegion) TwoCarrierOption {
	return func(e *TwoCarrierEnv) {
		e.walls = append([]WallRegion(nil), walls...)
	}
}

// TwoCarrierEnv is a single rod episode. It is not safe for concurrent use.
type TwoCarrierEnv struct {
	// MaxEpisodeSteps is informational; Step never enforces it.
	MaxEpisodeSteps int

	rng    *rand.Rand
	seed   int64
	seeded bool
	walls  []WallRegion

	pose  RodPose
	front Point
	back  Point

	state EpisodeState
	steps int
	done  bool
	info  string
}

func NewTwoCarrierEnv(opts ...TwoCarrierOption) *TwoCarrierEnv {
	env := &TwoCarrierEnv{
		MaxEpisodeSteps: TwoCarrierMaxEpisodeSteps,
		walls:           DefaultWalls(),
	}
	for _, opt := range opts {
		opt(env)
	}
	if env.rng == nil {
		env.Seed(time.Now().UnixNano())
	}
	env.front, env.back = env.pose.Carriers()
	return env
}

// Seed reseeds the reset sampler and returns the seed in use.
func (e *TwoCarrierEnv) Seed(seed int64) int64 {
	e.seed = seed
	e.seeded = true
	e.rng = rand.New(rand.NewSource(seed))
	return seed
}

func (e *TwoCarrierEnv) Reset() RodPose {
	x := twoCarrierResetMinX + e.rng.Float64()*(twoCarrierResetMaxX-twoCarrierResetMinX)
	e.pose = RodPose{X: x, Y: twoCarrierResetY, Theta: 0}
	e.front, e.back = e.pose.Carriers()
	e.steps = 0
	e.done = false
	e.info = ""
	e.state = EpisodeReady
	return e.pose
}

func (e *TwoCarrierEnv) Step(action ActionPair) (StepResult, error) {
	if e.state == EpisodeUninitialized {
		return StepResult{}, ErrNotReset
	}
	if err := action.Validate(); err != nil {
		return StepResult{}, err
	}

	e.pose.Integrate(action)
	e.front, e.back = e.pose.Carriers()
	e.steps++

	result := StepResult{Pose: e.pose}
	if _, hit := DetectCollision(e.front, e.back, e.walls); hit {
		result.Done = true
		result.Info = TwoCarrierCrashInfo
	}
	e.done = result.Done
	e.info = result.Info
	if e.done {
		e.state = EpisodeTerminated
	} else {
		e.state = EpisodeRunning
	}
	return result, nil
}

// SetPose places the rod directly, for scripted scenarios and replays.
func (e *TwoCarrierEnv) SetPose(pose RodPose) {
	e.pose = pose
	e.front, e.back = e.pose.Carriers()
	if e.state == EpisodeUninitialized {
		e.state = EpisodeReady
	}
}

func (e *TwoCarrierEnv) Pose() RodPose { return e.pose }

func (e *TwoCarrierEnv) Carriers() (front, back Point) { return e.front, e.back }

func (e *TwoCarrierEnv) Walls() []WallRegion {
	return append([]WallRegion(nil), e.walls...)
}

func (e *TwoCarrierEnv) State() EpisodeState { return e.state }

func (e *TwoCarrierEnv) Steps() int { return e.steps }

func (e *TwoCarrierEnv) Done() (bool, string) { return e.done, e.info }

// SeedValue returns the last seed applied. ok is false when the sampler
// came from WithRand.
func (e *TwoCarrierEnv) SeedValue() (seed int64, ok bool) { return e.seed, e.seeded }

func (e *TwoCarrierEnv) ActionSpace() ActionSpace {
	return ActionSpace{Channels: [2]int{len(ActionCodebook), len(ActionCodebook)}}
}

func (e *TwoCarrierEnv) ObservationSpace() ObservationSpace {
	return ObservationSpace{Low: -10, High: 10, Shape: 3}
}

type ActionSpace struct {
	Channels [2]int
}

func (s ActionSpace) Contains(a ActionPair) bool {
	for i, code := range a {
		if code < 0 || code >= s.Channels[i] {
			return false
		}
	}
	return true
}

func (s ActionSpace) Sample(rng *rand.Rand) ActionPair {
	return ActionPair{rng.Intn(s.Channels[0]), rng.Intn(s.Channels[1])}
}

// ObservationSpace is the nominal box for (x, y, theta). The env never clamps to it.
type ObservationSpace struct {
	Low   float64
	High  float64
	Shape int
}

func (s ObservationSpace) Contains(p RodPose) bool {
	for _, v := range p.Vector() {
		if v < s.Low || v > s.High {
			return false
		}
	}
	return true
}
