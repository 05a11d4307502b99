// Package twocarrier is the public entry point for driving the two-carrier
// rod environment from a learning agent and for recording episodes.
package twocarrier

import (
	"twocarrier/internal/scape"
)

const (
	ActionUp    = scape.ActionUp
	ActionDown  = scape.ActionDown
	ActionLeft  = scape.ActionLeft
	ActionRight = scape.ActionRight
)

var (
	ErrNotReset      = scape.ErrNotReset
	ErrInvalidAction = scape.ErrInvalidAction
)

type (
	Pose             = scape.RodPose
	Point            = scape.Point
	Wall             = scape.WallRegion
	StepResult       = scape.StepResult
	ActionSpace      = scape.ActionSpace
	ObservationSpace = scape.ObservationSpace
)

// Env is one environment instance. It is not safe for concurrent use.
type Env struct {
	inner *scape.TwoCarrierEnv
}

// NewEnv builds an environment whose reset sampler is seeded with seed.
func NewEnv(seed int64) *Env {
	return &Env{inner: scape.NewTwoCarrierEnv(scape.WithSeed(seed))}
}

func (e *Env) Seed(seed int64) int64 { return e.inner.Seed(seed) }

func (e *Env) Reset() Pose { return e.inner.Reset() }

// Step applies one action code per carrier channel.
func (e *Env) Step(a0, a1 int) (StepResult, error) {
	return e.inner.Step(scape.ActionPair{a0, a1})
}

func (e *Env) Pose() Pose { return e.inner.Pose() }

func (e *Env) Carriers() (front, back Point) { return e.inner.Carriers() }

func (e *Env) Walls() []Wall { return e.inner.Walls() }

func (e *Env) Steps() int { return e.inner.Steps() }

func (e *Env) MaxEpisodeSteps() int { return e.inner.MaxEpisodeSteps }

func (e *Env) ActionSpace() ActionSpace { return e.inner.ActionSpace() }

func (e *Env) ObservationSpace() ObservationSpace { return e.inner.ObservationSpace() }
