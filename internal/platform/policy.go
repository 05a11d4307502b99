package platform

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"twocarrier/internal/scape"
)

// ErrPolicyExhausted ends an episode cleanly when a scripted policy runs out.
var ErrPolicyExhausted = errors.New("policy exhausted")

// Policy chooses the next action pair from the current pose.
type Policy interface {
	Name() string
	Act(ctx context.Context, pose scape.RodPose) (scape.ActionPair, error)
}

type RandomPolicy struct {
	rng   *rand.Rand
	space scape.ActionSpace
}

func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{
		rng:   rand.New(rand.NewSource(seed)),
		space: scape.ActionSpace{Channels: [2]int{len(scape.ActionCodebook), len(scape.ActionCodebook)}},
	}
}

func (*RandomPolicy) Name() string { return "random" }

func (p *RandomPolicy) Act(context.Context, scape.RodPose) (scape.ActionPair, error) {
	return p.space.Sample(p.rng), nil
}

// ScriptedPolicy replays a fixed action list, optionally looping.
type ScriptedPolicy struct {
	Actions []scape.ActionPair
	Loop    bool

	next int
}

func (*ScriptedPolicy) Name() string { return "scripted" }

func (p *ScriptedPolicy) Act(context.Context, scape.RodPose) (scape.ActionPair, error) {
	if len(p.Actions) == 0 {
		return scape.ActionPair{}, ErrPolicyExhausted
	}
	if p.next >= len(p.Actions) {
		if !p.Loop {
			return scape.ActionPair{}, ErrPolicyExhausted
		}
		p.next = 0
	}
	action := p.Actions[p.next]
	p.next++
	return action, nil
}

// CenteringPolicy drives the rod toward a target point using matched action
// pairs, which never rotate the rod, and holds with a cancelling left/right pair.
type CenteringPolicy struct {
	TargetX float64
	TargetY float64
}

func DefaultCenteringPolicy() CenteringPolicy {
	return CenteringPolicy{TargetX: 0, TargetY: 2.5}
}

func (CenteringPolicy) Name() string { return "centering" }

func (p CenteringPolicy) Act(_ context.Context, pose scape.RodPose) (scape.ActionPair, error) {
	dx := p.TargetX - pose.X
	dy := p.TargetY - pose.Y
	stride := 2 * scape.TwoCarrierStepSize

	switch {
	case math.Abs(dx) < stride && math.Abs(dy) < stride:
		return scape.ActionPair{scape.ActionLeft, scape.ActionRight}, nil
	case math.Abs(dx) >= math.Abs(dy):
		if dx > 0 {
			return scape.ActionPair{scape.ActionRight, scape.ActionRight}, nil
		}
		return scape.ActionPair{scape.ActionLeft, scape.ActionLeft}, nil
	default:
		if dy > 0 {
			return scape.ActionPair{scape.ActionUp, scape.ActionUp}, nil
		}
		return scape.ActionPair{scape.ActionDown, scape.ActionDown}, nil
	}
}

// PolicyAgent exposes a Policy as a scape.StepAgent.
type PolicyAgent struct {
	AgentID string
	Policy  Policy
}

func (a PolicyAgent) ID() string {
	if a.AgentID != "" {
		return a.AgentID
	}
	return a.Policy.Name()
}

func (a PolicyAgent) RunStep(ctx context.Context, input []float64) ([]float64, error) {
	var pose scape.RodPose
	if len(input) > 0 {
		pose.X = input[0]
	}
	if len(input) > 1 {
		pose.Y = input[1]
	}
	if len(input) > 2 {
		pose.Theta = input[2]
	}
	action, err := a.Policy.Act(ctx, pose)
	if err != nil {
		return nil, err
	}
	return []float64{scape.EncodeActionCode(action[0]), scape.EncodeActionCode(action[1])}, nil
}
