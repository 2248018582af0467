// The local update rule. Step is a pure function of the snapshot it is given plus the
// agent's own stream, so an environment can evaluate every agent against the same
// previous state in any order.
package agents

import (
	"math"
	"math/rand/v2"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/world"
)

// Params is the run-wide input to the update rule.
type Params struct {
	Dynamics   config.Dynamics
	Complexity float64 // gain of the tanh squashing
	Box        world.Box
	Field      *world.Field // nil disables the environment drive
}

// ParamsFor collects the update parameters of an experiment.
func ParamsFor(cfg config.Experiment, box world.Box, field *world.Field) Params {
	return Params{
		Dynamics:   cfg.Dynamics,
		Complexity: cfg.Complexity,
		Box:        box,
		Field:      field,
	}
}

// Step computes the next state of an agent from its current state and its neighbours'
// states at the same step. Inactive agents are returned unchanged.
//
// Every active call consumes exactly 1+D normal draws from rng regardless of policy or
// neighbourhood, keeping the stream aligned across configurations.
func Step(cur State, neighbors []State, p Params, step int, rng *rand.Rand) State {
	next := cur.Clone()
	if !cur.Active {
		return next
	}
	d := p.Dynamics

	next.Activation = activate(cur, neighbors, p, step, rng.NormFloat64())

	walk := make([]float64, len(cur.Velocity))
	for i := range walk {
		walk[i] = d.StepScale * rng.NormFloat64()
	}

	switch d.Policy {
	case config.PolicyRandom:
		copy(next.Velocity, walk)
	case config.PolicyBoids:
		steer(next.Velocity, cur, neighbors, p)
		add(next.Velocity, walk)
	case config.PolicyGreedy:
		climb(next.Velocity, cur, p, step)
		add(next.Velocity, walk)
	default:
		add(next.Velocity, walk)
	}
	limitSpeed(next.Velocity, d.MaxSpeed)

	moved := make([]float64, len(cur.Position))
	for i := range moved {
		moved[i] = cur.Position[i] + next.Velocity[i]
	}
	next.Position, next.Velocity = p.Box.Confine(moved, next.Velocity)

	if d.EnergyDecay > 0 {
		next.Energy = math.Max(0, cur.Energy-d.EnergyDecay)
		if next.Energy == 0 {
			next.Active = false
		}
	}
	return next
}

// activate applies a' = clamp(tanh(complexity * (decay*a + coupling*c + drive + noise*z))).
func activate(cur State, neighbors []State, p Params, step int, z float64) float64 {
	d := p.Dynamics
	c := d.FallbackCoupling
	if d.Policy != config.PolicyRandom && len(neighbors) > 0 {
		c = Aggregate(neighbors, d.Aggregation)
	}

	drive := 0.0
	if cur.Role == RoleInformed && p.Field != nil {
		drive = d.FieldStrength * p.Field.At(cur.Position, step)
	}

	pre := d.Decay*cur.Activation + d.Coupling*c + drive + d.Noise*z
	return clamp(math.Tanh(p.Complexity*pre), d.ActivationMin, d.ActivationMax)
}

// Aggregate combines neighbour activations. It returns 0 for an empty neighbourhood.
func Aggregate(neighbors []State, how config.Aggregation) float64 {
	if len(neighbors) == 0 {
		return 0
	}
	switch how {
	case config.AggregateMax:
		m := math.Inf(-1)
		for _, n := range neighbors {
			m = math.Max(m, n.Activation)
		}
		return m
	case config.AggregateSum:
		sum := 0.0
		for _, n := range neighbors {
			sum += n.Activation
		}
		return sum
	default:
		sum := 0.0
		for _, n := range neighbors {
			sum += n.Activation
		}
		return sum / float64(len(neighbors))
	}
}

// steer relaxes vel toward the neighbours' mean velocity and nudges it toward their
// centroid.
func steer(vel []float64, cur State, neighbors []State, p Params) {
	if len(neighbors) == 0 {
		return
	}
	d := p.Dynamics
	k := float64(len(neighbors))
	meanVel := make([]float64, len(vel))
	offset := make([]float64, len(vel))
	for _, n := range neighbors {
		delta := p.Box.Delta(cur.Position, n.Position)
		for i := range vel {
			meanVel[i] += n.Velocity[i] / k
			offset[i] += delta[i] / k
		}
	}
	for i := range vel {
		vel[i] += d.Alignment*(meanVel[i]-cur.Velocity[i]) + d.StepScale*offset[i]
	}
}

// climb relaxes vel toward full speed along the field gradient.
func climb(vel []float64, cur State, p Params, step int) {
	if p.Field == nil {
		return
	}
	d := p.Dynamics
	grad := p.Field.Gradient(cur.Position, step)
	g := norm(grad)
	if g == 0 {
		return
	}
	for i := range vel {
		target := d.MaxSpeed * grad[i] / g
		vel[i] += d.Alignment * (target - cur.Velocity[i])
	}
}

func add(dst, v []float64) {
	for i := range dst {
		dst[i] += v[i]
	}
}
