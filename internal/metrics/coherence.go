package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/engine"
)

// coherence is 1 minus the mean per-axis standard deviation of active agents' velocities,
// clamped to [0, 1]. A swarm moving in lock step scores 1.
type coherence struct{}

func (coherence) Name() string { return config.MetricCoherence }

func (coherence) Window(win engine.Trajectory, _ config.MetricParams) Sample {
	return Sample{Value: meanOverStates(win, stateCoherence)}
}

func stateCoherence(s engine.CollectiveState) float64 {
	var vel [][]float64
	for _, a := range s.Agents {
		if a.Active {
			vel = append(vel, a.Velocity)
		}
	}
	if len(vel) == 0 {
		return 0
	}
	dim := len(vel[0])
	if dim == 0 {
		return 1
	}
	axis := make([]float64, len(vel))
	spread := 0.0
	for d := 0; d < dim; d++ {
		for i, v := range vel {
			axis[i] = v[d]
		}
		_, std := stat.PopMeanStdDev(axis, nil)
		spread += std
	}
	return math.Max(0, math.Min(1, 1-spread/float64(dim)))
}

// flow is the fraction of active agents with at least one neighbour, averaged over the
// window: how much of the swarm can pass information on.
type flow struct{}

func (flow) Name() string { return config.MetricFlow }

func (flow) Window(win engine.Trajectory, _ config.MetricParams) Sample {
	return Sample{Value: meanOverStates(win, stateFlow)}
}

func stateFlow(s engine.CollectiveState) float64 {
	active, linked := 0, 0
	for i, a := range s.Agents {
		if !a.Active {
			continue
		}
		active++
		if s.Graph != nil && s.Graph.Degree(i) > 0 {
			linked++
		}
	}
	if active == 0 {
		return 0
	}
	return float64(linked) / float64(active)
}
