package engine

import (
	"github.com/talgya/swarmsim/internal/agents"
	"github.com/talgya/swarmsim/internal/world"
)

// CollectiveState is the snapshot of every agent plus the neighbour graph at one step.
// Agents[i] is the state of agent i. Graph is the relation computed from these positions.
// A recorded state is never modified.
type CollectiveState struct {
	Step   int                  `json:"step"`
	Agents []agents.State       `json:"agents"`
	Graph  *world.NeighborGraph `json:"-"`
}

// Len returns the swarm size.
func (s CollectiveState) Len() int {
	return len(s.Agents)
}

// Activations returns the activation of every agent in ID order.
func (s CollectiveState) Activations() []float64 {
	out := make([]float64, len(s.Agents))
	for i, a := range s.Agents {
		out[i] = a.Activation
	}
	return out
}

// Positions returns the position of every agent in ID order. The inner slices are shared.
func (s CollectiveState) Positions() [][]float64 {
	out := make([][]float64, len(s.Agents))
	for i, a := range s.Agents {
		out[i] = a.Position
	}
	return out
}

// ActiveMask reports which agents are active.
func (s CollectiveState) ActiveMask() []bool {
	out := make([]bool, len(s.Agents))
	for i, a := range s.Agents {
		out[i] = a.Active
	}
	return out
}

// ActiveCount returns the number of active agents.
func (s CollectiveState) ActiveCount() int {
	n := 0
	for _, a := range s.Agents {
		if a.Active {
			n++
		}
	}
	return n
}

// Trajectory is the time-ordered sequence of states for one run. Index k holds step k, so
// a run of S steps has S+1 entries.
type Trajectory []CollectiveState

// Len returns the number of recorded states.
func (t Trajectory) Len() int {
	return len(t)
}

// SwarmSize returns the number of agents, or 0 for an empty trajectory.
func (t Trajectory) SwarmSize() int {
	if len(t) == 0 {
		return 0
	}
	return t[0].Len()
}

// Window returns states [start, start+w).
func (t Trajectory) Window(start, w int) Trajectory {
	return t[start : start+w]
}
