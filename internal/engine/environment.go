package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/swarmsim/internal/agents"
	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/entropy"
	"github.com/talgya/swarmsim/internal/world"
)

// Environment holds the agents of one run and advances them in lock step.
type Environment struct {
	cfg       config.Experiment
	box       world.Box
	connector *world.Connector
	field     *world.Field
	params    agents.Params
	agents    []*agents.Agent
	current   CollectiveState
}

// New constructs the environment for an experiment: N agents drawn from per-agent
// streams, the environment field, and the initial neighbour graph. Any invalid parameter
// is a *config.Error and no environment is returned.
func New(cfg config.Experiment) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	seeds := entropy.NewManager(cfg.Seed)
	box, err := world.NewBox(cfg.Bounds, cfg.Boundary)
	if err != nil {
		return nil, err
	}
	connector, err := world.NewConnector(cfg.Connectivity, box, cfg.SwarmSize, seeds.Derive(entropy.StreamTopology))
	if err != nil {
		return nil, err
	}
	spawner, err := agents.NewSpawner(cfg, seeds)
	if err != nil {
		return nil, fmt.Errorf("spawn agents: %w", err)
	}
	field := world.NewField(seeds.Int63(entropy.StreamField), cfg.Dynamics.FieldScale, cfg.Dynamics.FieldTimeScale)

	e := &Environment{
		cfg:       cfg,
		box:       box,
		connector: connector,
		field:     field,
		params:    agents.ParamsFor(cfg, box, field),
		agents:    spawner.SpawnPopulation(cfg.SwarmSize),
	}

	states := make([]agents.State, len(e.agents))
	for i, a := range e.agents {
		states[i] = a.State.Clone()
	}
	e.current = CollectiveState{Step: 0, Agents: states}
	e.current.Graph = e.ComputeNeighborGraph(states)

	slog.Debug("environment constructed",
		"name", cfg.Name,
		"agents", cfg.SwarmSize,
		"rule", cfg.Connectivity.Rule,
		"edges", e.current.Graph.EdgeCount(),
	)
	return e, nil
}

// Config returns the experiment the environment was built from.
func (e *Environment) Config() config.Experiment {
	return e.cfg
}

// Box returns the spatial bounds.
func (e *Environment) Box() world.Box {
	return e.box
}

// Field returns the environment field.
func (e *Environment) Field() *world.Field {
	return e.field
}

// Agents returns the agents in ID order.
func (e *Environment) Agents() []*agents.Agent {
	return e.agents
}

// Snapshot returns the current collective state.
func (e *Environment) Snapshot() CollectiveState {
	return e.current
}

// ComputeNeighborGraph applies the connectivity rule to the given states. Inactive agents
// get no edges.
func (e *Environment) ComputeNeighborGraph(states []agents.State) *world.NeighborGraph {
	positions := make([][]float64, len(states))
	active := make([]bool, len(states))
	for i, s := range states {
		positions[i] = s.Position
		active[i] = s.Active
	}
	return e.connector.Build(positions, active)
}

// Step advances every agent by one step and returns the new collective state. Each agent
// reads only the previous snapshot, so the result is independent of iteration order.
func (e *Environment) Step() CollectiveState {
	prev := e.current
	step := prev.Step + 1

	next := make([]agents.State, len(prev.Agents))
	var scratch []agents.State
	for i, a := range e.agents {
		scratch = scratch[:0]
		for _, j := range prev.Graph.Neighbors(i) {
			scratch = append(scratch, prev.Agents[j])
		}
		next[i] = agents.Step(prev.Agents[i], scratch, e.params, step, a.Rand())
		a.State = next[i]
	}

	var graph *world.NeighborGraph
	if e.connector.RebuildDue(step) {
		graph = e.ComputeNeighborGraph(next)
	} else {
		active := make([]bool, len(next))
		for i, s := range next {
			active[i] = s.Active
		}
		graph = prev.Graph.Restrict(active)
	}

	e.current = CollectiveState{Step: step, Agents: next, Graph: graph}
	return e.current
}
