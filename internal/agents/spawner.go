// Agent initialisation. Every agent draws from its own indexed streams, so agent i starts
// in the same place whether the swarm has 10 members or 1000.
package agents

import (
	"math"
	"math/rand/v2"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/entropy"
	"github.com/talgya/swarmsim/internal/world"
)

// draws groups the streams consumed while initialising one agent.
type draws struct {
	position   *rand.Rand
	activation *rand.Rand
	velocity   *rand.Rand
	role       *rand.Rand
}

// Initialize draws an initial state: a uniform position inside the bounds, an activation
// from the configured distribution, a random velocity, and a role. It fails with a
// *config.Error when the bounds are degenerate or the distribution is invalid.
func Initialize(cfg config.Experiment, rng *rand.Rand) (State, error) {
	box, err := checkInit(cfg)
	if err != nil {
		return State{}, err
	}
	return initialState(cfg, box, draws{rng, rng, rng, rng}), nil
}

func checkInit(cfg config.Experiment) (world.Box, error) {
	box, err := world.NewBox(cfg.Bounds, cfg.Boundary)
	if err != nil {
		return world.Box{}, err
	}
	if err := cfg.Dynamics.InitialActivation.Validate(); err != nil {
		return world.Box{}, err
	}
	return box, nil
}

func initialState(cfg config.Experiment, box world.Box, d draws) State {
	dyn := cfg.Dynamics
	s := State{
		Position: box.Sample(d.position),
		Energy:   dyn.InitialEnergy,
		Active:   true,
	}

	dist := dyn.InitialActivation
	switch dist.Kind {
	case "normal":
		s.Activation = dist.Mean + dist.Scale*d.activation.NormFloat64()
	default:
		s.Activation = dist.Low + d.activation.Float64()*(dist.High-dist.Low)
	}
	s.Activation = clamp(s.Activation, dyn.ActivationMin, dyn.ActivationMax)

	s.Velocity = make([]float64, box.Dim())
	for i := range s.Velocity {
		s.Velocity[i] = d.velocity.NormFloat64() * dyn.InitialSpeed
	}
	limitSpeed(s.Velocity, dyn.MaxSpeed)

	if d.role.Float64() < dyn.InformedFraction {
		s.Role = RoleInformed
	}
	return s
}

// Spawner creates the agents of one run from the run's seed manager.
type Spawner struct {
	cfg   config.Experiment
	box   world.Box
	seeds entropy.Manager
}

// NewSpawner checks the initialisation parameters once for the whole population.
func NewSpawner(cfg config.Experiment, seeds entropy.Manager) (*Spawner, error) {
	box, err := checkInit(cfg)
	if err != nil {
		return nil, err
	}
	return &Spawner{cfg: cfg, box: box, seeds: seeds}, nil
}

// Spawn creates the agent with the given ID.
func (s *Spawner) Spawn(id AgentID) *Agent {
	idx := uint64(id)
	st := initialState(s.cfg, s.box, draws{
		position:   s.seeds.DeriveIndexed(entropy.StreamPositions, idx),
		activation: s.seeds.DeriveIndexed(entropy.StreamActivation, idx),
		velocity:   s.seeds.DeriveIndexed(entropy.StreamVelocity, idx),
		role:       s.seeds.DeriveIndexed(entropy.StreamRoles, idx),
	})
	return &Agent{
		ID:    id,
		State: st,
		rng:   s.seeds.DeriveIndexed(entropy.StreamDynamics, idx),
	}
}

// SpawnPopulation creates agents 0..n-1.
func (s *Spawner) SpawnPopulation(n int) []*Agent {
	out := make([]*Agent, n)
	for i := range out {
		out[i] = s.Spawn(AgentID(i))
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return clamp(0, lo, hi)
	}
	return math.Max(lo, math.Min(hi, v))
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// limitSpeed scales v in place so its norm does not exceed limit.
func limitSpeed(v []float64, limit float64) {
	n := norm(v)
	if n <= limit || n == 0 {
		return
	}
	f := limit / n
	for i := range v {
		v[i] *= f
	}
}
