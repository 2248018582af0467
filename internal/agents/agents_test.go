package agents

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/entropy"
	"github.com/talgya/swarmsim/internal/world"
)

func testParams(t *testing.T, cfg config.Experiment) Params {
	t.Helper()
	box, err := world.NewBox(cfg.Bounds, cfg.Boundary)
	require.NoError(t, err)
	return ParamsFor(cfg, box, world.NewField(cfg.Seed, cfg.Dynamics.FieldScale, cfg.Dynamics.FieldTimeScale))
}

func TestInitializeWithinBounds(t *testing.T) {
	cfg := config.Default()
	rng := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 100; i++ {
		s, err := Initialize(cfg, rng)
		require.NoError(t, err)
		require.Len(t, s.Position, 2)
		for d := range s.Position {
			assert.GreaterOrEqual(t, s.Position[d], cfg.Bounds.Min[d])
			assert.Less(t, s.Position[d], cfg.Bounds.Max[d])
		}
		assert.GreaterOrEqual(t, s.Activation, -0.5)
		assert.LessOrEqual(t, s.Activation, 0.5)
		assert.LessOrEqual(t, s.Speed(), cfg.Dynamics.MaxSpeed+1e-12)
		assert.True(t, s.Active)
		assert.Equal(t, cfg.Dynamics.InitialEnergy, s.Energy)
	}
}

func TestInitializeRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*config.Experiment)
		field string
	}{
		{"zero volume", func(c *config.Experiment) { c.Bounds.Max = []float64{50, 0} }, "bounds"},
		{"negative scale", func(c *config.Experiment) {
			c.Dynamics.InitialActivation = config.Distribution{Kind: "normal", Scale: -1}
		}, "dynamics.initial_activation"},
		{"inverted uniform", func(c *config.Experiment) {
			c.Dynamics.InitialActivation = config.Distribution{Kind: "uniform", Low: 1, High: 0}
		}, "dynamics.initial_activation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mut(&cfg)
			_, err := Initialize(cfg, rand.New(rand.NewPCG(1, 1)))
			require.ErrorIs(t, err, config.ErrInvalid)
			var cerr *config.Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestInformedFraction(t *testing.T) {
	cfg := config.Default()
	cfg.Dynamics.InformedFraction = 1
	s, err := Initialize(cfg, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, RoleInformed, s.Role)

	cfg.Dynamics.InformedFraction = 0
	s, err = Initialize(cfg, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, RoleNaive, s.Role)
}

func TestSpawnIsPrefixCompatible(t *testing.T) {
	cfg := config.Default()
	seeds := entropy.NewManager(cfg.Seed)
	sp, err := NewSpawner(cfg, seeds)
	require.NoError(t, err)

	small := sp.SpawnPopulation(5)
	large := sp.SpawnPopulation(20)
	for i, a := range small {
		assert.Equal(t, AgentID(i), a.ID)
		assert.Equal(t, a.State, large[i].State)
		assert.Equal(t, a.Rand().Uint64(), large[i].Rand().Uint64())
	}
}

func TestStepClampsActivation(t *testing.T) {
	cfg := config.Default()
	cfg.Complexity = 50
	cfg.Dynamics.ActivationMin = -0.3
	cfg.Dynamics.ActivationMax = 0.4
	p := testParams(t, cfg)

	cur := State{Position: []float64{10, 10}, Velocity: []float64{0, 0}, Activation: 1, Active: true}
	hot := []State{{Position: []float64{11, 10}, Velocity: []float64{0, 0}, Activation: 1}}
	next := Step(cur, hot, p, 1, rand.New(rand.NewPCG(3, 3)))
	assert.Equal(t, 0.4, next.Activation)

	cur.Activation = -1
	cold := []State{{Position: []float64{11, 10}, Velocity: []float64{0, 0}, Activation: -1}}
	next = Step(cur, cold, p, 1, rand.New(rand.NewPCG(3, 3)))
	assert.Equal(t, -0.3, next.Activation)
}

func TestStepActivationFormula(t *testing.T) {
	cfg := config.Default()
	cfg.Dynamics.Noise = 0
	cfg.Dynamics.Decay = 0.5
	cfg.Dynamics.Coupling = 0.25
	cfg.Dynamics.FallbackCoupling = 0.2
	cfg.Complexity = 2
	p := testParams(t, cfg)

	cur := State{Position: []float64{1, 1}, Velocity: []float64{0, 0}, Activation: 0.4, Active: true}
	alone := Step(cur, nil, p, 1, rand.New(rand.NewPCG(1, 1)))
	assert.InDelta(t, math.Tanh(2*(0.5*0.4+0.25*0.2)), alone.Activation, 1e-12)

	neighbors := []State{
		{Position: []float64{2, 1}, Velocity: []float64{0, 0}, Activation: 0.6},
		{Position: []float64{1, 2}, Velocity: []float64{0, 0}, Activation: -0.2},
	}
	coupled := Step(cur, neighbors, p, 1, rand.New(rand.NewPCG(1, 1)))
	assert.InDelta(t, math.Tanh(2*(0.5*0.4+0.25*0.2)), coupled.Activation, 1e-12)

	cfg.Dynamics.Aggregation = config.AggregateMax
	p = testParams(t, cfg)
	maxed := Step(cur, neighbors, p, 1, rand.New(rand.NewPCG(1, 1)))
	assert.InDelta(t, math.Tanh(2*(0.5*0.4+0.25*0.6)), maxed.Activation, 1e-12)
}

func TestRandomPolicyIgnoresNeighbors(t *testing.T) {
	cfg := config.Default()
	cfg.Dynamics.Policy = config.PolicyRandom
	p := testParams(t, cfg)

	cur := State{Position: []float64{5, 5}, Velocity: []float64{0, 0}, Activation: 0.1, Active: true}
	neighbors := []State{{Position: []float64{6, 5}, Velocity: []float64{1, 0}, Activation: 0.9}}
	a := Step(cur, nil, p, 3, rand.New(rand.NewPCG(9, 9)))
	b := Step(cur, neighbors, p, 3, rand.New(rand.NewPCG(9, 9)))
	assert.Equal(t, a, b)
}

func TestStepIsPure(t *testing.T) {
	cfg := config.Default()
	cfg.Dynamics.Policy = config.PolicyBoids
	p := testParams(t, cfg)

	cur := State{Position: []float64{49.5, 0.2}, Velocity: []float64{2, -1}, Activation: 0.3, Active: true}
	neighbors := []State{{Position: []float64{1, 1}, Velocity: []float64{0, 1}, Activation: 0.5}}
	before := cur.Clone()
	nb := neighbors[0].Clone()

	a := Step(cur, neighbors, p, 2, rand.New(rand.NewPCG(4, 4)))
	b := Step(cur, neighbors, p, 2, rand.New(rand.NewPCG(4, 4)))
	assert.Equal(t, a, b)
	assert.Equal(t, before, cur)
	assert.Equal(t, nb, neighbors[0])

	for d := range a.Position {
		assert.GreaterOrEqual(t, a.Position[d], cfg.Bounds.Min[d])
		assert.Less(t, a.Position[d], cfg.Bounds.Max[d])
	}
	assert.LessOrEqual(t, a.Speed(), cfg.Dynamics.MaxSpeed+1e-12)
}

func TestPoliciesStayBounded(t *testing.T) {
	for _, policy := range []config.Policy{config.PolicyStandard, config.PolicyRandom, config.PolicyBoids, config.PolicyGreedy} {
		t.Run(string(policy), func(t *testing.T) {
			cfg := config.Default()
			cfg.Boundary = config.BoundaryReflect
			cfg.Dynamics.Policy = policy
			p := testParams(t, cfg)
			rng := rand.New(rand.NewPCG(5, 6))

			s, err := Initialize(cfg, rng)
			require.NoError(t, err)
			other := s.Clone()
			for step := 1; step <= 200; step++ {
				s = Step(s, []State{other}, p, step, rng)
				for d := range s.Position {
					require.GreaterOrEqual(t, s.Position[d], cfg.Bounds.Min[d])
					require.LessOrEqual(t, s.Position[d], cfg.Bounds.Max[d])
				}
				require.False(t, math.IsNaN(s.Activation))
			}
		})
	}
}

func TestEnergyExhaustionFreezes(t *testing.T) {
	cfg := config.Default()
	cfg.Dynamics.InitialEnergy = 1
	cfg.Dynamics.EnergyDecay = 0.4
	p := testParams(t, cfg)
	rng := rand.New(rand.NewPCG(8, 8))

	s := State{Position: []float64{3, 3}, Velocity: []float64{0.1, 0}, Activation: 0, Energy: 1, Active: true}
	for i := 1; i <= 2; i++ {
		s = Step(s, nil, p, i, rng)
		assert.True(t, s.Active)
	}
	s = Step(s, nil, p, 3, rng)
	assert.False(t, s.Active)
	assert.Zero(t, s.Energy)

	frozen := Step(s, nil, p, 4, rng)
	assert.Equal(t, s, frozen)
}

func TestAggregate(t *testing.T) {
	ns := []State{{Activation: 0.5}, {Activation: -0.1}, {Activation: 0.2}}
	assert.InDelta(t, 0.2, Aggregate(ns, config.AggregateMean), 1e-12)
	assert.InDelta(t, 0.5, Aggregate(ns, config.AggregateMax), 1e-12)
	assert.InDelta(t, 0.6, Aggregate(ns, config.AggregateSum), 1e-12)
	assert.Zero(t, Aggregate(nil, config.AggregateMax))
}

func TestRoleText(t *testing.T) {
	b, err := RoleInformed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "informed", string(b))

	var r Role
	require.NoError(t, r.UnmarshalText([]byte("naive")))
	assert.Equal(t, RoleNaive, r)
	assert.Error(t, r.UnmarshalText([]byte("scout")))
}
