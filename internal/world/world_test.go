package world

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/entropy"
)

func square(mode config.Boundary, size float64) Box {
	b, err := NewBox(config.Bounds{Min: []float64{0, 0}, Max: []float64{size, size}}, mode)
	if err != nil {
		panic(err)
	}
	return b
}

func TestNewBoxRejectsDegenerateBounds(t *testing.T) {
	_, err := NewBox(config.Bounds{Min: []float64{0, 0}, Max: []float64{1, 0}}, config.BoundaryWrap)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestConfine(t *testing.T) {
	tests := []struct {
		name    string
		mode    config.Boundary
		pos     []float64
		vel     []float64
		wantPos []float64
		wantVel []float64
	}{
		{"inside untouched", config.BoundaryReflect, []float64{3, 4}, []float64{1, 1}, []float64{3, 4}, []float64{1, 1}},
		{"reflect past max", config.BoundaryReflect, []float64{11, 5}, []float64{2, 0}, []float64{9, 5}, []float64{-2, 0}},
		{"reflect past min", config.BoundaryReflect, []float64{5, -1.5}, []float64{0, -3}, []float64{5, 1.5}, []float64{0, 3}},
		{"reflect twice", config.BoundaryReflect, []float64{21, 5}, []float64{1, 0}, []float64{1, 5}, []float64{1, 0}},
		{"wrap past max", config.BoundaryWrap, []float64{12, 5}, []float64{2, 0}, []float64{2, 5}, []float64{2, 0}},
		{"wrap past min", config.BoundaryWrap, []float64{-1, 5}, []float64{-1, 0}, []float64{9, 5}, []float64{-1, 0}},
		{"wrap exactly max", config.BoundaryWrap, []float64{10, 0}, []float64{0, 0}, []float64{0, 0}, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := square(tt.mode, 10)
			pos, vel := b.Confine(tt.pos, tt.vel)
			assert.InDeltaSlice(t, tt.wantPos, pos, 1e-12)
			assert.InDeltaSlice(t, tt.wantVel, vel, 1e-12)
		})
	}
}

func TestConfineDoesNotModifyInputs(t *testing.T) {
	b := square(config.BoundaryReflect, 10)
	pos, vel := []float64{12, 1}, []float64{1, 1}
	b.Confine(pos, vel)
	assert.Equal(t, []float64{12, 1}, pos)
	assert.Equal(t, []float64{1, 1}, vel)
}

func TestDeltaTakesShortestWayOnTorus(t *testing.T) {
	torus := square(config.BoundaryWrap, 10)
	assert.InDeltaSlice(t, []float64{-2, 0}, torus.Delta([]float64{1, 5}, []float64{9, 5}), 1e-12)
	assert.InDelta(t, 4.0, torus.Distance2([]float64{1, 5}, []float64{9, 5}), 1e-12)

	walled := square(config.BoundaryReflect, 10)
	assert.InDeltaSlice(t, []float64{8, 0}, walled.Delta([]float64{1, 5}, []float64{9, 5}), 1e-12)
	assert.InDelta(t, 64.0, walled.Distance2([]float64{1, 5}, []float64{9, 5}), 1e-12)
}

func TestSampleStaysInside(t *testing.T) {
	b, err := NewBox(config.Bounds{Min: []float64{-1, 2, 5}, Max: []float64{1, 3, 9}}, config.BoundaryReflect)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, b.Volume(), 1e-12)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		p := b.Sample(rng)
		for d := range p {
			assert.GreaterOrEqual(t, p[d], b.Min[d])
			assert.Less(t, p[d], b.Max[d])
		}
	}
}

func randomPositions(n int, b Box, seed int64) [][]float64 {
	rng := entropy.Derive(seed, entropy.StreamPositions)
	out := make([][]float64, n)
	for i := range out {
		out[i] = b.Sample(rng)
	}
	return out
}

func TestConnectorSymmetry(t *testing.T) {
	box := square(config.BoundaryWrap, 20)
	positions := randomPositions(40, box, 3)

	rules := []config.Connectivity{
		{Rule: config.RuleDistance, Radius: 4},
		{Rule: config.RuleKNearest, K: 3},
		{Rule: config.RuleFixedRandom, Degree: 4},
	}
	for _, rule := range rules {
		t.Run(string(rule.Rule), func(t *testing.T) {
			c, err := NewConnector(rule, box, len(positions), entropy.Derive(3, entropy.StreamTopology))
			require.NoError(t, err)
			g := c.Build(positions, nil)
			assert.True(t, g.Symmetric())
			assert.False(t, g.Directed())
			for i := 0; i < g.Len(); i++ {
				assert.False(t, g.Has(i, i), "self loop on %d", i)
			}
			assert.Len(t, g.Edges(), g.EdgeCount())
		})
	}
}

func TestDistanceRuleMatchesBruteForce(t *testing.T) {
	box := square(config.BoundaryWrap, 10)
	positions := randomPositions(25, box, 11)
	c, err := NewConnector(config.Connectivity{Rule: config.RuleDistance, Radius: 2.5}, box, 25, nil)
	require.NoError(t, err)
	g := c.Build(positions, nil)

	for i := range positions {
		for j := range positions {
			if i == j {
				continue
			}
			within := math.Sqrt(box.Distance2(positions[i], positions[j])) <= 2.5
			assert.Equal(t, within, g.Has(i, j), "pair %d,%d", i, j)
		}
	}
}

func TestKNearestDegree(t *testing.T) {
	box := square(config.BoundaryReflect, 10)
	positions := randomPositions(15, box, 5)

	directed, err := NewConnector(config.Connectivity{Rule: config.RuleKNearest, K: 4, Directed: true}, box, 15, nil)
	require.NoError(t, err)
	g := directed.Build(positions, nil)
	assert.True(t, g.Directed())
	for i := 0; i < g.Len(); i++ {
		assert.Equal(t, 4, g.Degree(i))
	}
	assert.Equal(t, 60, g.EdgeCount())

	mirrored, err := NewConnector(config.Connectivity{Rule: config.RuleKNearest, K: 4}, box, 15, nil)
	require.NoError(t, err)
	u := mirrored.Build(positions, nil)
	for i := 0; i < u.Len(); i++ {
		assert.GreaterOrEqual(t, u.Degree(i), 4)
	}
}

func TestKNearestWithFewerAgentsThanK(t *testing.T) {
	box := square(config.BoundaryReflect, 10)
	c, err := NewConnector(config.Connectivity{Rule: config.RuleKNearest, K: 6}, box, 3, nil)
	require.NoError(t, err)
	g := c.Build(randomPositions(3, box, 1), nil)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 2, g.Degree(i))
	}
}

func TestInactiveAgentsHaveNoEdges(t *testing.T) {
	box := square(config.BoundaryWrap, 5)
	positions := randomPositions(10, box, 8)
	active := make([]bool, 10)
	for i := range active {
		active[i] = i%3 != 0
	}

	for _, rule := range []config.Connectivity{
		{Rule: config.RuleDistance, Radius: 10},
		{Rule: config.RuleKNearest, K: 2},
		{Rule: config.RuleFixedRandom, Degree: 9},
	} {
		c, err := NewConnector(rule, box, 10, entropy.Derive(8, entropy.StreamTopology))
		require.NoError(t, err)
		g := c.Build(positions, active)
		for i := 0; i < 10; i++ {
			if !active[i] {
				assert.Zero(t, g.Degree(i), "%s agent %d", rule.Rule, i)
			}
			for _, j := range g.Neighbors(i) {
				assert.True(t, active[j])
			}
		}
	}
}

func TestFixedRandomGraphIsHeldConstant(t *testing.T) {
	box := square(config.BoundaryWrap, 10)
	c, err := NewConnector(config.Connectivity{Rule: config.RuleFixedRandom, Degree: 3}, box, 30, entropy.Derive(1, entropy.StreamTopology))
	require.NoError(t, err)
	assert.True(t, c.Fixed())
	assert.False(t, c.RebuildDue(1))

	a := c.Build(randomPositions(30, box, 1), nil)
	b := c.Build(randomPositions(30, box, 2), nil)
	assert.Same(t, a, b)

	again, err := NewConnector(config.Connectivity{Rule: config.RuleFixedRandom, Degree: 3}, box, 30, entropy.Derive(1, entropy.StreamTopology))
	require.NoError(t, err)
	assert.Equal(t, a.Edges(), again.Build(nil, nil).Edges())
}

func TestRebuildCadence(t *testing.T) {
	box := square(config.BoundaryWrap, 10)
	c, err := NewConnector(config.Connectivity{Rule: config.RuleDistance, Radius: 1, Cadence: 3}, box, 4, nil)
	require.NoError(t, err)
	var due []int
	for step := 1; step <= 7; step++ {
		if c.RebuildDue(step) {
			due = append(due, step)
		}
	}
	assert.Equal(t, []int{1, 4, 7}, due)
}

func TestGraphBasics(t *testing.T) {
	g := NewGraph(4, false, []Edge{{0, 1}, {1, 2}, {2, 0}, {2, 0}, {3, 3}})
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, []int{1, 2}, g.Neighbors(0))
	assert.Equal(t, 0, g.Degree(3))
	assert.InDelta(t, 1.5, g.MeanDegree(), 1e-12)
	assert.Equal(t, []Edge{{0, 1}, {0, 2}, {1, 2}}, g.Edges())

	ug := g.Undirected()
	assert.Equal(t, 4, ug.Nodes().Len())
	assert.Equal(t, 2, ug.From(0).Len())

	restricted := g.Restrict([]bool{true, true, false, true})
	assert.Equal(t, 1, restricted.EdgeCount())
	assert.Same(t, g, g.Restrict([]bool{true, true, true, true}))
	assert.Equal(t, 0, EmptyGraph(3).EdgeCount())

	d := NewGraph(3, true, []Edge{{0, 1}})
	assert.False(t, d.Symmetric())
	assert.Equal(t, 1, d.Undirected().From(1).Len())
}

func TestFieldRangeAndDeterminism(t *testing.T) {
	f := NewField(17, 0.1, 0.01)
	g := NewField(17, 0.1, 0.01)
	for i := 0; i < 50; i++ {
		pos := []float64{float64(i) * 0.7, float64(i) * 1.3}
		v := f.At(pos, i)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
		assert.Equal(t, v, g.At(pos, i))
	}
	assert.Len(t, f.Gradient([]float64{1, 2}, 0), 2)
	assert.Len(t, f.Gradient([]float64{1, 2, 3, 4}, 0), 4)
	assert.NotPanics(t, func() { f.At([]float64{1}, 3) })
}
