package world

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/talgya/swarmsim/internal/config"
)

// Connector builds neighbour graphs from agent positions under one connectivity rule.
//
// Position-based rules compare every pair of agents, so a rebuild is O(N²) in swarm size
// (k-nearest adds a sort per agent). This is the dominant cost for large swarms; raise the
// rebuild cadence to amortise it.
type Connector struct {
	rule  config.Connectivity
	box   Box
	fixed *NeighborGraph // fixed-random only, drawn once per run
}

// NewConnector prepares a connector for n agents. The rng is consumed only by the
// fixed-random rule, which draws its graph here and holds it for the whole run.
func NewConnector(rule config.Connectivity, box Box, n int, rng *rand.Rand) (*Connector, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	c := &Connector{rule: rule, box: box}
	if rule.Rule == config.RuleFixedRandom {
		c.fixed = randomGraph(n, rule.Degree, rng)
	}
	return c, nil
}

// Fixed reports whether the graph is held constant across the run.
func (c *Connector) Fixed() bool {
	return c.fixed != nil
}

// RebuildDue reports whether a position-based graph must be rebuilt before the given
// step (1-based).
func (c *Connector) RebuildDue(step int) bool {
	if c.Fixed() {
		return false
	}
	if c.rule.Cadence <= 1 {
		return true
	}
	return (step-1)%c.rule.Cadence == 0
}

// Build returns the neighbour graph for the given positions. Inactive agents get no
// edges. active may be nil, meaning every agent is active.
func (c *Connector) Build(positions [][]float64, active []bool) *NeighborGraph {
	isActive := func(i int) bool { return active == nil || active[i] }

	switch c.rule.Rule {
	case config.RuleFixedRandom:
		return c.fixed.Restrict(active)
	case config.RuleKNearest:
		return c.kNearest(positions, isActive)
	case config.RuleDistance:
		return c.distance(positions, isActive)
	default:
		panic(fmt.Sprintf("world: unvalidated connectivity rule %q", c.rule.Rule))
	}
}

func (c *Connector) distance(positions [][]float64, isActive func(int) bool) *NeighborGraph {
	n := len(positions)
	r2 := c.rule.Radius * c.rule.Radius
	b := newGraphBuilder(n, false)
	for i := 0; i < n; i++ {
		if !isActive(i) {
			continue
		}
		for j := i + 1; j < n; j++ {
			if !isActive(j) {
				continue
			}
			if c.box.Distance2(positions[i], positions[j]) <= r2 {
				b.add(i, j)
			}
		}
	}
	return b.build()
}

func (c *Connector) kNearest(positions [][]float64, isActive func(int) bool) *NeighborGraph {
	type candidate struct {
		id int
		d2 float64
	}

	n := len(positions)
	b := newGraphBuilder(n, c.rule.Directed)
	candidates := make([]candidate, 0, n)
	for i := 0; i < n; i++ {
		if !isActive(i) {
			continue
		}
		candidates = candidates[:0]
		for j := 0; j < n; j++ {
			if j == i || !isActive(j) {
				continue
			}
			candidates = append(candidates, candidate{id: j, d2: c.box.Distance2(positions[i], positions[j])})
		}
		// Ties break on ID so the graph never depends on sort stability.
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].d2 != candidates[b].d2 {
				return candidates[a].d2 < candidates[b].d2
			}
			return candidates[a].id < candidates[b].id
		})
		k := c.rule.K
		if k > len(candidates) {
			k = len(candidates)
		}
		for _, cand := range candidates[:k] {
			b.add(i, cand.id)
		}
	}
	return b.build()
}

// randomGraph draws an Erdős–Rényi graph with the given expected mean degree.
func randomGraph(n int, degree float64, rng *rand.Rand) *NeighborGraph {
	b := newGraphBuilder(n, false)
	if n < 2 {
		return b.build()
	}
	p := degree / float64(n-1)
	if p > 1 {
		p = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				b.add(i, j)
			}
		}
	}
	return b.build()
}
