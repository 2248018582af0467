package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/talgya/swarmsim/internal/config"
	"github.com/talgya/swarmsim/internal/engine"
)

// complexity scores the neighbour topology: g(k̄)·(½ + ½C) per state, averaged over the
// window. g(k) = (k/k*)·e^(1−k/k*) rises from 0, peaks at 1 when the mean degree k̄ equals
// the optimal degree k*, and decays as the swarm over-connects. C is the mean local
// clustering coefficient.
type complexity struct{}

func (complexity) Name() string { return config.MetricComplexity }

func (complexity) Window(win engine.Trajectory, p config.MetricParams) Sample {
	return Sample{Value: meanOverStates(win, func(s engine.CollectiveState) float64 {
		return stateComplexity(s, p.OptimalDegree)
	})}
}

func stateComplexity(s engine.CollectiveState, optimal float64) float64 {
	if s.Graph == nil || s.Len() < 2 {
		return 0
	}
	return DegreeResponse(s.Graph.MeanDegree(), optimal) * (0.5 + 0.5*MeanClustering(s.Graph.Undirected()))
}

// DegreeResponse is the peaked response g(k) = (k/k*)·e^(1−k/k*), with g(k*) = 1.
func DegreeResponse(k, optimal float64) float64 {
	if k <= 0 || optimal <= 0 {
		return 0
	}
	r := k / optimal
	return r * math.Exp(1-r)
}

// MeanClustering returns the mean local clustering coefficient over every node. Nodes
// with fewer than two neighbours contribute 0. Terms are summed in ascending node ID
// order, so the result is bit-identical across calls.
func MeanClustering(g *simple.UndirectedGraph) float64 {
	nodes := graph.NodesOf(g.Nodes())
	if len(nodes) == 0 {
		return 0
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	total := 0.0
	for _, u := range nodes {
		nbrs := graph.NodesOf(g.From(u.ID()))
		k := len(nbrs)
		if k < 2 {
			continue
		}
		links := 0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				if g.HasEdgeBetween(nbrs[i].ID(), nbrs[j].ID()) {
					links++
				}
			}
		}
		total += 2 * float64(links) / float64(k*(k-1))
	}
	return total / float64(len(nodes))
}
