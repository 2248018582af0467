package world

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// Edge is an ordered pair of agent IDs. For undirected graphs From < To.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// NeighborGraph is the interaction relation of one step. It is built once and never
// mutated: the environment replaces it wholesale when it rebuilds.
type NeighborGraph struct {
	adj      [][]int // sorted out-neighbours per agent
	directed bool
	arcs     int // directed adjacency entries
}

// graphBuilder accumulates edges before freezing them into a NeighborGraph.
type graphBuilder struct {
	adj      []map[int]struct{}
	directed bool
}

func newGraphBuilder(n int, directed bool) *graphBuilder {
	adj := make([]map[int]struct{}, n)
	for i := range adj {
		adj[i] = make(map[int]struct{})
	}
	return &graphBuilder{adj: adj, directed: directed}
}

// add links i to j. Undirected builders also link j to i. Self loops are dropped.
func (b *graphBuilder) add(i, j int) {
	if i == j {
		return
	}
	b.adj[i][j] = struct{}{}
	if !b.directed {
		b.adj[j][i] = struct{}{}
	}
}

func (b *graphBuilder) build() *NeighborGraph {
	g := &NeighborGraph{adj: make([][]int, len(b.adj)), directed: b.directed}
	for i, set := range b.adj {
		list := make([]int, 0, len(set))
		for j := range set {
			list = append(list, j)
		}
		sort.Ints(list)
		g.adj[i] = list
		g.arcs += len(list)
	}
	return g
}

// NewGraph builds a graph over n agents from explicit edges.
func NewGraph(n int, directed bool, edges []Edge) *NeighborGraph {
	b := newGraphBuilder(n, directed)
	for _, e := range edges {
		b.add(e.From, e.To)
	}
	return b.build()
}

// EmptyGraph returns a graph over n agents with no edges.
func EmptyGraph(n int) *NeighborGraph {
	return newGraphBuilder(n, false).build()
}

// Len returns the number of agents.
func (g *NeighborGraph) Len() int {
	return len(g.adj)
}

// Directed reports whether edges are one-way.
func (g *NeighborGraph) Directed() bool {
	return g.directed
}

// Neighbors returns the sorted neighbour IDs of agent i. The slice is shared; callers
// must not modify it.
func (g *NeighborGraph) Neighbors(i int) []int {
	return g.adj[i]
}

// Degree returns the out-degree of agent i.
func (g *NeighborGraph) Degree(i int) int {
	return len(g.adj[i])
}

// Has reports whether i links to j.
func (g *NeighborGraph) Has(i, j int) bool {
	list := g.adj[i]
	k := sort.SearchInts(list, j)
	return k < len(list) && list[k] == j
}

// EdgeCount returns the number of edges: unordered pairs for undirected graphs, arcs
// for directed ones.
func (g *NeighborGraph) EdgeCount() int {
	if g.directed {
		return g.arcs
	}
	return g.arcs / 2
}

// Edges lists every edge in (From, To) order.
func (g *NeighborGraph) Edges() []Edge {
	out := make([]Edge, 0, g.EdgeCount())
	for i, list := range g.adj {
		for _, j := range list {
			if !g.directed && j < i {
				continue
			}
			out = append(out, Edge{From: i, To: j})
		}
	}
	return out
}

// MeanDegree returns the mean out-degree.
func (g *NeighborGraph) MeanDegree() float64 {
	if len(g.adj) == 0 {
		return 0
	}
	return float64(g.arcs) / float64(len(g.adj))
}

// Symmetric reports whether every edge i→j has a matching j→i.
func (g *NeighborGraph) Symmetric() bool {
	for i, list := range g.adj {
		for _, j := range list {
			if !g.Has(j, i) {
				return false
			}
		}
	}
	return true
}

// Restrict drops every edge touching an inactive agent. It returns g itself when nothing
// needs dropping. active may be nil, meaning every agent is active.
func (g *NeighborGraph) Restrict(active []bool) *NeighborGraph {
	if active == nil {
		return g
	}
	drop := false
	for i, list := range g.adj {
		if !active[i] && len(list) > 0 {
			drop = true
			break
		}
		for _, j := range list {
			if !active[j] {
				drop = true
				break
			}
		}
		if drop {
			break
		}
	}
	if !drop {
		return g
	}

	b := newGraphBuilder(len(g.adj), g.directed)
	for i, list := range g.adj {
		if !active[i] {
			continue
		}
		for _, j := range list {
			if active[j] {
				b.add(i, j)
			}
		}
	}
	return b.build()
}

// Undirected returns a gonum view of the graph with edge direction dropped, for graph
// statistics.
func (g *NeighborGraph) Undirected() *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for i := range g.adj {
		ug.AddNode(simple.Node(int64(i)))
	}
	for i, list := range g.adj {
		for _, j := range list {
			if i == j || ug.HasEdgeBetween(int64(i), int64(j)) {
				continue
			}
			ug.SetEdge(ug.NewEdge(simple.Node(int64(i)), simple.Node(int64(j))))
		}
	}
	return ug
}
