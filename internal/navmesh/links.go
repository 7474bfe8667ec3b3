package navmesh

import (
	"slices"

	"github.com/udisondev/navcore/internal/nav"
)

// LinkGraph is a set of undirected edges kept outside the primitives they join.
type LinkGraph struct {
	edges map[*nav.Primitive][]nav.Edge
	count int
}

// NewLinkGraph creates an empty link graph.
func NewLinkGraph() *LinkGraph {
	return &LinkGraph{edges: make(map[*nav.Primitive][]nav.Edge)}
}

// LinksOf returns the links leaving p. The slice must not be modified.
func (g *LinkGraph) LinksOf(p *nav.Primitive) []nav.Edge {
	return g.edges[p]
}

// Len returns the number of undirected links.
func (g *LinkGraph) Len() int {
	return g.count
}

// Has reports whether a and b are linked.
func (g *LinkGraph) Has(a, b *nav.Primitive) bool {
	return slices.ContainsFunc(g.edges[a], func(e nav.Edge) bool { return e.To == b })
}

// ForEach calls fn once per link, lower primitive ID first.
func (g *LinkGraph) ForEach(fn func(a, b *nav.Primitive, cost float64)) {
	for a, edges := range g.edges {
		for _, e := range edges {
			if a.ID() < e.To.ID() {
				fn(a, e.To, e.Cost)
			}
		}
	}
}

func (g *LinkGraph) add(a, b *nav.Primitive, cost float64) bool {
	if a == b || g.Has(a, b) {
		return false
	}
	g.edges[a] = append(g.edges[a], nav.Edge{To: b, Cost: cost})
	g.edges[b] = append(g.edges[b], nav.Edge{To: a, Cost: cost})
	g.count++
	return true
}

func (g *LinkGraph) remove(a, b *nav.Primitive) bool {
	if !g.detach(a, b) {
		return false
	}
	g.detach(b, a)
	g.count--
	return true
}

func (g *LinkGraph) detach(from, to *nav.Primitive) bool {
	edges := g.edges[from]
	i := slices.IndexFunc(edges, func(e nav.Edge) bool { return e.To == to })
	if i < 0 {
		return false
	}
	edges = slices.Delete(edges, i, i+1)
	if len(edges) == 0 {
		delete(g.edges, from)
	} else {
		g.edges[from] = edges
	}
	return true
}

// neighbors returns a copy of the primitives linked to p.
func (g *LinkGraph) neighbors(p *nav.Primitive) []*nav.Primitive {
	edges := g.edges[p]
	out := make([]*nav.Primitive, len(edges))
	for i, e := range edges {
		out[i] = e.To
	}
	return out
}
