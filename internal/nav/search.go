package nav

import (
	"container/heap"

	"github.com/go-gl/mathgl/mgl64"
)

// LinkSource supplies edges that are not stored on the primitives themselves,
// i.e. the cross-structure links kept by the navmesh coordinator.
type LinkSource interface {
	LinksOf(p *Primitive) []Edge
}

// Graph walks primitive edges followed by links.
type Graph struct {
	Links LinkSource
}

// Neighbors calls visit for every edge and link leaving p.
func (g Graph) Neighbors(p *Primitive, visit func(Edge)) {
	for _, e := range p.edges {
		visit(e)
	}
	if g.Links == nil {
		return
	}
	for _, e := range g.Links.LinksOf(p) {
		visit(e)
	}
}

// Goal describes where a search may stop.
type Goal struct {
	// Primitive is the target the heuristic aims at; reaching it ends the search.
	Primitive *Primitive
	// Accept optionally ends the search early on any primitive it returns true for.
	Accept func(*Primitive) bool
}

func (g Goal) reached(p *Primitive) bool {
	return p == g.Primitive || (g.Accept != nil && g.Accept(p))
}

// SearchStatus is the state of a time-sliced search.
type SearchStatus uint8

const (
	SearchRunning SearchStatus = iota
	SearchFound
	SearchExhausted
)

func (s SearchStatus) String() string {
	switch s {
	case SearchRunning:
		return "running"
	case SearchFound:
		return "found"
	default:
		return "exhausted"
	}
}

// SearchOption configures a Search.
type SearchOption func(*Search)

// WithFilter restricts the search to primitives allow returns true for.
// The start primitive is always allowed.
func WithFilter(allow func(*Primitive) bool) SearchOption {
	return func(s *Search) { s.allow = allow }
}

// Search is an A* search over primitives that can be advanced a bounded number
// of expansions at a time. Primitives destroyed between steps are skipped.
type Search struct {
	graph Graph
	start *Primitive
	goal  Goal
	aim   mgl64.Vec3
	allow func(*Primitive) bool

	open   searchHeap
	nodes  map[*Primitive]*searchNode
	closed map[*Primitive]struct{}

	expanded int
	status   SearchStatus
	found    *searchNode
}

// searchNode represents a primitive in the open/closed sets.
type searchNode struct {
	prim   *Primitive
	parent *searchNode
	gCost  float64
	fCost  float64
	index  int
}

// NewSearch prepares a search from start towards goal.
func NewSearch(graph Graph, start *Primitive, goal Goal, opts ...SearchOption) *Search {
	s := &Search{
		graph:  graph,
		start:  start,
		goal:   goal,
		aim:    goal.Primitive.Position(),
		nodes:  make(map[*Primitive]*searchNode, 64),
		closed: make(map[*Primitive]struct{}, 64),
	}
	for _, opt := range opts {
		opt(s)
	}

	heap.Init(&s.open)
	root := &searchNode{prim: start}
	root.fCost = Distance(start.Position(), s.aim)
	heap.Push(&s.open, root)
	s.nodes[start] = root
	return s
}

// Status returns the current state.
func (s *Search) Status() SearchStatus {
	return s.status
}

// Expanded returns the number of primitives expanded so far.
func (s *Search) Expanded() int {
	return s.expanded
}

// Step expands at most budget primitives and returns the resulting status.
func (s *Search) Step(budget int) SearchStatus {
	for range budget {
		if s.status != SearchRunning {
			break
		}
		s.expand()
	}
	return s.status
}

func (s *Search) expand() {
	if s.open.Len() == 0 {
		s.status = SearchExhausted
		return
	}

	current := heap.Pop(&s.open).(*searchNode)
	delete(s.nodes, current.prim)
	if _, done := s.closed[current.prim]; done {
		return
	}
	if !current.prim.Alive() {
		return
	}
	s.closed[current.prim] = struct{}{}
	s.expanded++

	if s.goal.reached(current.prim) {
		s.found = current
		s.status = SearchFound
		return
	}

	s.graph.Neighbors(current.prim, func(e Edge) {
		next := e.To
		if _, done := s.closed[next]; done {
			return
		}
		if !next.Alive() {
			return
		}
		if s.allow != nil && !s.allow(next) {
			return
		}

		g := current.gCost + e.Cost
		if n, open := s.nodes[next]; open {
			if g >= n.gCost {
				return
			}
			n.gCost = g
			n.fCost = g + Distance(next.Position(), s.aim)
			n.parent = current
			heap.Fix(&s.open, n.index)
			return
		}

		n := &searchNode{prim: next, parent: current, gCost: g}
		n.fCost = g + Distance(next.Position(), s.aim)
		heap.Push(&s.open, n)
		s.nodes[next] = n
	})
}

// Path returns the found path stamped with ts, or false while running or when exhausted.
func (s *Search) Path(ts Timestamp) (*Path, bool) {
	if s.status != SearchFound {
		return nil, false
	}

	prims := make([]*Primitive, 0, 32)
	for n := s.found; n != nil; n = n.parent {
		prims = append(prims, n.prim)
	}
	for i, j := 0, len(prims)-1; i < j; i, j = i+1, j-1 {
		prims[i], prims[j] = prims[j], prims[i]
	}

	return &Path{Primitives: prims, Cost: s.found.gCost, Stamp: ts}, true
}

// FindPath runs a complete search capped at maxIterations expansions.
func FindPath(graph Graph, start *Primitive, goal Goal, maxIterations int, ts Timestamp, opts ...SearchOption) (*Path, bool) {
	if !start.Alive() || !goal.Primitive.Alive() {
		return nil, false
	}
	s := NewSearch(graph, start, goal, opts...)
	s.Step(maxIterations)
	return s.Path(ts)
}

// searchHeap implements container/heap for the open list (min-heap by fCost).
type searchHeap []*searchNode

func (h searchHeap) Len() int           { return len(h) }
func (h searchHeap) Less(i, j int) bool { return h[i].fCost < h[j].fCost }
func (h searchHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *searchHeap) Push(x any)        { n := x.(*searchNode); n.index = len(*h); *h = append(*h, n) }
func (h *searchHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil // GC
	node.index = -1
	*h = old[:n-1]
	return node
}
