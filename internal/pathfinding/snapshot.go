package pathfinding

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/navcore/internal/nav"
	"github.com/udisondev/navcore/internal/navmesh"
)

// PrimitiveView is a value copy of one primitive.
type PrimitiveView struct {
	ID       nav.ID
	Domain   nav.Domain
	Level    nav.Level
	Owner    uint64
	Position mgl64.Vec3
	Parent   nav.ID // zero when the primitive has no cluster
}

// EdgeView is a value copy of one edge or link.
type EdgeView struct {
	A, B     nav.ID
	From, To mgl64.Vec3
	Cost     float64
}

// Snapshot is a read-only copy of the navigation state.
type Snapshot struct {
	Stamp      nav.Timestamp
	Primitives []PrimitiveView
	Edges      []EdgeView // intra-structure edges at both levels
	Links      []EdgeView
	HighLinks  []EdgeView
}

// Snapshot copies every live primitive, edge and link. It never mutates state.
func (p *Pathfinding) Snapshot() Snapshot {
	snap := Snapshot{Stamp: p.clock.Current()}
	if p.unloaded {
		return snap
	}

	for _, prim := range p.primitives() {
		view := PrimitiveView{
			ID:       prim.ID(),
			Domain:   prim.Domain(),
			Level:    prim.Level(),
			Owner:    prim.Owner().OwnerID(),
			Position: prim.Position(),
		}
		if parent := prim.Parent(); parent != nil {
			view.Parent = parent.ID()
		}
		snap.Primitives = append(snap.Primitives, view)

		for _, e := range prim.Edges() {
			if prim.ID() < e.To.ID() {
				snap.Edges = append(snap.Edges, edgeView(prim, e.To, e.Cost))
			}
		}
	}
	snap.Links = linkViews(p.links.Links())
	snap.HighLinks = linkViews(p.links.HighLinks())
	return snap
}

// primitives returns every live primitive, voxel maps first, each owner ordered by ID.
func (p *Pathfinding) primitives() []*nav.Primitive {
	var out []*nav.Primitive
	for _, m := range p.voxel.Maps() {
		out = append(out, m.Primitives(nav.LevelLow)...)
		out = append(out, m.Primitives(nav.LevelHigh)...)
	}
	for _, s := range p.grid.Structures() {
		out = append(out, s.Primitives(nav.LevelLow)...)
		out = append(out, s.Primitives(nav.LevelHigh)...)
	}
	return out
}

func edgeView(a, b *nav.Primitive, cost float64) EdgeView {
	return EdgeView{A: a.ID(), B: b.ID(), From: a.Position(), To: b.Position(), Cost: cost}
}

func linkViews(g *navmesh.LinkGraph) []EdgeView {
	var out []EdgeView
	g.ForEach(func(a, b *nav.Primitive, cost float64) {
		out = append(out, edgeView(a, b, cost))
	})
	slices.SortFunc(out, func(x, y EdgeView) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return out
}

// Color is an RGB debug draw colour.
type Color struct {
	R, G, B uint8
}

var (
	ColorLowPrimitive  = Color{255, 255, 255}
	ColorHighPrimitive = Color{255, 165, 0}
	ColorEdge          = Color{128, 128, 128}
	ColorLink          = Color{240, 230, 140} // khaki
	ColorHighLink      = Color{144, 238, 144} // light green
	ColorHierarchy     = Color{100, 149, 237}
)

// DrawSink receives debug geometry. It only ever gets value copies.
type DrawSink interface {
	DrawPoint(pos mgl64.Vec3, c Color)
	DrawLine(from, to mgl64.Vec3, c Color)
}

// DrawMode selects what DebugDraw emits.
type DrawMode uint8

const (
	DrawPrimitives DrawMode = 1 << iota
	DrawEdges
	DrawLinks
	DrawHighLinks
	DrawHierarchy

	DrawAll = DrawPrimitives | DrawEdges | DrawLinks | DrawHighLinks | DrawHierarchy
)

// DebugDraw renders a snapshot into sink.
func (p *Pathfinding) DebugDraw(sink DrawSink, mode DrawMode) {
	snap := p.Snapshot()

	positions := make(map[nav.ID]mgl64.Vec3, len(snap.Primitives))
	for _, v := range snap.Primitives {
		positions[v.ID] = v.Position
	}

	for _, v := range snap.Primitives {
		if mode&DrawPrimitives != 0 {
			c := ColorLowPrimitive
			if v.Level == nav.LevelHigh {
				c = ColorHighPrimitive
			}
			sink.DrawPoint(v.Position, c)
		}
		if mode&DrawHierarchy != 0 && v.Parent != 0 {
			sink.DrawLine(v.Position, positions[v.Parent], ColorHierarchy)
		}
	}
	if mode&DrawEdges != 0 {
		for _, e := range snap.Edges {
			sink.DrawLine(e.From, e.To, ColorEdge)
		}
	}
	if mode&DrawLinks != 0 {
		for _, e := range snap.Links {
			sink.DrawLine(e.From, e.To, ColorLink)
		}
	}
	if mode&DrawHighLinks != 0 {
		for _, e := range snap.HighLinks {
			sink.DrawLine(e.From, e.To, ColorHighLink)
		}
	}
}
