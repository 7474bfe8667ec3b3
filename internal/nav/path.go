package nav

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Path is an ordered sequence of primitives from start to goal.
type Path struct {
	Primitives []*Primitive
	Cost       float64
	// Stamp is the clock value the path was planned at.
	Stamp Timestamp
}

// Len returns the number of primitives on the path.
func (p *Path) Len() int {
	return len(p.Primitives)
}

// Start returns the first primitive.
func (p *Path) Start() *Primitive {
	return p.Primitives[0]
}

// Goal returns the last primitive.
func (p *Path) Goal() *Primitive {
	return p.Primitives[len(p.Primitives)-1]
}

// Waypoints returns the current world positions of the path primitives.
// Positions of primitives on moving grids follow the grid.
func (p *Path) Waypoints() []mgl64.Vec3 {
	points := make([]mgl64.Vec3, len(p.Primitives))
	for i, prim := range p.Primitives {
		points[i] = prim.Position()
	}
	return points
}

// Check verifies every primitive is still alive and every hop is still backed by
// an edge or a link. It returns an error wrapping ErrStaleReference otherwise.
func (p *Path) Check(links LinkSource) error {
	for i, prim := range p.Primitives {
		if !prim.Alive() {
			return fmt.Errorf("primitive %d at hop %d: %w", prim.ID(), i, ErrStaleReference)
		}
		if i == 0 {
			continue
		}
		prev := p.Primitives[i-1]
		if !Connected(prev, prim, links) {
			return fmt.Errorf("hop %d (%d -> %d) disconnected: %w", i, prev.ID(), prim.ID(), ErrStaleReference)
		}
	}
	return nil
}

// Outdated reports whether any owner on the path changed topology at or after
// the stamp the path was planned at.
func (p *Path) Outdated() bool {
	for _, prim := range p.Primitives {
		if prim.Owner().ChangedAt() >= p.Stamp {
			return true
		}
	}
	return false
}

// Connected reports whether a and b share an edge or a link.
func Connected(a, b *Primitive, links LinkSource) bool {
	if _, ok := a.EdgeTo(b); ok {
		return true
	}
	if links == nil {
		return false
	}
	for _, e := range links.LinksOf(a) {
		if e.To == b {
			return true
		}
	}
	return false
}
