package pathfinding

import "github.com/go-gl/mathgl/mgl64"

// Shape is a destination region in world space.
type Shape interface {
	// Center is the point a search aims at.
	Center() mgl64.Vec3
	// Contains reports whether a search may stop at position p.
	Contains(p mgl64.Vec3) bool
}

// Point is a single destination. Only the primitive closest to it satisfies a goal.
type Point struct {
	At mgl64.Vec3
}

func (s Point) Center() mgl64.Vec3       { return s.At }
func (s Point) Contains(mgl64.Vec3) bool { return false }

// Sphere accepts any position within Radius of its centre.
type Sphere struct {
	At     mgl64.Vec3
	Radius float64
}

func (s Sphere) Center() mgl64.Vec3 { return s.At }

func (s Sphere) Contains(p mgl64.Vec3) bool {
	d := p.Sub(s.At)
	return d.Dot(d) <= s.Radius*s.Radius
}

// Box accepts positions inside an axis-aligned box.
type Box struct {
	Min, Max mgl64.Vec3
}

func (s Box) Center() mgl64.Vec3 { return s.Min.Add(s.Max).Mul(0.5) }

func (s Box) Contains(p mgl64.Vec3) bool {
	for i := range 3 {
		if p[i] < s.Min[i] || p[i] > s.Max[i] {
			return false
		}
	}
	return true
}

// Anchor is anything with a current world position, usually a moving entity.
type Anchor interface {
	Position() mgl64.Vec3
}

// Anchored is a shape expressed relative to an anchor; it follows the anchor.
type Anchored struct {
	Anchor Anchor
	// Shape is positioned relative to the anchor.
	Shape Shape
}

func (s Anchored) Center() mgl64.Vec3 {
	return s.Anchor.Position().Add(s.Shape.Center())
}

func (s Anchored) Contains(p mgl64.Vec3) bool {
	return s.Shape.Contains(p.Sub(s.Anchor.Position()))
}

// SmartGoal is the destination of a SmartPath: a shape plus the owner its target
// primitive must belong to.
type SmartGoal struct {
	Shape Shape
	Owner Owner
}
