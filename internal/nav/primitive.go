// Package nav holds the navigation primitive shared by every pathfinding domain,
// the paths built from it and the A* search that walks it.
package nav

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// Domain identifies which pathfinding domain owns a primitive.
type Domain uint8

const (
	DomainGrid Domain = iota + 1
	DomainVoxel
)

func (d Domain) String() string {
	switch d {
	case DomainGrid:
		return "grid"
	case DomainVoxel:
		return "voxel"
	default:
		return "unknown"
	}
}

// Level is the resolution tier of a primitive.
type Level uint8

const (
	LevelLow Level = iota
	LevelHigh
)

func (l Level) String() string {
	if l == LevelHigh {
		return "high"
	}
	return "low"
}

// Owner is the structure a primitive belongs to: a grid structure or a voxel map.
type Owner interface {
	// OwnerID is unique per facade across both domains.
	OwnerID() uint64
	Domain() Domain
	// ToWorld converts a position local to the owner into world space.
	ToWorld(local mgl64.Vec3) mgl64.Vec3
	// ChangedAt is the timestamp of the last topology change.
	ChangedAt() Timestamp
	// Removed reports whether the owner was destroyed, merged away or unloaded.
	Removed() bool
}

// ID is a primitive identifier, unique within one IDAllocator.
type ID uint64

// Edge is a traversable connection to another primitive.
type Edge struct {
	To   *Primitive
	Cost float64
}

// Primitive is a node of a navigation graph.
// Not safe for concurrent mutation: domains only mutate primitives from Update
// and notification calls on the simulation goroutine.
type Primitive struct {
	id    ID
	level Level
	owner Owner
	local mgl64.Vec3

	edges []Edge

	parent  *Primitive   // cluster abstracting this low-level primitive
	members []*Primitive // low-level primitives of a high-level cluster

	alive bool
}

// NewPrimitive creates a live primitive with no edges.
func NewPrimitive(id ID, owner Owner, level Level, local mgl64.Vec3) *Primitive {
	return &Primitive{
		id:    id,
		level: level,
		owner: owner,
		local: local,
		alive: true,
	}
}

func (p *Primitive) ID() ID                { return p.id }
func (p *Primitive) Level() Level          { return p.level }
func (p *Primitive) Owner() Owner          { return p.owner }
func (p *Primitive) Domain() Domain        { return p.owner.Domain() }
func (p *Primitive) Local() mgl64.Vec3     { return p.local }
func (p *Primitive) Parent() *Primitive    { return p.parent }
func (p *Primitive) Edges() []Edge         { return p.edges }
func (p *Primitive) Members() []*Primitive { return p.members }

// Alive reports whether the primitive has not been destroyed and its owner still exists.
func (p *Primitive) Alive() bool {
	return p != nil && p.alive && !p.owner.Removed()
}

// Position returns the world position.
func (p *Primitive) Position() mgl64.Vec3 {
	return p.owner.ToWorld(p.local)
}

// SetParent attaches a low-level primitive to its high-level cluster.
func (p *Primitive) SetParent(cluster *Primitive) {
	p.parent = cluster
	if cluster != nil {
		cluster.members = append(cluster.members, p)
	}
}

// EdgeTo returns the edge towards q, if any.
func (p *Primitive) EdgeTo(q *Primitive) (Edge, bool) {
	for _, e := range p.edges {
		if e.To == q {
			return e, true
		}
	}
	return Edge{}, false
}

// Connect adds an undirected edge between a and b.
// Connecting an already connected pair keeps the lower cost.
func Connect(a, b *Primitive, cost float64) {
	if a == b {
		return
	}
	a.addEdge(b, cost)
	b.addEdge(a, cost)
}

func (p *Primitive) addEdge(to *Primitive, cost float64) {
	for i := range p.edges {
		if p.edges[i].To == to {
			if cost < p.edges[i].Cost {
				p.edges[i].Cost = cost
			}
			return
		}
	}
	p.edges = append(p.edges, Edge{To: to, Cost: cost})
}

func (p *Primitive) removeEdge(to *Primitive) {
	for i := range p.edges {
		if p.edges[i].To == to {
			p.edges = slices.Delete(p.edges, i, i+1)
			return
		}
	}
}

// Destroy removes every edge referencing p and marks it dead.
// A low-level primitive is detached from its cluster.
func (p *Primitive) Destroy() {
	if !p.alive {
		return
	}
	for _, e := range p.edges {
		e.To.removeEdge(p)
	}
	p.edges = nil

	if p.parent != nil {
		if i := slices.Index(p.parent.members, p); i >= 0 {
			p.parent.members = slices.Delete(p.parent.members, i, i+1)
		}
	}
	for _, m := range p.members {
		m.parent = nil
	}
	p.members = nil
	p.alive = false
}

// DistanceSq is the squared world-space distance between a and b.
func DistanceSq(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

// Distance is the world-space distance between a and b.
func Distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

// BoxDistanceSq is the squared distance from p to the axis-aligned box [lo, hi].
// Points inside the box are at distance zero.
func BoxDistanceSq(p, lo, hi mgl64.Vec3) float64 {
	var sum float64
	for i := range 3 {
		v := p[i]
		switch {
		case v < lo[i]:
			sum += (lo[i] - v) * (lo[i] - v)
		case v > hi[i]:
			sum += (v - hi[i]) * (v - hi[i])
		}
	}
	return sum
}
