package voxel

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/navcore/internal/nav"
)

// Coord is an integer voxel coordinate inside a map. Y is up.
type Coord [3]int

// Box is an inclusive voxel range.
type Box struct {
	Min, Max Coord
}

// Grow returns b extended by n voxels on every side.
func (b Box) Grow(n int) Box {
	return Box{
		Min: Coord{b.Min[0] - n, b.Min[1] - n, b.Min[2] - n},
		Max: Coord{b.Max[0] + n, b.Max[1] + n, b.Max[2] + n},
	}
}

// column identifies a vertical voxel column.
type column [2]int

// chunkKey identifies a ChunkSize×ChunkSize block of columns spanning the full map height.
type chunkKey [2]int

type chunk struct {
	low  []*nav.Primitive
	high []*nav.Primitive
}

// Map is a fixed-size block of voxel terrain anchored at a world origin.
// It implements nav.Owner. Maps never move.
type Map struct {
	id        uint64
	origin    mgl64.Vec3
	size      Coord
	voxelSize float64

	solid []bool

	prims  map[Coord]*nav.Primitive // keyed by the solid voxel the surface sits on
	chunks map[chunkKey]*chunk

	changedAt nav.Timestamp
	removed   bool
}

func newMap(id uint64, origin mgl64.Vec3, size Coord, voxelSize float64) *Map {
	return &Map{
		id:        id,
		origin:    origin,
		size:      size,
		voxelSize: voxelSize,
		solid:     make([]bool, size[0]*size[1]*size[2]),
		prims:     make(map[Coord]*nav.Primitive),
		chunks:    make(map[chunkKey]*chunk),
	}
}

// OwnerID implements nav.Owner.
func (m *Map) OwnerID() uint64 { return m.id }

// Domain implements nav.Owner.
func (m *Map) Domain() nav.Domain { return nav.DomainVoxel }

// ChangedAt implements nav.Owner.
func (m *Map) ChangedAt() nav.Timestamp { return m.changedAt }

// Removed implements nav.Owner.
func (m *Map) Removed() bool { return m.removed }

// ToWorld implements nav.Owner.
func (m *Map) ToWorld(local mgl64.Vec3) mgl64.Vec3 { return m.origin.Add(local) }

// Origin returns the world position of voxel (0,0,0)'s minimum corner.
func (m *Map) Origin() mgl64.Vec3 { return m.origin }

// Size returns the map dimensions in voxels.
func (m *Map) Size() Coord { return m.size }

// Contains reports whether c lies inside the map.
func (m *Map) Contains(c Coord) bool {
	return c[0] >= 0 && c[1] >= 0 && c[2] >= 0 &&
		c[0] < m.size[0] && c[1] < m.size[1] && c[2] < m.size[2]
}

// Solid reports whether the voxel at c is solid. Voxels outside the map are empty.
func (m *Map) Solid(c Coord) bool {
	if !m.Contains(c) {
		return false
	}
	return m.solid[m.offset(c)]
}

// CoordAt returns the voxel containing a world position.
func (m *Map) CoordAt(world mgl64.Vec3) Coord {
	local := world.Sub(m.origin)
	return Coord{
		int(math.Floor(local.X() / m.voxelSize)),
		int(math.Floor(local.Y() / m.voxelSize)),
		int(math.Floor(local.Z() / m.voxelSize)),
	}
}

// PrimitiveAt returns the surface primitive standing on voxel c.
func (m *Map) PrimitiveAt(c Coord) (*nav.Primitive, bool) {
	p, ok := m.prims[c]
	return p, ok
}

// PrimitiveCount returns the number of live primitives at the given level.
func (m *Map) PrimitiveCount(level nav.Level) int {
	if level == nav.LevelLow {
		return len(m.prims)
	}
	n := 0
	for _, ch := range m.chunks {
		n += len(ch.high)
	}
	return n
}

func (m *Map) offset(c Coord) int {
	return (c[1]*m.size[2]+c[2])*m.size[0] + c[0]
}

func (m *Map) set(c Coord, solid bool) bool {
	if !m.Contains(c) {
		return false
	}
	i := m.offset(c)
	if m.solid[i] == solid {
		return false
	}
	m.solid[i] = solid
	return true
}

// surface reports whether an agent can stand on top of voxel c.
func (m *Map) surface(c Coord, headroom int) bool {
	if !m.Solid(c) {
		return false
	}
	for h := 1; h <= headroom; h++ {
		if m.Solid(Coord{c[0], c[1] + h, c[2]}) {
			return false
		}
	}
	return true
}

// surfacePoint is the local centre of the top face of c.
func (m *Map) surfacePoint(c Coord) mgl64.Vec3 {
	return mgl64.Vec3{
		(float64(c[0]) + 0.5) * m.voxelSize,
		float64(c[1]+1) * m.voxelSize,
		(float64(c[2]) + 0.5) * m.voxelSize,
	}
}

// Primitives returns the live primitives at the given level ordered by ID.
func (m *Map) Primitives(level nav.Level) []*nav.Primitive {
	var out []*nav.Primitive
	for _, ch := range m.chunks {
		if level == nav.LevelLow {
			out = append(out, ch.low...)
		} else {
			out = append(out, ch.high...)
		}
	}
	slices.SortFunc(out, func(a, b *nav.Primitive) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}
