package grid

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/navcore/internal/nav"
)

// Cell is an integer block coordinate local to a structure. Y is the structure's up axis.
type Cell [3]int32

// Add returns c offset by (dx, dy, dz).
func (c Cell) Add(dx, dy, dz int32) Cell {
	return Cell{c[0] + dx, c[1] + dy, c[2] + dz}
}

// Up returns the cell above c.
func (c Cell) Up() Cell { return c.Add(0, 1, 0) }

// Down returns the cell below c.
func (c Cell) Down() Cell { return c.Add(0, -1, 0) }

// chunkKey identifies a ChunkSize³ block of cells.
type chunkKey [3]int32

// chunk holds the primitives built for one chunk of a structure.
type chunk struct {
	low  []*nav.Primitive
	high []*nav.Primitive
}

// Structure is a rigid cell-based body (a ship or a station).
// It implements nav.Owner.
type Structure struct {
	id       uint64
	cellSize float64

	position mgl64.Vec3
	rotation mgl64.Quat

	cells  map[Cell]struct{}
	prims  map[Cell]*nav.Primitive
	chunks map[chunkKey]*chunk

	changedAt nav.Timestamp
	removed   bool
}

func newStructure(id uint64, cellSize float64, position mgl64.Vec3, rotation mgl64.Quat) *Structure {
	return &Structure{
		id:       id,
		cellSize: cellSize,
		position: position,
		rotation: rotation.Normalize(),
		cells:    make(map[Cell]struct{}),
		prims:    make(map[Cell]*nav.Primitive),
		chunks:   make(map[chunkKey]*chunk),
	}
}

// OwnerID implements nav.Owner.
func (s *Structure) OwnerID() uint64 { return s.id }

// Domain implements nav.Owner.
func (s *Structure) Domain() nav.Domain { return nav.DomainGrid }

// ChangedAt implements nav.Owner.
func (s *Structure) ChangedAt() nav.Timestamp { return s.changedAt }

// Removed implements nav.Owner.
func (s *Structure) Removed() bool { return s.removed }

// ToWorld implements nav.Owner.
func (s *Structure) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return s.position.Add(s.rotation.Rotate(local))
}

// ToLocal converts a world position into the structure frame.
func (s *Structure) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return s.rotation.Inverse().Rotate(world.Sub(s.position))
}

// Position returns the world position of the structure origin.
func (s *Structure) Position() mgl64.Vec3 { return s.position }

// Rotation returns the structure orientation.
func (s *Structure) Rotation() mgl64.Quat { return s.rotation }

// CellCount returns the number of solid cells.
func (s *Structure) CellCount() int { return len(s.cells) }

// HasCell reports whether c is solid.
func (s *Structure) HasCell(c Cell) bool {
	_, ok := s.cells[c]
	return ok
}

// Cells returns a copy of the solid cells.
func (s *Structure) Cells() []Cell {
	out := make([]Cell, 0, len(s.cells))
	for c := range s.cells {
		out = append(out, c)
	}
	return out
}

// PrimitiveAt returns the low-level primitive standing on cell c.
func (s *Structure) PrimitiveAt(c Cell) (*nav.Primitive, bool) {
	p, ok := s.prims[c]
	return p, ok
}

// PrimitiveCount returns the number of live primitives at the given level.
func (s *Structure) PrimitiveCount(level nav.Level) int {
	if level == nav.LevelLow {
		return len(s.prims)
	}
	n := 0
	for _, ch := range s.chunks {
		n += len(ch.high)
	}
	return n
}

// CellAt returns the cell containing a structure-local position.
func (s *Structure) CellAt(local mgl64.Vec3) Cell {
	return Cell{
		int32(math.Floor(local.X() / s.cellSize)),
		int32(math.Floor(local.Y() / s.cellSize)),
		int32(math.Floor(local.Z() / s.cellSize)),
	}
}

// surfacePoint is the local centre of the top face of c, where an agent stands.
func (s *Structure) surfacePoint(c Cell) mgl64.Vec3 {
	return mgl64.Vec3{
		(float64(c[0]) + 0.5) * s.cellSize,
		float64(c[1]+1) * s.cellSize,
		(float64(c[2]) + 0.5) * s.cellSize,
	}
}

// walkable reports whether an agent can stand on top of c.
func (s *Structure) walkable(c Cell) bool {
	if _, solid := s.cells[c]; !solid {
		return false
	}
	_, blocked := s.cells[c.Up()]
	return !blocked
}

// Primitives returns the live primitives at the given level ordered by ID.
func (s *Structure) Primitives(level nav.Level) []*nav.Primitive {
	var out []*nav.Primitive
	for _, ch := range s.chunks {
		if level == nav.LevelLow {
			out = append(out, ch.low...)
		} else {
			out = append(out, ch.high...)
		}
	}
	slices.SortFunc(out, func(a, b *nav.Primitive) int { return cmp.Compare(a.ID(), b.ID()) })
	return out
}
