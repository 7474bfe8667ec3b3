package pathfinding

import (
	"github.com/udisondev/navcore/internal/grid"
	"github.com/udisondev/navcore/internal/voxel"
)

// OwnerKind tells which domain an Owner resolves to.
type OwnerKind uint8

const (
	OwnerNone OwnerKind = iota
	OwnerVoxelMap
	OwnerGrid
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerVoxelMap:
		return "voxel_map"
	case OwnerGrid:
		return "grid"
	default:
		return "none"
	}
}

// Owner is an entity resolved to at most one navigation domain. The zero value
// is the no-owner case, which makes queries scan every domain.
type Owner struct {
	kind  OwnerKind
	voxel *voxel.Map
	grid  *grid.Structure
}

// NoOwner returns the owner that restricts nothing.
func NoOwner() Owner { return Owner{} }

// VoxelMapOwner restricts queries to one voxel map.
func VoxelMapOwner(m *voxel.Map) Owner {
	if m == nil {
		return Owner{}
	}
	return Owner{kind: OwnerVoxelMap, voxel: m}
}

// GridOwner restricts queries to one grid structure.
func GridOwner(s *grid.Structure) Owner {
	if s == nil {
		return Owner{}
	}
	return Owner{kind: OwnerGrid, grid: s}
}

func (o Owner) Kind() OwnerKind { return o.kind }

// VoxelMap returns the voxel map when the owner resolves to the voxel domain.
func (o Owner) VoxelMap() (*voxel.Map, bool) {
	return o.voxel, o.kind == OwnerVoxelMap
}

// Grid returns the structure when the owner resolves to the grid domain.
func (o Owner) Grid() (*grid.Structure, bool) {
	return o.grid, o.kind == OwnerGrid
}

// Entity is implemented by world objects that know which navigation owner they
// stand on or are part of.
type Entity interface {
	NavigationOwner() Owner
}

// Classify resolves an arbitrary entity handle into an Owner. Voxel maps and grid
// structures resolve to themselves, Entity implementations report their own
// owner, and anything else (nil included) resolves to NoOwner.
func Classify(entity any) Owner {
	switch e := entity.(type) {
	case nil:
		return Owner{}
	case Owner:
		return e
	case *voxel.Map:
		return VoxelMapOwner(e)
	case *grid.Structure:
		return GridOwner(e)
	case Entity:
		return e.NavigationOwner()
	default:
		return Owner{}
	}
}
