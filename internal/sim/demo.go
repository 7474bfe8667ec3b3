package sim

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/navcore/internal/grid"
	"github.com/udisondev/navcore/internal/pathfinding"
	"github.com/udisondev/navcore/internal/voxel"
)

const (
	demoHeight   = 8 // voxels
	demoBaseline = 2 // surface voxel height along the docking edge
	demoDeckSize = 6 // cells per deck edge
)

// Demo is a small world: rolling voxel hills with a grid deck docked against
// the +X edge.
type Demo struct {
	Terrain *voxel.Map
	Deck    *grid.Structure

	size      int
	voxelSize float64
	cellSize  float64
}

// BuildDemo adds the demo terrain and deck to pf. Their graphs are built by
// subsequent pf.Update calls.
func BuildDemo(pf *pathfinding.Pathfinding, size int, voxelSize, cellSize float64) Demo {
	d := Demo{size: size, voxelSize: voxelSize, cellSize: cellSize}

	d.Terrain = pf.Voxel().AddMap(mgl64.Vec3{}, voxel.Coord{size, demoHeight, size}, func(c voxel.Coord) bool {
		return c[1] <= d.height(c[0], c[2])
	})

	// Surfaces of the deck line up with the terrain baseline; its first column
	// overlaps the last terrain column by half a voxel so both are within link range.
	surface := float64(demoBaseline+1) * voxelSize
	origin := mgl64.Vec3{float64(size)*voxelSize - voxelSize/2, surface - cellSize, 0}
	cells := make([]grid.Cell, 0, demoDeckSize*demoDeckSize)
	for x := range int32(demoDeckSize) {
		for z := range int32(demoDeckSize) {
			cells = append(cells, grid.Cell{x, 0, z})
		}
	}
	d.Deck = pf.Grid().AddStructure(origin, mgl64.QuatIdent(), cells)
	return d
}

// height is the top solid voxel of column (x, z). Hills flatten out towards the
// docking edge.
func (d Demo) height(x, z int) int {
	if x >= d.size-4 {
		return demoBaseline
	}
	h := 2 + math.Round(1.5*math.Sin(float64(x)/5)+1.5*math.Cos(float64(z)/7))
	return int(min(max(h, 0), demoHeight-3))
}

// TerrainPoint returns the standing position on top of column (x, z).
func (d Demo) TerrainPoint(x, z int) mgl64.Vec3 {
	return d.Terrain.ToWorld(mgl64.Vec3{
		(float64(x) + 0.5) * d.voxelSize,
		float64(d.height(x, z)+1) * d.voxelSize,
		(float64(z) + 0.5) * d.voxelSize,
	})
}

// DeckPoint returns the standing position on top of deck cell (x, z).
func (d Demo) DeckPoint(x, z int) mgl64.Vec3 {
	return d.Deck.ToWorld(mgl64.Vec3{
		(float64(x) + 0.5) * d.cellSize,
		d.cellSize,
		(float64(z) + 0.5) * d.cellSize,
	})
}

// RandomPoint picks a standing position on the terrain or, one time in four, on the deck.
func (d Demo) RandomPoint(r *rand.Rand) mgl64.Vec3 {
	if r.IntN(4) == 0 {
		return d.DeckPoint(r.IntN(demoDeckSize), r.IntN(demoDeckSize))
	}
	return d.TerrainPoint(r.IntN(d.size), r.IntN(d.size))
}

// Spawn creates n agents at random positions heading to random goals and registers them.
func (d Demo) Spawn(pf *pathfinding.Pathfinding, m *TickManager, n int, r *rand.Rand) {
	for i := range n {
		begin := d.RandomPoint(r)
		var goal pathfinding.Shape = pathfinding.Point{At: d.RandomPoint(r)}
		if i%3 == 0 {
			goal = pathfinding.Sphere{At: d.RandomPoint(r), Radius: 2 * d.voxelSize}
		}
		path, ok := pf.FindPathGlobal(begin, goal, pathfinding.NoOwner())
		if !ok {
			return
		}
		m.Register(NewAgent(uint32(i+1), begin, 0.5*d.voxelSize, path))
	}
}
