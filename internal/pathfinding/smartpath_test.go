package pathfinding

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/navcore/internal/nav"
	"github.com/udisondev/navcore/internal/voxel"
)

// advance drives sp until it leaves Searching.
func advance(t *testing.T, sp *SmartPath) State {
	t.Helper()
	for range 1000 {
		if st := sp.Advance(); st != StateSearching {
			return st
		}
	}
	t.Fatal("smart path still searching")
	return StateSearching
}

type mover struct {
	pos mgl64.Vec3
}

func (m *mover) Position() mgl64.Vec3 { return m.pos }

func requireLive(t *testing.T, pf *Pathfinding, path *nav.Path) {
	t.Helper()
	require.NoError(t, path.Check(pf.Links().Links()))
	for _, p := range path.Primitives {
		require.True(t, p.Alive())
	}
}

func TestSmartPathReachesDeck(t *testing.T) {
	w := newWorld(t)
	sp, ok := w.pf.FindPathGlobal(mgl64.Vec3{0.5, 1, 0.5}, Point{At: mgl64.Vec3{18.5, 1, 2.5}}, NoOwner())
	require.True(t, ok)
	assert.NotEmpty(t, sp.ID())
	assert.Equal(t, StateSearching, sp.State())

	assert.Equal(t, StateSearching, sp.Advance(), "budget is too small for one tick")
	require.Equal(t, StateReady, advance(t, sp))

	path, ok := sp.Path()
	require.True(t, ok)
	requireLive(t, w.pf, path)
	assert.Equal(t, nav.DomainVoxel, path.Start().Domain())
	assert.Same(t, w.deck, path.Goal().Owner())
	assert.InDelta(t, 0, nav.Distance(mgl64.Vec3{18.5, 1, 2.5}, path.Goal().Position()), 1e-9)
	assert.Len(t, sp.Waypoints(), path.Len())

	corridor, ok := sp.Corridor()
	require.True(t, ok)
	assert.Equal(t, nav.LevelHigh, corridor.Start().Level())
	assert.Same(t, w.deck, corridor.Goal().Owner())

	assert.Equal(t, StateReady, sp.Advance(), "a valid path stays ready")
	assert.Zero(t, sp.Replans())
}

func TestSmartPathSphereGoalStopsAtBoundary(t *testing.T) {
	w := newWorld(t)
	goal := Sphere{At: mgl64.Vec3{12.5, 1, 0.5}, Radius: 3}
	sp, ok := w.pf.FindPathGlobal(mgl64.Vec3{0.5, 1, 0.5}, goal, NoOwner())
	require.True(t, ok)
	require.Equal(t, StateReady, advance(t, sp))

	path, _ := sp.Path()
	assert.True(t, goal.Contains(path.Goal().Position()))
	assert.InDelta(t, 9.0, path.Cost, 1e-9)
}

func TestSmartPathFollowsMovingGoal(t *testing.T) {
	w := newWorld(t)
	target := &mover{pos: mgl64.Vec3{10.5, 1, 4.5}}
	sp, ok := w.pf.FindPathGlobal(mgl64.Vec3{0.5, 1, 0.5}, Anchored{Anchor: target, Shape: Point{}}, NoOwner())
	require.True(t, ok)
	require.Equal(t, StateReady, advance(t, sp))

	target.pos = target.pos.Add(mgl64.Vec3{1, 0, 0})
	assert.Equal(t, StateReady, sp.Advance(), "movement within the re-plan distance")
	assert.Zero(t, sp.Replans())

	target.pos = mgl64.Vec3{18.5, 1, 3.5}
	sp.Advance()
	assert.Equal(t, 1, sp.Replans())
	require.Equal(t, StateReady, advance(t, sp))

	path, _ := sp.Path()
	assert.InDelta(t, 0, nav.Distance(target.pos, path.Goal().Position()), 1e-9)
	assert.Same(t, w.deck, path.Goal().Owner())
}

func TestSmartPathTerrainEditUnderCorridor(t *testing.T) {
	w := newWorld(t)
	sp, ok := w.pf.FindPathGlobal(mgl64.Vec3{0.5, 1, 0.5}, Point{At: mgl64.Vec3{15.5, 1, 0.5}}, VoxelMapOwner(w.terrain))
	require.True(t, ok)
	require.Equal(t, StateReady, advance(t, sp))

	path, _ := sp.Path()
	require.Len(t, path.Primitives, 16, "straight along the edge")
	cluster := path.Primitives[5].Parent()
	require.NotNil(t, cluster)
	corridor, _ := sp.Corridor()
	require.Contains(t, corridor.Primitives, cluster)

	// Dig out the whole chunk under the second cluster.
	require.NoError(t, w.pf.Voxel().Edit(w.terrain, voxel.Box{Min: voxel.Coord{4, 0, 0}, Max: voxel.Coord{7, 0, 3}}, false))
	w.pf.Update()
	assert.False(t, cluster.Alive())

	assert.Equal(t, StateSearching, sp.Advance())
	assert.Equal(t, 1, sp.Replans())
	require.Equal(t, StateReady, advance(t, sp))

	path, _ = sp.Path()
	requireLive(t, w.pf, path)
	for _, p := range path.Primitives {
		pos := p.Position()
		inPit := pos.X() >= 4 && pos.X() < 8 && pos.Z() < 4
		assert.False(t, inPit, "primitive %d at %v", p.ID(), pos)
	}
	corridor, _ = sp.Corridor()
	assert.NotContains(t, corridor.Primitives, cluster)
}

func TestSmartPathNeverReadyThroughDestroyedPrimitive(t *testing.T) {
	w := newWorld(t)
	sp, ok := w.pf.FindPathGlobal(mgl64.Vec3{0.5, 1, 0.5}, Point{At: mgl64.Vec3{15.5, 1, 0.5}}, NoOwner())
	require.True(t, ok)
	require.Equal(t, StateSearching, sp.Advance())

	// A wall with a gap at the far side, cut while the search is in flight.
	require.NoError(t, w.pf.Voxel().Edit(w.terrain, voxel.Box{Min: voxel.Coord{8, 0, 0}, Max: voxel.Coord{9, 0, 5}}, false))

	require.Equal(t, StateReady, advance(t, sp))
	path, _ := sp.Path()
	requireLive(t, w.pf, path)
	assert.False(t, path.Outdated())
	for _, p := range path.Primitives {
		pos := p.Position()
		assert.False(t, pos.X() >= 8 && pos.X() < 10 && pos.Z() < 6, "primitive %d at %v", p.ID(), pos)
	}
}

func TestSmartPathFailures(t *testing.T) {
	w := newWorld(t)
	island := w.pf.Grid().AddStructure(mgl64.Vec3{500, 0, 0}, mgl64.QuatIdent(), slab(2, 2))
	settle(t, w.pf)

	t.Run("unreachable", func(t *testing.T) {
		sp, ok := w.pf.FindPathGlobal(mgl64.Vec3{0.5, 1, 0.5}, Point{At: mgl64.Vec3{501, 1, 1}}, GridOwner(island))
		require.True(t, ok)
		assert.Equal(t, StateFailed, advance(t, sp))
		assert.ErrorIs(t, sp.Err(), nav.ErrUnreachable)
		assert.Equal(t, StateFailed, sp.Advance(), "failed is terminal")
	})

	t.Run("unresolvable", func(t *testing.T) {
		gone := w.pf.Grid().AddStructure(mgl64.Vec3{-50, 0, 0}, mgl64.QuatIdent(), slab(1, 1))
		w.pf.Grid().RemoveStructure(gone)

		sp, ok := w.pf.FindPathGlobal(mgl64.Vec3{0.5, 1, 0.5}, Point{At: mgl64.Vec3{-50, 1, 0}}, GridOwner(gone))
		require.True(t, ok)
		assert.Equal(t, StateFailed, advance(t, sp))
		assert.ErrorIs(t, sp.Err(), nav.ErrUnresolvable)

		sp.Init(mgl64.Vec3{0.5, 1, 0.5}, SmartGoal{Shape: Point{At: mgl64.Vec3{3.5, 1, 3.5}}})
		assert.Equal(t, StateSearching, sp.State())
		assert.NoError(t, sp.Err())
		assert.Equal(t, StateReady, advance(t, sp))
	})
}

func TestSmartPathStateStrings(t *testing.T) {
	tests := map[State]string{
		StateUninitialized: "uninitialized",
		StateSearching:     "searching",
		StateReady:         "ready",
		StateFailed:        "failed",
		StateInvalidated:   "invalidated",
	}
	for st, want := range tests {
		assert.Equal(t, want, st.String())
	}
}
