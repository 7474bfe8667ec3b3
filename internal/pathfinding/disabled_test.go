//go:build !navdebug

package pathfinding

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/udisondev/navcore/internal/voxel"
)

func TestDisabledReturnsNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	pf := New(cfg, nil)
	pf.Voxel().AddMap(mgl64.Vec3{}, voxel.Coord{4, 2, 4}, func(c voxel.Coord) bool { return c[1] == 0 })
	pf.Update()
	assert.Equal(t, 1, pf.Voxel().Pending(), "update is a no-op")

	_, ok := pf.FindClosestPrimitive(mgl64.Vec3{}, false, NoOwner())
	assert.False(t, ok)
	_, ok = pf.FindPathLowLevel(mgl64.Vec3{}, mgl64.Vec3{1, 0, 1})
	assert.False(t, ok)
	sp, ok := pf.FindPathGlobal(mgl64.Vec3{}, Point{}, NoOwner())
	assert.False(t, ok)
	assert.Nil(t, sp)
}
