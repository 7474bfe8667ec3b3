package navmesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/navcore/internal/metrics"
	"github.com/udisondev/navcore/internal/nav"
)

type testOwner struct {
	id      uint64
	domain  nav.Domain
	offset  mgl64.Vec3
	removed bool
}

func (o *testOwner) OwnerID() uint64                     { return o.id }
func (o *testOwner) Domain() nav.Domain                  { return o.domain }
func (o *testOwner) ToWorld(local mgl64.Vec3) mgl64.Vec3 { return local.Add(o.offset) }
func (o *testOwner) ChangedAt() nav.Timestamp            { return 0 }
func (o *testOwner) Removed() bool                       { return o.removed }

// strip builds n low primitives along X under one cluster.
func strip(ids *nav.IDAllocator, owner nav.Owner, n int) (*nav.Primitive, []*nav.Primitive) {
	cluster := nav.NewPrimitive(ids.NextID(), owner, nav.LevelHigh, mgl64.Vec3{float64(n) / 2, 0, 0})
	prims := make([]*nav.Primitive, n)
	for i := range n {
		prims[i] = nav.NewPrimitive(ids.NextID(), owner, nav.LevelLow, mgl64.Vec3{float64(i), 0, 0})
		prims[i].SetParent(cluster)
		if i > 0 {
			nav.Connect(prims[i-1], prims[i], 1)
		}
	}
	return cluster, prims
}

func newTestCoordinator() *Coordinator {
	return NewCoordinator(Config{Radius: 1.5, BucketSize: 4}, metrics.New(prometheus.NewRegistry()))
}

func TestCoordinatorLinksAdjacentOwners(t *testing.T) {
	var ids nav.IDAllocator
	c := newTestCoordinator()

	ship := &testOwner{id: 100, domain: nav.DomainGrid}
	terrain := &testOwner{id: 200, domain: nav.DomainVoxel, offset: mgl64.Vec3{5, 0, 0}}
	shipCluster, shipPrims := strip(&ids, ship, 5)
	terrainCluster, terrainPrims := strip(&ids, terrain, 5)

	c.AddPrimitives(shipPrims)
	c.AddPrimitives(terrainPrims)
	c.AddPrimitives([]*nav.Primitive{shipCluster}) // ignored
	assert.Equal(t, 10, c.Pending())

	added := c.Update()
	assert.Equal(t, 1, added, "only x=4 and x=5 are within the link radius")
	assert.True(t, c.Links().Has(shipPrims[4], terrainPrims[0]))
	assert.True(t, c.Links().Has(terrainPrims[0], shipPrims[4]))
	assert.True(t, c.HighLinks().Has(shipCluster, terrainCluster))
	assert.Equal(t, 1, c.HighLinks().Len())
	assert.Zero(t, c.Pending())

	for _, p := range shipPrims {
		for _, e := range c.Links().LinksOf(p) {
			assert.NotEqual(t, p.Owner().OwnerID(), e.To.Owner().OwnerID(), "links only join different owners")
		}
	}
}

func TestCoordinatorUpdateIdempotent(t *testing.T) {
	var ids nav.IDAllocator
	c := newTestCoordinator()

	a := &testOwner{id: 1, domain: nav.DomainGrid}
	b := &testOwner{id: 2, domain: nav.DomainVoxel, offset: mgl64.Vec3{3, 0, 0}}
	_, pa := strip(&ids, a, 3)
	_, pb := strip(&ids, b, 3)
	c.AddPrimitives(pa)
	c.AddPrimitives(pb)

	c.Update()
	v := c.Version()
	require.NotZero(t, v)

	assert.Zero(t, c.Update())
	assert.Zero(t, c.Update())
	assert.Equal(t, v, c.Version())
}

func TestCoordinatorRemoveIsSynchronous(t *testing.T) {
	var ids nav.IDAllocator
	c := newTestCoordinator()

	a := &testOwner{id: 1, domain: nav.DomainGrid}
	b := &testOwner{id: 2, domain: nav.DomainVoxel, offset: mgl64.Vec3{3, 0, 0}}
	clusterA, pa := strip(&ids, a, 3)
	clusterB, pb := strip(&ids, b, 3)
	c.AddPrimitives(pa)
	c.AddPrimitives(pb)
	c.Update()
	require.True(t, c.Links().Has(pa[2], pb[0]))

	c.RemovePrimitives([]*nav.Primitive{pb[0]})
	pb[0].Destroy()

	assert.False(t, c.Links().Has(pa[2], pb[0]))
	assert.Empty(t, c.Links().LinksOf(pb[0]))
	c.Links().ForEach(func(x, y *nav.Primitive, _ float64) {
		assert.True(t, x.Alive())
		assert.True(t, y.Alive())
	})

	c.RemoveStructure(b)
	assert.Zero(t, c.Links().Len())
	assert.False(t, c.HighLinks().Has(clusterA, clusterB))
	assert.Zero(t, c.HighLinks().Len())
}

func TestCoordinatorHighLinkSupport(t *testing.T) {
	var ids nav.IDAllocator
	c := NewCoordinator(Config{Radius: 1.1, BucketSize: 2}, nil)

	// Two parallel strips one metre apart: every primitive links to its twin.
	a := &testOwner{id: 1, domain: nav.DomainGrid}
	b := &testOwner{id: 2, domain: nav.DomainGrid, offset: mgl64.Vec3{0, 1, 0}}
	clusterA, pa := strip(&ids, a, 4)
	clusterB, pb := strip(&ids, b, 4)
	c.AddPrimitives(pa)
	c.AddPrimitives(pb)
	c.Update()
	require.Equal(t, 4, c.Links().Len())
	require.True(t, c.HighLinks().Has(clusterA, clusterB))

	c.RemovePrimitives(pb[:3])
	assert.True(t, c.HighLinks().Has(clusterA, clusterB), "one supporting link left")

	c.RemovePrimitives(pb[3:])
	assert.False(t, c.HighLinks().Has(clusterA, clusterB))
}

func TestCoordinatorStructureMoved(t *testing.T) {
	var ids nav.IDAllocator
	c := newTestCoordinator()

	ship := &testOwner{id: 1, domain: nav.DomainGrid}
	terrain := &testOwner{id: 2, domain: nav.DomainVoxel, offset: mgl64.Vec3{3, 0, 0}}
	_, ps := strip(&ids, ship, 3)
	_, pt := strip(&ids, terrain, 3)
	c.AddPrimitives(ps)
	c.AddPrimitives(pt)
	c.Update()
	require.NotZero(t, c.Links().Len())

	ship.offset = mgl64.Vec3{0, 50, 0}
	c.StructureMoved(ship)
	assert.Zero(t, c.Links().Len(), "links dropped synchronously on move")
	assert.Equal(t, 3, c.Pending())

	assert.Zero(t, c.Update())
	assert.Zero(t, c.Links().Len())

	ship.offset = mgl64.Vec3{6, 0, 0} // now on the far side of the terrain strip (x = 6..8)
	c.StructureMoved(ship)
	assert.NotZero(t, c.Update())
	assert.True(t, c.Links().Has(ps[0], pt[2]))
}

func TestCoordinatorClear(t *testing.T) {
	var ids nav.IDAllocator
	c := newTestCoordinator()
	a := &testOwner{id: 1, domain: nav.DomainGrid}
	b := &testOwner{id: 2, domain: nav.DomainVoxel, offset: mgl64.Vec3{3, 0, 0}}
	_, pa := strip(&ids, a, 3)
	_, pb := strip(&ids, b, 3)
	c.AddPrimitives(pa)
	c.AddPrimitives(pb)
	c.Update()

	c.Clear()
	assert.Zero(t, c.Links().Len())
	assert.Zero(t, c.HighLinks().Len())
	assert.Zero(t, c.index.len())
}

func TestCoordinatorReclusterMovesHighLinks(t *testing.T) {
	var ids nav.IDAllocator
	c := newTestCoordinator()

	ship := &testOwner{id: 100, domain: nav.DomainGrid}
	terrain := &testOwner{id: 200, domain: nav.DomainVoxel, offset: mgl64.Vec3{5, 0, 0}}
	shipCluster, shipPrims := strip(&ids, ship, 5)
	terrainCluster, terrainPrims := strip(&ids, terrain, 5)
	c.AddPrimitives(shipPrims)
	c.AddPrimitives(terrainPrims)
	c.Update()
	lowLinks := c.Links().Len()
	require.True(t, c.HighLinks().Has(shipCluster, terrainCluster))

	// Re-cluster the ship while its low primitives and their links survive.
	c.ReleaseClusters(shipPrims)
	assert.Zero(t, c.HighLinks().Len())
	c.RemovePrimitives([]*nav.Primitive{shipCluster})
	shipCluster.Destroy()

	next := nav.NewPrimitive(ids.NextID(), ship, nav.LevelHigh, mgl64.Vec3{2, 0, 0})
	for _, p := range shipPrims {
		p.SetParent(next)
	}
	c.RetainClusters(shipPrims)

	assert.Equal(t, lowLinks, c.Links().Len())
	assert.Equal(t, 1, c.HighLinks().Len())
	assert.True(t, c.HighLinks().Has(next, terrainCluster))

	// Support follows the new cluster: dropping every link drops the high link.
	c.RemovePrimitives(shipPrims)
	assert.Zero(t, c.HighLinks().Len())
}
