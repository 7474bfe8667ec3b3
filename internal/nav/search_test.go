package nav

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOwner struct {
	id      uint64
	domain  Domain
	offset  mgl64.Vec3
	changed Timestamp
	removed bool
}

func (o *stubOwner) OwnerID() uint64                     { return o.id }
func (o *stubOwner) Domain() Domain                      { return o.domain }
func (o *stubOwner) ToWorld(local mgl64.Vec3) mgl64.Vec3 { return local.Add(o.offset) }
func (o *stubOwner) ChangedAt() Timestamp                { return o.changed }
func (o *stubOwner) Removed() bool                       { return o.removed }

type stubLinks map[*Primitive][]Edge

func (l stubLinks) LinksOf(p *Primitive) []Edge { return l[p] }

// line builds n primitives one metre apart along X, connected in order.
func line(owner Owner, ids *IDAllocator, n int) []*Primitive {
	prims := make([]*Primitive, n)
	for i := range n {
		prims[i] = NewPrimitive(ids.NextID(), owner, LevelLow, mgl64.Vec3{float64(i), 0, 0})
		if i > 0 {
			Connect(prims[i-1], prims[i], 1)
		}
	}
	return prims
}

func TestFindPathLine(t *testing.T) {
	var ids IDAllocator
	owner := &stubOwner{id: 1, domain: DomainGrid}
	prims := line(owner, &ids, 5)

	path, ok := FindPath(Graph{}, prims[0], Goal{Primitive: prims[4]}, 100, 7)
	require.True(t, ok)
	assert.Equal(t, prims, path.Primitives)
	assert.InDelta(t, 4.0, path.Cost, 1e-9)
	assert.Equal(t, Timestamp(7), path.Stamp)
	assert.Same(t, prims[0], path.Start())
	assert.Same(t, prims[4], path.Goal())
}

func TestFindPathPrefersCheaperRoute(t *testing.T) {
	var ids IDAllocator
	owner := &stubOwner{id: 1, domain: DomainGrid}
	a := NewPrimitive(ids.NextID(), owner, LevelLow, mgl64.Vec3{0, 0, 0})
	b := NewPrimitive(ids.NextID(), owner, LevelLow, mgl64.Vec3{1, 0, 0})
	c := NewPrimitive(ids.NextID(), owner, LevelLow, mgl64.Vec3{1, 1, 0})
	d := NewPrimitive(ids.NextID(), owner, LevelLow, mgl64.Vec3{2, 0, 0})
	Connect(a, b, 10)
	Connect(b, d, 10)
	Connect(a, c, 1.5)
	Connect(c, d, 1.5)

	path, ok := FindPath(Graph{}, a, Goal{Primitive: d}, 100, 0)
	require.True(t, ok)
	assert.Equal(t, []*Primitive{a, c, d}, path.Primitives)
	assert.InDelta(t, 3.0, path.Cost, 1e-9)
}

func TestFindPathAcrossLinks(t *testing.T) {
	var ids IDAllocator
	grid := &stubOwner{id: 1, domain: DomainGrid}
	terrain := &stubOwner{id: 2, domain: DomainVoxel, offset: mgl64.Vec3{10, 0, 0}}
	left := line(grid, &ids, 3)
	right := line(terrain, &ids, 3)

	_, ok := FindPath(Graph{}, left[0], Goal{Primitive: right[2]}, 100, 0)
	assert.False(t, ok, "no link yet")

	links := stubLinks{
		left[2]:  {{To: right[0], Cost: 8}},
		right[0]: {{To: left[2], Cost: 8}},
	}
	path, ok := FindPath(Graph{Links: links}, left[0], Goal{Primitive: right[2]}, 100, 0)
	require.True(t, ok)
	assert.Equal(t, 6, path.Len())
	assert.NoError(t, path.Check(links))
	assert.ErrorIs(t, path.Check(nil), ErrStaleReference)
}

func TestFindPathSkipsDestroyed(t *testing.T) {
	var ids IDAllocator
	owner := &stubOwner{id: 1, domain: DomainVoxel}
	prims := line(owner, &ids, 4)
	prims[2].Destroy()

	_, ok := FindPath(Graph{}, prims[0], Goal{Primitive: prims[3]}, 100, 0)
	assert.False(t, ok)
	assert.Empty(t, prims[1].Edges()[1:], "edge to destroyed primitive removed")
}

func TestFindPathDeadEndpoints(t *testing.T) {
	var ids IDAllocator
	owner := &stubOwner{id: 1, domain: DomainVoxel}
	prims := line(owner, &ids, 2)

	owner.removed = true
	_, ok := FindPath(Graph{}, prims[0], Goal{Primitive: prims[1]}, 100, 0)
	assert.False(t, ok)
}

func TestSearchStepBudget(t *testing.T) {
	var ids IDAllocator
	owner := &stubOwner{id: 1, domain: DomainGrid}
	prims := line(owner, &ids, 10)

	s := NewSearch(Graph{}, prims[0], Goal{Primitive: prims[9]})
	assert.Equal(t, SearchRunning, s.Step(3))
	assert.Equal(t, 3, s.Expanded())
	_, ok := s.Path(0)
	assert.False(t, ok)

	assert.Equal(t, SearchFound, s.Step(100))
	assert.Equal(t, 10, s.Expanded())
	path, ok := s.Path(0)
	require.True(t, ok)
	assert.Equal(t, 10, path.Len())
}

func TestSearchAcceptEndsEarly(t *testing.T) {
	var ids IDAllocator
	owner := &stubOwner{id: 1, domain: DomainGrid}
	prims := line(owner, &ids, 10)

	s := NewSearch(Graph{}, prims[0], Goal{
		Primitive: prims[9],
		Accept:    func(p *Primitive) bool { return p.Position().X() >= 4 },
	})
	require.Equal(t, SearchFound, s.Step(100))
	path, _ := s.Path(0)
	assert.Same(t, prims[4], path.Goal())
}

func TestSearchFilter(t *testing.T) {
	var ids IDAllocator
	owner := &stubOwner{id: 1, domain: DomainGrid}
	prims := line(owner, &ids, 5)

	s := NewSearch(Graph{}, prims[0], Goal{Primitive: prims[4]}, WithFilter(func(p *Primitive) bool {
		return p != prims[2]
	}))
	assert.Equal(t, SearchExhausted, s.Step(100))
}

func TestPathOutdated(t *testing.T) {
	var ids IDAllocator
	var clock Clock
	owner := &stubOwner{id: 1, domain: DomainGrid}
	prims := line(owner, &ids, 3)

	owner.changed = clock.Current()
	path, ok := FindPath(Graph{}, prims[0], Goal{Primitive: prims[2]}, 100, clock.Next())
	require.True(t, ok)
	assert.False(t, path.Outdated())

	owner.changed = clock.Current()
	assert.True(t, path.Outdated())
}

func TestClockMonotonic(t *testing.T) {
	var clock Clock
	assert.Equal(t, Timestamp(0), clock.Current())
	assert.Equal(t, Timestamp(1), clock.Next())
	assert.Equal(t, Timestamp(2), clock.Next())
	assert.Equal(t, Timestamp(2), clock.Current())
}

func BenchmarkFindPathLine(b *testing.B) {
	var ids IDAllocator
	owner := &stubOwner{id: 1, domain: DomainGrid}
	prims := line(owner, &ids, 256)

	b.ResetTimer()
	for range b.N {
		FindPath(Graph{}, prims[0], Goal{Primitive: prims[255]}, 10000, 0)
	}
}
