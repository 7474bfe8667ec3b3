package voxel

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/navcore/internal/nav"
)

var horizontal = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// extractSurfaces lists the surfaces of one chunk bottom-up per column.
// It only reads voxel occupancy and is safe to run concurrently for distinct chunks.
func extractSurfaces(m *Map, key chunkKey, n, headroom int) ([]Coord, error) {
	x0, z0 := key[0]*n, key[1]*n
	if x0 < 0 || z0 < 0 || x0 >= m.size[0] || z0 >= m.size[2] {
		return nil, fmt.Errorf("chunk %v outside map %d", key, m.id)
	}

	var out []Coord
	for z := z0; z < min(z0+n, m.size[2]); z++ {
		for x := x0; x < min(x0+n, m.size[0]); x++ {
			for y := range m.size[1] {
				c := Coord{x, y, z}
				if m.surface(c, headroom) {
					out = append(out, c)
				}
			}
		}
	}
	return out, nil
}

// rebuildChunk brings one chunk in line with surfaces. Primitives on surfaces
// that still exist keep their identity, edges and links; surfaces that vanished
// lose their primitive and new ones gain one. Clusters are always rebuilt.
func (d *Domain) rebuildChunk(m *Map, key chunkKey, surfaces []Coord) {
	keep := make(map[Coord]struct{}, len(surfaces))
	for _, c := range surfaces {
		keep[c] = struct{}{}
	}
	if old := m.chunks[key]; old != nil {
		d.links.ReleaseClusters(old.low)
		d.links.RemovePrimitives(old.high)
		for _, h := range old.high {
			h.Destroy()
		}
		old.high = nil
		for _, p := range slices.Clone(old.low) {
			if _, ok := keep[m.coordOf(p)]; !ok {
				d.destroyAt(m, m.coordOf(p))
			}
		}
	}
	if len(surfaces) == 0 {
		delete(m.chunks, key)
		return
	}

	ch := &chunk{low: make([]*nav.Primitive, 0, len(surfaces))}
	var fresh []*nav.Primitive
	for _, c := range surfaces {
		p, ok := m.prims[c]
		if !ok {
			p = nav.NewPrimitive(d.ids.NextID(), m, nav.LevelLow, m.surfacePoint(c))
			m.prims[c] = p
			fresh = append(fresh, p)
		}
		ch.low = append(ch.low, p)
	}

	for i, c := range surfaces {
		p := ch.low[i]
		for _, h := range horizontal {
			for dy := -d.cfg.MaxStep; dy <= d.cfg.MaxStep; dy++ {
				q, ok := m.prims[Coord{c[0] + h[0], c[1] + dy, c[2] + h[1]}]
				if !ok {
					continue
				}
				nav.Connect(p, q, nav.Distance(p.Local(), q.Local()))
			}
		}
	}

	ch.high = nav.Cluster(ch.low, func(local mgl64.Vec3) *nav.Primitive {
		return nav.NewPrimitive(d.ids.NextID(), m, nav.LevelHigh, local)
	})
	m.chunks[key] = ch
	d.links.RetainClusters(ch.low)
	d.links.AddPrimitives(fresh)
}

// coordOf recovers the voxel a surface primitive stands on.
func (m *Map) coordOf(p *nav.Primitive) Coord {
	l := p.Local()
	return Coord{
		int(math.Floor(l.X() / m.voxelSize)),
		int(math.Round(l.Y()/m.voxelSize)) - 1,
		int(math.Floor(l.Z() / m.voxelSize)),
	}
}
