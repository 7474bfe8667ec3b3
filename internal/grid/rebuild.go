package grid

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/navcore/internal/nav"
)

// stepOffsets are the moves between walkable cells: four horizontal directions,
// each level, one up or one down.
var stepOffsets = func() []Cell {
	out := make([]Cell, 0, 12)
	for _, h := range [4][2]int32{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		for dy := int32(-1); dy <= 1; dy++ {
			out = append(out, Cell{h[0], dy, h[1]})
		}
	}
	return out
}()

// rebuildChunk brings one chunk in line with the current cell layout. Primitives
// on cells that are still walkable are kept together with their edges and links;
// only cells whose walkability flipped lose or gain a primitive. Clusters are
// always rebuilt.
func (d *Domain) rebuildChunk(s *Structure, key chunkKey) {
	if old := s.chunks[key]; old != nil {
		d.links.ReleaseClusters(old.low)
		d.links.RemovePrimitives(old.high)
		for _, h := range old.high {
			h.Destroy()
		}
		old.high = nil
	}

	n := int32(d.cfg.ChunkSize)
	ch := &chunk{}
	var fresh []*nav.Primitive
	cells := make([]Cell, 0, 32)
	for x := key[0] * n; x < (key[0]+1)*n; x++ {
		for y := key[1] * n; y < (key[1]+1)*n; y++ {
			for z := key[2] * n; z < (key[2]+1)*n; z++ {
				c := Cell{x, y, z}
				p, ok := s.prims[c]
				if !s.walkable(c) {
					if ok {
						d.destroyCells(s, c)
					}
					continue
				}
				if !ok {
					p = nav.NewPrimitive(d.ids.NextID(), s, nav.LevelLow, s.surfacePoint(c))
					s.prims[c] = p
					fresh = append(fresh, p)
				}
				ch.low = append(ch.low, p)
				cells = append(cells, c)
			}
		}
	}
	if len(ch.low) == 0 {
		delete(s.chunks, key)
		return
	}

	for i, c := range cells {
		p := ch.low[i]
		for _, off := range stepOffsets {
			q, ok := s.prims[c.Add(off[0], off[1], off[2])]
			if !ok {
				continue
			}
			nav.Connect(p, q, nav.Distance(p.Local(), q.Local()))
		}
	}

	ch.high = nav.Cluster(ch.low, func(local mgl64.Vec3) *nav.Primitive {
		return nav.NewPrimitive(d.ids.NextID(), s, nav.LevelHigh, local)
	})
	s.chunks[key] = ch
	d.links.RetainClusters(ch.low)
	d.links.AddPrimitives(fresh)
}
