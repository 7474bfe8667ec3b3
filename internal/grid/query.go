package grid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/navcore/internal/nav"
)

// closestIn scans one structure, skipping chunks whose bounds are farther than best.
// Structures are rigid, so distances measured in the local frame equal world distances.
func (d *Domain) closestIn(s *Structure, point mgl64.Vec3, level nav.Level, best nav.Candidate) nav.Candidate {
	local := s.ToLocal(point)
	edge := float64(d.cfg.ChunkSize) * s.cellSize

	for key, ch := range s.chunks {
		lo := mgl64.Vec3{float64(key[0]), float64(key[1]), float64(key[2])}.Mul(edge)
		hi := lo.Add(mgl64.Vec3{edge, edge, edge})
		if best.Primitive != nil && nav.BoxDistanceSq(local, lo, hi) > best.DistSq {
			continue
		}

		prims := ch.low
		if level == nav.LevelHigh {
			prims = ch.high
		}
		for _, p := range prims {
			c := nav.Candidate{Primitive: p, DistSq: nav.DistanceSq(local, p.Local())}
			if c.Better(best) {
				best = c
			}
		}
	}
	return best
}

// Bounds returns the world-space axis-aligned box enclosing every solid cell.
func (s *Structure) Bounds() (lo, hi mgl64.Vec3, ok bool) {
	if len(s.cells) == 0 {
		return lo, hi, false
	}
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for c := range s.cells {
		for corner := range 8 {
			k := c.Add(int32(corner&1), int32(corner>>1&1), int32(corner>>2&1))
			w := s.ToWorld(mgl64.Vec3{float64(k[0]), float64(k[1]), float64(k[2])}.Mul(s.cellSize))
			for i := range 3 {
				lo[i] = math.Min(lo[i], w[i])
				hi[i] = math.Max(hi[i], w[i])
			}
		}
	}
	return lo, hi, true
}
