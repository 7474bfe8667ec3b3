package navmesh

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/navcore/internal/nav"
)

// bucketKey is the integer coordinate of a spatial bucket.
type bucketKey [3]int32

// bucketIndex hashes low-level primitives into cubic buckets by world position.
type bucketIndex struct {
	size    float64
	buckets map[bucketKey][]*nav.Primitive
	where   map[*nav.Primitive]bucketKey
}

func newBucketIndex(size float64) *bucketIndex {
	return &bucketIndex{
		size:    size,
		buckets: make(map[bucketKey][]*nav.Primitive),
		where:   make(map[*nav.Primitive]bucketKey),
	}
}

// keyOf converts a world position to its bucket coordinate.
func (ix *bucketIndex) keyOf(pos mgl64.Vec3) bucketKey {
	return bucketKey{
		int32(math.Floor(pos.X() / ix.size)),
		int32(math.Floor(pos.Y() / ix.size)),
		int32(math.Floor(pos.Z() / ix.size)),
	}
}

// insert (re)indexes p at its current world position.
func (ix *bucketIndex) insert(p *nav.Primitive) {
	key := ix.keyOf(p.Position())
	if old, ok := ix.where[p]; ok {
		if old == key {
			return
		}
		ix.removeFrom(old, p)
	}
	ix.buckets[key] = append(ix.buckets[key], p)
	ix.where[p] = key
}

func (ix *bucketIndex) remove(p *nav.Primitive) {
	key, ok := ix.where[p]
	if !ok {
		return
	}
	ix.removeFrom(key, p)
	delete(ix.where, p)
}

func (ix *bucketIndex) removeFrom(key bucketKey, p *nav.Primitive) {
	bucket := ix.buckets[key]
	if i := slices.Index(bucket, p); i >= 0 {
		bucket = slices.Delete(bucket, i, i+1)
	}
	if len(bucket) == 0 {
		delete(ix.buckets, key)
		return
	}
	ix.buckets[key] = bucket
}

// within calls fn for every indexed primitive no farther than radius from pos.
func (ix *bucketIndex) within(pos mgl64.Vec3, radius float64, fn func(q *nav.Primitive, distSq float64)) {
	lo := ix.keyOf(pos.Sub(mgl64.Vec3{radius, radius, radius}))
	hi := ix.keyOf(pos.Add(mgl64.Vec3{radius, radius, radius}))
	radiusSq := radius * radius

	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				for _, q := range ix.buckets[bucketKey{x, y, z}] {
					d := nav.DistanceSq(pos, q.Position())
					if d <= radiusSq {
						fn(q, d)
					}
				}
			}
		}
	}
}

func (ix *bucketIndex) len() int {
	return len(ix.where)
}
