// Package voxel maintains navigation graphs over the walkable surfaces of voxel terrain.
//
// A surface is the top face of a solid voxel with enough empty voxels above it.
// Each surface becomes a low-level primitive; surfaces of one chunk of columns are
// clustered into high-level primitives. Terrain edits destroy the surfaces they
// invalidate at once and queue the affected chunks. Update extracts the surfaces
// of queued chunks on a bounded worker pool and applies the results on the
// calling goroutine before returning.
package voxel

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/navcore/internal/metrics"
	"github.com/udisondev/navcore/internal/nav"
	"github.com/udisondev/navcore/internal/navmesh"
)

// ErrMapRemoved is returned for edits of a map that no longer exists.
var ErrMapRemoved = errors.New("voxel map removed")

// Config holds voxel domain policy.
type Config struct {
	VoxelSize     float64
	ChunkSize     int // columns per chunk edge
	RebuildBudget int // chunks rebuilt per Update
	Workers       int // concurrent surface extractions
	MaxStep       int // highest climbable step in voxels
	Headroom      int // empty voxels required above a surface
	SearchLimit   int // expansions for FindPath
}

// DefaultConfig returns the voxel policy used when none is configured.
func DefaultConfig() Config {
	return Config{
		VoxelSize:     1,
		ChunkSize:     16,
		RebuildBudget: 8,
		Workers:       4,
		MaxStep:       1,
		Headroom:      2,
		SearchLimit:   20000,
	}
}

type dirtyChunk struct {
	m   *Map
	key chunkKey
}

// Domain owns every voxel map of one pathfinding facade.
type Domain struct {
	cfg     Config
	ids     *nav.IDAllocator
	clock   *nav.Clock
	links   *navmesh.Coordinator
	metrics *metrics.Metrics

	maps   map[uint64]*Map
	queue  []dirtyChunk
	queued map[dirtyChunk]struct{}
}

// NewDomain creates an empty voxel domain linked through links. m may be nil.
func NewDomain(cfg Config, ids *nav.IDAllocator, clock *nav.Clock, links *navmesh.Coordinator, m *metrics.Metrics) *Domain {
	return &Domain{
		cfg:     cfg,
		ids:     ids,
		clock:   clock,
		links:   links,
		metrics: m,
		maps:    make(map[uint64]*Map),
		queued:  make(map[dirtyChunk]struct{}),
	}
}

// Map returns a live map by ID.
func (d *Domain) Map(id uint64) (*Map, bool) {
	m, ok := d.maps[id]
	return m, ok
}

// Maps returns the live maps ordered by ID.
func (d *Domain) Maps() []*Map {
	out := make([]*Map, 0, len(d.maps))
	for _, m := range d.maps {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *Map) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Pending returns the number of chunks waiting for a rebuild.
func (d *Domain) Pending() int {
	return len(d.queue)
}

// AddMap creates a map of the given size at origin. fill reports the initial
// solidity of each voxel and may be nil for an empty map. The surface graph is
// built by subsequent Update calls.
func (d *Domain) AddMap(origin mgl64.Vec3, size Coord, fill func(Coord) bool) *Map {
	m := newMap(d.ids.NextOwnerID(), origin, size, d.cfg.VoxelSize)
	if fill != nil {
		for y := range size[1] {
			for z := range size[2] {
				for x := range size[0] {
					c := Coord{x, y, z}
					m.solid[m.offset(c)] = fill(c)
				}
			}
		}
	}
	m.changedAt = d.clock.Current()
	d.maps[m.id] = m
	d.markDirty(m, Box{Max: Coord{size[0] - 1, size[1] - 1, size[2] - 1}})

	slog.Debug("voxel map added", "map", m.id, "size", size)
	return m
}

// RemoveMap destroys the map, its primitives and every link touching them.
func (d *Domain) RemoveMap(m *Map) {
	if m.removed {
		return
	}
	d.links.RemoveStructure(m)
	for key, ch := range m.chunks {
		d.destroyChunk(ch)
		delete(m.chunks, key)
	}
	clear(m.prims)
	m.removed = true
	m.changedAt = d.clock.Current()
	delete(d.maps, m.id)

	slog.Debug("voxel map removed", "map", m.id)
}

// Edit sets every voxel of box (clipped to the map) to solid. Surfaces that the
// edit invalidates are destroyed immediately; chunks overlapping the box grown by
// one voxel are queued for rebuild.
func (d *Domain) Edit(m *Map, box Box, solid bool) error {
	if m == nil || m.removed {
		return ErrMapRemoved
	}
	box, ok := m.clip(box)
	if !ok {
		return fmt.Errorf("edit box %v outside map %d", box, m.id)
	}

	changed := 0
	for y := box.Min[1]; y <= box.Max[1]; y++ {
		for z := box.Min[2]; z <= box.Max[2]; z++ {
			for x := box.Min[0]; x <= box.Max[0]; x++ {
				if m.set(Coord{x, y, z}, solid) {
					changed++
				}
			}
		}
	}
	if changed == 0 {
		return nil
	}

	// Filling voxels can take the headroom of surfaces up to Headroom below the box.
	affected := box.Grow(1)
	affected.Min[1] -= d.cfg.Headroom
	destroyed := d.destroyInvalid(m, affected)
	m.changedAt = d.clock.Current()
	d.markDirty(m, box.Grow(1))

	slog.Debug("voxel map edited", "map", m.id, "box", box, "solid", solid, "voxels", changed, "destroyed", destroyed)
	return nil
}

// Update rebuilds up to RebuildBudget dirty chunks, oldest first. Surface
// extraction runs on up to Workers goroutines; the graph is mutated only after
// every extraction finished.
func (d *Domain) Update() {
	batch := make([]dirtyChunk, 0, d.cfg.RebuildBudget)
	for len(d.queue) > 0 && len(batch) < d.cfg.RebuildBudget {
		item := d.queue[0]
		d.queue[0] = dirtyChunk{}
		d.queue = d.queue[1:]
		delete(d.queued, item)
		if item.m.removed {
			continue
		}
		batch = append(batch, item)
	}
	if len(d.queue) == 0 {
		d.queue = nil
	}
	if len(batch) == 0 {
		return
	}

	surfaces := make([][]Coord, len(batch))
	var g errgroup.Group
	g.SetLimit(max(d.cfg.Workers, 1))
	for i, item := range batch {
		g.Go(func() error {
			s, err := extractSurfaces(item.m, item.key, d.cfg.ChunkSize, d.cfg.Headroom)
			if err != nil {
				return err
			}
			surfaces[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("voxel surface extraction failed", "chunks", len(batch), "error", err)
		d.requeue(batch)
		return
	}

	for i, item := range batch {
		d.rebuildChunk(item.m, item.key, surfaces[i])
	}
	d.metrics.ChunksRebuilt("voxel", len(batch))
}

// Unload removes every map.
func (d *Domain) Unload() {
	for _, m := range d.Maps() {
		d.RemoveMap(m)
	}
	d.queue = nil
	clear(d.queued)
}

// FindClosestPrimitive returns the surface primitive closest to point. When owner
// is not nil only that map is scanned; a removed owner yields nothing.
func (d *Domain) FindClosestPrimitive(point mgl64.Vec3, highLevel bool, owner *Map) (nav.Candidate, bool) {
	level := nav.LevelLow
	if highLevel {
		level = nav.LevelHigh
	}

	var best nav.Candidate
	if owner != nil {
		if owner.removed {
			return best, false
		}
		best = d.closestIn(owner, point, level, best)
		return best, best.Primitive != nil
	}
	for _, m := range d.maps {
		best = d.closestIn(m, point, level, best)
	}
	return best, best.Primitive != nil
}

// FindPath searches from start to end across edges and links. The path is
// stamped with a fresh timestamp, so it is outdated by any later change.
func (d *Domain) FindPath(start, end *nav.Primitive) (*nav.Path, bool) {
	if start.Domain() != nav.DomainVoxel {
		return nil, false
	}
	return nav.FindPath(nav.Graph{Links: d.links.Links()}, start, nav.Goal{Primitive: end}, d.cfg.SearchLimit, d.clock.Next())
}

func (d *Domain) closestIn(m *Map, point mgl64.Vec3, level nav.Level, best nav.Candidate) nav.Candidate {
	local := point.Sub(m.origin)
	edge := float64(d.cfg.ChunkSize) * m.voxelSize
	top := float64(m.size[1]+1) * m.voxelSize

	for key, ch := range m.chunks {
		lo := mgl64.Vec3{float64(key[0]) * edge, 0, float64(key[1]) * edge}
		hi := mgl64.Vec3{lo.X() + edge, top, lo.Z() + edge}
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

// markDirty queues every chunk overlapping box's columns.
func (d *Domain) markDirty(m *Map, box Box) {
	box, ok := m.clip(box)
	if !ok {
		return
	}
	n := d.cfg.ChunkSize
	for cz := box.Min[2] / n; cz <= box.Max[2]/n; cz++ {
		for cx := box.Min[0] / n; cx <= box.Max[0]/n; cx++ {
			item := dirtyChunk{m: m, key: chunkKey{cx, cz}}
			if _, ok := d.queued[item]; ok {
				continue
			}
			d.queued[item] = struct{}{}
			d.queue = append(d.queue, item)
		}
	}
}

// requeue puts batch back at the front of the queue in its original order.
func (d *Domain) requeue(batch []dirtyChunk) {
	items := make([]dirtyChunk, 0, len(batch)+len(d.queue))
	for _, item := range batch {
		if _, ok := d.queued[item]; ok {
			continue
		}
		d.queued[item] = struct{}{}
		items = append(items, item)
	}
	d.queue = append(items, d.queue...)
}

// destroyInvalid destroys primitives inside box whose surface no longer exists.
func (d *Domain) destroyInvalid(m *Map, box Box) int {
	destroyed := 0
	for y := box.Min[1]; y <= box.Max[1]; y++ {
		for z := box.Min[2]; z <= box.Max[2]; z++ {
			for x := box.Min[0]; x <= box.Max[0]; x++ {
				c := Coord{x, y, z}
				if _, ok := m.prims[c]; !ok || m.surface(c, d.cfg.Headroom) {
					continue
				}
				d.destroyAt(m, c)
				destroyed++
			}
		}
	}
	return destroyed
}

// destroyAt destroys the surface primitive standing on c.
func (d *Domain) destroyAt(m *Map, c Coord) {
	p, ok := m.prims[c]
	if !ok {
		return
	}
	d.links.RemovePrimitives([]*nav.Primitive{p})
	p.Destroy()
	delete(m.prims, c)
	if ch := m.chunks[d.chunkOf(c)]; ch != nil {
		if i := slices.Index(ch.low, p); i >= 0 {
			ch.low = slices.Delete(ch.low, i, i+1)
		}
	}
}

func (d *Domain) destroyChunk(ch *chunk) {
	d.links.RemovePrimitives(ch.low)
	d.links.RemovePrimitives(ch.high)
	for _, p := range ch.low {
		p.Destroy()
	}
	for _, p := range ch.high {
		p.Destroy()
	}
}

func (d *Domain) chunkOf(c Coord) chunkKey {
	return chunkKey{c[0] / d.cfg.ChunkSize, c[2] / d.cfg.ChunkSize}
}

// clip intersects b with the map bounds.
func (m *Map) clip(b Box) (Box, bool) {
	for i := range 3 {
		b.Min[i] = max(b.Min[i], 0)
		b.Max[i] = min(b.Max[i], m.size[i]-1)
		if b.Min[i] > b.Max[i] {
			return b, false
		}
	}
	return b, true
}
