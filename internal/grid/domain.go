// Package grid maintains navigation graphs for rigid cell-based structures.
//
// Every walkable cell (solid, with free space above) of a structure becomes one
// low-level primitive. Cells are grouped into cubic chunks; the connected
// components of a chunk become high-level primitives. Structural notifications
// mark chunks dirty and Update rebuilds a bounded number of them per tick.
// Primitives standing on cells that stopped being walkable are destroyed at
// notification time, never left for the rebuild.
package grid

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/navcore/internal/metrics"
	"github.com/udisondev/navcore/internal/nav"
	"github.com/udisondev/navcore/internal/navmesh"
)

// ErrStructureRemoved is returned for notifications about a structure that no longer exists.
var ErrStructureRemoved = errors.New("structure removed")

// StructureError reports a rejected structure notification.
type StructureError struct {
	ID     uint64
	Reason string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("grid structure %d: %s", e.ID, e.Reason)
}

func (e *StructureError) Is(target error) bool {
	return target == ErrStructureRemoved && e.Reason == reasonRemoved
}

const reasonRemoved = "removed"

// Config holds grid domain policy.
type Config struct {
	CellSize      float64
	ChunkSize     int
	RebuildBudget int // chunks rebuilt per Update
	SearchLimit   int // expansions for FindPath
}

// DefaultConfig returns the grid policy used when none is configured.
func DefaultConfig() Config {
	return Config{CellSize: 2.5, ChunkSize: 8, RebuildBudget: 8, SearchLimit: 20000}
}

type dirtyChunk struct {
	s   *Structure
	key chunkKey
}

// Domain owns every grid structure of one pathfinding facade.
type Domain struct {
	cfg     Config
	ids     *nav.IDAllocator
	clock   *nav.Clock
	links   *navmesh.Coordinator
	metrics *metrics.Metrics

	structures map[uint64]*Structure
	queue      []dirtyChunk
	queued     map[dirtyChunk]struct{}
}

// NewDomain creates an empty grid domain linked through links. m may be nil.
func NewDomain(cfg Config, ids *nav.IDAllocator, clock *nav.Clock, links *navmesh.Coordinator, m *metrics.Metrics) *Domain {
	return &Domain{
		cfg:        cfg,
		ids:        ids,
		clock:      clock,
		links:      links,
		metrics:    m,
		structures: make(map[uint64]*Structure),
		queued:     make(map[dirtyChunk]struct{}),
	}
}

// Structure returns a live structure by ID.
func (d *Domain) Structure(id uint64) (*Structure, bool) {
	s, ok := d.structures[id]
	return s, ok
}

// Structures returns the live structures ordered by ID.
func (d *Domain) Structures() []*Structure {
	out := make([]*Structure, 0, len(d.structures))
	for _, s := range d.structures {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Structure) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Pending returns the number of chunks waiting for a rebuild.
func (d *Domain) Pending() int {
	return len(d.queue)
}

// AddStructure creates a structure from solid cells. Its graph is built by
// subsequent Update calls.
func (d *Domain) AddStructure(position mgl64.Vec3, rotation mgl64.Quat, cells []Cell) *Structure {
	s := newStructure(d.ids.NextOwnerID(), d.cfg.CellSize, position, rotation)
	for _, c := range cells {
		s.cells[c] = struct{}{}
	}
	s.changedAt = d.clock.Current()
	d.structures[s.id] = s
	for _, c := range cells {
		d.markDirty(s, c)
	}

	slog.Debug("grid structure added", "structure", s.id, "cells", len(cells))
	return s
}

// SetCell makes c solid. The primitive on the cell below loses its headroom and is
// destroyed immediately.
func (d *Domain) SetCell(s *Structure, c Cell) error {
	if err := d.check(s); err != nil {
		return err
	}
	if s.HasCell(c) {
		return nil
	}
	s.cells[c] = struct{}{}
	d.destroyCells(s, c.Down())
	d.touch(s, c)
	return nil
}

// RemoveCell clears c and destroys the primitive standing on it.
func (d *Domain) RemoveCell(s *Structure, c Cell) error {
	if err := d.check(s); err != nil {
		return err
	}
	if !s.HasCell(c) {
		return nil
	}
	delete(s.cells, c)
	d.destroyCells(s, c)
	d.touch(s, c)
	return nil
}

// Move places the structure at a new transform. Its graph is unchanged; its links
// are dropped now and rebuilt on the next coordinator update.
func (d *Domain) Move(s *Structure, position mgl64.Vec3, rotation mgl64.Quat) error {
	if err := d.check(s); err != nil {
		return err
	}
	s.position = position
	s.rotation = rotation.Normalize()
	d.links.StructureMoved(s)
	return nil
}

// Merge moves every cell of src into dst and removes src. Cells are snapped to
// the nearest cell of dst's frame.
func (d *Domain) Merge(dst, src *Structure) error {
	if err := d.check(dst); err != nil {
		return err
	}
	if err := d.check(src); err != nil {
		return err
	}
	if dst == src {
		return &StructureError{ID: dst.id, Reason: "merge with itself"}
	}

	half := mgl64.Vec3{0.5, 0.5, 0.5}.Mul(src.cellSize)
	moved := make([]Cell, 0, len(src.cells))
	for c := range src.cells {
		center := src.ToWorld(mgl64.Vec3{float64(c[0]), float64(c[1]), float64(c[2])}.Mul(src.cellSize).Add(half))
		moved = append(moved, dst.CellAt(dst.ToLocal(center)))
	}
	d.RemoveStructure(src)

	for _, c := range moved {
		if dst.HasCell(c) {
			continue
		}
		dst.cells[c] = struct{}{}
		d.destroyCells(dst, c.Down())
		d.markDirty(dst, c)
	}
	dst.changedAt = d.clock.Current()

	slog.Debug("grid structures merged", "into", dst.id, "from", src.id, "cells", len(moved))
	return nil
}

// Split detaches cells from s into a new structure sharing s's transform.
// Primitives on the detached cells are destroyed immediately, so references into
// s for that geometry go stale rather than silently following the new piece.
func (d *Domain) Split(s *Structure, cells []Cell) (*Structure, error) {
	if err := d.check(s); err != nil {
		return nil, err
	}

	detached := make([]Cell, 0, len(cells))
	for _, c := range cells {
		if s.HasCell(c) {
			detached = append(detached, c)
		}
	}
	if len(detached) == 0 {
		return nil, &StructureError{ID: s.id, Reason: "split without cells"}
	}

	for _, c := range detached {
		delete(s.cells, c)
	}
	for _, c := range detached {
		d.destroyCells(s, c)
		d.markDirty(s, c)
	}
	s.changedAt = d.clock.Current()

	piece := d.AddStructure(s.position, s.rotation, detached)

	slog.Debug("grid structure split", "structure", s.id, "piece", piece.id, "cells", len(detached))
	return piece, nil
}

// RemoveStructure destroys the structure, its primitives and every link touching them.
func (d *Domain) RemoveStructure(s *Structure) {
	if s.removed {
		return
	}
	d.links.RemoveStructure(s)
	for key, ch := range s.chunks {
		d.destroyChunk(ch)
		delete(s.chunks, key)
	}
	clear(s.prims)
	s.removed = true
	s.changedAt = d.clock.Current()
	delete(d.structures, s.id)

	slog.Debug("grid structure removed", "structure", s.id)
}

// Update rebuilds up to RebuildBudget dirty chunks, oldest first.
func (d *Domain) Update() {
	rebuilt := 0
	for len(d.queue) > 0 && rebuilt < d.cfg.RebuildBudget {
		item := d.queue[0]
		d.queue[0] = dirtyChunk{}
		d.queue = d.queue[1:]
		delete(d.queued, item)
		if item.s.removed {
			continue
		}
		d.rebuildChunk(item.s, item.key)
		rebuilt++
	}
	if len(d.queue) == 0 {
		d.queue = nil
	}
	d.metrics.ChunksRebuilt("grid", rebuilt)
}

// Unload removes every structure.
func (d *Domain) Unload() {
	for _, s := range d.Structures() {
		d.RemoveStructure(s)
	}
	d.queue = nil
	clear(d.queued)
}

// FindClosestPrimitive returns the primitive closest to point. When owner is not
// nil only that structure is scanned; a removed owner yields nothing.
func (d *Domain) FindClosestPrimitive(point mgl64.Vec3, highLevel bool, owner *Structure) (nav.Candidate, bool) {
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
	for _, s := range d.structures {
		best = d.closestIn(s, point, level, best)
	}
	return best, best.Primitive != nil
}

// FindPath searches from start to end across edges and links. The path is
// stamped with a fresh timestamp, so it is outdated by any later change.
func (d *Domain) FindPath(start, end *nav.Primitive) (*nav.Path, bool) {
	if start.Domain() != nav.DomainGrid {
		return nil, false
	}
	return nav.FindPath(nav.Graph{Links: d.links.Links()}, start, nav.Goal{Primitive: end}, d.cfg.SearchLimit, d.clock.Next())
}

func (d *Domain) check(s *Structure) error {
	if s == nil || s.removed {
		id := uint64(0)
		if s != nil {
			id = s.id
		}
		return &StructureError{ID: id, Reason: reasonRemoved}
	}
	return nil
}

// touch records a topology change around c.
func (d *Domain) touch(s *Structure, c Cell) {
	s.changedAt = d.clock.Current()
	d.markDirty(s, c)
}

// markDirty queues every chunk whose walkability or edges depend on c.
func (d *Domain) markDirty(s *Structure, c Cell) {
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				item := dirtyChunk{s: s, key: d.chunkOf(c.Add(dx, dy, dz))}
				if _, ok := d.queued[item]; ok {
					continue
				}
				d.queued[item] = struct{}{}
				d.queue = append(d.queue, item)
			}
		}
	}
}

// destroyCells destroys the low-level primitives standing on the given cells.
func (d *Domain) destroyCells(s *Structure, cells ...Cell) {
	for _, c := range cells {
		p, ok := s.prims[c]
		if !ok {
			continue
		}
		d.links.RemovePrimitives([]*nav.Primitive{p})
		p.Destroy()
		delete(s.prims, c)
		if ch := s.chunks[d.chunkOf(c)]; ch != nil {
			if i := slices.Index(ch.low, p); i >= 0 {
				ch.low = slices.Delete(ch.low, i, i+1)
			}
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

func (d *Domain) chunkOf(c Cell) chunkKey {
	n := int32(d.cfg.ChunkSize)
	return chunkKey{floorDiv(c[0], n), floorDiv(c[1], n), floorDiv(c[2], n)}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
