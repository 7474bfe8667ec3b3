// Package navmesh stitches the navigation graphs of independent structures together.
//
// The Coordinator keeps two overlays: the low-level Link Graph between spatially
// adjacent primitives of different owners, and the High-Level Link Graph between
// the clusters those primitives belong to. Domains report primitive creation,
// destruction and structure movement; only primitives touched by such reports are
// re-linked on the next Update.
package navmesh

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/udisondev/navcore/internal/metrics"
	"github.com/udisondev/navcore/internal/nav"
)

// Config holds link policy.
type Config struct {
	// Radius is the maximum distance between two linked primitives.
	Radius float64
	// BucketSize is the edge of one spatial index bucket.
	BucketSize float64
}

// DefaultConfig returns the link policy used when none is configured.
func DefaultConfig() Config {
	return Config{Radius: 1.5, BucketSize: 4}
}

// clusterPair keys the support count of a high-level link, lower ID first.
type clusterPair struct {
	a, b *nav.Primitive
}

func makePair(a, b *nav.Primitive) clusterPair {
	if b.ID() < a.ID() {
		a, b = b, a
	}
	return clusterPair{a: a, b: b}
}

// Coordinator owns the link graphs for one pathfinding facade.
type Coordinator struct {
	cfg     Config
	metrics *metrics.Metrics

	links   *LinkGraph
	high    *LinkGraph
	support map[clusterPair]int

	index   *bucketIndex
	owners  map[uint64]map[*nav.Primitive]struct{}
	pending map[*nav.Primitive]struct{}

	version uint64
}

// NewCoordinator creates an empty coordinator. m may be nil.
func NewCoordinator(cfg Config, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		metrics: m,
		links:   NewLinkGraph(),
		high:    NewLinkGraph(),
		support: make(map[clusterPair]int),
		index:   newBucketIndex(cfg.BucketSize),
		owners:  make(map[uint64]map[*nav.Primitive]struct{}),
		pending: make(map[*nav.Primitive]struct{}),
	}
}

// Links returns the low-level link graph.
func (c *Coordinator) Links() *LinkGraph {
	return c.links
}

// HighLinks returns the high-level link graph.
func (c *Coordinator) HighLinks() *LinkGraph {
	return c.high
}

// Version increments on every link mutation at either level.
func (c *Coordinator) Version() uint64 {
	return c.version
}

// Pending returns the number of primitives waiting to be linked.
func (c *Coordinator) Pending() int {
	return len(c.pending)
}

// AddPrimitives registers freshly built low-level primitives for linking on the next Update.
// High-level primitives are ignored: their links derive from their members.
// Cluster parents must already be assigned.
func (c *Coordinator) AddPrimitives(prims []*nav.Primitive) {
	for _, p := range prims {
		if p.Level() != nav.LevelLow {
			continue
		}
		id := p.Owner().OwnerID()
		set := c.owners[id]
		if set == nil {
			set = make(map[*nav.Primitive]struct{})
			c.owners[id] = set
		}
		set[p] = struct{}{}
		c.index.insert(p)
		c.pending[p] = struct{}{}
	}
}

// RemovePrimitives drops every link touching prims immediately, so no search can
// observe a link to a primitive about to be destroyed. Call before Destroy.
func (c *Coordinator) RemovePrimitives(prims []*nav.Primitive) {
	for _, p := range prims {
		if p.Level() == nav.LevelHigh {
			for _, q := range c.high.neighbors(p) {
				c.removeHighLink(p, q)
			}
			continue
		}
		c.unlinkAll(p)
		c.index.remove(p)
		delete(c.pending, p)
		if set := c.owners[p.Owner().OwnerID()]; set != nil {
			delete(set, p)
			if len(set) == 0 {
				delete(c.owners, p.Owner().OwnerID())
			}
		}
	}
}

// StructureMoved drops the links of every primitive owned by owner, re-indexes them at
// their new positions and schedules them for re-linking.
func (c *Coordinator) StructureMoved(owner nav.Owner) {
	for p := range c.owners[owner.OwnerID()] {
		c.unlinkAll(p)
		c.index.insert(p)
		c.pending[p] = struct{}{}
	}
}

// ReleaseClusters withdraws the high-level support of every link of prims while
// keeping the low-level links. Call before the clusters of prims are destroyed,
// and RetainClusters once new clusters are assigned.
func (c *Coordinator) ReleaseClusters(prims []*nav.Primitive) {
	for _, p := range prims {
		for _, q := range c.links.neighbors(p) {
			c.releaseLink(p, q)
		}
	}
}

// RetainClusters counts every link of prims towards the high links of their
// current clusters.
func (c *Coordinator) RetainClusters(prims []*nav.Primitive) {
	for _, p := range prims {
		for _, q := range c.links.neighbors(p) {
			c.supportLink(p, q)
		}
	}
}

// RemoveStructure synchronously forgets every primitive of owner.
func (c *Coordinator) RemoveStructure(owner nav.Owner) {
	set := c.owners[owner.OwnerID()]
	if len(set) == 0 {
		return
	}
	prims := make([]*nav.Primitive, 0, len(set))
	for p := range set {
		prims = append(prims, p)
	}
	c.RemovePrimitives(prims)
	delete(c.owners, owner.OwnerID())
}

// Update links every pending primitive to live primitives of other owners within
// the link radius. Returns the number of links added.
func (c *Coordinator) Update() int {
	if len(c.pending) == 0 {
		return 0
	}

	batch := make([]*nav.Primitive, 0, len(c.pending))
	for p := range c.pending {
		batch = append(batch, p)
	}
	slices.SortFunc(batch, func(a, b *nav.Primitive) int { return cmp.Compare(a.ID(), b.ID()) })
	clear(c.pending)

	added := 0
	for _, p := range batch {
		if !p.Alive() {
			continue
		}
		owner := p.Owner().OwnerID()
		c.index.within(p.Position(), c.cfg.Radius, func(q *nav.Primitive, distSq float64) {
			if q.Owner().OwnerID() == owner || !q.Alive() {
				return
			}
			if c.addLink(p, q, math.Sqrt(distSq)) {
				added++
			}
		})
	}

	c.metrics.LinkCount("low", c.links.Len())
	c.metrics.LinkCount("high", c.high.Len())
	if added > 0 {
		slog.Debug("navmesh links reconciled", "primitives", len(batch), "added", added, "links", c.links.Len())
	}
	return added
}

// Clear releases every link and index entry.
func (c *Coordinator) Clear() {
	c.links = NewLinkGraph()
	c.high = NewLinkGraph()
	clear(c.support)
	c.index = newBucketIndex(c.cfg.BucketSize)
	clear(c.owners)
	clear(c.pending)
}

func (c *Coordinator) addLink(a, b *nav.Primitive, cost float64) bool {
	if !c.links.add(a, b, cost) {
		return false
	}
	c.version++
	c.metrics.LinkMutation("low", "add")
	c.supportLink(a, b)
	return true
}

// supportLink counts the link a-b towards the high link between their clusters.
func (c *Coordinator) supportLink(a, b *nav.Primitive) {
	pa, pb := a.Parent(), b.Parent()
	if pa == nil || pb == nil {
		return
	}
	key := makePair(pa, pb)
	c.support[key]++
	if c.support[key] == 1 && c.high.add(pa, pb, nav.Distance(pa.Position(), pb.Position())) {
		c.version++
		c.metrics.LinkMutation("high", "add")
	}
}

// releaseLink withdraws the support of a-b, dropping the high link with its last support.
func (c *Coordinator) releaseLink(a, b *nav.Primitive) {
	pa, pb := a.Parent(), b.Parent()
	if pa == nil || pb == nil {
		return
	}
	key := makePair(pa, pb)
	n, ok := c.support[key]
	if !ok {
		return
	}
	if n <= 1 {
		c.removeHighLink(pa, pb)
		return
	}
	c.support[key] = n - 1
}

func (c *Coordinator) unlinkAll(p *nav.Primitive) {
	for _, q := range c.links.neighbors(p) {
		c.removeLink(p, q)
	}
}

func (c *Coordinator) removeLink(a, b *nav.Primitive) {
	if !c.links.remove(a, b) {
		return
	}
	c.version++
	c.metrics.LinkMutation("low", "remove")
	c.releaseLink(a, b)
}

func (c *Coordinator) removeHighLink(a, b *nav.Primitive) {
	delete(c.support, makePair(a, b))
	if c.high.remove(a, b) {
		c.version++
		c.metrics.LinkMutation("high", "remove")
	}
}
