package pathfinding

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/udisondev/navcore/internal/nav"
)

// State is the lifecycle state of a SmartPath.
type State uint8

const (
	StateUninitialized State = iota
	StateSearching
	StateReady
	StateFailed
	StateInvalidated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSearching:
		return "searching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateInvalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// phase is the step a searching SmartPath is in.
type phase uint8

const (
	phaseResolve  phase = iota // map begin and goal to primitives
	phaseHigh                  // cluster route over high-level primitives
	phaseCorridor              // low-level route restricted to the cluster route
	phaseFallback              // unrestricted low-level route
)

// SmartPath is a resumable path towards a possibly moving goal. Each Advance
// spends a bounded number of node expansions; a ready path is re-validated on
// every Advance and re-planned when it went stale or the goal moved away.
//
// A SmartPath holds no exclusive resource; abandoning it is enough.
type SmartPath struct {
	id string
	pf *Pathfinding

	begin mgl64.Vec3
	goal  SmartGoal
	state State
	err   error

	phase    phase
	search   *nav.Search
	stamp    nav.Timestamp
	start    *nav.Primitive
	target   *nav.Primitive
	aimedAt  mgl64.Vec3
	corridor map[*nav.Primitive]struct{}
	high     *nav.Path
	path     *nav.Path
	replans  int
}

func newSmartPath(pf *Pathfinding) *SmartPath {
	return &SmartPath{id: uuid.NewString(), pf: pf}
}

// ID identifies the smart path in logs.
func (s *SmartPath) ID() string { return s.id }

// Goal returns the current goal.
func (s *SmartPath) Goal() SmartGoal { return s.goal }

// Replans returns how many times a plan was discarded and restarted.
func (s *SmartPath) Replans() int { return s.replans }

// Err explains a Failed or Invalidated state.
func (s *SmartPath) Err() error {
	s.State()
	return s.err
}

// State returns the current state. Unloading the facade invalidates the path.
func (s *SmartPath) State() State {
	if s.pf.unloaded && s.state != StateInvalidated {
		s.invalidate()
	}
	return s.state
}

// Path returns the planned path while Ready.
func (s *SmartPath) Path() (*nav.Path, bool) {
	if s.State() != StateReady {
		return nil, false
	}
	return s.path, true
}

// Corridor returns the high-level route of the current plan, if one was found.
func (s *SmartPath) Corridor() (*nav.Path, bool) {
	if s.State() == StateInvalidated || s.high == nil {
		return nil, false
	}
	return s.high, true
}

// Waypoints returns the world positions of the ready path.
func (s *SmartPath) Waypoints() []mgl64.Vec3 {
	path, ok := s.Path()
	if !ok {
		return nil
	}
	return path.Waypoints()
}

// Init (re)starts planning from begin towards goal. It is a no-op once Invalidated.
func (s *SmartPath) Init(begin mgl64.Vec3, goal SmartGoal) {
	if s.State() == StateInvalidated {
		return
	}
	s.begin = begin
	s.goal = goal
	s.err = nil
	s.path = nil
	s.replans = 0
	s.restart()

	if !s.pf.cfg.Enabled {
		s.fail(nav.ErrDisabled)
		return
	}
	s.setState(StateSearching)
}

// SetBegin moves the start position used by the next plan, e.g. to the agent's
// current location. The current plan is kept.
func (s *SmartPath) SetBegin(begin mgl64.Vec3) {
	s.begin = begin
}

// Advance spends at most one search budget of work and returns the new state.
// A Ready path is checked first and re-planned when stale.
func (s *SmartPath) Advance() State {
	switch s.State() {
	case StateReady:
		reason := s.staleReason()
		if reason == "" {
			return StateReady
		}
		s.replan(reason)
	case StateSearching:
	default:
		return s.state
	}

	budget := max(s.pf.cfg.SmartPath.SearchBudget, 1)
	for budget > 0 && s.state == StateSearching {
		budget -= s.step(budget)
	}
	return s.state
}

// step runs the current phase and returns the budget it consumed, at least one.
func (s *SmartPath) step(budget int) int {
	if s.phase == phaseResolve {
		s.resolve()
		return 1
	}

	before := s.search.Expanded()
	status := s.search.Step(budget)
	used := s.search.Expanded() - before
	s.pf.metrics.Expanded(used)

	switch status {
	case nav.SearchFound:
		s.found()
	case nav.SearchExhausted:
		s.exhausted()
	default:
		return budget
	}
	return max(used, 1)
}

// resolve starts a planning cycle: it takes a fresh timestamp, maps both ends to
// primitives and starts the high-level search.
func (s *SmartPath) resolve() {
	s.stamp = s.pf.NextTimestamp()

	start, ok := s.pf.closest(s.begin, false, NoOwner())
	if !ok {
		s.fail(nav.ErrUnresolvable)
		return
	}
	center := s.goal.Shape.Center()
	target, ok := s.pf.closest(center, false, s.goal.Owner)
	if !ok {
		s.fail(nav.ErrUnresolvable)
		return
	}
	s.start, s.target = start.Primitive, target.Primitive
	s.aimedAt = center

	from, to := s.start.Parent(), s.target.Parent()
	if from.Alive() && to.Alive() {
		s.search = nav.NewSearch(s.pf.highGraph(), from, nav.Goal{Primitive: to})
		s.phase = phaseHigh
		return
	}
	s.search = nav.NewSearch(s.pf.graph(), s.start, s.lowGoal())
	s.phase = phaseFallback
}

func (s *SmartPath) found() {
	switch s.phase {
	case phaseHigh:
		s.high, _ = s.search.Path(s.stamp)
		s.corridor = make(map[*nav.Primitive]struct{}, s.high.Len())
		for _, p := range s.high.Primitives {
			s.corridor[p] = struct{}{}
		}
		s.search = nav.NewSearch(s.pf.graph(), s.start, s.lowGoal(), nav.WithFilter(s.inCorridor))
		s.phase = phaseCorridor

	case phaseCorridor, phaseFallback:
		path, _ := s.search.Path(s.stamp)
		if err := path.Check(s.pf.links.Links()); err != nil {
			s.replan("primitive destroyed while searching")
			return
		}
		if path.Outdated() {
			s.replan("topology changed while searching")
			return
		}
		s.path = path
		s.search = nil
		s.pf.metrics.SearchDone("smart", true, 0)
		s.setState(StateReady)
	}
}

func (s *SmartPath) exhausted() {
	if s.phase == phaseFallback {
		s.fail(nav.ErrUnreachable)
		return
	}
	// The cluster route is coarser than the low-level graph; retry unrestricted.
	s.search = nav.NewSearch(s.pf.graph(), s.start, s.lowGoal())
	s.phase = phaseFallback
}

func (s *SmartPath) lowGoal() nav.Goal {
	return nav.Goal{Primitive: s.target, Accept: s.accepts}
}

// accepts reports whether a search may stop at q: inside the goal shape and
// owned by the goal owner, if any.
func (s *SmartPath) accepts(q *nav.Primitive) bool {
	switch s.goal.Owner.Kind() {
	case OwnerVoxelMap:
		if m, _ := s.goal.Owner.VoxelMap(); q.Owner() != nav.Owner(m) {
			return false
		}
	case OwnerGrid:
		if g, _ := s.goal.Owner.Grid(); q.Owner() != nav.Owner(g) {
			return false
		}
	}
	return s.goal.Shape.Contains(q.Position())
}

func (s *SmartPath) inCorridor(q *nav.Primitive) bool {
	if q == s.target {
		return true
	}
	_, ok := s.corridor[q.Parent()]
	return ok
}

// staleReason returns why a ready path must be re-planned, or "".
func (s *SmartPath) staleReason() string {
	if d := s.pf.cfg.SmartPath.ReplanDistance; d > 0 && nav.Distance(s.goal.Shape.Center(), s.aimedAt) > d {
		return "goal moved"
	}
	if err := s.path.Check(s.pf.links.Links()); err != nil {
		return "stale reference"
	}
	if s.path.Outdated() {
		return "topology changed"
	}
	return ""
}

func (s *SmartPath) replan(reason string) {
	s.replans++
	s.path = nil
	s.restart()
	s.setState(StateSearching)

	if IsDebugEnabled() {
		slog.Debug("smart path re-planning", "path", s.id, "reason", reason, "replans", s.replans)
	}
}

func (s *SmartPath) restart() {
	s.phase = phaseResolve
	s.search = nil
	s.corridor = nil
	s.high = nil
	s.start = nil
	s.target = nil
}

func (s *SmartPath) fail(err error) {
	s.err = err
	s.restart()
	s.pf.metrics.SearchDone("smart", false, 0)
	s.setState(StateFailed)
}

func (s *SmartPath) invalidate() {
	s.err = nav.ErrUnloaded
	s.path = nil
	s.restart()
	s.setState(StateInvalidated)
}

func (s *SmartPath) setState(state State) {
	if s.state == state {
		return
	}
	s.state = state
	s.pf.metrics.SmartPathState(state.String())
	if IsDebugEnabled() {
		slog.Debug("smart path state", "path", s.id, "state", state)
	}
}
