package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/udisondev/navcore/internal/nav"
	"github.com/udisondev/navcore/internal/pathfinding"
)

// Agent walks along a smart path, advancing its search and its position once per tick.
type Agent struct {
	id    uint32
	pos   mgl64.Vec3
	speed float64 // metres per tick

	path     *pathfinding.SmartPath
	followed *nav.Path
	next     int // index of the next waypoint on followed
}

// NewAgent creates an agent at pos following path.
func NewAgent(id uint32, pos mgl64.Vec3, speed float64, path *pathfinding.SmartPath) *Agent {
	return &Agent{id: id, pos: pos, speed: speed, path: path}
}

func (a *Agent) ID() uint32                   { return a.id }
func (a *Agent) Position() mgl64.Vec3         { return a.pos }
func (a *Agent) Path() *pathfinding.SmartPath { return a.path }
func (a *Agent) State() pathfinding.State     { return a.path.State() }

// Arrived reports whether the agent reached the end of its current path.
func (a *Agent) Arrived() bool {
	return a.followed != nil && a.next >= a.followed.Len()
}

// Retarget restarts planning from the current position.
func (a *Agent) Retarget(goal pathfinding.SmartGoal) {
	a.followed = nil
	a.next = 0
	a.path.Init(a.pos, goal)
}

// Tick advances the path search and, once a path is ready, moves along it.
func (a *Agent) Tick() {
	if a.path.Advance() != pathfinding.StateReady {
		return
	}

	path, _ := a.path.Path()
	if path != a.followed {
		a.followed = path
		a.next = 0
	}

	// Waypoints are re-read every tick: primitives on a moving grid move with it.
	points := path.Waypoints()
	budget := a.speed
	for a.next < len(points) && budget > 0 {
		to := points[a.next]
		d := nav.Distance(a.pos, to)
		if d <= budget {
			a.pos = to
			budget -= d
			a.next++
			continue
		}
		a.pos = a.pos.Add(to.Sub(a.pos).Mul(budget / d))
		budget = 0
	}
	a.path.SetBegin(a.pos)
}
