// Package sim runs the simulation loop: one pathfinding update followed by one
// tick of every registered agent per interval.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/navcore/internal/pathfinding"
)

// TickManager drives the pathfinding facade and the agents walking on it.
// The facade and the agents are only touched from the goroutine running Start
// or Tick; other goroutines read the counters and States.
type TickManager struct {
	pf       *pathfinding.Pathfinding
	interval time.Duration

	agents     sync.Map // map[uint32]*Agent
	agentCount atomic.Int32
	ticks      atomic.Uint64

	statesMu sync.Mutex
	states   map[pathfinding.State]int // tallied at the end of every tick

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTickManager creates a tick manager for pf.
func NewTickManager(pf *pathfinding.Pathfinding, interval time.Duration) *TickManager {
	return &TickManager{
		pf:       pf,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register adds an agent. Registering an existing ID replaces the agent.
func (m *TickManager) Register(a *Agent) {
	if _, loaded := m.agents.Swap(a.ID(), a); !loaded {
		m.agentCount.Add(1)
	}
	slog.Debug("agent registered", "agent", a.ID(), "path", a.Path().ID())
}

// Unregister removes an agent.
func (m *TickManager) Unregister(id uint32) {
	if _, ok := m.agents.LoadAndDelete(id); !ok {
		return
	}
	m.agentCount.Add(-1)
	slog.Debug("agent unregistered", "agent", id)
}

// Agent returns a registered agent.
func (m *TickManager) Agent(id uint32) (*Agent, error) {
	value, ok := m.agents.Load(id)
	if !ok {
		return nil, fmt.Errorf("agent %d not found", id)
	}
	return value.(*Agent), nil
}

// Count returns number of registered agents.
func (m *TickManager) Count() int {
	return int(m.agentCount.Load())
}

// Ticks returns the number of completed ticks.
func (m *TickManager) Ticks() uint64 {
	return m.ticks.Load()
}

// Start runs the tick loop until ctx is canceled or Stop is called.
func (m *TickManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("sim tick manager started", "interval", m.interval, "agents", m.Count())

	for {
		select {
		case <-ctx.Done():
			slog.Info("sim tick manager stopping", "ticks", m.Ticks())
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("sim tick manager stopped", "ticks", m.Ticks())
			return nil

		case <-ticker.C:
			m.Tick()
		}
	}
}

// Stop stops the tick loop. It is safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Tick runs one simulation step: the pathfinding update, then every agent.
func (m *TickManager) Tick() {
	m.pf.Update()

	count := 0
	states := make(map[pathfinding.State]int)
	m.agents.Range(func(_, value any) bool {
		a := value.(*Agent)
		a.Tick()
		states[a.State()]++
		count++
		return true
	})
	m.statesMu.Lock()
	m.states = states
	m.statesMu.Unlock()
	m.ticks.Add(1)

	if count > 0 && pathfinding.IsDebugEnabled() {
		slog.Debug("sim tick completed", "tick", m.Ticks(), "agents", count)
	}
}

// States returns the number of agents per smart path state as of the last
// completed tick. It is safe to call from any goroutine.
func (m *TickManager) States() map[pathfinding.State]int {
	m.statesMu.Lock()
	defer m.statesMu.Unlock()
	return maps.Clone(m.states)
}
