// Package events implements the single periodic tick (C9) driving save,
// keep-alive, PM cleanup, and reconnection timeouts. Grounded on the
// teacher's Phase-ordered system.Runner: a small set of systems sorted by
// phase and run in order every tick, rather than one monolithic tick
// function.
package events

import (
	"sort"
	"time"
)

// TickPhase orders work within one tick of the main loop (§5 Concurrency
// Model: "dispatches complete frames, runs the timed-events tick... drains
// the bytecode completion queue").
type TickPhase int

const (
	PhaseInput TickPhase = iota
	PhaseTimedEvents
	PhaseCompileDrain
	PhaseCleanup
)

// System is one unit of periodic work.
type System interface {
	Phase() TickPhase
	Tick(now time.Time)
}

// Runner executes registered systems in phase order each tick.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{systems: make([]System, 0, 8)}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(now time.Time) {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
	for _, s := range r.systems {
		s.Tick(now)
	}
}
