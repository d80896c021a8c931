// Package model implements the process registry: an incrementally-built set
// of trackers, frozen at Finalize into a dependency map from entity to the
// tracker indices that must be notified on add/remove.
package model

import (
	"fmt"

	"github.com/ppsim/ppsim/sim/process"
	"github.com/ppsim/ppsim/sim/spatial"
	"github.com/ppsim/ppsim/sim/tracker"
)

// Model is the registry of trackers built before a simulation starts.
// Frozen after Finalize; Add panics if called afterward.
type Model struct {
	trackers     []tracker.Tracker
	maxEntityID  spatial.EntityID
	finalized    bool
	dependencies map[spatial.EntityID][]int
}

// New builds an empty, unfinalized Model.
func New() *Model {
	return &Model{dependencies: make(map[spatial.EntityID][]int)}
}

// Add wraps p in a Tracker (chosen by arity, via src) and appends it,
// merging p's input/output entities into the tracked entity range. Panics
// if called after Finalize.
func (m *Model) Add(p process.Descriptor, src tracker.PointSource) {
	if m.finalized {
		panic("model: Add called after Finalize")
	}
	for i := 0; i < p.InputCount(); i++ {
		m.observe(p.Input(i))
	}
	for i := 0; i < p.OutputCount(); i++ {
		m.observe(p.Output(i))
	}
	m.trackers = append(m.trackers, tracker.New(p, src))
}

func (m *Model) observe(e spatial.EntityID) {
	if e > m.maxEntityID {
		m.maxEntityID = e
	}
}

// Finalize computes the dependency map and freezes the model against
// further Add calls.
func (m *Model) Finalize() {
	if m.finalized {
		panic("model: Finalize called twice")
	}
	for i, tr := range m.trackers {
		p := tr.Process()
		for j := 0; j < p.InputCount(); j++ {
			e := p.Input(j)
			if !containsInt(m.dependencies[e], i) {
				m.dependencies[e] = append(m.dependencies[e], i)
			}
		}
	}
	m.finalized = true
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// Dependencies returns the tracker indices that consume entity e as an
// input (i.e. must be notified when an e-point is added or removed).
func (m *Model) Dependencies(e spatial.EntityID) []int {
	return m.dependencies[e]
}

// Tracker returns the tracker at index i.
func (m *Model) Tracker(i int) tracker.Tracker { return m.trackers[i] }

// Trackers returns all trackers in registration order.
func (m *Model) Trackers() []tracker.Tracker { return m.trackers }

// MaxEntityID returns the largest entity id referenced by any registered
// process (as an input or output). SimulationState allocates
// MaxEntityID()+1 PointSets, including for output-only entities.
func (m *Model) MaxEntityID() spatial.EntityID { return m.maxEntityID }

// ProcessCount returns the number of registered processes.
func (m *Model) ProcessCount() int { return len(m.trackers) }

// Finalized reports whether Finalize has been called.
func (m *Model) Finalized() bool { return m.finalized }

func (m *Model) String() string {
	return fmt.Sprintf("Model(processes=%d, maxEntity=%d, finalized=%v)", len(m.trackers), m.maxEntityID, m.finalized)
}
