// Package engine implements the SSA driver: the Simulator that recomputes
// propensities, samples a waiting time and a process, applies the selected
// reaction, and notifies writers and halting conditions each step.
package engine

import (
	"fmt"
	"math"

	"github.com/ppsim/ppsim/sim/model"
	"github.com/ppsim/ppsim/sim/rng"
	"github.com/ppsim/ppsim/sim/state"
	"github.com/ppsim/ppsim/sim/tracker"
)

// MinHaltPropensity is the total-propensity floor below which the
// simulation halts as exhausted.
const MinHaltPropensity = 1e-10

// Writer observes simulation progress: start-of-run, one call per
// reaction, and end-of-run.
type Writer interface {
	Start(s *state.SimulationState)
	ProcessActivated(s *state.SimulationState, tau float64, processID int)
	End(s *state.SimulationState)
}

// HaltingCondition is an external predicate inspected between steps; it
// returns true (and a reason) when the run should stop.
type HaltingCondition func(s *state.SimulationState) (bool, string)

// Simulator drives the Gillespie SSA loop over a Model and SimulationState.
type Simulator struct {
	model *model.Model
	state *state.SimulationState
	prng  *rng.Partitioned

	done       bool
	haltReason string

	currentPropensities []float64
	currentTotal        float64

	haltingConditions []HaltingCondition
	writers           []Writer
}

// New builds a Simulator over m (already finalized) and s, sharing prng for
// waiting-time and process-selection draws.
func New(m *model.Model, s *state.SimulationState, prng *rng.Partitioned) *Simulator {
	if !m.Finalized() {
		panic("engine: Simulator requires a finalized Model")
	}
	return &Simulator{
		model:               m,
		state:               s,
		prng:                prng,
		currentPropensities: make([]float64, m.ProcessCount()),
	}
}

// AddHaltingCondition registers an external predicate checked between steps.
func (sim *Simulator) AddHaltingCondition(f HaltingCondition) {
	sim.haltingConditions = append(sim.haltingConditions, f)
}

// AddWriter registers a writer to be notified of run start/end and every
// reaction.
func (sim *Simulator) AddWriter(w Writer) {
	sim.writers = append(sim.writers, w)
}

// Done reports whether the simulation has halted.
func (sim *Simulator) Done() bool { return sim.done }

// HaltReason returns the human-readable reason the simulation halted, or ""
// if still running.
func (sim *Simulator) HaltReason() string { return sim.haltReason }

// State returns the underlying SimulationState.
func (sim *Simulator) State() *state.SimulationState { return sim.state }

// Model returns the underlying Model.
func (sim *Simulator) Model() *model.Model { return sim.model }

// updatePropensity recomputes every tracker's propensity and Kahan-sums
// them into currentTotal, halting if the total falls at or below
// MinHaltPropensity.
func (sim *Simulator) updatePropensity() {
	var sum KahanSum
	for i, tr := range sim.model.Trackers() {
		p := tr.Propensity()
		sim.currentPropensities[i] = p
		sum.Add(p)
	}
	sim.currentTotal = sum.Total()
	if sim.currentTotal <= MinHaltPropensity {
		sim.done = true
		sim.haltReason = "zero propensity"
	}
}

// isDone evaluates every registered halting condition, setting done and the
// reason on the first one that triggers.
func (sim *Simulator) isDone() bool {
	for i, f := range sim.haltingConditions {
		if triggered, reason := f(sim.state); triggered {
			sim.done = true
			if reason == "" {
				reason = fmt.Sprintf("halting condition #%d triggered", i)
			}
			sim.haltReason = reason
			break
		}
	}
	return sim.done
}

// nextTime samples the exponential waiting time tau = -ln(u)/total using
// the "time" PRNG subsystem.
func (sim *Simulator) nextTime() float64 {
	u := sim.prng.ForSubsystem(rng.SubsystemTime).Float64()
	return -math.Log(u) / sim.currentTotal
}

// nextReaction draws u in [0, total) using the "select" PRNG subsystem and
// walks trackers, Kahan-summing propensity until the running mass reaches
// u, returning the first such tracker index.
func (sim *Simulator) nextReaction() int {
	target := sim.prng.ForSubsystem(rng.SubsystemSelect).Float64() * sim.currentTotal
	var mass KahanSum
	for i, p := range sim.currentPropensities {
		mass.Add(p)
		if mass.Total() >= target {
			return i
		}
	}
	panic(NewInvariantViolation(
		fmt.Sprintf("total=%v target=%v", sim.currentTotal, target),
		"next_reaction: sum of all propensities fell short of the selection target",
	))
}

// Run advances the simulation for t time units, notifying every registered
// writer of the run's start and end (original's Simulator::run(t)). It is a
// convenience over repeated Step calls; callers needing finer control
// (e.g. progress reporting between steps) can drive Step directly instead.
func (sim *Simulator) Run(t float64) {
	for _, w := range sim.writers {
		w.Start(sim.state)
	}

	var elapsed float64
	for elapsed < t && !sim.Done() {
		elapsed += sim.Step()
	}
	if !sim.Done() {
		sim.done = true
		sim.haltReason = "time horizon reached"
	}

	for _, w := range sim.writers {
		w.End(sim.state)
	}
}

// Step executes one iteration of the SSA loop, returning the elapsed
// waiting time tau (0 if the simulation halted this step).
func (sim *Simulator) Step() float64 {
	sim.updatePropensity()
	if sim.done {
		return 0
	}
	if sim.isDone() {
		return 0
	}

	tau := sim.nextTime()
	rid := sim.nextReaction()
	sim.state.Stats.Update(tau, rid)
	sim.runReaction(rid)

	for _, w := range sim.writers {
		w.ProcessActivated(sim.state, tau, rid)
	}
	return tau
}

// runReaction activates the selected tracker and applies its buffers:
// removal notifications and point destruction for every reactant, in full,
// before any product is added and its addition notified.
func (sim *Simulator) runReaction(rid int) {
	tr := sim.model.Tracker(rid)
	buf := tr.Activate(sim.prng.ForSubsystem(fmt.Sprintf("process:%d", rid)))
	p := tr.Process()

	wantIn, wantOut := p.InputCount(), p.OutputCount()
	if len(buf.Reactants) != wantIn || len(buf.Products) != wantOut {
		panic(NewInvariantViolation(
			fmt.Sprintf("process=%s reactants=%d products=%d", p, len(buf.Reactants), len(buf.Products)),
			"activate() buffer size mismatch: expected %d reactants and %d products", wantIn, wantOut,
		))
	}

	for _, rr := range buf.Reactants {
		pt := sim.state.Get(rr.Entity, rr.Handle)
		ev := tracker.Event{Handle: rr.Handle, Coord: pt.Coord, Entity: rr.Entity, Hash: pt.Hash()}
		for _, depID := range sim.model.Dependencies(rr.Entity) {
			sim.model.Tracker(depID).NotifyRemove(ev)
		}
		sim.state.DestroyPoint(rr.Entity, rr.Handle)
	}

	for _, spec := range buf.Products {
		h := sim.state.NewPoint(spec.X, spec.Y, spec.Entity)
		pt := sim.state.Get(spec.Entity, h)
		ev := tracker.Event{Handle: h, Coord: pt.Coord, Entity: spec.Entity, Hash: pt.Hash()}
		for _, depID := range sim.model.Dependencies(spec.Entity) {
			sim.model.Tracker(depID).NotifyAdd(ev)
		}
	}
}
