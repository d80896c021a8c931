// Package tracker implements per-process propensity bookkeeping: the three
// arity variants the simulator queries for a propensity and asks to produce
// reactant/product buffers for a firing.
package tracker

import (
	"fmt"
	"math/rand/v2"

	"github.com/ppsim/ppsim/sim/config"
	"github.com/ppsim/ppsim/sim/geom"
	"github.com/ppsim/ppsim/sim/process"
	"github.com/ppsim/ppsim/sim/spatial"
)

// PointSource is the slice of SimulationState a Tracker needs: the torus
// size and a lookup from entity to its owning PointSet. Defined here (not
// imported from sim/state) so sim/state can depend on sim/tracker without a
// cycle — trackers accept whatever satisfies this small surface.
type PointSource interface {
	U() float64
	Area() float64
	PointSet(entity spatial.EntityID) *spatial.PointSet
}

// Event describes a point add/remove notification: enough information to
// run a neighborhood query around it and bucket configurations referencing
// it without re-resolving a handle.
type Event struct {
	Handle spatial.Handle
	Coord  geom.Coord
	Entity spatial.EntityID
	Hash   uint64
}

// Tracker owns the propensity bookkeeping for one process.
type Tracker interface {
	Process() process.Descriptor
	Propensity() float64
	Activate(rng *rand.Rand) process.Buffers
	NotifyAdd(e Event)
	NotifyRemove(e Event)
}

// New builds the Tracker variant appropriate to p's arity (0, 1, or >=2).
func New(p process.Descriptor, src PointSource) Tracker {
	switch p.InputCount() {
	case 0:
		a0, ok := p.(process.Arity0)
		if !ok {
			panic(fmt.Sprintf("tracker: process %s has 0 inputs but does not implement Arity0", p))
		}
		return &arity0Tracker{p: a0, src: src}
	case 1:
		a1, ok := p.(process.Arity1)
		if !ok {
			panic(fmt.Sprintf("tracker: process %s has 1 input but does not implement Arity1", p))
		}
		return &arity1Tracker{p: a1, src: src}
	default:
		ak, ok := p.(process.ArityK)
		if !ok {
			panic(fmt.Sprintf("tracker: process %s has %d inputs but does not implement ArityK", p, p.InputCount()))
		}
		return newArityKTracker(ak, src)
	}
}

// arity0Tracker: propensity = base_rate * area; activate delegates entirely
// to the process, which samples its own uniform coordinate. Notifications
// are no-ops.
type arity0Tracker struct {
	p   process.Arity0
	src PointSource
}

func (t *arity0Tracker) Process() process.Descriptor { return t.p }
func (t *arity0Tracker) Propensity() float64          { return t.p.Rate(t.src.Area()) }
func (t *arity0Tracker) Activate(rng *rand.Rand) process.Buffers {
	return t.p.Activate(rng, t.src.U())
}
func (t *arity0Tracker) NotifyAdd(e Event)    {}
func (t *arity0Tracker) NotifyRemove(e Event) {}

// arity1Tracker: propensity = base_rate * count(input entity); activate
// draws a uniform point of the input entity then delegates. Notifications
// are no-ops since the PointSet's own count already reflects additions and
// removals.
type arity1Tracker struct {
	p   process.Arity1
	src PointSource
}

func (t *arity1Tracker) Process() process.Descriptor { return t.p }

func (t *arity1Tracker) Propensity() float64 {
	ps := t.src.PointSet(t.p.Input(0))
	return t.p.PerCapitaRate() * float64(ps.Count())
}

func (t *arity1Tracker) Activate(rng *rand.Rand) process.Buffers {
	ps := t.src.PointSet(t.p.Input(0))
	u := t.src.U()
	h := ps.GetRandom(rng.Float64())
	pt := ps.Get(h)
	return t.p.Activate(rng, u, process.Ref{Handle: h, Coord: pt.Coord, Hash: pt.Hash()})
}

func (t *arity1Tracker) NotifyAdd(e Event)    {}
func (t *arity1Tracker) NotifyRemove(e Event) {}

// arityKTracker owns a ConfigurationSet of tuples satisfying p's kernel
// support, keeping it consistent via NotifyAdd/NotifyRemove.
type arityKTracker struct {
	p             process.ArityK
	src           PointSource
	cs            *config.ConfigurationSet
	entityIndices map[spatial.EntityID][]int // which input slots take this entity
}

func newArityKTracker(p process.ArityK, src PointSource) *arityKTracker {
	indices := make(map[spatial.EntityID][]int)
	for i := 0; i < p.InputCount(); i++ {
		e := p.Input(i)
		indices[e] = append(indices[e], i)
	}
	return &arityKTracker{
		p:             p,
		src:           src,
		cs:            config.New(p.InputCount()),
		entityIndices: indices,
	}
}

func (t *arityKTracker) Process() process.Descriptor { return t.p }

func (t *arityKTracker) Propensity() float64 { return t.cs.TotalRealWeight() }

func (t *arityKTracker) Activate(rng *rand.Rand) process.Buffers {
	u := t.src.U()
	c := t.cs.GetRandom(rng.Float64())
	refs := make([]process.Ref, c.Arity())
	for i := range refs {
		h := c.Point(i)
		pt := t.src.PointSet(t.p.Input(i)).Get(h)
		refs[i] = process.Ref{Handle: h, Coord: pt.Coord, Hash: pt.Hash()}
	}
	return t.p.Activate(rng, u, refs)
}

// NotifyAdd forms every candidate tuple having the new point p in one of its
// matching slots, via the Cartesian product of neighbor queries over the
// remaining slots, and adds each candidate with positive real weight to the
// underlying ConfigurationSet.
func (t *arityKTracker) NotifyAdd(e Event) {
	radius := t.p.InputRadius()
	for _, focalSlot := range t.entityIndices[e.Entity] {
		t.expand(e, focalSlot, radius, func(refs []process.Ref) {
			weight := t.p.TupleRate(t.src.U(), refs)
			if weight <= 0 {
				return
			}
			t.cs.Add(t.cs.Create(weight, toPointRefs(refs)...))
		})
	}
}

// NotifyRemove mirrors NotifyAdd: it re-derives every candidate tuple that
// could have contained p (same neighbor-query construction) and destroys
// each one actually present. The configuration-set miss check belongs to
// FindAndDestroy itself, which treats a missing tuple as a fatal invariant
// violation — a correctly-formed candidate is only ever offered here if it
// was previously added with positive weight, so any miss does indicate
// corruption.
func (t *arityKTracker) NotifyRemove(e Event) {
	radius := t.p.InputRadius()
	for _, focalSlot := range t.entityIndices[e.Entity] {
		t.expand(e, focalSlot, radius, func(refs []process.Ref) {
			if t.p.TupleRate(t.src.U(), refs) <= 0 {
				return
			}
			t.cs.FindAndDestroy(toPointRefs(refs)...)
		})
	}
}

// expand builds the Cartesian product of neighbor candidates across every
// input slot other than focalSlot (which is pinned to e), and invokes fn
// once per resulting full-arity tuple. Candidates come from each slot's own
// entity's PointSet, queried within radius of e.Coord.
func (t *arityKTracker) expand(e Event, focalSlot int, radius float64, fn func([]process.Ref)) {
	k := t.p.InputCount()
	slots := make([][]process.Ref, k)
	slots[focalSlot] = []process.Ref{{Handle: e.Handle, Coord: e.Coord, Hash: e.Hash}}

	for i := 0; i < k; i++ {
		if i == focalSlot {
			continue
		}
		entity := t.p.Input(i)
		ps := t.src.PointSet(entity)
		var exclude *spatial.Handle
		if entity == e.Entity {
			exclude = &e.Handle
		}
		handles := ps.GetWithin(e.Coord, radius, exclude, nil)
		refs := make([]process.Ref, len(handles))
		for j, h := range handles {
			pt := ps.Get(h)
			refs[j] = process.Ref{Handle: h, Coord: pt.Coord, Hash: pt.Hash()}
		}
		slots[i] = refs
	}

	for _, s := range slots {
		if len(s) == 0 {
			return
		}
	}

	for _, tup := range cartesian(slots) {
		fn(tup)
	}
}

// cartesian enumerates the Cartesian product of slots[0] x slots[1] x ... in
// slot order, each element a full-length tuple.
func cartesian(slots [][]process.Ref) [][]process.Ref {
	result := [][]process.Ref{{}}
	for _, options := range slots {
		var next [][]process.Ref
		for _, prefix := range result {
			for _, opt := range options {
				tup := make([]process.Ref, len(prefix), len(prefix)+1)
				copy(tup, prefix)
				tup = append(tup, opt)
				next = append(next, tup)
			}
		}
		result = next
	}
	return result
}

func toPointRefs(refs []process.Ref) []config.PointRef {
	out := make([]config.PointRef, len(refs))
	for i, r := range refs {
		out[i] = config.PointRef{Handle: r.Handle, Hash: r.Hash}
	}
	return out
}
