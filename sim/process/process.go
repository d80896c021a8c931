package process

import (
	"math/rand/v2"

	"github.com/ppsim/ppsim/sim/geom"
	"github.com/ppsim/ppsim/sim/spatial"
)

// Ref is a resolved reference to a live point: its handle (for removal) and
// its coordinate (for kernel-centered dispersal), passed to Activate so
// concrete processes never need to reach back into a PointSet themselves.
type Ref struct {
	Handle spatial.Handle
	Coord  geom.Coord
	Hash   uint64
}

// Buffers collects the reactant (removed) and product (added) point
// descriptors a process's Activate populates for a single firing.
// Reactants reference existing points by (handle, entity) — entity is
// carried explicitly because a Handle's index/generation are only unique
// within the PointSet that allocated it, so the caller must not guess which
// entity a reactant belongs to. Products are described by (coord, entity)
// pairs the caller (sim/engine, via sim/state) will allocate.
type Buffers struct {
	Reactants []ReactantRef
	Products  []NewPointSpec
}

// ReactantRef names a point to be removed as part of a reaction.
type ReactantRef struct {
	Handle spatial.Handle
	Entity spatial.EntityID
}

// NewPointSpec describes a point to be created as a reaction product.
type NewPointSpec struct {
	X, Y   float64
	Entity spatial.EntityID
}

// Reset clears both buffers for reuse across steps.
func (b *Buffers) Reset() {
	b.Reactants = b.Reactants[:0]
	b.Products = b.Products[:0]
}

// HandlesOnly extracts the bare handles from a ReactantRef slice, for
// callers (tests) that only care about identity, not entity.
func HandlesOnly(refs []ReactantRef) []spatial.Handle {
	out := make([]spatial.Handle, len(refs))
	for i, r := range refs {
		out[i] = r.Handle
	}
	return out
}

// Descriptor is the entity/topology surface of a process: input/output
// entity lists and interaction radius, used by Model to compute the
// dependency map without knowing concrete process types.
type Descriptor interface {
	InputCount() int
	OutputCount() int
	Input(i int) spatial.EntityID
	Output(i int) spatial.EntityID
	InputRadius() float64
	String() string
}

// InputList returns all input entities in order.
func InputList(d Descriptor) []spatial.EntityID {
	out := make([]spatial.EntityID, d.InputCount())
	for i := range out {
		out[i] = d.Input(i)
	}
	return out
}

// OutputList returns all output entities in order.
func OutputList(d Descriptor) []spatial.EntityID {
	out := make([]spatial.EntityID, d.OutputCount())
	for i := range out {
		out[i] = d.Output(i)
	}
	return out
}

// Base implements the fixed input/output/radius bookkeeping shared by every
// concrete process, mirroring original_source/.../sprocess.h's Process<IN,OUT>.
type Base struct {
	Inputs  []spatial.EntityID
	Outputs []spatial.EntityID
	Radius  float64
}

func (b Base) InputCount() int               { return len(b.Inputs) }
func (b Base) OutputCount() int              { return len(b.Outputs) }
func (b Base) Input(i int) spatial.EntityID  { return b.Inputs[i] }
func (b Base) Output(i int) spatial.EntityID { return b.Outputs[i] }
func (b Base) InputRadius() float64          { return b.Radius }

// Arity0 processes fire independent of any existing point (e.g.
// Immigration): a domain-area-scaled rate, no reactants.
type Arity0 interface {
	Descriptor
	// Rate returns the process propensity given the domain's area.
	Rate(area float64) float64
	Activate(rng *rand.Rand, u float64) Buffers
}

// Arity1 processes act on a single focal point at a per-capita rate (e.g.
// DensityIndependentDeath, Jump, Birth).
type Arity1 interface {
	Descriptor
	PerCapitaRate() float64
	Activate(rng *rand.Rand, u float64, focal Ref) Buffers
}

// ArityK processes act on an ordered k-tuple of points (k = InputCount(),
// k>=2), each pair within InputRadius of its neighbors in the tuple. PeakRate
// is the kernel's value at zero distance; sim/tracker does not call it.
// TupleRate is the true configuration-specific propensity, which sim/tracker
// stores as each formed configuration's weight (mirroring the original's two
// propensity() overloads). points has length InputCount() in both TupleRate and Activate.
type ArityK interface {
	Descriptor
	PeakRate() float64
	TupleRate(u float64, points []Ref) float64
	Activate(rng *rand.Rand, u float64, points []Ref) Buffers
}
