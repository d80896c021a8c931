package process

import (
	"fmt"
	"math/rand/v2"

	"github.com/ppsim/ppsim/sim/spatial"
)

// Immigration introduces new points of a single entity at rate*area,
// placing each new point uniformly at random in the domain (arity-0, single
// output). Grounded on process_definitions.h's Immigration.
type Immigration struct {
	Base
	rate float64
}

// NewImmigration builds an Immigration process producing `entity` at rate r
// per unit area.
func NewImmigration(entity spatial.EntityID, r float64) *Immigration {
	return &Immigration{Base: Base{Outputs: []spatial.EntityID{entity}}, rate: r}
}

func (p *Immigration) Rate(area float64) float64 { return p.rate * area }

func (p *Immigration) Activate(rng *rand.Rand, u float64) Buffers {
	x, y := rng.Float64()*u, rng.Float64()*u
	return Buffers{Products: []NewPointSpec{{X: x, Y: y, Entity: p.Output(0)}}}
}

func (p *Immigration) String() string {
	return fmt.Sprintf("Immigration(entity=%d, rate=%v)", p.Output(0), p.rate)
}

// DensityIndependentDeath removes a point of a single entity at a constant
// per-capita rate (arity-1, no output). Grounded on
// process_definitions.h's DensityIndependentDeath.
type DensityIndependentDeath struct {
	Base
	rate float64
}

// NewDensityIndependentDeath builds a death process for `entity` at
// per-capita rate r.
func NewDensityIndependentDeath(entity spatial.EntityID, r float64) *DensityIndependentDeath {
	return &DensityIndependentDeath{Base: Base{Inputs: []spatial.EntityID{entity}}, rate: r}
}

func (p *DensityIndependentDeath) PerCapitaRate() float64 { return p.rate }

func (p *DensityIndependentDeath) Activate(rng *rand.Rand, u float64, focal Ref) Buffers {
	return Buffers{Reactants: []ReactantRef{{Handle: focal.Handle, Entity: p.Input(0)}}}
}

func (p *DensityIndependentDeath) String() string {
	return fmt.Sprintf("DensityIndependentDeath(entity=%d, rate=%v)", p.Input(0), p.rate)
}

// ChangeInType relabels a point from one entity to another in place, at a
// constant per-capita rate (arity-1). Grounded on
// process_definitions.h's ChangeInType.
type ChangeInType struct {
	Base
	rate float64
}

// NewChangeInType builds a relabeling process from `source` to `target` at
// per-capita rate r.
func NewChangeInType(source, target spatial.EntityID, r float64) *ChangeInType {
	return &ChangeInType{Base: Base{Inputs: []spatial.EntityID{source}, Outputs: []spatial.EntityID{target}}, rate: r}
}

func (p *ChangeInType) PerCapitaRate() float64 { return p.rate }

func (p *ChangeInType) Activate(rng *rand.Rand, u float64, focal Ref) Buffers {
	return Buffers{
		Reactants: []ReactantRef{{Handle: focal.Handle, Entity: p.Input(0)}},
		Products:  []NewPointSpec{{X: focal.Coord.X, Y: focal.Coord.Y, Entity: p.Output(0)}},
	}
}

func (p *ChangeInType) String() string {
	return fmt.Sprintf("ChangeInType(%d -> %d, rate=%v)", p.Input(0), p.Output(0), p.rate)
}

// Jump relocates a point of a single entity by a kernel-sampled offset, at a
// rate equal to the kernel's integral (arity-1, same entity in and out).
// Grounded on process_definitions.h's Jump<K>.
type Jump struct {
	Base
	kernel Kernel
}

// NewJump builds a Jump process for `entity` using the given dispersal
// kernel.
func NewJump(entity spatial.EntityID, k Kernel) *Jump {
	return &Jump{Base: Base{Inputs: []spatial.EntityID{entity}, Outputs: []spatial.EntityID{entity}}, kernel: k}
}

func (p *Jump) PerCapitaRate() float64 { return p.kernel.Integral() }

func (p *Jump) Activate(rng *rand.Rand, u float64, focal Ref) Buffers {
	target := p.kernel.SampleAround(rng, focal.Coord, u)
	return Buffers{
		Reactants: []ReactantRef{{Handle: focal.Handle, Entity: p.Input(0)}},
		Products:  []NewPointSpec{{X: target.X, Y: target.Y, Entity: p.Output(0)}},
	}
}

func (p *Jump) String() string {
	return fmt.Sprintf("Jump(entity=%d, kernel=%s)", p.Input(0), p.kernel)
}

// Birth adds a child point near a parent, sampled from the kernel's
// dispersal distribution, at a rate equal to the kernel's integral
// (arity-1, parent is not consumed). Grounded on
// process_definitions.h's Birth<K>.
type Birth struct {
	Base
	kernel Kernel
}

// NewBirth builds a Birth process producing `child` near points of `parent`
// using the given dispersal kernel.
func NewBirth(parent, child spatial.EntityID, k Kernel) *Birth {
	return &Birth{Base: Base{Inputs: []spatial.EntityID{parent}, Outputs: []spatial.EntityID{child}, Radius: k.Radius()}, kernel: k}
}

func (p *Birth) PerCapitaRate() float64 { return p.kernel.Integral() }

func (p *Birth) Activate(rng *rand.Rand, u float64, focal Ref) Buffers {
	target := p.kernel.SampleAround(rng, focal.Coord, u)
	return Buffers{Products: []NewPointSpec{{X: target.X, Y: target.Y, Entity: p.Output(0)}}}
}

func (p *Birth) String() string {
	return fmt.Sprintf("Birth(parent=%d, child=%d, kernel=%s)", p.Input(0), p.Output(0), p.kernel)
}

// Consume removes a resource point in the presence of a nearby consumer, at
// a rate equal to the kernel evaluated at the pair's distance (arity-2, no
// output). Grounded on process_definitions.h's Consume<K>.
type Consume struct {
	Base
	kernel Kernel
}

// NewConsume builds a Consume process: `consumer` removes `resource` within
// the kernel's support radius.
func NewConsume(consumer, resource spatial.EntityID, k Kernel) *Consume {
	return &Consume{Base: Base{Inputs: []spatial.EntityID{consumer, resource}, Radius: k.Radius()}, kernel: k}
}

func (p *Consume) PeakRate() float64 { return p.kernel.ValueAtSquaredDistance(0) }

func (p *Consume) TupleRate(u float64, points []Ref) float64 {
	d2 := points[0].Coord.TorusSquaredDistance(points[1].Coord, u)
	return p.kernel.ValueAtSquaredDistance(d2)
}

func (p *Consume) Activate(rng *rand.Rand, u float64, points []Ref) Buffers {
	return Buffers{Reactants: []ReactantRef{{Handle: points[1].Handle, Entity: p.Input(1)}}}
}

func (p *Consume) String() string {
	return fmt.Sprintf("Consume(consumer=%d, resource=%d, kernel=%s)", p.Input(0), p.Input(1), p.kernel)
}

// ChangeInTypeByFacilitation relabels a source point near a facilitator
// point, at a rate depending on pair distance (arity-2, one output).
// Grounded on process_definitions.h's ChangeInTypeByFacilitation<K>.
type ChangeInTypeByFacilitation struct {
	Base
	kernel Kernel
}

// NewChangeInTypeByFacilitation builds a facilitation-driven relabeling
// process: `source` becomes `target` when near `facilitator`.
func NewChangeInTypeByFacilitation(source, facilitator, target spatial.EntityID, k Kernel) *ChangeInTypeByFacilitation {
	return &ChangeInTypeByFacilitation{
		Base:   Base{Inputs: []spatial.EntityID{source, facilitator}, Outputs: []spatial.EntityID{target}, Radius: k.Radius()},
		kernel: k,
	}
}

func (p *ChangeInTypeByFacilitation) PeakRate() float64 { return p.kernel.ValueAtSquaredDistance(0) }

func (p *ChangeInTypeByFacilitation) TupleRate(u float64, points []Ref) float64 {
	d2 := points[0].Coord.TorusSquaredDistance(points[1].Coord, u)
	return p.kernel.ValueAtSquaredDistance(d2)
}

func (p *ChangeInTypeByFacilitation) Activate(rng *rand.Rand, u float64, points []Ref) Buffers {
	a := points[0]
	return Buffers{
		Reactants: []ReactantRef{{Handle: a.Handle, Entity: p.Input(0)}},
		Products:  []NewPointSpec{{X: a.Coord.X, Y: a.Coord.Y, Entity: p.Output(0)}},
	}
}

func (p *ChangeInTypeByFacilitation) String() string {
	return fmt.Sprintf("ChangeInTypeByFacilitation(%d, %d -> %d, kernel=%s)", p.Input(0), p.Input(1), p.Output(0), p.kernel)
}

// ChangeInTypeByConsumption relabels a source point that consumes a nearby
// resource point, removing both the resource and the source's old identity
// and placing the new type at the source's location (arity-2, one output).
// Grounded on process_definitions.h's ChangeInTypeByConsumption<K>.
type ChangeInTypeByConsumption struct {
	Base
	kernel Kernel
}

// NewChangeInTypeByConsumption builds a consumption-driven relabeling
// process: `source` consumes `resource` and becomes `target`.
func NewChangeInTypeByConsumption(source, resource, target spatial.EntityID, k Kernel) *ChangeInTypeByConsumption {
	return &ChangeInTypeByConsumption{
		Base:   Base{Inputs: []spatial.EntityID{source, resource}, Outputs: []spatial.EntityID{target}, Radius: k.Radius()},
		kernel: k,
	}
}

func (p *ChangeInTypeByConsumption) PeakRate() float64 { return p.kernel.ValueAtSquaredDistance(0) }

func (p *ChangeInTypeByConsumption) TupleRate(u float64, points []Ref) float64 {
	d2 := points[0].Coord.TorusSquaredDistance(points[1].Coord, u)
	return p.kernel.ValueAtSquaredDistance(d2)
}

func (p *ChangeInTypeByConsumption) Activate(rng *rand.Rand, u float64, points []Ref) Buffers {
	a, b := points[0], points[1]
	return Buffers{
		Reactants: []ReactantRef{
			{Handle: a.Handle, Entity: p.Input(0)},
			{Handle: b.Handle, Entity: p.Input(1)},
		},
		Products: []NewPointSpec{{X: a.Coord.X, Y: a.Coord.Y, Entity: p.Output(0)}},
	}
}

func (p *ChangeInTypeByConsumption) String() string {
	return fmt.Sprintf("ChangeInTypeByConsumption(%d, %d -> %d, kernel=%s)", p.Input(0), p.Input(1), p.Output(0), p.kernel)
}

// BirthByConsumption adds a child point near a parent when the parent
// consumes a nearby resource point, removing only the resource (arity-2,
// one output). Grounded on process_definitions.h's BirthByConsumption<K>.
type BirthByConsumption struct {
	Base
	kernel Kernel
}

// NewBirthByConsumption builds a consumption-driven birth process:
// `parent` consumes `resource` and produces `child` nearby.
func NewBirthByConsumption(parent, resource, child spatial.EntityID, k Kernel) *BirthByConsumption {
	return &BirthByConsumption{
		Base:   Base{Inputs: []spatial.EntityID{parent, resource}, Outputs: []spatial.EntityID{child}, Radius: k.Radius()},
		kernel: k,
	}
}

func (p *BirthByConsumption) PeakRate() float64 { return p.kernel.ValueAtSquaredDistance(0) }

func (p *BirthByConsumption) TupleRate(u float64, points []Ref) float64 {
	d2 := points[0].Coord.TorusSquaredDistance(points[1].Coord, u)
	return p.kernel.ValueAtSquaredDistance(d2)
}

func (p *BirthByConsumption) Activate(rng *rand.Rand, u float64, points []Ref) Buffers {
	a, b := points[0], points[1]
	target := p.kernel.SampleAround(rng, a.Coord, u)
	return Buffers{
		Reactants: []ReactantRef{{Handle: b.Handle, Entity: p.Input(1)}},
		Products:  []NewPointSpec{{X: target.X, Y: target.Y, Entity: p.Output(0)}},
	}
}

func (p *BirthByConsumption) String() string {
	return fmt.Sprintf("BirthByConsumption(%d, %d -> %d, kernel=%s)", p.Input(0), p.Input(1), p.Output(0), p.kernel)
}
