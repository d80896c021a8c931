package engine

import (
	"github.com/ppsim/ppsim/sim/geom"
	"github.com/ppsim/ppsim/sim/process"
	"github.com/ppsim/ppsim/sim/rng"
	"github.com/ppsim/ppsim/sim/spatial"
	"github.com/ppsim/ppsim/sim/tracker"
)

// addSeedPoint places a point directly (bypassing any process Activate) and
// notifies every tracker dependent on entity, mirroring the original's
// add_new_point: new points must be visible to trackers the same way a
// reaction product is.
func (sim *Simulator) addSeedPoint(c geom.Coord, entity spatial.EntityID) {
	h := sim.state.NewPoint(c.X, c.Y, entity)
	pt := sim.state.Get(entity, h)
	ev := tracker.Event{Handle: h, Coord: pt.Coord, Entity: entity, Hash: pt.Hash()}
	for _, depID := range sim.model.Dependencies(entity) {
		sim.model.Tracker(depID).NotifyAdd(ev)
	}
}

// Fill seeds entity with Poisson(density*area)-equivalent count
// density*Area() points at uniformly random coordinates, mirroring
// original_source/simulator.h's fill().
func (sim *Simulator) Fill(entity spatial.EntityID, density float64) {
	count := int(density * sim.state.Area())
	for i := 0; i < count; i++ {
		sim.addSeedPoint(sim.state.RandomCoord(), entity)
	}
}

// FillCircle seeds entity with kernel.Integral()*Area() points drawn from
// kernel's dispersal distribution centered at c (original_source's
// fill_circle()).
func (sim *Simulator) FillCircle(entity spatial.EntityID, c geom.Coord, kernel process.Kernel) {
	count := int(kernel.Integral() * sim.state.Area())
	source := sim.prng.ForSubsystem(rng.SubsystemInitial)
	for i := 0; i < count; i++ {
		sim.addSeedPoint(kernel.SampleAround(source, c, sim.state.U()), entity)
	}
}
