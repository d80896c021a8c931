// Package state implements SimulationState: the domain geometry, per-entity
// PointSets, shared PRNG, and running statistics a Simulator drives.
package state

import (
	"fmt"

	"github.com/ppsim/ppsim/sim/geom"
	"github.com/ppsim/ppsim/sim/rng"
	"github.com/ppsim/ppsim/sim/spatial"
)

// Statistics tracks simulation time and per-process event counts.
type Statistics struct {
	Time            float64
	EventsByProcess []uint64
	TotalEvents     uint64
}

// NewStatistics allocates a Statistics tracker for processCount processes.
func NewStatistics(processCount int) *Statistics {
	return &Statistics{EventsByProcess: make([]uint64, processCount)}
}

// Update advances time by tau and records one firing of processID.
func (s *Statistics) Update(tau float64, processID int) {
	s.Time += tau
	s.EventsByProcess[processID]++
	s.TotalEvents++
}

// SimulationState owns the domain size, one PointSet per entity, the shared
// PRNG, and running statistics. Satisfies sim/tracker.PointSource.
type SimulationState struct {
	u         float64
	bucketW   float64
	pointSets []*spatial.PointSet
	prng      *rng.Partitioned
	Stats     *Statistics
}

// New allocates a SimulationState over a u x u torus, one PointSet per
// entity in [0, maxEntityID], grid-bucketed at the given width, and running
// statistics for processCount processes.
func New(u, bucketWidth float64, maxEntityID spatial.EntityID, processCount int, prng *rng.Partitioned) *SimulationState {
	pointSets := make([]*spatial.PointSet, maxEntityID+1)
	for i := range pointSets {
		pointSets[i] = spatial.NewPointSet(u, bucketWidth)
	}
	return &SimulationState{
		u:         u,
		bucketW:   bucketWidth,
		pointSets: pointSets,
		prng:      prng,
		Stats:     NewStatistics(processCount),
	}
}

// U returns the torus side length.
func (s *SimulationState) U() float64 { return s.u }

// Area returns the domain area (U^2; dimensionality is fixed at 2).
func (s *SimulationState) Area() float64 { return s.u * s.u }

// PointSet returns the PointSet owning entity e's points.
func (s *SimulationState) PointSet(e spatial.EntityID) *spatial.PointSet {
	if int(e) >= len(s.pointSets) {
		panic(fmt.Sprintf("state: entity %d exceeds max entity id %d", e, len(s.pointSets)-1))
	}
	return s.pointSets[e]
}

// RNG returns the shared partitioned PRNG.
func (s *SimulationState) RNG() *rng.Partitioned { return s.prng }

// NewPoint allocates and inserts a point of entity e at (x,y), returning its
// handle.
func (s *SimulationState) NewPoint(x, y float64, e spatial.EntityID) spatial.Handle {
	ps := s.PointSet(e)
	h := ps.NewPoint(x, y, e)
	ps.Add(h)
	return h
}

// DestroyPoint removes and frees the point of entity e named by h.
func (s *SimulationState) DestroyPoint(e spatial.EntityID, h spatial.Handle) {
	s.PointSet(e).DestroyPoint(h)
}

// Get resolves h within entity e's PointSet.
func (s *SimulationState) Get(e spatial.EntityID, h spatial.Handle) spatial.Point {
	return s.PointSet(e).Get(h)
}

// Count returns the number of live points of entity e.
func (s *SimulationState) Count(e spatial.EntityID) int64 {
	return s.PointSet(e).Count()
}

// TotalCount sums live points across every entity.
func (s *SimulationState) TotalCount() int64 {
	var total int64
	for _, ps := range s.pointSets {
		total += ps.Count()
	}
	return total
}

// RandomCoord draws a coordinate uniformly over the domain, using the
// "initial" PRNG subsystem.
func (s *SimulationState) RandomCoord() geom.Coord {
	r := s.prng.ForSubsystem(rng.SubsystemInitial)
	return geom.Coord{X: r.Float64() * s.u, Y: r.Float64() * s.u}
}

// RandomValue draws u in [0,1) from the "initial" PRNG subsystem.
func (s *SimulationState) RandomValue() float64 {
	return s.prng.ForSubsystem(rng.SubsystemInitial).Float64()
}

// RandomPoint draws a uniformly random live point of entity e.
func (s *SimulationState) RandomPoint(e spatial.EntityID) spatial.Handle {
	return s.PointSet(e).GetRandom(s.RandomValue())
}

// QueryPoints appends to out every live point of entity e within torus
// distance `distance` of center, excluding `exclude` if non-nil.
func (s *SimulationState) QueryPoints(e spatial.EntityID, center geom.Coord, distance float64, exclude *spatial.Handle, out []spatial.Handle) []spatial.Handle {
	return s.PointSet(e).GetWithin(center, distance, exclude, out)
}

// MaxEntityID returns the largest entity id this state has a PointSet for.
func (s *SimulationState) MaxEntityID() spatial.EntityID {
	return spatial.EntityID(len(s.pointSets) - 1)
}
