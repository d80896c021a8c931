// Package rng provides the partitioned, deterministic PRNG shared by a
// simulation run: one master seed, independently-seeded named substreams so
// that adding or removing a process from a Model does not perturb the
// substream consumed by unrelated processes.
package rng

import (
	"hash/fnv"
	"math/rand/v2"
)

// Subsystem names used by the engine itself; process implementations may
// mint their own via Partitioned.ForSubsystem("process:<id>").
const (
	SubsystemTime    = "time"    // waiting-time (tau) draws
	SubsystemSelect  = "select"  // process-selection draws
	SubsystemInitial = "initial" // initial-state seeding (Fill/FillCircle)
)

// Partitioned provides isolated PRNG streams per subsystem, each seeded
// deterministically from a single master seed so a run is fully reproducible
// given (seed, model, initial configuration).
//
// The underlying generator is PCG (math/rand/v2's rand.NewPCG), matching the
// documented choice in original_source/code/simulator/ppsim/common.h's
// USE_PCG branch.
type Partitioned struct {
	masterSeed int64
	subsystems map[string]*rand.Rand
}

// New creates a Partitioned RNG from a master seed.
func New(masterSeed int64) *Partitioned {
	return &Partitioned{
		masterSeed: masterSeed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the *rand.Rand for the named subsystem, creating and
// caching it on first use. The same name always returns the same instance.
func (p *Partitioned) ForSubsystem(name string) *rand.Rand {
	if r, ok := p.subsystems[name]; ok {
		return r
	}
	seed := p.deriveSeed(name)
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	p.subsystems[name] = r
	return r
}

// deriveSeed computes masterSeed XOR fnv1a64(name), so substream seeds are
// independent of registration order.
func (p *Partitioned) deriveSeed(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return uint64(p.masterSeed) ^ h.Sum64()
}

// MasterSeed returns the seed this Partitioned RNG was constructed from.
func (p *Partitioned) MasterSeed() int64 { return p.masterSeed }
