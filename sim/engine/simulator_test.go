package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ppsim/ppsim/sim/model"
	"github.com/ppsim/ppsim/sim/process"
	"github.com/ppsim/ppsim/sim/rng"
	"github.com/ppsim/ppsim/sim/state"
)

// S1 — pure death: 100 points of entity 1, only Death(entity=1, rate=1).
// After enough steps, every point is gone and the simulation halts on zero
// propensity.
func TestPureDeathDrainsToExtinction(t *testing.T) {
	prng := rng.New(1)
	s := state.New(10, 1, 2, 1, prng)
	m := model.New()
	m.Add(process.NewDensityIndependentDeath(1, 1.0), s)
	m.Finalize()
	sim := New(m, s, prng)

	for i := 0; i < 100; i++ {
		sim.addSeedPoint(s.RandomCoord(), 1)
	}
	require.EqualValues(t, 100, s.Count(1))

	for i := 0; i < 10000 && !sim.Done(); i++ {
		sim.Step()
	}
	require.True(t, sim.Done())
	require.EqualValues(t, 0, s.Count(1))
	require.Equal(t, "zero propensity", sim.HaltReason())
}

// S2 — immigration to steady state: Immigration(1,1) + Death(1,1) on a
// U=10 domain should fluctuate around a mean count equal to the area.
func TestImmigrationReachesSteadyState(t *testing.T) {
	prng := rng.New(2)
	s := state.New(10, 1, 2, 2, prng)
	m := model.New()
	m.Add(process.NewImmigration(1, 1.0), s)
	m.Add(process.NewDensityIndependentDeath(1, 1.0), s)
	m.Finalize()
	sim := New(m, s, prng)

	var sum int64
	var samples int
	for i := 0; i < 20000 && !sim.Done(); i++ {
		sim.Step()
		if i > 5000 {
			sum += s.Count(1)
			samples++
		}
	}
	require.Greater(t, samples, 0)
	mean := float64(sum) / float64(samples)
	require.InDelta(t, s.Area(), mean, s.Area()*0.5)
}

// S6 — determinism by seed: two runs with identical seed, model, and initial
// configuration produce identical event streams (process ids and tau values).
func TestDeterministicBySeed(t *testing.T) {
	run := func(seed int64) (times []float64, rids []int) {
		prng := rng.New(seed)
		s := state.New(10, 1, 2, 2, prng)
		m := model.New()
		m.Add(process.NewImmigration(1, 1.0), s)
		m.Add(process.NewDensityIndependentDeath(1, 1.0), s)
		m.Finalize()
		sim := New(m, s, prng)

		prev := make([]uint64, len(s.Stats.EventsByProcess))
		for i := 0; i < 200 && !sim.Done(); i++ {
			tau := sim.Step()
			rid := diffFired(prev, s.Stats.EventsByProcess)
			if rid < 0 {
				continue
			}
			times = append(times, tau)
			rids = append(rids, rid)
			copy(prev, s.Stats.EventsByProcess)
		}
		return
	}

	t1, r1 := run(42)
	t2, r2 := run(42)
	require.Equal(t, t1, t2)
	require.Equal(t, r1, r2)
	require.NotEmpty(t, t1)
}

// diffFired returns the index whose count increased between prev and cur,
// or -1 if none changed (the simulation already halted this step).
func diffFired(prev, cur []uint64) int {
	for i := range cur {
		if cur[i] != prev[i] {
			return i
		}
	}
	return -1
}
