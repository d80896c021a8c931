package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ppsim/ppsim/sim/process"
	"github.com/ppsim/ppsim/sim/spatial"
	"github.com/ppsim/ppsim/sim/tracker"
)

type fakeSource struct {
	u        float64
	pointSet map[spatial.EntityID]*spatial.PointSet
}

func (f *fakeSource) U() float64    { return f.u }
func (f *fakeSource) Area() float64 { return f.u * f.u }
func (f *fakeSource) PointSet(e spatial.EntityID) *spatial.PointSet {
	ps, ok := f.pointSet[e]
	if !ok {
		ps = spatial.NewPointSet(f.u, f.u)
		f.pointSet[e] = ps
	}
	return ps
}

func newSource(u float64) tracker.PointSource {
	return &fakeSource{u: u, pointSet: make(map[spatial.EntityID]*spatial.PointSet)}
}

func TestAddComputesMaxEntityID(t *testing.T) {
	m := New()
	src := newSource(10)
	m.Add(process.NewImmigration(3, 0.1), src)
	m.Add(process.NewDensityIndependentDeath(1, 0.2), src)
	require.EqualValues(t, 3, m.MaxEntityID())
	require.Equal(t, 2, m.ProcessCount())
}

func TestAddAfterFinalizePanics(t *testing.T) {
	m := New()
	src := newSource(10)
	m.Finalize()
	require.Panics(t, func() { m.Add(process.NewImmigration(1, 0.1), src) })
}

func TestDependenciesMapsInputEntitiesOnly(t *testing.T) {
	m := New()
	src := newSource(10)
	m.Add(process.NewChangeInType(1, 2, 0.3), src) // input=1, output=2
	m.Finalize()
	require.Equal(t, []int{0}, m.Dependencies(1))
	require.Empty(t, m.Dependencies(2)) // output-only, no tracker depends on it
}

func TestDependenciesMergeAcrossProcesses(t *testing.T) {
	m := New()
	src := newSource(10)
	m.Add(process.NewDensityIndependentDeath(1, 0.1), src)
	m.Add(process.NewChangeInType(1, 2, 0.2), src)
	m.Finalize()
	require.ElementsMatch(t, []int{0, 1}, m.Dependencies(1))
}

func TestFinalizeTwicePanics(t *testing.T) {
	m := New()
	m.Finalize()
	require.Panics(t, func() { m.Finalize() })
}
