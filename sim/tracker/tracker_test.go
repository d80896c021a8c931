package tracker

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ppsim/ppsim/sim/process"
	"github.com/ppsim/ppsim/sim/spatial"
)

// fakeSource is a minimal PointSource backed by a fixed entity->PointSet map.
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

func newSource(u float64) *fakeSource {
	return &fakeSource{u: u, pointSet: make(map[spatial.EntityID]*spatial.PointSet)}
}

func TestArity0TrackerPropensityScalesWithArea(t *testing.T) {
	src := newSource(10)
	p := process.NewImmigration(1, 0.1)
	tr := New(p, src)
	require.InDelta(t, 0.1*100, tr.Propensity(), 1e-9)
}

func TestArity1TrackerPropensityScalesWithCount(t *testing.T) {
	src := newSource(10)
	p := process.NewDensityIndependentDeath(1, 0.5)
	ps := src.PointSet(1)
	for i := 0; i < 4; i++ {
		h := ps.NewPoint(float64(i)+0.1, 1, 1)
		ps.Add(h)
	}
	tr := New(p, src)
	require.InDelta(t, 0.5*4, tr.Propensity(), 1e-9)
}

func TestArity1TrackerActivateReturnsLivePoint(t *testing.T) {
	src := newSource(10)
	p := process.NewDensityIndependentDeath(1, 0.5)
	ps := src.PointSet(1)
	h := ps.NewPoint(3, 3, 1)
	ps.Add(h)
	tr := New(p, src)
	rng := rand.New(rand.NewPCG(1, 1))
	buf := tr.Activate(rng)
	require.Equal(t, []spatial.Handle{h}, process.HandlesOnly(buf.Reactants))
}

// TestArityKTrackerConsumeLifecycle reproduces spec scenario S5: a
// consumer's arrival near an existing resource forms a configuration with
// positive weight, and its departure purges it.
func TestArityKTrackerConsumeLifecycle(t *testing.T) {
	src := newSource(10)
	k := process.NewTophat(1, 1)
	p := process.NewConsume(1, 2, k)
	tr := New(p, src).(*arityKTracker)

	resourcePS := src.PointSet(2)
	rh := resourcePS.NewPoint(5, 5, 2)
	resourcePS.Add(rh)

	require.Equal(t, 0.0, tr.Propensity())

	consumerPS := src.PointSet(1)
	ch := consumerPS.NewPoint(5.1, 5, 1)
	consumerPS.Add(ch)
	pt := consumerPS.Get(ch)
	tr.NotifyAdd(Event{Handle: ch, Coord: pt.Coord, Entity: 1, Hash: pt.Hash()})

	require.Greater(t, tr.Propensity(), 0.0)
	require.EqualValues(t, 1, tr.cs.TotalCount())

	consumerPS.DestroyPoint(ch)
	tr.NotifyRemove(Event{Handle: ch, Coord: pt.Coord, Entity: 1, Hash: pt.Hash()})
	require.Equal(t, 0.0, tr.Propensity())
	require.EqualValues(t, 0, tr.cs.TotalCount())
}

func TestArityKTrackerActivateDelegatesToProcess(t *testing.T) {
	src := newSource(10)
	k := process.NewTophat(1, 1)
	p := process.NewConsume(1, 2, k)
	tr := New(p, src).(*arityKTracker)

	resourcePS := src.PointSet(2)
	rh := resourcePS.NewPoint(5, 5, 2)
	resourcePS.Add(rh)
	consumerPS := src.PointSet(1)
	ch := consumerPS.NewPoint(5.1, 5, 1)
	consumerPS.Add(ch)
	pt := consumerPS.Get(ch)
	tr.NotifyAdd(Event{Handle: ch, Coord: pt.Coord, Entity: 1, Hash: pt.Hash()})

	rng := rand.New(rand.NewPCG(2, 2))
	buf := tr.Activate(rng)
	require.Equal(t, []spatial.Handle{rh}, process.HandlesOnly(buf.Reactants))
}

// bareDescriptor wraps Base with just enough to satisfy Descriptor, used to
// exercise New's arity-interface mismatch panic.
type bareDescriptor struct{ process.Base }

func (bareDescriptor) String() string { return "bareDescriptor" }

func TestNewPanicsOnArityMismatch(t *testing.T) {
	src := newSource(10)
	d := bareDescriptor{process.Base{Inputs: []spatial.EntityID{1, 2}}}
	require.Panics(t, func() { New(d, src) })
}
