package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ppsim/ppsim/sim/rng"
	"github.com/ppsim/ppsim/sim/spatial"
)

func TestNewAllocatesOnePointSetPerEntity(t *testing.T) {
	s := New(10, 1, 2, 3, rng.New(1))
	require.EqualValues(t, 2, s.MaxEntityID())
	for e := spatial.EntityID(0); e <= 2; e++ {
		require.NotNil(t, s.PointSet(e))
	}
	require.Equal(t, 10.0, s.U())
	require.Equal(t, 100.0, s.Area())
}

func TestPointSetOutOfRangePanics(t *testing.T) {
	s := New(10, 1, 1, 1, rng.New(1))
	require.Panics(t, func() { s.PointSet(5) })
}

func TestNewPointAndGetRoundTrip(t *testing.T) {
	s := New(10, 1, 1, 1, rng.New(1))
	h := s.NewPoint(1.5, 2.5, 1)
	pt := s.Get(1, h)
	require.Equal(t, 1.5, pt.Coord.X)
	require.Equal(t, 2.5, pt.Coord.Y)
	require.EqualValues(t, 1, pt.Entity)
	require.EqualValues(t, 1, s.Count(1))
}

func TestDestroyPointDecrementsCount(t *testing.T) {
	s := New(10, 1, 1, 1, rng.New(1))
	h := s.NewPoint(1, 1, 1)
	require.EqualValues(t, 1, s.Count(1))
	s.DestroyPoint(1, h)
	require.EqualValues(t, 0, s.Count(1))
}

func TestTotalCountSumsAcrossEntities(t *testing.T) {
	s := New(10, 1, 2, 1, rng.New(1))
	s.NewPoint(1, 1, 0)
	s.NewPoint(2, 2, 1)
	s.NewPoint(3, 3, 2)
	require.EqualValues(t, 3, s.TotalCount())
}

func TestRandomCoordStaysInDomain(t *testing.T) {
	s := New(5, 1, 0, 1, rng.New(1))
	for i := 0; i < 50; i++ {
		c := s.RandomCoord()
		require.GreaterOrEqual(t, c.X, 0.0)
		require.Less(t, c.X, 5.0)
		require.GreaterOrEqual(t, c.Y, 0.0)
		require.Less(t, c.Y, 5.0)
	}
}

func TestStatisticsUpdateAccumulates(t *testing.T) {
	stats := NewStatistics(2)
	stats.Update(0.5, 0)
	stats.Update(1.5, 1)
	require.Equal(t, 2.0, stats.Time)
	require.EqualValues(t, 1, stats.EventsByProcess[0])
	require.EqualValues(t, 1, stats.EventsByProcess[1])
	require.EqualValues(t, 2, stats.TotalEvents)
}
