package accum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAccumulatorS3 reproduces spec scenario S3: codes=100, depth=3
// (range_length=13, leaves=8); after incrementing every code 0..99 by 1,
// find_start_location(k) must return (floor(k/13), k mod 13).
func TestAccumulatorS3(t *testing.T) {
	a := New[int](100, 3)
	require.Equal(t, 13, a.RangeLength())
	require.Equal(t, 8, a.LeafCount())

	for c := 0; c < 100; c++ {
		a.Increment(c, 1)
	}
	require.Equal(t, 100, a.Total())

	for k := 0; k < 100; k++ {
		start, remaining := a.FindStartLocation(k)
		wantLeaf := k / 13
		require.Equal(t, wantLeaf*13, start, "k=%d", k)
		require.Equal(t, k%13, remaining, "k=%d", k)
	}
}

// TestFindStartLocationInvariant checks invariant #2: for k in [0,total),
// find_start_location(k) returns (bucket, residual) such that
// sum(leaves[0..bucket]) <= k < sum(leaves[0..bucket+1]).
func TestFindStartLocationInvariant(t *testing.T) {
	a := New[int](50, 4)
	weights := []int{3, 0, 5, 1, 0, 2, 4, 7, 0, 1, 2, 3, 0, 0, 9, 1}
	cum := make([]int, len(weights)+1)
	for i, w := range weights {
		code := i * a.RangeLength()
		a.Increment(code, w)
		cum[i+1] = cum[i] + w
	}
	total := cum[len(weights)]
	for k := 0; k < total; k++ {
		start, remaining := a.FindStartLocation(k)
		leaf := start / a.RangeLength()
		require.LessOrEqual(t, cum[leaf], k)
		require.Less(t, k, cum[leaf+1])
		require.Equal(t, k-cum[leaf], remaining)
	}
}

// TestIncrementRoundTrip: increment(+w) then increment(-w) restores all
// node values (round-trip/idempotence property).
func TestIncrementRoundTrip(t *testing.T) {
	a := New[int](64, 4)
	before := append([]int(nil), a.nodes...)
	a.Increment(10, 7)
	a.Increment(40, 3)
	a.Increment(10, -7)
	a.Increment(40, -3)
	require.Equal(t, before, a.nodes)
}

func TestFloatWeights(t *testing.T) {
	a := New[float64](20, 2)
	a.Increment(0, 1.5)
	a.Increment(5, 2.5)
	a.Increment(10, 0.5)
	require.InDelta(t, 4.5, a.Total(), 1e-9)
}

func TestNewForCount(t *testing.T) {
	a := NewForCount[int](100)
	require.Equal(t, 6, a.Depth())
}
