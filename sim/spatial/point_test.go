package spatial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	ps := NewPointSet(10, 1)
	h1 := ps.NewPoint(1.5, 2.5, EntityID(3))
	h2 := ps.NewPoint(1.5, 2.5, EntityID(3))
	p1 := ps.Get(h1)
	p2 := ps.Get(h2)
	require.Equal(t, p1.Hash(), p2.Hash())
}

func TestHashDiffersByEntity(t *testing.T) {
	ps := NewPointSet(10, 1)
	h1 := ps.NewPoint(1.5, 2.5, EntityID(1))
	h2 := ps.NewPoint(1.5, 2.5, EntityID(2))
	require.NotEqual(t, ps.Get(h1).Hash(), ps.Get(h2).Hash())
}
