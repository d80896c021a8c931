// Package spatial implements the per-entity, grid-bucketed point set used
// by the simulator to answer distance-bounded neighbor queries and uniform
// point sampling on a 2D torus.
package spatial

import (
	"math"

	"github.com/ppsim/ppsim/sim/geom"
)

// EntityID identifies a mark / species carried by a Point.
type EntityID uint32

// Handle is a stable, generation-checked reference to a Point held by a
// PointSet's internal arena. Tuples stored in sim/config's ConfigurationSet
// hold Handles rather than raw pointers, so a reference into a destroyed
// Point is detectable (generation mismatch) rather than silently dangling.
//
// This is the Go analogue of a generation-counted arena used in place of a
// raw-pointer-graph.
type Handle struct {
	Index      uint32
	Generation uint32
}

// Point is a coordinate tagged with an entity. Points are created only by
// PointSet.NewPoint and are immutable after creation: a "move" is destroy
// then create-anew.
type Point struct {
	Coord  geom.Coord
	Entity EntityID

	hash   uint64
	bucket int // bucket index, fixed at creation time
}

// Hash returns the cached combined hash of coord and entity, used by
// sim/config's ConfigurationSet bucketing.
func (p Point) Hash() uint64 { return p.hash }

// Bucket returns the grid bucket index this point was assigned at creation.
func (p Point) Bucket() int { return p.bucket }

// TorusSquaredDistance returns the squared torus distance between p and q on
// a domain of side u.
func (p Point) TorusSquaredDistance(q Point, u float64) float64 {
	return p.Coord.TorusSquaredDistance(q.Coord, u)
}

// hashCoordEntity combines a coordinate and entity into a single hash value,
// the Go analogue of the original's boost::hash_combine(coord.hash(), entity).
func hashCoordEntity(c geom.Coord, e EntityID) uint64 {
	h := fnv1a64Float(14695981039346656037, c.X)
	h = fnv1a64Float(h, c.Y)
	h = hashCombine(h, uint64(e))
	return h
}

const fnvPrime64 = 1099511628211

func fnv1a64Float(seed uint64, f float64) uint64 {
	bits := math.Float64bits(f)
	h := seed
	for i := 0; i < 8; i++ {
		h ^= bits & 0xff
		h *= fnvPrime64
		bits >>= 8
	}
	return h
}

// hashCombine mixes h2 into h1, modeled on boost::hash_combine.
func hashCombine(h1, h2 uint64) uint64 {
	return h1 ^ (h2 + 0x9e3779b97f4a7c15 + (h1 << 6) + (h1 >> 2))
}
