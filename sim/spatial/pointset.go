package spatial

import (
	"fmt"
	"math"

	"github.com/ppsim/ppsim/sim/accum"
	"github.com/ppsim/ppsim/sim/geom"
)

// slot is one arena entry. A slot is "alive" once a Point has been
// constructed into it via NewPoint and not yet destroyed.
type slot struct {
	point      Point
	generation uint32
	alive      bool
	inBucket   bool // true once Add has inserted it into its bucket list
	bucketSlot int  // index of this handle within buckets[point.bucket]
}

// PointSet is a grid-bucketed spatial set for a single entity type, tiling a
// U x U torus with ceil(U/w) x ceil(U/w) buckets of width w (the last row and
// column are narrower when U is not a multiple of w). It owns the arena for its Points (see
// Handle) and an Accumulator over bucket occupancy for O(log n) uniform
// sampling and bucket lookup.
type PointSet struct {
	u         float64
	bucketW   float64
	rowLength int
	bucketCnt int
	normCoord float64

	buckets [][]Handle
	acc     *accum.Accumulator[int64]

	slab     []slot
	freeList []uint32
}

// NewPointSet builds a PointSet over a U x U torus with bucket width w.
func NewPointSet(u, w float64) *PointSet {
	if u <= 0 || w <= 0 {
		panic("spatial: domain size and bucket width must be positive")
	}
	rowLength := int(math.Ceil(u / w))
	if rowLength < 1 {
		rowLength = 1
	}
	bucketCnt := rowLength * rowLength
	ps := &PointSet{
		u:         u,
		bucketW:   w,
		rowLength: rowLength,
		bucketCnt: bucketCnt,
		normCoord: float64(rowLength) / u,
		buckets:   make([][]Handle, bucketCnt),
		acc:       accum.NewForCount[int64](bucketCnt),
	}
	return ps
}

// Count returns the total number of live points, equal to the accumulator
// root.
func (ps *PointSet) Count() int64 { return ps.acc.Total() }

func (ps *PointSet) bucketCoords(c geom.Coord) (int, int) {
	x := int(c.X / ps.bucketW)
	y := int(c.Y / ps.bucketW)
	if x >= ps.rowLength {
		x = ps.rowLength - 1
	}
	if y >= ps.rowLength {
		y = ps.rowLength - 1
	}
	return x, y
}

func (ps *PointSet) wrapBucketCoord(x int) int {
	if x < 0 {
		x += ps.rowLength
	} else if x >= ps.rowLength {
		x -= ps.rowLength
	}
	return x
}

func (ps *PointSet) bucketIndex(x, y int) int {
	return x + y*ps.rowLength
}

func (ps *PointSet) bucketOf(c geom.Coord) int {
	x, y := ps.bucketCoords(c)
	return ps.bucketIndex(x, y)
}

// NewPoint allocates a Point at (x,y) for the given entity but does not
// insert it into the set; call Add to insert. Precondition: 0 <= x,y < U.
func (ps *PointSet) NewPoint(x, y float64, e EntityID) Handle {
	if x < 0 || x >= ps.u || y < 0 || y >= ps.u {
		panic(fmt.Sprintf("spatial: coordinate (%v,%v) out of [0,%v) bounds", x, y, ps.u))
	}
	c := geom.Coord{X: x, Y: y}
	p := Point{
		Coord:  c,
		Entity: e,
		hash:   hashCoordEntity(c, e),
		bucket: ps.bucketOf(c),
	}

	var idx uint32
	if n := len(ps.freeList); n > 0 {
		idx = ps.freeList[n-1]
		ps.freeList = ps.freeList[:n-1]
		ps.slab[idx].generation++
	} else {
		idx = uint32(len(ps.slab))
		ps.slab = append(ps.slab, slot{})
	}
	ps.slab[idx].point = p
	ps.slab[idx].alive = true
	ps.slab[idx].inBucket = false

	return Handle{Index: idx, Generation: ps.slab[idx].generation}
}

func (ps *PointSet) resolve(h Handle) (*slot, bool) {
	if int(h.Index) >= len(ps.slab) {
		return nil, false
	}
	s := &ps.slab[h.Index]
	if !s.alive || s.generation != h.Generation {
		return nil, false
	}
	return s, true
}

// Get returns the Point referenced by h. Panics (InvariantViolation-class
// failure) if h is stale or never allocated by this set.
func (ps *PointSet) Get(h Handle) Point {
	s, ok := ps.resolve(h)
	if !ok {
		panic("spatial: stale or invalid point handle")
	}
	return s.point
}

// Contains reports whether h currently names a live, inserted point.
// Constant time (arena lookup plus the in-bucket flag); used only by
// assertions and tests.
func (ps *PointSet) Contains(h Handle) bool {
	s, ok := ps.resolve(h)
	return ok && s.inBucket
}

// Add inserts an allocated-but-not-yet-inserted point into its bucket.
// Panics if h is already present (programmer error).
func (ps *PointSet) Add(h Handle) {
	s, ok := ps.resolve(h)
	if !ok {
		panic("spatial: Add called with stale or invalid handle")
	}
	if s.inBucket {
		panic("spatial: Add called on a point that is already present")
	}
	b := s.point.bucket
	ps.buckets[b] = append(ps.buckets[b], h)
	s.bucketSlot = len(ps.buckets[b]) - 1
	s.inBucket = true
	ps.acc.Increment(b, 1)
}

// DestroyPoint removes h from its bucket and frees its arena slot. Panics if
// h is not present.
func (ps *PointSet) DestroyPoint(h Handle) {
	s, ok := ps.resolve(h)
	if !ok || !s.inBucket {
		panic("spatial: DestroyPoint called on a point that is not present")
	}
	ps.remove(h, s)
	s.alive = false
	ps.freeList = append(ps.freeList, h.Index)
}

// remove detaches h from its bucket list via swap-removal, fixing up the
// bucketSlot bookkeeping of whichever handle is moved into its place.
func (ps *PointSet) remove(h Handle, s *slot) {
	b := s.point.bucket
	bucket := ps.buckets[b]
	last := len(bucket) - 1
	slotIdx := s.bucketSlot
	if slotIdx != last {
		moved := bucket[last]
		bucket[slotIdx] = moved
		if ms, ok := ps.resolve(moved); ok {
			ms.bucketSlot = slotIdx
		}
	}
	ps.buckets[b] = bucket[:last]
	s.inBucket = false
	ps.acc.Increment(b, -1)
}

// GetWithinPoint appends to out all live points within torus distance
// `distance` of the point named by h, excluding h itself. h must belong to
// this PointSet. Uses a bucket-block scan when the block is strictly
// smaller than the whole grid, falling back to a brute-force full scan
// otherwise.
func (ps *PointSet) GetWithinPoint(h Handle, distance float64, out []Handle) []Handle {
	s, ok := ps.resolve(h)
	if !ok {
		panic("spatial: GetWithinPoint called with stale or invalid handle")
	}
	return ps.GetWithin(s.point.Coord, distance, &h, out)
}

// GetWithin appends to out the live points within torus distance `distance`
// of center, excluding `exclude` if non-nil. The block scan covers
// floor(distance/w + 0.5) buckets on each side of center's bucket; a point
// within `distance` that lies outside that block (possible when distance/w
// has a fractional part) is not returned. exclude is compared by handle
// identity and is meant for same-PointSet self-exclusion (e.g. a process
// whose input includes the same entity at two slots) — pass nil when
// querying a different entity's PointSet than the focal point belongs to,
// since no collision with a foreign handle is otherwise possible.
func (ps *PointSet) GetWithin(center geom.Coord, distance float64, exclude *Handle, out []Handle) []Handle {
	cdist := int(distance/ps.bucketW + 0.5)
	if 2*cdist+1 < ps.rowLength {
		return ps.getWithinClever(center, distance, cdist, exclude, out)
	}
	return ps.getWithinBruteforce(center, distance, exclude, out)
}

func (ps *PointSet) getWithinClever(center geom.Coord, distance float64, cdist int, exclude *Handle, out []Handle) []Handle {
	dsq := distance * distance
	x, y := ps.bucketCoords(center)
	for dx := -cdist; dx <= cdist; dx++ {
		for dy := -cdist; dy <= cdist; dy++ {
			bx := ps.wrapBucketCoord(x + dx)
			by := ps.wrapBucketCoord(y + dy)
			b := ps.bucketIndex(bx, by)
			for _, qh := range ps.buckets[b] {
				if exclude != nil && qh == *exclude {
					continue
				}
				qs, ok := ps.resolve(qh)
				if !ok {
					continue
				}
				if center.TorusSquaredDistance(qs.point.Coord, ps.u) <= dsq {
					out = append(out, qh)
				}
			}
		}
	}
	return out
}

func (ps *PointSet) getWithinBruteforce(center geom.Coord, distance float64, exclude *Handle, out []Handle) []Handle {
	dsq := distance * distance
	for _, bucket := range ps.buckets {
		for _, qh := range bucket {
			if exclude != nil && qh == *exclude {
				continue
			}
			qs, ok := ps.resolve(qh)
			if !ok {
				continue
			}
			if center.TorusSquaredDistance(qs.point.Coord, ps.u) <= dsq {
				out = append(out, qh)
			}
		}
	}
	return out
}

// GetRandom returns the floor(u*count)-th point in the accumulator's
// linearization, for u in [0,1).
func (ps *PointSet) GetRandom(u float64) Handle {
	if u < 0 || u >= 1 {
		panic("spatial: GetRandom requires u in [0,1)")
	}
	count := ps.Count()
	if count == 0 {
		panic("spatial: GetRandom called on an empty point set")
	}
	n := int64(u * float64(count))
	if n >= count {
		n = count - 1
	}
	return ps.GetNth(n)
}

// GetNth returns the n-th point (0-indexed) in bucket-linearized order.
// Panics if n >= Count() (InvariantViolation-class failure).
func (ps *PointSet) GetNth(n int64) Handle {
	if n < 0 || n >= ps.Count() {
		panic(fmt.Sprintf("spatial: GetNth(%d) out of range (count=%d)", n, ps.Count()))
	}
	start, remaining := ps.acc.FindStartLocation(n)
	startBucket := start
	for b := startBucket; b < len(ps.buckets); b++ {
		bucket := ps.buckets[b]
		if int64(len(bucket)) > remaining {
			return bucket[remaining]
		}
		remaining -= int64(len(bucket))
	}
	panic(fmt.Sprintf("spatial: GetNth(%d) could not locate point (remaining=%d, count=%d)", n, remaining, ps.Count()))
}

// RowLength returns the number of buckets along one side of the grid.
func (ps *PointSet) RowLength() int { return ps.rowLength }

// BucketCount returns the total number of buckets.
func (ps *PointSet) BucketCount() int { return ps.bucketCnt }
