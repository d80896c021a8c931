// Package config implements ConfigurationSet: a hash-bucketed, weight-indexed
// collection of point tuples used by arity-k>=2 trackers to maintain the
// current set of configurations satisfying a pairwise process's kernel
// support.
//
// Go has no const generics (a type cannot be parameterized by an array
// length), so unlike the original C++ NConfiguration<IN> template, arity
// here is a runtime-checked field fixed at ConfigurationSet construction
// rather than a compile-time parameter — see DESIGN.md's Open Question
// resolution.
package config

import (
	"fmt"

	"github.com/ppsim/ppsim/sim/accum"
	"github.com/ppsim/ppsim/sim/spatial"
)

// DefaultBucketCount is the default hash bucket count backing a
// ConfigurationSet.
const DefaultBucketCount = 4096

// PointRef is one slot of a Configuration's tuple: the point's handle (for
// identity) plus its cached hash (for bucketing), avoiding a PointSet lookup
// on every bucket computation.
type PointRef struct {
	Handle spatial.Handle
	Hash   uint64
}

// Configuration is an ordered tuple of point references with a real-valued
// weight. Created and destroyed only through its owning ConfigurationSet.
type Configuration struct {
	Points []PointRef
	Weight float64

	bucket   int
	inBucket bool
	slot     int
}

// Point returns the handle at tuple position i.
func (c *Configuration) Point(i int) spatial.Handle { return c.Points[i].Handle }

// Arity returns the tuple length.
func (c *Configuration) Arity() int { return len(c.Points) }

// ConfigurationSet stores tuples of arity `arity`, hash-bucketed by the
// order-sensitive combination of their point hashes.
type ConfigurationSet struct {
	arity       int
	bucketCount int
	buckets     [][]*Configuration
	acc         *accum.Accumulator[int64]
}

// New builds a ConfigurationSet for tuples of the given arity, using
// DefaultBucketCount buckets.
func New(arity int) *ConfigurationSet {
	return NewWithBuckets(arity, DefaultBucketCount)
}

// NewWithBuckets builds a ConfigurationSet for tuples of the given arity
// with an explicit (power-of-two) bucket count.
func NewWithBuckets(arity, bucketCount int) *ConfigurationSet {
	if arity < 2 {
		panic("config: ConfigurationSet requires arity >= 2")
	}
	if bucketCount <= 0 || bucketCount&(bucketCount-1) != 0 {
		panic("config: bucketCount must be a positive power of two")
	}
	return &ConfigurationSet{
		arity:       arity,
		bucketCount: bucketCount,
		buckets:     make([][]*Configuration, bucketCount),
		acc:         accum.NewForCount[int64](bucketCount),
	}
}

// Arity returns the tuple arity this set stores.
func (cs *ConfigurationSet) Arity() int { return cs.arity }

// TotalCount returns the accumulator root: the number of live configurations.
func (cs *ConfigurationSet) TotalCount() int64 { return cs.acc.Total() }

// TotalRealWeight sums every live configuration's real weight. O(n) in the
// number of live configurations; sim/tracker's arity-k Propensity calls it
// on every query.
func (cs *ConfigurationSet) TotalRealWeight() float64 {
	var total float64
	for _, b := range cs.buckets {
		for _, c := range b {
			total += c.Weight
		}
	}
	return total
}

func hashTuple(refs []PointRef) uint64 {
	var h uint64
	for _, r := range refs {
		h = h ^ (r.Hash + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2))
	}
	return h
}

func (cs *ConfigurationSet) bucketFor(refs []PointRef) int {
	return int(hashTuple(refs) % uint64(cs.bucketCount))
}

// Create allocates a configuration with the given weight and point handles,
// not yet inserted — callers must pass (handle, hash) pairs.
func (cs *ConfigurationSet) Create(weight float64, refs ...PointRef) *Configuration {
	if len(refs) != cs.arity {
		panic(fmt.Sprintf("config: Create expects %d points, got %d", cs.arity, len(refs)))
	}
	points := make([]PointRef, len(refs))
	copy(points, refs)
	return &Configuration{Points: points, Weight: weight}
}

// Add inserts a created-but-not-yet-inserted configuration. Panics if c is
// already present; callers are expected to check via FindAndDestroy/scan
// before re-adding the same tuple, since Add itself only guards against
// double-insertion of the same Configuration value.
func (cs *ConfigurationSet) Add(c *Configuration) {
	if c.inBucket {
		panic("config: Add called on a configuration that is already present")
	}
	b := cs.bucketFor(c.Points)
	cs.buckets[b] = append(cs.buckets[b], c)
	c.bucket = b
	c.slot = len(cs.buckets[b]) - 1
	c.inBucket = true
	cs.acc.Increment(b, 1)
}

// Remove detaches c from its bucket without freeing it.
func (cs *ConfigurationSet) Remove(c *Configuration) {
	if !c.inBucket {
		panic("config: Remove called on a configuration that is not present")
	}
	bucket := cs.buckets[c.bucket]
	last := len(bucket) - 1
	if c.slot != last {
		moved := bucket[last]
		bucket[c.slot] = moved
		moved.slot = c.slot
	}
	cs.buckets[c.bucket] = bucket[:last]
	c.inBucket = false
	cs.acc.Increment(c.bucket, -1)
}

// Destroy releases a removed configuration. Panics if c is still present.
func (cs *ConfigurationSet) Destroy(c *Configuration) {
	if c.inBucket {
		panic("config: Destroy called on a configuration still present in the set")
	}
}

func tupleEqual(refs []PointRef, handles []spatial.Handle) bool {
	if len(refs) != len(handles) {
		return false
	}
	for i, r := range refs {
		if r.Handle != handles[i] {
			return false
		}
	}
	return true
}

// FindAndDestroy scans the hash bucket for the exact tuple (by handle
// identity, order-sensitive) and removes + destroys it. Panics if no exact
// match exists — a miss here signals that PointSet/ConfigurationSet/
// dependency-graph invariants have been violated.
func (cs *ConfigurationSet) FindAndDestroy(refs ...PointRef) {
	handles := make([]spatial.Handle, len(refs))
	for i, r := range refs {
		handles[i] = r.Handle
	}
	b := cs.bucketFor(refs)
	bucket := cs.buckets[b]
	for _, c := range bucket {
		if tupleEqual(c.Points, handles) {
			cs.Remove(c)
			cs.Destroy(c)
			return
		}
	}
	panic(fmt.Sprintf("config: FindAndDestroy found no matching configuration for tuple %v", handles))
}

// GetByWeight performs mixed count/weight sampling: the
// accumulator (which tracks bucket occupancy COUNTS, not real weights) finds
// an approximate starting bucket for the real-weight target `weight`, and
// the remainder is resolved by a linear scan summing real weights forward
// from there. For top-hat kernels every live configuration has equal weight
// and this degrades to uniform sampling; for variable-weight kernels this is
// not strictly uniform (see DESIGN.md's Open Question resolution).
func (cs *ConfigurationSet) GetByWeight(weight float64) *Configuration {
	total := cs.TotalRealWeight()
	if weight < 0 || weight > total {
		panic(fmt.Sprintf("config: GetByWeight(%v) out of range [0,%v]", weight, total))
	}
	target := int64(weight)
	if count := cs.TotalCount(); count > 0 && target >= count {
		target = count - 1
	}
	startLoc, remainingCount := cs.acc.FindStartLocation(target)
	remaining := float64(remainingCount)
	for b := startLoc; b >= 0 && b < len(cs.buckets); b++ {
		for _, c := range cs.buckets[b] {
			remaining -= c.Weight
			if remaining <= 0 {
				return c
			}
		}
	}
	panic(fmt.Sprintf("config: GetByWeight(%v) did not find a configuration", weight))
}

// GetRandom returns the floor(u*count)-th configuration in bucket-linearized
// order, for u in [0,1) (uniform by count).
func (cs *ConfigurationSet) GetRandom(u float64) *Configuration {
	if u < 0 || u >= 1 {
		panic("config: GetRandom requires u in [0,1)")
	}
	count := cs.TotalCount()
	if count == 0 {
		panic("config: GetRandom called on an empty configuration set")
	}
	n := int64(u * float64(count))
	if n >= count {
		n = count - 1
	}
	return cs.GetNth(n)
}

// GetNth returns the n-th configuration (0-indexed) in bucket-linearized
// order. Panics if n >= TotalCount().
func (cs *ConfigurationSet) GetNth(n int64) *Configuration {
	if n < 0 || n >= cs.TotalCount() {
		panic(fmt.Sprintf("config: GetNth(%d) out of range (count=%d)", n, cs.TotalCount()))
	}
	startCode, remaining := cs.acc.FindStartLocation(n)
	startBucket := startCode
	for b := startBucket; b < len(cs.buckets); b++ {
		bucket := cs.buckets[b]
		if int64(len(bucket)) > remaining {
			return bucket[remaining]
		}
		remaining -= int64(len(bucket))
	}
	panic(fmt.Sprintf("config: GetNth(%d) could not locate configuration (remaining=%d)", n, remaining))
}

// Contains reports whether c is currently present in the set. For debugging
// only — O(1) via the inBucket flag rather than the linear scan the original
// C++ used.
func (cs *ConfigurationSet) Contains(c *Configuration) bool { return c.inBucket }

// ContainsPoint reports whether any live configuration references h in any
// tuple position. O(n); used only by tests and debug assertions.
func (cs *ConfigurationSet) ContainsPoint(h spatial.Handle) bool {
	for _, b := range cs.buckets {
		for _, c := range b {
			for _, r := range c.Points {
				if r.Handle == h {
					return true
				}
			}
		}
	}
	return false
}
