package engine

// KahanSum accumulates values with compensated (Kahan) summation, reducing
// the floating-point error of summing many small propensities into one
// total.
type KahanSum struct {
	sum        float64
	correction float64
}

// Add folds v into the running sum.
func (k *KahanSum) Add(v float64) {
	y := v - k.correction
	t := k.sum + y
	k.correction = (t - k.sum) - y
	k.sum = t
}

// Total returns the compensated running sum.
func (k *KahanSum) Total() float64 { return k.sum }

// Reset zeroes the accumulator for reuse.
func (k *KahanSum) Reset() {
	k.sum = 0
	k.correction = 0
}
