// Package geom implements 2D coordinate arithmetic on a torus of side U.
package geom

import "math"

// Coord is a point in the plane before it is wrapped onto a torus.
type Coord struct {
	X, Y float64
}

// Add returns c+q.
func (c Coord) Add(q Coord) Coord {
	return Coord{c.X + q.X, c.Y + q.Y}
}

// Sub returns c-q.
func (c Coord) Sub(q Coord) Coord {
	return Coord{c.X - q.X, c.Y - q.Y}
}

// SquaredNorm returns |c|^2.
func (c Coord) SquaredNorm() float64 {
	return c.X*c.X + c.Y*c.Y
}

// Norm returns |c|.
func (c Coord) Norm() float64 {
	return math.Sqrt(c.SquaredNorm())
}

// wrap1 folds a single coordinate into [0, u).
func wrap1(x, u float64) float64 {
	x = math.Mod(x, u)
	if x < 0 {
		x += u
		if x >= u { // a tiny negative x rounds up to u
			x = 0
		}
	}
	return x
}

// Wrap folds c onto the torus [0,U)x[0,U).
func (c Coord) Wrap(u float64) Coord {
	return Coord{wrap1(c.X, u), wrap1(c.Y, u)}
}

// torusDelta1 returns the shortest signed displacement on a circle of
// circumference u between a and b.
func torusDelta1(a, b, u float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, u-d)
}

// TorusSquaredDistance returns the squared shortest distance between c and q
// on a torus of side u.
func (c Coord) TorusSquaredDistance(q Coord, u float64) float64 {
	dx := torusDelta1(c.X, q.X, u)
	dy := torusDelta1(c.Y, q.Y, u)
	return dx*dx + dy*dy
}

// TorusDistance returns the shortest Euclidean distance between c and q on a
// torus of side u.
func (c Coord) TorusDistance(q Coord, u float64) float64 {
	return math.Sqrt(c.TorusSquaredDistance(q, u))
}
