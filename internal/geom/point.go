package geom

import (
	"fmt"
	"math"
)

// Point is a position in image pixel space. X is the column, Y is the row.
// Coordinates may be fractional.
type Point struct {
	X, Y float64
}

// Lerp returns (1-t)*p + t*q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: (1-t)*p.X + t*q.X,
		Y: (1-t)*p.Y + t*q.Y,
	}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Eq reports whether p and q are within eps of each other on both axes.
func (p Point) Eq(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// PointSet is an ordered list of landmarks. The index of a point is its
// identity: start, end and interpolated sets correspond index for index.
type PointSet []Point

// Validate checks that every coordinate is finite. input names the set in
// the returned error ("start points", "end points", ...).
func (ps PointSet) Validate(input string) error {
	for i, p := range ps {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return &ValidationError{
				Input:  input,
				Reason: fmt.Sprintf("point %d has non-finite coordinate %v", i, p),
			}
		}
	}
	return nil
}

// Bounds returns the component-wise min and max over the set.
// An empty set yields two zero points.
func (ps PointSet) Bounds() (lo, hi Point) {
	if len(ps) == 0 {
		return Point{}, Point{}
	}
	lo, hi = ps[0], ps[0]
	for _, p := range ps[1:] {
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	return lo, hi
}

// Clone returns an independent copy of ps.
func (ps PointSet) Clone() PointSet {
	out := make(PointSet, len(ps))
	copy(out, ps)
	return out
}

// Lerp interpolates two corresponding sets vertex by vertex:
// out[i] = (1-t)*a[i] + t*b[i].
func Lerp(a, b PointSet, t float64) (PointSet, error) {
	if len(a) != len(b) {
		return nil, &ValidationError{
			Input:  "end points",
			Reason: fmt.Sprintf("length %d does not match start points length %d", len(b), len(a)),
		}
	}
	out := make(PointSet, len(a))
	for i := range a {
		out[i] = a[i].Lerp(b[i], t)
	}
	return out, nil
}
