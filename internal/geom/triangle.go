package geom

import "fmt"

// Triangle is an index triple into a PointSet.
type Triangle [3]int

// Canonical rotates t so that its smallest index comes first while keeping
// the cyclic vertex order, and therefore the winding, unchanged.
func (t Triangle) Canonical() Triangle {
	switch {
	case t[1] < t[0] && t[1] < t[2]:
		return Triangle{t[1], t[2], t[0]}
	case t[2] < t[0] && t[2] < t[1]:
		return Triangle{t[2], t[0], t[1]}
	}
	return t
}

// Less orders triangles lexicographically by index.
func (t Triangle) Less(o Triangle) bool {
	for i := 0; i < 3; i++ {
		if t[i] != o[i] {
			return t[i] < o[i]
		}
	}
	return false
}

// Vertices resolves the triangle's corners in ps.
func (t Triangle) Vertices(ps PointSet) ([3]Point, error) {
	var v [3]Point
	for k, i := range t {
		if i < 0 || i >= len(ps) {
			return v, &ValidationError{
				Input:  "triangle",
				Reason: fmt.Sprintf("index %d out of range for %d points", i, len(ps)),
			}
		}
		v[k] = ps[i]
	}
	return v, nil
}

// SignedArea returns the signed area of the triangle abc. It is positive when
// a, b, c turn counter-clockwise in a y-up frame (clockwise on screen, where
// y grows downward).
func SignedArea(a, b, c Point) float64 {
	return 0.5 * ((b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y))
}
