// Package delaunay triangulates landmark sets with the Bowyer-Watson
// algorithm. Output triangles index into the input set, are wound so that
// geom.SignedArea is positive, start at their smallest index and are sorted,
// which makes the result reproducible for a given input.
package delaunay

import (
	"errors"
	"fmt"
	"sort"

	"image-morpher/internal/geom"
)

type tri struct {
	a, b, c int
}

// Triangulate computes a Delaunay triangulation of ps.
func Triangulate(ps geom.PointSet) ([]geom.Triangle, error) {
	n := len(ps)
	if n < geom.MinPoints {
		return nil, &geom.InsufficientPointsError{Input: "points", Got: n}
	}
	if err := ps.Validate("points"); err != nil {
		return nil, err
	}
	if i, j, ok := findDuplicate(ps); ok {
		return nil, &geom.ValidationError{
			Input:  "points",
			Reason: fmt.Sprintf("point %d duplicates point %d at %v", j, i, ps[i]),
		}
	}

	seed, ok := seedTriangle(ps)
	if !ok {
		return nil, &geom.DegenerateGeometryError{
			Input:  "points",
			Points: [3]geom.Point{ps[0], ps[1], ps[2]},
			Err:    errors.New("all points are collinear"),
		}
	}

	// Each hull edge pairs with a ghost vertex at infinity, index n, always
	// stored last, so the triangulation covers the whole convex hull.
	ghost := n
	tris := []tri{seed}
	for _, e := range seed.edges() {
		tris = append(tris, tri{e[1], e[0], ghost})
	}

	for i := 0; i < n; i++ {
		if i == seed.a || i == seed.b || i == seed.c {
			continue
		}
		p := ps[i]

		var (
			keep []tri
			bad  []tri
		)
		for _, t := range tris {
			if circumcircleContains(ps, t, ghost, p) {
				bad = append(bad, t)
			} else {
				keep = append(keep, t)
			}
		}

		// Edges shared by two bad triangles are interior to the cavity.
		shared := make(map[[2]int]int, len(bad)*3)
		for _, t := range bad {
			for _, e := range t.edges() {
				shared[undirected(e)]++
			}
		}
		for _, t := range bad {
			for _, e := range t.edges() {
				if shared[undirected(e)] == 1 {
					keep = append(keep, withGhostLast(tri{e[0], e[1], i}, ghost))
				}
			}
		}
		tris = keep
	}

	out := make([]geom.Triangle, 0, len(tris))
	for _, t := range tris {
		if t.c == ghost {
			continue
		}
		t = orient(ps, t)
		if geom.SignedArea(ps[t.a], ps[t.b], ps[t.c]) == 0 {
			continue
		}
		out = append(out, geom.Triangle{t.a, t.b, t.c}.Canonical())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}

func (t tri) edges() [3][2]int {
	return [3][2]int{{t.a, t.b}, {t.b, t.c}, {t.c, t.a}}
}

func undirected(e [2]int) [2]int {
	if e[0] > e[1] {
		return [2]int{e[1], e[0]}
	}
	return e
}

// orient swaps two vertices when t is wound negatively.
func orient(ps geom.PointSet, t tri) tri {
	if geom.SignedArea(ps[t.a], ps[t.b], ps[t.c]) < 0 {
		t.b, t.c = t.c, t.b
	}
	return t
}

// inCircle reports whether d lies strictly inside the circumcircle of the
// positively wound triangle abc.
func inCircle(a, b, c, d geom.Point) bool {
	adx, ady := a.X-d.X, a.Y-d.Y
	bdx, bdy := b.X-d.X, b.Y-d.Y
	cdx, cdy := c.X-d.X, c.Y-d.Y

	det := (adx*adx+ady*ady)*(bdx*cdy-cdx*bdy) +
		(bdx*bdx+bdy*bdy)*(cdx*ady-adx*cdy) +
		(cdx*cdx+cdy*cdy)*(adx*bdy-bdx*ady)
	return det > 0
}

// seedTriangle returns the first positively wound triangle of ps with
// nonzero area, or false when all points are collinear.
func seedTriangle(ps geom.PointSet) (tri, bool) {
	for k := 2; k < len(ps); k++ {
		if geom.SignedArea(ps[0], ps[1], ps[k]) != 0 {
			return orient(ps, tri{0, 1, k}), true
		}
	}
	return tri{}, false
}

// circumcircleContains reports whether p lies strictly inside the
// circumcircle of t. For a ghost triangle (u, v, ghost) the circle
// degenerates to the open half-plane beyond the hull edge u->v together
// with the open segment uv.
func circumcircleContains(ps geom.PointSet, t tri, ghost int, p geom.Point) bool {
	if t.c != ghost {
		return inCircle(ps[t.a], ps[t.b], ps[t.c], p)
	}
	u, v := ps[t.a], ps[t.b]
	if s := geom.SignedArea(u, v, p); s != 0 {
		return s > 0
	}
	d := v.Sub(u)
	dot := (p.X-u.X)*d.X + (p.Y-u.Y)*d.Y
	return dot > 0 && dot < d.X*d.X+d.Y*d.Y
}

// withGhostLast rotates t so that the ghost vertex, if present, comes
// last. Rotation keeps the winding.
func withGhostLast(t tri, ghost int) tri {
	switch ghost {
	case t.a:
		return tri{t.b, t.c, t.a}
	case t.b:
		return tri{t.c, t.a, t.b}
	}
	return t
}

func findDuplicate(ps geom.PointSet) (int, int, bool) {
	seen := make(map[geom.Point]int, len(ps))
	for j, p := range ps {
		if i, ok := seen[p]; ok {
			return i, j, true
		}
		seen[p] = j
	}
	return 0, 0, false
}

// Edges returns the unique undirected edges of tris in sorted order.
func Edges(tris []geom.Triangle) [][2]int {
	set := make(map[[2]int]struct{}, len(tris)*3)
	for _, t := range tris {
		for _, e := range [3][2]int{{t[0], t[1]}, {t[1], t[2]}, {t[2], t[0]}} {
			set[undirected(e)] = struct{}{}
		}
	}
	out := make([][2]int, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
