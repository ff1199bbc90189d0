package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"image-morpher/internal/delaunay"
	"image-morpher/internal/geom"
	"image-morpher/internal/mathutil"
	"image-morpher/internal/pointfile"
)

func main() {
	endPath := flag.String("end", "", "end landmark file; reports triangles that fold over")
	width := flag.Int("width", 0, "image width, adds corner landmarks with -height")
	height := flag.Int("height", 0, "image height")
	verbose := flag.Bool("v", false, "list every triangle")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspectpoints [-end file] [-width w -height h] [-v] <points.txt>")
		os.Exit(2)
	}

	pts, err := pointfile.Load(flag.Arg(0))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	var end geom.PointSet
	if *endPath != "" {
		if end, err = pointfile.Load(*endPath); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *width > 0 && *height > 0 {
		pts = pointfile.WithCorners(pts, *width, *height)
		if end != nil {
			end = pointfile.WithCorners(end, *width, *height)
		}
	}

	lo, hi := pts.Bounds()
	fmt.Printf("Points: %d\n", len(pts))
	fmt.Printf("  BBox: X[%.1f, %.1f] Y[%.1f, %.1f]\n", lo.X, hi.X, lo.Y, hi.Y)

	tris, err := delaunay.Triangulate(pts)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	areas := make([]float64, len(tris))
	minAngle := math.Inf(1)
	total := 0.0
	for i, t := range tris {
		// Indices come from Triangulate(pts), so they are in range.
		v, _ := t.Vertices(pts)
		areas[i] = math.Abs(geom.SignedArea(v[0], v[1], v[2]))
		total += areas[i]
		minAngle = mathutil.Min(minAngle, smallestAngle(v))
		if *verbose {
			fmt.Printf("  Tri[%d] %v: area=%.1f min angle=%.1f°\n", i, t, areas[i], smallestAngle(v))
		}
	}
	sorted := append([]float64(nil), areas...)
	sort.Float64s(sorted)

	fmt.Printf("Triangles: %d, edges: %d\n", len(tris), len(delaunay.Edges(tris)))
	fmt.Printf("  Hull area: %.1f\n", total)
	fmt.Printf("  Area: min %.1f, median %.1f, max %.1f\n", sorted[0], sorted[len(sorted)/2], sorted[len(sorted)-1])
	fmt.Printf("  Smallest angle: %.2f°\n", minAngle)

	if end == nil {
		return
	}
	if len(end) != len(pts) {
		fmt.Printf("Error: end has %d points, start has %d\n", len(end), len(pts))
		os.Exit(1)
	}
	flipped := 0
	// Same indices; end was checked to have as many points as pts.
	for _, t := range tris {
		sv, _ := t.Vertices(pts)
		ev, _ := t.Vertices(end)
		sa := geom.SignedArea(sv[0], sv[1], sv[2])
		ea := geom.SignedArea(ev[0], ev[1], ev[2])
		if sa*ea <= 0 {
			flipped++
			fmt.Printf("  Fold-over: %v start area %.1f, end area %.1f\n", t, sa, ea)
		}
	}
	fmt.Printf("Folded triangles: %d/%d\n", flipped, len(tris))
}

// smallestAngle returns the smallest interior angle of v in degrees.
func smallestAngle(v [3]geom.Point) float64 {
	best := 180.0
	for i := 0; i < 3; i++ {
		a := v[(i+1)%3].Sub(v[i])
		b := v[(i+2)%3].Sub(v[i])
		cos := (a.X*b.X + a.Y*b.Y) / (math.Hypot(a.X, a.Y) * math.Hypot(b.X, b.Y))
		deg := math.Acos(mathutil.Clamp(cos, -1, 1)) * 180 / math.Pi
		best = mathutil.Min(best, deg)
	}
	return best
}
