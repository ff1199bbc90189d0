// Package morph blends two images along a shared triangulation of their
// landmark points.
package morph

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"image-morpher/internal/delaunay"
	"image-morpher/internal/geom"
	"image-morpher/internal/raster"
)

// Options tune a Blender. The zero value is usable.
type Options struct {
	// Workers bounds concurrent triangle warps inside one BlendAt call.
	// Zero or negative means runtime.NumCPU().
	Workers int
	// StrictOrientation turns triangle fold-over (a target triangle winding
	// opposite to its start triangle) into an error instead of a warning.
	StrictOrientation bool
	Logger            *slog.Logger
}

// Blender holds a start/end image pair, their landmarks and the Delaunay
// triangulation of the start landmarks. It is immutable after construction
// and safe for concurrent BlendAt calls.
//
// The triangulation is computed once and reused for every alpha. This is
// only meaningful while no triangle folds over between the start and end
// configurations; see Options.StrictOrientation.
type Blender struct {
	start, end       *raster.Raster
	startPts, endPts geom.PointSet
	triangles        []geom.Triangle
	startSign        []float64

	workers int
	strict  bool
	log     *slog.Logger
}

// NewBlender validates its inputs and triangulates startPoints.
func NewBlender(startImage *raster.Raster, startPoints geom.PointSet, endImage *raster.Raster, endPoints geom.PointSet, opts Options) (*Blender, error) {
	if err := startImage.Validate("start image"); err != nil {
		return nil, err
	}
	if err := endImage.Validate("end image"); err != nil {
		return nil, err
	}
	if !startImage.SameShape(endImage) {
		return nil, &geom.ValidationError{
			Input: "end image",
			Reason: fmt.Sprintf("shape %dx%dx%d does not match start image %dx%dx%d",
				endImage.Width, endImage.Height, endImage.Channels,
				startImage.Width, startImage.Height, startImage.Channels),
		}
	}
	if len(startPoints) < geom.MinPoints {
		return nil, &geom.InsufficientPointsError{Input: "start points", Got: len(startPoints)}
	}
	if len(endPoints) != len(startPoints) {
		return nil, &geom.ValidationError{
			Input:  "end points",
			Reason: fmt.Sprintf("got %d points, start points has %d", len(endPoints), len(startPoints)),
		}
	}
	if err := startPoints.Validate("start points"); err != nil {
		return nil, err
	}
	if err := endPoints.Validate("end points"); err != nil {
		return nil, err
	}

	tris, err := delaunay.Triangulate(startPoints)
	if err != nil {
		return nil, renameInput(err, "start points")
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	b := &Blender{
		start:     startImage,
		end:       endImage,
		startPts:  startPoints.Clone(),
		endPts:    endPoints.Clone(),
		triangles: tris,
		startSign: make([]float64, len(tris)),
		workers:   workers,
		strict:    opts.StrictOrientation,
		log:       log,
	}

	flipped := 0
	for i, t := range tris {
		sv := vertices(t, b.startPts)
		ev := vertices(t, b.endPts)
		b.startSign[i] = math.Copysign(1, geom.SignedArea(sv[0], sv[1], sv[2]))
		area := geom.SignedArea(ev[0], ev[1], ev[2])
		if math.Abs(area) < 1e-10 {
			tri := t
			return nil, &geom.DegenerateGeometryError{
				Input:    "end points",
				Triangle: &tri,
				Points:   ev,
				Err:      errors.New("triangle has zero area"),
			}
		}
		if math.Copysign(1, area) != b.startSign[i] {
			if b.strict {
				tri := t
				return nil, &geom.DegenerateGeometryError{
					Input:    "end points",
					Triangle: &tri,
					Points:   ev,
					Err:      errors.New("triangle folds over between start and end points"),
				}
			}
			flipped++
		}
	}
	if flipped > 0 {
		log.Warn("triangulation folds over between start and end points",
			"flipped", flipped,
			"triangles", len(tris),
		)
	}

	log.Debug("blender ready",
		"width", startImage.Width,
		"height", startImage.Height,
		"channels", startImage.Channels,
		"points", len(startPoints),
		"triangles", len(tris),
	)
	return b, nil
}

// Triangles returns the shared triangulation. Callers must not modify it.
func (b *Blender) Triangles() []geom.Triangle { return b.triangles }

// StartPoints returns a copy of the start landmarks.
func (b *Blender) StartPoints() geom.PointSet { return b.startPts.Clone() }

// EndPoints returns a copy of the end landmarks.
func (b *Blender) EndPoints() geom.PointSet { return b.endPts.Clone() }

// StartImage returns the start raster. Callers must not modify it.
func (b *Blender) StartImage() *raster.Raster { return b.start }

// EndImage returns the end raster. Callers must not modify it.
func (b *Blender) EndImage() *raster.Raster { return b.end }

// TargetPoints returns the landmark positions at alpha.
func (b *Blender) TargetPoints(alpha float64) (geom.PointSet, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, err
	}
	return geom.Lerp(b.startPts, b.endPts, alpha)
}

type warpResult struct {
	fromStart, fromEnd *raster.Patch
	err                error
}

// BlendAt renders the morph at alpha ∈ [0, 1]: landmarks move to
// (1-alpha)*start + alpha*end, both images are warped triangle by triangle
// onto that shape, and the two warps are cross-dissolved.
//
// Triangles are warped concurrently and composed in triangle order, so a
// pixel on a shared edge always takes the value of the later triangle.
// Pixels outside the convex hull of the landmarks are zero.
func (b *Blender) BlendAt(alpha float64) (*raster.Raster, error) {
	targets, err := b.TargetPoints(alpha)
	if err != nil {
		return nil, err
	}

	flipped := 0
	for i, t := range b.triangles {
		tv := vertices(t, targets)
		area := geom.SignedArea(tv[0], tv[1], tv[2])
		if area != 0 && math.Copysign(1, area) != b.startSign[i] {
			if b.strict {
				tri := t
				return nil, &geom.DegenerateGeometryError{
					Input:    "target points",
					Triangle: &tri,
					Points:   tv,
					Err:      fmt.Errorf("triangle folds over at alpha %g", alpha),
				}
			}
			flipped++
		}
	}
	if flipped > 0 {
		b.log.Warn("target triangles fold over", "alpha", alpha, "flipped", flipped)
	}

	results := make([]warpResult, len(b.triangles))
	jobs := make(chan int, b.workers*2)
	var wg sync.WaitGroup

	w, h := b.start.Width, b.start.Height
	for k := 0; k < b.workers; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = b.warpTriangle(b.triangles[i], targets, w, h)
			}
		}()
	}
	for i := range b.triangles {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	fromStart := raster.NewFrameBuffer(w, h, b.start.Channels)
	fromEnd := raster.NewFrameBuffer(w, h, b.end.Channels)
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		r.fromStart.Apply(fromStart)
		r.fromEnd.Apply(fromEnd)
	}

	return raster.Blend(fromStart, fromEnd, alpha), nil
}

func (b *Blender) warpTriangle(t geom.Triangle, targets geom.PointSet, w, h int) warpResult {
	sv := vertices(t, b.startPts)
	ev := vertices(t, b.endPts)
	tv := vertices(t, targets)

	fromStart, err := raster.WarpTriangle(b.start, sv, tv, w, h)
	if err != nil {
		return warpResult{err: locate(err, t, "start points")}
	}
	fromEnd, err := raster.WarpTriangle(b.end, ev, tv, w, h)
	if err != nil {
		return warpResult{err: locate(err, t, "end points")}
	}
	return warpResult{fromStart: fromStart, fromEnd: fromEnd}
}

// vertices resolves t in ps. Every triangle a Blender holds comes from
// triangulating a point set of the same length as ps, so the indices are
// always in range.
func vertices(t geom.Triangle, ps geom.PointSet) [3]geom.Point {
	v, err := t.Vertices(ps)
	if err != nil {
		panic(err)
	}
	return v
}

func checkAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return &geom.ValidationError{Input: "alpha", Reason: fmt.Sprintf("%v is outside [0, 1]", alpha)}
	}
	return nil
}

// locate attaches the triangle and point set to a warp's degenerate-geometry
// error. A degenerate destination is a target-shape problem.
func locate(err error, t geom.Triangle, source string) error {
	var degen *geom.DegenerateGeometryError
	if !errors.As(err, &degen) {
		return err
	}
	input := source
	if degen.Input == "destination triangle" {
		input = "target points"
	}
	return &geom.DegenerateGeometryError{
		Input:    input,
		Triangle: &t,
		Points:   degen.Points,
		Err:      degen.Err,
	}
}

func renameInput(err error, input string) error {
	var (
		insufficient *geom.InsufficientPointsError
		invalid      *geom.ValidationError
		degen        *geom.DegenerateGeometryError
	)
	switch {
	case errors.As(err, &insufficient):
		insufficient.Input = input
	case errors.As(err, &invalid):
		invalid.Input = input
	case errors.As(err, &degen):
		degen.Input = input
	}
	return err
}
