package raster

import (
	"image"
	"math"

	"image-morpher/internal/geom"
	"image-morpher/internal/mathutil"
)

// Sampler performs bilinear (order-1) interpolation over a rectangular
// window of a source raster. Coordinates outside the window are clamped to
// its edge, so only the window's pixels are ever read.
type Sampler struct {
	src    *Raster
	window image.Rectangle // inclusive Min, exclusive Max
}

// NewSampler restricts sampling of src to window, clipped to src's bounds.
func NewSampler(src *Raster, window image.Rectangle) *Sampler {
	return &Sampler{
		src:    src,
		window: window.Intersect(image.Rect(0, 0, src.Width, src.Height)),
	}
}

// Window returns the pixel-aligned bounding box of tri, grown to whole
// pixels and clipped to src.
func Window(src *Raster, tri [3]geom.Point) image.Rectangle {
	return triangleRect(tri, image.Rect(0, 0, src.Width, src.Height))
}

// triangleRect returns the pixel-aligned bounding box of tri, grown to
// whole pixels and clipped to clip.
func triangleRect(tri [3]geom.Point, clip image.Rectangle) image.Rectangle {
	lo, hi := geom.PointSet(tri[:]).Bounds()
	r := image.Rect(
		int(math.Floor(lo.X)), int(math.Floor(lo.Y)),
		int(math.Ceil(hi.X))+1, int(math.Ceil(hi.Y))+1,
	)
	return r.Intersect(clip)
}

// Sample writes the interpolated value of every channel at (x, y) into out,
// which must hold at least src.Channels values.
func (s *Sampler) Sample(x, y float64, out []float64) {
	w := s.window
	if w.Empty() {
		for c := range out[:s.src.Channels] {
			out[c] = 0
		}
		return
	}

	x = mathutil.Clamp(x, float64(w.Min.X), float64(w.Max.X-1))
	y = mathutil.Clamp(y, float64(w.Min.Y), float64(w.Max.Y-1))

	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	if x1 >= w.Max.X {
		x1 = x0
	}
	y1 := y0 + 1
	if y1 >= w.Max.Y {
		y1 = y0
	}
	dx := x - float64(x0)
	dy := y - float64(y0)

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	src := s.src
	pix := src.Pix
	i00 := src.PixOffset(x0, y0)
	i10 := src.PixOffset(x1, y0)
	i01 := src.PixOffset(x0, y1)
	i11 := src.PixOffset(x1, y1)

	for c := 0; c < src.Channels; c++ {
		out[c] = float64(pix[i00+c])*w00 + float64(pix[i10+c])*w10 +
			float64(pix[i01+c])*w01 + float64(pix[i11+c])*w11
	}
}
