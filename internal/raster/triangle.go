package raster

import (
	"image"
	"math"

	"github.com/pkg/errors"

	"image-morpher/internal/geom"
	"image-morpher/internal/mathutil"
)

// coverEps is the slack, in pixels, of the inclusive inside test: pixels
// on an edge belong to both triangles that share it.
const coverEps = 1e-6

// Patch is the result of warping one triangle: the covered pixels of a
// destination-space bounding box and their resampled values. Patches are
// independent of each other and of any destination buffer.
type Patch struct {
	Rect     image.Rectangle
	Channels int
	Mask     []bool    // Rect.Dx()*Rect.Dy(), row-major
	Values   []float64 // Rect.Dx()*Rect.Dy()*Channels
}

// Covered counts the pixels in the patch's mask.
func (p *Patch) Covered() int {
	n := 0
	for _, m := range p.Mask {
		if m {
			n++
		}
	}
	return n
}

// Apply writes the patch's covered pixels into fb. Pixels outside the mask
// are left untouched.
func (p *Patch) Apply(fb *FrameBuffer) {
	w := p.Rect.Dx()
	ch := p.Channels
	for py := 0; py < p.Rect.Dy(); py++ {
		rowOff := ((p.Rect.Min.Y+py)*fb.Width + p.Rect.Min.X) * ch
		for px := 0; px < w; px++ {
			k := py*w + px
			if !p.Mask[k] {
				continue
			}
			copy(fb.Color[rowOff+px*ch:rowOff+px*ch+ch], p.Values[k*ch:k*ch+ch])
		}
	}
}

// WarpTriangle resamples src over the triangle dstTri of a width×height
// destination, using the affine map that takes srcTri onto dstTri. Each
// covered destination pixel is mapped back into src through the inverse map
// and interpolated bilinearly within srcTri's bounding box.
//
// Coverage is clipped to the destination bounds. Collinear source or
// destination corners produce a *geom.DegenerateGeometryError.
func WarpTriangle(src *Raster, srcTri, dstTri [3]geom.Point, width, height int) (*Patch, error) {
	fwd, err := mathutil.SolveAffine(srcTri, dstTri)
	if err != nil {
		return nil, err
	}
	inv, ok := fwd.Inverse()
	if !ok || math.Abs(geom.SignedArea(dstTri[0], dstTri[1], dstTri[2])) < 1e-10 {
		return nil, &geom.DegenerateGeometryError{
			Input:  "destination triangle",
			Points: dstTri,
			Err:    errors.New("affine map is not invertible"),
		}
	}

	rect := triangleRect(dstTri, image.Rect(0, 0, width, height))
	patch := &Patch{
		Rect:     rect,
		Channels: src.Channels,
		Mask:     make([]bool, rect.Dx()*rect.Dy()),
		Values:   make([]float64, rect.Dx()*rect.Dy()*src.Channels),
	}
	if rect.Empty() {
		return patch, nil
	}

	sampler := NewSampler(src, Window(src, srcTri))

	x0, y0 := dstTri[0].X, dstTri[0].Y
	x1, y1 := dstTri[1].X, dstTri[1].Y
	x2, y2 := dstTri[2].X, dstTri[2].Y

	// Edge functions, scaled so they measure signed distance in pixels,
	// positive inside.
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	sign := math.Copysign(1, det)
	n0 := sign / math.Hypot(x1-x2, y1-y2)
	n1 := sign / math.Hypot(x2-x0, y2-y0)
	n2 := sign / math.Hypot(x0-x1, y0-y1)
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	ch := src.Channels
	w := rect.Dx()
	for sy := rect.Min.Y; sy < rect.Max.Y; sy++ {
		dsy := float64(sy) - y2
		row := (sy - rect.Min.Y) * w
		for sx := rect.Min.X; sx < rect.Max.X; sx++ {
			dsx := float64(sx) - x2
			e0 := dy12*dsx + dx21*dsy
			e1 := dy20*dsx + dx02*dsy
			e2 := det - e0 - e1
			if e0*n0 < -coverEps || e1*n1 < -coverEps || e2*n2 < -coverEps {
				continue
			}

			k := row + sx - rect.Min.X
			patch.Mask[k] = true
			s := inv.Apply(geom.Point{X: float64(sx), Y: float64(sy)})
			sampler.Sample(s.X, s.Y, patch.Values[k*ch:k*ch+ch])
		}
	}
	return patch, nil
}

// WarpInto is WarpTriangle followed by Apply on dst.
func WarpInto(src *Raster, srcTri, dstTri [3]geom.Point, dst *FrameBuffer) error {
	p, err := WarpTriangle(src, srcTri, dstTri, dst.Width, dst.Height)
	if err != nil {
		return err
	}
	p.Apply(dst)
	return nil
}
