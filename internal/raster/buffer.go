// Package raster holds the pixel containers and the per-triangle warp used
// by the morpher. Grayscale and color images share one representation and
// one code path, parameterized by channel count.
package raster

import (
	"fmt"

	"image-morpher/internal/geom"
	"image-morpher/internal/mathutil"
)

// Raster is an 8-bit image with 1 (gray) or 3 (RGB) interleaved channels.
// Pix is row-major: sample c of pixel (x, y) is Pix[(y*Width+x)*Channels+c].
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed raster.
func New(w, h, channels int) (*Raster, error) {
	if err := checkShape("raster", w, h, channels); err != nil {
		return nil, err
	}
	return &Raster{
		Width:    w,
		Height:   h,
		Channels: channels,
		Pix:      make([]uint8, w*h*channels),
	}, nil
}

// Validate checks the raster's shape invariants. input names the raster
// in the returned error.
func (r *Raster) Validate(input string) error {
	if r == nil {
		return &geom.ValidationError{Input: input, Reason: "raster is nil"}
	}
	if err := checkShape(input, r.Width, r.Height, r.Channels); err != nil {
		return err
	}
	if want := r.Width * r.Height * r.Channels; len(r.Pix) != want {
		return &geom.ValidationError{
			Input:  input,
			Reason: fmt.Sprintf("pixel buffer has %d samples, want %d", len(r.Pix), want),
		}
	}
	return nil
}

// SameShape reports whether o has the same dimensions and channel count.
func (r *Raster) SameShape(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height && r.Channels == o.Channels
}

func (r *Raster) Stride() int { return r.Width * r.Channels }

func (r *Raster) PixOffset(x, y int) int {
	return y*r.Stride() + x*r.Channels
}

func (r *Raster) At(x, y, c int) uint8 {
	return r.Pix[r.PixOffset(x, y)+c]
}

func (r *Raster) Set(x, y, c int, v uint8) {
	r.Pix[r.PixOffset(x, y)+c] = v
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Channels: r.Channels, Pix: pix}
}

// FrameBuffer is a float accumulation target with the same layout as Raster.
// Warped triangles are composed into it before the cross-dissolve.
type FrameBuffer struct {
	Width    int
	Height   int
	Channels int
	Color    []float64
}

// NewFrameBuffer allocates a zeroed buffer.
func NewFrameBuffer(w, h, channels int) *FrameBuffer {
	return &FrameBuffer{
		Width:    w,
		Height:   h,
		Channels: channels,
		Color:    make([]float64, w*h*channels),
	}
}

// Blend returns (1-alpha)*a + alpha*b rounded to 8 bits.
// a and b must share a shape.
func Blend(a, b *FrameBuffer, alpha float64) *Raster {
	out := &Raster{
		Width:    a.Width,
		Height:   a.Height,
		Channels: a.Channels,
		Pix:      make([]uint8, len(a.Color)),
	}
	wa := 1 - alpha
	for i := range a.Color {
		out.Pix[i] = mathutil.ClampUint8(wa*a.Color[i] + alpha*b.Color[i])
	}
	return out
}

func checkShape(input string, w, h, channels int) error {
	if w <= 0 || h <= 0 {
		return &geom.ValidationError{Input: input, Reason: fmt.Sprintf("dimensions %dx%d must be positive", w, h)}
	}
	if channels != 1 && channels != 3 {
		return &geom.ValidationError{Input: input, Reason: fmt.Sprintf("channel count %d, want 1 or 3", channels)}
	}
	return nil
}
