package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-morpher/internal/geom"
)

// gradient fills a raster with a pattern that makes misplaced samples obvious.
func gradient(t testing.TB, w, h, channels int) *Raster {
	t.Helper()
	r, err := New(w, h, channels)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < channels; c++ {
				r.Set(x, y, c, uint8((x*3+y*5+c*40)%256))
			}
		}
	}
	return r
}

func TestNewValidatesShape(t *testing.T) {
	_, err := New(0, 10, 1)
	var invalid *geom.ValidationError
	require.True(t, errors.As(err, &invalid))

	_, err = New(10, 10, 4)
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Reason, "channel count 4")

	r := &Raster{Width: 2, Height: 2, Channels: 1, Pix: make([]uint8, 3)}
	err = r.Validate("start image")
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "start image", invalid.Input)
}

func TestSamplerExactAndInterpolated(t *testing.T) {
	src := gradient(t, 8, 8, 1)
	s := NewSampler(src, image.Rect(0, 0, 8, 8))
	out := make([]float64, 1)

	s.Sample(3, 4, out)
	assert.InDelta(t, float64(src.At(3, 4, 0)), out[0], 1e-12)

	s.Sample(3.5, 4, out)
	want := (float64(src.At(3, 4, 0)) + float64(src.At(4, 4, 0))) / 2
	assert.InDelta(t, want, out[0], 1e-12)

	s.Sample(3.5, 4.5, out)
	want = (float64(src.At(3, 4, 0)) + float64(src.At(4, 4, 0)) +
		float64(src.At(3, 5, 0)) + float64(src.At(4, 5, 0))) / 4
	assert.InDelta(t, want, out[0], 1e-12)
}

func TestSamplerClampsToWindow(t *testing.T) {
	src := gradient(t, 10, 10, 3)
	s := NewSampler(src, image.Rect(2, 2, 5, 5))
	out := make([]float64, 3)

	s.Sample(-20, -20, out)
	for c := 0; c < 3; c++ {
		assert.InDelta(t, float64(src.At(2, 2, c)), out[c], 1e-12)
	}
	s.Sample(100, 100, out)
	for c := 0; c < 3; c++ {
		assert.InDelta(t, float64(src.At(4, 4, c)), out[c], 1e-12)
	}
}

func TestWindowClipsToRaster(t *testing.T) {
	src := gradient(t, 20, 10, 1)
	w := Window(src, [3]geom.Point{{-5, 2.5}, {8.2, 1}, {30, 12}})
	assert.Equal(t, image.Rect(0, 1, 20, 10), w)
}

func TestWarpTriangleIdentity(t *testing.T) {
	for _, channels := range []int{1, 3} {
		src := gradient(t, 40, 40, channels)
		tri := [3]geom.Point{{2, 3}, {35, 6}, {10, 37}}

		p, err := WarpTriangle(src, tri, tri, 40, 40)
		require.NoError(t, err)
		require.Greater(t, p.Covered(), 0)

		fb := NewFrameBuffer(40, 40, channels)
		p.Apply(fb)
		for y := 0; y < 40; y++ {
			for x := 0; x < 40; x++ {
				k := (y-p.Rect.Min.Y)*p.Rect.Dx() + x - p.Rect.Min.X
				inRect := image.Pt(x, y).In(p.Rect)
				for c := 0; c < channels; c++ {
					got := fb.Color[(y*40+x)*channels+c]
					if inRect && p.Mask[k] {
						assert.InDelta(t, float64(src.At(x, y, c)), got, 1e-6, "pixel (%d,%d) c%d", x, y, c)
					} else {
						assert.Zero(t, got, "pixel (%d,%d) outside mask was written", x, y)
					}
				}
			}
		}
	}
}

func TestWarpTriangleTranslation(t *testing.T) {
	src := gradient(t, 60, 60, 1)
	srcTri := [3]geom.Point{{5, 5}, {30, 5}, {5, 30}}
	dstTri := [3]geom.Point{{15, 12}, {40, 12}, {15, 37}}

	fb := NewFrameBuffer(60, 60, 1)
	require.NoError(t, WarpInto(src, srcTri, dstTri, fb))

	for _, pt := range []image.Point{{20, 17}, {16, 13}, {25, 20}} {
		got := fb.Color[pt.Y*60+pt.X]
		assert.InDelta(t, float64(src.At(pt.X-10, pt.Y-7, 0)), got, 1e-6)
	}
}

func TestWarpTriangleClipsToDestination(t *testing.T) {
	src := gradient(t, 30, 30, 1)
	srcTri := [3]geom.Point{{0, 0}, {29, 0}, {0, 29}}
	dstTri := [3]geom.Point{{-10, -10}, {40, -10}, {-10, 40}}

	p, err := WarpTriangle(src, srcTri, dstTri, 30, 30)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 30), p.Rect)
	fb := NewFrameBuffer(30, 30, 1)
	p.Apply(fb)
}

func TestWarpTriangleDegenerate(t *testing.T) {
	src := gradient(t, 10, 10, 1)
	good := [3]geom.Point{{0, 0}, {9, 0}, {0, 9}}
	line := [3]geom.Point{{0, 0}, {4, 4}, {8, 8}}

	_, err := WarpTriangle(src, line, good, 10, 10)
	var degen *geom.DegenerateGeometryError
	require.True(t, errors.As(err, &degen))
	assert.Equal(t, "source triangle", degen.Input)

	_, err = WarpTriangle(src, good, line, 10, 10)
	require.True(t, errors.As(err, &degen))
	assert.Equal(t, "destination triangle", degen.Input)
}

func TestSharedEdgeCoveredByBoth(t *testing.T) {
	src := gradient(t, 20, 20, 1)
	a := [3]geom.Point{{0, 0}, {19, 0}, {0, 19}}
	b := [3]geom.Point{{19, 0}, {19, 19}, {0, 19}}

	pa, err := WarpTriangle(src, a, a, 20, 20)
	require.NoError(t, err)
	pb, err := WarpTriangle(src, b, b, 20, 20)
	require.NoError(t, err)

	covered := func(p *Patch, x, y int) bool {
		if !image.Pt(x, y).In(p.Rect) {
			return false
		}
		return p.Mask[(y-p.Rect.Min.Y)*p.Rect.Dx()+x-p.Rect.Min.X]
	}
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			assert.True(t, covered(pa, x, y) || covered(pb, x, y), "gap at (%d,%d)", x, y)
		}
	}
	assert.True(t, covered(pa, 10, 9) && covered(pb, 10, 9), "diagonal pixel should be shared")
}

func TestLargeTriangleCoversOnlyItsInterior(t *testing.T) {
	const size = 2000
	src := gradient(t, size+1, size+1, 1)
	tri := [3]geom.Point{{0, 0}, {size, 0}, {0, size}}

	p, err := WarpTriangle(src, tri, tri, size+1, size+1)
	require.NoError(t, err)

	outside, missing := 0, 0
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		for x := p.Rect.Min.X; x < p.Rect.Max.X; x++ {
			covered := p.Mask[(y-p.Rect.Min.Y)*p.Rect.Dx()+x-p.Rect.Min.X]
			inside := x+y <= size
			if covered && !inside {
				outside++
			}
			if !covered && inside {
				missing++
			}
		}
	}
	assert.Zero(t, outside, "pixels beyond the hypotenuse were covered")
	assert.Zero(t, missing, "pixels on or inside the edges were skipped")
	assert.True(t, p.Mask[(size/2-p.Rect.Min.Y)*p.Rect.Dx()+size/2-p.Rect.Min.X], "hypotenuse pixel")
}

func TestBlendRounds(t *testing.T) {
	a := NewFrameBuffer(1, 1, 1)
	b := NewFrameBuffer(1, 1, 1)
	a.Color[0], b.Color[0] = 100, 201
	assert.Equal(t, uint8(151), Blend(a, b, 0.5).Pix[0])
	assert.Equal(t, uint8(100), Blend(a, b, 0).Pix[0])
	assert.Equal(t, uint8(201), Blend(a, b, 1).Pix[0])
}

func TestImageRoundTrip(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 2))
	g.SetGray(1, 1, color.Gray{Y: 77})
	r := FromImage(g)
	assert.Equal(t, 1, r.Channels)
	assert.Equal(t, uint8(77), r.At(1, 1, 0))
	assert.Equal(t, g.Pix, r.ToImage().(*image.Gray).Pix)

	n := image.NewNRGBA(image.Rect(5, 5, 7, 7))
	n.SetNRGBA(6, 5, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	r = FromImage(n)
	assert.Equal(t, 3, r.Channels)
	assert.Equal(t, []uint8{10, 20, 30}, r.Pix[3:6])
	out := r.ToImage().(*image.NRGBA)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, out.NRGBAAt(1, 0))
}

func TestGrayscale(t *testing.T) {
	r := &Raster{Width: 2, Height: 1, Channels: 3, Pix: []uint8{255, 255, 255, 255, 0, 0}}
	g := Grayscale(r)
	assert.Equal(t, []uint8{255, 76}, g.Pix)
}

func TestToRGB(t *testing.T) {
	g := &Raster{Width: 2, Height: 1, Channels: 1, Pix: []uint8{7, 200}}
	rgb := ToRGB(g)
	assert.Equal(t, 3, rgb.Channels)
	assert.Equal(t, []uint8{7, 7, 7, 200, 200, 200}, rgb.Pix)
	assert.Same(t, rgb, ToRGB(rgb))
}

func BenchmarkWarpTriangle(b *testing.B) {
	src := gradient(b, 512, 512, 3)
	srcTri := [3]geom.Point{{10, 10}, {500, 40}, {60, 490}}
	dstTri := [3]geom.Point{{20, 5}, {490, 60}, {40, 500}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := WarpTriangle(src, srcTri, dstTri, 512, 512); err != nil {
			b.Fatal(err)
		}
	}
}
