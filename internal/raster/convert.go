package raster

import (
	"image"
	"image/color"
)

// FromImage converts a decoded image into a Raster with its origin at (0, 0).
// Gray images become single-channel rasters; everything else becomes RGB
// with alpha discarded.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		r := &Raster{Width: w, Height: h, Channels: 1, Pix: make([]uint8, w*h)}
		for y := 0; y < h; y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(r.Pix[y*w:(y+1)*w], src.Pix[si:si+w])
		}
		return r
	case *image.Gray16:
		r := &Raster{Width: w, Height: h, Channels: 1, Pix: make([]uint8, w*h)}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r.Pix[y*w+x] = uint8(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return r
	}

	r := &Raster{Width: w, Height: h, Channels: 3, Pix: make([]uint8, w*h*3)}
	di := 0
	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				r.Pix[di] = src.Pix[si]
				r.Pix[di+1] = src.Pix[si+1]
				r.Pix[di+2] = src.Pix[si+2]
				di += 3
				si += 4
			}
		}
	case *image.YCbCr:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sx, sy := b.Min.X+x, b.Min.Y+y
				yi := src.YOffset(sx, sy)
				ci := src.COffset(sx, sy)
				r.Pix[di], r.Pix[di+1], r.Pix[di+2] = color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				di += 3
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				r.Pix[di] = c.R
				r.Pix[di+1] = c.G
				r.Pix[di+2] = c.B
				di += 3
			}
		}
	}
	return r
}

// ToImage converts r to *image.Gray or *image.NRGBA (opaque).
func (r *Raster) ToImage() image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	if r.Channels == 1 {
		g := image.NewGray(rect)
		for y := 0; y < r.Height; y++ {
			copy(g.Pix[y*g.Stride:y*g.Stride+r.Width], r.Pix[y*r.Width:(y+1)*r.Width])
		}
		return g
	}

	dst := image.NewNRGBA(rect)
	si := 0
	for y := 0; y < r.Height; y++ {
		di := dst.PixOffset(0, y)
		for x := 0; x < r.Width; x++ {
			dst.Pix[di] = r.Pix[si]
			dst.Pix[di+1] = r.Pix[si+1]
			dst.Pix[di+2] = r.Pix[si+2]
			dst.Pix[di+3] = 0xff
			di += 4
			si += 3
		}
	}
	return dst
}

// Grayscale returns a single-channel copy of r using ITU-R 601 luma weights.
// Gray rasters are cloned.
func Grayscale(r *Raster) *Raster {
	if r.Channels == 1 {
		return r.Clone()
	}
	out := &Raster{Width: r.Width, Height: r.Height, Channels: 1, Pix: make([]uint8, r.Width*r.Height)}
	for i := range out.Pix {
		p := r.Pix[i*3 : i*3+3]
		lum := (299*int(p[0]) + 587*int(p[1]) + 114*int(p[2]) + 500) / 1000
		out.Pix[i] = uint8(lum)
	}
	return out
}

// ToRGB returns r with three channels, replicating a gray channel.
func ToRGB(r *Raster) *Raster {
	if r.Channels == 3 {
		return r
	}
	out := &Raster{Width: r.Width, Height: r.Height, Channels: 3, Pix: make([]uint8, r.Width*r.Height*3)}
	for i, v := range r.Pix {
		out.Pix[i*3], out.Pix[i*3+1], out.Pix[i*3+2] = v, v, v
	}
	return out
}
