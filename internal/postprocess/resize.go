// Package postprocess resizes finished frames and draws diagnostic overlays.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"

	"image-morpher/internal/mathutil"
	"image-morpher/internal/raster"
)

// Resize scales r to the given width with CatmullRom filtering, keeping
// the aspect ratio. A non-positive width or one equal to r's returns r.
func Resize(r *raster.Raster, width int) *raster.Raster {
	if width <= 0 || width == r.Width {
		return r
	}
	height := mathutil.Max(1, (r.Height*width+r.Width/2)/r.Width)

	src := r.ToImage()
	rect := image.Rect(0, 0, width, height)
	var dst draw.Image
	if r.Channels == 1 {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewNRGBA(rect)
	}
	draw.CatmullRom.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
	return raster.FromImage(dst)
}

// ResizeAll resizes every frame, reusing the result for repeated frames.
func ResizeAll(frames []*raster.Raster, width int) []*raster.Raster {
	out := make([]*raster.Raster, len(frames))
	done := make(map[*raster.Raster]*raster.Raster, len(frames))
	for i, f := range frames {
		if r, ok := done[f]; ok {
			out[i] = r
			continue
		}
		out[i] = Resize(f, width)
		done[f] = out[i]
	}
	return out
}
