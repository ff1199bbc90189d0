package video

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"

	"image-morpher/internal/raster"
)

var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

// GIFWriter buffers paletted frames and encodes an animated GIF on Close.
type GIFWriter struct {
	path  string
	delay int
	anim  gif.GIF
	shape [3]int
}

// NewGIFWriter creates a GIF writer. Frame delay is 100/fps hundredths of a
// second, at least 1.
func NewGIFWriter(path string, fps int) (*GIFWriter, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("video: fps must be positive, got %d", fps)
	}
	delay := 100 / fps
	if delay < 1 {
		delay = 1
	}
	return &GIFWriter{path: path, delay: delay}, nil
}

// WriteFrame quantizes r and appends it. Gray rasters map onto a 256-level
// gray palette exactly; color rasters are dithered onto the web-safe palette.
func (w *GIFWriter) WriteFrame(r *raster.Raster) error {
	shape := [3]int{r.Width, r.Height, r.Channels}
	if len(w.anim.Image) == 0 {
		w.shape = shape
	} else if shape != w.shape {
		return fmt.Errorf("video: frame shape %v differs from first frame %v", shape, w.shape)
	}

	rect := image.Rect(0, 0, r.Width, r.Height)
	var frame *image.Paletted
	if r.Channels == 1 {
		frame = image.NewPaletted(rect, grayPalette)
		copy(frame.Pix, r.Pix)
	} else {
		frame = image.NewPaletted(rect, palette.WebSafe)
		draw.FloydSteinberg.Draw(frame, rect, r.ToImage(), image.Point{})
	}
	w.anim.Image = append(w.anim.Image, frame)
	w.anim.Delay = append(w.anim.Delay, w.delay)
	return nil
}

// Frames returns the number of frames written so far.
func (w *GIFWriter) Frames() int { return len(w.anim.Image) }

// Close encodes the animation to disk.
func (w *GIFWriter) Close() error {
	if len(w.anim.Image) == 0 {
		return fmt.Errorf("video: no frames written to %s", w.path)
	}
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("video: create %s: %w", w.path, err)
	}
	if err := gif.EncodeAll(f, &w.anim); err != nil {
		f.Close()
		return fmt.Errorf("video: encode %s: %w", w.path, err)
	}
	return f.Close()
}
