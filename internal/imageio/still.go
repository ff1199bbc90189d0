package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"

	"image-morpher/internal/raster"
)

// Format is a still-image output encoding.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	WebP Format = "webp"
)

// DefaultJPEGQuality matches the quality used for numbered frame stills.
const DefaultJPEGQuality = 90

// ParseFormat accepts a format name or file extension, with or without the
// leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "jpg", "jpeg":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "webp":
		return WebP, nil
	}
	return "", fmt.Errorf("imageio: unsupported still format %q", s)
}

// FormatFromPath infers the still format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Ext returns the file extension for f without the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

// FrameName returns the numbered still name for a 1-based frame index.
func FrameName(index int, f Format) string {
	return fmt.Sprintf("frame%03d.%s", index, f.Ext())
}

// EncodeStill writes r to w. quality applies to JPEG only; zero or
// negative means DefaultJPEGQuality. WebP output is lossless.
func EncodeStill(w io.Writer, r *raster.Raster, f Format, quality int) error {
	switch f {
	case JPEG:
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		return jpeg.Encode(w, r.ToImage(), &jpeg.Options{Quality: quality})
	case PNG:
		return png.Encode(w, r.ToImage())
	case WebP:
		img := toNRGBA(r.ToImage())
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("WebP encode: %w", err)
		}
		return nil
	}
	return fmt.Errorf("imageio: unsupported still format %q", f)
}

// WriteStill encodes r to path, creating parent directories.
func WriteStill(path string, r *raster.Raster, f Format, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("imageio: mkdir %s: %w", filepath.Dir(path), err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %s: %w", path, err)
	}
	if err := EncodeStill(out, r, f, quality); err != nil {
		out.Close()
		return fmt.Errorf("imageio: encode %s: %w", path, err)
	}
	return out.Close()
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	switch src.(type) {
	case *image.Gray, *image.YCbCr:
		// no alpha: draw, then force opaque
		draw.Draw(dst, b, src, b.Min, draw.Src)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.Pix[dst.PixOffset(x, y)+3] = 255
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.Set(x, y, color.NRGBAModel.Convert(src.At(x, y)))
			}
		}
	}
	return dst
}
