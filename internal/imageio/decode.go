// Package imageio loads input images as rasters and encodes still frames.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"image-morpher/internal/raster"
)

// Decode decodes any registered image format from r and reports its name.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	return img, format, nil
}

// LoadImage reads and decodes the image at path.
func LoadImage(path string) (image.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: read %s: %w", path, err)
	}
	img, _, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}
	return img, nil
}

// LoadRaster reads the image at path as a raster. Gray sources give a
// single-channel raster, everything else three channels; gray forces a
// single channel.
func LoadRaster(path string, gray bool) (*raster.Raster, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	r := raster.FromImage(img)
	if gray {
		r = raster.Grayscale(r)
	}
	return r, nil
}

// LoadPair loads a start and end image with a common channel count. A gray
// image paired with a color one is promoted to three channels.
func LoadPair(startPath, endPath string, gray bool) (start, end *raster.Raster, err error) {
	if start, err = LoadRaster(startPath, gray); err != nil {
		return nil, nil, err
	}
	if end, err = LoadRaster(endPath, gray); err != nil {
		return nil, nil, err
	}
	if start.Channels != end.Channels {
		start, end = raster.ToRGB(start), raster.ToRGB(end)
	}
	return start, end, nil
}
