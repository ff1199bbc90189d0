// Package video assembles frame sequences into animations.
package video

import (
	"fmt"
	"path/filepath"
	"strings"

	"image-morpher/internal/raster"
)

// DefaultFPS is the playback rate used when none is configured.
const DefaultFPS = 5

// Writer receives frames in playback order. Close finalizes the output and
// must be called exactly once.
type Writer interface {
	WriteFrame(r *raster.Raster) error
	Close() error
}

// Format names a video container.
type Format string

const (
	GIF Format = "gif"
	MP4 Format = "mp4"
)

// ParseFormat accepts a format name or extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "gif":
		return GIF, nil
	case "mp4", "h264":
		return MP4, nil
	}
	return "", fmt.Errorf("video: unsupported format %q", s)
}

// New opens a writer for path. The format comes from the extension when f
// is empty. fps <= 0 means DefaultFPS.
func New(path string, f Format, fps int) (Writer, error) {
	if f == "" {
		var err error
		if f, err = ParseFormat(filepath.Ext(path)); err != nil {
			return nil, err
		}
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	switch f {
	case GIF:
		return NewGIFWriter(path, fps)
	case MP4:
		return NewFFmpegWriter(path, fps)
	}
	return nil, fmt.Errorf("video: unsupported format %q", f)
}

// WriteAll writes every frame to w and closes it.
func WriteAll(w Writer, frames []*raster.Raster) error {
	for i, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			w.Close()
			return fmt.Errorf("video: frame %d: %w", i, err)
		}
	}
	return w.Close()
}
