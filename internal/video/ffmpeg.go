package video

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"image-morpher/internal/raster"
)

// FFmpegBinary is the executable NewFFmpegWriter starts.
var FFmpegBinary = "ffmpeg"

// FFmpegWriter streams raw frames into an ffmpeg process encoding H.264.
// The process starts on the first frame, once the frame size is known.
type FFmpegWriter struct {
	path   string
	fps    int
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	shape  [3]int
	frames int
}

// NewFFmpegWriter checks that ffmpeg is available and returns a writer.
func NewFFmpegWriter(path string, fps int) (*FFmpegWriter, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("video: fps must be positive, got %d", fps)
	}
	if _, err := exec.LookPath(FFmpegBinary); err != nil {
		return nil, fmt.Errorf("video: %s not found: %w", FFmpegBinary, err)
	}
	return &FFmpegWriter{path: path, fps: fps}, nil
}

// Args returns the ffmpeg arguments for a width×height stream of the given
// channel count. Odd dimensions are padded to even, as yuv420p requires.
func Args(path string, width, height, channels, fps int) []string {
	pixFmt := "rgb24"
	if channels == 1 {
		pixFmt = "gray"
	}
	return []string{
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", pixFmt,
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", strconv.Itoa(fps),
		"-i", "-",
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		path,
	}
}

func (w *FFmpegWriter) start(r *raster.Raster) error {
	w.shape = [3]int{r.Width, r.Height, r.Channels}
	w.cmd = exec.Command(FFmpegBinary, Args(w.path, r.Width, r.Height, r.Channels, w.fps)...)
	w.cmd.Stderr = &w.stderr
	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("video: ffmpeg stdin: %w", err)
	}
	w.stdin = stdin
	if err := w.cmd.Start(); err != nil {
		return fmt.Errorf("video: start ffmpeg: %w", err)
	}
	return nil
}

// WriteFrame sends r's pixels to ffmpeg.
func (w *FFmpegWriter) WriteFrame(r *raster.Raster) error {
	if w.cmd == nil {
		if err := w.start(r); err != nil {
			return err
		}
	} else if shape := [3]int{r.Width, r.Height, r.Channels}; shape != w.shape {
		return fmt.Errorf("video: frame shape %v differs from first frame %v", shape, w.shape)
	}
	if _, err := w.stdin.Write(r.Pix); err != nil {
		return fmt.Errorf("video: write frame %d: %w: %s", w.frames, err, w.stderr.String())
	}
	w.frames++
	return nil
}

// Close flushes stdin and waits for ffmpeg to finish.
func (w *FFmpegWriter) Close() error {
	if w.cmd == nil {
		return fmt.Errorf("video: no frames written to %s", w.path)
	}
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("video: ffmpeg: %w: %s", err, w.stderr.String())
	}
	return nil
}
