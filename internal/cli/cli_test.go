package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-morpher/internal/batch"
	"image-morpher/internal/geom"
	"image-morpher/internal/imageio"
	"image-morpher/internal/pointfile"
	"image-morpher/internal/raster"
)

type fixture struct {
	dir        string
	start, end string
}

// newFixture writes a 40×30 image pair with landmark files next to them.
func newFixture(t *testing.T, channels int) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{dir: dir, start: filepath.Join(dir, "a.png"), end: filepath.Join(dir, "b.png")}

	for i, path := range []string{f.start, f.end} {
		r, err := raster.New(40, 30, channels)
		require.NoError(t, err)
		for p := range r.Pix {
			r.Pix[p] = uint8((p*7 + i*100) % 256)
		}
		require.NoError(t, imageio.WriteStill(path, r, imageio.PNG, 0))
	}

	startPts := geom.PointSet{{X: 12, Y: 10}, {X: 28, Y: 9}, {X: 20, Y: 22}}
	endPts := geom.PointSet{{X: 14, Y: 11}, {X: 27, Y: 12}, {X: 18, Y: 20}}
	require.NoError(t, pointfile.Write(pointfile.DefaultPath(f.start), startPts))
	require.NoError(t, pointfile.Write(pointfile.DefaultPath(f.end), endPts))
	return f
}

func newTestRoot() (*Root, *bytes.Buffer) {
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewRoot(&out, io.Discard, log), &out
}

func TestBlendCommand(t *testing.T) {
	f := newFixture(t, 3)
	root, out := newTestRoot()
	output := filepath.Join(f.dir, "mid.png")

	err := root.Run(context.Background(), []string{"blend", f.start, f.end, "--alpha", "0.25", "--corners", "-o", output})
	require.NoError(t, err)
	assert.Contains(t, out.String(), output)

	img, err := imageio.LoadRaster(output, false)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 30, img.Height)
	assert.Equal(t, 3, img.Channels)
}

func TestBlendCommandGrayAndResize(t *testing.T) {
	f := newFixture(t, 3)
	root, _ := newTestRoot()
	output := filepath.Join(f.dir, "small.png")

	err := root.Run(context.Background(), []string{"blend", f.start, f.end, "--gray", "--width", "20", "-o", output})
	require.NoError(t, err)

	img, err := imageio.LoadRaster(output, false)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Channels)
	assert.Equal(t, 20, img.Width)
	assert.Equal(t, 15, img.Height)
}

func TestSequenceCommand(t *testing.T) {
	f := newFixture(t, 1)
	root, out := newTestRoot()
	outDir := filepath.Join(f.dir, "seq")

	err := root.Run(context.Background(), []string{
		"sequence", f.start, f.end,
		"--frames", "3", "--reversed", "--corners",
		"--still-format", "png", "--video", "gif",
		"-o", outDir,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Frames: 6 (3 forward)")

	for i := 1; i <= 6; i++ {
		_, err := os.Stat(filepath.Join(outDir, imageio.FrameName(i, imageio.PNG)))
		assert.NoError(t, err, "frame %d", i)
	}
	_, err = os.Stat(filepath.Join(outDir, "morph.gif"))
	assert.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(outDir, "manifest.json"))
	require.NoError(t, err)
	var m batch.Manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, 6, m.Frames)
	assert.Equal(t, "morph.gif", m.Video)

	// frames 1 and 6 mirror each other and equal the start image
	start, err := imageio.LoadRaster(f.start, false)
	require.NoError(t, err)
	first, err := imageio.LoadRaster(filepath.Join(outDir, "frame001.png"), false)
	require.NoError(t, err)
	last, err := imageio.LoadRaster(filepath.Join(outDir, "frame006.png"), false)
	require.NoError(t, err)
	assert.Equal(t, start.Pix, first.Pix)
	assert.Equal(t, start.Pix, last.Pix)
}

func TestSequenceCommandFromConfig(t *testing.T) {
	f := newFixture(t, 3)
	cfgPath := filepath.Join(f.dir, "morph.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"start_image": "a.png",
		"end_image": "b.png",
		"frames": 2,
		"video_format": "none",
		"output_dir": "out"
	}`), 0644))

	root, out := newTestRoot()
	require.NoError(t, root.Run(context.Background(), []string{"sequence", "--config", cfgPath}))
	assert.Contains(t, out.String(), "Frames: 2 (2 forward)")
	assert.NotContains(t, out.String(), "Video:")

	_, err := os.Stat(filepath.Join(f.dir, "out", "frame002.jpg"))
	assert.NoError(t, err)
}

func TestMeshCommand(t *testing.T) {
	f := newFixture(t, 3)
	root, out := newTestRoot()
	outDir := filepath.Join(f.dir, "mesh")

	require.NoError(t, root.Run(context.Background(), []string{"mesh", f.start, f.end, "--labels", "-o", outDir}))
	assert.Contains(t, out.String(), "Triangles: 1")
	for _, name := range []string{"start-mesh.png", "end-mesh.png"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err)
	}
}

func TestCommandErrors(t *testing.T) {
	f := newFixture(t, 3)

	t.Run("missing images", func(t *testing.T) {
		root, _ := newTestRoot()
		err := root.Run(context.Background(), []string{"blend"})
		assert.ErrorContains(t, err, "start and end images are required")
	})

	t.Run("mismatched landmarks", func(t *testing.T) {
		extra := filepath.Join(f.dir, "extra.txt")
		require.NoError(t, pointfile.Write(extra, geom.PointSet{{X: 1, Y: 1}, {X: 30, Y: 2}, {X: 5, Y: 25}, {X: 20, Y: 20}}))
		root, _ := newTestRoot()
		err := root.Run(context.Background(), []string{"blend", f.start, f.end, "--end-points", extra, "-o", filepath.Join(f.dir, "x.png")})
		var invalid *geom.ValidationError
		require.True(t, errors.As(err, &invalid), "got %v", err)
		assert.Equal(t, "end points", invalid.Input)
	})

	t.Run("alpha out of range", func(t *testing.T) {
		root, _ := newTestRoot()
		err := root.Run(context.Background(), []string{"blend", f.start, f.end, "--alpha", "2"})
		assert.ErrorContains(t, err, "alpha")
	})

	t.Run("one frame", func(t *testing.T) {
		root, _ := newTestRoot()
		err := root.Run(context.Background(), []string{"sequence", f.start, f.end, "--frames", "1", "-o", filepath.Join(f.dir, "never")})
		assert.ErrorContains(t, err, "frames")
	})

	t.Run("missing point file", func(t *testing.T) {
		root, _ := newTestRoot()
		err := root.Run(context.Background(), []string{"blend", f.start, f.end, "--start-points", filepath.Join(f.dir, "nope.txt")})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestWatchRerendersOnPointChange(t *testing.T) {
	f := newFixture(t, 1)
	root, _ := newTestRoot()
	output := filepath.Join(f.dir, "preview.png")

	renders := make(chan error, 10)
	root.onRender = func(_ string, err error) { renders <- err }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- root.Run(ctx, []string{"watch", f.start, f.end, "-o", output})
	}()

	select {
	case err := <-renders:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial render")
	}
	_, err := os.Stat(output)
	require.NoError(t, err)

	moved := geom.PointSet{{X: 10, Y: 10}, {X: 30, Y: 8}, {X: 21, Y: 25}}
	require.NoError(t, pointfile.Write(pointfile.DefaultPath(f.end), moved))

	select {
	case err := <-renders:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no render after point file change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
