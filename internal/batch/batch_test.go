package batch

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-morpher/internal/geom"
	"image-morpher/internal/imageio"
	"image-morpher/internal/morph"
	"image-morpher/internal/raster"
	"image-morpher/internal/sequence"
	"image-morpher/internal/video"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testSequence(t *testing.T, n int, reversed bool) *sequence.FrameSequence {
	t.Helper()
	start, err := raster.New(32, 24, 1)
	require.NoError(t, err)
	end, err := raster.New(32, 24, 1)
	require.NoError(t, err)
	for i := range end.Pix {
		end.Pix[i] = 200
	}
	pts := geom.PointSet{{X: 0, Y: 0}, {X: 31, Y: 0}, {X: 31, Y: 23}, {X: 0, Y: 23}}
	b, err := morph.NewBlender(start, pts, end, pts, morph.Options{Logger: quiet})
	require.NoError(t, err)
	seq, err := sequence.Generate(b, n, reversed, sequence.Options{Logger: quiet})
	require.NoError(t, err)
	return seq
}

func TestRunWritesNumberedStills(t *testing.T) {
	dir := t.TempDir()
	seq := testSequence(t, 3, true)
	cfg := Config{OutputDir: dir, StillFormat: imageio.PNG, Workers: 3, Logger: quiet}

	results := Run(cfg, seq, Prepare(cfg, seq))
	require.Len(t, results, 6)
	assert.Empty(t, Failed(results))

	for i, r := range results {
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, imageio.FrameName(i+1, imageio.PNG), r.File)
		assert.Equal(t, i >= 3, r.Mirrored)
		_, err := os.Stat(filepath.Join(dir, r.File))
		assert.NoError(t, err)
	}

	// frame i and frame 2N-i+1 hold the same picture
	first, err := imageio.LoadRaster(filepath.Join(dir, "frame001.png"), false)
	require.NoError(t, err)
	last, err := imageio.LoadRaster(filepath.Join(dir, "frame006.png"), false)
	require.NoError(t, err)
	assert.Equal(t, first.Pix, last.Pix)
	mid, err := imageio.LoadRaster(filepath.Join(dir, "frame003.png"), false)
	require.NoError(t, err)
	assert.Equal(t, uint8(200), mid.Pix[0])
}

func TestRunResizes(t *testing.T) {
	dir := t.TempDir()
	seq := testSequence(t, 2, false)
	cfg := Config{OutputDir: dir, StillFormat: imageio.JPEG, Width: 16, Workers: 1, Logger: quiet}

	results := Run(cfg, seq, Prepare(cfg, seq))
	require.Empty(t, Failed(results))

	img, err := imageio.LoadRaster(filepath.Join(dir, "frame001.jpg"), false)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Width)
	assert.Equal(t, 12, img.Height)
}

func TestRunRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	seq := testSequence(t, 2, false)
	cfg := Config{OutputDir: filepath.Join(blocker, "out"), StillFormat: imageio.PNG, Workers: 2, Logger: quiet}
	results := Run(cfg, seq, seq.Frames)
	failed := Failed(results)
	require.Len(t, failed, 2)
	assert.NotEmpty(t, failed[0].Error)
}

func TestWriteVideoAndManifest(t *testing.T) {
	dir := t.TempDir()
	seq := testSequence(t, 4, true)
	cfg := Config{
		OutputDir:   dir,
		StillFormat: imageio.PNG,
		Workers:     2,
		VideoPath:   filepath.Join(dir, "morph.gif"),
		VideoFormat: video.GIF,
		FPS:         5,
		Logger:      quiet,
	}
	frames := Prepare(cfg, seq)
	results := Run(cfg, seq, frames)
	require.NoError(t, WriteVideo(cfg, frames))
	_, err := os.Stat(cfg.VideoPath)
	require.NoError(t, err)

	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, WriteManifest(path, NewManifest(results, seq.Forward, cfg.FPS, "morph.gif")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, 8, m.Frames)
	assert.Equal(t, 4, m.Forward)
	assert.True(t, m.Reversed)
	assert.Equal(t, 5, m.FPS)
	assert.Equal(t, "morph.gif", m.Video)
	require.Len(t, m.Entries, 8)
	assert.Equal(t, "frame008.png", m.Entries[7].Image)
	assert.Equal(t, 0.0, m.Entries[7].Alpha)
	assert.True(t, m.Entries[7].Mirrored)
}

func TestWriteVideoDisabled(t *testing.T) {
	assert.NoError(t, WriteVideo(Config{}, nil))
}
