package sequence

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-morpher/internal/geom"
	"image-morpher/internal/morph"
	"image-morpher/internal/raster"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newBlender(t *testing.T) *morph.Blender {
	t.Helper()
	start, err := raster.New(40, 30, 3)
	require.NoError(t, err)
	end, err := raster.New(40, 30, 3)
	require.NoError(t, err)
	for i := range start.Pix {
		start.Pix[i] = uint8(i % 200)
		end.Pix[i] = uint8(255 - i%170)
	}
	startPts := geom.PointSet{{X: 0, Y: 0}, {X: 39, Y: 0}, {X: 39, Y: 29}, {X: 0, Y: 29}, {X: 20, Y: 12}}
	endPts := geom.PointSet{{X: 0, Y: 0}, {X: 39, Y: 0}, {X: 39, Y: 29}, {X: 0, Y: 29}, {X: 17, Y: 16}}
	b, err := morph.NewBlender(start, startPts, end, endPts, morph.Options{Workers: 2, Logger: quiet})
	require.NoError(t, err)
	return b
}

func TestAlphas(t *testing.T) {
	assert.Equal(t, []float64{0, 1}, Alphas(2))
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, Alphas(5))
}

func TestGenerateForward(t *testing.T) {
	b := newBlender(t)
	seq, err := Generate(b, 5, false, Options{Workers: 3, Logger: quiet})
	require.NoError(t, err)

	assert.Equal(t, 5, seq.Len())
	assert.Equal(t, 5, seq.Forward)
	assert.False(t, seq.Reversed())
	assert.Equal(t, b.StartImage().Pix, seq.Frames[0].Pix)
	assert.Equal(t, b.EndImage().Pix, seq.Frames[4].Pix)
	assert.NotSame(t, b.StartImage(), seq.Frames[0], "endpoint frames are copies")

	mid, err := b.BlendAt(0.5)
	require.NoError(t, err)
	assert.Equal(t, mid.Pix, seq.Frames[2].Pix)
	for _, f := range seq.Frames {
		assert.True(t, f.SameShape(b.StartImage()))
	}
}

func TestGenerateReversedMirrorsForward(t *testing.T) {
	b := newBlender(t)
	const n = 4
	seq, err := Generate(b, n, true, Options{Logger: quiet})
	require.NoError(t, err)

	require.Equal(t, 2*n, seq.Len())
	assert.True(t, seq.Reversed())
	assert.Equal(t, b.StartImage().Pix, seq.Frames[0].Pix)
	assert.Equal(t, b.EndImage().Pix, seq.Frames[n-1].Pix)
	for i := 0; i < n; i++ {
		assert.Same(t, seq.Frames[i], seq.Frames[2*n-1-i])
		assert.Equal(t, seq.Alphas[i], seq.Alphas[2*n-1-i])
	}
	assert.Equal(t, 0.0, seq.Alphas[2*n-1])
}

func TestGenerateTwoFramesSkipsBlending(t *testing.T) {
	b := newBlender(t)
	seq, err := Generate(b, 2, false, Options{Logger: quiet})
	require.NoError(t, err)
	require.Equal(t, 2, seq.Len())
	assert.Equal(t, b.StartImage().Pix, seq.Frames[0].Pix)
	assert.Equal(t, b.EndImage().Pix, seq.Frames[1].Pix)
}

func TestGenerateRejectsShortSequences(t *testing.T) {
	b := newBlender(t)
	for _, n := range []int{-1, 0, 1} {
		_, err := Generate(b, n, false, Options{Logger: quiet})
		var invalid *geom.ValidationError
		require.True(t, errors.As(err, &invalid), "frame count %d", n)
		assert.Equal(t, "frame count", invalid.Input)
	}
}

func TestGenerateReportsProgress(t *testing.T) {
	b := newBlender(t)
	var mu sync.Mutex
	var seen []int
	_, err := Generate(b, 6, false, Options{
		Workers: 2,
		Logger:  quiet,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 6, total)
			seen = append(seen, done)
		},
	})
	require.NoError(t, err)
	assert.Len(t, seen, 6)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6}, seen)
}
