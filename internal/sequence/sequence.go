// Package sequence renders a morph as an ordered list of frames.
package sequence

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"image-morpher/internal/geom"
	"image-morpher/internal/morph"
	"image-morpher/internal/raster"
)

// FrameSequence is the ordered output of Generate.
//
// In reversed mode the tail holds the same *raster.Raster values as the
// forward part in reverse order, so Frames[Forward+i] == Frames[Forward-1-i].
type FrameSequence struct {
	Frames  []*raster.Raster
	Alphas  []float64
	Forward int
}

// Len returns the total frame count, including a reversed tail.
func (s *FrameSequence) Len() int { return len(s.Frames) }

// Reversed reports whether the sequence carries a mirrored tail.
func (s *FrameSequence) Reversed() bool { return len(s.Frames) > s.Forward }

// Options tune Generate. The zero value is usable.
type Options struct {
	// Workers bounds how many frames render at once.
	// Zero or negative means runtime.NumCPU().
	Workers int
	Logger  *slog.Logger
	// Progress, if set, is called after each rendered frame with the number
	// of frames finished so far. It may be called from several goroutines.
	Progress func(done, total int)
}

// Alphas returns frameCount evenly spaced values over [0, 1], inclusive at
// both ends.
func Alphas(frameCount int) []float64 {
	switch {
	case frameCount <= 0:
		return nil
	case frameCount == 1:
		return []float64{0}
	}
	alphas := make([]float64, frameCount)
	last := float64(frameCount - 1)
	for i := range alphas {
		alphas[i] = float64(i) / last
	}
	alphas[frameCount-1] = 1
	return alphas
}

// Generate renders frameCount frames at alpha i/(frameCount-1). The first
// and last frames are copies of the blender's start and end images and
// bypass blending. With includeReversed the forward frames are followed by
// the same frames in reverse, for 2*frameCount in total.
func Generate(b *morph.Blender, frameCount int, includeReversed bool, opts Options) (*FrameSequence, error) {
	if frameCount < 2 {
		return nil, &geom.ValidationError{
			Input:  "frame count",
			Reason: fmt.Sprintf("need at least 2 frames, got %d", frameCount),
		}
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	alphas := Alphas(frameCount)
	frames := make([]*raster.Raster, frameCount)
	frames[0] = b.StartImage().Clone()
	frames[frameCount-1] = b.EndImage().Clone()

	var finished atomic.Int64
	report := func() {
		n := int(finished.Add(1))
		if opts.Progress != nil {
			opts.Progress(n, frameCount)
		}
	}
	report()
	report()

	start := time.Now()
	log.Info("generating frames", "frames", frameCount, "reversed", includeReversed, "workers", workers)

	errs := make([]error, frameCount)
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				frames[i], errs[i] = b.BlendAt(alphas[i])
				report()
			}
		}()
	}
	for i := 1; i < frameCount-1; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("frame %d (alpha %g): %w", i, alphas[i], err)
		}
	}

	seq := &FrameSequence{Frames: frames, Alphas: alphas, Forward: frameCount}
	if includeReversed {
		seq.Frames = make([]*raster.Raster, 0, 2*frameCount)
		seq.Alphas = make([]float64, 0, 2*frameCount)
		seq.Frames = append(seq.Frames, frames...)
		seq.Alphas = append(seq.Alphas, alphas...)
		for i := frameCount - 1; i >= 0; i-- {
			seq.Frames = append(seq.Frames, frames[i])
			seq.Alphas = append(seq.Alphas, alphas[i])
		}
	}

	log.Info("frames generated",
		"frames", seq.Len(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return seq, nil
}
