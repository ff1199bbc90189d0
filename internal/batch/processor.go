package batch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"image-morpher/internal/imageio"
	"image-morpher/internal/postprocess"
	"image-morpher/internal/raster"
	"image-morpher/internal/sequence"
	"image-morpher/internal/video"
)

// Config holds the output settings for a batch run.
type Config struct {
	OutputDir   string
	StillFormat imageio.Format
	Quality     int
	Width       int // output width; zero keeps the source size
	Workers     int
	VideoPath   string // empty disables video
	VideoFormat video.Format
	FPS         int
	Logger      *slog.Logger
}

// Result holds the outcome of writing one still.
type Result struct {
	Index    int // 1-based, as used in the file name
	Alpha    float64
	File     string
	Mirrored bool
	Success  bool
	Error    string
}

// Prepare resizes the sequence frames to cfg.Width, sharing work between
// mirrored frames.
func Prepare(cfg Config, seq *sequence.FrameSequence) []*raster.Raster {
	if cfg.Width <= 0 {
		return seq.Frames
	}
	return postprocess.ResizeAll(seq.Frames, cfg.Width)
}

// Run writes every frame of seq as a numbered still using a worker pool.
// Frame i (0-based) is written as FrameName(i+1), so in reversed mode the
// forward frame i also appears as 2N-i.
func Run(cfg Config, seq *sequence.FrameSequence, frames []*raster.Raster) []Result {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	total := len(frames)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					log.Info("writing stills",
						"done", p,
						"total", total,
						"rate", fmt.Sprintf("%.1f frames/sec", float64(p)/elapsed),
					)
				}
			}
		}
	}()

	// Worker pool
	frameChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range frameChan {
				results[idx] = writeFrame(cfg, seq, frames, idx)
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range frames {
		frameChan <- i
	}
	close(frameChan)

	wg.Wait()
	close(done)

	log.Info("stills written", "frames", total, "dir", cfg.OutputDir, "elapsed", time.Since(start).Round(time.Millisecond))
	return results
}

func writeFrame(cfg Config, seq *sequence.FrameSequence, frames []*raster.Raster, idx int) Result {
	name := imageio.FrameName(idx+1, cfg.StillFormat)
	res := Result{
		Index:    idx + 1,
		Alpha:    seq.Alphas[idx],
		File:     name,
		Mirrored: idx >= seq.Forward,
	}

	path := filepath.Join(cfg.OutputDir, name)
	if err := imageio.WriteStill(path, frames[idx], cfg.StillFormat, cfg.Quality); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

// WriteVideo encodes frames in order to cfg.VideoPath.
func WriteVideo(cfg Config, frames []*raster.Raster) error {
	if cfg.VideoPath == "" {
		return nil
	}
	w, err := video.New(cfg.VideoPath, cfg.VideoFormat, cfg.FPS)
	if err != nil {
		return err
	}
	return video.WriteAll(w, frames)
}

// Failed returns the unsuccessful results.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}
