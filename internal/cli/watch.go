package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"image-morpher/internal/config"
	"image-morpher/internal/imageio"
	"image-morpher/internal/postprocess"
)

// watchDebounce coalesces the burst of events editors produce on save.
const watchDebounce = 150 * time.Millisecond

// renderBlend loads the inputs, blends at the configured alpha and writes
// the result to output. cache may be nil.
func (r *Root) renderBlend(cfg *config.Config, cache *imageio.Cache, output string) (string, error) {
	format, err := imageio.FormatFromPath(output)
	if err != nil {
		return "", err
	}
	in, err := loadInputs(cfg, cache)
	if err != nil {
		return "", err
	}
	b, err := r.newBlender(cfg, in)
	if err != nil {
		return "", err
	}
	img, err := b.BlendAt(cfg.BlendAlpha())
	if err != nil {
		return "", err
	}
	img = postprocess.Resize(img, cfg.Width)
	if err := imageio.WriteStill(output, img, format, cfg.JPEGQuality); err != nil {
		return "", err
	}
	return output, nil
}

// watch renders once, then again each time one of the input files changes,
// until ctx is done. Render failures are logged and do not stop the loop.
func (r *Root) watch(ctx context.Context, cfg *config.Config, output string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	inputs := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range []string{cfg.StartImage, cfg.EndImage, cfg.StartPoints, cfg.EndPoints} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		inputs[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Editors often replace files by rename, so watch directories, not files.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
		r.log.Info("watching directory", "dir", dir)
	}

	cache := imageio.NewCache()
	render := func() {
		start := time.Now()
		path, err := r.renderBlend(cfg, cache, output)
		if err != nil {
			r.log.Error("preview failed", "error", err)
		} else {
			r.log.Info("preview written", "path", path, "elapsed", time.Since(start).Round(time.Millisecond))
		}
		if r.onRender != nil {
			r.onRender(output, err)
		}
	}
	render()

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !inputs[abs] {
				continue
			}
			r.log.Debug("input changed", "path", event.Name, "op", event.Op.String())
			debounce.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watcher error", "error", err)

		case <-debounce.C:
			render()
		}
	}
}
