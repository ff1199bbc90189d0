package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"image-morpher/internal/config"
	"image-morpher/internal/geom"
	"image-morpher/internal/imageio"
	"image-morpher/internal/logging"
	"image-morpher/internal/morph"
	"image-morpher/internal/pointfile"
	"image-morpher/internal/raster"
)

// Root carries state shared by all subcommands.
type Root struct {
	out    io.Writer
	errOut io.Writer
	log    *slog.Logger

	// global flags
	configFile string
	flags      config.Flags
	alpha      float64

	// onRender, if set, observes each watch re-render. Tests use it.
	onRender func(path string, err error)
}

// NewRoot creates a Root writing command output to out and logs and
// progress to errOut. A nil logger is built from the log flags.
func NewRoot(out, errOut io.Writer, log *slog.Logger) *Root {
	return &Root{out: out, errOut: errOut, log: log}
}

// Run executes the CLI with args (without the program name).
func (r *Root) Run(ctx context.Context, args []string) error {
	cmd := NewRootCmd(r)
	cmd.SetArgs(args)
	cmd.SetOut(r.out)
	cmd.SetErr(r.errOut)
	return cmd.ExecuteContext(ctx)
}

// Execute runs the CLI against the process's stdio.
func Execute(ctx context.Context, args []string) error {
	return NewRoot(os.Stdout, os.Stderr, nil).Run(ctx, args)
}

// resolve builds the effective config from the config file, positional
// image arguments and flags.
func (r *Root) resolve(args []string, alphaSet bool) (*config.Config, error) {
	var cfg config.Config
	if r.configFile != "" {
		var err error
		if cfg, err = config.Load(r.configFile); err != nil {
			return nil, err
		}
	}

	flags := r.flags
	if len(args) > 0 {
		flags.StartImage = args[0]
	}
	if len(args) > 1 {
		flags.EndImage = args[1]
	}
	if alphaSet {
		a := r.alpha
		flags.Alpha = &a
	}
	cfg.Resolve(flags)

	if r.log == nil {
		r.log = logging.NewWriter(r.errOut, cfg.LogLevel, cfg.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// inputs holds the loaded images and landmarks for one morph.
type inputs struct {
	start, end       *raster.Raster
	startPts, endPts geom.PointSet
}

func loadInputs(cfg *config.Config, cache *imageio.Cache) (*inputs, error) {
	var in inputs
	var err error
	if cache != nil {
		if in.start, err = cache.Load(cfg.StartImage, cfg.Gray); err != nil {
			return nil, err
		}
		if in.end, err = cache.Load(cfg.EndImage, cfg.Gray); err != nil {
			return nil, err
		}
		if in.start.Channels != in.end.Channels {
			in.start, in.end = raster.ToRGB(in.start), raster.ToRGB(in.end)
		}
	} else if in.start, in.end, err = imageio.LoadPair(cfg.StartImage, cfg.EndImage, cfg.Gray); err != nil {
		return nil, err
	}

	if in.startPts, err = pointfile.Load(cfg.StartPoints); err != nil {
		return nil, fmt.Errorf("start points: %w", err)
	}
	if in.endPts, err = pointfile.Load(cfg.EndPoints); err != nil {
		return nil, fmt.Errorf("end points: %w", err)
	}
	if cfg.Corners {
		in.startPts = pointfile.WithCorners(in.startPts, in.start.Width, in.start.Height)
		in.endPts = pointfile.WithCorners(in.endPts, in.end.Width, in.end.Height)
	}
	return &in, nil
}

func (r *Root) newBlender(cfg *config.Config, in *inputs) (*morph.Blender, error) {
	return morph.NewBlender(in.start, in.startPts, in.end, in.endPts, morph.Options{
		Workers:           cfg.Workers,
		StrictOrientation: cfg.Strict,
		Logger:            r.log,
	})
}
