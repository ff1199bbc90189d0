package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"image-morpher/internal/batch"
	"image-morpher/internal/config"
	"image-morpher/internal/geom"
	"image-morpher/internal/imageio"
	"image-morpher/internal/logging"
	"image-morpher/internal/postprocess"
	"image-morpher/internal/raster"
	"image-morpher/internal/sequence"
	"image-morpher/internal/video"
)

// NewRootCmd creates the root Cobra command.
func NewRootCmd(root *Root) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "morph",
		Short: "Feature-based image morphing",
		Long: `morph warps and cross-dissolves one image into another along matching
landmark points. Landmarks are read from text files holding one "x y" pair
per line, by default <image>.txt next to each image.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&root.configFile, "config", "", "path to a JSON config file")
	pf.StringVar(&root.flags.StartPoints, "start-points", "", "start landmark file (default <start image>.txt)")
	pf.StringVar(&root.flags.EndPoints, "end-points", "", "end landmark file (default <end image>.txt)")
	pf.BoolVar(&root.flags.Corners, "corners", false, "add the four image corners as landmarks")
	pf.BoolVar(&root.flags.Gray, "gray", false, "morph in grayscale")
	pf.BoolVar(&root.flags.Strict, "strict", false, "fail instead of warning when triangles fold over")
	pf.IntVar(&root.flags.Workers, "workers", 0, "worker goroutines (default: NumCPU)")
	pf.StringVar(&root.flags.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	pf.StringVar(&root.flags.LogFormat, "log-format", "", "log format (text|json)")

	rootCmd.AddCommand(newBlendCmd(root))
	rootCmd.AddCommand(newSequenceCmd(root))
	rootCmd.AddCommand(newMeshCmd(root))
	rootCmd.AddCommand(newWatchCmd(root))

	return rootCmd
}

func newBlendCmd(root *Root) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "blend [start_image] [end_image]",
		Short: "Write a single morph frame at --alpha",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve(args, cmd.Flags().Changed("alpha"))
			if err != nil {
				return err
			}
			if output == "" {
				output = filepath.Join(cfg.OutputDir, "blend."+imageio.JPEG.Ext())
			}
			start := time.Now()
			path, err := root.renderBlend(cfg, nil, output)
			if err != nil {
				logging.LogJobError(root.log, "blend", time.Since(start), err)
				return err
			}
			logging.LogJobComplete(root.log, "blend", time.Since(start), map[string]any{"alpha": cfg.BlendAlpha()})
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&root.alpha, "alpha", "a", 0.5, "blend position in [0, 1]")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output image (format from extension)")
	cmd.Flags().IntVar(&root.flags.Width, "width", 0, "resize the output to this width")
	cmd.Flags().IntVarP(&root.flags.Quality, "quality", "q", 0, "JPEG quality 1-100 (default: 90)")
	return cmd
}

func newSequenceCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence [start_image] [end_image]",
		Short: "Write numbered stills and a video of the full morph",
		Long: `Render --frames frames at evenly spaced alphas from 0 to 1. The first and
last frames are the input images. With --reversed the sequence plays back
to the start image, doubling the frame count.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve(args, false)
			if err != nil {
				return err
			}
			return root.runSequence(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&root.flags.Frames, "frames", "n", 0, "number of forward frames, at least 2 (default: 20)")
	f.BoolVarP(&root.flags.Reversed, "reversed", "r", false, "append the frames in reverse order")
	f.StringVarP(&root.flags.OutputDir, "output", "o", "", "output directory (default: morph-out)")
	f.StringVar(&root.flags.StillFormat, "still-format", "", "still format (jpeg|png|webp)")
	f.IntVarP(&root.flags.Quality, "quality", "q", 0, "JPEG quality 1-100 (default: 90)")
	f.BoolVar(&root.flags.NoStills, "no-stills", false, "skip writing still frames")
	f.StringVar(&root.flags.VideoFormat, "video", "", "video format (gif|mp4|none)")
	f.IntVar(&root.flags.FPS, "fps", 0, "video frame rate (default: 5)")
	f.IntVar(&root.flags.Width, "width", 0, "resize frames to this width")
	return cmd
}

func (r *Root) runSequence(cmd *cobra.Command, cfg *config.Config) error {
	start := time.Now()
	logging.LogJobStart(r.log, "sequence", cfg.StartImage, cfg.EndImage, cfg.OutputDir, map[string]any{
		"frames":   cfg.Frames,
		"reversed": cfg.Reversed,
		"video":    cfg.VideoFormat,
	})
	fail := func(err error) error {
		logging.LogJobError(r.log, "sequence", time.Since(start), err)
		return err
	}

	in, err := loadInputs(cfg, nil)
	if err != nil {
		return fail(err)
	}
	b, err := r.newBlender(cfg, in)
	if err != nil {
		return fail(err)
	}

	spin := newSpinner(r.errOut)
	spin.start("rendering frames")
	seq, err := sequence.Generate(b, cfg.Frames, cfg.Reversed, sequence.Options{
		Workers:  cfg.Workers,
		Logger:   r.log,
		Progress: spin.update,
	})
	spin.stop()
	if err != nil {
		return fail(err)
	}

	stillFormat, _ := imageio.ParseFormat(cfg.StillFormat)
	bc := batch.Config{
		OutputDir:   cfg.OutputDir,
		StillFormat: stillFormat,
		Quality:     cfg.JPEGQuality,
		Width:       cfg.Width,
		Workers:     cfg.Workers,
		VideoPath:   cfg.VideoPath(),
		FPS:         cfg.FPS,
		Logger:      r.log,
	}
	if bc.VideoPath != "" {
		bc.VideoFormat, _ = video.ParseFormat(cfg.VideoFormat)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fail(fmt.Errorf("create output dir: %w", err))
	}

	frames := batch.Prepare(bc, seq)
	var results []batch.Result
	if !cfg.NoStills {
		results = batch.Run(bc, seq, frames)
	}
	if err := batch.WriteVideo(bc, frames); err != nil {
		return fail(err)
	}

	videoFile := ""
	if bc.VideoPath != "" {
		videoFile = filepath.Base(bc.VideoPath)
	}
	if !cfg.NoStills {
		manifest := batch.NewManifest(results, seq.Forward, cfg.FPS, videoFile)
		if err := batch.WriteManifest(filepath.Join(cfg.OutputDir, "manifest.json"), manifest); err != nil {
			return fail(fmt.Errorf("write manifest: %w", err))
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Frames: %d (%d forward)\n", seq.Len(), seq.Forward)
	if !cfg.NoStills {
		fmt.Fprintf(out, "Stills: %s\n", cfg.OutputDir)
	}
	if videoFile != "" {
		fmt.Fprintf(out, "Video:  %s\n", bc.VideoPath)
	}

	if failed := batch.Failed(results); len(failed) > 0 {
		limit := 20
		if len(failed) < limit {
			limit = len(failed)
		}
		fmt.Fprintf(out, "\nFailed (%d):\n", len(failed))
		for _, f := range failed[:limit] {
			fmt.Fprintf(out, "  %s: %s\n", f.File, f.Error)
		}
		return fail(fmt.Errorf("%d of %d stills failed", len(failed), len(results)))
	}

	logging.LogJobComplete(r.log, "sequence", time.Since(start), map[string]any{"frames": seq.Len()})
	return nil
}

func newMeshCmd(root *Root) *cobra.Command {
	var labels bool

	cmd := &cobra.Command{
		Use:   "mesh [start_image] [end_image]",
		Short: "Draw the shared triangulation over both images",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve(args, false)
			if err != nil {
				return err
			}
			in, err := loadInputs(cfg, nil)
			if err != nil {
				return err
			}
			b, err := root.newBlender(cfg, in)
			if err != nil {
				return err
			}

			style := postprocess.DefaultMeshStyle()
			style.Labels = labels
			if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
				return err
			}
			for _, side := range []struct {
				name string
				img  *raster.Raster
				pts  geom.PointSet
			}{
				{"start", in.start, in.startPts},
				{"end", in.end, in.endPts},
			} {
				img, err := postprocess.DrawMesh(side.img, side.pts, b.Triangles(), style)
				if err != nil {
					return err
				}
				path := filepath.Join(cfg.OutputDir, side.name+"-mesh.png")
				if err := imageio.WriteStill(path, raster.FromImage(img), imageio.PNG, 0); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Triangles: %d\n", len(b.Triangles()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&root.flags.OutputDir, "output", "o", "", "output directory (default: morph-out)")
	cmd.Flags().BoolVar(&labels, "labels", false, "number each landmark")
	return cmd
}

func newWatchCmd(root *Root) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "watch [start_image] [end_image]",
		Short: "Re-render a preview blend whenever the inputs change",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve(args, cmd.Flags().Changed("alpha"))
			if err != nil {
				return err
			}
			if output == "" {
				output = filepath.Join(cfg.OutputDir, "preview.png")
			}
			return root.watch(cmd.Context(), cfg, output)
		},
	}

	cmd.Flags().Float64VarP(&root.alpha, "alpha", "a", 0.5, "blend position in [0, 1]")
	cmd.Flags().StringVarP(&output, "output", "o", "", "preview image (default: <output dir>/preview.png)")
	return cmd
}
