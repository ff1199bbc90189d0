package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"image-morpher/internal/imageio"
	"image-morpher/internal/pointfile"
	"image-morpher/internal/video"
)

// Config holds input paths and morph settings.
type Config struct {
	// Paths. Relative paths resolve against BaseDir.
	BaseDir     string `json:"base_dir"`
	StartImage  string `json:"start_image"`
	EndImage    string `json:"end_image"`
	StartPoints string `json:"start_points"`
	EndPoints   string `json:"end_points"`
	OutputDir   string `json:"output_dir"`

	// Sequence settings
	Frames      int      `json:"frames"`
	Reversed    bool     `json:"reversed"`
	Alpha       *float64 `json:"alpha"`
	Corners     bool     `json:"corners"`
	Gray        bool     `json:"gray"`
	Strict      bool     `json:"strict_orientation"`
	Width       int      `json:"width"`
	StillFormat string   `json:"still_format"`
	JPEGQuality int      `json:"jpeg_quality"`
	NoStills    bool     `json:"no_stills"`
	VideoFormat string   `json:"video_format"`
	VideoName   string   `json:"video_name"`
	FPS         int      `json:"fps"`
	Workers     int      `json:"workers"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values. BaseDir defaults to
// the file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(path)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Zero values leave the config untouched.
type Flags struct {
	StartImage  string
	EndImage    string
	StartPoints string
	EndPoints   string
	OutputDir   string
	Frames      int
	Reversed    bool
	Alpha       *float64
	Corners     bool
	Gray        bool
	Strict      bool
	Width       int
	StillFormat string
	Quality     int
	NoStills    bool
	VideoFormat string
	FPS         int
	Workers     int
	LogLevel    string
	LogFormat   string
}

// Resolve applies flags over the file settings, then fills defaults.
// Flag paths are taken as given; file paths resolve against BaseDir.
func (c *Config) Resolve(flags Flags) {
	c.StartImage = c.path(c.StartImage)
	c.EndImage = c.path(c.EndImage)
	c.StartPoints = c.path(c.StartPoints)
	c.EndPoints = c.path(c.EndPoints)
	c.OutputDir = c.path(c.OutputDir)

	// CLI flags override config file
	override(&c.StartImage, flags.StartImage)
	override(&c.EndImage, flags.EndImage)
	override(&c.StartPoints, flags.StartPoints)
	override(&c.EndPoints, flags.EndPoints)
	override(&c.OutputDir, flags.OutputDir)
	override(&c.StillFormat, flags.StillFormat)
	override(&c.VideoFormat, flags.VideoFormat)
	override(&c.LogLevel, flags.LogLevel)
	override(&c.LogFormat, flags.LogFormat)
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Quality > 0 {
		c.JPEGQuality = flags.Quality
	}
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Alpha != nil {
		a := *flags.Alpha
		c.Alpha = &a
	}
	c.Reversed = c.Reversed || flags.Reversed
	c.Corners = c.Corners || flags.Corners
	c.Gray = c.Gray || flags.Gray
	c.Strict = c.Strict || flags.Strict
	c.NoStills = c.NoStills || flags.NoStills

	// Point files sit next to their images unless given
	if c.StartPoints == "" && c.StartImage != "" {
		c.StartPoints = pointfile.DefaultPath(c.StartImage)
	}
	if c.EndPoints == "" && c.EndImage != "" {
		c.EndPoints = pointfile.DefaultPath(c.EndImage)
	}

	// Defaults
	if c.OutputDir == "" {
		c.OutputDir = "morph-out"
	}
	if c.Frames <= 0 {
		c.Frames = 20
	}
	if c.FPS <= 0 {
		c.FPS = video.DefaultFPS
	}
	if c.StillFormat == "" {
		c.StillFormat = string(imageio.JPEG)
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = imageio.DefaultJPEGQuality
	}
	if c.VideoFormat == "" {
		c.VideoFormat = string(video.GIF)
	}
	if c.VideoName == "" {
		c.VideoName = "morph"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Alpha == nil {
		a := 0.5
		c.Alpha = &a
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// Validate checks a resolved config.
func (c *Config) Validate() error {
	if c.StartImage == "" || c.EndImage == "" {
		return fmt.Errorf("config: start and end images are required")
	}
	if c.Frames < 2 {
		return fmt.Errorf("config: frames must be at least 2, got %d", c.Frames)
	}
	if a := c.BlendAlpha(); a < 0 || a > 1 {
		return fmt.Errorf("config: alpha %v is outside [0, 1]", a)
	}
	if c.JPEGQuality > 100 {
		return fmt.Errorf("config: jpeg quality %d is above 100", c.JPEGQuality)
	}
	if _, err := imageio.ParseFormat(c.StillFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.VideoFormat != "none" {
		if _, err := video.ParseFormat(c.VideoFormat); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// BlendAlpha returns the configured single-blend alpha, 0.5 when unset.
func (c *Config) BlendAlpha() float64 {
	if c.Alpha == nil {
		return 0.5
	}
	return *c.Alpha
}

// VideoPath returns the output video path, or "" when video is disabled.
func (c *Config) VideoPath() string {
	if c.VideoFormat == "none" {
		return ""
	}
	f, err := video.ParseFormat(c.VideoFormat)
	if err != nil {
		return ""
	}
	return filepath.Join(c.OutputDir, c.VideoName+"."+string(f))
}

func (c *Config) path(p string) string {
	if p == "" || c.BaseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
