// Package config handles renderer and demo configuration loading.
package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Config holds all settings for the demo and atlas tools.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Renderer RendererConfig `yaml:"renderer"`
	Font     FontConfig     `yaml:"font"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds window and display settings.
type GraphicsConfig struct {
	Width      int         `yaml:"width"`
	Height     int         `yaml:"height"`
	Scale      float32     `yaml:"scale"` // 0 asks the window for its drawable ratio
	Fullscreen bool        `yaml:"fullscreen"`
	VSync      bool        `yaml:"vsync"`
	ClearColor ColorConfig `yaml:"clear_color"`
}

// ColorConfig is a straight-alpha RGBA color in [0,1].
type ColorConfig struct {
	R float32 `yaml:"r"`
	G float32 `yaml:"g"`
	B float32 `yaml:"b"`
	A float32 `yaml:"a"`
}

// RendererConfig holds batch and atlas limits.
type RendererConfig struct {
	MaxVertices    int     `yaml:"max_vertices"`
	MaxIndices     int     `yaml:"max_indices"`
	IndexFormat    string  `yaml:"index_format"` // uint32 or uint16
	AtlasSize      int     `yaml:"atlas_size"`
	AtlasFull      string  `yaml:"atlas_full"` // skip or error
	StrokeWidth    float32 `yaml:"stroke_width"`
	CurveTolerance float32 `yaml:"curve_tolerance"`
}

// FontConfig selects the text font. An empty path uses the embedded font.
type FontConfig struct {
	Path    string  `yaml:"path"`
	Hinting string  `yaml:"hinting"` // none or full
	Size    float32 `yaml:"size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Scale:      0,
			Fullscreen: false,
			VSync:      true,
			ClearColor: ColorConfig{R: 0.1, G: 0.1, B: 0.12, A: 1},
		},
		Renderer: RendererConfig{
			MaxVertices:    100000,
			MaxIndices:     100000,
			IndexFormat:    "uint32",
			AtlasSize:      1024,
			AtlasFull:      "skip",
			StrokeWidth:    1,
			CurveTolerance: 0.25,
		},
		Font: FontConfig{
			Path:    "",
			Hinting: "none",
			Size:    16,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	var err error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("graphics: size %dx%d must be positive", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.Scale < 0 {
		err = multierr.Append(err, fmt.Errorf("graphics: scale %g must not be negative", c.Graphics.Scale))
	}
	if c.Renderer.MaxVertices <= 0 || c.Renderer.MaxIndices <= 0 {
		err = multierr.Append(err, errors.New("renderer: max_vertices and max_indices must be positive"))
	}
	switch c.Renderer.IndexFormat {
	case "uint32", "uint16":
	default:
		err = multierr.Append(err, fmt.Errorf("renderer: unknown index_format %q", c.Renderer.IndexFormat))
	}
	if c.Renderer.AtlasSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("renderer: atlas_size %d must be positive", c.Renderer.AtlasSize))
	}
	switch c.Renderer.AtlasFull {
	case "skip", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("renderer: unknown atlas_full policy %q", c.Renderer.AtlasFull))
	}
	if c.Renderer.StrokeWidth <= 0 {
		err = multierr.Append(err, fmt.Errorf("renderer: stroke_width %g must be positive", c.Renderer.StrokeWidth))
	}
	if c.Renderer.CurveTolerance <= 0 {
		err = multierr.Append(err, fmt.Errorf("renderer: curve_tolerance %g must be positive", c.Renderer.CurveTolerance))
	}
	switch c.Font.Hinting {
	case "none", "full":
	default:
		err = multierr.Append(err, fmt.Errorf("font: unknown hinting %q", c.Font.Hinting))
	}
	if c.Font.Size <= 0 {
		err = multierr.Append(err, fmt.Errorf("font: size %g must be positive", c.Font.Size))
	}
	return err
}
