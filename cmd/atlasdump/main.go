// Command atlasdump renders the demo scene and sample text through the
// headless device and writes the resulting glyph atlas to a PNG.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/batch2d/internal/config"
	"github.com/Faultbox/batch2d/internal/demo/scene"
	"github.com/Faultbox/batch2d/internal/engine/debug"
	"github.com/Faultbox/batch2d/internal/engine/device"
	"github.com/Faultbox/batch2d/internal/engine/geom"
	"github.com/Faultbox/batch2d/internal/engine/glyph"
	"github.com/Faultbox/batch2d/internal/engine/renderer"
	"github.com/Faultbox/batch2d/internal/logger"
)

var (
	flagOut   = flag.String("out", "atlas.png", "Output PNG path")
	flagText  = flag.String("text", "The quick brown fox jumps over the lazy dog 0123456789", "Sample text")
	flagSizes = flag.String("sizes", "12,16,24,32", "Comma separated text sizes in logical pixels")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("atlasdump failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	sizes, err := parseSizes(*flagSizes)
	if err != nil {
		return err
	}

	hinting, err := glyph.ParseHinting(cfg.Font.Hinting)
	if err != nil {
		return err
	}
	var font *glyph.Font
	if cfg.Font.Path != "" {
		font, err = glyph.LoadFontFile(cfg.Font.Path, hinting)
	} else {
		font, err = glyph.DefaultFont(hinting)
	}
	if err != nil {
		return err
	}

	scale := cfg.Graphics.Scale
	if scale <= 0 {
		scale = 1
	}
	dw := int(float32(cfg.Graphics.Width) * scale)
	dh := int(float32(cfg.Graphics.Height) * scale)
	rcfg, err := renderer.ConfigFrom(cfg, dw, dh, scale)
	if err != nil {
		_ = font.Close()
		return err
	}

	mem := device.NewMemory()
	r, err := renderer.New(mem, font, rcfg)
	if err != nil {
		_ = font.Close()
		return err
	}
	defer r.Close()

	// Draw failures are reported but the atlas is still written.
	drawErr := scene.Draw(r, scene.State{})
	y := float32(0)
	for _, size := range sizes {
		drawErr = multierr.Append(drawErr,
			r.DrawText(*flagText, size, 0, y, renderer.TextBounds{}, geom.ColorWhite))
		y += size * 1.5
	}
	if drawErr != nil {
		logger.Warn("some geometry was dropped", zap.Error(drawErr))
	}

	if err := r.Commit(); err != nil {
		return err
	}
	if err := r.Render(device.DefaultTarget); err != nil {
		return err
	}

	pixels, w, h, ok := mem.TexturePixels(r.Atlas())
	if !ok {
		return fmt.Errorf("atlas texture missing")
	}
	if err := debug.WritePNG(*flagOut, pixels, w, h, false); err != nil {
		return err
	}

	st := r.Stats()
	logger.Info("atlas written",
		zap.String("path", *flagOut),
		zap.Int("size", w),
		zap.Float64("utilization", st.AtlasUtilization),
		zap.Int("glyphs", st.CachedGlyphs),
		zap.Int("dropped", st.DroppedGlyphs),
		zap.Int("indices", st.CommittedIndices),
		zap.Int("texture_writes", mem.TextureWrites),
	)
	return nil
}

func parseSizes(s string) ([]float32, error) {
	var sizes []float32
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 32)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid text size %q", part)
		}
		sizes = append(sizes, float32(v))
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no text sizes given")
	}
	return sizes, nil
}
