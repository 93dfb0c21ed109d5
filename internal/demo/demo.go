// Package demo implements the interactive frame loop around the renderer.
package demo

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/batch2d/internal/config"
	"github.com/Faultbox/batch2d/internal/demo/scene"
	"github.com/Faultbox/batch2d/internal/engine/debug"
	"github.com/Faultbox/batch2d/internal/engine/device"
	"github.com/Faultbox/batch2d/internal/engine/gldevice"
	"github.com/Faultbox/batch2d/internal/engine/glyph"
	"github.com/Faultbox/batch2d/internal/engine/input"
	"github.com/Faultbox/batch2d/internal/engine/renderer"
	"github.com/Faultbox/batch2d/internal/engine/window"
	"github.com/Faultbox/batch2d/internal/logger"
	"github.com/Faultbox/batch2d/internal/ui"
)

// Demo owns the window, the GL device and the renderer.
type Demo struct {
	cfg      *config.Config
	running  bool
	window   *window.Window
	device   *gldevice.Device
	renderer *renderer.Renderer
	input    *input.Input
	ui       *ui.Context
	shots    *debug.ScreenshotCapture
	log      *zap.Logger

	state    scene.State
	paused   bool
	leftDown bool
}

// New creates the window, then the device and renderer on its context.
func New(cfg *config.Config) (*Demo, error) {
	d := &Demo{
		cfg:   cfg,
		input: input.New(),
		shots: debug.NewScreenshotCapture("screenshots", "batch2d"),
		log:   logger.Named("demo"),
	}

	var err error
	d.window, err = window.New(window.Config{
		Title:      "batch2d",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	dw, dh := d.window.DrawableSize()
	d.device, err = gldevice.New(dw, dh)
	if err != nil {
		d.window.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	font, err := loadFont(cfg.Font)
	if err != nil {
		d.Close()
		return nil, err
	}

	rcfg, err := renderer.ConfigFrom(cfg, dw, dh, d.window.Scale())
	if err != nil {
		_ = font.Close()
		d.Close()
		return nil, err
	}
	d.renderer, err = renderer.New(d.device, font, rcfg)
	if err != nil {
		_ = font.Close()
		d.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	d.ui = ui.NewContext(d.renderer)

	d.log.Info("demo initialized")
	return d, nil
}

func loadFont(cfg config.FontConfig) (*glyph.Font, error) {
	hinting, err := glyph.ParseHinting(cfg.Hinting)
	if err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return glyph.DefaultFont(hinting)
	}
	return glyph.LoadFontFile(cfg.Path, hinting)
}

// Run drives the frame loop until the window closes or Escape is pressed.
func (d *Demo) Run() error {
	d.running = true

	last := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	d.log.Info("starting frame loop")

	for d.running {
		if d.input.Update() {
			d.running = false
			break
		}

		for _, event := range d.input.Events() {
			switch event.Type {
			case input.EventResize:
				if err := d.resize(); err != nil {
					return err
				}
			case input.EventMouseDown, input.EventMouseUp:
				if event.Button == sdl.BUTTON_LEFT {
					d.leftDown = event.Type == input.EventMouseDown
				}
			case input.EventKeyDown:
				switch event.Key {
				case sdl.SCANCODE_ESCAPE:
					d.running = false
				case sdl.SCANCODE_F12:
					d.screenshot()
				}
			}
		}

		now := time.Now()
		if !d.paused {
			d.state.Time += now.Sub(last).Seconds()
		}
		last = now
		d.state.MouseX, d.state.MouseY = d.input.Mouse()
		d.state.Stats = d.renderer.Stats()

		// A frame that overflows still presents what fit.
		if err := scene.Draw(d.renderer, d.state); err != nil {
			d.log.Debug("frame degraded", zap.Error(err))
		}
		if err := d.controls(); err != nil {
			d.log.Debug("controls degraded", zap.Error(err))
		}
		if err := d.renderer.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if err := d.renderer.Render(device.DefaultTarget); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		d.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			d.state.FPS = frameCount
			d.log.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// controls draws the draggable stats window on top of the scene.
func (d *Demo) controls() error {
	u := d.ui
	u.Pointer.X, u.Pointer.Y = d.state.MouseX, d.state.MouseY
	u.Pointer.LeftDown = d.leftDown
	u.Begin()

	st := d.state.Stats
	vp := d.renderer.Viewport()
	u.BeginWindow("controls", vp.LogicalWidth-250, 40, 230, 190, "Controls")
	u.Row(ui.RowHeight)
	u.Label(fmt.Sprintf("%d fps, frame %d", d.state.FPS, st.Frames))
	u.Row(ui.RowHeight)
	u.Label(fmt.Sprintf("%d glyphs cached", st.CachedGlyphs))
	u.Row(ui.BoxSize)
	u.ProgressBar(float32(st.AtlasUtilization), 0, 0)
	u.Separator()
	u.Row(ui.RowHeight)
	d.paused = u.Checkbox("pause", "Pause", d.paused)
	u.Row(ui.RowHeight)
	if u.Button("shot", 0, "Screenshot") {
		d.screenshot()
	}
	u.EndWindow()

	return u.End()
}

// resize follows the drawable size, which changes with window size and
// display scale.
func (d *Demo) resize() error {
	dw, dh := d.window.DrawableSize()
	scale := d.window.Scale()
	if d.cfg.Graphics.Scale > 0 {
		scale = d.cfg.Graphics.Scale
	}
	d.device.SetViewport(dw, dh)
	if err := d.renderer.Resize(dw, dh, scale); err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	return nil
}

func (d *Demo) screenshot() {
	pixels, w, h := d.device.ReadPixels()
	name, err := d.shots.CaptureFromPixels(pixels, w, h, true)
	if err != nil {
		d.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	d.log.Info("screenshot saved", zap.String("path", name))
}

// Close releases the renderer, the device and the window in that order.
func (d *Demo) Close() error {
	d.log.Info("closing demo")

	var err error
	if d.renderer != nil {
		err = multierr.Append(err, d.renderer.Close())
	}
	if d.device != nil {
		err = multierr.Append(err, d.device.Close())
	}
	if d.window != nil {
		d.window.Close()
	}
	return err
}
