// Package renderer is the immediate-mode 2D batch renderer.
//
// Every draw call appends triangles to one frame buffer in logical pixels.
// Commit uploads the frame, Render issues a single indexed draw against the
// shared atlas texture. A Renderer is owned by the frame loop and is not safe
// for concurrent use.
package renderer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/batch2d/internal/config"
	"github.com/Faultbox/batch2d/internal/engine/atlas"
	"github.com/Faultbox/batch2d/internal/engine/batch"
	"github.com/Faultbox/batch2d/internal/engine/device"
	"github.com/Faultbox/batch2d/internal/engine/geom"
	"github.com/Faultbox/batch2d/internal/engine/glyph"
	"github.com/Faultbox/batch2d/internal/engine/shader/glsl"
	"github.com/Faultbox/batch2d/internal/engine/tess"
	"github.com/Faultbox/batch2d/internal/engine/viewport"
	"github.com/Faultbox/batch2d/internal/logger"
)

// uniformSize is the std140 size of the Viewport block.
const uniformSize = 16

// Config holds renderer configuration.
type Config struct {
	// Device size of the target surface and the logical to device ratio.
	Width  int
	Height int
	Scale  float32

	MaxVertices int
	MaxIndices  int
	IndexFormat device.IndexFormat

	AtlasSize int
	AtlasFull glyph.FullPolicy

	StrokeWidth    float32
	CurveTolerance float32
	ClearColor     geom.Color
}

// DefaultConfig returns the limits used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Width:          1280,
		Height:         720,
		Scale:          1,
		MaxVertices:    100000,
		MaxIndices:     100000,
		IndexFormat:    device.Uint32,
		AtlasSize:      1024,
		AtlasFull:      glyph.SkipGlyph,
		StrokeWidth:    1,
		CurveTolerance: tess.DefaultTolerance,
		ClearColor:     geom.ColorTransparent,
	}
}

// ConfigFrom maps the YAML settings onto a renderer Config for a surface of
// deviceW x deviceH pixels. A positive cfg.Graphics.Scale overrides scale.
func ConfigFrom(cfg *config.Config, deviceW, deviceH int, scale float32) (Config, error) {
	policy, err := glyph.ParseFullPolicy(cfg.Renderer.AtlasFull)
	if err != nil {
		return Config{}, err
	}
	format := device.Uint32
	switch cfg.Renderer.IndexFormat {
	case "uint32", "":
	case "uint16":
		format = device.Uint16
	default:
		return Config{}, fmt.Errorf("unknown index format %q", cfg.Renderer.IndexFormat)
	}
	if cfg.Graphics.Scale > 0 {
		scale = cfg.Graphics.Scale
	}
	cc := cfg.Graphics.ClearColor
	return Config{
		Width:          deviceW,
		Height:         deviceH,
		Scale:          scale,
		MaxVertices:    cfg.Renderer.MaxVertices,
		MaxIndices:     cfg.Renderer.MaxIndices,
		IndexFormat:    format,
		AtlasSize:      cfg.Renderer.AtlasSize,
		AtlasFull:      policy,
		StrokeWidth:    cfg.Renderer.StrokeWidth,
		CurveTolerance: cfg.Renderer.CurveTolerance,
		ClearColor:     geom.RGBA(cc.R, cc.G, cc.B, cc.A),
	}, nil
}

// Renderer accumulates one frame of 2D geometry and presents it.
type Renderer struct {
	config Config
	dev    device.Device
	log    *zap.Logger

	scale viewport.Scale
	frame *batch.Buffer

	atlas  *atlas.Atlas
	font   *glyph.Font
	glyphs *glyph.Cache

	pipeline device.Pipeline
	vertices device.Buffer
	indices  device.Buffer
	uniforms device.Buffer

	// blank is the UV of the white texel untextured geometry samples.
	blank [2]float32

	committed int
	frames    int
}

// New creates the device resources and the white texel. The renderer takes
// ownership of font. Any failure aborts construction.
func New(dev device.Device, font *glyph.Font, cfg Config) (*Renderer, error) {
	if font == nil {
		return nil, errors.New("renderer: font is required")
	}
	if cfg.MaxVertices <= 0 || cfg.MaxIndices <= 0 {
		return nil, fmt.Errorf("renderer: invalid capacity %d vertices / %d indices", cfg.MaxVertices, cfg.MaxIndices)
	}
	if cfg.StrokeWidth <= 0 {
		cfg.StrokeWidth = 1
	}
	if cfg.CurveTolerance <= 0 {
		cfg.CurveTolerance = tess.DefaultTolerance
	}

	r := &Renderer{
		config: cfg,
		dev:    dev,
		font:   font,
		log:    logger.Named("renderer"),
	}

	if cfg.IndexFormat == device.Uint16 && cfg.MaxVertices > batch.MaxUint16Vertices {
		r.log.Info("vertex capacity clamped for 16-bit indices",
			zap.Int("requested", cfg.MaxVertices),
			zap.Int("max", batch.MaxUint16Vertices),
		)
		r.config.MaxVertices = batch.MaxUint16Vertices
	}

	var err error
	r.scale, err = viewport.New(cfg.Width, cfg.Height, cfg.Scale)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	r.frame = batch.New(r.config.MaxVertices, r.config.MaxIndices)

	if err := r.createBuffers(); err != nil {
		return nil, err
	}

	r.pipeline, err = dev.CreatePipeline(device.PipelineDesc{
		Label:          "batch2d",
		VertexSource:   glsl.BatchVertex,
		FragmentSource: glsl.BatchFragment,
		Stride:         geom.VertexSize,
		Attributes:     device.Attributes(),
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	r.atlas, err = atlas.New(dev, cfg.AtlasSize)
	if err != nil {
		return nil, fmt.Errorf("create atlas: %w", err)
	}

	white := []byte{0xff, 0xff, 0xff, 0xff}
	uv, err := r.AddTexture(white, 1, 1)
	if err != nil {
		return nil, fmt.Errorf("upload blank texel: %w", err)
	}
	cx, cy := uv.Center()
	r.blank = [2]float32{cx, cy}

	r.glyphs = glyph.NewCache(font, r.atlas, cfg.AtlasFull)

	if err := r.writeViewport(); err != nil {
		return nil, err
	}

	r.log.Info("renderer created",
		zap.Int("max_vertices", r.config.MaxVertices),
		zap.Int("max_indices", r.config.MaxIndices),
		zap.Stringer("index_format", cfg.IndexFormat),
		zap.Int("atlas_size", cfg.AtlasSize),
		zap.String("font", font.Name()),
		zap.Float32("logical_width", r.scale.LogicalWidth),
		zap.Float32("logical_height", r.scale.LogicalHeight),
		zap.Float32("scale", r.scale.Factor),
	)
	return r, nil
}

func (r *Renderer) createBuffers() error {
	var err error
	r.vertices, err = r.dev.CreateBuffer(device.VertexBuffer, r.config.MaxVertices*geom.VertexSize)
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	r.indices, err = r.dev.CreateBuffer(device.IndexBuffer, batch.IndexBufferSize(r.config.MaxIndices, r.config.IndexFormat))
	if err != nil {
		return fmt.Errorf("create index buffer: %w", err)
	}
	r.uniforms, err = r.dev.CreateBuffer(device.UniformBuffer, uniformSize)
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	return nil
}

func (r *Renderer) writeViewport() error {
	var block [uniformSize / 4]float32
	u := r.scale.Uniform()
	block[0], block[1] = u[0], u[1]
	if err := r.dev.WriteBuffer(r.uniforms, 0, float32Bytes(block[:])); err != nil {
		return fmt.Errorf("write viewport uniform: %w", err)
	}
	return nil
}

// Resize recomputes the logical size and rewrites the viewport uniform.
// An invalid scale leaves the previous state in place.
func (r *Renderer) Resize(deviceW, deviceH int, scale float32) error {
	if err := r.scale.Resize(deviceW, deviceH, scale); err != nil {
		return err
	}
	r.log.Debug("renderer resized",
		zap.Int("device_width", deviceW),
		zap.Int("device_height", deviceH),
		zap.Float32("scale", scale),
	)
	return r.writeViewport()
}

// Viewport returns the current scale state.
func (r *Renderer) Viewport() viewport.Scale {
	return r.scale
}

// AddTexture uploads an RGBA8 bitmap into the atlas and returns its UVs.
// The region lives as long as the renderer.
func (r *Renderer) AddTexture(pixels []byte, w, h int) (geom.Rect, error) {
	region, err := r.atlas.Add(pixels, w, h)
	if err != nil {
		if errors.Is(err, atlas.ErrAtlasFull) {
			r.log.Warn("texture rejected, atlas is full", zap.Int("width", w), zap.Int("height", h))
		}
		return geom.Rect{}, err
	}
	return region.UV, nil
}

// add appends one primitive to the frame. Nothing is appended on error.
func (r *Renderer) add(vs []geom.Vertex, is []uint32) error {
	if err := r.frame.Add(vs, is); err != nil {
		r.log.Debug("geometry rejected",
			zap.Int("vertices", len(vs)),
			zap.Int("indices", len(is)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Commit uploads the frame to the device buffers and starts a new frame.
// The frame is reset even when an upload fails; the next Render then draws
// nothing.
func (r *Renderer) Commit() error {
	defer r.frame.Reset()

	vs, is := r.frame.Vertices(), r.frame.Indices()
	r.committed = 0
	if len(vs) > 0 {
		if err := r.dev.WriteBuffer(r.vertices, 0, geom.VertexBytes(vs)); err != nil {
			return fmt.Errorf("commit vertices: %w", err)
		}
	}
	if len(is) > 0 {
		if err := r.dev.WriteBuffer(r.indices, 0, batch.EncodeIndices(is, r.config.IndexFormat)); err != nil {
			return fmt.Errorf("commit indices: %w", err)
		}
	}
	r.committed = len(is)
	return nil
}

// Render clears target and draws the last committed frame in one pass.
func (r *Renderer) Render(target device.Target) error {
	err := r.dev.Submit(device.Pass{
		Target:      target,
		ClearColor:  r.config.ClearColor,
		Pipeline:    r.pipeline,
		Vertices:    r.vertices,
		Indices:     r.indices,
		IndexFormat: r.config.IndexFormat,
		IndexCount:  r.committed,
		Texture:     r.atlas.Texture(),
		Uniforms:    r.uniforms,
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	r.frames++
	return nil
}

// Stats is a snapshot of renderer counters.
type Stats struct {
	PendingVertices  int
	PendingIndices   int
	CommittedIndices int
	AtlasUtilization float64
	CachedGlyphs     int
	DroppedGlyphs    int
	Frames           int
}

// Stats returns the current counters.
func (r *Renderer) Stats() Stats {
	v, i := r.frame.Len()
	return Stats{
		PendingVertices:  v,
		PendingIndices:   i,
		CommittedIndices: r.committed,
		AtlasUtilization: r.atlas.Shelf().Utilization(),
		CachedGlyphs:     r.glyphs.Len(),
		DroppedGlyphs:    r.glyphs.Dropped(),
		Frames:           r.frames,
	}
}

// Atlas returns the atlas texture handle.
func (r *Renderer) Atlas() device.Texture {
	return r.atlas.Texture()
}

// Close releases the font faces.
func (r *Renderer) Close() error {
	r.log.Info("closing renderer", zap.Int("frames", r.frames))
	return r.font.Close()
}
