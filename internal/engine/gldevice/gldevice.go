// Package gldevice implements device.Device on OpenGL 4.1 core.
//
// Must be used from the thread that owns the GL context, after the
// context is current.
package gldevice

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/batch2d/internal/engine/device"
	"github.com/Faultbox/batch2d/internal/engine/shader"
	"github.com/Faultbox/batch2d/internal/engine/shader/glsl"
	"github.com/Faultbox/batch2d/internal/logger"
)

type glBuffer struct {
	id   uint32
	kind device.BufferKind
	size int
}

type glTexture struct {
	id            uint32
	width, height int
}

type glPipeline struct {
	program uint32
	vao     uint32
	desc    device.PipelineDesc
}

// Device owns every GL object it creates until Close.
type Device struct {
	buffers   map[device.Buffer]*glBuffer
	textures  map[device.Texture]*glTexture
	pipelines map[device.Pipeline]*glPipeline
	next      uint32

	width, height int32
	log           *zap.Logger
}

// New initializes the GL function pointers and default 2D state.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New(drawableW, drawableH int) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{
		buffers:   make(map[device.Buffer]*glBuffer),
		textures:  make(map[device.Texture]*glTexture),
		pipelines: make(map[device.Pipeline]*glPipeline),
		log:       logger.Named("gldevice"),
	}
	d.SetViewport(drawableW, drawableH)

	d.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	return d, nil
}

// SetViewport sets the device pixel size the default target is drawn at.
func (d *Device) SetViewport(width, height int) {
	d.width, d.height = int32(max(width, 1)), int32(max(height, 1))
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

// CreateBuffer implements device.Device. Uploads go through the copy-write
// binding so no vertex array needs to be bound.
func (d *Device) CreateBuffer(kind device.BufferKind, size int) (device.Buffer, error) {
	if size <= 0 {
		return 0, fmt.Errorf("create %s buffer: invalid size %d", kind, size)
	}
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, id)
	gl.BufferData(gl.COPY_WRITE_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	if err := glError("create buffer"); err != nil {
		gl.DeleteBuffers(1, &id)
		return 0, err
	}

	h := device.Buffer(d.handle())
	d.buffers[h] = &glBuffer{id: id, kind: kind, size: size}
	d.log.Debug("buffer created", zap.Stringer("kind", kind), zap.Int("size", size))
	return h, nil
}

// WriteBuffer implements device.Device.
func (d *Device) WriteBuffer(b device.Buffer, offset int, data []byte) error {
	buf, ok := d.buffers[b]
	if !ok {
		return fmt.Errorf("write buffer %d: %w", b, device.ErrUnknownHandle)
	}
	if offset < 0 || offset+len(data) > buf.size {
		return fmt.Errorf("write %d bytes at %d into %s buffer of %d: %w",
			len(data), offset, buf.kind, buf.size, device.ErrOutOfBounds)
	}
	if len(data) == 0 {
		return nil
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, buf.id)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, offset, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	return nil
}

// CreateTexture implements device.Device. The texture is RGBA8, cleared to
// transparent black, with linear filtering and clamped edges.
func (d *Device) CreateTexture(width, height int) (device.Texture, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("create texture: invalid size %dx%d", width, height)
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	zero := make([]byte, width*height*4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(zero))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := glError("create texture"); err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}

	h := device.Texture(d.handle())
	d.textures[h] = &glTexture{id: id, width: width, height: height}
	return h, nil
}

// WriteTexture implements device.Device.
func (d *Device) WriteTexture(t device.Texture, x, y, width, height int, pixels []byte) error {
	tex, ok := d.textures[t]
	if !ok {
		return fmt.Errorf("write texture %d: %w", t, device.ErrUnknownHandle)
	}
	if x < 0 || y < 0 || width < 0 || height < 0 || x+width > tex.width || y+height > tex.height {
		return fmt.Errorf("write %dx%d at (%d,%d) into %dx%d texture: %w",
			width, height, x, y, tex.width, tex.height, device.ErrOutOfBounds)
	}
	if len(pixels) != width*height*4 {
		return fmt.Errorf("write texture: got %d bytes for %dx%d: %w", len(pixels), width, height, device.ErrOutOfBounds)
	}
	if width == 0 || height == 0 {
		return nil
	}
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, int32(x), int32(y), int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// CreatePipeline implements device.Device. The program's Viewport block is
// bound to the uniform binding and its atlas sampler to texture unit 0.
func (d *Device) CreatePipeline(desc device.PipelineDesc) (device.Pipeline, error) {
	program, err := shader.CompileProgram(desc.VertexSource, desc.FragmentSource)
	if err != nil {
		return 0, fmt.Errorf("create pipeline %q: %w", desc.Label, err)
	}
	if err := shader.BindUniformBlock(program, glsl.ViewportBlock, glsl.ViewportBinding); err != nil {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("create pipeline %q: %w", desc.Label, err)
	}
	shader.BindSampler(program, glsl.AtlasSampler, glsl.AtlasUnit)

	var vao uint32
	gl.GenVertexArrays(1, &vao)

	h := device.Pipeline(d.handle())
	d.pipelines[h] = &glPipeline{program: program, vao: vao, desc: desc}
	d.log.Info("pipeline created", zap.String("label", desc.Label), zap.Uint32("program", program))
	return h, nil
}

// Submit implements device.Device. Only the default framebuffer is a valid
// target.
func (d *Device) Submit(pass device.Pass) error {
	if pass.Target != device.DefaultTarget {
		return fmt.Errorf("submit: target %d: %w", pass.Target, device.ErrUnknownHandle)
	}
	p, ok := d.pipelines[pass.Pipeline]
	if !ok {
		return fmt.Errorf("submit: pipeline %d: %w", pass.Pipeline, device.ErrUnknownHandle)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, d.width, d.height)
	c := pass.ClearColor
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	if pass.IndexCount == 0 {
		return nil
	}

	vb, ok := d.buffers[pass.Vertices]
	if !ok {
		return fmt.Errorf("submit: vertex buffer %d: %w", pass.Vertices, device.ErrUnknownHandle)
	}
	ib, ok := d.buffers[pass.Indices]
	if !ok {
		return fmt.Errorf("submit: index buffer %d: %w", pass.Indices, device.ErrUnknownHandle)
	}
	ub, ok := d.buffers[pass.Uniforms]
	if !ok {
		return fmt.Errorf("submit: uniform buffer %d: %w", pass.Uniforms, device.ErrUnknownHandle)
	}
	tex, ok := d.textures[pass.Texture]
	if !ok {
		return fmt.Errorf("submit: texture %d: %w", pass.Texture, device.ErrUnknownHandle)
	}
	if pass.IndexCount*pass.IndexFormat.Size() > ib.size {
		return fmt.Errorf("submit: %d indices exceed index buffer: %w", pass.IndexCount, device.ErrOutOfBounds)
	}

	gl.UseProgram(p.program)
	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vb.id)
	for _, a := range p.desc.Attributes {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, a.Components, gl.FLOAT, false, int32(p.desc.Stride), uintptr(a.Offset))
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.id)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, glsl.ViewportBinding, ub.id)
	gl.ActiveTexture(gl.TEXTURE0 + glsl.AtlasUnit)
	gl.BindTexture(gl.TEXTURE_2D, tex.id)

	indexType := uint32(gl.UNSIGNED_INT)
	if pass.IndexFormat == device.Uint16 {
		indexType = gl.UNSIGNED_SHORT
	}
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(pass.IndexCount), indexType, 0)

	gl.BindVertexArray(0)
	gl.UseProgram(0)
	return glError("submit")
}

// ReadPixels reads the default framebuffer as RGBA8, bottom row first.
func (d *Device) ReadPixels() (pixels []byte, width, height int) {
	width, height = int(d.width), int(d.height)
	pixels = make([]byte, width*height*4)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, d.width, d.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// Close deletes every GL object the device created.
func (d *Device) Close() error {
	for h, b := range d.buffers {
		gl.DeleteBuffers(1, &b.id)
		delete(d.buffers, h)
	}
	for h, t := range d.textures {
		gl.DeleteTextures(1, &t.id)
		delete(d.textures, h)
	}
	for h, p := range d.pipelines {
		gl.DeleteVertexArrays(1, &p.vao)
		gl.DeleteProgram(p.program)
		delete(d.pipelines, h)
	}
	err := glError("close")
	d.log.Info("device closed", zap.Error(err))
	return err
}

// glError drains the GL error queue into one error.
func glError(op string) error {
	var err error
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		err = multierr.Append(err, fmt.Errorf("%s: GL error 0x%x", op, code))
	}
	return err
}
