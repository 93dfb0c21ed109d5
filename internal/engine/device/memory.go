package device

import (
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/batch2d/internal/engine/geom"
)

// DrawCall is what Memory records for each indexed draw it issues.
type DrawCall struct {
	Target      Target
	Pipeline    Pipeline
	Texture     Texture
	IndexFormat IndexFormat
	IndexCount  int
	// Vertices and Indices are snapshots of the bound buffers at submit time.
	Vertices []byte
	Indices  []byte
	Uniforms []byte
}

type memBuffer struct {
	kind BufferKind
	data []byte
}

type memTexture struct {
	width, height int
	pixels        []byte
}

// Memory is a headless Device. Buffers and textures are plain byte slices and
// every write is bounds-checked the way a GPU validation layer would.
type Memory struct {
	buffers   map[Buffer]*memBuffer
	textures  map[Texture]*memTexture
	pipelines map[Pipeline]PipelineDesc
	next      uint32

	// Counters for tests and the atlasdump tool.
	BufferWrites  int
	TextureWrites int
	Passes        int
	Clears        []Target
	Draws         []DrawCall
}

// NewMemory returns an empty in-memory device.
func NewMemory() *Memory {
	return &Memory{
		buffers:   make(map[Buffer]*memBuffer),
		textures:  make(map[Texture]*memTexture),
		pipelines: make(map[Pipeline]PipelineDesc),
	}
}

func (m *Memory) handle() uint32 {
	m.next++
	return m.next
}

// CreateBuffer implements Device.
func (m *Memory) CreateBuffer(kind BufferKind, size int) (Buffer, error) {
	if size <= 0 {
		return 0, fmt.Errorf("create %s buffer: invalid size %d", kind, size)
	}
	b := Buffer(m.handle())
	m.buffers[b] = &memBuffer{kind: kind, data: make([]byte, size)}
	return b, nil
}

// WriteBuffer implements Device.
func (m *Memory) WriteBuffer(b Buffer, offset int, data []byte) error {
	buf, ok := m.buffers[b]
	if !ok {
		return fmt.Errorf("write buffer %d: %w", b, ErrUnknownHandle)
	}
	if offset < 0 || offset+len(data) > len(buf.data) {
		return fmt.Errorf("write %d bytes at %d into %s buffer of %d: %w",
			len(data), offset, buf.kind, len(buf.data), ErrOutOfBounds)
	}
	copy(buf.data[offset:], data)
	m.BufferWrites++
	return nil
}

// CreateTexture implements Device. The texture is RGBA8.
func (m *Memory) CreateTexture(width, height int) (Texture, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("create texture: invalid size %dx%d", width, height)
	}
	t := Texture(m.handle())
	m.textures[t] = &memTexture{width: width, height: height, pixels: make([]byte, width*height*4)}
	return t, nil
}

// WriteTexture implements Device.
func (m *Memory) WriteTexture(t Texture, x, y, width, height int, pixels []byte) error {
	tex, ok := m.textures[t]
	if !ok {
		return fmt.Errorf("write texture %d: %w", t, ErrUnknownHandle)
	}
	if x < 0 || y < 0 || width < 0 || height < 0 || x+width > tex.width || y+height > tex.height {
		return fmt.Errorf("write %dx%d at (%d,%d) into %dx%d texture: %w",
			width, height, x, y, tex.width, tex.height, ErrOutOfBounds)
	}
	if len(pixels) != width*height*4 {
		return fmt.Errorf("write texture: got %d bytes for %dx%d: %w", len(pixels), width, height, ErrOutOfBounds)
	}
	stride := tex.width * 4
	for row := 0; row < height; row++ {
		dst := (y+row)*stride + x*4
		copy(tex.pixels[dst:dst+width*4], pixels[row*width*4:(row+1)*width*4])
	}
	m.TextureWrites++
	return nil
}

// CreatePipeline implements Device.
func (m *Memory) CreatePipeline(desc PipelineDesc) (Pipeline, error) {
	if desc.VertexSource == "" || desc.FragmentSource == "" {
		return 0, fmt.Errorf("create pipeline %q: missing shader source", desc.Label)
	}
	p := Pipeline(m.handle())
	m.pipelines[p] = desc
	return p, nil
}

// Submit implements Device. The target is always cleared; a draw call is
// recorded only when pass.IndexCount > 0.
func (m *Memory) Submit(pass Pass) error {
	if _, ok := m.pipelines[pass.Pipeline]; !ok {
		return fmt.Errorf("submit: pipeline %d: %w", pass.Pipeline, ErrUnknownHandle)
	}
	m.Passes++
	m.Clears = append(m.Clears, pass.Target)
	if pass.IndexCount == 0 {
		return nil
	}

	vb, ok := m.buffers[pass.Vertices]
	if !ok {
		return fmt.Errorf("submit: vertex buffer %d: %w", pass.Vertices, ErrUnknownHandle)
	}
	ib, ok := m.buffers[pass.Indices]
	if !ok {
		return fmt.Errorf("submit: index buffer %d: %w", pass.Indices, ErrUnknownHandle)
	}
	if _, ok := m.textures[pass.Texture]; !ok {
		return fmt.Errorf("submit: texture %d: %w", pass.Texture, ErrUnknownHandle)
	}
	if pass.IndexCount*pass.IndexFormat.Size() > len(ib.data) {
		return fmt.Errorf("submit: %d indices exceed index buffer: %w", pass.IndexCount, ErrOutOfBounds)
	}

	call := DrawCall{
		Target:      pass.Target,
		Pipeline:    pass.Pipeline,
		Texture:     pass.Texture,
		IndexFormat: pass.IndexFormat,
		IndexCount:  pass.IndexCount,
		Vertices:    append([]byte(nil), vb.data...),
		Indices:     append([]byte(nil), ib.data[:pass.IndexCount*pass.IndexFormat.Size()]...),
	}
	if ub, ok := m.buffers[pass.Uniforms]; ok {
		call.Uniforms = append([]byte(nil), ub.data...)
	}
	m.Draws = append(m.Draws, call)
	return nil
}

// BufferData returns a copy of a buffer's contents.
func (m *Memory) BufferData(b Buffer) ([]byte, bool) {
	buf, ok := m.buffers[b]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), buf.data...), true
}

// TexturePixels returns a copy of a texture's RGBA8 pixels and its size.
func (m *Memory) TexturePixels(t Texture) (pixels []byte, width, height int, ok bool) {
	tex, ok := m.textures[t]
	if !ok {
		return nil, 0, 0, false
	}
	return append([]byte(nil), tex.pixels...), tex.width, tex.height, true
}

// DecodeVertices copies the first n vertices out of a recorded vertex buffer.
func (d DrawCall) DecodeVertices(n int) []geom.Vertex {
	n = min(n, len(d.Vertices)/geom.VertexSize)
	vs := make([]geom.Vertex, n)
	copy(geom.VertexBytes(vs), d.Vertices)
	return vs
}

// DecodeIndices returns the drawn index range as uint32 values.
func (d DrawCall) DecodeIndices() []uint32 {
	out := make([]uint32, d.IndexCount)
	for i := range out {
		if d.IndexFormat == Uint16 {
			out[i] = uint32(binary.NativeEndian.Uint16(d.Indices[i*2:]))
		} else {
			out[i] = binary.NativeEndian.Uint32(d.Indices[i*4:])
		}
	}
	return out
}
