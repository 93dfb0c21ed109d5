// Package device defines the narrow GPU surface the renderer depends on:
// fixed-size buffers, a 2D texture, one pipeline and one render pass per frame.
//
// Backends live elsewhere (gldevice for OpenGL); Memory is a headless
// implementation that records everything it is asked to do.
package device

import (
	"errors"

	"github.com/Faultbox/batch2d/internal/engine/geom"
)

var (
	// ErrUnknownHandle is returned for a handle the device did not create.
	ErrUnknownHandle = errors.New("device: unknown handle")
	// ErrOutOfBounds is returned for a write outside a buffer or texture.
	ErrOutOfBounds = errors.New("device: write out of bounds")
)

// BufferKind selects how a buffer is bound.
type BufferKind int

const (
	VertexBuffer BufferKind = iota
	IndexBuffer
	UniformBuffer
)

func (k BufferKind) String() string {
	switch k {
	case VertexBuffer:
		return "vertex"
	case IndexBuffer:
		return "index"
	case UniformBuffer:
		return "uniform"
	default:
		return "unknown"
	}
}

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	Uint32 IndexFormat = iota
	Uint16
)

// Size returns the byte size of one index.
func (f IndexFormat) Size() int {
	if f == Uint16 {
		return 2
	}
	return 4
}

func (f IndexFormat) String() string {
	if f == Uint16 {
		return "uint16"
	}
	return "uint32"
}

// Handles are opaque to the renderer; zero is never a valid handle.
type (
	Buffer   uint32
	Texture  uint32
	Pipeline uint32
	// Target is the view a pass renders into. DefaultTarget is the window surface.
	Target uint32
)

// DefaultTarget is the presentable surface of the window.
const DefaultTarget Target = 0

// VertexAttribute describes one float attribute of the vertex layout.
type VertexAttribute struct {
	Location   uint32
	Components int32
	Offset     int
}

// PipelineDesc carries the shader program and vertex layout for a pipeline.
type PipelineDesc struct {
	Label          string
	VertexSource   string
	FragmentSource string
	Stride         int
	Attributes     []VertexAttribute
}

// Pass is one render pass: clear the target, then draw IndexCount indices
// from the bound buffers. IndexCount == 0 means clear only.
type Pass struct {
	Target      Target
	ClearColor  geom.Color
	Pipeline    Pipeline
	Vertices    Buffer
	Indices     Buffer
	IndexFormat IndexFormat
	IndexCount  int
	Texture     Texture
	Uniforms    Buffer
}

// Device is what the renderer needs from a GPU backend.
type Device interface {
	CreateBuffer(kind BufferKind, size int) (Buffer, error)
	WriteBuffer(b Buffer, offset int, data []byte) error
	CreateTexture(width, height int) (Texture, error)
	WriteTexture(t Texture, x, y, width, height int, pixels []byte) error
	CreatePipeline(desc PipelineDesc) (Pipeline, error)
	Submit(pass Pass) error
}

// Attributes returns the pipeline layout matching geom.Vertex.
func Attributes() []VertexAttribute {
	return []VertexAttribute{
		{Location: 0, Components: 2, Offset: geom.OffsetPos},
		{Location: 1, Components: 2, Offset: geom.OffsetUV},
		{Location: 2, Components: 4, Offset: geom.OffsetColor},
	}
}
