// Package geom holds the plain data types shared by the batch, atlas, glyph
// and tessellation packages.
package geom

import "unsafe"

// Vertex is the GPU vertex layout: position, atlas UV and straight RGBA color.
// The layout is mirrored by the pipeline attributes in the renderer.
type Vertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// VertexSize is the byte stride of one Vertex.
const VertexSize = int(unsafe.Sizeof(Vertex{}))

// Attribute byte offsets within a Vertex.
const (
	OffsetPos   = 0
	OffsetUV    = 8
	OffsetColor = 16
)

// VertexBytes reinterprets a vertex slice as raw bytes without copying.
func VertexBytes(vs []Vertex) []byte {
	if len(vs) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vs[0])), len(vs)*VertexSize)
}
