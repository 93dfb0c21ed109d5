// Package batch accumulates the vertices and indices of one frame.
//
// A Buffer has fixed vertex and index ceilings that match the device buffers
// allocated by the renderer; Add never grows past them.
package batch

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Faultbox/batch2d/internal/engine/device"
	"github.com/Faultbox/batch2d/internal/engine/geom"
)

var (
	// ErrCapacityExceeded is returned when an Add would overflow the frame buffers.
	ErrCapacityExceeded = errors.New("batch: capacity exceeded")
	// ErrInvalidIndex is returned when a source index does not reference
	// one of the vertices passed alongside it.
	ErrInvalidIndex = errors.New("batch: index out of range")
)

// MaxUint16Vertices is the vertex ceiling when indices are 16-bit.
const MaxUint16Vertices = 1 << 16

// Buffer is the frame geometry buffer. Every index it holds is smaller than
// its vertex count.
type Buffer struct {
	vertices    []geom.Vertex
	indices     []uint32
	maxVertices int
	maxIndices  int
}

// New returns a buffer with the given ceilings. Storage is allocated up front.
func New(maxVertices, maxIndices int) *Buffer {
	return &Buffer{
		vertices:    make([]geom.Vertex, 0, maxVertices),
		indices:     make([]uint32, 0, maxIndices),
		maxVertices: maxVertices,
		maxIndices:  maxIndices,
	}
}

// Add appends vertices verbatim and indices offset by the current vertex
// count. On error nothing is appended.
func (b *Buffer) Add(vertices []geom.Vertex, indices []uint32) error {
	if len(b.vertices)+len(vertices) > b.maxVertices {
		return fmt.Errorf("%w: %d+%d vertices > %d", ErrCapacityExceeded,
			len(b.vertices), len(vertices), b.maxVertices)
	}
	if len(b.indices)+len(indices) > b.maxIndices {
		return fmt.Errorf("%w: %d+%d indices > %d", ErrCapacityExceeded,
			len(b.indices), len(indices), b.maxIndices)
	}
	n := uint32(len(vertices))
	for _, idx := range indices {
		if idx >= n {
			return fmt.Errorf("%w: %d with %d vertices", ErrInvalidIndex, idx, n)
		}
	}

	base := uint32(len(b.vertices))
	b.vertices = append(b.vertices, vertices...)
	for _, idx := range indices {
		b.indices = append(b.indices, idx+base)
	}
	return nil
}

// Reset empties the buffer, keeping its storage.
func (b *Buffer) Reset() {
	b.vertices = b.vertices[:0]
	b.indices = b.indices[:0]
}

// Vertices returns the accumulated vertices. The slice is reused after Reset.
func (b *Buffer) Vertices() []geom.Vertex {
	return b.vertices
}

// Indices returns the accumulated, already offset indices.
func (b *Buffer) Indices() []uint32 {
	return b.indices
}

// Len returns the vertex and index counts.
func (b *Buffer) Len() (vertices, indices int) {
	return len(b.vertices), len(b.indices)
}

// Cap returns the vertex and index ceilings.
func (b *Buffer) Cap() (vertices, indices int) {
	return b.maxVertices, b.maxIndices
}

// Remaining reports how much more geometry fits this frame.
func (b *Buffer) Remaining() (vertices, indices int) {
	return b.maxVertices - len(b.vertices), b.maxIndices - len(b.indices)
}

// EncodeIndices serializes indices for upload. A 16-bit array of odd length
// gets a trailing zero so the upload size stays a multiple of four bytes; the
// padding is not part of the drawn range.
func EncodeIndices(indices []uint32, format device.IndexFormat) []byte {
	if format == device.Uint16 {
		n := len(indices)
		if n%2 == 1 {
			n++
		}
		out := make([]byte, n*2)
		for i, idx := range indices {
			binary.NativeEndian.PutUint16(out[i*2:], uint16(idx))
		}
		return out
	}
	out := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.NativeEndian.PutUint32(out[i*4:], idx)
	}
	return out
}

// IndexBufferSize returns the device buffer size needed for maxIndices,
// including the 16-bit parity pad.
func IndexBufferSize(maxIndices int, format device.IndexFormat) int {
	if format == device.Uint16 && maxIndices%2 == 1 {
		maxIndices++
	}
	return maxIndices * format.Size()
}
