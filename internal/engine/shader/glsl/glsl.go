// Package glsl embeds the shader sources of the batch pipeline.
//
// It has no GL dependency so headless devices can carry the same
// pipeline description as the OpenGL backend.
package glsl

import _ "embed"

// BatchVertex maps logical pixel positions to clip space through the
// Viewport uniform block.
//
//go:embed batch.vert
var BatchVertex string

// BatchFragment samples the atlas and tints it by the vertex color.
//
//go:embed batch.frag
var BatchFragment string

// Names the OpenGL backend binds at link time.
const (
	ViewportBlock   = "Viewport"
	AtlasSampler    = "uAtlas"
	ViewportBinding = 0
	AtlasUnit       = 0
)
