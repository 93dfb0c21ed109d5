// Package glyph lays text out with one shared font, rasterizes glyphs to
// coverage bitmaps and caches their atlas regions.
package glyph

import (
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Hinting is the outline hinting variant; it is part of the glyph key.
type Hinting uint8

const (
	HintingNone Hinting = iota
	HintingFull
)

// ParseHinting maps a config string to a Hinting value.
func ParseHinting(s string) (Hinting, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return HintingNone, nil
	case "full":
		return HintingFull, nil
	default:
		return HintingNone, fmt.Errorf("unknown hinting %q", s)
	}
}

func (h Hinting) font() font.Hinting {
	if h == HintingFull {
		return font.HintingFull
	}
	return font.HintingNone
}

// Font is the parsed font plus one face per pixel size.
type Font struct {
	id      uint64
	name    string
	sfnt    *opentype.Font
	hinting Hinting
	faces   map[uint32]font.Face
}

// LoadFont parses a TrueType/OpenType font from memory.
func LoadFont(data []byte, hinting Hinting) (*Font, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	h := fnv.New64a()
	_, _ = h.Write(data)

	name, err := f.Name(nil, sfnt.NameIDFull)
	if err != nil {
		name = "unknown"
	}
	return &Font{
		id:      h.Sum64(),
		name:    name,
		sfnt:    f,
		hinting: hinting,
		faces:   make(map[uint32]font.Face),
	}, nil
}

// LoadFontFile reads and parses a font file.
func LoadFontFile(path string, hinting Hinting) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return LoadFont(data, hinting)
}

// DefaultFont returns the embedded Go Regular font.
func DefaultFont(hinting Hinting) (*Font, error) {
	return LoadFont(goregular.TTF, hinting)
}

// ID identifies the font bytes.
func (f *Font) ID() uint64 {
	return f.id
}

// Name returns the full font name from the name table.
func (f *Font) Name() string {
	return f.name
}

// Hinting returns the hinting variant faces are created with.
func (f *Font) Hinting() Hinting {
	return f.hinting
}

// face returns the cached face for a device pixel size.
func (f *Font) face(size float32) (font.Face, error) {
	bits := math.Float32bits(size)
	if fc, ok := f.faces[bits]; ok {
		return fc, nil
	}
	fc, err := opentype.NewFace(f.sfnt, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: f.hinting.font(),
	})
	if err != nil {
		return nil, fmt.Errorf("create face at %vpx: %w", size, err)
	}
	f.faces[bits] = fc
	return fc, nil
}

// Close releases the cached faces.
func (f *Font) Close() error {
	var err error
	for k, fc := range f.faces {
		err = multierr.Append(err, fc.Close())
		delete(f.faces, k)
	}
	return err
}
