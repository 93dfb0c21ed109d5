// Package viewport maps the logical (DPI independent) coordinate space used by
// the drawing API onto the device pixels of the GPU surface.
package viewport

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidScale is returned for a scale factor that is not a finite positive number.
var ErrInvalidScale = errors.New("viewport: scale must be finite and > 0")

// Scale is the logical/device size pair and the factor between them.
// DeviceWidth == round(LogicalWidth * Factor) with both dimensions >= 1.
type Scale struct {
	LogicalWidth  float32
	LogicalHeight float32
	Factor        float32
	DeviceWidth   int
	DeviceHeight  int
}

// New returns the scale state for a surface of deviceW x deviceH pixels.
func New(deviceW, deviceH int, factor float32) (Scale, error) {
	var s Scale
	if err := s.Resize(deviceW, deviceH, factor); err != nil {
		return Scale{}, err
	}
	return s, nil
}

// Resize recomputes the logical size from a device size and scale factor.
// Device dimensions are clamped to 1 before division. An invalid factor
// leaves the state unchanged.
func (s *Scale) Resize(deviceW, deviceH int, factor float32) error {
	f := float64(factor)
	if math.IsNaN(f) || math.IsInf(f, 0) || factor <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidScale, factor)
	}
	deviceW = max(deviceW, 1)
	deviceH = max(deviceH, 1)

	s.DeviceWidth = deviceW
	s.DeviceHeight = deviceH
	s.Factor = factor
	s.LogicalWidth = float32(deviceW) / factor
	s.LogicalHeight = float32(deviceH) / factor
	return nil
}

// ToDevice converts a logical length to device pixels.
func (s Scale) ToDevice(v float32) float32 {
	return v * s.Factor
}

// ToLogical converts a device length to logical pixels.
func (s Scale) ToLogical(v float32) float32 {
	return v / s.Factor
}

// Uniform returns the logical viewport size consumed by the vertex stage.
func (s Scale) Uniform() [2]float32 {
	return [2]float32{s.LogicalWidth, s.LogicalHeight}
}

// DeviceSize returns the device pixel size backing a logical size,
// round(logical * factor), clamped to 1.
func DeviceSize(logicalW, logicalH, factor float32) (int, int) {
	w := int(math.Round(float64(logicalW * factor)))
	h := int(math.Round(float64(logicalH * factor)))
	return max(w, 1), max(h, 1)
}
