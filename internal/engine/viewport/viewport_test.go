package viewport

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeHiDPI(t *testing.T) {
	s, err := New(200, 100, 2.0)
	require.NoError(t, err)

	assert.Equal(t, float32(100), s.LogicalWidth)
	assert.Equal(t, float32(50), s.LogicalHeight)
	assert.Equal(t, float32(2), s.Factor)
	assert.Equal(t, [2]float32{100, 50}, s.Uniform())
}

func TestResizeIdempotent(t *testing.T) {
	var once, twice Scale
	require.NoError(t, once.Resize(1366, 768, 1.25))
	require.NoError(t, twice.Resize(1366, 768, 1.25))
	require.NoError(t, twice.Resize(1366, 768, 1.25))
	assert.Equal(t, once, twice)
}

func TestResizeClampsToOne(t *testing.T) {
	s, err := New(0, -5, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, s.DeviceWidth)
	assert.Equal(t, 1, s.DeviceHeight)
	assert.Equal(t, float32(0.5), s.LogicalWidth)
}

func TestResizeRejectsInvalidScale(t *testing.T) {
	s, err := New(100, 100, 1)
	require.NoError(t, err)

	for _, f := range []float32{0, -1, float32(math.NaN()), float32(math.Inf(1))} {
		err := s.Resize(300, 300, f)
		assert.ErrorIs(t, err, ErrInvalidScale)
	}
	assert.Equal(t, float32(100), s.LogicalWidth, "state must be unchanged after a rejected resize")
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []float32{0.5, 1, 1.25, 1.5, 2, 3} {
		s, err := New(800, 600, f)
		require.NoError(t, err)

		w, h := DeviceSize(s.LogicalWidth, s.LogicalHeight, s.Factor)
		assert.Equal(t, 800, w, "factor %v", f)
		assert.Equal(t, 600, h, "factor %v", f)

		assert.InDelta(t, 37.5, s.ToLogical(s.ToDevice(37.5)), 1e-4)
	}
}

func TestDeviceSizeMinimum(t *testing.T) {
	w, h := DeviceSize(0.1, 0, 1)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}
