// Package debug writes frames and the atlas texture to PNG files.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// ScreenshotCapture names and writes timestamped captures.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewScreenshotCapture creates a new screenshot capture handler.
func NewScreenshotCapture(outputDir, prefix string) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// CaptureFromPixels writes RGBA8 pixels to a new timestamped PNG.
// bottomUp flips rows read back from an OpenGL framebuffer.
func (sc *ScreenshotCapture) CaptureFromPixels(pixels []byte, width, height int, bottomUp bool) (string, error) {
	filename := sc.GenerateFilename()
	if err := WritePNG(filename, pixels, width, height, bottomUp); err != nil {
		return "", err
	}
	return filename, nil
}

// GenerateFilename generates a screenshot filename without saving.
func (sc *ScreenshotCapture) GenerateFilename() string {
	timestamp := sc.now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s.png", sc.prefix, timestamp)
	if sc.outputDir != "" {
		filename = filepath.Join(sc.outputDir, filename)
	}
	return filename
}

// ToImage wraps straight-alpha RGBA8 pixels in an image, copying them.
func ToImage(pixels []byte, width, height int, bottomUp bool) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d for %dx%d, got %d",
			width*height*4, width, height, len(pixels))
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcY := y
		if bottomUp {
			srcY = height - 1 - y
		}
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[srcY*rowSize:(srcY+1)*rowSize])
	}
	return img, nil
}

// WritePNG encodes RGBA8 pixels to path, creating its directory.
func WritePNG(path string, pixels []byte, width, height int, bottomUp bool) error {
	img, err := ToImage(pixels, width, height, bottomUp)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return file.Close()
}
