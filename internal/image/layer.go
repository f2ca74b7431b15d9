// Package image provides image loading and the display cache for the canvas.
package image

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"particle-annotator/internal/augment"
	"particle-annotator/pkg/geometry"
)

// Layer is one decoded image plus its adjusted display copy.
type Layer struct {
	Path  string      // Original file path
	Image image.Image // Decoded pixels, never modified

	display  image.Image
	settings augment.Settings
}

// Load decodes the image at path. EXIF orientation is ignored so pixel
// coordinates match the header dimensions recorded in the dataset.
func Load(path string) (*Layer, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return &Layer{Path: path, Image: img}, nil
}

// DecodeConfig reads only the header of the image at path.
func DecodeConfig(path string) (image.Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return image.Config{}, fmt.Errorf("failed to decode image header: %w", err)
	}
	return cfg, nil
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Size returns the image dimensions.
func (l *Layer) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(l.Width()),
		Height: float64(l.Height()),
	}
}

// Display returns the image as adjusted by p. The result is cached until
// the pipeline settings change.
func (l *Layer) Display(p *augment.Pipeline) image.Image {
	if p == nil || p.Neutral() {
		return l.Image
	}
	s := p.Settings()
	if l.display == nil || s != l.settings {
		l.display = p.Apply(l.Image)
		l.settings = s
	}
	return l.display
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".bmp", ".jpg", ".jpeg", ".tif", ".tiff", ".png"}
}

// IsSupportedFormat checks if the given path has a supported image format.
// The comparison ignores case.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
