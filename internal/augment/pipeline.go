package augment

import (
	"image"

	"github.com/disintegration/imaging"
)

// Settings is the serialisable state of the standard pipeline.
type Settings struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Smoothing  bool    `json:"smoothing"`
	EdgeDetect bool    `json:"edge_detect"`
	Disabled   bool    `json:"disabled"`
}

// DefaultSettings returns neutral settings.
func DefaultSettings() Settings {
	return Settings{Contrast: 1}
}

// Pipeline is the standard adjustment chain: brightness, contrast,
// smoothing, edge detection.
type Pipeline struct {
	Composed
	Brightness *Brightness
	Contrast   *Contrast
	Smoothing  *Filter
	EdgeDetect *Filter
}

// NewPipeline returns a neutral pipeline.
func NewPipeline() *Pipeline {
	p := &Pipeline{
		Brightness: &Brightness{},
		Contrast:   NewContrast(),
		Smoothing:  NewSmoothing(),
		EdgeDetect: NewEdgeDetection(),
	}
	p.Steps = []Augmentation{p.Brightness, p.Contrast, p.Smoothing, p.EdgeDetect}
	return p
}

// Settings returns the current state.
func (p *Pipeline) Settings() Settings {
	return Settings{
		Brightness: p.Brightness.Offset,
		Contrast:   p.Contrast.Gain,
		Smoothing:  p.Smoothing.Enabled,
		EdgeDetect: p.EdgeDetect.Enabled,
		Disabled:   p.Disabled,
	}
}

// ApplySettings sets the pipeline state from s. Out-of-range values are clamped and
// a zero contrast is treated as neutral.
func (p *Pipeline) ApplySettings(s Settings) {
	p.Brightness.Offset = clamp(s.Brightness, -MaxBrightness, MaxBrightness)
	if s.Contrast == 0 {
		s.Contrast = 1
	}
	p.Contrast.Gain = clamp(s.Contrast, MinContrast, MaxContrast)
	p.Smoothing.Enabled = s.Smoothing
	p.EdgeDetect.Enabled = s.EdgeDetect
	p.Disabled = s.Disabled
}

// Thumbnail scales img down to fit within w x h, preserving aspect ratio.
// Images already small enough are returned unchanged.
func Thumbnail(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}
	return imaging.Fit(img, w, h, imaging.Lanczos)
}
