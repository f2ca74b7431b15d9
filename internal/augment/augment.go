// Package augment provides display-only image adjustments. Adjustments
// never touch the stored image or the annotation geometry.
package augment

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Slider bounds.
const (
	BrightnessStep = 0.05
	MaxBrightness  = 127.0
	MinContrast    = 0.1
	MaxContrast    = 5.0
	ContrastStep   = 0.05
)

// Augmentation is one composable image -> image step. Apply returns its
// input unchanged when the step is neutral.
type Augmentation interface {
	Name() string
	Apply(img image.Image) image.Image
	Neutral() bool
	Reset()
}

// Brightness adds a fixed offset, in 8-bit levels, to every colour channel.
type Brightness struct {
	Offset float64
}

func (*Brightness) Name() string { return "Brightness" }

func (b *Brightness) Neutral() bool { return b.Offset == 0 }

func (b *Brightness) Reset() { b.Offset = 0 }

// Apply shifts every channel by Offset, clamped to [-127, 127].
func (b *Brightness) Apply(img image.Image) image.Image {
	if b.Neutral() {
		return img
	}
	off := clamp(b.Offset, -MaxBrightness, MaxBrightness)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(float64(c.R) + off),
			G: clamp8(float64(c.G) + off),
			B: clamp8(float64(c.B) + off),
			A: c.A,
		}
	})
}

// Contrast multiplies every colour channel by Gain.
type Contrast struct {
	Gain float64
}

// NewContrast returns a neutral contrast step.
func NewContrast() *Contrast { return &Contrast{Gain: 1} }

func (*Contrast) Name() string { return "Contrast" }

func (c *Contrast) Neutral() bool { return c.Gain == 1 }

func (c *Contrast) Reset() { c.Gain = 1 }

// Apply scales every channel by Gain, clamped to [0.1, 5].
func (c *Contrast) Apply(img image.Image) image.Image {
	if c.Neutral() {
		return img
	}
	g := clamp(c.Gain, MinContrast, MaxContrast)
	return imaging.AdjustFunc(img, func(px color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(float64(px.R) * g),
			G: clamp8(float64(px.G) * g),
			B: clamp8(float64(px.B) * g),
			A: px.A,
		}
	})
}

// Filter convolves the image with a 3x3 kernel when enabled.
type Filter struct {
	Label   string
	Kernel  [9]float64
	Enabled bool
}

// NewSmoothing returns a disabled 3x3 box blur.
func NewSmoothing() *Filter {
	k := 1.0 / 9.0
	return &Filter{Label: "Smoothing", Kernel: [9]float64{k, k, k, k, k, k, k, k, k}}
}

// NewEdgeDetection returns a disabled 3x3 Laplacian edge detector.
func NewEdgeDetection() *Filter {
	return &Filter{Label: "Edge Detection", Kernel: [9]float64{
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	}}
}

func (f *Filter) Name() string { return f.Label }

func (f *Filter) Neutral() bool { return !f.Enabled }

func (f *Filter) Reset() { f.Enabled = false }

func (f *Filter) Apply(img image.Image) image.Image {
	if f.Neutral() {
		return img
	}
	return imaging.Convolve3x3(img, f.Kernel, nil)
}

// Composed applies its steps in order. Disabled bypasses every step without
// losing their settings.
type Composed struct {
	Steps    []Augmentation
	Disabled bool
}

func (*Composed) Name() string { return "Composed" }

func (c *Composed) Neutral() bool {
	if c.Disabled {
		return true
	}
	for _, s := range c.Steps {
		if !s.Neutral() {
			return false
		}
	}
	return true
}

// Reset resets every step. Disabled is left alone.
func (c *Composed) Reset() {
	for _, s := range c.Steps {
		s.Reset()
	}
}

func (c *Composed) Apply(img image.Image) image.Image {
	if c.Disabled {
		return img
	}
	for _, s := range c.Steps {
		img = s.Apply(img)
	}
	return img
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp8(v float64) uint8 {
	return uint8(clamp(math.Round(v), 0, 255))
}
