package augment

import (
	"image"
	"image/color"
	"testing"
)

func gray(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func at(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestNeutralPipelineIsIdentity(t *testing.T) {
	src := gray(4, 4, 100)
	p := NewPipeline()
	if !p.Neutral() {
		t.Fatal("new pipeline is not neutral")
	}
	if out := p.Apply(src); out != image.Image(src) {
		t.Error("neutral pipeline copied the image")
	}
}

func TestBrightnessAndContrast(t *testing.T) {
	src := gray(3, 3, 100)

	b := &Brightness{Offset: 10}
	if got := at(b.Apply(src), 1, 1); got.R != 110 || got.A != 255 {
		t.Errorf("brightness +10 -> %v", got)
	}
	b.Offset = 500
	if got := at(b.Apply(src), 1, 1); got.R != 227 {
		t.Errorf("brightness clamped to 127 -> %v", got)
	}

	c := &Contrast{Gain: 2}
	if got := at(c.Apply(src), 1, 1); got.R != 200 {
		t.Errorf("contrast x2 -> %v", got)
	}
	c.Gain = 5
	if got := at(c.Apply(src), 1, 1); got.R != 255 {
		t.Errorf("contrast saturates -> %v", got)
	}

	if at(src, 1, 1).R != 100 {
		t.Error("adjustment modified its input")
	}
}

func TestFilters(t *testing.T) {
	src := gray(5, 5, 90)

	s := NewSmoothing()
	s.Enabled = true
	if got := at(s.Apply(src), 2, 2); got.R != 90 {
		t.Errorf("smoothing a flat image -> %v", got)
	}

	e := NewEdgeDetection()
	e.Enabled = true
	if got := at(e.Apply(src), 2, 2); got.R != 0 {
		t.Errorf("edges of a flat image -> %v", got)
	}
}

func TestDisableAllAndReset(t *testing.T) {
	src := gray(3, 3, 50)
	p := NewPipeline()
	p.ApplySettings(Settings{Brightness: 20, Contrast: 2, Smoothing: true})

	if got := at(p.Apply(src), 1, 1); got.R != 140 {
		t.Errorf("(50+20)*2 -> %v", got)
	}

	p.Disabled = true
	if out := p.Apply(src); out != image.Image(src) {
		t.Error("disabled pipeline changed the image")
	}

	p.Disabled = false
	p.Reset()
	if !p.Neutral() {
		t.Errorf("reset left settings %+v", p.Settings())
	}
	if p.Settings() != DefaultSettings() {
		t.Errorf("settings = %+v", p.Settings())
	}
}

func TestApplySettingsClamps(t *testing.T) {
	p := NewPipeline()
	p.ApplySettings(Settings{Brightness: -900, Contrast: 0})
	s := p.Settings()
	if s.Brightness != -MaxBrightness || s.Contrast != 1 {
		t.Errorf("settings = %+v", s)
	}
	p.ApplySettings(Settings{Contrast: 0.01})
	if p.Contrast.Gain != MinContrast {
		t.Errorf("gain = %v", p.Contrast.Gain)
	}
}

func TestThumbnail(t *testing.T) {
	big := gray(400, 200, 10)
	th := Thumbnail(big, 100, 100)
	if b := th.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("thumbnail %v", b)
	}
	small := gray(10, 10, 10)
	if Thumbnail(small, 100, 100) != image.Image(small) {
		t.Error("small image was resized")
	}
}
