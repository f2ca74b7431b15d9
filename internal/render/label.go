package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	xdraw "golang.org/x/image/draw"
)

// labelScale picks the glyph magnification for a zoom level, between 1
// and 3.
func labelScale(zoom float64) int {
	scale := int(zoom)
	if scale < 1 {
		scale = 1
	}
	if scale > 3 {
		scale = 3
	}
	return scale
}

// drawLabel draws label centred on (centerX, centerY) with a one pixel
// dark outline so it reads on any fill.
func drawLabel(dst *image.RGBA, label string, centerX, centerY int, col color.RGBA, scale int) {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	m := face.Metrics()
	w := d.MeasureString(label).Ceil() + 2
	h := m.Height.Ceil() + 2
	if w <= 2 {
		return
	}

	tile := image.NewRGBA(image.Rect(0, 0, w, h))
	d.Dst = tile
	baseline := fixed.I(1) + m.Ascent

	d.Src = image.NewUniform(color.RGBA{A: 255})
	for _, o := range []image.Point{{0, 0}, {2, 0}, {1, -1}, {1, 1}} {
		d.Dot = fixed.Point26_6{X: fixed.I(o.X), Y: baseline + fixed.I(o.Y)}
		d.DrawString(label)
	}
	d.Src = image.NewUniform(col)
	d.Dot = fixed.Point26_6{X: fixed.I(1), Y: baseline}
	d.DrawString(label)

	sw, sh := w*scale, h*scale
	r := image.Rect(0, 0, sw, sh).Add(image.Pt(centerX-sw/2, centerY-sh/2))
	xdraw.NearestNeighbor.Scale(dst, r, tile, tile.Bounds(), xdraw.Over, nil)
}
