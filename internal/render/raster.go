package render

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"particle-annotator/internal/tool"
	"particle-annotator/pkg/colorutil"
	"particle-annotator/pkg/geometry"
)

// Raster renders frames into RGBA images.
type Raster struct {
	Background color.RGBA
	FillAlpha  uint8
	LineWidth  float64
	// VertexRadius is the marker size for vertices of the editing shape.
	VertexRadius float64
	Dash         []float64
}

// NewRaster returns a renderer with the default look.
func NewRaster() *Raster {
	return &Raster{
		Background:   colorutil.Black,
		FillAlpha:    127,
		LineWidth:    1.5,
		VertexRadius: 3,
		Dash:         []float64{4, 4},
	}
}

// Image allocates a w x h canvas and renders f over img into it.
func (r *Raster) Image(img image.Image, f Frame, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	r.Render(dst, img, f)
	return dst
}

// Render paints the background, the image under the frame's view, every
// shape, the closing-edge preview, the tool overlay and the cursor.
func (r *Raster) Render(dst *image.RGBA, img image.Image, f Frame) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)

	if img != nil {
		r.blit(dst, img, f)
	}

	gc := draw2dimg.NewGraphicContext(dst)
	gc.SetLineWidth(r.LineWidth)

	for _, s := range f.Shapes {
		r.shape(gc, f.View, s)
	}
	if f.Preview != nil {
		r.preview(gc, f.View, *f.Preview)
	}
	r.overlay(gc, f.View, f.Overlay)
	r.overlay(gc, f.View, f.Cursor)

	if f.Numbered {
		for i, s := range f.Shapes {
			if len(s.Points) == 0 {
				continue
			}
			c := f.View.Apply(geometry.Centroid(s.Points))
			drawLabel(dst, strconv.Itoa(i+1), int(c.X), int(c.Y), colorutil.White, labelScale(f.Zoom))
		}
	}
}

func (r *Raster) blit(dst *image.RGBA, img image.Image, f Frame) {
	v := f.View
	s2d := f64.Aff3{v.A, v.B, v.TX, v.C, v.D, v.TY}
	var interp xdraw.Interpolator = xdraw.NearestNeighbor
	if f.Zoom < 1 {
		interp = xdraw.ApproxBiLinear
	}
	interp.Transform(dst, s2d, img, img.Bounds(), xdraw.Over, nil)
}

func (r *Raster) path(gc *draw2dimg.GraphicContext, v geometry.AffineTransform, pts []geometry.Point2D) {
	gc.BeginPath()
	p := v.Apply(pts[0])
	gc.MoveTo(p.X, p.Y)
	for _, q := range pts[1:] {
		p = v.Apply(q)
		gc.LineTo(p.X, p.Y)
	}
	gc.Close()
}

func (r *Raster) shape(gc *draw2dimg.GraphicContext, v geometry.AffineTransform, s Shape) {
	if len(s.Points) == 0 {
		return
	}

	stroke := s.Color
	width := r.LineWidth
	switch {
	case s.Editing:
		stroke = colorutil.Gold
		width = 2 * r.LineWidth
	case s.Selected:
		stroke = colorutil.White
		width = 2 * r.LineWidth
	}

	gc.Save()
	gc.SetLineWidth(width)
	gc.SetStrokeColor(stroke)
	gc.SetFillColor(colorutil.WithAlpha(s.Color, r.FillAlpha))
	r.path(gc, v, s.Points)
	if len(s.Points) >= 3 {
		gc.FillStroke()
	} else {
		gc.Stroke()
	}
	gc.Restore()

	if !s.Editing {
		return
	}
	gc.Save()
	gc.SetFillColor(colorutil.Gold)
	for _, q := range s.Points {
		p := v.Apply(q)
		gc.BeginPath()
		draw2dkit.Circle(gc, p.X, p.Y, r.VertexRadius)
		gc.Fill()
	}
	gc.Restore()
}

func (r *Raster) preview(gc *draw2dimg.GraphicContext, v geometry.AffineTransform, p Preview) {
	r.segment(gc, v, tool.Segment{From: p.Last, To: p.Mouse, Color: colorutil.Gold, Dashed: true})
	r.segment(gc, v, tool.Segment{From: p.Mouse, To: p.First, Color: colorutil.Gold, Dashed: true})
}

func (r *Raster) overlay(gc *draw2dimg.GraphicContext, v geometry.AffineTransform, o tool.Overlay) {
	for _, ring := range o.Rings {
		c := v.Apply(ring.Center)
		gc.Save()
		gc.SetStrokeColor(ring.Color)
		gc.BeginPath()
		draw2dkit.Circle(gc, c.X, c.Y, ring.Radius*v.A)
		gc.Stroke()
		gc.Restore()
	}
	for _, s := range o.Segments {
		r.segment(gc, v, s)
	}
}

func (r *Raster) segment(gc *draw2dimg.GraphicContext, v geometry.AffineTransform, s tool.Segment) {
	from, to := v.Apply(s.From), v.Apply(s.To)
	gc.Save()
	gc.SetStrokeColor(s.Color)
	if s.Dashed {
		gc.SetLineDash(r.Dash, 0)
	}
	gc.BeginPath()
	gc.MoveTo(from.X, from.Y)
	gc.LineTo(to.X, to.Y)
	gc.Stroke()
	gc.Restore()
}
