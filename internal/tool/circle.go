package tool

import (
	"gonum.org/v1/gonum/stat"

	"particle-annotator/internal/annotation"
	"particle-annotator/pkg/colorutil"
	"particle-annotator/pkg/geometry"
)

// DefaultCircleVertices is the number of vertices a fitted circle is resampled to.
const DefaultCircleVertices = 51

// Circle collects boundary clicks and replaces the polygon with a circle
// fitted to them after every click.
type Circle struct {
	Vertices int

	samples []geometry.Point2D
}

// NewCircle returns a circle tool producing n-vertex polygons.
func NewCircle(n int) *Circle {
	return &Circle{Vertices: n}
}

func (*Circle) Kind() Kind { return KindCircle }

// Samples returns a copy of the accumulated boundary clicks.
func (c *Circle) Samples() []geometry.Point2D {
	return append([]geometry.Point2D(nil), c.samples...)
}

func (c *Circle) Add(p geometry.Point2D, a *annotation.Annotation) {
	c.samples = append(c.samples, p)
	c.apply(a)
}

func (*Circle) AddMove(geometry.Point2D, *annotation.Annotation) {}

func (c *Circle) Remove(_ geometry.Point2D, a *annotation.Annotation) {
	if len(c.samples) == 0 {
		return
	}
	c.samples = c.samples[:len(c.samples)-1]
	c.apply(a)
}

func (*Circle) RemoveMove(geometry.Point2D, *annotation.Annotation) {}

func (*Circle) Release(bool) {}

func (c *Circle) Reset() {
	c.samples = nil
}

func (*Circle) ShowNextPoint() bool { return false }

func (c *Circle) apply(a *annotation.Annotation) {
	if len(c.samples) == 0 {
		a.Points = nil
		return
	}
	center, radius := FitCircle(c.samples)
	a.Points = geometry.GenerateCirclePoints(center, radius, c.Vertices)
}

// FitCircle estimates a circle from boundary samples without least squares:
// the centre is the samples' centroid and the radius is their mean distance
// from it.
func FitCircle(samples []geometry.Point2D) (geometry.Point2D, float64) {
	center := geometry.Centroid(samples)
	dists := make([]float64, len(samples))
	for i, s := range samples {
		dists[i] = s.Distance(center)
	}
	return center, stat.Mean(dists, nil)
}

func (c *Circle) Cursor(p geometry.Point2D) Overlay {
	if len(c.samples) == 0 {
		return Overlay{Rings: []Ring{{Center: p, Radius: 2, Color: colorutil.Blue}}}
	}
	preview := append(c.Samples(), p)
	center, radius := FitCircle(preview)
	return Overlay{
		Rings:    []Ring{{Center: center, Radius: radius, Color: colorutil.Dark}},
		Segments: []Segment{{
			From:  c.samples[len(c.samples)-1],
			To:    p,
			Color: colorutil.Blue,
		}},
	}
}

func (c *Circle) Overlay(geometry.Point2D, *annotation.Annotation) Overlay {
	var o Overlay
	for _, s := range c.samples {
		o.Rings = append(o.Rings, Ring{Center: s, Radius: 2, Color: colorutil.Blue})
	}
	return o
}
