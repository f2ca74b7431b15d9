package tool

import (
	"particle-annotator/internal/annotation"
	"particle-annotator/pkg/colorutil"
	"particle-annotator/pkg/geometry"
)

// DefaultBrushRadius is the brush radius in image pixels.
const DefaultBrushRadius = 20.0

// Brush pushes nearby vertices radially out to the edge of the brush as it
// sweeps. It never creates vertices.
type Brush struct {
	base
	Radius float64
}

// NewBrush returns a brush with the given radius.
func NewBrush(radius float64) *Brush {
	return &Brush{Radius: radius}
}

func (*Brush) Kind() Kind { return KindBrush }

func (*Brush) Add(geometry.Point2D, *annotation.Annotation) {}

func (b *Brush) AddMove(p geometry.Point2D, a *annotation.Annotation) {
	for i, v := range a.Points {
		d := v.Sub(p)
		if d.Len() >= b.Radius {
			continue
		}
		// A vertex exactly under the pointer has no push direction.
		u, ok := d.Unit()
		if !ok {
			continue
		}
		a.Points[i] = a.Clamp(p.Add(u.Scale(b.Radius)))
	}
}

func (*Brush) Remove(geometry.Point2D, *annotation.Annotation) {}

func (*Brush) RemoveMove(geometry.Point2D, *annotation.Annotation) {}

func (b *Brush) Cursor(p geometry.Point2D) Overlay {
	return Overlay{Rings: []Ring{{Center: p, Radius: b.Radius, Color: colorutil.Green}}}
}
