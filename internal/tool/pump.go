package tool

import (
	"particle-annotator/internal/annotation"
	"particle-annotator/pkg/colorutil"
	"particle-annotator/pkg/geometry"
)

// DefaultPumpStep is the distance each vertex moves per pump action.
const DefaultPumpStep = 1.0

// Pump inflates (primary) or deflates (secondary) the polygon by moving
// every vertex along its centroid-to-vertex direction. Concave shapes
// distort because the direction is radial, not edge-normal.
type Pump struct {
	base
	Step float64
}

// NewPump returns a pump moving vertices by step per action.
func NewPump(step float64) *Pump {
	return &Pump{Step: step}
}

func (*Pump) Kind() Kind { return KindPump }

func (t *Pump) Add(_ geometry.Point2D, a *annotation.Annotation) { t.pump(a, t.Step) }

func (t *Pump) AddMove(_ geometry.Point2D, a *annotation.Annotation) { t.pump(a, t.Step) }

func (t *Pump) Remove(_ geometry.Point2D, a *annotation.Annotation) { t.pump(a, -t.Step) }

func (t *Pump) RemoveMove(_ geometry.Point2D, a *annotation.Annotation) { t.pump(a, -t.Step) }

func (*Pump) pump(a *annotation.Annotation, delta float64) {
	if len(a.Points) < 3 {
		return
	}
	c := geometry.Centroid(a.Points)
	for i, v := range a.Points {
		u, ok := v.Sub(c).Unit()
		if !ok {
			continue
		}
		a.Points[i] = v.Add(u.Scale(delta))
	}
}

func (*Pump) Cursor(p geometry.Point2D) Overlay {
	return Overlay{Segments: []Segment{
		{From: geometry.Pt(p.X-2, p.Y-2), To: geometry.Pt(p.X+2, p.Y-2), Color: colorutil.Blue},
		{From: geometry.Pt(p.X+2, p.Y-2), To: geometry.Pt(p.X+2, p.Y+2), Color: colorutil.Blue},
		{From: geometry.Pt(p.X+2, p.Y+2), To: geometry.Pt(p.X-2, p.Y+2), Color: colorutil.Blue},
		{From: geometry.Pt(p.X-2, p.Y+2), To: geometry.Pt(p.X-2, p.Y-2), Color: colorutil.Blue},
	}}
}

// Overlay draws dashed spokes from the centroid to every vertex.
func (*Pump) Overlay(_ geometry.Point2D, a *annotation.Annotation) Overlay {
	if len(a.Points) == 0 {
		return Overlay{}
	}
	c := geometry.Centroid(a.Points)
	o := Overlay{Segments: make([]Segment, 0, len(a.Points))}
	for _, v := range a.Points {
		o.Segments = append(o.Segments, Segment{From: c, To: v, Color: colorutil.Black, Dashed: true})
	}
	return o
}
