package tool

import (
	"particle-annotator/internal/annotation"
	"particle-annotator/pkg/colorutil"
	"particle-annotator/pkg/geometry"
)

// Polygon appends a vertex per click and pops the last one on secondary click.
type Polygon struct {
	base
}

func (*Polygon) Kind() Kind { return KindPolygon }

func (*Polygon) Add(p geometry.Point2D, a *annotation.Annotation) {
	a.Points = append(a.Points, p)
}

func (*Polygon) AddMove(geometry.Point2D, *annotation.Annotation) {}

func (*Polygon) Remove(_ geometry.Point2D, a *annotation.Annotation) {
	if len(a.Points) == 0 {
		return
	}
	a.Points = a.Points[:len(a.Points)-1]
}

func (*Polygon) RemoveMove(geometry.Point2D, *annotation.Annotation) {}

func (*Polygon) ShowNextPoint() bool { return true }

func (*Polygon) Cursor(p geometry.Point2D) Overlay {
	return Overlay{Rings: []Ring{
		{Center: p, Radius: 4, Color: colorutil.Blue},
		{Center: p, Radius: 1, Color: colorutil.Blue},
	}}
}
