package tool

import (
	"particle-annotator/internal/annotation"
	"particle-annotator/pkg/colorutil"
	"particle-annotator/pkg/geometry"
)

// Grab picks the vertex nearest the press and drags it with the pointer
// until the primary button is released.
type Grab struct {
	index int
}

// NewGrab returns a grab tool with no active target.
func NewGrab() *Grab {
	return &Grab{index: -1}
}

func (*Grab) Kind() Kind { return KindGrab }

// Target returns the grabbed vertex index, or -1.
func (g *Grab) Target() int {
	return g.index
}

func (g *Grab) Add(p geometry.Point2D, a *annotation.Annotation) {
	g.index = geometry.NearestIndex(p, a.Points)
}

func (g *Grab) AddMove(p geometry.Point2D, a *annotation.Annotation) {
	if g.index < 0 || g.index >= len(a.Points) {
		return
	}
	a.Points[g.index] = p
}

func (*Grab) Remove(geometry.Point2D, *annotation.Annotation) {}

func (*Grab) RemoveMove(geometry.Point2D, *annotation.Annotation) {}

func (g *Grab) Release(primary bool) {
	if primary {
		g.index = -1
	}
}

func (g *Grab) Reset() {
	g.index = -1
}

func (*Grab) ShowNextPoint() bool { return false }

func (*Grab) Cursor(p geometry.Point2D) Overlay {
	return Overlay{Segments: []Segment{
		{From: geometry.Pt(p.X, p.Y-10), To: geometry.Pt(p.X, p.Y+10), Color: colorutil.Blue},
		{From: geometry.Pt(p.X-10, p.Y), To: geometry.Pt(p.X+10, p.Y), Color: colorutil.Blue},
	}}
}

// Overlay highlights the grabbed vertex, or the one a press would grab.
func (g *Grab) Overlay(mouse geometry.Point2D, a *annotation.Annotation) Overlay {
	i := g.index
	if i < 0 || i >= len(a.Points) {
		i = geometry.NearestIndex(mouse, a.Points)
	}
	if i < 0 {
		return Overlay{}
	}
	return Overlay{Rings: []Ring{{Center: a.Points[i], Radius: 5, Color: colorutil.Blue}}}
}
