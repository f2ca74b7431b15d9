// Package tool implements the gesture interpreters that mutate one
// annotation's vertex list.
package tool

import (
	"fmt"
	"image/color"

	"particle-annotator/internal/annotation"
	"particle-annotator/pkg/geometry"
)

// Kind identifies a tool.
type Kind int

const (
	KindPolygon Kind = iota
	KindBrush
	KindCircle
	KindGrab
	KindPump
)

// Kinds lists every tool in tool box order.
var Kinds = []Kind{KindPolygon, KindBrush, KindCircle, KindGrab, KindPump}

func (k Kind) String() string {
	switch k {
	case KindPolygon:
		return "Polygon Tool"
	case KindBrush:
		return "Brush Tool"
	case KindCircle:
		return "Circle Tool"
	case KindGrab:
		return "Grab Tool"
	case KindPump:
		return "Pump Tool"
	default:
		return fmt.Sprintf("Tool(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Tool interprets pointer gestures in image space and mutates the annotation
// passed to each call. Tools never keep the annotation beyond tool-local
// gesture state and never touch its editing flag.
type Tool interface {
	Kind() Kind

	// Add is the primary gesture start.
	Add(p geometry.Point2D, a *annotation.Annotation)
	// AddMove runs while the primary button is held and the pointer moves.
	AddMove(p geometry.Point2D, a *annotation.Annotation)
	// Remove is the secondary gesture start.
	Remove(p geometry.Point2D, a *annotation.Annotation)
	// RemoveMove runs while the secondary button is held.
	RemoveMove(p geometry.Point2D, a *annotation.Annotation)
	// Release is called when a pointer button goes up.
	Release(primary bool)
	// Reset clears tool-local state.
	Reset()

	// ShowNextPoint asks the renderer to preview the closing edge to the pointer.
	ShowNextPoint() bool
	// Cursor returns the cursor glyph at p.
	Cursor(p geometry.Point2D) Overlay
	// Overlay returns extra guides for the annotation being edited.
	Overlay(mouse geometry.Point2D, a *annotation.Annotation) Overlay
}

// Ring is an overlay circle primitive.
type Ring struct {
	Center geometry.Point2D
	Radius float64
	Color  color.RGBA
}

// Segment is an overlay line primitive.
type Segment struct {
	From, To geometry.Point2D
	Color    color.RGBA
	Dashed   bool
}

// Overlay is a renderer-neutral set of presentation primitives in image space.
type Overlay struct {
	Rings    []Ring
	Segments []Segment
}

// Merge appends o2's primitives to o.
func (o Overlay) Merge(o2 Overlay) Overlay {
	o.Rings = append(o.Rings, o2.Rings...)
	o.Segments = append(o.Segments, o2.Segments...)
	return o
}

// Empty reports whether the overlay has nothing to draw.
func (o Overlay) Empty() bool {
	return len(o.Rings) == 0 && len(o.Segments) == 0
}

// base provides no-op defaults for the optional parts of Tool.
type base struct{}

func (base) Release(bool)        {}
func (base) Reset()              {}
func (base) ShowNextPoint() bool { return false }

func (base) Overlay(geometry.Point2D, *annotation.Annotation) Overlay {
	return Overlay{}
}
