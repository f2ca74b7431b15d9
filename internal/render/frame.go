// Package render draws read-only frame snapshots of the editing canvas.
package render

import (
	"image/color"

	"particle-annotator/internal/tool"
	"particle-annotator/pkg/geometry"
)

// Shape is one annotation as the renderer sees it.
type Shape struct {
	ID       int
	Label    int
	Points   []geometry.Point2D // image space
	Color    color.RGBA
	Selected bool
	Editing  bool
}

// Preview is the live closing edge of the polygon being drawn: from its last
// vertex to the pointer and back to its first vertex.
type Preview struct {
	Last, Mouse, First geometry.Point2D
}

// Frame is an immutable snapshot of everything drawn in one paint.
type Frame struct {
	ImageSize geometry.Size
	// View maps image space to device space.
	View geometry.AffineTransform
	Zoom float64

	Shapes  []Shape
	Preview *Preview
	Overlay tool.Overlay
	Cursor  tool.Overlay

	// Numbered draws each shape's index beside it.
	Numbered bool
}
