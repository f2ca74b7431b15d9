// Package view maps pointer coordinates between the device and image spaces
// under a discrete zoom ladder and a pan offset.
package view

import (
	"fmt"
	"sort"

	"particle-annotator/pkg/geometry"
)

// DefaultLadder is the zoom ladder used when none is configured.
var DefaultLadder = []float64{0.2, 0.25, 0.33, 0.5, 0.67, 0.75, 1.0, 1.5, 2.0, 3.0, 4.0, 6.0, 8.0, 10.0}

// Transform holds the zoom and pan state of the canvas.
type Transform struct {
	ladder []float64
	index  int
	unit   int
	offset geometry.Point2D
	size   geometry.Size
}

// New creates a transform for an image of the given size. The ladder must
// be strictly ascending and contain 1.0.
func New(ladder []float64, width, height int) (*Transform, error) {
	if err := ValidateLadder(ladder); err != nil {
		return nil, err
	}
	unit := sort.SearchFloat64s(ladder, 1.0)
	t := &Transform{
		ladder: append([]float64(nil), ladder...),
		index:  unit,
		unit:   unit,
	}
	t.SetImageSize(width, height)
	return t, nil
}

// ValidateLadder checks that a zoom ladder is usable.
func ValidateLadder(ladder []float64) error {
	if len(ladder) == 0 {
		return fmt.Errorf("zoom ladder is empty")
	}
	hasUnit := false
	for i, z := range ladder {
		if z <= 0 {
			return fmt.Errorf("zoom ladder step %d is not positive: %v", i, z)
		}
		if i > 0 && z <= ladder[i-1] {
			return fmt.Errorf("zoom ladder is not ascending at step %d", i)
		}
		if z == 1.0 {
			hasUnit = true
		}
	}
	if !hasUnit {
		return fmt.Errorf("zoom ladder has no 1.0 step")
	}
	return nil
}

// SetImageSize sets the bounds used to clamp image coordinates.
func (t *Transform) SetImageSize(width, height int) {
	t.size = geometry.Size{Width: float64(width), Height: float64(height)}
}

// ImageSize returns the current clamp bounds.
func (t *Transform) ImageSize() geometry.Size {
	return t.size
}

// Zoom returns the current scale factor.
func (t *Transform) Zoom() float64 {
	return t.ladder[t.index]
}

// Offset returns the current pan offset in device pixels.
func (t *Transform) Offset() geometry.Point2D {
	return t.offset
}

// DeviceToImage converts a pointer position to clamped image coordinates.
func (t *Transform) DeviceToImage(px, py float64) geometry.Point2D {
	z := t.Zoom()
	p := geometry.Point2D{X: (px - t.offset.X) / z, Y: (py - t.offset.Y) / z}
	return t.size.Clamp(p)
}

// ImageToDevice converts image coordinates to device coordinates.
func (t *Transform) ImageToDevice(p geometry.Point2D) geometry.Point2D {
	return t.Affine().Apply(p)
}

// Affine returns the device-from-image transform.
func (t *Transform) Affine() geometry.AffineTransform {
	z := t.Zoom()
	return geometry.Translation(t.offset.X, t.offset.Y).Compose(geometry.Scale(z, z))
}

// ZoomIn advances one ladder step. It reports false at the top of the ladder.
func (t *Transform) ZoomIn() bool {
	if t.index >= len(t.ladder)-1 {
		return false
	}
	t.index++
	return true
}

// ZoomOut retreats one ladder step. It reports false at the bottom.
func (t *Transform) ZoomOut() bool {
	if t.index == 0 {
		return false
	}
	t.index--
	return true
}

// ResetView restores unit zoom and a zero pan offset.
func (t *Transform) ResetView() {
	t.index = t.unit
	t.offset = geometry.Point2D{}
}

// Pan translates the offset by a device-space delta.
func (t *Transform) Pan(dx, dy float64) {
	t.offset.X += dx
	t.offset.Y += dy
}
