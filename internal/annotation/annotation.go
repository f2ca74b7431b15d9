// Package annotation provides the closed-polygon region entity and its
// COCO encoding.
package annotation

import (
	"errors"
	"fmt"
	"image"
	"math"

	"particle-annotator/internal/category"
	"particle-annotator/internal/coco"
	"particle-annotator/pkg/geometry"
)

var (
	// ErrDegenerate is returned when a polygon has no usable area.
	ErrDegenerate = errors.New("degenerate polygon")
	// ErrUnknownImage is returned when a record references a missing image.
	ErrUnknownImage = errors.New("unknown image id")
	// ErrInvalidLabel is returned for category labels <= 0.
	ErrInvalidLabel = errors.New("invalid class label")
)

// Annotation is a closed polygon over one image. Points are in image space;
// the first and last points are implicitly joined.
type Annotation struct {
	ID          int
	ImageID     int
	Points      []geometry.Point2D
	ImageWidth  int
	ImageHeight int
	ClassLabel  int

	// Transient UI state, never persisted.
	IsEditing  bool
	IsSelected bool
}

// New creates an empty annotation for an image of the given size.
func New(width, height, label int) *Annotation {
	return &Annotation{
		ImageWidth:  width,
		ImageHeight: height,
		ClassLabel:  label,
	}
}

// NeedsClassification reports whether the label is still the auto sentinel.
func (a *Annotation) NeedsClassification() bool {
	return a.ClassLabel <= category.Auto
}

// SetLabel assigns a category. Labels must be positive.
func (a *Annotation) SetLabel(label int) error {
	if label <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLabel, label)
	}
	a.ClassLabel = label
	return nil
}

// Size returns the owning image's dimensions.
func (a *Annotation) Size() geometry.Size {
	return geometry.Size{Width: float64(a.ImageWidth), Height: float64(a.ImageHeight)}
}

// Clamp limits p to the owning image's bounds.
func (a *Annotation) Clamp(p geometry.Point2D) geometry.Point2D {
	return a.Size().Clamp(p)
}

// Contains reports whether p lies inside the polygon.
func (a *Annotation) Contains(p geometry.Point2D) bool {
	return geometry.PointInPolygon(p, a.Points)
}

// BoundingBox returns the float bounding box over all vertices.
func (a *Annotation) BoundingBox() geometry.Rect {
	return geometry.BoundingBox(a.Points)
}

// ExportBoundingBox returns the bounding box truncated to integers.
func (a *Annotation) ExportBoundingBox() geometry.RectInt {
	return a.BoundingBox().Truncate()
}

// Area is the bounding-box area used as the export validity gate.
func (a *Annotation) Area() float64 {
	return a.BoundingBox().Area()
}

// ExportPolygon flattens the vertices to [x0, y0, x1, y1, ...], truncated.
func (a *Annotation) ExportPolygon() []int {
	flat := make([]int, 0, 2*len(a.Points))
	for _, p := range a.Points {
		flat = append(flat, int(p.X), int(p.Y))
	}
	return flat
}

// Contour returns the vertices as integer points for contour analysis.
func (a *Annotation) Contour() []image.Point {
	pts := make([]image.Point, len(a.Points))
	for i, p := range a.Points {
		pts[i] = image.Pt(int(p.X), int(p.Y))
	}
	return pts
}

// Validate checks that the polygon can be exported: it must enclose an
// area and carry a category.
func (a *Annotation) Validate() error {
	if len(a.Points) < 3 {
		return fmt.Errorf("%w: %d vertices", ErrDegenerate, len(a.Points))
	}
	if area := a.Area(); area < 1 {
		return fmt.Errorf("%w: bounding box area %.3f", ErrDegenerate, area)
	}
	if geometry.SignedArea(a.Points) == 0 {
		return fmt.Errorf("%w: zero signed area", ErrDegenerate)
	}
	if a.ClassLabel <= 0 {
		return fmt.Errorf("%w: %d (not classified yet)", ErrInvalidLabel, a.ClassLabel)
	}
	return nil
}

// ToRecord encodes the annotation. Nothing is emitted for degenerate polygons.
func (a *Annotation) ToRecord() (coco.Annotation, error) {
	if err := a.Validate(); err != nil {
		return coco.Annotation{}, err
	}

	bbox := a.ExportBoundingBox()
	flat := a.ExportPolygon()
	seg := make([]float64, len(flat))
	for i, v := range flat {
		seg[i] = float64(v)
	}

	return coco.Annotation{
		ID:           a.ID,
		ImageID:      a.ImageID,
		CategoryID:   a.ClassLabel,
		BBox:         [4]float64{float64(bbox.X), float64(bbox.Y), float64(bbox.Width), float64(bbox.Height)},
		Segmentation: [][]float64{seg},
		Area:         a.Area(),
		IsCrowd:      0,
	}, nil
}

// FromRecord rebuilds an annotation from its record. The image size comes
// from the referenced image, which must exist.
func FromRecord(imagesByID map[int]coco.Image, rec coco.Annotation) (*Annotation, error) {
	im, ok := imagesByID[rec.ImageID]
	if !ok {
		return nil, fmt.Errorf("annotation %d: %w %d", rec.ID, ErrUnknownImage, rec.ImageID)
	}
	if len(rec.Segmentation) == 0 {
		return nil, fmt.Errorf("annotation %d: empty segmentation", rec.ID)
	}

	flat := rec.Segmentation[0]
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("annotation %d: odd segmentation length %d", rec.ID, len(flat))
	}
	points := make([]geometry.Point2D, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		if math.IsNaN(flat[i]) || math.IsNaN(flat[i+1]) {
			return nil, fmt.Errorf("annotation %d: NaN vertex", rec.ID)
		}
		points = append(points, geometry.Point2D{X: flat[i], Y: flat[i+1]})
	}

	a := New(im.Width, im.Height, rec.CategoryID)
	a.ID = rec.ID
	a.ImageID = rec.ImageID
	a.Points = points
	return a, nil
}

// Clone returns a deep copy.
func (a *Annotation) Clone() *Annotation {
	c := *a
	c.Points = append([]geometry.Point2D(nil), a.Points...)
	return &c
}
