// Package classify assigns a category to a finished region from its contour.
package classify

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"particle-annotator/internal/annotation"
	"particle-annotator/internal/category"
	"particle-annotator/pkg/geometry"
)

// ErrInvalidLabel is returned when a classifier yields a label <= 0.
var ErrInvalidLabel = annotation.ErrInvalidLabel

// Classifier maps a closed contour to a category id > 0. Implementations
// must be deterministic for a given contour.
type Classifier interface {
	Classify(contour []image.Point) (int, error)
}

// Func adapts a plain function to Classifier.
type Func func(contour []image.Point) (int, error)

// Classify calls f.
func (f Func) Classify(contour []image.Point) (int, error) {
	return f(contour)
}

// Fixed always returns the same label.
type Fixed int

// Classify returns the fixed label.
func (f Fixed) Classify([]image.Point) (int, error) {
	return int(f), nil
}

// Run classifies contour with c and enforces the label > 0 contract.
func Run(c Classifier, contour []image.Point) (int, error) {
	label, err := c.Classify(contour)
	if err != nil {
		return 0, fmt.Errorf("classifier failed: %w", err)
	}
	if label <= 0 {
		return 0, fmt.Errorf("%w: classifier returned %d", ErrInvalidLabel, label)
	}
	return label, nil
}

// Thresholds tune the shape heuristics.
type Thresholds struct {
	Circularity float64 // above: spherical
	AspectRatio float64 // below: elongated
	Convexity   float64 // below: agglomerated
}

// DefaultThresholds returns the stock heuristic cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{Circularity: 0.85, AspectRatio: 0.5, Convexity: 0.9}
}

// Shape classifies particles by circularity, minimum-area-rectangle aspect
// ratio and convexity, using OpenCV contour measures.
type Shape struct {
	Thresholds Thresholds
}

// NewShape returns a shape classifier with default thresholds.
func NewShape() *Shape {
	return &Shape{Thresholds: DefaultThresholds()}
}

// Measures are the contour statistics the heuristics are built on.
type Measures struct {
	Perimeter   float64
	Area        float64
	Circularity float64
	AspectRatio float64
	Convexity   float64
}

// Measure computes contour statistics.
func Measure(contour []image.Point) (Measures, error) {
	if len(contour) < 3 {
		return Measures{}, fmt.Errorf("contour has %d points, need 3", len(contour))
	}

	pv := gocv.NewPointVectorFromPoints(contour)
	defer pv.Close()

	var m Measures
	m.Perimeter = gocv.ArcLength(pv, true)
	m.Area = gocv.ContourArea(pv)
	if m.Perimeter == 0 || m.Area == 0 {
		return Measures{}, fmt.Errorf("contour has no area")
	}

	// A circle of the same perimeter has area P^2 / 4pi.
	m.Circularity = m.Area / (m.Perimeter * m.Perimeter / 4.0 / math.Pi)

	rect := gocv.MinAreaRect(pv)
	w, h := float64(rect.Width), float64(rect.Height)
	if w > h {
		w, h = h, w
	}
	if h > 0 {
		m.AspectRatio = w / h
	}

	hull := geometry.ConvexHull(toFloat(contour))
	hv := gocv.NewPointVectorFromPoints(toInt(hull))
	defer hv.Close()
	if hullArea := gocv.ContourArea(hv); hullArea > 0 {
		m.Convexity = m.Area / hullArea
	}

	return m, nil
}

// Classify implements Classifier.
func (s *Shape) Classify(contour []image.Point) (int, error) {
	m, err := Measure(contour)
	if err != nil {
		return 0, err
	}
	return s.decide(m), nil
}

func (s *Shape) decide(m Measures) int {
	switch {
	case m.Circularity > s.Thresholds.Circularity:
		return category.Spherical
	case m.AspectRatio < s.Thresholds.AspectRatio:
		return category.Elongated
	case m.Convexity < s.Thresholds.Convexity:
		return category.Agglomerated
	default:
		return category.Regular
	}
}

func toFloat(pts []image.Point) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = geometry.Pt(float64(p.X), float64(p.Y))
	}
	return out
}

func toInt(pts []geometry.Point2D) []image.Point {
	out := make([]image.Point, len(pts))
	for i, p := range pts {
		out[i] = image.Pt(int(p.X), int(p.Y))
	}
	return out
}
