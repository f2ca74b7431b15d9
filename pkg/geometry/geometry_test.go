package geometry

import (
	"math"
	"testing"
)

func TestCentroid(t *testing.T) {
	got := Centroid([]Point2D{{0, 0}, {4, 0}, {4, 2}, {0, 2}})
	if got != (Point2D{2, 1}) {
		t.Errorf("Centroid = %v, want {2 1}", got)
	}
	if got := Centroid(nil); got != (Point2D{}) {
		t.Errorf("Centroid(nil) = %v", got)
	}
}

func TestBoundingBox(t *testing.T) {
	r := BoundingBox([]Point2D{{3, 7}, {-1, 2}, {5.5, 4}})
	want := Rect{X: -1, Y: 2, Width: 6.5, Height: 5}
	if r != want {
		t.Errorf("BoundingBox = %+v, want %+v", r, want)
	}
	if ri := r.Truncate(); ri != (RectInt{X: -1, Y: 2, Width: 6, Height: 5}) {
		t.Errorf("Truncate = %+v", ri)
	}
}

func TestSignedArea(t *testing.T) {
	tests := []struct {
		name string
		poly []Point2D
		want float64
	}{
		{"ccw square", []Point2D{{0, 0}, {2, 0}, {2, 2}, {0, 2}}, 4},
		{"cw square", []Point2D{{0, 0}, {0, 2}, {2, 2}, {2, 0}}, -4},
		{"collinear", []Point2D{{0, 0}, {1, 1}, {2, 2}}, 0},
		{"two points", []Point2D{{0, 0}, {1, 1}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SignedArea(tt.poly); got != tt.want {
				t.Errorf("SignedArea = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	square := []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if !PointInPolygon(Pt(5, 5), square) {
		t.Error("centre should be inside")
	}
	if PointInPolygon(Pt(15, 5), square) {
		t.Error("outside point reported inside")
	}
}

func TestNearestIndexTieBreak(t *testing.T) {
	pts := []Point2D{{0, 0}, {2, 0}, {1, 5}}
	if got := NearestIndex(Pt(1, 0), pts); got != 0 {
		t.Errorf("NearestIndex = %d, want 0 (first of equal candidates)", got)
	}
	if got := NearestIndex(Pt(1, 0), nil); got != -1 {
		t.Errorf("NearestIndex(empty) = %d, want -1", got)
	}
}

func TestGenerateCirclePoints(t *testing.T) {
	c := Pt(5, 5)
	pts := GenerateCirclePoints(c, 3, 51)
	if len(pts) != 51 {
		t.Fatalf("len = %d", len(pts))
	}
	for _, p := range pts {
		if d := p.Distance(c); math.Abs(d-3) > 1e-9 {
			t.Fatalf("point %v at distance %v", p, d)
		}
	}
}

func TestConvexHull(t *testing.T) {
	pts := []Point2D{{0, 0}, {4, 0}, {2, 1}, {4, 4}, {0, 4}}
	hull := ConvexHull(pts)
	if len(hull) != 4 {
		t.Errorf("hull has %d points, want 4: %v", len(hull), hull)
	}
	for _, p := range hull {
		if p == Pt(2, 1) {
			t.Errorf("interior point %v kept in hull", p)
		}
	}
}
