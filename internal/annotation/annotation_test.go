package annotation

import (
	"errors"
	"math"
	"testing"

	"particle-annotator/internal/coco"
	"particle-annotator/pkg/geometry"
)

func pentagon() *Annotation {
	a := New(200, 100, 2)
	a.ImageID = 7
	a.Points = []geometry.Point2D{
		{X: 10.7, Y: 20.2}, {X: 40.1, Y: 12.9}, {X: 60.5, Y: 40.4},
		{X: 35.3, Y: 70.8}, {X: 8.9, Y: 55.5},
	}
	return a
}

func TestToRecord(t *testing.T) {
	a := pentagon()
	rec, err := a.ToRecord()
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	if rec.ImageID != 7 || rec.CategoryID != 2 || rec.IsCrowd != 0 {
		t.Errorf("unexpected header fields: %+v", rec)
	}
	wantBBox := [4]float64{8, 12, 51, 57}
	if rec.BBox != wantBBox {
		t.Errorf("bbox = %v, want %v", rec.BBox, wantBBox)
	}
	bb := a.BoundingBox()
	if rec.Area != bb.Width*bb.Height {
		t.Errorf("area = %v, want %v", rec.Area, bb.Width*bb.Height)
	}
	if len(rec.Segmentation) != 1 || len(rec.Segmentation[0]) != 10 {
		t.Fatalf("segmentation shape = %v", rec.Segmentation)
	}
	for _, v := range rec.Segmentation[0] {
		if v != math.Trunc(v) {
			t.Errorf("segmentation value %v is not integral", v)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	a := pentagon()
	rec, err := a.ToRecord()
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	images := map[int]coco.Image{7: {ID: 7, Width: 200, Height: 100}}
	b, err := FromRecord(images, rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if len(b.Points) != len(a.Points) {
		t.Fatalf("vertex count %d, want %d", len(b.Points), len(a.Points))
	}
	for i := range a.Points {
		if math.Abs(a.Points[i].X-b.Points[i].X) >= 1 || math.Abs(a.Points[i].Y-b.Points[i].Y) >= 1 {
			t.Errorf("vertex %d: %v vs %v", i, a.Points[i], b.Points[i])
		}
	}
	if b.ImageWidth != 200 || b.ImageHeight != 100 || b.ClassLabel != 2 {
		t.Errorf("restored fields: %+v", b)
	}
}

func TestToRecordRejectsDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		points []geometry.Point2D
	}{
		{"empty", nil},
		{"two points", []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 10}}},
		{"horizontal line", []geometry.Point2D{{X: 0, Y: 5}, {X: 10, Y: 5}, {X: 20, Y: 5}}},
		{"sub-pixel", []geometry.Point2D{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 0.9}}},
		{"collinear diagonal", []geometry.Point2D{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(100, 100, 1)
			a.Points = tt.points
			if _, err := a.ToRecord(); !errors.Is(err, ErrDegenerate) {
				t.Errorf("err = %v, want ErrDegenerate", err)
			}
		})
	}
}

func TestToRecordRejectsUnclassified(t *testing.T) {
	a := pentagon()
	a.ClassLabel = 0
	if _, err := a.ToRecord(); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("err = %v, want ErrInvalidLabel", err)
	}
}

func TestFromRecordUnknownImage(t *testing.T) {
	rec := coco.Annotation{ID: 1, ImageID: 3, CategoryID: 1, Segmentation: [][]float64{{0, 0, 5, 0, 5, 5}}}
	if _, err := FromRecord(map[int]coco.Image{}, rec); !errors.Is(err, ErrUnknownImage) {
		t.Errorf("err = %v, want ErrUnknownImage", err)
	}
}

func TestSetLabel(t *testing.T) {
	a := New(10, 10, 0)
	if !a.NeedsClassification() {
		t.Error("label 0 should need classification")
	}
	if err := a.SetLabel(0); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("SetLabel(0) err = %v", err)
	}
	if err := a.SetLabel(3); err != nil || a.ClassLabel != 3 {
		t.Errorf("SetLabel(3) err=%v label=%d", err, a.ClassLabel)
	}
}

func TestContains(t *testing.T) {
	a := pentagon()
	if !a.Contains(geometry.Pt(30, 40)) {
		t.Error("interior point not contained")
	}
	if a.Contains(geometry.Pt(150, 90)) {
		t.Error("exterior point contained")
	}
}
