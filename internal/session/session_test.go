package session

import (
	"bytes"
	"errors"
	"testing"

	"particle-annotator/internal/annotation"
	"particle-annotator/internal/category"
	"particle-annotator/internal/classify"
	"particle-annotator/internal/coco"
	"particle-annotator/internal/dataset"
	"particle-annotator/internal/tool"
	"particle-annotator/pkg/geometry"
)

func newDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	doc := &coco.File{Images: []coco.Image{
		{ID: 0, FileName: "a.png", Width: 200, Height: 100},
		{ID: 1, FileName: "b.png", Width: 50, Height: 50},
	}}
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	d := dataset.New(nil)
	if err := d.Load(&buf); err != nil {
		t.Fatal(err)
	}
	return d
}

func newSession(t *testing.T, c classify.Classifier) (*Session, *dataset.Dataset) {
	t.Helper()
	d := newDataset(t)
	s, err := New(d, c, DefaultOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetImage(0); err != nil {
		t.Fatal(err)
	}
	return s, d
}

func dispatch(t *testing.T, s *Session, events ...Event) Effects {
	t.Helper()
	var fx Effects
	for _, ev := range events {
		got, err := s.Dispatch(ev)
		if err != nil {
			t.Fatalf("Dispatch(%#v): %v", ev, err)
		}
		fx = fx.Merge(got)
		assertSingleEditor(t, s)
	}
	return fx
}

func click(x, y float64) []Event {
	return []Event{PointerDown{X: x, Y: y, Button: ButtonPrimary}, PointerUp{Button: ButtonPrimary}}
}

func assertSingleEditor(t *testing.T, s *Session) {
	t.Helper()
	d := s.store.(*dataset.Dataset)
	n := 0
	for _, im := range d.Images() {
		for _, a := range d.Annotations(im.ID) {
			if a.IsEditing {
				n++
				if a != s.Editing() {
					t.Fatalf("annotation %d is editing but the session holds %v", a.ID, s.Editing())
				}
			}
		}
	}
	if n > 1 {
		t.Fatalf("%d annotations are editing", n)
	}
}

func addSquare(t *testing.T, d *dataset.Dataset, imageID int, x, y, size float64, label int) *annotation.Annotation {
	t.Helper()
	im, _ := d.Image(imageID)
	a := annotation.New(im.Width, im.Height, label)
	a.Points = []geometry.Point2D{{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}}
	if err := d.AddAnnotation(imageID, a); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestDrawPolygonAndFinish(t *testing.T) {
	s, d := newSession(t, classify.Fixed(category.Spherical))

	var events []Event
	for _, p := range [][2]float64{{10, 10}, {60, 10}, {35, 50}} {
		events = append(events, click(p[0], p[1])...)
	}
	fx := dispatch(t, s, events...)
	if !fx.AnnotationsChanged || !fx.Repaint {
		t.Errorf("effects = %+v", fx)
	}
	if s.Mode() != Editing {
		t.Fatalf("mode = %v, want editing", s.Mode())
	}
	anns := d.Annotations(0)
	if len(anns) != 1 || len(anns[0].Points) != 3 {
		t.Fatalf("annotations = %+v", anns)
	}
	if anns[0].ClassLabel != category.Auto {
		t.Errorf("new annotation label = %d, want auto", anns[0].ClassLabel)
	}

	fx = dispatch(t, s, FinishEdit{})
	if s.Mode() != Idle || anns[0].IsEditing {
		t.Error("finish did not return to idle")
	}
	if len(fx.Classified) != 1 || fx.Classified[0].Label != category.Spherical {
		t.Errorf("classified = %+v", fx.Classified)
	}
	if anns[0].ClassLabel != category.Spherical {
		t.Errorf("label = %d", anns[0].ClassLabel)
	}
}

func TestSelectedClassSkipsClassifier(t *testing.T) {
	s, d := newSession(t, classify.Fixed(category.Spherical))
	dispatch(t, s, SelectClass{Label: category.Platelet})
	dispatch(t, s, click(10, 10)...)
	dispatch(t, s, click(50, 10)...)
	dispatch(t, s, click(30, 40)...)
	fx := dispatch(t, s, DoubleClick{Button: ButtonPrimary})
	if len(fx.Classified) != 0 {
		t.Errorf("classifier ran for a labelled annotation: %+v", fx.Classified)
	}
	if got := d.Annotations(0)[0].ClassLabel; got != category.Platelet {
		t.Errorf("label = %d, want platelet", got)
	}
	if _, err := s.Dispatch(SelectClass{Label: -1}); !errors.Is(err, annotation.ErrInvalidLabel) {
		t.Errorf("negative class err = %v", err)
	}
}

func TestEditSwitchClearsPreviousEditor(t *testing.T) {
	s, d := newSession(t, classify.Fixed(category.Regular))
	a := addSquare(t, d, 0, 10, 10, 20, category.Regular)
	b := addSquare(t, d, 0, 100, 10, 20, category.Regular)

	dispatch(t, s, EditAnnotation{ID: a.ID})
	if !a.IsEditing || s.Editing() != a {
		t.Fatal("a not editing")
	}
	dispatch(t, s, EditAnnotation{ID: b.ID})
	if a.IsEditing {
		t.Error("a still editing after b was opened")
	}
	if !b.IsEditing || s.Editing() != b {
		t.Error("b not editing")
	}
	if !b.IsSelected || a.IsSelected {
		t.Error("selection did not follow the editor")
	}

	if _, err := s.Dispatch(EditAnnotation{ID: 999}); !errors.Is(err, ErrNoAnnotation) {
		t.Errorf("unknown id err = %v", err)
	}
}

func TestDetachClearsFlags(t *testing.T) {
	s, d := newSession(t, classify.Fixed(category.Regular))
	a := addSquare(t, d, 0, 10, 10, 20, category.Auto)
	b := addSquare(t, d, 0, 100, 10, 20, category.Regular)

	dispatch(t, s, EditAnnotation{ID: a.ID})
	s.Detach()
	if a.IsEditing || a.IsSelected || s.Editing() != nil {
		t.Fatalf("detach left a flagged: editing=%v selected=%v", a.IsEditing, a.IsSelected)
	}

	if _, err := s.SetImage(0); err != nil {
		t.Fatal(err)
	}
	dispatch(t, s, EditAnnotation{ID: b.ID})
	if a.IsEditing || !b.IsEditing {
		t.Errorf("editing flags a=%v b=%v", a.IsEditing, b.IsEditing)
	}
}

func TestEditAcrossImages(t *testing.T) {
	s, d := newSession(t, classify.Fixed(category.Regular))
	other := addSquare(t, d, 1, 5, 5, 10, category.Regular)

	dispatch(t, s, click(20, 20)...)
	dispatch(t, s, click(60, 20)...)
	dispatch(t, s, click(40, 60)...)
	first := s.Editing()

	fx := dispatch(t, s, EditAnnotation{ID: other.ID})
	if id, _ := s.ImageID(); id != 1 {
		t.Errorf("image = %d, want 1", id)
	}
	if first.IsEditing || first.ClassLabel != category.Regular {
		t.Errorf("first annotation not finished: %+v", first)
	}
	if len(fx.Classified) != 1 {
		t.Errorf("classified = %+v", fx.Classified)
	}
	if s.View().ImageSize().Width != 50 {
		t.Error("view not resized for the new image")
	}
}

func TestPressOverExistingSelects(t *testing.T) {
	s, d := newSession(t, nil)
	a := addSquare(t, d, 0, 10, 10, 40, category.Regular)

	fx := dispatch(t, s, click(30, 30)...)
	if !fx.SelectionChanged || s.Selected() != a || !a.IsSelected {
		t.Error("press inside annotation did not select it")
	}
	if s.Mode() != Idle || len(d.Annotations(0)) != 1 {
		t.Error("press inside annotation started a new one")
	}

	dispatch(t, s, DoubleClick{Button: ButtonPrimary})
	if s.Editing() != a {
		t.Error("double click did not open the annotation")
	}

	dispatch(t, s, FinishEdit{})
	dispatch(t, s, PointerDown{X: 150, Y: 80, Button: ButtonSecondary}, PointerUp{Button: ButtonSecondary})
	if s.Selected() != nil || a.IsSelected {
		t.Error("secondary press on empty space kept the selection")
	}
	if len(d.Annotations(0)) != 1 {
		t.Error("secondary press created an annotation")
	}
}

func TestDeleteEditingReturnsToIdle(t *testing.T) {
	s, d := newSession(t, classify.Fixed(category.Regular))
	dispatch(t, s, click(10, 10)...)
	id := s.Editing().ID

	fx := dispatch(t, s, DeleteAnnotation{ID: id})
	if s.Mode() != Idle || s.Selected() != nil {
		t.Error("session still holds the deleted annotation")
	}
	if !fx.AnnotationsChanged || len(d.Annotations(0)) != 0 {
		t.Error("annotation not removed")
	}
	if _, err := s.Dispatch(DeleteAnnotation{ID: id}); !errors.Is(err, dataset.ErrNoAnnotation) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestFinishDiscardsEmptyAnnotation(t *testing.T) {
	s, d := newSession(t, classify.Fixed(category.Regular))
	dispatch(t, s, SelectTool{Kind: tool.KindBrush})
	dispatch(t, s, click(10, 10)...)
	if s.Mode() != Editing || len(d.Annotations(0)) != 1 {
		t.Fatal("brush press did not open an annotation")
	}
	fx := dispatch(t, s, FinishEdit{})
	if len(d.Annotations(0)) != 0 || len(fx.Classified) != 0 {
		t.Error("empty annotation kept or classified")
	}
}

func TestClassifierFailureKeepsEditing(t *testing.T) {
	s, d := newSession(t, classify.Fixed(0))
	dispatch(t, s, click(10, 10)...)
	dispatch(t, s, click(50, 10)...)
	dispatch(t, s, click(30, 40)...)

	if _, err := s.Dispatch(FinishEdit{}); !errors.Is(err, classify.ErrInvalidLabel) {
		t.Fatalf("err = %v, want ErrInvalidLabel", err)
	}
	if s.Mode() != Editing || !d.Annotations(0)[0].IsEditing {
		t.Error("failed classification closed the edit")
	}
}

func TestSetLabel(t *testing.T) {
	s, d := newSession(t, nil)
	a := addSquare(t, d, 0, 10, 10, 20, category.Regular)
	dispatch(t, s, SetLabel{ID: a.ID, Label: category.User2})
	if a.ClassLabel != category.User2 {
		t.Errorf("label = %d", a.ClassLabel)
	}
	if _, err := s.Dispatch(SetLabel{ID: a.ID, Label: 0}); !errors.Is(err, annotation.ErrInvalidLabel) {
		t.Errorf("zero label err = %v", err)
	}
}

func TestPanGesture(t *testing.T) {
	s, d := newSession(t, nil)
	fx := dispatch(t, s,
		PointerDown{X: 5, Y: 5, Button: ButtonPrimary, Shift: true},
		PointerMove{X: 35, Y: 25},
		PointerMove{X: 45, Y: 30},
		PointerUp{Button: ButtonPrimary},
	)
	if !fx.ViewChanged {
		t.Error("pan did not report a view change")
	}
	if off := s.View().Offset(); off != geometry.Pt(40, 25) {
		t.Errorf("offset = %v, want (40, 25)", off)
	}
	if len(d.Annotations(0)) != 0 {
		t.Error("pan created an annotation")
	}

	dispatch(t, s, PointerDown{X: 0, Y: 0, Button: ButtonMiddle}, PointerMove{X: -10, Y: 0}, PointerUp{Button: ButtonMiddle})
	if off := s.View().Offset(); off != geometry.Pt(30, 25) {
		t.Errorf("offset after middle drag = %v", off)
	}

	dispatch(t, s, Nudge{DX: 5, DY: -5})
	if off := s.View().Offset(); off != geometry.Pt(35, 20) {
		t.Errorf("offset after nudge = %v", off)
	}
	dispatch(t, s, ResetView{})
	if off := s.View().Offset(); off != (geometry.Point2D{}) || s.View().Zoom() != 1 {
		t.Error("reset view")
	}
}

func TestPointerMapsThroughView(t *testing.T) {
	s, d := newSession(t, nil)
	dispatch(t, s, ZoomIn{}, Nudge{DX: 10, DY: 10}) // zoom 1.5
	dispatch(t, s, click(40, 25)...)
	dispatch(t, s, click(1000, -50)...)

	pts := d.Annotations(0)[0].Points
	if pts[0] != geometry.Pt(20, 10) {
		t.Errorf("first vertex = %v, want (20, 10)", pts[0])
	}
	if pts[1] != geometry.Pt(200, 0) {
		t.Errorf("clamped vertex = %v, want (200, 0)", pts[1])
	}
}

func TestWheelZoom(t *testing.T) {
	s, _ := newSession(t, nil)
	dispatch(t, s, Wheel{Delta: 1})
	if s.View().Zoom() != 1.5 {
		t.Errorf("zoom = %v", s.View().Zoom())
	}
	dispatch(t, s, Wheel{Delta: -1}, Wheel{Delta: -1})
	if s.View().Zoom() != 0.75 {
		t.Errorf("zoom = %v", s.View().Zoom())
	}
	if fx := dispatch(t, s, Wheel{}); fx.ViewChanged {
		t.Error("zero delta changed the view")
	}
}

func TestGrabThroughSession(t *testing.T) {
	s, d := newSession(t, nil)
	a := addSquare(t, d, 0, 10, 10, 40, category.Regular)
	dispatch(t, s, EditAnnotation{ID: a.ID}, SelectTool{Kind: tool.KindGrab})

	dispatch(t, s,
		PointerDown{X: 11, Y: 11, Button: ButtonPrimary},
		PointerMove{X: 5, Y: 3},
		PointerUp{Button: ButtonPrimary},
		PointerMove{X: 90, Y: 90},
	)
	if a.Points[0] != geometry.Pt(5, 3) {
		t.Errorf("grabbed vertex = %v", a.Points[0])
	}
	if a.Points[2] != geometry.Pt(50, 50) {
		t.Errorf("other vertex moved to %v", a.Points[2])
	}
}

func TestPointerWithoutImage(t *testing.T) {
	s, err := New(newDataset(t), nil, DefaultOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Dispatch(PointerDown{X: 1, Y: 1}); !errors.Is(err, ErrNoImage) {
		t.Errorf("err = %v, want ErrNoImage", err)
	}
	if _, err := s.SetImage(42); !errors.Is(err, dataset.ErrNoImage) {
		t.Errorf("SetImage(42) err = %v", err)
	}
}

func TestFramePreview(t *testing.T) {
	s, _ := newSession(t, nil)
	dispatch(t, s, click(10, 10)...)
	dispatch(t, s, click(50, 10)...)
	dispatch(t, s, PointerMove{X: 30, Y: 40})

	f := s.Frame()
	if len(f.Shapes) != 1 || !f.Shapes[0].Editing {
		t.Fatalf("shapes = %+v", f.Shapes)
	}
	if f.Preview == nil {
		t.Fatal("polygon tool should preview the closing edge")
	}
	want := geometry.Pt(30, 40)
	if f.Preview.Mouse != want || f.Preview.Last != geometry.Pt(50, 10) || f.Preview.First != geometry.Pt(10, 10) {
		t.Errorf("preview = %+v", *f.Preview)
	}

	dispatch(t, s, SelectTool{Kind: tool.KindPump})
	if s.Frame().Preview != nil {
		t.Error("pump tool should not preview")
	}
}
