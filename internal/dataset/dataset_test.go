package dataset

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"particle-annotator/internal/annotation"
	"particle-annotator/internal/category"
	"particle-annotator/internal/coco"
	"particle-annotator/pkg/geometry"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func triangle(x, y float64) []float64 {
	return []float64{x, y, x + 10, y, x + 5, y + 8}
}

func record(id, imageID int, seg []float64) coco.Annotation {
	return coco.Annotation{ID: id, ImageID: imageID, CategoryID: 2, Segmentation: [][]float64{seg}}
}

func encode(t *testing.T, f *coco.File) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := f.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func newTriangle(w, h int) *annotation.Annotation {
	a := annotation.New(w, h, 1)
	a.Points = []geometry.Point2D{{X: 1, Y: 1}, {X: 20, Y: 1}, {X: 10, Y: 15}}
	return a
}

func TestLoadDirectory(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "data")
	writePNG(t, filepath.Join(dir, "a.png"), 40, 30)
	writePNG(t, filepath.Join(dir, "sub", "b.PNG"), 8, 6)
	if err := os.WriteFile(filepath.Join(dir, "c.jpg"), []byte("not a jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	d := New(nil)
	if err := d.LoadDirectory(dir); err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}

	images := d.Images()
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2: %+v", len(images), images)
	}
	want := []coco.Image{
		{ID: 0, FileName: "data/a.png", Width: 40, Height: 30},
		{ID: 1, FileName: "data/sub/b.PNG", Width: 8, Height: 6},
	}
	for i := range want {
		got := images[i]
		if got.ID != want[i].ID || got.FileName != want[i].FileName ||
			got.Width != want[i].Width || got.Height != want[i].Height {
			t.Errorf("image %d = %+v, want %+v", i, got, want[i])
		}
	}
	if d.Root() != tmp {
		t.Errorf("root = %q, want %q", d.Root(), tmp)
	}
	if d.Path() != dir+".json" {
		t.Errorf("path = %q", d.Path())
	}
	p, err := d.ImagePath(1)
	if err != nil || p != filepath.Join(dir, "sub", "b.PNG") {
		t.Errorf("ImagePath(1) = %q, %v", p, err)
	}
	if len(d.Categories()) != 10 {
		t.Errorf("got %d default categories", len(d.Categories()))
	}
}

func TestLoadDirectoryMissing(t *testing.T) {
	d := New(nil)
	if err := d.LoadDirectory(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("missing folder accepted")
	}
}

func TestMergeScenario(t *testing.T) {
	a := &coco.File{
		Images:      []coco.Image{{ID: 0, FileName: "x.png", Width: 100, Height: 100}},
		Annotations: []coco.Annotation{record(0, 0, triangle(0, 0)), record(1, 0, triangle(30, 30))},
	}
	b := &coco.File{
		Images: []coco.Image{
			{ID: 7, FileName: "x.png", Width: 100, Height: 100},
			{ID: 3, FileName: "y.png", Width: 50, Height: 40},
		},
		Annotations: []coco.Annotation{record(0, 7, triangle(60, 60))},
	}

	d := New(nil)
	if err := d.Load(encode(t, a)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := d.Merge(encode(t, b)); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if d.Len() != 2 {
		t.Fatalf("image count = %d, want 2", d.Len())
	}
	x, ok := d.FindImage("x.png")
	if !ok || x != 0 {
		t.Fatalf("x.png id = %d, %v", x, ok)
	}
	if n := len(d.Annotations(x)); n != 3 {
		t.Errorf("x.png has %d annotations, want 3", n)
	}
	y, ok := d.FindImage("y.png")
	if !ok || y != 1 {
		t.Fatalf("y.png id = %d, %v", y, ok)
	}
	if n := len(d.Annotations(y)); n != 0 {
		t.Errorf("y.png has %d annotations, want 0", n)
	}
	for _, ann := range d.Annotations(x) {
		if ann.ImageID != x {
			t.Errorf("annotation %d has image id %d", ann.ID, ann.ImageID)
		}
	}
}

func TestLoadUnknownImage(t *testing.T) {
	d := New(nil)
	good := &coco.File{Images: []coco.Image{{ID: 0, FileName: "x.png", Width: 10, Height: 10}}}
	if err := d.Load(encode(t, good)); err != nil {
		t.Fatal(err)
	}

	bad := &coco.File{
		Images:      []coco.Image{{ID: 0, FileName: "z.png", Width: 10, Height: 10}},
		Annotations: []coco.Annotation{record(0, 5, triangle(0, 0))},
	}
	if err := d.Load(encode(t, bad)); !errors.Is(err, annotation.ErrUnknownImage) {
		t.Fatalf("Load err = %v, want ErrUnknownImage", err)
	}
	if err := d.Merge(encode(t, bad)); !errors.Is(err, annotation.ErrUnknownImage) {
		t.Fatalf("Merge err = %v, want ErrUnknownImage", err)
	}
	if _, ok := d.FindImage("z.png"); ok || d.Len() != 1 {
		t.Error("failed load or merge modified the dataset")
	}
}

func TestLoadCorrupt(t *testing.T) {
	d := New(nil)
	if err := d.Load(strings.NewReader("{not json")); err == nil {
		t.Error("corrupt document accepted")
	}
	if err := d.LoadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestToJSONRenumbersAnnotations(t *testing.T) {
	d := New(nil)
	doc := &coco.File{Images: []coco.Image{
		{ID: 4, FileName: "p.png", Width: 100, Height: 100},
		{ID: 9, FileName: "q.png", Width: 100, Height: 100},
	}}
	if err := d.Load(encode(t, doc)); err != nil {
		t.Fatal(err)
	}
	var ids []int
	for _, im := range []int{4, 9, 4} {
		a := newTriangle(100, 100)
		if err := d.AddAnnotation(im, a); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, a.ID)
	}
	if _, err := d.DeleteAnnotation(ids[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := d.DeleteAnnotation(ids[0]); !errors.Is(err, ErrNoAnnotation) {
		t.Errorf("second delete err = %v", err)
	}

	out, err := d.ToJSON(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Annotations) != 2 {
		t.Fatalf("got %d annotations", len(out.Annotations))
	}
	for i, rec := range out.Annotations {
		if rec.ID != i {
			t.Errorf("annotation %d has id %d", i, rec.ID)
		}
	}
	if out.Annotations[0].ImageID != 4 || out.Annotations[1].ImageID != 9 {
		t.Errorf("image ids = %d, %d; full export keeps image ids",
			out.Annotations[0].ImageID, out.Annotations[1].ImageID)
	}
	if out.Annotations[0].IsCrowd != 0 {
		t.Error("iscrowd must be 0")
	}
}

func TestToJSONDegenerateFails(t *testing.T) {
	d := New(nil)
	doc := &coco.File{Images: []coco.Image{{ID: 0, FileName: "p.png", Width: 100, Height: 100}}}
	if err := d.Load(encode(t, doc)); err != nil {
		t.Fatal(err)
	}
	flat := annotation.New(100, 100, 1)
	flat.Points = []geometry.Point2D{{X: 1, Y: 1}, {X: 50, Y: 1}, {X: 90, Y: 1}}
	if err := d.AddAnnotation(0, flat); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ToJSON(false); !errors.Is(err, annotation.ErrDegenerate) {
		t.Errorf("err = %v, want ErrDegenerate", err)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := d.WriteJSON(path, false); err == nil {
		t.Fatal("degenerate dataset saved")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed save left a file behind")
	}
}

func TestToJSONUnclassifiedFails(t *testing.T) {
	d := New(nil)
	doc := &coco.File{Images: []coco.Image{{ID: 0, FileName: "p.png", Width: 50, Height: 50}}}
	if err := d.Load(encode(t, doc)); err != nil {
		t.Fatal(err)
	}
	pending := newTriangle(50, 50)
	pending.ClassLabel = category.Auto
	if err := d.AddAnnotation(0, pending); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ToJSON(false); !errors.Is(err, annotation.ErrInvalidLabel) {
		t.Errorf("err = %v, want ErrInvalidLabel", err)
	}
	if err := pending.SetLabel(category.Regular); err != nil {
		t.Fatal(err)
	}
	f, err := d.ToJSON(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Annotations) != 1 || f.Annotations[0].CategoryID != category.Regular {
		t.Errorf("annotations = %+v", f.Annotations)
	}
}

func TestSaveAndReopen(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "shots")
	writePNG(t, filepath.Join(dir, "one.png"), 64, 48)

	d := New(nil)
	if err := d.OpenFolder(dir); err != nil {
		t.Fatal(err)
	}
	a := newTriangle(64, 48)
	a.ClassLabel = 3
	if err := d.AddAnnotation(0, a); err != nil {
		t.Fatal(err)
	}
	if err := d.SetMarked(0, true); err != nil {
		t.Fatal(err)
	}
	if err := d.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again := New(nil)
	if err := again.OpenFolder(dir); err != nil {
		t.Fatal(err)
	}
	anns := again.Annotations(0)
	if len(anns) != 1 {
		t.Fatalf("reopened with %d annotations", len(anns))
	}
	if anns[0].ClassLabel != 3 || len(anns[0].Points) != 3 {
		t.Errorf("reopened annotation = %+v", anns[0])
	}
	if anns[0].ImageWidth != 64 || anns[0].ImageHeight != 48 {
		t.Errorf("image size = %dx%d", anns[0].ImageWidth, anns[0].ImageHeight)
	}
	if again.MarkedCount() != 1 {
		t.Error("marked flag not persisted")
	}
	if again.Root() != tmp {
		t.Errorf("root = %q, want %q", again.Root(), tmp)
	}
}

func TestSubsetExport(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "data")
	writePNG(t, filepath.Join(dir, "a.png"), 30, 30)
	writePNG(t, filepath.Join(dir, "deep", "b.png"), 30, 30)
	writePNG(t, filepath.Join(dir, "c.png"), 30, 30)

	d := New(nil)
	if err := d.LoadDirectory(dir); err != nil {
		t.Fatal(err)
	}
	for _, im := range d.Images() {
		if err := d.AddAnnotation(im.ID, newTriangle(30, 30)); err != nil {
			t.Fatal(err)
		}
	}
	b, _ := d.FindImage("data/deep/b.png")
	c, _ := d.FindImage("data/c.png")
	d.SetMarked(b, true)
	d.SetMarked(c, true)

	if err := d.WriteJSON(filepath.Join(tmp, "subset.json"), true); !errors.Is(err, ErrSubsetTarget) {
		t.Errorf("export onto root err = %v, want ErrSubsetTarget", err)
	}

	out := filepath.Join(tmp, "export", "subset.json")
	if err := d.WriteJSON(out, true); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	for _, rel := range []string{"data/deep/b.png", "data/c.png"} {
		if _, err := os.Stat(filepath.Join(tmp, "export", filepath.FromSlash(rel))); err != nil {
			t.Errorf("%s not copied: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(tmp, "export", "data", "a.png")); !os.IsNotExist(err) {
		t.Error("unmarked image copied")
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	doc, err := coco.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Images) != 2 || len(doc.Annotations) != 2 {
		t.Fatalf("subset has %d images, %d annotations", len(doc.Images), len(doc.Annotations))
	}
	for i, im := range doc.Images {
		if im.ID != i {
			t.Errorf("subset image %q has id %d, want %d", im.FileName, im.ID, i)
		}
	}
	for _, rec := range doc.Annotations {
		if rec.ImageID < 0 || rec.ImageID > 1 {
			t.Errorf("annotation references image %d", rec.ImageID)
		}
	}
}

func TestCategories(t *testing.T) {
	d := New(nil)
	if err := d.RenameCategory(6, "Fibre"); err != nil {
		t.Fatal(err)
	}
	if d.CategoryName(6) != "Fibre" {
		t.Errorf("name = %q", d.CategoryName(6))
	}
	if err := d.RenameCategory(6, "  "); err == nil {
		t.Error("blank name accepted")
	}
	if err := d.RenameCategory(99, "x"); err == nil {
		t.Error("unknown category renamed")
	}
	c := d.AddCategory("Debris")
	if c.ID != 11 {
		t.Errorf("new category id = %d, want 11", c.ID)
	}
	if again := d.AddCategory("Debris"); again.ID != c.ID {
		t.Error("duplicate category added")
	}
}
