package dataset

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"particle-annotator/internal/annotation"
	"particle-annotator/internal/category"
	"particle-annotator/internal/coco"
)

// LoadJSON replaces the dataset with the document at path. Relative image
// names resolve against the file's directory from then on.
func (d *Dataset) LoadJSON(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	if err := d.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	d.SetPath(path)
	return nil
}

// Load replaces the dataset with the document read from r. On error the
// dataset is left unchanged.
func (d *Dataset) Load(r io.Reader) error {
	doc, err := coco.Decode(r)
	if err != nil {
		return err
	}

	imagesByID := make(map[int]coco.Image, len(doc.Images))
	nextImageID := 0
	for _, im := range doc.Images {
		if _, dup := imagesByID[im.ID]; dup {
			return fmt.Errorf("duplicate image id %d", im.ID)
		}
		imagesByID[im.ID] = im
		if im.ID >= nextImageID {
			nextImageID = im.ID + 1
		}
	}

	lists := make(map[int][]*annotation.Annotation, len(doc.Images))
	for _, im := range doc.Images {
		lists[im.ID] = []*annotation.Annotation{}
	}
	nextAnnotationID := d.nextAnnotationID
	for _, rec := range doc.Annotations {
		a, err := annotation.FromRecord(imagesByID, rec)
		if err != nil {
			return err
		}
		a.ID = nextAnnotationID
		nextAnnotationID++
		lists[a.ImageID] = append(lists[a.ImageID], a)
	}

	d.Info = doc.Info
	d.Licenses = nonNil(doc.Licenses)
	d.images = nonNil(doc.Images)
	d.annotations = lists
	d.categories = doc.Categories
	if len(d.categories) == 0 {
		d.categories = category.Defaults()
	}
	d.nextImageID = nextImageID
	d.nextAnnotationID = nextAnnotationID

	d.logger.Info("Loaded dataset",
		zap.Int("images", len(d.images)),
		zap.Int("annotations", len(doc.Annotations)),
		zap.Int("categories", len(d.categories)))
	return nil
}

// MergeJSON folds the document at path into the dataset.
func (d *Dataset) MergeJSON(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	if err := d.Merge(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Merge folds the document read from r into the dataset. Images are matched
// by file name: a matched image keeps its id and gains the incoming
// annotations, an unmatched image is appended under a new id. Categories are
// not reconciled. On error the dataset is left unchanged.
func (d *Dataset) Merge(r io.Reader) error {
	doc, err := coco.Decode(r)
	if err != nil {
		return err
	}

	incoming := doc.ImagesByID()
	if len(incoming) != len(doc.Images) {
		return fmt.Errorf("duplicate image id in merged dataset")
	}

	// Resolve every incoming image id to a target id before touching d.
	target := make(map[int]int, len(doc.Images))
	var added []coco.Image
	nextImageID := d.nextImageID
	for _, im := range doc.Images {
		if id, ok := d.FindImage(im.FileName); ok {
			target[im.ID] = id
			continue
		}
		target[im.ID] = nextImageID
		im.ID = nextImageID
		nextImageID++
		added = append(added, im)
	}

	merged := make([]*annotation.Annotation, 0, len(doc.Annotations))
	for _, rec := range doc.Annotations {
		a, err := annotation.FromRecord(incoming, rec)
		if err != nil {
			return err
		}
		a.ImageID = target[rec.ImageID]
		merged = append(merged, a)
	}

	d.images = append(d.images, added...)
	for _, im := range added {
		d.annotations[im.ID] = []*annotation.Annotation{}
	}
	d.nextImageID = nextImageID
	for _, a := range merged {
		a.ID = d.nextAnnotationID
		d.nextAnnotationID++
		d.annotations[a.ImageID] = append(d.annotations[a.ImageID], a)
	}

	if !sameCategories(d.categories, doc.Categories) {
		d.logger.Warn("Merged dataset has a different category list; keeping the current one")
	}
	d.logger.Info("Merged dataset",
		zap.Int("images", len(doc.Images)),
		zap.Int("new_images", len(added)),
		zap.Int("annotations", len(merged)))
	return nil
}

func sameCategories(a, b []coco.Category) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

// ToJSON builds the export document. With subset set only marked images and
// their annotations are emitted and image ids are renumbered densely;
// otherwise image ids are kept. Annotation ids are always dense from 0. A
// degenerate polygon fails the whole export.
func (d *Dataset) ToJSON(subset bool) (*coco.File, error) {
	doc := &coco.File{
		Info:        d.Info,
		Licenses:    nonNil(d.Licenses),
		Images:      []coco.Image{},
		Annotations: []coco.Annotation{},
		Categories:  nonNil(d.categories),
	}

	for _, im := range d.images {
		if subset && !im.Marked {
			continue
		}
		out := im
		if subset {
			out.ID = len(doc.Images)
		}
		doc.Images = append(doc.Images, out)

		for _, a := range d.annotations[im.ID] {
			rec, err := a.ToRecord()
			if err != nil {
				return nil, fmt.Errorf("image %s: %w", im.FileName, err)
			}
			rec.ID = len(doc.Annotations)
			rec.ImageID = out.ID
			doc.Annotations = append(doc.Annotations, rec)
		}
	}
	return doc, nil
}

// WriteJSON exports the dataset to path. A subset export also copies every
// marked image under path's directory, mirroring its relative file name.
func (d *Dataset) WriteJSON(path string, subset bool) error {
	doc, err := d.ToJSON(subset)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		return err
	}

	if subset {
		if err := d.copyImages(doc.Images, filepath.Dir(path)); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	d.logger.Info("Saved dataset",
		zap.String("path", path),
		zap.Bool("subset", subset),
		zap.Int("images", len(doc.Images)),
		zap.Int("annotations", len(doc.Annotations)))
	return nil
}

// Save writes the full dataset to its default path.
func (d *Dataset) Save() error {
	if d.path == "" {
		return ErrNoPath
	}
	return d.WriteJSON(d.path, false)
}

func (d *Dataset) copyImages(images []coco.Image, dest string) error {
	src, err := filepath.Abs(d.root)
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	if src == dst {
		return fmt.Errorf("%w: %s", ErrSubsetTarget, dst)
	}

	for _, im := range images {
		rel := filepath.FromSlash(im.FileName)
		if err := copyFile(filepath.Join(src, rel), filepath.Join(dst, rel)); err != nil {
			return fmt.Errorf("failed to copy %s: %w", im.FileName, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
