// Package dataset owns the image records, categories and per-image
// annotation lists of a COCO-like annotation set.
package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"particle-annotator/internal/annotation"
	"particle-annotator/internal/category"
	"particle-annotator/internal/coco"
)

var (
	// ErrNoImage is returned for an image id that is not in the dataset.
	ErrNoImage = errors.New("no such image")
	// ErrNoAnnotation is returned for an annotation id that is not in the dataset.
	ErrNoAnnotation = errors.New("no such annotation")
	// ErrSubsetTarget is returned when a subset export would copy images onto themselves.
	ErrSubsetTarget = errors.New("subset target is the dataset root")
	// ErrNoPath is returned by Save when the dataset was never opened from disk.
	ErrNoPath = errors.New("dataset has no file path")
)

// Description is written into the info block of new datasets.
const Description = "Created with particle-annotator"

// Dataset is the in-memory annotation set. It is not safe for concurrent use.
type Dataset struct {
	Info     coco.Info
	Licenses []coco.License

	images      []coco.Image
	annotations map[int][]*annotation.Annotation
	categories  []coco.Category

	// root is the directory relative file names resolve against.
	root string
	// path is the default JSON location used by Save.
	path string

	nextImageID      int
	nextAnnotationID int

	logger *zap.Logger
}

// New creates an empty dataset with the default categories.
func New(logger *zap.Logger) *Dataset {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dataset{logger: logger}
	d.reset()
	return d
}

func (d *Dataset) reset() {
	d.Info = defaultInfo(time.Now())
	d.Licenses = []coco.License{}
	d.images = nil
	d.annotations = make(map[int][]*annotation.Annotation)
	d.categories = category.Defaults()
	d.nextImageID = 0
}

func defaultInfo(now time.Time) coco.Info {
	return coco.Info{
		Year:        coco.Year(now.Year()),
		Description: Description,
		DateCreated: now.Format("2006-01-02 15:04:05"),
	}
}

// Root returns the directory relative image paths resolve against.
func (d *Dataset) Root() string { return d.root }

// Path returns the default JSON path used by Save.
func (d *Dataset) Path() string { return d.path }

// SetPath changes the default JSON path. The root follows the file's directory.
func (d *Dataset) SetPath(path string) {
	d.path = path
	d.root = filepath.Dir(path)
}

// Len returns the number of images.
func (d *Dataset) Len() int { return len(d.images) }

// Images returns a copy of the image records in dataset order.
func (d *Dataset) Images() []coco.Image {
	return append([]coco.Image(nil), d.images...)
}

func (d *Dataset) indexOf(id int) int {
	for i, im := range d.images {
		if im.ID == id {
			return i
		}
	}
	return -1
}

// Image returns the record for id.
func (d *Dataset) Image(id int) (coco.Image, error) {
	i := d.indexOf(id)
	if i < 0 {
		return coco.Image{}, fmt.Errorf("%w: %d", ErrNoImage, id)
	}
	return d.images[i], nil
}

// ImagePath returns the filesystem path of image id.
func (d *Dataset) ImagePath(id int) (string, error) {
	im, err := d.Image(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(im.FileName)), nil
}

// FindImage returns the id of the image with the given relative file name.
func (d *Dataset) FindImage(fileName string) (int, bool) {
	for _, im := range d.images {
		if im.FileName == fileName {
			return im.ID, true
		}
	}
	return 0, false
}

// Annotations returns the live annotation list of image id. Callers may
// mutate the annotations but must add and remove them through the Dataset.
func (d *Dataset) Annotations(id int) []*annotation.Annotation {
	return d.annotations[id]
}

// AnnotationCount returns the total number of annotations.
func (d *Dataset) AnnotationCount() int {
	n := 0
	for _, list := range d.annotations {
		n += len(list)
	}
	return n
}

// AddAnnotation appends a to the list of image imageID and assigns it a
// fresh id.
func (d *Dataset) AddAnnotation(imageID int, a *annotation.Annotation) error {
	if d.indexOf(imageID) < 0 {
		return fmt.Errorf("%w: %d", ErrNoImage, imageID)
	}
	a.ID = d.nextAnnotationID
	d.nextAnnotationID++
	a.ImageID = imageID
	d.annotations[imageID] = append(d.annotations[imageID], a)
	return nil
}

// FindAnnotation looks an annotation up by id.
func (d *Dataset) FindAnnotation(id int) (*annotation.Annotation, bool) {
	for _, list := range d.annotations {
		for _, a := range list {
			if a.ID == id {
				return a, true
			}
		}
	}
	return nil, false
}

// DeleteAnnotation removes the annotation with the given id and returns it.
func (d *Dataset) DeleteAnnotation(id int) (*annotation.Annotation, error) {
	for imageID, list := range d.annotations {
		for i, a := range list {
			if a.ID != id {
				continue
			}
			d.annotations[imageID] = append(list[:i:i], list[i+1:]...)
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNoAnnotation, id)
}

// Editing returns the annotation currently flagged as editing, if any.
func (d *Dataset) Editing() (*annotation.Annotation, bool) {
	for _, im := range d.images {
		for _, a := range d.annotations[im.ID] {
			if a.IsEditing {
				return a, true
			}
		}
	}
	return nil, false
}

// SetMarked flags image id for subset export.
func (d *Dataset) SetMarked(id int, marked bool) error {
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNoImage, id)
	}
	d.images[i].Marked = marked
	return nil
}

// MarkedCount returns how many images are flagged for subset export.
func (d *Dataset) MarkedCount() int {
	n := 0
	for _, im := range d.images {
		if im.Marked {
			n++
		}
	}
	return n
}

// Categories returns a copy of the category list.
func (d *Dataset) Categories() []coco.Category {
	return append([]coco.Category(nil), d.categories...)
}

// CategoryName returns the name of category id, or "" if unknown.
func (d *Dataset) CategoryName(id int) string {
	for _, c := range d.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// RenameCategory changes the name of an existing category.
func (d *Dataset) RenameCategory(id int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("category %d: empty name", id)
	}
	for i := range d.categories {
		if d.categories[i].ID == id {
			d.categories[i].Name = name
			return nil
		}
	}
	return fmt.Errorf("unknown category %d", id)
}

// AddCategory appends a category named name with the next free id. An
// existing category with the same name is returned unchanged.
func (d *Dataset) AddCategory(name string) coco.Category {
	maxID := 0
	for _, c := range d.categories {
		if c.Name == name {
			return c
		}
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	c := coco.Category{ID: maxID + 1, Name: name}
	d.categories = append(d.categories, c)
	return c
}
