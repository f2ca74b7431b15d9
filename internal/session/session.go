// Package session routes input events to the active tool and enforces that
// at most one annotation is open for editing at any time.
package session

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"particle-annotator/internal/annotation"
	"particle-annotator/internal/category"
	"particle-annotator/internal/classify"
	"particle-annotator/internal/coco"
	"particle-annotator/internal/render"
	"particle-annotator/internal/tool"
	"particle-annotator/internal/view"
	"particle-annotator/pkg/geometry"
)

var (
	// ErrNoImage is returned for pointer input while no image is open.
	ErrNoImage = errors.New("no image open")
	// ErrNoAnnotation is returned for events naming an unknown annotation.
	ErrNoAnnotation = errors.New("no such annotation")
)

// Store is the dataset surface the session edits through. The store owns
// the annotations; the session only holds a reference to the one being
// edited.
type Store interface {
	Image(id int) (coco.Image, error)
	Annotations(imageID int) []*annotation.Annotation
	AddAnnotation(imageID int, a *annotation.Annotation) error
	DeleteAnnotation(id int) (*annotation.Annotation, error)
	FindAnnotation(id int) (*annotation.Annotation, bool)
}

// Mode is the edit session state.
type Mode int

const (
	Idle Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "idle"
}

// Options configures a session.
type Options struct {
	Ladder []float64
	Tools  tool.Options
}

// DefaultOptions returns the stock zoom ladder and tool settings.
func DefaultOptions() Options {
	return Options{Ladder: view.DefaultLadder, Tools: tool.DefaultOptions()}
}

// Session is the edit state machine for one canvas. It is not safe for
// concurrent use.
type Session struct {
	store      Store
	view       *view.Transform
	tools      *tool.Box
	classifier classify.Classifier
	logger     *zap.Logger

	imageID  int
	hasImage bool

	editing  *annotation.Annotation
	selected *annotation.Annotation
	// classLabel is given to new annotations.
	classLabel int

	mouse         geometry.Point2D
	primaryHeld   bool
	secondaryHeld bool
	panning       bool
	panFrom       geometry.Point2D
}

// New creates a session over store. A nil classifier selects the shape
// classifier.
func New(store Store, classifier classify.Classifier, opts Options, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		classifier = classify.NewShape()
	}
	ladder := opts.Ladder
	if ladder == nil {
		ladder = view.DefaultLadder
	}
	v, err := view.New(ladder, 0, 0)
	if err != nil {
		return nil, err
	}
	return &Session{
		store:      store,
		view:       v,
		tools:      tool.NewBox(opts.Tools),
		classifier: classifier,
		logger:     logger,
		classLabel: category.Auto,
	}, nil
}

// Mode reports whether an annotation is being edited.
func (s *Session) Mode() Mode {
	if s.editing != nil {
		return Editing
	}
	return Idle
}

// Editing returns the annotation open for editing, or nil.
func (s *Session) Editing() *annotation.Annotation { return s.editing }

// Selected returns the selected annotation, or nil.
func (s *Session) Selected() *annotation.Annotation { return s.selected }

// ImageID returns the open image.
func (s *Session) ImageID() (int, bool) { return s.imageID, s.hasImage }

// View returns the view transform. Callers must change it through events.
func (s *Session) View() *view.Transform { return s.view }

// Tool returns the active tool kind.
func (s *Session) Tool() tool.Kind { return s.tools.Current().Kind() }

// ClassLabel returns the label given to new annotations.
func (s *Session) ClassLabel() int { return s.classLabel }

// Mouse returns the last pointer position in image space.
func (s *Session) Mouse() geometry.Point2D { return s.mouse }

// SetImage finishes any edit in progress and opens image id.
func (s *Session) SetImage(id int) (Effects, error) {
	im, err := s.store.Image(id)
	if err != nil {
		return Effects{}, err
	}
	fx, err := s.finish()
	if err != nil {
		return fx, err
	}

	s.imageID = id
	s.hasImage = true
	s.view.SetImageSize(im.Width, im.Height)
	s.view.ResetView()
	s.clearSelection()
	s.tools.ResetAll()
	s.releaseAll()

	s.logger.Debug("Opened image", zap.Int("image", id), zap.String("file", im.FileName))
	return fx.Merge(Effects{Repaint: true, SelectionChanged: true, ViewChanged: true, AnnotationsChanged: true}), nil
}

// Detach drops every reference into the store without classifying. Call it
// after the store is reloaded.
func (s *Session) Detach() {
	if s.editing != nil {
		s.editing.IsEditing = false
		s.editing = nil
	}
	if s.selected != nil {
		s.selected.IsSelected = false
		s.selected = nil
	}
	s.hasImage = false
	s.tools.ResetAll()
	s.releaseAll()
}

// Dispatch applies one event and reports the effects for the host.
func (s *Session) Dispatch(ev Event) (Effects, error) {
	switch e := ev.(type) {
	case PointerDown:
		return s.pointerDown(e)
	case PointerMove:
		return s.pointerMove(e), nil
	case PointerUp:
		return s.pointerUp(e), nil
	case Wheel:
		switch {
		case e.Delta > 0:
			return s.zoom(s.view.ZoomIn()), nil
		case e.Delta < 0:
			return s.zoom(s.view.ZoomOut()), nil
		}
		return Effects{}, nil
	case DoubleClick:
		return s.doubleClick()
	case FinishEdit:
		return s.finish()
	case EditAnnotation:
		return s.edit(e.ID)
	case DeleteAnnotation:
		return s.delete(e.ID)
	case SetLabel:
		return s.setLabel(e.ID, e.Label)
	case SelectTool:
		if err := s.tools.Select(e.Kind); err != nil {
			return Effects{}, err
		}
		return Effects{Repaint: true}, nil
	case SelectClass:
		if e.Label < category.Auto {
			return Effects{}, fmt.Errorf("%w: %d", annotation.ErrInvalidLabel, e.Label)
		}
		s.classLabel = e.Label
		return Effects{}, nil
	case Nudge:
		s.view.Pan(e.DX, e.DY)
		return Effects{Repaint: true, ViewChanged: true}, nil
	case ZoomIn:
		return s.zoom(s.view.ZoomIn()), nil
	case ZoomOut:
		return s.zoom(s.view.ZoomOut()), nil
	case ResetView:
		s.view.ResetView()
		return Effects{Repaint: true, ViewChanged: true}, nil
	default:
		return Effects{}, fmt.Errorf("unhandled event %T", ev)
	}
}

func (s *Session) zoom(changed bool) Effects {
	if !changed {
		return Effects{}
	}
	return Effects{Repaint: true, ViewChanged: true}
}

func (s *Session) pointerDown(e PointerDown) (Effects, error) {
	if !s.hasImage {
		return Effects{}, ErrNoImage
	}
	if e.Shift || e.Button == ButtonMiddle {
		s.panning = true
		s.panFrom = geometry.Pt(e.X, e.Y)
		return Effects{}, nil
	}

	p := s.view.DeviceToImage(e.X, e.Y)
	s.mouse = p
	primary := e.Button == ButtonPrimary

	var fx Effects
	if s.editing == nil {
		if !primary {
			return s.clearSelection(), nil
		}
		if hit := s.hitTest(p); hit != nil {
			return s.selectAnnotation(hit), nil
		}
		im, err := s.store.Image(s.imageID)
		if err != nil {
			return Effects{}, err
		}
		a := annotation.New(im.Width, im.Height, s.classLabel)
		if err := s.store.AddAnnotation(s.imageID, a); err != nil {
			return Effects{}, err
		}
		fx = s.beginEdit(a)
		s.logger.Debug("Created annotation", zap.Int("id", a.ID), zap.Int("image", s.imageID))
	}

	cur := s.tools.Current()
	if primary {
		s.primaryHeld = true
		cur.Add(p, s.editing)
	} else {
		s.secondaryHeld = true
		cur.Remove(p, s.editing)
	}
	return fx.Merge(Effects{Repaint: true, AnnotationsChanged: true}), nil
}

func (s *Session) pointerMove(e PointerMove) Effects {
	if s.panning {
		s.view.Pan(e.X-s.panFrom.X, e.Y-s.panFrom.Y)
		s.panFrom = geometry.Pt(e.X, e.Y)
		return Effects{Repaint: true, ViewChanged: true}
	}
	if !s.hasImage {
		return Effects{}
	}

	p := s.view.DeviceToImage(e.X, e.Y)
	s.mouse = p
	if s.editing == nil {
		return Effects{Repaint: true}
	}

	cur := s.tools.Current()
	switch {
	case s.primaryHeld:
		cur.AddMove(p, s.editing)
	case s.secondaryHeld:
		cur.RemoveMove(p, s.editing)
	default:
		return Effects{Repaint: true}
	}
	return Effects{Repaint: true, AnnotationsChanged: true}
}

func (s *Session) pointerUp(e PointerUp) Effects {
	if s.panning {
		s.panning = false
		return Effects{Repaint: true}
	}
	switch e.Button {
	case ButtonPrimary:
		s.primaryHeld = false
		s.tools.Current().Release(true)
	case ButtonSecondary:
		s.secondaryHeld = false
		s.tools.Current().Release(false)
	}
	return Effects{Repaint: true}
}

func (s *Session) releaseAll() {
	s.primaryHeld = false
	s.secondaryHeld = false
	s.panning = false
}

func (s *Session) doubleClick() (Effects, error) {
	if s.editing != nil {
		return s.finish()
	}
	if !s.hasImage {
		return Effects{}, nil
	}
	if hit := s.hitTest(s.mouse); hit != nil {
		return s.edit(hit.ID)
	}
	return Effects{}, nil
}

// hitTest returns the topmost annotation of the open image containing p.
func (s *Session) hitTest(p geometry.Point2D) *annotation.Annotation {
	list := s.store.Annotations(s.imageID)
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Contains(p) {
			return list[i]
		}
	}
	return nil
}

func (s *Session) selectAnnotation(a *annotation.Annotation) Effects {
	if s.selected == a {
		return Effects{}
	}
	if s.selected != nil {
		s.selected.IsSelected = false
	}
	a.IsSelected = true
	s.selected = a
	return Effects{Repaint: true, SelectionChanged: true}
}

func (s *Session) clearSelection() Effects {
	if s.selected == nil {
		return Effects{}
	}
	s.selected.IsSelected = false
	s.selected = nil
	return Effects{Repaint: true, SelectionChanged: true}
}

// beginEdit makes a the only editing annotation.
func (s *Session) beginEdit(a *annotation.Annotation) Effects {
	if s.editing != nil && s.editing != a {
		s.editing.IsEditing = false
	}
	a.IsEditing = true
	s.editing = a
	s.tools.ResetAll()
	s.logger.Debug("Editing annotation", zap.Int("id", a.ID))
	return s.selectAnnotation(a).Merge(Effects{Repaint: true, SelectionChanged: true})
}

// finish closes the edit in progress. An annotation left without vertices
// is discarded; one still carrying the auto label is classified first. If
// classification fails the annotation stays open.
func (s *Session) finish() (Effects, error) {
	a := s.editing
	if a == nil {
		return Effects{}, nil
	}

	var fx Effects
	if len(a.Points) == 0 {
		if _, err := s.store.DeleteAnnotation(a.ID); err != nil {
			return Effects{}, err
		}
		s.logger.Debug("Discarded empty annotation", zap.Int("id", a.ID))
		fx = s.clearSelection()
	} else if a.NeedsClassification() {
		label, err := classify.Run(s.classifier, a.Contour())
		if err != nil {
			return Effects{}, fmt.Errorf("annotation %d: %w", a.ID, err)
		}
		if err := a.SetLabel(label); err != nil {
			return Effects{}, err
		}
		fx.Classified = append(fx.Classified, Classification{ID: a.ID, Label: label})
		s.logger.Debug("Classified annotation", zap.Int("id", a.ID), zap.Int("label", label))
	}

	a.IsEditing = false
	s.editing = nil
	s.tools.ResetAll()
	s.releaseAll()
	return fx.Merge(Effects{Repaint: true, AnnotationsChanged: true}), nil
}

func (s *Session) edit(id int) (Effects, error) {
	a, ok := s.store.FindAnnotation(id)
	if !ok {
		return Effects{}, fmt.Errorf("%w: %d", ErrNoAnnotation, id)
	}
	if a == s.editing {
		return Effects{}, nil
	}

	var fx Effects
	if !s.hasImage || a.ImageID != s.imageID {
		var err error
		if fx, err = s.SetImage(a.ImageID); err != nil {
			return fx, err
		}
	}
	done, err := s.finish()
	if err != nil {
		return fx, err
	}
	return fx.Merge(done).Merge(s.beginEdit(a)), nil
}

func (s *Session) delete(id int) (Effects, error) {
	a, err := s.store.DeleteAnnotation(id)
	if err != nil {
		return Effects{}, err
	}
	fx := Effects{Repaint: true, AnnotationsChanged: true}
	if a == s.editing {
		s.editing = nil
		s.tools.ResetAll()
		s.releaseAll()
	}
	if a == s.selected {
		s.selected = nil
		fx.SelectionChanged = true
	}
	a.IsEditing = false
	a.IsSelected = false
	return fx, nil
}

func (s *Session) setLabel(id, label int) (Effects, error) {
	a, ok := s.store.FindAnnotation(id)
	if !ok {
		return Effects{}, fmt.Errorf("%w: %d", ErrNoAnnotation, id)
	}
	if err := a.SetLabel(label); err != nil {
		return Effects{}, err
	}
	return Effects{Repaint: true, AnnotationsChanged: true}, nil
}

// Frame returns a render snapshot of the open image.
func (s *Session) Frame() render.Frame {
	f := render.Frame{
		ImageSize: s.view.ImageSize(),
		View:      s.view.Affine(),
		Zoom:      s.view.Zoom(),
		Numbered:  true,
	}
	if !s.hasImage {
		return f
	}

	for _, a := range s.store.Annotations(s.imageID) {
		f.Shapes = append(f.Shapes, render.Shape{
			ID:       a.ID,
			Label:    a.ClassLabel,
			Points:   append([]geometry.Point2D(nil), a.Points...),
			Color:    category.Colour(a.ClassLabel),
			Selected: a.IsSelected,
			Editing:  a.IsEditing,
		})
	}

	cur := s.tools.Current()
	if a := s.editing; a != nil {
		if cur.ShowNextPoint() && len(a.Points) > 0 {
			f.Preview = &render.Preview{
				Last:  a.Points[len(a.Points)-1],
				Mouse: s.mouse,
				First: a.Points[0],
			}
		}
		f.Overlay = cur.Overlay(s.mouse, a)
	}
	f.Cursor = cur.Cursor(s.mouse)
	return f
}
