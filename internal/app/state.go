// Package app provides application lifecycle management, configuration, and events.
package app

import (
	"errors"
	"fmt"
	goimage "image"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"particle-annotator/internal/augment"
	"particle-annotator/internal/category"
	"particle-annotator/internal/coco"
	"particle-annotator/internal/config"
	"particle-annotator/internal/dataset"
	"particle-annotator/internal/image"
	"particle-annotator/internal/project"
	"particle-annotator/internal/render"
	"particle-annotator/internal/session"
	"particle-annotator/internal/tool"
	"particle-annotator/pkg/geometry"
)

// cacheSize is the number of decoded images kept in memory.
const cacheSize = 8

// State holds the dataset, the edit session and the display settings. All
// mutation goes through State so the UI and the HTTP server never race.
type State struct {
	mu sync.RWMutex

	Config *config.Config

	dataset  *dataset.Dataset
	session  *session.Session
	pipeline *augment.Pipeline
	cache    *image.Cache
	raster   *render.Raster
	logger   *zap.Logger

	modified bool
	// disk is the dataset file as last read or written here.
	disk diskStamp

	// Event listeners
	lmu       sync.RWMutex
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventDatasetLoaded EventType = iota
	EventDatasetSaved
	EventImageChanged
	EventAnnotationsChanged
	EventSelectionChanged
	EventViewChanged
	EventRepaint
	EventClassified
	EventDisplayChanged
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// AnnotationInfo is a copy of one annotation for list views.
type AnnotationInfo struct {
	ID       int
	Label    int
	Class    string
	Vertices int
	Area     float64
	Editing  bool
	Selected bool
}

// NewState creates the application state from cfg. A nil cfg selects the
// defaults.
func NewState(cfg *config.Config, logger *zap.Logger) (*State, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ds := dataset.New(logger)
	sess, err := session.New(ds, nil, cfg.SessionOptions(), logger)
	if err != nil {
		return nil, err
	}
	s := &State{
		Config:    cfg,
		dataset:   ds,
		session:   sess,
		pipeline:  augment.NewPipeline(),
		cache:     image.NewCache(cacheSize),
		raster:    render.NewRaster(),
		logger:    logger,
		listeners: make(map[EventType][]EventListener),
	}
	s.addConfigCategories()
	return s, nil
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.lmu.RLock()
	listeners := s.listeners[event]
	s.lmu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// emitEffects translates session effects into application events. It must
// be called without holding mu.
func (s *State) emitEffects(fx session.Effects) {
	if fx.AnnotationsChanged {
		s.Emit(EventAnnotationsChanged, nil)
		s.Emit(EventModified, true)
	}
	if fx.SelectionChanged {
		s.Emit(EventSelectionChanged, nil)
	}
	if fx.ViewChanged {
		s.Emit(EventViewChanged, nil)
	}
	if len(fx.Classified) > 0 {
		s.Emit(EventClassified, fx.Classified)
	}
	if fx.Repaint || fx.AnnotationsChanged {
		s.Emit(EventRepaint, nil)
	}
}

// Modified reports whether there are unsaved changes.
func (s *State) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// SetModified marks the dataset as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

func (s *State) addConfigCategories() {
	for _, name := range s.Config.Categories {
		s.dataset.AddCategory(name)
	}
}

// OpenFolder opens an image folder, or the dataset file saved next to it,
// and shows its first image.
func (s *State) OpenFolder(dir string) error {
	return s.reload(func() error { return s.dataset.OpenFolder(dir) })
}

// LoadJSON replaces the dataset with the file at path and shows its first
// image.
func (s *State) LoadJSON(path string) error {
	return s.reload(func() error { return s.dataset.LoadJSON(path) })
}

func (s *State) reload(load func() error) error {
	s.mu.Lock()
	// A failed load leaves the dataset untouched, so the session keeps
	// its edit.
	if err := load(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.session.Detach()
	s.disk = stampOf(s.dataset.Path())
	s.addConfigCategories()
	s.cache.Clear()
	s.modified = false
	path := s.dataset.Path()

	var fx session.Effects
	if images := s.dataset.Images(); len(images) > 0 {
		id := images[0].ID
		if ws, err := project.Load(project.PathFor(path)); err == nil {
			id = s.restoreWorkspace(ws, id)
		}
		var err error
		if fx, err = s.session.SetImage(id); err != nil {
			s.logger.Warn("Failed to open first image", zap.Error(err))
		}
	}
	s.mu.Unlock()

	s.logger.Info("Dataset loaded", zap.String("path", path))
	s.Emit(EventDatasetLoaded, path)
	s.Emit(EventImageChanged, nil)
	s.emitEffects(fx)
	s.Emit(EventModified, false)
	return nil
}

// restoreWorkspace applies saved display and tool state and returns the
// image to open. Callers hold mu.
func (s *State) restoreWorkspace(ws *project.File, fallback int) int {
	s.pipeline.ApplySettings(ws.Display)
	if k, ok := tool.ParseKind(ws.Tool); ok {
		s.session.Dispatch(session.SelectTool{Kind: k})
	}
	s.session.Dispatch(session.SelectClass{Label: ws.ClassLabel})
	if id, ok := s.dataset.FindImage(ws.LastImage); ok {
		return id
	}
	return fallback
}

// workspace captures the state worth restoring next time. Callers hold mu.
func (s *State) workspace(datasetPath string) *project.File {
	ws := project.New(datasetPath)
	if old, err := project.Load(project.PathFor(datasetPath)); err == nil {
		ws.Created = old.Created
	}
	if id, ok := s.session.ImageID(); ok {
		if im, err := s.dataset.Image(id); err == nil {
			ws.LastImage = im.FileName
		}
	}
	ws.Tool = s.session.Tool().String()
	ws.ClassLabel = s.session.ClassLabel()
	ws.Display = s.pipeline.Settings()
	return ws
}

// Merge folds the dataset file at path into the open dataset.
func (s *State) Merge(path string) error {
	s.mu.Lock()
	fx, err := s.session.Dispatch(session.FinishEdit{})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.dataset.MergeJSON(path); err != nil {
		s.mu.Unlock()
		return err
	}
	s.modified = true
	s.mu.Unlock()

	s.emitEffects(fx)
	s.Emit(EventDatasetLoaded, path)
	s.Emit(EventAnnotationsChanged, nil)
	s.Emit(EventModified, true)
	return nil
}

// Save finishes any edit in progress and writes the dataset file.
func (s *State) Save() error {
	s.mu.Lock()
	fx, err := s.session.Dispatch(session.FinishEdit{})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.dataset.Save(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.modified = false
	path := s.dataset.Path()
	s.disk = stampOf(path)
	if err := s.workspace(path).Save(project.PathFor(path)); err != nil {
		s.logger.Warn("Failed to save workspace", zap.Error(err))
	}
	s.mu.Unlock()

	s.emitEffects(fx)
	s.Emit(EventDatasetSaved, path)
	s.Emit(EventModified, false)
	return nil
}

// WriteSubset exports the marked images and their annotations to path.
func (s *State) WriteSubset(path string) error {
	s.mu.Lock()
	fx, err := s.session.Dispatch(session.FinishEdit{})
	if err == nil {
		err = s.dataset.WriteJSON(path, true)
	}
	s.mu.Unlock()

	s.emitEffects(fx)
	return err
}

// Export returns the COCO document for the whole dataset or the marked
// subset. The edit in progress is not finished.
func (s *State) Export(subset bool) (*coco.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset.ToJSON(subset)
}

// SelectImage finishes any edit in progress and shows image id.
func (s *State) SelectImage(id int) error {
	s.mu.Lock()
	fx, err := s.session.SetImage(id)
	s.mu.Unlock()

	s.emitEffects(fx)
	if err != nil {
		return err
	}
	s.Emit(EventImageChanged, id)
	return nil
}

// Dispatch forwards one input event to the edit session.
func (s *State) Dispatch(ev session.Event) error {
	s.mu.Lock()
	fx, err := s.session.Dispatch(ev)
	if fx.AnnotationsChanged {
		s.modified = true
	}
	s.mu.Unlock()

	s.emitEffects(fx)
	return err
}

// SetMarked includes or excludes an image from the subset export.
func (s *State) SetMarked(id int, marked bool) error {
	s.mu.Lock()
	err := s.dataset.SetMarked(id, marked)
	if err == nil {
		s.modified = true
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.Emit(EventModified, true)
	return nil
}

// RenameCategory renames a user category.
func (s *State) RenameCategory(id int, name string) error {
	s.mu.Lock()
	err := s.dataset.RenameCategory(id, name)
	if err == nil {
		s.modified = true
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.Emit(EventAnnotationsChanged, nil)
	s.Emit(EventModified, true)
	return nil
}

// Augmentation returns the display adjustment settings.
func (s *State) Augmentation() augment.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline.Settings()
}

// SetAugmentation changes the display adjustments. Annotations are not
// affected.
func (s *State) SetAugmentation(settings augment.Settings) {
	s.mu.Lock()
	s.pipeline.ApplySettings(settings)
	s.mu.Unlock()

	s.Emit(EventDisplayChanged, settings)
	s.Emit(EventRepaint, nil)
}

// ResetAugmentation restores neutral display adjustments.
func (s *State) ResetAugmentation() {
	s.SetAugmentation(augment.DefaultSettings())
}

// Path returns the dataset file path.
func (s *State) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset.Path()
}

// Images returns a copy of the image records.
func (s *State) Images() []coco.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset.Images()
}

// MarkedCount returns the number of marked images.
func (s *State) MarkedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset.MarkedCount()
}

// Categories returns a copy of the category table.
func (s *State) Categories() []coco.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset.Categories()
}

// Annotations returns list entries for image id.
func (s *State) Annotations(id int) []AnnotationInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []AnnotationInfo
	for _, a := range s.dataset.Annotations(id) {
		out = append(out, AnnotationInfo{
			ID:       a.ID,
			Label:    a.ClassLabel,
			Class:    s.dataset.CategoryName(a.ClassLabel),
			Vertices: len(a.Points),
			Area:     a.Area(),
			Editing:  a.IsEditing,
			Selected: a.IsSelected,
		})
	}
	return out
}

// SessionStatus is a copy of the edit session's visible state.
type SessionStatus struct {
	ImageID    int
	HasImage   bool
	Mode       session.Mode
	Tool       string
	ClassLabel int
	Zoom       float64
	Mouse      geometry.Point2D
}

// Status returns the session's visible state.
func (s *State) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.session.ImageID()
	return SessionStatus{
		ImageID:    id,
		HasImage:   ok,
		Mode:       s.session.Mode(),
		Tool:       s.session.Tool().String(),
		ClassLabel: s.session.ClassLabel(),
		Zoom:       s.session.View().Zoom(),
		Mouse:      s.session.Mouse(),
	}
}

// Render paints the open image, its annotations and the tool overlay into
// a w x h canvas.
func (s *State) Render(w, h int) (*goimage.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.session.Frame()
	id, ok := s.session.ImageID()
	if !ok {
		return s.raster.Image(nil, f, w, h), nil
	}
	layer, err := s.layer(id)
	if err != nil {
		return s.raster.Image(nil, f, w, h), err
	}
	return s.raster.Image(layer.Display(s.pipeline), f, w, h), nil
}

// Preview renders image id at full resolution with its annotations and
// scales it to fit within w x h. It does not touch the edit session.
func (s *State) Preview(id, w, h int) (goimage.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	im, err := s.dataset.Image(id)
	if err != nil {
		return nil, err
	}
	layer, err := s.layer(id)
	if err != nil {
		return nil, err
	}
	f := render.Frame{
		ImageSize: geometry.Size{Width: float64(im.Width), Height: float64(im.Height)},
		View:      geometry.Identity(),
		Zoom:      1,
		Numbered:  true,
	}
	for _, a := range s.dataset.Annotations(id) {
		f.Shapes = append(f.Shapes, render.Shape{
			ID:     a.ID,
			Label:  a.ClassLabel,
			Points: append([]geometry.Point2D(nil), a.Points...),
			Color:  category.Colour(a.ClassLabel),
		})
	}
	full := s.raster.Image(layer.Display(s.pipeline), f, im.Width, im.Height)
	return augment.Thumbnail(full, w, h), nil
}

// layer returns the decoded pixels of image id. Callers hold mu.
func (s *State) layer(id int) (*image.Layer, error) {
	path, err := s.dataset.ImagePath(id)
	if err != nil {
		return nil, err
	}
	layer, err := s.cache.Get(path)
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", id, err)
	}
	return layer, nil
}

// ErrUnsaved is returned by Reload when local edits would be lost.
var ErrUnsaved = errors.New("dataset has unsaved changes")

// Reload re-reads the dataset file after it changed on disk. A file that
// still matches what was last read or saved here is left alone. It refuses
// when there are unsaved changes.
func (s *State) Reload() error {
	s.mu.RLock()
	path, modified, known := s.dataset.Path(), s.modified, s.disk
	s.mu.RUnlock()
	if path == "" {
		return dataset.ErrNoPath
	}
	if stampOf(path).same(known) {
		s.logger.Debug("Dataset file unchanged", zap.String("path", path))
		return nil
	}
	if modified {
		return ErrUnsaved
	}
	return s.LoadJSON(path)
}

// diskStamp identifies one version of a file by size and modification time.
type diskStamp struct {
	mod  time.Time
	size int64
}

// stampOf returns the zero stamp for a missing file.
func stampOf(path string) diskStamp {
	info, err := os.Stat(path)
	if err != nil {
		return diskStamp{}
	}
	return diskStamp{mod: info.ModTime(), size: info.Size()}
}

func (d diskStamp) same(o diskStamp) bool {
	return d.size == o.size && d.mod.Equal(o.mod)
}
