package session

import "particle-annotator/internal/tool"

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonSecondary:
		return "secondary"
	case ButtonMiddle:
		return "middle"
	default:
		return "unknown"
	}
}

// Event is an input consumed by Session.Dispatch. Pointer coordinates are in
// device space.
type Event interface {
	event()
}

// PointerDown is a button press. Shift turns it into a pan gesture.
type PointerDown struct {
	X, Y   float64
	Button Button
	Shift  bool
}

// PointerMove is pointer motion with or without a button held.
type PointerMove struct {
	X, Y float64
}

// PointerUp is a button release.
type PointerUp struct {
	Button Button
}

// Wheel zooms one ladder step per event: in for positive deltas.
type Wheel struct {
	Delta float64
}

// DoubleClick finishes the edit in progress, or opens the annotation under
// the pointer for editing.
type DoubleClick struct {
	Button Button
	Shift  bool
}

// FinishEdit stops editing, classifying the annotation if needed.
type FinishEdit struct{}

// EditAnnotation opens an existing annotation for editing.
type EditAnnotation struct {
	ID int
}

// DeleteAnnotation removes an annotation.
type DeleteAnnotation struct {
	ID int
}

// SetLabel assigns a category to an annotation.
type SetLabel struct {
	ID    int
	Label int
}

// SelectTool switches the active tool.
type SelectTool struct {
	Kind tool.Kind
}

// SelectClass sets the label given to new annotations. category.Auto
// defers to the classifier.
type SelectClass struct {
	Label int
}

// Nudge pans the view by a device-space delta.
type Nudge struct {
	DX, DY float64
}

// ZoomIn advances the zoom ladder.
type ZoomIn struct{}

// ZoomOut retreats the zoom ladder.
type ZoomOut struct{}

// ResetView restores unit zoom and a zero pan.
type ResetView struct{}

func (PointerDown) event()      {}
func (PointerMove) event()      {}
func (PointerUp) event()        {}
func (Wheel) event()            {}
func (DoubleClick) event()      {}
func (FinishEdit) event()       {}
func (EditAnnotation) event()   {}
func (DeleteAnnotation) event() {}
func (SetLabel) event()         {}
func (SelectTool) event()       {}
func (SelectClass) event()      {}
func (Nudge) event()            {}
func (ZoomIn) event()           {}
func (ZoomOut) event()          {}
func (ResetView) event()        {}

// Classification records one classifier invocation.
type Classification struct {
	ID    int
	Label int
}

// Effects tells the host what to do after an event.
type Effects struct {
	Repaint            bool
	AnnotationsChanged bool
	SelectionChanged   bool
	ViewChanged        bool
	Classified         []Classification
}

// Merge combines two effect sets.
func (e Effects) Merge(o Effects) Effects {
	return Effects{
		Repaint:            e.Repaint || o.Repaint,
		AnnotationsChanged: e.AnnotationsChanged || o.AnnotationsChanged,
		SelectionChanged:   e.SelectionChanged || o.SelectionChanged,
		ViewChanged:        e.ViewChanged || o.ViewChanged,
		Classified:         append(e.Classified, o.Classified...),
	}
}
