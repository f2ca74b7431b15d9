package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"particle-annotator/internal/app"
	"particle-annotator/internal/session"
)

// AnnotationsPanel is the annotation table of the open image with relabel,
// edit and delete actions.
type AnnotationsPanel struct {
	state     *app.State
	container fyne.CanvasObject

	list        *widget.List
	classSelect *widget.Select
	editBtn     *widget.Button
	deleteBtn   *widget.Button

	rows     []app.AnnotationInfo
	selected int // index into rows, -1 for none

	onError func(error)
}

// NewAnnotationsPanel creates a new annotations panel.
func NewAnnotationsPanel(state *app.State) *AnnotationsPanel {
	ap := &AnnotationsPanel{state: state, selected: -1}

	ap.list = widget.NewList(
		func() int {
			return len(ap.rows)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("#00 Agglomerated (000 pts)")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(ap.rows) {
				return
			}
			r := ap.rows[id]
			text := fmt.Sprintf("#%d %s (%d pts, %.0f px²)", id+1, r.Class, r.Vertices, r.Area)
			if r.Editing {
				text += " *"
			}
			obj.(*widget.Label).SetText(text)
		},
	)
	ap.list.OnSelected = func(id widget.ListItemID) {
		ap.selected = id
		ap.updateControls()
	}
	ap.list.OnUnselected = func(widget.ListItemID) {
		ap.selected = -1
		ap.updateControls()
	}

	ap.classSelect = widget.NewSelect(nil, func(name string) {
		r, ok := ap.current()
		if !ok {
			return
		}
		for _, c := range state.Categories() {
			if c.Name == name && c.ID != r.Label {
				ap.report(state.Dispatch(session.SetLabel{ID: r.ID, Label: c.ID}))
				return
			}
		}
	})
	ap.editBtn = widget.NewButton("Edit", func() {
		if r, ok := ap.current(); ok {
			ap.report(state.Dispatch(session.EditAnnotation{ID: r.ID}))
		}
	})
	ap.deleteBtn = widget.NewButton("Delete", func() {
		if r, ok := ap.current(); ok {
			ap.report(state.Dispatch(session.DeleteAnnotation{ID: r.ID}))
		}
	})

	for _, ev := range []app.EventType{app.EventAnnotationsChanged, app.EventImageChanged, app.EventDatasetLoaded} {
		state.On(ev, func(interface{}) { ap.Refresh() })
	}

	ap.container = container.NewBorder(
		nil,
		widget.NewCard("Selected", "", container.NewVBox(
			ap.classSelect,
			container.NewGridWithColumns(2, ap.editBtn, ap.deleteBtn),
		)),
		nil, nil,
		ap.list,
	)
	ap.updateControls()
	return ap
}

// Container returns the panel container.
func (ap *AnnotationsPanel) Container() fyne.CanvasObject {
	return ap.container
}

// Refresh reloads the rows for the open image.
func (ap *AnnotationsPanel) Refresh() {
	st := ap.state.Status()
	ap.rows = nil
	if st.HasImage {
		ap.rows = ap.state.Annotations(st.ImageID)
	}

	var names []string
	for _, c := range ap.state.Categories() {
		names = append(names, c.Name)
	}
	ap.classSelect.Options = names

	if ap.selected >= len(ap.rows) {
		ap.selected = -1
		ap.list.UnselectAll()
	}
	ap.list.Refresh()
	ap.updateControls()
}

func (ap *AnnotationsPanel) current() (app.AnnotationInfo, bool) {
	if ap.selected < 0 || ap.selected >= len(ap.rows) {
		return app.AnnotationInfo{}, false
	}
	return ap.rows[ap.selected], true
}

func (ap *AnnotationsPanel) updateControls() {
	r, ok := ap.current()
	if !ok {
		ap.classSelect.Disable()
		ap.editBtn.Disable()
		ap.deleteBtn.Disable()
		return
	}
	ap.classSelect.Enable()
	ap.editBtn.Enable()
	ap.deleteBtn.Enable()
	// Selecting the current class is a no-op in the callback.
	ap.classSelect.SetSelected(r.Class)
}

func (ap *AnnotationsPanel) report(err error) {
	if err != nil && ap.onError != nil {
		ap.onError(err)
	}
}
