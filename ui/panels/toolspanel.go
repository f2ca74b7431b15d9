package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"particle-annotator/internal/app"
	"particle-annotator/internal/category"
	"particle-annotator/internal/session"
	"particle-annotator/internal/tool"
)

// autoClass is the palette entry for classifier-assigned labels.
const autoClass = "Auto"

// ToolsPanel holds the tool box and the class palette.
type ToolsPanel struct {
	state     *app.State
	window    fyne.Window
	container fyne.CanvasObject

	toolGroup   *widget.RadioGroup
	classGroup  *widget.RadioGroup
	renameBtn   *widget.Button
	statusLabel *widget.Label

	onError func(error)
}

// NewToolsPanel creates a new tools panel.
func NewToolsPanel(state *app.State) *ToolsPanel {
	tp := &ToolsPanel{state: state}

	var toolNames []string
	for _, k := range tool.Kinds {
		toolNames = append(toolNames, k.String())
	}
	tp.toolGroup = widget.NewRadioGroup(toolNames, func(name string) {
		if k, ok := tool.ParseKind(name); ok {
			tp.report(state.Dispatch(session.SelectTool{Kind: k}))
		}
	})
	tp.toolGroup.Required = true
	tp.toolGroup.SetSelected(tool.KindPolygon.String())

	tp.classGroup = widget.NewRadioGroup(nil, func(name string) {
		tp.report(state.Dispatch(session.SelectClass{Label: tp.labelFor(name)}))
		tp.updateRename()
	})
	tp.classGroup.Required = true
	tp.renameBtn = widget.NewButton("Rename Class...", tp.showRename)

	finishBtn := widget.NewButton("Finish Editing", func() {
		tp.report(state.Dispatch(session.FinishEdit{}))
	})
	tp.statusLabel = widget.NewLabel("")

	state.On(app.EventDatasetLoaded, func(interface{}) { tp.sync() })
	state.On(app.EventRepaint, func(interface{}) { tp.updateStatus() })
	tp.refreshClasses()

	tp.container = container.NewVScroll(container.NewVBox(
		widget.NewCard("Tool", "", tp.toolGroup),
		widget.NewCard("Class for new annotations", "", container.NewVBox(tp.classGroup, tp.renameBtn)),
		finishBtn,
		tp.statusLabel,
	))
	return tp
}

// Container returns the panel container.
func (tp *ToolsPanel) Container() fyne.CanvasObject {
	return tp.container
}

// sync follows tool and class choices restored with a dataset.
func (tp *ToolsPanel) sync() {
	st := tp.state.Status()
	tp.toolGroup.SetSelected(st.Tool)
	tp.classGroup.Selected = autoClass
	for _, c := range tp.state.Categories() {
		if c.ID == st.ClassLabel {
			tp.classGroup.Selected = c.Name
		}
	}
	tp.refreshClasses()
}

func (tp *ToolsPanel) refreshClasses() {
	names := []string{autoClass}
	for _, c := range tp.state.Categories() {
		names = append(names, c.Name)
	}
	selected := tp.classGroup.Selected
	tp.classGroup.Options = names
	if selected == "" {
		selected = autoClass
	}
	tp.classGroup.SetSelected(selected)
	tp.classGroup.Refresh()
	tp.updateRename()
}

func (tp *ToolsPanel) labelFor(name string) int {
	for _, c := range tp.state.Categories() {
		if c.Name == name {
			return c.ID
		}
	}
	return category.Auto
}

func (tp *ToolsPanel) updateRename() {
	if category.IsUserSlot(tp.labelFor(tp.classGroup.Selected)) {
		tp.renameBtn.Enable()
	} else {
		tp.renameBtn.Disable()
	}
}

func (tp *ToolsPanel) showRename() {
	id := tp.labelFor(tp.classGroup.Selected)
	if !category.IsUserSlot(id) || tp.window == nil {
		return
	}
	entry := widget.NewEntry()
	entry.SetText(tp.classGroup.Selected)
	dialog.ShowForm("Rename Class", "Rename", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			if err := tp.state.RenameCategory(id, entry.Text); err != nil {
				tp.report(err)
				return
			}
			tp.classGroup.Selected = ""
			tp.refreshClasses()
			tp.classGroup.SetSelected(entry.Text)
		}, tp.window)
}

func (tp *ToolsPanel) updateStatus() {
	st := tp.state.Status()
	if !st.HasImage {
		tp.statusLabel.SetText("")
		return
	}
	tp.statusLabel.SetText(fmt.Sprintf("%s, %s\nZoom %.0f%%  (%.0f, %.0f)",
		st.Tool, st.Mode, st.Zoom*100, st.Mouse.X, st.Mouse.Y))
}

func (tp *ToolsPanel) report(err error) {
	if err != nil && tp.onError != nil {
		tp.onError(err)
	}
}
