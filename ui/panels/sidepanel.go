// Package panels provides UI panels for the application.
package panels

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"

	"particle-annotator/internal/app"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	// Tab content
	imagesPanel      *ImagesPanel
	annotationsPanel *AnnotationsPanel
	toolsPanel       *ToolsPanel
	displayPanel     *DisplayPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State) *SidePanel {
	sp := &SidePanel{state: state}

	sp.imagesPanel = NewImagesPanel(state)
	sp.annotationsPanel = NewAnnotationsPanel(state)
	sp.toolsPanel = NewToolsPanel(state)
	sp.displayPanel = NewDisplayPanel(state)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Images", sp.imagesPanel.Container()),
		container.NewTabItem("Annotations", sp.annotationsPanel.Container()),
		container.NewTabItem("Tools", sp.toolsPanel.Container()),
		container.NewTabItem("Display", sp.displayPanel.Container()),
	)
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	report := func(err error) { dialog.ShowError(err, w) }
	sp.imagesPanel.onError = report
	sp.annotationsPanel.onError = report
	sp.toolsPanel.window = w
	sp.toolsPanel.onError = report
}

// SelectTool mirrors a tool change made elsewhere, e.g. from preferences.
func (sp *SidePanel) SelectTool(name string) {
	sp.toolsPanel.toolGroup.SetSelected(name)
}
