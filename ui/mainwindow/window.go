// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"particle-annotator/internal/app"
	"particle-annotator/internal/session"
	"particle-annotator/internal/version"
	"particle-annotator/ui/canvas"
	"particle-annotator/ui/panels"
	"particle-annotator/ui/prefs"
)

const appTitle = "Particle Annotator"

// watchInterval is how often the open dataset file is polled for outside
// changes.
const watchInterval = 2 * time.Second

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	logger    *zap.Logger
	canvas    *canvas.ImageCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label

	watcher *app.FileWatcher
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, logger *zap.Logger) *MainWindow {
	if logger == nil {
		logger = zap.NewNop()
	}
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
		logger: logger,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	win.Resize(fyne.NewSize(
		float32(p.FloatWithFallback(prefs.KeyWindowWidth, 1280)),
		float32(p.FloatWithFallback(prefs.KeyWindowHeight, 800)),
	))
	win.SetCloseIntercept(mw.onClose)
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewImageCanvas(mw.state)
	mw.canvas.OnError(mw.showError)

	mw.sidePanel = panels.NewSidePanel(mw.state)
	mw.sidePanel.SetWindow(mw.Window)
	if name := mw.prefs.String(prefs.KeyTool); name != "" {
		mw.sidePanel.SelectTool(name)
	}

	mw.statusBar = widget.NewLabel("Open a folder to start")

	canvasArea := container.NewBorder(
		mw.createToolbar(), // top
		nil,                // bottom
		nil,                // left
		nil,                // right
		mw.canvas,          // center
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25) // Side panel takes 25% of width

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with file and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewButton("Open Folder", mw.onOpenFolder),
		widget.NewButton("Save", mw.onSave),
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", func() { mw.dispatch(session.ZoomOut{}) }),
		widget.NewButton("+", func() { mw.dispatch(session.ZoomIn{}) }),
		widget.NewButton("1:1", func() { mw.dispatch(session.ResetView{}) }),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	recent := fyne.NewMenuItem("Open Recent", nil)
	recent.ChildMenu = mw.recentMenu()

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Folder...", mw.onOpenFolder),
		fyne.NewMenuItem("Open Dataset...", mw.onOpenDataset),
		recent,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Merge Dataset...", mw.onMerge),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save", mw.onSave),
		fyne.NewMenuItem("Save Marked Subset...", mw.onSaveSubset),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Finish Editing", func() { mw.dispatch(session.FinishEdit{}) }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.dispatch(session.ZoomIn{}) }),
		fyne.NewMenuItem("Zoom Out", func() { mw.dispatch(session.ZoomOut{}) }),
		fyne.NewMenuItem("Reset View", func() { mw.dispatch(session.ResetView{}) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Next Image", func() { mw.stepImage(1) }),
		fyne.NewMenuItem("Previous Image", func() { mw.stepImage(-1) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

func (mw *MainWindow) recentMenu() *fyne.Menu {
	var items []*fyne.MenuItem
	for _, path := range mw.prefs.Recent() {
		path := path
		items = append(items, fyne.NewMenuItem(path, func() { mw.openDataset(path) }))
	}
	if len(items) == 0 {
		item := fyne.NewMenuItem("(none)", nil)
		item.Disabled = true
		items = append(items, item)
	}
	return fyne.NewMenu("Open Recent", items...)
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventDatasetLoaded, func(data interface{}) {
		path, _ := data.(string)
		mw.updateTitle(false)
		mw.updateStatus(fmt.Sprintf("Loaded %s: %d images", filepath.Base(path), len(mw.state.Images())))
		mw.watch(mw.state.Path())
	})

	mw.state.On(app.EventDatasetSaved, func(data interface{}) {
		path, _ := data.(string)
		if mw.watcher != nil {
			mw.watcher.ResetBaseline()
		}
		mw.updateStatus("Saved " + path)
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		modified, _ := data.(bool)
		mw.updateTitle(modified)
	})

	mw.state.On(app.EventClassified, func(data interface{}) {
		if cs, ok := data.([]session.Classification); ok {
			mw.updateStatus(fmt.Sprintf("Classified %d annotation(s)", len(cs)))
		}
	})

	mw.state.On(app.EventImageChanged, func(interface{}) {
		st := mw.state.Status()
		for _, im := range mw.state.Images() {
			if im.ID == st.ImageID {
				mw.updateStatus(im.FileName)
			}
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateTitle(modified bool) {
	title := appTitle
	if path := mw.state.Path(); path != "" {
		title += " - " + filepath.Base(path)
	}
	if modified {
		title += " *"
	}
	mw.SetTitle(title)
}

func (mw *MainWindow) showError(err error) {
	mw.logger.Warn("Operation failed", zap.Error(err))
	dialog.ShowError(err, mw.Window)
}

func (mw *MainWindow) dispatch(ev session.Event) {
	if err := mw.state.Dispatch(ev); err != nil && !errors.Is(err, session.ErrNoImage) {
		mw.showError(err)
	}
}

// watch follows outside edits of the dataset file at path.
func (mw *MainWindow) watch(path string) {
	if mw.watcher != nil {
		if mw.watcher.Path() == path {
			return
		}
		mw.watcher.Stop()
		mw.watcher = nil
	}
	if path == "" {
		return
	}
	mw.watcher = app.NewFileWatcher(path, watchInterval)
	mw.watcher.OnChange(func() {
		mw.logger.Info("Dataset changed on disk", zap.String("path", path))
		if err := mw.state.Reload(); err != nil {
			mw.updateStatus("Dataset changed on disk: " + err.Error())
		}
	})
	mw.watcher.Start()
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastFolder)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// confirmDiscard runs next, asking first when there are unsaved changes.
func (mw *MainWindow) confirmDiscard(next func()) {
	if !mw.state.Modified() {
		next()
		return
	}
	dialog.ShowConfirm("Unsaved Changes", "Discard unsaved annotations?", func(ok bool) {
		if ok {
			next()
		}
	}, mw.Window)
}

// Menu action handlers

func (mw *MainWindow) onOpenFolder() {
	mw.confirmDiscard(func() {
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			dir := uri.Path()
			mw.prefs.SetString(prefs.KeyLastFolder, filepath.Dir(dir))
			if err := mw.state.OpenFolder(dir); err != nil {
				mw.showError(err)
				return
			}
			mw.prefs.AddRecent(mw.state.Path())
		}, mw.Window)
		if loc := mw.getLastDir(); loc != nil {
			fd.SetLocation(loc)
		}
		fd.Show()
	})
}

func (mw *MainWindow) onOpenDataset() {
	mw.confirmDiscard(func() {
		mw.pickJSON(func(path string) { mw.loadDataset(path) })
	})
}

func (mw *MainWindow) openDataset(path string) {
	mw.confirmDiscard(func() { mw.loadDataset(path) })
}

func (mw *MainWindow) loadDataset(path string) {
	if err := mw.state.LoadJSON(path); err != nil {
		mw.showError(err)
		return
	}
	mw.prefs.AddRecent(path)
}

func (mw *MainWindow) onMerge() {
	if len(mw.state.Images()) == 0 {
		mw.updateStatus("Open a dataset before merging")
		return
	}
	mw.pickJSON(func(path string) {
		if err := mw.state.Merge(path); err != nil {
			mw.showError(err)
			return
		}
		mw.updateStatus("Merged " + filepath.Base(path))
	})
}

func (mw *MainWindow) pickJSON(done func(path string)) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.prefs.SetString(prefs.KeyLastFolder, filepath.Dir(path))
		done(path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSave() {
	if mw.state.Path() == "" {
		mw.updateStatus("Nothing to save")
		return
	}
	if err := mw.state.Save(); err != nil {
		mw.showError(err)
	}
}

func (mw *MainWindow) onSaveSubset() {
	if mw.state.MarkedCount() == 0 {
		mw.updateStatus("No images are marked")
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if !strings.EqualFold(filepath.Ext(path), ".json") {
			path += ".json"
		}
		if err := mw.state.WriteSubset(path); err != nil {
			mw.showError(err)
			return
		}
		mw.updateStatus(fmt.Sprintf("Saved %d marked images to %s", mw.state.MarkedCount(), path))
	}, mw.Window)
	fd.SetFileName("subset.json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) stepImage(delta int) {
	images := mw.state.Images()
	if len(images) == 0 {
		return
	}
	st := mw.state.Status()
	i := 0
	for j, im := range images {
		if im.ID == st.ImageID {
			i = j
		}
	}
	i = (i + delta + len(images)) % len(images)
	if err := mw.state.SelectImage(images[i].ID); err != nil {
		mw.showError(err)
	}
}

func (mw *MainWindow) onClose() {
	mw.confirmDiscard(func() {
		mw.SavePreferences()
		if mw.watcher != nil {
			mw.watcher.Stop()
		}
		mw.Close()
	})
}

// SavePreferences writes the window size and tool choice.
func (mw *MainWindow) SavePreferences() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	mw.prefs.SetString(prefs.KeyTool, mw.state.Status().Tool)
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("Failed to save preferences", zap.Error(err))
	}
}

// SavePreferencesIfChanged writes preferences changed since the last save.
func (mw *MainWindow) SavePreferencesIfChanged() {
	if err := mw.prefs.SaveIfChanged(); err != nil {
		mw.logger.Warn("Failed to save preferences", zap.Error(err))
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Polygon annotation of particles in microscopy images.\n"+
			"Datasets are read and written as COCO JSON.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
