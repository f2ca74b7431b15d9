package panels

import (
	"fmt"
	"path"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"particle-annotator/internal/app"
	"particle-annotator/internal/coco"
)

// ImagesPanel lists the dataset's images. The check box marks an image for
// the subset export.
type ImagesPanel struct {
	state     *app.State
	container fyne.CanvasObject

	list    *widget.List
	summary *widget.Label
	images  []coco.Image
	// syncing suppresses selection callbacks while the list follows the
	// session.
	syncing bool

	onError func(error)
}

// NewImagesPanel creates a new images panel.
func NewImagesPanel(state *app.State) *ImagesPanel {
	ip := &ImagesPanel{state: state}
	ip.summary = widget.NewLabel("No folder open")

	ip.list = widget.NewList(
		func() int {
			return len(ip.images)
		},
		func() fyne.CanvasObject {
			return container.NewHBox(widget.NewCheck("", nil), widget.NewLabel("image.png"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(ip.images) {
				return
			}
			im := ip.images[id]
			row := obj.(*fyne.Container)
			check := row.Objects[0].(*widget.Check)
			check.OnChanged = nil
			check.SetChecked(im.Marked)
			check.OnChanged = func(marked bool) { ip.mark(im.ID, marked) }
			row.Objects[1].(*widget.Label).SetText(fmt.Sprintf("%s  (%dx%d)", path.Base(im.FileName), im.Width, im.Height))
		},
	)
	ip.list.OnSelected = func(id widget.ListItemID) {
		if ip.syncing || id >= len(ip.images) {
			return
		}
		ip.report(state.SelectImage(ip.images[id].ID))
	}

	state.On(app.EventDatasetLoaded, func(interface{}) { ip.Refresh() })
	state.On(app.EventImageChanged, func(interface{}) { ip.Refresh() })

	ip.container = container.NewBorder(ip.summary, nil, nil, nil, ip.list)
	return ip
}

// Container returns the panel container.
func (ip *ImagesPanel) Container() fyne.CanvasObject {
	return ip.container
}

// Refresh reloads the list and highlights the open image.
func (ip *ImagesPanel) Refresh() {
	ip.images = ip.state.Images()
	ip.list.Refresh()
	ip.updateSummary()

	st := ip.state.Status()
	if !st.HasImage {
		return
	}
	for i, im := range ip.images {
		if im.ID == st.ImageID {
			ip.syncing = true
			ip.list.Select(i)
			ip.syncing = false
			return
		}
	}
}

func (ip *ImagesPanel) mark(id int, marked bool) {
	if err := ip.state.SetMarked(id, marked); err != nil {
		ip.report(err)
		return
	}
	for i := range ip.images {
		if ip.images[i].ID == id {
			ip.images[i].Marked = marked
		}
	}
	ip.updateSummary()
}

func (ip *ImagesPanel) updateSummary() {
	if len(ip.images) == 0 {
		ip.summary.SetText("No images")
		return
	}
	ip.summary.SetText(fmt.Sprintf("%d images, %d marked", len(ip.images), ip.state.MarkedCount()))
}

func (ip *ImagesPanel) report(err error) {
	if err != nil && ip.onError != nil {
		ip.onError(err)
	}
}
