package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"particle-annotator/internal/app"
	"particle-annotator/internal/augment"
)

// DisplayPanel controls the display-only image adjustments.
type DisplayPanel struct {
	state     *app.State
	container fyne.CanvasObject

	brightness      *widget.Slider
	contrast        *widget.Slider
	brightnessLabel *widget.Label
	contrastLabel   *widget.Label
	smoothing       *widget.Check
	edges           *widget.Check
	disabled        *widget.Check

	// loading suppresses callbacks while widgets follow the state.
	loading bool
}

// NewDisplayPanel creates a new display panel.
func NewDisplayPanel(state *app.State) *DisplayPanel {
	dp := &DisplayPanel{state: state}

	dp.brightnessLabel = widget.NewLabel("")
	dp.contrastLabel = widget.NewLabel("")

	dp.brightness = widget.NewSlider(-augment.MaxBrightness, augment.MaxBrightness)
	dp.brightness.Step = augment.BrightnessStep
	dp.brightness.OnChanged = func(float64) { dp.apply() }

	dp.contrast = widget.NewSlider(augment.MinContrast, augment.MaxContrast)
	dp.contrast.Step = augment.ContrastStep
	dp.contrast.OnChanged = func(float64) { dp.apply() }

	dp.smoothing = widget.NewCheck("Smoothing", func(bool) { dp.apply() })
	dp.edges = widget.NewCheck("Edge detection", func(bool) { dp.apply() })
	dp.disabled = widget.NewCheck("Disable all", func(bool) { dp.apply() })

	resetBtn := widget.NewButton("Reset", func() {
		state.ResetAugmentation()
		dp.load()
	})

	dp.load()
	state.On(app.EventDatasetLoaded, func(interface{}) { dp.load() })

	dp.container = container.NewVBox(
		widget.NewCard("Brightness", "", container.NewVBox(dp.brightnessLabel, dp.brightness)),
		widget.NewCard("Contrast", "", container.NewVBox(dp.contrastLabel, dp.contrast)),
		widget.NewCard("Filters", "", container.NewVBox(dp.smoothing, dp.edges)),
		dp.disabled,
		resetBtn,
	)
	return dp
}

// Container returns the panel container.
func (dp *DisplayPanel) Container() fyne.CanvasObject {
	return dp.container
}

func (dp *DisplayPanel) load() {
	s := dp.state.Augmentation()
	dp.loading = true
	dp.brightness.SetValue(s.Brightness)
	dp.contrast.SetValue(s.Contrast)
	dp.smoothing.SetChecked(s.Smoothing)
	dp.edges.SetChecked(s.EdgeDetect)
	dp.disabled.SetChecked(s.Disabled)
	dp.loading = false
	dp.updateLabels(s)
}

func (dp *DisplayPanel) apply() {
	if dp.loading {
		return
	}
	s := augment.Settings{
		Brightness: dp.brightness.Value,
		Contrast:   dp.contrast.Value,
		Smoothing:  dp.smoothing.Checked,
		EdgeDetect: dp.edges.Checked,
		Disabled:   dp.disabled.Checked,
	}
	dp.state.SetAugmentation(s)
	dp.updateLabels(s)
}

func (dp *DisplayPanel) updateLabels(s augment.Settings) {
	dp.brightnessLabel.SetText(fmt.Sprintf("%+.2f", s.Brightness))
	dp.contrastLabel.SetText(fmt.Sprintf("x%.2f", s.Contrast))
}
