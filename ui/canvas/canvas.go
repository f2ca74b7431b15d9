// Package canvas provides the annotation canvas widget.
package canvas

import (
	"errors"
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"particle-annotator/internal/app"
	"particle-annotator/internal/session"
)

// nudgeStep is the arrow-key pan distance in device pixels.
const nudgeStep = 20

// ImageCanvas shows the open image with its annotations and turns pointer,
// wheel and key input into session events.
type ImageCanvas struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster

	// scale converts widget units to raster pixels. It is learned from the
	// last paint.
	scale float32

	onError func(error)
}

var (
	_ desktop.Mouseable   = (*ImageCanvas)(nil)
	_ desktop.Hoverable   = (*ImageCanvas)(nil)
	_ fyne.DoubleTappable = (*ImageCanvas)(nil)
	_ fyne.Scrollable     = (*ImageCanvas)(nil)
	_ fyne.Draggable      = (*ImageCanvas)(nil)
	_ fyne.Focusable      = (*ImageCanvas)(nil)
)

// NewImageCanvas creates a canvas over state.
func NewImageCanvas(state *app.State) *ImageCanvas {
	ic := &ImageCanvas{state: state, scale: 1}
	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(fyne.NewSize(400, 300))
	ic.ExtendBaseWidget(ic)

	state.On(app.EventRepaint, func(interface{}) { ic.raster.Refresh() })
	return ic
}

// OnError sets the callback for rejected input.
func (ic *ImageCanvas) OnError(callback func(error)) {
	ic.onError = callback
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(ic.raster)
}

func (ic *ImageCanvas) draw(w, h int) image.Image {
	if size := ic.Size(); size.Width > 0 {
		ic.scale = float32(w) / size.Width
	}
	img, err := ic.state.Render(w, h)
	if err != nil {
		ic.report(err)
	}
	return img
}

func (ic *ImageCanvas) report(err error) {
	if errors.Is(err, session.ErrNoImage) {
		return
	}
	if err != nil && ic.onError != nil {
		ic.onError(err)
	}
}

func (ic *ImageCanvas) dispatch(ev session.Event) {
	ic.report(ic.state.Dispatch(ev))
}

// device converts a widget position to raster pixels.
func (ic *ImageCanvas) device(pos fyne.Position) (float64, float64) {
	return float64(pos.X * ic.scale), float64(pos.Y * ic.scale)
}

// MouseDown implements desktop.Mouseable.
func (ic *ImageCanvas) MouseDown(ev *desktop.MouseEvent) {
	if c := fyne.CurrentApp().Driver().CanvasForObject(ic); c != nil {
		c.Focus(ic)
	}
	if ev, ok := pointerDown(ev, ic.scale); ok {
		ic.dispatch(ev)
	}
}

// MouseUp implements desktop.Mouseable.
func (ic *ImageCanvas) MouseUp(ev *desktop.MouseEvent) {
	if b, ok := button(ev.Button); ok {
		ic.dispatch(session.PointerUp{Button: b})
	}
}

// MouseIn implements desktop.Hoverable.
func (ic *ImageCanvas) MouseIn(ev *desktop.MouseEvent) { ic.MouseMoved(ev) }

// MouseMoved implements desktop.Hoverable.
func (ic *ImageCanvas) MouseMoved(ev *desktop.MouseEvent) {
	x, y := ic.device(ev.Position)
	ic.dispatch(session.PointerMove{X: x, Y: y})
}

// MouseOut implements desktop.Hoverable.
func (ic *ImageCanvas) MouseOut() {}

// Dragged implements fyne.Draggable. Fyne reports movement with a button
// held as drags rather than hover moves.
func (ic *ImageCanvas) Dragged(ev *fyne.DragEvent) {
	// Workaround for Fyne bug: drags can report positions outside the widget
	size := ic.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 || ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	x, y := ic.device(ev.Position)
	ic.dispatch(session.PointerMove{X: x, Y: y})
}

// DragEnd implements fyne.Draggable. MouseUp ends the gesture.
func (ic *ImageCanvas) DragEnd() {}

// DoubleTapped implements fyne.DoubleTappable.
func (ic *ImageCanvas) DoubleTapped(*fyne.PointEvent) {
	ic.dispatch(session.DoubleClick{Button: session.ButtonPrimary})
}

// Scrolled implements fyne.Scrollable. The wheel zooms.
func (ic *ImageCanvas) Scrolled(ev *fyne.ScrollEvent) {
	ic.dispatch(session.Wheel{Delta: float64(ev.Scrolled.DY)})
}

// FocusGained implements fyne.Focusable.
func (ic *ImageCanvas) FocusGained() {}

// FocusLost implements fyne.Focusable.
func (ic *ImageCanvas) FocusLost() {}

// TypedRune implements fyne.Focusable.
func (ic *ImageCanvas) TypedRune(r rune) {
	if ev, ok := runeEvent(r); ok {
		ic.dispatch(ev)
	}
}

// TypedKey implements fyne.Focusable.
func (ic *ImageCanvas) TypedKey(ev *fyne.KeyEvent) {
	if ev, ok := keyEvent(ev.Name); ok {
		ic.dispatch(ev)
	}
}

func button(b desktop.MouseButton) (session.Button, bool) {
	switch b {
	case desktop.MouseButtonPrimary:
		return session.ButtonPrimary, true
	case desktop.MouseButtonSecondary:
		return session.ButtonSecondary, true
	case desktop.MouseButtonTertiary:
		return session.ButtonMiddle, true
	}
	return 0, false
}

func pointerDown(ev *desktop.MouseEvent, scale float32) (session.PointerDown, bool) {
	b, ok := button(ev.Button)
	if !ok {
		return session.PointerDown{}, false
	}
	return session.PointerDown{
		X:      float64(ev.Position.X * scale),
		Y:      float64(ev.Position.Y * scale),
		Button: b,
		Shift:  ev.Modifier&fyne.KeyModifierShift != 0,
	}, true
}

func keyEvent(name fyne.KeyName) (session.Event, bool) {
	switch name {
	case fyne.KeyReturn, fyne.KeyEnter, fyne.KeyEscape:
		return session.FinishEdit{}, true
	case fyne.KeyLeft:
		return session.Nudge{DX: nudgeStep}, true
	case fyne.KeyRight:
		return session.Nudge{DX: -nudgeStep}, true
	case fyne.KeyUp:
		return session.Nudge{DY: nudgeStep}, true
	case fyne.KeyDown:
		return session.Nudge{DY: -nudgeStep}, true
	case fyne.KeyHome:
		return session.ResetView{}, true
	}
	return nil, false
}

func runeEvent(r rune) (session.Event, bool) {
	switch r {
	case '+', '=':
		return session.ZoomIn{}, true
	case '-':
		return session.ZoomOut{}, true
	case '0':
		return session.ResetView{}, true
	}
	return nil, false
}
