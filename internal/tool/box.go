package tool

import "fmt"

// Options tunes the tools in a Box.
type Options struct {
	BrushRadius    float64
	CircleVertices int
	PumpStep       float64
}

// DefaultOptions returns the stock tool settings.
func DefaultOptions() Options {
	return Options{
		BrushRadius:    DefaultBrushRadius,
		CircleVertices: DefaultCircleVertices,
		PumpStep:       DefaultPumpStep,
	}
}

// Box holds one instance of every tool and tracks the selected one.
type Box struct {
	tools   map[Kind]Tool
	current Kind
}

// NewBox creates a tool box with the polygon tool selected.
func NewBox(opts Options) *Box {
	return &Box{
		tools: map[Kind]Tool{
			KindPolygon: &Polygon{},
			KindBrush:   NewBrush(opts.BrushRadius),
			KindCircle:  NewCircle(opts.CircleVertices),
			KindGrab:    NewGrab(),
			KindPump:    NewPump(opts.PumpStep),
		},
		current: KindPolygon,
	}
}

// Select makes k the current tool. Switching resets the new tool.
func (b *Box) Select(k Kind) error {
	t, ok := b.tools[k]
	if !ok {
		return fmt.Errorf("unknown tool %v", k)
	}
	if k != b.current {
		t.Reset()
	}
	b.current = k
	return nil
}

// Current returns the selected tool.
func (b *Box) Current() Tool {
	return b.tools[b.current]
}

// Get returns the tool of kind k.
func (b *Box) Get(k Kind) Tool {
	return b.tools[k]
}

// ResetAll clears the local state of every tool.
func (b *Box) ResetAll() {
	for _, t := range b.tools {
		t.Reset()
	}
}
