package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"particle-annotator/internal/category"
	"particle-annotator/pkg/colorutil"
)

// Theme keeps the widgets dark around the canvas and borrows its accents
// from the annotation palette. Selections use the editing outline gold.
type Theme struct {
	fyne.Theme

	accent    color.Color
	selection color.Color
}

var _ fyne.Theme = (*Theme)(nil)

// NewTheme returns the dark theme accented with the first class colour.
func NewTheme() *Theme {
	return &Theme{
		Theme:     theme.DefaultTheme(),
		accent:    category.Colour(category.Elongated),
		selection: colorutil.WithAlpha(colorutil.Gold, 0x80),
	}
}

// Color ignores the requested variant: the canvas always sits on dark.
func (t *Theme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return t.accent
	case theme.ColorNameSelection:
		return t.selection
	}
	return t.Theme.Color(name, theme.VariantDark)
}
