package app

import (
	"testing"

	"fyne.io/fyne/v2/theme"

	"particle-annotator/internal/category"
)

func TestThemeColours(t *testing.T) {
	th := NewTheme()
	if got := th.Color(theme.ColorNamePrimary, theme.VariantLight); got != category.Colour(category.Elongated) {
		t.Errorf("primary = %v", got)
	}
	want := theme.DefaultTheme().Color(theme.ColorNameBackground, theme.VariantDark)
	if got := th.Color(theme.ColorNameBackground, theme.VariantLight); got != want {
		t.Errorf("background = %v, want dark %v", got, want)
	}
	if th.Size(theme.SizeNamePadding) != theme.DefaultTheme().Size(theme.SizeNamePadding) {
		t.Error("sizes should come from the default theme")
	}
}
