// Package category holds the default particle class set and its colours.
package category

import (
	"image/color"

	"particle-annotator/internal/coco"
	"particle-annotator/pkg/colorutil"
)

// Default category ids. Ids are 1-based; 0 is background.
const (
	Elongated = iota + 1
	Regular
	Spherical
	Agglomerated
	Platelet
	User1
	User2
	User3
	User4
	User5
)

// Auto is the label sentinel meaning "classify when editing stops".
const Auto = 0

// Names lists the default category names, indexed by id-1.
var Names = []string{
	"Elongated",
	"Regular",
	"Spherical",
	"Agglomerated",
	"Platelet",
	"User 1",
	"User 2",
	"User 3",
	"User 4",
	"User 5",
}

var colours = []color.RGBA{
	colorutil.MustParseHex("#000000"), // background
	colorutil.MustParseHex("#1f77b4"),
	colorutil.MustParseHex("#ff7f0e"),
	colorutil.MustParseHex("#2ca02c"),
	colorutil.MustParseHex("#d62728"),
	colorutil.MustParseHex("#9467bd"),
	colorutil.MustParseHex("#8c564b"),
	colorutil.MustParseHex("#e377c2"),
	colorutil.MustParseHex("#7f7f7f"),
	colorutil.MustParseHex("#bcbd22"),
	colorutil.MustParseHex("#17becf"),
}

// Defaults returns a fresh copy of the default category list.
func Defaults() []coco.Category {
	cats := make([]coco.Category, len(Names))
	for i, name := range Names {
		cats[i] = coco.Category{ID: i + 1, Name: name}
	}
	return cats
}

// IsUserSlot reports whether id is one of the renameable user categories.
func IsUserSlot(id int) bool {
	return id >= User1 && id <= User5
}

// Colour returns the display colour for a category id. Unknown and
// unclassified ids map to the background colour.
func Colour(id int) color.RGBA {
	if id < 0 || id >= len(colours) {
		return colours[0]
	}
	return colours[id]
}
