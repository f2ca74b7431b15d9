package category

import (
	"testing"

	"particle-annotator/pkg/colorutil"
)

func TestDefaults(t *testing.T) {
	cats := Defaults()
	if len(cats) != 10 || cats[0].ID != Elongated || cats[0].Name != "Elongated" {
		t.Fatalf("defaults = %v", cats)
	}
	cats[0].Name = "changed"
	if Defaults()[0].Name != "Elongated" {
		t.Error("Defaults shares storage")
	}
}

func TestIsUserSlot(t *testing.T) {
	tests := []struct {
		id   int
		want bool
	}{{Auto, false}, {Platelet, false}, {User1, true}, {User5, true}, {User5 + 1, false}}
	for _, tt := range tests {
		if got := IsUserSlot(tt.id); got != tt.want {
			t.Errorf("IsUserSlot(%d) = %v", tt.id, got)
		}
	}
}

func TestColour(t *testing.T) {
	bg := colorutil.MustParseHex("#000000")
	if Colour(Auto) != bg || Colour(-1) != bg || Colour(99) != bg {
		t.Error("unknown ids should map to the background colour")
	}
	if Colour(Elongated) != colorutil.MustParseHex("#1f77b4") {
		t.Errorf("Colour(Elongated) = %v", Colour(Elongated))
	}
}
