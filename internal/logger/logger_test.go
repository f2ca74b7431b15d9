package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewModes(t *testing.T) {
	tests := []struct {
		mode  string
		debug bool
	}{
		{"", true},
		{"dev", true},
		{"prod", false},
		{"Production", false},
	}
	for _, tt := range tests {
		l, err := New(tt.mode)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.mode, err)
		}
		if got := l.Core().Enabled(zap.DebugLevel); got != tt.debug {
			t.Errorf("New(%q) debug enabled = %v, want %v", tt.mode, got, tt.debug)
		}
	}
	if Must("prod") == nil {
		t.Error("Must returned nil")
	}
}
