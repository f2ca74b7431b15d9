// Package config loads the YAML tuning file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"particle-annotator/internal/session"
	"particle-annotator/internal/tool"
	"particle-annotator/internal/view"
)

// Config holds tuning values. Zero fields in a file keep their defaults.
type Config struct {
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`

	View struct {
		ZoomLadder []float64 `yaml:"zoom_ladder"`
	} `yaml:"view"`

	Tools struct {
		BrushRadius    float64 `yaml:"brush_radius"`
		CircleVertices int     `yaml:"circle_vertices"`
		PumpStep       float64 `yaml:"pump_step"`
	} `yaml:"tools"`

	Server struct {
		Addr         string `yaml:"addr"`
		PreviewWidth int    `yaml:"preview_width"`
	} `yaml:"server"`

	// Categories are appended to the default category set.
	Categories []string `yaml:"categories"`
}

// Default returns the stock configuration.
func Default() *Config {
	c := &Config{}
	c.Log.Mode = "dev"
	c.View.ZoomLadder = append([]float64(nil), view.DefaultLadder...)
	c.Tools.BrushRadius = tool.DefaultBrushRadius
	c.Tools.CircleVertices = tool.DefaultCircleVertices
	c.Tools.PumpStep = tool.DefaultPumpStep
	c.Server.Addr = ":8080"
	c.Server.PreviewWidth = 512
	return c
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := c.decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse reads a YAML document over the defaults.
func Parse(r io.Reader) (*Config, error) {
	c := Default()
	if err := c.decode(r); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return c.Validate()
}

// Validate checks the tuning values.
func (c *Config) Validate() error {
	if err := view.ValidateLadder(c.View.ZoomLadder); err != nil {
		return err
	}
	if c.Tools.BrushRadius <= 0 {
		return fmt.Errorf("brush radius must be positive, got %v", c.Tools.BrushRadius)
	}
	if c.Tools.CircleVertices < 3 {
		return fmt.Errorf("circle needs at least 3 vertices, got %d", c.Tools.CircleVertices)
	}
	if c.Tools.PumpStep <= 0 {
		return fmt.Errorf("pump step must be positive, got %v", c.Tools.PumpStep)
	}
	if c.Server.PreviewWidth <= 0 {
		return fmt.Errorf("preview width must be positive, got %d", c.Server.PreviewWidth)
	}
	return nil
}

// SessionOptions converts the tuning values for session.New.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		Ladder: c.View.ZoomLadder,
		Tools: tool.Options{
			BrushRadius:    c.Tools.BrushRadius,
			CircleVertices: c.Tools.CircleVertices,
			PumpStep:       c.Tools.PumpStep,
		},
	}
}
