// Package project provides the workspace file kept beside a dataset. It
// remembers UI state that does not belong in the COCO document.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"particle-annotator/internal/augment"
)

// Version is the current workspace file version.
const Version = 1

// File represents a workspace file (<dataset>.annot.json).
type File struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Dataset is the COCO file, relative to the workspace file.
	Dataset string `json:"dataset"`

	// LastImage is the file name of the image open at save time.
	LastImage string `json:"last_image,omitempty"`

	Tool       string           `json:"tool,omitempty"`
	ClassLabel int              `json:"class_label,omitempty"`
	Display    augment.Settings `json:"display"`
}

// New creates a workspace file for the dataset at datasetPath.
func New(datasetPath string) *File {
	now := time.Now()
	return &File{
		Version:  Version,
		Created:  now,
		Modified: now,
		Dataset:  filepath.Base(datasetPath),
		Display:  augment.DefaultSettings(),
	}
}

// PathFor returns the workspace file path for a dataset file.
func PathFor(datasetPath string) string {
	base := strings.TrimSuffix(datasetPath, filepath.Ext(datasetPath))
	return base + ".annot.json"
}

// Load loads a workspace file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}
	if proj.Display.Contrast == 0 {
		proj.Display.Contrast = 1
	}
	return &proj, nil
}

// Save saves the workspace to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()
	if p.Version == 0 {
		p.Version = Version
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DatasetPath returns the absolute path to the dataset file.
func (p *File) DatasetPath(projectPath string) string {
	if p.Dataset == "" || filepath.IsAbs(p.Dataset) {
		return p.Dataset
	}
	return filepath.Join(filepath.Dir(projectPath), p.Dataset)
}
