package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"particle-annotator/internal/annotation"
	"particle-annotator/internal/coco"
	pimage "particle-annotator/internal/image"
)

// JSONPath returns the dataset file that belongs to folder dir.
func JSONPath(dir string) string {
	return filepath.Clean(dir) + ".json"
}

// OpenFolder opens dir. If a dataset file named after the folder exists
// next to it, that file is loaded; otherwise the folder is scanned.
func (d *Dataset) OpenFolder(dir string) error {
	jsonPath := JSONPath(dir)
	if _, err := os.Stat(jsonPath); err == nil {
		d.logger.Info("Opening existing dataset", zap.String("path", jsonPath))
		return d.LoadJSON(jsonPath)
	}
	return d.LoadDirectory(dir)
}

// LoadDirectory replaces the dataset with the images found under dir.
// Unreadable files are logged and skipped. Ids are assigned densely in
// walk order and file names are stored relative to dir's parent.
func (d *Dataset) LoadDirectory(dir string) error {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to open folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	parent := filepath.Dir(dir)

	var files []string
	err = filepath.WalkDir(dir, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			d.logger.Warn("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			if e != nil && e.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !e.IsDir() && pimage.IsSupportedFormat(e.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	images := make([]coco.Image, 0, len(files))
	for _, path := range files {
		cfg, err := pimage.DecodeConfig(path)
		if err != nil {
			d.logger.Warn("Skipping unreadable image", zap.String("path", path), zap.Error(err))
			continue
		}
		rel, err := filepath.Rel(parent, path)
		if err != nil {
			d.logger.Warn("Skipping image outside folder", zap.String("path", path), zap.Error(err))
			continue
		}
		images = append(images, coco.Image{
			ID:       len(images),
			FileName: filepath.ToSlash(rel),
			Width:    cfg.Width,
			Height:   cfg.Height,
		})
	}

	d.reset()
	d.images = images
	for _, im := range images {
		d.annotations[im.ID] = []*annotation.Annotation{}
	}
	d.nextImageID = len(images)
	d.root = parent
	d.path = JSONPath(dir)

	d.logger.Info("Imported folder",
		zap.String("dir", dir),
		zap.Int("found", len(files)),
		zap.Int("images", len(images)))
	return nil
}
