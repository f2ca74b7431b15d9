// Package coco defines the COCO-like JSON document the annotator persists.
package coco

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Info describes the dataset as a whole.
type Info struct {
	Year        json.Number `json:"year,omitempty"`
	Version     string      `json:"version,omitempty"`
	Description string      `json:"description,omitempty"`
	DateCreated string      `json:"date_created,omitempty"`
	Contributor string      `json:"contributor,omitempty"`
	URL         string      `json:"url,omitempty"`
}

// Year formats y for Info.Year.
func Year(y int) json.Number {
	return json.Number(strconv.Itoa(y))
}

// License is an entry of the licenses list.
type License struct {
	ID   int    `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Image is one image record. FileName is relative and '/'-separated.
type Image struct {
	ID           int             `json:"id"`
	FileName     string          `json:"file_name"`
	Height       int             `json:"height"`
	Width        int             `json:"width"`
	License      json.RawMessage `json:"license,omitempty"`
	FlickrURL    string          `json:"flickr_url,omitempty"`
	CocoURL      string          `json:"coco_url,omitempty"`
	DateCaptured string          `json:"date_captured,omitempty"`
	DateCreated  string          `json:"date_created,omitempty"`
	Marked       bool            `json:"marked,omitempty"`
}

// Annotation is one polygon region record.
type Annotation struct {
	ID           int         `json:"id"`
	ImageID      int         `json:"image_id"`
	CategoryID   int         `json:"category_id"`
	BBox         [4]float64  `json:"bbox"`
	Segmentation [][]float64 `json:"segmentation"`
	Area         float64     `json:"area"`
	IsCrowd      int         `json:"iscrowd"`
}

// Category is one class of the label set.
type Category struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory,omitempty"`
}

// File is the complete document.
type File struct {
	Info        Info         `json:"info"`
	Licenses    []License    `json:"licenses"`
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Category   `json:"categories"`
}

// Decode reads a document from r.
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	return &f, nil
}

// Encode writes the document to w as indented JSON.
func (f *File) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	return nil
}

// ImagesByID indexes the image records by id.
func (f *File) ImagesByID() map[int]Image {
	idx := make(map[int]Image, len(f.Images))
	for _, im := range f.Images {
		idx[im.ID] = im
	}
	return idx
}
