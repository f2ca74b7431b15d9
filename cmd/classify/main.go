// Command classify assigns shape classes to the annotations of a dataset
// that still carry the automatic label.
package main

import (
	"flag"
	"fmt"
	"os"

	"particle-annotator/internal/classify"
	"particle-annotator/internal/dataset"
	"particle-annotator/internal/logger"
)

func main() {
	in := flag.String("in", "", "Dataset JSON")
	out := flag.String("out", "", "Output JSON (defaults to overwriting -in)")
	all := flag.Bool("all", false, "Reclassify every annotation, not only automatic ones")
	dry := flag.Bool("n", false, "Print the table without writing")
	flag.Parse()

	if *in == "" {
		fmt.Println("Usage: classify -in a.json [-out b.json] [-all] [-n]")
		os.Exit(1)
	}
	if *out == "" {
		*out = *in
	}

	log := logger.Must("dev")
	defer log.Sync()

	d := dataset.New(log)
	if err := d.LoadJSON(*in); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *in, err)
		os.Exit(1)
	}

	shape := classify.NewShape()
	fmt.Printf("Thresholds: circularity > %.2f, aspect < %.2f, convexity < %.2f\n\n",
		shape.Thresholds.Circularity, shape.Thresholds.AspectRatio, shape.Thresholds.Convexity)
	fmt.Printf("%-24s %6s %10s %10s %8s %8s %8s  %s\n",
		"Image", "ID", "Area", "Perimeter", "Circ", "Aspect", "Convex", "Class")

	changed, failed := 0, 0
	for _, im := range d.Images() {
		for _, a := range d.Annotations(im.ID) {
			if !*all && !a.NeedsClassification() {
				continue
			}
			m, err := classify.Measure(a.Contour())
			if err != nil {
				fmt.Printf("%-24s %6d  %v\n", im.FileName, a.ID, err)
				failed++
				continue
			}
			label, err := classify.Run(shape, a.Contour())
			if err != nil {
				fmt.Printf("%-24s %6d  %v\n", im.FileName, a.ID, err)
				failed++
				continue
			}
			fmt.Printf("%-24s %6d %10.1f %10.1f %8.3f %8.3f %8.3f  %s\n",
				im.FileName, a.ID, m.Area, m.Perimeter, m.Circularity, m.AspectRatio, m.Convexity,
				d.CategoryName(label))
			if label != a.ClassLabel {
				if err := a.SetLabel(label); err == nil {
					changed++
				}
			}
		}
	}
	fmt.Printf("\n%d changed, %d failed\n", changed, failed)

	if *dry || changed == 0 {
		return
	}
	if err := d.WriteJSON(*out, false); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}
