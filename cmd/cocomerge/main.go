// Command cocomerge merges annotation files into a base dataset.
package main

import (
	"flag"
	"fmt"
	"os"

	"particle-annotator/internal/dataset"
	"particle-annotator/internal/logger"
)

func main() {
	base := flag.String("base", "", "Base dataset JSON")
	out := flag.String("out", "", "Output JSON (defaults to overwriting -base)")
	mode := flag.String("log", "dev", "Log mode: dev or prod")
	flag.Parse()

	if *base == "" || flag.NArg() == 0 {
		fmt.Println("Usage: cocomerge -base a.json [-out c.json] b.json [more.json ...]")
		os.Exit(1)
	}
	if *out == "" {
		*out = *base
	}

	log := logger.Must(*mode)
	defer log.Sync()

	d := dataset.New(log)
	if err := d.LoadJSON(*base); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *base, err)
		os.Exit(1)
	}
	fmt.Printf("Base: %d images, %d annotations\n", d.Len(), d.AnnotationCount())

	for _, in := range flag.Args() {
		before := d.AnnotationCount()
		if err := d.MergeJSON(in); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to merge %s: %v\n", in, err)
			os.Exit(1)
		}
		fmt.Printf("Merged %s: +%d annotations\n", in, d.AnnotationCount()-before)
	}

	if err := d.WriteJSON(*out, false); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s: %d images, %d annotations\n", *out, d.Len(), d.AnnotationCount())
}
