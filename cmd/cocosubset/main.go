// Command cocosubset copies the marked images of a dataset, with their
// annotations, to a new location.
package main

import (
	"flag"
	"fmt"
	"os"
	"path"
	"strings"

	"particle-annotator/internal/dataset"
	"particle-annotator/internal/logger"
)

func main() {
	in := flag.String("in", "", "Source dataset JSON")
	out := flag.String("out", "", "Subset JSON; images are copied next to it")
	mark := flag.String("mark", "", "Comma-separated file name globs to mark in addition to saved marks")
	mode := flag.String("log", "dev", "Log mode: dev or prod")
	flag.Parse()

	if *in == "" || *out == "" {
		fmt.Println("Usage: cocosubset -in a.json -out dir/subset.json [-mark 'set/*.png,other/x.png']")
		os.Exit(1)
	}

	log := logger.Must(*mode)
	defer log.Sync()

	d := dataset.New(log)
	if err := d.LoadJSON(*in); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *in, err)
		os.Exit(1)
	}

	if *mark != "" {
		patterns := strings.Split(*mark, ",")
		for _, im := range d.Images() {
			for _, p := range patterns {
				ok, err := path.Match(strings.TrimSpace(p), im.FileName)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Bad pattern %q: %v\n", p, err)
					os.Exit(1)
				}
				if ok {
					d.SetMarked(im.ID, true)
					break
				}
			}
		}
	}

	n := d.MarkedCount()
	if n == 0 {
		fmt.Fprintln(os.Stderr, "No images are marked")
		os.Exit(1)
	}
	if err := d.WriteJSON(*out, true); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write subset: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d of %d images to %s\n", n, d.Len(), *out)
}
