// Package main converts an existing flat shop list into a GeoJSON
// feature collection, for re-rendering the map artifact without a full
// pipeline run.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"shopatlas/internal/emitter"
	"shopatlas/internal/models"
)

func main() {
	input := flag.String("input", "dist/shops.uk.json", "Path to the flat shop list")
	output := flag.String("output", "dist/shops.geo.json", "Path for the feature collection")
	pretty := flag.Bool("pretty", true, "Indent the output")
	flag.Parse()

	data, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", *input, err)
		os.Exit(1)
	}

	var shops []models.Shop
	if err := json.Unmarshal(data, &shops); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse %s: %v\n", *input, err)
		os.Exit(1)
	}

	fc := emitter.BuildFeatureCollection(shops)

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(fc, "", "  ")
	} else {
		out, err = json.Marshal(fc)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal feature collection: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, out, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *output, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d features (of %d records) to %s\n", len(fc.Features), len(shops), *output)
}
