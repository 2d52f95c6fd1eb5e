// Package main writes a starter seeds file with sensible defaults, for
// bootstrapping a new deployment.
package main

import (
	"flag"
	"fmt"
	"os"

	"shopatlas/internal/config"
)

func main() {
	output := flag.String("output", "./configs/seeds.yaml", "Where to write the starter seeds file")
	force := flag.Bool("force", false, "Overwrite an existing file")
	flag.Parse()

	if _, err := os.Stat(*output); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "%s already exists (use -force to overwrite)\n", *output)
		os.Exit(1)
	}

	cfg := starterConfig()

	if err := cfg.SaveConfig(*output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write seeds file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote starter seeds to %s\n", *output)
	fmt.Println("Fill in the source URLs and selector hints before running the pipeline.")
}

func starterConfig() *config.Config {
	return &config.Config{
		SchemaURL: "https://example.org/schemas/shop.schema.json",
		Output: config.OutputConfig{
			BasePath:    "dist",
			PrettyPrint: true,
		},
		Geocoder: config.GeocoderConfig{
			URL:          "https://nominatim.openstreetmap.org/search",
			UserAgent:    "ShopAtlasBot/1.0 (+https://example.org/bot)",
			CountryCodes: "gb",
			MinDelayMs:   1050,
			TimeoutSec:   30,
		},
		Retry: config.RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    1000,
			MaxDelayMs:        10000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Sources: []config.SourceConfig{
			{
				Name:    "example-directory",
				URL:     "https://example.org/farm-shops",
				Enabled: true,
				Hints: config.Hints{
					List:     ".listing-item",
					Name:     "h3",
					Address:  ".address",
					Postcode: ".postcode",
					Website:  "a.website",
				},
			},
		},
		Enrichment: config.EnrichmentConfig{
			SampleImages: true,
		},
	}
}
