// Package main fetches shop candidates from the configured places API
// and writes them as a normalized flat list, without crawling or
// geocoding. Useful for previewing a places harvest before merging it
// into a full pipeline run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shopatlas/internal/config"
	"shopatlas/internal/logger"
	"shopatlas/internal/normalizer"
	"shopatlas/internal/places"
)

func main() {
	configPath := flag.String("config", "./configs/seeds.yaml", "Path to the seeds file")
	output := flag.String("output", "dist/places.json", "Path for the harvested list")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	if !cfg.Places.Enabled {
		fmt.Fprintln(os.Stderr, "configuration error: places source is not enabled")
		os.Exit(2)
	}

	log := logger.NewLogger(cfg.Logging.Level)

	client, err := places.NewClient(cfg.Places, os.Getenv("GOOGLE_PLACES_API_KEY"), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	candidates, err := client.FetchAll(ctx)
	if err != nil {
		log.Warn("places fetch incomplete", "error", err)
	}

	shops := normalizer.New().NormalizeAll(candidates)

	data, err := json.MarshalIndent(shops, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal records: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *output, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d records to %s\n", len(shops), *output)
}
