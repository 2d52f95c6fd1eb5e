// Package main provides the unified pipeline command: crawl the
// configured sources, normalize, geocode, dedupe, validate and write the
// two output artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"shopatlas/internal/config"
	"shopatlas/internal/logger"
	"shopatlas/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "./configs/seeds.yaml", "Path to the seeds file")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	logFormat := flag.String("log-format", "", "Override the configured log format (text or json)")
	flag.Parse()

	// Secrets come from the environment, never from the seeds file.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}

	format := cfg.Logging.Format
	if *logFormat != "" {
		format = *logFormat
	}

	log := logger.New(level, format, os.Stderr)

	secrets := pipeline.Secrets{
		GeocoderEmail: os.Getenv("NOMINATIM_EMAIL"),
		PlacesAPIKey:  os.Getenv("GOOGLE_PLACES_API_KEY"),
	}

	p, err := pipeline.New(cfg, secrets, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("🚀 Starting shop pipeline", "config", *configPath)

	summary, err := p.Run(ctx)
	if err != nil {
		log.Error("pipeline failed", "error", err)
		os.Exit(1)
	}

	log.Info("✨ Pipeline complete")
	fmt.Println()
	fmt.Print(summary.Table())
}
