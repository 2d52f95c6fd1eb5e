// Package pipeline drives the full reconciliation pass: extraction,
// normalization, coordinate resolution, deduplication, schema validation
// and artifact emission, strictly in that order.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shopatlas/internal/config"
	"shopatlas/internal/dedupe"
	"shopatlas/internal/emitter"
	"shopatlas/internal/enrich"
	"shopatlas/internal/extractor"
	"shopatlas/internal/fetch"
	"shopatlas/internal/geocode"
	"shopatlas/internal/logger"
	"shopatlas/internal/models"
	"shopatlas/internal/normalizer"
	"shopatlas/internal/places"
	"shopatlas/internal/report"
	"shopatlas/internal/schema"
)

// Secrets carries environment-sourced credentials. They are passed in
// explicitly; the pipeline never reads the process environment itself.
type Secrets struct {
	GeocoderEmail string
	PlacesAPIKey  string
}

// Pipeline wires the stages together for one batch run.
type Pipeline struct {
	cfg        *config.Config
	log        *logger.Logger
	fetcher    *fetch.Fetcher
	extractor  *extractor.Extractor
	normalizer *normalizer.Normalizer
	geocoder   *geocode.Client
	deduper    *dedupe.Deduper
	emitter    *emitter.Emitter
	places     *places.Client
}

// New builds a pipeline from a validated configuration. Configuration
// problems (including a missing places API key when the places source is
// enabled) surface here, before any network I/O.
func New(cfg *config.Config, secrets Secrets, log *logger.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Pipeline{
		cfg:        cfg,
		log:        log,
		fetcher:    fetch.NewWithPolicy(&cfg.Retry),
		extractor:  extractor.New(),
		normalizer: normalizer.New(),
		geocoder:   geocode.NewClient(cfg.Geocoder, secrets.GeocoderEmail, log),
		deduper:    dedupe.New(log),
		emitter:    emitter.New(cfg.Output, log),
	}

	if cfg.Places.Enabled {
		client, err := places.NewClient(cfg.Places, secrets.PlacesAPIKey, log)
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}

		p.places = client
	}

	return p, nil
}

// Run executes one full batch pass and returns the run summary. Only
// startup-level failures (unreachable schema document, unwritable
// output) return an error; per-record failures degrade gracefully.
func (p *Pipeline) Run(ctx context.Context) (*report.Summary, error) {
	runID := uuid.NewString()
	log := p.log.With("run_id", runID)
	start := time.Now()

	// The schema document is required; fetch it before any crawling so
	// a misconfigured run fails without writing partial output.
	validator, err := schema.NewValidatorFromURL(ctx, p.fetcher, p.cfg.SchemaURL, log)
	if err != nil {
		return nil, err
	}

	candidates := p.gather(ctx, log)
	log.Info("extraction complete", "candidates", len(candidates))

	shops := p.normalizer.NormalizeAll(candidates)
	mapped := len(shops)
	log.Info("normalization complete", "shops", mapped)

	resolved := p.geocoder.ResolveMissing(ctx, shops)
	log.Info("geocoding complete", "resolved", resolved)

	shops = p.deduper.Dedupe(shops)
	log.Info("deduplication complete", "survivors", len(shops))

	if p.cfg.Enrichment.SampleImages {
		enriched := enrich.NewImageEnricher(p.cfg.Enrichment.ImageURLs).Apply(shops)
		log.Info("image enrichment complete", "enriched", enriched)
	}

	validation := validator.ValidateAll(shops)
	log.Info("schema validation complete", "valid", validation.Valid, "total", validation.Total)

	flatPath, err := p.emitter.WriteFlat(shops)
	if err != nil {
		return nil, fmt.Errorf("failed to write flat list: %w", err)
	}

	geoPath, features, err := p.emitter.WriteGeoJSON(shops)
	if err != nil {
		return nil, fmt.Errorf("failed to write feature collection: %w", err)
	}

	return &report.Summary{
		RunID:       runID,
		Extracted:   len(candidates),
		Mapped:      mapped,
		Geocoded:    resolved,
		Deduped:     len(shops),
		SchemaValid: validation.Valid,
		SchemaTotal: validation.Total,
		Features:    features,
		FlatPath:    flatPath,
		GeoPath:     geoPath,
		Duration:    time.Since(start),
	}, nil
}

// gather collects candidates from every enabled source. A failing source
// is logged and skipped; it never aborts the run.
func (p *Pipeline) gather(ctx context.Context, log *logger.Logger) []models.Candidate {
	var candidates []models.Candidate

	for _, src := range p.cfg.EnabledSources() {
		var (
			content string
			err     error
		)

		if src.IsLocalFile() {
			content, err = p.fetcher.ReadLocalFile(src.File)
		} else {
			content, err = p.fetcher.FetchAny(ctx, src.AllURLs())
		}

		if err != nil {
			log.Warn("source fetch failed", "source", src.Name, "error", err)

			continue
		}

		found, err := p.extractor.Extract(content, src.Hints)
		if err != nil {
			log.Warn("extraction failed", "source", src.Name, "error", err)

			continue
		}

		log.Info("source extracted", "source", src.Name, "items", len(found))
		candidates = append(candidates, found...)
	}

	if p.places != nil {
		found, err := p.places.FetchAll(ctx)
		if err != nil {
			log.Warn("places fetch incomplete", "error", err)
		}

		log.Info("places fetched", "items", len(found))
		candidates = append(candidates, found...)
	}

	return candidates
}
