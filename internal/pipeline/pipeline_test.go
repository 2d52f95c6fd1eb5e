package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"shopatlas/internal/config"
	"shopatlas/internal/emitter"
	"shopatlas/internal/logger"
	"shopatlas/internal/models"
	"shopatlas/internal/schema"
)

const sourcePage = `
<html><body>
  <div class="item">
    <h3 class="title">Bridge Farm Shop</h3>
    <p class="addr">1 Mill Lane, Bridgetown</p>
    <span class="pc">AB1 2CD</span>
    <a class="site" href="https://bridgefarm.example">site</a>
  </div>
  <div class="item">
    <h3 class="title">Bridge Farm Shop</h3>
    <p class="addr">1 Mill Lane, Bridgetown</p>
    <span class="pc">AB1 2CD</span>
  </div>
  <div class="item">
    <h3 class="title">Lost Lane Farm</h3>
    <p class="addr">Nowhere Road</p>
    <span class="pc">ZZ9 9ZZ</span>
  </div>
</body></html>`

const shopSchema = `{
  "type": "object",
  "required": ["id", "name", "slug"],
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string", "minLength": 1},
    "slug": {"type": "string", "minLength": 1}
  }
}`

// testServers stands up fake source, geocoder and schema endpoints.
func testServers(t *testing.T) (source, geocoder, schemaSrv *httptest.Server) {
	t.Helper()

	source = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sourcePage))
	}))
	t.Cleanup(source.Close)

	geocoder = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "Nowhere Road ZZ9 9ZZ United Kingdom" {
			w.Write([]byte(`[]`))

			return
		}

		w.Write([]byte(`[{"lat":"51.5074","lon":"-0.1278"}]`))
	}))
	t.Cleanup(geocoder.Close)

	schemaSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(shopSchema))
	}))
	t.Cleanup(schemaSrv.Close)

	return source, geocoder, schemaSrv
}

func testConfig(t *testing.T, sourceURL, geocoderURL, schemaURL string) *config.Config {
	t.Helper()

	return &config.Config{
		SchemaURL: schemaURL,
		Output: config.OutputConfig{
			BasePath:    t.TempDir(),
			PrettyPrint: true,
		},
		Geocoder: config.GeocoderConfig{
			URL:        geocoderURL,
			UserAgent:  "ShopAtlasBot/1.0-test",
			MinDelayMs: 0,
			TimeoutSec: 5,
		},
		Retry: config.RetryPolicy{
			MaxAttempts:       1,
			BackoffMultiplier: 1.0,
			TimeoutSec:        5,
		},
		Logging: config.LoggingConfig{Level: "error"},
		Sources: []config.SourceConfig{
			{
				Name:    "test-directory",
				URL:     sourceURL,
				Enabled: true,
				Hints: config.Hints{
					List:     ".item",
					Name:     ".title",
					Address:  ".addr",
					Postcode: ".pc",
					Website:  "a.site",
				},
			},
		},
	}
}

func TestPipeline_Run(t *testing.T) {
	source, geocoder, schemaSrv := testServers(t)
	cfg := testConfig(t, source.URL, geocoder.URL, schemaSrv.URL)

	p, err := New(cfg, Secrets{}, logger.NewLogger("error"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Extracted != 3 {
		t.Errorf("Extracted = %d, want 3", summary.Extracted)
	}

	// The two identical Bridge Farm Shop records collapse in phase 1.
	if summary.Deduped != 2 {
		t.Errorf("Deduped = %d, want 2", summary.Deduped)
	}

	if summary.SchemaValid != summary.SchemaTotal {
		t.Errorf("SchemaValid = %d/%d, want all valid", summary.SchemaValid, summary.SchemaTotal)
	}

	// Lost Lane Farm could not be geocoded; it ships in the flat list
	// but not in the feature collection.
	if summary.Features != 1 {
		t.Errorf("Features = %d, want 1", summary.Features)
	}

	flatData, err := os.ReadFile(summary.FlatPath)
	if err != nil {
		t.Fatalf("flat artifact missing: %v", err)
	}

	var flat []models.Shop
	if err := json.Unmarshal(flatData, &flat); err != nil {
		t.Fatalf("flat artifact not valid JSON: %v", err)
	}

	if len(flat) != 2 {
		t.Fatalf("flat records = %d, want 2", len(flat))
	}

	for i := range flat {
		if flat[i].Name == "" || flat[i].Slug == "" {
			t.Errorf("record %d missing name or slug: %+v", i, flat[i])
		}

		if !models.ValidID(flat[i].ID) {
			t.Errorf("record %d id = %q, not generated format", i, flat[i].ID)
		}
	}

	geoData, err := os.ReadFile(summary.GeoPath)
	if err != nil {
		t.Fatalf("geo artifact missing: %v", err)
	}

	var fc emitter.FeatureCollection
	if err := json.Unmarshal(geoData, &fc); err != nil {
		t.Fatalf("geo artifact not valid JSON: %v", err)
	}

	if len(fc.Features) != summary.Features {
		t.Errorf("feature count mismatch: %d vs summary %d", len(fc.Features), summary.Features)
	}
}

func TestPipeline_Run_SchemaUnreachableIsFatal(t *testing.T) {
	source, geocoder, schemaSrv := testServers(t)

	dead := httptest.NewServer(nil)
	dead.Close()

	cfg := testConfig(t, source.URL, geocoder.URL, dead.URL)
	_ = schemaSrv

	p, err := New(cfg, Secrets{}, logger.NewLogger("error"))
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Run(context.Background())
	if !errors.Is(err, schema.ErrSchemaUnavailable) {
		t.Fatalf("err = %v, want ErrSchemaUnavailable", err)
	}

	// No partial output.
	entries, readErr := os.ReadDir(cfg.Output.BasePath)
	if readErr != nil {
		t.Fatal(readErr)
	}

	if len(entries) != 0 {
		t.Errorf("partial output written: %v", entries)
	}
}

func TestPipeline_Run_SourceFailureDegrades(t *testing.T) {
	_, geocoder, schemaSrv := testServers(t)

	deadSource := httptest.NewServer(nil)
	deadSource.Close()

	cfg := testConfig(t, deadSource.URL, geocoder.URL, schemaSrv.URL)

	p, err := New(cfg, Secrets{}, logger.NewLogger("error"))
	if err != nil {
		t.Fatal(err)
	}

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("a failing source must not abort the run: %v", err)
	}

	if summary.Extracted != 0 || summary.Deduped != 0 {
		t.Errorf("summary = %+v, want empty run", summary)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := &config.Config{}

	if _, err := New(cfg, Secrets{}, logger.NewLogger("error")); !errors.Is(err, config.ErrNoSources) {
		t.Fatalf("err = %v, want ErrNoSources", err)
	}
}

func TestNew_PlacesEnabledWithoutKey(t *testing.T) {
	source, geocoder, schemaSrv := testServers(t)
	cfg := testConfig(t, source.URL, geocoder.URL, schemaSrv.URL)
	cfg.Places = config.PlacesConfig{
		Enabled:   true,
		URL:       "https://places.example/textsearch",
		Locations: []config.SearchLocation{{Name: "London", Lat: 51.5, Lng: -0.12}},
	}

	if _, err := New(cfg, Secrets{}, logger.NewLogger("error")); err == nil {
		t.Fatal("New succeeded without places API key, want error")
	}
}
