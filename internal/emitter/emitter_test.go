package emitter

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"shopatlas/internal/config"
	"shopatlas/internal/logger"
	"shopatlas/internal/models"
)

func testShops() []models.Shop {
	lat, lng := 51.5074, -0.1278
	website := "https://bridgefarm.example"

	return []models.Shop{
		{
			ID:   "shop_abc123def4",
			Name: "Bridge Farm Shop",
			Slug: "bridge-farm-shop-ab1-2cd",
			Location: models.Location{
				Lat:      &lat,
				Lng:      &lng,
				Address:  "1 Mill Lane",
				County:   "Devon",
				Postcode: "AB1 2CD",
			},
			Contact:   models.Contact{Website: &website},
			Offerings: []string{},
			Images:    []string{},
		},
		{
			ID:        "shop_xyz789ghi0",
			Name:      "Ungeolocated Farm",
			Slug:      "ungeolocated-farm-uk",
			Offerings: []string{},
			Images:    []string{},
		},
	}
}

func testEmitter(t *testing.T) *Emitter {
	t.Helper()

	return New(config.OutputConfig{
		BasePath:    t.TempDir(),
		PrettyPrint: true,
	}, logger.NewLogger("error"))
}

func TestEmitter_WriteFlat(t *testing.T) {
	e := testEmitter(t)

	path, err := e.WriteFlat(testShops())
	if err != nil {
		t.Fatalf("WriteFlat failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Human-readable indentation.
	if !strings.Contains(string(data), "\n  ") {
		t.Error("flat output not indented")
	}

	var decoded []models.Shop
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("flat output not valid JSON: %v", err)
	}

	// All records ship, geolocated or not.
	if len(decoded) != 2 {
		t.Errorf("flat records = %d, want 2", len(decoded))
	}

	if decoded[1].Location.Lat != nil {
		t.Error("ungeolocated record has lat in output")
	}
}

func TestEmitter_WriteGeoJSON(t *testing.T) {
	e := testEmitter(t)

	path, features, err := e.WriteGeoJSON(testShops())
	if err != nil {
		t.Fatalf("WriteGeoJSON failed: %v", err)
	}

	if features != 1 {
		t.Errorf("features = %d, want 1 (only geolocated records)", features)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("geo output not valid JSON: %v", err)
	}

	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected collection: type=%q features=%d", fc.Type, len(fc.Features))
	}

	f := fc.Features[0]

	// GeoJSON geometry is [lng, lat].
	if f.Geometry.Coordinates[0] != -0.1278 || f.Geometry.Coordinates[1] != 51.5074 {
		t.Errorf("coordinates = %v, want [lng lat]", f.Geometry.Coordinates)
	}

	if f.Properties.ID != "shop_abc123def4" || f.Properties.Postcode != "AB1 2CD" {
		t.Errorf("properties = %+v", f.Properties)
	}

	if len(f.Properties.Geohash) != 7 {
		t.Errorf("geohash = %q, want 7 characters", f.Properties.Geohash)
	}
}

func TestBuildFeatureCollection_SubsetProperty(t *testing.T) {
	shops := testShops()

	fc := BuildFeatureCollection(shops)

	geolocated := 0

	for i := range shops {
		if shops[i].Geolocated() {
			geolocated++
		}
	}

	if len(fc.Features) != geolocated {
		t.Errorf("features = %d, want %d", len(fc.Features), geolocated)
	}

	if len(fc.Features) > len(shops) {
		t.Error("more features than records")
	}
}

func TestBuildFeatureCollection_Empty(t *testing.T) {
	fc := BuildFeatureCollection(nil)

	if fc.Features == nil {
		t.Error("Features must be an empty array, not null")
	}

	if len(fc.Features) != 0 {
		t.Errorf("features = %d, want 0", len(fc.Features))
	}
}
