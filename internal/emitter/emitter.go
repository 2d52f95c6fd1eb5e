// Package emitter writes the two output artifacts: the flat record list
// and the GeoJSON feature collection for map rendering.
package emitter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"shopatlas/internal/config"
	"shopatlas/internal/logger"
	"shopatlas/internal/models"
	"shopatlas/pkg/geo"
)

// geohashPrecision is the fixed precision of the per-feature geohash
// property.
const geohashPrecision = 7

// FeatureCollection is the GeoJSON artifact.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one point feature.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry holds the point coordinates in [lng, lat] order.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Properties is the per-feature property set.
type Properties struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Address  string  `json:"address"`
	County   string  `json:"county"`
	Postcode string  `json:"postcode"`
	Website  *string `json:"website"`
	Geohash  string  `json:"geohash"`
}

// Emitter writes artifacts below a base directory.
type Emitter struct {
	cfg config.OutputConfig
	log *logger.Logger
}

// New creates an emitter.
func New(cfg config.OutputConfig, log *logger.Logger) *Emitter {
	return &Emitter{cfg: cfg, log: log}
}

// WriteFlat writes the ordered flat list of all surviving records,
// including those without coordinates.
func (e *Emitter) WriteFlat(shops []models.Shop) (string, error) {
	path := e.cfg.FlatPath()
	if err := e.writeJSON(path, shops); err != nil {
		return "", err
	}

	e.log.Info("wrote flat list", "path", path, "records", len(shops))

	return path, nil
}

// WriteGeoJSON writes the feature collection. Records without
// coordinates are silently excluded.
func (e *Emitter) WriteGeoJSON(shops []models.Shop) (string, int, error) {
	fc := BuildFeatureCollection(shops)

	path := e.cfg.GeoPath()
	if err := e.writeJSON(path, fc); err != nil {
		return "", 0, err
	}

	e.log.Info("wrote feature collection", "path", path, "features", len(fc.Features))

	return path, len(fc.Features), nil
}

// BuildFeatureCollection converts the geolocated subset of shops into a
// GeoJSON feature collection.
func BuildFeatureCollection(shops []models.Shop) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
	}

	for i := range shops {
		s := &shops[i]
		if !s.Geolocated() {
			continue
		}

		lat, lng := *s.Location.Lat, *s.Location.Lng

		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: [2]float64{lng, lat},
			},
			Properties: Properties{
				ID:       s.ID,
				Name:     s.Name,
				Slug:     s.Slug,
				Address:  s.Location.Address,
				County:   s.Location.County,
				Postcode: s.Location.Postcode,
				Website:  s.Contact.Website,
				Geohash:  geo.Encode(lat, lng, geohashPrecision),
			},
		})
	}

	return fc
}

func (e *Emitter) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		data []byte
		err  error
	)

	if e.cfg.PrettyPrint {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
