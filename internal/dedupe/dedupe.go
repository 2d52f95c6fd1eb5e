// Package dedupe merges shop records referring to the same physical
// shop, in two ordered phases: exact canonical-key merge, then greedy
// proximity merge.
package dedupe

import (
	"sort"
	"strings"

	"shopatlas/internal/logger"
	"shopatlas/internal/models"
	"shopatlas/pkg/geo"
)

// ProximityKm is the phase-2 merge radius. Same-named shops strictly
// closer than this are treated as one.
const ProximityKm = 0.25

// Deduper applies both deduplication phases exactly once each.
type Deduper struct {
	log *logger.Logger
}

// New creates a deduper.
func New(log *logger.Logger) *Deduper {
	return &Deduper{log: log}
}

// Dedupe runs phase 1 then phase 2 and returns the surviving records.
func (d *Deduper) Dedupe(shops []models.Shop) []models.Shop {
	afterExact := d.mergeExact(shops)
	d.log.Debug("exact-key merge complete", "in", len(shops), "out", len(afterExact))

	result := d.mergeProximity(afterExact)
	d.log.Debug("proximity merge complete", "in", len(afterExact), "out", len(result))

	return result
}

// mergeExact groups records by canonical (name, postcode) key and keeps
// the richest record per group; ties keep the first seen. Losers are
// dropped outright, their fields are not merged.
func (d *Deduper) mergeExact(shops []models.Shop) []models.Shop {
	byKey := make(map[string]models.Shop)

	var order []string

	for _, s := range shops {
		key := s.KeyNamePostcode()

		existing, seen := byKey[key]
		if !seen {
			byKey[key] = s
			order = append(order, key)

			continue
		}

		if richness(&s) > richness(&existing) {
			byKey[key] = s
		}
	}

	survivors := make([]models.Shop, 0, len(order))
	for _, key := range order {
		survivors = append(survivors, byKey[key])
	}

	return survivors
}

// richness scores a record for exact-key tie-breaking: coordinates,
// website and email presence count one point each.
func richness(s *models.Shop) int {
	score := 0

	if s.Geolocated() {
		score++
	}

	if s.Contact.Website != nil {
		score++
	}

	if s.Contact.Email != nil {
		score++
	}

	return score
}

// mergeProximity scans the phase-1 survivors, sorted by (lowercased
// name, postcode) for determinism, and merges any record into an
// already-kept one when both are geolocated, their names match
// case-insensitively, and they lie strictly within ProximityKm of each
// other. The kept record's empty contact fields are backfilled from the
// duplicate before it is discarded.
//
// This is deliberately a greedy single pass over the kept list, not a
// transitive clustering: a record is compared only against survivors, so
// a chain A-B-C where only neighbours are within range keeps both A and
// C. See DESIGN.md for the rationale.
func (d *Deduper) mergeProximity(shops []models.Shop) []models.Shop {
	sorted := make([]models.Shop, len(shops))
	copy(sorted, shops)

	sort.SliceStable(sorted, func(i, j int) bool {
		ni, nj := strings.ToLower(sorted[i].Name), strings.ToLower(sorted[j].Name)
		if ni != nj {
			return ni < nj
		}

		return sorted[i].Location.Postcode < sorted[j].Location.Postcode
	})

	var kept []models.Shop

	for _, s := range sorted {
		merged := false

		for i := range kept {
			r := &kept[i]
			if !strings.EqualFold(r.Name, s.Name) {
				continue
			}

			if !r.Geolocated() || !s.Geolocated() {
				continue
			}

			dist := geo.HaversineKm(*r.Location.Lat, *r.Location.Lng, *s.Location.Lat, *s.Location.Lng)
			if dist >= ProximityKm {
				continue
			}

			if r.Contact.Website == nil && s.Contact.Website != nil {
				r.Contact.Website = s.Contact.Website
			}

			if r.Contact.Email == nil && s.Contact.Email != nil {
				r.Contact.Email = s.Contact.Email
			}

			if r.Contact.Phone == nil && s.Contact.Phone != nil {
				r.Contact.Phone = s.Contact.Phone
			}

			merged = true

			break
		}

		if !merged {
			kept = append(kept, s)
		}
	}

	return kept
}
