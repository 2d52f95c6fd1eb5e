// Package normalizer maps candidate records onto canonical shop records.
package normalizer

import (
	"math/rand"
	"strings"
	"time"

	"shopatlas/internal/models"
	"shopatlas/pkg/utils"
)

// slugFallback disambiguates the slug when a record has neither postcode
// nor county.
const slugFallback = "uk"

// Normalizer converts candidates into shops. Timestamp and ID generation
// are injectable so tests can pin them.
type Normalizer struct {
	clock func() time.Time
	newID models.IDGenerator
}

// New creates a normalizer with wall-clock time and a randomly seeded ID
// generator.
func New() *Normalizer {
	return NewWithDeps(time.Now, models.NewIDGenerator(rand.NewSource(time.Now().UnixNano())))
}

// NewWithDeps creates a normalizer with an injected clock and ID source.
func NewWithDeps(clock func() time.Time, newID models.IDGenerator) *Normalizer {
	return &Normalizer{
		clock: clock,
		newID: newID,
	}
}

// Normalize maps one candidate to a shop record: whitespace is collapsed
// in all text fields, the postcode is upper-cased for storage, the slug
// is derived from name plus a disambiguator (postcode, else county, else
// a fixed token), and a fresh ID is assigned unless the source supplied
// one.
func (n *Normalizer) Normalize(c models.Candidate) models.Shop {
	name := utils.NormalizeWhitespace(c.Name)
	if name == "" {
		name = "Farm shop"
	}

	address := utils.NormalizeWhitespace(c.Address)
	city := utils.NormalizeWhitespace(c.City)
	county := utils.NormalizeWhitespace(c.County)
	postcode := strings.ToUpper(utils.NormalizeWhitespace(c.Postcode))

	disambiguator := postcode
	if disambiguator == "" {
		disambiguator = county
	}

	if disambiguator == "" {
		disambiguator = slugFallback
	}

	id := c.ID
	if id == "" {
		id = n.newID()
	}

	offerings := c.Offerings
	if offerings == nil {
		offerings = []string{}
	}

	images := c.Images
	if images == nil {
		images = []string{}
	}

	return models.Shop{
		ID:   id,
		Name: name,
		Slug: utils.Slugify(name + "-" + disambiguator),
		Location: models.Location{
			Lat:      c.Lat,
			Lng:      c.Lng,
			Address:  address,
			City:     city,
			County:   county,
			Postcode: postcode,
		},
		Contact: models.Contact{
			Phone:   optString(utils.NormalizeWhitespace(c.Phone)),
			Email:   optString(utils.NormalizeWhitespace(c.Email)),
			Website: optString(c.Website),
		},
		Offerings:       offerings,
		Hours:           []models.OpeningHour{},
		Description:     c.Description,
		Images:          images,
		Verified:        false,
		AdsenseEligible: true,
		UpdatedAt:       n.clock().UTC().Format(time.RFC3339),

		Rating:           c.Rating,
		UserRatingsTotal: c.UserRatingsTotal,
		PriceLevel:       c.PriceLevel,
		PlaceID:          c.PlaceID,
		Types:            c.Types,
	}
}

// NormalizeAll maps a batch of candidates, preserving input order.
func (n *Normalizer) NormalizeAll(candidates []models.Candidate) []models.Shop {
	shops := make([]models.Shop, 0, len(candidates))
	for _, c := range candidates {
		shops = append(shops, n.Normalize(c))
	}

	return shops
}

func optString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
