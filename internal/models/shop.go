// Package models defines the canonical shop record and the transient
// candidate record flowing through the pipeline.
package models

import "strings"

// Location holds the geographic fields of a shop. Lat and Lng stay nil
// until the geocoder resolves them.
type Location struct {
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	Address  string   `json:"address"`
	City     string   `json:"city"`
	County   string   `json:"county"`
	Postcode string   `json:"postcode"`
}

// Contact holds the independently optional contact channels.
type Contact struct {
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Website *string `json:"website"`
}

// OpeningHour is one day's opening window. Pass-through enrichment data.
type OpeningHour struct {
	Day   string  `json:"day"`
	Open  *string `json:"open,omitempty"`
	Close *string `json:"close,omitempty"`
}

// Shop is the canonical record emitted by the pipeline.
type Shop struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Slug      string        `json:"slug"`
	Location  Location      `json:"location"`
	Contact   Contact       `json:"contact"`
	Offerings []string      `json:"offerings"`
	Hours     []OpeningHour `json:"hours"`

	// Cosmetic enrichment, untouched by core pipeline logic.
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images"`

	Verified        bool   `json:"verified"`
	AdsenseEligible bool   `json:"adsenseEligible"`
	UpdatedAt       string `json:"updatedAt"`

	// Provenance fields from structured API sources, all optional.
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	PriceLevel       *int     `json:"price_level,omitempty"`
	PlaceID          string   `json:"place_id,omitempty"`
	Types            []string `json:"types,omitempty"`
}

// KeyNamePostcode returns the canonical dedupe key: the lowercased,
// whitespace-collapsed name joined with the space-stripped uppercase
// postcode.
func (s *Shop) KeyNamePostcode() string {
	pc := strings.ToUpper(strings.ReplaceAll(s.Location.Postcode, " ", ""))
	nm := strings.Join(strings.Fields(strings.ToLower(s.Name)), " ")

	return nm + "::" + pc
}

// Geolocated reports whether both coordinates are set. Only geolocated
// shops appear in the GeoJSON artifact.
func (s *Shop) Geolocated() bool {
	return s.Location.Lat != nil && s.Location.Lng != nil
}
