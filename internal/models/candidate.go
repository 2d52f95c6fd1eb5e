package models

// Candidate is a loosely-typed record extracted from one source before
// normalization. It is consumed and discarded by the normalizer.
type Candidate struct {
	// ID is set only when a source supplies a stable identifier.
	ID       string
	Name     string
	Address  string
	City     string
	County   string
	Postcode string
	Phone    string
	Email    string
	Website  string

	// Coordinates already known at extraction time (structured API
	// sources); nil for crawled HTML fragments.
	Lat *float64
	Lng *float64

	Offerings   []string
	Images      []string
	Description string

	// Provenance from structured API sources.
	Rating           *float64
	UserRatingsTotal *int
	PriceLevel       *int
	PlaceID          string
	Types            []string
}
