// Package geocode resolves missing coordinates through an external
// Nominatim-style geocoding endpoint, one sequential rate-paced call per
// unresolved record.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopatlas/internal/config"
	"shopatlas/internal/logger"
	"shopatlas/internal/models"
	"shopatlas/pkg/utils"
)

// ErrUnexpectedStatusCode indicates a non-200 geocoder response.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// countryQualifier is appended to every query to bias results.
const countryQualifier = "United Kingdom"

// Result is a resolved coordinate pair.
type Result struct {
	Lat float64
	Lng float64
}

// Client queries the geocoding endpoint. Calls are strictly sequential
// with an enforced minimum delay between them.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	email        string
	countryCodes string
	minDelay     time.Duration
	lastCall     time.Time
	log          *logger.Logger
}

// NewClient creates a geocoding client. The contact email is optional
// and passed in explicitly rather than read from the environment here.
func NewClient(cfg config.GeocoderConfig, email string, log *logger.Logger) *Client {
	countryCodes := cfg.CountryCodes
	if countryCodes == "" {
		countryCodes = "gb"
	}

	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout()},
		baseURL:      cfg.URL,
		userAgent:    cfg.UserAgent,
		email:        email,
		countryCodes: countryCodes,
		minDelay:     cfg.MinDelay(),
		log:          log,
	}
}

// Query builds the free-text geocoding query for a location.
func Query(loc models.Location) string {
	return utils.NormalizeWhitespace(loc.Address + " " + loc.Postcode + " " + countryQualifier)
}

// Geocode resolves a free-text query to a coordinate pair. A zero-result
// response returns (nil, nil): no match is not an error.
func (c *Client) Geocode(ctx context.Context, query string) (*Result, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("q", query)
	params.Set("countrycodes", c.countryCodes)
	params.Set("limit", "1")
	params.Set("addressdetails", "0")

	if c.email != "" {
		params.Set("email", c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	c.lastCall = time.Now()

	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read geocode response: %w", err)
	}

	// Nominatim returns coordinates as strings.
	var matches []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}

	if err := json.Unmarshal(body, &matches); err != nil {
		return nil, fmt.Errorf("malformed geocode response: %w", err)
	}

	if len(matches) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(matches[0].Lat), 64)
	if err != nil {
		return nil, fmt.Errorf("malformed latitude %q: %w", matches[0].Lat, err)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(matches[0].Lon), 64)
	if err != nil {
		return nil, fmt.Errorf("malformed longitude %q: %w", matches[0].Lon, err)
	}

	return &Result{Lat: lat, Lng: lng}, nil
}

// ResolveMissing fills coordinates for every shop lacking them, in input
// order. Shops that already have coordinates are skipped without a
// network call. Failures leave the record unresolved and are logged as
// warnings; they never fail the run. Returns the number of shops
// resolved.
func (c *Client) ResolveMissing(ctx context.Context, shops []models.Shop) int {
	resolved := 0

	for i := range shops {
		if shops[i].Geolocated() {
			continue
		}

		result, err := c.Geocode(ctx, Query(shops[i].Location))
		if err != nil {
			c.log.Warn("geocode failed", "shop", shops[i].Name, "error", err)

			continue
		}

		if result == nil {
			c.log.Warn("geocode returned no results", "shop", shops[i].Name)

			continue
		}

		lat, lng := result.Lat, result.Lng
		shops[i].Location.Lat = &lat
		shops[i].Location.Lng = &lng
		resolved++
	}

	return resolved
}

// pace blocks until the minimum inter-call delay has elapsed since the
// previous call.
func (c *Client) pace(ctx context.Context) error {
	if c.minDelay <= 0 || c.lastCall.IsZero() {
		return nil
	}

	wait := c.minDelay - time.Since(c.lastCall)
	if wait <= 0 {
		return nil
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
