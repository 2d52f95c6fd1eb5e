// Package places fetches shop candidates from a Google-Places-style
// text search API, one paced request per configured search location.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"shopatlas/internal/config"
	"shopatlas/internal/extractor"
	"shopatlas/internal/logger"
	"shopatlas/internal/models"
)

// Places client errors.
var (
	ErrMissingAPIKey        = errors.New("places API key is required")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrBadStatus            = errors.New("places API returned error status")
)

// maxPages caps pagination per search location.
const maxPages = 3

// Client queries the places endpoint.
type Client struct {
	httpClient *http.Client
	cfg        config.PlacesConfig
	apiKey     string
	minDelay   time.Duration
	lastCall   time.Time
	log        *logger.Logger
}

// NewClient creates a places client. The API key is validated eagerly so
// a misconfigured run fails at startup, not mid-crawl.
func NewClient(cfg config.PlacesConfig, apiKey string, log *logger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
		apiKey:     apiKey,
		minDelay:   time.Duration(cfg.MinDelayMs) * time.Millisecond,
		log:        log,
	}, nil
}

type placesResponse struct {
	Status        string        `json:"status"`
	NextPageToken string        `json:"next_page_token"`
	Results       []placeResult `json:"results"`
}

type placeResult struct {
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	PlaceID          string   `json:"place_id"`
	Types            []string `json:"types"`
}

// FetchAll searches every configured location and returns the combined
// candidate set. A failed location is logged and skipped; the remaining
// locations are still searched.
func (c *Client) FetchAll(ctx context.Context) ([]models.Candidate, error) {
	var candidates []models.Candidate

	for _, loc := range c.cfg.Locations {
		found, err := c.search(ctx, loc)
		if err != nil {
			if ctx.Err() != nil {
				return candidates, ctx.Err()
			}

			c.log.Warn("places search failed", "location", loc.Name, "error", err)

			continue
		}

		c.log.Debug("places search complete", "location", loc.Name, "results", len(found))
		candidates = append(candidates, found...)
	}

	return candidates, nil
}

// search runs one text search, following pagination tokens up to
// maxPages.
func (c *Client) search(ctx context.Context, loc config.SearchLocation) ([]models.Candidate, error) {
	query := c.cfg.Query
	if query == "" {
		query = "farm shop"
	}

	var candidates []models.Candidate

	pageToken := ""

	for page := 0; page < maxPages; page++ {
		resp, err := c.searchPage(ctx, query+" near "+loc.Name, loc, pageToken)
		if err != nil {
			return candidates, err
		}

		for i := range resp.Results {
			candidates = append(candidates, toCandidate(&resp.Results[i]))
		}

		if resp.NextPageToken == "" {
			break
		}

		pageToken = resp.NextPageToken
	}

	return candidates, nil
}

func (c *Client) searchPage(ctx context.Context, query string, loc config.SearchLocation, pageToken string) (*placesResponse, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("key", c.apiKey)

	if pageToken != "" {
		params.Set("pagetoken", pageToken)
	} else {
		params.Set("query", query)
		params.Set("location", fmt.Sprintf("%f,%f", loc.Lat, loc.Lng))

		if c.cfg.RadiusM > 0 {
			params.Set("radius", strconv.Itoa(c.cfg.RadiusM))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	c.lastCall = time.Now()

	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read places response: %w", err)
	}

	var decoded placesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("malformed places response: %w", err)
	}

	if decoded.Status != "OK" && decoded.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, decoded.Status)
	}

	return &decoded, nil
}

// toCandidate maps a place result onto a candidate record with
// coordinates already resolved.
func toCandidate(p *placeResult) models.Candidate {
	lat := p.Geometry.Location.Lat
	lng := p.Geometry.Location.Lng

	return models.Candidate{
		Name:     p.Name,
		Address:  p.FormattedAddress,
		Postcode: extractor.FindPostcode(p.FormattedAddress),
		Lat:      &lat,
		Lng:      &lng,

		Rating:           p.Rating,
		UserRatingsTotal: p.UserRatingsTotal,
		PriceLevel:       p.PriceLevel,
		PlaceID:          p.PlaceID,
		Types:            p.Types,
	}
}

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
