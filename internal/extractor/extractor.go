// Package extractor turns raw source markup into candidate records using
// per-source selector hints. It performs no network I/O.
package extractor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"shopatlas/internal/config"
	"shopatlas/internal/models"
	"shopatlas/pkg/utils"
)

// ErrBadListHint indicates the list selector hint could not be compiled.
var ErrBadListHint = errors.New("invalid list selector hint")

var (
	namePattern = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9 '&.-]+`)
	// UK postcode, e.g. "AB1 2CD" or "ab12cd".
	postcodePattern = regexp.MustCompile(`(?i)[A-Za-z]{1,2}\d[A-Za-z\d]?\s*\d[A-Za-z]{2}`)
)

// FindPostcode returns the first UK-postcode-shaped token in text, or "".
func FindPostcode(text string) string {
	return postcodePattern.FindString(text)
}

// Extractor extracts candidate records from HTML fragments.
type Extractor struct{}

// New creates a new extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses the page and returns one candidate per list item. Items
// with neither a recognizable name nor a postcode are dropped; that is a
// filtering decision, not an error. A malformed field hint yields an
// empty field, a malformed list hint an error.
func (e *Extractor) Extract(html string, hints config.Hints) ([]models.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	listSel, err := cascadia.Compile(hints.List)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadListHint, hints.List)
	}

	var candidates []models.Candidate

	doc.FindMatcher(listSel).Each(func(_ int, item *goquery.Selection) {
		name := selectText(item, hints.Name)
		address := selectText(item, hints.Address)
		county := selectText(item, hints.County)

		postcode := selectText(item, hints.Postcode)
		if postcode == "" {
			// Fall back to scanning the item's full text.
			postcode = FindPostcode(item.Text())
		}

		phone := selectText(item, hints.Phone)
		email := selectText(item, hints.Email)

		website := selectHref(item, hints.Website)
		if website == "" {
			website = selectHref(item, hints.Link)
		}

		if !namePattern.MatchString(name) && postcode == "" {
			return
		}

		if name == "" {
			name = fallbackName(website)
		}

		candidates = append(candidates, models.Candidate{
			Name:     name,
			Address:  address,
			County:   county,
			Postcode: strings.ToUpper(postcode),
			Phone:    phone,
			Email:    email,
			Website:  website,
		})
	})

	return candidates, nil
}

// selectText returns the normalized text of the first node matching sel
// within item. Empty or uncompilable selectors yield "".
func selectText(item *goquery.Selection, sel string) string {
	if sel == "" {
		return ""
	}

	m, err := cascadia.Compile(sel)
	if err != nil {
		return ""
	}

	return utils.NormalizeWhitespace(item.FindMatcher(m).First().Text())
}

// selectHref returns the href attribute of the first node matching sel.
func selectHref(item *goquery.Selection, sel string) string {
	if sel == "" {
		return ""
	}

	m, err := cascadia.Compile(sel)
	if err != nil {
		return ""
	}

	href, _ := item.FindMatcher(m).First().Attr("href")

	return strings.TrimSpace(href)
}

// fallbackName derives a display name from the website when the item has
// none, keeping the host part only.
func fallbackName(website string) string {
	if website == "" {
		return "Farm shop"
	}

	name := website
	if idx := strings.Index(name, "//"); idx >= 0 {
		name = name[idx+2:]
	}

	if name == "" {
		return "Farm shop"
	}

	return name
}
