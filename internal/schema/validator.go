// Package schema validates shop records against an externally hosted
// JSON Schema. Validation is observational: failures are reported but
// never remove a record or abort the run.
package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"shopatlas/internal/fetch"
	"shopatlas/internal/logger"
	"shopatlas/internal/models"
)

// ErrSchemaUnavailable indicates the schema document could not be
// fetched or compiled. This is fatal at pipeline startup.
var ErrSchemaUnavailable = errors.New("schema document unavailable")

// Problem describes one record that failed validation.
type Problem struct {
	Index  int
	ShopID string
	Detail string
}

// Report summarizes a validation pass.
type Report struct {
	Total    int
	Valid    int
	Problems []Problem
}

// Validator checks records against a compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
	log    *logger.Logger
}

// NewValidator compiles a schema document.
func NewValidator(document []byte, log *logger.Logger) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaUnavailable, err)
	}

	return &Validator{schema: compiled, log: log}, nil
}

// NewValidatorFromURL fetches the schema document once and compiles it.
func NewValidatorFromURL(ctx context.Context, f *fetch.Fetcher, url string, log *logger.Logger) (*Validator, error) {
	document, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaUnavailable, err)
	}

	return NewValidator([]byte(document), log)
}

// ValidateAll validates each record independently. A failing record is
// logged with its index and kept; an internal validation error counts as
// a failure for that record only.
func (v *Validator) ValidateAll(shops []models.Shop) Report {
	report := Report{Total: len(shops)}

	for i := range shops {
		detail, ok := v.validateOne(&shops[i])
		if ok {
			report.Valid++

			continue
		}

		report.Problems = append(report.Problems, Problem{
			Index:  i,
			ShopID: shops[i].ID,
			Detail: detail,
		})
		v.log.Warn("schema validation failed", "index", i, "shop", shops[i].ID, "detail", detail)
	}

	return report
}

func (v *Validator) validateOne(s *models.Shop) (string, bool) {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf("marshal: %v", err), false
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Sprintf("validate: %v", err), false
	}

	if result.Valid() {
		return "", true
	}

	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, e.String())
	}

	return strings.Join(details, "; "), false
}
