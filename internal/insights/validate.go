// internal/insights/validate.go
package insights

import (
	"fmt"
	"strings"

	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/common/validation"
	"hms-analytics/internal/models"

	"github.com/goccy/go-json"
)

// Validate is the single post-load check: exact cardinality and per-record invariants.
// Violations are reported as DataUnavailable wrapping the MalformedInsight cause.
func Validate(collection []models.Insight) error {
	if len(collection) != models.InsightCount {
		return errors.NewDataUnavailableError(
			fmt.Errorf("insight collection has %d records, want %d", len(collection), models.InsightCount),
		)
	}
	for i, in := range collection {
		if err := in.Validate(); err != nil {
			return errors.NewDataUnavailableError(errors.NewMalformedInsightError(i, in.Title, err.Error()))
		}
	}
	return nil
}

// Decode checks a raw document against the collection schema, decodes it and validates it.
func Decode(raw []byte) ([]models.Insight, error) {
	result, err := validation.ValidateInsightDocument(raw)
	if err != nil {
		return nil, errors.NewDataUnavailableError(err)
	}
	if !result.Valid {
		return nil, errors.NewDataUnavailableError(
			fmt.Errorf("schema violations: %s", strings.Join(result.GetErrorMessages(), "; ")),
		)
	}

	var collection []models.Insight
	if err := json.Unmarshal(raw, &collection); err != nil {
		return nil, errors.NewDataUnavailableError(fmt.Errorf("decode insights: %w", err))
	}
	if err := Validate(collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// Encode serializes a collection. Equal collections always encode to identical bytes.
func Encode(collection []models.Insight) ([]byte, error) {
	return json.Marshal(collection)
}
