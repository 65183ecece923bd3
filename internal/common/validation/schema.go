// Package validation checks raw insight documents against the collection JSON schema
// before they are decoded.
package validation

import (
	"fmt"
	"strings"

	"hms-analytics/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// InsightCollectionSchema returns the JSON schema every insight document must satisfy.
// Equal series lengths cannot be expressed in draft-07 and are checked after decoding.
func InsightCollectionSchema() map[string]interface{} {
	chartTypes := make([]interface{}, 0, len(models.ChartTypes))
	for _, ct := range models.ChartTypes {
		chartTypes = append(chartTypes, string(ct))
	}

	return map[string]interface{}{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "array",
		"minItems": models.InsightCount,
		"maxItems": models.InsightCount,
		"items": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"title", "description", "chart_type", "chart_data"},
			"properties": map[string]interface{}{
				"title":       map[string]interface{}{"type": "string", "minLength": 1},
				"description": map[string]interface{}{"type": "string", "minLength": 1},
				"chart_type":  map[string]interface{}{"type": "string", "enum": chartTypes},
				"chart_data": map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"labels", "values"},
					"properties": map[string]interface{}{
						"labels": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"values": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "number"},
						},
					},
				},
			},
		},
	}
}

var collectionSchema = gojsonschema.NewGoLoader(InsightCollectionSchema())

// ValidateInsightDocument validates raw JSON bytes. A non-nil error means the document
// could not be parsed at all; schema violations are reported in the result.
func ValidateInsightDocument(raw []byte) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(collectionSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a field and everything nested under it.
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
