package validation

import (
	"fmt"
	"testing"

	"hms-analytics/internal/models"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectionDoc(t *testing.T, n int) []map[string]interface{} {
	t.Helper()
	doc := make([]map[string]interface{}, n)
	for i := range doc {
		doc[i] = map[string]interface{}{
			"title":       fmt.Sprintf("Insight %d", i+1),
			"description": "Synthetic insight",
			"chart_type":  "bar",
			"chart_data": map[string]interface{}{
				"labels": []string{"a", "b"},
				"values": []float64{1, 2},
			},
		}
	}
	return doc
}

func marshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestValidateInsightDocument_Valid(t *testing.T) {
	res, err := ValidateInsightDocument(marshal(t, collectionDoc(t, models.InsightCount)))
	require.NoError(t, err)
	assert.True(t, res.Valid, res.GetErrorMessages())
	assert.Empty(t, res.Errors)
}

func TestValidateInsightDocument_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]map[string]interface{}) interface{}
		field  string
	}{
		{
			name:   "too few insights",
			mutate: func(d []map[string]interface{}) interface{} { return d[:19] },
			field:  "(root)",
		},
		{
			name: "unknown chart type",
			mutate: func(d []map[string]interface{}) interface{} {
				d[4]["chart_type"] = "donut"
				return d
			},
			field: "4.chart_type",
		},
		{
			name: "missing chart data",
			mutate: func(d []map[string]interface{}) interface{} {
				delete(d[0], "chart_data")
				return d
			},
			field: "",
		},
		{
			name: "string value",
			mutate: func(d []map[string]interface{}) interface{} {
				d[2]["chart_data"] = map[string]interface{}{"labels": []string{"a"}, "values": []string{"1"}}
				return d
			},
			field: "2.chart_data.values.0",
		},
		{
			name: "null title",
			mutate: func(d []map[string]interface{}) interface{} {
				d[7]["title"] = nil
				return d
			},
			field: "7.title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.mutate(collectionDoc(t, models.InsightCount))
			res, err := ValidateInsightDocument(marshal(t, doc))
			require.NoError(t, err)
			assert.False(t, res.Valid)
			if tt.field == "" {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, "REQUIRED", res.Errors[0].Code)
				return
			}
			assert.True(t, res.HasErrors(tt.field), res.GetErrorMessages())
		})
	}
}

func TestValidateInsightDocument_Truncated(t *testing.T) {
	raw := marshal(t, collectionDoc(t, models.InsightCount))
	_, err := ValidateInsightDocument(raw[:len(raw)/2])
	assert.Error(t, err)
}

func TestValidationResult_GetErrorsForField(t *testing.T) {
	vr := &ValidationResult{Errors: []ValidationError{
		{Field: "3.chart_data.values.0", Message: "Invalid type"},
		{Field: "3.title", Message: "too short"},
		{Field: "30.title", Message: "too short"},
	}}
	assert.Len(t, vr.GetErrorsForField("3"), 2)
	assert.Equal(t, []string{"3.chart_data.values.0: Invalid type", "3.title: too short", "30.title: too short"}, vr.GetErrorMessages())
}
