// internal/models/insight.go
package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
)

// InsightCount is the cardinality of every insight collection served.
const InsightCount = 20

type ChartType string

const (
	ChartTypeBar  ChartType = "bar"
	ChartTypePie  ChartType = "pie"
	ChartTypeLine ChartType = "line"
)

// ChartTypes lists every accepted chart type.
var ChartTypes = []ChartType{ChartTypeBar, ChartTypePie, ChartTypeLine}

func (c ChartType) Valid() bool {
	switch c {
	case ChartTypeBar, ChartTypePie, ChartTypeLine:
		return true
	}
	return false
}

// UnmarshalJSON rejects anything outside the closed set.
func (c *ChartType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("chart_type must be a string: %w", err)
	}
	ct := ChartType(s)
	if !ct.Valid() {
		return fmt.Errorf("unknown chart_type %q", s)
	}
	*c = ct
	return nil
}

type ChartData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type Insight struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ChartType   ChartType `json:"chart_type"`
	ChartData   ChartData `json:"chart_data"`
}

// Validate checks the per-record invariants and returns the first violation.
func (i Insight) Validate() error {
	switch {
	case strings.TrimSpace(i.Title) == "":
		return fmt.Errorf("title is empty")
	case strings.TrimSpace(i.Description) == "":
		return fmt.Errorf("description is empty")
	case !i.ChartType.Valid():
		return fmt.Errorf("unknown chart_type %q", i.ChartType)
	case i.ChartData.Labels == nil:
		return fmt.Errorf("chart_data.labels is null")
	case i.ChartData.Values == nil:
		return fmt.Errorf("chart_data.values is null")
	case len(i.ChartData.Labels) != len(i.ChartData.Values):
		return fmt.Errorf("labels/values length mismatch: %d != %d", len(i.ChartData.Labels), len(i.ChartData.Values))
	}
	// JSON has no NaN or Inf; such a value could never be served.
	for n, v := range i.ChartData.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("chart_data.values[%d] is not finite", n)
		}
	}
	return nil
}

// NewChartData returns a series whose slices are never nil, so it encodes as [] rather than null.
func NewChartData(labels []string, values []float64) ChartData {
	if labels == nil {
		labels = []string{}
	}
	if values == nil {
		values = []float64{}
	}
	return ChartData{Labels: labels, Values: values}
}
