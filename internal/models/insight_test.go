package models

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartType_UnmarshalJSON(t *testing.T) {
	var ok struct {
		ChartType ChartType `json:"chart_type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"chart_type":"pie"}`), &ok))
	assert.Equal(t, ChartTypePie, ok.ChartType)

	for _, bad := range []string{`{"chart_type":"donut"}`, `{"chart_type":"Bar"}`, `{"chart_type":3}`} {
		var v struct {
			ChartType ChartType `json:"chart_type"`
		}
		assert.Error(t, json.Unmarshal([]byte(bad), &v), bad)
	}
}

func TestInsight_Validate(t *testing.T) {
	valid := Insight{
		Title:       "Top 5 Busiest Doctors",
		Description: "Doctors with the highest number of patient visits",
		ChartType:   ChartTypeBar,
		ChartData:   NewChartData([]string{"A", "B"}, []float64{2, 1}),
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Insight)
		want   string
	}{
		{"empty title", func(i *Insight) { i.Title = "  " }, "title"},
		{"empty description", func(i *Insight) { i.Description = "" }, "description"},
		{"bad chart type", func(i *Insight) { i.ChartType = "donut" }, "chart_type"},
		{"null labels", func(i *Insight) { i.ChartData.Labels = nil }, "labels"},
		{"null values", func(i *Insight) { i.ChartData.Values = nil }, "values"},
		{"length mismatch", func(i *Insight) { i.ChartData.Values = []float64{1} }, "mismatch"},
		{"nan value", func(i *Insight) { i.ChartData.Values[1] = math.NaN() }, "values[1] is not finite"},
		{"infinite value", func(i *Insight) { i.ChartData.Values[0] = math.Inf(1) }, "values[0] is not finite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			in.ChartData = NewChartData(append([]string(nil), valid.ChartData.Labels...), append([]float64(nil), valid.ChartData.Values...))
			tt.mutate(&in)
			err := in.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewChartData_EncodesEmptyArrays(t *testing.T) {
	b, err := json.Marshal(NewChartData(nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":[],"values":[]}`, string(b))
}
