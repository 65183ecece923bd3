// Package insightstest provides a valid insight collection and fixture helpers for tests.
package insightstest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"hms-analytics/internal/models"
	"hms-analytics/pkg/catalog"

	"github.com/goccy/go-json"
)

// BusiestDoctorsJSON and VisitsByDepartmentJSON are the first two records of Collection.
const (
	BusiestDoctorsJSON = `{"title":"Top 5 Busiest Doctors","description":"Doctors with the highest patient volume.","chart_type":"bar","chart_data":{"labels":["Dr. Ananya Rao","Dr. Vikram Iyer","Dr. Meera Nair","Dr. Arjun Shah","Dr. Kavya Menon"],"values":[142,128,117,103,96]}}`

	VisitsByDepartmentJSON = `{"title":"Patient Visits by Department","description":"Distribution of cases across different medical departments.","chart_type":"pie","chart_data":{"labels":["General Medicine","Cardiology","Orthopedics","Pediatrics","Dermatology"],"values":[412,298,231,187,142]}}`
)

// Collection returns a fresh, valid collection of models.InsightCount records.
func Collection() []models.Insight {
	var first, second models.Insight
	if err := json.Unmarshal([]byte(BusiestDoctorsJSON), &first); err != nil {
		panic(err)
	}
	if err := json.Unmarshal([]byte(VisitsByDepartmentJSON), &second); err != nil {
		panic(err)
	}

	out := []models.Insight{first, second}
	for i, d := range catalog.Definitions()[2:] {
		title, desc := d.Render("General Medicine")
		out = append(out, models.Insight{
			Title:       title,
			Description: desc,
			ChartType:   d.ChartType,
			ChartData: models.NewChartData(
				[]string{fmt.Sprintf("%s A", d.ID), fmt.Sprintf("%s B", d.ID), fmt.Sprintf("%s C", d.ID)},
				[]float64{float64(30 + i), float64(20 + i), 10.5},
			),
		})
	}
	return out
}

// MarshalCollection encodes c, failing the test on error.
func MarshalCollection(t testing.TB, c []models.Insight) []byte {
	t.Helper()
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal collection: %v", err)
	}
	return b
}

// WriteFile writes raw bytes to name inside a temp dir and returns the path.
func WriteFile(t testing.TB, name string, raw []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteFixture writes Collection() as a fixture file and returns its path.
func WriteFixture(t testing.TB) string {
	t.Helper()
	return WriteFile(t, "insights.json", MarshalCollection(t, Collection()))
}

// Corruptions are damaged variants of a valid fixture, keyed by description.
func Corruptions(t testing.TB) map[string][]byte {
	t.Helper()
	valid := MarshalCollection(t, Collection())

	mismatch := Collection()
	mismatch[3].ChartData.Values = mismatch[3].ChartData.Values[:1]

	badType := Collection()
	badType[5].ChartType = "donut"

	nullField := Collection()
	nullField[7].ChartData.Labels = nil

	emptyTitle := Collection()
	emptyTitle[9].Title = ""

	return map[string][]byte{
		"truncated":           valid[:len(valid)/2],
		"not json":            []byte("<html>oops</html>"),
		"empty file":          {},
		"object not array":    []byte(`{"insights":[]}`),
		"nineteen insights":   MarshalCollection(t, Collection()[:19]),
		"twenty one insights": MarshalCollection(t, append(Collection(), Collection()[0])),
		"length mismatch":     MarshalCollection(t, mismatch),
		"unknown chart type":  MarshalCollection(t, badType),
		"null labels":         MarshalCollection(t, nullField),
		"empty title":         MarshalCollection(t, emptyTitle),
		"string values":       []byte(`[{"title":"t","description":"d","chart_type":"bar","chart_data":{"labels":["a"],"values":["1"]}}]`),
	}
}
