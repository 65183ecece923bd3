package catalog

import (
	"testing"

	"hms-analytics/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitions_MatchCollectionShape(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, models.InsightCount)

	seen := map[string]bool{}
	for _, d := range defs {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
		assert.True(t, d.ChartType.Valid(), d.ID)
		assert.NotEmpty(t, d.Title)
		assert.NotEmpty(t, d.Description)
	}

	assert.Equal(t, "Top 5 Busiest Doctors", defs[0].Title)
	assert.Equal(t, models.ChartTypeBar, defs[0].ChartType)
	assert.Equal(t, "Patient Visits by Department", defs[1].Title)
	assert.Equal(t, models.ChartTypePie, defs[1].ChartType)
}

func TestDefinitions_ReturnsCopy(t *testing.T) {
	defs := Definitions()
	defs[0].Title = "changed"
	assert.Equal(t, "Top 5 Busiest Doctors", Definitions()[0].Title)
}

func TestDefinition_Render(t *testing.T) {
	d, ok := Lookup(TopDepartmentGender)
	require.True(t, ok)
	assert.True(t, d.Templated())

	title, desc := d.Render("Cardiology")
	assert.Equal(t, "Gender Distribution in Cardiology", title)
	assert.Equal(t, "Gender breakdown for the busiest department (Cardiology).", desc)

	d, ok = Lookup(BusiestDoctors)
	require.True(t, ok)
	title, _ = d.Render("ignored")
	assert.Equal(t, "Top 5 Busiest Doctors", title)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}
