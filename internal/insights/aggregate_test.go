package insights

import (
	"testing"
	"time"

	"hms-analytics/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visit(doctor, dept, branch, gender, patient string, age, revenue float64, at string) models.Appointment {
	a := models.Appointment{
		DoctorName:  doctor,
		Department:  dept,
		Branch:      branch,
		Gender:      gender,
		Status:      "Closed",
		PaymentMode: "Cash",
		PatientID:   patient,
		PatientName: "Patient " + patient,
		Age:         age,
		Revenue:     revenue,
	}
	if at != "" {
		t, err := time.Parse("2006-01-02 15:04", at)
		if err != nil {
			panic(err)
		}
		a.VisitTime = t
	}
	return a
}

func sampleAppointments() []models.Appointment {
	return []models.Appointment{
		visit("Dr. Rao", "Cardiology", "Central", "Female", "P1", 49, 1500, "2025-01-06 09:15"),
		visit("Dr. Rao", "Cardiology", "Central", "Male", "P2", 6, 0, "2025-01-07 09:40"),
		visit("Dr. Iyer", "Neurology", "North", "Female", "P1", 72, 700, "2025-03-10 17:05"),
		visit("Dr. Nair", "Cardiology", "North", "Female", "P3", 30, 2500, "2025-03-12 09:00"),
		visit("Dr. Iyer", "Neurology", "Central", "Male", "P4", 18, 0, ""),
	}
}

func byTitle(t *testing.T, collection []models.Insight, title string) models.ChartData {
	t.Helper()
	for _, in := range collection {
		if in.Title == title {
			return in.ChartData
		}
	}
	t.Fatalf("insight %q not found", title)
	return models.ChartData{}
}

func TestAggregate_Shape(t *testing.T) {
	got, err := Aggregate(sampleAppointments())
	require.NoError(t, err)
	require.Len(t, got, models.InsightCount)
	require.NoError(t, Validate(got))

	assert.Equal(t, "Top 5 Busiest Doctors", got[0].Title)
	assert.Equal(t, models.ChartTypeBar, got[0].ChartType)
	assert.Equal(t, "Patient Visits by Department", got[1].Title)
	assert.Equal(t, models.ChartTypePie, got[1].ChartType)
	assert.Equal(t, "Gender Distribution in Cardiology", got[17].Title)
	assert.Equal(t, "Top Doctors in Cardiology", got[18].Title)
	assert.Equal(t, "Monthly Revenue Trend", got[19].Title)
}

func TestAggregate_Values(t *testing.T) {
	got, err := Aggregate(sampleAppointments())
	require.NoError(t, err)

	tests := []struct {
		title  string
		labels []string
		values []float64
	}{
		{"Top 5 Busiest Doctors", []string{"Dr. Rao", "Dr. Iyer", "Dr. Nair"}, []float64{2, 2, 1}},
		{"Patient Visits by Department", []string{"Cardiology", "Neurology"}, []float64{3, 2}},
		{"Revenue by Department", []string{"Cardiology", "Neurology"}, []float64{4000, 700}},
		{"Top 10 Doctors by Avg Revenue", []string{"Dr. Nair", "Dr. Rao", "Dr. Iyer"}, []float64{2500, 750, 350}},
		{"Patient Age Group Distribution", []string{"0-18", "19-30", "31-50", "51-70", "70+"}, []float64{1, 1, 2, 0, 1}},
		{"Patient Gender Distribution", []string{"Female", "Male"}, []float64{3, 2}},
		{"Visits by Branch (Location)", []string{"Central", "North"}, []float64{3, 2}},
		{"Revenue by Branch", []string{"North", "Central"}, []float64{3200, 1500}},
		{"Monthly Patient Visits Trend", []string{"2025-01", "2025-02", "2025-03"}, []float64{2, 0, 2}},
		{"Visits by Day of Week", []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}, []float64{2, 1, 1, 0, 0, 0, 0}},
		{"Revenue per Visit Distribution", []string{"0-500", "501-1000", "1001-2000", "2001-5000", "5000+"}, []float64{2, 1, 1, 1, 0}},
		{"Zero-Payment Visits by Department", []string{"Cardiology", "Neurology"}, []float64{1, 1}},
		{"Patient Retention Rate", []string{"Repeat Patients", "One-time Patients"}, []float64{1, 3}},
		{"Peak Visiting Hours", []string{"09:00", "17:00"}, []float64{3, 1}},
		{"Average Patient Age by Department", []string{"Cardiology", "Neurology"}, []float64{28.3, 45}},
		{"Gender Distribution in Cardiology", []string{"Female", "Male"}, []float64{2, 1}},
		{"Top Doctors in Cardiology", []string{"Dr. Rao", "Dr. Nair"}, []float64{2, 1}},
		{"Monthly Revenue Trend", []string{"2025-01", "2025-02", "2025-03"}, []float64{1500, 0, 3200}},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			data := byTitle(t, got, tt.title)
			assert.Equal(t, tt.labels, data.Labels)
			assert.InDeltaSlice(t, tt.values, data.Values, 1e-9)
		})
	}
}

func TestAggregate_TopN(t *testing.T) {
	var appts []models.Appointment
	for i := 0; i < 12; i++ {
		for j := 0; j <= i; j++ {
			appts = append(appts, visit(string(rune('A'+i)), "Dept", string(rune('a'+i)), "Female", "", 40, 100, ""))
		}
	}

	got, err := Aggregate(appts)
	require.NoError(t, err)

	doctors := byTitle(t, got, "Top 5 Busiest Doctors")
	assert.Equal(t, []string{"L", "K", "J", "I", "H"}, doctors.Labels)
	assert.Equal(t, []float64{12, 11, 10, 9, 8}, doctors.Values)

	assert.Len(t, byTitle(t, got, "Visits by Branch (Location)").Labels, 10)
	assert.Len(t, byTitle(t, got, "Top 10 Doctors by Avg Revenue").Labels, 10)
	assert.Len(t, byTitle(t, got, "Revenue by Branch").Labels, 12)
}

func TestAggregate_NoVisitTimes(t *testing.T) {
	appts := []models.Appointment{
		visit("Dr. Rao", "Cardiology", "Central", "Female", "P1", 49, 1500, ""),
	}
	got, err := Aggregate(appts)
	require.NoError(t, err)
	require.Len(t, got, models.InsightCount)
	require.NoError(t, Validate(got))

	for _, title := range []string{"Monthly Patient Visits Trend", "Visits by Day of Week", "Peak Visiting Hours", "Monthly Revenue Trend"} {
		data := byTitle(t, got, title)
		assert.NotNil(t, data.Labels, title)
		assert.Empty(t, data.Labels, title)
		assert.Empty(t, data.Values, title)
	}
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate(nil)
	assert.ErrorIs(t, err, ErrNoAppointments)
}

func TestAggregate_Deterministic(t *testing.T) {
	first, err := Aggregate(sampleAppointments())
	require.NoError(t, err)
	second, err := Aggregate(sampleAppointments())
	require.NoError(t, err)

	a, err := Encode(first)
	require.NoError(t, err)
	b, err := Encode(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
