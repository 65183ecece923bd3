// pkg/catalog/catalog.go
package catalog

import (
	"fmt"
	"strings"

	"hms-analytics/internal/models"
)

// Definition describes one insight of the collection. Titles and descriptions that
// name the busiest department carry a single %s verb.
type Definition struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ChartType   models.ChartType `json:"chartType"`
	TimeBased   bool             `json:"timeBased"`
}

// Templated reports whether the definition needs the top department name.
func (d Definition) Templated() bool {
	return strings.Contains(d.Title, "%s") || strings.Contains(d.Description, "%s")
}

// Render returns the display title and description for d.
func (d Definition) Render(topDepartment string) (title, description string) {
	if !d.Templated() {
		return d.Title, d.Description
	}
	return fmt.Sprintf(d.Title, topDepartment), fmt.Sprintf(d.Description, topDepartment)
}

// IDs of every insight, in serving order.
const (
	BusiestDoctors       = "busiest-doctors"
	VisitsByDepartment   = "visits-by-department"
	RevenueByDepartment  = "revenue-by-department"
	DoctorsByAvgRevenue  = "doctors-by-avg-revenue"
	AgeGroups            = "age-groups"
	GenderDistribution   = "gender-distribution"
	VisitsByBranch       = "visits-by-branch"
	RevenueByBranch      = "revenue-by-branch"
	PaymentModes         = "payment-modes"
	MonthlyVisits        = "monthly-visits"
	VisitsByWeekday      = "visits-by-weekday"
	StatusDistribution   = "status-distribution"
	RevenuePerVisit      = "revenue-per-visit"
	ZeroPaymentByDept    = "zero-payment-by-department"
	PatientRetention     = "patient-retention"
	PeakHours            = "peak-hours"
	AvgAgeByDepartment   = "avg-age-by-department"
	TopDepartmentGender  = "top-department-gender"
	TopDepartmentDoctors = "top-department-doctors"
	MonthlyRevenue       = "monthly-revenue"
)

var definitions = []Definition{
	{ID: BusiestDoctors, Title: "Top 5 Busiest Doctors", Description: "Doctors with the highest patient volume.", ChartType: models.ChartTypeBar},
	{ID: VisitsByDepartment, Title: "Patient Visits by Department", Description: "Distribution of cases across different medical departments.", ChartType: models.ChartTypePie},
	{ID: RevenueByDepartment, Title: "Revenue by Department", Description: "Total revenue generated by each department.", ChartType: models.ChartTypeBar},
	{ID: DoctorsByAvgRevenue, Title: "Top 10 Doctors by Avg Revenue", Description: "Doctors with the highest average revenue per visit.", ChartType: models.ChartTypeBar},
	{ID: AgeGroups, Title: "Patient Age Group Distribution", Description: "Demographic breakdown of patients by age groups.", ChartType: models.ChartTypeBar},
	{ID: GenderDistribution, Title: "Patient Gender Distribution", Description: "Split between Male and Female patients.", ChartType: models.ChartTypePie},
	{ID: VisitsByBranch, Title: "Visits by Branch (Location)", Description: "Patient volume across different hospital branches.", ChartType: models.ChartTypeBar},
	{ID: RevenueByBranch, Title: "Revenue by Branch", Description: "Total revenue generated by each branch.", ChartType: models.ChartTypeBar},
	{ID: PaymentModes, Title: "Top Payment Modes", Description: "Most common methods of payment.", ChartType: models.ChartTypeBar},
	{ID: MonthlyVisits, Title: "Monthly Patient Visits Trend", Description: "Trend of patient visits over time.", ChartType: models.ChartTypeLine, TimeBased: true},
	{ID: VisitsByWeekday, Title: "Visits by Day of Week", Description: "Patient volume distribution across the week.", ChartType: models.ChartTypeBar, TimeBased: true},
	{ID: StatusDistribution, Title: "Appointment Status Distribution", Description: "Breakdown of appointment statuses (e.g., Open, Closed).", ChartType: models.ChartTypeBar},
	{ID: RevenuePerVisit, Title: "Revenue per Visit Distribution", Description: "Distribution of revenue amounts collected per visit.", ChartType: models.ChartTypeBar},
	{ID: ZeroPaymentByDept, Title: "Zero-Payment Visits by Department", Description: "Departments with the most free or unpaid visits.", ChartType: models.ChartTypeBar},
	{ID: PatientRetention, Title: "Patient Retention Rate", Description: "Proportion of patients with repeat visits vs single visits.", ChartType: models.ChartTypePie},
	{ID: PeakHours, Title: "Peak Visiting Hours", Description: "Patient traffic throughout the day.", ChartType: models.ChartTypeLine, TimeBased: true},
	{ID: AvgAgeByDepartment, Title: "Average Patient Age by Department", Description: "Average age of patients visiting each department.", ChartType: models.ChartTypeBar},
	{ID: TopDepartmentGender, Title: "Gender Distribution in %s", Description: "Gender breakdown for the busiest department (%s).", ChartType: models.ChartTypePie},
	{ID: TopDepartmentDoctors, Title: "Top Doctors in %s", Description: "Busiest doctors in %s.", ChartType: models.ChartTypeBar},
	{ID: MonthlyRevenue, Title: "Monthly Revenue Trend", Description: "Total revenue collected over time.", ChartType: models.ChartTypeLine, TimeBased: true},
}

// Definitions returns a copy of the catalog in serving order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition with the given id.
func Lookup(id string) (Definition, bool) {
	for _, d := range definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
