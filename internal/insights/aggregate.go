// internal/insights/aggregate.go
package insights

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"hms-analytics/internal/models"
	"hms-analytics/pkg/catalog"
)

// ErrNoAppointments is returned when there is nothing to aggregate.
var ErrNoAppointments = errors.New("no appointments to aggregate")

// Bins are half-open [lower, upper).
type bin struct {
	lower, upper float64
	label        string
}

var ageBins = []bin{
	{0, 18, "0-18"},
	{18, 30, "19-30"},
	{30, 50, "31-50"},
	{50, 70, "51-70"},
	{70, 150, "70+"},
}

var revenueBins = []bin{
	{0, 500, "0-500"},
	{500, 1000, "501-1000"},
	{1000, 2000, "1001-2000"},
	{2000, 5000, "2001-5000"},
	{5000, 10000, "5000+"},
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// tally keeps per-key totals with keys in first-seen order.
type tally struct {
	keys   []string
	sums   map[string]float64
	counts map[string]int
}

func newTally() *tally {
	return &tally{sums: map[string]float64{}, counts: map[string]int{}}
}

func (t *tally) add(key string, v float64) {
	if _, ok := t.counts[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.counts[key]++
	t.sums[key] += v
}

type series struct {
	labels []string
	values []float64
}

func (s series) head(n int) series {
	if len(s.labels) <= n {
		return s
	}
	return series{labels: s.labels[:n], values: s.values[:n]}
}

func (s series) chart() models.ChartData {
	return models.NewChartData(s.labels, s.values)
}

func (t *tally) series(keys []string, value func(string) float64) series {
	out := series{labels: make([]string, 0, len(keys)), values: make([]float64, 0, len(keys))}
	for _, k := range keys {
		out.labels = append(out.labels, k)
		out.values = append(out.values, value(k))
	}
	return out
}

// valueCounts orders keys by count, descending. Ties keep first-seen order.
func (t *tally) valueCounts() series {
	keys := append([]string(nil), t.keys...)
	sort.SliceStable(keys, func(i, j int) bool { return t.counts[keys[i]] > t.counts[keys[j]] })
	return t.series(keys, func(k string) float64 { return float64(t.counts[k]) })
}

// grouped orders keys alphabetically, then stably by the aggregate value.
func (t *tally) grouped(value func(string) float64, descending bool) series {
	keys := append([]string(nil), t.keys...)
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool {
		if descending {
			return value(keys[i]) > value(keys[j])
		}
		return value(keys[i]) < value(keys[j])
	})
	return t.series(keys, value)
}

func (t *tally) sum(k string) float64 { return t.sums[k] }

func (t *tally) mean(k string) float64 {
	if t.counts[k] == 0 {
		return 0
	}
	return t.sums[k] / float64(t.counts[k])
}

func binned(bins []bin, vals []float64) series {
	out := series{labels: make([]string, len(bins)), values: make([]float64, len(bins))}
	for i, b := range bins {
		out.labels[i] = b.label
	}
	for _, v := range vals {
		for i, b := range bins {
			if v >= b.lower && v < b.upper {
				out.values[i]++
				break
			}
		}
	}
	return out
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// monthly sums value per calendar month from the first to the last month seen,
// filling gaps with zero.
func monthly(appts []models.Appointment, value func(models.Appointment) float64) series {
	totals := map[time.Time]float64{}
	var first, last time.Time
	for _, a := range appts {
		if !a.HasVisitTime() {
			continue
		}
		m := monthStart(a.VisitTime)
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if last.IsZero() || m.After(last) {
			last = m
		}
		totals[m] += value(a)
	}

	out := series{labels: []string{}, values: []float64{}}
	if first.IsZero() {
		return out
	}
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		out.labels = append(out.labels, m.Format("2006-01"))
		out.values = append(out.values, totals[m])
	}
	return out
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// aggregation holds the tallies every insight builder reads from.
type aggregation struct {
	appts         []models.Appointment
	doctors       *tally
	departments   *tally
	branches      *tally
	genders       *tally
	paymentModes  *tally
	statuses      *tally
	zeroPayDepts  *tally
	patients      *tally
	deptAges      *tally
	topDepartment string
	topGenders    *tally
	topDoctors    *tally
}

func newAggregation(appts []models.Appointment) *aggregation {
	a := &aggregation{
		appts:        appts,
		doctors:      newTally(),
		departments:  newTally(),
		branches:     newTally(),
		genders:      newTally(),
		paymentModes: newTally(),
		statuses:     newTally(),
		zeroPayDepts: newTally(),
		patients:     newTally(),
		deptAges:     newTally(),
		topGenders:   newTally(),
		topDoctors:   newTally(),
	}

	for _, ap := range appts {
		a.doctors.add(ap.DoctorName, ap.Revenue)
		a.departments.add(ap.Department, ap.Revenue)
		a.branches.add(ap.Branch, ap.Revenue)
		a.genders.add(ap.Gender, 0)
		a.paymentModes.add(ap.PaymentMode, 0)
		a.statuses.add(ap.Status, 0)
		a.deptAges.add(ap.Department, ap.Age)
		if ap.Revenue == 0 {
			a.zeroPayDepts.add(ap.Department, 0)
		}
		if ap.PatientID != "" {
			a.patients.add(ap.PatientID, 0)
		}
	}

	if depts := a.departments.valueCounts(); len(depts.labels) > 0 {
		a.topDepartment = depts.labels[0]
	}
	for _, ap := range appts {
		if ap.Department == a.topDepartment {
			a.topGenders.add(ap.Gender, 0)
			a.topDoctors.add(ap.DoctorName, 0)
		}
	}
	return a
}

func (a *aggregation) ages() []float64 {
	out := make([]float64, len(a.appts))
	for i, ap := range a.appts {
		out[i] = ap.Age
	}
	return out
}

func (a *aggregation) revenues() []float64 {
	out := make([]float64, len(a.appts))
	for i, ap := range a.appts {
		out[i] = ap.Revenue
	}
	return out
}

func (a *aggregation) weekdays() series {
	counts := map[time.Weekday]float64{}
	for _, ap := range a.appts {
		if ap.HasVisitTime() {
			counts[ap.VisitTime.Weekday()]++
		}
	}
	out := series{labels: []string{}, values: []float64{}}
	if len(counts) == 0 {
		return out
	}
	for _, d := range weekdays {
		out.labels = append(out.labels, d.String())
		out.values = append(out.values, counts[d])
	}
	return out
}

func (a *aggregation) hours() series {
	var counts [24]float64
	seen := false
	for _, ap := range a.appts {
		if ap.HasVisitTime() {
			counts[ap.VisitTime.Hour()]++
			seen = true
		}
	}
	out := series{labels: []string{}, values: []float64{}}
	if !seen {
		return out
	}
	for h, c := range counts {
		if c > 0 {
			out.labels = append(out.labels, fmt.Sprintf("%02d:00", h))
			out.values = append(out.values, c)
		}
	}
	return out
}

func (a *aggregation) retention() series {
	var repeat, once float64
	for _, id := range a.patients.keys {
		switch n := a.patients.counts[id]; {
		case n > 1:
			repeat++
		case n == 1:
			once++
		}
	}
	return series{labels: []string{"Repeat Patients", "One-time Patients"}, values: []float64{repeat, once}}
}

func (a *aggregation) build(id string) (series, bool) {
	switch id {
	case catalog.BusiestDoctors:
		return a.doctors.valueCounts().head(5), true
	case catalog.VisitsByDepartment:
		return a.departments.valueCounts(), true
	case catalog.RevenueByDepartment:
		return a.departments.grouped(a.departments.sum, true), true
	case catalog.DoctorsByAvgRevenue:
		return a.doctors.grouped(a.doctors.mean, true).head(10), true
	case catalog.AgeGroups:
		return binned(ageBins, a.ages()), true
	case catalog.GenderDistribution:
		return a.genders.valueCounts(), true
	case catalog.VisitsByBranch:
		return a.branches.valueCounts().head(10), true
	case catalog.RevenueByBranch:
		return a.branches.grouped(a.branches.sum, true), true
	case catalog.PaymentModes:
		return a.paymentModes.valueCounts().head(5), true
	case catalog.MonthlyVisits:
		return monthly(a.appts, func(models.Appointment) float64 { return 1 }), true
	case catalog.VisitsByWeekday:
		return a.weekdays(), true
	case catalog.StatusDistribution:
		return a.statuses.valueCounts().head(5), true
	case catalog.RevenuePerVisit:
		return binned(revenueBins, a.revenues()), true
	case catalog.ZeroPaymentByDept:
		return a.zeroPayDepts.valueCounts().head(10), true
	case catalog.PatientRetention:
		return a.retention(), true
	case catalog.PeakHours:
		return a.hours(), true
	case catalog.AvgAgeByDepartment:
		return a.deptAges.grouped(func(k string) float64 { return roundTo(a.deptAges.mean(k), 1) }, false), true
	case catalog.TopDepartmentGender:
		return a.topGenders.valueCounts(), true
	case catalog.TopDepartmentDoctors:
		return a.topDoctors.valueCounts().head(5), true
	case catalog.MonthlyRevenue:
		return monthly(a.appts, func(ap models.Appointment) float64 { return ap.Revenue }), true
	}
	return series{}, false
}

// Aggregate computes the insight collection, in catalog order, from cleaned appointments.
func Aggregate(appts []models.Appointment) ([]models.Insight, error) {
	if len(appts) == 0 {
		return nil, ErrNoAppointments
	}

	agg := newAggregation(appts)
	defs := catalog.Definitions()
	out := make([]models.Insight, 0, len(defs))
	for _, d := range defs {
		data, ok := agg.build(d.ID)
		if !ok {
			return nil, fmt.Errorf("no aggregation for insight %q", d.ID)
		}
		title, description := d.Render(agg.topDepartment)
		out = append(out, models.Insight{
			Title:       title,
			Description: description,
			ChartType:   d.ChartType,
			ChartData:   data.chart(),
		})
	}
	return out, nil
}
