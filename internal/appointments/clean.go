// internal/appointments/clean.go
package appointments

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"hms-analytics/internal/models"
)

// Column maps an appointment attribute to its CSV header and its
// Postgres column / Elasticsearch field name.
type Column struct {
	Header string
	Field  string
}

// Recognised columns. Headers are matched after trimming surrounding whitespace.
var (
	ColPractitioner = Column{Header: "Practitioner", Field: "practitioner"}
	ColDepartment   = Column{Header: "Medical Department", Field: "medical_department"}
	ColCompany      = Column{Header: "Company", Field: "company"}
	ColGender       = Column{Header: "Gender", Field: "gender"}
	ColStatus       = Column{Header: "Status", Field: "status"}
	ColPaymentMode  = Column{Header: "Mode of Payment", Field: "mode_of_payment"}
	ColPatient      = Column{Header: "Patient", Field: "patient"}
	ColPatientName  = Column{Header: "Patient Name", Field: "patient_name"}
	ColAge          = Column{Header: "Age", Field: "age"}
	ColPaidAmount   = Column{Header: "Paid Amount", Field: "paid_amount"}
	ColVisitTime    = Column{Header: "Appointment Date & Time", Field: "appointment_datetime"}
)

// Columns lists every recognised column in a stable order.
var Columns = []Column{
	ColPractitioner, ColDepartment, ColCompany, ColGender, ColStatus, ColPaymentMode,
	ColPatient, ColPatientName, ColAge, ColPaidAmount, ColVisitTime,
}

// RawRecord is one uncleaned row keyed by CSV header. A missing key and a blank value
// are both treated as missing.
type RawRecord map[string]string

func (r RawRecord) get(c Column) string {
	return strings.TrimSpace(r[c.Header])
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var agePattern = regexp.MustCompile(`\d+(\.\d+)?`)

// ParseAge reads ages written as "49", "6Y", "3.3Y" or "6M" (months) and returns years.
func ParseAge(raw string) (float64, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	m := agePattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	if strings.Contains(s, "M") && !strings.Contains(s, "Y") {
		v /= 12
	}
	return v, true
}

// ParseAmount returns 0 for anything that is not a plain finite number, NaN and Inf included.
func ParseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Day-first layouts, most specific first.
var visitLayouts = []string{
	"02-01-06 15:04",
	"02-01-06 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/06 15:04",
	time.RFC3339Nano,
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02-01-06",
	"02-01-2006",
	"2006-01-02",
}

// ParseVisitTime parses an appointment timestamp, day first. Unparseable values yield false.
func ParseVisitTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range visitLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Clean converts raw rows into appointments. Missing ages take the median of the parsed
// ages, or 0 when no age parses.
func Clean(rows []RawRecord) []models.Appointment {
	out := make([]models.Appointment, len(rows))
	ageKnown := make([]bool, len(rows))
	var ages []float64

	for i, r := range rows {
		a := models.Appointment{
			DoctorName:  orDefault(r.get(ColPractitioner), models.DefaultDoctorName),
			Department:  orDefault(r.get(ColDepartment), models.DefaultDepartment),
			Branch:      orDefault(r.get(ColCompany), models.DefaultBranch),
			Gender:      orDefault(r.get(ColGender), models.DefaultGender),
			Status:      orDefault(r.get(ColStatus), models.DefaultStatus),
			PaymentMode: orDefault(r.get(ColPaymentMode), models.DefaultPaymentMode),
			PatientID:   r.get(ColPatient),
			PatientName: orDefault(r.get(ColPatientName), models.DefaultPatientName),
			Revenue:     ParseAmount(r.get(ColPaidAmount)),
		}
		if age, ok := ParseAge(r.get(ColAge)); ok {
			a.Age = age
			ageKnown[i] = true
			ages = append(ages, age)
		}
		if t, ok := ParseVisitTime(r.get(ColVisitTime)); ok {
			a.VisitTime = t
		}
		out[i] = a
	}

	fill := median(ages)
	for i := range out {
		if !ageKnown[i] {
			out[i].Age = fill
		}
	}
	return out
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
