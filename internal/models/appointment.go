// internal/models/appointment.go
package models

import "time"

// Appointment is one cleaned patient appointment, the input of the insight aggregator.
type Appointment struct {
	DoctorName  string    `json:"doctorName"`
	Department  string    `json:"department"`
	Branch      string    `json:"branch"`
	Gender      string    `json:"gender"`
	Status      string    `json:"status"`
	PaymentMode string    `json:"paymentMode"`
	PatientID   string    `json:"patientId"`
	PatientName string    `json:"patientName"`
	Age         float64   `json:"age"`
	Revenue     float64   `json:"revenue"`
	VisitTime   time.Time `json:"visitTime"`
}

// HasVisitTime reports whether the appointment time could be parsed.
func (a Appointment) HasVisitTime() bool {
	return !a.VisitTime.IsZero()
}

// Defaults applied when a column is missing or blank.
const (
	DefaultDoctorName  = "Unknown Doctor"
	DefaultDepartment  = "General"
	DefaultBranch      = "Unknown Branch"
	DefaultGender      = "Unknown"
	DefaultStatus      = "Unknown"
	DefaultPaymentMode = "Unknown"
	DefaultPatientName = "Unknown"
)
