// internal/appointments/synthetic.go
package appointments

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SyntheticOptions controls Synthetic. Zero values take the defaults noted per field.
type SyntheticOptions struct {
	Seed     int64     // 42
	Visits   int       // 1500
	Doctors  int       // 50
	Patients int       // 500
	Now      time.Time // time.Now(); visits fall in the year before it
}

var (
	syntheticDepartments = []string{"Cardiology", "Neurology", "Orthopedics", "Pediatrics", "General Medicine", "Dermatology", "Emergency"}
	syntheticBranches    = []string{"HMS Central", "HMS North", "HMS South", "HMS East", "HMS West"}
	syntheticFirstNames  = []string{"Ananya", "Vikram", "Meera", "Arjun", "Kavya", "Rohan", "Priya", "Sanjay", "Neha", "Aditya", "Isha", "Karan", "Divya", "Rahul", "Sneha", "Amit"}
	syntheticLastNames   = []string{"Rao", "Iyer", "Nair", "Shah", "Menon", "Gupta", "Reddy", "Patel", "Kumar", "Singh", "Das", "Joshi", "Pillai", "Verma"}
	syntheticStatuses    = []string{"Closed", "Closed", "Closed", "Open", "Cancelled"}
	syntheticPayments    = []string{"Cash", "UPI", "Card", "Insurance"}
)

type syntheticDoctor struct {
	name       string
	department string
	branch     string
}

type syntheticPatient struct {
	id     string
	name   string
	age    int
	gender string
}

// Synthetic builds a deterministic appointment export for the given seed. Rows are in the
// same raw form the CSV source reads, including the occasional "6M"/"3Y" age spelling
// and blank payment.
func Synthetic(opts SyntheticOptions) []RawRecord {
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	if opts.Visits <= 0 {
		opts.Visits = 1500
	}
	if opts.Doctors <= 0 {
		opts.Doctors = 50
	}
	if opts.Patients <= 0 {
		opts.Patients = 500
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	pick := func(xs []string) string { return xs[rng.Intn(len(xs))] }
	fullName := func() string { return pick(syntheticFirstNames) + " " + pick(syntheticLastNames) }

	doctors := make([]syntheticDoctor, opts.Doctors)
	for i := range doctors {
		doctors[i] = syntheticDoctor{
			name:       "Dr. " + fullName(),
			department: pick(syntheticDepartments),
			branch:     pick(syntheticBranches),
		}
	}

	patients := make([]syntheticPatient, opts.Patients)
	for i := range patients {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			id = uuid.New()
		}
		patients[i] = syntheticPatient{
			id:     id.String(),
			name:   fullName(),
			age:    1 + rng.Intn(90),
			gender: pick([]string{"Male", "Female"}),
		}
	}

	start := opts.Now.AddDate(-1, 0, 0)
	span := opts.Now.Sub(start)

	rows := make([]RawRecord, opts.Visits)
	for i := range rows {
		d := doctors[rng.Intn(len(doctors))]
		p := patients[rng.Intn(len(patients))]
		at := start.Add(time.Duration(rng.Int63n(int64(span))))

		fee := strconv.Itoa(500 + rng.Intn(2501))
		payment := pick(syntheticPayments)
		if rng.Intn(20) == 0 {
			payment, fee = "", ""
		}

		rows[i] = RawRecord{
			ColPractitioner.Header: d.name,
			ColDepartment.Header:   d.department,
			ColCompany.Header:      d.branch,
			ColGender.Header:       p.gender,
			ColStatus.Header:       pick(syntheticStatuses),
			ColPaymentMode.Header:  payment,
			ColPatient.Header:      p.id,
			ColPatientName.Header:  p.name,
			ColAge.Header:          syntheticAge(rng, p.age),
			ColPaidAmount.Header:   fee,
			ColVisitTime.Header:    at.Format("02-01-06 15:04"),
		}
	}
	return rows
}

func syntheticAge(rng *rand.Rand, years int) string {
	switch {
	case years < 2 && rng.Intn(2) == 0:
		return fmt.Sprintf("%dM", years*12+rng.Intn(12))
	case rng.Intn(10) == 0:
		return fmt.Sprintf("%dY", years)
	default:
		return strconv.Itoa(years)
	}
}
