// internal/appointments/source.go
package appointments

import (
	"context"

	"hms-analytics/internal/models"
)

// Source fetches cleaned appointments from a backing store.
type Source interface {
	Fetch(ctx context.Context) ([]models.Appointment, error)
	Name() string
}
