package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	ListClinics(ctx context.Context) ([]ClinicInfo, error)
	AppointmentCounts(ctx context.Context, clinicID uuid.UUID, date string) (Counts, error)
	// PaidRevenue sums PAID invoices created in [from, to).
	PaidRevenue(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (float64, error)
	ScheduledOn(ctx context.Context, clinicID uuid.UUID, date string) ([]*Reminder, error)
}
