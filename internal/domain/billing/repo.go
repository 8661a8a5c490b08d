package billing

import (
	"context"

	"github.com/google/uuid"
)

type ServiceRepository interface {
	Create(ctx context.Context, s *ClinicService) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*ClinicService, error)
	List(ctx context.Context, clinicID uuid.UUID) ([]*ClinicService, error)
}

type InvoiceRepository interface {
	// LockNumbering serialises invoice numbering for a clinic until the
	// surrounding transaction ends.
	LockNumbering(ctx context.Context, clinicID uuid.UUID) error
	Count(ctx context.Context, clinicID uuid.UUID) (int, error)
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Invoice, error)
	UpdateStatus(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Invoice, int, error)
}
