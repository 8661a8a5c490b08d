package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	// List returns patients ordered by name. query matches name or phone.
	List(ctx context.Context, clinicID uuid.UUID, query string, limit int) ([]*Patient, error)
}
