package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Doctor, error)
	GetByUser(ctx context.Context, clinicID, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	List(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*Doctor, error)
	DeleteByUser(ctx context.Context, clinicID, userID uuid.UUID) error
}
