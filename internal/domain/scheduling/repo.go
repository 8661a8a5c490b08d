package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error)
	// GetForUpdate reads the appointment and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
	// ListByDate returns the day's appointments ordered by start time then
	// token. doctorID narrows to one doctor when non-nil.
	ListByDate(ctx context.Context, clinicID uuid.UUID, date string, doctorID *uuid.UUID) ([]*Appointment, error)
	// ListActive returns the day's queue ordered by token.
	ListActive(ctx context.Context, clinicID uuid.UUID, date string, doctorID *uuid.UUID) ([]*Appointment, error)
	// LockQueue serialises token assignment for one queue until the
	// surrounding transaction ends.
	LockQueue(ctx context.Context, clinicID, doctorID uuid.UUID, date string) error
	NextToken(ctx context.Context, clinicID, doctorID uuid.UUID, date string) (int, error)
	TokenSlip(ctx context.Context, clinicID, id uuid.UUID) (*TokenSlip, error)
}
