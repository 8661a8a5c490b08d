package clinic

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

type ClinicRepository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	Update(ctx context.Context, c *Clinic) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type MembershipRepository interface {
	// Upsert creates the membership or updates the role of an existing one.
	Upsert(ctx context.Context, m *Membership) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Member, error)
	Role(ctx context.Context, userID, clinicID uuid.UUID) (auth.Role, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*Member, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]identity.ClinicMembership, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}
