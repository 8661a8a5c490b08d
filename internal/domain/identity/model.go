package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

// User is a staff account. A user signs in with either email or CNIC.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        *string   `json:"email,omitempty"`
	CNIC         *string   `json:"cnic,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	ClinicName string `json:"clinic_name" validate:"required,max=255"`
	Timezone   string `json:"timezone" validate:"omitempty,timezone"`
}

type RegisterResult struct {
	Message  string    `json:"message"`
	ClinicID uuid.UUID `json:"clinic_id"`
}

// LoginRequest accepts the email or CNIC in Identifier. Email is accepted
// as an alias for older clients.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// ClinicMembership is one clinic the user belongs to.
type ClinicMembership struct {
	MembershipID uuid.UUID `json:"membership_id"`
	ClinicID     uuid.UUID `json:"clinic_id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Role         auth.Role `json:"role"`
}
