package clinic

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

const DefaultTimezone = "UTC"

// Clinic is the tenant. Every other record is scoped by its ID.
type Clinic struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Timezone  string    `json:"timezone"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Timezone *string `json:"timezone" validate:"omitempty,timezone"`
	Address  *string `json:"address" validate:"omitempty,max=1000"`
	Phone    *string `json:"phone" validate:"omitempty,max=64"`
}

type Membership struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email *string   `json:"email"`
	CNIC  *string   `json:"cnic"`
}

// Member is a membership joined with its user and, for doctors, the
// clinic's doctor record.
type Member struct {
	ID        uuid.UUID      `json:"id"`
	ClinicID  uuid.UUID      `json:"-"`
	Role      auth.Role      `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	User      MemberUser     `json:"user"`
	Doctor    *doctor.Doctor `json:"doctor,omitempty"`
}

type CreateMemberRequest struct {
	Email      string  `json:"email"`
	Name       string  `json:"name" validate:"required,max=255"`
	CNIC       string  `json:"cnic" validate:"required,max=32"`
	Password   string  `json:"password" validate:"required,min=8"`
	Role       string  `json:"role" validate:"required,oneof=ADMIN DOCTOR RECEPTION"`
	Speciality *string `json:"speciality" validate:"omitempty,max=255"`
	RoomNumber *string `json:"room_number" validate:"omitempty,max=32"`
}

// UpdateMemberRequest changes only the fields that are present. An empty
// email clears it.
type UpdateMemberRequest struct {
	Email      *string `json:"email"`
	Name       *string `json:"name" validate:"omitempty,min=1,max=255"`
	CNIC       *string `json:"cnic" validate:"omitempty,min=1,max=32"`
	Password   *string `json:"password" validate:"omitempty,min=8"`
	Role       *string `json:"role" validate:"omitempty,oneof=ADMIN DOCTOR RECEPTION"`
	Speciality *string `json:"speciality" validate:"omitempty,max=255"`
	RoomNumber *string `json:"room_number" validate:"omitempty,max=32"`
}
