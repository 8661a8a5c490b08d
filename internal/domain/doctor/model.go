package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a clinic's practitioner. UserID links the doctor to a staff
// account when the doctor signs in.
type Doctor struct {
	ID         uuid.UUID  `json:"id"`
	ClinicID   uuid.UUID  `json:"clinic_id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	Name       string     `json:"name"`
	Speciality *string    `json:"speciality,omitempty"`
	RoomNumber *string    `json:"room_number,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CreateRequest struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Speciality *string `json:"speciality" validate:"omitempty,max=255"`
	RoomNumber *string `json:"room_number" validate:"omitempty,max=32"`
	IsActive   *bool   `json:"is_active"`
}

type UpdateRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=255"`
	Speciality *string `json:"speciality" validate:"omitempty,max=255"`
	RoomNumber *string `json:"room_number" validate:"omitempty,max=32"`
	IsActive   *bool   `json:"is_active"`
}
