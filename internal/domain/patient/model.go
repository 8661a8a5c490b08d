package patient

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID          uuid.UUID `json:"id"`
	ClinicID    uuid.UUID `json:"clinic_id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       *string   `json:"email,omitempty"`
	Gender      *string   `json:"gender,omitempty"`
	DateOfBirth *string   `json:"date_of_birth,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Phone       string  `json:"phone" validate:"required,max=64"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Gender      *string `json:"gender" validate:"omitempty,max=16"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,isodate"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
}

type UpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Phone       *string `json:"phone" validate:"omitempty,min=1,max=64"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Gender      *string `json:"gender" validate:"omitempty,max=16"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,isodate"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
}

// MaxListSize caps a clinic's patient listing.
const MaxListSize = 1000
