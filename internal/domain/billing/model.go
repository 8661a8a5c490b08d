package billing

import (
	"time"

	"github.com/google/uuid"
)

// ClinicService is a billable item in a clinic's catalog.
type ClinicService struct {
	ID        uuid.UUID `json:"id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateServiceRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Price    float64 `json:"price" validate:"gte=0"`
	IsActive *bool   `json:"is_active"`
}

type InvoiceStatus string

const (
	InvoiceUnpaid    InvoiceStatus = "UNPAID"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

type InvoiceItem struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    int     `json:"quantity" validate:"gte=1"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type Invoice struct {
	ID            uuid.UUID     `json:"id"`
	ClinicID      uuid.UUID     `json:"clinic_id"`
	PatientID     uuid.UUID     `json:"patient_id"`
	AppointmentID *uuid.UUID    `json:"appointment_id,omitempty"`
	InvoiceNumber string        `json:"invoice_number"`
	Items         []InvoiceItem `json:"items"`
	TotalAmount   float64       `json:"total_amount"`
	Status        InvoiceStatus `json:"status"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	PatientName   string        `json:"patient_name,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type CreateInvoiceRequest struct {
	PatientID     string        `json:"patient_id" validate:"required,uuid"`
	AppointmentID string        `json:"appointment_id" validate:"omitempty,uuid"`
	Items         []InvoiceItem `json:"items" validate:"required,min=1,dive"`
}

type UpdateInvoiceRequest struct {
	Status string `json:"status" validate:"required,oneof=UNPAID PAID CANCELLED"`
}
