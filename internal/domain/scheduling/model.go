package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled      Status = "SCHEDULED"
	StatusCheckedIn      Status = "CHECKED_IN"
	StatusInConsultation Status = "IN_CONSULTATION"
	StatusCompleted      Status = "COMPLETED"
	StatusNoShow         Status = "NO_SHOW"
	StatusCancelled      Status = "CANCELLED"
)

var statuses = map[Status]bool{
	StatusScheduled:      true,
	StatusCheckedIn:      true,
	StatusInConsultation: true,
	StatusCompleted:      true,
	StatusNoShow:         true,
	StatusCancelled:      true,
}

func (s Status) Valid() bool { return statuses[s] }

// Active reports whether an appointment with this status is still in the
// day's queue.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusCheckedIn || s == StatusInConsultation
}

// ActiveStatuses lists the queue statuses in display order.
var ActiveStatuses = []Status{StatusScheduled, StatusCheckedIn, StatusInConsultation}

type VisitType string

const (
	VisitNew      VisitType = "NEW"
	VisitFollowUp VisitType = "FOLLOW_UP"
)

type DoctorSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Speciality *string   `json:"speciality,omitempty"`
	RoomNumber *string   `json:"room_number,omitempty"`
}

type PatientSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
	Email *string   `json:"email,omitempty"`
}

type ServiceSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

// Appointment is one visit in a doctor's daily queue. TokenNumber is the
// position in the (clinic, doctor, date) queue.
type Appointment struct {
	ID                uuid.UUID       `json:"id"`
	ClinicID          uuid.UUID       `json:"clinic_id"`
	DoctorID          uuid.UUID       `json:"doctor_id"`
	PatientID         uuid.UUID       `json:"patient_id"`
	Date              string          `json:"appointment_date"`
	StartTime         time.Time       `json:"start_time"`
	TokenNumber       int             `json:"token_number"`
	PrimaryServiceID  *uuid.UUID      `json:"primary_service_id,omitempty"`
	VisitType         VisitType       `json:"visit_type"`
	Status            Status          `json:"status"`
	NotesForReception *string         `json:"notes_for_reception,omitempty"`
	NotesForDoctor    *string         `json:"notes_for_doctor,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Doctor            *DoctorSummary  `json:"doctor,omitempty"`
	Patient           *PatientSummary `json:"patient,omitempty"`
	PrimaryService    *ServiceSummary `json:"primary_service,omitempty"`
}

type CreateRequest struct {
	DoctorID          string  `json:"doctor_id" validate:"required,uuid"`
	PatientID         string  `json:"patient_id" validate:"required,uuid"`
	Date              string  `json:"date" validate:"required,isodate"`
	StartTime         string  `json:"start_time" validate:"required,hhmm"`
	PrimaryServiceID  string  `json:"primary_service_id" validate:"omitempty,uuid"`
	VisitType         string  `json:"visit_type" validate:"omitempty,oneof=NEW FOLLOW_UP"`
	NotesForReception *string `json:"notes_for_reception" validate:"omitempty,max=2000"`
	NotesForDoctor    *string `json:"notes_for_doctor" validate:"omitempty,max=2000"`
}

type UpdateRequest struct {
	Status            *string `json:"status" validate:"omitempty,oneof=SCHEDULED CHECKED_IN IN_CONSULTATION COMPLETED NO_SHOW CANCELLED"`
	Date              *string `json:"date" validate:"omitempty,isodate"`
	StartTime         *string `json:"start_time" validate:"omitempty,hhmm"`
	NotesForReception *string `json:"notes_for_reception" validate:"omitempty,max=2000"`
	NotesForDoctor    *string `json:"notes_for_doctor" validate:"omitempty,max=2000"`
}

// TokenSlip is the printable token handed to the patient.
type TokenSlip struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	ClinicName    string    `json:"clinic_name"`
	TokenNumber   int       `json:"token_number"`
	DoctorName    string    `json:"doctor_name"`
	RoomNumber    *string   `json:"room_number,omitempty"`
	PatientName   string    `json:"patient_name"`
	Date          string    `json:"date"`
	StartTime     time.Time `json:"start_time"`
	ServiceName   *string   `json:"service_name,omitempty"`
}

// DoctorQueue is one doctor's column on the queue board.
type DoctorQueue struct {
	Doctor         DoctorSummary  `json:"doctor"`
	NowServing     *Appointment   `json:"now_serving"`
	InConsultation []*Appointment `json:"in_consultation"`
	CheckedIn      []*Appointment `json:"checked_in"`
	Scheduled      []*Appointment `json:"scheduled"`
}

type QueueBoard struct {
	Date                string          `json:"date"`
	Doctors             []DoctorSummary `json:"doctors"`
	Queues              []DoctorQueue   `json:"queues"`
	PollIntervalSeconds int             `json:"poll_interval_seconds"`
	GeneratedAt         time.Time       `json:"generated_at"`
}
