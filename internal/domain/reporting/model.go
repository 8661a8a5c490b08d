package reporting

import (
	"time"

	"github.com/google/uuid"
)

// Dashboard is a clinic's activity for one local day.
type Dashboard struct {
	Date              string  `json:"date"`
	TotalAppointments int     `json:"total_appointments"`
	Completed         int     `json:"completed"`
	NoShows           int     `json:"no_shows"`
	Revenue           float64 `json:"revenue"`
}

type Counts struct {
	Total     int
	Completed int
	NoShows   int
}

// ClinicInfo is what the scheduled jobs need to know about each clinic.
type ClinicInfo struct {
	ID         uuid.UUID
	Name       string
	Timezone   string
	OwnerEmail *string
}

// Reminder describes one appointment a patient is reminded about.
type Reminder struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	ClinicID      uuid.UUID `json:"clinic_id"`
	ClinicName    string    `json:"clinic_name"`
	DoctorName    string    `json:"doctor_name"`
	PatientName   string    `json:"patient_name"`
	PatientPhone  string    `json:"patient_phone"`
	PatientEmail  *string   `json:"patient_email,omitempty"`
	Date          string    `json:"date"`
	StartTime     time.Time `json:"start_time"`
	TokenNumber   int       `json:"token_number"`
	Channels      []string  `json:"channels"`
}

type ReminderRun struct {
	Success       bool        `json:"success"`
	RemindersSent int         `json:"reminders_sent"`
	Reminders     []*Reminder `json:"reminders"`
}

type DailySummary struct {
	ClinicID     uuid.UUID `json:"clinic_id"`
	ClinicName   string    `json:"clinic_name"`
	Date         string    `json:"date"`
	Appointments int       `json:"appointments"`
	Revenue      float64   `json:"revenue"`
	GeneratedAt  time.Time `json:"generated_at"`
}

type SummaryRun struct {
	Success   bool            `json:"success"`
	Date      string          `json:"date"`
	Summaries []*DailySummary `json:"summaries"`
}
