package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const apptSelect = `
	SELECT a.id, a.clinic_id, a.doctor_id, a.patient_id, to_char(a.appointment_date, 'YYYY-MM-DD'),
		a.start_time, a.token_number, a.primary_service_id, a.visit_type, a.status,
		a.notes_for_reception, a.notes_for_doctor, a.created_at, a.updated_at,
		d.name, d.speciality, d.room_number,
		p.name, p.phone, p.email,
		s.name, s.price::float8
	FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id
	LEFT JOIN clinic_services s ON s.id = a.primary_service_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a            Appointment
		d            DoctorSummary
		p            PatientSummary
		serviceName  *string
		servicePrice *float64
	)
	err := row.Scan(&a.ID, &a.ClinicID, &a.DoctorID, &a.PatientID, &a.Date,
		&a.StartTime, &a.TokenNumber, &a.PrimaryServiceID, &a.VisitType, &a.Status,
		&a.NotesForReception, &a.NotesForDoctor, &a.CreatedAt, &a.UpdatedAt,
		&d.Name, &d.Speciality, &d.RoomNumber,
		&p.Name, &p.Phone, &p.Email,
		&serviceName, &servicePrice)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.ID = a.DoctorID
	p.ID = a.PatientID
	a.Doctor = &d
	a.Patient = &p
	if a.PrimaryServiceID != nil && serviceName != nil {
		a.PrimaryService = &ServiceSummary{ID: *a.PrimaryServiceID, Name: *serviceName}
		if servicePrice != nil {
			a.PrimaryService.Price = *servicePrice
		}
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointments (id, clinic_id, doctor_id, patient_id, appointment_date, start_time,
			token_number, primary_service_id, visit_type, status, notes_for_reception, notes_for_doctor)
		VALUES ($1,$2,$3,$4,$5::date,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		a.ID, a.ClinicID, a.DoctorID, a.PatientID, a.Date, a.StartTime,
		a.TokenNumber, a.PrimaryServiceID, a.VisitType, a.Status, a.NotesForReception, a.NotesForDoctor,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx,
		apptSelect+` WHERE a.id = $1 AND a.clinic_id = $2`, id, clinicID))
}

func (r *repoPG) GetForUpdate(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx,
		apptSelect+` WHERE a.id = $1 AND a.clinic_id = $2 FOR UPDATE OF a`, id, clinicID))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointments SET appointment_date=$3::date, start_time=$4, token_number=$5, status=$6,
			notes_for_reception=$7, notes_for_doctor=$8, updated_at=NOW()
		WHERE id = $1 AND clinic_id = $2
		RETURNING updated_at`,
		a.ID, a.ClinicID, a.Date, a.StartTime, a.TokenNumber, a.Status,
		a.NotesForReception, a.NotesForDoctor,
	).Scan(&a.UpdatedAt)
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM appointments WHERE id = $1 AND clinic_id = $2`, id, clinicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) list(ctx context.Context, where, order string, args ...interface{}) ([]*Appointment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, apptSelect+where+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func dayFilter(clinicID uuid.UUID, date string, doctorID *uuid.UUID) (string, []interface{}) {
	where := ` WHERE a.clinic_id = $1 AND a.appointment_date = $2::date`
	args := []interface{}{clinicID, date}
	if doctorID != nil {
		args = append(args, *doctorID)
		where += fmt.Sprintf(` AND a.doctor_id = $%d`, len(args))
	}
	return where, args
}

func (r *repoPG) ListByDate(ctx context.Context, clinicID uuid.UUID, date string, doctorID *uuid.UUID) ([]*Appointment, error) {
	where, args := dayFilter(clinicID, date, doctorID)
	return r.list(ctx, where, ` ORDER BY a.start_time, a.token_number`, args...)
}

func (r *repoPG) ListActive(ctx context.Context, clinicID uuid.UUID, date string, doctorID *uuid.UUID) ([]*Appointment, error) {
	where, args := dayFilter(clinicID, date, doctorID)
	where += ` AND a.status IN ('SCHEDULED', 'CHECKED_IN', 'IN_CONSULTATION')`
	return r.list(ctx, where, ` ORDER BY a.token_number, d.name`, args...)
}

func (r *repoPG) LockQueue(ctx context.Context, clinicID, doctorID uuid.UUID, date string) error {
	return db.AdvisoryXactLock(ctx, db.Conn(ctx, r.pool), queueLockKey(clinicID, doctorID, date))
}

func (r *repoPG) NextToken(ctx context.Context, clinicID, doctorID uuid.UUID, date string) (int, error) {
	var next int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(MAX(token_number), 0) + 1
		FROM appointments
		WHERE clinic_id = $1 AND doctor_id = $2 AND appointment_date = $3::date`,
		clinicID, doctorID, date,
	).Scan(&next)
	return next, err
}

func (r *repoPG) TokenSlip(ctx context.Context, clinicID, id uuid.UUID) (*TokenSlip, error) {
	var t TokenSlip
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT a.id, c.name, a.token_number, d.name, d.room_number, p.name,
			to_char(a.appointment_date, 'YYYY-MM-DD'), a.start_time, s.name
		FROM appointments a
		JOIN clinics c ON c.id = a.clinic_id
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		LEFT JOIN clinic_services s ON s.id = a.primary_service_id
		WHERE a.id = $1 AND a.clinic_id = $2`, id, clinicID,
	).Scan(&t.AppointmentID, &t.ClinicName, &t.TokenNumber, &t.DoctorName, &t.RoomNumber,
		&t.PatientName, &t.Date, &t.StartTime, &t.ServiceName)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return &t, err
}
