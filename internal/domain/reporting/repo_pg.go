package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) ListClinics(ctx context.Context) ([]ClinicInfo, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT c.id, c.name, c.timezone, u.email
		FROM clinics c
		JOIN users u ON u.id = c.owner_id
		ORDER BY c.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ClinicInfo
	for rows.Next() {
		var c ClinicInfo
		if err := rows.Scan(&c.ID, &c.Name, &c.Timezone, &c.OwnerEmail); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repoPG) AppointmentCounts(ctx context.Context, clinicID uuid.UUID, date string) (Counts, error) {
	var c Counts
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COUNT(*) FILTER (WHERE status = 'NO_SHOW')
		FROM appointments
		WHERE clinic_id = $1 AND appointment_date = $2::date`,
		clinicID, date,
	).Scan(&c.Total, &c.Completed, &c.NoShows)
	return c, err
}

func (r *repoPG) PaidRevenue(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (float64, error) {
	var total float64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)::float8
		FROM invoices
		WHERE clinic_id = $1 AND status = 'PAID' AND created_at >= $2 AND created_at < $3`,
		clinicID, from, to,
	).Scan(&total)
	return total, err
}

func (r *repoPG) ScheduledOn(ctx context.Context, clinicID uuid.UUID, date string) ([]*Reminder, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT a.id, a.clinic_id, a.appointment_date::text, a.start_time, a.token_number,
			d.name, p.name, p.phone, p.email
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.clinic_id = $1 AND a.appointment_date = $2::date AND a.status = 'SCHEDULED'
		ORDER BY a.start_time, a.token_number`,
		clinicID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Reminder
	for rows.Next() {
		var rm Reminder
		if err := rows.Scan(&rm.AppointmentID, &rm.ClinicID, &rm.Date, &rm.StartTime, &rm.TokenNumber,
			&rm.DoctorName, &rm.PatientName, &rm.PatientPhone, &rm.PatientEmail); err != nil {
			return nil, err
		}
		out = append(out, &rm)
	}
	return out, rows.Err()
}
