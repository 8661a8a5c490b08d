package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &patientRepoPG{pool: pool} }

const patientCols = `id, clinic_id, name, phone, email, gender,
	to_char(date_of_birth, 'YYYY-MM-DD'), address, notes, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.ClinicID, &p.Name, &p.Phone, &p.Email, &p.Gender,
		&p.DateOfBirth, &p.Address, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (id, clinic_id, name, phone, email, gender, date_of_birth, address, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7::date,$8,$9)
		RETURNING created_at, updated_at`,
		p.ID, p.ClinicID, p.Name, p.Phone, p.Email, p.Gender, p.DateOfBirth, p.Address, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error) {
	return scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE clinic_id = $1 AND id = $2`, clinicID, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients SET name=$3, phone=$4, email=$5, gender=$6, date_of_birth=$7::date,
			address=$8, notes=$9, updated_at=NOW()
		WHERE clinic_id = $1 AND id = $2
		RETURNING updated_at`,
		p.ClinicID, p.ID, p.Name, p.Phone, p.Email, p.Gender, p.DateOfBirth, p.Address, p.Notes,
	).Scan(&p.UpdatedAt)
}

func (r *patientRepoPG) List(ctx context.Context, clinicID uuid.UUID, query string, limit int) ([]*Patient, error) {
	q := `SELECT ` + patientCols + ` FROM patients WHERE clinic_id = $1`
	args := []interface{}{clinicID}
	if query != "" {
		q += ` AND (name ILIKE $2 OR phone LIKE $2)`
		args = append(args, "%"+query+"%")
	}
	args = append(args, limit)
	q += fmt.Sprintf(` ORDER BY name LIMIT $%d`, len(args))

	rows, err := db.Conn(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
