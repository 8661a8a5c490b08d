package doctor

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &doctorRepoPG{pool: pool} }

const doctorCols = `id, clinic_id, user_id, name, speciality, room_number, is_active, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.ClinicID, &d.UserID, &d.Name, &d.Speciality, &d.RoomNumber,
		&d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO doctors (id, clinic_id, user_id, name, speciality, room_number, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		d.ID, d.ClinicID, d.UserID, d.Name, d.Speciality, d.RoomNumber, d.IsActive,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE clinic_id = $1 AND id = $2`, clinicID, id))
}

func (r *doctorRepoPG) GetByUser(ctx context.Context, clinicID, userID uuid.UUID) (*Doctor, error) {
	return scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE clinic_id = $1 AND user_id = $2
		ORDER BY created_at LIMIT 1`, clinicID, userID))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE doctors SET name=$3, speciality=$4, room_number=$5, is_active=$6, user_id=$7, updated_at=NOW()
		WHERE clinic_id = $1 AND id = $2
		RETURNING updated_at`,
		d.ClinicID, d.ID, d.Name, d.Speciality, d.RoomNumber, d.IsActive, d.UserID,
	).Scan(&d.UpdatedAt)
}

func (r *doctorRepoPG) List(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*Doctor, error) {
	q := `SELECT ` + doctorCols + ` FROM doctors WHERE clinic_id = $1`
	if activeOnly {
		q += ` AND is_active`
	}
	q += ` ORDER BY name`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, q, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *doctorRepoPG) DeleteByUser(ctx context.Context, clinicID, userID uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM doctors WHERE clinic_id = $1 AND user_id = $2`, clinicID, userID)
	return err
}
