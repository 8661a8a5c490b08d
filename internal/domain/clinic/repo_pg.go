package clinic

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type clinicRepoPG struct{ pool *pgxpool.Pool }

func NewClinicRepoPG(pool *pgxpool.Pool) ClinicRepository { return &clinicRepoPG{pool: pool} }

const clinicCols = `id, name, slug, timezone, owner_id, address, phone, created_at, updated_at`

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Timezone, &c.OwnerID, &c.Address, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrClinicNotFound
	}
	return &c, err
}

func (r *clinicRepoPG) Create(ctx context.Context, c *Clinic) error {
	c.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO clinics (id, name, slug, timezone, owner_id, address, phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Slug, c.Timezone, c.OwnerID, c.Address, c.Phone,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrSlugTaken
	}
	return err
}

func (r *clinicRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return scanClinic(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+clinicCols+` FROM clinics WHERE id = $1`, id))
}

func (r *clinicRepoPG) Update(ctx context.Context, c *Clinic) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE clinics SET name=$2, timezone=$3, address=$4, phone=$5, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.Timezone, c.Address, c.Phone,
	).Scan(&c.UpdatedAt)
	if db.IsNoRows(err) {
		return ErrClinicNotFound
	}
	return err
}

func (r *clinicRepoPG) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clinics WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

type membershipRepoPG struct{ pool *pgxpool.Pool }

func NewMembershipRepoPG(pool *pgxpool.Pool) MembershipRepository {
	return &membershipRepoPG{pool: pool}
}

const memberSelect = `
	SELECT m.id, m.clinic_id, m.role, m.created_at, u.id, u.name, u.email, u.cnic
	FROM memberships m
	JOIN users u ON u.id = m.user_id`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.ClinicID, &m.Role, &m.CreatedAt,
		&m.User.ID, &m.User.Name, &m.User.Email, &m.User.CNIC)
	if db.IsNoRows(err) {
		return nil, ErrMemberNotFound
	}
	return &m, err
}

func (r *membershipRepoPG) Upsert(ctx context.Context, m *Membership) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO memberships (id, user_id, clinic_id, role)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id, clinic_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING id, created_at`,
		uuid.New(), m.UserID, m.ClinicID, m.Role,
	).Scan(&m.ID, &m.CreatedAt)
}

func (r *membershipRepoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Member, error) {
	return scanMember(db.Conn(ctx, r.pool).QueryRow(ctx,
		memberSelect+` WHERE m.id = $1 AND m.clinic_id = $2`, id, clinicID))
}

func (r *membershipRepoPG) Role(ctx context.Context, userID, clinicID uuid.UUID) (auth.Role, error) {
	var role auth.Role
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT role FROM memberships WHERE user_id = $1 AND clinic_id = $2`, userID, clinicID).Scan(&role)
	if db.IsNoRows(err) {
		return "", nil
	}
	return role, err
}

func (r *membershipRepoPG) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*Member, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		memberSelect+` WHERE m.clinic_id = $1 ORDER BY m.created_at ASC`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *membershipRepoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]identity.ClinicMembership, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT m.id, c.id, c.name, c.slug, m.role
		FROM memberships m
		JOIN clinics c ON c.id = m.clinic_id
		WHERE m.user_id = $1
		ORDER BY c.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []identity.ClinicMembership
	for rows.Next() {
		var cm identity.ClinicMembership
		if err := rows.Scan(&cm.MembershipID, &cm.ClinicID, &cm.Name, &cm.Slug, &cm.Role); err != nil {
			return nil, err
		}
		items = append(items, cm)
	}
	return items, rows.Err()
}

func (r *membershipRepoPG) UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `UPDATE memberships SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *membershipRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM memberships WHERE id = $1`, id)
	return err
}
