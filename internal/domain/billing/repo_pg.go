package billing

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

// =========== Service Repository ===========

type serviceRepoPG struct{ pool *pgxpool.Pool }

func NewServiceRepoPG(pool *pgxpool.Pool) ServiceRepository { return &serviceRepoPG{pool: pool} }

const serviceCols = `id, clinic_id, name, price::float8, is_active, created_at, updated_at`

func scanService(row pgx.Row) (*ClinicService, error) {
	var s ClinicService
	err := row.Scan(&s.ID, &s.ClinicID, &s.Name, &s.Price, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrServiceNotFound
	}
	return &s, err
}

func (r *serviceRepoPG) Create(ctx context.Context, s *ClinicService) error {
	s.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO clinic_services (id, clinic_id, name, price, is_active)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		s.ID, s.ClinicID, s.Name, s.Price, s.IsActive,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *serviceRepoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*ClinicService, error) {
	return scanService(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+serviceCols+` FROM clinic_services WHERE id = $1 AND clinic_id = $2`, id, clinicID))
}

func (r *serviceRepoPG) List(ctx context.Context, clinicID uuid.UUID) ([]*ClinicService, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+serviceCols+` FROM clinic_services WHERE clinic_id = $1 ORDER BY name`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ClinicService
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// =========== Invoice Repository ===========

type invoiceRepoPG struct{ pool *pgxpool.Pool }

func NewInvoiceRepoPG(pool *pgxpool.Pool) InvoiceRepository { return &invoiceRepoPG{pool: pool} }

const invCols = `i.id, i.clinic_id, i.patient_id, i.appointment_id, i.invoice_number, i.items,
	i.total_amount::float8, i.status, i.paid_at, p.name, i.created_at, i.updated_at`

const invFrom = ` FROM invoices i JOIN patients p ON p.id = i.patient_id`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv   Invoice
		items []byte
	)
	err := row.Scan(&inv.ID, &inv.ClinicID, &inv.PatientID, &inv.AppointmentID, &inv.InvoiceNumber, &items,
		&inv.TotalAmount, &inv.Status, &inv.PaidAt, &inv.PatientName, &inv.CreatedAt, &inv.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("decode invoice items: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepoPG) LockNumbering(ctx context.Context, clinicID uuid.UUID) error {
	return db.AdvisoryXactLock(ctx, db.Conn(ctx, r.pool), "invoice:"+clinicID.String())
}

func (r *invoiceRepoPG) Count(ctx context.Context, clinicID uuid.UUID) (int, error) {
	var n int
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE clinic_id = $1`, clinicID).Scan(&n)
	return n, err
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("encode invoice items: %w", err)
	}
	inv.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO invoices (id, clinic_id, patient_id, appointment_id, invoice_number, items, total_amount, status)
		VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7,$8)
		RETURNING created_at, updated_at`,
		inv.ID, inv.ClinicID, inv.PatientID, inv.AppointmentID, inv.InvoiceNumber, string(items),
		inv.TotalAmount, inv.Status,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*Invoice, error) {
	return scanInvoice(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+invCols+invFrom+` WHERE i.id = $1 AND i.clinic_id = $2`, id, clinicID))
}

func (r *invoiceRepoPG) UpdateStatus(ctx context.Context, inv *Invoice) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE invoices SET status = $3, paid_at = $4, updated_at = NOW()
		WHERE id = $1 AND clinic_id = $2
		RETURNING updated_at`,
		inv.ID, inv.ClinicID, inv.Status, inv.PaidAt,
	).Scan(&inv.UpdatedAt)
	if db.IsNoRows(err) {
		return ErrInvoiceNotFound
	}
	return err
}

func (r *invoiceRepoPG) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE clinic_id = $1`, clinicID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+invCols+invFrom+` WHERE i.clinic_id = $1 ORDER BY i.created_at DESC LIMIT $2 OFFSET $3`,
		clinicID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inv)
	}
	return items, total, rows.Err()
}
