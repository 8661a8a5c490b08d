package subscription

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const subCols = `id, clinic_id, status, current_plan, trial_ends_at, stripe_customer_id,
	stripe_subscription_id, stripe_price_id, current_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.ClinicID, &s.Status, &s.CurrentPlan, &s.TrialEndsAt, &s.StripeCustomerID,
		&s.StripeSubscriptionID, &s.StripePriceID, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Subscription) error {
	s.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO subscriptions (id, clinic_id, status, current_plan, trial_ends_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		s.ID, s.ClinicID, s.Status, s.CurrentPlan, s.TrialEndsAt,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *repoPG) GetByClinic(ctx context.Context, clinicID uuid.UUID) (*Subscription, error) {
	return scanSubscription(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+subCols+` FROM subscriptions WHERE clinic_id = $1`, clinicID))
}

func (r *repoPG) GetByStripeSubscription(ctx context.Context, stripeSubscriptionID string) (*Subscription, error) {
	return scanSubscription(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+subCols+` FROM subscriptions WHERE stripe_subscription_id = $1`, stripeSubscriptionID))
}

func (r *repoPG) Update(ctx context.Context, s *Subscription) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE subscriptions SET status=$2, current_plan=$3, trial_ends_at=$4, stripe_customer_id=$5,
			stripe_subscription_id=$6, stripe_price_id=$7, current_period_end=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.Status, s.CurrentPlan, s.TrialEndsAt, s.StripeCustomerID,
		s.StripeSubscriptionID, s.StripePriceID, s.CurrentPeriodEnd,
	).Scan(&s.UpdatedAt)
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}
