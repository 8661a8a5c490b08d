package subscription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	GetByClinic(ctx context.Context, clinicID uuid.UUID) (*Subscription, error)
	GetByStripeSubscription(ctx context.Context, stripeSubscriptionID string) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
}
