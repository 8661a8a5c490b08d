package subscription

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusTrialing  Status = "TRIALING"
	StatusActive    Status = "ACTIVE"
	StatusPastDue   Status = "PAST_DUE"
	StatusCancelled Status = "CANCELLED"
)

// PlanID identifies a subscription tier.
type PlanID string

const (
	PlanBasic      PlanID = "BASIC"
	PlanPro        PlanID = "PRO"
	PlanEnterprise PlanID = "ENTERPRISE"
)

// Subscription is the single billing record a clinic owns.
type Subscription struct {
	ID                   uuid.UUID  `json:"id"`
	ClinicID             uuid.UUID  `json:"clinic_id"`
	Status               Status     `json:"status"`
	CurrentPlan          PlanID     `json:"current_plan"`
	TrialEndsAt          *time.Time `json:"trial_ends_at,omitempty"`
	StripeCustomerID     *string    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id,omitempty"`
	StripePriceID        *string    `json:"stripe_price_id,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Serviceable reports whether scheduled jobs should still run for the
// clinic. Only an expired trial on a subscription that never became ACTIVE
// switches a clinic off.
func (s *Subscription) Serviceable(now time.Time) bool {
	if s == nil || s.TrialEndsAt == nil {
		return true
	}
	return s.Status == StatusActive || !s.TrialEndsAt.Before(now)
}

// TrialDaysLeft rounds up to whole days; zero once the trial is over.
func (s *Subscription) TrialDaysLeft(now time.Time) int {
	if s.TrialEndsAt == nil || !s.TrialEndsAt.After(now) {
		return 0
	}
	left := s.TrialEndsAt.Sub(now)
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) != 0 {
		days++
	}
	return days
}

type CheckoutRequest struct {
	ClinicID string `json:"clinic_id" validate:"required,uuid"`
	PriceID  string `json:"price_id" validate:"required"`
}

type CheckoutResult struct {
	URL string `json:"url"`
}

// View is the subscription as returned to clinic members.
type View struct {
	*Subscription
	TrialDaysLeft int  `json:"trial_days_left"`
	Serviceable   bool `json:"serviceable"`
}
