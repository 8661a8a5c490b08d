package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/clinicdesk/clinicdesk/internal/domain/clinic"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/validate"
)

var (
	ErrNotFound        = apperr.NotFound("subscription not found")
	ErrBillingDisabled = apperr.Unavailable("billing is not configured")
	ErrNoSignature     = apperr.Invalid("No signature")
	ErrBadSignature    = apperr.Invalid("Invalid signature")
)

const clinicMetadataKey = "clinicId"

// ClinicLookup is satisfied by the clinic repository.
type ClinicLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*clinic.Clinic, error)
}

type Options struct {
	TrialDays     int
	AppBaseURL    string
	WebhookSecret string
}

type Service struct {
	repo     Repository
	clinics  ClinicLookup
	provider Provider
	catalog  *Catalog
	opts     Options
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService wires the subscription service. A nil provider disables
// checkout and webhooks.
func NewService(repo Repository, clinics ClinicLookup, provider Provider, catalog *Catalog, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		clinics:  clinics,
		provider: provider,
		catalog:  catalog,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Plans() []Plan {
	return s.catalog.Plans()
}

// StartTrial opens the BASIC trial a new clinic starts on.
func (s *Service) StartTrial(ctx context.Context, clinicID uuid.UUID) error {
	ends := s.now().UTC().AddDate(0, 0, s.opts.TrialDays)
	sub := &Subscription{
		ClinicID:    clinicID,
		Status:      StatusTrialing,
		CurrentPlan: PlanBasic,
		TrialEndsAt: &ends,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (s *Service) GetSubscription(ctx context.Context, clinicID uuid.UUID) (*View, error) {
	sub, err := s.repo.GetByClinic(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &View{Subscription: sub, TrialDaysLeft: sub.TrialDaysLeft(now), Serviceable: sub.Serviceable(now)}, nil
}

// Serviceable reports whether scheduled jobs run for the clinic. Clinics
// without a subscription row are treated as serviceable.
func (s *Service) Serviceable(ctx context.Context, clinicID uuid.UUID) (bool, error) {
	sub, err := s.repo.GetByClinic(ctx, clinicID)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return sub.Serviceable(s.now()), nil
}

// Checkout creates a hosted checkout session for the clinic and returns its
// URL. The provider customer is created on first use.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest, email string) (*CheckoutResult, error) {
	if s.provider == nil {
		return nil, ErrBillingDisabled
	}
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Invalid("clinic_id and price_id are required")
	}
	clinicID := uuid.MustParse(req.ClinicID)
	c, err := s.clinics.GetByID(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.GetByClinic(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	if sub.StripeCustomerID == nil || *sub.StripeCustomerID == "" {
		params := &stripe.CustomerParams{Name: stripe.String(c.Name)}
		if email != "" {
			params.Email = stripe.String(email)
		}
		params.AddMetadata(clinicMetadataKey, clinicID.String())
		cust, err := s.provider.CreateCustomer(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
		sub.StripeCustomerID = &cust.ID
		if err := s.repo.Update(ctx, sub); err != nil {
			return nil, fmt.Errorf("store customer: %w", err)
		}
	}

	billingURL := fmt.Sprintf("%s/app/clinic/%s/settings/billing", s.opts.AppBaseURL, clinicID)
	params := &stripe.CheckoutSessionParams{
		Customer:           sub.StripeCustomerID,
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(billingURL + "?success=true"),
		CancelURL:  stripe.String(billingURL + "?canceled=true"),
	}
	params.AddMetadata(clinicMetadataKey, clinicID.String())
	session, err := s.provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.logger.Info().Str("clinic_id", clinicID.String()).Str("price_id", req.PriceID).Msg("checkout session created")
	return &CheckoutResult{URL: session.URL}, nil
}

// HandleWebhook verifies and applies a provider event. Signature problems
// are Invalid errors; anything else means the event could not be applied.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.provider == nil || s.opts.WebhookSecret == "" {
		return ErrBillingDisabled
	}
	if signature == "" {
		return ErrNoSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.opts.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.logger.Warn().Err(err).Msg("webhook signature verification failed")
		return ErrBadSignature
	}
	if event.Data == nil {
		return apperr.Invalid("event has no data")
	}

	log := s.logger.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		err = s.checkoutCompleted(ctx, &session)
	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		err = s.subscriptionUpdated(ctx, &sub)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		err = s.subscriptionDeleted(ctx, &sub)
	default:
		log.Debug().Msg("webhook event ignored")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Msg("webhook processed")
	return nil
}

func (s *Service) checkoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	clinicID, err := uuid.Parse(session.Metadata[clinicMetadataKey])
	if err != nil || session.Subscription == nil || session.Subscription.ID == "" {
		return nil
	}
	remote, err := s.provider.GetSubscription(ctx, session.Subscription.ID)
	if err != nil {
		return fmt.Errorf("retrieve subscription: %w", err)
	}
	sub, err := s.repo.GetByClinic(ctx, clinicID)
	if err != nil {
		return err
	}
	s.applyRemote(sub, remote)
	sub.StripeSubscriptionID = stripe.String(remote.ID)
	sub.Status = StatusActive
	sub.TrialEndsAt = nil
	return s.repo.Update(ctx, sub)
}

func (s *Service) subscriptionUpdated(ctx context.Context, remote *stripe.Subscription) error {
	sub, err := s.repo.GetByStripeSubscription(ctx, remote.ID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.applyRemote(sub, remote)
	switch remote.Status {
	case stripe.SubscriptionStatusActive:
		sub.Status = StatusActive
	case stripe.SubscriptionStatusPastDue:
		sub.Status = StatusPastDue
	default:
		sub.Status = StatusCancelled
	}
	return s.repo.Update(ctx, sub)
}

func (s *Service) subscriptionDeleted(ctx context.Context, remote *stripe.Subscription) error {
	sub, err := s.repo.GetByStripeSubscription(ctx, remote.ID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	sub.Status = StatusCancelled
	sub.StripeSubscriptionID = nil
	return s.repo.Update(ctx, sub)
}

// applyRemote copies price, plan and billing period from the provider's
// subscription.
func (s *Service) applyRemote(sub *Subscription, remote *stripe.Subscription) {
	var priceID string
	if remote.Items != nil && len(remote.Items.Data) > 0 && remote.Items.Data[0].Price != nil {
		priceID = remote.Items.Data[0].Price.ID
	}
	if priceID != "" {
		sub.StripePriceID = stripe.String(priceID)
	} else {
		sub.StripePriceID = nil
	}
	sub.CurrentPlan = s.catalog.PlanForPrice(priceID)
	if remote.CurrentPeriodEnd > 0 {
		end := time.Unix(remote.CurrentPeriodEnd, 0).UTC()
		sub.CurrentPeriodEnd = &end
	}
}
