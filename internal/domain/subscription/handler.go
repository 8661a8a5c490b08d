package subscription

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

const maxWebhookBody = 1 << 20

type Handler struct {
	svc     *Service
	checker auth.MembershipChecker
}

func NewHandler(svc *Service, checker auth.MembershipChecker) *Handler {
	return &Handler{svc: svc, checker: checker}
}

// RegisterRoutes mounts the public plan list, checkout and the provider
// webhook on api, and the subscription view on the /clinics/:clinicId group.
func (h *Handler) RegisterRoutes(api, clinics *echo.Group) {
	api.GET("/plans", h.ListPlans)
	api.POST("/billing/checkout", h.Checkout)
	api.POST("/billing/webhook", h.Webhook)

	member := clinics.Group("", auth.RequireClinicRole(h.checker, ""))
	member.GET("/subscription", h.GetSubscription)
}

func (h *Handler) ListPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"plans": h.svc.Plans()})
}

func (h *Handler) GetSubscription(c echo.Context) error {
	clinicID, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	view, err := h.svc.GetSubscription(c.Request().Context(), clinicID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil || req.PriceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "clinic_id and price_id are required")
	}
	if _, err := auth.CheckClinicAccess(ctx, h.checker, userID, clinicID, auth.RoleAdmin); err != nil {
		return err
	}
	res, err := h.svc.Checkout(ctx, req, auth.EmailFromContext(ctx))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

// Webhook needs the raw body for signature verification, so it bypasses
// echo's binder.
func (h *Handler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	err = h.svc.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	case apperr.Is(err, apperr.KindInvalid), apperr.Is(err, apperr.KindUnavailable):
		return apperr.HTTP(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Webhook handler failed").SetInternal(err)
	}
}
