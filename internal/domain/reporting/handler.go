package reporting

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

const cronSecretHeader = "X-Cron-Secret"

type Handler struct {
	svc        *Service
	checker    auth.MembershipChecker
	cronSecret string
}

func NewHandler(svc *Service, checker auth.MembershipChecker, cronSecret string) *Handler {
	return &Handler{svc: svc, checker: checker, cronSecret: cronSecret}
}

// RegisterRoutes mounts the cron endpoints on api and the dashboard on the
// /clinics/:clinicId group.
func (h *Handler) RegisterRoutes(api, clinics *echo.Group) {
	cron := api.Group("/cron", h.requireCronSecret)
	cron.GET("/reminders", h.Reminders)
	cron.GET("/daily-summary", h.DailySummary)

	member := clinics.Group("", auth.RequireClinicRole(h.checker, ""))
	member.GET("/dashboard", h.Dashboard)
}

// requireCronSecret rejects every request when no secret is configured.
func (h *Handler) requireCronSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		got := c.Request().Header.Get(cronSecretHeader)
		if h.cronSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.cronSecret)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		return next(c)
	}
}

func (h *Handler) Dashboard(c echo.Context) error {
	clinicID, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	d, err := h.svc.Dashboard(c.Request().Context(), clinicID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Reminders(c echo.Context) error {
	run, err := h.svc.SendReminders(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, run)
}

func (h *Handler) DailySummary(c echo.Context) error {
	run, err := h.svc.DailySummaries(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, run)
}
