package scheduling

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

type Handler struct {
	svc     *Service
	checker auth.MembershipChecker
}

func NewHandler(svc *Service, checker auth.MembershipChecker) *Handler {
	return &Handler{svc: svc, checker: checker}
}

// RegisterRoutes mounts appointment and queue routes on a /clinics/:clinicId
// group. Every member may run the front desk.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	member := g.Group("", auth.RequireClinicRole(h.checker, ""))
	member.GET("/appointments", h.ListAppointments)
	member.POST("/appointments", h.CreateAppointment)
	member.GET("/appointments/:appointmentId", h.GetAppointment)
	member.PATCH("/appointments/:appointmentId", h.UpdateAppointment)
	member.DELETE("/appointments/:appointmentId", h.DeleteAppointment)
	member.GET("/appointments/:appointmentId/token", h.GetTokenSlip)
	member.GET("/queue", h.GetQueue)
}

func clinicParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	return id, nil
}

func ids(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	clinicID, err := clinicParam(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	return clinicID, id, nil
}

// doctorFilter reads the optional doctorId query parameter.
func doctorFilter(c echo.Context) (*uuid.UUID, error) {
	raw := c.QueryParam("doctorId")
	if raw == "" {
		raw = c.QueryParam("doctor_id")
	}
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	return &id, nil
}

func (h *Handler) ListAppointments(c echo.Context) error {
	clinicID, err := clinicParam(c)
	if err != nil {
		return err
	}
	doctorID, err := doctorFilter(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListAppointments(c.Request().Context(), clinicID, c.QueryParam("date"), doctorID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	clinicID, err := clinicParam(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), clinicID, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	clinicID, id, err := ids(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), clinicID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	clinicID, id, err := ids(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), clinicID, id, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	clinicID, id, err := ids(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), clinicID, id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) GetTokenSlip(c echo.Context) error {
	clinicID, id, err := ids(c)
	if err != nil {
		return err
	}
	slip, err := h.svc.GetTokenSlip(c.Request().Context(), clinicID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, slip)
}

func (h *Handler) GetQueue(c echo.Context) error {
	clinicID, err := clinicParam(c)
	if err != nil {
		return err
	}
	doctorID, err := doctorFilter(c)
	if err != nil {
		return err
	}
	board, err := h.svc.Queue(c.Request().Context(), clinicID, doctorID)
	if err != nil {
		return apperr.HTTP(err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, board)
}
