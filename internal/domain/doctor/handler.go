package doctor

import (
	"net/http"
	"strconv"

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

// RegisterRoutes mounts doctor routes on a /clinics/:clinicId group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	member := g.Group("", auth.RequireClinicRole(h.checker, ""))
	member.GET("/doctors", h.ListDoctors)
	member.POST("/doctors", h.CreateDoctor)
	member.GET("/doctors/:doctorId", h.GetDoctor)

	admin := g.Group("", auth.RequireClinicRole(h.checker, auth.RoleAdmin))
	admin.PATCH("/doctors/:doctorId", h.UpdateDoctor)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	clinicID, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))
	items, err := h.svc.ListDoctors(c.Request().Context(), clinicID, activeOnly)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	clinicID, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), clinicID, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	clinicID, id, err := ids(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), clinicID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	clinicID, id, err := ids(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), clinicID, id, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func ids(c echo.Context) (clinicID, doctorID uuid.UUID, err error) {
	if clinicID, err = uuid.Parse(c.Param("clinicId")); err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	if doctorID, err = uuid.Parse(c.Param("doctorId")); err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	return clinicID, doctorID, nil
}
