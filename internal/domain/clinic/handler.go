package clinic

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts clinic and team routes on a /clinics/:clinicId group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	member := g.Group("", auth.RequireClinicRole(h.svc, ""))
	member.GET("", h.GetClinic)

	admin := g.Group("", auth.RequireClinicRole(h.svc, auth.RoleAdmin))
	admin.PATCH("", h.UpdateClinic)
	admin.GET("/members", h.ListMembers)
	admin.POST("/members", h.AddMember)
	admin.GET("/members/:memberId", h.GetMember)
	admin.PATCH("/members/:memberId", h.UpdateMember)
	admin.DELETE("/members/:memberId", h.RemoveMember)
}

func (h *Handler) GetClinic(c echo.Context) error {
	clinicID, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	cl, err := h.svc.GetClinic(c.Request().Context(), clinicID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) UpdateClinic(c echo.Context) error {
	clinicID, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cl, err := h.svc.UpdateClinic(c.Request().Context(), clinicID, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) ListMembers(c echo.Context) error {
	clinicID, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	items, err := h.svc.ListMembers(c.Request().Context(), clinicID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddMember(c echo.Context) error {
	clinicID, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	var req CreateMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.AddMember(c.Request().Context(), clinicID, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"member": m})
}

func (h *Handler) GetMember(c echo.Context) error {
	clinicID, memberID, err := memberIDs(c)
	if err != nil {
		return err
	}
	m, err := h.svc.GetMember(c.Request().Context(), clinicID, memberID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateMember(c echo.Context) error {
	clinicID, memberID, err := memberIDs(c)
	if err != nil {
		return err
	}
	var req UpdateMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.UpdateMember(c.Request().Context(), clinicID, memberID, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"member": m})
}

func (h *Handler) RemoveMember(c echo.Context) error {
	clinicID, memberID, err := memberIDs(c)
	if err != nil {
		return err
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.RemoveMember(c.Request().Context(), clinicID, memberID, actor); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Member removed successfully"})
}

func memberIDs(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	clinicID, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid member id")
	}
	return clinicID, memberID, nil
}
