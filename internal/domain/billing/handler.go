package billing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

const defaultInvoicePage = 50

type Handler struct {
	svc     *Service
	checker auth.MembershipChecker
}

func NewHandler(svc *Service, checker auth.MembershipChecker) *Handler {
	return &Handler{svc: svc, checker: checker}
}

// RegisterRoutes mounts catalog and invoice routes on a /clinics/:clinicId
// group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	member := g.Group("", auth.RequireClinicRole(h.checker, ""))
	member.GET("/services", h.ListServices)
	member.GET("/invoices", h.ListInvoices)
	member.POST("/invoices", h.CreateInvoice)
	member.GET("/invoices/:invoiceId", h.GetInvoice)
	member.PATCH("/invoices/:invoiceId", h.UpdateInvoice)

	admin := g.Group("", auth.RequireClinicRole(h.checker, auth.RoleAdmin))
	admin.POST("/services", h.CreateService)
}

func clinicParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("clinicId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
	}
	return id, nil
}

func invoiceIDs(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	clinicID, err := clinicParam(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(c.Param("invoiceId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}
	return clinicID, id, nil
}

func (h *Handler) ListServices(c echo.Context) error {
	clinicID, err := clinicParam(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListServices(c.Request().Context(), clinicID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateService(c echo.Context) error {
	clinicID, err := clinicParam(c)
	if err != nil {
		return err
	}
	var req CreateServiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cs, err := h.svc.CreateService(c.Request().Context(), clinicID, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, cs)
}

func (h *Handler) ListInvoices(c echo.Context) error {
	clinicID, err := clinicParam(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContextWithDefault(c, defaultInvoicePage)
	items, total, err := h.svc.ListInvoices(c.Request().Context(), clinicID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateInvoice(c echo.Context) error {
	clinicID, err := clinicParam(c)
	if err != nil {
		return err
	}
	var req CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	inv, err := h.svc.CreateInvoice(c.Request().Context(), clinicID, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) GetInvoice(c echo.Context) error {
	clinicID, id, err := invoiceIDs(c)
	if err != nil {
		return err
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), clinicID, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) UpdateInvoice(c echo.Context) error {
	clinicID, id, err := invoiceIDs(c)
	if err != nil {
		return err
	}
	var req UpdateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	inv, err := h.svc.UpdateInvoiceStatus(c.Request().Context(), clinicID, id, req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, inv)
}
