package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/validate"
)

var (
	ErrServiceNotFound = apperr.NotFound("service not found")
	ErrInvoiceNotFound = apperr.NotFound("invoice not found")
)

type PatientDirectory interface {
	InClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
}

type AppointmentDirectory interface {
	AppointmentInClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error)
}

type Service struct {
	services     ServiceRepository
	invoices     InvoiceRepository
	patients     PatientDirectory
	appointments AppointmentDirectory
	tx           db.Transactor
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(services ServiceRepository, invoices InvoiceRepository, patients PatientDirectory,
	appointments AppointmentDirectory, tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{
		services:     services,
		invoices:     invoices,
		patients:     patients,
		appointments: appointments,
		tx:           tx,
		logger:       logger,
		now:          time.Now,
	}
}

// -- Service catalog --

func (s *Service) CreateService(ctx context.Context, clinicID uuid.UUID, req CreateServiceRequest) (*ClinicService, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	cs := &ClinicService{
		ClinicID: clinicID,
		Name:     req.Name,
		Price:    roundMoney(req.Price),
		IsActive: true,
	}
	if req.IsActive != nil {
		cs.IsActive = *req.IsActive
	}
	if err := s.services.Create(ctx, cs); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return cs, nil
}

func (s *Service) ListServices(ctx context.Context, clinicID uuid.UUID) ([]*ClinicService, error) {
	items, err := s.services.List(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	if items == nil {
		items = []*ClinicService{}
	}
	return items, nil
}

// ServiceInClinic reports whether the catalog item exists in the clinic.
func (s *Service) ServiceInClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	_, err := s.services.GetByID(ctx, clinicID, id)
	if errors.Is(err, ErrServiceNotFound) {
		return false, nil
	}
	return err == nil, err
}

// -- Invoices --

// InvoiceNumber formats the clinic's n-th invoice number.
func InvoiceNumber(clinicID uuid.UUID, sequence int) string {
	prefix := strings.ToUpper(clinicID.String()[:4])
	return fmt.Sprintf("INV-%s-%06d", prefix, sequence)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// Total sums quantity times unit price over the items.
func Total(items []InvoiceItem) float64 {
	var total float64
	for _, it := range items {
		total += float64(it.Quantity) * it.UnitPrice
	}
	return roundMoney(total)
}

func (s *Service) CreateInvoice(ctx context.Context, clinicID uuid.UUID, req CreateInvoiceRequest) (*Invoice, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Invalid("validation error", "items: at least one item is required")
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	patientID := uuid.MustParse(req.PatientID)
	if ok, err := s.patients.InClinic(ctx, clinicID, patientID); err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	} else if !ok {
		return nil, apperr.Invalid("patient does not belong to this clinic")
	}

	inv := &Invoice{
		ClinicID:    clinicID,
		PatientID:   patientID,
		Items:       req.Items,
		TotalAmount: Total(req.Items),
		Status:      InvoiceUnpaid,
	}
	if req.AppointmentID != "" {
		apptID := uuid.MustParse(req.AppointmentID)
		if ok, err := s.appointments.AppointmentInClinic(ctx, clinicID, apptID); err != nil {
			return nil, fmt.Errorf("check appointment: %w", err)
		} else if !ok {
			return nil, apperr.Invalid("appointment does not belong to this clinic")
		}
		inv.AppointmentID = &apptID
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.invoices.LockNumbering(ctx, clinicID); err != nil {
			return err
		}
		n, err := s.invoices.Count(ctx, clinicID)
		if err != nil {
			return fmt.Errorf("count invoices: %w", err)
		}
		inv.InvoiceNumber = InvoiceNumber(clinicID, n+1)
		return s.invoices.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("clinic_id", clinicID.String()).Str("invoice_number", inv.InvoiceNumber).Msg("invoice created")
	return s.invoices.GetByID(ctx, clinicID, inv.ID)
}

func (s *Service) GetInvoice(ctx context.Context, clinicID, id uuid.UUID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, clinicID, id)
}

// UpdateInvoiceStatus sets the status. Marking an invoice PAID stamps
// paid_at; any other status clears it.
func (s *Service) UpdateInvoiceStatus(ctx context.Context, clinicID, id uuid.UUID, req UpdateInvoiceRequest) (*Invoice, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	inv, err := s.invoices.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	status := InvoiceStatus(req.Status)
	if status == InvoicePaid {
		if inv.Status != InvoicePaid || inv.PaidAt == nil {
			now := s.now().UTC()
			inv.PaidAt = &now
		}
	} else {
		inv.PaidAt = nil
	}
	inv.Status = status
	if err := s.invoices.UpdateStatus(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return inv, nil
}

func (s *Service) ListInvoices(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	items, total, err := s.invoices.List(ctx, clinicID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	if items == nil {
		items = []*Invoice{}
	}
	return items, total, nil
}
