package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/validate"
)

var ErrNotFound = apperr.NotFound("patient not found")

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

func (s *Service) CreatePatient(ctx context.Context, clinicID uuid.UUID, req CreateRequest) (*Patient, error) {
	req.Email = blankToNil(req.Email)
	req.DateOfBirth = blankToNil(req.DateOfBirth)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	p := &Patient{
		ClinicID:    clinicID,
		Name:        strings.TrimSpace(req.Name),
		Phone:       strings.TrimSpace(req.Phone),
		Email:       lower(req.Email),
		Gender:      blankToNil(req.Gender),
		DateOfBirth: req.DateOfBirth,
		Address:     blankToNil(req.Address),
		Notes:       blankToNil(req.Notes),
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, clinicID, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, clinicID, id)
}

// UpdatePatient applies the fields present in req. An empty string clears
// an optional field.
func (s *Service) UpdatePatient(ctx context.Context, clinicID, id uuid.UUID, req UpdateRequest) (*Patient, error) {
	clearEmail := req.Email != nil && strings.TrimSpace(*req.Email) == ""
	if clearEmail {
		req.Email = nil
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	p, err := s.patients.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil || clearEmail {
		p.Email = lower(req.Email)
	}
	if req.Gender != nil {
		p.Gender = blankToNil(req.Gender)
	}
	if req.DateOfBirth != nil {
		p.DateOfBirth = blankToNil(req.DateOfBirth)
	}
	if req.Address != nil {
		p.Address = blankToNil(req.Address)
	}
	if req.Notes != nil {
		p.Notes = blankToNil(req.Notes)
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, clinicID uuid.UUID, query string) ([]*Patient, error) {
	items, err := s.patients.List(ctx, clinicID, strings.TrimSpace(query), MaxListSize)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	if items == nil {
		items = []*Patient{}
	}
	return items, nil
}

func (s *Service) InClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	_, err := s.patients.GetByID(ctx, clinicID, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func lower(s *string) *string {
	if s = blankToNil(s); s == nil {
		return nil
	}
	v := strings.ToLower(*s)
	return &v
}
