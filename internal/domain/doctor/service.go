package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/validate"
)

var ErrNotFound = apperr.NotFound("doctor not found")

type Service struct {
	doctors Repository
}

func NewService(doctors Repository) *Service {
	return &Service{doctors: doctors}
}

func (s *Service) CreateDoctor(ctx context.Context, clinicID uuid.UUID, req CreateRequest) (*Doctor, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	d := &Doctor{
		ClinicID:   clinicID,
		Name:       req.Name,
		Speciality: blankToNil(req.Speciality),
		RoomNumber: blankToNil(req.RoomNumber),
		IsActive:   true,
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, clinicID, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, clinicID, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, clinicID, id uuid.UUID, req UpdateRequest) (*Doctor, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	d, err := s.doctors.GetByID(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Speciality != nil {
		d.Speciality = blankToNil(req.Speciality)
	}
	if req.RoomNumber != nil {
		d.RoomNumber = blankToNil(req.RoomNumber)
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*Doctor, error) {
	items, err := s.doctors.List(ctx, clinicID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	if items == nil {
		items = []*Doctor{}
	}
	return items, nil
}

// InClinic reports whether the doctor exists in the clinic.
func (s *Service) InClinic(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	_, err := s.doctors.GetByID(ctx, clinicID, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// LinkUser creates or refreshes the doctor record of a staff account and
// marks it active. Nil speciality or room keep their current values.
func (s *Service) LinkUser(ctx context.Context, clinicID, userID uuid.UUID, name string, speciality, room *string) (*Doctor, error) {
	d, err := s.doctors.GetByUser(ctx, clinicID, userID)
	if errors.Is(err, ErrNotFound) {
		d = &Doctor{
			ClinicID:   clinicID,
			UserID:     &userID,
			Name:       name,
			Speciality: blankToNil(speciality),
			RoomNumber: blankToNil(room),
			IsActive:   true,
		}
		if err := s.doctors.Create(ctx, d); err != nil {
			return nil, fmt.Errorf("create doctor for user: %w", err)
		}
		return d, nil
	}
	if err != nil {
		return nil, err
	}

	d.Name = name
	if speciality != nil {
		d.Speciality = blankToNil(speciality)
	}
	if room != nil {
		d.RoomNumber = blankToNil(room)
	}
	d.IsActive = true
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update doctor for user: %w", err)
	}
	return d, nil
}

// ForUser returns the doctor record linked to a user, or nil.
func (s *Service) ForUser(ctx context.Context, clinicID, userID uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByUser(ctx, clinicID, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return d, err
}

func (s *Service) UnlinkUser(ctx context.Context, clinicID, userID uuid.UUID) error {
	return s.doctors.DeleteByUser(ctx, clinicID, userID)
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
