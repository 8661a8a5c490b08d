package clinic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/validate"
)

var (
	ErrClinicNotFound = apperr.NotFound("clinic not found")
	ErrMemberNotFound = apperr.NotFound("Member not found")
	ErrSlugTaken      = apperr.Conflict("clinic slug already taken")
)

// TrialStarter opens the trial subscription of a new clinic.
type TrialStarter interface {
	StartTrial(ctx context.Context, clinicID uuid.UUID) error
}

// DoctorLinker keeps the doctor record of a DOCTOR member in step with
// their account.
type DoctorLinker interface {
	LinkUser(ctx context.Context, clinicID, userID uuid.UUID, name string, speciality, room *string) (*doctor.Doctor, error)
	ForUser(ctx context.Context, clinicID, userID uuid.UUID) (*doctor.Doctor, error)
	UnlinkUser(ctx context.Context, clinicID, userID uuid.UUID) error
}

type Service struct {
	clinics ClinicRepository
	members MembershipRepository
	users   identity.UserRepository
	doctors DoctorLinker
	trials  TrialStarter
	tx      db.Transactor
	logger  zerolog.Logger
}

func NewService(clinics ClinicRepository, members MembershipRepository, users identity.UserRepository,
	doctors DoctorLinker, trials TrialStarter, tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{
		clinics: clinics,
		members: members,
		users:   users,
		doctors: doctors,
		trials:  trials,
		tx:      tx,
		logger:  logger,
	}
}

// ProvisionClinic creates a clinic with ownerID as its ADMIN and starts the
// trial. Callers run it inside their own transaction.
func (s *Service) ProvisionClinic(ctx context.Context, ownerID uuid.UUID, name, timezone string) (uuid.UUID, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return uuid.Nil, apperr.Invalidf("unknown timezone %q", timezone)
	}
	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return uuid.Nil, err
	}

	c := &Clinic{Name: name, Slug: slug, Timezone: timezone, OwnerID: ownerID}
	if err := s.clinics.Create(ctx, c); err != nil {
		return uuid.Nil, fmt.Errorf("create clinic: %w", err)
	}
	m := &Membership{UserID: ownerID, ClinicID: c.ID, Role: auth.RoleAdmin}
	if err := s.members.Upsert(ctx, m); err != nil {
		return uuid.Nil, fmt.Errorf("create owner membership: %w", err)
	}
	if err := s.trials.StartTrial(ctx, c.ID); err != nil {
		return uuid.Nil, fmt.Errorf("start trial: %w", err)
	}
	return c.ID, nil
}

func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "clinic"
	}
	slug := base
	for i := 1; ; i++ {
		exists, err := s.clinics.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.clinics.GetByID(ctx, id)
}

func (s *Service) UpdateClinic(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Clinic, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	c, err := s.clinics.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Timezone != nil {
		c.Timezone = *req.Timezone
	}
	if req.Address != nil {
		c.Address = blankToNil(*req.Address)
	}
	if req.Phone != nil {
		c.Phone = blankToNil(*req.Phone)
	}
	if err := s.clinics.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update clinic: %w", err)
	}
	return c, nil
}

// ClinicRole implements auth.MembershipChecker.
func (s *Service) ClinicRole(ctx context.Context, userID, clinicID uuid.UUID) (auth.Role, error) {
	return s.members.Role(ctx, userID, clinicID)
}

// Location returns the clinic's time zone. Dates such as "today" are
// computed in it.
func (s *Service) Location(ctx context.Context, clinicID uuid.UUID) (*time.Location, error) {
	c, err := s.clinics.GetByID(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		s.logger.Warn().Str("clinic_id", clinicID.String()).Str("timezone", c.Timezone).Msg("invalid clinic timezone, using UTC")
		return time.UTC, nil
	}
	return loc, nil
}

// ListUserClinics implements identity.MembershipLister.
func (s *Service) ListUserClinics(ctx context.Context, userID uuid.UUID) ([]identity.ClinicMembership, error) {
	return s.members.ListByUser(ctx, userID)
}

func blankToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func isNotFound(err error) bool {
	return errors.Is(err, identity.ErrUserNotFound)
}
