package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/validate"
)

var (
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrUserExists         = apperr.Invalid("user already exists")
	ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")
)

// ClinicProvisioner sets up a new clinic owned by ownerID: the clinic row,
// an ADMIN membership and a trial subscription.
type ClinicProvisioner interface {
	ProvisionClinic(ctx context.Context, ownerID uuid.UUID, name, timezone string) (uuid.UUID, error)
}

type MembershipLister interface {
	ListUserClinics(ctx context.Context, userID uuid.UUID) ([]ClinicMembership, error)
}

type Service struct {
	users       UserRepository
	tx          db.Transactor
	clinics     ClinicProvisioner
	memberships MembershipLister
	tokens      *auth.TokenIssuer
	logger      zerolog.Logger
}

func NewService(users UserRepository, tx db.Transactor, clinics ClinicProvisioner, memberships MembershipLister, tokens *auth.TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		users:       users,
		tx:          tx,
		clinics:     clinics,
		memberships: memberships,
		tokens:      tokens,
		logger:      logger,
	}
}

// Register creates the owner account and its clinic in one transaction.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.ClinicName = strings.TrimSpace(req.ClinicName)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Invalid("User with this email already exists")
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var clinicID uuid.UUID
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u := &User{Name: req.Name, Email: &req.Email, PasswordHash: hash}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, ErrUserExists) {
				return apperr.Invalid("User with this email already exists")
			}
			return fmt.Errorf("create user: %w", err)
		}
		clinicID, err = s.clinics.ProvisionClinic(ctx, u.ID, req.ClinicName, req.Timezone)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("clinic_id", clinicID.String()).Msg("clinic registered")
	return &RegisterResult{Message: "Registration successful", ClinicID: clinicID}, nil
}

// Login authenticates by email or CNIC. Unknown users and wrong passwords
// fail the same way.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		return nil, apperr.Invalid("identifier and password are required")
	}

	var u *User
	var err error
	if strings.Contains(identifier, "@") {
		u, err = s.users.GetByEmail(ctx, identifier)
	} else {
		u, err = s.users.GetByCNIC(ctx, auth.NormalizeCNIC(identifier))
	}
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.CheckPasswordHash(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	email := ""
	if u.Email != nil {
		email = *u.Email
	}
	token, exp, err := s.tokens.Issue(u.ID, email, u.Name)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) MyClinics(ctx context.Context, userID uuid.UUID) ([]ClinicMembership, error) {
	items, err := s.memberships.ListUserClinics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list clinics: %w", err)
	}
	if items == nil {
		items = []ClinicMembership{}
	}
	return items, nil
}
