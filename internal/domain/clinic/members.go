package clinic

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/validate"
)

func (s *Service) ListMembers(ctx context.Context, clinicID uuid.UUID) ([]*Member, error) {
	items, err := s.members.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if items == nil {
		items = []*Member{}
	}
	return items, nil
}

// GetMember returns the member with the linked doctor record when the role
// is DOCTOR.
func (s *Service) GetMember(ctx context.Context, clinicID, memberID uuid.UUID) (*Member, error) {
	m, err := s.members.GetByID(ctx, clinicID, memberID)
	if err != nil {
		return nil, err
	}
	if m.Role == auth.RoleDoctor {
		d, err := s.doctors.ForUser(ctx, clinicID, m.User.ID)
		if err != nil {
			return nil, fmt.Errorf("load doctor: %w", err)
		}
		m.Doctor = d
	}
	return m, nil
}

// AddMember creates a staff account and its membership. DOCTOR members also
// get an active doctor record.
func (s *Service) AddMember(ctx context.Context, clinicID uuid.UUID, req CreateMemberRequest) (*Member, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" {
		if err := validate.Var("email", email, "email"); err != nil {
			return nil, err
		}
	}
	cnic := auth.NormalizeCNIC(strings.TrimSpace(req.CNIC))
	if cnic == "" {
		return nil, apperr.Invalid("validation error", "cnic: is required")
	}
	role := auth.Role(req.Role)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var member *Member
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByCNIC(ctx, cnic); err == nil {
			return apperr.Invalid("User with this CNIC already exists.")
		} else if !isNotFound(err) {
			return err
		}
		if email != "" {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return apperr.Invalid("User with this email already exists.")
			} else if !isNotFound(err) {
				return err
			}
		}

		u := &identity.User{Name: req.Name, CNIC: &cnic, PasswordHash: hash}
		if email != "" {
			u.Email = &email
		}
		if err := s.users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		m := &Membership{UserID: u.ID, ClinicID: clinicID, Role: role}
		if err := s.members.Upsert(ctx, m); err != nil {
			return fmt.Errorf("create membership: %w", err)
		}

		if role == auth.RoleDoctor {
			if _, err := s.doctors.LinkUser(ctx, clinicID, u.ID, u.Name, req.Speciality, req.RoomNumber); err != nil {
				return err
			}
		}

		member = &Member{
			ID:        m.ID,
			ClinicID:  clinicID,
			Role:      m.Role,
			CreatedAt: m.CreatedAt,
			User:      MemberUser{ID: u.ID, Name: u.Name, Email: u.Email, CNIC: u.CNIC},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("clinic_id", clinicID.String()).Str("member_id", member.ID.String()).
		Str("role", string(role)).Msg("member added")
	return member, nil
}

func (s *Service) UpdateMember(ctx context.Context, clinicID, memberID uuid.UUID, req UpdateMemberRequest) (*Member, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	existing, err := s.members.GetByID(ctx, clinicID, memberID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, existing.User.ID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if email == "" {
				u.Email = nil
			} else {
				if err := validate.Var("email", email, "email"); err != nil {
					return err
				}
				if other, err := s.users.GetByEmail(ctx, email); err == nil && other.ID != u.ID {
					return apperr.Invalid("Email is already taken by another user.")
				} else if err != nil && !isNotFound(err) {
					return err
				}
				u.Email = &email
			}
		}
		if req.CNIC != nil {
			cnic := auth.NormalizeCNIC(strings.TrimSpace(*req.CNIC))
			if cnic == "" {
				return apperr.Invalid("validation error", "cnic: is required")
			}
			if other, err := s.users.GetByCNIC(ctx, cnic); err == nil && other.ID != u.ID {
				return apperr.Invalid("CNIC is already taken by another user.")
			} else if err != nil && !isNotFound(err) {
				return err
			}
			u.CNIC = &cnic
		}
		if req.Password != nil {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		if err := s.users.Update(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		newRole := existing.Role
		if req.Role != nil {
			newRole = auth.Role(*req.Role)
			if err := s.members.UpdateRole(ctx, memberID, newRole); err != nil {
				return fmt.Errorf("update role: %w", err)
			}
		}

		if newRole == auth.RoleDoctor || existing.Role == auth.RoleDoctor {
			if _, err := s.doctors.LinkUser(ctx, clinicID, u.ID, u.Name, req.Speciality, req.RoomNumber); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.members.GetByID(ctx, clinicID, memberID)
}

// RemoveMember deletes the membership and the clinic's doctor records for
// that user. The user account is kept.
func (s *Service) RemoveMember(ctx context.Context, clinicID, memberID, actorID uuid.UUID) error {
	m, err := s.members.GetByID(ctx, clinicID, memberID)
	if err != nil {
		return err
	}
	if m.User.ID == actorID {
		return apperr.Invalid("You cannot delete your own account")
	}
	c, err := s.clinics.GetByID(ctx, clinicID)
	if err != nil {
		return err
	}
	if c.OwnerID == m.User.ID {
		return apperr.Invalid("Cannot delete the clinic owner")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.doctors.UnlinkUser(ctx, clinicID, m.User.ID); err != nil {
			return fmt.Errorf("remove doctor records: %w", err)
		}
		return s.members.Delete(ctx, memberID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("clinic_id", clinicID.String()).Str("member_id", memberID.String()).Msg("member removed")
	return nil
}
