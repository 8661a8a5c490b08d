package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if u.Email != nil {
		for _, existing := range m.users {
			if existing.Email != nil && strings.EqualFold(*existing.Email, *u.Email) {
				return ErrUserExists
			}
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email != nil && strings.EqualFold(*u.Email, email) {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepo) GetByCNIC(_ context.Context, cnic string) (*User, error) {
	for _, u := range m.users {
		if u.CNIC != nil && *u.CNIC == cnic {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	m.users[u.ID] = u
	return nil
}

type fakeProvisioner struct {
	owners map[uuid.UUID]uuid.UUID
	err    error
}

func (f *fakeProvisioner) ProvisionClinic(_ context.Context, ownerID uuid.UUID, _, _ string) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	id := uuid.New()
	f.owners[id] = ownerID
	return id, nil
}

func (f *fakeProvisioner) ListUserClinics(_ context.Context, userID uuid.UUID) ([]ClinicMembership, error) {
	var out []ClinicMembership
	for clinicID, owner := range f.owners {
		if owner == userID {
			out = append(out, ClinicMembership{ClinicID: clinicID, Name: "Clinic", Role: auth.RoleAdmin})
		}
	}
	return out, nil
}

func newTestService() (*Service, *mockUserRepo, *fakeProvisioner) {
	repo := newMockUserRepo()
	prov := &fakeProvisioner{owners: make(map[uuid.UUID]uuid.UUID)}
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewService(repo, db.NoopTransactor{}, prov, prov, tokens, zerolog.Nop()), repo, prov
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Name:       "Ayesha Malik",
		Email:      "Ayesha@Example.com",
		Password:   "supersecret",
		ClinicName: "City Clinic",
	}
}

func TestRegister(t *testing.T) {
	svc, repo, prov := newTestService()
	res, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Message != "Registration successful" || res.ClinicID == uuid.Nil {
		t.Errorf("unexpected result %+v", res)
	}
	u, err := repo.GetByEmail(context.Background(), "ayesha@example.com")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if *u.Email != "ayesha@example.com" {
		t.Errorf("expected lowercased email, got %q", *u.Email)
	}
	if u.PasswordHash == "supersecret" {
		t.Error("password stored in clear text")
	}
	if prov.owners[res.ClinicID] != u.ID {
		t.Error("clinic not provisioned for the new user")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(context.Background(), validRegistration())
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
	if err.Error() != "User with this email already exists" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	req := validRegistration()
	req.Password = "short"
	if _, err := svc.Register(context.Background(), req); !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("expected invalid error for short password, got %v", err)
	}
	req = validRegistration()
	req.ClinicName = "  "
	if _, err := svc.Register(context.Background(), req); !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("expected invalid error for blank clinic name, got %v", err)
	}
}

func TestRegister_ProvisionFailure(t *testing.T) {
	svc, _, prov := newTestService()
	prov.err = errors.New("db down")
	if _, err := svc.Register(context.Background(), validRegistration()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLogin_Email(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	res, err := svc.Login(context.Background(), LoginRequest{Identifier: "AYESHA@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" || res.User == nil || res.User.Name != "Ayesha Malik" {
		t.Errorf("unexpected result %+v", res)
	}
	if !res.ExpiresAt.After(time.Now()) {
		t.Error("expected expiry in the future")
	}
}

func TestLogin_CNIC(t *testing.T) {
	svc, repo, _ := newTestService()
	hash, _ := auth.HashPassword("reception1")
	cnic := "3520112345671"
	_ = repo.Create(context.Background(), &User{Name: "Bilal", CNIC: &cnic, PasswordHash: hash})

	if _, err := svc.Login(context.Background(), LoginRequest{Identifier: "35201-1234567-1", Password: "reception1"}); err != nil {
		t.Fatalf("Login by CNIC: %v", err)
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	tests := []struct {
		name string
		req  LoginRequest
		kind apperr.Kind
	}{
		{"wrong password", LoginRequest{Identifier: "ayesha@example.com", Password: "nope"}, apperr.KindUnauthorized},
		{"unknown user", LoginRequest{Identifier: "who@example.com", Password: "supersecret"}, apperr.KindUnauthorized},
		{"missing identifier", LoginRequest{Password: "supersecret"}, apperr.KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.req)
			if !apperr.Is(err, tt.kind) {
				t.Errorf("expected kind %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestMyClinics(t *testing.T) {
	svc, repo, _ := newTestService()
	res, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	u, _ := repo.GetByEmail(context.Background(), "ayesha@example.com")
	items, err := svc.MyClinics(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("MyClinics: %v", err)
	}
	if len(items) != 1 || items[0].ClinicID != res.ClinicID {
		t.Errorf("unexpected clinics %+v", items)
	}

	none, _ := svc.MyClinics(context.Background(), uuid.New())
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty slice, got %v", none)
	}
}
