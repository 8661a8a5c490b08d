package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type stubChecker struct {
	roles map[uuid.UUID]Role
	err   error
}

func (s *stubChecker) ClinicRole(_ context.Context, _ uuid.UUID, clinicID uuid.UUID) (Role, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.roles[clinicID], nil
}

func clinicContext(t *testing.T, userID uuid.UUID, clinicID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if userID != uuid.Nil {
		req = req.WithContext(WithUser(req.Context(), userID, ""))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("clinicId")
	c.SetParamValues(clinicID)
	return c, rec
}

func TestRequireClinicRole(t *testing.T) {
	clinicID := uuid.New()
	tests := []struct {
		name     string
		have     Role
		required Role
		wantCode int
	}{
		{"admin passes admin", RoleAdmin, RoleAdmin, 0},
		{"admin passes reception", RoleAdmin, RoleReception, 0},
		{"doctor passes reception", RoleDoctor, RoleReception, 0},
		{"reception passes any member", RoleReception, "", 0},
		{"reception fails doctor", RoleReception, RoleDoctor, http.StatusForbidden},
		{"doctor fails admin", RoleDoctor, RoleAdmin, http.StatusForbidden},
		{"non member", "", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &stubChecker{roles: map[uuid.UUID]Role{}}
			if tt.have != "" {
				checker.roles[clinicID] = tt.have
			}
			c, rec := clinicContext(t, uuid.New(), clinicID.String())

			var seen Role
			handler := func(c echo.Context) error {
				seen = ClinicRoleFromContext(c)
				return c.String(http.StatusOK, "ok")
			}
			err := RequireClinicRole(checker, tt.required)(handler)(c)

			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if rec.Code != http.StatusOK {
					t.Errorf("expected 200, got %d", rec.Code)
				}
				if seen != tt.have {
					t.Errorf("expected role %s in context, got %s", tt.have, seen)
				}
				return
			}
			expectHTTPStatus(t, err, tt.wantCode)
		})
	}
}

func TestRequireClinicRole_Unauthenticated(t *testing.T) {
	c, _ := clinicContext(t, uuid.Nil, uuid.NewString())
	err := RequireClinicRole(&stubChecker{}, "")(okHandler)(c)
	expectHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestRequireClinicRole_InvalidClinicID(t *testing.T) {
	c, _ := clinicContext(t, uuid.New(), "not-a-uuid")
	err := RequireClinicRole(&stubChecker{}, "")(okHandler)(c)
	expectHTTPStatus(t, err, http.StatusBadRequest)
}

func TestRequireClinicRole_CheckerError(t *testing.T) {
	c, _ := clinicContext(t, uuid.New(), uuid.NewString())
	err := RequireClinicRole(&stubChecker{err: errors.New("db down")}, "")(okHandler)(c)
	expectHTTPStatus(t, err, http.StatusInternalServerError)
}
