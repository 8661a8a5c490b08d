package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockUserRepo, *echo.Echo) {
	svc, repo, _ := newTestService()
	return NewHandler(svc), repo, echo.New()
}

func postJSON(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_RegisterAndLogin(t *testing.T) {
	h, _, e := newTestHandler()

	c, rec := postJSON(e, `{"name":"Ayesha","email":"a@example.com","password":"supersecret","clinic_name":"City Clinic"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	c, rec = postJSON(e, `{"identifier":"a@example.com","password":"supersecret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	var res LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Token == "" {
		t.Error("expected a token")
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("password hash leaked in login response")
	}
}

func TestHandler_Login_BadCredentials(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := postJSON(e, `{"email":"nobody@example.com","password":"whatever"}`)
	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandler_Me(t *testing.T) {
	h, repo, e := newTestHandler()
	u := &User{Name: "Ayesha"}
	_ = repo.Create(context.Background(), u)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUser(req.Context(), u.ID, ""))
	rec := httptest.NewRecorder()
	if err := h.Me(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if !strings.Contains(rec.Body.String(), u.ID.String()) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_Me_Unauthenticated(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	err := h.MyClinics(e.NewContext(req, httptest.NewRecorder()))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}

	req = req.WithContext(auth.WithUser(req.Context(), uuid.New(), ""))
	err = h.Me(e.NewContext(req, httptest.NewRecorder()))
	he, ok = err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %v", err)
	}
}
