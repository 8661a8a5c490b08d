package reporting

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestCronRoutes_RequireSecret(t *testing.T) {
	f := newFixture(t)
	e := echo.New()
	h := NewHandler(f.svc, nil, "s3cret")
	h.RegisterRoutes(e.Group("/api/v1"), e.Group("/api/v1/clinics/:clinicId"))

	tests := []struct {
		name   string
		path   string
		secret string
		want   int
	}{
		{"missing", "/api/v1/cron/reminders", "", http.StatusUnauthorized},
		{"wrong", "/api/v1/cron/reminders", "nope", http.StatusUnauthorized},
		{"reminders", "/api/v1/cron/reminders", "s3cret", http.StatusOK},
		{"summary", "/api/v1/cron/daily-summary", "s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.secret != "" {
				req.Header.Set("X-Cron-Secret", tt.secret)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want == http.StatusOK && !strings.Contains(rec.Body.String(), `"success":true`) {
				t.Errorf("unexpected body %s", rec.Body.String())
			}
		})
	}
}

func TestCronRoutes_NoSecretConfigured(t *testing.T) {
	f := newFixture(t)
	e := echo.New()
	NewHandler(f.svc, nil, "").RegisterRoutes(e.Group("/api/v1"), e.Group("/api/v1/clinics/:clinicId"))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cron/reminders", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandler_Dashboard(t *testing.T) {
	f := newFixture(t)
	f.repo.counts[dayKey(f.utc, "2024-06-01")] = Counts{Total: 2, Completed: 1}
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("clinicId")
	c.SetParamValues(f.utc.String())
	if err := NewHandler(f.svc, nil, "").Dashboard(c); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total_appointments":2`) || !strings.Contains(rec.Body.String(), `"date":"2024-06-01"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
