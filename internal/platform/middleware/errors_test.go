package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

func runErrorHandler(t *testing.T, err error) (*httptest.ResponseRecorder, apperr.Body) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ErrorHandler(zerolog.New(io.Discard))(err, e.NewContext(req, rec))

	var body apperr.Body
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("decode body: %v (%s)", jerr, rec.Body.String())
	}
	return rec, body
}

func TestErrorHandler_ServiceError(t *testing.T) {
	rec, body := runErrorHandler(t, apperr.Invalid("validation error", "name: is required"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if body.Error != "validation error" || len(body.Details) != 1 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestErrorHandler_EchoStringMessage(t *testing.T) {
	rec, body := runErrorHandler(t, echo.NewHTTPError(http.StatusForbidden, "forbidden"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if body.Error != "forbidden" {
		t.Errorf("expected forbidden, got %q", body.Error)
	}
}

func TestErrorHandler_EchoDefaultMessage(t *testing.T) {
	rec, body := runErrorHandler(t, echo.ErrNotFound)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if body.Error != "Not Found" {
		t.Errorf("expected Not Found, got %q", body.Error)
	}
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	rec, body := runErrorHandler(t, errors.New("connection refused"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body.Error != "internal server error" {
		t.Errorf("expected generic message, got %q", body.Error)
	}
}
