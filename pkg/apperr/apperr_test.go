package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHTTP_StatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Invalid("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Forbidden("no"), http.StatusForbidden},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Unavailable("off"), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFound("missing")), http.StatusNotFound},
	}
	for _, tt := range tests {
		he, ok := HTTP(tt.err).(*echo.HTTPError)
		if !ok {
			t.Fatalf("expected *echo.HTTPError for %v", tt.err)
		}
		if he.Code != tt.want {
			t.Errorf("HTTP(%v).Code = %d, want %d", tt.err, he.Code, tt.want)
		}
	}
}

func TestHTTP_HidesInternalMessage(t *testing.T) {
	he := HTTP(errors.New("pq: password authentication failed")).(*echo.HTTPError)
	body, ok := he.Message.(Body)
	if !ok {
		t.Fatalf("expected Body message, got %T", he.Message)
	}
	if body.Error != "internal server error" {
		t.Errorf("expected generic message, got %q", body.Error)
	}
	if he.Internal == nil {
		t.Error("expected cause to be kept as internal error")
	}
}

func TestHTTP_Details(t *testing.T) {
	he := HTTP(Invalid("validation error", "name: is required")).(*echo.HTTPError)
	body := he.Message.(Body)
	if len(body.Details) != 1 || body.Details[0] != "name: is required" {
		t.Errorf("unexpected details %v", body.Details)
	}
}

func TestHTTP_PassesThroughEchoErrors(t *testing.T) {
	orig := echo.NewHTTPError(http.StatusTeapot, "tea")
	if HTTP(orig) != orig {
		t.Error("expected echo errors to pass through unchanged")
	}
	if HTTP(nil) != nil {
		t.Error("expected nil for nil")
	}
}

func TestIs(t *testing.T) {
	if !Is(fmt.Errorf("x: %w", Conflict("dup")), KindConflict) {
		t.Error("expected conflict kind")
	}
	if Is(nil, KindInternal) {
		t.Error("nil error has no kind")
	}
}
