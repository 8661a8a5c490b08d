package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

// AuditEntry describes one mutating request against clinic data.
type AuditEntry struct {
	UserID     string
	ClinicID   string
	Resource   string
	Action     string
	Method     string
	Path       string
	IPAddress  string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every POST/PATCH/PUT/DELETE under /api/v1/clinics/{clinicId}.
// Reads are not audited. Recorders receive the entry in addition to the log.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			action := actionForMethod(req.Method)
			clinicID, resource, ok := parseClinicPath(req.URL.Path)
			if action == "" || !ok {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, isHE := err.(*echo.HTTPError); isHE {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			entry := AuditEntry{
				ClinicID:   clinicID,
				Resource:   resource,
				Action:     action,
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				StatusCode: status,
				Timestamp:  time.Now().UTC(),
			}
			entry.RequestID, _ = c.Get("request_id").(string)
			if uid := auth.UserIDFromContext(req.Context()); uid != uuid.Nil {
				entry.UserID = uid.String()
			}

			logger.Info().
				Str("audit", "clinic").
				Str("user_id", entry.UserID).
				Str("clinic_id", entry.ClinicID).
				Str("resource", entry.Resource).
				Str("action", entry.Action).
				Str("path", entry.Path).
				Int("status", entry.StatusCode).
				Str("request_id", entry.RequestID).
				Msg("audit")

			for _, r := range recorders {
				if rerr := r.RecordAccess(entry); rerr != nil {
					logger.Error().Err(rerr).Str("request_id", entry.RequestID).Msg("record audit entry")
				}
			}
			return err
		}
	}
}

func actionForMethod(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return ""
	}
}

// parseClinicPath extracts the clinic id and top-level resource from
// /api/v1/clinics/{clinicId}[/{resource}/...].
func parseClinicPath(path string) (clinicID, resource string, ok bool) {
	rest, found := strings.CutPrefix(path, "/api/v1/clinics/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", false
	}
	if _, err := uuid.Parse(parts[0]); err != nil {
		return "", "", false
	}
	resource = "clinic"
	if len(parts) > 1 {
		resource = parts[1]
	}
	return parts[0], resource, true
}
