package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths bypass bearer authentication.
var publicPaths = map[string]bool{
	"/health":                    true,
	"/health/db":                 true,
	"/api/v1/auth/register":      true,
	"/api/v1/auth/login":         true,
	"/api/v1/plans":              true,
	"/api/v1/billing/webhook":    true,
	"/api/v1/cron/reminders":     true,
	"/api/v1/cron/daily-summary": true,
}

// AuthSkipper returns true for requests whose route should skip
// authentication. Cron routes carry their own shared-secret check.
func AuthSkipper(c echo.Context) bool {
	if publicPaths[c.Path()] {
		return true
	}
	return IsPublicPath(c.Request().URL.Path)
}

// IsPublicPath reports whether the given request path is public.
func IsPublicPath(path string) bool {
	return publicPaths[strings.TrimRight(path, "/")]
}
