package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// MembershipChecker resolves the role a user holds in a clinic. It returns
// an empty Role and no error when the user is not a member.
type MembershipChecker interface {
	ClinicRole(ctx context.Context, userID, clinicID uuid.UUID) (Role, error)
}

// RequireClinicRole guards routes under /clinics/:clinicId. The caller must
// be authenticated and hold at least the required role in that clinic. An
// empty required role admits any member.
func RequireClinicRole(checker MembershipChecker, required Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := UserIDFromContext(c.Request().Context())
			if userID == uuid.Nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			clinicID, err := uuid.Parse(c.Param("clinicId"))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic id")
			}

			role, err := CheckClinicAccess(c.Request().Context(), checker, userID, clinicID, required)
			if err != nil {
				return err
			}
			c.Set(string(ClinicRoleKey), role)
			return next(c)
		}
	}
}

// CheckClinicAccess is the non-middleware form of RequireClinicRole for
// endpoints that receive the clinic id in the request body.
func CheckClinicAccess(ctx context.Context, checker MembershipChecker, userID, clinicID uuid.UUID, required Role) (Role, error) {
	role, err := checker.ClinicRole(ctx, userID, clinicID)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "membership lookup failed").SetInternal(err)
	}
	if role == "" {
		return "", echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if !role.Satisfies(required) {
		return role, echo.NewHTTPError(http.StatusForbidden,
			fmt.Sprintf("required role: %s", required))
	}
	return role, nil
}

// ClinicRoleFromContext returns the role resolved by RequireClinicRole.
func ClinicRoleFromContext(c echo.Context) Role {
	if r, ok := c.Get(string(ClinicRoleKey)).(Role); ok {
		return r
	}
	return ""
}
