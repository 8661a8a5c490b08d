package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

// ErrorHandler renders every error as {"error": ..., "details": [...]}.
// Service errors are mapped through apperr; echo errors with plain string
// messages are wrapped into the same body.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(apperr.HTTP(err), &he) {
			he = echo.NewHTTPError(http.StatusInternalServerError)
		}

		body, ok := he.Message.(apperr.Body)
		if !ok {
			msg := http.StatusText(he.Code)
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
			body = apperr.Body{Error: msg}
		}

		if he.Code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			cause := he.Internal
			if cause == nil {
				cause = err
			}
			logger.Error().Err(cause).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
