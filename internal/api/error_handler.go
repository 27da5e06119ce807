package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/volunteerhub/registration-api/internal/api/handler"
	"github.com/volunteerhub/registration-api/internal/core/domain"
)

const (
	msgRouteNotFound = "Route not found"
	msgInternal      = "Something went wrong!"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors and hides their detail unless development is set.
//   - Renders the standard envelope with success=false.
func NewHTTPErrorHandler(log zerolog.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, detail := resolveError(err, log, c, development)
		if werr := handler.Fail(c, code, msg, detail); werr != nil {
			log.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, development bool) (int, string, string) {
	// Unmatched path or method.
	if errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
		return http.StatusNotFound, msgRouteNotFound, ""
	}

	// Echo's own errors (middleware rejections, bind failures).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnexpected(log, c, err)
		}
		return he.Code, fmt.Sprintf("%v", he.Message), ""
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error(), ""
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		return http.StatusBadRequest, "Please provide email and password", ""
	case errors.Is(err, domain.ErrInvalidUserID):
		return http.StatusBadRequest, "Invalid user id", ""
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request", err.Error()
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, "User with this email already exists", ""
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid admin credentials", ""
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "Not authorized, token expired", ""
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, "Not authorized, token failed", ""
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found", ""
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Too many failed login attempts, try again later", ""
	}

	logUnexpected(log, c, err)

	detail := "Internal server error"
	if development {
		detail = err.Error()
	}
	return http.StatusInternalServerError, msgInternal, detail
}

func logUnexpected(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
}
