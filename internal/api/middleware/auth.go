package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/registration-api/internal/api/metrics"
	"github.com/volunteerhub/registration-api/internal/core/domain"
	"github.com/volunteerhub/registration-api/internal/core/ports"
)

// Keys under which Auth stores the caller's identity on the echo context.
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

// Auth validates the bearer token and injects its claims into context.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("malformed_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, invalid authorization header")
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					metrics.AuthRejectionsTotal.WithLabelValues("expired_token").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token expired")
				}
				metrics.AuthRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, token failed")
			}

			c.Set(ContextKeyUserID, claims.Subject)
			c.Set(ContextKeyRole, claims.Role)

			return next(c)
		}
	}
}
