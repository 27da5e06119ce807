package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/registration-api/internal/api/middleware"
)

// ctxPrincipal reads the identity injected by the Auth middleware. An empty
// subject means the middleware did not run, which is reported as 401.
func ctxPrincipal(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get(middleware.ContextKeyUserID).(string)
	if userID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "Not authorized, no token")
	}
	role, _ = c.Get(middleware.ContextKeyRole).(string)
	return userID, role, nil
}
