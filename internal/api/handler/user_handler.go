package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/volunteerhub/registration-api/internal/core/domain"
	"github.com/volunteerhub/registration-api/internal/core/ports"
)

type UserHandler struct {
	userService ports.UserService
	log         zerolog.Logger
}

func NewUserHandler(userService ports.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

type listUsersResponse struct {
	Users      []domain.PublicUser   `json:"users"`
	Statistics domain.UserStatistics `json:"statistics"`
}

type getUserResponse struct {
	User domain.PublicUser `json:"user"`
}

// List returns every registered user, newest first, with role counts.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=listUsersResponse}
// @Failure      401  {object}  Envelope
// @Failure      403  {object}  Envelope
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	adminID, _, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	listing, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}

	h.log.Debug().Str("admin_id", adminID).Int("count", len(listing.Users)).Msg("users listed")

	return respond(c, http.StatusOK, "Users retrieved successfully", listUsersResponse{
		Users:      listing.Users,
		Statistics: listing.Statistics,
	})
}

// Get returns a single user by id.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  Envelope{data=getUserResponse}
// @Failure      400  {object}  Envelope
// @Failure      401  {object}  Envelope
// @Failure      403  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	adminID, _, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	h.log.Debug().Str("admin_id", adminID).Str("user_id", user.ID).Msg("user retrieved")

	return respond(c, http.StatusOK, "User retrieved successfully", getUserResponse{User: *user})
}
