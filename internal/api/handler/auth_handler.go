package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/registration-api/internal/api/metrics"
	"github.com/volunteerhub/registration-api/internal/core/domain"
	"github.com/volunteerhub/registration-api/internal/core/ports"
)

var errMalformedBody = fmt.Errorf("%w: request body must be valid JSON", domain.ErrInvalidInput)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"required,oneof=volunteer intern"`
	Phone    string `json:"phone"    validate:"required,phone10"`
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	User  domain.PublicUser `json:"user"`
	Token string            `json:"token"`
}

type adminProfile struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type adminLoginResponse struct {
	Admin adminProfile `json:"admin"`
	Token string       `json:"token"`
}

// Register creates a volunteer or intern account and returns a token for it.
//
// @Summary      Register a volunteer or intern
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  Envelope{data=registerResponse}
// @Failure      400   {object}  Envelope
// @Failure      500   {object}  Envelope
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return errMalformedBody
	}
	if err := validateRegistration(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Phone:    req.Phone,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registerResult(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	metrics.UsersRegisteredTotal.WithLabelValues(string(res.User.Role)).Inc()

	return respond(c, http.StatusCreated, "User registered successfully", registerResponse{
		User:  res.User,
		Token: res.Token,
	})
}

// AdminLogin exchanges the configured admin credentials for an admin token.
//
// @Summary      Admin login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      adminLoginRequest  true  "Admin credentials"
// @Success      200   {object}  Envelope{data=adminLoginResponse}
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      429   {object}  Envelope
// @Router       /api/admin/login [post]
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		metrics.AdminLoginsTotal.WithLabelValues("invalid").Inc()
		return errMalformedBody
	}

	res, err := h.authService.AdminLogin(c.Request().Context(), ports.AdminLoginInput{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: c.RealIP(),
	})
	if err != nil {
		metrics.AdminLoginsTotal.WithLabelValues(adminLoginResult(err)).Inc()
		return err
	}

	metrics.AdminLoginsTotal.WithLabelValues("success").Inc()

	return respond(c, http.StatusOK, "Admin login successful", adminLoginResponse{
		Admin: adminProfile{Email: res.Email, Role: res.Role},
		Token: res.Token,
	})
}

// validateRegistration reports every invalid field at once: the domain rules
// run on the normalized input and the struct tags fill in anything they miss.
func validateRegistration(c echo.Context, req *registerRequest) error {
	all := &domain.ValidationError{}

	err := domain.ValidateNewUser(domain.NewUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		Phone:    req.Phone,
	}.Normalize())
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		all.Merge(ve)
	} else if err != nil {
		return err
	}

	err = c.Validate(req)
	ve = nil
	if errors.As(err, &ve) {
		all.Merge(ve)
	} else if err != nil {
		return err
	}

	if all.Empty() {
		return nil
	}
	return all
}

func registerResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

func adminLoginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
