package ports

import (
	"context"

	"github.com/volunteerhub/registration-api/internal/core/domain"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
}

// RegisterResult is returned on successful registration.
type RegisterResult struct {
	User  domain.PublicUser
	Token string
}

// AdminLoginInput carries the admin credentials and the caller's address,
// which keys the failed-attempt throttle.
type AdminLoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// AdminLoginResult is returned on successful admin login.
type AdminLoginResult struct {
	Email string
	Role  string
	Token string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	AdminLogin(ctx context.Context, in AdminLoginInput) (*AdminLoginResult, error)
}
