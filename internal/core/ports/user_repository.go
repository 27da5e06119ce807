package ports

import (
	"context"

	"github.com/volunteerhub/registration-api/internal/core/domain"
)

// UserRepository defines persistence operations for registered users.
// Implementations must enforce email uniqueness atomically and report a
// violation as domain.ErrUserExists.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrInvalidUserID when id is not a well-formed
	// identifier for the store.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// List returns every user, newest first, without password hashes.
	List(ctx context.Context) ([]*domain.User, error)
}
