package ports

import (
	"context"

	"github.com/volunteerhub/registration-api/internal/core/domain"
)

// UserListing is the result of listing all users.
type UserListing struct {
	Users      []domain.PublicUser
	Statistics domain.UserStatistics
}

type UserService interface {
	ListUsers(ctx context.Context) (*UserListing, error)
	GetUser(ctx context.Context, id string) (*domain.PublicUser, error)
}
