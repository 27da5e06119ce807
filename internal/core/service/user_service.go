package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/volunteerhub/registration-api/internal/core/domain"
	"github.com/volunteerhub/registration-api/internal/core/ports"
)

// UserService serves read-only queries over registered users.
type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// ListUsers returns every user, newest first, with per-role counts over the
// returned set.
func (s *UserService) ListUsers(ctx context.Context) (*ports.UserListing, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	public := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	return &ports.UserListing{
		Users:      public,
		Statistics: domain.CountByRole(public),
	}, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.PublicUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidUserID) {
			return nil, err
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	p := user.Public()
	return &p, nil
}
