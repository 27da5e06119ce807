package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/volunteerhub/registration-api/internal/core/domain"
	"github.com/volunteerhub/registration-api/internal/core/ports"
)

// LoginThrottle abstracts the failed-attempt counter (Redis).
type LoginThrottle interface {
	Allow(ctx context.Context, clientKey string) (bool, error)
	RecordFailure(ctx context.Context, clientKey string) error
	Reset(ctx context.Context, clientKey string) error
}

// AdminCredentials is the static admin principal. The password is compared
// as plaintext.
type AdminCredentials struct {
	Email    string
	Password string
}

// AuthConfig holds the settings AuthService needs at construction.
type AuthConfig struct {
	Admin         AdminCredentials
	UserTokenTTL  time.Duration
	AdminTokenTTL time.Duration
}

// AuthService implements registration and admin login.
type AuthService struct {
	repo     ports.UserRepository
	hasher   domain.PasswordHasher
	tokens   ports.TokenIssuer
	throttle LoginThrottle
	cfg      AuthConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthService wires the service. throttle may be nil, in which case admin
// logins are never throttled.
func NewAuthService(
	repo ports.UserRepository,
	hasher domain.PasswordHasher,
	tokens ports.TokenIssuer,
	throttle LoginThrottle,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.UserTokenTTL <= 0 {
		cfg.UserTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.AdminTokenTTL <= 0 {
		cfg.AdminTokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		throttle: throttle,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Register validates the input, rejects duplicate emails, persists the user
// with a hashed password and issues a user token.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisterResult, error) {
	input := domain.NewUserInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     domain.Role(in.Role),
		Phone:    in.Phone,
	}.Normalize()

	if err := domain.ValidateNewUser(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, input.Email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrUserExists
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: check email: %w", err)
	}

	user, err := domain.NewUser(input, s.hasher, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.log.Info().Str("email", input.Email).Msg("concurrent registration rejected by unique index")
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	token, err := s.tokens.Issue(domain.TokenClaims{Subject: created.ID}, s.cfg.UserTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")

	return &ports.RegisterResult{User: created.Public(), Token: token}, nil
}

// AdminLogin checks the static admin credentials and issues an admin token.
func (s *AuthService) AdminLogin(ctx context.Context, in ports.AdminLoginInput) (*ports.AdminLoginResult, error) {
	email := in.Email
	if email == "" || in.Password == "" {
		return nil, domain.ErrMissingCredentials
	}

	if s.throttle != nil && in.ClientIP != "" {
		allowed, err := s.throttle.Allow(ctx, in.ClientIP)
		if err != nil {
			s.log.Warn().Err(err).Str("client_ip", in.ClientIP).Msg("login throttle unavailable, allowing attempt")
		} else if !allowed {
			s.log.Warn().Str("client_ip", in.ClientIP).Msg("admin login throttled")
			return nil, domain.ErrTooManyAttempts
		}
	}

	if !s.matchesAdmin(email, in.Password) {
		s.recordFailure(ctx, in.ClientIP)
		s.log.Warn().Str("client_ip", in.ClientIP).Msg("invalid admin credentials")
		return nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil && in.ClientIP != "" {
		if err := s.throttle.Reset(ctx, in.ClientIP); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}

	token, err := s.tokens.Issue(domain.TokenClaims{
		Subject: domain.AdminSubject,
		Role:    domain.RoleAdmin,
	}, s.cfg.AdminTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}

	return &ports.AdminLoginResult{
		Email: s.cfg.Admin.Email,
		Role:  domain.RoleAdmin,
		Token: token,
	}, nil
}

// matchesAdmin compares both fields in constant time. An unconfigured admin
// never matches.
func (s *AuthService) matchesAdmin(email, password string) bool {
	if s.cfg.Admin.Email == "" || s.cfg.Admin.Password == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.Admin.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Admin.Password)) == 1
	return emailOK && passOK
}

func (s *AuthService) recordFailure(ctx context.Context, clientIP string) {
	if s.throttle == nil || clientIP == "" {
		return
	}
	if err := s.throttle.RecordFailure(ctx, clientIP); err != nil {
		s.log.Warn().Err(err).Str("client_ip", clientIP).Msg("failed to record login failure")
	}
}
