package ports

import (
	"time"

	"github.com/volunteerhub/registration-api/internal/core/domain"
)

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(claims domain.TokenClaims, ttl time.Duration) (string, error)
}

// TokenVerifier validates bearer tokens. It returns domain.ErrTokenExpired or
// domain.ErrTokenInvalid on failure.
type TokenVerifier interface {
	Verify(token string) (*domain.TokenClaims, error)
}
