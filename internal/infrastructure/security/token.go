package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/volunteerhub/registration-api/internal/core/domain"
)

// claims is the JWT payload. The identity lives in "id" rather than "sub"
// so existing clients keep decoding it.
type claims struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 tokens.
type JWTManager struct {
	secret []byte
	now    func() time.Time
}

// Option customises a JWTManager.
type Option func(*JWTManager)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) { m.now = now }
}

func NewJWTManager(secret string, opts ...Option) *JWTManager {
	m := &JWTManager{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs c with an expiry of now+ttl.
func (m *JWTManager) Issue(c domain.TokenClaims, ttl time.Duration) (string, error) {
	if c.Subject == "" {
		return "", errors.New("issue token: empty subject")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("issue token: non-positive ttl %s", ttl)
	}

	now := m.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		ID:   c.Subject,
		Role: c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity.
func (m *JWTManager) Verify(token string) (*domain.TokenClaims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !parsed.Valid || c.ID == "" {
		return nil, domain.ErrTokenInvalid
	}

	out := &domain.TokenClaims{
		Subject: c.ID,
		Role:    c.Role,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}
