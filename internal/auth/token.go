// Package auth issues and verifies the bearer tokens handed to signed-in
// users and keeps a denylist of tokens revoked before they expire.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/room-booking/internal/application"
)

var (
	// ErrRevoked is returned by Verify for a token on the denylist.
	ErrRevoked = errors.New("auth: token revoked")
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("auth: signing secret is empty")
)

// Config controls token signing.
type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// Claims are the JWT claims carried by a booking token.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Denylist records revoked token ids until their natural expiry.
type Denylist interface {
	Add(ctx context.Context, tokenID string, ttl time.Duration) error
	Contains(ctx context.Context, tokenID string) (bool, error)
}

// Manager signs HS256 tokens and checks them against a denylist.
type Manager struct {
	cfg      Config
	denylist Denylist
	now      func() time.Time
}

var _ application.TokenManager = (*Manager)(nil)

// NewManager validates cfg and returns a token manager. A nil denylist
// disables revocation checks.
func NewManager(cfg Config, denylist Denylist, now func() time.Time) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "room-booking"
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{cfg: cfg, denylist: denylist, now: now}, nil
}

// TTL returns the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.cfg.TTL
}

// Issue signs a token for user.
func (m *Manager) Issue(ctx context.Context, user application.User) (application.Session, error) {
	now := m.now()
	expires := now.Add(m.cfg.TTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: string(user.Role),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return application.Session{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return application.Session{Token: signed, ExpiresAt: expires}, nil
}

// Parse validates the signature and expiry of token and returns its claims.
func (m *Manager) Parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(m.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("auth: invalid token")
	}
	return claims, nil
}

// Verify returns the subject of a valid token that has not been revoked.
func (m *Manager) Verify(ctx context.Context, token string) (string, error) {
	claims, err := m.Parse(token)
	if err != nil {
		return "", err
	}
	if m.denylist != nil && claims.ID != "" {
		revoked, err := m.denylist.Contains(ctx, claims.ID)
		if err != nil {
			return "", fmt.Errorf("auth: denylist lookup: %w", err)
		}
		if revoked {
			return "", ErrRevoked
		}
	}
	return claims.Subject, nil
}

// Revoke denylists token for the rest of its lifetime. Tokens that no longer
// verify need no revocation.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if m.denylist == nil {
		return nil
	}
	claims, err := m.Parse(token)
	if err != nil || claims.ID == "" {
		return nil
	}
	remaining := claims.ExpiresAt.Time.Sub(m.now())
	if remaining <= 0 {
		return nil
	}
	return m.denylist.Add(ctx, claims.ID, remaining)
}
