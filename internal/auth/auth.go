// Package auth issues and verifies the bearer tokens that gate the
// upload endpoints.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/onecore/docintake/internal/core/domain"
)

const RoleUploader = "uploader"

const minSecretLen = 32

// Claims is the token payload: the standard registered set plus the
// subject's role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLen)
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a fresh token for the subject. An empty subject gets a
// generated anonymous identity.
func (m *Manager) Issue(subject, role string) (string, time.Time, error) {
	if subject == "" {
		subject = "anon-" + uuid.NewString()
	}
	if role == "" {
		role = RoleUploader
	}

	now := time.Now()
	expiresAt := now.Add(m.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify parses and validates a token. The signing method is pinned to
// HS256 to prevent algorithm confusion.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v (only HS256 allowed)", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnauthorized, "verify token", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.WrapError(domain.ErrUnauthorized, "verify token", errors.New("invalid token"))
	}
	return claims, nil
}

// Refresh re-issues a token for the same subject and role.
func (m *Manager) Refresh(tokenStr string) (string, time.Time, error) {
	claims, err := m.Verify(tokenStr)
	if err != nil {
		return "", time.Time{}, err
	}
	return m.Issue(claims.Subject, claims.Role)
}
