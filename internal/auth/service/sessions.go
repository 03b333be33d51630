package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/designstudio/portfolio-backend/internal/auth/domain"
)

const (
	sessionIssuer     = "portfolio-backend"
	DefaultSessionTTL = 24 * time.Hour
)

// Sessions issues and verifies signed admin session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) (*Sessions, error) {
	if secret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of newly issued sessions.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue signs a session for email.
func (s *Sessions) Issue(email string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

// Parse verifies a session token and returns its admin.
func (s *Sessions) Parse(token string) (domain.Admin, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}

	admin := domain.Admin{Email: claims.Subject, Method: domain.MethodPassword}
	if claims.ExpiresAt != nil {
		admin.ExpiresAt = claims.ExpiresAt.Time
	}
	return admin, nil
}
