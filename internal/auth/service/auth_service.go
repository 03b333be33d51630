package service

import (
	"context"
	"errors"
	"time"

	"github.com/designstudio/portfolio-backend/internal/auth/domain"
)

// IDTokenVerifier checks third-party ID tokens and returns the verified
// email.
type IDTokenVerifier interface {
	VerifyEmail(ctx context.Context, idToken string) (string, error)
}

// AuthService authenticates the portfolio admin by password or by an
// external identity provider.
type AuthService struct {
	creds    *Credentials
	sessions *Sessions
	verifier IDTokenVerifier
}

// NewAuthService wires the auth collaborators. creds may be nil when no
// password login is configured; verifier may be nil to disable ID tokens.
func NewAuthService(creds *Credentials, sessions *Sessions, verifier IDTokenVerifier) *AuthService {
	return &AuthService{creds: creds, sessions: sessions, verifier: verifier}
}

// SessionTTL is how long a login stays valid.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessions.TTL()
}

// Login checks the admin password and returns a signed session.
func (s *AuthService) Login(email, password string) (string, domain.Admin, error) {
	if s.creds == nil {
		return "", domain.Admin{}, domain.ErrNotConfigured
	}
	if err := s.creds.Check(email, password); err != nil {
		return "", domain.Admin{}, err
	}

	token, expires, err := s.sessions.Issue(s.creds.Email())
	if err != nil {
		return "", domain.Admin{}, err
	}
	return token, domain.Admin{Email: s.creds.Email(), Method: domain.MethodPassword, ExpiresAt: expires}, nil
}

// FromSession resolves a session cookie value.
func (s *AuthService) FromSession(token string) (domain.Admin, error) {
	admin, err := s.sessions.Parse(token)
	if err != nil {
		return domain.Admin{}, err
	}
	if s.creds != nil && !s.creds.Matches(admin.Email) {
		return domain.Admin{}, domain.ErrNotAdmin
	}
	return admin, nil
}

// FromIDToken resolves a bearer ID token issued by the external provider.
func (s *AuthService) FromIDToken(ctx context.Context, idToken string) (domain.Admin, error) {
	if s.verifier == nil {
		return domain.Admin{}, errors.New("id token login is disabled")
	}
	email, err := s.verifier.VerifyEmail(ctx, idToken)
	if err != nil {
		return domain.Admin{}, err
	}
	if s.creds == nil || !s.creds.Matches(email) {
		return domain.Admin{}, domain.ErrNotAdmin
	}
	return domain.Admin{Email: s.creds.Email(), Method: domain.MethodFirebase}, nil
}
