package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/designstudio/portfolio-backend/internal/auth/domain"
)

// Credentials holds the single admin login.
type Credentials struct {
	email string
	hash  []byte
}

// NewCredentials builds the admin login from an email and a bcrypt hash.
func NewCredentials(email, passwordHash string) (*Credentials, error) {
	email = normalizeEmail(email)
	if email == "" || passwordHash == "" {
		return nil, domain.ErrNotConfigured
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	return &Credentials{email: email, hash: []byte(passwordHash)}, nil
}

// HashPassword produces a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Email returns the configured admin email.
func (c *Credentials) Email() string {
	return c.email
}

// Matches reports whether email names the admin.
func (c *Credentials) Matches(email string) bool {
	return subtle.ConstantTimeCompare([]byte(normalizeEmail(email)), []byte(c.email)) == 1
}

// Check verifies an email/password pair.
func (c *Credentials) Check(email, password string) error {
	emailOK := c.Matches(email)
	// Always run bcrypt so a wrong email costs the same as a wrong password.
	pwErr := bcrypt.CompareHashAndPassword(c.hash, []byte(password))
	if !emailOK || pwErr != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
