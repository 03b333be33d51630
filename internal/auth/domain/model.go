package domain

import (
	"errors"
	"time"
)

// Method records how an admin proved their identity.
type Method string

const (
	MethodPassword Method = "password"
	MethodFirebase Method = "firebase"
)

// Admin is the authenticated portfolio owner.
type Admin struct {
	Email     string    `json:"email"`
	Method    Method    `json:"method"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrNotAdmin           = errors.New("identity is not the portfolio admin")
	ErrNotConfigured      = errors.New("admin credentials are not configured")
)
