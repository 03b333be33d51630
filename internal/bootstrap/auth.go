package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"github.com/designstudio/portfolio-backend/config"
	"github.com/designstudio/portfolio-backend/internal/auth"
	authdomain "github.com/designstudio/portfolio-backend/internal/auth/domain"
	"github.com/designstudio/portfolio-backend/internal/auth/service"
)

// NewAuthService wires password login, session signing and the optional
// Firebase verifier from configuration.
func NewAuthService(ctx context.Context, cfg *config.Config) (*service.AuthService, error) {
	creds, err := service.NewCredentials(cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash)
	switch {
	case errors.Is(err, authdomain.ErrNotConfigured):
		log.Printf("[warn] operation=auth.init message=admin login disabled, set ADMIN_EMAIL and ADMIN_PASSWORD_HASH")
		creds = nil
	case err != nil:
		return nil, err
	}

	secret := cfg.Auth.SessionSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return nil, err
		}
		log.Printf("[warn] operation=auth.init message=SESSION_SECRET not set, sessions will not survive a restart")
	}
	sessions, err := service.NewSessions(secret, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, err
	}

	fb, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		return nil, err
	}
	var verifier service.IDTokenVerifier
	if fb != nil {
		verifier = fb
		log.Printf("[info] operation=auth.init message=firebase id tokens enabled")
	}

	return service.NewAuthService(creds, sessions, verifier), nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
