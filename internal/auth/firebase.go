package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/designstudio/portfolio-backend/config"
)

// FirebaseVerifier accepts Firebase ID tokens as an alternative admin login.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// InitializeFirebase initializes the Firebase Admin SDK. It returns nil
// without error when no credentials are configured.
func InitializeFirebase(ctx context.Context, cfg *config.FirebaseConfig) (*FirebaseVerifier, error) {
	if cfg.CredentialsPath == "" {
		return nil, nil
	}

	opt := option.WithCredentialsFile(cfg.CredentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	return &FirebaseVerifier{client: client}, nil
}

// VerifyEmail validates idToken and returns its verified email claim.
func (v *FirebaseVerifier) VerifyEmail(ctx context.Context, idToken string) (string, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("invalid id token: %w", err)
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return "", fmt.Errorf("id token has no email claim")
	}
	if verified, _ := token.Claims["email_verified"].(bool); !verified {
		return "", fmt.Errorf("id token email %s is not verified", email)
	}
	return email, nil
}
