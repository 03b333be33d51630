package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/designstudio/portfolio-backend/internal/auth/domain"
)

const (
	// SessionCookie holds the signed admin session.
	SessionCookie = "admin_session"

	CtxAdmin = "admin"
)

type adminKey struct{}

// WithAdmin stores the authenticated admin in ctx.
func WithAdmin(ctx context.Context, admin domain.Admin) context.Context {
	return context.WithValue(ctx, adminKey{}, admin)
}

// AdminFromContext returns the admin authenticated for this request.
func AdminFromContext(ctx context.Context) (domain.Admin, bool) {
	admin, ok := ctx.Value(adminKey{}).(domain.Admin)
	return admin, ok
}

// AdminFrom extracts the admin from the Gin context.
// This is set by middleware.Authenticate.
func AdminFrom(c *gin.Context) (domain.Admin, bool) {
	v, ok := c.Get(CtxAdmin)
	if !ok {
		return domain.Admin{}, false
	}
	admin, ok := v.(domain.Admin)
	return admin, ok
}

// RequestAuthorizer grants uploads to requests that carry an admin.
type RequestAuthorizer struct{}

func (RequestAuthorizer) CanUpload(ctx context.Context) bool {
	_, ok := AdminFromContext(ctx)
	return ok
}
