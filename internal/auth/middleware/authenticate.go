package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/designstudio/portfolio-backend/internal/auth"
	"github.com/designstudio/portfolio-backend/internal/auth/domain"
	"github.com/designstudio/portfolio-backend/internal/auth/service"
	"github.com/designstudio/portfolio-backend/internal/logging"
)

// Authenticate resolves the admin from the session cookie or a Bearer ID
// token. It never rejects a request; use RequireAdmin for that.
func Authenticate(svc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if cookie, err := c.Cookie(auth.SessionCookie); err == nil && cookie != "" {
			admin, err := svc.FromSession(cookie)
			if err == nil {
				setAdmin(c, admin)
				c.Next()
				return
			}
			logging.FromContext(ctx).Warnf("auth.session", "error=%v", err)
		}

		if token := extractToken(c); token != "" {
			admin, err := svc.FromIDToken(ctx, token)
			if err == nil {
				setAdmin(c, admin)
			} else {
				logging.FromContext(ctx).Warnf("auth.id_token", "error=%v", err)
			}
		}

		c.Next()
	}
}

// RequireAdmin aborts with 401 unless Authenticate found an admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.AdminFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func setAdmin(c *gin.Context, admin domain.Admin) {
	c.Set(auth.CtxAdmin, admin)
	c.Request = c.Request.WithContext(auth.WithAdmin(c.Request.Context(), admin))
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
