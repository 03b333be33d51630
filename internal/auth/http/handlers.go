package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designstudio/portfolio-backend/internal/auth"
	"github.com/designstudio/portfolio-backend/internal/auth/domain"
	"github.com/designstudio/portfolio-backend/internal/auth/service"
	"github.com/designstudio/portfolio-backend/internal/logging"
)

// Handler serves the admin login endpoints.
type Handler struct {
	svc          *service.AuthService
	secureCookie bool
}

func New(svc *service.AuthService, secureCookie bool) *Handler {
	return &Handler{svc: svc, secureCookie: secureCookie}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "email and password are required"})
		return
	}

	token, admin, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		log := logging.FromContext(c.Request.Context())
		if errors.Is(err, domain.ErrNotConfigured) {
			log.Error("auth.login", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "login is not configured"})
			return
		}
		log.Warnf("auth.login", "ip=%s error=%v", c.ClientIP(), err)
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid credentials"})
		return
	}

	h.setSessionCookie(c, token, int(h.svc.SessionTTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"ok": true, "admin": admin})
}

func (h *Handler) logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) check(c *gin.Context) {
	admin, ok := auth.AdminFrom(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ok": true, "authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "authenticated": true, "admin": admin})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, value, maxAge, "/", "", h.secureCookie, true)
}
