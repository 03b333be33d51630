package http

import "github.com/gin-gonic/gin"

// Register attaches the auth routes. loginGuard runs before the login
// handler only and is typically a rate limiter.
func (h *Handler) Register(rg *gin.RouterGroup, loginGuard ...gin.HandlerFunc) {
	rg.POST("/login", append(loginGuard, h.login)...)
	rg.POST("/logout", h.logout)
	rg.GET("/check", h.check)
}
