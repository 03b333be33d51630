package http

import "github.com/gin-gonic/gin"

// Register attaches project and upload routes to the API group. Reads are
// public; requireAdmin guards every mutation.
func (h *Handler) Register(api *gin.RouterGroup, requireAdmin gin.HandlerFunc) {
	projects := api.Group("/projects")
	projects.GET("", h.list)
	projects.GET("/stream", h.stream)
	projects.GET("/:id", h.get)
	projects.POST("", requireAdmin, h.create)
	projects.PUT("/:id", requireAdmin, h.update)
	projects.DELETE("/:id", requireAdmin, h.delete)

	api.POST("/uploads", requireAdmin, h.upload)
}
