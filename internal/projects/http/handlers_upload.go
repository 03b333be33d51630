package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designstudio/portfolio-backend/internal/media"
)

// upload accepts a multipart "file" field and returns the stored reference.
func (h *Handler) upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "no file provided"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable file"})
		return
	}
	defer f.Close()

	ref, err := h.uploader.Upload(c.Request.Context(), media.File{
		Name:     header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Body:     f,
	})
	if err != nil {
		writeError(c, "media.upload", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "url": ref.URL, "kind": ref.Kind})
}
