package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/designstudio/portfolio-backend/internal/logging"
)

const keepAliveInterval = 15 * time.Second

// stream pushes the current project list followed by every confirmed change
// using Server-Sent Events.
func (h *Handler) stream(c *gin.Context) {
	if h.sub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "live updates are disabled"})
		return
	}

	ctx := c.Request.Context()
	log := logging.FromContext(ctx)

	// Subscribe before reading the list so no change falls between them.
	changes, stop, err := h.sub.Subscribe(ctx)
	if err != nil {
		log.Error("projects.stream", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "live updates unavailable"})
		return
	}
	defer stop()

	items, err := h.svc.List(ctx)
	if err != nil {
		writeError(c, "projects.stream", err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	initial, _ := json.Marshal(gin.H{"projects": items})
	fmt.Fprintf(c.Writer, "event: initial\ndata: %s\n\n", initial)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case ev, ok := <-changes:
			if !ok {
				log.Warn("projects.stream", "subscription closed")
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error("projects.stream", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
