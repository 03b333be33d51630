package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/designstudio/portfolio-backend/internal/logging"
	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

// StatusFor maps the project error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, operation string, err error) {
	status := StatusFor(err)
	body := gin.H{"ok": false, "error": err.Error()}

	switch {
	case status == http.StatusBadRequest:
		body["fields"] = domain.ValidationFields(err)
	case status >= http.StatusInternalServerError:
		logging.FromContext(c.Request.Context()).Error(operation, err)
		if status == http.StatusInternalServerError {
			body["error"] = "internal error"
		}
	}

	c.JSON(status, body)
}
