package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthOf(t *testing.T, h *HealthHandler) HealthResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth_NoDependencies(t *testing.T) {
	resp := healthOf(t, NewHealthHandler("portfolio-api", "test", nil, nil))

	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "disabled", resp.DB)
	assert.Equal(t, "disabled", resp.Redis)
	assert.Equal(t, "portfolio-api", resp.Service)
}

func TestHealth_RedisUpAndDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	h := NewHealthHandler("portfolio-api", "test", nil, rdb)
	assert.Equal(t, "up", healthOf(t, h).Redis)

	mr.Close()
	resp := healthOf(t, h)
	assert.Equal(t, "down", resp.Redis)
	assert.Equal(t, "degraded", resp.Status)
}
