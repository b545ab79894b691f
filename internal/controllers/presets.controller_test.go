package controllers

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"timefilter/internal/middleware"
	"timefilter/internal/services"
	"timefilter/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupPresets(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "presets.yaml"))
	require.NoError(t, err)
	services.InitPresetService(services.NewPresetService(store, nil, zap.NewNop()))
	t.Cleanup(func() { services.InitPresetService(nil) })

	auth := services.InitAuthService("controllers-test-secret-0123456789abcdef", time.Hour, zap.NewNop())
	token, err := auth.GenerateToken("dashboard")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/presets", ListSavedPresets)
	r.GET("/presets/:name", GetSavedPreset)
	r.PUT("/presets/:name", middleware.RequireAuth(), SaveSavedPreset)
	r.DELETE("/presets/:name", middleware.RequireAuth(), DeleteSavedPreset)
	return r, token
}

func doAuth(r http.Handler, method, target, body, token string) int {
	req := newRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := record(r, req)
	return w.Code
}

func TestSavedPresets_Lifecycle(t *testing.T) {
	r, token := setupPresets(t)
	body := `{"timeRange":{"start":"2024-03-01T00:00:00Z","end":"2024-04-01T00:00:00Z"}}`

	assert.Equal(t, http.StatusUnauthorized, doAuth(r, http.MethodPut, "/presets/march", body, ""))
	assert.Equal(t, http.StatusUnauthorized, doAuth(r, http.MethodPut, "/presets/march", body, "a.b.cccccccccccccccccccc"))
	assert.Equal(t, http.StatusOK, doAuth(r, http.MethodPut, "/presets/march", body, token))

	w := do(r, http.MethodGet, "/presets/march", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"march","timeRange":{"start":"2024-03-01T00:00:00Z","end":"2024-04-01T00:00:00Z"}}`, w.Body.String())

	w = do(r, http.MethodGet, "/presets", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["presets"], 1)

	assert.Equal(t, http.StatusNoContent, doAuth(r, http.MethodDelete, "/presets/march", "", token))
	assert.Equal(t, http.StatusNotFound, doAuth(r, http.MethodDelete, "/presets/march", "", token))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/presets/march", "").Code)
}

func TestSavedPresets_BadInput(t *testing.T) {
	r, token := setupPresets(t)

	reversed := `{"timeRange":{"start":"2024-04-01T00:00:00Z","end":"2024-03-01T00:00:00Z"}}`
	assert.Equal(t, http.StatusBadRequest, doAuth(r, http.MethodPut, "/presets/march", reversed, token))
	assert.Equal(t, http.StatusBadRequest, doAuth(r, http.MethodPut, "/presets/march", `{}`, token))
	assert.Equal(t, http.StatusBadRequest, doAuth(r, http.MethodPut, "/presets/bad%21name", `{}`, token))
}

func TestSavedPresets_NotConfigured(t *testing.T) {
	services.InitPresetService(nil)
	r := gin.New()
	r.GET("/presets", ListSavedPresets)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/presets", "").Code)
}
