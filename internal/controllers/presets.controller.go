package controllers

import (
	"errors"
	"net/http"

	"timefilter/internal/expr"
	"timefilter/internal/logging"
	"timefilter/internal/middleware"
	"timefilter/internal/models"
	"timefilter/internal/services"
	"timefilter/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type savePresetRequest struct {
	TimeRange expr.TimeRangeJS `json:"timeRange"`
}

func presetService(c *gin.Context) (*services.PresetService, bool) {
	ps := services.GetPresetService()
	if ps == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "preset storage not configured"})
		return nil, false
	}
	return ps, true
}

func ListSavedPresets(c *gin.Context) {
	ps, ok := presetService(c)
	if !ok {
		return
	}
	presets, err := ps.List(c.Request.Context())
	if err != nil {
		logging.L().Error("list presets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list presets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

func GetSavedPreset(c *gin.Context) {
	ps, ok := presetService(c)
	if !ok {
		return
	}
	preset, err := ps.Get(c.Request.Context(), c.Param("name"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logging.L().Error("get preset", zap.String("name", c.Param("name")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preset"})
		return
	}
	c.JSON(http.StatusOK, preset)
}

// SaveSavedPreset creates or replaces the preset named in the path
func SaveSavedPreset(c *gin.Context) {
	ps, ok := presetService(c)
	if !ok {
		return
	}

	name := c.Param("name")
	if !middleware.NewInputValidator().ValidateName(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preset name"})
		return
	}

	var req savePresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeRange is required"})
		return
	}
	preset, err := models.TimePresetFromJS(models.TimePresetJS{Name: name, TimeRange: req.TimeRange})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ps.Save(c.Request.Context(), preset); err != nil {
		logging.L().Error("save preset", zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preset"})
		return
	}

	if claims, ok := middleware.Claims(c); ok {
		logging.L().Info("preset written", zap.String("name", name), zap.String("client", claims.ClientName))
	}
	c.JSON(http.StatusOK, preset)
}

func DeleteSavedPreset(c *gin.Context) {
	ps, ok := presetService(c)
	if !ok {
		return
	}
	err := ps.Delete(c.Request.Context(), c.Param("name"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logging.L().Error("delete preset", zap.String("name", c.Param("name")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete preset"})
		return
	}
	c.Status(http.StatusNoContent)
}
