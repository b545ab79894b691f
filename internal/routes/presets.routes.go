package routes

import (
	"timefilter/internal/controllers"
	"timefilter/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterPresetRoutes registers saved presets; writes need a Bearer token and
// are rate limited separately from reads.
func RegisterPresetRoutes(r *gin.Engine, writeLimiter *middleware.RateLimiter) {
	presets := r.Group("/presets")
	{
		presets.GET("", controllers.ListSavedPresets)
		presets.GET("/:name", controllers.GetSavedPreset)

		writes := presets.Group("", middleware.RateLimitMiddleware(writeLimiter), middleware.RequireAuth())
		writes.PUT("/:name", controllers.SaveSavedPreset)
		writes.DELETE("/:name", controllers.DeleteSavedPreset)
	}
}
