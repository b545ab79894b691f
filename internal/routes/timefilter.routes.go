package routes

import (
	"timefilter/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterTimeFilterRoutes(r *gin.Engine) {
	timeFilter := r.Group("/time-filter")
	{
		timeFilter.GET("/presets", controllers.GetTimeFilterPresets)
		timeFilter.GET("/comparisons", controllers.GetComparisonPresets)
		timeFilter.GET("/comparisons/check", controllers.CheckComparisonShift)
		timeFilter.POST("/construct", controllers.ConstructTimeFilter)
		timeFilter.POST("/classify", controllers.ClassifyTimeFilter)
	}
}
