package routes

import (
	"timefilter/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterHistoryRoutes(r *gin.Engine) {
	r.GET("/history", controllers.GetHistory)
	r.GET("/metrics/latest", controllers.GetLatestSnapshot)
}
