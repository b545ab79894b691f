package routes

import (
	"timefilter/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers the live feed.
// Tokens are issued by the CLI only; there is no HTTP token endpoint.
func RegisterAuthRoutes(r *gin.Engine) {
	r.GET("/ws", controllers.HandleWebSocket)
}
