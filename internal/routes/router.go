package routes

import (
	"net/http"

	"timefilter/internal/middleware"

	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
}

// NewRouter wires middleware and every route group
func NewRouter(opts RouterOptions) *gin.Engine {
	middleware.SetAllowedOrigins(opts.AllowedOrigins)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(opts.RateLimit, opts.RateBurst)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterTimeFilterRoutes(r)
	RegisterHistoryRoutes(r)
	RegisterPresetRoutes(r, middleware.NewRateLimiter(1, 5))
	RegisterAuthRoutes(r)

	return r
}
