package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"timefilter/internal/logging"
	"timefilter/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const claimsKey = "claims"

// RateLimiter implements token bucket rate limiting per IP
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perSecond requests per IP with the given burst
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// GetLimiter gets or creates a limiter for an IP address
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[ip]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[ip] = limiter
	return limiter
}

// RateLimitMiddleware enforces rate limiting per IP
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			logging.L().Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": 60,
			})
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

var allowedOrigins atomic.Pointer[[]string]

// SetAllowedOrigins configures the origins accepted by CORSMiddleware and CheckOrigin
func SetAllowedOrigins(origins []string) {
	normalized := make([]string, 0, len(origins))
	for _, o := range origins {
		if trimmed := strings.TrimRight(strings.TrimSpace(o), "/"); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	allowedOrigins.Store(&normalized)
}

// OriginAllowed matches origin against the configured list. Entries without a scheme
// match on host only; "*" matches everything.
func OriginAllowed(origin string) bool {
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		return false
	}
	list := allowedOrigins.Load()
	if list == nil {
		return false
	}
	for _, allowed := range *list {
		if allowed == "*" || origin == allowed {
			return true
		}
		if !strings.Contains(allowed, "://") {
			if parsed, err := url.Parse(origin); err == nil && parsed.Host == allowed {
				return true
			}
		}
	}
	return false
}

// CheckOrigin is the websocket upgrader's origin check. Requests without an Origin
// header come from non-browser clients and are let through.
func CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || OriginAllowed(origin)
}

// CORSMiddleware answers preflight requests and sets CORS headers for allowed origins
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimRight(c.GetHeader("Origin"), "/")

		if OriginAllowed(origin) {
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// ExtractToken reads a Bearer token from the Authorization header, falling back to
// the token query parameter (browsers cannot set headers on websocket upgrades).
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

// RequireAuth rejects requests without a valid JWT and stores the claims in the context
func RequireAuth() gin.HandlerFunc {
	validator := NewInputValidator()
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if !validator.ValidateToken(token) {
			logging.L().Warn("auth failed", zap.String("ip", c.ClientIP()), zap.String("reason", "missing or malformed token"))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		claims, err := services.ValidateToken(token)
		if err != nil {
			logging.L().Warn("auth failed", zap.String("ip", c.ClientIP()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Claims returns the claims stored by RequireAuth
func Claims(c *gin.Context) (*services.CustomClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.CustomClaims)
	return claims, ok
}

// InputValidator validates and sanitizes user input
type InputValidator struct{}

// NewInputValidator creates a new input validator
func NewInputValidator() *InputValidator {
	return &InputValidator{}
}

// ValidateToken checks if token format is valid
func (iv *InputValidator) ValidateToken(token string) bool {
	// header.payload.signature
	if len(token) < 20 || len(token) > 4096 {
		return false
	}
	return strings.Count(token, ".") == 2
}

// ValidateName allows 1 to 64 letters, digits, spaces, hyphens, underscores and dots
func (iv *InputValidator) ValidateName(name string) bool {
	if len(name) < 1 || len(name) > 64 {
		return false
	}
	if strings.TrimSpace(name) != name {
		return false
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' || c == ' ') {
			return false
		}
	}
	return true
}
