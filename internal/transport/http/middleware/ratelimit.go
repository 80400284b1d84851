package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/ratelimit"
	"cmp-dialogue/internal/transport/http/response"
)

// RateLimit rejects a request with 429 before its handler runs once the
// client IP has used up the class's window. The client IP comes from
// X-Forwarded-For only when the peer is a trusted proxy of the engine.
// A failing limiter backend lets the request through.
func RateLimit(l ratelimit.Limiter, class ratelimit.Class, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.ClientIP()
		decision, err := class.Admit(c.Request.Context(), l, identity)
		if err != nil {
			log.Error("ratelimit", "admission check failed", map[string]interface{}{
				"class":    class.Name,
				"identity": identity,
				"error":    err,
			})
			c.Next()
			return
		}
		if !decision.Allowed {
			log.Warn("ratelimit", "request rejected", map[string]interface{}{
				"class":    class.Name,
				"identity": identity,
				"path":     c.FullPath(),
			})
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
			response.Abort(c, http.StatusTooManyRequests, response.MsgTooManyRequests)
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
