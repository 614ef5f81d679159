package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jqjjian/ad-workflow-sub001/pkg/ratelimit"
)

// RateLimitMiddleware 基于 Redis 的限流中间件，按客户端 IP 计数
func RateLimitMiddleware(limiter ratelimit.RateLimiter, rate, periodSeconds, burst int) gin.HandlerFunc {
	limit := ratelimit.Limit{
		Rate:   rate,
		Period: time.Duration(periodSeconds) * time.Second,
		Burst:  burst,
	}

	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()

		res, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			// 限流器故障时放行，不能因为 Redis 抖动拒绝业务请求
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"code":    "RATE_LIMITED",
				"message": "Too many requests",
			})
			return
		}

		c.Next()
	}
}
