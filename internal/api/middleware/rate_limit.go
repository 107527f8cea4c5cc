package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spartab/pkg/redis"
	"spartab/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// 按调用者与路由计数，未认证请求按客户端 IP 计数；rdb 为 nil 时放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		subject := c.GetString("user_id")
		if subject == "" {
			subject = c.ClientIP()
		}
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), subject+":"+c.FullPath(), limit, window)
		if err != nil {
			// Redis 出错时降级放行
			logger.Warn("限流检查失败", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			response.Abort(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			return
		}

		c.Next()
	}
}
