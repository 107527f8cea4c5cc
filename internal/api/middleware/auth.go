package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spartab/pkg/jwt"
	"spartab/pkg/redis"
	"spartab/pkg/response"
)

// JWTAuth 访问令牌认证中间件
// 从 Authorization: Bearer <token> 中提取并验证令牌；rdb 非空时检查吊销名单
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, 10002, "缺少认证头")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Abort(c, http.StatusUnauthorized, 10002, "认证头格式无效")
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, 10002, "Token 无效或已过期")
			return
		}

		if rdb != nil && claims.ID != "" {
			revoked, err := rdb.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// Redis 不可用时放行
				logger.Warn("检查令牌吊销状态失败", zap.Error(err))
			} else if revoked {
				response.Abort(c, http.StatusUnauthorized, 10002, "Token 已吊销")
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		} else {
			c.Set("token_exp", time.Time{})
		}

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Abort(c, http.StatusUnauthorized, 10002, "未认证")
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Abort(c, http.StatusForbidden, 10003, "无权限访问")
	}
}
