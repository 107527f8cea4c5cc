package middleware

import (
	"github.com/gin-gonic/gin"
)

// 接口只返回 JSON 与 xlsx/ics 下载，不渲染页面
var apiSecurityHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cross-Origin-Resource-Policy", "same-site"},
	{"Cache-Control", "no-store"},
}

// SecurityHeaders 安全响应头，TLS 连接上另加 HSTS
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range apiSecurityHeaders {
			c.Header(h[0], h[1])
		}
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000")
		}

		c.Next()
	}
}
