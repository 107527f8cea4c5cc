package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"spartab/pkg/response"
)

// BodyLimit 限制写请求的请求体大小，最大的请求是草稿快照与选票
// 声明长度超限时直接拒绝；未声明长度的请求体在读取时截断，绑定失败按参数错误返回
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.Abort(c, http.StatusRequestEntityTooLarge, 10005, fmt.Sprintf("请求体过大，上限 %d 字节", maxBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

		c.Next()
	}
}
