package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AlexSserb/dental-lab-backend/pkg/response"
)

// BodyLimit 请求体大小限制
// Content-Length 已超限时直接返回 413；长度未知的请求体读取超限时由参数绑定返回 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.PayloadTooLarge(c)
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
