package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger 请求日志中间件（基于 Zap 结构化日志）
// 除通用字段外，按路由模板记录工序 / 订单 / 产品 ID 与技师邮箱，便于按业务对象检索日志
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if rid := c.GetString(requestIDKey); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if uid := c.GetString("user_id"); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}
		fields = append(fields, routeFields(c)...)

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		switch {
		case statusCode >= 500:
			logger.Error("请求处理失败", fields...)
		case statusCode >= 400:
			logger.Warn("客户端错误", fields...)
		default:
			logger.Info("请求完成", fields...)
		}
	}
}

// idFieldByRoute :id 在不同路由下指代的业务对象
var idFieldByRoute = []struct {
	segment string
	field   string
}{
	{"/operations/:id", "operation_id"},
	{"/orders/:id", "order_id"},
	{"/works/:id", "work_id"},
}

func routeFields(c *gin.Context) []zap.Field {
	route := c.FullPath()
	if route == "" {
		return nil
	}
	fields := []zap.Field{zap.String("route", route)}
	if id := c.Param("id"); id != "" {
		for _, r := range idFieldByRoute {
			if strings.Contains(route, r.segment) {
				fields = append(fields, zap.String(r.field, id))
				break
			}
		}
	}
	if email := c.Param("email"); email != "" {
		fields = append(fields, zap.String("tech_email", email))
	}
	return fields
}
