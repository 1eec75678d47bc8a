package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AlexSserb/dental-lab-backend/config"
	"github.com/AlexSserb/dental-lab-backend/internal/api/handler"
	"github.com/AlexSserb/dental-lab-backend/internal/api/middleware"
	"github.com/AlexSserb/dental-lab-backend/internal/model"
	"github.com/AlexSserb/dental-lab-backend/pkg/jwt"
	"github.com/AlexSserb/dental-lab-backend/pkg/redis"
)

const (
	maxBodyBytes      = 1 << 20
	planRateLimit     = 10
	planRateWindow    = time.Minute
	healthPingTimeout = 2 * time.Second
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 黑名单与限流降级关闭
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// 直接传 nil 指针会得到非 nil 接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "db": "ok", "redis": "disabled"}
		code := http.StatusOK

		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["status"], status["db"] = "degraded", "down"
			code = http.StatusServiceUnavailable
		}
		if rdb != nil {
			status["redis"] = "ok"
		}
		c.JSON(code, status)
	})

	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleTech)
	planLimit := middleware.RateLimit(limiter, planRateLimit, planRateWindow)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 生产计划
			authorized.POST("/plan", admin, planLimit, h.Plan.GeneratePlan)
			authorized.POST("/plan/apply", admin, planLimit, h.Plan.ApplyPlan)
			authorized.POST("/assign-operations/order", admin, planLimit, h.Plan.AssignOrderOperations)

			// 工序
			authorized.PATCH("/assign-operation", admin, h.Operation.AssignOperation)
			authorized.PATCH("/update-operation", admin, h.Operation.UpdateOperation)
			authorized.PATCH("/operations/:id/status", staff, h.Operation.UpdateStatus)
			authorized.GET("/operations-for-schedule", staff, h.Operation.ListForSchedule)
			authorized.GET("/operations-for-schedule/tech/:email", staff, h.Operation.ListForTechSchedule)
			authorized.GET("/operations-for-tech", middleware.RoleAuth(model.RoleTech), h.Operation.ListForTech)

			// 订单产品
			authorized.GET("/orders/:id/works", staff, h.Work.ListOrderWorks)
			authorized.GET("/works/:id/operations", admin, h.Operation.ListForWork)

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/schedule", admin, h.Export.ExportSchedule)
				export.GET("/tech/:email/calendar.ics", staff, h.Export.ExportTechCalendar)
			}
		}
	}

	return r
}
