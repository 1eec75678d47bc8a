package service

import (
	"go.uber.org/zap"

	"github.com/AlexSserb/dental-lab-backend/internal/repository"
	"github.com/AlexSserb/dental-lab-backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	Plan      PlanService
	Operation OperationService
	Work      WorkService
	Export    ExportService
}

// NewService 创建 Service 聚合
// locker 与 blacklist 由 Redis 提供；Redis 不可用时 locker 传进程内锁，blacklist 传 nil
func NewService(
	repo *repository.Repository,
	engine *Engine,
	jwtMgr *jwt.Manager,
	locker Locker,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:      NewAuthService(repo, jwtMgr, blacklist, logger),
		Plan:      NewPlanService(repo, engine, locker, logger),
		Operation: NewOperationService(repo, engine, logger),
		Work:      NewWorkService(repo, engine, logger),
		Export:    NewExportService(repo, engine, logger),
	}
}
