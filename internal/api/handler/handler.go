package handler

import "github.com/AlexSserb/dental-lab-backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	Plan      *PlanHandler
	Operation *OperationHandler
	Work      *WorkHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		Plan:      NewPlanHandler(svc.Plan),
		Operation: NewOperationHandler(svc.Operation),
		Work:      NewWorkHandler(svc.Work),
		Export:    NewExportHandler(svc.Export),
	}
}
