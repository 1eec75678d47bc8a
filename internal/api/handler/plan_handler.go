package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/AlexSserb/dental-lab-backend/internal/dto"
	"github.com/AlexSserb/dental-lab-backend/internal/service"
	"github.com/AlexSserb/dental-lab-backend/pkg/response"
)

// PlanHandler 生产计划 HTTP 处理器
type PlanHandler struct {
	planSvc service.PlanService
}

// NewPlanHandler 创建 PlanHandler
func NewPlanHandler(planSvc service.PlanService) *PlanHandler {
	return &PlanHandler{planSvc: planSvc}
}

// GeneratePlan 生成计划预览（不落库）
// POST /api/v1/plan
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	result, err := h.planSvc.GeneratePlan(c.Request.Context())
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OK(c, result)
}

// ApplyPlan 写回确认后的计划
// POST /api/v1/plan/apply
func (h *PlanHandler) ApplyPlan(c *gin.Context) {
	var req dto.ApplyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.planSvc.ApplyPlan(c.Request.Context(), &req)
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OK(c, result)
}

// AssignOrderOperations 按订单重新排产并落库
// POST /api/v1/assign-operations/order
func (h *PlanHandler) AssignOrderOperations(c *gin.Context) {
	var req dto.AssignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.planSvc.AssignOrderOperations(c.Request.Context(), req.OrderID)
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OK(c, result)
}
