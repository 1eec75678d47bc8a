package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/AlexSserb/dental-lab-backend/internal/dto"
	"github.com/AlexSserb/dental-lab-backend/internal/service"
	"github.com/AlexSserb/dental-lab-backend/pkg/response"
)

// OperationHandler 工序模块 HTTP 处理器
type OperationHandler struct {
	opSvc service.OperationService
}

// NewOperationHandler 创建 OperationHandler
func NewOperationHandler(opSvc service.OperationService) *OperationHandler {
	return &OperationHandler{opSvc: opSvc}
}

// AssignOperation 手动指定技师与开始时间
// PATCH /api/v1/assign-operation
func (h *OperationHandler) AssignOperation(c *gin.Context) {
	var req dto.AssignOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.opSvc.AssignOperation(c.Request.Context(), &req)
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OK(c, item)
}

// UpdateOperation 部分更新工序
// PATCH /api/v1/update-operation
func (h *OperationHandler) UpdateOperation(c *gin.Context) {
	var req dto.UpdateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.opSvc.UpdateOperation(c.Request.Context(), &req)
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OK(c, item)
}

// UpdateStatus 更新工序状态
// PATCH /api/v1/operations/:id/status
func (h *OperationHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, codeValidation, "工序ID不能为空")
		return
	}

	var req dto.UpdateOperationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.opSvc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OK(c, item)
}

// ListForSchedule 车间日历
// GET /api/v1/operations-for-schedule?from=YYYY-MM-DD[&to=][&tech=]
func (h *OperationHandler) ListForSchedule(c *gin.Context) {
	var q dto.ScheduleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	items, err := h.opSvc.ListForSchedule(c.Request.Context(), &q)
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OKList(c, items)
}

// ListForTechSchedule 单个技师日历
// GET /api/v1/operations-for-schedule/tech/:email
func (h *OperationHandler) ListForTechSchedule(c *gin.Context) {
	var q dto.TechScheduleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	items, err := h.opSvc.ListForTechSchedule(c.Request.Context(), c.Param("email"), &q)
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OKList(c, items)
}

// ListForWork 产品的工序及状态历史
// GET /api/v1/works/:id/operations
func (h *OperationHandler) ListForWork(c *gin.Context) {
	items, err := h.opSvc.ListForWork(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OKList(c, items)
}

// ListForTech 当前技师自己的工序
// GET /api/v1/operations-for-tech
func (h *OperationHandler) ListForTech(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.OperationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, total, err := h.opSvc.ListForTech(c.Request.Context(), userID, &req.PaginationRequest)
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}
