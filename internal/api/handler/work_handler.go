package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/AlexSserb/dental-lab-backend/internal/service"
	"github.com/AlexSserb/dental-lab-backend/pkg/response"
)

// WorkHandler 产品模块 HTTP 处理器
type WorkHandler struct {
	workSvc service.WorkService
}

// NewWorkHandler 创建 WorkHandler
func NewWorkHandler(workSvc service.WorkService) *WorkHandler {
	return &WorkHandler{workSvc: workSvc}
}

// ListOrderWorks 订单下的产品及工序
// GET /api/v1/orders/:id/works
func (h *WorkHandler) ListOrderWorks(c *gin.Context) {
	works, err := h.workSvc.ListOrderWorks(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlePlanningError(c, err)
		return
	}

	response.OKList(c, works)
}
