package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AlexSserb/dental-lab-backend/internal/model"
	"github.com/AlexSserb/dental-lab-backend/internal/service"
	"github.com/AlexSserb/dental-lab-backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSchedule 导出车间日历
// GET /api/v1/export/schedule?from=YYYY-MM-DD[&to=]
func (h *ExportHandler) ExportSchedule(c *gin.Context) {
	from := c.Query("from")
	if from == "" {
		response.BadRequest(c, 16001, "from 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportSchedule(c.Request.Context(), from, c.Query("to"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, contentTypeXLSX, filename, buf.Bytes())
}

// ExportTechCalendar 导出技师日历
// GET /api/v1/export/tech/:email/calendar.ics?from=YYYY-MM-DD[&to=]
func (h *ExportHandler) ExportTechCalendar(c *gin.Context) {
	from := c.Query("from")
	if from == "" {
		response.BadRequest(c, 16001, "from 不能为空")
		return
	}

	email := c.Param("email")
	if !canViewTechCalendar(c, email) {
		return
	}

	buf, filename, err := h.exportSvc.ExportTechCalendar(c.Request.Context(), email, from, c.Query("to"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, contentTypeICS, filename, buf.Bytes())
}

// canViewTechCalendar 技师只能导出自己的日历，管理员不限
func canViewTechCalendar(c *gin.Context, email string) bool {
	role, ok := MustGetRole(c)
	if !ok {
		return false
	}
	if role != model.RoleTech {
		return true
	}
	own, ok := MustGetEmail(c)
	if !ok {
		return false
	}
	if own != email {
		response.Forbidden(c, 10003, "只能导出本人的日历")
		return false
	}
	return true
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoOperations):
		response.NotFound(c, 16101, "所选时间范围内没有已排工序")
	case errors.Is(err, service.ErrTechnicianNotFound):
		response.NotFound(c, codeTechnicianNF, "技师不存在")
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrInvalidDateRange):
		response.ErrorWithDetails(c, http.StatusBadRequest, 16001, "日期范围无效", err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
