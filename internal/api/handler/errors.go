package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/AlexSserb/dental-lab-backend/internal/planner"
	"github.com/AlexSserb/dental-lab-backend/internal/service"
	"github.com/AlexSserb/dental-lab-backend/pkg/response"
)

// ── 生产计划 / 工序模块错误码 ──
//
//	140xx 参数错误    141xx 资源不存在
//	142xx 排产失败    143xx 并发冲突
const (
	codeValidation   = 14001
	codeOperationNF  = 14101
	codeTechnicianNF = 14102
	codeOrderNF      = 14103
	codeWorkNF       = 14104
	codeNoTechnician = 14201
	codeDeadline     = 14202
	codePlanningBusy = 14301
)

const validationFailedMsg = "参数校验失败"

// bindError 参数绑定失败，details 中列出未通过校验的字段
// 请求体读取超出 BodyLimit 时返回 413
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.PayloadTooLarge(c)
		return
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			if fe.Param() != "" {
				fields = append(fields, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			} else {
				fields = append(fields, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
			}
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, validationFailedMsg, strings.Join(fields, "; "))
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, validationFailedMsg, err.Error())
}

// handlePlanningError 统一处理生产计划 / 工序模块业务错误
func handlePlanningError(c *gin.Context, err error) {
	var pe *planner.PlanningError
	switch {
	case errors.As(err, &pe) && pe.Kind == planner.KindNoTechnician:
		response.Unprocessable(c, codeNoTechnician, "没有可用的技师", pe.Error())
	case errors.As(err, &pe) && pe.Kind == planner.KindDeadline:
		response.Unprocessable(c, codeDeadline, "无法在截止日期前完成", pe.Error())

	case errors.Is(err, service.ErrOperationNotFound):
		response.NotFound(c, codeOperationNF, "工序不存在")
	case errors.Is(err, service.ErrTechnicianNotFound):
		response.NotFound(c, codeTechnicianNF, "技师不存在")
	case errors.Is(err, service.ErrOrderNotFound):
		response.NotFound(c, codeOrderNF, "订单不存在")
	case errors.Is(err, service.ErrWorkNotFound):
		response.NotFound(c, codeWorkNF, "产品不存在")

	case errors.Is(err, service.ErrNotTechnician),
		errors.Is(err, service.ErrTechnicianGroupMismatch),
		errors.Is(err, service.ErrInvalidExecStart),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrDuplicateOperation),
		errors.Is(err, service.ErrInvalidStatus):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeValidation, validationFailedMsg, err.Error())

	case errors.Is(err, service.ErrPlanningBusy):
		response.Conflict(c, codePlanningBusy, "生产计划正在处理中，请稍后重试")
	default:
		response.InternalError(c)
	}
}
