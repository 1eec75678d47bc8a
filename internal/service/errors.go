package service

import "errors"

// ── 生产计划 / 工序模块业务错误 ──

var (
	ErrOperationNotFound       = errors.New("工序不存在")
	ErrTechnicianNotFound      = errors.New("技师不存在")
	ErrOrderNotFound           = errors.New("订单不存在")
	ErrWorkNotFound            = errors.New("产品不存在")
	ErrNotTechnician           = errors.New("该用户不是技师")
	ErrTechnicianGroupMismatch = errors.New("技师技能组与工序类型不匹配")
	ErrInvalidExecStart        = errors.New("开始时间格式无效")
	ErrInvalidDate             = errors.New("日期格式无效，应为 YYYY-MM-DD 或 DD.MM.YYYY")
	ErrInvalidDateRange        = errors.New("结束日期不能早于开始日期")
	ErrDuplicateOperation      = errors.New("同一工序在计划中出现多次")
	ErrInvalidStatus           = errors.New("无效的工序状态")
	ErrPlanningBusy            = errors.New("生产计划正在被其他请求处理，请稍后重试")
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserDisabled       = errors.New("账号已停用")
	ErrInvalidToken       = errors.New("token 无效或已过期")
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoOperations = errors.New("所选时间范围内没有已排工序")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)
