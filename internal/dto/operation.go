package dto

// ── 工序 DTO ──

// AssignOperationRequest 手动指定单道工序的技师与开始时间
type AssignOperationRequest struct {
	OperationID string `json:"operationId" binding:"required,uuid"`
	TechEmail   string `json:"techEmail"   binding:"required,email"`
	ExecStart   string `json:"execStart"   binding:"required"`
}

// UpdateOperationRequest 部分更新工序，nil 字段不修改
type UpdateOperationRequest struct {
	OperationID string  `json:"operationId" binding:"required,uuid"`
	TechEmail   *string `json:"techEmail"   binding:"omitempty,email"`
	ExecStart   *string `json:"execStart"`
	Editable    *bool   `json:"editable"`
}

// UpdateOperationStatusRequest 更新工序状态
type UpdateOperationStatusRequest struct {
	Status int `json:"status" binding:"required,min=1,max=3"`
}

// ScheduleQuery 日历查询参数，日期格式 YYYY-MM-DD 或 DD.MM.YYYY
type ScheduleQuery struct {
	From string `form:"from" binding:"required,datetime=2006-01-02|datetime=02.01.2006"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02|datetime=02.01.2006"`
	Tech string `form:"tech" binding:"omitempty,email"`
}

// TechScheduleQuery 单个技师日历查询参数
type TechScheduleQuery struct {
	From string `form:"from" binding:"required,datetime=2006-01-02|datetime=02.01.2006"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02|datetime=02.01.2006"`
}

// OperationTypeBrief 工序类型摘要
type OperationTypeBrief struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Group           string `json:"group"`
	DurationMinutes int    `json:"durationMinutes"`
}

// ScheduledOperation 带冲突标注的日历条目
type ScheduledOperation struct {
	ID               string             `json:"id"`
	WorkID           string             `json:"workId"`
	OrderID          string             `json:"orderId"`
	Ordinal          int                `json:"ordinal"`
	OperationType    OperationTypeBrief `json:"operationType"`
	Status           int                `json:"status"`
	TechEmail        string             `json:"techEmail,omitempty"`
	TechName         string             `json:"techName,omitempty"`
	Group            string             `json:"group"`
	Start            *string            `json:"start"`
	End              *string            `json:"end"`
	Deadline         string             `json:"deadline"`
	Editable         bool               `json:"editable"`
	Error            bool               `json:"error"`
	ErrorDescription string             `json:"errorDescription,omitempty"`
}

// OperationListRequest 技师工序列表
type OperationListRequest struct {
	PaginationRequest
}

// OperationStatusEventResponse 一次状态变更
type OperationStatusEventResponse struct {
	Status     int    `json:"status"`
	StatusName string `json:"statusName"`
	CreatedAt  string `json:"createdAt"`
}

// OperationWithHistory 工序及其状态历史，历史按时间倒序
type OperationWithHistory struct {
	ScheduledOperation
	History []OperationStatusEventResponse `json:"history"`
}
