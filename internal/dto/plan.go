package dto

// ── 生产计划 DTO（前端约定 camelCase）──

// PlanItem 一条待写回的分配
// execStart 接受 RFC3339 或 RFC1123（如 "Mon, 19 Oct 2026 08:00:00 GMT"）
type PlanItem struct {
	OperationID string `json:"operationId" binding:"required,uuid"`
	TechEmail   string `json:"techEmail"   binding:"required,email"`
	ExecStart   string `json:"execStart"   binding:"required"`
}

// ApplyPlanRequest 应用计划请求
type ApplyPlanRequest struct {
	Items []PlanItem `json:"items" binding:"required,min=1,dive"`
}

// AssignOrderRequest 按订单重新排产请求
type AssignOrderRequest struct {
	OrderID string `json:"orderId" binding:"required,uuid"`
}

// PlanResponse 计划预览
type PlanResponse struct {
	Operations []ScheduledOperation `json:"operations"`
	HasErrors  bool                 `json:"hasErrors"`
}

// ApplyPlanResponse 应用结果
type ApplyPlanResponse struct {
	Applied int `json:"applied"`
}
