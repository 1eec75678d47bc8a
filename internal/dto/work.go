package dto

// WorkResponse 产品及其工序
type WorkResponse struct {
	ID         string               `json:"id"`
	OrderID    string               `json:"orderId"`
	WorkType   string               `json:"workType"`
	Amount     int                  `json:"amount"`
	Teeth      []int                `json:"teeth"`
	Operations []ScheduledOperation `json:"operations"`
}
