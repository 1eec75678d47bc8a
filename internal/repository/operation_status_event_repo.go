package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/AlexSserb/dental-lab-backend/internal/model"
)

// OperationStatusEventRepository 工序状态历史数据访问接口
type OperationStatusEventRepository interface {
	CreateBatch(ctx context.Context, events []model.OperationStatusEvent) error
	// ListByOperations 若干工序的状态历史，附带状态字典，按时间倒序
	ListByOperations(ctx context.Context, operationIDs []string) ([]model.OperationStatusEvent, error)
}

type operationStatusEventRepo struct {
	db *gorm.DB
}

func NewOperationStatusEventRepo(db *gorm.DB) OperationStatusEventRepository {
	return &operationStatusEventRepo{db: db}
}

func (r *operationStatusEventRepo) CreateBatch(ctx context.Context, events []model.OperationStatusEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

func (r *operationStatusEventRepo) ListByOperations(ctx context.Context, operationIDs []string) ([]model.OperationStatusEvent, error) {
	var events []model.OperationStatusEvent
	if len(operationIDs) == 0 {
		return events, nil
	}
	err := r.db.WithContext(ctx).
		Preload("OperationStatus").
		Where("operation_id IN ?", operationIDs).
		Order("created_at DESC, event_id ASC").
		Find(&events).Error
	return events, err
}
