package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/AlexSserb/dental-lab-backend/internal/model"
)

// OperationStatusRepository 工序状态字典数据访问接口
type OperationStatusRepository interface {
	GetByNumber(ctx context.Context, number int) (*model.OperationStatus, error)
}

type operationStatusRepo struct {
	db *gorm.DB
}

func NewOperationStatusRepo(db *gorm.DB) OperationStatusRepository {
	return &operationStatusRepo{db: db}
}

func (r *operationStatusRepo) GetByNumber(ctx context.Context, number int) (*model.OperationStatus, error) {
	var status model.OperationStatus
	err := r.db.WithContext(ctx).
		Where("number = ?", number).
		First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}
