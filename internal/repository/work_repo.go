package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/AlexSserb/dental-lab-backend/internal/model"
)

// WorkRepository 产品数据访问接口
type WorkRepository interface {
	Create(ctx context.Context, work *model.Work) error
	GetByID(ctx context.Context, id string) (*model.Work, error)
	// ListByOrder 订单下的产品，附带产品类型的工序模板与已生成的工序
	ListByOrder(ctx context.Context, orderID string) ([]model.Work, error)
}

type workRepo struct {
	db *gorm.DB
}

func NewWorkRepo(db *gorm.DB) WorkRepository {
	return &workRepo{db: db}
}

func (r *workRepo) Create(ctx context.Context, work *model.Work) error {
	return r.db.WithContext(ctx).Create(work).Error
}

func (r *workRepo) GetByID(ctx context.Context, id string) (*model.Work, error) {
	var work model.Work
	err := r.db.WithContext(ctx).
		Preload("WorkType").
		Where("work_id = ?", id).
		First(&work).Error
	if err != nil {
		return nil, err
	}
	return &work, nil
}

func (r *workRepo) ListByOrder(ctx context.Context, orderID string) ([]model.Work, error) {
	var works []model.Work
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("WorkType").
		Preload("WorkType.Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal_number ASC")
		}).
		Preload("WorkType.Steps.OperationType").
		Preload("Operations", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal_number ASC")
		}).
		Preload("Operations.OperationType").
		Preload("Operations.OperationStatus").
		Preload("Operations.Tech").
		Where("order_id = ?", orderID).
		Order("created_at ASC, work_id ASC").
		Find(&works).Error
	return works, err
}
