package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/AlexSserb/dental-lab-backend/internal/model"
)

// OperationAssignment 一条批量写回的分配
type OperationAssignment struct {
	OperationID string
	TechID      string
	ExecStart   time.Time
}

// OperationRepository 工序数据访问接口
type OperationRepository interface {
	CreateBatch(ctx context.Context, ops []model.Operation) error
	GetByID(ctx context.Context, id string) (*model.Operation, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Operation, error)

	// ListForPlanning 全部未完成的工序（附带 Work.Order、类型、技师、状态）
	ListForPlanning(ctx context.Context) ([]model.Operation, error)
	// ListByOrder 某订单下全部工序
	ListByOrder(ctx context.Context, orderID string) ([]model.Operation, error)
	// ListByWork 某产品下全部工序，按状态编号、序号排列
	ListByWork(ctx context.Context, workID string) ([]model.Operation, error)
	// ListScheduledSince 已分配技师且开始时间不早于 since 的工序，排除 excludeOrderID 所属订单
	ListScheduledSince(ctx context.Context, since time.Time, excludeOrderID string) ([]model.Operation, error)
	// ListScheduledInRange 开始时间落在 [from, to) 的已排工序；techID 非空时只取该技师
	ListScheduledInRange(ctx context.Context, from, to time.Time, techID string) ([]model.Operation, error)
	ListByTech(ctx context.Context, techID string, offset, limit int) ([]model.Operation, int64, error)

	// BulkAssign 批量写入技师与开始时间，任一工序不存在时返回 gorm.ErrRecordNotFound
	// 原子性由调用方通过 Repository.WithTx 注入事务保证
	BulkAssign(ctx context.Context, items []OperationAssignment) error
	Update(ctx context.Context, op *model.Operation) error
}

type operationRepo struct {
	db *gorm.DB
}

func NewOperationRepo(db *gorm.DB) OperationRepository {
	return &operationRepo{db: db}
}

// preloadAll 日历与排产都需要的关联
func preloadAll(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Work").
		Preload("Work.Order").
		Preload("OperationType").
		Preload("OperationStatus").
		Preload("Tech")
}

func (r *operationRepo) CreateBatch(ctx context.Context, ops []model.Operation) error {
	if len(ops) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&ops).Error
}

func (r *operationRepo) GetByID(ctx context.Context, id string) (*model.Operation, error) {
	var op model.Operation
	err := preloadAll(r.db.WithContext(ctx)).
		Where("operation_id = ?", id).
		First(&op).Error
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *operationRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Operation, error) {
	var ops []model.Operation
	if len(ids) == 0 {
		return ops, nil
	}
	err := preloadAll(r.db.WithContext(ctx)).
		Where("operation_id IN ?", ids).
		Find(&ops).Error
	return ops, err
}

func (r *operationRepo) ListForPlanning(ctx context.Context) ([]model.Operation, error) {
	var ops []model.Operation
	err := preloadAll(r.db.WithContext(ctx)).
		Joins("LEFT JOIN operation_statuses st ON st.operation_status_id = operations.operation_status_id").
		Where("st.number IS NULL OR st.number <> ?", model.OperationStatusCompleted).
		Order("operations.work_id ASC, operations.ordinal_number ASC").
		Find(&ops).Error
	return ops, err
}

func (r *operationRepo) ListByOrder(ctx context.Context, orderID string) ([]model.Operation, error) {
	var ops []model.Operation
	err := preloadAll(r.db.WithContext(ctx)).
		Joins("JOIN works w ON w.work_id = operations.work_id").
		Where("w.order_id = ?", orderID).
		Order("operations.work_id ASC, operations.ordinal_number ASC").
		Find(&ops).Error
	return ops, err
}

func (r *operationRepo) ListByWork(ctx context.Context, workID string) ([]model.Operation, error) {
	var ops []model.Operation
	err := preloadAll(r.db.WithContext(ctx)).
		Joins("LEFT JOIN operation_statuses st ON st.operation_status_id = operations.operation_status_id").
		Where("operations.work_id = ?", workID).
		Order("st.number ASC NULLS FIRST, operations.ordinal_number ASC").
		Find(&ops).Error
	return ops, err
}

func (r *operationRepo) ListScheduledSince(ctx context.Context, since time.Time, excludeOrderID string) ([]model.Operation, error) {
	var ops []model.Operation
	db := preloadAll(r.db.WithContext(ctx)).
		Joins("JOIN works w ON w.work_id = operations.work_id").
		Where("operations.tech_id IS NOT NULL AND operations.exec_start >= ?", since)
	if excludeOrderID != "" {
		db = db.Where("w.order_id <> ?", excludeOrderID)
	}
	err := db.Order("operations.exec_start ASC").Find(&ops).Error
	return ops, err
}

func (r *operationRepo) ListScheduledInRange(ctx context.Context, from, to time.Time, techID string) ([]model.Operation, error) {
	var ops []model.Operation
	db := preloadAll(r.db.WithContext(ctx)).
		Where("operations.exec_start >= ? AND operations.exec_start < ?", from, to)
	if techID != "" {
		db = db.Where("operations.tech_id = ?", techID)
	}
	err := db.Order("operations.exec_start ASC").Find(&ops).Error
	return ops, err
}

func (r *operationRepo) ListByTech(ctx context.Context, techID string, offset, limit int) ([]model.Operation, int64, error) {
	var ops []model.Operation
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Operation{}).Where("tech_id = ?", techID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := preloadAll(db).
		Offset(offset).Limit(limit).
		Order("exec_start DESC NULLS LAST").
		Find(&ops).Error; err != nil {
		return nil, 0, err
	}

	return ops, total, nil
}

func (r *operationRepo) BulkAssign(ctx context.Context, items []OperationAssignment) error {
	db := r.db.WithContext(ctx)
	for _, it := range items {
		result := db.Model(&model.Operation{}).
			Where("operation_id = ?", it.OperationID).
			Updates(map[string]interface{}{
				"tech_id":    it.TechID,
				"exec_start": it.ExecStart,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

func (r *operationRepo) Update(ctx context.Context, op *model.Operation) error {
	result := r.db.WithContext(ctx).
		Model(&model.Operation{}).
		Where("operation_id = ?", op.OperationID).
		Updates(map[string]interface{}{
			"tech_id":                op.TechID,
			"exec_start":             op.ExecStart,
			"is_exec_start_editable": op.IsExecStartEditable,
			"operation_status_id":    op.OperationStatusID,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
