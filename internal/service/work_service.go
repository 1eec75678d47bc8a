package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AlexSserb/dental-lab-backend/internal/dto"
	"github.com/AlexSserb/dental-lab-backend/internal/model"
	"github.com/AlexSserb/dental-lab-backend/internal/repository"
)

// WorkService 产品业务接口
type WorkService interface {
	// ListOrderWorks 订单下的产品及工序
	// 尚未生成工序的产品按产品类型的工序模板生成，状态为未开始
	ListOrderWorks(ctx context.Context, orderID string) ([]dto.WorkResponse, error)
}

type workService struct {
	repo   *repository.Repository
	engine *Engine
	logger *zap.Logger
	now    func() time.Time
}

// NewWorkService 创建 WorkService 实例
func NewWorkService(repo *repository.Repository, engine *Engine, logger *zap.Logger) WorkService {
	return &workService{repo: repo, engine: engine, logger: logger, now: time.Now}
}

func (s *workService) ListOrderWorks(ctx context.Context, orderID string) ([]dto.WorkResponse, error) {
	if _, err := s.repo.Order.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询订单失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	works, err := s.repo.Work.ListByOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("查询订单产品失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	created, err := s.materialize(ctx, works)
	if err != nil {
		return nil, err
	}
	if created > 0 {
		s.logger.Info("按模板生成工序", zap.String("order_id", orderID), zap.Int("operations", created))
		if works, err = s.repo.Work.ListByOrder(ctx, orderID); err != nil {
			s.logger.Error("查询订单产品失败", zap.String("order_id", orderID), zap.Error(err))
			return nil, err
		}
	}

	result := make([]dto.WorkResponse, 0, len(works))
	for i := range works {
		w := &works[i]
		for k := range w.Operations {
			w.Operations[k].Work = w
		}
		item := dto.WorkResponse{
			ID:         w.WorkID,
			OrderID:    w.OrderID,
			Amount:     w.Amount,
			Teeth:      []int(w.Teeth),
			Operations: annotate(s.engine.Annotator, w.Operations, nil, nil),
		}
		if item.Teeth == nil {
			item.Teeth = []int{}
		}
		if w.WorkType != nil {
			item.WorkType = w.WorkType.Name
		}
		result = append(result, item)
	}
	return result, nil
}

// materialize 为没有工序的产品生成工序并记录初始状态，全部在一个事务内完成
func (s *workService) materialize(ctx context.Context, works []model.Work) (int, error) {
	var pending []model.Operation
	var events []model.OperationStatusEvent
	var notStartedID *string
	now := s.now()
	for _, w := range works {
		if len(w.Operations) > 0 || w.WorkType == nil || len(w.WorkType.Steps) == 0 {
			continue
		}
		if notStartedID == nil {
			st, err := s.repo.OperationStatus.GetByNumber(ctx, model.OperationStatusNotStarted)
			if err != nil {
				s.logger.Error("查询默认工序状态失败", zap.Error(err))
				return 0, err
			}
			notStartedID = &st.OperationStatusID
		}
		for _, step := range w.WorkType.Steps {
			id := uuid.NewString()
			pending = append(pending, model.Operation{
				OperationID:         id,
				WorkID:              w.WorkID,
				OperationTypeID:     step.OperationTypeID,
				OperationStatusID:   notStartedID,
				OrdinalNumber:       step.OrdinalNumber,
				IsExecStartEditable: true,
			})
			events = append(events, model.OperationStatusEvent{
				OperationID:       id,
				OperationStatusID: *notStartedID,
				CreatedAt:         now,
			})
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return 0, err
	}
	txRepo := s.repo.WithTx(tx)
	if err := txRepo.Operation.CreateBatch(ctx, pending); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("生成工序失败", zap.Error(err))
		return 0, err
	}
	if err := txRepo.StatusEvent.CreateBatch(ctx, events); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("记录工序初始状态失败", zap.Error(err))
		return 0, err
	}
	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return 0, err
		}
	}
	return len(pending), nil
}
