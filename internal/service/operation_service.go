package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AlexSserb/dental-lab-backend/internal/dto"
	"github.com/AlexSserb/dental-lab-backend/internal/model"
	"github.com/AlexSserb/dental-lab-backend/internal/planner"
	"github.com/AlexSserb/dental-lab-backend/internal/repository"
)

// 日历默认范围
const (
	scheduleDaysBefore    = 1
	scheduleDaysAfter     = 15
	techScheduleDaysAfter = 5
)

// OperationService 工序业务接口
type OperationService interface {
	// AssignOperation 手动指定技师与开始时间，绕过批量排产直接落库
	AssignOperation(ctx context.Context, req *dto.AssignOperationRequest) (*dto.ScheduledOperation, error)
	// UpdateOperation 部分更新开始时间 / 技师 / 可编辑标记
	UpdateOperation(ctx context.Context, req *dto.UpdateOperationRequest) (*dto.ScheduledOperation, error)
	UpdateStatus(ctx context.Context, operationID string, status int) (*dto.ScheduledOperation, error)

	// ListForSchedule 全车间日历（带冲突标注）
	ListForSchedule(ctx context.Context, q *dto.ScheduleQuery) ([]dto.ScheduledOperation, error)
	// ListForTechSchedule 单个技师日历（带冲突标注）
	ListForTechSchedule(ctx context.Context, email string, q *dto.TechScheduleQuery) ([]dto.ScheduledOperation, error)
	// ListForTech 技师自己的工序列表（分页）
	ListForTech(ctx context.Context, techID string, page *dto.PaginationRequest) ([]dto.ScheduledOperation, int64, error)
	// ListForWork 产品的全部工序及各自的状态历史
	ListForWork(ctx context.Context, workID string) ([]dto.OperationWithHistory, error)
}

type operationService struct {
	repo   *repository.Repository
	engine *Engine
	logger *zap.Logger
	now    func() time.Time
}

// NewOperationService 创建 OperationService 实例
func NewOperationService(repo *repository.Repository, engine *Engine, logger *zap.Logger) OperationService {
	return &operationService{repo: repo, engine: engine, logger: logger, now: time.Now}
}

// ── 手动编辑 ──

func (s *operationService) AssignOperation(ctx context.Context, req *dto.AssignOperationRequest) (*dto.ScheduledOperation, error) {
	start, err := ParseExecStart(req.ExecStart, s.location())
	if err != nil {
		return nil, err
	}

	op, err := s.getOperation(ctx, req.OperationID)
	if err != nil {
		return nil, err
	}
	tech, err := s.getTechnician(ctx, req.TechEmail, op)
	if err != nil {
		return nil, err
	}

	op.TechID = &tech.UserID
	op.ExecStart = &start
	op.Tech = tech

	if err := s.repo.Operation.Update(ctx, op); err != nil {
		s.logger.Error("手动分配工序失败", zap.String("operation_id", op.OperationID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("手动分配工序",
		zap.String("operation_id", op.OperationID),
		zap.String("tech", tech.Email),
		zap.Time("exec_start", start),
	)
	return s.single(op), nil
}

func (s *operationService) UpdateOperation(ctx context.Context, req *dto.UpdateOperationRequest) (*dto.ScheduledOperation, error) {
	op, err := s.getOperation(ctx, req.OperationID)
	if err != nil {
		return nil, err
	}

	if req.ExecStart != nil {
		start, err := ParseExecStart(*req.ExecStart, s.location())
		if err != nil {
			return nil, err
		}
		op.ExecStart = &start
	}
	if req.TechEmail != nil {
		tech, err := s.getTechnician(ctx, *req.TechEmail, op)
		if err != nil {
			return nil, err
		}
		op.TechID = &tech.UserID
		op.Tech = tech
	}
	if req.Editable != nil {
		op.IsExecStartEditable = *req.Editable
	}

	if err := s.repo.Operation.Update(ctx, op); err != nil {
		s.logger.Error("更新工序失败", zap.String("operation_id", op.OperationID), zap.Error(err))
		return nil, err
	}
	return s.single(op), nil
}

// UpdateStatus 更新状态；状态确有变化时在同一事务内追加一条历史
func (s *operationService) UpdateStatus(ctx context.Context, operationID string, status int) (*dto.ScheduledOperation, error) {
	op, err := s.getOperation(ctx, operationID)
	if err != nil {
		return nil, err
	}

	st, err := s.repo.OperationStatus.GetByNumber(ctx, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidStatus
		}
		s.logger.Error("查询工序状态失败", zap.Int("status", status), zap.Error(err))
		return nil, err
	}

	changed := op.OperationStatusID == nil || *op.OperationStatusID != st.OperationStatusID
	op.OperationStatusID = &st.OperationStatusID
	op.OperationStatus = st

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Operation.Update(ctx, op); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新工序状态失败", zap.String("operation_id", operationID), zap.Error(err))
		return nil, err
	}
	if changed {
		event := model.OperationStatusEvent{
			OperationID:       op.OperationID,
			OperationStatusID: st.OperationStatusID,
			CreatedAt:         s.now(),
		}
		if err := txRepo.StatusEvent.CreateBatch(ctx, []model.OperationStatusEvent{event}); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("记录工序状态历史失败", zap.String("operation_id", operationID), zap.Error(err))
			return nil, err
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("更新工序状态",
		zap.String("operation_id", operationID),
		zap.Int("status", status),
		zap.Bool("changed", changed),
	)
	return s.single(op), nil
}

// ── 日历 ──

func (s *operationService) ListForSchedule(ctx context.Context, q *dto.ScheduleQuery) ([]dto.ScheduledOperation, error) {
	from, to, err := s.dateRange(q.From, q.To, scheduleDaysBefore, scheduleDaysAfter)
	if err != nil {
		return nil, err
	}

	techID := ""
	if q.Tech != "" {
		tech, err := s.repo.User.GetByEmail(ctx, q.Tech)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTechnicianNotFound
			}
			s.logger.Error("查询技师失败", zap.String("email", q.Tech), zap.Error(err))
			return nil, err
		}
		techID = tech.UserID
	}

	return s.calendar(ctx, from, to, techID)
}

func (s *operationService) ListForTechSchedule(ctx context.Context, email string, q *dto.TechScheduleQuery) ([]dto.ScheduledOperation, error) {
	tech, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTechnicianNotFound
		}
		s.logger.Error("查询技师失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	from, to, err := s.dateRange(q.From, q.To, 0, techScheduleDaysAfter)
	if err != nil {
		return nil, err
	}
	return s.calendar(ctx, from, to, tech.UserID)
}

func (s *operationService) ListForTech(ctx context.Context, techID string, page *dto.PaginationRequest) ([]dto.ScheduledOperation, int64, error) {
	ops, total, err := s.repo.Operation.ListByTech(ctx, techID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询技师工序失败", zap.String("tech_id", techID), zap.Error(err))
		return nil, 0, err
	}
	return annotate(s.engine.Annotator, ops, nil, nil), total, nil
}

// ── 状态历史 ──

func (s *operationService) ListForWork(ctx context.Context, workID string) ([]dto.OperationWithHistory, error) {
	if _, err := s.repo.Work.GetByID(ctx, workID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkNotFound
		}
		s.logger.Error("查询产品失败", zap.String("work_id", workID), zap.Error(err))
		return nil, err
	}

	ops, err := s.repo.Operation.ListByWork(ctx, workID)
	if err != nil {
		s.logger.Error("查询产品工序失败", zap.String("work_id", workID), zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(ops))
	for i := range ops {
		ids = append(ids, ops[i].OperationID)
	}
	events, err := s.repo.StatusEvent.ListByOperations(ctx, ids)
	if err != nil {
		s.logger.Error("查询工序状态历史失败", zap.String("work_id", workID), zap.Error(err))
		return nil, err
	}

	history := make(map[string][]dto.OperationStatusEventResponse, len(ops))
	for i := range events {
		ev := &events[i]
		item := dto.OperationStatusEventResponse{CreatedAt: ev.CreatedAt.Format(time.RFC3339)}
		if ev.OperationStatus != nil {
			item.Status = ev.OperationStatus.Number
			item.StatusName = ev.OperationStatus.Name
		}
		history[ev.OperationID] = append(history[ev.OperationID], item)
	}

	items := annotate(s.engine.Annotator, ops, nil, nil)
	result := make([]dto.OperationWithHistory, 0, len(items))
	for _, item := range items {
		h := history[item.ID]
		if h == nil {
			h = []dto.OperationStatusEventResponse{}
		}
		result = append(result, dto.OperationWithHistory{ScheduledOperation: item, History: h})
	}
	return result, nil
}

// ── 辅助函数 ──

func (s *operationService) calendar(ctx context.Context, from, to time.Time, techID string) ([]dto.ScheduledOperation, error) {
	ops, err := s.repo.Operation.ListScheduledInRange(ctx, from, to, techID)
	if err != nil {
		s.logger.Error("查询日历工序失败", zap.Error(err))
		return nil, err
	}
	return annotate(s.engine.Annotator, ops, nil, nil), nil
}

func (s *operationService) dateRange(fromStr, toStr string, before, after int) (time.Time, time.Time, error) {
	return parseRange(s.location(), fromStr, toStr, before, after)
}

func (s *operationService) location() *time.Location {
	return s.engine.Generator.Window().Location
}

func (s *operationService) getOperation(ctx context.Context, id string) (*model.Operation, error) {
	op, err := s.repo.Operation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperationNotFound
		}
		s.logger.Error("查询工序失败", zap.String("operation_id", id), zap.Error(err))
		return nil, err
	}
	return op, nil
}

func (s *operationService) getTechnician(ctx context.Context, email string, op *model.Operation) (*model.User, error) {
	tech, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTechnicianNotFound
		}
		s.logger.Error("查询技师失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if err := checkTechnician(tech, op); err != nil {
		return nil, err
	}
	return tech, nil
}

// single 单道工序的响应；手动编辑不做冲突标注，冲突在日历视图中呈现
func (s *operationService) single(op *model.Operation) *dto.ScheduledOperation {
	p := toPlannerOperation(op)
	var entry *planner.Entry
	if entries := planner.EntriesFromOperations([]planner.Operation{p}); len(entries) == 1 {
		entry = &entries[0]
	}
	item := toScheduledOperation(op, &p, entry, nil)
	return &item
}
