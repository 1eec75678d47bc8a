package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/AlexSserb/dental-lab-backend/internal/dto"
	"github.com/AlexSserb/dental-lab-backend/internal/model"
	"github.com/AlexSserb/dental-lab-backend/internal/planner"
	"github.com/AlexSserb/dental-lab-backend/internal/repository"
)

// obstacleLookback 按订单重排时，从该时长之前开始的已排工序仍可能占用技师
const obstacleLookback = 24 * time.Hour

// PlanService 生产计划业务接口
type PlanService interface {
	// GeneratePlan 对全部未完成工序生成计划预览，不落库
	GeneratePlan(ctx context.Context) (*dto.PlanResponse, error)
	// ApplyPlan 在一个事务内写回调用方确认的分配
	ApplyPlan(ctx context.Context, req *dto.ApplyPlanRequest) (*dto.ApplyPlanResponse, error)
	// AssignOrderOperations 只重排一个订单的工序，其他已排工序作为障碍，直接落库
	AssignOrderOperations(ctx context.Context, orderID string) (*dto.PlanResponse, error)
}

type planService struct {
	repo   *repository.Repository
	engine *Engine
	locker Locker
	logger *zap.Logger
	now    func() time.Time
}

// NewPlanService 创建 PlanService 实例
func NewPlanService(repo *repository.Repository, engine *Engine, locker Locker, logger *zap.Logger) PlanService {
	return &planService{
		repo:   repo,
		engine: engine,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// GeneratePlan: 计划预览
// ═══════════════════════════════════════════════════════════

func (s *planService) GeneratePlan(ctx context.Context) (*dto.PlanResponse, error) {
	var (
		ops   []model.Operation
		techs []model.User
	)

	// 两次查询互不依赖，并发加载
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ops, err = s.repo.Operation.ListForPlanning(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		techs, err = s.repo.User.ListTechnicians(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("加载排产快照失败", zap.Error(err))
		return nil, err
	}

	plan, err := s.engine.Generator.Generate(planner.Input{
		Operations:  toPlannerOperations(ops),
		Technicians: toPlannerTechnicians(techs),
		Now:         s.now(),
	})
	if err != nil {
		s.logPlanningError("生成计划失败", err)
		return nil, err
	}

	s.logger.Info("生成计划预览",
		zap.Int("operations", len(plan.Operations)),
		zap.Int("assignments", len(plan.Assignments)),
	)

	return s.buildResponse(ops, techs, plan.Operations), nil
}

// ═══════════════════════════════════════════════════════════
// ApplyPlan: 写回分配
// ═══════════════════════════════════════════════════════════

func (s *planService) ApplyPlan(ctx context.Context, req *dto.ApplyPlanRequest) (*dto.ApplyPlanResponse, error) {
	// 1. 解析与去重，任何格式错误都不落库
	items := make([]repository.OperationAssignment, 0, len(req.Items))
	ids := make([]string, 0, len(req.Items))
	emailSet := make(map[string]struct{})
	seen := make(map[string]struct{}, len(req.Items))
	for _, it := range req.Items {
		if _, dup := seen[it.OperationID]; dup {
			return nil, ErrDuplicateOperation
		}
		seen[it.OperationID] = struct{}{}

		start, err := ParseExecStart(it.ExecStart, s.engine.Generator.Window().Location)
		if err != nil {
			return nil, err
		}
		items = append(items, repository.OperationAssignment{OperationID: it.OperationID, ExecStart: start})
		ids = append(ids, it.OperationID)
		emailSet[it.TechEmail] = struct{}{}
	}
	emails := make([]string, 0, len(emailSet))
	for e := range emailSet {
		emails = append(emails, e)
	}

	release, err := acquirePlanningLock(ctx, s.locker, s.engine.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	// 2. 校验工序与技师全部存在
	ops, err := s.repo.Operation.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询工序失败", zap.Error(err))
		return nil, err
	}
	opByID := make(map[string]*model.Operation, len(ops))
	for i := range ops {
		opByID[ops[i].OperationID] = &ops[i]
	}

	users, err := s.repo.User.ListByEmails(ctx, emails)
	if err != nil {
		s.logger.Error("查询技师失败", zap.Error(err))
		return nil, err
	}
	userByEmail := make(map[string]*model.User, len(users))
	for i := range users {
		userByEmail[users[i].Email] = &users[i]
	}

	for i, it := range req.Items {
		op, ok := opByID[it.OperationID]
		if !ok {
			s.logger.Warn("应用计划: 工序不存在", zap.String("operation_id", it.OperationID))
			return nil, ErrOperationNotFound
		}
		tech, ok := userByEmail[it.TechEmail]
		if !ok {
			s.logger.Warn("应用计划: 技师不存在", zap.String("email", it.TechEmail))
			return nil, ErrTechnicianNotFound
		}
		if err := checkTechnician(tech, op); err != nil {
			return nil, err
		}
		items[i].TechID = tech.UserID
	}

	// 3. 单事务写回
	if err := s.bulkAssign(ctx, items); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperationNotFound
		}
		return nil, err
	}

	s.logger.Info("计划已应用", zap.Int("applied", len(items)))
	return &dto.ApplyPlanResponse{Applied: len(items)}, nil
}

// ═══════════════════════════════════════════════════════════
// AssignOrderOperations: 按订单重排
// ═══════════════════════════════════════════════════════════

func (s *planService) AssignOrderOperations(ctx context.Context, orderID string) (*dto.PlanResponse, error) {
	if _, err := s.repo.Order.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询订单失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	release, err := acquirePlanningLock(ctx, s.locker, s.engine.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	var (
		ops       []model.Operation
		obstacles []model.Operation
		techs     []model.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ops, err = s.repo.Operation.ListByOrder(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		obstacles, err = s.repo.Operation.ListScheduledSince(gctx, now.Add(-obstacleLookback), orderID)
		return err
	})
	g.Go(func() error {
		var err error
		techs, err = s.repo.User.ListTechnicians(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("加载订单排产快照失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	plan, err := s.engine.Generator.Generate(planner.Input{
		Operations:  toPlannerOperations(ops),
		Obstacles:   toPlannerOperations(obstacles),
		Technicians: toPlannerTechnicians(techs),
		Now:         now,
	})
	if err != nil {
		s.logPlanningError("订单重排失败", err, zap.String("order_id", orderID))
		return nil, err
	}

	items := make([]repository.OperationAssignment, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		items = append(items, repository.OperationAssignment{
			OperationID: a.OperationID,
			TechID:      a.TechID,
			ExecStart:   a.Start,
		})
	}
	if err := s.bulkAssign(ctx, items); err != nil {
		return nil, err
	}

	s.logger.Info("订单工序已重排",
		zap.String("order_id", orderID),
		zap.Int("assignments", len(items)),
		zap.Int("obstacles", len(obstacles)),
	)

	// 与其他订单的已排工序一起标注，只返回本订单的工序
	all := append(append(make([]model.Operation, 0, len(ops)+len(obstacles)), ops...), obstacles...)
	resp := s.buildResponse(all, techs, plan.Operations)
	resp.Operations = resp.Operations[:len(ops)]
	resp.HasErrors = false
	for _, op := range resp.Operations {
		if op.Error {
			resp.HasErrors = true
			break
		}
	}
	return resp, nil
}

// ── 辅助函数 ──

// bulkAssign 在一个事务内写回全部分配
func (s *planService) bulkAssign(ctx context.Context, items []repository.OperationAssignment) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := s.repo.WithTx(tx).Operation.BulkAssign(ctx, items); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("批量写回分配失败", zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

func (s *planService) buildResponse(ops []model.Operation, techs []model.User, planned []planner.Operation) *dto.PlanResponse {
	overrides := make(map[string]planner.Operation, len(planned))
	for _, p := range planned {
		overrides[p.ID] = p
	}
	items := annotate(s.engine.Annotator, ops, userIndex(techs), overrides)

	resp := &dto.PlanResponse{Operations: items}
	for _, it := range items {
		if it.Error {
			resp.HasErrors = true
			break
		}
	}
	return resp
}

func (s *planService) logPlanningError(msg string, err error, fields ...zap.Field) {
	var pe *planner.PlanningError
	if errors.As(err, &pe) {
		fields = append(fields,
			zap.String("kind", string(pe.Kind)),
			zap.String("operation_id", pe.OperationID),
			zap.String("work_id", pe.WorkID),
			zap.String("group", string(pe.Group)),
		)
		s.logger.Warn(msg, append(fields, zap.Error(err))...)
		return
	}
	s.logger.Error(msg, append(fields, zap.Error(err))...)
}

// checkTechnician 校验用户是技师且技能组与工序类型一致
func checkTechnician(tech *model.User, op *model.Operation) error {
	if !tech.IsTech() {
		return ErrNotTechnician
	}
	if op.OperationType != nil && *tech.TechGroup != op.OperationType.Group {
		return ErrTechnicianGroupMismatch
	}
	return nil
}
