package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexSserb/dental-lab-backend/config"
	"github.com/AlexSserb/dental-lab-backend/internal/dto"
	"github.com/AlexSserb/dental-lab-backend/internal/model"
	"github.com/AlexSserb/dental-lab-backend/internal/planner"
	pkgerrors "github.com/AlexSserb/dental-lab-backend/pkg/errors"
)

// ── 排产引擎与持久化模型之间的转换 ──

const planningLockName = "planning"

// Engine 由配置构造的排产器与冲突标注器
type Engine struct {
	Generator *planner.Generator
	Annotator *planner.Annotator
	LockTTL   time.Duration
}

// NewEngine 由计划配置构造引擎
func NewEngine(cfg *config.PlannerConfig) (*Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("计划时区无效: %w", err)
	}
	skip, err := cfg.Weekday()
	if err != nil {
		return nil, err
	}
	window, err := planner.NewWindow(cfg.WorkdayStart, cfg.WorkdayEnd, cfg.NextDayBuffer, skip, loc)
	if err != nil {
		return nil, err
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Engine{
		Generator: planner.NewGenerator(window, cfg.Pause),
		Annotator: planner.NewAnnotator(window, cfg.Pause),
		LockTTL:   ttl,
	}, nil
}

// Locker 计划锁，*redis.Client 满足该接口
type Locker interface {
	Lock(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

// localLocker Redis 不可用时的进程内计划锁
type localLocker struct {
	mu sync.Mutex
}

// NewLocalLocker 创建进程内锁，仅在单实例部署下有效
func NewLocalLocker() Locker {
	return &localLocker{}
}

func (l *localLocker) Lock(_ context.Context, _ string, _ time.Duration) (func(), error) {
	if !l.mu.TryLock() {
		return nil, pkgerrors.ErrLockNotAcquired
	}
	return l.mu.Unlock, nil
}

// acquirePlanningLock 获取计划锁，被占用时返回 ErrPlanningBusy
func acquirePlanningLock(ctx context.Context, locker Locker, ttl time.Duration) (func(), error) {
	release, err := locker.Lock(ctx, planningLockName, ttl)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrLockNotAcquired) {
			return nil, ErrPlanningBusy
		}
		return nil, err
	}
	return release, nil
}

// ── model → planner ──

func toPlannerTechnicians(users []model.User) []planner.Technician {
	techs := make([]planner.Technician, 0, len(users))
	for _, u := range users {
		if !u.IsTech() {
			continue
		}
		g := planner.Group(*u.TechGroup)
		if !g.Valid() {
			continue
		}
		techs = append(techs, planner.Technician{ID: u.UserID, Email: u.Email, Name: u.Name, Group: g})
	}
	return techs
}

// toPlannerOperation 转换单道工序
// 已开工或已完成的工序一律视为锁定
func toPlannerOperation(op *model.Operation) planner.Operation {
	p := planner.Operation{
		ID:       op.OperationID,
		WorkID:   op.WorkID,
		Ordinal:  op.OrdinalNumber,
		Editable: op.IsExecStartEditable && statusNumber(op) == model.OperationStatusNotStarted,
	}
	if op.Work != nil {
		p.OrderID = op.Work.OrderID
		if op.Work.Order != nil {
			p.Deadline = op.Work.Order.Deadline
		}
	}
	if op.OperationType != nil {
		p.Group = planner.Group(op.OperationType.Group)
		p.Duration = op.OperationType.ExecDuration()
	}
	if op.TechID != nil {
		p.TechID = *op.TechID
	}
	if op.ExecStart != nil {
		s := *op.ExecStart
		p.Start = &s
	}
	return p
}

func toPlannerOperations(ops []model.Operation) []planner.Operation {
	result := make([]planner.Operation, 0, len(ops))
	for i := range ops {
		result = append(result, toPlannerOperation(&ops[i]))
	}
	return result
}

// statusNumber 未设置状态视为未开始
func statusNumber(op *model.Operation) int {
	if op.OperationStatus == nil {
		return model.OperationStatusNotStarted
	}
	return op.OperationStatus.Number
}

// ── 标注结果 → DTO ──

const dateLayout = "2006-01-02"

// annotate 对 ops 做冲突标注并按 ops 顺序转为 DTO
// ops 中未排的工序同样输出，只是没有开始/结束时间与诊断
// overrides 以工序 ID 覆盖技师与开始时间（预览中尚未落库的分配）
func annotate(annotator *planner.Annotator, ops []model.Operation, techs map[string]*model.User, overrides map[string]planner.Operation) []dto.ScheduledOperation {
	planned := make([]planner.Operation, len(ops))
	for i := range ops {
		if p, ok := overrides[ops[i].OperationID]; ok {
			planned[i] = p
			continue
		}
		planned[i] = toPlannerOperation(&ops[i])
	}

	entries := planner.EntriesFromOperations(planned)
	annotator.Annotate(entries)
	byID := make(map[string]*planner.Entry, len(entries))
	for i := range entries {
		byID[entries[i].OperationID] = &entries[i]
	}

	result := make([]dto.ScheduledOperation, 0, len(ops))
	for i := range ops {
		result = append(result, toScheduledOperation(&ops[i], &planned[i], byID[ops[i].OperationID], techs))
	}
	return result
}

func toScheduledOperation(op *model.Operation, p *planner.Operation, e *planner.Entry, techs map[string]*model.User) dto.ScheduledOperation {
	item := dto.ScheduledOperation{
		ID:       op.OperationID,
		WorkID:   op.WorkID,
		OrderID:  p.OrderID,
		Ordinal:  op.OrdinalNumber,
		Status:   statusNumber(op),
		Group:    string(p.Group),
		Editable: p.Editable,
	}
	if op.OperationType != nil {
		item.OperationType = dto.OperationTypeBrief{
			ID:              op.OperationType.OperationTypeID,
			Name:            op.OperationType.Name,
			Group:           op.OperationType.Group,
			DurationMinutes: op.OperationType.ExecMinutes,
		}
	}
	if !p.Deadline.IsZero() {
		item.Deadline = p.Deadline.Format(dateLayout)
	}

	if p.TechID != "" {
		tech := techs[p.TechID]
		if tech == nil && op.Tech != nil && op.Tech.UserID == p.TechID {
			tech = op.Tech
		}
		if tech != nil {
			item.TechEmail = tech.Email
			item.TechName = tech.Name
		}
	}

	if e != nil {
		start := e.Start.Format(time.RFC3339)
		end := e.End.Format(time.RFC3339)
		item.Start = &start
		item.End = &end
		item.Error = e.Error
		item.ErrorDescription = e.Description()
	}
	return item
}

func userIndex(users []model.User) map[string]*model.User {
	idx := make(map[string]*model.User, len(users))
	for i := range users {
		idx[users[i].UserID] = &users[i]
	}
	return idx
}

// ── 请求参数解析 ──

// execStartLayouts 接受的开始时间格式
// 不带时区的 "日.月.年 时:分" 按车间时区解释
var execStartLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	"02.01.2006 15:04",
}

// dateLayouts 接受的日期格式
var dateLayouts = []string{
	dateLayout,
	"02.01.2006",
}

// ParseExecStart 解析请求中的开始时间，loc 用于不带时区的格式
func ParseExecStart(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range execStartLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidExecStart, s)
}

// parseDate 解析 YYYY-MM-DD 或 DD.MM.YYYY，零点取 loc 时区
func parseDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// parseRange 解析查询范围 [from, to)
// 未给出 to 时取 from-before 天 至 from+after 天；给出时包含 to 当天
func parseRange(loc *time.Location, fromStr, toStr string, before, after int) (time.Time, time.Time, error) {
	from, err := parseDate(fromStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if toStr == "" {
		return from.AddDate(0, 0, -before), from.AddDate(0, 0, after), nil
	}
	to, err := parseDate(toStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to.AddDate(0, 0, 1), nil
}
