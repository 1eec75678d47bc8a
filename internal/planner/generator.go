// Package planner 牙科技工室生产排产引擎
//
// 纯内存计算，不做任何 I/O：输入一次快照（工序 + 技师），输出分配方案。
// 调用方负责加载数据、持久化结果，以及在多个写入方之间加锁。
package planner

import (
	"sort"
	"time"
)

// Generator 贪心排产器
type Generator struct {
	window Window
	pause  time.Duration
}

// NewGenerator 创建排产器
func NewGenerator(window Window, pause time.Duration) *Generator {
	return &Generator{window: window, pause: pause}
}

// Window 当前使用的工作时间窗
func (g *Generator) Window() Window { return g.window }

// Pause 技师两道工序之间的最小间隔
func (g *Generator) Pause() time.Duration { return g.pause }

// Generate 为所有可编辑工序分配技师与开始时间
//
// 处理顺序：截止日期升序 → WorkID 升序 → 序号升序。
// 任一工序找不到技师或超出截止日期即返回 *PlanningError，整批作废。
// 不修改 in 中的任何数据。
func (g *Generator) Generate(in Input) (*Plan, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	ops := make([]Operation, len(in.Operations))
	for i := range in.Operations {
		ops[i] = in.Operations[i].clone()
	}

	pinned := make([]Operation, 0, len(in.Obstacles)+len(ops))
	pinned = append(pinned, in.Obstacles...)
	for i := range ops {
		if !ops[i].Editable {
			pinned = append(pinned, ops[i])
		}
	}

	pool := NewPool()
	pool.Seed(in.Technicians, pinned, g.pause, now)
	prec := NewPrecedence(ops, g.pause)

	order := make([]int, len(ops))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		x, y := &ops[order[a]], &ops[order[b]]
		if !x.Deadline.Equal(y.Deadline) {
			return x.Deadline.Before(y.Deadline)
		}
		if x.WorkID != y.WorkID {
			return x.WorkID < y.WorkID
		}
		return x.Ordinal < y.Ordinal
	})

	assignments := make([]Assignment, 0, len(ops))
	for _, i := range order {
		op := &ops[i]
		if !op.Editable {
			continue
		}

		techID, available, err := pool.Pop(op.Group)
		if err != nil {
			return nil, &PlanningError{
				Kind:        KindNoTechnician,
				OperationID: op.ID,
				WorkID:      op.WorkID,
				Group:       op.Group,
				Err:         err,
			}
		}

		earliest := available
		if t, ok := prec.Earliest(op); ok && t.After(earliest) {
			earliest = t
		}

		start, end := g.window.Fit(earliest, op.Duration)
		if g.window.AfterDate(end, op.Deadline) {
			return nil, &PlanningError{
				Kind:        KindDeadline,
				OperationID: op.ID,
				WorkID:      op.WorkID,
				Group:       op.Group,
				End:         end,
				Deadline:    op.Deadline,
				Err:         ErrDeadlineViolated,
			}
		}

		op.TechID = techID
		op.Start = &start
		pool.Push(op.Group, techID, end.Add(g.pause))

		assignments = append(assignments, Assignment{
			OperationID: op.ID,
			TechID:      techID,
			Start:       start,
			End:         end,
		})
	}

	return &Plan{Operations: ops, Assignments: assignments}, nil
}
