package planner

import (
	"sort"
	"strings"
	"time"
)

// 冲突原因
const (
	ReasonPause    = "技师两道工序之间的休息时间不足"
	ReasonOrder    = "工序执行顺序被打乱"
	ReasonDeadline = "超出订单截止日期"
)

// Entry 日历上一道已排工序及其诊断信息
type Entry struct {
	OperationID string
	WorkID      string
	TechID      string
	Ordinal     int
	Start       time.Time
	End         time.Time
	Deadline    time.Time

	Error   bool
	Reasons []string
}

// Description 人类可读的冲突说明
func (e *Entry) Description() string {
	return strings.Join(e.Reasons, "; ")
}

func (e *Entry) flag(reason string) {
	e.Error = true
	for _, r := range e.Reasons {
		if r == reason {
			return
		}
	}
	e.Reasons = append(e.Reasons, reason)
}

// Annotator 冲突标注器：只附加诊断，不改动任何开始时间
type Annotator struct {
	window Window
	pause  time.Duration
}

// NewAnnotator 创建标注器
func NewAnnotator(window Window, pause time.Duration) *Annotator {
	return &Annotator{window: window, pause: pause}
}

// Annotate 就地标注 entries
//
// 先清空已有诊断再重新计算，对未变化的日程重复调用结果一致。
// 两轮检查都在同一个切片的下标上进行。
func (a *Annotator) Annotate(entries []Entry) {
	for i := range entries {
		entries[i].Error = false
		entries[i].Reasons = nil
	}

	// 按技师：相邻两道工序的间隔不得小于 pause
	byTech := make(map[string][]int)
	for i := range entries {
		if entries[i].TechID != "" {
			byTech[entries[i].TechID] = append(byTech[entries[i].TechID], i)
		}
	}
	for _, idx := range byTech {
		sort.SliceStable(idx, func(x, y int) bool {
			ex, ey := &entries[idx[x]], &entries[idx[y]]
			if !ex.Start.Equal(ey.Start) {
				return ex.Start.Before(ey.Start)
			}
			return ex.OperationID < ey.OperationID
		})
		for k := 1; k < len(idx); k++ {
			prev, cur := &entries[idx[k-1]], &entries[idx[k]]
			if cur.Start.Sub(prev.End) < a.pause {
				prev.flag(ReasonPause)
				cur.flag(ReasonPause)
			}
		}
	}

	// 按 Work：序号相邻的工序不得重叠，且都不得超出截止日期
	byWork := make(map[string][]int)
	for i := range entries {
		byWork[entries[i].WorkID] = append(byWork[entries[i].WorkID], i)
	}
	for _, idx := range byWork {
		sort.SliceStable(idx, func(x, y int) bool {
			return entries[idx[x]].Ordinal < entries[idx[y]].Ordinal
		})
		for k, i := range idx {
			cur := &entries[i]
			if k > 0 {
				prev := &entries[idx[k-1]]
				if !prev.End.Before(cur.Start) {
					prev.flag(ReasonOrder)
					cur.flag(ReasonOrder)
				}
			}
			if a.window.AfterDate(cur.End, cur.Deadline) {
				cur.flag(ReasonDeadline)
			}
		}
	}
}

// EntriesFromOperations 将已排工序转为日历条目，未排开始时间的工序被跳过
func EntriesFromOperations(ops []Operation) []Entry {
	entries := make([]Entry, 0, len(ops))
	for i := range ops {
		op := &ops[i]
		if op.Start == nil {
			continue
		}
		entries = append(entries, Entry{
			OperationID: op.ID,
			WorkID:      op.WorkID,
			TechID:      op.TechID,
			Ordinal:     op.Ordinal,
			Start:       *op.Start,
			End:         op.End(),
			Deadline:    op.Deadline,
		})
	}
	return entries
}
