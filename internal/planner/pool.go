package planner

import (
	"container/heap"
	"time"
)

// slot 技师空闲时刻
type slot struct {
	at     time.Time
	techID string
	seq    uint64
}

// slotHeap 按空闲时刻升序的最小堆；时刻相同按入堆顺序（先进先出）
type slotHeap []slot

func (h slotHeap) Len() int { return len(h) }
func (h slotHeap) Less(i, j int) bool {
	if !h[i].at.Equal(h[j].at) {
		return h[i].at.Before(h[j].at)
	}
	return h[i].seq < h[j].seq
}
func (h slotHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *slotHeap) Push(x interface{}) { *h = append(*h, x.(slot)) }
func (h *slotHeap) Pop() interface{} {
	old := *h
	n := len(old)
	s := old[n-1]
	*h = old[:n-1]
	return s
}

// Pool 技师可用性池：每个技能组一个按空闲时刻排序的最小堆
//
// 只属于一次排产运行，不可跨运行或并发共享。
type Pool struct {
	queues map[Group]*slotHeap
	seq    uint64
}

// NewPool 创建空池
func NewPool() *Pool {
	return &Pool{queues: make(map[Group]*slotHeap)}
}

// Seed 以已锁定工序初始化池
//
// 每名技师只入堆一次：取其全部锁定工序中最晚的 结束+pause，且不早于 now；
// 没有锁定工序的技师以 now 入堆。入堆顺序与 techs 顺序一致。
func (p *Pool) Seed(techs []Technician, pinned []Operation, pause time.Duration, now time.Time) {
	busyUntil := make(map[string]time.Time)
	for i := range pinned {
		op := &pinned[i]
		if !op.Scheduled() {
			continue
		}
		free := op.End().Add(pause)
		if cur, ok := busyUntil[op.TechID]; !ok || free.After(cur) {
			busyUntil[op.TechID] = free
		}
	}

	for _, t := range techs {
		at := now
		if free, ok := busyUntil[t.ID]; ok && free.After(now) {
			at = free
		}
		p.Push(t.Group, t.ID, at)
	}
}

// Pop 取出 g 组最早空闲的技师；组为空时返回 ErrNoTechnician
func (p *Pool) Pop(g Group) (string, time.Time, error) {
	q := p.queues[g]
	if q == nil || q.Len() == 0 {
		return "", time.Time{}, ErrNoTechnician
	}
	s := heap.Pop(q).(slot)
	return s.techID, s.at, nil
}

// Push 放回技师的下一空闲时刻
func (p *Pool) Push(g Group, techID string, at time.Time) {
	q := p.queues[g]
	if q == nil {
		q = &slotHeap{}
		p.queues[g] = q
	}
	p.seq++
	heap.Push(q, slot{at: at, techID: techID, seq: p.seq})
}

// Len g 组当前的技师数
func (p *Pool) Len(g Group) int {
	if q := p.queues[g]; q != nil {
		return q.Len()
	}
	return 0
}
